package lzss

import (
	"bytes"
	"fmt"
	"io"

	"github.com/icza/bitio"
)

// Compress encodes src in the format read by Decoder.
//
// The encoder mirrors the decoder's dictionary exactly, so every
// back-reference it emits resolves to the same bytes on the device. The
// final partial byte is zero padded; the padding is shorter than any token
// and is therefore ignored by the decoder.
func Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := CompressTo(&buf, src); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CompressTo encodes src and writes the compressed stream to w.
func CompressTo(w io.Writer, src []byte) error {
	bw := bitio.NewWriter(w)
	e := newEncoder()

	for pos := 0; pos < len(src); {
		at, n := e.longestMatch(src, pos)
		if n < MinMatch {
			if err := writeLiteral(bw, src[pos]); err != nil {
				return err
			}
			e.push(src[pos])
			pos++
			continue
		}

		if err := writeMatch(bw, at, n); err != nil {
			return err
		}
		for k := 0; k < n; k++ {
			e.push(src[pos+k])
		}
		pos += n
	}

	if err := bw.Close(); err != nil {
		return fmt.Errorf("flush bit writer: %w", err)
	}
	return nil
}

// Decompress decodes a complete compressed stream held in memory.
func Decompress(src []byte) []byte {
	var out bytes.Buffer
	dec := NewDecoder(&out)
	// bytes.Buffer.WriteByte never fails
	_, _ = dec.Write(src)
	return out.Bytes()
}

func writeLiteral(bw *bitio.Writer, c byte) error {
	if err := bw.WriteBool(true); err != nil {
		return err
	}
	return bw.WriteBits(uint64(c), literalBits)
}

func writeMatch(bw *bitio.Writer, at, n int) error {
	if err := bw.WriteBool(false); err != nil {
		return err
	}
	if err := bw.WriteBits(uint64(at), OffsetBits); err != nil {
		return err
	}
	return bw.WriteBits(uint64(n-MinMatch), LengthBits)
}

// encoder tracks the decoder's dictionary while encoding.
type encoder struct {
	window [WindowSize]byte
	cursor int
}

func newEncoder() *encoder {
	e := &encoder{cursor: InitialCursor}
	for i := 0; i < InitialCursor; i++ {
		e.window[i] = Filler
	}
	return e
}

func (e *encoder) push(c byte) {
	e.window[e.cursor] = c
	e.cursor = (e.cursor + 1) & windowMask
}

// longestMatch finds the dictionary position producing the longest prefix
// of src[pos:], as the decoder would copy it.
func (e *encoder) longestMatch(src []byte, pos int) (at, n int) {
	limit := len(src) - pos
	if limit > MaxMatch {
		limit = MaxMatch
	}
	if limit < MinMatch {
		return 0, 0
	}

	for dist := 1; dist < WindowSize; dist++ {
		start := (e.cursor - dist) & windowMask
		if e.window[start] != src[pos] {
			continue
		}

		k := 1
		for ; k < limit; k++ {
			// bytes copied earlier in the same match come from the output
			var c byte
			if k >= dist {
				c = src[pos+k-dist]
			} else {
				c = e.window[(start+k)&windowMask]
			}
			if c != src[pos+k] {
				break
			}
		}

		if k > n {
			at, n = start, k
			if n == limit {
				break
			}
		}
	}

	return at, n
}
