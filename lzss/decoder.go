package lzss

import "io"

// Dictionary parameters.
const (
	// OffsetBits is the width of a back-reference position
	OffsetBits = 11

	// LengthBits is the width of a back-reference length
	LengthBits = 4

	// MinMatch is the shortest back-reference; shorter runs are literals.
	// Encoded lengths 0..15 stand for MinMatch..MaxMatch.
	MinMatch = 2

	// MaxMatch is the longest back-reference
	MaxMatch = 1<<LengthBits + 1

	// WindowSize is the size of the ring-buffer dictionary
	WindowSize = 1 << OffsetBits

	// InitialCursor is the first write position in the dictionary.
	// Positions below it start out as Filler.
	InitialCursor = WindowSize - MaxMatch

	// Filler seeds the dictionary
	Filler = ' '

	windowMask = WindowSize - 1
)

const (
	literalBits = 8
	flagBits    = 1
)

// token decoding states
type decodeState uint8

const (
	stateFlag decodeState = iota
	stateLiteral
	stateOffset
	stateLength
)

// Decoder is a streaming LZSS decoder.
//
// Each token starts with a flag bit: 1 is followed by an 8-bit literal, 0 by
// an 11-bit dictionary position and a 4-bit length. Decoded bytes are stored
// in a 2048-byte ring buffer and forwarded to the sink.
//
// Input may be split anywhere, including in the middle of a token; the bit
// accumulator and token state persist across Write calls. The stream has no
// end marker: a trailing partial token is never emitted.
type Decoder struct {
	sink io.ByteWriter

	window [WindowSize]byte
	cursor int

	acc   uint32 // pending input bits, right aligned
	nbits uint

	state  decodeState
	offset int

	written int64
}

// NewDecoder returns a Decoder that writes decoded bytes to sink.
//
// Example:
//
//	dec := lzss.NewDecoder(flash)
//	for chunk := range chunks {
//	    if _, err := dec.Write(chunk); err != nil {
//	        return err
//	    }
//	}
func NewDecoder(sink io.ByteWriter) *Decoder {
	if sink == nil {
		panic("sink cannot be nil")
	}
	d := &Decoder{sink: sink}
	d.Reset()
	return d
}

// Reset restores the initial dictionary and discards pending bits.
// The sink is kept.
func (d *Decoder) Reset() {
	for i := 0; i < InitialCursor; i++ {
		d.window[i] = Filler
	}
	for i := InitialCursor; i < WindowSize; i++ {
		d.window[i] = 0
	}
	d.cursor = InitialCursor
	d.acc, d.nbits = 0, 0
	d.state = stateFlag
	d.offset = 0
	d.written = 0
}

// Write decodes p. It always consumes all of p unless the sink fails, in
// which case it returns the number of input bytes fully processed and the
// sink error.
func (d *Decoder) Write(p []byte) (int, error) {
	for i, b := range p {
		d.acc = d.acc<<8 | uint32(b)
		d.nbits += 8
		if err := d.drain(); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// Written returns the number of decoded bytes delivered to the sink.
func (d *Decoder) Written() int64 {
	return d.written
}

// Pending reports whether a partially received token is buffered.
func (d *Decoder) Pending() bool {
	return d.state != stateFlag || d.nbits > 0
}

// drain decodes every complete bit group held in the accumulator.
func (d *Decoder) drain() error {
	for {
		switch d.state {
		case stateFlag:
			if d.nbits < flagBits {
				return nil
			}
			if d.take(flagBits) == 1 {
				d.state = stateLiteral
			} else {
				d.state = stateOffset
			}

		case stateLiteral:
			if d.nbits < literalBits {
				return nil
			}
			if err := d.emit(byte(d.take(literalBits))); err != nil {
				return err
			}
			d.state = stateFlag

		case stateOffset:
			if d.nbits < OffsetBits {
				return nil
			}
			d.offset = int(d.take(OffsetBits))
			d.state = stateLength

		case stateLength:
			if d.nbits < LengthBits {
				return nil
			}
			n := int(d.take(LengthBits)) + MinMatch
			d.state = stateFlag
			for k := 0; k < n; k++ {
				if err := d.emit(d.window[(d.offset+k)&windowMask]); err != nil {
					return err
				}
			}
		}
	}
}

func (d *Decoder) take(n uint) uint32 {
	d.nbits -= n
	return (d.acc >> d.nbits) & (1<<n - 1)
}

func (d *Decoder) emit(c byte) error {
	d.window[d.cursor] = c
	d.cursor = (d.cursor + 1) & windowMask
	if err := d.sink.WriteByte(c); err != nil {
		return err
	}
	d.written++
	return nil
}
