package protocol

import (
	"encoding/binary"
	"fmt"
)

// ParseHeader decodes a complete OTA header.
//
// Header structure:
//
//	[LENGTH(4)][CRC32(4)][MAGIC(4)][VERSION(8)]
//
// All fields are little-endian.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("header too short: got %d bytes, expected %d", len(buf), HeaderSize)
	}

	return Header{
		Length:      binary.LittleEndian.Uint32(buf[LengthOffset:]),
		CRC32:       binary.LittleEndian.Uint32(buf[CRCOffset:]),
		MagicNumber: binary.LittleEndian.Uint32(buf[MagicOffset:]),
		Version:     parseVersion(buf[VersionOffset : VersionOffset+VersionSize]),
	}, nil
}

// MarshalHeader encodes h into its 20-byte wire form.
func MarshalHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[LengthOffset:], h.Length)
	binary.LittleEndian.PutUint32(buf[CRCOffset:], h.CRC32)
	binary.LittleEndian.PutUint32(buf[MagicOffset:], h.MagicNumber)
	putVersion(buf[VersionOffset:VersionOffset+VersionSize], h.Version)
	return buf
}

func parseVersion(b []byte) Version {
	w0 := binary.LittleEndian.Uint32(b[0:4])
	w1 := binary.LittleEndian.Uint32(b[4:8])

	var v Version
	shift := uint(0)
	field := func(w uint32, bits uint) uint32 {
		x := (w >> shift) & (1<<bits - 1)
		shift += bits
		return x
	}

	v.HeaderVersion = uint8(field(w0, headerVersionBits))
	v.Compression = field(w0, compressionBits) == 1
	v.Signature = field(w0, signatureBits) == 1
	v.Spare = uint8(field(w0, spareBits))
	v.PayloadTarget = uint8(field(w0, payloadTargetBits))
	v.PayloadMajor = uint8(field(w0, payloadMajorBits))
	v.PayloadMinor = uint8(field(w0, payloadMinorBits))

	shift = 0
	v.PayloadPatch = uint8(field(w1, payloadPatchBits))
	v.PayloadBuildNum = field(w1, payloadBuildNumBits)

	return v
}

func putVersion(b []byte, v Version) {
	var w0, w1 uint32
	shift := uint(0)
	put := func(w *uint32, x uint32, bits uint) {
		*w |= (x & (1<<bits - 1)) << shift
		shift += bits
	}

	put(&w0, uint32(v.HeaderVersion), headerVersionBits)
	put(&w0, boolBit(v.Compression), compressionBits)
	put(&w0, boolBit(v.Signature), signatureBits)
	put(&w0, uint32(v.Spare), spareBits)
	put(&w0, uint32(v.PayloadTarget), payloadTargetBits)
	put(&w0, uint32(v.PayloadMajor), payloadMajorBits)
	put(&w0, uint32(v.PayloadMinor), payloadMinorBits)

	shift = 0
	put(&w1, uint32(v.PayloadPatch), payloadPatchBits)
	put(&w1, v.PayloadBuildNum, payloadBuildNumBits)

	binary.LittleEndian.PutUint32(b[0:4], w0)
	binary.LittleEndian.PutUint32(b[4:8], w1)
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// HeaderBuffer assembles an OTA header from bytes that may arrive split
// across any number of reads.
//
// The zero value is an empty buffer ready for use.
type HeaderBuffer struct {
	buf [HeaderSize]byte
	n   int
}

// Feed copies as many bytes of p as the header still needs and reports how
// many were consumed and whether the header is now complete. Once the header
// is complete Feed consumes nothing.
func (b *HeaderBuffer) Feed(p []byte) (consumed int, complete bool) {
	consumed = copy(b.buf[b.n:], p)
	b.n += consumed
	return consumed, b.n == HeaderSize
}

// Len returns the number of header bytes received so far.
func (b *HeaderBuffer) Len() int { return b.n }

// Complete reports whether all HeaderSize bytes have been received.
func (b *HeaderBuffer) Complete() bool { return b.n == HeaderSize }

// Header decodes the assembled header.
func (b *HeaderBuffer) Header() (Header, error) {
	if !b.Complete() {
		return Header{}, fmt.Errorf("header incomplete: got %d bytes, expected %d", b.n, HeaderSize)
	}
	return ParseHeader(b.buf[:])
}

// Checksummed returns the header bytes covered by the image checksum
// (MAGIC and VERSION). It is only meaningful once the header is complete.
func (b *HeaderBuffer) Checksummed() []byte {
	return b.buf[MagicOffset:HeaderSize]
}

// Reset empties the buffer.
func (b *HeaderBuffer) Reset() {
	*b = HeaderBuffer{}
}

// ValidateHeader checks a decoded header against the declared content length
// and the expected magic number, in that order.
//
// Returns *LengthMismatchError when Length != contentLength - LengthOverhead,
// or *MagicMismatchError when the magic number differs.
func ValidateHeader(h Header, contentLength int64, magic uint32) error {
	if int64(h.Length) != contentLength-LengthOverhead {
		return &LengthMismatchError{
			Length:        h.Length,
			ContentLength: contentLength,
		}
	}

	if h.MagicNumber != magic {
		return &MagicMismatchError{
			Expected: magic,
			Actual:   h.MagicNumber,
		}
	}

	return nil
}
