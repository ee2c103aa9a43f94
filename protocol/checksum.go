package protocol

import "hash/crc32"

// CRC32 is an incremental CRC-32 accumulator.
//
// The zero value is not a valid starting state; use NewCRC32. A CRC32 is a
// plain value: Update returns the next state and never mutates the receiver,
// so streaming updates over any chunking of the input produce the same
// finalized sum as a single update over the whole input.
//
// Example:
//
//	crc := protocol.NewCRC32()
//	crc = crc.Update(header[protocol.MagicOffset:])
//	crc = crc.Update(payload)
//	if crc.Sum32() != hdr.CRC32 {
//	    // reject image
//	}
type CRC32 uint32

// NewCRC32 returns an accumulator seeded with CRC32Seed.
func NewCRC32() CRC32 {
	return CRC32(CRC32Seed)
}

// Update feeds p into the accumulator and returns the new state.
func (c CRC32) Update(p []byte) CRC32 {
	// crc32.Update works on finalized values, so undo and redo the final XOR
	// around it to keep the raw register in c.
	return CRC32(crc32.Update(uint32(c)^CRC32FinalXOR, crc32.IEEETable, p) ^ CRC32FinalXOR)
}

// Sum32 finalizes the accumulator. The receiver is left untouched.
func (c CRC32) Sum32() uint32 {
	return uint32(c) ^ CRC32FinalXOR
}

// ChecksumImage computes the image checksum over the checksummed part of a
// raw header and the payload that follows it.
func ChecksumImage(header []byte, payload []byte) uint32 {
	crc := NewCRC32()
	if len(header) >= HeaderSize {
		crc = crc.Update(header[MagicOffset:HeaderSize])
	}
	return crc.Update(payload).Sum32()
}
