// Package protocol implements the OTA image wire format.
//
// # Image Layout
//
// An OTA image is a fixed 20-byte header followed by the LZSS compressed
// firmware payload:
//
//	[LENGTH(4)][CRC32(4)][MAGIC(4)][VERSION(8)][PAYLOAD...]
//
// Where:
//   - LENGTH = number of bytes after the CRC32 field (content length - 8)
//   - CRC32 = CRC-32/ISO-HDLC over MAGIC, VERSION and the compressed payload
//   - MAGIC = board family identifier (see MagicESP32, MagicNanoESP32)
//   - VERSION = bit-packed header/payload version record
//
// All multi-byte fields are little-endian.
//
// # Header Assembly
//
// Header bytes may arrive split across network reads. HeaderBuffer collects
// them until the header is complete:
//
//	var hb protocol.HeaderBuffer
//	n, complete := hb.Feed(chunk)
//	if complete {
//	    hdr, _ := hb.Header()
//	    err := protocol.ValidateHeader(hdr, contentLength, protocol.MagicESP32)
//	}
//
// # Checksum
//
// CRC32 is a value-typed accumulator that can be fed in any chunking:
//
//	crc := protocol.NewCRC32().Update(hb.Checksummed())
//	crc = crc.Update(payloadChunk)
//	ok := crc.Sum32() == hdr.CRC32
package protocol
