package protocol

import "fmt"

// Header is the decoded OTA image header.
type Header struct {
	// Length is the number of content bytes following the LENGTH and CRC32
	// fields: MAGIC, VERSION and the compressed payload.
	Length uint32

	// CRC32 is the expected image checksum over MAGIC, VERSION and payload
	CRC32 uint32

	// MagicNumber identifies the board family the image was built for
	MagicNumber uint32

	// Version is the bit-packed version record
	Version Version
}

// PayloadLength returns the number of payload bytes that follow the header.
func (h Header) PayloadLength() int64 {
	return int64(h.Length) - MagicFieldSize - VersionSize
}

// ContentLength returns the total image size implied by Length.
func (h Header) ContentLength() int64 {
	return int64(h.Length) + LengthOverhead
}

// Version is the 8-byte bit-packed version record of the OTA header.
//
// Bit layout, least significant bit first over two little-endian words:
//
//	word 0: header_version(6) compression(1) signature(1) spare(4)
//	        payload_target(4) payload_major(8) payload_minor(8)
//	word 1: payload_patch(8) payload_build_num(24)
type Version struct {
	// HeaderVersion is the header format revision (6 bits)
	HeaderVersion uint8

	// Compression reports whether the payload is LZSS compressed
	Compression bool

	// Signature reports whether the payload carries a signature
	Signature bool

	// Spare is reserved (4 bits)
	Spare uint8

	// PayloadTarget identifies the payload target (4 bits)
	PayloadTarget uint8

	// PayloadMajor is the firmware major version
	PayloadMajor uint8

	// PayloadMinor is the firmware minor version
	PayloadMinor uint8

	// PayloadPatch is the firmware patch version
	PayloadPatch uint8

	// PayloadBuildNum is the firmware build number (24 bits)
	PayloadBuildNum uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d+%d", v.PayloadMajor, v.PayloadMinor, v.PayloadPatch, v.PayloadBuildNum)
}
