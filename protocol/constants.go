package protocol

// Header layout constants.
//
// The OTA header is a fixed 20-byte little-endian record:
//
//	[LENGTH(4)][CRC32(4)][MAGIC(4)][VERSION(8)]
const (
	// HeaderSize is the size of the complete OTA header in bytes
	HeaderSize = 20

	// LengthFieldSize is the size of the LENGTH field
	LengthFieldSize = 4

	// CRCFieldSize is the size of the CRC32 field
	CRCFieldSize = 4

	// MagicFieldSize is the size of the MAGIC field
	MagicFieldSize = 4

	// VersionSize is the size of the bit-packed VERSION record
	VersionSize = 8

	// LengthOffset is the byte offset of the LENGTH field
	LengthOffset = 0

	// CRCOffset is the byte offset of the CRC32 field
	CRCOffset = LengthOffset + LengthFieldSize

	// MagicOffset is the byte offset of the MAGIC field.
	// The image checksum covers every byte from here on.
	MagicOffset = CRCOffset + CRCFieldSize

	// VersionOffset is the byte offset of the VERSION record
	VersionOffset = MagicOffset + MagicFieldSize

	// LengthOverhead is the number of content bytes not counted by LENGTH
	// (the LENGTH and CRC32 fields themselves).
	LengthOverhead = LengthFieldSize + CRCFieldSize

	// ChecksummedHeaderSize is the number of header bytes covered by the checksum
	ChecksummedHeaderSize = HeaderSize - MagicOffset
)

// Board magic numbers. The magic number identifies the hardware family an
// image was built for.
const (
	// MagicESP32 is the magic number of generic ESP32 images ("ESP3")
	MagicESP32 uint32 = 0x45535033

	// MagicNanoESP32 is the magic number of Arduino Nano ESP32 images
	MagicNanoESP32 uint32 = 0x23410070

	// DefaultMagic is the magic number expected when none is configured
	DefaultMagic = MagicESP32
)

// Version record bit widths, least significant first.
const (
	headerVersionBits   = 6
	compressionBits     = 1
	signatureBits       = 1
	spareBits           = 4
	payloadTargetBits   = 4
	payloadMajorBits    = 8
	payloadMinorBits    = 8
	payloadPatchBits    = 8
	payloadBuildNumBits = 24
)

// CRC-32 constants (CRC-32/ISO-HDLC, reflected polynomial 0xEDB88320).
const (
	// CRC32Seed is the initial accumulator value
	CRC32Seed uint32 = 0xFFFFFFFF

	// CRC32FinalXOR is applied when the accumulator is finalized
	CRC32FinalXOR uint32 = 0xFFFFFFFF
)
