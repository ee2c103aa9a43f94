package image

import (
	"fmt"
	"math"

	"github.com/moffa90/go-ota/lzss"
	"github.com/moffa90/go-ota/protocol"
)

// CurrentHeaderVersion is written to the header version field of new images.
const CurrentHeaderVersion = 1

// Build compresses firmware and wraps it in an OTA header for the given
// board magic number. The compression flag and header version of v are
// filled in; the payload fields are taken as given.
//
// Example:
//
//	img, err := image.Build(fw, protocol.MagicESP32, protocol.Version{
//	    PayloadMajor: 1, PayloadMinor: 4,
//	})
//	os.WriteFile("update.ota", img.Bytes(), 0o644)
func Build(firmware []byte, magic uint32, v protocol.Version) (*Image, error) {
	payload, err := lzss.Compress(firmware)
	if err != nil {
		return nil, fmt.Errorf("compress firmware: %w", err)
	}

	return Wrap(payload, magic, v)
}

// Wrap builds an image around an already compressed payload.
func Wrap(payload []byte, magic uint32, v protocol.Version) (*Image, error) {
	length := int64(len(payload)) + protocol.MagicFieldSize + protocol.VersionSize
	if length > math.MaxUint32 {
		return nil, fmt.Errorf("payload too large: %d bytes", len(payload))
	}

	v.HeaderVersion = CurrentHeaderVersion
	v.Compression = true

	img := &Image{
		Header: protocol.Header{
			Length:      uint32(length),
			MagicNumber: magic,
			Version:     v,
		},
		Payload: payload,
	}
	img.Header.CRC32 = img.Checksum()

	return img, nil
}
