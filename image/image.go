package image

import (
	"github.com/moffa90/go-ota/lzss"
	"github.com/moffa90/go-ota/protocol"
)

// Image represents a complete OTA image file.
type Image struct {
	// Header is the decoded 20-byte image header
	Header protocol.Header

	// Payload is the compressed firmware as carried on the wire
	Payload []byte
}

// Firmware decompresses the payload.
func (img *Image) Firmware() []byte {
	return lzss.Decompress(img.Payload)
}

// Bytes returns the wire form of the image: header followed by payload.
func (img *Image) Bytes() []byte {
	out := make([]byte, 0, protocol.HeaderSize+len(img.Payload))
	out = append(out, protocol.MarshalHeader(img.Header)...)
	return append(out, img.Payload...)
}

// Checksum computes the image checksum from the header and payload bytes.
func (img *Image) Checksum() uint32 {
	return protocol.ChecksumImage(protocol.MarshalHeader(img.Header), img.Payload)
}
