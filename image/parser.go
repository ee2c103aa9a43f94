package image

import (
	"fmt"
	"io"
	"os"

	"github.com/moffa90/go-ota/protocol"
)

// Parse parses an OTA image from the given file path.
// Returns the image or an error if the header is inconsistent with the file
// size or the checksum does not match.
//
// Example:
//
//	img, err := image.Parse("update.ota")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Magic: 0x%08X\n", img.Header.MagicNumber)
func Parse(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses an OTA image from any io.Reader.
func ParseReader(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	return ParseBytes(data)
}

// ParseBytes parses an OTA image held in memory.
// The returned payload aliases data.
func ParseBytes(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image")
	}

	hdr, err := protocol.ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	if err := checkLength(hdr, int64(len(data))); err != nil {
		return nil, err
	}

	img := &Image{
		Header:  hdr,
		Payload: data[protocol.HeaderSize:],
	}

	if sum := protocol.ChecksumImage(data, img.Payload); sum != hdr.CRC32 {
		return nil, &protocol.ChecksumMismatchError{
			Expected: hdr.CRC32,
			Actual:   sum,
		}
	}

	return img, nil
}

// checkLength applies the header length rule to the file size.
func checkLength(hdr protocol.Header, size int64) error {
	if int64(hdr.Length) != size-protocol.LengthOverhead {
		return &protocol.LengthMismatchError{
			Length:        hdr.Length,
			ContentLength: size,
		}
	}
	return nil
}
