package protocol

import "fmt"

// LengthMismatchError indicates that the header LENGTH field disagrees with
// the content length announced by the server.
type LengthMismatchError struct {
	// Length is the LENGTH field from the header
	Length uint32

	// ContentLength is the declared content length of the whole image
	ContentLength int64
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("header length mismatch: header says %d bytes, content length %d implies %d",
		e.Length, e.ContentLength, e.ContentLength-LengthOverhead)
}

// MagicMismatchError indicates that the image was built for another board family.
type MagicMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *MagicMismatchError) Error() string {
	return fmt.Sprintf("magic number mismatch: expected 0x%08X, got 0x%08X", e.Expected, e.Actual)
}

// ChecksumMismatchError indicates that the computed image checksum differs
// from the CRC32 header field.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08X, got 0x%08X", e.Expected, e.Actual)
}

// IsFormatError returns true if err is a header length or magic mismatch.
func IsFormatError(err error) bool {
	switch err.(type) {
	case *LengthMismatchError, *MagicMismatchError:
		return true
	}
	return false
}
