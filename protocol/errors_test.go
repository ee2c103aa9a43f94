package protocol

import (
	"strings"
	"testing"
)

func TestLengthMismatchError(t *testing.T) {
	err := &LengthMismatchError{
		Length:        1000,
		ContentLength: 1020,
	}

	errMsg := err.Error()

	if !strings.Contains(errMsg, "length mismatch") {
		t.Errorf("error message should contain 'length mismatch', got: %s", errMsg)
	}

	if !strings.Contains(errMsg, "1000") {
		t.Errorf("error message should contain header length, got: %s", errMsg)
	}

	if !strings.Contains(errMsg, "1012") {
		t.Errorf("error message should contain implied length, got: %s", errMsg)
	}
}

func TestMagicMismatchError(t *testing.T) {
	err := &MagicMismatchError{
		Expected: MagicESP32,
		Actual:   MagicNanoESP32,
	}

	errMsg := err.Error()

	if !strings.Contains(errMsg, "0x45535033") {
		t.Errorf("error message should contain expected magic, got: %s", errMsg)
	}

	if !strings.Contains(errMsg, "0x23410070") {
		t.Errorf("error message should contain actual magic, got: %s", errMsg)
	}
}

func TestChecksumMismatchError(t *testing.T) {
	err := &ChecksumMismatchError{
		Expected: 0xCBF43926,
		Actual:   0xCBF43927,
	}

	errMsg := err.Error()

	if !strings.Contains(errMsg, "checksum mismatch") {
		t.Errorf("error message should contain 'checksum mismatch', got: %s", errMsg)
	}

	if !strings.Contains(errMsg, "0xCBF43926") || !strings.Contains(errMsg, "0xCBF43927") {
		t.Errorf("error message should contain both checksums, got: %s", errMsg)
	}
}

func TestErrorTypes(t *testing.T) {
	var _ error = &LengthMismatchError{}
	var _ error = &MagicMismatchError{}
	var _ error = &ChecksumMismatchError{}
}
