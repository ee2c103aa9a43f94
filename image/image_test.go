package image

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moffa90/go-ota/protocol"
)

var testVersion = protocol.Version{
	PayloadMajor:    2,
	PayloadMinor:    1,
	PayloadPatch:    7,
	PayloadBuildNum: 99,
}

func testFirmware() []byte {
	return bytes.Repeat([]byte("firmware image contents \x00\x01\x02"), 300)
}

func TestBuild(t *testing.T) {
	fw := testFirmware()

	img, err := Build(fw, protocol.MagicESP32, testVersion)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	hdr := img.Header
	if hdr.MagicNumber != protocol.MagicESP32 {
		t.Errorf("MagicNumber = 0x%08X, want 0x%08X", hdr.MagicNumber, protocol.MagicESP32)
	}
	if !hdr.Version.Compression {
		t.Error("Compression flag not set")
	}
	if hdr.Version.HeaderVersion != CurrentHeaderVersion {
		t.Errorf("HeaderVersion = %d, want %d", hdr.Version.HeaderVersion, CurrentHeaderVersion)
	}
	if hdr.Version.PayloadMajor != 2 || hdr.Version.PayloadBuildNum != 99 {
		t.Errorf("payload version = %s, want 2.1.7+99", hdr.Version)
	}

	raw := img.Bytes()
	if int64(hdr.Length) != int64(len(raw))-protocol.LengthOverhead {
		t.Errorf("Length = %d, image is %d bytes", hdr.Length, len(raw))
	}
	if got := protocol.ChecksumImage(raw, raw[protocol.HeaderSize:]); got != hdr.CRC32 {
		t.Errorf("CRC32 = 0x%08X, computed 0x%08X", hdr.CRC32, got)
	}
	if !bytes.Equal(img.Firmware(), fw) {
		t.Error("Firmware() does not match input")
	}
}

func TestParseBytes(t *testing.T) {
	img, err := Build(testFirmware(), protocol.MagicNanoESP32, testVersion)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	valid := img.Bytes()

	corrupt := append([]byte{}, valid...)
	corrupt[len(corrupt)-1] ^= 0x01

	badLength := append(append([]byte{}, valid...), 0x00)

	tests := []struct {
		name     string
		input    []byte
		wantErr  bool
		errMsg   string
		errCheck func(error) bool
	}{
		{
			name:  "valid image",
			input: valid,
		},
		{
			name:    "empty file",
			input:   []byte{},
			wantErr: true,
			errMsg:  "empty image",
		},
		{
			name:    "truncated header",
			input:   valid[:10],
			wantErr: true,
			errMsg:  "header too short",
		},
		{
			name:    "trailing byte",
			input:   badLength,
			wantErr: true,
			errCheck: func(err error) bool {
				var e *protocol.LengthMismatchError
				return errors.As(err, &e)
			},
		},
		{
			name:    "corrupt payload",
			input:   corrupt,
			wantErr: true,
			errCheck: func(err error) bool {
				var e *protocol.ChecksumMismatchError
				return errors.As(err, &e)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBytes(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				if tt.errCheck != nil && !tt.errCheck(err) {
					t.Errorf("error = %v has the wrong type", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Header != img.Header {
				t.Errorf("Header = %+v, want %+v", got.Header, img.Header)
			}
			if !bytes.Equal(got.Firmware(), testFirmware()) {
				t.Error("Firmware() does not match")
			}
		})
	}
}

func TestParse(t *testing.T) {
	img, err := Build([]byte("hello"), protocol.MagicESP32, testVersion)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "fw.ota")
	if err := os.WriteFile(path, img.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if string(got.Firmware()) != "hello" {
		t.Errorf("Firmware() = %q, want %q", got.Firmware(), "hello")
	}

	if _, err := Parse(filepath.Join(t.TempDir(), "missing.ota")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBuildEmptyFirmware(t *testing.T) {
	img, err := Build(nil, protocol.MagicESP32, protocol.Version{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if img.Header.Length != protocol.MagicFieldSize+protocol.VersionSize {
		t.Errorf("Length = %d, want %d", img.Header.Length, protocol.MagicFieldSize+protocol.VersionSize)
	}

	parsed, err := ParseBytes(img.Bytes())
	if err != nil {
		t.Fatalf("ParseBytes() error: %v", err)
	}
	if len(parsed.Firmware()) != 0 {
		t.Errorf("Firmware() = %d bytes, want 0", len(parsed.Firmware()))
	}
}
