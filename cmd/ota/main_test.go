package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/moffa90/go-ota/image"
	"github.com/moffa90/go-ota/protocol"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"ota"}, args...))
	return stdout.String(), err
}

func testFirmware() []byte {
	return bytes.Repeat([]byte("\x7fELF firmware section .text .data .bss "), 250)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ota.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
url = "https://updates.local/fw.ota"
magic = "nano-esp32"
slot = "/data/next.bin"
header_timeout = "15s"
byte_timeout = "500ms"
chunk_size = 4096
log_level = "debug"
`), 0o644))

	cfg := defaultConfig()
	require.NoError(t, loadConfig(path, &cfg))

	require.Equal(t, "https://updates.local/fw.ota", cfg.URL)
	require.Equal(t, "nano-esp32", cfg.Magic)
	require.Equal(t, "/data/next.bin", cfg.Slot)
	require.Equal(t, 15*time.Second, cfg.HeaderTimeout.Duration)
	require.Equal(t, 500*time.Millisecond, cfg.ByteTimeout.Duration)
	require.Equal(t, 4096, cfg.ChunkSize)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Empty(t, cfg.CACert)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"unknown key", "url = \"http://x\"\nretries = 3\n", "unknown keys retries"},
		{"bad duration", "byte_timeout = \"soon\"\n", "load config"},
		{"bad syntax", "url = \n", "load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ota.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			cfg := defaultConfig()
			err := loadConfig(path, &cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseMagic(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"esp32", protocol.MagicESP32, false},
		{"ESP32", protocol.MagicESP32, false},
		{"nano-esp32", protocol.MagicNanoESP32, false},
		{"0x45535033", protocol.MagicESP32, false},
		{"1234", 1234, false},
		{"0x1FFFFFFFF", 0, true},
		{"stm32", 0, true},
	}

	for _, tt := range tests {
		got, err := parseMagic(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("1.4.2+317")
	require.NoError(t, err)
	require.Equal(t, protocol.Version{PayloadMajor: 1, PayloadMinor: 4, PayloadPatch: 2, PayloadBuildNum: 317}, v)

	v, err = parseVersion("3.0.1")
	require.NoError(t, err)
	require.Equal(t, "3.0.1+0", v.String())

	for _, bad := range []string{"1.2", "1.2.3.4", "1.256.0", "1.2.3+x", "1.2.3+16777216"} {
		_, err := parseVersion(bad)
		require.Error(t, err, bad)
	}
}

func TestParseLevel(t *testing.T) {
	_, err := parseLevel("debug")
	require.NoError(t, err)
	_, err = parseLevel("loud")
	require.Error(t, err)
}

func TestFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ota.toml")
	require.NoError(t, os.WriteFile(path, []byte("slot = \"/data/a.bin\"\nchunk_size = 4096\n"), 0o644))

	out, err := runApp(t, "--config", path, "dumpconfig", "--chunk-size", "512", "--byte-timeout", "5s")
	require.NoError(t, err)

	var cfg Config
	_, err = toml.Decode(out, &cfg)
	require.NoError(t, err)

	require.Equal(t, "/data/a.bin", cfg.Slot)
	require.Equal(t, 512, cfg.ChunkSize)
	require.Equal(t, 5*time.Second, cfg.ByteTimeout.Duration)
	require.Equal(t, 10*time.Second, cfg.HeaderTimeout.Duration)
	require.Equal(t, "esp32", cfg.Magic)
}

func TestPackAndInspect(t *testing.T) {
	dir := t.TempDir()
	fwPath := filepath.Join(dir, "fw.bin")
	imgPath := filepath.Join(dir, "fw.ota")
	outPath := filepath.Join(dir, "out.bin")

	fw := testFirmware()
	require.NoError(t, os.WriteFile(fwPath, fw, 0o644))

	_, err := runApp(t, "pack", "--magic", "nano-esp32", "--version", "2.0.1+42", "--target", "3", fwPath, imgPath)
	require.NoError(t, err)

	img, err := image.Parse(imgPath)
	require.NoError(t, err)
	require.Equal(t, protocol.MagicNanoESP32, img.Header.MagicNumber)
	require.Equal(t, uint8(3), img.Header.Version.PayloadTarget)
	require.Less(t, len(img.Payload), len(fw))

	out, err := runApp(t, "inspect", "--extract", outPath, imgPath)
	require.NoError(t, err)
	require.Contains(t, out, "2.0.1+42")
	require.Contains(t, out, "0x23410070 (nano-esp32)")
	require.Contains(t, out, "Payload")
	require.Contains(t, out, strconv.Itoa(len(img.Payload))+" bytes")

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, fw, got)
}

func TestPackArguments(t *testing.T) {
	_, err := runApp(t, "pack", "only-one-arg")
	require.Error(t, err)

	dir := t.TempDir()
	fwPath := filepath.Join(dir, "fw.bin")
	require.NoError(t, os.WriteFile(fwPath, testFirmware(), 0o644))

	_, err = runApp(t, "pack", "--target", "16", fwPath, filepath.Join(dir, "fw.ota"))
	require.ErrorContains(t, err, "out of range")
}

func serveImage(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloadCommand(t *testing.T) {
	fw := testFirmware()
	img, err := image.Build(fw, protocol.MagicESP32, protocol.Version{PayloadMajor: 1})
	require.NoError(t, err)
	srv := serveImage(t, img.Bytes())

	slot := filepath.Join(t.TempDir(), "next.bin")
	out, err := runApp(t, "download", "--slot", slot, "--chunk-size", "100", srv.URL+"/fw.ota")
	require.NoError(t, err)
	require.Contains(t, out, "updated")
	require.Contains(t, out, "written to "+slot)

	got, err := os.ReadFile(slot)
	require.NoError(t, err)
	require.Equal(t, fw, got)
}

func TestDownloadCommandNoCommit(t *testing.T) {
	img, err := image.Build(testFirmware(), protocol.MagicESP32, protocol.Version{})
	require.NoError(t, err)
	srv := serveImage(t, img.Bytes())

	slot := filepath.Join(t.TempDir(), "next.bin")
	out, err := runApp(t, "download", "--no-commit", "--slot", slot, "--url", srv.URL)
	require.NoError(t, err)
	require.Contains(t, out, "not committed")

	_, err = os.Stat(slot)
	require.True(t, os.IsNotExist(err))
}

func TestDownloadCommandWrongBoard(t *testing.T) {
	img, err := image.Build(testFirmware(), protocol.MagicNanoESP32, protocol.Version{})
	require.NoError(t, err)
	srv := serveImage(t, img.Bytes())

	slot := filepath.Join(t.TempDir(), "next.bin")
	_, err = runApp(t, "download", "--slot", slot, srv.URL)
	require.ErrorContains(t, err, "magic")

	_, err = os.Stat(slot)
	require.True(t, os.IsNotExist(err))
}

func TestDownloadCommandNeedsURL(t *testing.T) {
	_, err := runApp(t, "download", "--slot", filepath.Join(t.TempDir(), "next.bin"))
	require.ErrorContains(t, err, "need image url")
}
