package main

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/moffa90/go-ota/ota"
	"github.com/moffa90/go-ota/protocol"
	"github.com/moffa90/go-ota/transport"
	"github.com/urfave/cli/v2"
)

// Duration is a time.Duration written as a string ("10s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the effective command configuration: defaults, overridden by the
// config file, overridden by flags.
type Config struct {
	URL           string   `toml:"url"`
	Magic         string   `toml:"magic"`
	Slot          string   `toml:"slot"`
	CACert        string   `toml:"ca_cert"`
	CABundle      string   `toml:"ca_bundle"`
	HeaderTimeout Duration `toml:"header_timeout"`
	ByteTimeout   Duration `toml:"byte_timeout"`
	ChunkSize     int      `toml:"chunk_size"`
	LogLevel      string   `toml:"log_level"`
}

func defaultConfig() Config {
	return Config{
		Magic:         "esp32",
		Slot:          "firmware.bin",
		HeaderTimeout: Duration{transport.DefaultHeaderTimeout},
		ByteTimeout:   Duration{transport.DefaultByteTimeout},
		ChunkSize:     ota.DefaultChunkSize,
		LogLevel:      "info",
	}
}

var (
	urlFlag = &cli.StringFlag{
		Name:  "url",
		Usage: "Image URL (http or https)",
	}
	magicFlag = &cli.StringFlag{
		Name:  "magic",
		Usage: "Board magic number: esp32, nano-esp32 or a hex value",
	}
	slotFlag = &cli.StringFlag{
		Name:  "slot",
		Usage: "Update slot file the firmware is written to",
	}
	caCertFlag = &cli.StringFlag{
		Name:  "ca-cert",
		Usage: "PEM root certificate trusted for https",
	}
	caBundleFlag = &cli.StringFlag{
		Name:  "ca-bundle",
		Usage: "PEM certificate bundle trusted for https",
	}
	headerTimeoutFlag = &cli.DurationFlag{
		Name:  "header-timeout",
		Usage: "Maximum wait for the HTTP response header",
	}
	byteTimeoutFlag = &cli.DurationFlag{
		Name:  "byte-timeout",
		Usage: "Maximum wait for each read of the image body",
	}
	chunkSizeFlag = &cli.IntFlag{
		Name:  "chunk-size",
		Usage: "Bytes read per poll",
	}
)

// makeConfig loads the configuration file, if any, and applies flags.
func makeConfig(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	if path := ctx.String(configFlag.Name); path != "" {
		if err := loadConfig(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if ctx.IsSet(urlFlag.Name) {
		cfg.URL = ctx.String(urlFlag.Name)
	}
	if ctx.IsSet(magicFlag.Name) {
		cfg.Magic = ctx.String(magicFlag.Name)
	}
	if ctx.IsSet(slotFlag.Name) {
		cfg.Slot = ctx.String(slotFlag.Name)
	}
	if ctx.IsSet(caCertFlag.Name) {
		cfg.CACert = ctx.String(caCertFlag.Name)
	}
	if ctx.IsSet(caBundleFlag.Name) {
		cfg.CABundle = ctx.String(caBundleFlag.Name)
	}
	if ctx.IsSet(headerTimeoutFlag.Name) {
		cfg.HeaderTimeout.Duration = ctx.Duration(headerTimeoutFlag.Name)
	}
	if ctx.IsSet(byteTimeoutFlag.Name) {
		cfg.ByteTimeout.Duration = ctx.Duration(byteTimeoutFlag.Name)
	}
	if ctx.IsSet(chunkSizeFlag.Name) {
		cfg.ChunkSize = ctx.Int(chunkSizeFlag.Name)
	}
	if ctx.IsSet(logLevelFlag.Name) {
		cfg.LogLevel = ctx.String(logLevelFlag.Name)
	}
	return cfg, nil
}

// loadConfig decodes a TOML file over cfg. Unknown keys are rejected.
func loadConfig(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

var magicNames = map[string]uint32{
	"esp32":      protocol.MagicESP32,
	"nano-esp32": protocol.MagicNanoESP32,
}

// parseMagic accepts a board name or a numeric magic number.
func parseMagic(s string) (uint32, error) {
	if m, ok := magicNames[strings.ToLower(s)]; ok {
		return m, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid magic number %q", s)
	}
	return uint32(v), nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// parseVersion parses "major.minor.patch" with an optional "+build" suffix.
func parseVersion(s string) (protocol.Version, error) {
	var v protocol.Version

	core, build, hasBuild := strings.Cut(s, "+")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return v, fmt.Errorf("invalid version %q: want major.minor.patch[+build]", s)
	}

	var nums [3]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return v, fmt.Errorf("invalid version %q: %w", s, err)
		}
		nums[i] = uint8(n)
	}
	v.PayloadMajor, v.PayloadMinor, v.PayloadPatch = nums[0], nums[1], nums[2]

	if hasBuild {
		n, err := strconv.ParseUint(build, 10, 24)
		if err != nil {
			return v, fmt.Errorf("invalid build number %q: %w", build, err)
		}
		v.PayloadBuildNum = uint32(n)
	}
	return v, nil
}

var dumpConfigCommand = &cli.Command{
	Name:  "dumpconfig",
	Usage: "Print the effective configuration as TOML",
	Flags: downloadFlags,
	Action: func(ctx *cli.Context) error {
		cfg, err := makeConfig(ctx)
		if err != nil {
			return err
		}
		return toml.NewEncoder(ctx.App.Writer).Encode(cfg)
	},
}
