package ota

import "github.com/moffa90/go-ota/protocol"

// Config holds the client configuration.
type Config struct {
	// Magic is the board magic number images must carry
	Magic uint32

	// ChunkSize is the size of the buffer each Poll reads into
	ChunkSize int

	// ProgressCallback is called after every processed chunk (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger
}

// DefaultChunkSize is the default Poll read size.
const DefaultChunkSize = 1024

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Magic:     protocol.DefaultMagic,
		ChunkSize: DefaultChunkSize,
	}
}

// Option is a functional option for configuring the Client.
type Option func(*Config)

// WithMagic sets the magic number images must carry.
// Images built for another board family are rejected before any byte is
// written to storage.
//
// Example:
//
//	client := ota.New(slot, tr, ota.WithMagic(protocol.MagicNanoESP32))
func WithMagic(magic uint32) Option {
	return func(c *Config) {
		c.Magic = magic
	}
}

// WithChunkSize sets the maximum number of bytes read per Poll.
//
// Example:
//
//	client := ota.New(slot, tr, ota.WithChunkSize(4096))
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.ChunkSize = size
		}
	}
}

// WithProgressCallback sets a callback function to track download progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for client operations.
//
// Example:
//
//	client := ota.New(slot, tr, ota.WithLogger(slog.Default()))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
