package transport

import "time"

// Default timeouts.
const (
	// DefaultHeaderTimeout bounds the wait for the HTTP response header
	DefaultHeaderTimeout = 10 * time.Second

	// DefaultByteTimeout bounds the wait for each read of the response body
	DefaultByteTimeout = 2 * time.Second

	// DefaultConnectTimeout bounds TCP connect and TLS handshake
	DefaultConnectTimeout = 30 * time.Second

	// DefaultUserAgent is sent with every request
	DefaultUserAgent = "go-ota"
)

// Config holds the transport configuration.
type Config struct {
	// RootCA is a PEM encoded root certificate trusted for HTTPS (optional)
	RootCA []byte

	// CABundle is a PEM encoded certificate bundle trusted for HTTPS (optional).
	// Ignored when RootCA is set.
	CABundle []byte

	// HeaderTimeout is the timeout for receiving the response header
	HeaderTimeout time.Duration

	// ByteTimeout is the timeout for each body read
	ByteTimeout time.Duration

	// ConnectTimeout is the timeout for connection establishment
	ConnectTimeout time.Duration

	// UserAgent is the User-Agent request header
	UserAgent string
}

func defaultConfig() Config {
	return Config{
		HeaderTimeout:  DefaultHeaderTimeout,
		ByteTimeout:    DefaultByteTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		UserAgent:      DefaultUserAgent,
	}
}

// Option is a functional option for configuring the HTTP transport.
type Option func(*Config)

// WithRootCA trusts a single PEM encoded root certificate.
// A root certificate takes precedence over a bundle.
func WithRootCA(pem []byte) Option {
	return func(c *Config) {
		if pem != nil {
			c.RootCA = pem
		}
	}
}

// WithCABundle trusts every certificate in a PEM encoded bundle.
func WithCABundle(pem []byte) Option {
	return func(c *Config) {
		if pem != nil {
			c.CABundle = pem
		}
	}
}

// WithHeaderTimeout sets the response header timeout.
func WithHeaderTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.HeaderTimeout = timeout
		}
	}
}

// WithByteTimeout sets the per-read body timeout.
func WithByteTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ByteTimeout = timeout
		}
	}
}

// WithConnectTimeout sets the connect and handshake timeout.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ConnectTimeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent request header.
func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.UserAgent = ua
	}
}
