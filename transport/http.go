package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"
)

// Request failure classes. Errors returned by Get wrap exactly one of them.
var (
	// ErrConnect indicates that the TCP connection or TLS handshake failed
	ErrConnect = errors.New("server connect failed")

	// ErrHeaderTimeout indicates that the response header did not arrive in time
	ErrHeaderTimeout = errors.New("timeout receiving http header")

	// ErrHeader indicates any other failure while receiving the response header
	ErrHeader = errors.New("error receiving http header")
)

// NoContentLength is reported when the response carries no Content-Length.
const NoContentLength = -1

// Response is an HTTP response whose body has not been read yet.
type Response struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// ContentLength is the declared body size, or NoContentLength
	ContentLength int64

	// Body streams the response body. The caller must close it.
	Body io.ReadCloser
}

// HTTP fetches images over HTTP and HTTPS.
//
// Every request uses a fresh connection ("Connection: close"), the body is
// never transparently decompressed, and each body read is bounded by the
// configured byte timeout.
type HTTP struct {
	client *http.Client
	config Config
	dialer *net.Dialer
	tls    *tls.Config
}

// New creates an HTTP transport.
//
// Example:
//
//	ca, _ := os.ReadFile("root.pem")
//	tr, err := transport.New(
//	    transport.WithRootCA(ca),
//	    transport.WithHeaderTimeout(10*time.Second),
//	)
func New(opts ...Option) (*HTTP, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	tlsConfig, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	t := &HTTP{
		config: cfg,
		dialer: &net.Dialer{Timeout: cfg.ConnectTimeout},
		tls:    tlsConfig,
	}

	t.client = &http.Client{
		Transport: &http.Transport{
			DialContext:           t.dial,
			DialTLSContext:        t.dialTLS,
			ResponseHeaderTimeout: cfg.HeaderTimeout,
			DisableKeepAlives:     true,
			DisableCompression:    true,
		},
	}

	return t, nil
}

// buildTLSConfig trusts the root certificate if set, otherwise the bundle,
// otherwise the system pool.
func buildTLSConfig(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	var pem []byte
	var what string
	switch {
	case cfg.RootCA != nil:
		pem, what = cfg.RootCA, "root certificate"
	case cfg.CABundle != nil:
		pem, what = cfg.CABundle, "certificate bundle"
	default:
		return tlsConfig, nil
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("invalid %s: no PEM certificates found", what)
	}
	tlsConfig.RootCAs = pool

	return tlsConfig, nil
}

type armKey struct{}

// Get issues a GET request for u and returns once the response header has
// been received. Non-200 responses are returned without error; checking the
// status is up to the caller.
func (t *HTTP) Get(ctx context.Context, u *url.URL) (*Response, error) {
	// body reads start honoring the byte timeout once the header is in
	armed := new(atomic.Bool)
	ctx = context.WithValue(ctx, armKey{}, armed)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHeader, err)
	}
	req.Close = true
	if t.config.UserAgent != "" {
		req.Header.Set("User-Agent", t.config.UserAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	armed.Store(true)

	contentLength := resp.ContentLength
	if contentLength < 0 {
		contentLength = NoContentLength
	}

	return &Response{
		StatusCode:    resp.StatusCode,
		ContentLength: contentLength,
		Body:          resp.Body,
	}, nil
}

func classify(err error) error {
	var ce *connectError
	if errors.As(err, &ce) {
		return fmt.Errorf("%w: %w", ErrConnect, ce.err)
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %w", ErrHeaderTimeout, err)
	}

	return fmt.Errorf("%w: %w", ErrHeader, err)
}

type connectError struct {
	addr string
	err  error
}

func (e *connectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.addr, e.err)
}

func (e *connectError) Unwrap() error { return e.err }

func (t *HTTP) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := t.dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, &connectError{addr: addr, err: err}
	}

	armed, _ := ctx.Value(armKey{}).(*atomic.Bool)
	if armed == nil || t.config.ByteTimeout <= 0 {
		return conn, nil
	}

	return &deadlineConn{Conn: conn, timeout: t.config.ByteTimeout, armed: armed}, nil
}

func (t *HTTP) dialTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := t.dial(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	cfg := t.tls.Clone()
	cfg.ServerName = host

	hctx, cancel := context.WithTimeout(ctx, t.config.ConnectTimeout)
	defer cancel()

	tc := tls.Client(conn, cfg)
	if err := tc.HandshakeContext(hctx); err != nil {
		_ = conn.Close()
		return nil, &connectError{addr: addr, err: err}
	}

	return tc, nil
}

// deadlineConn bounds every read by timeout once armed.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
	armed   *atomic.Bool
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if c.armed.Load() {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(p)
}
