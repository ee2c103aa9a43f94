package ota

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/moffa90/go-ota/protocol"
	"github.com/moffa90/go-ota/transport"
)

// SizeUnknown is passed to Storage.Begin: the decompressed image size is not
// known until the download completes.
const SizeUnknown = -1

// Transport fetches an image. *transport.HTTP implements it.
//
// Get returns once the response header has arrived. Errors should wrap
// transport.ErrConnect, transport.ErrHeaderTimeout or transport.ErrHeader so
// they can be mapped to public error codes.
type Transport interface {
	Get(ctx context.Context, u *url.URL) (*transport.Response, error)
}

// Storage is the flash slot the decompressed image is written to.
// *storage.File and *storage.Memory implement it.
type Storage interface {
	// Available reports whether the device has a slot to write to
	Available() bool

	// Begin starts a new write
	Begin(sizeHint int64) error

	// WriteByte is called once per decompressed byte
	io.ByteWriter

	// Commit makes the written image the one used on next boot
	Commit(validate bool) error

	// Abort discards a running write
	Abort() error
}

// Client downloads OTA images into a storage slot.
//
// The non-blocking API is Start followed by Poll until it reports
// StatusCompleted, then Update. Download wraps Start and the Poll loop.
// A Client holds at most one download at a time.
//
// Client is safe for concurrent use.
type Client struct {
	storage   Storage
	transport Transport
	config    Config

	mu      sync.Mutex
	dl      *download
	body    io.ReadCloser
	buf     []byte
	started time.Time
}

// New creates a new Client writing to storage and fetching through tr.
//
// Example:
//
//	tr, _ := transport.New(transport.WithRootCA(ca))
//	client := ota.New(storage.NewFile("/data/next.bin"), tr,
//	    ota.WithMagic(protocol.MagicESP32),
//	    ota.WithLogger(slog.Default()),
//	)
func New(storage Storage, tr Transport, opts ...Option) *Client {
	if storage == nil {
		panic("storage cannot be nil")
	}
	if tr == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		storage:   storage,
		transport: tr,
		config:    cfg,
		buf:       make([]byte, cfg.ChunkSize),
	}
}

// Start requests the image at rawURL and prepares the download. It returns
// the declared content length.
//
// The response body is read by subsequent Poll calls, so ctx must stay
// valid until the download ends.
//
// Start fails with ErrBusy while another download is running or completed
// but not yet updated or cancelled.
func (c *Client) Start(ctx context.Context, rawURL string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active() {
		return 0, ErrBusy
	}
	c.dl = nil

	if !c.storage.Available() {
		c.logError("no update storage available")
		return 0, newError(CodeNoStorage, "start", nil)
	}

	u, err := parseURL(rawURL)
	if err != nil {
		return 0, newError(CodeURLParse, "start", err)
	}

	c.logInfo("Requesting image", "url", u.Redacted())

	resp, err := c.transport.Get(ctx, u)
	if err != nil {
		c.logError("Request failed", "url", u.Redacted(), "error", err)
		return 0, newError(transportCode(err), "start", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return 0, newError(CodeHTTPResponse, "start", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if resp.ContentLength < 0 {
		resp.Body.Close()
		return 0, newError(CodeParseHTTPHeader, "start", errors.New("response has no content length"))
	}

	if err := c.storage.Begin(SizeUnknown); err != nil {
		resp.Body.Close()
		return 0, newError(CodeStorageInit, "start", err)
	}

	c.dl = newDownload(resp.ContentLength, c.config.Magic, c.storage)
	c.body = resp.Body
	c.started = time.Now()

	c.logInfo("Download started", "content_length", resp.ContentLength)
	return resp.ContentLength, nil
}

// Poll reads one chunk from the transport and processes it.
//
// It returns StatusInProgress until the whole image has arrived and
// StatusCompleted after that, any number of times. Once the download failed
// Poll keeps returning the same error.
func (c *Client) Poll() (Status, error) {
	c.mu.Lock()
	status, progress, report, err := c.poll()
	c.mu.Unlock()

	if report {
		c.reportProgress(progress)
	}
	return status, err
}

func (c *Client) poll() (Status, Progress, bool, error) {
	dl := c.dl
	if dl == nil {
		return StatusInProgress, Progress{}, false, ErrNoDownload
	}

	switch {
	case dl.state == StateCompleted:
		return StatusCompleted, Progress{}, false, nil
	case dl.state.Failed():
		return StatusInProgress, Progress{}, false, dl.err
	}

	n, rerr := c.body.Read(c.buf)
	accepted := dl.accepted
	status, err := dl.feed(c.buf[:n])
	if !accepted && dl.accepted {
		c.logHeader(dl.header)
	}

	if err == nil && status == StatusInProgress && rerr != nil {
		cause := rerr
		if errors.Is(rerr, io.EOF) {
			cause = &TruncatedError{ContentLength: dl.total, Received: dl.received}
		}
		err = dl.fail(StateError, newError(CodeDownload, "receive", cause))
	}

	switch {
	case err != nil:
		c.logError("Download failed", "state", dl.state, "received", dl.received, "error", err)
		c.release()
		if aerr := c.storage.Abort(); aerr != nil {
			c.logError("Failed to abort storage write", "error", aerr)
		}
	case status == StatusCompleted:
		c.release()
		c.logInfo("Download completed",
			"bytes", dl.received,
			"written", dl.written,
			"version", dl.header.Version.String(),
			"duration", time.Since(c.started))
	}

	return status, c.snapshot(), n > 0 || err != nil, err
}

// Progress returns the number of decompressed bytes written so far.
func (c *Client) Progress() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dl == nil {
		return 0, ErrNoDownload
	}
	if c.dl.state.Failed() {
		return c.dl.written, c.dl.err
	}
	return c.dl.written, nil
}

// State returns the state of the current download.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dl == nil {
		return StateIdle
	}
	return c.dl.state
}

// Header returns the OTA header of the current download once it has been
// accepted.
func (c *Client) Header() (protocol.Header, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dl == nil || !c.dl.accepted {
		return protocol.Header{}, false
	}
	return c.dl.header, true
}

// Download starts a download and polls it to completion. It returns the
// number of decompressed bytes written to storage.
//
// The update is not committed; call Update afterwards.
//
// Example:
//
//	n, err := client.Download(ctx, "https://updates.example.com/fw.ota")
//	if err != nil {
//	    return err
//	}
//	log.Printf("wrote %d bytes", n)
//	if err := client.Update(); err != nil {
//	    return err
//	}
func (c *Client) Download(ctx context.Context, rawURL string) (int64, error) {
	if _, err := c.Start(ctx, rawURL); err != nil {
		return 0, err
	}

	for {
		if err := ctx.Err(); err != nil {
			c.Cancel()
			return 0, newError(CodeDownload, "download", err)
		}

		status, err := c.Poll()
		if err != nil {
			return 0, err
		}
		if status == StatusCompleted {
			return c.Progress()
		}
	}
}

// Verify checks the image checksum of a completed download.
//
// On mismatch the storage write is aborted, the download is discarded and
// an error matching ErrHeaderCRC is returned.
func (c *Client) Verify() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.verify()
}

func (c *Client) verify() error {
	dl := c.dl
	switch {
	case dl == nil:
		return ErrNoDownload
	case dl.state.Failed():
		return dl.err
	case dl.state != StateCompleted:
		return ErrNotCompleted
	}

	if err := dl.verify(); err != nil {
		c.logError("Checksum verification failed", "error", err)
		dl.fail(StateError, err)
		if aerr := c.storage.Abort(); aerr != nil {
			c.logError("Failed to abort storage write", "error", aerr)
		}
		return err
	}

	c.logDebug("Checksum verified", "crc32", fmt.Sprintf("0x%08X", dl.header.CRC32))
	return nil
}

// Update verifies a completed download and commits it to storage. The
// download is finished afterwards and a new one may be started.
func (c *Client) Update() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.verify(); err != nil {
		return err
	}

	if err := c.storage.Commit(true); err != nil {
		c.logError("Commit failed", "error", err)
		err = newError(CodeStorageEnd, "update", err)
		c.dl.fail(StateError, err)
		if aerr := c.storage.Abort(); aerr != nil {
			c.logError("Failed to abort storage write", "error", aerr)
		}
		return err
	}

	c.logInfo("Update committed", "version", c.dl.header.Version.String())
	c.dl = nil
	return nil
}

// Cancel discards the current download and aborts the storage write.
// It is a no-op when no download exists.
func (c *Client) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dl == nil {
		return
	}

	c.release()
	if !c.dl.state.Failed() {
		if err := c.storage.Abort(); err != nil {
			c.logError("Failed to abort storage write", "error", err)
		}
		c.logInfo("Download cancelled", "state", c.dl.state)
	}
	c.dl = nil
}

// active reports whether a download holds the client.
func (c *Client) active() bool {
	return c.dl != nil && !c.dl.state.Failed()
}

// release closes the transport stream.
func (c *Client) release() {
	if c.body == nil {
		return
	}
	if err := c.body.Close(); err != nil {
		c.logDebug("Closing response body failed", "error", err)
	}
	c.body = nil
	c.logDebug("Transport released")
}

func (c *Client) snapshot() Progress {
	dl := c.dl
	return Progress{
		State:         dl.state,
		BytesReceived: dl.received,
		BytesWritten:  dl.written,
		ContentLength: dl.total,
		Percentage:    dl.percentage(),
		ElapsedTime:   time.Since(c.started),
	}
}

func (c *Client) logHeader(h protocol.Header) {
	c.logInfo("Header accepted",
		"magic", fmt.Sprintf("0x%08X", h.MagicNumber),
		"length", h.Length,
		"version", h.Version.String(),
		"compressed", h.Version.Compression)
}

// parseURL accepts absolute http and https URLs.
func parseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", rawURL)
	}
	return u, nil
}

// transportCode maps transport failures to public codes.
func transportCode(err error) Code {
	switch {
	case errors.Is(err, transport.ErrConnect):
		return CodeServerConnect
	case errors.Is(err, transport.ErrHeaderTimeout):
		return CodeHTTPHeaderTimeout
	case errors.Is(err, transport.ErrHeader):
		return CodeHTTPHeader
	default:
		return CodeUnknown
	}
}

// reportProgress calls the progress callback if configured.
func (c *Client) reportProgress(progress Progress) {
	if c.config.ProgressCallback != nil {
		c.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (c *Client) logDebug(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (c *Client) logInfo(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (c *Client) logError(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Error(msg, keysAndValues...)
	}
}
