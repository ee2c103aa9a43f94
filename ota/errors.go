package ota

import (
	"errors"
	"fmt"
)

// Code is a stable public error code. Codes are negative; CodeNone is zero.
type Code int

// Error codes.
const (
	CodeNone              Code = 0
	CodeUnknown           Code = -1
	CodeNoStorage         Code = -2
	CodeStorageInit       Code = -3
	CodeStorageEnd        Code = -4
	CodeURLParse          Code = -5
	CodeServerConnect     Code = -6
	CodeHTTPHeader        Code = -7
	CodeParseHTTPHeader   Code = -8
	CodeHeaderLength      Code = -9
	CodeHeaderCRC         Code = -10
	CodeHeaderMagic       Code = -11
	CodeDownload          Code = -12
	CodeHTTPHeaderTimeout Code = -13
	CodeHTTPResponse      Code = -14
)

// String returns a human-readable name for a code.
func (c Code) String() string {
	switch c {
	case CodeNone:
		return "none"
	case CodeUnknown:
		return "unknown error"
	case CodeNoStorage:
		return "no update storage"
	case CodeStorageInit:
		return "update storage init failed"
	case CodeStorageEnd:
		return "update storage commit failed"
	case CodeURLParse:
		return "url parse error"
	case CodeServerConnect:
		return "server connect error"
	case CodeHTTPHeader:
		return "http header error"
	case CodeParseHTTPHeader:
		return "http header parse error"
	case CodeHeaderLength:
		return "ota header length mismatch"
	case CodeHeaderCRC:
		return "ota checksum mismatch"
	case CodeHeaderMagic:
		return "ota header magic number mismatch"
	case CodeDownload:
		return "download error"
	case CodeHTTPHeaderTimeout:
		return "http header timeout"
	case CodeHTTPResponse:
		return "http response error"
	default:
		return fmt.Sprintf("unknown code %d", int(c))
	}
}

// Error is an error carrying a public error code.
//
// Errors match with errors.Is by code, so
//
//	errors.Is(err, ota.ErrHeaderMagic)
//
// holds for every magic number mismatch regardless of the wrapped cause.
type Error struct {
	// Code is the public error code
	Code Code

	// Op is the operation that failed (optional)
	Op string

	// Err is the underlying cause (optional)
	Err error
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinel errors for matching with errors.Is.
var (
	ErrNoStorage         = &Error{Code: CodeNoStorage}
	ErrStorageInit       = &Error{Code: CodeStorageInit}
	ErrStorageEnd        = &Error{Code: CodeStorageEnd}
	ErrURLParse          = &Error{Code: CodeURLParse}
	ErrServerConnect     = &Error{Code: CodeServerConnect}
	ErrHTTPHeader        = &Error{Code: CodeHTTPHeader}
	ErrParseHTTPHeader   = &Error{Code: CodeParseHTTPHeader}
	ErrHeaderLength      = &Error{Code: CodeHeaderLength}
	ErrHeaderCRC         = &Error{Code: CodeHeaderCRC}
	ErrHeaderMagic       = &Error{Code: CodeHeaderMagic}
	ErrDownload          = &Error{Code: CodeDownload}
	ErrHTTPHeaderTimeout = &Error{Code: CodeHTTPHeaderTimeout}
	ErrHTTPResponse      = &Error{Code: CodeHTTPResponse}
)

// API misuse errors. These carry no public code.
var (
	// ErrBusy is returned by Start while another download is active
	ErrBusy = errors.New("ota: download already in progress")

	// ErrNoDownload is returned when no download has been started
	ErrNoDownload = errors.New("ota: no download started")

	// ErrNotCompleted is returned by Verify and Update before the download completed
	ErrNotCompleted = errors.New("ota: download not completed")
)

// CodeOf returns the public code of err: CodeNone for nil, the carried code
// for errors wrapping an *Error, CodeUnknown otherwise.
func CodeOf(err error) Code {
	if err == nil {
		return CodeNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// OverrunError indicates that the server sent more bytes than it declared.
type OverrunError struct {
	// ContentLength is the declared content length
	ContentLength int64

	// Received is the number of bytes received including the offending chunk
	Received int64
}

func (e *OverrunError) Error() string {
	return fmt.Sprintf("received %d bytes, content length is %d", e.Received, e.ContentLength)
}

// TruncatedError indicates that the stream ended before the declared length.
type TruncatedError struct {
	ContentLength int64
	Received      int64
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("stream ended after %d of %d bytes", e.Received, e.ContentLength)
}

func newError(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}
