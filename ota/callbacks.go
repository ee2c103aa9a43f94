package ota

import "time"

// Progress contains information about the download progress.
// Passed to ProgressCallback after every processed chunk.
type Progress struct {
	// State is the download state after the chunk was processed
	State State

	// BytesReceived is the number of image bytes received so far
	BytesReceived int64

	// BytesWritten is the number of decompressed bytes written to storage
	BytesWritten int64

	// ContentLength is the declared image size
	ContentLength int64

	// Percentage is the completion percentage by bytes received (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since the download started
	ElapsedTime time.Duration
}

// ProgressCallback is called during a download to report progress.
// Implementations should return quickly; they run inside Poll.
//
// Example:
//
//	client := ota.New(slot, tr,
//	    ota.WithProgressCallback(func(p ota.Progress) {
//	        fmt.Printf("[%s] %.1f%% - %d bytes written\n",
//	            p.State, p.Percentage, p.BytesWritten)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the client.
// *slog.Logger satisfies it.
//
// Example with the standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	client := ota.New(slot, tr, ota.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
