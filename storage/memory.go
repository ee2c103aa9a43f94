package storage

import (
	"bytes"
	"fmt"
)

// Memory is an in-memory update slot for tests and demonstrations.
type Memory struct {
	// Unavailable makes Available report false
	Unavailable bool

	// BeginErr, WriteErr, CommitErr and AbortErr are returned by the
	// matching calls when set. Abort still discards the write.
	BeginErr  error
	WriteErr  error
	CommitErr error
	AbortErr  error

	buf       bytes.Buffer
	running   bool
	committed []byte
	commits   int
	aborts    int
}

// NewMemory returns an empty, available memory slot.
func NewMemory() *Memory {
	return &Memory{}
}

// Available reports whether the slot can be written.
func (m *Memory) Available() bool { return !m.Unavailable }

// Running reports whether a write is in progress.
func (m *Memory) Running() bool { return m.running }

// Begin starts a new write.
func (m *Memory) Begin(sizeHint int64) error {
	if m.BeginErr != nil {
		return m.BeginErr
	}
	if m.running {
		return fmt.Errorf("write already running")
	}
	m.buf.Reset()
	if sizeHint > 0 {
		m.buf.Grow(int(sizeHint))
	}
	m.running = true
	return nil
}

// WriteByte appends one byte to the running write.
func (m *Memory) WriteByte(c byte) error {
	if !m.running {
		return fmt.Errorf("write not running")
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	return m.buf.WriteByte(c)
}

// Commit finishes the running write.
func (m *Memory) Commit(validate bool) error {
	if !m.running {
		return fmt.Errorf("write not running")
	}
	if m.CommitErr != nil {
		return m.CommitErr
	}
	if validate && m.buf.Len() == 0 {
		return fmt.Errorf("refusing to commit empty image")
	}
	m.committed = append([]byte(nil), m.buf.Bytes()...)
	m.commits++
	m.running = false
	return nil
}

// Abort discards the running write.
func (m *Memory) Abort() error {
	if m.running {
		m.aborts++
	}
	m.running = false
	m.buf.Reset()
	return m.AbortErr
}

// Staged returns the bytes written by the running write.
func (m *Memory) Staged() []byte { return m.buf.Bytes() }

// Committed returns the bytes of the last committed write.
func (m *Memory) Committed() []byte { return m.committed }

// Commits returns how many writes were committed.
func (m *Memory) Commits() int { return m.commits }

// Aborts returns how many running writes were aborted.
func (m *Memory) Aborts() int { return m.aborts }
