package storage

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Suffixes of the files kept next to a File slot.
const (
	PartialSuffix = ".partial"
	LockSuffix    = ".lock"
)

// ErrSlotLocked is returned by Begin when another writer holds the slot.
var ErrSlotLocked = errors.New("update slot is locked by another writer")

// File is an update slot backed by a file on disk.
//
// Bytes are staged in "<path>.partial" while a write is running. Commit
// syncs the staged file and renames it over path, so path only ever holds a
// complete, verified image. An advisory lock on "<path>.lock" keeps two
// writers off the same slot.
type File struct {
	path string
	lock *flock.Flock

	f       *os.File
	w       *bufio.Writer
	written int64
}

// NewFile returns a slot that commits to path.
func NewFile(path string) *File {
	return &File{
		path: path,
		lock: flock.New(path + LockSuffix),
	}
}

// Path returns the commit destination.
func (s *File) Path() string { return s.path }

// Available reports whether the slot's directory exists.
func (s *File) Available() bool {
	fi, err := os.Stat(filepath.Dir(s.path))
	return err == nil && fi.IsDir()
}

// Running reports whether a write is in progress.
func (s *File) Running() bool { return s.f != nil }

// Begin locks the slot and starts a new staged write. A positive sizeHint
// preallocates buffer space.
func (s *File) Begin(sizeHint int64) error {
	if s.Running() {
		return fmt.Errorf("write already running")
	}

	locked, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock slot: %w", err)
	}
	if !locked {
		return ErrSlotLocked
	}

	f, err := os.OpenFile(s.path+PartialSuffix, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("create staging file: %w", err)
	}

	size := 4096
	if sizeHint > int64(size) && sizeHint < 1<<20 {
		size = int(sizeHint)
	}

	s.f = f
	s.w = bufio.NewWriterSize(f, size)
	s.written = 0
	return nil
}

// WriteByte appends one byte to the staged image.
func (s *File) WriteByte(c byte) error {
	if !s.Running() {
		return fmt.Errorf("write not running")
	}
	if err := s.w.WriteByte(c); err != nil {
		return err
	}
	s.written++
	return nil
}

// Written returns the number of bytes staged by the running write.
func (s *File) Written() int64 { return s.written }

// Commit finishes the staged write and moves it into place. With validate
// set, an empty image is rejected.
func (s *File) Commit(validate bool) error {
	if !s.Running() {
		return fmt.Errorf("write not running")
	}

	if validate && s.written == 0 {
		_ = s.Abort()
		return fmt.Errorf("refusing to commit empty image")
	}

	err := s.w.Flush()
	if err == nil {
		err = s.f.Sync()
	}
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	s.f, s.w = nil, nil

	if err == nil {
		err = os.Rename(s.path+PartialSuffix, s.path)
	}
	if err != nil {
		_ = os.Remove(s.path + PartialSuffix)
	}

	if uerr := s.lock.Unlock(); err == nil && uerr != nil {
		err = fmt.Errorf("unlock slot: %w", uerr)
	}

	return err
}

// Abort discards a running write. It is a no-op when nothing is running.
func (s *File) Abort() error {
	if !s.Running() {
		return nil
	}

	err := s.f.Close()
	s.f, s.w = nil, nil

	if rerr := os.Remove(s.path + PartialSuffix); err == nil && rerr != nil && !os.IsNotExist(rerr) {
		err = rerr
	}
	if uerr := s.lock.Unlock(); err == nil {
		err = uerr
	}

	return err
}
