package ota

import (
	"errors"
	"fmt"
	"io"

	"github.com/moffa90/go-ota/lzss"
	"github.com/moffa90/go-ota/protocol"
)

// State is a download state.
type State int

const (
	// StateIdle means no download has been started
	StateIdle State = iota

	// StateHeader means the OTA header is still being received
	StateHeader

	// StateFile means the header was accepted and payload bytes are streaming
	StateFile

	// StateCompleted means every declared byte was received
	StateCompleted

	// StateMagicMismatch means the image was built for another board family
	StateMagicMismatch

	// StateError means the download failed
	StateError
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHeader:
		return "header"
	case StateFile:
		return "file"
	case StateCompleted:
		return "completed"
	case StateMagicMismatch:
		return "magic mismatch"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Failed reports whether s is one of the error states.
func (s State) Failed() bool {
	return s == StateMagicMismatch || s == StateError
}

// Status is the result of a successful Poll.
type Status int

const (
	// StatusInProgress means more data is needed
	StatusInProgress Status = 0

	// StatusCompleted means the whole image was received
	StatusCompleted Status = 1
)

func (s Status) String() string {
	if s == StatusCompleted {
		return "completed"
	}
	return "in progress"
}

// download is the per-download context: the state machine that routes
// incoming chunks through the header codec, the checksum and the decoder.
//
// Chunks may have any size and may split the header, a compressed token or
// the header/payload boundary anywhere.
type download struct {
	state State
	err   error

	total    int64 // declared content length
	received int64
	written  int64
	magic    uint32

	hdr      protocol.HeaderBuffer
	header   protocol.Header
	accepted bool
	crc      protocol.CRC32
	dec      *lzss.Decoder
}

func newDownload(contentLength int64, magic uint32, sink io.ByteWriter) *download {
	return &download{
		state: StateHeader,
		total: contentLength,
		magic: magic,
		crc:   protocol.NewCRC32(),
		dec:   lzss.NewDecoder(sink),
	}
}

// feed processes one chunk.
func (d *download) feed(p []byte) (Status, error) {
	switch {
	case d.state == StateCompleted:
		return StatusCompleted, nil
	case d.state.Failed():
		return StatusInProgress, d.err
	case d.total < protocol.HeaderSize && d.received == d.total:
		return StatusInProgress, d.shortImage()
	case len(p) == 0:
		return StatusInProgress, nil
	}

	if d.received+int64(len(p)) > d.total {
		return StatusInProgress, d.fail(StateError, newError(CodeDownload, "receive", &OverrunError{
			ContentLength: d.total,
			Received:      d.received + int64(len(p)),
		}))
	}
	d.received += int64(len(p))

	if d.state == StateHeader {
		n, complete := d.hdr.Feed(p)
		p = p[n:]
		if !complete {
			if d.received == d.total {
				return StatusInProgress, d.shortImage()
			}
			return StatusInProgress, nil
		}

		if err := d.acceptHeader(); err != nil {
			return StatusInProgress, err
		}
	}

	if len(p) > 0 {
		d.crc = d.crc.Update(p)
		_, err := d.dec.Write(p)
		d.written = d.dec.Written()
		if err != nil {
			return StatusInProgress, d.fail(StateError, newError(CodeDownload, "write", err))
		}
	}

	if d.received == d.total {
		d.state = StateCompleted
		return StatusCompleted, nil
	}
	return StatusInProgress, nil
}

func (d *download) shortImage() error {
	return d.fail(StateError, newError(CodeHeaderLength, "header",
		fmt.Errorf("image of %d bytes is shorter than the %d byte header", d.total, protocol.HeaderSize)))
}

// acceptHeader validates the completed header and moves to StateFile.
func (d *download) acceptHeader() error {
	h, err := d.hdr.Header()
	if err != nil {
		return d.fail(StateError, newError(CodeHeaderLength, "header", err))
	}

	if err := protocol.ValidateHeader(h, d.total, d.magic); err != nil {
		var mismatch *protocol.MagicMismatchError
		if errors.As(err, &mismatch) {
			return d.fail(StateMagicMismatch, newError(CodeHeaderMagic, "header", err))
		}
		return d.fail(StateError, newError(CodeHeaderLength, "header", err))
	}

	d.header = h
	d.accepted = true
	d.crc = d.crc.Update(d.hdr.Checksummed())
	d.state = StateFile
	return nil
}

// fail moves to a terminal error state, releases the decoder and stores err.
// It returns err for convenience.
func (d *download) fail(state State, err error) error {
	d.state = state
	d.err = err
	d.dec = nil
	return err
}

// verify compares the accumulated checksum with the header.
func (d *download) verify() error {
	if sum := d.crc.Sum32(); sum != d.header.CRC32 {
		return newError(CodeHeaderCRC, "verify", &protocol.ChecksumMismatchError{
			Expected: d.header.CRC32,
			Actual:   sum,
		})
	}
	return nil
}

func (d *download) percentage() float64 {
	if d.total <= 0 {
		return 0
	}
	return float64(d.received) / float64(d.total) * 100
}
