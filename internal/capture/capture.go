package capture

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrPermissionDenied means the user or platform refused the
	// microphone capability. Acquire leaves no side effect when it
	// returns this.
	ErrPermissionDenied = errors.New("capture: microphone permission denied")

	ErrNotAcquired  = errors.New("capture: device not acquired")
	ErrNotCapturing = errors.New("capture: no recording in progress")
	ErrCaptureBusy  = errors.New("capture: a recording is already open")
)

// Buffer is one finished recording. The ID doubles as the opaque audio
// reference carried on the Answer; the raw bytes are never persisted.
type Buffer struct {
	ID       uuid.UUID
	MimeType string
	Data     []byte
	Duration time.Duration
}

// Stream is an open audio source handed out by a Device. Chunks are
// appended with Write; Close releases the underlying hardware.
type Stream interface {
	Write(p []byte) (int, error)
	Bytes() []byte
	MimeType() string
	Close() error
}

// Device grants access to the capture hardware. Acquire fails with
// ErrPermissionDenied when the capability is refused.
type Device interface {
	Acquire(ctx context.Context) (Stream, error)
}

// sinkStream buffers uploaded audio chunks in memory.
type sinkStream struct {
	mime string
	buf  bytes.Buffer
}

func (s *sinkStream) Write(p []byte) (int, error) { return s.buf.Write(p) }
func (s *sinkStream) Bytes() []byte               { return s.buf.Bytes() }
func (s *sinkStream) MimeType() string            { return s.mime }
func (s *sinkStream) Close() error                { return nil }

type sinkDevice struct {
	mu   sync.Mutex
	open bool
}

// NewSinkDevice returns the production Device: an in-memory sink fed by
// the upload handler. It grants at most one open stream at a time.
func NewSinkDevice() Device { return &sinkDevice{} }

func (d *sinkDevice) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		return nil, ErrCaptureBusy
	}
	d.open = true
	return &ownedStream{dev: d, sinkStream: &sinkStream{mime: "audio/webm"}}, nil
}

type ownedStream struct {
	*sinkStream
	dev  *sinkDevice
	once sync.Once
}

func (s *ownedStream) Close() error {
	s.once.Do(func() {
		s.dev.mu.Lock()
		s.dev.open = false
		s.dev.mu.Unlock()
	})
	return s.sinkStream.Close()
}
