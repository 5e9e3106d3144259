package capture

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type state int

const (
	stateIdle state = iota
	stateAcquired
	stateCapturing
)

// Controller owns the capture resource lifecycle for one session:
// Idle → Capturing → Idle. Exactly one capture may be open at a time;
// Start while already capturing is an idempotent no-op. Stop finalizes
// the buffer, releases the device unconditionally and yields the result
// asynchronously on the channel returned by Start.
type Controller struct {
	log    *zap.Logger
	device Device

	mu        sync.Mutex
	st        state
	stream    Stream
	startedAt time.Time
	out       chan Buffer
}

func NewController(device Device, log *zap.Logger) *Controller {
	return &Controller{log: log, device: device}
}

// Acquire requests the hardware capability. On ErrPermissionDenied the
// controller is left exactly as it was.
func (c *Controller) Acquire(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st != stateIdle {
		return ErrCaptureBusy
	}
	stream, err := c.device.Acquire(ctx)
	if err != nil {
		return err
	}
	c.stream = stream
	c.st = stateAcquired
	return nil
}

// Start begins recording on the acquired stream. Calling it while a
// capture is already open returns the existing delivery channel.
func (c *Controller) Start() (<-chan Buffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.st {
	case stateIdle:
		return nil, ErrNotAcquired
	case stateCapturing:
		return c.out, nil
	}
	c.out = make(chan Buffer, 1)
	c.startedAt = time.Now()
	c.st = stateCapturing
	return c.out, nil
}

// Write appends an audio chunk to the open recording.
func (c *Controller) Write(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st != stateCapturing {
		return ErrNotCapturing
	}
	_, err := c.stream.Write(p)
	return err
}

// Stop finalizes the current buffer, releases the device even if the
// stream close fails, and delivers the buffer on the Start channel.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st != stateCapturing {
		return ErrNotCapturing
	}
	buf := Buffer{
		ID:       uuid.New(),
		MimeType: c.stream.MimeType(),
		Data:     c.stream.Bytes(),
		Duration: time.Since(c.startedAt),
	}
	err := c.stream.Close()
	if err != nil {
		c.log.Warn("capture stream close failed", zap.Error(err))
	}
	out := c.out
	c.reset()
	out <- buf
	return err
}

// Release force-closes any open capture without delivering a buffer.
// Used by cancellation; safe to call from any state.
func (c *Controller) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		if err := c.stream.Close(); err != nil {
			c.log.Warn("capture stream close failed on release", zap.Error(err))
		}
	}
	c.reset()
}

// Capturing reports whether a recording is currently open.
func (c *Controller) Capturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st == stateCapturing
}

func (c *Controller) reset() {
	c.st = stateIdle
	c.stream = nil
	c.out = nil
	c.startedAt = time.Time{}
}
