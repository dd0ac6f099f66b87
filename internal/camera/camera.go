// Package camera acquires a live capture device and keeps the most recent
// decoded frame available to the frame loop.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iburimskiy/webcam-fx/internal/config"
)

// Reason classifies why acquisition failed, in terms shown to the user.
type Reason int

const (
	ReasonOther Reason = iota
	ReasonPermissionDenied
	ReasonNoDevice
	ReasonDeviceBusy
	ReasonUnsatisfiable
)

func (r Reason) String() string {
	switch r {
	case ReasonPermissionDenied:
		return "camera permission denied"
	case ReasonNoDevice:
		return "no camera found"
	case ReasonDeviceBusy:
		return "camera is in use by another application"
	case ReasonUnsatisfiable:
		return "camera does not support the requested format"
	default:
		return "camera unavailable"
	}
}

// ErrUnsatisfiable is returned by devices that cannot deliver a supported
// pixel format at the requested size.
var ErrUnsatisfiable = errors.New("unsatisfiable capture constraints")

// AcquireError wraps the underlying failure with its Reason.
type AcquireError struct {
	Reason Reason
	Err    error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *AcquireError) Unwrap() error { return e.Err }

// Classify maps a device error onto a Reason.
func Classify(err error) Reason {
	switch {
	case err == nil:
		return ReasonOther
	case errors.Is(err, ErrUnsatisfiable):
		return ReasonUnsatisfiable
	case errors.Is(err, fs.ErrPermission):
		return ReasonPermissionDenied
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENODEV), errors.Is(err, syscall.ENXIO):
		return ReasonNoDevice
	case errors.Is(err, syscall.EBUSY):
		return ReasonDeviceBusy
	default:
		return ReasonOther
	}
}

// Constraint is a requested capture size.
type Constraint struct {
	Width  int
	Height int
}

// DefaultConstraints is tried in order until one is accepted.
var DefaultConstraints = []Constraint{
	{Width: 1280, Height: 720},
	{Width: 640, Height: 480},
	{Width: 320, Height: 240},
}

// Device is the minimal capture device the stream needs.
type Device interface {
	// Configure requests a size and returns what the device settled on.
	Configure(width, height int) (int, int, error)
	Start() error
	// Read blocks for at most a short wait and returns nil, nil when no frame
	// was ready.
	Read() ([]byte, error)
	Close() error
}

// Opener opens the device at path.
type Opener func(path string) (Device, error)

// Acquirer opens a device, walking down the constraint list on failure.
type Acquirer struct {
	Open        Opener
	Constraints []Constraint
	Timeout     time.Duration
}

// NewAcquirer returns an acquirer using the platform capture backend.
func NewAcquirer() *Acquirer {
	return &Acquirer{
		Open:        openPlatform,
		Constraints: DefaultConstraints,
		Timeout:     config.AcquireTimeout,
	}
}

// Acquire tries each constraint in turn and returns a running stream for the
// first one that works. Permission and missing-device failures stop early
// since a smaller size cannot fix them. The returned error is an
// *AcquireError describing the last failure.
func (a *Acquirer) Acquire(ctx context.Context, path string) (*Stream, error) {
	var lastErr error
	for _, c := range a.Constraints {
		s, err := a.attempt(ctx, path, c)
		if err == nil {
			logrus.WithFields(logrus.Fields{
				"function": "Acquirer.Acquire",
				"device":   path,
				"width":    s.width,
				"height":   s.height,
			}).Info("Camera acquired")
			return s, nil
		}
		lastErr = err

		logrus.WithFields(logrus.Fields{
			"function":  "Acquirer.Acquire",
			"device":    path,
			"requested": fmt.Sprintf("%dx%d", c.Width, c.Height),
			"error":     err.Error(),
		}).Warn("Camera acquisition attempt failed")

		var ae *AcquireError
		if errors.As(err, &ae) && (ae.Reason == ReasonPermissionDenied || ae.Reason == ReasonNoDevice) {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		lastErr = &AcquireError{Reason: ReasonUnsatisfiable, Err: errors.New("no constraints to try")}
	}
	return nil, lastErr
}

type attemptResult struct {
	dev    Device
	width  int
	height int
	err    error
}

// attempt runs one open/configure/start sequence bounded by the timeout.
func (a *Acquirer) attempt(ctx context.Context, path string, c Constraint) (*Stream, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = config.AcquireTimeout
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		dev, err := a.Open(path)
		if err != nil {
			done <- attemptResult{err: err}
			return
		}
		w, h, err := dev.Configure(c.Width, c.Height)
		if err == nil {
			err = dev.Start()
		}
		if err != nil {
			dev.Close()
			done <- attemptResult{err: err}
			return
		}
		done <- attemptResult{dev: dev, width: w, height: h}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, &AcquireError{Reason: Classify(res.err), Err: res.err}
		}
		return startStream(res.dev, res.width, res.height), nil
	case <-actx.Done():
		// release the device if the open finishes after we gave up
		go func() {
			if res := <-done; res.dev != nil {
				res.dev.Close()
			}
		}()
		return nil, &AcquireError{Reason: ReasonOther, Err: fmt.Errorf("acquire %s: %w", path, actx.Err())}
	}
}

// Stream captures frames on its own goroutine and publishes the latest one.
type Stream struct {
	dev    Device
	width  int
	height int
	latest atomic.Pointer[image.RGBA]
	cancel context.CancelFunc
	done   chan struct{}
	err    atomic.Pointer[error]
}

func startStream(dev Device, width, height int) *Stream {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Stream{
		dev:    dev,
		width:  width,
		height: height,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.capture(ctx)
	return s
}

func (s *Stream) capture(ctx context.Context) {
	defer close(s.done)
	for ctx.Err() == nil {
		raw, err := s.dev.Read()
		if err != nil {
			if ctx.Err() == nil {
				logrus.WithFields(logrus.Fields{
					"function": "Stream.capture",
					"error":    err.Error(),
				}).Error("Camera read failed, stopping capture")
				s.err.Store(&err)
			}
			return
		}
		if raw == nil {
			continue
		}
		img, err := DecodeYUYV(raw, s.width, s.height)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Stream.capture",
				"error":    err.Error(),
			}).Debug("Dropping malformed frame")
			continue
		}
		s.latest.Store(img)
	}
}

// Latest returns the newest decoded frame.
func (s *Stream) Latest() (image.Image, bool) {
	img := s.latest.Load()
	if img == nil {
		return nil, false
	}
	return img, true
}

// Resolution reports the negotiated capture size.
func (s *Stream) Resolution() (int, int) { return s.width, s.height }

// Err returns the error that stopped capture, if any.
func (s *Stream) Err() error {
	if p := s.err.Load(); p != nil {
		return *p
	}
	return nil
}

// Close stops capture and releases the device.
func (s *Stream) Close() error {
	s.cancel()
	<-s.done
	return s.dev.Close()
}
