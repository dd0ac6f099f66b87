package landmark

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iburimskiy/webcam-fx/internal/config"
)

// ErrUnavailable is returned by detectors that can no longer serve requests.
var ErrUnavailable = errors.New("landmark detector unavailable")

// Detector finds facial landmarks in an image.
type Detector interface {
	Detect(ctx context.Context, img image.Image) (Frame, error)
}

// Sink receives the derived colour signals.
type Sink interface {
	SetHue(deg float64)
	Invert()
}

// State is the adapter's position in its detection lifecycle.
type State int

const (
	StateIdle State = iota
	StateAwaiting
	StateActive
)

func (s State) String() string {
	switch s {
	case StateAwaiting:
		return "awaiting"
	case StateActive:
		return "active"
	default:
		return "idle"
	}
}

// Stats counts detector traffic.
type Stats struct {
	Dispatched int
	Suppressed int
	Completed  int
	Failed     int
}

type result struct {
	frame Frame
	err   error
}

// Adapter bridges the asynchronous detector and the frame loop. Dispatch and
// Poll must be called from the loop goroutine; detection itself runs on a
// separate goroutine and reports back through a channel.
type Adapter struct {
	det     Detector
	sink    Sink
	now     func() time.Time
	timeout time.Duration

	state    State
	headTilt bool
	blink    bool
	inFlight bool
	results  chan result

	tilt  tiltState
	eye   blinkState
	stats Stats

	ctx    context.Context
	cancel context.CancelFunc
}

// NewAdapter wires det to sink. A nil det means the capability is absent.
func NewAdapter(det Detector, sink Sink) *Adapter {
	ctx, cancel := context.WithCancel(context.Background())
	return &Adapter{
		det:     det,
		sink:    sink,
		now:     time.Now,
		timeout: config.DetectTimeout,
		results: make(chan result, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// State returns the current lifecycle state.
func (a *Adapter) State() State { return a.state }

// Stats returns the traffic counters.
func (a *Adapter) Stats() Stats { return a.stats }

// Available reports whether a detector is present.
func (a *Adapter) Available() bool { return a.det != nil }

// HeadTilt reports whether tilt-driven hue is on.
func (a *Adapter) HeadTilt() bool { return a.headTilt }

// Blink reports whether blink inversion is on.
func (a *Adapter) Blink() bool { return a.blink }

// Enabled reports whether any feature needs detections.
func (a *Adapter) Enabled() bool { return a.headTilt || a.blink }

// EyesClosed reports whether the latest blink sample was below the threshold.
func (a *Adapter) EyesClosed() bool { return a.blink && a.eye.closed }

// InFlight reports whether a detection request is outstanding.
func (a *Adapter) InFlight() bool { return a.inFlight }

// SetHeadTilt toggles tilt-driven hue and returns the resulting setting,
// which stays off when no detector is available.
func (a *Adapter) SetHeadTilt(on bool) bool {
	a.headTilt = on
	a.settle("head_tilt")
	return a.headTilt
}

// SetBlink toggles blink inversion and returns the resulting setting.
func (a *Adapter) SetBlink(on bool) bool {
	a.blink = on
	a.settle("blink")
	return a.blink
}

func (a *Adapter) settle(feature string) {
	if a.Enabled() && a.det == nil {
		logrus.WithFields(logrus.Fields{
			"function": "Adapter.settle",
			"feature":  feature,
		}).Warn("Landmark detector not available, face features disabled")
		a.headTilt, a.blink = false, false
	}

	switch {
	case !a.Enabled():
		a.state = StateIdle
	case a.state == StateIdle:
		a.state = StateAwaiting
	}
}

// Dispatch sends img to the detector unless no feature is enabled or a
// previous request is still outstanding. It reports whether a request was
// issued. img must not be modified afterwards.
func (a *Adapter) Dispatch(img image.Image) bool {
	if !a.Enabled() || a.det == nil || img == nil {
		return false
	}
	if a.inFlight {
		a.stats.Suppressed++
		return false
	}

	a.inFlight = true
	a.stats.Dispatched++
	det := a.det
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, a.timeout)
		defer cancel()
		f, err := det.Detect(ctx, img)
		a.results <- result{frame: f, err: err}
	}()
	return true
}

// Poll applies a finished detection, if any, and reports whether one was
// consumed. Results that arrive after every feature was turned off are
// dropped.
func (a *Adapter) Poll() bool {
	var res result
	select {
	case res = <-a.results:
	default:
		return false
	}
	a.inFlight = false

	if res.err != nil {
		a.stats.Failed++
		a.handleError(res.err)
		return true
	}
	a.stats.Completed++

	if !a.Enabled() {
		return true
	}
	if a.state == StateAwaiting {
		a.state = StateActive
	}
	a.Apply(res.frame)
	return true
}

// Apply derives tilt and blink signals from one landmark frame.
func (a *Adapter) Apply(f Frame) {
	if len(f) == 0 {
		return
	}
	if a.headTilt {
		if raw, ok := TiltAngle(f); ok {
			a.sink.SetHue(HueForTilt(a.tilt.update(raw)))
		}
	}
	if a.blink {
		if ear, ok := EyeAspectRatio(f); ok && a.eye.update(ear, a.now()) {
			a.sink.Invert()
		}
	}
}

func (a *Adapter) handleError(err error) {
	if errors.Is(err, ErrUnavailable) {
		logrus.WithFields(logrus.Fields{
			"function": "Adapter.Poll",
			"error":    err.Error(),
		}).Error("Landmark detector went away, face features disabled")
		a.det = nil
		a.headTilt, a.blink = false, false
		a.state = StateIdle
		return
	}
	logrus.WithFields(logrus.Fields{
		"function": "Adapter.Poll",
		"error":    err.Error(),
		"failed":   a.stats.Failed,
	}).Debug("Landmark detection failed")
}

// Close abandons outstanding requests.
func (a *Adapter) Close() {
	a.cancel()
}
