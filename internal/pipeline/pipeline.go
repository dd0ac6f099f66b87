// Package pipeline owns the per-session pixel buffer and runs the per-frame
// chain: frame source, tone adjustment, effect, landmark dispatch.
package pipeline

import (
	"fmt"
	"image"
	"time"

	"golang.org/x/image/draw"

	"github.com/sirupsen/logrus"

	"github.com/iburimskiy/webcam-fx/internal/accent"
	"github.com/iburimskiy/webcam-fx/internal/config"
	"github.com/iburimskiy/webcam-fx/internal/effects"
	"github.com/iburimskiy/webcam-fx/internal/frame"
	"github.com/iburimskiy/webcam-fx/internal/landmark"
)

// Session is the mutable state of one viewer run.
type Session struct {
	Buffer    *image.RGBA
	Accent    *accent.Controller
	Mode      effects.Mode
	Intensity int
	Tone      effects.Tone
	Facing    frame.Facing
	Started   time.Time
}

// NewSession builds a session from validated options.
func NewSession(opts config.Options) (*Session, error) {
	mode, err := effects.ParseMode(opts.Mode)
	if err != nil {
		return nil, err
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid buffer size %dx%d", opts.Width, opts.Height)
	}
	return &Session{
		Buffer:    image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
		Accent:    accent.NewController(opts.Accent),
		Mode:      mode,
		Intensity: opts.Intensity,
		Tone:      effects.Tone{Brightness: opts.Brightness, Contrast: opts.Contrast},
		Facing:    frame.ParseFacing(opts.Facing),
	}, nil
}

// Pipeline runs once per display refresh. All methods must be called from
// the frame loop goroutine.
type Pipeline struct {
	session   *Session
	source    *frame.Source
	engine    *effects.Engine
	landmarks *landmark.Adapter
	camera    frame.Camera
	telemetry *Telemetry

	live bool

	// OnBlink runs after a blink has inverted the accent colour.
	OnBlink func()
}

// New wires a pipeline around s. det may be nil when no landmark detector
// is available.
func New(s *Session, det landmark.Detector, seed uint64) *Pipeline {
	p := &Pipeline{
		session:   s,
		source:    frame.NewSource(seed),
		engine:    effects.NewEngine(seed),
		telemetry: newTelemetry(config.FrameRingSize),
	}
	p.landmarks = landmark.NewAdapter(det, accentSink{p})
	return p
}

type accentSink struct{ p *Pipeline }

func (s accentSink) SetHue(deg float64) { s.p.session.Accent.SetHue(deg) }

func (s accentSink) Invert() {
	s.p.session.Accent.Invert()
	if s.p.OnBlink != nil {
		s.p.OnBlink()
	}
}

// Step produces one frame into the session buffer. It never fails: without
// a camera frame the idle pattern is drawn.
func (p *Pipeline) Step(now time.Time) {
	s := p.session
	if s.Started.IsZero() {
		s.Started = now
	}
	p.telemetry.Record(now)

	if p.camera != nil && p.camera.Err() != nil {
		p.DetachCamera()
	}

	var img image.Image
	p.live = false
	if p.camera != nil {
		img, p.live = p.camera.Latest()
	}

	p.source.Fill(s.Buffer, img, s.Facing)
	effects.ApplyTone(s.Buffer, s.Tone)
	p.engine.Apply(s.Buffer, s.Mode, s.Intensity, s.Accent.Color())

	p.landmarks.Poll()
	if p.live {
		p.landmarks.Dispatch(img)
	}
}

// AttachCamera switches the source to cam and resizes the buffer to the
// camera's resolution.
func (p *Pipeline) AttachCamera(cam frame.Camera) {
	if p.camera != nil {
		p.camera.Close()
	}
	p.camera = cam
	w, h := cam.Resolution()
	if w > 0 && h > 0 && p.session.Buffer.Bounds() != image.Rect(0, 0, w, h) {
		p.session.Buffer = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	logrus.WithFields(logrus.Fields{
		"function": "Pipeline.AttachCamera",
		"width":    w,
		"height":   h,
	}).Info("Camera attached")
}

// DetachCamera closes the current camera, if any, and returns the source to
// the idle pattern. The buffer keeps its size.
func (p *Pipeline) DetachCamera() {
	if p.camera == nil {
		return
	}
	cam := p.camera
	p.camera = nil
	p.live = false

	fields := logrus.Fields{"function": "Pipeline.DetachCamera"}
	if err := cam.Err(); err != nil {
		fields["cause"] = err.Error()
	}
	if err := cam.Close(); err != nil {
		fields["error"] = err.Error()
	}
	logrus.WithFields(fields).Warn("Camera detached, showing idle pattern")
}

// Close releases the camera and abandons pending detections.
func (p *Pipeline) Close() error {
	p.landmarks.Close()
	if p.camera == nil {
		return nil
	}
	err := p.camera.Close()
	p.camera = nil
	return err
}

// Session returns the session driven by p.
func (p *Pipeline) Session() *Session { return p.session }

// Telemetry returns the frame counters.
func (p *Pipeline) Telemetry() *Telemetry { return p.telemetry }

// Landmarks returns the landmark adapter.
func (p *Pipeline) Landmarks() *landmark.Adapter { return p.landmarks }

// Live reports whether the last step used a camera frame.
func (p *Pipeline) Live() bool { return p.live }

// SetMode activates m.
func (p *Pipeline) SetMode(m effects.Mode) { p.session.Mode = m }

// CycleMode moves to the next (delta > 0) or previous mode.
func (p *Pipeline) CycleMode(delta int) {
	if delta > 0 {
		p.session.Mode = p.session.Mode.Next()
	} else if delta < 0 {
		p.session.Mode = p.session.Mode.Prev()
	}
}

// AdjustIntensity moves intensity by delta within 0..100.
func (p *Pipeline) AdjustIntensity(delta int) {
	p.session.Intensity = clampInt(p.session.Intensity+delta, 0, 100)
}

// AdjustBrightness moves brightness by delta within 0..200.
func (p *Pipeline) AdjustBrightness(delta int) {
	p.session.Tone.Brightness = clampInt(p.session.Tone.Brightness+delta, 0, 200)
}

// AdjustContrast moves contrast by delta within 0..200.
func (p *Pipeline) AdjustContrast(delta int) {
	p.session.Tone.Contrast = clampInt(p.session.Tone.Contrast+delta, 0, 200)
}

// ResetTone restores neutral brightness and contrast.
func (p *Pipeline) ResetTone() { p.session.Tone = effects.NeutralTone }

// ToggleFacing flips between user and environment facing.
func (p *Pipeline) ToggleFacing() frame.Facing {
	if p.session.Facing == frame.FacingUser {
		p.session.Facing = frame.FacingEnvironment
	} else {
		p.session.Facing = frame.FacingUser
	}
	return p.session.Facing
}

// Snapshot returns a copy of the current buffer that is safe to hand to
// another goroutine.
func (p *Pipeline) Snapshot() *image.RGBA {
	src := p.session.Buffer
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out
}

// RenderStill runs tone and effect over a still image at its own size using
// the session's current settings.
func (p *Pipeline) RenderStill(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	s := p.session
	effects.ApplyTone(out, s.Tone)
	p.engine.Apply(out, s.Mode, s.Intensity, s.Accent.Color())
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
