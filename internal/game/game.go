// Package game drives the frame pipeline from the ebiten loop and renders the
// session buffer with its status overlay.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"

	"github.com/iburimskiy/webcam-fx/internal/camera"
	"github.com/iburimskiy/webcam-fx/internal/config"
	"github.com/iburimskiy/webcam-fx/internal/pipeline"
)

const statusTTL = 4 * time.Second

// Cues plays sounds for viewer events.
type Cues interface {
	Blink()
	Shutter()
	Fail()
}

// event is a result posted by a background goroutine and applied on the
// loop goroutine.
type event interface {
	apply(g *Game)
}

// Game implements ebiten.Game around a pipeline.
type Game struct {
	pipe    *pipeline.Pipeline
	cues    Cues
	dialogs Dialogs
	events  chan event
	now     func() time.Time

	frame       *ebiten.Image
	showOverlay bool
	dialogOpen  bool

	stream      *camera.Stream
	status      string
	statusUntil time.Time
	lastErr     error
}

// New creates a game around p. Blink inversions reported by the pipeline
// trigger the blink cue.
func New(p *pipeline.Pipeline, cues Cues, dialogs Dialogs) *Game {
	g := &Game{
		pipe:        p,
		cues:        cues,
		dialogs:     dialogs,
		events:      make(chan event, 8),
		now:         time.Now,
		showOverlay: true,
	}
	p.OnBlink = cues.Blink
	return g
}

// Update advances one frame. It returns an error only to end the run.
func (g *Game) Update() error {
	g.drainEvents()
	g.checkStream()

	if quit := g.handleInput(); quit {
		return ebiten.Termination
	}

	g.pipe.Step(g.now())
	return nil
}

// Layout keeps a fixed logical window size; Draw letterboxes the buffer.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return config.WindowWidth, config.WindowHeight
}

func (g *Game) drainEvents() {
	for {
		select {
		case ev := <-g.events:
			ev.apply(g)
		default:
			return
		}
	}
}

// post delivers ev to the loop. Background goroutines block if the loop is
// far behind, which cannot happen with the handful of producers we have.
func (g *Game) post(ev event) {
	g.events <- ev
}

func (g *Game) setStatus(msg string) {
	g.status = msg
	g.statusUntil = g.now().Add(statusTTL)
}

func (g *Game) fail(msg string, err error) {
	g.lastErr = err
	g.setStatus(msg)
	g.cues.Fail()
}

// cameraResult is the outcome of background acquisition.
type cameraResult struct {
	stream *camera.Stream
	err    error
}

func (r cameraResult) apply(g *Game) {
	if r.err != nil {
		reason := camera.ReasonOther
		var ae *camera.AcquireError
		if errors.As(r.err, &ae) {
			reason = ae.Reason
		}
		g.lastErr = r.err
		g.setStatus(reason.String() + ", showing idle pattern")
		return
	}
	g.stream = r.stream
	g.pipe.AttachCamera(r.stream)
	w, h := r.stream.Resolution()
	g.setStatus(fmt.Sprintf("camera live at %dx%d", w, h))
}

// acquireCamera opens the device on a background goroutine. The idle pattern
// keeps running until a stream arrives.
func (g *Game) acquireCamera(ctx context.Context, acq *camera.Acquirer, device string) {
	g.setStatus("starting camera...")
	go func() {
		s, err := acq.Acquire(ctx, device)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Game.acquireCamera",
				"device":   device,
				"error":    err.Error(),
			}).Error("Camera unavailable, continuing with idle pattern")
		}
		g.post(cameraResult{stream: s, err: err})
	}()
}

// checkStream notices a capture goroutine that stopped on a read error.
func (g *Game) checkStream() {
	if g.stream == nil {
		return
	}
	if err := g.stream.Err(); err != nil {
		g.stream = nil
		g.pipe.DetachCamera()
		g.lastErr = err
		g.setStatus("camera stopped, showing idle pattern")
	}
}

// Run opens the window and blocks until the user quits.
func Run(ctx context.Context, opts config.Options, p *pipeline.Pipeline, cues Cues) error {
	ebiten.SetWindowSize(config.WindowWidth, config.WindowHeight)
	ebiten.SetWindowTitle("fxcam - 1-8/Tab: effect, arrows: intensity/brightness, -/=: contrast, T/B: face, S: save, P: colour, Esc/Q: quit")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g := New(p, cues, zenityDialogs{})
	if !opts.NoCamera {
		g.acquireCamera(ctx, camera.NewAcquirer(), opts.Device)
	} else {
		g.setStatus("camera disabled, showing idle pattern")
	}

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
