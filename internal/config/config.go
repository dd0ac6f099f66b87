package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iburimskiy/webcam-fx/internal/accent"
)

const (
	WindowWidth  = 960
	WindowHeight = 540

	// Default buffer size while no camera is attached
	BufferWidth  = 640
	BufferHeight = 360

	// Idle pattern
	IdleDownsample = 8
	IdleTimeStep   = 0.02
	IdleGrain      = 0.06

	// Telemetry
	FrameRingSize = 256
	FPSWindow     = time.Second

	// Camera acquisition
	AcquireTimeout = 10 * time.Second
	FrameWait      = 1 // seconds, V4L2 select timeout

	// Landmark signals
	TiltSmoothing  = 0.3
	TiltLimit      = 60.0
	BlinkThreshold = 0.25
	BlinkCooldown  = 400 * time.Millisecond
	DetectTimeout  = 2 * time.Second

	// Controls
	IntensityStep = 5
	ToneStep      = 5
)

// Options holds everything the viewer and the render command read from flags.
type Options struct {
	Device     string
	Facing     string
	Width      int
	Height     int
	NoCamera   bool
	Mode       string
	Intensity  int
	Brightness int
	Contrast   int
	Accent     string
	HeadTilt   bool
	Blink      bool
	Detector   string
	Sound      bool
	LogLevel   string
}

// Defaults returns the options used when no flag overrides them.
func Defaults() Options {
	return Options{
		Device:     "/dev/video0",
		Facing:     "user",
		Width:      BufferWidth,
		Height:     BufferHeight,
		Mode:       "none",
		Intensity:  50,
		Brightness: 100,
		Contrast:   100,
		Accent:     accent.DefaultHex,
		Sound:      true,
		LogLevel:   "info",
	}
}

// Validate clamps numeric controls into range and rejects values that cannot be
// repaired.
func (o *Options) Validate() error {
	o.Intensity = clampInt(o.Intensity, 0, 100)
	o.Brightness = clampInt(o.Brightness, 0, 200)
	o.Contrast = clampInt(o.Contrast, 0, 200)

	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid buffer size %dx%d", o.Width, o.Height)
	}

	switch strings.ToLower(o.Facing) {
	case "user", "environment":
		o.Facing = strings.ToLower(o.Facing)
	default:
		return fmt.Errorf("unknown facing mode %q (want user or environment)", o.Facing)
	}

	if _, err := logrus.ParseLevel(o.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// ApplyLogging configures the global logrus logger from the options.
func (o Options) ApplyLogging() {
	level, err := logrus.ParseLevel(o.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
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
