// Package landmark turns face-landmark detections into accent colour signals:
// head tilt drives the hue and a blink inverts the colour.
package landmark

import (
	"math"
	"time"

	"github.com/iburimskiy/webcam-fx/internal/config"
)

// Point is a landmark in normalized image coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Frame holds the landmarks of one detected face. An empty Frame means no face.
type Frame []Point

// Indices into the 468-point face mesh. Another landmark model needs its own
// eye corner and eyelid indices.
const (
	RightEyeOuter  = 33
	RightEyeInner  = 133
	RightEyeUpperA = 159
	RightEyeLowerA = 145
	RightEyeUpperB = 158
	RightEyeLowerB = 153

	LeftEyeInner  = 362
	LeftEyeOuter  = 263
	LeftEyeUpperA = 386
	LeftEyeLowerA = 374
	LeftEyeUpperB = 385
	LeftEyeLowerB = 380

	MeshSize = 468
)

func (f Frame) has(idx ...int) bool {
	for _, i := range idx {
		if i >= len(f) {
			return false
		}
	}
	return true
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// TiltAngle returns the roll of the line through both outer eye corners, in
// degrees.
func TiltAngle(f Frame) (float64, bool) {
	if !f.has(RightEyeOuter, LeftEyeOuter) {
		return 0, false
	}
	a, b := f[RightEyeOuter], f[LeftEyeOuter]
	return math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi, true
}

// eyeRatio is (|upperA-lowerA| + |upperB-lowerB|) / (2*|corner-corner|).
func eyeRatio(f Frame, c1, c2, ua, la, ub, lb int) float64 {
	width := dist(f[c1], f[c2])
	if width == 0 {
		return 0
	}
	return (dist(f[ua], f[la]) + dist(f[ub], f[lb])) / (2 * width)
}

// EyeAspectRatio averages the aspect ratio of both eyes.
func EyeAspectRatio(f Frame) (float64, bool) {
	if !f.has(RightEyeInner, LeftEyeInner, LeftEyeOuter, LeftEyeUpperA, LeftEyeLowerA, LeftEyeUpperB, LeftEyeLowerB) {
		return 0, false
	}
	right := eyeRatio(f, RightEyeOuter, RightEyeInner, RightEyeUpperA, RightEyeLowerA, RightEyeUpperB, RightEyeLowerB)
	left := eyeRatio(f, LeftEyeInner, LeftEyeOuter, LeftEyeUpperA, LeftEyeLowerA, LeftEyeUpperB, LeftEyeLowerB)
	return (right + left) / 2, true
}

// HueForTilt maps a tilt in [-TiltLimit, TiltLimit] degrees linearly onto
// 0..360 degrees of hue. Larger tilts are clamped.
func HueForTilt(deg float64) float64 {
	deg = math.Max(-config.TiltLimit, math.Min(config.TiltLimit, deg))
	return (deg + config.TiltLimit) / (2 * config.TiltLimit) * 360
}

// tiltState smooths raw tilt readings with an exponential moving average.
type tiltState struct {
	angle float64
}

func (t *tiltState) update(sample float64) float64 {
	t.angle = t.angle*(1-config.TiltSmoothing) + sample*config.TiltSmoothing
	return t.angle
}

// blinkState detects the closing edge of a blink and enforces a refractory
// period so one physical blink triggers once.
type blinkState struct {
	prevEAR       float64
	closed        bool
	cooldownUntil time.Time
}

// update reports whether ear completes a closing edge at now.
func (b *blinkState) update(ear float64, now time.Time) bool {
	fired := false
	if b.prevEAR >= config.BlinkThreshold && ear < config.BlinkThreshold && !now.Before(b.cooldownUntil) {
		fired = true
		b.cooldownUntil = now.Add(config.BlinkCooldown)
	}
	b.closed = ear < config.BlinkThreshold
	b.prevEAR = ear
	return fired
}
