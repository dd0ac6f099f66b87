// Package frame produces the raw pixel buffer for each frame, either from a
// live camera image or from the generated idle pattern.
package frame

import (
	"image"
	"math"
	"math/rand/v2"

	"golang.org/x/image/draw"

	"github.com/iburimskiy/webcam-fx/internal/config"
)

// Facing tells whether the camera looks at the user or away from them.
type Facing int

const (
	FacingUser Facing = iota
	FacingEnvironment
)

func (f Facing) String() string {
	if f == FacingEnvironment {
		return "environment"
	}
	return "user"
}

// ParseFacing maps "user" or "environment"; anything else is user-facing.
func ParseFacing(s string) Facing {
	if s == "environment" {
		return FacingEnvironment
	}
	return FacingUser
}

// Camera is the live video collaborator.
type Camera interface {
	// Latest returns the most recent decoded frame, or false when none has
	// arrived yet.
	Latest() (image.Image, bool)
	// Resolution reports the negotiated capture size.
	Resolution() (width, height int)
	// Err returns the error that stopped capture, or nil while frames flow.
	Err() error
	Close() error
}

// Source fills the session buffer once per frame.
type Source struct {
	rng  *rand.Rand
	t    float64
	grid *image.RGBA
}

// NewSource creates a source whose idle grain is driven by seed.
func NewSource(seed uint64) *Source {
	return &Source{rng: rand.New(rand.NewPCG(seed, seed+1))}
}

// Elapsed returns the idle pattern's time accumulator.
func (s *Source) Elapsed() float64 { return s.t }

// Fill writes the frame into dst. With a live image it is copied (and
// mirrored for a user-facing camera); with img == nil the idle pattern is
// drawn instead.
func (s *Source) Fill(dst *image.RGBA, img image.Image, facing Facing) {
	if img == nil {
		s.idle(dst)
		return
	}
	copyInto(dst, img)
	if facing == FacingUser {
		Mirror(dst)
	}
}

// copyInto copies img into dst, rescaling bilinearly when sizes differ.
func copyInto(dst *image.RGBA, img image.Image) {
	sb := img.Bounds()
	if sb.Dx() == dst.Rect.Dx() && sb.Dy() == dst.Rect.Dy() {
		draw.Draw(dst, dst.Rect, img, sb.Min, draw.Src)
		return
	}
	draw.ApproxBiLinear.Scale(dst, dst.Rect, img, sb, draw.Src, nil)
}

// Mirror flips dst horizontally in place.
func Mirror(dst *image.RGBA) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := range h {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for l, r := 0, w-1; l < r; l, r = l+1, r-1 {
			li, ri := l*4, r*4
			row[li], row[ri] = row[ri], row[li]
			row[li+1], row[ri+1] = row[ri+1], row[li+1]
			row[li+2], row[ri+2] = row[ri+2], row[li+2]
			row[li+3], row[ri+3] = row[ri+3], row[li+3]
		}
	}
}

// idle evaluates two drifting sinusoids plus grain on a coarse grid and
// scales it up bilinearly to fill dst.
func (s *Source) idle(dst *image.RGBA) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	gw := max(1, (w+config.IdleDownsample-1)/config.IdleDownsample)
	gh := max(1, (h+config.IdleDownsample-1)/config.IdleDownsample)
	if s.grid == nil || s.grid.Rect.Dx() != gw || s.grid.Rect.Dy() != gh {
		s.grid = image.NewRGBA(image.Rect(0, 0, gw, gh))
	}

	t := s.t
	for y := range gh {
		fy := float64(y)
		for x := range gw {
			fx := float64(x)
			v := 0.45 +
				0.25*math.Sin(fx*0.35+t*1.7)*math.Cos(fy*0.3-t*1.1) +
				0.2*math.Sin((fx+fy)*0.12+t*0.6) +
				config.IdleGrain*(s.rng.Float64()-0.5)
			v = math.Max(0, math.Min(1, v))

			i := y*s.grid.Stride + x*4
			s.grid.Pix[i] = uint8(v * 70)
			s.grid.Pix[i+1] = uint8(v * 110)
			s.grid.Pix[i+2] = uint8(v * 170)
			s.grid.Pix[i+3] = 255
		}
	}

	draw.BiLinear.Scale(dst, dst.Rect, s.grid, s.grid.Rect, draw.Src, nil)
	s.t += config.IdleTimeStep
}
