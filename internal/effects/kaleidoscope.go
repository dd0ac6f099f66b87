package effects

import (
	"image"
	"math"

	"github.com/iburimskiy/webcam-fx/internal/accent"
)

const (
	kaleidoMinWedges = 4
	kaleidoMaxWedges = 16
	kaleidoOverlay   = 0.3 // overlay-blend opacity at full intensity
)

// Wedges returns the number of kaleidoscope wedges for intensity k in [0,1].
func Wedges(k float64) int {
	return kaleidoMinWedges + int(float64(kaleidoMaxWedges-kaleidoMinWedges)*k)
}

// kaleidoMap caches, for one buffer size and wedge count, the source pixel
// offset each destination pixel samples from.
type kaleidoMap struct {
	w, h, wedges int
	src          []int32
}

func (m *kaleidoMap) lookup(w, h, wedges int) []int32 {
	if m.src != nil && m.w == w && m.h == h && m.wedges == wedges {
		return m.src
	}

	src := make([]int32, w*h)
	cx, cy := float64(w)/2, float64(h)/2
	span := 2 * math.Pi / float64(wedges)

	for y := range h {
		for x := range w {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			r := math.Hypot(dx, dy)
			a := math.Atan2(dy, dx)
			if a < 0 {
				a += 2 * math.Pi
			}

			n := int(a / span)
			local := a - float64(n)*span
			if n%2 == 1 {
				// mirror alternating wedges so the seams line up
				local = span - local
			}

			sx := clampInt(int(math.Floor(cx+r*math.Cos(local))), 0, w-1)
			sy := clampInt(int(math.Floor(cy+r*math.Sin(local))), 0, h-1)
			src[y*w+x] = int32(sy*w + sx)
		}
	}

	m.w, m.h, m.wedges, m.src = w, h, wedges, src
	return src
}

// applyKaleidoscope rebuilds the frame from rotated and mirrored copies of the
// first wedge around the centre, then overlays the accent colour.
func (e *Engine) applyKaleidoscope(buf *image.RGBA, k float64, ac accent.Color) {
	w, h := buf.Rect.Dx(), buf.Rect.Dy()
	wedges := Wedges(k)
	table := e.kaleido.lookup(w, h, wedges)
	src := e.snapshot(buf)

	alpha := overlayAlpha(wedges)
	ar, ag, ab := float64(ac.R), float64(ac.G), float64(ac.B)

	for y := range h {
		row := y * buf.Stride
		for x := range w {
			s := int(table[y*w+x])
			si := (s/w)*src.Stride + (s%w)*4
			di := row + x*4
			copy(buf.Pix[di:di+4], src.Pix[si:si+4])

			if alpha > 0 {
				r, g, b := float64(buf.Pix[di]), float64(buf.Pix[di+1]), float64(buf.Pix[di+2])
				buf.Pix[di] = clamp8(r + (overlay(r, ar)-r)*alpha)
				buf.Pix[di+1] = clamp8(g + (overlay(g, ag)-g)*alpha)
				buf.Pix[di+2] = clamp8(b + (overlay(b, ab)-b)*alpha)
			}
		}
	}
}

// overlayAlpha grows with the wedge count above the minimum. The plain
// four-wedge fold gets no tint, so repeating it leaves a solid frame as is.
func overlayAlpha(wedges int) float64 {
	return kaleidoOverlay * float64(wedges-kaleidoMinWedges) / float64(kaleidoMaxWedges-kaleidoMinWedges)
}

// overlay is the standard overlay blend of s onto base, both on 0..255.
func overlay(base, s float64) float64 {
	if base < 128 {
		return 2 * base * s / 255
	}
	return 255 - 2*(255-base)*(255-s)/255
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
