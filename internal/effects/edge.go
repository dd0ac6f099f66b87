package effects

import (
	"image"
	"math"

	"github.com/iburimskiy/webcam-fx/internal/accent"
)

// applyEdge runs a 3x3 Sobel operator over the grayscale image and paints the
// gradient magnitude in the accent colour, cross-faded with the original by k.
// The outermost rows and columns are left as they were.
func (e *Engine) applyEdge(buf *image.RGBA, k float64, ac accent.Color) {
	if k == 0 {
		return
	}
	w, h := buf.Rect.Dx(), buf.Rect.Dy()
	if w < 3 || h < 3 {
		return
	}

	if cap(e.gray) < w*h {
		e.gray = make([]float64, w*h)
	}
	gray := e.gray[:w*h]
	for y := range h {
		row := y * buf.Stride
		for x := range w {
			i := row + x*4
			gray[y*w+x] = accent.Luma(float64(buf.Pix[i]), float64(buf.Pix[i+1]), float64(buf.Pix[i+2]))
		}
	}

	ar, ag, ab := float64(ac.R)/255, float64(ac.G)/255, float64(ac.B)/255
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			tl, tc, tr := gray[(y-1)*w+x-1], gray[(y-1)*w+x], gray[(y-1)*w+x+1]
			ml, mr := gray[y*w+x-1], gray[y*w+x+1]
			bl, bc, br := gray[(y+1)*w+x-1], gray[(y+1)*w+x], gray[(y+1)*w+x+1]

			gx := -tl - 2*ml - bl + tr + 2*mr + br
			gy := -tl - 2*tc - tr + bl + 2*bc + br
			mag := math.Min(255, math.Hypot(gx, gy)*k)

			i := y*buf.Stride + x*4
			buf.Pix[i] = clamp8(float64(buf.Pix[i])*(1-k) + mag*ar*k)
			buf.Pix[i+1] = clamp8(float64(buf.Pix[i+1])*(1-k) + mag*ag*k)
			buf.Pix[i+2] = clamp8(float64(buf.Pix[i+2])*(1-k) + mag*ab*k)
		}
	}
}
