package effects

import (
	"image"
	"math"

	"github.com/iburimskiy/webcam-fx/internal/accent"
)

const (
	glowPower   = 1.5
	glowGain    = 0.8
	glowOverlay = 0.25 // screen-blend opacity at full intensity
)

// applyGlow lifts bright areas toward the accent colour and screens a
// translucent accent wash over the whole frame.
func applyGlow(buf *image.RGBA, k float64, ac accent.Color) {
	if k == 0 {
		return
	}

	ar, ag, ab := float64(ac.R), float64(ac.G), float64(ac.B)
	alpha := glowOverlay * k

	// screen(x, c) = 255 - (255-x)(255-c)/255
	screen := func(x, c float64) float64 {
		return 255 - (255-x)*(255-c)/255
	}

	pix := buf.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		r, g, b := float64(pix[i]), float64(pix[i+1]), float64(pix[i+2])

		l := accent.Luma(r, g, b) / 255
		boost := math.Pow(l, glowPower) * k * glowGain

		r = math.Min(255, r+boost*ar)
		g = math.Min(255, g+boost*ag)
		b = math.Min(255, b+boost*ab)

		r += (screen(r, ar) - r) * alpha
		g += (screen(g, ag) - g) * alpha
		b += (screen(b, ab) - b) * alpha

		pix[i] = clamp8(r)
		pix[i+1] = clamp8(g)
		pix[i+2] = clamp8(b)
	}
}
