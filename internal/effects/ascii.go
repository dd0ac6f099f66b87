package effects

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/iburimskiy/webcam-fx/internal/accent"
)

// asciiRamp runs from sparse to dense.
var asciiRamp = []rune(" .:-=+*#%@")

// ASCIICell returns the character cell edge in pixels for an intensity in 0..100.
func ASCIICell(intensity int) int {
	return max(4, 16-intensity/10)
}

// glyphCache keeps the ramp rasterised at one cell size.
type glyphCache struct {
	cell  int
	masks []*image.Alpha
}

func (c *glyphCache) masksFor(cell int) []*image.Alpha {
	if c.cell == cell && c.masks != nil {
		return c.masks
	}

	face := basicfont.Face7x13
	masks := make([]*image.Alpha, len(asciiRamp))
	for i, r := range asciiRamp {
		glyph := image.NewAlpha(image.Rect(0, 0, face.Width, face.Height))
		d := &font.Drawer{
			Dst:  glyph,
			Src:  image.Opaque,
			Face: face,
			Dot:  fixed.P(0, face.Ascent),
		}
		d.DrawString(string(r))

		scaled := image.NewAlpha(image.Rect(0, 0, cell, cell))
		draw.ApproxBiLinear.Scale(scaled, scaled.Rect, glyph, glyph.Rect, draw.Src, nil)
		masks[i] = scaled
	}
	c.cell, c.masks = cell, masks
	return masks
}

// applyASCII replaces the frame with accent-coloured characters on black, one
// per cell, picked by the cell's average brightness. The source pixels are
// discarded.
func (e *Engine) applyASCII(buf *image.RGBA, intensity int, ac accent.Color) {
	cell := ASCIICell(intensity)
	masks := e.glyphs.masksFor(cell)
	ink := image.NewUniform(color.RGBA{R: ac.R, G: ac.G, B: ac.B, A: 255})
	black := image.NewUniform(color.RGBA{A: 255})

	w, h := buf.Rect.Dx(), buf.Rect.Dy()
	for cy := 0; cy < h; cy += cell {
		for cx := 0; cx < w; cx += cell {
			r := image.Rect(cx, cy, min(w, cx+cell), min(h, cy+cell))
			level := cellBrightness(buf, r)

			idx := int(level / 256 * float64(len(asciiRamp)))
			idx = min(idx, len(asciiRamp)-1)

			draw.Draw(buf, r, black, image.Point{}, draw.Src)
			draw.DrawMask(buf, r, ink, image.Point{}, masks[idx], image.Point{}, draw.Over)
		}
	}
}

func cellBrightness(buf *image.RGBA, r image.Rectangle) float64 {
	var sum float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := y * buf.Stride
		for x := r.Min.X; x < r.Max.X; x++ {
			i := row + x*4
			sum += accent.Luma(float64(buf.Pix[i]), float64(buf.Pix[i+1]), float64(buf.Pix[i+2]))
		}
	}
	return sum / float64(r.Dx()*r.Dy())
}
