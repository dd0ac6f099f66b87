package effects

import (
	"image"

	"golang.org/x/image/draw"
)

const (
	pixelMinBlock = 2
	pixelMaxBlock = 32
)

// PixelBlock returns the block edge in pixels for intensity k in [0,1].
func PixelBlock(k float64) int {
	return pixelMinBlock + int(float64(pixelMaxBlock-pixelMinBlock)*k)
}

// applyPixelate downsamples with nearest neighbour and scales back up without
// smoothing, leaving flat colour blocks.
func (e *Engine) applyPixelate(buf *image.RGBA, k float64) {
	block := PixelBlock(k)
	w, h := buf.Rect.Dx(), buf.Rect.Dy()
	sw := (w + block - 1) / block
	sh := (h + block - 1) / block

	if e.small == nil || e.small.Rect.Dx() != sw || e.small.Rect.Dy() != sh {
		e.small = image.NewRGBA(image.Rect(0, 0, sw, sh))
	}
	draw.NearestNeighbor.Scale(e.small, e.small.Rect, buf, buf.Rect, draw.Src, nil)

	// scale back up by whole blocks so every block is square
	for y := range h {
		sy := y / block
		row := y * buf.Stride
		srow := sy * e.small.Stride
		for x := range w {
			si := srow + (x/block)*4
			di := row + x*4
			copy(buf.Pix[di:di+4], e.small.Pix[si:si+4])
		}
	}
}
