package effects

import "image"

const (
	glitchMinBands   = 5
	glitchMaxBands   = 20
	glitchSkipChance = 0.3
	glitchMaxShift   = 0.15 // band displacement as a fraction of width
	glitchTearChance = 0.5
	glitchMaxTear    = 24 // red-channel tear in pixels at full intensity
)

// applyGlitch displaces random horizontal bands and, half of the time, tears
// the red channel sideways across every row. Only red is torn; green and blue
// keep their positions. The tear reads the already displaced bands.
func (e *Engine) applyGlitch(buf *image.RGBA, k float64) {
	if k == 0 {
		return
	}
	src := e.snapshot(buf)
	w, h := buf.Rect.Dx(), buf.Rect.Dy()

	bands := e.glitchBands(k)
	maxHeight := max(1, h/20)
	for range bands {
		// draws happen even for skipped bands so the sequence stays stable
		y := e.rng.IntN(h)
		bh := 1 + e.rng.IntN(maxHeight)
		shift := int((e.rng.Float64()*2 - 1) * glitchMaxShift * k * float64(w))
		if e.rng.Float64() < glitchSkipChance {
			continue
		}
		shiftRows(buf, src, y, min(h, y+bh), shift)
	}

	if e.rng.Float64() < glitchTearChance {
		if tear := int(glitchMaxTear * k); tear > 0 {
			tearRed(buf, buf, tear)
		}
	}
}

// glitchBands draws the band count for one frame, between glitchMinBands and
// glitchMinBands plus k times the remaining range.
func (e *Engine) glitchBands(k float64) int {
	return glitchMinBands + e.rng.IntN(int(float64(glitchMaxBands-glitchMinBands)*k)+1)
}

// shiftRows copies rows [y0,y1) of src into buf displaced by dx pixels.
// Pixels that would land outside the buffer are dropped.
func shiftRows(buf, src *image.RGBA, y0, y1, dx int) {
	w := buf.Rect.Dx()
	for y := y0; y < y1; y++ {
		row := y * buf.Stride
		from, to := 0, w
		if dx > 0 {
			to = w - dx
		} else {
			from = -dx
		}
		if from >= to {
			continue
		}
		copy(buf.Pix[row+(from+dx)*4:row+(to+dx)*4], src.Pix[row+from*4:row+to*4])
	}
}

// tearRed overwrites the red channel of every pixel with the red value found
// dx columns to the right. buf and src may be the same image.
func tearRed(buf, src *image.RGBA, dx int) {
	w, h := buf.Rect.Dx(), buf.Rect.Dy()
	for y := range h {
		row := y * buf.Stride
		for x := 0; x+dx < w; x++ {
			buf.Pix[row+x*4] = src.Pix[row+(x+dx)*4]
		}
	}
}
