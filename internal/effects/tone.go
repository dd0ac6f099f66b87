package effects

import "image"

// Tone holds brightness and contrast as percentages; 100 is neutral for both.
type Tone struct {
	Brightness int
	Contrast   int
}

// NeutralTone leaves the buffer untouched.
var NeutralTone = Tone{Brightness: 100, Contrast: 100}

// IsNeutral reports whether applying t would be a no-op.
func (t Tone) IsNeutral() bool {
	return t.Brightness == 100 && t.Contrast == 100
}

// contrastFactor maps the 0..200 contrast percentage onto the usual
// 259(c+255)/(255(259-c)) stretch around mid gray, with c in -255..255.
func contrastFactor(percent int) float64 {
	c := float64(percent-100) * 2.55
	return 259 * (c + 255) / (255 * (259 - c))
}

// ApplyTone rewrites R, G and B of every pixel: brightness scale first, then
// contrast around 128. Alpha is kept.
func ApplyTone(buf *image.RGBA, t Tone) {
	if t.IsNeutral() || buf == nil {
		return
	}

	// 256-entry lookup, the transform is per channel value
	var lut [256]uint8
	scale := float64(t.Brightness) / 100
	factor := contrastFactor(t.Contrast)
	for v := range lut {
		lut[v] = clamp8(factor*(float64(v)*scale-128) + 128)
	}

	pix := buf.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = lut[pix[i]]
		pix[i+1] = lut[pix[i+1]]
		pix[i+2] = lut[pix[i+2]]
	}
}
