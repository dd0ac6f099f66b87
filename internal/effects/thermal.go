package effects

import "image"

// ThermalRamp maps t in [0,1] onto a heat colour in four linear bands:
// blue to cyan, cyan to green, green to yellow, yellow to red.
// Values outside [0,1] are clamped.
func ThermalRamp(t float64) (r, g, b float64) {
	switch {
	case t <= 0:
		return 0, 0, 255
	case t >= 1:
		return 255, 0, 0
	case t < 0.25:
		return 0, 255 * (t / 0.25), 255
	case t < 0.5:
		return 0, 255, 255 * (1 - (t-0.25)/0.25)
	case t < 0.75:
		return 255 * ((t - 0.5) / 0.25), 255, 0
	default:
		return 255, 255 * (1 - (t-0.75)/0.25), 0
	}
}

// applyThermal replaces each pixel's colour with its heat colour, blended with
// the original by k.
func applyThermal(buf *image.RGBA, k float64) {
	if k == 0 {
		return
	}

	// one ramp lookup per gray level
	var lut [256][3]float64
	for v := range lut {
		r, g, b := ThermalRamp(float64(v) / 255)
		lut[v] = [3]float64{r, g, b}
	}

	pix := buf.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		gray := (int(pix[i]) + int(pix[i+1]) + int(pix[i+2])) / 3
		heat := lut[gray]
		pix[i] = clamp8(float64(pix[i])*(1-k) + heat[0]*k)
		pix[i+1] = clamp8(float64(pix[i+1])*(1-k) + heat[1]*k)
		pix[i+2] = clamp8(float64(pix[i+2])*(1-k) + heat[2]*k)
	}
}
