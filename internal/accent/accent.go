// Package accent holds the single accent colour shared by the effects and the
// on-screen controls.
package accent

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"
)

// DefaultHex is used whenever a manual colour string cannot be parsed.
const DefaultHex = "#007AFF"

// Luma weights (ITU-R BT.601).
const (
	WeightR = 0.299
	WeightG = 0.587
	WeightB = 0.114
)

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}.RGBA()
}

// Luma returns the weighted luminance of r, g, b on the 0-255 scale.
func Luma(r, g, b float64) float64 {
	return WeightR*r + WeightG*g + WeightB*b
}

// Luminance returns the relative luminance of c normalized to [0,1].
func (c Color) Luminance() float64 {
	return Luma(float64(c.R), float64(c.G), float64(c.B)) / 255
}

var (
	darkLabel  = Color{R: 0, G: 0, B: 0}
	lightLabel = Color{R: 255, G: 255, B: 255}
)

// LabelFor picks a label colour that stays readable on top of c.
func LabelFor(c Color) Color {
	if c.Luminance() > 0.5 {
		return darkLabel
	}
	return lightLabel
}

// ParseHex parses "#RRGGBB". Malformed input yields the default colour and ok=false.
func ParseHex(s string) (Color, bool) {
	c, err := colorful.Hex(s)
	if err != nil {
		d, _ := colorful.Hex(DefaultHex)
		return fromColorful(d), false
	}
	return fromColorful(c), true
}

// FromHue converts a hue angle in degrees to a fully saturated colour at 50%
// lightness. Angles outside [0,360) wrap.
func FromHue(deg float64) Color {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	return fromColorful(colorful.Hsl(h, 1, 0.5))
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

// Controller owns the current accent colour and its derived label colour.
type Controller struct {
	current Color
	label   Color
}

// NewController starts from hex, falling back to DefaultHex.
func NewController(hex string) *Controller {
	c := &Controller{}
	c.SetHex(hex)
	return c
}

// Color returns the current accent colour.
func (c *Controller) Color() Color { return c.current }

// Label returns the contrasting label colour for the current accent.
func (c *Controller) Label() Color { return c.label }

// Hex formats the current accent as #rrggbb.
func (c *Controller) Hex() string {
	return colorful.Color{
		R: float64(c.current.R) / 255,
		G: float64(c.current.G) / 255,
		B: float64(c.current.B) / 255,
	}.Hex()
}

// Set replaces the accent colour.
func (c *Controller) Set(col Color) {
	c.current = col
	c.label = LabelFor(col)
}

// SetColor accepts any color.Color, e.g. the result of a colour picker.
func (c *Controller) SetColor(col color.Color) {
	cc, ok := colorful.MakeColor(col)
	if !ok {
		// fully transparent; keep the current accent
		return
	}
	c.Set(fromColorful(cc))
}

// SetHex parses s and applies it. It reports whether s was well formed.
func (c *Controller) SetHex(s string) bool {
	col, ok := ParseHex(s)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function": "Controller.SetHex",
			"input":    s,
			"fallback": DefaultHex,
		}).Warn("Malformed accent colour, using default")
	}
	c.Set(col)
	return ok
}

// SetHue applies a hue angle in degrees.
func (c *Controller) SetHue(deg float64) {
	c.Set(FromHue(deg))
}

// Invert replaces every channel with 255 minus itself.
func (c *Controller) Invert() {
	c.Set(Color{R: 255 - c.current.R, G: 255 - c.current.G, B: 255 - c.current.B})
}
