// Package effects implements the per-frame pixel transforms: tone correction
// and the selectable effect modes.
//
// Every transform works in place on an *image.RGBA whose bounds start at the
// origin. Transforms never fail on well-formed buffers.
package effects

import (
	"fmt"
	"image"
	"math/rand/v2"
	"strings"

	"github.com/iburimskiy/webcam-fx/internal/accent"
)

// Mode selects the active effect.
type Mode int

const (
	ModeNone Mode = iota
	ModeGlow
	ModeThermal
	ModeGlitch
	ModePixelate
	ModeEdge
	ModeASCII
	ModeKaleidoscope

	modeCount
)

var modeNames = [modeCount]string{
	ModeNone:         "none",
	ModeGlow:         "glow",
	ModeThermal:      "thermal",
	ModeGlitch:       "glitch",
	ModePixelate:     "pixelate",
	ModeEdge:         "edge",
	ModeASCII:        "ascii",
	ModeKaleidoscope: "kaleidoscope",
}

func (m Mode) String() string {
	if m < 0 || m >= modeCount {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Next cycles forward through the modes.
func (m Mode) Next() Mode { return (m + 1) % modeCount }

// Prev cycles backward through the modes.
func (m Mode) Prev() Mode { return (m + modeCount - 1) % modeCount }

// Modes lists every mode in display order.
func Modes() []Mode {
	out := make([]Mode, 0, modeCount)
	for m := ModeNone; m < modeCount; m++ {
		out = append(out, m)
	}
	return out
}

// ParseMode maps a mode name (case-insensitive, "aura" and "edge-detect"
// accepted as aliases) to a Mode.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "aura":
		return ModeGlow, nil
	case "edge-detect", "edges":
		return ModeEdge, nil
	}
	for m, n := range modeNames {
		if n == name {
			return Mode(m), nil
		}
	}
	return ModeNone, fmt.Errorf("unknown effect mode %q", s)
}

// Engine applies the active effect. It owns the scratch buffers and the random
// source so repeated frames do not allocate.
type Engine struct {
	rng     *rand.Rand
	scratch *image.RGBA
	small   *image.RGBA
	gray    []float64
	glyphs  glyphCache
	kaleido kaleidoMap
}

// NewEngine creates an engine whose random effects are driven by seed.
func NewEngine(seed uint64) *Engine {
	return &Engine{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Apply runs mode over buf in place. intensity is clamped to 0..100.
func (e *Engine) Apply(buf *image.RGBA, mode Mode, intensity int, ac accent.Color) {
	if buf == nil || buf.Rect.Empty() {
		return
	}
	k := float64(clampPercent(intensity)) / 100

	switch mode {
	case ModeNone:
	case ModeGlow:
		applyGlow(buf, k, ac)
	case ModeThermal:
		applyThermal(buf, k)
	case ModeGlitch:
		e.applyGlitch(buf, k)
	case ModePixelate:
		e.applyPixelate(buf, k)
	case ModeEdge:
		e.applyEdge(buf, k, ac)
	case ModeASCII:
		e.applyASCII(buf, clampPercent(intensity), ac)
	case ModeKaleidoscope:
		e.applyKaleidoscope(buf, k, ac)
	}
}

// snapshot copies buf into the engine's scratch buffer, reallocating only when
// the size changes.
func (e *Engine) snapshot(buf *image.RGBA) *image.RGBA {
	if e.scratch == nil || e.scratch.Rect != buf.Rect {
		e.scratch = image.NewRGBA(buf.Rect)
	}
	copy(e.scratch.Pix, buf.Pix)
	return e.scratch
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// clamp8 rounds v to the nearest integer and clamps it to 0..255.
func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
