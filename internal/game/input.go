package game

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/iburimskiy/webcam-fx/internal/config"
	"github.com/iburimskiy/webcam-fx/internal/effects"
)

type action int

const (
	actNone action = iota
	actQuit
	actNextMode
	actPrevMode
	actIntensityUp
	actIntensityDown
	actBrightnessUp
	actBrightnessDown
	actContrastUp
	actContrastDown
	actResetTone
	actToggleTilt
	actToggleBlink
	actToggleFacing
	actSnapshot
	actPickColor
	actInvert
	actToggleOverlay
)

// repeating actions fire while the key is held
var bindings = []struct {
	key    ebiten.Key
	act    action
	repeat bool
}{
	{ebiten.KeyEscape, actQuit, false},
	{ebiten.KeyQ, actQuit, false},
	{ebiten.KeyArrowUp, actIntensityUp, true},
	{ebiten.KeyArrowDown, actIntensityDown, true},
	{ebiten.KeyArrowRight, actBrightnessUp, true},
	{ebiten.KeyArrowLeft, actBrightnessDown, true},
	{ebiten.KeyEqual, actContrastUp, true},
	{ebiten.KeyMinus, actContrastDown, true},
	{ebiten.KeyR, actResetTone, false},
	{ebiten.KeyT, actToggleTilt, false},
	{ebiten.KeyB, actToggleBlink, false},
	{ebiten.KeyF, actToggleFacing, false},
	{ebiten.KeyS, actSnapshot, false},
	{ebiten.KeyP, actPickColor, false},
	{ebiten.KeyI, actInvert, false},
	{ebiten.KeyH, actToggleOverlay, false},
}

var modeKeys = []ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
	ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8,
}

func pressed(key ebiten.Key, repeat bool) bool {
	if inpututil.IsKeyJustPressed(key) {
		return true
	}
	if !repeat {
		return false
	}
	// after a short delay, repeat every few ticks
	d := inpututil.KeyPressDuration(key)
	return d >= 20 && d%4 == 0
}

// handleInput applies this tick's key presses and reports whether the user
// asked to quit.
func (g *Game) handleInput() bool {
	modes := effects.Modes()
	for i, key := range modeKeys {
		if i < len(modes) && inpututil.IsKeyJustPressed(key) {
			g.selectMode(modes[i])
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			g.handle(actPrevMode)
		} else {
			g.handle(actNextMode)
		}
	}

	for _, b := range bindings {
		if pressed(b.key, b.repeat) && g.handle(b.act) {
			return true
		}
	}
	return false
}

func (g *Game) selectMode(m effects.Mode) {
	g.pipe.SetMode(m)
	g.setStatus("effect: " + m.String())
}

// handle performs one action and reports whether it ends the run.
func (g *Game) handle(a action) bool {
	s := g.pipe.Session()
	lm := g.pipe.Landmarks()

	switch a {
	case actQuit:
		return true
	case actNextMode:
		g.pipe.CycleMode(1)
		g.setStatus("effect: " + s.Mode.String())
	case actPrevMode:
		g.pipe.CycleMode(-1)
		g.setStatus("effect: " + s.Mode.String())
	case actIntensityUp:
		g.pipe.AdjustIntensity(config.IntensityStep)
	case actIntensityDown:
		g.pipe.AdjustIntensity(-config.IntensityStep)
	case actBrightnessUp:
		g.pipe.AdjustBrightness(config.ToneStep)
	case actBrightnessDown:
		g.pipe.AdjustBrightness(-config.ToneStep)
	case actContrastUp:
		g.pipe.AdjustContrast(config.ToneStep)
	case actContrastDown:
		g.pipe.AdjustContrast(-config.ToneStep)
	case actResetTone:
		g.pipe.ResetTone()
		g.setStatus("tone reset")
	case actToggleTilt:
		on := lm.SetHeadTilt(!lm.HeadTilt())
		g.featureStatus("head tilt", on)
	case actToggleBlink:
		on := lm.SetBlink(!lm.Blink())
		g.featureStatus("blink", on)
	case actToggleFacing:
		g.setStatus("facing: " + g.pipe.ToggleFacing().String())
	case actSnapshot:
		g.saveSnapshot()
	case actPickColor:
		g.pickColor()
	case actInvert:
		s.Accent.Invert()
	case actToggleOverlay:
		g.showOverlay = !g.showOverlay
	}
	return false
}

func (g *Game) featureStatus(name string, on bool) {
	if !on && !g.pipe.Landmarks().Available() {
		g.setStatus(name + " needs a landmark detector (--detector)")
		return
	}
	g.setStatus(fmt.Sprintf("%s %s", name, onOff(on)))
}
