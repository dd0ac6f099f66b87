package game

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/iburimskiy/webcam-fx/internal/config"
)

const (
	panelX      = 10
	panelY      = 10
	panelWidth  = 330
	lineHeight  = 16
	swatchSize  = 44
	graphBars   = 120
	graphHeight = 40
	// frame times at or above this fill the graph
	graphCeiling = 50 * time.Millisecond
)

var labelFace = text.NewGoXFace(basicfont.Face7x13)

// Draw renders the session buffer letterboxed into the window, then the
// overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	buf := g.pipe.Session().Buffer
	b := buf.Bounds()
	if g.frame == nil || g.frame.Bounds().Dx() != b.Dx() || g.frame.Bounds().Dy() != b.Dy() {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(b.Dx(), b.Dy())
	}
	g.frame.WritePixels(buf.Pix)

	scale, dx, dy := fitRect(b.Dx(), b.Dy(), config.WindowWidth, config.WindowHeight)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(dx, dy)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(g.frame, op)

	if g.showOverlay {
		g.drawOverlay(screen)
	}
}

func (g *Game) overlayLines() []string {
	s := g.pipe.Session()
	lm := g.pipe.Landmarks()
	tel := g.pipe.Telemetry()

	source := "idle"
	if g.pipe.Live() {
		source = "live"
	}
	detector := "none"
	if lm.Available() {
		detector = lm.State().String()
	}
	blink := onOff(lm.Blink())
	if lm.EyesClosed() {
		blink += " (closed)"
	}
	uptime := time.Duration(0)
	if !s.Started.IsZero() {
		uptime = g.now().Sub(s.Started)
	}

	lines := []string{
		fmt.Sprintf("effect: %s  intensity: %d", s.Mode, s.Intensity),
		fmt.Sprintf("brightness: %d  contrast: %d  facing: %s", s.Tone.Brightness, s.Tone.Contrast, s.Facing),
		fmt.Sprintf("tilt: %s  blink: %s  detector: %s", onOff(lm.HeadTilt()), blink, detector),
		fmt.Sprintf("fps: %.1f  frames: %d  up: %s  %s", tel.FPS(), tel.Total(), formatDuration(uptime), source),
	}
	if g.status != "" && g.now().Before(g.statusUntil) {
		lines = append(lines, g.status)
	}
	if g.lastErr != nil {
		lines = append(lines, "error: "+g.lastErr.Error())
	}
	return lines
}

func (g *Game) drawOverlay(screen *ebiten.Image) {
	lines := g.overlayLines()
	height := len(lines)*lineHeight + graphHeight + 16

	vector.DrawFilledRect(screen, panelX, panelY, panelWidth, float32(height), color.RGBA{R: 0, G: 0, B: 0, A: 160}, false)
	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, panelX+6, panelY+4+i*lineHeight)
	}
	g.drawFrameGraph(screen, panelX+6, float32(panelY+8+len(lines)*lineHeight))
	g.drawSwatch(screen)
}

// drawFrameGraph plots recent frame times as bars.
func (g *Game) drawFrameGraph(screen *ebiten.Image, x, y float32) {
	intervals := g.pipe.Telemetry().Intervals(graphBars)
	barWidth := float32(panelWidth-12) / graphBars

	vector.StrokeLine(screen, x, y+graphHeight, x+panelWidth-12, y+graphHeight, 1, color.RGBA{R: 100, G: 110, B: 130, A: 160}, false)
	for i, d := range intervals {
		h := float32(clamp01(float64(d)/float64(graphCeiling))) * graphHeight
		c := color.RGBA{R: 80, G: 200, B: 120, A: 220}
		if d > 20*time.Millisecond {
			c = color.RGBA{R: 230, G: 150, B: 40, A: 220}
		}
		vector.DrawFilledRect(screen, x+float32(i)*barWidth, y+graphHeight-h, barWidth, h, c, false)
	}
}

// drawSwatch shows the accent colour with its hex value in the label colour.
func (g *Game) drawSwatch(screen *ebiten.Image) {
	acc := g.pipe.Session().Accent
	x := float32(panelX + panelWidth + 8)

	vector.DrawFilledRect(screen, x, panelY, swatchSize*2, swatchSize, acc.Color(), false)
	vector.StrokeRect(screen, x, panelY, swatchSize*2, swatchSize, 1, color.White, false)

	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x)+6, panelY+swatchSize/2-6)
	op.ColorScale.ScaleWithColor(acc.Label())
	text.Draw(screen, acc.Hex(), labelFace, op)
}
