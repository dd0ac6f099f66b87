package effects

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iburimskiy/webcam-fx/internal/accent"
)

var testAccent = accent.Color{R: 0, G: 122, B: 255}

// createTestFrame returns a buffer with a diagonal colour gradient.
func createTestFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / max(1, w-1)),
				G: uint8(y * 255 / max(1, h-1)),
				B: uint8((x + y) * 255 / max(1, w+h-2)),
				A: 255,
			})
		}
	}
	return img
}

func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func clone(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	return out
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"none", ModeNone},
		{"glow", ModeGlow},
		{"Aura", ModeGlow},
		{"thermal", ModeThermal},
		{"glitch", ModeGlitch},
		{"pixelate", ModePixelate},
		{"edge", ModeEdge},
		{"edge-detect", ModeEdge},
		{"ASCII", ModeASCII},
		{" kaleidoscope ", ModeKaleidoscope},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseMode("sepia")
	assert.Error(t, err)
}

func TestModeCycle(t *testing.T) {
	assert.Len(t, Modes(), 8)
	assert.Equal(t, ModeGlow, ModeNone.Next())
	assert.Equal(t, ModeNone, ModeKaleidoscope.Next())
	assert.Equal(t, ModeKaleidoscope, ModeNone.Prev())
	assert.Equal(t, "thermal", ModeThermal.String())
	assert.Equal(t, "Mode(42)", Mode(42).String())
}

func TestZeroIntensityIsIdentity(t *testing.T) {
	for _, mode := range []Mode{ModeNone, ModeGlow, ModeThermal, ModeEdge, ModeGlitch} {
		t.Run(mode.String(), func(t *testing.T) {
			frame := createTestFrame(64, 48)
			want := clone(frame)

			NewEngine(1).Apply(frame, mode, 0, testAccent)
			assert.Equal(t, want.Pix, frame.Pix)
		})
	}
}

func TestStructuralModesChangeAtZeroIntensity(t *testing.T) {
	for _, mode := range []Mode{ModePixelate, ModeASCII, ModeKaleidoscope} {
		t.Run(mode.String(), func(t *testing.T) {
			frame := createTestFrame(64, 48)
			orig := clone(frame)

			NewEngine(1).Apply(frame, mode, 0, testAccent)
			assert.NotEqual(t, orig.Pix, frame.Pix)
		})
	}
}

func TestApplyClampsIntensity(t *testing.T) {
	a := createTestFrame(32, 32)
	b := clone(a)
	NewEngine(7).Apply(a, ModeThermal, 250, testAccent)
	NewEngine(7).Apply(b, ModeThermal, 100, testAccent)
	assert.Equal(t, b.Pix, a.Pix)
}

func TestGlowBrightensWithIntensity(t *testing.T) {
	sum := func(img *image.RGBA) int {
		s := 0
		for i := 0; i < len(img.Pix); i += 4 {
			s += int(img.Pix[i]) + int(img.Pix[i+1]) + int(img.Pix[i+2])
		}
		return s
	}

	base := createTestFrame(32, 32)
	low, high := clone(base), clone(base)
	NewEngine(1).Apply(low, ModeGlow, 30, accent.Color{R: 255, G: 255, B: 255})
	NewEngine(1).Apply(high, ModeGlow, 90, accent.Color{R: 255, G: 255, B: 255})

	assert.Greater(t, sum(low), sum(base))
	assert.Greater(t, sum(high), sum(low))
}

func TestThermalRampContinuity(t *testing.T) {
	const eps = 1e-9
	for _, edge := range []float64{0.25, 0.5, 0.75} {
		r0, g0, b0 := ThermalRamp(edge - eps)
		r1, g1, b1 := ThermalRamp(edge)
		assert.InDelta(t, r0, r1, 1e-5, "red at %v", edge)
		assert.InDelta(t, g0, g1, 1e-5, "green at %v", edge)
		assert.InDelta(t, b0, b1, 1e-5, "blue at %v", edge)
	}

	r, g, b := ThermalRamp(0)
	assert.Equal(t, [3]float64{0, 0, 255}, [3]float64{r, g, b})
	r, g, b = ThermalRamp(1)
	assert.Equal(t, [3]float64{255, 0, 0}, [3]float64{r, g, b})
}

func TestThermalRampBandsAreMonotonic(t *testing.T) {
	// each band moves exactly one channel in one direction
	prevR, prevG, prevB := ThermalRamp(0)
	for i := 1; i <= 1000; i++ {
		r, g, b := ThermalRamp(float64(i) / 1000)
		pos := float64(i) / 1000
		switch {
		case pos <= 0.25:
			assert.GreaterOrEqual(t, g, prevG)
		case pos <= 0.5:
			assert.LessOrEqual(t, b, prevB)
		case pos <= 0.75:
			assert.GreaterOrEqual(t, r, prevR)
		default:
			assert.LessOrEqual(t, g, prevG)
		}
		prevR, prevG, prevB = r, g, b
	}
}

func TestThermalFullIntensityUsesRamp(t *testing.T) {
	frame := solidFrame(4, 4, color.RGBA{R: 0, G: 0, B: 0, A: 255})
	NewEngine(1).Apply(frame, ModeThermal, 100, testAccent)
	assert.Equal(t, []uint8{0, 0, 255, 255}, frame.Pix[:4])
}

func TestGlitchKeepsAlphaAndChangesFrame(t *testing.T) {
	frame := createTestFrame(64, 64)
	orig := clone(frame)

	NewEngine(3).Apply(frame, ModeGlitch, 100, testAccent)

	assert.NotEqual(t, orig.Pix, frame.Pix)
	for i := 3; i < len(frame.Pix); i += 4 {
		require.Equal(t, uint8(255), frame.Pix[i])
	}
}

func TestGlitchIsDeterministicPerSeed(t *testing.T) {
	a := createTestFrame(64, 64)
	b := clone(a)
	NewEngine(99).Apply(a, ModeGlitch, 80, testAccent)
	NewEngine(99).Apply(b, ModeGlitch, 80, testAccent)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestGlitchBandCountVaries(t *testing.T) {
	e := NewEngine(42)
	seen := map[int]bool{}
	for range 200 {
		n := e.glitchBands(1)
		require.GreaterOrEqual(t, n, glitchMinBands)
		require.LessOrEqual(t, n, glitchMaxBands)
		seen[n] = true
	}
	assert.Greater(t, len(seen), 1)

	for range 50 {
		n := e.glitchBands(0.2)
		require.GreaterOrEqual(t, n, glitchMinBands)
		require.LessOrEqual(t, n, glitchMinBands+3)
	}
}

func TestTearRedInPlaceReadsShiftedBands(t *testing.T) {
	frame := createTestFrame(16, 4)
	src := clone(frame)
	shiftRows(frame, src, 1, 3, 4)

	banded := clone(frame)
	want := clone(frame)
	tearRed(want, banded, 3)

	tearRed(frame, frame, 3)
	assert.Equal(t, want.Pix, frame.Pix)
}

func TestTearRedOnlyTouchesRed(t *testing.T) {
	frame := createTestFrame(16, 4)
	src := clone(frame)
	tearRed(frame, src, 3)

	for y := range 4 {
		for x := range 16 {
			i := y*frame.Stride + x*4
			if x+3 < 16 {
				assert.Equal(t, src.Pix[i+12], frame.Pix[i])
			} else {
				assert.Equal(t, src.Pix[i], frame.Pix[i])
			}
			assert.Equal(t, src.Pix[i+1], frame.Pix[i+1])
			assert.Equal(t, src.Pix[i+2], frame.Pix[i+2])
		}
	}
}

func TestShiftRowsClipsAtEdges(t *testing.T) {
	frame := createTestFrame(8, 2)
	src := clone(frame)
	shiftRows(frame, src, 0, 1, 2)

	// row 0 moved right by two, first two pixels untouched
	assert.Equal(t, src.Pix[0:8], frame.Pix[0:8])
	assert.Equal(t, src.Pix[0:24], frame.Pix[8:32])
	// row 1 untouched
	assert.Equal(t, src.Pix[32:], frame.Pix[32:])

	shiftRows(frame, src, 1, 2, -100)
	assert.Equal(t, src.Pix[32:], frame.Pix[32:])
}

func TestPixelateProducesFlatBlocks(t *testing.T) {
	for _, intensity := range []int{0, 50, 100} {
		frame := createTestFrame(70, 50)
		NewEngine(1).Apply(frame, ModePixelate, intensity, testAccent)

		block := PixelBlock(float64(intensity) / 100)
		for y := range 50 {
			for x := range 70 {
				origin := frame.RGBAAt(x-x%block, y-y%block)
				require.Equal(t, origin, frame.RGBAAt(x, y), "intensity %d at %d,%d", intensity, x, y)
			}
		}
	}
	assert.Equal(t, 2, PixelBlock(0))
	assert.Equal(t, 32, PixelBlock(1))
}

func TestEdgeOnUniformFrame(t *testing.T) {
	frame := solidFrame(10, 10, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	NewEngine(1).Apply(frame, ModeEdge, 100, testAccent)

	for y := range 10 {
		for x := range 10 {
			got := frame.RGBAAt(x, y)
			if x == 0 || y == 0 || x == 9 || y == 9 {
				assert.Equal(t, color.RGBA{R: 200, G: 100, B: 50, A: 255}, got)
			} else {
				assert.Equal(t, color.RGBA{A: 255}, got)
			}
		}
	}
}

func TestEdgeHighlightsStep(t *testing.T) {
	frame := solidFrame(10, 10, color.RGBA{A: 255})
	for y := range 10 {
		for x := 5; x < 10; x++ {
			frame.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	NewEngine(1).Apply(frame, ModeEdge, 100, accent.Color{G: 255})

	// the step sits between columns 4 and 5
	assert.Equal(t, uint8(255), frame.RGBAAt(4, 5).G)
	assert.Equal(t, uint8(0), frame.RGBAAt(4, 5).R)
	assert.Equal(t, uint8(0), frame.RGBAAt(2, 5).G)
}

func TestASCIICellSize(t *testing.T) {
	assert.Equal(t, 16, ASCIICell(0))
	assert.Equal(t, 11, ASCIICell(50))
	assert.Equal(t, 6, ASCIICell(100))
	assert.Equal(t, 4, ASCIICell(200))
}

func TestASCIIRendersAccentOnBlack(t *testing.T) {
	dark := solidFrame(48, 48, color.RGBA{A: 255})
	NewEngine(1).Apply(dark, ModeASCII, 0, accent.Color{G: 255})
	for i := 0; i < len(dark.Pix); i += 4 {
		require.Equal(t, []uint8{0, 0, 0, 255}, dark.Pix[i:i+4])
	}

	bright := solidFrame(48, 48, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	NewEngine(1).Apply(bright, ModeASCII, 0, accent.Color{G: 255})
	inked := 0
	for i := 0; i < len(bright.Pix); i += 4 {
		require.Equal(t, uint8(0), bright.Pix[i])
		require.Equal(t, uint8(0), bright.Pix[i+2])
		if bright.Pix[i+1] > 0 {
			inked++
		}
	}
	assert.Greater(t, inked, 0)
	assert.Less(t, inked, 48*48)
}

func TestKaleidoscopeIdempotentOnSolid(t *testing.T) {
	// every intensity that yields four wedges
	for intensity := 0; Wedges(float64(intensity)/100) == 4; intensity++ {
		frame := solidFrame(40, 30, color.RGBA{R: 90, G: 140, B: 30, A: 255})
		want := clone(frame)

		e := NewEngine(1)
		e.Apply(frame, ModeKaleidoscope, intensity, testAccent)
		e.Apply(frame, ModeKaleidoscope, intensity, testAccent)
		require.Equal(t, want.Pix, frame.Pix, "intensity %d", intensity)
	}
	assert.Equal(t, 4, Wedges(0.08))
}

func TestKaleidoscopeOverlayGrowsWithWedges(t *testing.T) {
	assert.Zero(t, overlayAlpha(4))
	assert.InDelta(t, 0.15, overlayAlpha(10), 1e-9)
	assert.InDelta(t, kaleidoOverlay, overlayAlpha(16), 1e-9)

	frame := solidFrame(40, 30, color.RGBA{R: 90, G: 140, B: 30, A: 255})
	NewEngine(1).Apply(frame, ModeKaleidoscope, 100, testAccent)
	assert.NotEqual(t, color.RGBA{R: 90, G: 140, B: 30, A: 255}, frame.RGBAAt(20, 15))
}

func TestKaleidoscopeKeepsReferenceWedge(t *testing.T) {
	frame := createTestFrame(40, 40)
	orig := clone(frame)
	NewEngine(1).Apply(frame, ModeKaleidoscope, 0, testAccent)

	// a pixel just below-right of centre lies in wedge 0 and maps to itself
	assert.Equal(t, orig.RGBAAt(30, 22), frame.RGBAAt(30, 22))
	assert.Equal(t, 16, Wedges(1))
}

func TestOverlayBlend(t *testing.T) {
	assert.InDelta(t, 0.0, overlay(0, 200), 1e-9)
	assert.InDelta(t, 255.0, overlay(255, 10), 1e-9)
	assert.InDelta(t, 2*100*50/255.0, overlay(100, 50), 1e-9)
}

func BenchmarkEngineModes(b *testing.B) {
	for _, mode := range Modes() {
		b.Run(mode.String(), func(b *testing.B) {
			e := NewEngine(1)
			frame := createTestFrame(640, 480)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				e.Apply(frame, mode, 60, testAccent)
			}
		})
	}
}
