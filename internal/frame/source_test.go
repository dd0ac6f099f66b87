package frame

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stripe(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

func TestFillCopiesEnvironmentCamera(t *testing.T) {
	src := stripe(8, 4)
	dst := image.NewRGBA(image.Rect(0, 0, 8, 4))

	NewSource(1).Fill(dst, src, FacingEnvironment)
	assert.Equal(t, src.Pix, dst.Pix)
}

func TestFillMirrorsUserCamera(t *testing.T) {
	src := stripe(8, 4)
	dst := image.NewRGBA(image.Rect(0, 0, 8, 4))

	NewSource(1).Fill(dst, src, FacingUser)
	for y := range 4 {
		for x := range 8 {
			require.Equal(t, src.RGBAAt(7-x, y), dst.RGBAAt(x, y))
		}
	}
}

func TestFillHonoursSourceOffset(t *testing.T) {
	big := stripe(16, 8)
	sub := big.SubImage(image.Rect(4, 2, 12, 6))
	dst := image.NewRGBA(image.Rect(0, 0, 8, 4))

	NewSource(1).Fill(dst, sub, FacingEnvironment)
	assert.Equal(t, big.RGBAAt(4, 2), dst.RGBAAt(0, 0))
	assert.Equal(t, big.RGBAAt(11, 5), dst.RGBAAt(7, 3))
}

func TestFillRescalesMismatchedCamera(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 10, 20, 30, 255
	}
	dst := image.NewRGBA(image.Rect(0, 0, 16, 12))

	NewSource(1).Fill(dst, src, FacingEnvironment)
	for i := 0; i < len(dst.Pix); i += 4 {
		require.Equal(t, []uint8{10, 20, 30, 255}, dst.Pix[i:i+4])
	}
}

func TestMirrorTwiceIsIdentity(t *testing.T) {
	img := stripe(7, 3)
	want := append([]uint8(nil), img.Pix...)
	Mirror(img)
	assert.NotEqual(t, want, img.Pix)
	Mirror(img)
	assert.Equal(t, want, img.Pix)
}

func TestIdlePatternFillsAndAdvances(t *testing.T) {
	s := NewSource(42)
	dst := image.NewRGBA(image.Rect(0, 0, 64, 40))

	s.Fill(dst, nil, FacingUser)
	first := append([]uint8(nil), dst.Pix...)
	for i := 3; i < len(first); i += 4 {
		require.Equal(t, uint8(255), first[i])
	}
	assert.InDelta(t, 0.02, s.Elapsed(), 1e-9)

	s.Fill(dst, nil, FacingUser)
	assert.NotEqual(t, first, dst.Pix)
	assert.Greater(t, s.Elapsed(), 0.02)
}

func TestIdlePatternHandlesTinyBuffer(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 3, 2))
	assert.NotPanics(t, func() { NewSource(1).Fill(dst, nil, FacingUser) })
}

func TestParseFacing(t *testing.T) {
	assert.Equal(t, FacingEnvironment, ParseFacing("environment"))
	assert.Equal(t, FacingUser, ParseFacing("user"))
	assert.Equal(t, FacingUser, ParseFacing(""))
	assert.Equal(t, "environment", FacingEnvironment.String())
}
