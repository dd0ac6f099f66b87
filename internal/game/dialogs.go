package game

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/ncruces/zenity"
	"github.com/sirupsen/logrus"

	"github.com/iburimskiy/webcam-fx/internal/imageio"
)

// Dialogs asks the user for a file name or a colour. Both calls block and
// return zenity.ErrCanceled when dismissed.
type Dialogs interface {
	SaveSnapshot(suggested string) (string, error)
	PickColor(current color.Color) (color.Color, error)
}

type zenityDialogs struct{}

func (zenityDialogs) SaveSnapshot(suggested string) (string, error) {
	return zenity.SelectFileSave(
		zenity.Title("Save Snapshot"),
		zenity.Filename(suggested),
		zenity.ConfirmOverwrite(),
		zenity.FileFilters{{
			Name:     "PNG image",
			Patterns: []string{"*.png"},
		}},
	)
}

func (zenityDialogs) PickColor(current color.Color) (color.Color, error) {
	return zenity.SelectColor(
		zenity.Title("Accent Colour"),
		zenity.Color(current),
	)
}

type snapshotResult struct {
	path string
	err  error
}

func (r snapshotResult) apply(g *Game) {
	g.dialogOpen = false
	switch {
	case errors.Is(r.err, zenity.ErrCanceled):
		g.setStatus("snapshot cancelled")
	case r.err != nil:
		g.fail("snapshot failed", r.err)
	default:
		g.setStatus("saved " + r.path)
		g.cues.Shutter()
	}
}

type colorResult struct {
	color color.Color
	err   error
}

func (r colorResult) apply(g *Game) {
	g.dialogOpen = false
	switch {
	case errors.Is(r.err, zenity.ErrCanceled):
	case r.err != nil:
		g.fail("colour picker failed", r.err)
	default:
		acc := g.pipe.Session().Accent
		acc.SetColor(r.color)
		g.setStatus("accent " + acc.Hex())
	}
}

// saveSnapshot freezes the current buffer, then asks for a path and writes
// the PNG off the loop.
func (g *Game) saveSnapshot() {
	if g.dialogOpen {
		return
	}
	g.dialogOpen = true
	img := g.pipe.Snapshot()
	name := fmt.Sprintf("fxcam-%s-%s.png", g.pipe.Session().Mode, g.now().Format("20060102-150405"))

	go func() {
		path, err := g.dialogs.SaveSnapshot(name)
		if err == nil {
			err = writePNG(path, img)
		}
		g.post(snapshotResult{path: path, err: err})
	}()
}

func (g *Game) pickColor() {
	if g.dialogOpen {
		return
	}
	g.dialogOpen = true
	current := g.pipe.Session().Accent.Color()

	go func() {
		c, err := g.dialogs.PickColor(current)
		g.post(colorResult{color: c, err: err})
	}()
}

func writePNG(path string, img image.Image) error {
	start := time.Now()
	if err := imageio.WritePNG(path, img); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"function": "writePNG",
		"path":     path,
		"bounds":   img.Bounds().String(),
		"took":     time.Since(start).String(),
	}).Info("Snapshot written")
	return nil
}
