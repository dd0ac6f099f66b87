package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iburimskiy/webcam-fx/internal/config"
	"github.com/iburimskiy/webcam-fx/internal/effects"
	"github.com/iburimskiy/webcam-fx/internal/imageio"
	"github.com/iburimskiy/webcam-fx/internal/pipeline"
)

var renderOut string

var renderCmd = &cobra.Command{
	Use:   "render [flags] IMAGE...",
	Short: "Apply tone and an effect to still images",
	Long: `Render runs the tone adjustment and effect over PNG or JPEG files and writes
<name>.<mode>.png next to each input (or into --out). Use --mode all to render
every effect.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modes, err := renderModes(opts.Mode)
		if err != nil {
			return err
		}
		_, err = renderStills(opts, modes, args, renderOut, os.Stderr)
		return err
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output directory (default: next to each input)")
	rootCmd.AddCommand(renderCmd)
}

// renderModes expands "all" into every mode.
func renderModes(name string) ([]effects.Mode, error) {
	if strings.EqualFold(name, "all") {
		return effects.Modes(), nil
	}
	m, err := effects.ParseMode(name)
	if err != nil {
		return nil, err
	}
	return []effects.Mode{m}, nil
}

// renderStills writes one output per input and mode and returns how many
// were written. Unreadable inputs are logged and skipped; the returned error
// reports how many failed.
func renderStills(opts config.Options, modes []effects.Mode, inputs []string, outDir string, progress io.Writer) (int, error) {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return 0, fmt.Errorf("create output directory: %w", err)
		}
	}

	opts.Mode = effects.ModeNone.String()
	session, err := pipeline.NewSession(opts)
	if err != nil {
		return 0, err
	}
	p := pipeline.New(session, nil, uint64(time.Now().UnixNano()))
	defer p.Close()

	bar := progressbar.NewOptions(len(inputs)*len(modes),
		progressbar.OptionSetDescription("Rendering"),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionShowCount(),
	)

	written, failed := 0, 0
	for _, in := range inputs {
		if !imageio.Supported(in) {
			logrus.WithFields(logrus.Fields{
				"function": "renderStills",
				"input":    in,
			}).Warn("Skipping unsupported file type")
			failed += len(modes)
			bar.Add(len(modes))
			continue
		}
		img, err := imageio.Load(in)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "renderStills",
				"input":    in,
				"error":    err.Error(),
			}).Error("Failed to load image")
			failed += len(modes)
			bar.Add(len(modes))
			continue
		}

		for _, m := range modes {
			p.SetMode(m)
			out := imageio.OutputName(in, outDir, m.String())
			if err := imageio.WritePNG(out, p.RenderStill(img)); err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "renderStills",
					"output":   out,
					"error":    err.Error(),
				}).Error("Failed to write image")
				failed++
			} else {
				written++
			}
			bar.Add(1)
		}
	}
	bar.Finish()
	fmt.Fprintln(progress)

	if failed > 0 {
		return written, fmt.Errorf("%d of %d renders failed", failed, len(inputs)*len(modes))
	}
	return written, nil
}
