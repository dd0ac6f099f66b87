package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iburimskiy/webcam-fx/internal/config"
	"github.com/iburimskiy/webcam-fx/internal/cue"
	"github.com/iburimskiy/webcam-fx/internal/detector"
	"github.com/iburimskiy/webcam-fx/internal/game"
	"github.com/iburimskiy/webcam-fx/internal/landmark"
	"github.com/iburimskiy/webcam-fx/internal/pipeline"
)

// Version is the application version.
const Version = "0.1.0"

var opts = config.Defaults()

var rootCmd = &cobra.Command{
	Use:     "fxcam",
	Short:   "Real-time webcam effects viewer",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := opts.Validate(); err != nil {
			return err
		}
		opts.ApplyLogging()
		return nil
	},
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runViewer(cmd.Context(), opts)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.Mode, "mode", "m", opts.Mode, "Effect: none, glow, thermal, glitch, pixelate, edge, ascii, kaleidoscope")
	pf.IntVarP(&opts.Intensity, "intensity", "i", opts.Intensity, "Effect intensity (0-100)")
	pf.IntVar(&opts.Brightness, "brightness", opts.Brightness, "Brightness percent (0-200, 100 is neutral)")
	pf.IntVar(&opts.Contrast, "contrast", opts.Contrast, "Contrast percent (0-200, 100 is neutral)")
	pf.StringVarP(&opts.Accent, "accent", "a", opts.Accent, "Accent colour as #rrggbb")
	pf.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level (debug, info, warn, error)")

	f := rootCmd.Flags()
	f.StringVarP(&opts.Device, "device", "d", opts.Device, "Camera device path")
	f.StringVar(&opts.Facing, "facing", opts.Facing, "Camera facing: user (mirrored) or environment")
	f.IntVar(&opts.Width, "width", opts.Width, "Buffer width until a camera is attached")
	f.IntVar(&opts.Height, "height", opts.Height, "Buffer height until a camera is attached")
	f.BoolVar(&opts.NoCamera, "no-camera", opts.NoCamera, "Skip the camera and show the idle pattern")
	f.BoolVar(&opts.HeadTilt, "head-tilt", opts.HeadTilt, "Drive the accent hue from head tilt")
	f.BoolVar(&opts.Blink, "blink", opts.Blink, "Invert the accent colour on blink")
	f.StringVar(&opts.Detector, "detector", opts.Detector, "Landmark detector command, e.g. \"python3 -u face_mesh.py\"")
	f.BoolVar(&opts.Sound, "sound", opts.Sound, "Play audio cues")
}

// startDetector launches the landmark worker. Failure leaves face features
// unavailable rather than aborting the viewer.
func startDetector(command string) (*detector.Worker, landmark.Detector) {
	if command == "" {
		return nil, nil
	}
	w, err := detector.Start(command)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "startDetector",
			"command":  command,
			"error":    err.Error(),
		}).Warn("Landmark detector failed to start, face features unavailable")
		return nil, nil
	}
	return w, w
}

func runViewer(ctx context.Context, opts config.Options) error {
	session, err := pipeline.NewSession(opts)
	if err != nil {
		return err
	}

	worker, det := startDetector(opts.Detector)
	if worker != nil {
		defer worker.Close()
	}

	p := pipeline.New(session, det, uint64(time.Now().UnixNano()))
	defer p.Close()
	p.Landmarks().SetHeadTilt(opts.HeadTilt)
	p.Landmarks().SetBlink(opts.Blink)

	logrus.WithFields(logrus.Fields{
		"function":  "runViewer",
		"mode":      session.Mode.String(),
		"intensity": session.Intensity,
		"accent":    session.Accent.Hex(),
		"detector":  det != nil,
	}).Info("Starting viewer")

	return game.Run(ctx, opts, p, cue.New(opts.Sound))
}
