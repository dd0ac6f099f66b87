//go:build linux

package camera

import (
	"fmt"
	"strings"

	"github.com/blackjack/webcam"

	"github.com/iburimskiy/webcam-fx/internal/config"
)

type v4l2Device struct {
	cam       *webcam.Webcam
	streaming bool
}

func openPlatform(path string) (Device, error) {
	cam, err := webcam.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &v4l2Device{cam: cam}, nil
}

// Configure selects the YUYV format at the closest size the driver offers.
func (d *v4l2Device) Configure(width, height int) (int, int, error) {
	var (
		format webcam.PixelFormat
		found  bool
	)
	for f, name := range d.cam.GetSupportedFormats() {
		if strings.Contains(name, "YUYV") {
			format, found = f, true
			break
		}
	}
	if !found {
		return 0, 0, fmt.Errorf("no YUYV format: %w", ErrUnsatisfiable)
	}

	got, w, h, err := d.cam.SetImageFormat(format, uint32(width), uint32(height))
	if err != nil {
		return 0, 0, fmt.Errorf("set format %dx%d: %w", width, height, err)
	}
	if got != format {
		return 0, 0, fmt.Errorf("driver switched pixel format: %w", ErrUnsatisfiable)
	}
	return int(w), int(h), nil
}

func (d *v4l2Device) Start() error {
	if err := d.cam.StartStreaming(); err != nil {
		return fmt.Errorf("start streaming: %w", err)
	}
	d.streaming = true
	return nil
}

func (d *v4l2Device) Read() ([]byte, error) {
	err := d.cam.WaitForFrame(config.FrameWait)
	switch err.(type) {
	case nil:
	case *webcam.Timeout:
		return nil, nil
	default:
		return nil, fmt.Errorf("wait for frame: %w", err)
	}

	frame, err := d.cam.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	if len(frame) == 0 {
		return nil, nil
	}
	// the driver reuses its mmap buffer
	return append([]byte(nil), frame...), nil
}

func (d *v4l2Device) Close() error {
	if d.streaming {
		d.cam.StopStreaming()
		d.streaming = false
	}
	return d.cam.Close()
}
