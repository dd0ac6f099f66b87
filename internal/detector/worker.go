// Package detector runs an external face-landmark process and speaks a
// length-prefixed protocol with it.
//
// Requests are [u32 big-endian length][JPEG bytes] written to the worker's
// stdin. Responses are [u32 big-endian length][JSON] read from file
// descriptor 3, either {"landmarks":[[x,y],...]} with coordinates normalized
// to 0..1, or {"error":"..."}.
package detector

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/iburimskiy/webcam-fx/internal/landmark"
)

// maxResponse bounds a single reply so a corrupt header cannot exhaust memory.
const maxResponse = 1 << 20

const jpegQuality = 80

type response struct {
	Landmarks [][2]float64 `json:"landmarks"`
	Error     string       `json:"error"`
}

// Worker is a running detector process. A Worker serves one request at a
// time; the landmark adapter guarantees that.
type Worker struct {
	Cmd      *exec.Cmd
	Stderr   *bytes.Buffer
	Stdin    io.WriteCloser
	DataPipe io.ReadCloser

	dead atomic.Bool
	buf  bytes.Buffer
}

// Start launches command (split on whitespace) with a side-channel pipe on
// FD 3 for responses. Worker logs written to stderr are kept for diagnostics.
func Start(command string) (*Worker, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("empty detector command")
	}

	cmd := exec.Command(args[0], args[1:]...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	cmd.ExtraFiles = []*os.File{w}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("detector %q failed to start: %w", args[0], err)
	}
	w.Close()

	logrus.WithFields(logrus.Fields{
		"function": "detector.Start",
		"command":  command,
		"pid":      cmd.Process.Pid,
	}).Info("Landmark detector started")

	return &Worker{Cmd: cmd, Stderr: stderr, Stdin: stdin, DataPipe: r}, nil
}

// Detect encodes img as JPEG, sends it to the worker and decodes the
// landmarks it returns. Once the stream breaks or a request is abandoned the
// worker is unusable and every later call fails with landmark.ErrUnavailable.
func (w *Worker) Detect(ctx context.Context, img image.Image) (landmark.Frame, error) {
	if w.dead.Load() {
		return nil, landmark.ErrUnavailable
	}

	w.buf.Reset()
	if err := jpeg.Encode(&w.buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	payload := w.buf.Bytes()

	type reply struct {
		body []byte
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		body, err := w.Communicate(payload)
		done <- reply{body, err}
	}()

	var rep reply
	select {
	case rep = <-done:
	case <-ctx.Done():
		// the reply will still arrive on the pipe, so the stream is out of step
		w.dead.Store(true)
		return nil, fmt.Errorf("detector request abandoned: %w", ctx.Err())
	}
	if rep.err != nil {
		w.dead.Store(true)
		return nil, fmt.Errorf("%w: %v", landmark.ErrUnavailable, rep.err)
	}
	return Decode(rep.body)
}

// Communicate performs one raw request/response exchange.
func (w *Worker) Communicate(data []byte) ([]byte, error) {
	if err := binary.Write(w.Stdin, binary.BigEndian, uint32(len(data))); err != nil {
		return nil, err
	}
	if _, err := w.Stdin.Write(data); err != nil {
		return nil, err
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(w.DataPipe, header); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header)
	if n > maxResponse {
		return nil, fmt.Errorf("response of %d bytes exceeds limit", n)
	}
	body := make([]byte, n)
	_, err := io.ReadFull(w.DataPipe, body)
	return body, err
}

// Decode parses one JSON response body.
func Decode(body []byte) (landmark.Frame, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("detector error: %s", resp.Error)
	}
	f := make(landmark.Frame, len(resp.Landmarks))
	for i, p := range resp.Landmarks {
		f[i] = landmark.Point{X: p[0], Y: p[1]}
	}
	return f, nil
}

// Close shuts the worker down and logs anything it wrote to stderr.
func (w *Worker) Close() error {
	w.dead.Store(true)
	w.Stdin.Close()
	w.DataPipe.Close()
	if w.Cmd == nil {
		return nil
	}

	err := w.Cmd.Wait()
	if w.Stderr != nil && w.Stderr.Len() > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "Worker.Close",
			"stderr":   strings.TrimSpace(w.Stderr.String()),
		}).Debug("Landmark detector output")
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// closing stdin is how we ask the worker to stop
		return nil
	}
	return err
}
