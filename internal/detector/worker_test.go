package detector

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iburimskiy/webcam-fx/internal/landmark"
)

// MockCloser lets in-memory buffers stand in for the worker's pipes.
type MockCloser struct {
	*bytes.Buffer
}

func (m *MockCloser) Close() error { return nil }

func respond(t *testing.T, pipe io.Writer, body string) {
	t.Helper()
	require.NoError(t, binary.Write(pipe, binary.BigEndian, uint32(len(body))))
	_, err := io.WriteString(pipe, body)
	require.NoError(t, err)
}

func testFrame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(3, 3, color.RGBA{255, 0, 0, 255})
	return img
}

func TestDetectRoundTrip(t *testing.T) {
	stdin := &MockCloser{Buffer: new(bytes.Buffer)}
	data := &MockCloser{Buffer: new(bytes.Buffer)}
	respond(t, data, `{"landmarks":[[0.25,0.5],[0.75,0.5]]}`)

	w := &Worker{Stdin: stdin, DataPipe: data}
	f, err := w.Detect(context.Background(), testFrame())
	require.NoError(t, err)
	assert.Equal(t, landmark.Frame{{X: 0.25, Y: 0.5}, {X: 0.75, Y: 0.5}}, f)

	// what went to the worker is a length-prefixed JPEG of the frame
	sent := stdin.Bytes()
	require.Greater(t, len(sent), 4)
	n := binary.BigEndian.Uint32(sent[:4])
	assert.Equal(t, int(n), len(sent)-4)
	img, err := jpeg.Decode(bytes.NewReader(sent[4:]))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 8), img.Bounds())
}

func TestDetectNoFace(t *testing.T) {
	data := &MockCloser{Buffer: new(bytes.Buffer)}
	respond(t, data, `{"landmarks":[]}`)

	w := &Worker{Stdin: &MockCloser{Buffer: new(bytes.Buffer)}, DataPipe: data}
	f, err := w.Detect(context.Background(), testFrame())
	require.NoError(t, err)
	assert.Empty(t, f)
}

func TestDetectWorkerError(t *testing.T) {
	data := &MockCloser{Buffer: new(bytes.Buffer)}
	respond(t, data, `{"error":"model not loaded"}`)
	respond(t, data, `{"landmarks":[[0.1,0.2]]}`)

	w := &Worker{Stdin: &MockCloser{Buffer: new(bytes.Buffer)}, DataPipe: data}
	_, err := w.Detect(context.Background(), testFrame())
	require.Error(t, err)
	assert.Equal(t, "detector error: model not loaded", err.Error())
	assert.False(t, errors.Is(err, landmark.ErrUnavailable))

	// a reported error leaves the stream usable
	f, err := w.Detect(context.Background(), testFrame())
	require.NoError(t, err)
	assert.Len(t, f, 1)
}

func TestDetectBrokenPipe(t *testing.T) {
	// empty data pipe: the worker died before answering
	w := &Worker{
		Stdin:    &MockCloser{Buffer: new(bytes.Buffer)},
		DataPipe: &MockCloser{Buffer: new(bytes.Buffer)},
	}
	_, err := w.Detect(context.Background(), testFrame())
	assert.ErrorIs(t, err, landmark.ErrUnavailable)

	_, err = w.Detect(context.Background(), testFrame())
	assert.ErrorIs(t, err, landmark.ErrUnavailable)
}

func TestDetectTimeoutAbandonsWorker(t *testing.T) {
	r, pw := io.Pipe()
	defer pw.Close()
	w := &Worker{Stdin: &MockCloser{Buffer: new(bytes.Buffer)}, DataPipe: r}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := w.Detect(ctx, testFrame())
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = w.Detect(context.Background(), testFrame())
	assert.ErrorIs(t, err, landmark.ErrUnavailable)
}

func TestDecode(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)

	f, err := Decode([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, f)
}

func TestCommunicateRejectsHugeResponse(t *testing.T) {
	data := &MockCloser{Buffer: new(bytes.Buffer)}
	require.NoError(t, binary.Write(data, binary.BigEndian, uint32(maxResponse+1)))

	w := &Worker{Stdin: &MockCloser{Buffer: new(bytes.Buffer)}, DataPipe: data}
	_, err := w.Communicate([]byte{1})
	assert.Error(t, err)
}

func TestStartEmptyCommand(t *testing.T) {
	_, err := Start("   ")
	assert.Error(t, err)
}
