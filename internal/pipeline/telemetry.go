package pipeline

import (
	"time"

	"github.com/iburimskiy/webcam-fx/internal/config"
)

// Telemetry records frame timestamps into a ring buffer so the overlay can
// show the rolling frame rate and a history of recent frame times.
type Telemetry struct {
	buffer    []time.Time
	nextIndex int
	filled    bool

	total       uint64
	fps         float64
	windowStart time.Time
	windowCount int
}

func newTelemetry(ringSize int) *Telemetry {
	return &Telemetry{buffer: make([]time.Time, ringSize)}
}

// Record counts one frame at now. The FPS figure is refreshed once per
// window, not per frame.
func (t *Telemetry) Record(now time.Time) {
	t.buffer[t.nextIndex] = now
	t.nextIndex++
	if t.nextIndex >= len(t.buffer) {
		t.nextIndex = 0
		t.filled = true
	}
	t.total++

	if t.windowStart.IsZero() {
		t.windowStart = now
	}
	t.windowCount++
	if elapsed := now.Sub(t.windowStart); elapsed >= config.FPSWindow {
		t.fps = float64(t.windowCount) / elapsed.Seconds()
		t.windowStart = now
		t.windowCount = 0
	}
}

// FPS returns the frame rate measured over the last completed window.
func (t *Telemetry) FPS() float64 { return t.fps }

// Total returns the number of frames processed since start.
func (t *Telemetry) Total() uint64 { return t.total }

// Intervals returns up to the last n frame-to-frame durations, most recent last.
func (t *Telemetry) Intervals(n int) []time.Duration {
	size := t.nextIndex
	if t.filled {
		size = len(t.buffer)
	}
	if n > size-1 {
		n = size - 1
	}
	if n <= 0 {
		return nil
	}

	out := make([]time.Duration, 0, n)
	// Walk backwards from nextIndex - 1
	idx := t.nextIndex - 1
	if idx < 0 {
		idx = len(t.buffer) - 1
	}
	for i := 0; i < n; i++ {
		prev := idx - 1
		if prev < 0 {
			prev = len(t.buffer) - 1
		}
		out = append(out, t.buffer[idx].Sub(t.buffer[prev]))
		idx = prev
	}
	// reverse to chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
