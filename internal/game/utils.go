package game

import (
	"fmt"
	"time"
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// formatDuration formats a duration as MM:SS
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// fitRect returns the scale and offset that letterbox a w×h image inside a
// bw×bh box.
func fitRect(w, h, bw, bh int) (scale, dx, dy float64) {
	if w <= 0 || h <= 0 {
		return 1, 0, 0
	}
	sx := float64(bw) / float64(w)
	sy := float64(bh) / float64(h)
	scale = min(sx, sy)
	dx = (float64(bw) - float64(w)*scale) / 2
	dy = (float64(bh) - float64(h)*scale) / 2
	return scale, dx, dy
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
