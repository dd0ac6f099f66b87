// Package cue plays short synthesized sounds for viewer events.
package cue

import (
	"math"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"
)

const (
	sampleRate = beep.SampleRate(44100)
	gain       = 0.25
	// fade keeps tone edges from clicking
	fade = 5 * time.Millisecond
)

// Player is a cue sink. The zero value is silent.
type Player struct {
	play func(beep.Streamer)
}

// New initializes the speaker. When enabled is false or audio cannot be
// opened, the returned Player stays silent.
func New(enabled bool) *Player {
	if !enabled {
		return &Player{}
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/20)); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "cue.New",
			"error":    err.Error(),
		}).Warn("Audio output unavailable, cues disabled")
		return &Player{}
	}
	return &Player{play: func(s beep.Streamer) { speaker.Play(s) }}
}

// Enabled reports whether cues are audible.
func (p *Player) Enabled() bool { return p.play != nil }

// Blink is the cue for a blink-driven accent inversion.
func (p *Player) Blink() {
	p.emit(Tone(sampleRate, 880, 60*time.Millisecond))
}

// Shutter is the cue for a written snapshot: two descending notes.
func (p *Player) Shutter() {
	p.emit(beep.Seq(
		Tone(sampleRate, 1320, 40*time.Millisecond),
		beep.Silence(sampleRate.N(15*time.Millisecond)),
		Tone(sampleRate, 660, 60*time.Millisecond),
	))
}

// Fail is the cue for a failed operation.
func (p *Player) Fail() {
	p.emit(Tone(sampleRate, 220, 150*time.Millisecond))
}

func (p *Player) emit(s beep.Streamer) {
	if p.play == nil {
		return
	}
	p.play(s)
}

// Tone returns a sine wave of freq Hz lasting d, with short linear fades at
// both ends.
func Tone(rate beep.SampleRate, freq float64, d time.Duration) beep.Streamer {
	total := rate.N(d)
	ramp := rate.N(fade)
	if ramp*2 > total {
		ramp = total / 2
	}
	step := 2 * math.Pi * freq / float64(rate)
	pos := 0

	sine := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			env := 1.0
			if ramp > 0 {
				switch {
				case pos < ramp:
					env = float64(pos) / float64(ramp)
				case pos >= total-ramp:
					env = float64(total-pos) / float64(ramp)
				}
			}
			v := gain * env * math.Sin(step*float64(pos))
			samples[i] = [2]float64{v, v}
			pos++
		}
		return len(samples), true
	})
	return beep.Take(total, sine)
}
