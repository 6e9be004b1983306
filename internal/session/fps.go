package session

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

const fpsWindow = 30

// FPSMeter estimates the frame rate from the last few frame timestamps.
type FPSMeter struct {
	intervals []float64
	last      time.Time
}

// Tick records a frame at now.
func (m *FPSMeter) Tick(now time.Time) {
	if !m.last.IsZero() {
		if d := now.Sub(m.last); d > 0 {
			if len(m.intervals) == fpsWindow {
				m.intervals = m.intervals[1:]
			}
			m.intervals = append(m.intervals, d.Seconds())
		}
	}
	m.last = now
}

// FPS returns the current estimate, or 0 before two frames have arrived.
func (m *FPSMeter) FPS() float64 {
	if len(m.intervals) == 0 {
		return 0
	}
	mean := stat.Mean(m.intervals, nil)
	if mean <= 0 {
		return 0
	}
	return 1 / mean
}

// Reset forgets all frames.
func (m *FPSMeter) Reset() {
	m.intervals = nil
	m.last = time.Time{}
}
