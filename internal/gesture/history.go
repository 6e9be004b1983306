package gesture

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Smoothing parameters.
const (
	// HistorySize is the number of recent base confidences kept per letter.
	HistorySize = 7
	// SmoothingBonus is added to the history mean before clamping to 1.
	SmoothingBonus = 0.30
)

// History keeps a bounded FIFO of base confidences per letter.
//
// A letter's window only moves when that letter is classified again; frames
// that match another letter (or nothing) never age it.
type History struct {
	size    int
	entries map[rune][]float64
}

// NewHistory creates an empty History holding up to size entries per letter.
func NewHistory(size int) *History {
	if size <= 0 {
		size = HistorySize
	}
	return &History{
		size:    size,
		entries: make(map[rune][]float64),
	}
}

// Push records a base confidence for letter and returns the smoothed
// confidence: the window mean plus SmoothingBonus, capped at 1.
func (h *History) Push(letter rune, confidence float64) float64 {
	window := append(h.entries[letter], confidence)
	if len(window) > h.size {
		window = window[len(window)-h.size:]
	}
	h.entries[letter] = window

	return math.Min(1.0, stat.Mean(window, nil)+SmoothingBonus)
}

// Len returns the number of entries held for letter.
func (h *History) Len(letter rune) int {
	return len(h.entries[letter])
}

// Values returns a copy of letter's window, oldest first.
func (h *History) Values(letter rune) []float64 {
	window := h.entries[letter]
	out := make([]float64, len(window))
	copy(out, window)
	return out
}

// Reset drops every letter's window.
func (h *History) Reset() {
	h.entries = make(map[rune][]float64)
}
