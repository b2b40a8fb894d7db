package capture

import "math"

// Meter computes a loudness estimate over audio sample windows
type Meter struct{}

// NewMeter creates a new energy meter
func NewMeter() *Meter {
	return &Meter{}
}

// RMS returns the root-mean-square amplitude of the window in [0, 1].
// An empty or silent window yields zero. No allocation on the steady path.
func (m *Meter) RMS(window []float32) float64 {
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, s := range window {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(window)))
}
