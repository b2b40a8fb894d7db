package capture

import (
	"math"
	"testing"
)

func TestRMSEmptyWindow(t *testing.T) {
	m := NewMeter()
	if got := m.RMS(nil); got != 0 {
		t.Fatalf("expected 0 for nil window, got %f", got)
	}
	if got := m.RMS([]float32{}); got != 0 {
		t.Fatalf("expected 0 for empty window, got %f", got)
	}
}

func TestRMSSilentWindow(t *testing.T) {
	m := NewMeter()
	if got := m.RMS(make([]float32, 1024)); got != 0 {
		t.Fatalf("expected 0 for silent window, got %f", got)
	}
}

func TestRMSConstantAmplitude(t *testing.T) {
	m := NewMeter()
	window := make([]float32, 480)
	for i := range window {
		window[i] = 0.5
	}
	if got := m.RMS(window); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected 0.5, got %f", got)
	}
}

func TestRMSSignIndependent(t *testing.T) {
	m := NewMeter()
	a := m.RMS([]float32{0.3, -0.3, 0.3, -0.3})
	b := m.RMS([]float32{0.3, 0.3, 0.3, 0.3})
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("RMS must be sign independent: %f vs %f", a, b)
	}
}
