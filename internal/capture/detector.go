package capture

import (
	"fmt"
	"time"
)

// Phase is the turn detector state
type Phase int

const (
	PhaseIdle      Phase = iota // no live audio source
	PhaseListening              // armed, no active turn
	PhaseCapturing              // turn in progress
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseListening:
		return "listening"
	case PhaseCapturing:
		return "capturing"
	default:
		return "unknown"
	}
}

// StopReason says why a turn was finalized
type StopReason string

const (
	StopSilence     StopReason = "silence"
	StopMaxDuration StopReason = "max_duration"
)

// EventKind classifies detector transitions observable by the caller
type EventKind int

const (
	EventNone EventKind = iota
	EventTurnStarted
	EventTurnEnded
)

// Event is emitted by Observe on a phase transition
type Event struct {
	Kind   EventKind
	Reason StopReason // set only for EventTurnEnded
}

// DetectorConfig holds the hysteresis thresholds and duration guards.
// StartThreshold must sit above StopThreshold: the higher start bar keeps
// boundary chatter from opening a turn, the lower stop bar keeps normal
// pauses in speech from closing one.
type DetectorConfig struct {
	StartThreshold float64
	StopThreshold  float64
	MinCapture     time.Duration
	MinSilence     time.Duration
	MaxCapture     time.Duration
}

// Detector is the hysteresis state machine deciding turn boundaries over a
// stream of loudness observations. It is not safe for concurrent use; a
// single session loop owns it.
type Detector struct {
	cfg   DetectorConfig
	phase Phase

	turnStart  time.Time
	lastSpeech time.Time
}

// NewDetector creates a turn detector in the Idle phase
func NewDetector(cfg DetectorConfig) (*Detector, error) {
	if cfg.StartThreshold <= cfg.StopThreshold {
		return nil, fmt.Errorf("start threshold %f must be greater than stop threshold %f", cfg.StartThreshold, cfg.StopThreshold)
	}
	if cfg.MinCapture <= 0 || cfg.MinSilence <= 0 {
		return nil, fmt.Errorf("duration guards must be positive")
	}
	if cfg.MaxCapture <= cfg.MinCapture {
		return nil, fmt.Errorf("max capture %v must be greater than min capture %v", cfg.MaxCapture, cfg.MinCapture)
	}
	return &Detector{cfg: cfg, phase: PhaseIdle}, nil
}

// Phase returns the current detector phase
func (d *Detector) Phase() Phase {
	return d.phase
}

// Arm moves the detector from Idle to Listening once an audio source is live
func (d *Detector) Arm() {
	if d.phase == PhaseIdle {
		d.phase = PhaseListening
	}
}

// Disarm returns the detector to Idle from any phase. It reports whether an
// in-flight turn was discarded; no turn is emitted for a discarded capture.
func (d *Detector) Disarm() bool {
	discarded := d.phase == PhaseCapturing
	d.phase = PhaseIdle
	d.turnStart = time.Time{}
	d.lastSpeech = time.Time{}
	return discarded
}

// Observe feeds one loudness sample taken at the given instant and returns
// the transition event, if any.
func (d *Detector) Observe(loudness float64, now time.Time) Event {
	switch d.phase {
	case PhaseIdle:
		return Event{Kind: EventNone}

	case PhaseListening:
		if loudness >= d.cfg.StartThreshold {
			d.phase = PhaseCapturing
			d.turnStart = now
			d.lastSpeech = now
			return Event{Kind: EventTurnStarted}
		}
		return Event{Kind: EventNone}

	case PhaseCapturing:
		if loudness >= d.cfg.StopThreshold {
			d.lastSpeech = now
		}

		// The max-duration exit is unconditional: it bounds worst-case turn
		// length even under continuous speech.
		if now.Sub(d.turnStart) >= d.cfg.MaxCapture {
			d.phase = PhaseListening
			return Event{Kind: EventTurnEnded, Reason: StopMaxDuration}
		}

		if now.Sub(d.lastSpeech) >= d.cfg.MinSilence && now.Sub(d.turnStart) >= d.cfg.MinCapture {
			d.phase = PhaseListening
			return Event{Kind: EventTurnEnded, Reason: StopSilence}
		}
		return Event{Kind: EventNone}

	default:
		return Event{Kind: EventNone}
	}
}
