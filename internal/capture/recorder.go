package capture

import (
	"fmt"
	"time"
)

// Clip is a finished turn capture
type Clip struct {
	Bytes     []byte
	MimeType  string
	Duration  time.Duration
	StartedAt time.Time
	EndedAt   time.Time
	Reason    StopReason
}

// Recorder owns the encoder lifecycle for the currently active turn. The
// recorder itself never drops a finished clip; the discard policy (minimum
// viable duration, empty clip) belongs to the consumer.
type Recorder struct {
	enc       Encoder
	active    bool
	startedAt time.Time
}

// NewRecorder creates a recorder around a platform encoder
func NewRecorder(enc Encoder) *Recorder {
	return &Recorder{enc: enc}
}

// Active reports whether a capture is in progress
func (r *Recorder) Active() bool {
	return r.active
}

// Begin starts the encoder against the live source
func (r *Recorder) Begin(src Source, now time.Time) error {
	if r.active {
		return fmt.Errorf("capture already active")
	}
	if err := r.enc.Start(src); err != nil {
		return err
	}
	r.active = true
	r.startedAt = now
	return nil
}

// Finalize stops the encoder and packages the finished clip. Returns nil
// when no capture is active.
func (r *Recorder) Finalize(reason StopReason, now time.Time) (*Clip, error) {
	if !r.active {
		return nil, nil
	}
	r.active = false

	out, err := r.enc.Stop()
	if err != nil {
		return nil, err
	}

	return &Clip{
		Bytes:     out.Bytes,
		MimeType:  out.MimeType,
		Duration:  now.Sub(r.startedAt),
		StartedAt: r.startedAt,
		EndedAt:   now,
		Reason:    reason,
	}, nil
}

// Cancel discards any buffered capture without producing a clip
func (r *Recorder) Cancel() {
	if !r.active {
		return
	}
	r.active = false
	_, _ = r.enc.Stop()
}
