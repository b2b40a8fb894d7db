package capture

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/huddleplan/huddle-pipeline/pkg/config"
)

// Turn is one finished speech segment handed to the upload path
type Turn struct {
	RequestID         string
	Clip              Clip
	SpeakerID         uuid.UUID
	SpeakerLabel      string
	ConversationToken string
}

// TurnResult is what the upload path reports back after a turn has been
// extracted and resolved server-side.
type TurnResult struct {
	ConversationToken string
	CreatedKeys       map[string]uuid.UUID
}

// TurnSink consumes finished turns. SubmitTurn suspends the capture loop
// until the extraction-and-resolution round trip completes or fails, so a
// single speaker's turns never race each other.
type TurnSink interface {
	SubmitTurn(ctx context.Context, turn Turn) (*TurnResult, error)
}

// SessionConfig holds the capture loop parameters. MinViableClip is the
// recorder-level floor below which a finalized capture is degenerate;
// UploadFloor is the session's independent, stricter "too short to matter"
// bound. Both are applied by the session, never by the recorder.
type SessionConfig struct {
	StartThreshold float64
	StopThreshold  float64
	MinCapture     time.Duration
	MinSilence     time.Duration
	MaxCapture     time.Duration
	SampleInterval time.Duration
	MinViableClip  time.Duration
	UploadFloor    time.Duration

	SpeakerID    uuid.UUID
	SpeakerLabel string
}

// NewSessionConfig binds the service's published capture settings to one
// speaker. The values come from the same config block the server validates,
// so a session built from them passes the detector's own checks.
func NewSessionConfig(cfg config.CaptureConfig, speakerID uuid.UUID, speakerLabel string) SessionConfig {
	return SessionConfig{
		StartThreshold: cfg.StartThreshold,
		StopThreshold:  cfg.StopThreshold,
		MinCapture:     cfg.MinCapture,
		MinSilence:     cfg.MinSilence,
		MaxCapture:     cfg.MaxCapture,
		SampleInterval: cfg.SampleInterval,
		MinViableClip:  cfg.MinViableClip,
		UploadFloor:    cfg.UploadFloor,
		SpeakerID:      speakerID,
		SpeakerLabel:   speakerLabel,
	}
}

// Session runs the single-goroutine capture loop: sample the live source on
// every tick, meter its loudness, feed the detector, and drive the recorder
// on turn boundaries. All VAD state lives here with the session's lifecycle.
type Session struct {
	cfg      SessionConfig
	device   Device
	sink     TurnSink
	logger   *zap.Logger
	meter    *Meter
	detector *Detector
	recorder *Recorder
	convo    *ConversationContext

	src    Source
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession creates a capture session. The detector configuration is
// validated here so a misconfigured session fails before any audio flows.
func NewSession(cfg SessionConfig, device Device, sink TurnSink, logger *zap.Logger) (*Session, error) {
	detector, err := NewDetector(DetectorConfig{
		StartThreshold: cfg.StartThreshold,
		StopThreshold:  cfg.StopThreshold,
		MinCapture:     cfg.MinCapture,
		MinSilence:     cfg.MinSilence,
		MaxCapture:     cfg.MaxCapture,
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		cfg:      cfg,
		device:   device,
		sink:     sink,
		logger:   logger,
		meter:    NewMeter(),
		detector: detector,
		convo:    NewConversationContext(0),
	}, nil
}

// Conversation returns the session's conversation context
func (s *Session) Conversation() *ConversationContext {
	return s.convo
}

// Start acquires the audio source and launches the capture loop. A typed
// *DeviceError is returned when the device layer refuses the source.
func (s *Session) Start(ctx context.Context) error {
	src, err := s.device.AcquireSource()
	if err != nil {
		return err
	}
	s.src = src
	s.recorder = NewRecorder(s.device.NewEncoder())
	s.detector.Arm()

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(loopCtx)

	s.logger.Info("capture session started",
		zap.String("speaker_label", s.cfg.SpeakerLabel),
		zap.Duration("sample_interval", s.cfg.SampleInterval),
	)
	return nil
}

// Stop ends the session, discarding any in-flight capture without emitting
// a turn, and resets the conversation context.
func (s *Session) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.teardown()

	ticker := time.NewTicker(s.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			window, err := s.src.SampleWindow()
			if err != nil {
				s.logger.Warn("audio source lost, ending session", zap.Error(err))
				return
			}

			ev := s.detector.Observe(s.meter.RMS(window), now)
			switch ev.Kind {
			case EventTurnStarted:
				if err := s.recorder.Begin(s.src, now); err != nil {
					s.logger.Error("encoder failed to start", zap.Error(err))
					return
				}
			case EventTurnEnded:
				s.finishTurn(ctx, ev.Reason, now)
			}
		}
	}
}

// finishTurn finalizes the active capture and submits it unless the discard
// policy drops it. The detector has already returned to Listening, so every
// failure path here leaves the state machine ready for the next turn.
func (s *Session) finishTurn(ctx context.Context, reason StopReason, now time.Time) {
	clip, err := s.recorder.Finalize(reason, now)
	if err != nil {
		s.logger.Error("encoder failed to finalize", zap.Error(err))
		return
	}
	if clip == nil {
		return
	}

	if len(clip.Bytes) == 0 || clip.Duration < s.cfg.MinViableClip {
		s.logger.Debug("capture discarded, degenerate clip",
			zap.Duration("duration", clip.Duration),
			zap.Int("bytes", len(clip.Bytes)),
		)
		return
	}
	if clip.Duration < s.cfg.UploadFloor {
		s.logger.Debug("capture discarded, below upload floor",
			zap.Duration("duration", clip.Duration),
			zap.Duration("floor", s.cfg.UploadFloor),
		)
		return
	}

	turn := Turn{
		RequestID:         uuid.NewString(),
		Clip:              *clip,
		SpeakerID:         s.cfg.SpeakerID,
		SpeakerLabel:      s.cfg.SpeakerLabel,
		ConversationToken: s.convo.Token(),
	}

	// Blocks the loop: exactly one round trip in flight per speaker, so this
	// speaker's turns apply in the order they were spoken.
	result, err := s.sink.SubmitTurn(ctx, turn)
	if err != nil {
		s.logger.Error("turn submission failed, audio lost",
			zap.String("request_id", turn.RequestID),
			zap.Error(err),
		)
		return
	}

	s.convo.SetToken(result.ConversationToken)
	for key, id := range result.CreatedKeys {
		s.convo.Remember(key, id)
	}
}

func (s *Session) teardown() {
	if discarded := s.detector.Disarm(); discarded {
		s.recorder.Cancel()
		s.logger.Debug("in-flight capture discarded on session end")
	}
	s.convo.Reset()
}
