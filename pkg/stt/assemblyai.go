package stt

import (
	"bytes"
	"context"
	"os"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	apperrors "github.com/huddleplan/huddle-pipeline/errors"
	"github.com/huddleplan/huddle-pipeline/pkg/config"
)

// Transcriber converts finished turn clips to text via AssemblyAI. The
// transcript becomes the chunk payload; extraction receives it alongside
// the raw clip.
type Transcriber struct {
	client  *aai.Client
	timeout time.Duration
	enabled bool
}

// NewTranscriber creates a transcriber using the provided config. Pass a
// nil config to fall back to environment variables.
func NewTranscriber(cfg *config.STTConfig) *Transcriber {
	var apiKey string
	enabled := true
	timeout := 90 * time.Second

	if cfg != nil {
		apiKey = cfg.APIKey
		enabled = cfg.Enabled
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}

	return &Transcriber{
		client:  aai.NewClient(apiKey),
		timeout: timeout,
		enabled: enabled && apiKey != "",
	}
}

// TranscribeClip uploads the clip and waits for its transcript. Returns an
// empty string without error when transcription is disabled.
func (t *Transcriber) TranscribeClip(ctx context.Context, clip []byte, mimeType string) (string, error) {
	if !t.enabled {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	transcript, err := t.client.Transcripts.TranscribeFromReader(ctx, bytes.NewReader(clip), &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(false),
	})
	if err != nil {
		return "", apperrors.ErrTranscriptionFailed(err)
	}
	if transcript.Text == nil {
		return "", nil
	}
	return *transcript.Text, nil
}
