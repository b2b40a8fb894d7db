package turn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/huddleplan/huddle-pipeline/errors"
	"github.com/huddleplan/huddle-pipeline/internal/domain/entities"
	"github.com/huddleplan/huddle-pipeline/internal/domain/repositories"
	"github.com/huddleplan/huddle-pipeline/internal/infrastructure/metrics"
	"github.com/huddleplan/huddle-pipeline/pkg/extraction"
)

// Extractor turns one finished clip into ordered edit actions
type Extractor interface {
	ExtractActions(ctx context.Context, req *extraction.Request) (*extraction.Response, error)
}

// Transcriber converts a clip to text
type Transcriber interface {
	TranscribeClip(ctx context.Context, clip []byte, mimeType string) (string, error)
}

// ClipStore persists clip audio and returns its URL
type ClipStore interface {
	StoreClip(ctx context.Context, objectName string, clip []byte, contentType string) (string, error)
}

// Deduper maps processed request ids back to the chunk they produced
type Deduper interface {
	Lookup(ctx context.Context, huddleID uuid.UUID, requestID string) (uuid.UUID, error)
	MarkProcessed(ctx context.Context, huddleID uuid.UUID, requestID string, chunkID uuid.UUID) error
}

// SubmitTurnCommand is one finished voice turn
type SubmitTurnCommand struct {
	HuddleID          uuid.UUID
	RequestID         string
	SpeakerID         uuid.UUID
	SpeakerLabel      string
	Clip              []byte
	MimeType          string
	Duration          time.Duration
	ConversationToken string
}

// SubmitTurnResult is what the speaker's client gets back
type SubmitTurnResult struct {
	ChunkID           uuid.UUID
	Sequence          int64
	Transcript        string
	ConversationToken string
	Outcome           entities.ActionOutcome

	// CreatedKeys maps the conversation keys of items created by this turn
	// to their durable identities, for the client's conversation context.
	CreatedKeys map[string]uuid.UUID

	// Duplicate is set when the request id was already processed and the
	// result was replayed from the original chunk.
	Duplicate bool
}

// Service is the turn pipeline: clip in, resolved planning mutations out
type Service interface {
	SubmitTurn(ctx context.Context, cmd *SubmitTurnCommand) (*SubmitTurnResult, error)
	ListItems(ctx context.Context, huddleID uuid.UUID) ([]*entities.PlanningItem, error)
	ListTranscript(ctx context.Context, huddleID uuid.UUID) ([]*entities.TranscriptChunk, error)
}

type service struct {
	huddles  repositories.HuddleRepository
	items    repositories.PlanningItemRepository
	chunks   repositories.TranscriptChunkRepository
	resolver *Resolver

	extractor   Extractor
	transcriber Transcriber
	clips       ClipStore
	dedup       Deduper

	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates the turn pipeline service
func NewService(
	huddles repositories.HuddleRepository,
	items repositories.PlanningItemRepository,
	chunks repositories.TranscriptChunkRepository,
	resolver *Resolver,
	extractor Extractor,
	transcriber Transcriber,
	clips ClipStore,
	dedup Deduper,
	m *metrics.Metrics,
	logger *zap.Logger,
) Service {
	return &service{
		huddles:     huddles,
		items:       items,
		chunks:      chunks,
		resolver:    resolver,
		extractor:   extractor,
		transcriber: transcriber,
		clips:       clips,
		dedup:       dedup,
		metrics:     m,
		logger:      logger,
	}
}

// SubmitTurn runs one turn through the pipeline. The heavy legs (storage,
// transcription, extraction) happen before the sequence number is assigned,
// so a failed turn burns no position in the transcript; the mutation plan is
// then applied atomically. Resubmissions of an already processed request id
// replay the original result instead of reprocessing.
func (s *service) SubmitTurn(ctx context.Context, cmd *SubmitTurnCommand) (*SubmitTurnResult, error) {
	if len(cmd.Clip) == 0 {
		return nil, apperrors.ErrTurnClipMissing()
	}
	if cmd.RequestID == "" {
		cmd.RequestID = uuid.NewString()
	}

	huddle, err := s.huddles.FindByID(ctx, cmd.HuddleID)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}
	if huddle == nil {
		return nil, apperrors.ErrHuddleNotFound(cmd.HuddleID.String())
	}
	if !huddle.IsActive() {
		return nil, apperrors.ErrHuddleClosed(cmd.HuddleID.String())
	}

	if replay, err := s.replayIfProcessed(ctx, cmd); err != nil {
		return nil, err
	} else if replay != nil {
		return replay, nil
	}

	clipURL, err := s.clips.StoreClip(ctx, s.objectName(cmd), cmd.Clip, cmd.MimeType)
	if err != nil {
		return nil, apperrors.ErrStorageFailed("store clip", err)
	}

	// Transcription failure is not fatal: extraction consumes the raw audio
	// and the chunk payload degrades to empty text.
	transcript, err := s.transcriber.TranscribeClip(ctx, cmd.Clip, cmd.MimeType)
	if err != nil {
		s.logger.Warn("transcription failed, continuing without transcript",
			zap.String("huddle_id", cmd.HuddleID.String()),
			zap.String("request_id", cmd.RequestID),
			zap.Error(err),
		)
		transcript = ""
	}

	snapshot, err := s.items.ListByHuddle(ctx, cmd.HuddleID)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}

	resp, err := s.extract(ctx, cmd, transcript, snapshot)
	if err != nil {
		return nil, err
	}

	seq, err := s.huddles.NextSequence(ctx, cmd.HuddleID)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}

	chunk := entities.NewTranscriptChunk(cmd.HuddleID, seq, entities.ChunkSourceVoiceTurn, transcript)
	chunk.Metadata = entities.ChunkMetadata{
		RequestID: cmd.RequestID,
		ClipURL:   clipURL,
	}
	if err := s.chunks.Append(ctx, chunk); err != nil {
		return nil, apperrors.ErrInternal(err)
	}

	resolution, err := s.resolver.Resolve(cmd.HuddleID, chunk.ID, cmd.RequestID, snapshot, resp.Actions)
	if err != nil {
		return nil, apperrors.ErrResolutionFailed(err)
	}
	resolution.Plan.ChunkMetadata = &entities.ChunkMetadata{
		RequestID: cmd.RequestID,
		Rationale: resp.Rationale,
		ClipURL:   clipURL,
		Outcome:   &resolution.Outcome,
	}

	if err := s.items.ApplyBatch(ctx, &resolution.Plan); err != nil {
		s.count(func() { s.metrics.BatchFailures.Inc() })
		return nil, apperrors.ErrResolutionFailed(err)
	}

	// A failed dedup write is survivable: a retry reprocesses the turn
	// instead of replaying it, which only costs an extra chunk.
	if err := s.dedup.MarkProcessed(ctx, cmd.HuddleID, cmd.RequestID, chunk.ID); err != nil {
		s.logger.Warn("failed to record processed request id",
			zap.String("request_id", cmd.RequestID),
			zap.Error(err),
		)
	}

	liveItems := len(snapshot) + len(resolution.Outcome.Created) - len(resolution.Outcome.Removed)
	s.observe(cmd, resolution, liveItems)

	return &SubmitTurnResult{
		ChunkID:           chunk.ID,
		Sequence:          seq,
		Transcript:        transcript,
		ConversationToken: resp.ConversationToken,
		Outcome:           resolution.Outcome,
		CreatedKeys:       createdKeys(&resolution.Outcome),
		Duplicate:         false,
	}, nil
}

// replayIfProcessed answers a resubmitted request id from the chunk its
// first submission produced. Returns nil when the id is unseen.
func (s *service) replayIfProcessed(ctx context.Context, cmd *SubmitTurnCommand) (*SubmitTurnResult, error) {
	chunkID, err := s.dedup.Lookup(ctx, cmd.HuddleID, cmd.RequestID)
	if err != nil {
		return nil, apperrors.ErrCacheFailed("dedup lookup", err)
	}

	var chunk *entities.TranscriptChunk
	if chunkID != uuid.Nil {
		chunk, err = s.chunks.FindByID(ctx, chunkID)
	} else {
		// The dedup entry may expire before the chunk does; the chunk log is
		// the durable record of processed request ids.
		chunk, err = s.chunks.FindByRequestID(ctx, cmd.HuddleID, cmd.RequestID)
	}
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}
	if chunk == nil || chunk.Metadata.Outcome == nil {
		// Unseen id, or a chunk whose batch never committed. Reprocess.
		return nil, nil
	}

	s.count(func() { s.metrics.TurnsDuplicated.Inc() })
	s.logger.Info("replaying already processed turn",
		zap.String("huddle_id", cmd.HuddleID.String()),
		zap.String("request_id", cmd.RequestID),
		zap.String("chunk_id", chunk.ID.String()),
	)

	return &SubmitTurnResult{
		ChunkID:           chunk.ID,
		Sequence:          chunk.Sequence,
		Transcript:        chunk.Payload,
		ConversationToken: cmd.ConversationToken,
		Outcome:           *chunk.Metadata.Outcome,
		CreatedKeys:       createdKeys(chunk.Metadata.Outcome),
		Duplicate:         true,
	}, nil
}

func (s *service) extract(ctx context.Context, cmd *SubmitTurnCommand, transcript string, snapshot []*entities.PlanningItem) (*extraction.Response, error) {
	known := make([]extraction.KnownItem, 0, len(snapshot))
	for _, item := range snapshot {
		if item.Provenance.ItemKey == "" {
			continue
		}
		known = append(known, extraction.KnownItem{
			ItemKey: item.Provenance.ItemKey,
			Kind:    item.Kind,
			Text:    item.Text,
		})
	}

	s.count(func() { s.metrics.ExtractionRequests.Inc() })
	started := time.Now()
	resp, err := s.extractor.ExtractActions(ctx, &extraction.Request{
		HuddleID:          cmd.HuddleID.String(),
		SpeakerID:         cmd.SpeakerID.String(),
		SpeakerLabel:      cmd.SpeakerLabel,
		Clip:              cmd.Clip,
		MimeType:          cmd.MimeType,
		Transcript:        transcript,
		KnownItemKeys:     known,
		ConversationToken: cmd.ConversationToken,
	})
	s.count(func() { s.metrics.ExtractionLatency.Observe(time.Since(started).Seconds()) })
	if err != nil {
		s.count(func() { s.metrics.ExtractionFailures.Inc() })
		return nil, apperrors.ErrExtractionFailed(err)
	}
	return resp, nil
}

// ListItems returns the huddle's current planning document
func (s *service) ListItems(ctx context.Context, huddleID uuid.UUID) ([]*entities.PlanningItem, error) {
	huddle, err := s.huddles.FindByID(ctx, huddleID)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}
	if huddle == nil {
		return nil, apperrors.ErrHuddleNotFound(huddleID.String())
	}
	items, err := s.items.ListByHuddle(ctx, huddleID)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}
	return items, nil
}

// ListTranscript returns the huddle's chunk log in sequence order
func (s *service) ListTranscript(ctx context.Context, huddleID uuid.UUID) ([]*entities.TranscriptChunk, error) {
	huddle, err := s.huddles.FindByID(ctx, huddleID)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}
	if huddle == nil {
		return nil, apperrors.ErrHuddleNotFound(huddleID.String())
	}
	chunks, err := s.chunks.ListByHuddle(ctx, huddleID)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}
	return chunks, nil
}

func (s *service) objectName(cmd *SubmitTurnCommand) string {
	ext := "webm"
	if idx := strings.LastIndex(cmd.MimeType, "/"); idx >= 0 && idx < len(cmd.MimeType)-1 {
		ext = cmd.MimeType[idx+1:]
	}
	return fmt.Sprintf("%s/%s.%s", cmd.HuddleID, cmd.RequestID, ext)
}

func (s *service) observe(cmd *SubmitTurnCommand, resolution *Resolution, liveItems int) {
	if s.metrics == nil {
		return
	}
	s.metrics.TurnsSubmitted.Inc()
	if cmd.Duration > 0 {
		s.metrics.TurnDuration.Observe(cmd.Duration.Seconds())
	}
	s.metrics.ActionsApplied.WithLabelValues("create").Add(float64(len(resolution.Outcome.Created)))
	s.metrics.ActionsApplied.WithLabelValues("update").Add(float64(len(resolution.Outcome.Updated)))
	s.metrics.ActionsApplied.WithLabelValues("remove").Add(float64(len(resolution.Outcome.Removed)))
	s.metrics.ActionsSkipped.Add(float64(resolution.Skipped))
	s.metrics.ItemsPerHuddle.Set(float64(liveItems))
}

// count runs a metrics mutation when metrics are wired
func (s *service) count(fn func()) {
	if s.metrics != nil {
		fn()
	}
}

func createdKeys(outcome *entities.ActionOutcome) map[string]uuid.UUID {
	if outcome == nil || len(outcome.Created) == 0 {
		return nil
	}
	keys := make(map[string]uuid.UUID, len(outcome.Created))
	for _, created := range outcome.Created {
		if created.ItemKey != "" {
			keys[created.ItemKey] = created.ID
		}
	}
	return keys
}
