package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huddleplan/huddle-pipeline/internal/domain/entities"
	"github.com/huddleplan/huddle-pipeline/internal/domain/repositories"
)

// transcriptChunkRepository implements the TranscriptChunkRepository interface
type transcriptChunkRepository struct {
	db *gorm.DB
}

// NewTranscriptChunkRepository creates a new transcript chunk repository
func NewTranscriptChunkRepository(db *gorm.DB) repositories.TranscriptChunkRepository {
	return &transcriptChunkRepository{db: db}
}

// Append appends a new chunk to the huddle's transcript log
func (r *transcriptChunkRepository) Append(ctx context.Context, chunk *entities.TranscriptChunk) error {
	if chunk == nil {
		return errors.New("chunk cannot be nil")
	}
	return r.db.WithContext(ctx).Create(chunk).Error
}

// FindByID retrieves a chunk by ID
func (r *transcriptChunkRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.TranscriptChunk, error) {
	var chunk entities.TranscriptChunk
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&chunk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chunk, nil
}

// FindByRequestID retrieves the chunk a given turn submission produced, if
// any. Used to answer duplicate resubmissions idempotently.
func (r *transcriptChunkRepository) FindByRequestID(ctx context.Context, huddleID uuid.UUID, requestID string) (*entities.TranscriptChunk, error) {
	var chunk entities.TranscriptChunk
	err := r.db.WithContext(ctx).
		Where("huddle_id = ? AND metadata->>'request_id' = ?", huddleID, requestID).
		Order("sequence DESC").
		First(&chunk).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chunk, nil
}

// ListByHuddle returns the huddle's transcript in sequence order
func (r *transcriptChunkRepository) ListByHuddle(ctx context.Context, huddleID uuid.UUID) ([]*entities.TranscriptChunk, error) {
	var chunks []*entities.TranscriptChunk
	err := r.db.WithContext(ctx).
		Where("huddle_id = ?", huddleID).
		Order("sequence ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, err
	}
	return chunks, nil
}
