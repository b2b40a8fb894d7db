package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/huddleplan/huddle-pipeline/internal/domain/entities"
)

// BatchPlan is the full mutation set produced by resolving one turn's edit
// actions. The store applies the whole plan in a single transaction: either
// every insert, update, delete and the chunk outcome land, or none do.
type BatchPlan struct {
	HuddleID uuid.UUID
	ChunkID  uuid.UUID

	Inserts []*entities.PlanningItem
	Updates []*entities.PlanningItem
	Deletes []uuid.UUID

	// ChunkMetadata replaces the originating chunk's metadata bag, carrying
	// the resolved outcome. Written in the same transaction as the items.
	ChunkMetadata *entities.ChunkMetadata
}

// Empty reports whether the plan mutates nothing beyond the chunk metadata
func (p *BatchPlan) Empty() bool {
	return len(p.Inserts) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// HuddleRepository manages huddle metadata and the per-huddle sequence counter
type HuddleRepository interface {
	Create(ctx context.Context, huddle *entities.Huddle) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Huddle, error)

	// NextSequence atomically advances and returns the huddle's transcript
	// counter. Concurrent callers always receive distinct values.
	NextSequence(ctx context.Context, huddleID uuid.UUID) (int64, error)
}

// PlanningItemRepository manages the shared planning document
type PlanningItemRepository interface {
	ListByHuddle(ctx context.Context, huddleID uuid.UUID) ([]*entities.PlanningItem, error)

	// ApplyBatch applies the plan as one atomic unit
	ApplyBatch(ctx context.Context, plan *BatchPlan) error
}

// TranscriptChunkRepository manages the append-only transcript log
type TranscriptChunkRepository interface {
	Append(ctx context.Context, chunk *entities.TranscriptChunk) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.TranscriptChunk, error)
	FindByRequestID(ctx context.Context, huddleID uuid.UUID, requestID string) (*entities.TranscriptChunk, error)
	ListByHuddle(ctx context.Context, huddleID uuid.UUID) ([]*entities.TranscriptChunk, error)
}

// PresenceRepository manages participant liveness records
type PresenceRepository interface {
	Heartbeat(ctx context.Context, presence *entities.ParticipantPresence) error
	ListByHuddle(ctx context.Context, huddleID uuid.UUID) ([]*entities.ParticipantPresence, error)

	// DemoteStale downgrades speakers whose last heartbeat is older than the
	// cutoff; EvictStale deletes records older than its cutoff. Both return
	// the number of rows touched.
	DemoteStale(ctx context.Context, cutoff time.Time) (int64, error)
	EvictStale(ctx context.Context, cutoff time.Time) (int64, error)
}
