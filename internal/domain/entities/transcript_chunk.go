package entities

import (
	"time"

	"github.com/google/uuid"
)

// ChunkSource tags where a transcript chunk came from
type ChunkSource string

const (
	ChunkSourceHuman     ChunkSource = "human_transcript"
	ChunkSourceVoiceTurn ChunkSource = "voice_turn"
	ChunkSourceOther     ChunkSource = "other"
)

// ItemOutcome summarizes one item touched by a resolved batch
type ItemOutcome struct {
	ID      uuid.UUID `json:"id"`
	ItemKey string    `json:"item_key,omitempty"`
	Kind    ItemKind  `json:"kind"`
	Text    string    `json:"text"`
}

// ActionOutcome is the record of what a chunk's edit actions did, appended
// to the chunk metadata after resolution for UI replay and badging.
type ActionOutcome struct {
	Created []ItemOutcome `json:"created,omitempty"`
	Updated []ItemOutcome `json:"updated,omitempty"`
	Removed []ItemOutcome `json:"removed,omitempty"`
}

// ChunkMetadata is the chunk's metadata bag
type ChunkMetadata struct {
	RequestID string         `json:"request_id,omitempty"`
	Rationale string         `json:"rationale,omitempty"`
	ClipURL   string         `json:"clip_url,omitempty"`
	Outcome   *ActionOutcome `json:"outcome,omitempty"`
}

// TranscriptChunk is an append-only log entry per turn. Sequence is strictly
// increasing and collision-free per huddle (gaps are fine). A chunk is never
// mutated after creation except to append the resolved action outcome.
type TranscriptChunk struct {
	ID        uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	HuddleID  uuid.UUID     `json:"huddle_id" gorm:"type:uuid;not null;uniqueIndex:idx_chunks_huddle_seq"`
	Sequence  int64         `json:"sequence" gorm:"not null;uniqueIndex:idx_chunks_huddle_seq"`
	Source    ChunkSource   `json:"source" gorm:"type:varchar(30);not null"`
	Payload   string        `json:"payload" gorm:"type:text"`
	Metadata  ChunkMetadata `json:"metadata,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time     `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (TranscriptChunk) TableName() string {
	return "transcript_chunks"
}

// NewTranscriptChunk creates a new transcript chunk
func NewTranscriptChunk(huddleID uuid.UUID, sequence int64, source ChunkSource, payload string) *TranscriptChunk {
	return &TranscriptChunk{
		ID:        uuid.New(),
		HuddleID:  huddleID,
		Sequence:  sequence,
		Source:    source,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}
