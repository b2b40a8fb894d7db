package entities

import (
	"time"

	"github.com/google/uuid"
)

// ItemKind is the closed set of planning item kinds
type ItemKind string

const (
	ItemKindIdea       ItemKind = "idea"
	ItemKindTask       ItemKind = "task"
	ItemKindDependency ItemKind = "dependency"
	ItemKindOwner      ItemKind = "owner"
	ItemKindRisk       ItemKind = "risk"
	ItemKindOutcome    ItemKind = "outcome"
	ItemKindDecision   ItemKind = "decision"
	ItemKindSummary    ItemKind = "summary"
)

// Valid reports whether the kind belongs to the closed set
func (k ItemKind) Valid() bool {
	switch k {
	case ItemKindIdea, ItemKindTask, ItemKindDependency, ItemKindOwner,
		ItemKindRisk, ItemKindOutcome, ItemKindDecision, ItemKindSummary:
		return true
	}
	return false
}

// ItemProvenance records where an item came from. ItemKey is the short-lived
// conversation-scoped key the extraction service uses to address the item
// before it has a durable identity.
type ItemProvenance struct {
	ItemKey   string     `json:"item_key,omitempty"`
	ChunkID   *uuid.UUID `json:"chunk_id,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}

// PlanningItem is a unit of shared meeting output. BlockedBy may only
// reference identities that currently exist in the same huddle; deletions
// prune it in the same transaction.
type PlanningItem struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	HuddleID     uuid.UUID      `json:"huddle_id" gorm:"type:uuid;not null;index"`
	Kind         ItemKind       `json:"kind" gorm:"type:varchar(20);not null"`
	Text         string         `json:"text" gorm:"type:text;not null"`
	SpeakerLabel string         `json:"speaker_label,omitempty" gorm:"type:varchar(100)"`
	OrderHint    *float64       `json:"order_hint,omitempty"`
	BlockedBy    []uuid.UUID    `json:"blocked_by,omitempty" gorm:"type:jsonb;serializer:json"`
	Provenance   ItemProvenance `json:"provenance,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (PlanningItem) TableName() string {
	return "planning_items"
}

// NewPlanningItem creates a new planning item
func NewPlanningItem(huddleID uuid.UUID, kind ItemKind, text string) *PlanningItem {
	return &PlanningItem{
		ID:        uuid.New(),
		HuddleID:  huddleID,
		Kind:      kind,
		Text:      text,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// Removable reports whether the item may be deleted through the pipeline.
// Summary items are immutable once created.
func (i *PlanningItem) Removable() bool {
	return i.Kind != ItemKindSummary
}

// PruneBlockedBy removes the given identity from the dependency set and
// reports whether anything changed.
func (i *PlanningItem) PruneBlockedBy(id uuid.UUID) bool {
	changed := false
	pruned := i.BlockedBy[:0]
	for _, ref := range i.BlockedBy {
		if ref == id {
			changed = true
			continue
		}
		pruned = append(pruned, ref)
	}
	if changed {
		i.BlockedBy = pruned
	}
	return changed
}
