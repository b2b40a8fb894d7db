package entities

import (
	"time"

	"github.com/google/uuid"
)

// HuddleStatus represents the lifecycle state of a huddle
type HuddleStatus string

const (
	HuddleStatusActive HuddleStatus = "active"
	HuddleStatusEnded  HuddleStatus = "ended"
)

// Huddle is a live planning session. NextSequence is the per-huddle
// transcript counter; it is only ever advanced by an atomic conditional
// update, never read-modify-write.
type Huddle struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title        string       `json:"title" gorm:"type:varchar(255);not null"`
	Status       HuddleStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	NextSequence int64        `json:"next_sequence" gorm:"not null;default:0"`
	CreatedAt    time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Huddle) TableName() string {
	return "huddles"
}

// NewHuddle creates a new active huddle
func NewHuddle(title string) *Huddle {
	return &Huddle{
		ID:        uuid.New(),
		Title:     title,
		Status:    HuddleStatusActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// IsActive reports whether the huddle accepts new turns
func (h *Huddle) IsActive() bool {
	return h.Status == HuddleStatusActive
}
