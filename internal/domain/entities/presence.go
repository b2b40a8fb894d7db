package entities

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantRole is the liveness-derived role of a participant
type ParticipantRole string

const (
	RoleSpeaker  ParticipantRole = "speaker"
	RoleObserver ParticipantRole = "observer"
)

// ParticipantPresence is a liveness record refreshed by heartbeats. The
// reaper demotes speakers whose heartbeats stop and eventually evicts the
// record entirely.
type ParticipantPresence struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	HuddleID      uuid.UUID       `json:"huddle_id" gorm:"type:uuid;not null;uniqueIndex:idx_presence_huddle_participant"`
	ParticipantID uuid.UUID       `json:"participant_id" gorm:"type:uuid;not null;uniqueIndex:idx_presence_huddle_participant"`
	DisplayName   string          `json:"display_name" gorm:"type:varchar(100)"`
	Role          ParticipantRole `json:"role" gorm:"type:varchar(20);not null;default:'speaker'"`
	LastHeartbeat time.Time       `json:"last_heartbeat" gorm:"not null;index"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (ParticipantPresence) TableName() string {
	return "participant_presences"
}

// NewParticipantPresence creates a presence record with a fresh heartbeat
func NewParticipantPresence(huddleID, participantID uuid.UUID, displayName string, role ParticipantRole) *ParticipantPresence {
	if role == "" {
		role = RoleSpeaker
	}
	return &ParticipantPresence{
		ID:            uuid.New(),
		HuddleID:      huddleID,
		ParticipantID: participantID,
		DisplayName:   displayName,
		Role:          role,
		LastHeartbeat: time.Now(),
		CreatedAt:     time.Now(),
	}
}
