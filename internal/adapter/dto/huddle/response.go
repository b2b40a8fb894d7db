package huddle

import (
	"time"

	"github.com/google/uuid"

	"github.com/huddleplan/huddle-pipeline/internal/domain/entities"
)

// HuddleResponse is the public shape of a huddle
type HuddleResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// JoinHuddleResponse carries the participant's access token
type JoinHuddleResponse struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	AccessToken   string    `json:"access_token"`
	ExpiresIn     int64     `json:"expires_in"`
}

// SubmitTurnResponse is what the speaker's client gets back from a turn
type SubmitTurnResponse struct {
	ChunkID           uuid.UUID               `json:"chunk_id"`
	Sequence          int64                   `json:"sequence"`
	Transcript        string                  `json:"transcript,omitempty"`
	ConversationToken string                  `json:"conversation_token,omitempty"`
	Outcome           entities.ActionOutcome  `json:"outcome"`
	CreatedKeys       map[string]uuid.UUID    `json:"created_keys,omitempty"`
	Duplicate         bool                    `json:"duplicate"`
}

// ItemListResponse is the huddle's current planning document
type ItemListResponse struct {
	Items []*entities.PlanningItem `json:"items"`
	Total int                      `json:"total"`
}

// TranscriptResponse is the huddle's chunk log in sequence order
type TranscriptResponse struct {
	Chunks []*entities.TranscriptChunk `json:"chunks"`
	Total  int                         `json:"total"`
}

// PresenceListResponse lists the huddle's participants
type PresenceListResponse struct {
	Participants []*entities.ParticipantPresence `json:"participants"`
	Total        int                             `json:"total"`
}

// ToHuddleResponse maps a huddle entity to its public shape
func ToHuddleResponse(h *entities.Huddle) *HuddleResponse {
	return &HuddleResponse{
		ID:        h.ID,
		Title:     h.Title,
		Status:    string(h.Status),
		CreatedAt: h.CreatedAt,
	}
}
