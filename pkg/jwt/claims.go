package jwt

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the participant identity granted access to a huddle
type Claims struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	HuddleID      uuid.UUID `json:"huddle_id"`
	DisplayName   string    `json:"display_name"`
	Role          string    `json:"role"`
	jwt.RegisteredClaims
}
