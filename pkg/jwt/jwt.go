package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager handles JWT operations
type Manager struct {
	accessSecret string
	accessExpiry time.Duration
	issuer       string
}

// NewManager creates a new JWT manager
func NewManager(accessSecret string, accessExpiry time.Duration) *Manager {
	return &Manager{
		accessSecret: accessSecret,
		accessExpiry: accessExpiry,
		issuer:       "huddle-pipeline",
	}
}

// GenerateAccessToken generates a huddle-scoped access token for a participant
func (m *Manager) GenerateAccessToken(participantID, huddleID uuid.UUID, displayName, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		ParticipantID: participantID,
		HuddleID:      huddleID,
		DisplayName:   displayName,
		Role:          role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   participantID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.accessSecret))
}

// ValidateAccessToken validates and parses an access token
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.accessSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
