package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)
	participantID, huddleID := uuid.New(), uuid.New()

	token, err := m.GenerateAccessToken(participantID, huddleID, "ana", "speaker")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	claims, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}
	if claims.ParticipantID != participantID {
		t.Fatalf("participant id mismatch: %v", claims.ParticipantID)
	}
	if claims.HuddleID != huddleID {
		t.Fatalf("huddle id mismatch: %v", claims.HuddleID)
	}
	if claims.DisplayName != "ana" || claims.Role != "speaker" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	m := NewManager("secret", time.Hour)
	token, err := m.GenerateAccessToken(uuid.New(), uuid.New(), "ana", "speaker")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	other := NewManager("different", time.Hour)
	if _, err := other.ValidateAccessToken(token); err == nil {
		t.Fatal("expected validation to fail with a different secret")
	}
}

func TestAccessTokenExpired(t *testing.T) {
	m := NewManager("secret", -time.Minute)
	token, err := m.GenerateAccessToken(uuid.New(), uuid.New(), "ana", "speaker")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	if _, err := m.ValidateAccessToken(token); err == nil {
		t.Fatal("expected an expired token to be rejected")
	}
}

func TestAccessTokenGarbage(t *testing.T) {
	m := NewManager("secret", time.Hour)
	if _, err := m.ValidateAccessToken("not-a-token"); err == nil {
		t.Fatal("expected garbage to be rejected")
	}
}
