package capture

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func TestConversationContextToken(t *testing.T) {
	c := NewConversationContext(0)
	if c.Token() != "" {
		t.Fatal("expected empty token before the first turn")
	}
	c.SetToken("tok-1")
	if c.Token() != "tok-1" {
		t.Fatalf("expected tok-1, got %q", c.Token())
	}
}

func TestConversationContextRememberResolve(t *testing.T) {
	c := NewConversationContext(0)
	id := uuid.New()
	c.Remember("t1", id)

	got, ok := c.Resolve("t1")
	if !ok || got != id {
		t.Fatalf("expected %v, got %v %v", id, got, ok)
	}
	if _, ok := c.Resolve("missing"); ok {
		t.Fatal("unexpected hit for unknown key")
	}

	// Empty keys are not stored.
	c.Remember("", uuid.New())
	if c.Len() != 1 {
		t.Fatalf("expected 1 key, got %d", c.Len())
	}
}

func TestConversationContextEvictsOldest(t *testing.T) {
	c := NewConversationContext(3)
	for i := 0; i < 4; i++ {
		c.Remember(fmt.Sprintf("t%d", i), uuid.New())
	}

	if c.Len() != 3 {
		t.Fatalf("expected bounded to 3 keys, got %d", c.Len())
	}
	if _, ok := c.Resolve("t0"); ok {
		t.Fatal("expected oldest key evicted")
	}
	if _, ok := c.Resolve("t3"); !ok {
		t.Fatal("expected newest key present")
	}
}

func TestConversationContextRememberExistingUpdates(t *testing.T) {
	c := NewConversationContext(2)
	first := uuid.New()
	second := uuid.New()
	c.Remember("t1", first)
	c.Remember("t1", second)

	if c.Len() != 1 {
		t.Fatalf("re-remembering must not grow the set, got %d", c.Len())
	}
	if got, _ := c.Resolve("t1"); got != second {
		t.Fatalf("expected updated id, got %v", got)
	}
}

func TestConversationContextReset(t *testing.T) {
	c := NewConversationContext(0)
	c.SetToken("tok")
	c.Remember("t1", uuid.New())

	c.Reset()
	if c.Token() != "" || c.Len() != 0 {
		t.Fatal("expected empty context after reset")
	}
}
