package capture

import "github.com/google/uuid"

// ConversationContext threads the opaque continuation token returned by the
// extraction service across turns within one huddle session, together with a
// bounded set of recently-known itemKey mappings. The token carries no
// meaning here; it is passed back verbatim on the next turn. Reset on
// session end or disconnect.
type ConversationContext struct {
	token string
	keys  map[string]uuid.UUID
	order []string
	limit int
}

// NewConversationContext creates a context remembering at most limit keys
func NewConversationContext(limit int) *ConversationContext {
	if limit <= 0 {
		limit = 64
	}
	return &ConversationContext{
		keys:  make(map[string]uuid.UUID),
		limit: limit,
	}
}

// Token returns the current continuation token (empty before the first turn)
func (c *ConversationContext) Token() string {
	return c.token
}

// SetToken stores the continuation token returned by the latest turn
func (c *ConversationContext) SetToken(token string) {
	c.token = token
}

// Remember records an itemKey to durable identity mapping, evicting the
// oldest entry once the bound is reached.
func (c *ConversationContext) Remember(key string, id uuid.UUID) {
	if key == "" {
		return
	}
	if _, exists := c.keys[key]; !exists {
		if len(c.order) >= c.limit {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.keys, oldest)
		}
		c.order = append(c.order, key)
	}
	c.keys[key] = id
}

// Resolve looks up a remembered itemKey
func (c *ConversationContext) Resolve(key string) (uuid.UUID, bool) {
	id, ok := c.keys[key]
	return id, ok
}

// Len returns the number of remembered keys
func (c *ConversationContext) Len() int {
	return len(c.keys)
}

// Reset clears the token and all remembered keys
func (c *ConversationContext) Reset() {
	c.token = ""
	c.keys = make(map[string]uuid.UUID)
	c.order = nil
}
