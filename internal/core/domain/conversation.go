package domain

import "time"

// Role identifies the author of a conversation turn.
type Role string

// Available roles.
const (
	// RoleUser is a message from the human.
	RoleUser Role = "user"

	// RoleAssistant is a message from the model.
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is a single conversation exchange. Turns are append-only;
// they are removed only by FIFO eviction from the short-term buffer
// or an explicit memory reset.
type Turn struct {
	// Role is who authored the turn.
	Role Role

	// Content is the message text.
	Content string

	// Timestamp is when the turn was appended.
	Timestamp time.Time

	// Embedding is the vector representation, present only when
	// long-term memory embedded the turn.
	Embedding []float32
}
