package recall

import "time"

// Scope is the recall state of a message.
type Scope string

const (
	// ScopeNone means the message has not been recalled.
	ScopeNone Scope = "none"
	// ScopeSelf hides the body from the sender's own view only.
	ScopeSelf Scope = "self"
	// ScopeAll hides the body from every participant, sender included.
	ScopeAll Scope = "all"
)

// Recallable reports whether a recall with this scope is a valid request.
func (s Scope) Recallable() bool {
	return s == ScopeSelf || s == ScopeAll
}

// Message is a conversation message with its recall state.
type Message struct {
	ID             int64      `json:"id"`
	ConversationID int64      `json:"conversation_id"`
	SenderID       int64      `json:"sender_id"`
	Body           string     `json:"body"`
	Scope          Scope      `json:"recall_scope"`
	RecalledAt     *time.Time `json:"recalled_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Tombstone is the placeholder shown in place of a hidden message body.
const Tombstone = "This message has been recalled"
