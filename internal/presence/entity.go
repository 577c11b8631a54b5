package presence

import "time"

// Status is the ephemeral per-user presence aggregate. It is global per
// user rather than duplicated across conversations; typing state is tracked
// separately per (conversation, user).
type Status struct {
	UserID   string    `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

// TypingState is one participant's typing flag inside one conversation.
type TypingState struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	IsTyping       bool      `json:"is_typing"`
	At             time.Time `json:"at"`
}
