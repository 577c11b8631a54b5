package httpdto

import (
	"time"

	"wavechat/internal/domain/chat"
)

// SendMessageRequest is used for POST /conversations/:id/messages
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
	ReplyTo string `json:"reply_to,omitempty"`
}

// ReactionRequest is used for POST /messages/:id/reactions
type ReactionRequest struct {
	Type string `json:"type" binding:"required"`
}

// TypingRequest is used for POST /conversations/:id/typing
type TypingRequest struct {
	Typing bool `json:"typing"`
}

// MessageDTO is the single normalized message shape returned everywhere;
// callers never branch on the query path that produced it.
type MessageDTO struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	SenderID       string        `json:"sender_id"`
	Content        string        `json:"content"`
	ReplyTo        string        `json:"reply_to,omitempty"`
	IsRead         bool          `json:"is_read"`
	Reactions      []ReactionDTO `json:"reactions,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// ReactionDTO represents one reaction row on a message
type ReactionDTO struct {
	UserID string `json:"user_id"`
	Type   string `json:"type"`
}

// MessageListResponse is returned when listing messages
type MessageListResponse struct {
	Messages []MessageDTO `json:"messages"`
}

func ToMessageDTO(m chat.Message) MessageDTO {
	dto := MessageDTO{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Content:        m.Content,
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt,
	}
	if m.ReplyToID.Valid {
		dto.ReplyTo = m.ReplyToID.UUID.String()
	}
	for _, r := range m.Reactions {
		dto.Reactions = append(dto.Reactions, ReactionDTO{
			UserID: r.UserID.String(),
			Type:   r.ReactionType,
		})
	}
	return dto
}

func ToMessageDTOs(messages []chat.Message) []MessageDTO {
	out := make([]MessageDTO, 0, len(messages))
	for _, m := range messages {
		out = append(out, ToMessageDTO(m))
	}
	return out
}
