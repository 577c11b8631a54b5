package httpdto

import (
	"time"

	"wavechat/internal/domain/chat"
)

// OpenConversationRequest is used for POST /conversations
type OpenConversationRequest struct {
	PeerID string `json:"peer_id" binding:"required"`
}

// ConversationDTO represents a conversation in API responses
type ConversationDTO struct {
	ID           string           `json:"id"`
	Participants []ParticipantDTO `json:"participants"`
	LastMessage  *MessageDTO      `json:"last_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// ParticipantDTO represents one conversation participant
type ParticipantDTO struct {
	UserID      string     `json:"user_id"`
	DisplayName string     `json:"display_name,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	LastReadAt  *time.Time `json:"last_read_at,omitempty"`
}

// ConversationListResponse is returned when listing conversations
type ConversationListResponse struct {
	Conversations []ConversationDTO `json:"conversations"`
	Total         int64             `json:"total"`
}

func ToConversationDTO(c chat.Conversation) ConversationDTO {
	dto := ConversationDTO{
		ID:        c.ID.String(),
		CreatedAt: c.CreatedAt,
	}
	for _, p := range c.Participants {
		dto.Participants = append(dto.Participants, ParticipantDTO{
			UserID:     p.UserID.String(),
			LastReadAt: p.LastReadAt,
		})
	}
	return dto
}
