package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wavechat/internal/domain/chat"
)

type ConversationRepository interface {
	Create(ctx context.Context, c *chat.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (chat.Conversation, error)
	GetByPair(ctx context.Context, userLow, userHigh uuid.UUID) (chat.Conversation, error)
	GetUserConversations(ctx context.Context, userID uuid.UUID, page, limit int) ([]chat.Conversation, int64, error)

	AddParticipant(ctx context.Context, p *chat.Participant) error
	GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (chat.Participant, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	UpdateLastReadAt(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *chat.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (chat.Message, error)
	ListVisible(ctx context.Context, conversationID, viewerID uuid.UUID) ([]chat.Message, error)
	GetLatestVisible(ctx context.Context, conversationID, viewerID uuid.UUID) (chat.Message, error)

	MarkDeletedForEveryone(ctx context.Context, id uuid.UUID, at time.Time) error
	HideForUser(ctx context.Context, messageID, userID uuid.UUID) error

	AddReaction(ctx context.Context, r *chat.MessageReaction) error
	RemoveReaction(ctx context.Context, messageID, userID uuid.UUID) error
	GetUserReaction(ctx context.Context, messageID, userID uuid.UUID) (chat.MessageReaction, error)
	GetMessageReactions(ctx context.Context, messageID uuid.UUID) ([]chat.MessageReaction, error)

	MarkConversationRead(ctx context.Context, conversationID, readerID uuid.UUID) ([]chat.Message, error)
}
