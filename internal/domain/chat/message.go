package chat

import (
	"time"

	"github.com/google/uuid"
)

// Message represents the messages table. ReplyToID must reference a message
// in the same conversation. Rows are never physically removed on delete;
// DeletedForEveryone plus DeletedAt form the shared tombstone, per-viewer
// hiding lives in message_hides.
type Message struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID     uuid.UUID `gorm:"type:uuid;not null;index"`
	SenderID           uuid.UUID `gorm:"type:uuid;not null"`
	Content            string
	ReplyToID          uuid.NullUUID `gorm:"type:uuid"`
	IsRead             bool
	DeletedForEveryone bool
	CreatedAt          time.Time
	DeletedAt          *time.Time

	// Relationships
	Reactions []MessageReaction `gorm:"foreignKey:MessageID"`
}

// MessageReaction represents the message_reactions table. The unique index
// on (message_id, user_id) enforces at most one reaction per user per message.
type MessageReaction struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	MessageID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reaction_once"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reaction_once"`
	ReactionType string
	CreatedAt    time.Time
}

// MessageHide represents the message_hides table: a per-viewer tombstone for
// delete-for-me. Hiding a message for one viewer never affects the peer.
type MessageHide struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	HiddenAt  time.Time
}

// Before returns true when m sorts before other in the conversation's total
// order: ascending created_at, ties broken by id.
func (m Message) Before(other Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID.String() < other.ID.String()
	}
	return m.CreatedAt.Before(other.CreatedAt)
}

func (Message) TableName() string {
	return "messages"
}

func (MessageReaction) TableName() string {
	return "message_reactions"
}

func (MessageHide) TableName() string {
	return "message_hides"
}
