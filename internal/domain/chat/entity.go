package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Conversation represents the conversations table. A conversation links
// exactly two participants; UserLow/UserHigh hold the canonical sorted pair
// so the unique index makes duplicate pairs impossible at the store layer.
type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserLow   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair"`
	UserHigh  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair"`
	CreatedAt time.Time

	// Relationships
	Participants []Participant `gorm:"foreignKey:ConversationID"`
}

// Participant represents the conversation_participants table. One row per
// (conversation, participant); only the owning participant's session writes
// its presence fields.
type Participant struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	JoinedAt       time.Time
	LastReadAt     *time.Time
}

// CanonicalPair returns the unordered pair (a, b) in its canonical sorted
// order, so that both sides of a pair always address the same row.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(a.String(), b.String()) <= 0 {
		return a, b
	}
	return b, a
}

// PeerOf returns the other participant of a two-party conversation.
func (c Conversation) PeerOf(userID uuid.UUID) uuid.UUID {
	if c.UserLow == userID {
		return c.UserHigh
	}
	return c.UserLow
}

// HasParticipant reports whether userID is one of the two participants.
func (c Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.UserLow == userID || c.UserHigh == userID
}

func (Conversation) TableName() string {
	return "conversations"
}

func (Participant) TableName() string {
	return "conversation_participants"
}
