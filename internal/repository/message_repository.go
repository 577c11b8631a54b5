package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wavechat/internal/domain/chat"
	wavechat_errors "wavechat/pkg/errors"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *chat.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return wavechat_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (chat.Message, error) {
	var m chat.Message
	err := r.db.WithContext(ctx).
		Preload("Reactions").
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Message{}, wavechat_errors.ErrNotFound
		}
		return chat.Message{}, err
	}
	return m, nil
}

// ListVisible returns the viewer's ordered view of a conversation: rows
// deleted for everyone and rows tombstoned for this viewer are excluded,
// ordering is created_at ascending with id as tiebreak.
func (r *PostgresMessageRepository) ListVisible(ctx context.Context, conversationID, viewerID uuid.UUID) ([]chat.Message, error) {
	var messages []chat.Message

	hidden := r.db.Model(&chat.MessageHide{}).
		Select("message_id").
		Where("user_id = ?", viewerID)

	err := r.db.WithContext(ctx).
		Preload("Reactions").
		Where("conversation_id = ? AND deleted_for_everyone = false AND id NOT IN (?)",
			conversationID, hidden).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PostgresMessageRepository) GetLatestVisible(ctx context.Context, conversationID, viewerID uuid.UUID) (chat.Message, error) {
	var m chat.Message

	hidden := r.db.Model(&chat.MessageHide{}).
		Select("message_id").
		Where("user_id = ?", viewerID)

	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND deleted_for_everyone = false AND id NOT IN (?)",
			conversationID, hidden).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Message{}, wavechat_errors.ErrNotFound
		}
		return chat.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) MarkDeletedForEveryone(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_for_everyone": true,
			"deleted_at":           at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return wavechat_errors.ErrNotFound
	}
	return nil
}

// HideForUser records a per-viewer tombstone. Idempotent: hiding the same
// message twice is not an error.
func (r *PostgresMessageRepository) HideForUser(ctx context.Context, messageID, userID uuid.UUID) error {
	hide := chat.MessageHide{MessageID: messageID, UserID: userID, HiddenAt: time.Now()}
	res := r.db.WithContext(ctx).Create(&hide)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) AddReaction(ctx context.Context, reaction *chat.MessageReaction) error {
	res := r.db.WithContext(ctx).Create(reaction)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return wavechat_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) RemoveReaction(ctx context.Context, messageID, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Delete(&chat.MessageReaction{}, "message_id = ? AND user_id = ?", messageID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return wavechat_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) GetUserReaction(ctx context.Context, messageID, userID uuid.UUID) (chat.MessageReaction, error) {
	var reaction chat.MessageReaction
	err := r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		First(&reaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.MessageReaction{}, wavechat_errors.ErrNotFound
		}
		return chat.MessageReaction{}, err
	}
	return reaction, nil
}

func (r *PostgresMessageRepository) GetMessageReactions(ctx context.Context, messageID uuid.UUID) ([]chat.MessageReaction, error) {
	var reactions []chat.MessageReaction
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	return reactions, nil
}

// MarkConversationRead flips is_read on every unread message the reader did
// not send and returns the updated rows. The filter on is_read keeps the flag
// monotonic: rows already read are untouched.
func (r *PostgresMessageRepository) MarkConversationRead(ctx context.Context, conversationID, readerID uuid.UUID) ([]chat.Message, error) {
	var updated []chat.Message
	res := r.db.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{}).
		Where("conversation_id = ? AND sender_id != ? AND is_read = false AND deleted_for_everyone = false",
			conversationID, readerID).
		Update("is_read", true)
	if res.Error != nil {
		return nil, res.Error
	}
	return updated, nil
}
