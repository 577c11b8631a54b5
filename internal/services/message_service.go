package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"wavechat/internal/domain/chat"
	"wavechat/internal/events"
	"wavechat/internal/repository"
	wavechat_errors "wavechat/pkg/errors"
	"wavechat/pkg/logger"
)

// MessageService owns the durable message log: append, viewer-scoped listing,
// reactions, soft deletes and read-state transitions. Every mutation is
// published as a row-level event on the conversation's message topic.
type MessageService struct {
	messageRepo repository.MessageRepository
	convRepo    repository.ConversationRepository
	bus         events.Publisher
	log         *logger.Logger
}

func NewMessageService(messageRepo repository.MessageRepository, convRepo repository.ConversationRepository, bus events.Publisher, log *logger.Logger) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		convRepo:    convRepo,
		bus:         bus,
		log:         log,
	}
}

// Append stores a new message. Content must be non-empty after trimming and a
// reply target must belong to the same conversation.
func (s *MessageService) Append(ctx context.Context, conversationID, senderID uuid.UUID, content string, replyTo *uuid.UUID) (chat.Message, error) {
	if strings.TrimSpace(content) == "" {
		return chat.Message{}, wavechat_errors.ErrEmptyContent
	}
	if err := s.requireParticipant(ctx, conversationID, senderID); err != nil {
		return chat.Message{}, err
	}

	msg := chat.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}

	if replyTo != nil {
		parent, err := s.messageRepo.GetByID(ctx, *replyTo)
		if err != nil {
			if errors.Is(err, wavechat_errors.ErrNotFound) {
				return chat.Message{}, wavechat_errors.ErrReplyWrongConversation
			}
			return chat.Message{}, err
		}
		if parent.ConversationID != conversationID {
			return chat.Message{}, wavechat_errors.ErrReplyWrongConversation
		}
		msg.ReplyToID = uuid.NullUUID{UUID: *replyTo, Valid: true}
	}

	if err := s.messageRepo.Create(ctx, &msg); err != nil {
		return chat.Message{}, err
	}

	s.publish(ctx, conversationID, events.OpInsert, msg)
	return msg, nil
}

// List returns the viewer's ordered view of the conversation.
func (s *MessageService) List(ctx context.Context, conversationID, viewerID uuid.UUID) ([]chat.Message, error) {
	if err := s.requireParticipant(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListVisible(ctx, conversationID, viewerID)
}

// Latest returns the newest message the viewer can see, for conversation
// list previews.
func (s *MessageService) Latest(ctx context.Context, conversationID, viewerID uuid.UUID) (chat.Message, error) {
	if err := s.requireParticipant(ctx, conversationID, viewerID); err != nil {
		return chat.Message{}, err
	}
	return s.messageRepo.GetLatestVisible(ctx, conversationID, viewerID)
}

// DeleteForEveryone hides the message from both participants. Only the
// original sender may invoke it; the row stays for audit.
func (s *MessageService) DeleteForEveryone(ctx context.Context, messageID, actorID uuid.UUID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != actorID {
		return wavechat_errors.ErrDeleteUnauthorized
	}
	if msg.DeletedForEveryone {
		return nil
	}

	now := time.Now()
	if err := s.messageRepo.MarkDeletedForEveryone(ctx, messageID, now); err != nil {
		return err
	}

	msg.DeletedForEveryone = true
	msg.DeletedAt = &now
	s.publish(ctx, msg.ConversationID, events.OpDelete, msg)
	return nil
}

// DeleteForMe tombstones the message for the acting participant only. The
// peer's view is untouched, so no event goes out beyond the actor's own
// reconciliation pass.
func (s *MessageService) DeleteForMe(ctx context.Context, messageID, actorID uuid.UUID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.requireParticipant(ctx, msg.ConversationID, actorID); err != nil {
		return err
	}
	return s.messageRepo.HideForUser(ctx, messageID, actorID)
}

// ToggleReaction adds the user's reaction to a message, or removes it when
// one already exists. Check-then-act: a concurrent double toggle can race,
// the unique index on (message_id, user_id) caps the damage at one row.
func (s *MessageService) ToggleReaction(ctx context.Context, messageID, userID uuid.UUID, reactionType string) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.requireParticipant(ctx, msg.ConversationID, userID); err != nil {
		return err
	}

	_, err = s.messageRepo.GetUserReaction(ctx, messageID, userID)
	switch {
	case err == nil:
		if err := s.messageRepo.RemoveReaction(ctx, messageID, userID); err != nil &&
			!errors.Is(err, wavechat_errors.ErrNotFound) {
			return err
		}
	case errors.Is(err, wavechat_errors.ErrNotFound):
		reaction := &chat.MessageReaction{
			ID:           uuid.New(),
			MessageID:    messageID,
			UserID:       userID,
			ReactionType: reactionType,
			CreatedAt:    time.Now(),
		}
		if err := s.messageRepo.AddReaction(ctx, reaction); err != nil &&
			!errors.Is(err, wavechat_errors.ErrAlreadyExists) {
			return err
		}
	default:
		return err
	}

	updated, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	s.publish(ctx, updated.ConversationID, events.OpUpdate, updated)
	return nil
}

// MarkRead flips is_read on every unread message from the peer and stamps the
// reader's last_read_at. is_read is monotonic: nothing ever clears it.
func (s *MessageService) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	if err := s.requireParticipant(ctx, conversationID, readerID); err != nil {
		return err
	}

	updated, err := s.messageRepo.MarkConversationRead(ctx, conversationID, readerID)
	if err != nil {
		return err
	}
	if err := s.convRepo.UpdateLastReadAt(ctx, conversationID, readerID, time.Now()); err != nil {
		return err
	}

	for _, msg := range updated {
		s.publish(ctx, conversationID, events.OpUpdate, msg)
	}
	return nil
}

func (s *MessageService) requireParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	ok, err := s.convRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return wavechat_errors.ErrNotParticipant
	}
	return nil
}

func (s *MessageService) publish(ctx context.Context, conversationID uuid.UUID, op events.Operation, msg chat.Message) {
	if s.bus == nil {
		return
	}
	event, err := events.New(events.KindMessage, op, msg)
	if err != nil {
		if s.log != nil {
			s.log.Errorf("failed to build message event: %v", err)
		}
		return
	}
	if err := s.bus.Publish(ctx, events.MessageTopic(conversationID.String()), event); err != nil && s.log != nil {
		s.log.Errorf("failed to publish message event for %s: %v", conversationID, err)
	}
}
