package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wavechat/internal/domain/chat"
	"wavechat/internal/repository"
	wavechat_errors "wavechat/pkg/errors"
	"wavechat/pkg/logger"
)

// ConversationService is the conversation directory: it resolves or lazily
// creates the single conversation between two participants.
type ConversationService struct {
	db   *gorm.DB
	repo repository.ConversationRepository
	log  *logger.Logger
}

func NewConversationService(db *gorm.DB, repo repository.ConversationRepository, log *logger.Logger) *ConversationService {
	return &ConversationService{db: db, repo: repo, log: log}
}

// ResolveOrCreate returns the existing conversation between the two users or
// creates it together with both participant rows. The unique index on the
// canonical sorted pair decides creation races: the losing creator gets a
// duplicate-key error and falls back to the lookup.
func (s *ConversationService) ResolveOrCreate(ctx context.Context, userA, userB uuid.UUID) (chat.Conversation, error) {
	if userA == uuid.Nil || userB == uuid.Nil {
		return chat.Conversation{}, wavechat_errors.ErrInvalidInput
	}
	if userA == userB {
		return chat.Conversation{}, wavechat_errors.ErrSelfConversation
	}

	low, high := chat.CanonicalPair(userA, userB)

	existing, err := s.repo.GetByPair(ctx, low, high)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, wavechat_errors.ErrNotFound) {
		return chat.Conversation{}, fmt.Errorf("conversation lookup failed: %w", err)
	}

	created, err := s.create(ctx, low, high)
	if err == nil {
		return created, nil
	}
	if errors.Is(err, wavechat_errors.ErrAlreadyExists) {
		// Lost the creation race: the other side committed first.
		return s.repo.GetByPair(ctx, low, high)
	}
	return chat.Conversation{}, fmt.Errorf("conversation create failed: %w", err)
}

func (s *ConversationService) create(ctx context.Context, low, high uuid.UUID) (chat.Conversation, error) {
	now := time.Now()
	conv := chat.Conversation{
		ID:        uuid.New(),
		UserLow:   low,
		UserHigh:  high,
		CreatedAt: now,
	}

	run := func(repo repository.ConversationRepository) error {
		if err := repo.Create(ctx, &conv); err != nil {
			return err
		}
		for _, userID := range []uuid.UUID{low, high} {
			p := &chat.Participant{
				ConversationID: conv.ID,
				UserID:         userID,
				JoinedAt:       now,
			}
			if err := repo.AddParticipant(ctx, p); err != nil {
				return err
			}
			conv.Participants = append(conv.Participants, *p)
		}
		return nil
	}

	var err error
	if s.db != nil {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return run(repository.NewConversationRepository(tx))
		})
	} else {
		err = run(s.repo)
	}
	if err != nil {
		return chat.Conversation{}, err
	}

	if s.log != nil {
		s.log.Infof("conversation %s created for pair (%s, %s)", conv.ID, low, high)
	}
	return conv, nil
}

// Get returns a conversation the caller participates in.
func (s *ConversationService) Get(ctx context.Context, conversationID, callerID uuid.UUID) (chat.Conversation, error) {
	conv, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		return chat.Conversation{}, err
	}
	if !conv.HasParticipant(callerID) {
		return chat.Conversation{}, wavechat_errors.ErrNotParticipant
	}
	return conv, nil
}

// ListForUser returns the caller's conversations, newest first.
func (s *ConversationService) ListForUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]chat.Conversation, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}
	return s.repo.GetUserConversations(ctx, userID, page, limit)
}
