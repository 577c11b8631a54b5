package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"wavechat/internal/domain/chat"
	"wavechat/internal/events"
	wavechat_errors "wavechat/pkg/errors"
)

type reactionKey struct {
	messageID uuid.UUID
	userID    uuid.UUID
}

type hideKey struct {
	messageID uuid.UUID
	userID    uuid.UUID
}

// fakeConversationRepository is an in-memory ConversationRepository enforcing
// the same uniqueness rules as the Postgres schema.
type fakeConversationRepository struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]chat.Conversation
	participants  map[uuid.UUID][]chat.Participant

	// onCreate runs inside Create before the uniqueness check, letting tests
	// interleave a competing insert.
	onCreate func()
}

func newFakeConversationRepository() *fakeConversationRepository {
	return &fakeConversationRepository{
		conversations: make(map[uuid.UUID]chat.Conversation),
		participants:  make(map[uuid.UUID][]chat.Participant),
	}
}

func (r *fakeConversationRepository) Create(ctx context.Context, c *chat.Conversation) error {
	if r.onCreate != nil {
		hook := r.onCreate
		r.onCreate = nil
		hook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.conversations {
		if existing.UserLow == c.UserLow && existing.UserHigh == c.UserHigh {
			return wavechat_errors.ErrAlreadyExists
		}
	}
	r.conversations[c.ID] = *c
	return nil
}

func (r *fakeConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return chat.Conversation{}, wavechat_errors.ErrNotFound
	}
	c.Participants = append([]chat.Participant(nil), r.participants[id]...)
	return c, nil
}

func (r *fakeConversationRepository) GetByPair(ctx context.Context, userLow, userHigh uuid.UUID) (chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if c.UserLow == userLow && c.UserHigh == userHigh {
			c.Participants = append([]chat.Participant(nil), r.participants[c.ID]...)
			return c, nil
		}
	}
	return chat.Conversation{}, wavechat_errors.ErrNotFound
}

func (r *fakeConversationRepository) GetUserConversations(ctx context.Context, userID uuid.UUID, page, limit int) ([]chat.Conversation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chat.Conversation
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			c.Participants = append([]chat.Participant(nil), r.participants[c.ID]...)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, int64(len(out)), nil
}

func (r *fakeConversationRepository) AddParticipant(ctx context.Context, p *chat.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.participants[p.ConversationID] {
		if existing.UserID == p.UserID {
			return wavechat_errors.ErrAlreadyExists
		}
	}
	r.participants[p.ConversationID] = append(r.participants[p.ConversationID], *p)
	return nil
}

func (r *fakeConversationRepository) GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (chat.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants[conversationID] {
		if p.UserID == userID {
			return p, nil
		}
	}
	return chat.Participant{}, wavechat_errors.ErrNotFound
}

func (r *fakeConversationRepository) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants[conversationID] {
		if p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeConversationRepository) UpdateLastReadAt(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.participants[conversationID] {
		if p.UserID == userID {
			stamped := at
			r.participants[conversationID][i].LastReadAt = &stamped
			return nil
		}
	}
	return wavechat_errors.ErrNotFound
}

// fakeMessageRepository is an in-memory MessageRepository mirroring the
// visibility rules of the Postgres queries.
type fakeMessageRepository struct {
	mu        sync.Mutex
	messages  map[uuid.UUID]chat.Message
	hides     map[hideKey]time.Time
	reactions map[reactionKey]chat.MessageReaction
}

func newFakeMessageRepository() *fakeMessageRepository {
	return &fakeMessageRepository{
		messages:  make(map[uuid.UUID]chat.Message),
		hides:     make(map[hideKey]time.Time),
		reactions: make(map[reactionKey]chat.MessageReaction),
	}
}

func (r *fakeMessageRepository) Create(ctx context.Context, m *chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[m.ID]; ok {
		return wavechat_errors.ErrAlreadyExists
	}
	r.messages[m.ID] = *m
	return nil
}

func (r *fakeMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return chat.Message{}, wavechat_errors.ErrNotFound
	}
	m.Reactions = r.reactionsOf(id)
	return m, nil
}

func (r *fakeMessageRepository) ListVisible(ctx context.Context, conversationID, viewerID uuid.UUID) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chat.Message
	for _, m := range r.messages {
		if m.ConversationID != conversationID || m.DeletedForEveryone {
			continue
		}
		if _, hidden := r.hides[hideKey{m.ID, viewerID}]; hidden {
			continue
		}
		m.Reactions = r.reactionsOf(m.ID)
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Before(out[j])
	})
	return out, nil
}

func (r *fakeMessageRepository) GetLatestVisible(ctx context.Context, conversationID, viewerID uuid.UUID) (chat.Message, error) {
	visible, err := r.ListVisible(ctx, conversationID, viewerID)
	if err != nil {
		return chat.Message{}, err
	}
	if len(visible) == 0 {
		return chat.Message{}, wavechat_errors.ErrNotFound
	}
	return visible[len(visible)-1], nil
}

func (r *fakeMessageRepository) MarkDeletedForEveryone(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return wavechat_errors.ErrNotFound
	}
	m.DeletedForEveryone = true
	stamped := at
	m.DeletedAt = &stamped
	r.messages[id] = m
	return nil
}

func (r *fakeMessageRepository) HideForUser(ctx context.Context, messageID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[messageID]; !ok {
		return wavechat_errors.ErrNotFound
	}
	r.hides[hideKey{messageID, userID}] = time.Now()
	return nil
}

func (r *fakeMessageRepository) AddReaction(ctx context.Context, reaction *chat.MessageReaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := reactionKey{reaction.MessageID, reaction.UserID}
	if _, ok := r.reactions[key]; ok {
		return wavechat_errors.ErrAlreadyExists
	}
	r.reactions[key] = *reaction
	return nil
}

func (r *fakeMessageRepository) RemoveReaction(ctx context.Context, messageID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := reactionKey{messageID, userID}
	if _, ok := r.reactions[key]; !ok {
		return wavechat_errors.ErrNotFound
	}
	delete(r.reactions, key)
	return nil
}

func (r *fakeMessageRepository) GetUserReaction(ctx context.Context, messageID, userID uuid.UUID) (chat.MessageReaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reaction, ok := r.reactions[reactionKey{messageID, userID}]
	if !ok {
		return chat.MessageReaction{}, wavechat_errors.ErrNotFound
	}
	return reaction, nil
}

func (r *fakeMessageRepository) GetMessageReactions(ctx context.Context, messageID uuid.UUID) ([]chat.MessageReaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reactionsOf(messageID), nil
}

func (r *fakeMessageRepository) MarkConversationRead(ctx context.Context, conversationID, readerID uuid.UUID) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated []chat.Message
	for id, m := range r.messages {
		if m.ConversationID != conversationID || m.SenderID == readerID || m.IsRead || m.DeletedForEveryone {
			continue
		}
		m.IsRead = true
		r.messages[id] = m
		updated = append(updated, m)
	}
	sort.Slice(updated, func(i, j int) bool {
		return updated[i].Before(updated[j])
	})
	return updated, nil
}

// reactionsOf must be called with r.mu held.
func (r *fakeMessageRepository) reactionsOf(messageID uuid.UUID) []chat.MessageReaction {
	var out []chat.MessageReaction
	for key, reaction := range r.reactions {
		if key.messageID == messageID {
			out = append(out, reaction)
		}
	}
	return out
}

type publishedEvent struct {
	topic string
	event events.Event
}

// capturingBus records published events in order.
type capturingBus struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (b *capturingBus) Publish(ctx context.Context, topic string, event events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{topic: topic, event: event})
	return nil
}

func (b *capturingBus) all() []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]publishedEvent(nil), b.events...)
}

func seedConversation(repo *fakeConversationRepository, userA, userB uuid.UUID) chat.Conversation {
	low, high := chat.CanonicalPair(userA, userB)
	conv := chat.Conversation{
		ID:        uuid.New(),
		UserLow:   low,
		UserHigh:  high,
		CreatedAt: time.Now(),
	}
	repo.conversations[conv.ID] = conv
	for _, userID := range []uuid.UUID{low, high} {
		repo.participants[conv.ID] = append(repo.participants[conv.ID], chat.Participant{
			ConversationID: conv.ID,
			UserID:         userID,
			JoinedAt:       conv.CreatedAt,
		})
	}
	return conv
}
