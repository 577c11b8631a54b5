package presence

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"wavechat/internal/events"
)

// Redis key prefixes for presence
const (
	presenceKeyPrefix = "presence:"       // JSON status per user, TTL'd
	presenceOnlineSet = "presence:online" // Set of online user IDs
	typingKeyPrefix   = "typing:"         // Set of typing user IDs per conversation

	// Safety net: if the Idle edge is lost the set member still expires.
	typingTTL = 10 * time.Second

	// Offline status kept around so "last seen N ago" works across restarts.
	offlineRetention = 24 * time.Hour
)

// Store tracks ephemeral presence in Redis: a global online/last-seen status
// per user and a typing set per conversation. Every transition is published
// to the corresponding topic.
type Store struct {
	client *goredis.Client
	bus    events.Publisher
	ttl    time.Duration
}

func NewStore(client *goredis.Client, bus events.Publisher, ttl time.Duration) *Store {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &Store{client: client, bus: bus, ttl: ttl}
}

// SetOnline marks a user online. Presence is scoped per user, not per
// conversation.
func (s *Store) SetOnline(ctx context.Context, userID string) error {
	now := time.Now()
	status := Status{UserID: userID, IsOnline: true, LastSeen: now}

	data, err := json.Marshal(status)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, presenceKeyPrefix+userID, data, s.ttl)
	pipe.SAdd(ctx, presenceOnlineSet, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	return s.publishPresence(ctx, status)
}

// SetOffline marks a user offline, stamping last_seen for display.
func (s *Store) SetOffline(ctx context.Context, userID string, lastSeen time.Time) error {
	status := Status{UserID: userID, IsOnline: false, LastSeen: lastSeen}

	data, err := json.Marshal(status)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, presenceKeyPrefix+userID, data, offlineRetention)
	pipe.SRem(ctx, presenceOnlineSet, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	return s.publishPresence(ctx, status)
}

// Heartbeat refreshes the online TTL without publishing a transition.
func (s *Store) Heartbeat(ctx context.Context, userID string) error {
	return s.client.Expire(ctx, presenceKeyPrefix+userID, s.ttl).Err()
}

// Get returns the user's presence; unknown users read as offline.
func (s *Store) Get(ctx context.Context, userID string) (Status, error) {
	data, err := s.client.Get(ctx, presenceKeyPrefix+userID).Result()
	if err == goredis.Nil {
		return Status{UserID: userID, IsOnline: false}, nil
	}
	if err != nil {
		return Status{}, err
	}

	var status Status
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return Status{}, err
	}
	return status, nil
}

// IsOnline checks membership in the online set.
func (s *Store) IsOnline(ctx context.Context, userID string) (bool, error) {
	return s.client.SIsMember(ctx, presenceOnlineSet, userID).Result()
}

// SetTyping writes one typing edge for (conversation, user) and publishes it.
// Callers go through the Debouncer so only state edges reach this method,
// never per-keystroke writes.
func (s *Store) SetTyping(ctx context.Context, conversationID, userID string, typing bool) error {
	key := typingKeyPrefix + conversationID

	if typing {
		pipe := s.client.Pipeline()
		pipe.SAdd(ctx, key, userID)
		pipe.Expire(ctx, key, typingTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
	} else {
		if err := s.client.SRem(ctx, key, userID).Err(); err != nil {
			return err
		}
	}

	state := TypingState{
		ConversationID: conversationID,
		UserID:         userID,
		IsTyping:       typing,
		At:             time.Now(),
	}
	op := events.OpInsert
	if !typing {
		op = events.OpDelete
	}
	return s.publishTyping(ctx, op, state)
}

// TypingUsers returns users currently typing in a conversation.
func (s *Store) TypingUsers(ctx context.Context, conversationID string) ([]string, error) {
	return s.client.SMembers(ctx, typingKeyPrefix+conversationID).Result()
}

func (s *Store) publishPresence(ctx context.Context, status Status) error {
	if s.bus == nil {
		return nil
	}
	event, err := events.New(events.KindPresence, events.OpUpdate, status)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, events.PresenceTopic(status.UserID), event)
}

func (s *Store) publishTyping(ctx context.Context, op events.Operation, state TypingState) error {
	if s.bus == nil {
		return nil
	}
	event, err := events.New(events.KindTyping, op, state)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, events.TypingTopic(state.ConversationID), event)
}
