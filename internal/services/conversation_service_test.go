package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wavechat/internal/domain/chat"
	wavechat_errors "wavechat/pkg/errors"
)

func TestResolveOrCreate_CreatesOncePerPair(t *testing.T) {
	repo := newFakeConversationRepository()
	service := NewConversationService(nil, repo, nil)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()

	first, err := service.ResolveOrCreate(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, first.HasParticipant(alice))
	assert.True(t, first.HasParticipant(bob))
	assert.Len(t, first.Participants, 2)

	second, err := service.ResolveOrCreate(ctx, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.conversations, 1)
}

func TestResolveOrCreate_PairIsSymmetric(t *testing.T) {
	repo := newFakeConversationRepository()
	service := NewConversationService(nil, repo, nil)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()

	fromAlice, err := service.ResolveOrCreate(ctx, alice, bob)
	require.NoError(t, err)

	fromBob, err := service.ResolveOrCreate(ctx, bob, alice)
	require.NoError(t, err)

	assert.Equal(t, fromAlice.ID, fromBob.ID)

	low, high := chat.CanonicalPair(alice, bob)
	assert.Equal(t, low, fromAlice.UserLow)
	assert.Equal(t, high, fromAlice.UserHigh)
}

func TestResolveOrCreate_RejectsSelfAndNil(t *testing.T) {
	repo := newFakeConversationRepository()
	service := NewConversationService(nil, repo, nil)
	ctx := context.Background()

	user := uuid.New()

	_, err := service.ResolveOrCreate(ctx, user, user)
	assert.ErrorIs(t, err, wavechat_errors.ErrSelfConversation)

	_, err = service.ResolveOrCreate(ctx, user, uuid.Nil)
	assert.ErrorIs(t, err, wavechat_errors.ErrInvalidInput)

	assert.Empty(t, repo.conversations)
}

func TestResolveOrCreate_LoserOfCreationRaceGetsWinnerRow(t *testing.T) {
	repo := newFakeConversationRepository()
	service := NewConversationService(nil, repo, nil)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	low, high := chat.CanonicalPair(alice, bob)

	// The competing request commits between our lookup and our insert.
	winner := chat.Conversation{ID: uuid.New(), UserLow: low, UserHigh: high, CreatedAt: time.Now()}
	repo.onCreate = func() {
		repo.mu.Lock()
		repo.conversations[winner.ID] = winner
		repo.mu.Unlock()
	}

	resolved, err := service.ResolveOrCreate(ctx, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, resolved.ID)
	assert.Len(t, repo.conversations, 1)
}

func TestGet_RequiresParticipant(t *testing.T) {
	repo := newFakeConversationRepository()
	service := NewConversationService(nil, repo, nil)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	conv := seedConversation(repo, alice, bob)

	got, err := service.Get(ctx, conv.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)

	_, err = service.Get(ctx, conv.ID, uuid.New())
	assert.ErrorIs(t, err, wavechat_errors.ErrNotParticipant)

	_, err = service.Get(ctx, uuid.New(), alice)
	assert.ErrorIs(t, err, wavechat_errors.ErrNotFound)
}

func TestListForUser_OnlyOwnConversations(t *testing.T) {
	repo := newFakeConversationRepository()
	service := NewConversationService(nil, repo, nil)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()
	seedConversation(repo, alice, bob)
	seedConversation(repo, bob, carol)

	conversations, total, err := service.ListForUser(ctx, alice, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, conversations, 1)
	assert.True(t, conversations[0].HasParticipant(alice))
}
