package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type typingEdge struct {
	conversationID string
	userID         string
	typing         bool
}

type fakeTypingWriter struct {
	mu    sync.Mutex
	edges []typingEdge
}

func (w *fakeTypingWriter) SetTyping(ctx context.Context, conversationID, userID string, typing bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.edges = append(w.edges, typingEdge{conversationID, userID, typing})
	return nil
}

func (w *fakeTypingWriter) all() []typingEdge {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]typingEdge(nil), w.edges...)
}

func TestDebouncer_OnlyFirstKeystrokeWritesTypingEdge(t *testing.T) {
	writer := &fakeTypingWriter{}
	d := NewDebouncer(writer, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, d.Keystroke(ctx, "conv", "alice"))
	}

	edges := writer.all()
	require.Len(t, edges, 1)
	assert.Equal(t, typingEdge{"conv", "alice", true}, edges[0])
}

func TestDebouncer_DecaysToIdleAfterWindow(t *testing.T) {
	writer := &fakeTypingWriter{}
	d := NewDebouncer(writer, 20*time.Millisecond, nil)
	ctx := context.Background()

	require.NoError(t, d.Keystroke(ctx, "conv", "alice"))

	assert.Eventually(t, func() bool {
		edges := writer.all()
		return len(edges) == 2 && edges[1] == typingEdge{"conv", "alice", false}
	}, time.Second, 5*time.Millisecond)

	// Next keystroke starts a fresh Typing edge.
	require.NoError(t, d.Keystroke(ctx, "conv", "alice"))
	edges := writer.all()
	require.Len(t, edges, 3)
	assert.True(t, edges[2].typing)
}

func TestDebouncer_KeystrokeExtendsWindow(t *testing.T) {
	writer := &fakeTypingWriter{}
	d := NewDebouncer(writer, 50*time.Millisecond, nil)
	ctx := context.Background()

	require.NoError(t, d.Keystroke(ctx, "conv", "alice"))
	for i := 0; i < 4; i++ {
		time.Sleep(25 * time.Millisecond)
		require.NoError(t, d.Keystroke(ctx, "conv", "alice"))
	}

	// Well past the original window, but the timer kept resetting.
	assert.Len(t, writer.all(), 1)
}

type slowTypingWriter struct {
	fakeTypingWriter
	delay time.Duration
}

func (w *slowTypingWriter) SetTyping(ctx context.Context, conversationID, userID string, typing bool) error {
	if typing {
		time.Sleep(w.delay)
	}
	return w.fakeTypingWriter.SetTyping(ctx, conversationID, userID, typing)
}

func TestDebouncer_SlowTypingWriteStillPrecedesIdle(t *testing.T) {
	// The Typing write outlasts the idle window; the decay edge must not
	// overtake it.
	writer := &slowTypingWriter{delay: 60 * time.Millisecond}
	d := NewDebouncer(writer, 20*time.Millisecond, nil)
	ctx := context.Background()

	require.NoError(t, d.Keystroke(ctx, "conv", "alice"))

	assert.Eventually(t, func() bool {
		return len(writer.all()) == 2
	}, time.Second, 5*time.Millisecond)

	edges := writer.all()
	assert.Equal(t, typingEdge{"conv", "alice", true}, edges[0])
	assert.Equal(t, typingEdge{"conv", "alice", false}, edges[1])
}

func TestDebouncer_MessageSentForcesIdle(t *testing.T) {
	writer := &fakeTypingWriter{}
	d := NewDebouncer(writer, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, d.Keystroke(ctx, "conv", "alice"))
	require.NoError(t, d.MessageSent(ctx, "conv", "alice"))

	edges := writer.all()
	require.Len(t, edges, 2)
	assert.Equal(t, typingEdge{"conv", "alice", false}, edges[1])

	// Sending while already idle writes nothing.
	require.NoError(t, d.MessageSent(ctx, "conv", "alice"))
	assert.Len(t, writer.all(), 2)
}

func TestDebouncer_CloseResetsLiveStates(t *testing.T) {
	writer := &fakeTypingWriter{}
	d := NewDebouncer(writer, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, d.Keystroke(ctx, "conv", "alice"))
	require.NoError(t, d.Keystroke(ctx, "other", "alice"))

	d.Close(ctx)

	var idles int
	for _, edge := range writer.all() {
		if !edge.typing {
			idles++
		}
	}
	assert.Equal(t, 2, idles)

	// Closed debouncer drops further keystrokes.
	require.NoError(t, d.Keystroke(ctx, "conv", "alice"))
	assert.Len(t, writer.all(), 4)
}
