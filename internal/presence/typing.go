package presence

import (
	"context"
	"sync"
	"time"

	"wavechat/pkg/logger"
)

// TypingWriter receives typing state edges. Implemented by Store; tests plug
// in a fake.
type TypingWriter interface {
	SetTyping(ctx context.Context, conversationID, userID string, typing bool) error
}

type typingKey struct {
	conversationID string
	userID         string
}

// Debouncer is the typing state machine for the participants of one session.
// Idle -> Typing on the first keystroke, Typing -> Idle after the idle window
// with no keystrokes or immediately on send. Only the two edges are written
// through the TypingWriter; intermediate keystrokes merely reset the local
// timer.
type Debouncer struct {
	writer TypingWriter
	idle   time.Duration
	log    *logger.Logger

	mu     sync.Mutex
	timers map[typingKey]*time.Timer
	closed bool
}

func NewDebouncer(writer TypingWriter, idle time.Duration, log *logger.Logger) *Debouncer {
	if idle <= 0 {
		idle = 2 * time.Second
	}
	return &Debouncer{
		writer: writer,
		idle:   idle,
		log:    log,
		timers: make(map[typingKey]*time.Timer),
	}
}

// Keystroke registers typing activity. The first keystroke writes the Typing
// edge; subsequent ones only reset the decay timer.
//
// All edge writes happen under the mutex so they reach the store in state
// machine order: a decay timer firing mid-write blocks until the Typing edge
// has landed, instead of publishing the Idle edge first.
func (d *Debouncer) Keystroke(ctx context.Context, conversationID, userID string) error {
	key := typingKey{conversationID, userID}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	if timer, ok := d.timers[key]; ok {
		timer.Reset(d.idle)
		return nil
	}

	if err := d.writer.SetTyping(ctx, conversationID, userID, true); err != nil {
		return err
	}
	d.timers[key] = time.AfterFunc(d.idle, func() { d.expire(key) })
	return nil
}

// MessageSent forces the immediate Typing -> Idle transition after a send.
func (d *Debouncer) MessageSent(ctx context.Context, conversationID, userID string) error {
	key := typingKey{conversationID, userID}

	d.mu.Lock()
	defer d.mu.Unlock()
	timer, ok := d.timers[key]
	if !ok {
		return nil
	}
	timer.Stop()
	delete(d.timers, key)

	return d.writer.SetTyping(ctx, conversationID, userID, false)
}

func (d *Debouncer) expire(key typingKey) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.timers[key]; !ok {
		return
	}
	delete(d.timers, key)

	if err := d.writer.SetTyping(context.Background(), key.conversationID, key.userID, false); err != nil && d.log != nil {
		d.log.Errorf("failed to write typing idle edge for %s/%s: %v", key.conversationID, key.userID, err)
	}
}

// Close force-resets every live Typing state to Idle. At-least-once cleanup:
// the peer's indicator must not stick after a disconnect, so the Idle edge is
// written even if the decay timer already raced us.
func (d *Debouncer) Close(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for key, timer := range d.timers {
		timer.Stop()
		if err := d.writer.SetTyping(ctx, key.conversationID, key.userID, false); err != nil && d.log != nil {
			d.log.Errorf("failed to reset typing state for %s/%s on teardown: %v", key.conversationID, key.userID, err)
		}
	}
	d.timers = make(map[typingKey]*time.Timer)
}
