package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"wavechat/internal/domain/chat"
	"wavechat/internal/events"
	"wavechat/internal/presence"
	"wavechat/pkg/logger"
)

// MessageLister is the read side the session reloads from; implemented by
// services.MessageService.
type MessageLister interface {
	List(ctx context.Context, conversationID, viewerID uuid.UUID) ([]chat.Message, error)
}

// Update is one reconciliation step pushed to the session consumer. Either
// Event carries the merged change event, or Reloaded reports that the whole
// message state was replaced after a subscription resync.
type Update struct {
	Event    *events.Event
	Reloaded bool
}

// Session is the live view of one conversation for one participant. It owns
// the message and typing subscriptions, the reconciliation index and the
// typing debouncer; Close releases all of them and runs on every exit path.
type Session struct {
	ConversationID uuid.UUID
	UserID         uuid.UUID

	lister  MessageLister
	typing  *presence.Debouncer
	index   *MessageIndex
	msgSub  *events.Subscription
	typSub  *events.Subscription
	updates chan Update
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
	log     *logger.Logger
}

// Open establishes the two topic subscriptions, seeds the index with a full
// list and starts the reconciliation loop. Any failure on the way releases
// whatever was already acquired.
func Open(ctx context.Context, bus events.Subscriber, lister MessageLister, typingWriter presence.TypingWriter, typingIdle time.Duration, conversationID, userID uuid.UUID, log *logger.Logger) (*Session, error) {
	sessCtx, cancel := context.WithCancel(ctx)

	msgSub, err := bus.Subscribe(sessCtx, events.MessageTopic(conversationID.String()))
	if err != nil {
		cancel()
		return nil, err
	}
	typSub, err := bus.Subscribe(sessCtx, events.TypingTopic(conversationID.String()))
	if err != nil {
		msgSub.Close()
		cancel()
		return nil, err
	}

	index := NewMessageIndex()
	initial, err := lister.List(sessCtx, conversationID, userID)
	if err != nil {
		msgSub.Close()
		typSub.Close()
		cancel()
		return nil, err
	}
	index.Reset(initial)

	s := &Session{
		ConversationID: conversationID,
		UserID:         userID,
		lister:         lister,
		typing:         presence.NewDebouncer(typingWriter, typingIdle, log),
		index:          index,
		msgSub:         msgSub,
		typSub:         typSub,
		updates:        make(chan Update, 64),
		cancel:         cancel,
		done:           make(chan struct{}),
		log:            log,
	}

	go s.run(sessCtx)
	return s, nil
}

// Updates streams reconciliation steps to the consumer. Closed when the
// session ends.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// Messages returns the current ordered view.
func (s *Session) Messages() []chat.Message {
	return s.index.Snapshot()
}

// Keystroke reports typing activity to the debouncer.
func (s *Session) Keystroke(ctx context.Context) error {
	return s.typing.Keystroke(ctx, s.ConversationID.String(), s.UserID.String())
}

// MessageSent forces the immediate typing Idle edge after a send.
func (s *Session) MessageSent(ctx context.Context) error {
	return s.typing.MessageSent(ctx, s.ConversationID.String(), s.UserID.String())
}

// Close tears the session down: cancels the reconciliation loop, releases
// both subscriptions and force-resets any live typing state. Idempotent.
func (s *Session) Close() {
	s.once.Do(func() {
		s.cancel()
		s.msgSub.Close()
		s.typSub.Close()
		<-s.done
		s.typing.Close(context.Background())
	})
}

func (s *Session) run(ctx context.Context) {
	defer close(s.updates)
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-s.msgSub.Events:
			if !ok {
				return
			}
			if err := s.index.Apply(event); err != nil {
				if s.log != nil {
					s.log.Errorf("failed to apply message event in %s: %v", s.ConversationID, err)
				}
				continue
			}
			s.push(ctx, Update{Event: &event})

		case <-s.msgSub.Resync:
			// Events may have been missed in the gap: a foreground reload
			// replaces the index wholesale.
			s.reload(ctx)

		case event, ok := <-s.typSub.Events:
			if !ok {
				return
			}
			s.push(ctx, Update{Event: &event})
		}
	}
}

func (s *Session) reload(ctx context.Context) {
	messages, err := s.lister.List(ctx, s.ConversationID, s.UserID)
	if err != nil {
		if s.log != nil {
			s.log.Errorf("resync reload failed for %s: %v", s.ConversationID, err)
		}
		return
	}
	s.index.Reset(messages)
	s.push(ctx, Update{Reloaded: true})
}

func (s *Session) push(ctx context.Context, u Update) {
	select {
	case s.updates <- u:
	case <-ctx.Done():
	}
}
