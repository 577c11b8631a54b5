package events

import "context"

// Subscription is a live stream of events for one topic. Events carries the
// at-least-once ordered stream; Resync fires after the underlying connection
// was lost and re-established, meaning events may have been missed and the
// consumer must reload its state from the store.
type Subscription struct {
	Events <-chan Event
	Resync <-chan struct{}

	closeFn func() error
}

// Close releases the subscription. Safe to call from any exit path; the
// Events channel is closed once the receive loop drains.
func (s *Subscription) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (*Subscription, error)
}

// Bus is the change-notification fan-out: pub/sub of row-level mutation
// events, ordered within a topic.
type Bus interface {
	Publisher
	Subscriber
}
