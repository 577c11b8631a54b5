package events

import (
	"context"
	"sync"

	wavechat_errors "wavechat/pkg/errors"
)

// MemoryBus is an in-process Bus used by tests and single-node setups. It
// keeps the same per-topic ordering contract as the Redis implementation.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string][]*memorySub
	closed bool
}

type memorySub struct {
	topic  string
	events chan Event
	resync chan struct{}
	once   sync.Once
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]*memorySub)}
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return wavechat_errors.ErrSubscriptionClosed
	}
	for _, sub := range b.subs[topic] {
		select {
		case sub.events <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	sub := &memorySub{
		topic:  topic,
		events: make(chan Event, 64),
		resync: make(chan struct{}, 1),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, wavechat_errors.ErrSubscriptionClosed
	}
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	return &Subscription{
		Events: sub.events,
		Resync: sub.resync,
		closeFn: func() error {
			b.remove(sub)
			return nil
		},
	}, nil
}

// InjectResync simulates a dropped-and-recovered connection on every
// subscription of the topic. Used by tests to exercise the reload path.
func (b *MemoryBus) InjectResync(topic string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs[topic] {
		select {
		case sub.resync <- struct{}{}:
		default:
		}
	}
}

func (b *MemoryBus) remove(target *memorySub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[target.topic]
	for i, sub := range subs {
		if sub == target {
			b.subs[target.topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	target.once.Do(func() { close(target.events) })
}

// Close shuts the bus down and releases every subscription.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for _, subs := range b.subs {
		for _, sub := range subs {
			sub.once.Do(func() { close(sub.events) })
		}
	}
	b.subs = make(map[string][]*memorySub)
}
