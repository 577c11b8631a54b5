package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"wavechat/pkg/logger"
)

// RedisBus implements Bus over Redis Pub/Sub. Redis preserves publish order
// per channel, which gives the per-topic ordering guarantee; delivery is
// at-least-once from the consumer's point of view because a reconnect
// triggers a Resync signal rather than silently dropping the gap.
type RedisBus struct {
	client *redis.Client
	log    *logger.Logger
}

func NewRedisBus(client *redis.Client, log *logger.Logger) *RedisBus {
	return &RedisBus{client: client, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, topic string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return b.client.Publish(ctx, topic, data).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, topic)

	// Confirm the subscription before handing out the stream, so a dead
	// broker surfaces as an error on Subscribe instead of a silent stream.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	eventsCh := make(chan Event, 64)
	resyncCh := make(chan struct{}, 1)

	go func() {
		defer close(eventsCh)
		for {
			msg, err := pubsub.ReceiveMessage(subCtx)
			if err != nil {
				if subCtx.Err() != nil || errors.Is(err, redis.ErrClosed) {
					return
				}
				// The connection dropped and go-redis re-established the
				// subscription under the hood. Anything published in the gap
				// is gone; tell the consumer to reload from the store.
				if b.log != nil {
					b.log.Warnf("subscription to %s interrupted, signaling resync: %v", topic, err)
				}
				select {
				case resyncCh <- struct{}{}:
				default:
				}
				continue
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				if b.log != nil {
					b.log.Errorf("dropping malformed event on %s: %v", topic, err)
				}
				continue
			}

			select {
			case eventsCh <- event:
			case <-subCtx.Done():
				return
			}
		}
	}()

	return &Subscription{
		Events: eventsCh,
		Resync: resyncCh,
		closeFn: func() error {
			cancel()
			return pubsub.Close()
		},
	}, nil
}
