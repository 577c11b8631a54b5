package session

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"wavechat/internal/domain/chat"
	"wavechat/internal/events"
)

// MessageIndex is the client-side ordered view of one conversation: messages
// sorted by (created_at, id) and keyed by id. Change events are merged
// incrementally instead of refetching the whole list; applying the same event
// twice, including the actor's own echo, is a no-op.
type MessageIndex struct {
	mu       sync.RWMutex
	ordered  []chat.Message
	position map[uuid.UUID]int
}

func NewMessageIndex() *MessageIndex {
	return &MessageIndex{position: make(map[uuid.UUID]int)}
}

// Reset replaces the whole index, e.g. after a resync reload.
func (x *MessageIndex) Reset(messages []chat.Message) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.ordered = make([]chat.Message, 0, len(messages))
	for _, m := range messages {
		if !m.DeletedForEveryone {
			x.ordered = append(x.ordered, m)
		}
	}
	sort.Slice(x.ordered, func(i, j int) bool {
		return x.ordered[i].Before(x.ordered[j])
	})
	// Drop positions of ids the reload no longer contains.
	x.position = make(map[uuid.UUID]int, len(x.ordered))
	x.reindex()
}

// Apply merges one message event into the index.
func (x *MessageIndex) Apply(event events.Event) error {
	if event.Kind != events.KindMessage {
		return nil
	}

	var m chat.Message
	if err := event.DecodeRow(&m); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	switch event.Op {
	case events.OpDelete:
		x.remove(m.ID)
	case events.OpInsert, events.OpUpdate:
		// A delete-for-everyone can also surface as an update snapshot.
		if m.DeletedForEveryone {
			x.remove(m.ID)
			return nil
		}
		x.upsert(m)
	}
	return nil
}

// Snapshot returns the ordered messages.
func (x *MessageIndex) Snapshot() []chat.Message {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]chat.Message, len(x.ordered))
	copy(out, x.ordered)
	return out
}

func (x *MessageIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.ordered)
}

func (x *MessageIndex) Get(id uuid.UUID) (chat.Message, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	pos, ok := x.position[id]
	if !ok {
		return chat.Message{}, false
	}
	return x.ordered[pos], true
}

func (x *MessageIndex) upsert(m chat.Message) {
	if pos, ok := x.position[m.ID]; ok {
		// The order key (created_at, id) is immutable, replace in place.
		x.ordered[pos] = m
		return
	}
	at := sort.Search(len(x.ordered), func(i int) bool {
		return m.Before(x.ordered[i])
	})
	x.ordered = append(x.ordered, chat.Message{})
	copy(x.ordered[at+1:], x.ordered[at:])
	x.ordered[at] = m
	x.reindex()
}

func (x *MessageIndex) remove(id uuid.UUID) {
	pos, ok := x.position[id]
	if !ok {
		return
	}
	x.ordered = append(x.ordered[:pos], x.ordered[pos+1:]...)
	delete(x.position, id)
	x.reindex()
}

func (x *MessageIndex) reindex() {
	for i, m := range x.ordered {
		x.position[m.ID] = i
	}
}
