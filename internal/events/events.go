package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operation is the row-level mutation type carried by an event.
type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// EntityKind identifies the row type inside an event.
type EntityKind string

const (
	KindMessage  EntityKind = "message"
	KindTyping   EntityKind = "typing"
	KindPresence EntityKind = "presence"
)

// Event is the change-notification envelope: a row-level mutation with a
// snapshot of the affected row. Self-originated events are delivered like any
// other; consumers must apply them idempotently.
type Event struct {
	Kind       EntityKind      `json:"entity_kind"`
	Op         Operation       `json:"operation"`
	Row        json.RawMessage `json:"row"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// New builds an event, marshaling row into the snapshot.
func New(kind EntityKind, op Operation, row interface{}) (Event, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal event row: %w", err)
	}
	return Event{Kind: kind, Op: op, Row: data, OccurredAt: time.Now().UTC()}, nil
}

// DecodeRow unmarshals the row snapshot into dst.
func (e Event) DecodeRow(dst interface{}) error {
	return json.Unmarshal(e.Row, dst)
}

// Topic name helpers. Delivery is ordered within one topic and unordered
// across topics.
const (
	topicMessages = "messages:%s"
	topicTyping   = "typing:%s"
	topicPresence = "presence:%s"
)

func MessageTopic(conversationID string) string {
	return fmt.Sprintf(topicMessages, conversationID)
}

func TypingTopic(conversationID string) string {
	return fmt.Sprintf(topicTyping, conversationID)
}

func PresenceTopic(userID string) string {
	return fmt.Sprintf(topicPresence, userID)
}
