// Package queue carries memo lifecycle events over RabbitMQ: the publisher
// used by the memo service and the consumer that journals them to disk.
package queue

import (
	"time"

	"github.com/iliyamo/placenote/internal/model"
)

// EventType names a memo lifecycle transition.
type EventType string

const (
	MemoCreated EventType = "memo.created"
	MemoUpdated EventType = "memo.updated"
	MemoDeleted EventType = "memo.deleted"
)

// MemoEvent is the message body published for every memo write.  It carries
// enough for downstream consumers to log or index without reading the
// database.
type MemoEvent struct {
	Type       EventType `json:"type"`
	MemoID     string    `json:"memo_id"`
	OwnerID    string    `json:"owner_id"`
	Title      string    `json:"title,omitempty"`
	Longitude  float64   `json:"longitude"`
	Latitude   float64   `json:"latitude"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewMemoEvent snapshots m.
func NewMemoEvent(t EventType, m model.Memo, at time.Time) MemoEvent {
	return MemoEvent{
		Type:       t,
		MemoID:     m.ID,
		OwnerID:    m.OwnerID,
		Title:      m.Title,
		Longitude:  m.Location.Longitude,
		Latitude:   m.Location.Latitude,
		OccurredAt: at.UTC(),
	}
}
