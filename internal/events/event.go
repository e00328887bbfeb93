package events

import (
	"encoding/json"
	"time"

	"github.com/huangang/evalstats/internal/models"
)

const taskTypePrefix = "change:"

// Event is one change notification for a watched collection. Delivery is at
// least once; ID is stable across redeliveries.
type Event struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection"`
	DocID      string          `json:"doc_id"`
	Kind       string          `json:"kind"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// FromChangeEvent converts an outbox row into a bus event.
func FromChangeEvent(ce *models.ChangeEvent) *Event {
	return &Event{
		ID:         ce.EventID,
		Collection: ce.Collection,
		DocID:      ce.DocID,
		Kind:       ce.Kind,
		Before:     rawOrNil(ce.Before),
		After:      rawOrNil(ce.After),
		OccurredAt: ce.CreatedAt,
	}
}

func rawOrNil(b []byte) json.RawMessage {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return json.RawMessage(b)
}

// DecodeBefore unmarshals the before snapshot into v. It returns false when
// the document did not exist before the change.
func (e *Event) DecodeBefore(v any) (bool, error) {
	return decode(e.Before, v)
}

// DecodeAfter unmarshals the after snapshot into v. It returns false when
// the document no longer exists after the change.
func (e *Event) DecodeAfter(v any) (bool, error) {
	return decode(e.After, v)
}

func decode(raw json.RawMessage, v any) (bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

// TaskType is the asynq task type carrying events of collection.
func TaskType(collection string) string {
	return taskTypePrefix + collection
}
