package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Sale event names carried in sync messages.
const (
	EventRecorded = "recorded"
	EventDeleted  = "deleted"
)

// SaleSyncMessage is the lightweight queue payload for mirroring a sale.
// It carries identifiers only; the worker fetches the full row from the
// database before appending it to the spreadsheet.
type SaleSyncMessage struct {
	MessageID string    `json:"message_id"`
	Event     string    `json:"event"`
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSaleRecordedMessage creates a sync message for a freshly stored sale.
func NewSaleRecordedMessage(id, version int64) *SaleSyncMessage {
	return &SaleSyncMessage{
		MessageID: uuid.NewString(),
		Event:     EventRecorded,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// NewSaleDeletedMessage creates a sync message for a removed sale. The
// mirror is append-only, so consumers only log these.
func NewSaleDeletedMessage(id int64) *SaleSyncMessage {
	return &SaleSyncMessage{
		MessageID: uuid.NewString(),
		Event:     EventDeleted,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SaleSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func SaleSyncMessageFromJSON(data []byte) (*SaleSyncMessage, error) {
	var msg SaleSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
