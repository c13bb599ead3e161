package amqp

import (
	"encoding/json"
	"time"
)

// PaymentSyncMessage is the lightweight queue message for mirroring one payment
// row to the spreadsheet. It carries only the key and version; the worker
// fetches the full record from the database.
type PaymentSyncMessage struct {
	TenantID  string    `json:"tenant_id"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPaymentSyncMessage creates a sync message for one payment key.
func NewPaymentSyncMessage(tenantID string, month, year int, version int64) *PaymentSyncMessage {
	return &PaymentSyncMessage{
		TenantID:  tenantID,
		Month:     month,
		Year:      year,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PaymentSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentSyncMessageFromJSON creates a message from JSON bytes
func PaymentSyncMessageFromJSON(data []byte) (*PaymentSyncMessage, error) {
	var msg PaymentSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
