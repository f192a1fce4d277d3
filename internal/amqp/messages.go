package amqp

import (
	"time"

	"github.com/goccy/go-json"
)

// AffaireExportMessage is a lightweight notification that a case version
// needs exporting. The worker fetches the full case from the database.
type AffaireExportMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAffaireExportMessage creates a new export message with just ID and version
func NewAffaireExportMessage(id string, version int64) *AffaireExportMessage {
	return &AffaireExportMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *AffaireExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AffaireExportMessageFromJSON creates a message from JSON bytes
func AffaireExportMessageFromJSON(data []byte) (*AffaireExportMessage, error) {
	var msg AffaireExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
