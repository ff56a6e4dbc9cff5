package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Scanner events
	EventCardDetected    = "scanner.card.detected"
	EventLicenseVerified = "scanner.license.verified"
	EventLicenseEnrolled = "scanner.license.enrolled"
)

// Exchange names
const (
	ExchangeScannerEvents = "scanner.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.New().String()
}

// CardDetectedEvent is published when a card crop clears the confidence gate
type CardDetectedEvent struct {
	CropPath   string  `json:"crop_path"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"` // "upload", "frame" or "stream"
}

// LicenseVerifiedEvent is published after a verify pass completes
type LicenseVerifiedEvent struct {
	DLNumber   string `json:"dl_number"`
	IsValid    bool   `json:"is_valid"`
	ExistsInDB bool   `json:"exists_in_db"`
	Outcome    string `json:"outcome"` // granted, expired or denied
}

// LicenseEnrolledEvent is published when a new license record is created
type LicenseEnrolledEvent struct {
	DLNumber   string    `json:"dl_number"`
	Name       string    `json:"name"`
	ValidTill  string    `json:"valid_till"`
	EnrolledBy string    `json:"enrolled_by"`
	EnrolledAt time.Time `json:"enrolled_at"`
}
