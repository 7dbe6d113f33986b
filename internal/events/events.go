package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Topic and event type names for the wizard's outbound events.
const (
	TopicWizardBookings = "wizard.bookings"

	BookingSubmitted = "wizard.booking.submitted"
)

// Envelope is the CloudEvents-style wrapper around every published
// message.
type Envelope struct {
	ID     string          `json:"id"`
	Source string          `json:"source"`
	Type   string          `json:"type"`
	Time   time.Time       `json:"time"`
	Data   json.RawMessage `json:"data"`
}

// NewEnvelope wraps event data in an envelope with a fresh id.
func NewEnvelope(source, eventType string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:     uuid.New().String(),
		Source: source,
		Type:   eventType,
		Time:   time.Now().UTC(),
		Data:   raw,
	}, nil
}

// ParseEnvelope decodes a raw message into an envelope.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var e Envelope
	err := json.Unmarshal(raw, &e)
	return e, err
}

// ParseData decodes the envelope payload into v.
func (e Envelope) ParseData(v any) error {
	return json.Unmarshal(e.Data, v)
}

// BookingSubmittedEvent is emitted after the upstream backend accepts
// a booking submission.
type BookingSubmittedEvent struct {
	BookingRecordID uuid.UUID `json:"booking_record_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	VehicleID       string    `json:"vehicle_id"`
	VehicleName     string    `json:"vehicle_name"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	RentalDays      int       `json:"rental_days"`
	TotalPrice      float64   `json:"total_price"`
	OccurredAt      time.Time `json:"occurred_at"`
}
