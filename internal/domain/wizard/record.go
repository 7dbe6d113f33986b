package wizard

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRecord is the locally persisted trace of a booking the
// upstream backend accepted, kept with its pricing snapshot for audit
// and history listing.
type BookingRecord struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	VehicleID   string    `json:"vehicle_id"`
	VehicleName string    `json:"vehicle_name"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	RentalDays  int       `json:"rental_days"`
	TotalPrice  float64   `json:"total_price"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewBookingRecord creates a record for a successful submission.
func NewBookingRecord(form *BookingForm, vehicleName string, quote Quote) *BookingRecord {
	return &BookingRecord{
		ID:          uuid.New(),
		FirstName:   form.FirstName,
		LastName:    form.LastName,
		VehicleID:   form.VehicleModelID,
		VehicleName: vehicleName,
		StartDate:   *form.StartDate,
		EndDate:     *form.EndDate,
		RentalDays:  quote.RentalDays,
		TotalPrice:  quote.TotalPrice,
		CreatedAt:   time.Now().UTC(),
	}
}

// BookingRecordRepository defines the persistence contract for
// completed booking records.
type BookingRecordRepository interface {
	// Save persists a new booking record.
	Save(ctx context.Context, record *BookingRecord) error

	// List retrieves booking records with pagination, newest first.
	List(ctx context.Context, page, limit int) ([]*BookingRecord, int64, error)
}
