package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentwheels/booking-wizard/internal/domain/wizard"
)

// BookingRecordModel is the GORM model for the booking_records table.
type BookingRecordModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstName   string    `gorm:"not null;size:100"`
	LastName    string    `gorm:"not null;size:100"`
	VehicleID   string    `gorm:"not null;size:64;index"`
	VehicleName string    `gorm:"size:200"`
	StartDate   time.Time `gorm:"not null"`
	EndDate     time.Time `gorm:"not null"`
	RentalDays  int       `gorm:"not null"`
	TotalPrice  float64   `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

// TableName returns the table name for the GORM model.
func (BookingRecordModel) TableName() string {
	return "booking_records"
}

// GormBookingRecordRepository is the GORM-based implementation of
// wizard.BookingRecordRepository.
type GormBookingRecordRepository struct {
	db *gorm.DB
}

// NewGormBookingRecordRepository creates a new GormBookingRecordRepository.
func NewGormBookingRecordRepository(db *gorm.DB) *GormBookingRecordRepository {
	return &GormBookingRecordRepository{db: db}
}

// Save persists a new booking record.
func (r *GormBookingRecordRepository) Save(ctx context.Context, record *wizard.BookingRecord) error {
	model := toBookingRecordModel(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking record: %w", err)
	}
	return nil
}

// List retrieves booking records with pagination, newest first.
func (r *GormBookingRecordRepository) List(ctx context.Context, page, limit int) ([]*wizard.BookingRecord, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingRecordModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count booking records: %w", err)
	}

	var models []BookingRecordModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list booking records: %w", err)
	}

	records := make([]*wizard.BookingRecord, len(models))
	for i, m := range models {
		records[i] = toDomainBookingRecord(&m)
	}
	return records, total, nil
}

// --- Conversion Helpers ---

func toBookingRecordModel(record *wizard.BookingRecord) *BookingRecordModel {
	return &BookingRecordModel{
		ID:          record.ID,
		FirstName:   record.FirstName,
		LastName:    record.LastName,
		VehicleID:   record.VehicleID,
		VehicleName: record.VehicleName,
		StartDate:   record.StartDate,
		EndDate:     record.EndDate,
		RentalDays:  record.RentalDays,
		TotalPrice:  record.TotalPrice,
		CreatedAt:   record.CreatedAt,
	}
}

func toDomainBookingRecord(m *BookingRecordModel) *wizard.BookingRecord {
	return &wizard.BookingRecord{
		ID:          m.ID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		VehicleID:   m.VehicleID,
		VehicleName: m.VehicleName,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		RentalDays:  m.RentalDays,
		TotalPrice:  m.TotalPrice,
		CreatedAt:   m.CreatedAt,
	}
}
