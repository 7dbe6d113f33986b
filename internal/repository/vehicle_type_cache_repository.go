package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rentwheels/booking-wizard/internal/catalog"
)

// VehicleTypeCacheModel is the GORM model for the vehicle_type_cache
// table. The cache keeps the last successfully fetched type list so a
// dead upstream at startup still yields categories.
type VehicleTypeCacheModel struct {
	TypeID   string    `gorm:"primaryKey;size:64"`
	Name     string    `gorm:"not null;size:100"`
	Wheels   int       `gorm:"not null"`
	CachedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (VehicleTypeCacheModel) TableName() string {
	return "vehicle_type_cache"
}

// GormVehicleTypeCache is the GORM-based vehicle-type cache.
type GormVehicleTypeCache struct {
	db *gorm.DB
}

// NewGormVehicleTypeCache creates a new GormVehicleTypeCache.
func NewGormVehicleTypeCache(db *gorm.DB) *GormVehicleTypeCache {
	return &GormVehicleTypeCache{db: db}
}

// Replace swaps the cached type list for the given one atomically.
func (c *GormVehicleTypeCache) Replace(ctx context.Context, types []catalog.VehicleType) error {
	now := time.Now().UTC()
	models := make([]VehicleTypeCacheModel, len(types))
	for i, t := range types {
		models[i] = VehicleTypeCacheModel{
			TypeID:   t.ID.String(),
			Name:     t.Name,
			Wheels:   int(t.Wheels),
			CachedAt: now,
		}
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&VehicleTypeCacheModel{}).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return tx.Create(&models).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace vehicle type cache: %w", err)
	}
	return nil
}

// Load returns the cached type list, oldest-inserted order not
// guaranteed; entries are sorted by name for stable presentation.
func (c *GormVehicleTypeCache) Load(ctx context.Context) ([]catalog.VehicleType, error) {
	var models []VehicleTypeCacheModel
	if err := c.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load vehicle type cache: %w", err)
	}

	types := make([]catalog.VehicleType, len(models))
	for i, m := range models {
		types[i] = catalog.VehicleType{
			ID:     catalog.ID(m.TypeID),
			Name:   m.Name,
			Wheels: catalog.WheelCount(m.Wheels),
		}
	}
	return types, nil
}
