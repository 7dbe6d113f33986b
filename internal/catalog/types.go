package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is a catalog entity identifier. The upstream backend is loose
// about JSON types and serves ids as either strings or numbers, so ID
// normalizes both to a string.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id value %s", raw)
	}
	*id = ID(n.String())
	return nil
}

// String returns the id as a plain string.
func (id ID) String() string {
	return string(id)
}

// WheelCount normalizes the upstream "wheels" field, which arrives as
// either a JSON number or a string. Keeping it numeric avoids silent
// filter mismatches against the renter's wheel selection.
type WheelCount int

// UnmarshalJSON accepts a JSON number or a numeric string.
func (w *WheelCount) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*w = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid wheels value %q", raw)
	}
	*w = WheelCount(n)
	return nil
}

// VehicleType is a vehicle category from the upstream catalog.
// Immutable once fetched.
type VehicleType struct {
	ID     ID         `json:"id"`
	Name   string     `json:"name"`
	Wheels WheelCount `json:"wheels"`
}

// VehicleModel is a rentable vehicle from the upstream catalog.
type VehicleModel struct {
	ID            ID      `json:"id"`
	Name          string  `json:"name"`
	PricePerDay   float64 `json:"price_per_day"`
	VehicleTypeID ID      `json:"vehicle_type_id,omitempty"`
}

// BookingRequest is the outbound booking submission payload. Field
// names follow the upstream API contract.
type BookingRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	VehicleID string `json:"vehicleId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
