package wizard

import "time"

// DateLayout is the wire format for booking dates.
const DateLayout = "2006-01-02"

// Field names used as validation error keys and cascade table entries.
// They match the upstream backend's field naming.
const (
	FieldFirstName      = "firstName"
	FieldLastName       = "lastName"
	FieldWheelCount     = "wheelCount"
	FieldVehicleTypeID  = "vehicleTypeId"
	FieldVehicleModelID = "vehicleModelId"
	FieldStartDate      = "startDate"
	FieldEndDate        = "endDate"
	FieldDateRange      = "dateRange"
)

// BookingForm holds all renter-entered fields for one wizard run.
// A zero WheelCount, empty ID or nil date means "not yet chosen".
type BookingForm struct {
	FirstName      string
	LastName       string
	WheelCount     int
	VehicleTypeID  string
	VehicleModelID string
	StartDate      *time.Time
	EndDate        *time.Time
}

// FormPatch is a partial update of a BookingForm. Nil fields are left
// untouched.
type FormPatch struct {
	FirstName      *string
	LastName       *string
	WheelCount     *int
	VehicleTypeID  *string
	VehicleModelID *string
	StartDate      *time.Time
	EndDate        *time.Time
}

// cascadeResets maps a field to the dependent selections that must be
// cleared whenever its value changes. Consulted uniformly by Apply so
// the cascade rules live in one place.
var cascadeResets = map[string][]string{
	FieldWheelCount:    {FieldVehicleTypeID, FieldVehicleModelID},
	FieldVehicleTypeID: {FieldVehicleModelID},
}

// IsValidWheelCount returns true for the supported wheel selections.
func IsValidWheelCount(n int) bool {
	return n == 2 || n == 4
}

// Apply merges the patch into the form, runs the cascade resets from
// the dependency table, and returns the names of all fields whose value
// changed (including cascaded clears).
func (f *BookingForm) Apply(p FormPatch) []string {
	var changed []string
	mark := func(field string) {
		for _, c := range changed {
			if c == field {
				return
			}
		}
		changed = append(changed, field)
	}

	if p.FirstName != nil && *p.FirstName != f.FirstName {
		f.FirstName = *p.FirstName
		mark(FieldFirstName)
	}
	if p.LastName != nil && *p.LastName != f.LastName {
		f.LastName = *p.LastName
		mark(FieldLastName)
	}
	if p.WheelCount != nil && *p.WheelCount != f.WheelCount {
		f.WheelCount = *p.WheelCount
		mark(FieldWheelCount)
	}
	if p.VehicleTypeID != nil && *p.VehicleTypeID != f.VehicleTypeID {
		f.VehicleTypeID = *p.VehicleTypeID
		mark(FieldVehicleTypeID)
	}
	if p.VehicleModelID != nil && *p.VehicleModelID != f.VehicleModelID {
		f.VehicleModelID = *p.VehicleModelID
		mark(FieldVehicleModelID)
	}
	if p.StartDate != nil && !equalDate(p.StartDate, f.StartDate) {
		f.StartDate = p.StartDate
		mark(FieldStartDate)
		// An end date now earlier than the new start date is no longer
		// selectable and is dropped rather than left to fail validation.
		if f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
			f.EndDate = nil
			mark(FieldEndDate)
		}
	}
	if p.EndDate != nil && !equalDate(p.EndDate, f.EndDate) {
		f.EndDate = p.EndDate
		mark(FieldEndDate)
	}

	// Cascade: clearing runs in patch-application order, so a wheel
	// change wipes the type, which in turn wipes the model.
	for i := 0; i < len(changed); i++ {
		for _, dep := range cascadeResets[changed[i]] {
			if f.clearField(dep) {
				mark(dep)
			}
		}
	}

	return changed
}

// clearField resets a single dependent selection and reports whether it
// held a value.
func (f *BookingForm) clearField(field string) bool {
	switch field {
	case FieldVehicleTypeID:
		if f.VehicleTypeID == "" {
			return false
		}
		f.VehicleTypeID = ""
		return true
	case FieldVehicleModelID:
		if f.VehicleModelID == "" {
			return false
		}
		f.VehicleModelID = ""
		return true
	}
	return false
}

func equalDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
