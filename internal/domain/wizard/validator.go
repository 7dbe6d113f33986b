package wizard

import "strings"

// ErrorMap maps a field name to a human-readable validation message.
// An empty map means the checked step is valid.
type ErrorMap map[string]string

// Merge copies all entries of other into the map, keeping existing keys.
func (m ErrorMap) Merge(other ErrorMap) {
	for field, msg := range other {
		if _, ok := m[field]; !ok {
			m[field] = msg
		}
	}
}

// dataEntrySteps are the steps with their own input rules. The review
// check re-runs all of them as a defense against stale state.
var dataEntrySteps = []Step{StepIdentity, StepRideStyle, StepCategory, StepModel, StepDates}

// Check runs the validation rules for a single step against the form.
// It has no side effects; the caller decides whether to store the result.
func Check(step Step, form *BookingForm) ErrorMap {
	errs := ErrorMap{}
	switch step {
	case StepIdentity:
		if strings.TrimSpace(form.FirstName) == "" {
			errs[FieldFirstName] = "First name is required"
		}
		if strings.TrimSpace(form.LastName) == "" {
			errs[FieldLastName] = "Last name is required"
		}
	case StepRideStyle:
		if form.WheelCount == 0 {
			errs[FieldWheelCount] = "Please select the number of wheels"
		}
	case StepCategory:
		if form.VehicleTypeID == "" {
			errs[FieldVehicleTypeID] = "Please select a vehicle type"
		}
	case StepModel:
		if form.VehicleModelID == "" {
			errs[FieldVehicleModelID] = "Please select a specific model"
		}
	case StepDates:
		// All date problems share one error key regardless of which
		// condition failed.
		if form.StartDate == nil || form.EndDate == nil {
			errs[FieldDateRange] = "Start and end dates are required"
		} else if !form.EndDate.After(*form.StartDate) {
			errs[FieldDateRange] = "End date must be after start date"
		}
	case StepReview:
		for _, prior := range dataEntrySteps {
			errs.Merge(Check(prior, form))
		}
	}
	return errs
}

// CheckAll validates the full form across every data-entry step. It
// returns the merged error map and the first step that failed, so a
// rejected submission can send the renter back to it.
func CheckAll(form *BookingForm) (ErrorMap, Step) {
	merged := ErrorMap{}
	first := Step("")
	for _, step := range dataEntrySteps {
		errs := Check(step, form)
		if len(errs) > 0 && first == "" {
			first = step
		}
		merged.Merge(errs)
	}
	return merged, first
}
