package application

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rentwheels/booking-wizard/internal/catalog"
	"github.com/rentwheels/booking-wizard/internal/domain/wizard"
)

// Session is one renter's wizard run. It is the single source of truth
// for everything the renter has entered and everything fetched on their
// behalf. All mutation happens under mu, so concurrent requests and
// model-fetch completions never interleave mid-update.
type Session struct {
	mu sync.Mutex

	id   uuid.UUID
	step wizard.Step
	form wizard.BookingForm

	errors          wizard.ErrorMap
	submission      wizard.SubmissionState
	submissionError string

	// models is the list for the currently selected vehicle type;
	// allModels accumulates every model ever fetched so later steps can
	// resolve a selection by id without refetching. First-seen entries
	// are never overwritten.
	models         []catalog.VehicleModel
	allModels      map[catalog.ID]catalog.VehicleModel
	fetchingModels bool

	// modelGen tags each model fetch with the vehicle-type change that
	// triggered it. A completion whose tag no longer matches is stale
	// and must not overwrite state for the newer selection.
	modelGen uint64

	createdAt  time.Time
	lastActive time.Time
}

func newSession() *Session {
	now := time.Now().UTC()
	return &Session{
		id:         uuid.New(),
		step:       wizard.FirstStep(),
		submission: wizard.SubmissionIdle,
		allModels:  make(map[catalog.ID]catalog.VehicleModel),
		createdAt:  now,
		lastActive: now,
	}
}

// resetForm restores the empty form and initial step while keeping the
// fetched catalog data, so a renter booking another ride does not
// trigger redundant fetches.
func (s *Session) resetForm() {
	s.form = wizard.BookingForm{}
	s.step = wizard.FirstStep()
	s.errors = nil
	s.submission = wizard.SubmissionIdle
	s.submissionError = ""
	s.models = nil
	s.fetchingModels = false
	s.modelGen++
}

func (s *Session) touch() {
	s.lastActive = time.Now().UTC()
}

// selectedModel resolves the chosen model from the cumulative lookup.
func (s *Session) selectedModel() *catalog.VehicleModel {
	if s.form.VehicleModelID == "" {
		return nil
	}
	if m, ok := s.allModels[catalog.ID(s.form.VehicleModelID)]; ok {
		return &m
	}
	return nil
}

// mergeModels installs a fetched model list and folds it into the
// cumulative lookup. Ids already present keep their first-seen entry.
func (s *Session) mergeModels(models []catalog.VehicleModel) {
	s.models = models
	for _, m := range models {
		if _, exists := s.allModels[m.ID]; !exists {
			s.allModels[m.ID] = m
		}
	}
}

// --- Snapshot DTOs ---

// FormDTO is the response representation of the booking form.
type FormDTO struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	WheelCount     int    `json:"wheel_count,omitempty"`
	VehicleTypeID  string `json:"vehicle_type_id,omitempty"`
	VehicleModelID string `json:"vehicle_model_id,omitempty"`
	StartDate      string `json:"start_date,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
}

// SessionSnapshot is the full response representation of a wizard
// session: current step, form contents, validation errors, submission
// state, the catalogs relevant to the renter's selections, and the
// derived quote.
type SessionSnapshot struct {
	ID        string `json:"id"`
	Step      string `json:"step"`
	StepLabel string `json:"step_label"`
	StepTitle string `json:"step_title"`

	Form   FormDTO           `json:"form"`
	Errors map[string]string `json:"errors"`

	SubmissionState string `json:"submission_state"`
	SubmissionError string `json:"submission_error,omitempty"`

	FetchingModels bool                   `json:"fetching_models"`
	VehicleTypes   []catalog.VehicleType  `json:"vehicle_types"`
	Models         []catalog.VehicleModel `json:"models"`
	SelectedModel  *catalog.VehicleModel  `json:"selected_model,omitempty"`

	Quote wizard.Quote `json:"quote"`

	CreatedAt time.Time `json:"created_at"`
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(wizard.DateLayout)
}

func toFormDTO(form *wizard.BookingForm) FormDTO {
	return FormDTO{
		FirstName:      form.FirstName,
		LastName:       form.LastName,
		WheelCount:     form.WheelCount,
		VehicleTypeID:  form.VehicleTypeID,
		VehicleModelID: form.VehicleModelID,
		StartDate:      formatDate(form.StartDate),
		EndDate:        formatDate(form.EndDate),
	}
}
