package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rentwheels/booking-wizard/internal/catalog"
	"github.com/rentwheels/booking-wizard/internal/domain"
	"github.com/rentwheels/booking-wizard/internal/domain/wizard"
	"github.com/rentwheels/booking-wizard/internal/events"
)

// Fallback messages shown to the renter when a submission fails without
// a usable upstream reason.
const (
	rejectedFallbackMessage = "Booking failed."
	transportFailureMessage = "An unexpected error occurred."
)

const modelFetchTimeout = 15 * time.Second

// CatalogClient is the upstream catalog surface the wizard consumes.
type CatalogClient interface {
	ListVehicleTypes(ctx context.Context) ([]catalog.VehicleType, error)
	ListVehicleModels(ctx context.Context, typeID string) ([]catalog.VehicleModel, error)
	CreateBooking(ctx context.Context, req catalog.BookingRequest) error
}

// VehicleTypeCache persists the last successfully fetched type list so
// the wizard can start even when the upstream catalog is down.
type VehicleTypeCache interface {
	Replace(ctx context.Context, types []catalog.VehicleType) error
	Load(ctx context.Context) ([]catalog.VehicleType, error)
}

// EventPublisher publishes wizard lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key, eventType string, data any) error
}

// WizardService hosts booking wizard sessions and orchestrates step
// sequencing, validation, catalog fetches and booking submission.
type WizardService struct {
	catalog   CatalogClient
	records   wizard.BookingRecordRepository
	typeCache VehicleTypeCache
	publisher EventPublisher
	pricing   wizard.PricingStrategy
	logger    *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	typesMu sync.RWMutex
	types   []catalog.VehicleType
}

// NewWizardService creates a wizard service. typeCache and publisher
// are optional; a nil value disables that concern.
func NewWizardService(
	catalogClient CatalogClient,
	records wizard.BookingRecordRepository,
	typeCache VehicleTypeCache,
	publisher EventPublisher,
	pricing wizard.PricingStrategy,
	logger *zap.Logger,
) *WizardService {
	return &WizardService{
		catalog:   catalogClient,
		records:   records,
		typeCache: typeCache,
		publisher: publisher,
		pricing:   pricing,
		logger:    logger,
		sessions:  make(map[uuid.UUID]*Session),
	}
}

// LoadTypes refreshes the vehicle-type list from the upstream catalog.
// A fetch failure is not fatal: the wizard keeps whatever list it has,
// falling back to the persisted cache when it has none. The renter sees
// an empty category list at worst, never an error page.
func (s *WizardService) LoadTypes(ctx context.Context) {
	types, err := s.catalog.ListVehicleTypes(ctx)
	if err != nil {
		s.logger.Warn("failed to refresh vehicle types", zap.Error(err))
		s.typesMu.Lock()
		defer s.typesMu.Unlock()
		if len(s.types) > 0 || s.typeCache == nil {
			return
		}
		cached, cacheErr := s.typeCache.Load(ctx)
		if cacheErr != nil {
			s.logger.Warn("failed to load cached vehicle types", zap.Error(cacheErr))
			return
		}
		s.types = cached
		s.logger.Info("serving vehicle types from cache", zap.Int("count", len(cached)))
		return
	}

	s.typesMu.Lock()
	s.types = types
	s.typesMu.Unlock()

	if s.typeCache != nil {
		if err := s.typeCache.Replace(ctx, types); err != nil {
			s.logger.Warn("failed to persist vehicle type cache", zap.Error(err))
		}
	}
	s.logger.Info("vehicle types refreshed", zap.Int("count", len(types)))
}

// VehicleTypes returns the current full type list.
func (s *WizardService) VehicleTypes() []catalog.VehicleType {
	s.typesMu.RLock()
	defer s.typesMu.RUnlock()
	out := make([]catalog.VehicleType, len(s.types))
	copy(out, s.types)
	return out
}

// TypesForWheels returns the types matching a wheel count.
func (s *WizardService) TypesForWheels(wheels int) []catalog.VehicleType {
	s.typesMu.RLock()
	defer s.typesMu.RUnlock()
	return catalog.TypesForWheels(s.types, wheels)
}

// ModelsForType fetches the filtered model list for a vehicle type.
func (s *WizardService) ModelsForType(ctx context.Context, typeID string) ([]catalog.VehicleModel, error) {
	models, err := s.catalog.ListVehicleModels(ctx, typeID)
	if err != nil {
		return nil, domain.NewUnavailableError("vehicle catalog is unavailable")
	}
	return models, nil
}

// CreateSession starts a new wizard session at the first step.
func (s *WizardService) CreateSession(ctx context.Context) *SessionSnapshot {
	sess := newSession()

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("wizard session created", zap.String("session_id", sess.id.String()))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.snapshot(sess)
}

// GetSession returns the current snapshot of a session.
func (s *WizardService) GetSession(ctx context.Context, id uuid.UUID) (*SessionSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()
	return s.snapshot(sess), nil
}

// DeleteSession removes a session.
func (s *WizardService) DeleteSession(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[id]; !exists {
		return domain.NewNotFoundError("session", id.String())
	}
	delete(s.sessions, id)
	s.logger.Info("wizard session deleted", zap.String("session_id", id.String()))
	return nil
}

// PatchForm applies a partial form update. Validation errors on the
// changed fields are cleared, dependent selections cascade-reset, and a
// vehicle-type change kicks off a model fetch for the new type.
func (s *WizardService) PatchForm(ctx context.Context, id uuid.UUID, patch wizard.FormPatch) (*SessionSnapshot, error) {
	if patch.WheelCount != nil && !wizard.IsValidWheelCount(*patch.WheelCount) {
		return nil, domain.NewValidationError("wheel count must be 2 or 4")
	}

	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	if sess.step == wizard.StepResult {
		return nil, domain.NewConflictError("booking already completed; reset the session to book again")
	}

	changed := sess.form.Apply(patch)
	for _, field := range changed {
		delete(sess.errors, field)
		if field == wizard.FieldStartDate || field == wizard.FieldEndDate {
			delete(sess.errors, wizard.FieldDateRange)
		}
	}

	for _, field := range changed {
		if field != wizard.FieldVehicleTypeID {
			continue
		}
		// Any type change invalidates in-flight fetches for the old
		// selection: bump the generation so their results are discarded.
		sess.modelGen++
		sess.models = nil
		sess.fetchingModels = false
		if typeID := sess.form.VehicleTypeID; typeID != "" {
			sess.fetchingModels = true
			go s.loadModels(sess, typeID, sess.modelGen)
		}
	}

	return s.snapshot(sess), nil
}

// loadModels fetches the model list for one vehicle type in the
// background and installs it unless the selection changed in the
// meantime. Runs detached from the request context so the fetch
// survives the PATCH response.
func (s *WizardService) loadModels(sess *Session, typeID string, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), modelFetchTimeout)
	defer cancel()

	models, err := s.catalog.ListVehicleModels(ctx, typeID)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.modelGen != gen {
		s.logger.Debug("discarding stale model fetch",
			zap.String("session_id", sess.id.String()),
			zap.String("vehicle_type_id", typeID),
		)
		return
	}

	sess.fetchingModels = false
	if err != nil {
		s.logger.Warn("failed to fetch vehicle models",
			zap.String("session_id", sess.id.String()),
			zap.String("vehicle_type_id", typeID),
			zap.Error(err),
		)
		sess.models = []catalog.VehicleModel{}
		return
	}
	sess.mergeModels(models)
}

// Advance validates the current step and moves the session forward.
// At the review step it submits the booking instead; the session then
// lands on the result step on success or stays on review with a
// failure message. Validation failures keep the session in place with
// the errors recorded in the snapshot.
func (s *WizardService) Advance(ctx context.Context, id uuid.UUID) (*SessionSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	if sess.step.IsTerminal() {
		return nil, domain.NewConflictError("booking already completed; reset the session to book again")
	}

	if errs := wizard.Check(sess.step, &sess.form); len(errs) > 0 {
		sess.errors = errs
		return s.snapshot(sess), nil
	}

	if sess.step == wizard.StepReview {
		s.submit(ctx, sess)
		return s.snapshot(sess), nil
	}

	next, ok := sess.step.Next()
	if !ok {
		return nil, domain.NewInvalidStateError(sess.step.String(), "next")
	}
	sess.step = next
	sess.errors = nil
	sess.submissionError = ""
	return s.snapshot(sess), nil
}

// Retreat moves the session one step back and clears validation state,
// so re-entering a step never shows errors from a previous visit. The
// result step is a dead end; a completed booking cannot be walked back.
func (s *WizardService) Retreat(ctx context.Context, id uuid.UUID) (*SessionSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	prev, ok := sess.step.Prev()
	if !ok {
		return nil, domain.NewInvalidStateError(sess.step.String(), "previous")
	}
	sess.step = prev
	sess.errors = nil
	sess.submissionError = ""
	return s.snapshot(sess), nil
}

// Reset returns the session to a blank form at the first step. Fetched
// catalog data is kept so a renter booking again skips redundant
// fetches.
func (s *WizardService) Reset(ctx context.Context, id uuid.UUID) (*SessionSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()
	sess.resetForm()
	return s.snapshot(sess), nil
}

// ListBookings returns persisted booking records, newest first.
func (s *WizardService) ListBookings(ctx context.Context, page, limit int) ([]*wizard.BookingRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.records.List(ctx, page, limit)
}

// submit runs the booking submission pipeline. The caller holds the
// session lock, so a second advance on the same session waits rather
// than double-submitting.
func (s *WizardService) submit(ctx context.Context, sess *Session) {
	if allErrs, firstBad := wizard.CheckAll(&sess.form); len(allErrs) > 0 {
		// Stale state slipped past the per-step checks. Send the renter
		// back to the first step that needs attention.
		sess.errors = allErrs
		sess.step = firstBad
		return
	}

	if !sess.submission.CanTransitionTo(wizard.SubmissionInFlight) {
		s.logger.Warn("submission not allowed from current state",
			zap.String("session_id", sess.id.String()),
			zap.String("state", sess.submission.String()),
		)
		return
	}
	sess.submission = wizard.SubmissionInFlight
	sess.submissionError = ""

	req := catalog.BookingRequest{
		FirstName: sess.form.FirstName,
		LastName:  sess.form.LastName,
		VehicleID: sess.form.VehicleModelID,
		StartDate: sess.form.StartDate.Format(wizard.DateLayout),
		EndDate:   sess.form.EndDate.Format(wizard.DateLayout),
	}

	if err := s.catalog.CreateBooking(ctx, req); err != nil {
		sess.submission = wizard.SubmissionFailed
		var rejection *catalog.SubmitError
		if errors.As(err, &rejection) {
			sess.submissionError = rejection.Message
			if sess.submissionError == "" {
				sess.submissionError = rejectedFallbackMessage
			}
		} else {
			sess.submissionError = transportFailureMessage
		}
		s.logger.Warn("booking submission failed",
			zap.String("session_id", sess.id.String()),
			zap.Error(err),
		)
		return
	}

	sess.submission = wizard.SubmissionSucceeded
	sess.step = wizard.StepResult
	sess.errors = nil

	var vehicleName string
	var pricePerDay float64
	if model := sess.selectedModel(); model != nil {
		vehicleName = model.Name
		pricePerDay = model.PricePerDay
	}
	quote := s.pricing.Quote(pricePerDay, sess.form.StartDate, sess.form.EndDate)
	record := wizard.NewBookingRecord(&sess.form, vehicleName, quote)

	// Persistence and event publication are best-effort: the upstream
	// backend already accepted the booking, so the renter sees success
	// regardless.
	if err := s.records.Save(ctx, record); err != nil {
		s.logger.Error("failed to persist booking record",
			zap.String("booking_record_id", record.ID.String()),
			zap.Error(err),
		)
	}
	if s.publisher != nil {
		event := events.BookingSubmittedEvent{
			BookingRecordID: record.ID,
			FirstName:       record.FirstName,
			LastName:        record.LastName,
			VehicleID:       record.VehicleID,
			VehicleName:     record.VehicleName,
			StartDate:       record.StartDate.Format(wizard.DateLayout),
			EndDate:         record.EndDate.Format(wizard.DateLayout),
			RentalDays:      record.RentalDays,
			TotalPrice:      record.TotalPrice,
			OccurredAt:      record.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, events.TopicWizardBookings, record.ID.String(), events.BookingSubmitted, event); err != nil {
			s.logger.Error("failed to publish booking submitted event",
				zap.String("booking_record_id", record.ID.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("booking submitted",
		zap.String("session_id", sess.id.String()),
		zap.String("booking_record_id", record.ID.String()),
		zap.Int("rental_days", record.RentalDays),
		zap.Float64("total_price", record.TotalPrice),
	)
}

// EvictIdleSessions drops sessions idle longer than ttl and returns
// how many were removed.
func (s *WizardService) EvictIdleSessions(ttl time.Duration) int {
	cutoff := time.Now().UTC().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastActive.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Info("evicted idle wizard sessions", zap.Int("count", evicted))
	}
	return evicted
}

// StartJanitor evicts idle sessions on an interval until ctx is done.
func (s *WizardService) StartJanitor(ctx context.Context, ttl time.Duration) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdleSessions(ttl)
		}
	}
}

// snapshot renders the session for transport. Caller holds sess.mu.
// The quote is derived fresh on every call so it can never be stale.
func (s *WizardService) snapshot(sess *Session) *SessionSnapshot {
	model := sess.selectedModel()
	var quote wizard.Quote
	if model != nil {
		quote = s.pricing.Quote(model.PricePerDay, sess.form.StartDate, sess.form.EndDate)
	} else {
		quote = wizard.Quote{RentalDays: wizard.RentalDays(sess.form.StartDate, sess.form.EndDate)}
	}

	errs := make(map[string]string, len(sess.errors))
	for field, msg := range sess.errors {
		errs[field] = msg
	}

	models := make([]catalog.VehicleModel, len(sess.models))
	copy(models, sess.models)

	return &SessionSnapshot{
		ID:              sess.id.String(),
		Step:            sess.step.String(),
		StepLabel:       sess.step.Label(),
		StepTitle:       sess.step.Title(sess.form.FirstName),
		Form:            toFormDTO(&sess.form),
		Errors:          errs,
		SubmissionState: sess.submission.String(),
		SubmissionError: sess.submissionError,
		FetchingModels:  sess.fetchingModels,
		VehicleTypes:    s.TypesForWheels(sess.form.WheelCount),
		Models:          models,
		SelectedModel:   model,
		Quote:           quote,
		CreatedAt:       sess.createdAt,
	}
}

func (s *WizardService) session(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, exists := s.sessions[id]
	if !exists {
		return nil, domain.NewNotFoundError("session", id.String())
	}
	return sess, nil
}
