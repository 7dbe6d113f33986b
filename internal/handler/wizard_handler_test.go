package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rentwheels/booking-wizard/internal/application"
	"github.com/rentwheels/booking-wizard/internal/catalog"
	"github.com/rentwheels/booking-wizard/internal/database"
	"github.com/rentwheels/booking-wizard/internal/domain/wizard"
	"github.com/rentwheels/booking-wizard/internal/repository"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

// newTestRouter wires the full HTTP surface against a fake upstream
// catalog and a throwaway sqlite database.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/vehicle-types":
			_, _ = w.Write([]byte(`[
				{"id": "1", "name": "cruiser", "wheels": 2},
				{"id": "2", "name": "hatchback", "wheels": 4}
			]`))
		case r.URL.Path == "/api/vehicles/2":
			_, _ = w.Write([]byte(`[
				{"id": "7", "name": "Hyundai i20", "price_per_day": 1500}
			]`))
		case r.URL.Path == "/api/bookings" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(upstream.Close)

	db, err := database.Connect("file:"+t.TempDir()+"/handler.db?cache=shared", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&repository.BookingRecordModel{}, &repository.VehicleTypeCacheModel{}))

	service := application.NewWizardService(
		catalog.NewClient(upstream.URL, catalog.Policy{}),
		repository.NewGormBookingRecordRepository(db),
		repository.NewGormVehicleTypeCache(db),
		nil,
		wizard.NewStandardPricingStrategy(),
		zap.NewNop(),
	)
	service.LoadTypes(t.Context())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	NewWizardHandler(service).RegisterRoutes(api)
	NewCatalogHandler(service).RegisterRoutes(api)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func snapshotFrom(t *testing.T, env envelope) application.SessionSnapshot {
	t.Helper()
	var snap application.SessionSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	return snap
}

func createSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	rec, env := doRequest(t, router, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	snap := snapshotFrom(t, env)
	require.NotEmpty(t, snap.ID)
	return snap.ID
}

func TestCreateAndGetSession(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	snap := snapshotFrom(t, env)
	assert.Equal(t, "identity", snap.Step)
	assert.Equal(t, "idle", snap.SubmissionState)
	assert.Equal(t, "Let's start with your name.", snap.StepTitle)
}

func TestGetSessionBadAndUnknownID(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/sessions/5f6a1a1e-0000-4000-8000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestPatchFormRejectsBadInput(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	rec, _ := doRequest(t, router, http.MethodPatch, "/api/v1/sessions/"+id+"/form",
		map[string]any{"start_date": "01/06/2025"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doRequest(t, router, http.MethodPatch, "/api/v1/sessions/"+id+"/form",
		map[string]any{"wheel_count": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdvanceReportsValidationErrors(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	rec, env := doRequest(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	snap := snapshotFrom(t, env)
	assert.Equal(t, "identity", snap.Step)
	assert.Equal(t, "First name is required", snap.Errors["firstName"])
}

func TestFullWizardOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)
	base := "/api/v1/sessions/" + id

	doRequest(t, router, http.MethodPatch, base+"/form",
		map[string]any{"first_name": "Ana", "last_name": "Lee"})
	doRequest(t, router, http.MethodPost, base+"/advance", nil)

	doRequest(t, router, http.MethodPatch, base+"/form", map[string]any{"wheel_count": 4})
	rec, env := doRequest(t, router, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "category", snapshotFrom(t, env).Step)

	doRequest(t, router, http.MethodPatch, base+"/form", map[string]any{"vehicle_type_id": "2"})
	require.Eventually(t, func() bool {
		_, env := doRequest(t, router, http.MethodGet, base, nil)
		snap := snapshotFrom(t, env)
		return !snap.FetchingModels && len(snap.Models) == 1
	}, 2*time.Second, 10*time.Millisecond)
	doRequest(t, router, http.MethodPost, base+"/advance", nil)

	doRequest(t, router, http.MethodPatch, base+"/form", map[string]any{"vehicle_model_id": "7"})
	doRequest(t, router, http.MethodPost, base+"/advance", nil)

	doRequest(t, router, http.MethodPatch, base+"/form",
		map[string]any{"start_date": "2025-06-01", "end_date": "2025-06-03"})
	rec, env = doRequest(t, router, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := snapshotFrom(t, env)
	require.Equal(t, "review", snap.Step)
	assert.Equal(t, 3, snap.Quote.RentalDays)
	assert.Equal(t, 4500.0, snap.Quote.TotalPrice)

	rec, env = doRequest(t, router, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap = snapshotFrom(t, env)
	assert.Equal(t, "result", snap.Step)
	assert.Equal(t, "succeeded", snap.SubmissionState)
	assert.Equal(t, "Booking confirmed!", snap.StepTitle)

	// The completed booking shows up in the history listing.
	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/bookings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page PaginatedData
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(1), page.Total)
}

func TestRetreatAndReset(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)
	base := "/api/v1/sessions/" + id

	rec, env := doRequest(t, router, http.MethodPost, base+"/retreat", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)

	doRequest(t, router, http.MethodPatch, base+"/form",
		map[string]any{"first_name": "Ana", "last_name": "Lee"})
	doRequest(t, router, http.MethodPost, base+"/advance", nil)

	rec, env = doRequest(t, router, http.MethodPost, base+"/retreat", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "identity", snapshotFrom(t, env).Step)

	rec, env = doRequest(t, router, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := snapshotFrom(t, env)
	assert.Empty(t, snap.Form.FirstName)
	assert.Equal(t, "identity", snap.Step)
}

func TestDeleteSessionEndpoint(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	rec, _ := doRequest(t, router, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = doRequest(t, router, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/catalog/types", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var types []catalog.VehicleType
	require.NoError(t, json.Unmarshal(env.Data, &types))
	assert.Len(t, types, 2)

	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/catalog/types?wheels=4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &types))
	require.Len(t, types, 1)
	assert.Equal(t, "hatchback", types[0].Name)

	rec, _ = doRequest(t, router, http.MethodGet, "/api/v1/catalog/types?wheels=3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/catalog/types/2/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var models []catalog.VehicleModel
	require.NoError(t, json.Unmarshal(env.Data, &models))
	require.Len(t, models, 1)
	assert.Equal(t, "Hyundai i20", models[0].Name)
}
