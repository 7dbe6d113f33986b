package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rentwheels/booking-wizard/internal/application"
	"github.com/rentwheels/booking-wizard/internal/domain/wizard"
)

// WizardHandler exposes the booking wizard session API.
type WizardHandler struct {
	service *application.WizardService
}

// NewWizardHandler creates a wizard HTTP handler.
func NewWizardHandler(service *application.WizardService) *WizardHandler {
	return &WizardHandler{service: service}
}

// RegisterRoutes mounts the session and booking-history routes.
func (h *WizardHandler) RegisterRoutes(api *gin.RouterGroup) {
	sessions := api.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("/:id", h.GetSession)
		sessions.PATCH("/:id/form", h.PatchForm)
		sessions.POST("/:id/advance", h.Advance)
		sessions.POST("/:id/retreat", h.Retreat)
		sessions.POST("/:id/reset", h.Reset)
		sessions.DELETE("/:id", h.DeleteSession)
	}
	api.GET("/bookings", h.ListBookings)
}

// patchFormRequest is the partial form update body. Absent fields are
// left untouched; dates use the YYYY-MM-DD wire format.
type patchFormRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	WheelCount     *int    `json:"wheel_count"`
	VehicleTypeID  *string `json:"vehicle_type_id"`
	VehicleModelID *string `json:"vehicle_model_id"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
}

func (r *patchFormRequest) toPatch() (wizard.FormPatch, error) {
	patch := wizard.FormPatch{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		WheelCount:     r.WheelCount,
		VehicleTypeID:  r.VehicleTypeID,
		VehicleModelID: r.VehicleModelID,
	}
	var err error
	if patch.StartDate, err = parseDate(r.StartDate); err != nil {
		return wizard.FormPatch{}, err
	}
	if patch.EndDate, err = parseDate(r.EndDate); err != nil {
		return wizard.FormPatch{}, err
	}
	return patch, nil
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := time.Parse(wizard.DateLayout, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateSession starts a new wizard session.
// POST /api/v1/sessions
func (h *WizardHandler) CreateSession(c *gin.Context) {
	Created(c, h.service.CreateSession(c.Request.Context()))
}

// GetSession returns the current session snapshot.
// GET /api/v1/sessions/:id
func (h *WizardHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snapshot, err := h.service.GetSession(c.Request.Context(), id)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, snapshot)
}

// PatchForm applies a partial form update.
// PATCH /api/v1/sessions/:id/form
func (h *WizardHandler) PatchForm(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req patchFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		BadRequest(c, "dates must use the format YYYY-MM-DD")
		return
	}
	snapshot, err := h.service.PatchForm(c.Request.Context(), id, patch)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, snapshot)
}

// Advance validates the current step and moves the session forward,
// submitting the booking from the review step.
// POST /api/v1/sessions/:id/advance
func (h *WizardHandler) Advance(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snapshot, err := h.service.Advance(c.Request.Context(), id)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, snapshot)
}

// Retreat moves the session one step back.
// POST /api/v1/sessions/:id/retreat
func (h *WizardHandler) Retreat(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snapshot, err := h.service.Retreat(c.Request.Context(), id)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, snapshot)
}

// Reset clears the form and returns the session to the first step.
// POST /api/v1/sessions/:id/reset
func (h *WizardHandler) Reset(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snapshot, err := h.service.Reset(c.Request.Context(), id)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, snapshot)
}

// DeleteSession removes a session.
// DELETE /api/v1/sessions/:id
func (h *WizardHandler) DeleteSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteSession(c.Request.Context(), id); err != nil {
		Error(c, err)
		return
	}
	NoContent(c)
}

// ListBookings returns persisted booking records, newest first.
// GET /api/v1/bookings?page=1&limit=20
func (h *WizardHandler) ListBookings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	records, total, err := h.service.ListBookings(c.Request.Context(), page, limit)
	if err != nil {
		Error(c, err)
		return
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	OK(c, PaginatedData{Items: records, Page: page, Limit: limit, Total: total})
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}
