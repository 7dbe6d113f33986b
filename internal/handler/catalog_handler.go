package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rentwheels/booking-wizard/internal/application"
	"github.com/rentwheels/booking-wizard/internal/domain/wizard"
)

// CatalogHandler exposes read-only catalog lookups so clients can
// render option lists outside a session.
type CatalogHandler struct {
	service *application.WizardService
}

// NewCatalogHandler creates a catalog HTTP handler.
func NewCatalogHandler(service *application.WizardService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes mounts the catalog routes.
func (h *CatalogHandler) RegisterRoutes(api *gin.RouterGroup) {
	catalog := api.Group("/catalog")
	{
		catalog.GET("/types", h.ListTypes)
		catalog.GET("/types/:typeID/models", h.ListModels)
	}
}

// ListTypes returns vehicle categories, optionally narrowed to a wheel
// count.
// GET /api/v1/catalog/types?wheels=4
func (h *CatalogHandler) ListTypes(c *gin.Context) {
	raw := c.Query("wheels")
	if raw == "" {
		OK(c, h.service.VehicleTypes())
		return
	}
	wheels, err := strconv.Atoi(raw)
	if err != nil || !wizard.IsValidWheelCount(wheels) {
		BadRequest(c, "wheels must be 2 or 4")
		return
	}
	OK(c, h.service.TypesForWheels(wheels))
}

// ListModels returns the rentable models of one category.
// GET /api/v1/catalog/types/:typeID/models
func (h *CatalogHandler) ListModels(c *gin.Context) {
	typeID := c.Param("typeID")
	models, err := h.service.ModelsForType(c.Request.Context(), typeID)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, models)
}
