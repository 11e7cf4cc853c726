package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/registry"
)

// DriverHandler serves the driver registry endpoints.
type DriverHandler struct {
	registry   *registry.DriverRegistry
	reconciler *registry.Reconciler
}

// NewDriverHandler creates a driver handler.
func NewDriverHandler(reg *registry.DriverRegistry, rec *registry.Reconciler) *DriverHandler {
	return &DriverHandler{registry: reg, reconciler: rec}
}

// List handles GET /api/drivers with an optional status filter.
func (h *DriverHandler) List(c echo.Context) error {
	drivers, err := h.registry.List(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, drivers)
}

// Create handles POST /api/drivers.
func (h *DriverHandler) Create(c echo.Context) error {
	var input registry.DriverInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	driver, err := h.registry.Create(c.Request().Context(), input)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, driver)
}

// Update handles PUT /api/drivers/:id.
func (h *DriverHandler) Update(c echo.Context) error {
	var patch registry.DriverPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	driver, err := h.registry.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, driver)
}

// SetStatus handles PUT /api/drivers/:id/status.
func (h *DriverHandler) SetStatus(c echo.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	driver, err := h.registry.SetStatus(c.Request().Context(), c.Param("id"), body.Status)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, driver)
}

// Delete handles DELETE /api/drivers/:id.
func (h *DriverHandler) Delete(c echo.Context) error {
	if err := h.registry.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "driver deleted"})
}

// Reconcile handles POST /api/drivers/:name/reconcile and recounts the
// driver's completed missions.
func (h *DriverHandler) Reconcile(c echo.Context) error {
	driver, err := h.reconciler.ReconcileDriver(c.Request().Context(), c.Param("name"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, driver)
}
