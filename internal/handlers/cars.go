package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/registry"
)

// CarHandler serves the car registry endpoints.
type CarHandler struct {
	registry   *registry.CarRegistry
	reconciler *registry.Reconciler
}

// NewCarHandler creates a car handler.
func NewCarHandler(reg *registry.CarRegistry, rec *registry.Reconciler) *CarHandler {
	return &CarHandler{registry: reg, reconciler: rec}
}

// List handles GET /api/cars with an optional status filter.
func (h *CarHandler) List(c echo.Context) error {
	cars, err := h.registry.List(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, cars)
}

// Get handles GET /api/cars/:carId.
func (h *CarHandler) Get(c echo.Context) error {
	car, err := h.registry.Get(c.Request().Context(), c.Param("carId"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, car)
}

// Create handles POST /api/cars.
func (h *CarHandler) Create(c echo.Context) error {
	var input registry.CarInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	car, err := h.registry.Create(c.Request().Context(), input)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, car)
}

// Update handles PUT /api/cars/:id.
func (h *CarHandler) Update(c echo.Context) error {
	var patch registry.CarPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	car, err := h.registry.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, car)
}

// Delete handles DELETE /api/cars/:id.
func (h *CarHandler) Delete(c echo.Context) error {
	if err := h.registry.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "car deleted"})
}

// Reconcile handles POST /api/cars/:carId/reconcile and rebuilds the
// car's derived statistics from its completed missions.
func (h *CarHandler) Reconcile(c echo.Context) error {
	car, err := h.reconciler.ReconcileCar(c.Request().Context(), c.Param("carId"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, car)
}

// ReconcileAll handles POST /api/reconcile: a full sweep over every car
// and driver.
func (h *CarHandler) ReconcileAll(c echo.Context) error {
	if err := h.reconciler.ReconcileAll(c.Request().Context()); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "registries reconciled"})
}
