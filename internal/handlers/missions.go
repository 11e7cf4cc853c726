package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/mission"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/models"
)

// MissionHandler serves the mission lifecycle endpoints.
type MissionHandler struct {
	engine *mission.Engine
}

// NewMissionHandler creates a mission handler backed by the engine.
func NewMissionHandler(engine *mission.Engine) *MissionHandler {
	return &MissionHandler{engine: engine}
}

// List handles GET /api/missions with optional filters.
func (h *MissionHandler) List(c echo.Context) error {
	q := mission.ListQuery{
		Order:       c.QueryParam("orderNumber"),
		Car:         c.QueryParam("carId"),
		Driver:      c.QueryParam("driverName"),
		VehicleType: c.QueryParam("vehicleType"),
		Zone:        c.QueryParam("missionZone"),
		DateDepart:  c.QueryParam("dateDepart"),
		DateRetour:  c.QueryParam("dateRetour"),
	}
	missions, err := h.engine.List(c.Request().Context(), q)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, missions)
}

// Get handles GET /api/missions/:id.
func (h *MissionHandler) Get(c echo.Context) error {
	m, err := h.engine.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Create handles POST /api/missions. The response carries the mission
// order sheet inline as base64 so the client can offer the download
// without a second round trip.
func (h *MissionHandler) Create(c echo.Context) error {
	var order mission.CreateOrder
	if err := c.Bind(&order); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	m, pdf, err := h.engine.Create(c.Request().Context(), order)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, missionResponse(m, pdf))
}

// Complete handles PUT /api/missions/:id/complete.
func (h *MissionHandler) Complete(c echo.Context) error {
	var body struct {
		KmRetour *float64 `json:"kmRetour"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if body.KmRetour == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "kmRetour is required"})
	}
	m, pdf, err := h.engine.Complete(c.Request().Context(), c.Param("id"), *body.KmRetour)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, missionResponse(m, pdf))
}

func missionResponse(m *models.Mission, pdf []byte) map[string]interface{} {
	return map[string]interface{}{
		"mission": m,
		"pdf":     base64.StdEncoding.EncodeToString(pdf),
	}
}

// Edit handles PUT /api/missions/:id.
func (h *MissionHandler) Edit(c echo.Context) error {
	var patch models.MissionPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	m, err := h.engine.Edit(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /api/missions/:id.
func (h *MissionHandler) Delete(c echo.Context) error {
	if err := h.engine.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "mission deleted"})
}

// Document handles GET /api/missions/:id/document and streams the
// mission order sheet as PDF.
func (h *MissionHandler) Document(c echo.Context) error {
	m, err := h.engine.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	pdf, err := h.engine.Document(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	name := fmt.Sprintf("mission-%s.pdf", m.OrderNumber)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// Filters handles GET /api/missions/filters. It returns the distinct
// values the mission list screen offers as dropdown filters.
func (h *MissionHandler) Filters(c echo.Context) error {
	ctx := c.Request().Context()
	carIDs, err := h.engine.CarIDs(ctx)
	if err != nil {
		return httpError(c, err)
	}
	driverNames, err := h.engine.DriverNames(ctx)
	if err != nil {
		return httpError(c, err)
	}
	departDates, err := h.engine.DepartDates(ctx)
	if err != nil {
		return httpError(c, err)
	}
	retourDates, err := h.engine.RetourDates(ctx)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string][]string{
		"carIds":      carIDs,
		"driverNames": driverNames,
		"departDates": departDates,
		"retourDates": retourDates,
	})
}
