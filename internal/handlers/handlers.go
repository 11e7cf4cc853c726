// Package handlers exposes the mission tracking service over HTTP.
// Handlers stay thin: bind, delegate to the engine or a registry, map
// the returned error onto an HTTP status.
package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/db"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/mission"
)

// httpError translates the domain error taxonomy into an HTTP response.
// Unknown errors are logged and hidden behind a generic 500.
func httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, mission.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, mission.ErrValidation),
		errors.Is(err, mission.ErrInvalidMileage),
		errors.Is(err, mission.ErrTemporalViolation),
		errors.Is(err, db.ErrBadDateFormat):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, mission.ErrDuplicateOrder),
		errors.Is(err, mission.ErrUnavailable),
		errors.Is(err, mission.ErrAlreadyExists):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.WithError(err).Error("request failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
