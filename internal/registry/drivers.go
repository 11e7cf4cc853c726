package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/db"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/mission"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/models"
)

// DriverRegistry manages driver records.
type DriverRegistry struct {
	Drivers db.DriverCollection
}

// NewDriverRegistry builds a driver registry over the given collection.
func NewDriverRegistry(drivers db.DriverCollection) *DriverRegistry {
	return &DriverRegistry{Drivers: drivers}
}

// DriverInput is the payload for creating a driver.
type DriverInput struct {
	Name       string `json:"name"`
	PermitType string `json:"permitType"`
}

// DriverPatch is a partial update to a driver record.
type DriverPatch struct {
	Name       *string `json:"name,omitempty"`
	PermitType *string `json:"permitType,omitempty"`
	Status     *string `json:"status,omitempty"`
}

// List returns drivers, optionally restricted to one status.
func (r *DriverRegistry) List(ctx context.Context, status string) ([]models.Driver, error) {
	if status != "" && !models.IsValidDriverStatus(status) {
		return nil, fmt.Errorf("%w: unknown driver status %q", mission.ErrValidation, status)
	}
	drivers, err := r.Drivers.FindDrivers(ctx, db.DriverFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("%w: listing drivers: %v", mission.ErrDependency, err)
	}
	return drivers, nil
}

// Create registers a new driver. Name and permit type are required; the
// name must be unique.
func (r *DriverRegistry) Create(ctx context.Context, input DriverInput) (*models.Driver, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", mission.ErrValidation)
	}
	if !models.IsValidPermitType(input.PermitType) {
		return nil, fmt.Errorf("%w: permitType must be B or C", mission.ErrValidation)
	}

	if _, err := r.Drivers.FindDriverByName(ctx, input.Name); err == nil {
		return nil, fmt.Errorf("driver %s: %w", input.Name, mission.ErrAlreadyExists)
	} else if !errors.Is(err, db.ErrNoRecord) {
		return nil, fmt.Errorf("%w: checking driver name: %v", mission.ErrDependency, err)
	}

	driver := models.Driver{
		ID:         primitive.NewObjectID(),
		Name:       input.Name,
		Status:     models.DriverAvailable,
		PermitType: input.PermitType,
	}
	if err := r.Drivers.InsertDriver(ctx, driver); err != nil {
		return nil, fmt.Errorf("%w: inserting driver: %v", mission.ErrDependency, err)
	}
	log.WithField("driverName", driver.Name).Info("Driver registered")
	return &driver, nil
}

// Update applies a partial admin edit to a driver by its record ID.
func (r *DriverRegistry) Update(ctx context.Context, id string, patch DriverPatch) (*models.Driver, error) {
	driver, err := r.Drivers.FindDriverByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNoRecord) {
			return nil, fmt.Errorf("driver %s: %w", id, mission.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: loading driver: %v", mission.ErrDependency, err)
	}
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: name must not be empty", mission.ErrValidation)
		}
		driver.Name = trimmed
	}
	if patch.PermitType != nil {
		if !models.IsValidPermitType(*patch.PermitType) {
			return nil, fmt.Errorf("%w: permitType must be B or C", mission.ErrValidation)
		}
		driver.PermitType = *patch.PermitType
	}
	if patch.Status != nil {
		if !models.IsValidDriverStatus(*patch.Status) {
			return nil, fmt.Errorf("%w: unknown driver status %q", mission.ErrValidation, *patch.Status)
		}
		driver.Status = *patch.Status
	}
	if err := r.Drivers.UpdateDriver(ctx, id, *driver); err != nil {
		return nil, fmt.Errorf("%w: updating driver: %v", mission.ErrDependency, err)
	}
	return driver, nil
}

// SetStatus changes a driver's duty status.
func (r *DriverRegistry) SetStatus(ctx context.Context, id, status string) (*models.Driver, error) {
	if !models.IsValidDriverStatus(status) {
		return nil, fmt.Errorf("%w: unknown driver status %q", mission.ErrValidation, status)
	}
	return r.Update(ctx, id, DriverPatch{Status: &status})
}

// Delete removes a driver by its record ID. Missions referencing it are
// left untouched.
func (r *DriverRegistry) Delete(ctx context.Context, id string) error {
	if err := r.Drivers.DeleteDriver(ctx, id); err != nil {
		if errors.Is(err, db.ErrNoRecord) {
			return fmt.Errorf("driver %s: %w", id, mission.ErrNotFound)
		}
		return fmt.Errorf("%w: deleting driver: %v", mission.ErrDependency, err)
	}
	return nil
}
