// Package registry owns the car and driver records around the mission
// lifecycle: manual CRUD, status administration and the reconciliation
// pass that recomputes aggregate counters from mission history.
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

// CarRegistry manages car records.
type CarRegistry struct {
	Cars db.CarCollection
}

// NewCarRegistry builds a car registry over the given collection.
func NewCarRegistry(cars db.CarCollection) *CarRegistry {
	return &CarRegistry{Cars: cars}
}

// CarInput is the payload for creating a car.
type CarInput struct {
	CarID       string  `json:"carId"`
	Status      string  `json:"status"`
	VehicleType string  `json:"vehicleType"`
	KmDepart    float64 `json:"kmDepart"`
}

// CarPatch is a partial update to a car record. Only the listed fields
// are admin-editable; the aggregate counters are owned by the lifecycle
// engine and the reconciler.
type CarPatch struct {
	CarID       *string  `json:"carId,omitempty"`
	Status      *string  `json:"status,omitempty"`
	KmDepart    *float64 `json:"kmDepart,omitempty"`
	VehicleType *string  `json:"vehicleType,omitempty"`
}

// List returns cars, optionally restricted to one status.
func (r *CarRegistry) List(ctx context.Context, status string) ([]models.Car, error) {
	if status != "" && !models.IsValidCarStatus(status) {
		return nil, fmt.Errorf("%w: unknown car status %q", mission.ErrValidation, status)
	}
	cars, err := r.Cars.FindCars(ctx, db.CarFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("%w: listing cars: %v", mission.ErrDependency, err)
	}
	return cars, nil
}

// Get returns a car by its business key.
func (r *CarRegistry) Get(ctx context.Context, carID string) (*models.Car, error) {
	car, err := r.Cars.FindCarByCarID(ctx, carID)
	if err != nil {
		if errors.Is(err, db.ErrNoRecord) {
			return nil, fmt.Errorf("car %s: %w", carID, mission.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: loading car: %v", mission.ErrDependency, err)
	}
	return car, nil
}

// Create registers a new car. CarID is required and must be unique;
// status and vehicle type default to available/car.
func (r *CarRegistry) Create(ctx context.Context, input CarInput) (*models.Car, error) {
	input.CarID = strings.TrimSpace(input.CarID)
	if input.CarID == "" {
		return nil, fmt.Errorf("%w: carId is required", mission.ErrValidation)
	}
	if input.Status == "" {
		input.Status = models.CarAvailable
	}
	if !models.IsValidCarStatus(input.Status) {
		return nil, fmt.Errorf("%w: unknown car status %q", mission.ErrValidation, input.Status)
	}
	if input.VehicleType == "" {
		input.VehicleType = models.VehicleCar
	}
	if !models.IsValidVehicleType(input.VehicleType) {
		return nil, fmt.Errorf("%w: unknown vehicle type %q", mission.ErrValidation, input.VehicleType)
	}
	if input.KmDepart < 0 {
		return nil, fmt.Errorf("%w: kmDepart must not be negative", mission.ErrValidation)
	}

	if _, err := r.Cars.FindCarByCarID(ctx, input.CarID); err == nil {
		return nil, fmt.Errorf("car %s: %w", input.CarID, mission.ErrAlreadyExists)
	} else if !errors.Is(err, db.ErrNoRecord) {
		return nil, fmt.Errorf("%w: checking car ID: %v", mission.ErrDependency, err)
	}

	car := models.Car{
		ID:          primitive.NewObjectID(),
		CarID:       input.CarID,
		Status:      input.Status,
		VehicleType: input.VehicleType,
		KmDepart:    input.KmDepart,
	}
	if err := r.Cars.InsertCar(ctx, car); err != nil {
		return nil, fmt.Errorf("%w: inserting car: %v", mission.ErrDependency, err)
	}
	log.WithField("carId", car.CarID).Info("Car registered")
	return &car, nil
}

// Update applies a partial admin edit to a car by its record ID.
func (r *CarRegistry) Update(ctx context.Context, id string, patch CarPatch) (*models.Car, error) {
	car, err := r.Cars.FindCarByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNoRecord) {
			return nil, fmt.Errorf("car %s: %w", id, mission.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: loading car: %v", mission.ErrDependency, err)
	}
	if patch.CarID != nil {
		trimmed := strings.TrimSpace(*patch.CarID)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: carId must not be empty", mission.ErrValidation)
		}
		car.CarID = trimmed
	}
	if patch.Status != nil {
		if !models.IsValidCarStatus(*patch.Status) {
			return nil, fmt.Errorf("%w: unknown car status %q", mission.ErrValidation, *patch.Status)
		}
		car.Status = *patch.Status
	}
	if patch.KmDepart != nil {
		if *patch.KmDepart < 0 {
			return nil, fmt.Errorf("%w: kmDepart must not be negative", mission.ErrValidation)
		}
		car.KmDepart = *patch.KmDepart
	}
	if patch.VehicleType != nil {
		if !models.IsValidVehicleType(*patch.VehicleType) {
			return nil, fmt.Errorf("%w: unknown vehicle type %q", mission.ErrValidation, *patch.VehicleType)
		}
		car.VehicleType = *patch.VehicleType
	}
	if err := r.Cars.UpdateCar(ctx, id, *car); err != nil {
		return nil, fmt.Errorf("%w: updating car: %v", mission.ErrDependency, err)
	}
	return car, nil
}

// Delete removes a car by its record ID. Missions referencing it are
// left untouched; orphaned references are tolerated.
func (r *CarRegistry) Delete(ctx context.Context, id string) error {
	if err := r.Cars.DeleteCar(ctx, id); err != nil {
		if errors.Is(err, db.ErrNoRecord) {
			return fmt.Errorf("car %s: %w", id, mission.ErrNotFound)
		}
		return fmt.Errorf("%w: deleting car: %v", mission.ErrDependency, err)
	}
	return nil
}
