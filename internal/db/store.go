package db

import (
	"context"
	"errors"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNoRecord is returned by lookups that match nothing. Implementations
// must translate their own not-found signal into this sentinel so that
// callers can use errors.Is.
var ErrNoRecord = errors.New("record not found")

// CarCollection defines the interface for car record operations.
type CarCollection interface {
	InsertCar(ctx context.Context, car models.Car) error
	FindCars(ctx context.Context, filter CarFilter) ([]models.Car, error)
	FindCarByCarID(ctx context.Context, carID string) (*models.Car, error)
	FindCarByID(ctx context.Context, id string) (*models.Car, error)
	UpdateCar(ctx context.Context, id string, car models.Car) error
	DeleteCar(ctx context.Context, id string) error
}

// DriverCollection defines the interface for driver record operations.
type DriverCollection interface {
	InsertDriver(ctx context.Context, driver models.Driver) error
	FindDrivers(ctx context.Context, filter DriverFilter) ([]models.Driver, error)
	FindDriverByName(ctx context.Context, name string) (*models.Driver, error)
	FindDriverByID(ctx context.Context, id string) (*models.Driver, error)
	UpdateDriver(ctx context.Context, id string, driver models.Driver) error
	DeleteDriver(ctx context.Context, id string) error
}

// MissionCollection defines the interface for mission record operations.
// FindMissions returns missions sorted by creation time, newest first.
// LastCompletedByCar returns the car's most recent completed mission by
// return date, skipping exclude; it is the anchor for odometer
// continuity when a completed mission is moved between cars.
type MissionCollection interface {
	InsertMission(ctx context.Context, mission models.Mission) error
	FindMissions(ctx context.Context, filter MissionFilter) ([]models.Mission, error)
	FindMissionByID(ctx context.Context, id string) (*models.Mission, error)
	FindMissionByOrder(ctx context.Context, orderNumber string) (*models.Mission, error)
	UpdateMission(ctx context.Context, id string, mission models.Mission) error
	DeleteMission(ctx context.Context, id string) error
	DistinctDepartDates(ctx context.Context) ([]string, error)
	DistinctRetourDates(ctx context.Context) ([]string, error)
	LastCompletedByCar(ctx context.Context, carID string, exclude primitive.ObjectID) (*models.Mission, error)
	CompletedByCar(ctx context.Context, carID string) ([]models.Mission, error)
	CompletedByDriver(ctx context.Context, driverName string) ([]models.Mission, error)
	CompletedInRange(ctx context.Context, start, end string) ([]models.Mission, error)
	MissionsInRange(ctx context.Context, start, end string) ([]models.Mission, error)
}

// Store bundles the three record collections the service operates on.
type Store struct {
	Cars     CarCollection
	Drivers  DriverCollection
	Missions MissionCollection
}
