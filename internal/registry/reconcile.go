package registry

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/db"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/mission"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/models"
)

// Reconciler recomputes the denormalized aggregate counters from mission
// history. The lifecycle engine maintains the counters incrementally,
// which can drift under arbitrary edits; the reconciler is the full
// recompute fallback, run per entity or as a sweep.
type Reconciler struct {
	Store *db.Store
}

// NewReconciler builds a reconciler over the given store.
func NewReconciler(store *db.Store) *Reconciler {
	return &Reconciler{Store: store}
}

// ReconcileCar rebuilds a car's totalKm, missionsCompleted and odometer
// anchor from its completed missions. The anchor is only moved when the
// car has at least one completed mission: a freshly registered car keeps
// its manually entered odometer.
func (r *Reconciler) ReconcileCar(ctx context.Context, carID string) (*models.Car, error) {
	car, err := r.Store.Cars.FindCarByCarID(ctx, carID)
	if err != nil {
		if errors.Is(err, db.ErrNoRecord) {
			return nil, fmt.Errorf("car %s: %w", carID, mission.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: loading car: %v", mission.ErrDependency, err)
	}

	completed, err := r.Store.Missions.CompletedByCar(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading completed missions: %v", mission.ErrDependency, err)
	}
	total := 0.0
	for _, m := range completed {
		if m.KmRetour == nil {
			continue
		}
		if diff := *m.KmRetour - m.KmDepart; diff > 0 {
			total += diff
		}
	}
	car.TotalKm = total
	car.MissionsCompleted = len(completed)
	if last, err := r.Store.Missions.LastCompletedByCar(ctx, carID, primitive.NilObjectID); err == nil && last.KmRetour != nil {
		car.KmDepart = *last.KmRetour
	} else if err != nil && !errors.Is(err, db.ErrNoRecord) {
		return nil, fmt.Errorf("%w: finding car chronology: %v", mission.ErrDependency, err)
	}

	if err := r.Store.Cars.UpdateCar(ctx, car.ID.Hex(), *car); err != nil {
		return nil, fmt.Errorf("%w: updating car: %v", mission.ErrDependency, err)
	}
	log.WithFields(log.Fields{
		"carId":             car.CarID,
		"totalKm":           car.TotalKm,
		"missionsCompleted": car.MissionsCompleted,
	}).Info("Car aggregates reconciled")
	return car, nil
}

// ReconcileDriver rebuilds a driver's completion counter from mission
// history.
func (r *Reconciler) ReconcileDriver(ctx context.Context, name string) (*models.Driver, error) {
	driver, err := r.Store.Drivers.FindDriverByName(ctx, name)
	if err != nil {
		if errors.Is(err, db.ErrNoRecord) {
			return nil, fmt.Errorf("driver %s: %w", name, mission.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: loading driver: %v", mission.ErrDependency, err)
	}

	completed, err := r.Store.Missions.CompletedByDriver(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: loading completed missions: %v", mission.ErrDependency, err)
	}
	driver.MissionsCompleted = len(completed)
	if err := r.Store.Drivers.UpdateDriver(ctx, driver.ID.Hex(), *driver); err != nil {
		return nil, fmt.Errorf("%w: updating driver: %v", mission.ErrDependency, err)
	}
	log.WithFields(log.Fields{
		"driverName":        driver.Name,
		"missionsCompleted": driver.MissionsCompleted,
	}).Info("Driver aggregates reconciled")
	return driver, nil
}

// ReconcileAll sweeps every car and driver. Individual failures are
// collected so one bad record does not stop the pass.
func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	cars, err := r.Store.Cars.FindCars(ctx, db.CarFilter{})
	if err != nil {
		return fmt.Errorf("%w: listing cars: %v", mission.ErrDependency, err)
	}
	drivers, err := r.Store.Drivers.FindDrivers(ctx, db.DriverFilter{})
	if err != nil {
		return fmt.Errorf("%w: listing drivers: %v", mission.ErrDependency, err)
	}

	var errs []error
	for _, car := range cars {
		if _, err := r.ReconcileCar(ctx, car.CarID); err != nil {
			errs = append(errs, fmt.Errorf("car %s: %w", car.CarID, err))
		}
	}
	for _, driver := range drivers {
		if _, err := r.ReconcileDriver(ctx, driver.Name); err != nil {
			errs = append(errs, fmt.Errorf("driver %s: %w", driver.Name, err))
		}
	}
	return errors.Join(errs...)
}
