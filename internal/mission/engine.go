package mission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/db"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/models"
)

// DocumentRenderer produces the printable mission sheet. Implementations
// must render unset return-side fields as blanks, never as zeros.
type DocumentRenderer interface {
	RenderMission(mission models.Mission) ([]byte, error)
}

// EventPublisher receives mission lifecycle events. Publishing is
// fire-and-forget: implementations log failures and never block the
// operation that emitted the event.
type EventPublisher interface {
	PublishMissionEvent(event Event)
}

// Event describes a mission lifecycle transition.
type Event struct {
	Action      string    `json:"action"` // "created", "completed", "deleted"
	MissionID   string    `json:"missionId"`
	OrderNumber string    `json:"orderNumber"`
	CarID       string    `json:"carId"`
	DriverName  string    `json:"driverName"`
	Status      string    `json:"status"`
	At          time.Time `json:"at"`
}

// Engine is the mission lifecycle engine. Multi-record updates are not
// atomic: each car, driver and mission write is an independent store
// call, and concurrent requests against the same entities can race.
// Create carries best-effort compensation; the other operations validate
// everything they can before the first write.
//
// Now is the clock used for creation and completion timestamps; tests
// override it.
type Engine struct {
	Store          *db.Store
	Renderer       DocumentRenderer
	Events         EventPublisher
	RevertOnDelete bool
	Now            func() time.Time
}

// NewEngine builds an engine over the given store and renderer.
func NewEngine(store *db.Store, renderer DocumentRenderer) *Engine {
	return &Engine{Store: store, Renderer: renderer, Now: time.Now}
}

// CreateOrder is the input to Create.
type CreateOrder struct {
	OrderNumber string   `json:"orderNumber"`
	CarID       string   `json:"carId"`
	DriverName  string   `json:"driverName"`
	VehicleType string   `json:"vehicleType"`
	MissionType []string `json:"missionType"`
	MissionZone string   `json:"missionZone"`
	Lieu        string   `json:"lieu"`
	SA          string   `json:"sa"`
	KmDepart    float64  `json:"kmDepart"`
	DateDepart  string   `json:"dateDepart"`
	HeureDepart string   `json:"heureDepart"`
}

func (o *CreateOrder) validate() error {
	o.OrderNumber = strings.TrimSpace(o.OrderNumber)
	o.CarID = strings.TrimSpace(o.CarID)
	o.DriverName = strings.TrimSpace(o.DriverName)
	if o.OrderNumber == "" {
		return fmt.Errorf("%w: orderNumber is required", ErrValidation)
	}
	if o.CarID == "" {
		return fmt.Errorf("%w: carId is required", ErrValidation)
	}
	if o.DriverName == "" {
		return fmt.Errorf("%w: driverName is required", ErrValidation)
	}
	if o.VehicleType == "" {
		o.VehicleType = models.VehicleCar
	}
	if !models.IsValidVehicleType(o.VehicleType) {
		return fmt.Errorf("%w: unknown vehicle type %q", ErrValidation, o.VehicleType)
	}
	if !models.IsValidMissionZone(o.MissionZone) {
		return fmt.Errorf("%w: unknown mission zone %q", ErrValidation, o.MissionZone)
	}
	if o.MissionZone == models.ZoneOutPerimeter && strings.TrimSpace(o.Lieu) == "" {
		return fmt.Errorf("%w: lieu is required for out-of-perimeter missions", ErrValidation)
	}
	for _, tag := range o.MissionType {
		if !models.IsValidMissionType(tag) {
			return fmt.Errorf("%w: unknown mission type %q", ErrValidation, tag)
		}
	}
	if o.KmDepart < 0 {
		return fmt.Errorf("%w: kmDepart must not be negative", ErrValidation)
	}
	if _, err := time.ParseInLocation(models.DateLayout, o.DateDepart, time.Local); err != nil {
		return fmt.Errorf("%w: invalid dateDepart %q", ErrValidation, o.DateDepart)
	}
	if _, err := time.ParseInLocation(models.TimeLayout, o.HeureDepart, time.Local); err != nil {
		return fmt.Errorf("%w: invalid heureDepart %q", ErrValidation, o.HeureDepart)
	}
	return nil
}

// Create books a new mission: it inserts the mission as ongoing and
// flips the referenced car and driver to on_mission. The returned PDF
// has all return-side fields blank. If a registry flip fails, the
// already-applied writes are compensated before the error is surfaced.
func (e *Engine) Create(ctx context.Context, order CreateOrder) (*models.Mission, []byte, error) {
	if err := order.validate(); err != nil {
		return nil, nil, err
	}

	if _, err := e.Store.Missions.FindMissionByOrder(ctx, order.OrderNumber); err == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateOrder, order.OrderNumber)
	} else if !errors.Is(err, db.ErrNoRecord) {
		return nil, nil, fmt.Errorf("%w: checking order number: %v", ErrDependency, err)
	}

	car, err := e.Store.Cars.FindCarByCarID(ctx, order.CarID)
	if err != nil {
		if errors.Is(err, db.ErrNoRecord) {
			return nil, nil, fmt.Errorf("car %q: %w", order.CarID, ErrUnavailable)
		}
		return nil, nil, fmt.Errorf("%w: looking up car: %v", ErrDependency, err)
	}
	if car.Status != models.CarAvailable {
		return nil, nil, fmt.Errorf("car %q is %s: %w", car.CarID, car.Status, ErrUnavailable)
	}

	driver, err := e.Store.Drivers.FindDriverByName(ctx, order.DriverName)
	if err != nil {
		if errors.Is(err, db.ErrNoRecord) {
			return nil, nil, fmt.Errorf("driver %q: %w", order.DriverName, ErrUnavailable)
		}
		return nil, nil, fmt.Errorf("%w: looking up driver: %v", ErrDependency, err)
	}
	if driver.Status != models.DriverAvailable {
		return nil, nil, fmt.Errorf("driver %q is %s: %w", driver.Name, driver.Status, ErrUnavailable)
	}

	mission := models.Mission{
		ID:          primitive.NewObjectID(),
		OrderNumber: order.OrderNumber,
		CarID:       order.CarID,
		DriverName:  order.DriverName,
		VehicleType: order.VehicleType,
		MissionType: order.MissionType,
		MissionZone: order.MissionZone,
		Lieu:        order.Lieu,
		SA:          order.SA,
		KmDepart:    order.KmDepart,
		DateDepart:  order.DateDepart,
		HeureDepart: order.HeureDepart,
		Status:      models.MissionOngoing,
		CreatedAt:   e.Now(),
	}
	if mission.MissionType == nil {
		mission.MissionType = []string{}
	}
	if err := e.Store.Missions.InsertMission(ctx, mission); err != nil {
		return nil, nil, fmt.Errorf("%w: inserting mission: %v", ErrDependency, err)
	}

	carBooked := *car
	carBooked.Status = models.CarOnMission
	if err := e.Store.Cars.UpdateCar(ctx, car.ID.Hex(), carBooked); err != nil {
		// Compensate: the mission must not stand without the car flip.
		if delErr := e.Store.Missions.DeleteMission(ctx, mission.ID.Hex()); delErr != nil {
			log.WithError(delErr).WithField("missionId", mission.ID.Hex()).
				Error("Failed to compensate mission insert")
		}
		return nil, nil, fmt.Errorf("%w: booking car: %v", ErrDependency, err)
	}

	driverBooked := *driver
	driverBooked.Status = models.DriverOnMission
	if err := e.Store.Drivers.UpdateDriver(ctx, driver.ID.Hex(), driverBooked); err != nil {
		if revErr := e.Store.Cars.UpdateCar(ctx, car.ID.Hex(), *car); revErr != nil {
			log.WithError(revErr).WithField("carId", car.CarID).
				Error("Failed to revert car status during compensation")
		}
		if delErr := e.Store.Missions.DeleteMission(ctx, mission.ID.Hex()); delErr != nil {
			log.WithError(delErr).WithField("missionId", mission.ID.Hex()).
				Error("Failed to compensate mission insert")
		}
		return nil, nil, fmt.Errorf("%w: booking driver: %v", ErrDependency, err)
	}

	log.WithFields(log.Fields{
		"missionId":   mission.ID.Hex(),
		"orderNumber": mission.OrderNumber,
		"carId":       mission.CarID,
		"driverName":  mission.DriverName,
	}).Info("Mission created")
	e.publish("created", mission)

	pdf, err := e.render(mission)
	if err != nil {
		return &mission, nil, fmt.Errorf("%w: rendering mission sheet: %v", ErrDependency, err)
	}
	return &mission, pdf, nil
}

// Complete closes an ongoing mission at the current clock time. The
// return timestamp is always computed from the system clock, never
// supplied by the caller.
func (e *Engine) Complete(ctx context.Context, id string, kmRetour float64) (*models.Mission, []byte, error) {
	mission, err := e.findMission(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if mission.Status == models.MissionCompleted {
		return nil, nil, fmt.Errorf("%w: mission %s is already completed", ErrValidation, id)
	}
	if kmRetour <= mission.KmDepart {
		return nil, nil, fmt.Errorf("%w: got %.0f after depart %.0f", ErrInvalidMileage, kmRetour, mission.KmDepart)
	}

	now := e.Now()
	dateRetour := now.Format(models.DateLayout)
	heureRetour := now.Format(models.TimeLayout)

	departTime, err := mission.DepartTimestamp()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: stored departure timestamp is malformed: %v", ErrValidation, err)
	}
	// Reparse the formatted return time so both instants carry minute
	// precision and the duration matches what the sheet shows.
	retourTime, _ := time.ParseInLocation(models.DateTimeLayout, dateRetour+"T"+heureRetour, time.Local)
	if retourTime.Before(departTime) {
		return nil, nil, ErrTemporalViolation
	}

	kmDone := kmRetour - mission.KmDepart
	mission.KmRetour = models.Float(kmRetour)
	mission.DateRetour = dateRetour
	mission.HeureRetour = heureRetour
	mission.DurationHours = models.Float(models.RoundHours(retourTime.Sub(departTime)))
	mission.KmDone = models.Float(kmDone)
	mission.Status = models.MissionCompleted

	// Orphaned car/driver references are tolerated: the mission still
	// completes, only the registry update is skipped.
	car, err := e.Store.Cars.FindCarByCarID(ctx, mission.CarID)
	if err == nil {
		car.Status = models.CarAvailable
		car.KmDepart = kmRetour
		car.TotalKm += kmDone
		car.MissionsCompleted++
		if err := e.Store.Cars.UpdateCar(ctx, car.ID.Hex(), *car); err != nil {
			return nil, nil, fmt.Errorf("%w: releasing car: %v", ErrDependency, err)
		}
	} else if !errors.Is(err, db.ErrNoRecord) {
		return nil, nil, fmt.Errorf("%w: looking up car: %v", ErrDependency, err)
	}

	driver, err := e.Store.Drivers.FindDriverByName(ctx, mission.DriverName)
	if err == nil {
		driver.Status = models.DriverAvailable
		driver.MissionsCompleted++
		if err := e.Store.Drivers.UpdateDriver(ctx, driver.ID.Hex(), *driver); err != nil {
			return nil, nil, fmt.Errorf("%w: releasing driver: %v", ErrDependency, err)
		}
	} else if !errors.Is(err, db.ErrNoRecord) {
		return nil, nil, fmt.Errorf("%w: looking up driver: %v", ErrDependency, err)
	}

	if err := e.Store.Missions.UpdateMission(ctx, id, *mission); err != nil {
		return nil, nil, fmt.Errorf("%w: saving mission: %v", ErrDependency, err)
	}

	log.WithFields(log.Fields{
		"missionId":   id,
		"orderNumber": mission.OrderNumber,
		"kmDone":      kmDone,
		"duration":    *mission.DurationHours,
	}).Info("Mission completed")
	e.publish("completed", *mission)

	pdf, err := e.render(*mission)
	if err != nil {
		return mission, nil, fmt.Errorf("%w: rendering mission sheet: %v", ErrDependency, err)
	}
	return mission, pdf, nil
}

// Edit applies a partial update to a mission. It is the only operation
// allowed to mutate a completed mission: driver reassignment rebalances
// the drivers' completion counters, car reassignment rebalances both
// cars' aggregates under each car's own odometer chronology, and a
// retroactive kmRetour correction triggers a full recompute of the car's
// totalKm rather than an incremental delta. No PDF is produced.
func (e *Engine) Edit(ctx context.Context, id string, patch models.MissionPatch) (*models.Mission, error) {
	mission, err := e.findMission(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	originalCarID := mission.CarID
	originalDriver := mission.DriverName
	originalKmDone := 0.0
	if mission.KmRetour != nil {
		originalKmDone = *mission.KmRetour - mission.KmDepart
	}
	carChanged := patch.CarID != nil && *patch.CarID != "" && *patch.CarID != originalCarID
	driverChanged := patch.DriverName != nil && *patch.DriverName != "" && *patch.DriverName != originalDriver

	patch.Apply(mission)

	if driverChanged {
		if err := e.reassignDriver(ctx, mission, originalDriver, *patch.DriverName); err != nil {
			return nil, err
		}
	}

	if mission.HasReturnWindow() {
		depart, err := mission.DepartTimestamp()
		if err != nil {
			return nil, fmt.Errorf("%w: invalid departure timestamp: %v", ErrValidation, err)
		}
		retour, err := mission.RetourTimestamp()
		if err != nil {
			return nil, fmt.Errorf("%w: invalid return timestamp: %v", ErrValidation, err)
		}
		if retour.Before(depart) {
			return nil, ErrTemporalViolation
		}
		mission.DurationHours = models.Float(models.RoundHours(retour.Sub(depart)))
	}

	carSwapped := false
	if carChanged && mission.Status == models.MissionCompleted {
		if err := e.reassignCar(ctx, mission, originalCarID, *patch.CarID, originalKmDone); err != nil {
			return nil, err
		}
		carSwapped = true
	} else if carChanged {
		// Ongoing missions carry no aggregate contribution yet; the
		// reference moves verbatim.
		mission.CarID = *patch.CarID
	}

	if patch.KmRetour != nil && mission.Status == models.MissionCompleted && !carSwapped {
		if err := e.correctMileage(ctx, mission); err != nil {
			return nil, err
		}
	} else if patch.KmDepart != nil && !carSwapped && mission.Status == models.MissionCompleted && mission.KmRetour != nil {
		// kmDone is a cached derivation; a kmDepart edit must not leave
		// it stale.
		kmDone := *mission.KmRetour - mission.KmDepart
		if kmDone <= 0 {
			return nil, fmt.Errorf("%w: got %.0f after depart %.0f", ErrInvalidMileage, *mission.KmRetour, mission.KmDepart)
		}
		mission.KmDone = models.Float(kmDone)
	}

	if err := e.Store.Missions.UpdateMission(ctx, id, *mission); err != nil {
		return nil, fmt.Errorf("%w: saving mission: %v", ErrDependency, err)
	}

	log.WithFields(log.Fields{
		"missionId":   id,
		"orderNumber": mission.OrderNumber,
		"carChanged":  carChanged,
	}).Info("Mission updated")
	return mission, nil
}

func validatePatch(p models.MissionPatch) error {
	if p.Status != nil && !models.IsValidMissionStatus(*p.Status) {
		return fmt.Errorf("%w: unknown mission status %q", ErrValidation, *p.Status)
	}
	if p.VehicleType != nil && !models.IsValidVehicleType(*p.VehicleType) {
		return fmt.Errorf("%w: unknown vehicle type %q", ErrValidation, *p.VehicleType)
	}
	if p.MissionZone != nil && !models.IsValidMissionZone(*p.MissionZone) {
		return fmt.Errorf("%w: unknown mission zone %q", ErrValidation, *p.MissionZone)
	}
	if p.MissionType != nil {
		for _, tag := range *p.MissionType {
			if !models.IsValidMissionType(tag) {
				return fmt.Errorf("%w: unknown mission type %q", ErrValidation, tag)
			}
		}
	}
	return nil
}

// reassignDriver moves the mission's completion credit from the old
// driver to the new one. This is an administrative override: the new
// driver's counter increases regardless of their availability. The
// mission's reference only moves if the new driver actually exists.
func (e *Engine) reassignDriver(ctx context.Context, mission *models.Mission, oldName, newName string) error {
	oldDriver, err := e.Store.Drivers.FindDriverByName(ctx, oldName)
	if err == nil && oldDriver.MissionsCompleted > 0 {
		oldDriver.MissionsCompleted--
		if err := e.Store.Drivers.UpdateDriver(ctx, oldDriver.ID.Hex(), *oldDriver); err != nil {
			return fmt.Errorf("%w: updating previous driver: %v", ErrDependency, err)
		}
	} else if err != nil && !errors.Is(err, db.ErrNoRecord) {
		return fmt.Errorf("%w: looking up previous driver: %v", ErrDependency, err)
	}

	newDriver, err := e.Store.Drivers.FindDriverByName(ctx, newName)
	if err != nil {
		if errors.Is(err, db.ErrNoRecord) {
			return nil
		}
		return fmt.Errorf("%w: looking up new driver: %v", ErrDependency, err)
	}
	newDriver.MissionsCompleted++
	if err := e.Store.Drivers.UpdateDriver(ctx, newDriver.ID.Hex(), *newDriver); err != nil {
		return fmt.Errorf("%w: updating new driver: %v", ErrDependency, err)
	}
	mission.DriverName = newName
	return nil
}

// reassignCar moves a completed mission from one car to another. The old
// car loses the mission's previous contribution and has its odometer
// anchor rewound to its remaining chronology; the mission's kmDepart is
// rebased onto the new car's chronology and the new car absorbs the
// resulting distance. The mission's carId is committed only after both
// registry updates succeed.
func (e *Engine) reassignCar(ctx context.Context, mission *models.Mission, oldCarID, newCarID string, oldKmDone float64) error {
	oldCar, err := e.Store.Cars.FindCarByCarID(ctx, oldCarID)
	if err == nil {
		if oldCar.MissionsCompleted > 0 {
			oldCar.MissionsCompleted--
		}
		if oldKmDone > 0 {
			oldCar.TotalKm -= oldKmDone
			if oldCar.TotalKm < 0 {
				oldCar.TotalKm = 0
			}
		}
		oldCar.KmDepart = 0
		if last, err := e.Store.Missions.LastCompletedByCar(ctx, oldCarID, mission.ID); err == nil && last.KmRetour != nil {
			oldCar.KmDepart = *last.KmRetour
		} else if err != nil && !errors.Is(err, db.ErrNoRecord) {
			return fmt.Errorf("%w: finding previous car chronology: %v", ErrDependency, err)
		}
		if err := e.Store.Cars.UpdateCar(ctx, oldCar.ID.Hex(), *oldCar); err != nil {
			return fmt.Errorf("%w: updating previous car: %v", ErrDependency, err)
		}
	} else if !errors.Is(err, db.ErrNoRecord) {
		return fmt.Errorf("%w: looking up previous car: %v", ErrDependency, err)
	}

	newCar, err := e.Store.Cars.FindCarByCarID(ctx, newCarID)
	if err == nil {
		newKmDepart := 0.0
		if last, err := e.Store.Missions.LastCompletedByCar(ctx, newCarID, mission.ID); err == nil && last.KmRetour != nil {
			newKmDepart = *last.KmRetour
		} else if err != nil && !errors.Is(err, db.ErrNoRecord) {
			return fmt.Errorf("%w: finding new car chronology: %v", ErrDependency, err)
		}
		mission.KmDepart = newKmDepart
		if mission.KmRetour == nil || *mission.KmRetour <= newKmDepart {
			return fmt.Errorf("%w: km retour must exceed the new car's depart reading %.0f", ErrInvalidMileage, newKmDepart)
		}
		kmDone := *mission.KmRetour - newKmDepart
		mission.KmDone = models.Float(kmDone)
		newCar.TotalKm += kmDone
		newCar.KmDepart = *mission.KmRetour
		newCar.MissionsCompleted++
		if err := e.Store.Cars.UpdateCar(ctx, newCar.ID.Hex(), *newCar); err != nil {
			return fmt.Errorf("%w: updating new car: %v", ErrDependency, err)
		}
	} else if !errors.Is(err, db.ErrNoRecord) {
		return fmt.Errorf("%w: looking up new car: %v", ErrDependency, err)
	}

	mission.CarID = newCarID
	return nil
}

// correctMileage handles a retroactive kmRetour edit on a completed
// mission: it re-derives kmDone and fully recomputes the car's totalKm
// from its completed-mission history. Incremental deltas drift after
// arbitrary edits; the full fold does not.
func (e *Engine) correctMileage(ctx context.Context, mission *models.Mission) error {
	kmDone := *mission.KmRetour - mission.KmDepart
	if kmDone <= 0 {
		return fmt.Errorf("%w: got %.0f after depart %.0f", ErrInvalidMileage, *mission.KmRetour, mission.KmDepart)
	}
	mission.KmDone = models.Float(kmDone)

	// An orphaned car reference skips only the registry recompute; the
	// mission's own cached derivation is corrected regardless.
	car, err := e.Store.Cars.FindCarByCarID(ctx, mission.CarID)
	if err != nil {
		if errors.Is(err, db.ErrNoRecord) {
			return nil
		}
		return fmt.Errorf("%w: looking up car: %v", ErrDependency, err)
	}

	completed, err := e.Store.Missions.CompletedByCar(ctx, mission.CarID)
	if err != nil {
		return fmt.Errorf("%w: loading completed missions: %v", ErrDependency, err)
	}
	total := 0.0
	for _, m := range completed {
		// The edited mission is still stored with its old readings;
		// fold in the corrected values instead.
		if m.ID == mission.ID {
			m = *mission
		}
		if m.KmRetour == nil {
			continue
		}
		if diff := *m.KmRetour - m.KmDepart; diff > 0 {
			total += diff
		}
	}
	car.TotalKm = total
	car.KmDepart = *mission.KmRetour
	if err := e.Store.Cars.UpdateCar(ctx, car.ID.Hex(), *car); err != nil {
		return fmt.Errorf("%w: updating car: %v", ErrDependency, err)
	}
	return nil
}

// Delete removes a mission record. Registry reversion is a deployment
// choice: with RevertOnDelete off the registries keep whatever state the
// mission left behind, matching the historical behavior.
func (e *Engine) Delete(ctx context.Context, id string) error {
	mission, err := e.findMission(ctx, id)
	if err != nil {
		return err
	}

	if e.RevertOnDelete {
		if err := e.revertRegistries(ctx, mission); err != nil {
			return err
		}
	}

	if err := e.Store.Missions.DeleteMission(ctx, id); err != nil {
		if errors.Is(err, db.ErrNoRecord) {
			return fmt.Errorf("mission %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("%w: deleting mission: %v", ErrDependency, err)
	}

	log.WithFields(log.Fields{
		"missionId":   id,
		"orderNumber": mission.OrderNumber,
	}).Info("Mission deleted")
	e.publish("deleted", *mission)
	return nil
}

// revertRegistries undoes the mission's footprint on its car and driver
// before the record disappears: an ongoing mission releases both
// entities, a completed one gives back its counter and distance
// contributions.
func (e *Engine) revertRegistries(ctx context.Context, mission *models.Mission) error {
	car, err := e.Store.Cars.FindCarByCarID(ctx, mission.CarID)
	if err == nil {
		switch mission.Status {
		case models.MissionOngoing:
			if car.Status == models.CarOnMission {
				car.Status = models.CarAvailable
			}
		case models.MissionCompleted:
			if car.MissionsCompleted > 0 {
				car.MissionsCompleted--
			}
			if mission.KmRetour != nil {
				if diff := *mission.KmRetour - mission.KmDepart; diff > 0 {
					car.TotalKm -= diff
					if car.TotalKm < 0 {
						car.TotalKm = 0
					}
				}
			}
			car.KmDepart = 0
			if last, err := e.Store.Missions.LastCompletedByCar(ctx, mission.CarID, mission.ID); err == nil && last.KmRetour != nil {
				car.KmDepart = *last.KmRetour
			} else if err != nil && !errors.Is(err, db.ErrNoRecord) {
				return fmt.Errorf("%w: finding car chronology: %v", ErrDependency, err)
			}
		}
		if err := e.Store.Cars.UpdateCar(ctx, car.ID.Hex(), *car); err != nil {
			return fmt.Errorf("%w: reverting car: %v", ErrDependency, err)
		}
	} else if !errors.Is(err, db.ErrNoRecord) {
		return fmt.Errorf("%w: looking up car: %v", ErrDependency, err)
	}

	driver, err := e.Store.Drivers.FindDriverByName(ctx, mission.DriverName)
	if err == nil {
		switch mission.Status {
		case models.MissionOngoing:
			if driver.Status == models.DriverOnMission {
				driver.Status = models.DriverAvailable
			}
		case models.MissionCompleted:
			if driver.MissionsCompleted > 0 {
				driver.MissionsCompleted--
			}
		}
		if err := e.Store.Drivers.UpdateDriver(ctx, driver.ID.Hex(), *driver); err != nil {
			return fmt.Errorf("%w: reverting driver: %v", ErrDependency, err)
		}
	} else if !errors.Is(err, db.ErrNoRecord) {
		return fmt.Errorf("%w: looking up driver: %v", ErrDependency, err)
	}
	return nil
}

// ListQuery carries the raw filter values of a mission listing. Date
// values accept YYYY, YYYY-MM or YYYY-MM-DD.
type ListQuery struct {
	Order       string
	Car         string
	Driver      string
	VehicleType string
	Zone        string
	DateDepart  string
	DateRetour  string
}

// List returns missions matching the query, newest first.
func (e *Engine) List(ctx context.Context, q ListQuery) ([]models.Mission, error) {
	filter := db.MissionFilter{
		OrderContains: q.Order,
		CarID:         q.Car,
		DriverName:    q.Driver,
		VehicleType:   q.VehicleType,
		ZonePrefix:    strings.TrimSpace(q.Zone),
	}
	var err error
	if q.DateDepart != "" {
		if filter.DateDepart, err = db.ParseDateQuery(q.DateDepart); err != nil {
			return nil, err
		}
	}
	if q.DateRetour != "" {
		if filter.DateRetour, err = db.ParseDateQuery(q.DateRetour); err != nil {
			return nil, err
		}
	}
	missions, err := e.Store.Missions.FindMissions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: listing missions: %v", ErrDependency, err)
	}
	return missions, nil
}

// Get returns a single mission by ID.
func (e *Engine) Get(ctx context.Context, id string) (*models.Mission, error) {
	return e.findMission(ctx, id)
}

// Document renders the mission sheet PDF. Return-side fields are blanked
// for missions still ongoing.
func (e *Engine) Document(ctx context.Context, id string) ([]byte, error) {
	mission, err := e.findMission(ctx, id)
	if err != nil {
		return nil, err
	}
	m := *mission
	if m.Status != models.MissionCompleted {
		m.KmRetour = nil
		m.KmDone = nil
		m.DurationHours = nil
		m.DateRetour = ""
		m.HeureRetour = ""
	}
	pdf, err := e.render(m)
	if err != nil {
		return nil, fmt.Errorf("%w: rendering mission sheet: %v", ErrDependency, err)
	}
	return pdf, nil
}

// CarIDs lists every registered car business key.
func (e *Engine) CarIDs(ctx context.Context) ([]string, error) {
	cars, err := e.Store.Cars.FindCars(ctx, db.CarFilter{})
	if err != nil {
		return nil, fmt.Errorf("%w: listing cars: %v", ErrDependency, err)
	}
	ids := make([]string, 0, len(cars))
	for _, car := range cars {
		ids = append(ids, car.CarID)
	}
	return ids, nil
}

// DriverNames lists every registered driver name.
func (e *Engine) DriverNames(ctx context.Context) ([]string, error) {
	drivers, err := e.Store.Drivers.FindDrivers(ctx, db.DriverFilter{})
	if err != nil {
		return nil, fmt.Errorf("%w: listing drivers: %v", ErrDependency, err)
	}
	names := make([]string, 0, len(drivers))
	for _, driver := range drivers {
		names = append(names, driver.Name)
	}
	return names, nil
}

// DepartDates lists the distinct departure dates across all missions.
func (e *Engine) DepartDates(ctx context.Context) ([]string, error) {
	dates, err := e.Store.Missions.DistinctDepartDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing depart dates: %v", ErrDependency, err)
	}
	return dates, nil
}

// RetourDates lists the distinct return dates across completed missions.
func (e *Engine) RetourDates(ctx context.Context) ([]string, error) {
	dates, err := e.Store.Missions.DistinctRetourDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing retour dates: %v", ErrDependency, err)
	}
	return dates, nil
}

func (e *Engine) findMission(ctx context.Context, id string) (*models.Mission, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("mission %s: %w", id, ErrNotFound)
	}
	mission, err := e.Store.Missions.FindMissionByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNoRecord) {
			return nil, fmt.Errorf("mission %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: loading mission: %v", ErrDependency, err)
	}
	return mission, nil
}

func (e *Engine) render(mission models.Mission) ([]byte, error) {
	if e.Renderer == nil {
		return nil, nil
	}
	return e.Renderer.RenderMission(mission)
}

func (e *Engine) publish(action string, mission models.Mission) {
	if e.Events == nil {
		return
	}
	e.Events.PublishMissionEvent(Event{
		Action:      action,
		MissionID:   mission.ID.Hex(),
		OrderNumber: mission.OrderNumber,
		CarID:       mission.CarID,
		DriverName:  mission.DriverName,
		Status:      mission.Status,
		At:          e.Now(),
	})
}
