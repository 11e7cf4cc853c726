package mission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/db"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/models"
)

type stubRenderer struct {
	last models.Mission
}

func (s *stubRenderer) RenderMission(m models.Mission) ([]byte, error) {
	s.last = m
	return []byte("%PDF-stub"), nil
}

type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) PublishMissionEvent(ev Event) {
	r.events = append(r.events, ev)
}

func newTestEngine(t *testing.T) (*Engine, *db.Store) {
	t.Helper()
	store, _ := db.NewMemoryStore()
	e := NewEngine(store, &stubRenderer{})
	e.Now = func() time.Time {
		return time.Date(2025, 3, 10, 14, 30, 0, 0, time.Local)
	}
	return e, store
}

func seedCar(t *testing.T, store *db.Store, carID, status string, kmDepart float64) models.Car {
	t.Helper()
	car := models.Car{
		ID:          primitive.NewObjectID(),
		CarID:       carID,
		Status:      status,
		VehicleType: models.VehicleCar,
		KmDepart:    kmDepart,
	}
	require.NoError(t, store.Cars.InsertCar(context.Background(), car))
	return car
}

func seedDriver(t *testing.T, store *db.Store, name, status string) models.Driver {
	t.Helper()
	driver := models.Driver{
		ID:         primitive.NewObjectID(),
		Name:       name,
		Status:     status,
		PermitType: models.PermitB,
	}
	require.NoError(t, store.Drivers.InsertDriver(context.Background(), driver))
	return driver
}

func validOrder() CreateOrder {
	return CreateOrder{
		OrderNumber: "OM-2025-001",
		CarID:       "C-12",
		DriverName:  "Karim Bensaid",
		VehicleType: models.VehicleCar,
		MissionType: []string{models.TypePersonnel},
		MissionZone: models.ZoneInPerimeter,
		SA:          "SA-7",
		KmDepart:    1000,
		DateDepart:  "2025-03-10",
		HeureDepart: "08:00",
	}
}

func TestEngineCreate(t *testing.T) {
	e, store := newTestEngine(t)
	recorder := &eventRecorder{}
	e.Events = recorder
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)

	m, pdf, err := e.Create(ctx, validOrder())
	require.NoError(t, err)
	assert.Equal(t, models.MissionOngoing, m.Status)
	assert.Equal(t, "OM-2025-001", m.OrderNumber)
	assert.Nil(t, m.KmRetour)
	assert.Nil(t, m.KmDone)
	assert.Equal(t, e.Now(), m.CreatedAt)
	assert.NotEmpty(t, pdf)

	car, err := store.Cars.FindCarByCarID(ctx, "C-12")
	require.NoError(t, err)
	assert.Equal(t, models.CarOnMission, car.Status)

	driver, err := store.Drivers.FindDriverByName(ctx, "Karim Bensaid")
	require.NoError(t, err)
	assert.Equal(t, models.DriverOnMission, driver.Status)

	require.Len(t, recorder.events, 1)
	assert.Equal(t, "created", recorder.events[0].Action)
	assert.Equal(t, m.ID.Hex(), recorder.events[0].MissionID)
}

func TestEngineCreate_DuplicateOrder(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)

	_, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)

	// Second booking with the same order number, even with free resources.
	seedCar(t, store, "C-13", models.CarAvailable, 500)
	seedDriver(t, store, "Rachid Amrani", models.DriverAvailable)
	order := validOrder()
	order.CarID = "C-13"
	order.DriverName = "Rachid Amrani"
	_, _, err = e.Create(ctx, order)
	assert.ErrorIs(t, err, ErrDuplicateOrder)
}

type failingCarUpdates struct {
	db.CarCollection
}

func (f *failingCarUpdates) UpdateCar(ctx context.Context, id string, car models.Car) error {
	return errors.New("cars collection is down")
}

type failingDriverUpdates struct {
	db.DriverCollection
}

func (f *failingDriverUpdates) UpdateDriver(ctx context.Context, id string, driver models.Driver) error {
	return errors.New("drivers collection is down")
}

func TestEngineCreate_CompensatesCarBookingFailure(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	store.Cars = &failingCarUpdates{CarCollection: store.Cars}

	_, _, err := e.Create(ctx, validOrder())
	require.ErrorIs(t, err, ErrDependency)

	// The inserted mission must not stand without the car flip.
	_, err = store.Missions.FindMissionByOrder(ctx, "OM-2025-001")
	assert.ErrorIs(t, err, db.ErrNoRecord)
}

func TestEngineCreate_CompensatesDriverBookingFailure(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	store.Drivers = &failingDriverUpdates{DriverCollection: store.Drivers}

	_, _, err := e.Create(ctx, validOrder())
	require.ErrorIs(t, err, ErrDependency)

	_, err = store.Missions.FindMissionByOrder(ctx, "OM-2025-001")
	assert.ErrorIs(t, err, db.ErrNoRecord)

	// The already-applied car flip is rolled back.
	car, err := store.Cars.FindCarByCarID(ctx, "C-12")
	require.NoError(t, err)
	assert.Equal(t, models.CarAvailable, car.Status)
}

func TestEngineCreate_Unavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("car on mission", func(t *testing.T) {
		e, store := newTestEngine(t)
		seedCar(t, store, "C-12", models.CarOnMission, 1000)
		seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
		_, _, err := e.Create(ctx, validOrder())
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("unknown car", func(t *testing.T) {
		e, store := newTestEngine(t)
		seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
		_, _, err := e.Create(ctx, validOrder())
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("driver off duty", func(t *testing.T) {
		e, store := newTestEngine(t)
		seedCar(t, store, "C-12", models.CarAvailable, 1000)
		seedDriver(t, store, "Karim Bensaid", models.DriverOffDuty)
		_, _, err := e.Create(ctx, validOrder())
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestEngineCreate_Validation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateOrder)
	}{
		{"missing order number", func(o *CreateOrder) { o.OrderNumber = "  " }},
		{"missing car", func(o *CreateOrder) { o.CarID = "" }},
		{"missing driver", func(o *CreateOrder) { o.DriverName = "" }},
		{"unknown zone", func(o *CreateOrder) { o.MissionZone = "somewhere" }},
		{"out of perimeter without lieu", func(o *CreateOrder) {
			o.MissionZone = models.ZoneOutPerimeter
			o.Lieu = ""
		}},
		{"unknown mission type", func(o *CreateOrder) { o.MissionType = []string{"joyride"} }},
		{"negative km", func(o *CreateOrder) { o.KmDepart = -1 }},
		{"bad date", func(o *CreateOrder) { o.DateDepart = "10/03/2025" }},
		{"bad time", func(o *CreateOrder) { o.HeureDepart = "8h00" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := validOrder()
			tc.mutate(&order)
			_, _, err := e.Create(ctx, order)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestEngineComplete(t *testing.T) {
	e, store := newTestEngine(t)
	recorder := &eventRecorder{}
	e.Events = recorder
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)

	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)

	m, pdf, err := e.Complete(ctx, created.ID.Hex(), 1080)
	require.NoError(t, err)
	assert.Equal(t, models.MissionCompleted, m.Status)
	require.NotNil(t, m.KmRetour)
	assert.Equal(t, 1080.0, *m.KmRetour)
	require.NotNil(t, m.KmDone)
	assert.Equal(t, 80.0, *m.KmDone)
	assert.Equal(t, "2025-03-10", m.DateRetour)
	assert.Equal(t, "14:30", m.HeureRetour)
	require.NotNil(t, m.DurationHours)
	assert.Equal(t, 6.5, *m.DurationHours)
	assert.NotEmpty(t, pdf)

	car, err := store.Cars.FindCarByCarID(ctx, "C-12")
	require.NoError(t, err)
	assert.Equal(t, models.CarAvailable, car.Status)
	assert.Equal(t, 1080.0, car.KmDepart)
	assert.Equal(t, 80.0, car.TotalKm)
	assert.Equal(t, 1, car.MissionsCompleted)

	driver, err := store.Drivers.FindDriverByName(ctx, "Karim Bensaid")
	require.NoError(t, err)
	assert.Equal(t, models.DriverAvailable, driver.Status)
	assert.Equal(t, 1, driver.MissionsCompleted)

	require.Len(t, recorder.events, 2)
	assert.Equal(t, "completed", recorder.events[1].Action)

	// Completing again must be rejected.
	_, _, err = e.Complete(ctx, created.ID.Hex(), 1200)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEngineComplete_InvalidMileage(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)

	_, _, err = e.Complete(ctx, created.ID.Hex(), 1000)
	assert.ErrorIs(t, err, ErrInvalidMileage)
	_, _, err = e.Complete(ctx, created.ID.Hex(), 950)
	assert.ErrorIs(t, err, ErrInvalidMileage)

	// The failed completion must leave the mission ongoing.
	m, err := e.Get(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.MissionOngoing, m.Status)
}

func TestEngineComplete_TemporalViolation(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)

	// Clock before the 08:00 departure.
	e.Now = func() time.Time {
		return time.Date(2025, 3, 10, 7, 15, 0, 0, time.Local)
	}
	_, _, err = e.Complete(ctx, created.ID.Hex(), 1080)
	assert.ErrorIs(t, err, ErrTemporalViolation)
}

func TestEngineComplete_OrphanedReferences(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	// Mission whose car and driver records no longer exist.
	orphan := models.Mission{
		ID:          primitive.NewObjectID(),
		OrderNumber: "OM-ORPHAN",
		CarID:       "C-GONE",
		DriverName:  "Ghost",
		MissionZone: models.ZoneInPerimeter,
		KmDepart:    100,
		DateDepart:  "2025-03-10",
		HeureDepart: "08:00",
		Status:      models.MissionOngoing,
		CreatedAt:   e.Now(),
	}
	require.NoError(t, store.Missions.InsertMission(ctx, orphan))

	m, _, err := e.Complete(ctx, orphan.ID.Hex(), 150)
	require.NoError(t, err)
	assert.Equal(t, models.MissionCompleted, m.Status)
	assert.Equal(t, 50.0, *m.KmDone)
}

func TestEngineEdit_DriverSwap(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	old := seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	replacement := seedDriver(t, store, "Rachid Amrani", models.DriverAvailable)

	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)
	_, _, err = e.Complete(ctx, created.ID.Hex(), 1080)
	require.NoError(t, err)

	name := "Rachid Amrani"
	m, err := e.Edit(ctx, created.ID.Hex(), models.MissionPatch{DriverName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Rachid Amrani", m.DriverName)

	oldDriver, err := store.Drivers.FindDriverByID(ctx, old.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 0, oldDriver.MissionsCompleted)

	newDriver, err := store.Drivers.FindDriverByID(ctx, replacement.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, newDriver.MissionsCompleted)

	// Swapping again towards the old driver must not drive the counter
	// below zero on the now-zero side.
	back := "Karim Bensaid"
	_, err = e.Edit(ctx, created.ID.Hex(), models.MissionPatch{DriverName: &back})
	require.NoError(t, err)
	newDriver, err = store.Drivers.FindDriverByID(ctx, replacement.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 0, newDriver.MissionsCompleted)
}

func TestEngineEdit_DriverSwapUnknownDriver(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)

	// Target driver has no registry record: the reference must not move.
	name := "Nobody"
	m, err := e.Edit(ctx, created.ID.Hex(), models.MissionPatch{DriverName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Karim Bensaid", m.DriverName)
}

func TestEngineEdit_CarSwapCompleted(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)

	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)
	_, _, err = e.Complete(ctx, created.ID.Hex(), 1080)
	require.NoError(t, err)

	// The other car already has one completed mission ending at km 500.
	other := seedCar(t, store, "C-44", models.CarAvailable, 500)
	other.TotalKm = 100
	other.MissionsCompleted = 1
	require.NoError(t, store.Cars.UpdateCar(ctx, other.ID.Hex(), other))
	prior := models.Mission{
		ID:          primitive.NewObjectID(),
		OrderNumber: "OM-PRIOR",
		CarID:       "C-44",
		DriverName:  "Rachid Amrani",
		MissionZone: models.ZoneInPerimeter,
		KmDepart:    400,
		KmRetour:    models.Float(500),
		KmDone:      models.Float(100),
		DateDepart:  "2025-03-01",
		HeureDepart: "08:00",
		DateRetour:  "2025-03-01",
		HeureRetour: "12:00",
		Status:      models.MissionCompleted,
		CreatedAt:   e.Now(),
	}
	require.NoError(t, store.Missions.InsertMission(ctx, prior))

	newID := "C-44"
	m, err := e.Edit(ctx, created.ID.Hex(), models.MissionPatch{CarID: &newID})
	require.NoError(t, err)

	// The mission is rebased onto the new car's chronology.
	assert.Equal(t, "C-44", m.CarID)
	assert.Equal(t, 500.0, m.KmDepart)
	assert.Equal(t, 580.0, *m.KmDone)

	// The old car loses the contribution and rewinds to km 0, having no
	// other completed mission.
	oldCar, err := store.Cars.FindCarByCarID(ctx, "C-12")
	require.NoError(t, err)
	assert.Equal(t, 0, oldCar.MissionsCompleted)
	assert.Equal(t, 0.0, oldCar.TotalKm)
	assert.Equal(t, 0.0, oldCar.KmDepart)

	newCar, err := store.Cars.FindCarByCarID(ctx, "C-44")
	require.NoError(t, err)
	assert.Equal(t, 2, newCar.MissionsCompleted)
	assert.Equal(t, 680.0, newCar.TotalKm)
	assert.Equal(t, 1080.0, newCar.KmDepart)
}

func TestEngineEdit_CarSwapInvalidMileage(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)
	_, _, err = e.Complete(ctx, created.ID.Hex(), 1080)
	require.NoError(t, err)

	// The target car's chronology already ends past the mission's return
	// reading, so the rebase cannot produce a positive distance.
	seedCar(t, store, "C-44", models.CarAvailable, 2000)
	prior := models.Mission{
		ID:          primitive.NewObjectID(),
		OrderNumber: "OM-PRIOR",
		CarID:       "C-44",
		DriverName:  "Rachid Amrani",
		MissionZone: models.ZoneInPerimeter,
		KmDepart:    1900,
		KmRetour:    models.Float(2000),
		DateDepart:  "2025-03-01",
		HeureDepart: "08:00",
		DateRetour:  "2025-03-01",
		HeureRetour: "12:00",
		Status:      models.MissionCompleted,
		CreatedAt:   e.Now(),
	}
	require.NoError(t, store.Missions.InsertMission(ctx, prior))

	newID := "C-44"
	_, err = e.Edit(ctx, created.ID.Hex(), models.MissionPatch{CarID: &newID})
	assert.ErrorIs(t, err, ErrInvalidMileage)

	// The stored mission keeps its original car reference.
	m, err := e.Get(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "C-12", m.CarID)
}

func TestEngineEdit_CarChangeOngoing(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedCar(t, store, "C-44", models.CarAvailable, 500)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)

	newID := "C-44"
	m, err := e.Edit(ctx, created.ID.Hex(), models.MissionPatch{CarID: &newID})
	require.NoError(t, err)
	assert.Equal(t, "C-44", m.CarID)
	// No aggregates move while the mission is ongoing.
	assert.Equal(t, 1000.0, m.KmDepart)
	newCar, err := store.Cars.FindCarByCarID(ctx, "C-44")
	require.NoError(t, err)
	assert.Equal(t, 0, newCar.MissionsCompleted)
	assert.Equal(t, 0.0, newCar.TotalKm)
}

func TestEngineEdit_MileageCorrection(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	car := seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)

	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)
	_, _, err = e.Complete(ctx, created.ID.Hex(), 1080)
	require.NoError(t, err)

	// A later completed mission on the same car, 1080 -> 1150.
	later := models.Mission{
		ID:          primitive.NewObjectID(),
		OrderNumber: "OM-2025-002",
		CarID:       "C-12",
		DriverName:  "Karim Bensaid",
		MissionZone: models.ZoneInPerimeter,
		KmDepart:    1080,
		KmRetour:    models.Float(1150),
		KmDone:      models.Float(70),
		DateDepart:  "2025-03-11",
		HeureDepart: "08:00",
		DateRetour:  "2025-03-11",
		HeureRetour: "10:00",
		Status:      models.MissionCompleted,
		CreatedAt:   e.Now(),
	}
	require.NoError(t, store.Missions.InsertMission(ctx, later))

	// Correct the first mission's return reading from 1080 to 1100.
	km := 1100.0
	m, err := e.Edit(ctx, created.ID.Hex(), models.MissionPatch{KmRetour: &km})
	require.NoError(t, err)
	assert.Equal(t, 100.0, *m.KmDone)

	// totalKm is fully recomputed, using the corrected values for the
	// edited mission: (1100-1000) + (1150-1080) = 170.
	updated, err := store.Cars.FindCarByID(ctx, car.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 170.0, updated.TotalKm)
	assert.Equal(t, 1100.0, updated.KmDepart)
}

func TestEngineEdit_MileageCorrectionInvalid(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)
	_, _, err = e.Complete(ctx, created.ID.Hex(), 1080)
	require.NoError(t, err)

	km := 900.0
	_, err = e.Edit(ctx, created.ID.Hex(), models.MissionPatch{KmRetour: &km})
	assert.ErrorIs(t, err, ErrInvalidMileage)
}

func TestEngineEdit_MileageCorrectionOrphanedCar(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	car := seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)
	_, _, err = e.Complete(ctx, created.ID.Hex(), 1080)
	require.NoError(t, err)

	// The car record disappears; the correction still lands on the
	// mission itself.
	require.NoError(t, store.Cars.DeleteCar(ctx, car.ID.Hex()))

	km := 1100.0
	m, err := e.Edit(ctx, created.ID.Hex(), models.MissionPatch{KmRetour: &km})
	require.NoError(t, err)
	require.NotNil(t, m.KmDone)
	assert.Equal(t, 100.0, *m.KmDone)

	stored, err := store.Missions.FindMissionByID(ctx, created.ID.Hex())
	require.NoError(t, err)
	require.NotNil(t, stored.KmDone)
	assert.Equal(t, 100.0, *stored.KmDone)
}

func TestEngineEdit_KmDepartRecomputesKmDone(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)
	_, _, err = e.Complete(ctx, created.ID.Hex(), 1080)
	require.NoError(t, err)

	km := 1020.0
	m, err := e.Edit(ctx, created.ID.Hex(), models.MissionPatch{KmDepart: &km})
	require.NoError(t, err)
	assert.Equal(t, 60.0, *m.KmDone)
}

func TestEngineEdit_ReturnWindowRecomputesDuration(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)
	_, _, err = e.Complete(ctx, created.ID.Hex(), 1080)
	require.NoError(t, err)

	heure := "10:15"
	m, err := e.Edit(ctx, created.ID.Hex(), models.MissionPatch{HeureRetour: &heure})
	require.NoError(t, err)
	assert.Equal(t, 2.25, *m.DurationHours)

	// A return before the departure is rejected.
	early := "07:00"
	_, err = e.Edit(ctx, created.ID.Hex(), models.MissionPatch{HeureRetour: &early})
	assert.ErrorIs(t, err, ErrTemporalViolation)
}

func TestEngineEdit_Validation(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)

	bad := "teleporting"
	_, err = e.Edit(ctx, created.ID.Hex(), models.MissionPatch{MissionZone: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.Edit(ctx, "not-a-hex-id", models.MissionPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngineDelete(t *testing.T) {
	e, store := newTestEngine(t)
	recorder := &eventRecorder{}
	e.Events = recorder
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)

	require.NoError(t, e.Delete(ctx, created.ID.Hex()))
	_, err = e.Get(ctx, created.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)

	// Without RevertOnDelete the car stays booked.
	car, err := store.Cars.FindCarByCarID(ctx, "C-12")
	require.NoError(t, err)
	assert.Equal(t, models.CarOnMission, car.Status)

	assert.Equal(t, "deleted", recorder.events[len(recorder.events)-1].Action)

	assert.ErrorIs(t, e.Delete(ctx, created.ID.Hex()), ErrNotFound)
}

func TestEngineDelete_RevertOngoing(t *testing.T) {
	e, store := newTestEngine(t)
	e.RevertOnDelete = true
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)

	require.NoError(t, e.Delete(ctx, created.ID.Hex()))

	car, err := store.Cars.FindCarByCarID(ctx, "C-12")
	require.NoError(t, err)
	assert.Equal(t, models.CarAvailable, car.Status)
	driver, err := store.Drivers.FindDriverByName(ctx, "Karim Bensaid")
	require.NoError(t, err)
	assert.Equal(t, models.DriverAvailable, driver.Status)
}

func TestEngineDelete_RevertCompleted(t *testing.T) {
	e, store := newTestEngine(t)
	e.RevertOnDelete = true
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)
	_, _, err = e.Complete(ctx, created.ID.Hex(), 1080)
	require.NoError(t, err)

	require.NoError(t, e.Delete(ctx, created.ID.Hex()))

	car, err := store.Cars.FindCarByCarID(ctx, "C-12")
	require.NoError(t, err)
	assert.Equal(t, 0, car.MissionsCompleted)
	assert.Equal(t, 0.0, car.TotalKm)
	// No remaining completed mission: the odometer anchor rewinds to 0.
	assert.Equal(t, 0.0, car.KmDepart)

	driver, err := store.Drivers.FindDriverByName(ctx, "Karim Bensaid")
	require.NoError(t, err)
	assert.Equal(t, 0, driver.MissionsCompleted)
}

func TestEngineList(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedCar(t, store, "C-44", models.CarAvailable, 500)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	seedDriver(t, store, "Rachid Amrani", models.DriverAvailable)

	_, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)
	second := validOrder()
	second.OrderNumber = "OM-2025-002"
	second.CarID = "C-44"
	second.DriverName = "Rachid Amrani"
	second.DateDepart = "2025-04-02"
	_, _, err = e.Create(ctx, second)
	require.NoError(t, err)

	all, err := e.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byCar, err := e.List(ctx, ListQuery{Car: "C-44"})
	require.NoError(t, err)
	require.Len(t, byCar, 1)
	assert.Equal(t, "OM-2025-002", byCar[0].OrderNumber)

	byMonth, err := e.List(ctx, ListQuery{DateDepart: "2025-03"})
	require.NoError(t, err)
	require.Len(t, byMonth, 1)
	assert.Equal(t, "OM-2025-001", byMonth[0].OrderNumber)

	byOrder, err := e.List(ctx, ListQuery{Order: "2025-002"})
	require.NoError(t, err)
	assert.Len(t, byOrder, 1)

	_, err = e.List(ctx, ListQuery{DateDepart: "03/2025"})
	assert.ErrorIs(t, err, db.ErrBadDateFormat)
}

func TestEngineDocument_BlanksOngoing(t *testing.T) {
	e, store := newTestEngine(t)
	renderer := &stubRenderer{}
	e.Renderer = renderer
	ctx := context.Background()
	seedCar(t, store, "C-12", models.CarAvailable, 1000)
	seedDriver(t, store, "Karim Bensaid", models.DriverAvailable)
	created, _, err := e.Create(ctx, validOrder())
	require.NoError(t, err)

	// Force stray return-side values onto the stored ongoing mission.
	stored, err := store.Missions.FindMissionByID(ctx, created.ID.Hex())
	require.NoError(t, err)
	stored.DateRetour = "2025-03-10"
	stored.HeureRetour = "14:30"
	stored.KmRetour = models.Float(1080)
	require.NoError(t, store.Missions.UpdateMission(ctx, created.ID.Hex(), *stored))

	_, err = e.Document(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, renderer.last.DateRetour)
	assert.Empty(t, renderer.last.HeureRetour)
	assert.Nil(t, renderer.last.KmRetour)
	assert.Nil(t, renderer.last.KmDone)
	assert.Nil(t, renderer.last.DurationHours)
}
