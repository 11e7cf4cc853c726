package db

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process implementation of the three record
// collections. It backs tests and the MEMORY_STORE dev mode; semantics
// mirror the Mongo implementation, including the sort orders and the
// ErrNoRecord translation.
type MemoryStore struct {
	mu       sync.RWMutex
	cars     map[string]models.Car
	drivers  map[string]models.Driver
	missions map[string]models.Mission
}

// NewMemoryStore builds an empty in-memory Store.
func NewMemoryStore() (*Store, *MemoryStore) {
	m := &MemoryStore{
		cars:     make(map[string]models.Car),
		drivers:  make(map[string]models.Driver),
		missions: make(map[string]models.Mission),
	}
	return &Store{Cars: m, Drivers: m, Missions: m}, m
}

// InsertCar inserts a car record.
func (m *MemoryStore) InsertCar(_ context.Context, car models.Car) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if car.ID.IsZero() {
		car.ID = primitive.NewObjectID()
	}
	m.cars[car.ID.Hex()] = car
	return nil
}

// FindCars lists car records matching the filter.
func (m *MemoryStore) FindCars(_ context.Context, filter CarFilter) ([]models.Car, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var cars []models.Car
	for _, car := range m.cars {
		if filter.Status != "" && car.Status != filter.Status {
			continue
		}
		cars = append(cars, car)
	}
	sort.Slice(cars, func(i, j int) bool { return cars[i].CarID < cars[j].CarID })
	return cars, nil
}

// FindCarByCarID finds a car by its business key.
func (m *MemoryStore) FindCarByCarID(_ context.Context, carID string) (*models.Car, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, car := range m.cars {
		if car.CarID == carID {
			c := car
			return &c, nil
		}
	}
	return nil, ErrNoRecord
}

// FindCarByID finds a car by its record ID.
func (m *MemoryStore) FindCarByID(_ context.Context, id string) (*models.Car, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	car, ok := m.cars[id]
	if !ok {
		return nil, ErrNoRecord
	}
	return &car, nil
}

// UpdateCar replaces a car by its record ID.
func (m *MemoryStore) UpdateCar(_ context.Context, id string, car models.Car) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.cars[id]
	if !ok {
		return ErrNoRecord
	}
	car.ID = existing.ID
	m.cars[id] = car
	return nil
}

// DeleteCar deletes a car by its record ID.
func (m *MemoryStore) DeleteCar(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cars[id]; !ok {
		return ErrNoRecord
	}
	delete(m.cars, id)
	return nil
}

// InsertDriver inserts a driver record.
func (m *MemoryStore) InsertDriver(_ context.Context, driver models.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if driver.ID.IsZero() {
		driver.ID = primitive.NewObjectID()
	}
	m.drivers[driver.ID.Hex()] = driver
	return nil
}

// FindDrivers lists driver records matching the filter.
func (m *MemoryStore) FindDrivers(_ context.Context, filter DriverFilter) ([]models.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var drivers []models.Driver
	for _, driver := range m.drivers {
		if filter.Status != "" && driver.Status != filter.Status {
			continue
		}
		drivers = append(drivers, driver)
	}
	sort.Slice(drivers, func(i, j int) bool { return drivers[i].Name < drivers[j].Name })
	return drivers, nil
}

// FindDriverByName finds a driver by its business key.
func (m *MemoryStore) FindDriverByName(_ context.Context, name string) (*models.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, driver := range m.drivers {
		if driver.Name == name {
			d := driver
			return &d, nil
		}
	}
	return nil, ErrNoRecord
}

// FindDriverByID finds a driver by its record ID.
func (m *MemoryStore) FindDriverByID(_ context.Context, id string) (*models.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, ErrNoRecord
	}
	return &driver, nil
}

// UpdateDriver replaces a driver by its record ID.
func (m *MemoryStore) UpdateDriver(_ context.Context, id string, driver models.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.drivers[id]
	if !ok {
		return ErrNoRecord
	}
	driver.ID = existing.ID
	m.drivers[id] = driver
	return nil
}

// DeleteDriver deletes a driver by its record ID.
func (m *MemoryStore) DeleteDriver(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[id]; !ok {
		return ErrNoRecord
	}
	delete(m.drivers, id)
	return nil
}

// InsertMission inserts a mission record.
func (m *MemoryStore) InsertMission(_ context.Context, mission models.Mission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mission.ID.IsZero() {
		mission.ID = primitive.NewObjectID()
	}
	m.missions[mission.ID.Hex()] = mission
	return nil
}

// FindMissions lists mission records matching the filter, newest first.
func (m *MemoryStore) FindMissions(_ context.Context, filter MissionFilter) ([]models.Mission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var missions []models.Mission
	for _, mission := range m.missions {
		if !matchMission(mission, filter) {
			continue
		}
		missions = append(missions, mission)
	}
	sort.Slice(missions, func(i, j int) bool { return missions[i].CreatedAt.After(missions[j].CreatedAt) })
	return missions, nil
}

func matchMission(m models.Mission, f MissionFilter) bool {
	if f.OrderContains != "" && !strings.Contains(strings.ToLower(m.OrderNumber), strings.ToLower(f.OrderContains)) {
		return false
	}
	if f.CarID != "" && m.CarID != f.CarID {
		return false
	}
	if f.DriverName != "" && m.DriverName != f.DriverName {
		return false
	}
	if f.VehicleType != "" && m.VehicleType != f.VehicleType {
		return false
	}
	if f.ZonePrefix != "" && !strings.HasPrefix(strings.ToLower(m.MissionZone), strings.ToLower(f.ZonePrefix)) {
		return false
	}
	if !f.DateDepart.Match(m.DateDepart) {
		return false
	}
	if !f.DateRetour.Match(m.DateRetour) {
		return false
	}
	return true
}

// FindMissionByID finds a mission by its record ID.
func (m *MemoryStore) FindMissionByID(_ context.Context, id string) (*models.Mission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mission, ok := m.missions[id]
	if !ok {
		return nil, ErrNoRecord
	}
	return &mission, nil
}

// FindMissionByOrder finds a mission by its exact order number.
func (m *MemoryStore) FindMissionByOrder(_ context.Context, orderNumber string) (*models.Mission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mission := range m.missions {
		if mission.OrderNumber == orderNumber {
			mm := mission
			return &mm, nil
		}
	}
	return nil, ErrNoRecord
}

// UpdateMission replaces a mission by its record ID.
func (m *MemoryStore) UpdateMission(_ context.Context, id string, mission models.Mission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.missions[id]
	if !ok {
		return ErrNoRecord
	}
	mission.ID = existing.ID
	m.missions[id] = mission
	return nil
}

// DeleteMission deletes a mission by its record ID.
func (m *MemoryStore) DeleteMission(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.missions[id]; !ok {
		return ErrNoRecord
	}
	delete(m.missions, id)
	return nil
}

// DistinctDepartDates lists the distinct departure dates, sorted.
func (m *MemoryStore) DistinctDepartDates(_ context.Context) ([]string, error) {
	return m.distinctDates(func(m models.Mission) string { return m.DateDepart }), nil
}

// DistinctRetourDates lists the distinct return dates, sorted.
func (m *MemoryStore) DistinctRetourDates(_ context.Context) ([]string, error) {
	return m.distinctDates(func(m models.Mission) string { return m.DateRetour }), nil
}

func (m *MemoryStore) distinctDates(field func(models.Mission) string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	dates := make([]string, 0)
	for _, mission := range m.missions {
		v := field(mission)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dates = append(dates, v)
	}
	sort.Strings(dates)
	return dates
}

// LastCompletedByCar returns the car's most recent completed mission by
// return date, skipping exclude.
func (m *MemoryStore) LastCompletedByCar(_ context.Context, carID string, exclude primitive.ObjectID) (*models.Mission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *models.Mission
	for _, mission := range m.missions {
		if mission.CarID != carID || mission.Status != models.MissionCompleted || mission.ID == exclude {
			continue
		}
		mm := mission
		if best == nil ||
			mm.DateRetour > best.DateRetour ||
			(mm.DateRetour == best.DateRetour && mm.HeureRetour > best.HeureRetour) {
			best = &mm
		}
	}
	if best == nil {
		return nil, ErrNoRecord
	}
	return best, nil
}

// CompletedByCar returns the car's completed missions that carry both
// odometer readings.
func (m *MemoryStore) CompletedByCar(_ context.Context, carID string) ([]models.Mission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var missions []models.Mission
	for _, mission := range m.missions {
		if mission.CarID == carID && mission.Status == models.MissionCompleted && mission.KmRetour != nil {
			missions = append(missions, mission)
		}
	}
	return missions, nil
}

// CompletedByDriver returns the driver's completed missions.
func (m *MemoryStore) CompletedByDriver(_ context.Context, driverName string) ([]models.Mission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var missions []models.Mission
	for _, mission := range m.missions {
		if mission.DriverName == driverName && mission.Status == models.MissionCompleted {
			missions = append(missions, mission)
		}
	}
	return missions, nil
}

// CompletedInRange returns completed missions with a departure date in
// [start, end].
func (m *MemoryStore) CompletedInRange(_ context.Context, start, end string) ([]models.Mission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var missions []models.Mission
	for _, mission := range m.missions {
		if mission.Status != models.MissionCompleted {
			continue
		}
		if mission.DateDepart >= start && mission.DateDepart <= end {
			missions = append(missions, mission)
		}
	}
	return missions, nil
}

// MissionsInRange returns all missions with a departure date in
// [start, end].
func (m *MemoryStore) MissionsInRange(_ context.Context, start, end string) ([]models.Mission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var missions []models.Mission
	for _, mission := range m.missions {
		if mission.DateDepart >= start && mission.DateDepart <= end {
			missions = append(missions, mission)
		}
	}
	return missions, nil
}
