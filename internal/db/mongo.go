package db

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// NewMongoStore builds a Store backed by the cars, drivers and missions
// collections of the given database.
func NewMongoStore(database *mongo.Database) *Store {
	return &Store{
		Cars:     &MongoCars{Collection: database.Collection("cars")},
		Drivers:  &MongoDrivers{Collection: database.Collection("drivers")},
		Missions: &MongoMissions{Collection: database.Collection("missions")},
	}
}

// MongoCars wraps the MongoDB cars collection.
type MongoCars struct {
	Collection *mongo.Collection
}

// InsertCar inserts a car record into the collection.
func (c *MongoCars) InsertCar(ctx context.Context, car models.Car) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.InsertOne(ctx, car)
	return err
}

// FindCars queries car records from the collection.
func (c *MongoCars) FindCars(ctx context.Context, filter CarFilter) ([]models.Car, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "carId", Value: 1}})
	cursor, err := c.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var cars []models.Car
	if err := cursor.All(ctx, &cars); err != nil {
		return nil, err
	}
	return cars, nil
}

// FindCarByCarID finds a car by its business key.
func (c *MongoCars) FindCarByCarID(ctx context.Context, carID string) (*models.Car, error) {
	var car models.Car
	err := c.Collection.FindOne(ctx, bson.M{"carId": carID}).Decode(&car)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return &car, nil
}

// FindCarByID finds a car by its record ID.
func (c *MongoCars) FindCarByID(ctx context.Context, id string) (*models.Car, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid car ID: %w", err)
	}
	var car models.Car
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&car)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return &car, nil
}

// UpdateCar replaces the mutable fields of a car by its record ID.
func (c *MongoCars) UpdateCar(ctx context.Context, id string, car models.Car) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid car ID: %w", err)
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": bson.M{
		"carId":             car.CarID,
		"status":            car.Status,
		"vehicleType":       car.VehicleType,
		"kmDepart":          car.KmDepart,
		"missionsCompleted": car.MissionsCompleted,
		"totalKm":           car.TotalKm,
		"updatedAt":         time.Now(),
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNoRecord
	}
	return nil
}

// DeleteCar deletes a car by its record ID.
func (c *MongoCars) DeleteCar(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid car ID: %w", err)
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNoRecord
	}
	return nil
}

// MongoDrivers wraps the MongoDB drivers collection.
type MongoDrivers struct {
	Collection *mongo.Collection
}

// InsertDriver inserts a driver record into the collection.
func (c *MongoDrivers) InsertDriver(ctx context.Context, driver models.Driver) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.InsertOne(ctx, driver)
	return err
}

// FindDrivers queries driver records from the collection.
func (c *MongoDrivers) FindDrivers(ctx context.Context, filter DriverFilter) ([]models.Driver, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := c.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var drivers []models.Driver
	if err := cursor.All(ctx, &drivers); err != nil {
		return nil, err
	}
	return drivers, nil
}

// FindDriverByName finds a driver by its business key.
func (c *MongoDrivers) FindDriverByName(ctx context.Context, name string) (*models.Driver, error) {
	var driver models.Driver
	err := c.Collection.FindOne(ctx, bson.M{"name": name}).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return &driver, nil
}

// FindDriverByID finds a driver by its record ID.
func (c *MongoDrivers) FindDriverByID(ctx context.Context, id string) (*models.Driver, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid driver ID: %w", err)
	}
	var driver models.Driver
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return &driver, nil
}

// UpdateDriver replaces the mutable fields of a driver by its record ID.
func (c *MongoDrivers) UpdateDriver(ctx context.Context, id string, driver models.Driver) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid driver ID: %w", err)
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": bson.M{
		"name":              driver.Name,
		"status":            driver.Status,
		"permitType":        driver.PermitType,
		"missionsCompleted": driver.MissionsCompleted,
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNoRecord
	}
	return nil
}

// DeleteDriver deletes a driver by its record ID.
func (c *MongoDrivers) DeleteDriver(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid driver ID: %w", err)
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNoRecord
	}
	return nil
}

// MongoMissions wraps the MongoDB missions collection.
type MongoMissions struct {
	Collection *mongo.Collection
}

// InsertMission inserts a mission record into the collection.
func (c *MongoMissions) InsertMission(ctx context.Context, mission models.Mission) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.InsertOne(ctx, mission)
	return err
}

// FindMissions queries mission records, newest first.
func (c *MongoMissions) FindMissions(ctx context.Context, filter MissionFilter) ([]models.Mission, error) {
	query := bson.M{}
	if filter.OrderContains != "" {
		query["orderNumber"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.OrderContains), Options: "i"}
	}
	if filter.CarID != "" {
		query["carId"] = filter.CarID
	}
	if filter.DriverName != "" {
		query["driverName"] = filter.DriverName
	}
	if filter.VehicleType != "" {
		query["vehicleType"] = filter.VehicleType
	}
	if filter.ZonePrefix != "" {
		query["missionZone"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(filter.ZonePrefix), Options: "i"}
	}
	if cond := dateCondition(filter.DateDepart); cond != nil {
		query["dateDepart"] = cond
	}
	if cond := dateCondition(filter.DateRetour); cond != nil {
		query["dateRetour"] = cond
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := c.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var missions []models.Mission
	if err := cursor.All(ctx, &missions); err != nil {
		return nil, err
	}
	return missions, nil
}

func dateCondition(p *DatePattern) interface{} {
	if p == nil {
		return nil
	}
	if p.Exact != "" {
		return p.Exact
	}
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(p.Prefix)}
}

// FindMissionByID finds a mission by its record ID.
func (c *MongoMissions) FindMissionByID(ctx context.Context, id string) (*models.Mission, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid mission ID: %w", err)
	}
	var mission models.Mission
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&mission)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return &mission, nil
}

// FindMissionByOrder finds a mission by its exact order number.
func (c *MongoMissions) FindMissionByOrder(ctx context.Context, orderNumber string) (*models.Mission, error) {
	var mission models.Mission
	err := c.Collection.FindOne(ctx, bson.M{"orderNumber": orderNumber}).Decode(&mission)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return &mission, nil
}

// UpdateMission replaces a mission by its record ID. A full replace keeps
// the cached derived fields in the document exactly what the caller
// computed, with no stale leftovers from partial $set updates.
func (c *MongoMissions) UpdateMission(ctx context.Context, id string, mission models.Mission) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid mission ID: %w", err)
	}
	mission.ID = objectID
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": objectID}, mission)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNoRecord
	}
	return nil
}

// DeleteMission deletes a mission by its record ID.
func (c *MongoMissions) DeleteMission(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid mission ID: %w", err)
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNoRecord
	}
	return nil
}

// DistinctDepartDates lists the distinct departure dates, sorted.
func (c *MongoMissions) DistinctDepartDates(ctx context.Context) ([]string, error) {
	return c.distinctDates(ctx, "dateDepart")
}

// DistinctRetourDates lists the distinct return dates, sorted. Ongoing
// missions have no return date and are skipped.
func (c *MongoMissions) DistinctRetourDates(ctx context.Context) ([]string, error) {
	return c.distinctDates(ctx, "dateRetour")
}

func (c *MongoMissions) distinctDates(ctx context.Context, field string) ([]string, error) {
	values, err := c.Collection.Distinct(ctx, field, bson.M{})
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			dates = append(dates, s)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// LastCompletedByCar returns the car's most recent completed mission by
// return date, skipping exclude.
func (c *MongoMissions) LastCompletedByCar(ctx context.Context, carID string, exclude primitive.ObjectID) (*models.Mission, error) {
	filter := bson.M{
		"carId":  carID,
		"status": models.MissionCompleted,
		"_id":    bson.M{"$ne": exclude},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "dateRetour", Value: -1}, {Key: "heureRetour", Value: -1}})
	var mission models.Mission
	err := c.Collection.FindOne(ctx, filter, opts).Decode(&mission)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return &mission, nil
}

// CompletedByCar returns the car's completed missions that carry both
// odometer readings.
func (c *MongoMissions) CompletedByCar(ctx context.Context, carID string) ([]models.Mission, error) {
	return c.findAll(ctx, bson.M{
		"carId":    carID,
		"status":   models.MissionCompleted,
		"kmRetour": bson.M{"$ne": nil},
	})
}

// CompletedByDriver returns the driver's completed missions.
func (c *MongoMissions) CompletedByDriver(ctx context.Context, driverName string) ([]models.Mission, error) {
	return c.findAll(ctx, bson.M{
		"driverName": driverName,
		"status":     models.MissionCompleted,
	})
}

// CompletedInRange returns completed missions whose departure date falls
// within [start, end], both inclusive. Dates compare lexicographically.
func (c *MongoMissions) CompletedInRange(ctx context.Context, start, end string) ([]models.Mission, error) {
	return c.findAll(ctx, bson.M{
		"status":     models.MissionCompleted,
		"dateDepart": bson.M{"$gte": start, "$lte": end},
	})
}

// MissionsInRange returns all missions, completed or not, whose
// departure date falls within [start, end].
func (c *MongoMissions) MissionsInRange(ctx context.Context, start, end string) ([]models.Mission, error) {
	return c.findAll(ctx, bson.M{
		"dateDepart": bson.M{"$gte": start, "$lte": end},
	})
}

func (c *MongoMissions) findAll(ctx context.Context, query bson.M) ([]models.Mission, error) {
	cursor, err := c.Collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var missions []models.Mission
	if err := cursor.All(ctx, &missions); err != nil {
		return nil, err
	}
	return missions, nil
}
