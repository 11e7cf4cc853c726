package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// Car statuses.
const (
	CarAvailable   = "available"
	CarOnMission   = "on_mission"
	CarUnavailable = "unavailable"
)

// Vehicle types shared by cars and missions.
const (
	VehicleCar       = "car"
	VehicleTruck     = "truck"
	VehicleAmbulance = "ambulance"
)

// Car represents a fleet vehicle and its aggregate mission counters.
// KmDepart is the odometer reading the car will start its next mission
// from; TotalKm and MissionsCompleted are derived from mission history
// but stored denormalized for fast reads.
type Car struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CarID             string             `bson:"carId" json:"carId"`
	Status            string             `bson:"status" json:"status"`           // "available", "on_mission", "unavailable"
	VehicleType       string             `bson:"vehicleType" json:"vehicleType"` // "car", "truck", "ambulance"
	KmDepart          float64            `bson:"kmDepart" json:"kmDepart"`
	MissionsCompleted int                `bson:"missionsCompleted" json:"missionsCompleted"`
	TotalKm           float64            `bson:"totalKm" json:"totalKm"`
	CreatedAt         time.Time          `bson:"createdAt,omitempty" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt,omitempty" json:"updatedAt"`
}

// IsValidCarStatus checks if a car status is one of the known values.
func IsValidCarStatus(status string) bool {
	switch status {
	case CarAvailable, CarOnMission, CarUnavailable:
		return true
	default:
		return false
	}
}

// IsValidVehicleType checks if a vehicle type is one of the known values.
func IsValidVehicleType(vt string) bool {
	switch vt {
	case VehicleCar, VehicleTruck, VehicleAmbulance:
		return true
	default:
		return false
	}
}
