package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Driver statuses.
const (
	DriverAvailable = "available"
	DriverOnMission = "on_mission"
	DriverOffDuty   = "off_duty"
)

// License classes a driver may hold.
const (
	PermitB = "B"
	PermitC = "C"
)

// Driver represents a fleet driver. Drivers are referenced by name from
// missions; the name is the business key and must be unique.
type Driver struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	Status            string             `bson:"status" json:"status"`         // "available", "on_mission", "off_duty"
	PermitType        string             `bson:"permitType" json:"permitType"` // "B" or "C"
	MissionsCompleted int                `bson:"missionsCompleted" json:"missionsCompleted"`
}

// IsValidDriverStatus checks if a driver status is one of the known values.
func IsValidDriverStatus(status string) bool {
	switch status {
	case DriverAvailable, DriverOnMission, DriverOffDuty:
		return true
	default:
		return false
	}
}

// IsValidPermitType checks if a license class is one of the known values.
func IsValidPermitType(permit string) bool {
	switch permit {
	case PermitB, PermitC:
		return true
	default:
		return false
	}
}
