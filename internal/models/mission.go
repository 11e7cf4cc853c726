package models

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mission statuses.
const (
	MissionOngoing   = "ongoing"
	MissionCompleted = "completed"
)

// Mission zones.
const (
	ZoneInPerimeter  = "in-perimeter"
	ZoneOutPerimeter = "out-of-perimeter"
)

// Mission type tags. A mission carries a set of these, order-irrelevant.
const (
	TypeSickTransport = "sick-transport"
	TypePersonnel     = "personnel"
	TypeMaterial      = "material"
	TypeMail          = "mail"
)

// Date and time layouts used throughout. Dates are plain strings so that
// year and year-month filters stay simple prefix matches.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04"
	DateTimeLayout = "2006-01-02T15:04"
)

// Mission represents a single dispatch trip: one car, one driver, a
// departure and (eventually) a return. CarID and DriverName are
// denormalized business-key references, not foreign keys.
//
// KmRetour, DurationHours and KmDone are nil until the mission is
// completed. DurationHours and KmDone are cached derivations: any edit to
// the underlying depart/retour fields must recompute them.
type Mission struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber   string             `bson:"orderNumber" json:"orderNumber"`
	CarID         string             `bson:"carId" json:"carId"`
	DriverName    string             `bson:"driverName" json:"driverName"`
	VehicleType   string             `bson:"vehicleType" json:"vehicleType"` // "car", "truck", "ambulance"
	MissionType   []string           `bson:"missionType" json:"missionType"`
	MissionZone   string             `bson:"missionZone" json:"missionZone"` // "in-perimeter", "out-of-perimeter"
	Lieu          string             `bson:"lieu,omitempty" json:"lieu,omitempty"`
	SA            string             `bson:"sa,omitempty" json:"sa,omitempty"`
	KmDepart      float64            `bson:"kmDepart" json:"kmDepart"`
	KmRetour      *float64           `bson:"kmRetour,omitempty" json:"kmRetour,omitempty"`
	DateDepart    string             `bson:"dateDepart" json:"dateDepart"`
	HeureDepart   string             `bson:"heureDepart" json:"heureDepart"`
	DateRetour    string             `bson:"dateRetour,omitempty" json:"dateRetour,omitempty"`
	HeureRetour   string             `bson:"heureRetour,omitempty" json:"heureRetour,omitempty"`
	DurationHours *float64           `bson:"durationHours,omitempty" json:"durationHours,omitempty"`
	KmDone        *float64           `bson:"kmDone,omitempty" json:"kmDone,omitempty"`
	Status        string             `bson:"status" json:"status"` // "ongoing", "completed"
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// DepartTimestamp builds the departure instant from DateDepart and
// HeureDepart in local time.
func (m *Mission) DepartTimestamp() (time.Time, error) {
	return time.ParseInLocation(DateTimeLayout, m.DateDepart+"T"+m.HeureDepart, time.Local)
}

// RetourTimestamp builds the return instant from DateRetour and
// HeureRetour in local time.
func (m *Mission) RetourTimestamp() (time.Time, error) {
	return time.ParseInLocation(DateTimeLayout, m.DateRetour+"T"+m.HeureRetour, time.Local)
}

// HasReturnWindow reports whether both the departure and the return
// date+time fields are set.
func (m *Mission) HasReturnWindow() bool {
	return m.DateDepart != "" && m.HeureDepart != "" && m.DateRetour != "" && m.HeureRetour != ""
}

// MissionPatch is a partial update to a mission. Nil fields are left
// untouched. DriverName is listed here but is never merged by Apply:
// driver reassignment adjusts registry counters and must be handled by
// the lifecycle engine.
type MissionPatch struct {
	OrderNumber *string   `json:"orderNumber,omitempty"`
	CarID       *string   `json:"carId,omitempty"`
	DriverName  *string   `json:"driverName,omitempty"`
	VehicleType *string   `json:"vehicleType,omitempty"`
	DateDepart  *string   `json:"dateDepart,omitempty"`
	HeureDepart *string   `json:"heureDepart,omitempty"`
	DateRetour  *string   `json:"dateRetour,omitempty"`
	HeureRetour *string   `json:"heureRetour,omitempty"`
	MissionZone *string   `json:"missionZone,omitempty"`
	Lieu        *string   `json:"lieu,omitempty"`
	SA          *string   `json:"sa,omitempty"`
	KmDepart    *float64  `json:"kmDepart,omitempty"`
	KmRetour    *float64  `json:"kmRetour,omitempty"`
	MissionType *[]string `json:"missionType,omitempty"`
	Status      *string   `json:"status,omitempty"`
}

// Apply merges the whitelisted patch fields into the mission. CarID is
// deliberately excluded as well: on completed missions a car change has
// to rebalance both cars' aggregates first, so the engine commits it only
// after those succeed.
func (p *MissionPatch) Apply(m *Mission) {
	if p.OrderNumber != nil {
		m.OrderNumber = *p.OrderNumber
	}
	if p.VehicleType != nil {
		m.VehicleType = *p.VehicleType
	}
	if p.DateDepart != nil {
		m.DateDepart = *p.DateDepart
	}
	if p.HeureDepart != nil {
		m.HeureDepart = *p.HeureDepart
	}
	if p.DateRetour != nil {
		m.DateRetour = *p.DateRetour
	}
	if p.HeureRetour != nil {
		m.HeureRetour = *p.HeureRetour
	}
	if p.MissionZone != nil {
		m.MissionZone = *p.MissionZone
	}
	if p.Lieu != nil {
		m.Lieu = *p.Lieu
	}
	if p.SA != nil {
		m.SA = *p.SA
	}
	if p.KmDepart != nil {
		m.KmDepart = *p.KmDepart
	}
	if p.KmRetour != nil {
		m.KmRetour = Float(*p.KmRetour)
	}
	if p.MissionType != nil {
		m.MissionType = *p.MissionType
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
}

// IsValidMissionStatus checks if a mission status is one of the known values.
func IsValidMissionStatus(status string) bool {
	return status == MissionOngoing || status == MissionCompleted
}

// IsValidMissionZone checks if a zone is one of the known values.
func IsValidMissionZone(zone string) bool {
	return zone == ZoneInPerimeter || zone == ZoneOutPerimeter
}

// IsValidMissionType checks if a mission type tag is one of the known values.
func IsValidMissionType(tag string) bool {
	switch tag {
	case TypeSickTransport, TypePersonnel, TypeMaterial, TypeMail:
		return true
	default:
		return false
	}
}

// FormatHours renders decimal hours as "<H> h <M> min", the format used
// on mission sheets and in the monthly exports.
func FormatHours(hours float64) string {
	totalMinutes := int(math.Round(hours * 60))
	return fmt.Sprintf("%d h %d min", totalMinutes/60, totalMinutes%60)
}

// RoundHours converts a duration to decimal hours rounded to two places.
func RoundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}

// Float returns a pointer to v. Convenience for the optional numeric
// mission fields.
func Float(v float64) *float64 {
	return &v
}
