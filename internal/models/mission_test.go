package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatHours(t *testing.T) {
	cases := []struct {
		hours float64
		want  string
	}{
		{0, "0 h 0 min"},
		{0.5, "0 h 30 min"},
		{1, "1 h 0 min"},
		{2.25, "2 h 15 min"},
		{6.5, "6 h 30 min"},
		{25.75, "25 h 45 min"},
		{0.99, "0 h 59 min"}, // 59.4 minutes rounds down
		{1.999, "2 h 0 min"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatHours(tc.hours), "hours=%v", tc.hours)
	}
}

func TestRoundHours(t *testing.T) {
	assert.Equal(t, 6.5, RoundHours(6*time.Hour+30*time.Minute))
	assert.Equal(t, 0.02, RoundHours(1*time.Minute))
	assert.Equal(t, 2.25, RoundHours(2*time.Hour+15*time.Minute))
	assert.Equal(t, 0.0, RoundHours(0))
}

func TestMissionTimestamps(t *testing.T) {
	m := Mission{
		DateDepart:  "2025-03-10",
		HeureDepart: "08:00",
		DateRetour:  "2025-03-11",
		HeureRetour: "14:30",
	}
	depart, err := m.DepartTimestamp()
	require.NoError(t, err)
	retour, err := m.RetourTimestamp()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Hour+30*time.Minute, retour.Sub(depart))
	assert.True(t, m.HasReturnWindow())

	m.DateRetour = ""
	assert.False(t, m.HasReturnWindow())
}

func TestMissionPatchApply(t *testing.T) {
	m := Mission{
		OrderNumber: "OM-1",
		CarID:       "C-12",
		DriverName:  "Karim Bensaid",
		MissionZone: ZoneInPerimeter,
		KmDepart:    100,
		Status:      MissionOngoing,
	}

	order := "OM-2"
	carID := "C-44"
	driver := "Rachid Amrani"
	lieu := "Warehouse B"
	km := 120.0
	kmRetour := 180.0
	zone := ZoneOutPerimeter
	types := []string{TypeMaterial}
	patch := MissionPatch{
		OrderNumber: &order,
		CarID:       &carID,
		DriverName:  &driver,
		MissionZone: &zone,
		Lieu:        &lieu,
		KmDepart:    &km,
		KmRetour:    &kmRetour,
		MissionType: &types,
	}
	patch.Apply(&m)

	assert.Equal(t, "OM-2", m.OrderNumber)
	assert.Equal(t, ZoneOutPerimeter, m.MissionZone)
	assert.Equal(t, "Warehouse B", m.Lieu)
	assert.Equal(t, 120.0, m.KmDepart)
	require.NotNil(t, m.KmRetour)
	assert.Equal(t, 180.0, *m.KmRetour)
	assert.Equal(t, []string{TypeMaterial}, m.MissionType)

	// Registry-coupled references are never merged by Apply.
	assert.Equal(t, "C-12", m.CarID)
	assert.Equal(t, "Karim Bensaid", m.DriverName)
}

func TestMissionPatchApply_NilFieldsUntouched(t *testing.T) {
	m := Mission{OrderNumber: "OM-1", KmDepart: 100, Status: MissionCompleted}
	patch := MissionPatch{}
	patch.Apply(&m)
	assert.Equal(t, "OM-1", m.OrderNumber)
	assert.Equal(t, 100.0, m.KmDepart)
	assert.Equal(t, MissionCompleted, m.Status)
}

func TestValidators(t *testing.T) {
	assert.True(t, IsValidMissionStatus(MissionOngoing))
	assert.False(t, IsValidMissionStatus("paused"))
	assert.True(t, IsValidMissionZone(ZoneOutPerimeter))
	assert.False(t, IsValidMissionZone("perimeter"))
	assert.True(t, IsValidMissionType(TypeMail))
	assert.False(t, IsValidMissionType("joyride"))
	assert.True(t, IsValidVehicleType(VehicleAmbulance))
	assert.False(t, IsValidVehicleType("bike"))
	assert.True(t, IsValidCarStatus(CarUnavailable))
	assert.False(t, IsValidCarStatus("parked"))
	assert.True(t, IsValidDriverStatus(DriverOffDuty))
	assert.False(t, IsValidDriverStatus("retired"))
	assert.True(t, IsValidPermitType(PermitC))
	assert.False(t, IsValidPermitType("D"))
}
