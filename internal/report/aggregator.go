// Package report derives per-car and per-driver statistics from
// completed missions. It is a pure read-side fold: it never mutates the
// registries and tolerates missing numeric fields by treating them as
// zero.
package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/db"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/mission"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/models"
)

// Column describes one column of a tabular export.
type Column struct {
	Header string
	Key    string
	Width  float64
}

// TableRenderer materializes rows into a spreadsheet document.
type TableRenderer interface {
	RenderTable(sheet string, columns []Column, rows []map[string]interface{}) ([]byte, error)
}

// CarStats aggregates a car's completed missions over a period.
type CarStats struct {
	MissionsCompleted int     `json:"missionsCompleted"`
	TotalKm           float64 `json:"totalKm"`
}

// DriverStats aggregates a driver's completed missions over a period.
type DriverStats struct {
	MissionsCompleted int     `json:"missionsCompleted"`
	HoursWorked       float64 `json:"hoursWorked"`
}

// Summary is the per-car and per-driver fold over a date range.
type Summary struct {
	Cars    map[string]CarStats    `json:"cars"`
	Drivers map[string]DriverStats `json:"drivers"`
}

// Aggregator scans completed missions and folds them into statistics
// and tabular exports.
type Aggregator struct {
	Missions db.MissionCollection
	Tables   TableRenderer
}

// NewAggregator builds an aggregator over the given mission collection
// and table renderer.
func NewAggregator(missions db.MissionCollection, tables TableRenderer) *Aggregator {
	return &Aggregator{Missions: missions, Tables: tables}
}

// SummaryByDateRange folds completed missions whose departure date lies
// in [start, end] (inclusive, lexicographic on ISO dates). A month with
// no completed missions yields empty maps, not an error.
func (a *Aggregator) SummaryByDateRange(ctx context.Context, start, end string) (*Summary, error) {
	if start == "" || end == "" {
		return nil, fmt.Errorf("%w: start and end date are required", mission.ErrValidation)
	}
	missions, err := a.Missions.CompletedInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: scanning missions: %v", mission.ErrDependency, err)
	}

	summary := &Summary{
		Cars:    make(map[string]CarStats),
		Drivers: make(map[string]DriverStats),
	}
	for _, m := range missions {
		car := summary.Cars[m.CarID]
		car.MissionsCompleted++
		if km := positiveDistance(m); km > 0 {
			car.TotalKm += km
		}
		summary.Cars[m.CarID] = car

		driver := summary.Drivers[m.DriverName]
		driver.MissionsCompleted++
		if m.DurationHours != nil {
			driver.HoursWorked += *m.DurationHours
		}
		summary.Drivers[m.DriverName] = driver
	}
	return summary, nil
}

// MonthWindow returns the first and last day of a calendar month as ISO
// date strings. The last day is the actual month end, leap years
// included.
func MonthWindow(year, month int) (string, string, error) {
	if year < 1 || month < 1 || month > 12 {
		return "", "", fmt.Errorf("%w: invalid year/month %d-%d", mission.ErrValidation, year, month)
	}
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	start := fmt.Sprintf("%04d-%02d-01", year, month)
	end := fmt.Sprintf("%04d-%02d-%02d", year, month, lastDay)
	return start, end, nil
}

// MonthlyCarReport exports each car's mission count and summed distance
// for a calendar month.
func (a *Aggregator) MonthlyCarReport(ctx context.Context, year, month int) ([]byte, error) {
	start, end, err := MonthWindow(year, month)
	if err != nil {
		return nil, err
	}
	missions, err := a.Missions.CompletedInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: scanning missions: %v", mission.ErrDependency, err)
	}

	type carAgg struct {
		missions int
		km       float64
	}
	cars := make(map[string]*carAgg)
	for _, m := range missions {
		agg := cars[m.CarID]
		if agg == nil {
			agg = &carAgg{}
			cars[m.CarID] = agg
		}
		agg.missions++
		if km := positiveDistance(m); km > 0 {
			agg.km += km
		}
	}

	columns := []Column{
		{Header: "Car ID", Key: "carId", Width: 20},
		{Header: "Number of Missions", Key: "missions", Width: 20},
		{Header: "Total KM", Key: "km", Width: 15},
	}
	rows := make([]map[string]interface{}, 0, len(cars))
	for _, carID := range sortedKeys(cars) {
		rows = append(rows, map[string]interface{}{
			"carId":    carID,
			"missions": cars[carID].missions,
			"km":       cars[carID].km,
		})
	}
	return a.Tables.RenderTable("Car Report", columns, rows)
}

// MonthlyDriverReport exports each driver's mission count and time
// worked for a calendar month, with minutes bucketed per vehicle type.
func (a *Aggregator) MonthlyDriverReport(ctx context.Context, year, month int) ([]byte, error) {
	start, end, err := MonthWindow(year, month)
	if err != nil {
		return nil, err
	}
	missions, err := a.Missions.CompletedInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: scanning missions: %v", mission.ErrDependency, err)
	}

	type typeAgg struct {
		count   int
		minutes int
	}
	type driverAgg struct {
		missions     int
		totalMinutes int
		types        map[string]*typeAgg
	}
	drivers := make(map[string]*driverAgg)
	for _, m := range missions {
		agg := drivers[m.DriverName]
		if agg == nil {
			agg = &driverAgg{types: make(map[string]*typeAgg)}
			drivers[m.DriverName] = agg
		}
		minutes := 0
		if m.DurationHours != nil {
			minutes = int(math.Round(*m.DurationHours * 60))
		}
		agg.missions++
		agg.totalMinutes += minutes

		vt := m.VehicleType
		if vt == "" {
			vt = "unknown"
		}
		ta := agg.types[vt]
		if ta == nil {
			ta = &typeAgg{}
			agg.types[vt] = ta
		}
		ta.count++
		ta.minutes += minutes
	}

	columns := []Column{
		{Header: "Driver", Key: "name", Width: 25},
		{Header: "Missions", Key: "missions", Width: 12},
		{Header: "Total Duration", Key: "duration", Width: 20},
		{Header: "Summary", Key: "summary", Width: 50},
	}
	rows := make([]map[string]interface{}, 0, len(drivers))
	for _, name := range sortedKeys(drivers) {
		agg := drivers[name]
		var b strings.Builder
		fmt.Fprintf(&b, "%s completed %d mission(s), totaling %s.\n",
			name, agg.missions, minutesLabel(agg.totalMinutes))
		for _, vt := range sortedKeys(agg.types) {
			ta := agg.types[vt]
			fmt.Fprintf(&b, "- %d mission(s) with %s, %s\n", ta.count, vt, minutesLabel(ta.minutes))
		}
		rows = append(rows, map[string]interface{}{
			"name":     name,
			"missions": agg.missions,
			"duration": minutesLabel(agg.totalMinutes),
			"summary":  b.String(),
		})
	}
	return a.Tables.RenderTable("Driver Report", columns, rows)
}

// MonthlyMissionExport exports every mission of a calendar month,
// completed or not, with all fields.
func (a *Aggregator) MonthlyMissionExport(ctx context.Context, year, month int) ([]byte, error) {
	start, end, err := MonthWindow(year, month)
	if err != nil {
		return nil, err
	}
	missions, err := a.Missions.MissionsInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: scanning missions: %v", mission.ErrDependency, err)
	}
	sort.Slice(missions, func(i, j int) bool {
		if missions[i].DateDepart != missions[j].DateDepart {
			return missions[i].DateDepart < missions[j].DateDepart
		}
		return missions[i].OrderNumber < missions[j].OrderNumber
	})

	columns := []Column{
		{Header: "Order", Key: "orderNumber", Width: 15},
		{Header: "Car", Key: "carId", Width: 15},
		{Header: "Driver", Key: "driverName", Width: 15},
		{Header: "Vehicle Type", Key: "vehicleType", Width: 15},
		{Header: "Mission Type", Key: "missionType", Width: 30},
		{Header: "Zone", Key: "missionZone", Width: 18},
		{Header: "Lieu", Key: "lieu", Width: 15},
		{Header: "SA", Key: "sa", Width: 15},
		{Header: "KM Depart", Key: "kmDepart", Width: 15},
		{Header: "KM Retour", Key: "kmRetour", Width: 15},
		{Header: "KM Done", Key: "kmDone", Width: 15},
		{Header: "Date Depart", Key: "dateDepart", Width: 15},
		{Header: "Heure Depart", Key: "heureDepart", Width: 15},
		{Header: "Date Retour", Key: "dateRetour", Width: 15},
		{Header: "Heure Retour", Key: "heureRetour", Width: 15},
		{Header: "Duration", Key: "durationHours", Width: 15},
		{Header: "Status", Key: "status", Width: 12},
	}
	rows := make([]map[string]interface{}, 0, len(missions))
	for _, m := range missions {
		duration := ""
		if m.DurationHours != nil {
			duration = models.FormatHours(*m.DurationHours)
		}
		rows = append(rows, map[string]interface{}{
			"orderNumber":   m.OrderNumber,
			"carId":         m.CarID,
			"driverName":    m.DriverName,
			"vehicleType":   m.VehicleType,
			"missionType":   strings.Join(m.MissionType, ", "),
			"missionZone":   m.MissionZone,
			"lieu":          m.Lieu,
			"sa":            m.SA,
			"kmDepart":      m.KmDepart,
			"kmRetour":      optional(m.KmRetour),
			"kmDone":        optional(m.KmDone),
			"dateDepart":    m.DateDepart,
			"heureDepart":   m.HeureDepart,
			"dateRetour":    m.DateRetour,
			"heureRetour":   m.HeureRetour,
			"durationHours": duration,
			"status":        m.Status,
		})
	}
	return a.Tables.RenderTable("Missions", columns, rows)
}

func positiveDistance(m models.Mission) float64 {
	if m.KmRetour == nil {
		return 0
	}
	return *m.KmRetour - m.KmDepart
}

// optional renders an unset numeric field as a blank cell, not a zero.
func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func minutesLabel(totalMinutes int) string {
	return fmt.Sprintf("%d h %d min", totalMinutes/60, totalMinutes%60)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
