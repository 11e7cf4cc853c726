// Package document renders missions into printable artifacts: a
// single-page PDF mission sheet and xlsx tables for the monthly
// exports. It is pure formatting; unset optional fields render as
// blanks, never as zeros.
package document

import (
	"bytes"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/models"
)

// PDFRenderer produces the mission order sheet. Label positions are
// fixed so the output matches the paper form the operations team uses.
type PDFRenderer struct{}

// NewPDFRenderer builds a mission sheet renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// RenderMission draws a mission onto a single A4 page and returns the
// PDF bytes. Missing optional fields leave their slot empty.
func (r *PDFRenderer) RenderMission(m models.Mission) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(70, 20, "VEHICLE MISSION ORDER")
	pdf.SetFont("Helvetica", "", 10)

	draw := func(label, value string, x, y float64) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Text(x, y, label)
		pdf.SetFont("Helvetica", "", 10)
		if value != "" {
			pdf.Text(x+pdf.GetStringWidth(label)+2, y, value)
		}
	}

	draw("Order No.:", m.OrderNumber, 20, 35)
	draw("Date:", m.DateDepart, 140, 35)
	draw("Driver:", m.DriverName, 20, 45)
	draw("Vehicle No.:", m.CarID, 100, 45)
	draw("SA:", m.SA, 160, 45)
	draw("Vehicle type:", m.VehicleType, 20, 55)

	// Mission type checkboxes.
	boxes := []struct {
		label string
		tag   string
		x     float64
	}{
		{"Sick transport", models.TypeSickTransport, 20},
		{"Personnel", models.TypePersonnel, 70},
		{"Material", models.TypeMaterial, 110},
		{"Mail", models.TypeMail, 150},
	}
	tags := make(map[string]bool, len(m.MissionType))
	for _, t := range m.MissionType {
		tags[t] = true
	}
	for _, b := range boxes {
		pdf.Rect(b.x, 62, 4, 4, "D")
		if tags[b.tag] {
			pdf.Text(b.x+0.7, 65.2, "x")
		}
		pdf.Text(b.x+6, 65.2, b.label)
	}

	draw("Zone:", m.MissionZone, 20, 78)
	draw("Destination:", m.Lieu, 100, 78)

	draw("Departure time:", m.HeureDepart, 20, 90)
	draw("Return time:", m.HeureRetour, 80, 90)
	duration := ""
	if m.DurationHours != nil {
		duration = models.FormatHours(*m.DurationHours)
	}
	draw("Duration:", duration, 140, 90)

	draw("KM depart:", formatKm(&m.KmDepart), 20, 100)
	draw("KM retour:", formatKm(m.KmRetour), 80, 100)
	draw("KM total:", formatKm(m.KmDone), 140, 100)
	draw("Return date:", m.DateRetour, 20, 110)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatKm(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + " KM"
}
