package document

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/report"
)

func TestRenderTable(t *testing.T) {
	r := NewExcelRenderer()
	columns := []report.Column{
		{Header: "Car ID", Key: "carId", Width: 20},
		{Header: "Total KM", Key: "km", Width: 15},
	}
	rows := []map[string]interface{}{
		{"carId": "C-12", "km": 130.0},
		{"carId": "C-44"}, // missing key leaves the cell empty
	}

	data, err := r.RenderTable("Car Report", columns, rows)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Car Report"}, f.GetSheetList())

	header, err := f.GetCellValue("Car Report", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Car ID", header)

	carID, err := f.GetCellValue("Car Report", "A2")
	require.NoError(t, err)
	assert.Equal(t, "C-12", carID)
	km, err := f.GetCellValue("Car Report", "B2")
	require.NoError(t, err)
	assert.Equal(t, "130", km)

	blank, err := f.GetCellValue("Car Report", "B3")
	require.NoError(t, err)
	assert.Empty(t, blank)
}

func TestRenderTable_NoRows(t *testing.T) {
	r := NewExcelRenderer()
	data, err := r.RenderTable("Empty", []report.Column{{Header: "Col", Key: "c", Width: 10}}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
