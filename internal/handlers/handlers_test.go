package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/db"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/document"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/mission"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/models"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/registry"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/report"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	store, _ := db.NewMemoryStore()
	engine := mission.NewEngine(store, document.NewPDFRenderer())
	engine.Now = func() time.Time {
		return time.Date(2025, 3, 10, 14, 30, 0, 0, time.Local)
	}
	reconciler := registry.NewReconciler(store)
	aggregator := report.NewAggregator(store.Missions, document.NewExcelRenderer())

	e := echo.New()
	RegisterRoutes(e,
		NewMissionHandler(engine),
		NewCarHandler(registry.NewCarRegistry(store.Cars), reconciler),
		NewDriverHandler(registry.NewDriverRegistry(store.Drivers), reconciler),
		NewReportHandler(aggregator),
	)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMissionLifecycleOverHTTP(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/cars", `{"carId":"C-12","kmDepart":1000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = doJSON(t, e, http.MethodPost, "/api/drivers", `{"name":"Karim Bensaid","permitType":"B"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, e, http.MethodPost, "/api/missions", `{
		"orderNumber":"OM-2025-001","carId":"C-12","driverName":"Karim Bensaid",
		"missionZone":"in-perimeter","kmDepart":1000,
		"dateDepart":"2025-03-10","heureDepart":"08:00"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Mission models.Mission `json:"mission"`
		PDF     string         `json:"pdf"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.MissionOngoing, created.Mission.Status)
	sheet, err := base64.StdEncoding.DecodeString(created.PDF)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(sheet[:4]))

	// The booked car is now rejected for another mission.
	rec = doJSON(t, e, http.MethodPost, "/api/missions", `{
		"orderNumber":"OM-2025-002","carId":"C-12","driverName":"Karim Bensaid",
		"missionZone":"in-perimeter","kmDepart":1000,
		"dateDepart":"2025-03-10","heureDepart":"09:00"
	}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	id := created.Mission.ID.Hex()
	rec = doJSON(t, e, http.MethodPut, "/api/missions/"+id+"/complete", `{"kmRetour":950}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodPut, "/api/missions/"+id+"/complete", `{"kmRetour":1080}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var completed struct {
		Mission models.Mission `json:"mission"`
		PDF     string         `json:"pdf"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &completed))
	assert.Equal(t, models.MissionCompleted, completed.Mission.Status)
	require.NotNil(t, completed.Mission.KmDone)
	assert.Equal(t, 80.0, *completed.Mission.KmDone)
	assert.NotEmpty(t, completed.PDF)

	rec = doJSON(t, e, http.MethodGet, "/api/missions?dateDepart=2025-03", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.Mission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	rec = doJSON(t, e, http.MethodGet, "/api/missions?dateDepart=03/2025", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/missions/"+id+"/document", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "%PDF", rec.Body.String()[:4])

	rec = doJSON(t, e, http.MethodDelete, "/api/missions/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, e, http.MethodGet, "/api/missions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegistryEndpoints(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/cars", `{"carId":"C-12"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, e, http.MethodPost, "/api/cars", `{"carId":"C-12"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = doJSON(t, e, http.MethodPost, "/api/cars", `{"carId":"C-13","vehicleType":"bike"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/cars/C-12", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, e, http.MethodGet, "/api/cars/C-99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/drivers", `{"name":"Karim Bensaid","permitType":"D"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/cars?status=parked", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportEndpoints(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/api/reports/summary?start=2025-03-01&end=2025-03-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary report.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Empty(t, summary.Cars)

	rec = doJSON(t, e, http.MethodGet, "/api/reports/summary?start=2025-03-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/reports/cars/2025/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "car-report-2025-03.xlsx")

	rec = doJSON(t, e, http.MethodGet, "/api/reports/cars/2025/13", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, e, http.MethodGet, "/api/reports/missions/notayear/1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReconcileEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/cars", `{"carId":"C-12","kmDepart":1000}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/cars/C-12/reconcile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var car models.Car
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &car))
	assert.Equal(t, 0, car.MissionsCompleted)
	// No completed missions: the manual odometer entry is preserved.
	assert.Equal(t, 1000.0, car.KmDepart)

	rec = doJSON(t, e, http.MethodPost, "/api/cars/C-99/reconcile", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/reconcile", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
