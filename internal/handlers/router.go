package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RegisterRoutes mounts every API route on the echo instance.
func RegisterRoutes(e *echo.Echo, missions *MissionHandler, cars *CarHandler, drivers *DriverHandler, reports *ReportHandler) {
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	api.POST("/reconcile", cars.ReconcileAll)

	m := api.Group("/missions")
	m.GET("", missions.List)
	m.POST("", missions.Create)
	m.GET("/filters", missions.Filters)
	m.GET("/:id", missions.Get)
	m.PUT("/:id", missions.Edit)
	m.PUT("/:id/complete", missions.Complete)
	m.DELETE("/:id", missions.Delete)
	m.GET("/:id/document", missions.Document)

	cg := api.Group("/cars")
	cg.GET("", cars.List)
	cg.POST("", cars.Create)
	cg.GET("/:carId", cars.Get)
	cg.PUT("/:id", cars.Update)
	cg.DELETE("/:id", cars.Delete)
	cg.POST("/:carId/reconcile", cars.Reconcile)

	dg := api.Group("/drivers")
	dg.GET("", drivers.List)
	dg.POST("", drivers.Create)
	dg.PUT("/:id", drivers.Update)
	dg.PUT("/:id/status", drivers.SetStatus)
	dg.DELETE("/:id", drivers.Delete)
	dg.POST("/:name/reconcile", drivers.Reconcile)

	rg := api.Group("/reports")
	rg.GET("/summary", reports.Summary)
	rg.GET("/cars/:year/:month", reports.CarReport)
	rg.GET("/drivers/:year/:month", reports.DriverReport)
	rg.GET("/missions/:year/:month", reports.MissionExport)
}
