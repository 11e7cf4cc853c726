package main

import (
	"context"
	"os"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/config"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/db"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/document"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/handlers"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/mission"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/notify"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/registry"
	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/report"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if os.Getenv("LOG_LEVEL") == "debug" {
		log.SetLevel(log.DebugLevel)
	}

	cfg := config.Load()

	var store *db.Store
	if cfg.MemoryStore {
		log.Warn("using in-memory store, data will not survive a restart")
		store, _ = db.NewMemoryStore()
	} else {
		client, err := db.ConnectMongo(cfg.MongoURI)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to MongoDB")
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.WithError(err).Warn("error disconnecting from MongoDB")
			}
		}()
		log.WithField("database", cfg.MongoDB).Info("connected to MongoDB")
		store = db.NewMongoStore(client.Database(cfg.MongoDB))
	}

	engine := mission.NewEngine(store, document.NewPDFRenderer())
	engine.RevertOnDelete = cfg.RevertOnDelete

	if cfg.MQTTBroker != "" {
		publisher, err := notify.Connect(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			log.WithError(err).Warn("MQTT broker unreachable, mission events disabled")
		} else {
			defer publisher.Close()
			engine.Events = publisher
		}
	}

	reconciler := registry.NewReconciler(store)
	aggregator := report.NewAggregator(store.Missions, document.NewExcelRenderer())

	e := echo.New()
	e.HideBanner = true
	handlers.RegisterRoutes(e,
		handlers.NewMissionHandler(engine),
		handlers.NewCarHandler(registry.NewCarRegistry(store.Cars), reconciler),
		handlers.NewDriverHandler(registry.NewDriverRegistry(store.Drivers), reconciler),
		handlers.NewReportHandler(aggregator),
	)

	log.WithField("port", cfg.Port).Info("starting HTTP server")
	if err := e.Start(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
