// Package config gathers runtime settings from the environment, with a
// .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds everything the server needs to start.
type Config struct {
	Port           string
	MongoURI       string
	MongoDB        string
	MQTTBroker     string
	MQTTClientID   string
	MemoryStore    bool
	RevertOnDelete bool
}

// Load reads a .env file if one is present, then assembles the config
// from environment variables with development defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment only")
	}

	cfg := Config{
		Port:           getenv("PORT", "8080"),
		MongoURI:       getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getenv("MONGO_DB", "suivi_mission"),
		MQTTBroker:     os.Getenv("MQTT_BROKER"),
		MQTTClientID:   getenv("MQTT_CLIENT_ID", "suivi-mission-server"),
		MemoryStore:    getbool("MEMORY_STORE"),
		RevertOnDelete: getbool("DELETE_REVERTS_REGISTRIES"),
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
