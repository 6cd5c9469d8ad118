package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// LogsService holds the logs service configuration.
type LogsService struct {
	Environment

	Postgres
	ClickHouse
	Redis
	Cache
	HTTPServer
	Stream
}

// Cache holds the result cache configuration. The historical backend caches
// by default: the store is append-only and a short TTL bounds staleness.
type Cache struct {
	Enabled bool          `envconfig:"CACHE_ENABLED" default:"true"`
	TTL     time.Duration `envconfig:"CACHE_TTL" default:"2s"`
}

// InitLogsServiceConfig initializes the logs service configuration.
func InitLogsServiceConfig() (*LogsService, error) {
	var cfg LogsService
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
