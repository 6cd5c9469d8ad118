package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// LogsAgent holds the logs agent configuration.
type LogsAgent struct {
	Environment

	Redis
	AgentCache
	HTTPServer
	Stream
}

// AgentCache holds the result cache configuration for the live backend. It is
// off by default: live reads must reflect the container's current output.
type AgentCache struct {
	Enabled bool          `envconfig:"CACHE_ENABLED" default:"false"`
	TTL     time.Duration `envconfig:"CACHE_TTL" default:"2s"`
}

// InitLogsAgentConfig initializes the logs agent configuration.
func InitLogsAgentConfig() (*LogsAgent, error) {
	var cfg LogsAgent
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
