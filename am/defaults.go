package am

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Default values
const (
	DefaultDatabasePath      = "scholarfed.db"
	DefaultGraphEndpoint     = "http://127.0.0.1:9999/blazegraph/sparql"
	DefaultTimeoutSeconds    = 30
	DefaultRequestsPerSecond = 20
	DefaultMaxConcurrency    = 4
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.paths", []string{DefaultDatabasePath})

	v.SetDefault("graph.endpoints", []string{DefaultGraphEndpoint})
	v.SetDefault("graph.timeout_seconds", DefaultTimeoutSeconds)
	v.SetDefault("graph.requests_per_second", DefaultRequestsPerSecond)
	v.SetDefault("graph.allow_private", true) // SPARQL endpoints usually run locally

	v.SetDefault("engine.parallel_fanout", true)
	v.SetDefault("engine.max_concurrency", DefaultMaxConcurrency)

	v.SetDefault("log.json", false)
}

// BindEnvVars binds list-valued settings, which AutomaticEnv does not split
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("database.paths", EnvPrefix+"_DATABASE_PATHS")
	v.BindEnv("graph.endpoints", EnvPrefix+"_GRAPH_ENDPOINTS")
}

// Timeout returns the per-request timeout for SPARQL endpoints
func (g GraphConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// PrimaryDatabase returns the load target for classification data
func (c *Config) PrimaryDatabase() string {
	if len(c.Database.Paths) == 0 {
		return ""
	}
	return c.Database.Paths[0]
}

// PrimaryEndpoint returns the load target for journal data
func (c *Config) PrimaryEndpoint() string {
	if len(c.Graph.Endpoints) == 0 {
		return ""
	}
	return c.Graph.Endpoints[0]
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Databases: %d, Endpoints: %d, Engine: {Parallel: %t, MaxConcurrency: %d}}",
		len(c.Database.Paths), len(c.Graph.Endpoints), c.Engine.ParallelFanout, c.Engine.MaxConcurrency)
}
