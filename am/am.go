// Package am holds the scholarfed configuration: where the classification
// databases and SPARQL endpoints live, and how the engine fans out to them.
package am

// Config represents the scholarfed configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database" json:"database" yaml:"database" toml:"database"`
	Graph    GraphConfig    `mapstructure:"graph" json:"graph" yaml:"graph" toml:"graph"`
	Engine   EngineConfig   `mapstructure:"engine" json:"engine" yaml:"engine" toml:"engine"`
	Log      LogConfig      `mapstructure:"log" json:"log" yaml:"log" toml:"log"`
}

// DatabaseConfig lists the SQLite classification stores. Each path becomes
// one category handler; loads go to the first.
type DatabaseConfig struct {
	Paths []string `mapstructure:"paths" json:"paths" yaml:"paths" toml:"paths"`
}

// GraphConfig lists the SPARQL journal endpoints. Each endpoint becomes one
// journal handler; loads go to the first.
type GraphConfig struct {
	Endpoints         []string `mapstructure:"endpoints" json:"endpoints" yaml:"endpoints" toml:"endpoints"`
	TimeoutSeconds    int      `mapstructure:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second" toml:"requests_per_second"` // 0 = unlimited
	AllowPrivate      bool     `mapstructure:"allow_private" json:"allow_private" yaml:"allow_private" toml:"allow_private"`
}

// EngineConfig controls handler fan-out
type EngineConfig struct {
	ParallelFanout bool `mapstructure:"parallel_fanout" json:"parallel_fanout" yaml:"parallel_fanout" toml:"parallel_fanout"`
	MaxConcurrency int  `mapstructure:"max_concurrency" json:"max_concurrency" yaml:"max_concurrency" toml:"max_concurrency"`
}

// LogConfig selects the log encoder
type LogConfig struct {
	JSON bool `mapstructure:"json" json:"json" yaml:"json" toml:"json"`
}

// DefaultDirPermissions is used when creating ~/.scholarfed
const DefaultDirPermissions = 0o755
