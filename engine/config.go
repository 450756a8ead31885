package engine

// Default fan-out settings.
const (
	DefaultMaxConcurrency = 4
)

// Config controls how the engine dispatches a query to its handlers.
type Config struct {
	ParallelFanout bool `json:"parallel_fanout"` // Call handlers concurrently instead of one after another
	MaxConcurrency int  `json:"max_concurrency"` // Upper bound on in-flight handler calls per fan-out (<=0: unbounded)
}

// DefaultConfig returns sequential fan-out, which keeps handler call order
// observable in logs.
func DefaultConfig() Config {
	return Config{
		ParallelFanout: false,
		MaxConcurrency: DefaultMaxConcurrency,
	}
}
