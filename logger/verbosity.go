package logger

import "go.uber.org/zap/zapcore"

// CLI -v counts.
const (
	VerbosityUser  = 0 // results and errors only
	VerbosityInfo  = 1 // loads, handler registration
	VerbosityDebug = 2 // per-handler fan-out, row counts
	VerbosityTrace = 3 // SQL and SPARQL text
)

// VerbosityToLevel maps a -v count to a zap level: none is Warn, -v is Info,
// anything above is Debug. Trace has no zap level of its own; it is Debug
// plus query text, see TraceEnabled.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityUser:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

func ShouldLogTrace(verbosity int) bool {
	return verbosity >= VerbosityTrace
}
