package logger

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. It is a no-op until Initialize runs, so
// packages can log unconditionally.
var Logger = zap.NewNop().Sugar()

var verbosity atomic.Int32

// Initialize sets up the global logger on stderr, keeping stdout free for
// query results. verbosity is the CLI -v count (see VerbosityToLevel).
func Initialize(jsonOutput bool, v int) error {
	verbosity.Store(int32(v))
	Logger = New(zapcore.Lock(os.Stderr), jsonOutput, VerbosityToLevel(v)).Sugar()
	return nil
}

// New builds a logger writing to w. jsonOutput selects the production JSON
// encoder; otherwise a coloured console encoder is used.
func New(w zapcore.WriteSyncer, jsonOutput bool, level zapcore.Level) *zap.Logger {
	var enc zapcore.Encoder
	if jsonOutput {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	return zap.New(zapcore.NewCore(enc, w, level))
}

// TraceEnabled reports whether -vvv was given; SQL and SPARQL text is only
// logged then.
func TraceEnabled() bool {
	return ShouldLogTrace(int(verbosity.Load()))
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	_ = Logger.Sync()
}
