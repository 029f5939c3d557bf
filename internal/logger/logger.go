package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the structured logger used by services and repositories.
// SLog is its sugared counterpart for printf-style messages.
var (
	Log  *zap.Logger
	SLog *zap.SugaredLogger
)

// Init builds the global loggers. Production mode writes JSON,
// anything else uses the human-readable development encoder.
func Init(environment string) error {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := cfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		return err
	}
	Log = l
	SLog = l.Sugar()
	return nil
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

func init() {
	// Safe defaults so packages can log before Init runs (e.g. in tests).
	Log = zap.NewNop()
	SLog = Log.Sugar()
}
