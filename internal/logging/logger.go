package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels above info. Level n maps onto zap level -n, so VERBOSE is
// zap's debug level and DEBUG and TRACE sit below it.
const (
	DEFAULT = 0
	VERBOSE = 1
	DEBUG   = 2
	TRACE   = 3
)

var verbosityNames = map[string]int{
	"default": DEFAULT,
	"verbose": VERBOSE,
	"debug":   DEBUG,
	"trace":   TRACE,
}

// ParseLevel accepts the verbosity names above as well as zap level names.
func ParseLevel(name string) (zapcore.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zapcore.InfoLevel, nil
	}
	if v, ok := verbosityNames[name]; ok {
		return zapcore.Level(-v), nil
	}
	lvl, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
	return lvl, nil
}

// New builds a JSON production logger, or a console logger in development
// mode.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build(zap.AddCaller())
}

// NewTestLogger returns a development logger at TRACE verbosity.
func NewTestLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-TRACE))
	logger, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
