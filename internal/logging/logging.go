// Package logging wraps zap's sugared logger so the rest of the server can
// use the terse key-value forms (Infow, Errorw) without importing zap
// everywhere.
package logging

import (
	"strings"

	"go.uber.org/zap"
)

type Logger struct {
	*zap.SugaredLogger
}

// New builds a logger matching the server mode: JSON output in release mode,
// console output otherwise.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "release":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}
