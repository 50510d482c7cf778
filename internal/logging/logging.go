// Package logging builds the zap loggers used across visionlearn.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Modes accepted by New.
const (
	ModeDevelopment = "dev"
	ModeRelease     = "release"
	ModeQuiet       = "quiet"
)

// New returns a logger for mode. "release" logs JSON at info level,
// "quiet" discards everything and anything else, including the empty
// string, gives a coloured console logger at debug level. Both real modes
// write to stderr so stdout stays free for command output.
func New(mode string) (*zap.Logger, error) {
	var config zap.Config

	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeQuiet, "off", "none":
		return zap.NewNop(), nil
	case ModeRelease, "prod", "production":
		config = zap.NewProductionConfig()
	case "", ModeDevelopment, "debug", "development":
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log mode %q", mode)
	}
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build()
}

// Sync flushes l, ignoring the errors stderr returns on some terminals.
func Sync(l *zap.Logger) {
	if l != nil {
		_ = l.Sync()
	}
}
