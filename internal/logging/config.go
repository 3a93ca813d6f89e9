// Package logging builds the process-wide zap logger used by the kv stores,
// the CLI and the examples.
//
// The codec packages never log. Outer surfaces call ConfigureRuntime (or
// ConfigureTests) once at startup and pass the result down as an option.
// Level and encoding can be overridden through the environment:
//
//	ORDCODE_LOG_LEVEL=debug|info|warn|error|off
//	ORDCODE_LOG_FORMAT=console|json
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variables read by Configure.
const (
	EnvLogLevel  = "ORDCODE_LOG_LEVEL"  // debug, info, warn, error or off
	EnvLogFormat = "ORDCODE_LOG_FORMAT" // console or json
)

// Profile selects the defaults Configure starts from.
type Profile int

const (
	// ProfileRuntime logs at info level with timestamps.
	ProfileRuntime Profile = iota
	// ProfileTest logs at debug level without timestamps.
	ProfileTest
)

var (
	configureOnce sync.Once
	configureErr  error
	logger        = zap.NewNop()
)

// ConfigureRuntime is Configure(ProfileRuntime).
func ConfigureRuntime() *zap.Logger {
	return Configure(ProfileRuntime)
}

// ConfigureTests is Configure(ProfileTest).
func ConfigureTests() *zap.Logger {
	return Configure(ProfileTest)
}

// Configure builds the process logger on first use and returns it.
// Later calls return the same logger regardless of profile.
//
// If the zap configuration cannot be built, for example because an output
// path cannot be opened, the logger stays a no-op logger and Err reports
// the failure.
func Configure(profile Profile) *zap.Logger {
	configureOnce.Do(func() {
		cfg := defaultConfig(profile)
		applyEnvOverrides(&cfg)
		logger, configureErr = build(cfg)
	})

	return logger
}

// Err returns the error that made Configure fall back to a no-op logger.
func Err() error {
	return configureErr
}

func build(cfg zap.Config) (*zap.Logger, error) {
	built, err := cfg.Build()
	if err != nil {
		return zap.NewNop(), fmt.Errorf("logging: build %s logger: %w", cfg.Encoding, err)
	}

	return built, nil
}

// L returns the configured logger, or a no-op logger before Configure.
func L() *zap.Logger {
	return logger
}

func defaultConfig(profile Profile) zap.Config {
	cfg := zap.Config{
		Level:            zap.NewAtomicLevel(),
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	switch profile {
	case ProfileTest:
		cfg.Level.SetLevel(zap.DebugLevel)
		cfg.EncoderConfig.TimeKey = ""
	default:
		cfg.Level.SetLevel(zap.InfoLevel)
	}

	return cfg
}

func applyEnvOverrides(cfg *zap.Config) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level.SetLevel(lvl)
	}
	if enc, ok := parseFormat(os.Getenv(EnvLogFormat)); ok {
		cfg.Encoding = enc
		if enc == "json" {
			cfg.EncoderConfig = zap.NewProductionEncoderConfig()
		}
	}
}

func parseLevel(raw string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zap.InfoLevel, false
	case "debug":
		return zap.DebugLevel, true
	case "info":
		return zap.InfoLevel, true
	case "warn", "warning":
		return zap.WarnLevel, true
	case "error":
		return zap.ErrorLevel, true
	case "disabled", "off", "none":
		return zap.FatalLevel + 1, true
	default:
		return zap.InfoLevel, false
	}
}

func parseFormat(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return "json", true
	case "console", "text":
		return "console", true
	default:
		return "", false
	}
}
