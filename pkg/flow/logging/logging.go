// Package logging builds the *zap.Logger every batchrail component reports to.
package logging

import (
	"strings"

	"github.com/ib-77/batchrail/pkg/flow"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

type Config struct {
	Level       string   `json:"level"`
	Format      string   `json:"format"`
	Development bool     `json:"development"`
	OutputPaths []string `json:"output_paths"`
}

func Defaults() Config {
	return Config{
		Level:       "info",
		Format:      FormatJSON,
		OutputPaths: []string{"stderr"},
	}
}

// Validate reports every invalid field.
func (c Config) Validate() []error {
	var errs []error
	if _, err := zapcore.ParseLevel(levelOf(c)); err != nil {
		errs = append(errs, flow.Invalid("logging.level", "%q is not a level", c.Level))
	}
	switch formatOf(c) {
	case FormatJSON, FormatConsole:
	default:
		errs = append(errs, flow.Invalid("logging.format", "must be %q or %q, got %q", FormatJSON, FormatConsole, c.Format))
	}
	return errs
}

// New builds a logger from cfg. Empty fields take the values of Defaults.
func New(cfg Config) (*zap.Logger, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs[0]
	}
	level, _ := zapcore.ParseLevel(levelOf(cfg))

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = formatOf(cfg)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if zc.Encoding == FormatConsole {
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}

	return zc.Build()
}

func levelOf(c Config) string {
	if l := strings.TrimSpace(c.Level); l != "" {
		return strings.ToLower(l)
	}
	return Defaults().Level
}

func formatOf(c Config) string {
	if f := strings.TrimSpace(c.Format); f != "" {
		return strings.ToLower(f)
	}
	return Defaults().Format
}
