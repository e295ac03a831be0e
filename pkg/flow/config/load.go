package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ib-77/batchrail/pkg/flow"
)

// EnvPrefix prefixes every variable EnvOverlay reads.
const EnvPrefix = "BATCHRAIL_"

// Load decodes JSON from r over Defaults and validates the result. Unknown
// fields are rejected.
func Load(r io.Reader) (Config, error) {
	cfg := Defaults()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg, err := Load(f)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// EnvOverlay reads BATCHRAIL_* variables from environ (os.Environ format).
// Only the fields present are set; Merge applies them. Values are range
// checked here because Merge skips zero fields. A STOP_GRACE of zero keeps
// the base value.
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	var errs []error
	for _, kv := range environ {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		val = strings.TrimSpace(val)

		switch strings.TrimPrefix(key, EnvPrefix) {
		case "BATCH_SIZE":
			n, err := positive(key, val)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			over.BatchSize = n
		case "CHANNEL_CAPACITY":
			n, err := positive(key, val)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			over.ChannelCapacity = n
		case "STOP_GRACE":
			d, err := time.ParseDuration(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			if d < 0 {
				errs = append(errs, flow.Invalid(key, "must not be negative, got %s", d))
				continue
			}
			over.StopGrace = Duration(d)
		case "LOG_LEVEL":
			over.Logging.Level = val
		case "LOG_FORMAT":
			over.Logging.Format = val
		}
	}
	return over, errors.Join(errs...)
}

func positive(key, val string) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < 1 {
		return 0, flow.Invalid(key, "must be >= 1, got %d", n)
	}
	return n, nil
}

// Merge returns base with every non-zero field of over applied. Stage
// entries of over replace the entries of base with the same name.
func Merge(base, over Config) Config {
	out := base
	if over.BatchSize != 0 {
		out.BatchSize = over.BatchSize
	}
	if over.ChannelCapacity != 0 {
		out.ChannelCapacity = over.ChannelCapacity
	}
	if over.StopGrace != 0 {
		out.StopGrace = over.StopGrace
	}
	if len(over.Stages) > 0 {
		stages := make(map[string]Stage, len(base.Stages)+len(over.Stages))
		for k, v := range base.Stages {
			stages[k] = v
		}
		for k, v := range over.Stages {
			stages[k] = v
		}
		out.Stages = stages
	}
	if over.Logging.Level != "" {
		out.Logging.Level = over.Logging.Level
	}
	if over.Logging.Format != "" {
		out.Logging.Format = over.Logging.Format
	}
	if over.Logging.Development {
		out.Logging.Development = true
	}
	if len(over.Logging.OutputPaths) > 0 {
		out.Logging.OutputPaths = append([]string(nil), over.Logging.OutputPaths...)
	}
	return out
}
