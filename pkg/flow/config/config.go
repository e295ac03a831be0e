package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ib-77/batchrail/pkg/flow"
	"github.com/ib-77/batchrail/pkg/flow/logging"
)

// Duration is a time.Duration written as a Go duration string ("250ms").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"100ms\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Stage overrides the chain-wide settings for one named stage.
// A zero BatchSize inherits Config.BatchSize.
type Stage struct {
	BatchSize int `json:"batch_size"`
}

type Config struct {
	BatchSize       int              `json:"batch_size"`
	ChannelCapacity int              `json:"channel_capacity"`
	StopGrace       Duration         `json:"stop_grace"`
	Stages          map[string]Stage `json:"stages"`
	Logging         logging.Config   `json:"logging"`
}

func Defaults() Config {
	return Config{
		BatchSize:       32,
		ChannelCapacity: 16,
		StopGrace:       Duration(100 * time.Millisecond),
		Logging:         logging.Defaults(),
	}
}

// Validate returns every problem joined with errors.Join; each one matches
// flow.ErrInvalidConfiguration.
func (c Config) Validate() error {
	var errs []error
	if c.BatchSize < 1 {
		errs = append(errs, flow.Invalid("batch_size", "must be >= 1, got %d", c.BatchSize))
	}
	if c.ChannelCapacity < 1 {
		errs = append(errs, flow.Invalid("channel_capacity", "must be >= 1, got %d", c.ChannelCapacity))
	}
	if c.StopGrace < 0 {
		errs = append(errs, flow.Invalid("stop_grace", "must not be negative, got %s", c.StopGrace.Std()))
	}
	for name, st := range c.Stages {
		if name == "" {
			errs = append(errs, flow.Invalid("stages", "stage name must not be empty"))
		}
		if st.BatchSize < 0 {
			errs = append(errs, flow.Invalid("stages."+name+".batch_size", "must be >= 0, got %d", st.BatchSize))
		}
	}
	errs = append(errs, c.Logging.Validate()...)

	return errors.Join(errs...)
}

// BatchSizeFor returns the batch size configured for the named stage.
func (c Config) BatchSizeFor(name string) int {
	if st, ok := c.Stages[name]; ok && st.BatchSize > 0 {
		return st.BatchSize
	}
	return c.BatchSize
}
