package config

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ib-77/batchrail/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	t.Parallel()
	require.NoError(t, Defaults().Validate())
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFile("testdata/indexing.json")
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.BatchSize)
	assert.Equal(t, 8, cfg.ChannelCapacity)
	assert.Equal(t, 250*time.Millisecond, cfg.StopGrace.Std())
	assert.Equal(t, 16, cfg.BatchSizeFor("embed"))
	assert.Equal(t, 64, cfg.BatchSizeFor("parse"))
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"stderr"}, cfg.Logging.OutputPaths, "unset fields keep defaults")
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := Load(strings.NewReader(`{"batch_size": 4, "batchsize": 5}`))
	assert.ErrorContains(t, err, "unknown field")
}

func TestLoad_BadDuration(t *testing.T) {
	t.Parallel()

	_, err := Load(strings.NewReader(`{"stop_grace": 100}`))
	assert.Error(t, err)

	_, err = Load(strings.NewReader(`{"stop_grace": "soon"}`))
	assert.Error(t, err)
}

func TestValidate_ReportsEveryField(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.BatchSize = 0
	cfg.ChannelCapacity = -1
	cfg.StopGrace = Duration(-time.Second)
	cfg.Stages = map[string]Stage{"embed": {BatchSize: -2}}
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, flow.ErrInvalidConfiguration)

	errs := flow.GetErrors(err)
	assert.Len(t, errs, 5)
	for _, e := range errs {
		var ce *flow.ConfigError
		assert.ErrorAs(t, e, &ce)
	}
}

func TestLoad_BatchSizeBelowOneFails(t *testing.T) {
	t.Parallel()

	_, err := Load(strings.NewReader(`{"batch_size": 0}`))
	assert.ErrorIs(t, err, flow.ErrInvalidConfiguration)
}

func TestEnvOverlayAndMerge(t *testing.T) {
	t.Parallel()

	over, err := EnvOverlay([]string{
		"PATH=/usr/bin",
		"BATCHRAIL_BATCH_SIZE=8",
		"BATCHRAIL_STOP_GRACE=1s",
		"BATCHRAIL_LOG_LEVEL=warn",
		"BATCHRAIL_UNKNOWN=1",
	})
	require.NoError(t, err)

	base := Defaults()
	base.Stages = map[string]Stage{"parse": {BatchSize: 2}}
	over.Stages = map[string]Stage{"embed": {BatchSize: 4}}

	cfg := Merge(base, over)
	assert.Equal(t, 8, cfg.BatchSize)
	assert.Equal(t, 16, cfg.ChannelCapacity)
	assert.Equal(t, time.Second, cfg.StopGrace.Std())
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.BatchSizeFor("parse"))
	assert.Equal(t, 4, cfg.BatchSizeFor("embed"))
	assert.Len(t, base.Stages, 1, "base is not modified")

	_, err = EnvOverlay([]string{"BATCHRAIL_CHANNEL_CAPACITY=lots"})
	assert.ErrorContains(t, err, "BATCHRAIL_CHANNEL_CAPACITY")
}

func TestEnvOverlay_RejectsOutOfRangeValues(t *testing.T) {
	t.Parallel()

	_, err := EnvOverlay([]string{
		"BATCHRAIL_BATCH_SIZE=0",
		"BATCHRAIL_CHANNEL_CAPACITY=-3",
		"BATCHRAIL_STOP_GRACE=-1s",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, flow.ErrInvalidConfiguration)
	assert.ErrorContains(t, err, "BATCHRAIL_BATCH_SIZE")
	assert.ErrorContains(t, err, "BATCHRAIL_CHANNEL_CAPACITY")
	assert.ErrorContains(t, err, "BATCHRAIL_STOP_GRACE")
	assert.Len(t, flow.GetErrors(err), 3)
}

func TestDuration_JSON(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(Duration(1500 * time.Millisecond))
	require.NoError(t, err)
	assert.JSONEq(t, `"1.5s"`, string(raw))
}
