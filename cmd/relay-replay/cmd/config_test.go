package cmd

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	configureViper(v)
	return v
}

func TestLoadConfig_defaults(t *testing.T) {
	config, err := loadConfig(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, "replay", config.Process.Name)
	assert.Equal(t, []string{"receive", "transform", "reply"}, config.Process.Steps)
	assert.Equal(t, "reply_to", config.Process.ExitType)
	assert.Equal(t, 30*time.Second, config.Process.StepTimeout)
	assert.Equal(t, []string{sinkMemory}, config.Sinks)
	assert.Equal(t, "esb", config.Lineage.PipelineType)
	assert.Equal(t, 5*time.Second, config.Lineage.SendTimeout)
	assert.Equal(t, 16, config.Async.Workers)
	assert.Equal(t, 3, config.Retry.MaxRetries)
	assert.Equal(t, []string{"localhost:9092"}, config.Kafka.Brokers)
	assert.Equal(t, 4, config.Concurrency)
	assert.True(t, config.PrintChains)
}

func TestLoadConfig_env(t *testing.T) {
	t.Setenv("RELAY_PROCESS_NAME", "billing")
	t.Setenv("RELAY_SINKS", "memory,log")
	t.Setenv("RELAY_LINEAGE_SEND_TIMEOUT", "250ms")
	t.Setenv("RELAY_CONCURRENCY", "8")

	config, err := loadConfig(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, "billing", config.Process.Name)
	assert.Equal(t, []string{sinkMemory, sinkLog}, config.Sinks)
	assert.Equal(t, 250*time.Millisecond, config.Lineage.SendTimeout)
	assert.Equal(t, 8, config.Concurrency)
}

func TestLoadConfig_invalid(t *testing.T) {
	testCases := []struct {
		Name  string
		Key   string
		Value interface{}
	}{
		{Name: "unknown_sink", Key: "sinks", Value: []string{"carrier_pigeon"}},
		{Name: "no_sinks", Key: "sinks", Value: []string{}},
		{Name: "no_steps", Key: "process.steps", Value: []string{}},
		{Name: "unknown_exit_type", Key: "process.exit_type", Value: "service"},
		{Name: "empty_process_name", Key: "process.name", Value: ""},
		{Name: "no_concurrency", Key: "concurrency", Value: 0},
		{Name: "negative_step_timeout", Key: "process.step_timeout", Value: -time.Second},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			v := newTestViper()
			v.Set(tc.Key, tc.Value)

			_, err := loadConfig(v)
			assert.Error(t, err)
		})
	}
}
