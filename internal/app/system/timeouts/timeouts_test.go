package timeouts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_FillsDefaults(t *testing.T) {
	t.Cleanup(func() { Configure(Config{}) })

	eff := Configure(Config{Batch: 5 * time.Minute, Short: time.Second})
	assert.Equal(t, 5*time.Minute, eff.Batch)
	assert.Equal(t, time.Second, eff.Short)
	assert.Equal(t, DefaultMedium, eff.Medium)

	assert.Equal(t, 5*time.Minute, Batch())
	assert.Equal(t, time.Second, Short())
	assert.Equal(t, DefaultPing, Ping())
	assert.Equal(t, eff, Current())
}

func TestConfigure_StartsFromDefaults(t *testing.T) {
	t.Cleanup(func() { Configure(Config{}) })

	Configure(Config{Long: time.Minute, Batch: 3 * time.Minute})
	eff := Configure(Config{Batch: 4 * time.Minute})
	assert.Equal(t, DefaultLong, eff.Long, "earlier override must not survive")
	assert.Equal(t, 4*time.Minute, Batch())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"zero config", Config{}, ""},
		{"batch override", Config{Batch: 10 * time.Minute}, ""},
		{"negative short", Config{Short: -time.Second}, "timeout_short"},
		{"batch below default long", Config{Batch: 10 * time.Second}, "timeout_batch"},
		{"batch below long override", Config{Long: 5 * time.Minute, Batch: 3 * time.Minute}, "shorter than timeout_long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, log, "bulk transfer")
	<-ctx.Done()
	cancel()

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "operation timed out", entry.Message)
	assert.Equal(t, "bulk transfer", entry.ContextMap()["operation"])
}

func TestWithTimeout_QuietWhenFinishedInTime(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	_, cancel := WithTimeout(context.Background(), time.Minute, zap.New(core), "stats")
	cancel()
	assert.Zero(t, logs.Len())
}
