// internal/app/system/timeouts/timeouts.go
//
// Package timeouts holds the context deadlines used by handlers and lead
// operations. Values come from the timeout_* config keys and are applied
// once in Startup; anything left at zero keeps its default.
//
//   - Ping: health checks, connect checks
//   - Short: single-document reads and writes
//   - Medium: lists, stats aggregation, audit queries
//   - Long: agent deletes and other multi-collection writes
//   - Batch: spreadsheet ingestion and bulk lead operations
package timeouts

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure is called.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 2 * time.Minute
)

// Config is one full set of deadlines. Zero fields mean "use the default".
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

// Defaults returns the built-in deadlines.
func Defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
	}
}

var current atomic.Pointer[Config]

func init() {
	d := Defaults()
	current.Store(&d)
}

// Validate rejects negative values and a Batch shorter than Long, since
// batch work always spans more than one multi-collection write.
func (c Config) Validate() error {
	for _, f := range []struct {
		name string
		d    time.Duration
	}{
		{"timeout_ping", c.Ping},
		{"timeout_short", c.Short},
		{"timeout_medium", c.Medium},
		{"timeout_long", c.Long},
		{"timeout_batch", c.Batch},
	} {
		if f.d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", f.name, f.d)
		}
	}
	eff := c.withDefaults()
	if eff.Batch < eff.Long {
		return fmt.Errorf("timeout_batch (%s) is shorter than timeout_long (%s)", eff.Batch, eff.Long)
	}
	return nil
}

func (c Config) withDefaults() Config {
	d := Defaults()
	if c.Ping > 0 {
		d.Ping = c.Ping
	}
	if c.Short > 0 {
		d.Short = c.Short
	}
	if c.Medium > 0 {
		d.Medium = c.Medium
	}
	if c.Long > 0 {
		d.Long = c.Long
	}
	if c.Batch > 0 {
		d.Batch = c.Batch
	}
	return d
}

// Configure replaces the active deadlines with cfg, filling zero fields
// from the defaults, and returns what is now in effect. Calling it again
// starts from the defaults, not from the previous call.
func Configure(cfg Config) Config {
	eff := cfg.withDefaults()
	current.Store(&eff)
	return eff
}

// Current returns the active deadlines.
func Current() Config { return *current.Load() }

func Ping() time.Duration   { return current.Load().Ping }
func Short() time.Duration  { return current.Load().Short }
func Medium() time.Duration { return current.Load().Medium }
func Long() time.Duration   { return current.Load().Long }

// Batch bounds one ingestion run or bulk operation, from lock to summary.
func Batch() time.Duration { return current.Load().Batch }

// Fields renders cfg for a startup log line.
func (c Config) Fields() []zap.Field {
	return []zap.Field{
		zap.Duration("ping", c.Ping),
		zap.Duration("short", c.Short),
		zap.Duration("medium", c.Medium),
		zap.Duration("long", c.Long),
		zap.Duration("batch", c.Batch),
	}
}

// WithTimeout wraps context.WithTimeout and logs a warning when the
// operation ran out of time.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "bulk transfer")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
