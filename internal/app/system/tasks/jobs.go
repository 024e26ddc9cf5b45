// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/leadhub/internal/app/system/cache"
	"github.com/dalemusser/leadhub/internal/app/system/ingestlock"
	"go.uber.org/zap"
)

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// CacheSweepJob drops expired entries from the in-memory cache so idle
// keys do not accumulate between reads.
func CacheSweepJob(c *cache.Memory, logger *zap.Logger) Job {
	return Job{
		Name:     "cache-sweep",
		Interval: 1 * time.Minute,
		Run: func(ctx context.Context) error {
			if n := c.Sweep(); n > 0 {
				logger.Debug("swept expired cache entries", zap.Int("count", n))
			}
			return nil
		},
	}
}

// StaleLockPurgeJob removes expired advisory locks. Acquire already takes
// over an expired lock; this keeps the collection tidy after crashes.
func StaleLockPurgeJob(l *ingestlock.Locker, logger *zap.Logger) Job {
	return Job{
		Name:     "stale-lock-purge",
		Interval: 5 * time.Minute,
		Run: func(ctx context.Context) error {
			count, err := l.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("purged expired locks", zap.Int64("count", count))
			}
			return nil
		},
	}
}
