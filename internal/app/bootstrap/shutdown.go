// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background jobs, closes the cache and disconnects MongoDB.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if b := deps.backends; b != nil {
		if b.scheduler != nil {
			b.scheduler.Stop(ctx)
		}
		if b.cache != nil {
			if err := b.cache.Close(); err != nil {
				logger.Warn("cache close failed", zap.Error(err))
			}
		}
	}
	if deps.MongoClient != nil {
		logger.Info("disconnecting LeadHub MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
