// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/leadhub/internal/app/store/audit"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"github.com/dalemusser/leadhub/internal/app/system/cache"
	"github.com/dalemusser/leadhub/internal/app/system/filestore"
	"github.com/dalemusser/leadhub/internal/app/system/ingestlock"
	"github.com/dalemusser/leadhub/internal/app/system/normalize"
	"github.com/dalemusser/leadhub/internal/app/system/tasks"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/leadhub/internal/app/system/workers"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// redisKeyPrefix namespaces LeadHub's keys on a shared Redis.
const redisKeyPrefix = "leadhub:"

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: handler
// timeouts, the bootstrap admin, the stats cache and the background jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	eff := timeouts.Configure(appCfg.Timeouts)
	logger.Info("timeouts configured", eff.Fields()...)

	if deps.backends == nil {
		return errors.New("startup: backends not initialized; ConnectDB must run first")
	}
	b := deps.backends

	b.audit = newAuditLogger(appCfg, deps, logger)
	if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, appCfg.AdminPassword, b.audit, logger); err != nil {
		return err
	}

	c, err := newCache(ctx, appCfg, logger)
	if err != nil {
		return err
	}
	b.cache = c
	if m, ok := c.(*cache.Memory); ok {
		b.memory = m
	}
	b.locks = ingestlock.New(deps.MongoDatabase)

	files, err := filestore.New(ctx, filestore.Config{
		Type:      appCfg.StorageType,
		LocalPath: appCfg.StorageLocalPath,
		S3Region:  appCfg.StorageS3Region,
		S3Bucket:  appCfg.StorageS3Bucket,
		S3Prefix:  appCfg.StorageS3Prefix,
	})
	if err != nil {
		logger.Error("spreadsheet storage init failed", zap.Error(err))
		return fmt.Errorf("storage: %w", err)
	}
	b.files = files
	logger.Info("spreadsheet storage ready", zap.String("backend", files.Backend()))

	b.scheduler = workers.NewScheduler(logger)
	jobs := []tasks.Job{tasks.StaleLockPurgeJob(b.locks, logger)}
	if b.memory != nil {
		jobs = append(jobs, tasks.CacheSweepJob(b.memory, logger))
	}
	for _, job := range jobs {
		if err := b.scheduler.Add(job); err != nil {
			return err
		}
	}
	b.scheduler.Start()
	logger.Info("background jobs started", zap.Strings("jobs", b.scheduler.Jobs()))

	return nil
}

// newCache builds the stats cache selected by cache_backend.
func newCache(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (cache.Cache, error) {
	if appCfg.CacheBackend != "redis" {
		logger.Info("using in-memory stats cache")
		return cache.NewMemory(), nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	r, err := cache.NewRedis(pingCtx, appCfg.RedisURL, redisKeyPrefix)
	if err != nil {
		logger.Error("redis cache init failed", zap.Error(err))
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	logger.Info("using redis stats cache")
	return r, nil
}

func newAuditLogger(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
		Leads: appCfg.AuditLogLeads,
	})
}

// ensureAdmin makes sure the configured email belongs to an admin. An
// existing agent is promoted; a missing account is created with password.
// A blank email disables the bootstrap.
func ensureAdmin(ctx context.Context, deps DBDeps, email, password string, al *auditlog.Logger, logger *zap.Logger) error {
	email = normalize.Email(email)
	if email == "" {
		return nil
	}
	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == models.RoleAdmin {
			logger.Info("admin account present", zap.String("email", email))
			return nil
		}
		if err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
			return fmt.Errorf("promote %s to admin: %w", email, err)
		}
		logger.Info("promoted user to admin", zap.String("email", email))
		al.AdminBootstrapped(ctx, u.ID, email)
		return nil
	case !errors.Is(err, userstore.ErrNotFound):
		return fmt.Errorf("look up admin %s: %w", email, err)
	}

	if password == "" {
		return fmt.Errorf("admin %s does not exist and admin_password is empty", email)
	}
	created, err := users.Create(ctx, models.User{
		FullName: adminName(email),
		Email:    email,
		Role:     models.RoleAdmin,
	}, password)
	if err != nil {
		return fmt.Errorf("create admin %s: %w", email, err)
	}
	logger.Info("created admin account", zap.String("email", email))
	al.AdminBootstrapped(ctx, created.ID, email)
	return nil
}

// adminName derives a display name from the mailbox part of email.
func adminName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "Administrator"
	}
	return local
}
