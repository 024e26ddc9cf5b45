// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/leadhub/internal/app/leadops/ingest"
	"github.com/dalemusser/leadhub/internal/app/leadops/stats"
	"github.com/dalemusser/leadhub/internal/app/system/sheets"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for LeadHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: LEADHUB_MONGO_URI, LEADHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "leadhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "leadhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Spreadsheet archive
	{Name: "storage_type", Default: "local", Desc: "Storage backend for uploaded spreadsheets: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./data", Desc: "Base directory for local storage (files land under uploads/YYYY/MM)"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "leadhub/", Desc: "S3 key prefix"},

	// Uploads and ingestion
	{Name: "upload_max_bytes", Default: int(sheets.MaxUploadSize), Desc: "Largest accepted spreadsheet in bytes"},
	{Name: "ingest_chunk_size", Default: 500, Desc: "Leads per insert batch"},
	{Name: "ingest_lock_ttl", Default: "10m", Desc: "How long an upload holds the agent lock"},
	{Name: "default_region", Default: "IN", Desc: "Region used to check contact numbers without a country code"},

	// Stats cache
	{Name: "cache_backend", Default: "memory", Desc: "Stats cache backend: 'memory' or 'redis'"},
	{Name: "redis_url", Default: "", Desc: "Redis URL when cache_backend is redis (e.g., redis://localhost:6379/0)"},
	{Name: "cache_ttl", Default: "5m", Desc: "How long computed stats stay cached"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_leads", Default: "all", Desc: "Lead event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the admin user (promotes/creates on startup)"},
	{Name: "admin_password", Default: "", Desc: "Password for the admin user when it has to be created"},

	// Rate limits
	{Name: "admin_rate_limit", Default: 30, Desc: "Uploads and bulk operations allowed per admin per window"},
	{Name: "admin_rate_window", Default: "1m", Desc: "Window for admin_rate_limit"},

	// Deadlines; blank keeps the built-in default
	{Name: "timeout_ping", Default: "", Desc: "Health and connect checks (default 2s)"},
	{Name: "timeout_short", Default: "", Desc: "Single-document reads and writes (default 5s)"},
	{Name: "timeout_medium", Default: "", Desc: "Lists, stats and audit queries (default 10s)"},
	{Name: "timeout_long", Default: "", Desc: "Multi-collection writes such as agent deletes (default 30s)"},
	{Name: "timeout_batch", Default: "", Desc: "Uploads and bulk operations (default 2m)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, LEADHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "LEADHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		// Spreadsheet archive
		StorageType:      strings.ToLower(strings.TrimSpace(appValues.String("storage_type"))),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageS3Region:  appValues.String("storage_s3_region"),
		StorageS3Bucket:  appValues.String("storage_s3_bucket"),
		StorageS3Prefix:  appValues.String("storage_s3_prefix"),

		// Uploads and ingestion
		UploadMaxBytes:  int64(appValues.Int("upload_max_bytes")),
		IngestChunkSize: appValues.Int("ingest_chunk_size"),
		IngestLockTTL:   appValues.Duration("ingest_lock_ttl", ingest.DefaultLockTTL),
		DefaultRegion:   strings.ToUpper(strings.TrimSpace(appValues.String("default_region"))),

		// Stats cache
		CacheBackend: strings.ToLower(strings.TrimSpace(appValues.String("cache_backend"))),
		RedisURL:     appValues.String("redis_url"),
		CacheTTL:     appValues.Duration("cache_ttl", stats.DefaultTTL),

		// Audit logging
		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),
		AuditLogLeads: appValues.String("audit_log_leads"),

		// Admin bootstrap
		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),

		AdminRateLimit:  appValues.Int("admin_rate_limit"),
		AdminRateWindow: appValues.Duration("admin_rate_window", time.Minute),

		Timeouts: timeouts.Config{
			Ping:   appValues.Duration("timeout_ping", 0),
			Short:  appValues.Duration("timeout_short", 0),
			Medium: appValues.Duration("timeout_medium", 0),
			Long:   appValues.Duration("timeout_long", 0),
			Batch:  appValues.Duration("timeout_batch", 0),
		},
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is checked here so a typo fails before the connect attempt.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.CacheBackend {
	case "memory":
	case "redis":
		if strings.TrimSpace(appCfg.RedisURL) == "" {
			return fmt.Errorf("cache_backend redis requires redis_url to be set")
		}
	default:
		return fmt.Errorf("cache_backend must be 'memory' or 'redis', got %q", appCfg.CacheBackend)
	}

	switch appCfg.StorageType {
	case "local":
		if strings.TrimSpace(appCfg.StorageLocalPath) == "" {
			return fmt.Errorf("storage_type local requires storage_local_path to be set")
		}
	case "s3":
		if strings.TrimSpace(appCfg.StorageS3Bucket) == "" {
			return fmt.Errorf("storage_type s3 requires storage_s3_bucket to be set")
		}
	default:
		return fmt.Errorf("storage_type must be 'local' or 's3', got %q", appCfg.StorageType)
	}

	if err := appCfg.Timeouts.Validate(); err != nil {
		return err
	}

	if appCfg.IngestChunkSize <= 0 {
		return fmt.Errorf("ingest_chunk_size must be positive, got %d", appCfg.IngestChunkSize)
	}
	if appCfg.UploadMaxBytes <= 0 {
		return fmt.Errorf("upload_max_bytes must be positive, got %d", appCfg.UploadMaxBytes)
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}

	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		return fmt.Errorf("session_key must be set in production")
	}

	return nil
}
