// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, logging and request limits; everything below belongs to
// LeadHub.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: leadhub-session)
	SessionDomain string // Cookie domain (blank means current host)
	SessionMaxAge time.Duration

	// Archive for accepted spreadsheets
	StorageType      string // "local" or "s3"
	StorageLocalPath string // base directory when StorageType is "local"
	StorageS3Region  string
	StorageS3Bucket  string
	StorageS3Prefix  string

	// Lead uploads
	UploadMaxBytes  int64
	IngestChunkSize int
	IngestLockTTL   time.Duration
	DefaultRegion   string // phone number region for contact checks (e.g., IN, US)

	// Stats cache
	CacheBackend string // "memory" or "redis"
	RedisURL     string
	CacheTTL     time.Duration

	// Audit logging: "all", "db", "log" or "off" per category
	AuditLogAuth  string
	AuditLogAdmin string
	AuditLogLeads string

	// Bootstrap admin, created or promoted on startup when AdminEmail is set
	AdminEmail    string
	AdminPassword string

	// Rate limits for uploads and bulk operations, per signed-in admin
	AdminRateLimit  int
	AdminRateWindow time.Duration

	// Handler and operation deadlines; zero keeps the default
	Timeouts timeouts.Config
}
