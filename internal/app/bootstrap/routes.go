// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	agentsfeature "github.com/dalemusser/leadhub/internal/app/features/agents"
	auditlogfeature "github.com/dalemusser/leadhub/internal/app/features/auditlog"
	bulkleadsfeature "github.com/dalemusser/leadhub/internal/app/features/bulkleads"
	errorsfeature "github.com/dalemusser/leadhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/leadhub/internal/app/features/health"
	leadsfeature "github.com/dalemusser/leadhub/internal/app/features/leads"
	leaduploadfeature "github.com/dalemusser/leadhub/internal/app/features/leadupload"
	loginfeature "github.com/dalemusser/leadhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/leadhub/internal/app/features/logout"
	reportsfeature "github.com/dalemusser/leadhub/internal/app/features/reports"
	userinfofeature "github.com/dalemusser/leadhub/internal/app/features/userinfo"
	agentops "github.com/dalemusser/leadhub/internal/app/leadops/agents"
	"github.com/dalemusser/leadhub/internal/app/leadops/bulk"
	"github.com/dalemusser/leadhub/internal/app/leadops/ingest"
	"github.com/dalemusser/leadhub/internal/app/leadops/ledger"
	"github.com/dalemusser/leadhub/internal/app/leadops/stats"
	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	uploadstore "github.com/dalemusser/leadhub/internal/app/store/uploads"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/app/system/contact"
	"github.com/dalemusser/leadhub/internal/app/system/metrics"
	"github.com/dalemusser/leadhub/internal/app/system/ratelimit"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. The router serves JSON only: login and logout,
// the admin surface under /admin (uploads, bulk operations, stats, export,
// agents), the signed-in /leads surface, and /health plus /metrics.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	b := deps.backends
	if b == nil || b.cache == nil || b.files == nil {
		return nil, errors.New("build handler: Startup has not initialized the backends")
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Refresh the user on every request so role changes and deleted agents
	// take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	errLog := errorsfeature.NewErrorLogger(logger)
	db := deps.MongoDatabase

	// Shared stores and services.
	leads := leadstore.New(db)
	users := userstore.New(db)

	ingestSvc := ingest.New(leads, users, b.locks, b.cache, logger)
	ingestSvc.ChunkSize = appCfg.IngestChunkSize
	ingestSvc.LockTTL = appCfg.IngestLockTTL
	ingestSvc.Contacts = contact.NewChecker(appCfg.DefaultRegion)

	engine := bulk.New(leads, users, b.cache, logger)
	ledgerSvc := ledger.New(leads, users, b.cache, logger)
	agentSvc := agentops.New(db, users, leads, b.cache, logger)
	statsSvc := stats.New(leads, users, b.cache, appCfg.CacheTTL)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, b.cache, b.locks, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, b.audit, nil, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, b.audit, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

	// Admin surface
	uploadHandler := leaduploadfeature.NewHandler(ingestSvc, uploadstore.New(db), b.files, b.audit, errLog, logger)
	uploadHandler.MaxBytes = appCfg.UploadMaxBytes

	bulkHandler := bulkleadsfeature.NewHandler(engine, b.audit, errLog, logger)
	reportsHandler := reportsfeature.NewHandler(statsSvc, b.audit, errLog, logger)
	agentsHandler := agentsfeature.NewHandler(agentSvc, b.audit, errLog, logger)
	auditHandler := auditlogfeature.NewHandler(db, errLog, logger)

	heavy := ratelimit.PerUser(
		ratelimit.New(appCfg.AdminRateLimit, appCfg.AdminRateWindow),
		sessionUserKey,
		errorsfeature.TooManyRequests,
	)

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(sessionMgr.RequireRole(models.RoleAdmin))

		ar.Mount("/upload-leads", heavy(leaduploadfeature.Routes(uploadHandler)))
		ar.Group(func(gr chi.Router) {
			gr.Use(heavy)
			bulkleadsfeature.MountRoutes(gr, bulkHandler)
		})
		reportsfeature.MountRoutes(ar, reportsHandler)
		ar.Mount("/agents", agentsfeature.Routes(agentsHandler))
		ar.Mount("/audit", auditlogfeature.Routes(auditHandler))
	})

	// Leads for signed-in admins and agents
	leadsHandler := leadsfeature.NewHandler(ledgerSvc, statsSvc, b.audit, errLog, logger)
	r.Mount("/leads", leadsfeature.Routes(leadsHandler, sessionMgr))

	logger.Info("router built",
		zap.String("cache_backend", appCfg.CacheBackend),
		zap.Int("admin_rate_limit", appCfg.AdminRateLimit),
		zap.Duration("admin_rate_window", appCfg.AdminRateWindow))

	return r, nil
}

// sessionUserKey keys the admin rate limiter by signed-in user.
func sessionUserKey(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return "user:" + u.ID
	}
	return ""
}
