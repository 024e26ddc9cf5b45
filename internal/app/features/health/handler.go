// internal/app/features/health/handler.go
package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/leadhub/internal/app/system/cache"
	"github.com/dalemusser/leadhub/internal/app/system/ingestlock"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Cache  cache.Cache
	Locks  *ingestlock.Locker
	Log    *zap.Logger
}

// NewHandler constructs a health Handler. cache and locks may be nil.
func NewHandler(client *mongo.Client, c cache.Cache, locks *ingestlock.Locker, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Cache:  c,
		Locks:  locks,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Cache     string `json:"cache,omitempty"`
	Ingestion string `json:"ingestion,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "cache":"ok", "ingestion":"idle" }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
//
// A cache failure is reported as "degraded" with 200; reads fall back to
// the database.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Cache != nil {
		resp.Cache = "ok"
		if _, _, err := h.Cache.Get(ctx, "health:ping"); err != nil {
			h.Log.Warn("health-check: cache read failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Cache = "unavailable"
		}
	}

	if h.Locks != nil {
		resp.Ingestion = "idle"
		owner, err := h.Locks.Holder(ctx, ingestlock.LeadIngestion)
		switch {
		case err != nil:
			resp.Ingestion = "unknown"
		case owner != "":
			resp.Ingestion = "running"
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
