// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/leadhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
// Each value is "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), or "off".
type Config struct {
	// Auth controls logging for login and logout events.
	Auth string
	// Admin controls logging for agent management events.
	Admin string
	// Leads controls logging for uploads, bulk operations, deletes and exports.
	Leads string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	// Check X-Forwarded-For header first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.UserAgent()
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	case audit.CategoryLeads:
		setting = l.config.Leads
	default:
		setting = "all"
	}

	if setting == "off" || setting == "" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailedUserNotFound logs a failed login due to user not found.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		Success:       false,
		FailureReason: "user not found",
		Details:       map[string]string{"attempted_email": attemptedEmail},
	})
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		Success:       false,
		FailureReason: "wrong password",
		Details:       map[string]string{"email": email},
	})
}

// LoginFailedRateLimit logs a login refused by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		Success:       false,
		FailureReason: "rate limit exceeded",
		Details:       map[string]string{"email": email},
	})
}

// Logout logs a user logout.
// Accepts the string ID from SessionUser and converts it to an ObjectID.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	var userID *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		userID = &oid
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
	})
}

// --- Admin Events ---

// AgentCreated logs when an admin creates a user account.
func (l *Logger) AgentCreated(ctx context.Context, r *http.Request, actorID, targetUserID primitive.ObjectID, role string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventAgentCreated,
		UserID:    &targetUserID,
		ActorID:   &actorID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"role": role},
	})
}

// AgentDeleted logs when an admin deletes a user account.
func (l *Logger) AgentDeleted(ctx context.Context, r *http.Request, actorID, targetUserID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventAgentDeleted,
		UserID:    &targetUserID,
		ActorID:   &actorID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// AgentDeleteBlocked logs a delete refused because leads still reference the agent.
func (l *Logger) AgentDeleteBlocked(ctx context.Context, r *http.Request, actorID, targetUserID primitive.ObjectID, assigned int64) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventAgentDeleteBlocked,
		UserID:        &targetUserID,
		ActorID:       &actorID,
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		Success:       false,
		FailureReason: "agent has assigned leads",
		Details:       map[string]string{"assigned_leads": strconv.FormatInt(assigned, 10)},
	})
}

// AdminBootstrapped logs creation of the initial admin account at startup.
func (l *Logger) AdminBootstrapped(ctx context.Context, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventAdminBootstrapped,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// --- Lead Events ---

// LeadsChanged logs an upload, bulk operation, delete or export performed
// by actorID. details carries the operation's counts.
func (l *Logger) LeadsChanged(ctx context.Context, r *http.Request, actorID primitive.ObjectID, eventType string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryLeads,
		EventType: eventType,
		ActorID:   &actorID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   details,
	})
}

// Counts renders integer counts as audit details.
func Counts(kv map[string]int64) map[string]string {
	out := make(map[string]string, len(kv))
	for k, v := range kv {
		out[k] = strconv.FormatInt(v, 10)
	}
	return out
}
