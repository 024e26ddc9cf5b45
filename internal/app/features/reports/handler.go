// internal/app/features/reports/handler.go
package reports

import (
	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/leadops/stats"
	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler owns the admin dashboard stats and the lead export.
type Handler struct {
	Stats    *stats.Service
	Leads    *leadstore.Store
	Users    *userstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs a reports Handler.
func NewHandler(st *stats.Service, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Stats:    st,
		Leads:    st.Leads,
		Users:    st.Users,
		AuditLog: audit,
		Log:      logger,
		ErrLog:   errLog,
	}
}
