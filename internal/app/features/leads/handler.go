// internal/app/features/leads/handler.go
package leads

import (
	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/leadops/ledger"
	"github.com/dalemusser/leadhub/internal/app/leadops/stats"
	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves lead endpoints for signed-in users. Agents see and change
// only the leads assigned to them; admins see everything.
type Handler struct {
	Ledger   *ledger.Ledger
	Leads    *leadstore.Store
	Stats    *stats.Service
	AuditLog *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(l *ledger.Ledger, st *stats.Service, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Ledger:   l,
		Leads:    l.Leads,
		Stats:    st,
		AuditLog: audit,
		Log:      logger,
		ErrLog:   errLog,
	}
}
