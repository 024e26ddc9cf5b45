// internal/app/features/auditlog/handler.go
package auditlog

import (
	"time"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/store/audit"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin view of recorded audit events.
type Handler struct {
	Events *audit.Store
	Users  *userstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger

	now func() time.Time
}

// NewHandler constructs an Audit Log feature handler bound to
// the given Mongo database and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Events: audit.New(db),
		Users:  userstore.New(db),
		Log:    logger,
		ErrLog: errLog,
		now:    time.Now,
	}
}
