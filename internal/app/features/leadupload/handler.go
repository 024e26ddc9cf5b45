// internal/app/features/leadupload/handler.go
package leadupload

import (
	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/leadops/ingest"
	uploadstore "github.com/dalemusser/leadhub/internal/app/store/uploads"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"github.com/dalemusser/leadhub/internal/app/system/sheets"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

// Handler serves spreadsheet lead uploads.
type Handler struct {
	Ingest   *ingest.Service
	Uploads  *uploadstore.Store
	Files    storage.Store // archive for accepted spreadsheets
	AuditLog *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger

	MaxBytes int64 // request body cap; 0 means sheets.MaxUploadSize
	MaxRows  int
}

func NewHandler(svc *ingest.Service, uploads *uploadstore.Store, files storage.Store, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Ingest:   svc,
		Uploads:  uploads,
		Files:    files,
		AuditLog: audit,
		Log:      logger,
		ErrLog:   errLog,
		MaxBytes: sheets.MaxUploadSize,
		MaxRows:  sheets.MaxRows,
	}
}
