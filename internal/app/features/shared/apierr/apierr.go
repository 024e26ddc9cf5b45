// internal/app/features/shared/apierr/apierr.go
package apierr

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/leadops/agents"
	"github.com/dalemusser/leadhub/internal/app/leadops/bulk"
	"github.com/dalemusser/leadhub/internal/app/leadops/ingest"
	"github.com/dalemusser/leadhub/internal/app/leadops/ledger"
	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/filestore"
	"github.com/dalemusser/leadhub/internal/app/system/reqval"
	"github.com/dalemusser/leadhub/internal/app/system/sheets"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var badRequest = []error{
	reqval.ErrEmptyBody,
	ingest.ErrUnsupportedDedupMode,
	ingest.ErrNoAgents,
	ingest.ErrInvalidAgents,
	bulk.ErrEmptyIDs,
	bulk.ErrTooManyIDs,
	bulk.ErrInvalidID,
	bulk.ErrInvalidStatus,
	bulk.ErrInvalidAgent,
	bulk.ErrNothingToUpdate,
	ledger.ErrInvalidStatus,
	ledger.ErrInvalidAgent,
	ledger.ErrEmptyNote,
	ledger.ErrNothingToUpdate,
	agents.ErrNotAgent,
	sheets.ErrUnsupportedType,
	sheets.ErrNoHeader,
	sheets.ErrTooManyRows,
}

var conflict = []error{
	ingest.ErrIngestionBusy,
	ledger.ErrDuplicateLead,
	leadstore.ErrConflict,
	userstore.ErrDuplicateEmail,
}

var notFound = []error{
	leadstore.ErrNotFound,
	userstore.ErrNotFound,
	ledger.ErrNoteNotFound,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// Status maps a lead operation error to its HTTP status. Unknown errors
// map to 500.
func Status(err error) int {
	var verr *reqval.Error
	switch {
	case errors.As(err, &verr), isAny(err, badRequest):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrForbidden):
		return http.StatusForbidden
	case isAny(err, notFound):
		return http.StatusNotFound
	case errors.Is(err, agents.ErrHasLeads), isAny(err, conflict):
		return http.StatusConflict
	case errors.Is(err, filestore.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

type assignedBody struct {
	Error         string `json:"error"`
	AssignedLeads int64  `json:"assigned_leads"`
}

// Write answers with err mapped through Status. Server errors are logged
// with msg and never expose err to the client.
func Write(w http.ResponseWriter, r *http.Request, errLog *uierrors.ErrorLogger, msg string, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		errLog.LogServerError(w, r, msg, err, "Something went wrong. Please try again.")
		return
	}
	var assigned *agents.AssignedError
	if errors.As(err, &assigned) {
		uierrors.JSON(w, status, assignedBody{Error: err.Error(), AssignedLeads: assigned.Count})
		return
	}
	uierrors.Write(w, status, err.Error())
}

// ObjectIDParam reads a chi URL parameter as an ObjectID. On failure it
// writes a 400 and returns false.
func ObjectIDParam(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		uierrors.BadRequest(w, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}
