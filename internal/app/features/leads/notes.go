// internal/app/features/leads/notes.go
package leads

import (
	"net/http"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/features/shared/apierr"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
)

type noteRequest struct {
	Content string `json:"content" validate:"required"`
}

// HandleAddNote handles POST /leads/{id}/notes.
func (h *Handler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	by, id, ok := target(w, r, &req)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "add note")
	defer cancel()

	note, err := h.Ledger.AddNote(ctx, id, req.Content, by)
	if err != nil {
		apierr.Write(w, r, h.ErrLog, "add note", err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, note)
}

// HandleDeleteNote handles DELETE /leads/{id}/notes/{noteID}.
func (h *Handler) HandleDeleteNote(w http.ResponseWriter, r *http.Request) {
	by, id, ok := target(w, r, nil)
	if !ok {
		return
	}
	noteID, ok := apierr.ObjectIDParam(w, r, "noteID")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete note")
	defer cancel()

	if err := h.Ledger.DeleteNote(ctx, id, noteID, by); err != nil {
		apierr.Write(w, r, h.ErrLog, "delete note", err)
		return
	}
	uierrors.JSON(w, http.StatusOK, changeResponse{Changed: true, Message: "Note deleted."})
}
