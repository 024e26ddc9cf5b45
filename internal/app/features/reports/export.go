// internal/app/features/reports/export.go
package reports

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/store/audit"
	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	"github.com/dalemusser/leadhub/internal/app/system/authz"
	"github.com/dalemusser/leadhub/internal/app/system/normalize"
	"github.com/dalemusser/leadhub/internal/app/system/sheets"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeaders = []string{
	"Name", "Contact", "Email", "City", "University", "Course", "Profession", "Source",
	"Status", "Assigned To", "Last Contact", "Next Call", "Notes", "Created", "Updated",
}

// ServeExport handles GET /admin/leads/export and streams the leads that
// match ?status= and ?agent= as an .xlsx workbook.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	by, ok := authz.Actor(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	var f leadstore.Filter
	if s := normalize.QueryParam(query.Get(r, "status")); s != "" {
		if f.Status = models.CanonicalStatus(s); f.Status == "" {
			uierrors.BadRequest(w, "invalid status")
			return
		}
	}
	if a := normalize.AgentFilter(query.Get(r, "agent")); a != "" {
		id, err := primitive.ObjectIDFromHex(a)
		if err != nil {
			uierrors.BadRequest(w, "invalid agent")
			return
		}
		f.AssignedTo = &id
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "export leads")
	defer cancel()

	var leads []models.Lead
	if err := h.Leads.Each(ctx, f, func(l models.Lead) error {
		leads = append(leads, l)
		return nil
	}); err != nil {
		h.ErrLog.LogServerError(w, r, "export leads", err, "Could not export leads.")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(leads))
	for _, l := range leads {
		ids = append(ids, l.AssignedTo)
	}
	names, err := h.Users.Names(ctx, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "export agent names", err, "Could not export leads.")
		return
	}

	rows := make([][]any, 0, len(leads))
	for _, l := range leads {
		rows = append(rows, exportRow(l, names))
	}

	var buf bytes.Buffer
	if err := sheets.WriteXLSX(&buf, "Leads", exportHeaders, rows); err != nil {
		h.ErrLog.LogServerError(w, r, "write export workbook", err, "Could not export leads.")
		return
	}

	h.AuditLog.LeadsChanged(ctx, r, by.UserID, audit.EventLeadsExported, map[string]string{
		"rows":   strconv.Itoa(len(rows)),
		"status": f.Status,
	})
	h.Log.Info("leads exported", zap.Int("rows", len(rows)), zap.String("status", f.Status))

	filename := fmt.Sprintf("leads-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func exportRow(l models.Lead, names map[primitive.ObjectID]string) []any {
	notes := make([]string, 0, len(l.Notes))
	for _, n := range l.Notes {
		notes = append(notes, n.CreatedAt.Format("2006-01-02")+": "+n.Content)
	}
	return []any{
		l.Name, l.Contact, l.Email, l.City, l.University, l.Course, l.Profession, l.Source,
		l.Status, names[l.AssignedTo], optionalTime(l.LastContactDate), optionalTime(l.NextCallAt),
		strings.Join(notes, "\n"), l.CreatedAt, l.UpdatedAt,
	}
}

func optionalTime(t *time.Time) any {
	if t == nil {
		return ""
	}
	return *t
}
