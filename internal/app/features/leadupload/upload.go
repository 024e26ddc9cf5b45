// internal/app/features/leadupload/upload.go
package leadupload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/features/shared/apierr"
	"github.com/dalemusser/leadhub/internal/app/leadops/ingest"
	"github.com/dalemusser/leadhub/internal/app/store/audit"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"github.com/dalemusser/leadhub/internal/app/system/authz"
	"github.com/dalemusser/leadhub/internal/app/system/fieldmap"
	"github.com/dalemusser/leadhub/internal/app/system/filestore"
	"github.com/dalemusser/leadhub/internal/app/system/sheets"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	// multipartMemory is how much of a multipart body is kept in memory
	// before spilling to temp files.
	multipartMemory = 32 << 20
	// formOverhead allows for multipart boundaries and the other form fields.
	formOverhead = 1 << 20
)

type uploadResponse struct {
	ingest.Result
	UploadID string `json:"upload_id,omitempty"`
	FileName string `json:"file_name"`
}

type previewResponse struct {
	FileName string           `json:"file_name"`
	Rows     int              `json:"rows"`
	Headers  fieldmap.Summary `json:"headers"`
}

// HandleUpload handles POST /admin/upload-leads.
//
// Form fields: file (.xlsx or .csv), agent_ids (comma-separated or
// repeated, in round-robin order), dedup_mode (default "skip").
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	by, ok := authz.Actor(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	name, data, ok := h.readFile(w, r)
	if !ok {
		return
	}
	mode, err := ingest.NormalizeDedupMode(r.FormValue("dedup_mode"))
	if err != nil {
		uierrors.BadRequest(w, err.Error())
		return
	}
	agentIDs := splitIDs(r.MultipartForm.Value["agent_ids"])

	sheet, err := sheets.ParseBytes(name, data, sheets.Options{MaxRows: h.MaxRows})
	if err != nil {
		h.parseError(w, r, err)
		return
	}

	res, err := h.Ingest.Run(r.Context(), ingest.Request{
		Headers:   sheet.Headers,
		Rows:      sheet.Rows,
		AgentIDs:  agentIDs,
		DedupMode: mode,
		By:        by,
	})
	if err != nil {
		apierr.Write(w, r, h.ErrLog, "ingest leads", err)
		return
	}

	// Leads are saved at this point; archive and record failures are only logged.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Medium())
	defer cancel()

	var stored string
	if info, err := filestore.Save(ctx, h.Files, name, data, time.Now()); err != nil {
		h.Log.Warn("archive uploaded spreadsheet", zap.String("file", name), zap.Error(err))
	} else {
		stored = info.Path
	}
	upload, err := h.Uploads.Create(ctx, models.Upload{
		FileName:   name,
		StoredPath: stored,
		UploadedBy: by.UserID,
		AgentIDs:   objectIDs(agentIDs),
		DedupMode:  mode,
		TotalRows:  res.TotalRows,
		Inserted:   res.Inserted,
		Duplicates: res.Duplicates,
		Failed:     res.Failed,
	})
	if err != nil {
		h.Log.Warn("record upload", zap.String("file", name), zap.Error(err))
	}

	details := auditlog.Counts(map[string]int64{
		"total_rows": int64(res.TotalRows),
		"inserted":   int64(res.Inserted),
		"duplicates": int64(res.Duplicates),
		"failed":     int64(res.Failed),
	})
	details["file"] = name
	details["stored_path"] = stored
	details["agents"] = strconv.Itoa(len(agentIDs))
	h.AuditLog.LeadsChanged(ctx, r, by.UserID, audit.EventLeadsUploaded, details)

	resp := uploadResponse{Result: res, FileName: name}
	if !upload.ID.IsZero() {
		resp.UploadID = upload.ID.Hex()
	}
	uierrors.JSON(w, http.StatusOK, resp)
}

// HandlePreview handles POST /admin/upload-leads/preview. It parses the file
// and reports how its headers map to lead fields without saving anything.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	name, data, ok := h.readFile(w, r)
	if !ok {
		return
	}
	sheet, err := sheets.ParseBytes(name, data, sheets.Options{MaxRows: h.MaxRows})
	if err != nil {
		h.parseError(w, r, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, previewResponse{
		FileName: name,
		Rows:     len(sheet.Rows),
		Headers:  h.Ingest.Preview(sheet.Headers),
	})
}

// readFile parses the multipart form and returns the "file" part. It
// answers the request itself when it returns false.
func (h *Handler) readFile(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	limit := h.MaxBytes
	if limit <= 0 {
		limit = sheets.MaxUploadSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			uierrors.Write(w, http.StatusRequestEntityTooLarge, filestore.ErrTooLarge.Error())
			return "", nil, false
		}
		uierrors.BadRequest(w, "expected a multipart form with a file field")
		return "", nil, false
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		uierrors.BadRequest(w, "file is required")
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "read uploaded file", err, "Could not read the uploaded file.")
		return "", nil, false
	}
	if int64(len(data)) > limit {
		uierrors.Write(w, http.StatusRequestEntityTooLarge, filestore.ErrTooLarge.Error())
		return "", nil, false
	}
	return hdr.Filename, data, true
}

func (h *Handler) parseError(w http.ResponseWriter, r *http.Request, err error) {
	if apierr.Status(err) == http.StatusBadRequest {
		uierrors.BadRequest(w, err.Error())
		return
	}
	h.ErrLog.LogBadRequest(w, r, "parse spreadsheet", err, "Could not read the spreadsheet. Check that it is a valid .xlsx or .csv file.")
}

// splitIDs flattens repeated and comma-separated agent_ids values,
// keeping their order.
func splitIDs(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func objectIDs(hexes []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(hexes))
	seen := make(map[primitive.ObjectID]bool, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
