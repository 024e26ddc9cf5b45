package leadupload_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/features/leadupload"
	"github.com/dalemusser/leadhub/internal/app/leadops/ingest"
	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	uploadstore "github.com/dalemusser/leadhub/internal/app/store/uploads"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/cache"
	"github.com/dalemusser/leadhub/internal/app/system/ingestlock"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/leadhub/internal/testutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

type env struct {
	h       *leadupload.Handler
	uploads *uploadstore.Store
	files   *storage.Memory
	admin   models.User
	agentA  models.User
	agentB  models.User
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	logger := zap.NewNop()
	fx := testutil.NewFixtures(t, db)
	svc := ingest.New(leadstore.New(db), userstore.New(db), ingestlock.New(db), cache.NewMemory(), logger)
	uploads := uploadstore.New(db)
	files := storage.NewMemory(storage.MemoryConfig{})

	return &env{
		h:       leadupload.NewHandler(svc, uploads, files, nil, uierrors.NewErrorLogger(logger), logger),
		uploads: uploads,
		files:   files,
		admin:   fx.CreateAdmin(ctx, "Admin", "admin@example.com"),
		agentA:  fx.CreateAgent(ctx, "Asha", "asha@example.com"),
		agentB:  fx.CreateAgent(ctx, "Bilal", "bilal@example.com"),
	}
}

const leadsCSV = "Full Name,Mobile,Email,Favourite Colour\n" +
	"Ravi,98765 43210,ravi@example.com,blue\n" +
	"Meera,9876500001,meera@example.com,red\n" +
	"Ravi Again,9999900000, RAVI@example.com ,green\n"

func multipartRequest(t *testing.T, target, filename, content string, fields map[string][]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write([]byte(content))
	}
	for k, vs := range fields {
		for _, v := range vs {
			mw.WriteField(k, v)
		}
	}
	mw.Close()

	req := httptest.NewRequest("POST", target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleUpload(t *testing.T) {
	e := setup(t)

	req := multipartRequest(t, "/admin/upload-leads", "leads.csv", leadsCSV, map[string][]string{
		"agent_ids": {e.agentA.ID.Hex() + ", " + e.agentB.ID.Hex()},
	})
	req = testutil.WithUser(req, testutil.AsTestUser(e.admin))
	rec := testutil.NewRecorder()

	e.h.HandleUpload(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		TotalRows    int            `json:"total_rows"`
		Inserted     int            `json:"inserted"`
		Duplicates   int            `json:"duplicates"`
		Distribution map[string]int `json:"distribution"`
		UploadID     string         `json:"upload_id"`
		Message      string         `json:"message"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.TotalRows != 3 || resp.Inserted != 2 || resp.Duplicates != 1 {
		t.Fatalf("counts = %+v", resp)
	}
	if resp.Distribution["Asha <asha@example.com>"] != 1 || resp.Distribution["Bilal <bilal@example.com>"] != 1 {
		t.Errorf("distribution = %v", resp.Distribution)
	}
	if resp.UploadID == "" || resp.Message == "" {
		t.Errorf("missing upload id or message: %+v", resp)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	recent, err := e.uploads.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Inserted != 2 || !strings.HasPrefix(recent[0].StoredPath, "uploads/") {
		t.Errorf("upload record = %+v", recent)
	}
	if len(recent[0].AgentIDs) != 2 {
		t.Errorf("AgentIDs = %v", recent[0].AgentIDs)
	}

	archived, err := e.files.GetBytes(ctx, recent[0].StoredPath)
	if err != nil {
		t.Fatalf("archived spreadsheet: %v", err)
	}
	if string(archived) != leadsCSV {
		t.Errorf("archived content = %q", archived)
	}
}

// agent_ids may arrive as repeated form fields; naming an agent twice is
// rejected before anything is written.
func TestHandleUpload_RepeatedAgentIDs(t *testing.T) {
	e := setup(t)

	req := multipartRequest(t, "/admin/upload-leads", "leads.csv", leadsCSV, map[string][]string{
		"agent_ids":  {e.agentA.ID.Hex(), e.agentB.ID.Hex()},
		"dedup_mode": {"SKIP"},
	})
	rec := testutil.NewRecorder()
	e.h.HandleUpload(rec, testutil.WithUser(req, testutil.AsTestUser(e.admin)))
	rec.AssertStatus(t, http.StatusOK)

	a := e.agentA.ID.Hex()
	req = multipartRequest(t, "/admin/upload-leads", "leads.csv", leadsCSV, map[string][]string{
		"agent_ids": {a, e.agentB.ID.Hex() + "," + a},
	})
	rec = testutil.NewRecorder()
	e.h.HandleUpload(rec, testutil.WithUser(req, testutil.AsTestUser(e.admin)))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "agents listed more than once: "+a)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	recent, err := e.uploads.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("uploads recorded = %d, want only the accepted one", len(recent))
	}
}

func TestHandleUpload_Rejections(t *testing.T) {
	e := setup(t)
	agents := e.agentA.ID.Hex()

	tests := []struct {
		name     string
		filename string
		content  string
		fields   map[string][]string
		want     int
	}{
		{"no file", "", "", map[string][]string{"agent_ids": {agents}}, http.StatusBadRequest},
		{"no agents", "leads.csv", leadsCSV, nil, http.StatusBadRequest},
		{"unknown agent", "leads.csv", leadsCSV, map[string][]string{"agent_ids": {e.admin.ID.Hex()}}, http.StatusBadRequest},
		{"reassign mode", "leads.csv", leadsCSV, map[string][]string{"agent_ids": {agents}, "dedup_mode": {"reassign"}}, http.StatusBadRequest},
		{"pdf", "leads.pdf", "%PDF-1.4", map[string][]string{"agent_ids": {agents}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, "/admin/upload-leads", tt.filename, tt.content, tt.fields)
			rec := testutil.NewRecorder()
			e.h.HandleUpload(rec, testutil.WithUser(req, testutil.AsTestUser(e.admin)))
			rec.AssertStatus(t, tt.want)
		})
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	recent, _ := e.uploads.Recent(ctx, 5)
	if len(recent) != 0 {
		t.Errorf("rejected uploads were recorded: %+v", recent)
	}
}

func TestHandleUpload_TooLarge(t *testing.T) {
	e := setup(t)
	e.h.MaxBytes = 64

	req := multipartRequest(t, "/admin/upload-leads", "leads.csv", leadsCSV+strings.Repeat("x,1,x@example.com,y\n", 10), map[string][]string{
		"agent_ids": {e.agentA.ID.Hex()},
	})
	rec := testutil.NewRecorder()
	e.h.HandleUpload(rec, testutil.WithUser(req, testutil.AsTestUser(e.admin)))
	rec.AssertStatus(t, http.StatusRequestEntityTooLarge)
}

func TestHandlePreview(t *testing.T) {
	e := setup(t)

	req := multipartRequest(t, "/admin/upload-leads/preview", "leads.csv", leadsCSV, nil)
	rec := testutil.NewRecorder()
	e.h.HandlePreview(rec, testutil.WithUser(req, testutil.AsTestUser(e.admin)))
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Rows    int `json:"rows"`
		Headers struct {
			Recognized   map[string]string `json:"recognized"`
			Unrecognized []string          `json:"unrecognized"`
		} `json:"headers"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.Rows != 3 {
		t.Errorf("rows = %d, want 3", resp.Rows)
	}
	if resp.Headers.Recognized["Mobile"] != "contact" {
		t.Errorf("recognized = %v", resp.Headers.Recognized)
	}
	if len(resp.Headers.Unrecognized) != 1 || resp.Headers.Unrecognized[0] != "Favourite Colour" {
		t.Errorf("unrecognized = %v", resp.Headers.Unrecognized)
	}
}
