package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Body {
	t.Helper()
	var b Body
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return b
}

func TestWriteHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		msg    string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "agent_ids is required") }, 400, "agent_ids is required"},
		{"unauthorized", Unauthorized, 401, "sign in required"},
		{"forbidden default", func(w http.ResponseWriter) { Forbidden(w, "") }, 403, "forbidden"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "lead not found") }, 404, "lead not found"},
		{"conflict", func(w http.ResponseWriter) { Conflict(w, "busy") }, 409, "busy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
			if got := decode(t, rec).Error; got != tt.msg {
				t.Errorf("error = %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestErrorLogger_LogServerError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	el := NewErrorLogger(zap.New(core))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/admin/bulk-delete-leads", nil)
	el.LogServerError(rec, req, "delete leads failed", fmt.Errorf("connection reset"), "Unable to delete leads.")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if got := decode(t, rec).Error; got != "Unable to delete leads." {
		t.Errorf("error = %q; internal cause must not leak", got)
	}
	entries := logs.FilterMessage("delete leads failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["path"] != "/admin/bulk-delete-leads" {
		t.Errorf("path field = %v", entries[0].ContextMap()["path"])
	}
}

func TestHandler_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler().NotFound(rec, httptest.NewRequest("GET", "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
