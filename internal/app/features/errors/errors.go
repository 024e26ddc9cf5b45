// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error string `json:"error"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Write sends {"error": msg} with the given status.
func Write(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Body{Error: msg})
}

// BadRequest sends a 400 with msg.
func BadRequest(w http.ResponseWriter, msg string) { Write(w, http.StatusBadRequest, msg) }

// Unauthorized sends a 401.
func Unauthorized(w http.ResponseWriter) { Write(w, http.StatusUnauthorized, "sign in required") }

// Forbidden sends a 403 with msg.
func Forbidden(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "forbidden"
	}
	Write(w, http.StatusForbidden, msg)
}

// NotFound sends a 404 with msg.
func NotFound(w http.ResponseWriter, msg string) { Write(w, http.StatusNotFound, msg) }

// Conflict sends a 409 with msg.
func Conflict(w http.ResponseWriter, msg string) { Write(w, http.StatusConflict, msg) }

// TooManyRequests sends a 429.
func TooManyRequests(w http.ResponseWriter, _ *http.Request) {
	Write(w, http.StatusTooManyRequests, "too many requests; try again shortly")
}

// Handler serves router-level fallbacks.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is the router's 404 handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	NotFound(w, "no route for "+r.Method+" "+r.URL.Path)
}

// MethodNotAllowed is the router's 405 handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusMethodNotAllowed, "method not allowed")
}

// ErrorLogger logs the cause of failed requests before answering.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger.
func NewErrorLogger(log *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: log}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	}
}

// LogServerError logs msg with err at error level and sends a 500 whose
// body carries userMsg, never err.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Error(msg, e.fields(r, err)...)
	Write(w, http.StatusInternalServerError, userMsg)
}

// LogBadRequest logs msg with err at warn level and sends a 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Warn(msg, e.fields(r, err)...)
	Write(w, http.StatusBadRequest, userMsg)
}

// LogForbidden logs msg at warn level and sends a 403 with userMsg.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, msg string, userMsg string) {
	e.log.Warn(msg,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
	Forbidden(w, userMsg)
}
