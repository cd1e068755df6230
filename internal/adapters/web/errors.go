package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"procurement/internal/app"
	"procurement/internal/core"
)

type errorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, errorResponse{Error: message, Code: code}, status)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, resp errorResponse, status int) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeCreated writes a JSON response with status 201.
func writeCreated(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(v)
}

// retryAfterSeconds is advertised on 503 responses caused by lock contention.
const retryAfterSeconds = 1

// writeServiceError maps the engine's error taxonomy onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *core.ValidationError
		nf  *core.NotFoundError
		ise *core.InvalidStateError
		ce  *core.ConflictError
		cc  *core.ConcurrencyError
	)
	switch {
	case errors.As(err, &ve):
		resp := errorResponse{Error: ve.Error(), Code: "VALIDATION_FAILED"}
		if ve.Field != "" {
			resp.Fields = map[string]string{ve.Field: ve.Message}
		}
		writeErrorResponse(w, r, resp, http.StatusBadRequest)
	case errors.As(err, &nf):
		writeError(w, r, nf.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &ise):
		writeError(w, r, ise.Error(), "INVALID_STATE", http.StatusConflict)
	case errors.As(err, &ce):
		writeError(w, r, ce.Error(), "CONFLICT", http.StatusConflict)
	case errors.As(err, &cc):
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		writeError(w, r, cc.Error(), "BUSY", http.StatusServiceUnavailable)
	case errors.Is(err, app.ErrAssistantDisabled):
		writeError(w, r, err.Error(), "NOT_CONFIGURED", http.StatusServiceUnavailable)
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeValidationErrors reports struct tag failures field by field.
func writeValidationErrors(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, r, err.Error(), "VALIDATION_FAILED", http.StatusBadRequest)
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// Namespace is prefixed with the body's type name.
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		fields[field] = fe.Tag()
	}
	writeErrorResponse(w, r, errorResponse{
		Error:  "request validation failed",
		Code:   "VALIDATION_FAILED",
		Fields: fields,
	}, http.StatusBadRequest)
}
