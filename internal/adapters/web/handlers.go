package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"procurement/internal/app"
	"procurement/internal/core"
)

// Options configures the HTTP surface.
type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	MaxBodyBytes   int64 // defaults to 1 MB
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
	validate  *validator.Validate
	log       *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}

	h := &Handler{
		svc:       svc,
		jwtSecret: opts.JWTSecret,
		validate:  newValidator(),
		log:       log,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(opts.AllowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(opts.MaxBodyBytes))

		r.Get("/api/auth/me", h.me)

		// ── Requisitions ──────────────────────────────────────────────────────
		r.Get("/api/requisitions", h.apiListRequisitions)
		r.Post("/api/requisitions", h.apiCreateRequisition)
		r.Get("/api/requisitions/{id}", h.apiGetRequisition)
		r.Delete("/api/requisitions/{id}", h.apiDeleteRequisition)
		r.Post("/api/requisitions/{id}/submit", h.apiSubmitRequisition)
		r.Post("/api/requisitions/{id}/approve", h.apiApproveRequisition)
		r.Post("/api/requisitions/{id}/reject", h.apiRejectRequisition)
		r.Post("/api/requisitions/{id}/derive-po", h.apiDeriveOrder)

		// ── Purchase orders ───────────────────────────────────────────────────
		r.Get("/api/purchase-orders", h.apiListPurchaseOrders)
		r.Post("/api/purchase-orders", h.apiCreatePurchaseOrder)
		r.Get("/api/purchase-orders/{id}", h.apiGetPurchaseOrder)
		r.Put("/api/purchase-orders/{id}", h.apiUpdatePurchaseOrder)
		r.Delete("/api/purchase-orders/{id}", h.apiDeletePurchaseOrder)
		r.Post("/api/purchase-orders/{id}/issue", h.apiIssuePurchaseOrder)
		r.Post("/api/purchase-orders/{id}/confirm", h.apiConfirmPurchaseOrder)
		r.Post("/api/purchase-orders/{id}/process", h.apiProcessPurchaseOrder)
		r.Post("/api/purchase-orders/{id}/cancel", h.apiCancelPurchaseOrder)
		r.Post("/api/purchase-orders/{id}/receive", h.apiReceivePurchaseOrder)
		r.Get("/api/purchase-orders/{id}/receipts", h.apiListReceipts)

		// ── Reports ───────────────────────────────────────────────────────────
		r.Get("/api/reports/spend", h.apiSpendReport)

		// ── Assistant ─────────────────────────────────────────────────────────
		r.Post("/api/assistant/requisition-draft", h.apiDraftRequisition)
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors and for
// struct validation failures.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeValidationErrors(w, r, err)
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func (h *Handler) decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	return h.decodeJSON(w, r, v)
}

// pathID extracts the {id} URL parameter, writing 400 when it is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

// actor returns the caller injected by RequireAuth. A missing actor is rejected by the engine.
func actor(r *http.Request) core.Actor {
	a, _ := actorFromContext(r.Context())
	return a
}

// optionalDecimal parses s, treating an empty string as zero.
func optionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
