// Package api exposes HTTP handlers for the trainer workload service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"example.com/trainerworkload/internal/auth"
	"example.com/trainerworkload/internal/domain"
	"example.com/trainerworkload/internal/logging"
	httptransport "example.com/trainerworkload/internal/transport/http"
)

// Workload is the ledger service as seen by the HTTP handlers.
type Workload interface {
	Process(ctx context.Context, cmd domain.Command) error
	MonthlyWorkload(ctx context.Context, username string, year, month int, transactionID string) (domain.MonthlySummary, error)
}

// Option configures optional behaviour for the Handler.
type Option func(*Handler)

// WithLogger overrides the logger used by the handlers.
func WithLogger(logger logging.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithoutAuthorization disables claim and scope checks, for deployments that run without the auth middleware.
func WithoutAuthorization() Option {
	return func(h *Handler) { h.authorize = false }
}

// Handler coordinates HTTP requests with the workload service.
type Handler struct {
	service   Workload
	validate  *validator.Validate
	logger    logging.Logger
	authorize bool
}

// NewHandler builds a Handler.
func NewHandler(service Workload, opts ...Option) *Handler {
	h := &Handler{
		service:   service,
		validate:  newValidator(),
		logger:    logging.NewNoopLogger(),
		authorize: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/workload", h.processWorkload)
	mux.HandleFunc("GET /api/v1/workload/{username}/{year}/{month}", h.monthlyWorkload)
	mux.HandleFunc("GET /healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) processWorkload(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r, auth.ScopeWorkloadWrite) {
		return
	}

	var req WorkloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := h.validateRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	if !h.canAccess(w, r, req.Username) {
		return
	}

	txID := transactionID(r)
	log := h.logger.With(logging.TransactionID(txID))
	log.Info("received trainer workload request", logging.String("username", req.Username), logging.String("action", req.ActionType))

	cmd, err := req.Command(txID)
	if err != nil {
		writeFailure(w, err)
		return
	}

	// The write completes even if the caller goes away mid-request.
	if err := h.service.Process(context.WithoutCancel(r.Context()), cmd); err != nil {
		log.Error("processing trainer workload failed", logging.String("class", domain.KindOf(err).String()), logging.Err(err))
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) monthlyWorkload(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r, auth.ScopeWorkloadRead, auth.ScopeWorkloadWrite) {
		return
	}

	username := strings.TrimSpace(r.PathValue("username"))
	year, yearErr := strconv.Atoi(r.PathValue("year"))
	month, monthErr := strconv.Atoi(r.PathValue("month"))
	switch {
	case username == "":
		writeError(w, http.StatusBadRequest, "validation_failed", "username is required")
		return
	case yearErr != nil || year <= 0:
		writeError(w, http.StatusBadRequest, "validation_failed", "year must be a positive integer")
		return
	case monthErr != nil || month < 1 || month > 12:
		writeError(w, http.StatusBadRequest, "validation_failed", "month must be between 1 and 12")
		return
	}

	if !h.canAccess(w, r, username) {
		return
	}

	txID := transactionID(r)
	summary, err := h.service.MonthlyWorkload(r.Context(), username, year, month, txID)
	if err != nil {
		h.logger.Error("loading trainer workload failed",
			logging.TransactionID(txID),
			logging.String("username", username),
			logging.String("class", domain.KindOf(err).String()),
			logging.Err(err),
		)
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) authorized(w http.ResponseWriter, r *http.Request, scopes ...string) bool {
	if !h.authorize {
		return true
	}
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
	return false
}

// canAccess rejects tokens narrowed to other trainers. It runs after authorized.
func (h *Handler) canAccess(w http.ResponseWriter, r *http.Request, username string) bool {
	if !h.authorize {
		return true
	}
	claims, _ := auth.ClaimsFromContext(r.Context())
	if claims.CanAccess(username) {
		return true
	}
	writeError(w, http.StatusForbidden, "forbidden", "token does not cover trainer "+username)
	return false
}

func transactionID(r *http.Request) string {
	if id := httptransport.TransactionIDFromContext(r.Context()); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.Header.Get(httptransport.HeaderTransactionID)); id != "" {
		return id
	}
	return uuid.NewString()
}

func writeFailure(w http.ResponseWriter, err error) {
	switch domain.KindOf(err) {
	case domain.FailureValidation:
		writeError(w, http.StatusBadRequest, "validation_failed", domain.Describe(err))
	case domain.FailureInfrastructure:
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", domain.Describe(err))
	default:
		writeError(w, http.StatusInternalServerError, "server_error", domain.Describe(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
