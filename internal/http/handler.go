package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/davidbz/turnstile/internal/domain"
	"github.com/davidbz/turnstile/internal/observability"
)

// maxRequestBodyBytes caps the inbound payload forwarded upstream.
const maxRequestBodyBytes = 8 << 20

// Handler handles HTTP requests.
type Handler struct {
	meter *domain.MeterService
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(meter *domain.MeterService) *Handler {
	return &Handler{
		meter: meter,
	}
}

// errorResponse is the JSON body returned for every failed call.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// HandleCompletion processes one metered completion request.
func (h *Handler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	result, err := h.meter.HandleCompletion(ctx, r.Header.Get("Authorization"), body)
	if err != nil {
		status := statusForError(err)
		logger.Error("completion request failed",
			zap.Int("status", status),
			zap.Error(err),
		)
		writeError(w, status, err)
		return
	}

	// Upstream body is passed through verbatim.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, writeErr := w.Write(result.Body); writeErr != nil {
		logger.Error("failed to write response", zap.Error(writeErr))
	}
}

// statusForError maps each domain error kind to a distinct status code, so a
// failing upstream or store is never reported as an authentication problem.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrUpstreamFailure):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrPersistenceFailure):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func messageForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "authentication failed"
	case http.StatusPaymentRequired:
		return "insufficient balance"
	case http.StatusBadGateway:
		return "upstream call failed"
	default:
		return "internal error"
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Message: messageForStatus(status),
		Error:   err.Error(),
	})
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		// Already written status, can't change it, just log.
		return
	}
}
