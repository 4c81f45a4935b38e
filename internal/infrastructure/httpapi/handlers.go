package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"proofdrop-scorer/internal/domain/entity"
	"proofdrop-scorer/internal/domain/service"
	"proofdrop-scorer/internal/infrastructure/blockchain"
	"proofdrop-scorer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

const (
	transportHTTP = "http"

	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
)

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) bool

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string          `json:"status"`
	Checks map[string]bool `json:"checks,omitempty"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// BadgesResponse lists the badge ladder, highest tier first
type BadgesResponse struct {
	Badges []entity.BadgeTier `json:"badges"`
}

// Handlers serves the scorer endpoints
type Handlers struct {
	scorer       service.ReputationService
	observer     RequestObserver
	checks       map[string]HealthCheck
	maxBodyBytes int64
	logger       *logger.Logger
}

// NewHandlers creates the handler set. observer and checks may be nil.
func NewHandlers(
	scorer service.ReputationService,
	observer RequestObserver,
	checks map[string]HealthCheck,
	maxBodyBytes int64,
	log *logger.Logger,
) *Handlers {
	return &Handlers{
		scorer:       scorer,
		observer:     observer,
		checks:       checks,
		maxBodyBytes: maxBodyBytes,
		logger:       log,
	}
}

// Health handles GET /health. Any failing dependency check answers 503.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: healthStatusOK}
	status := http.StatusOK

	if len(h.checks) > 0 {
		resp.Checks = make(map[string]bool, len(h.checks))
		for name, check := range h.checks {
			ok := check(r.Context())
			resp.Checks[name] = ok
			if !ok {
				resp.Status = healthStatusDegraded
				status = http.StatusServiceUnavailable
			}
		}
	}

	if status != http.StatusOK {
		h.logger.Warn("Health check degraded", zap.Any("checks", resp.Checks))
	}
	h.writeJSON(w, status, resp)
}

// Badges handles GET /v1/badges
func (h *Handlers) Badges(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, BadgesResponse{Badges: h.scorer.BadgeTiers()})
}

// Score handles POST /v1/score
func (h *Handlers) Score(w http.ResponseWriter, r *http.Request) {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var req entity.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.reject(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON score request")
		return
	}

	address, err := blockchain.NormalizeAddress(req.Address)
	if err != nil {
		h.reject(w, http.StatusBadRequest, "invalid_address", err.Error())
		return
	}
	req.Address = address

	report, err := h.scorer.Score(r.Context(), req.Snapshot())
	if err != nil {
		h.logger.Warn("Score request failed", zap.String("address", address), zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			h.reject(w, http.StatusGatewayTimeout, "timeout", "scoring timed out")
			return
		}
		h.reject(w, http.StatusInternalServerError, "scoring_failed", "scoring failed")
		return
	}

	h.observe("ok")
	h.writeJSON(w, http.StatusOK, report)
}

// NotFound handles 404 responses
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error: "the requested endpoint does not exist",
		Code:  "endpoint_not_found",
	})
}

func (h *Handlers) reject(w http.ResponseWriter, status int, code, message string) {
	h.observe(code)
	h.writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func (h *Handlers) observe(status string) {
	if h.observer != nil {
		h.observer.ObserveRequest(transportHTTP, status)
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("Failed to encode response", zap.Error(err))
	}
}
