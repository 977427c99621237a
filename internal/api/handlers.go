package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/trogers1052/position-valuation/internal/database"
	"github.com/trogers1052/position-valuation/internal/models"
)

// Valuator runs a batch valuation
type Valuator interface {
	Run(ctx context.Context, positions []models.Position, evalDate time.Time) *models.ValuationRun
}

// RunHandler receives every run produced by the API
type RunHandler interface {
	HandleRun(ctx context.Context, run *models.ValuationRun) error
}

// ResultStore reads stored valuation results
type ResultStore interface {
	GetValuationRun(runID string) (*models.ValuationRun, error)
	GetLatestResultByTicker(ticker string) (*models.ValuationResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	valuator Valuator
	runs     RunHandler
	store    ResultStore
	now      func() time.Time
}

// NewHandler creates a new Handler. runs and store may be nil.
func NewHandler(valuator Valuator, runs RunHandler, store ResultStore) *Handler {
	return &Handler{
		valuator: valuator,
		runs:     runs,
		store:    store,
		now:      time.Now,
	}
}

type runResponse struct {
	RunID          string                   `json:"run_id"`
	EvaluationDate string                   `json:"evaluation_date"`
	Skipped        int                      `json:"skipped"`
	Results        []models.ValuationResult `json:"results"`
}

func newRunResponse(run *models.ValuationRun) runResponse {
	results := run.Results
	if results == nil {
		results = []models.ValuationResult{}
	}
	return runResponse{
		RunID:          run.ID,
		EvaluationDate: run.EvaluationDate.Format(models.DateLayout),
		Skipped:        run.Skipped,
		Results:        results,
	}
}

// CreateValuation handles POST /api/v1/valuations
func (h *Handler) CreateValuation(w http.ResponseWriter, r *http.Request) {
	var req models.ValuationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	evalDate, err := req.Date(h.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Positions) == 0 {
		respondError(w, http.StatusBadRequest, "positions are required")
		return
	}

	positions, dropped := req.ToPositions()
	run := h.valuator.Run(r.Context(), positions, evalDate)
	run.Skipped += dropped

	if h.runs != nil {
		if err := h.runs.HandleRun(r.Context(), run); err != nil {
			log.Error().Err(err).Str("run_id", run.ID).Msg("failed to record valuation run")
			respondError(w, http.StatusInternalServerError, "failed to record valuation run")
			return
		}
	}

	respondJSON(w, http.StatusCreated, newRunResponse(run))
}

// GetValuation handles GET /api/v1/valuations/{runID}
func (h *Handler) GetValuation(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "storage is not configured")
		return
	}

	runID := mux.Vars(r)["runID"]
	if _, err := uuid.Parse(runID); err != nil {
		respondError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	run, err := h.store.GetValuationRun(runID)
	if err != nil {
		h.lookupFailed(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newRunResponse(run))
}

// GetLatestPosition handles GET /api/v1/positions/{ticker}/latest
func (h *Handler) GetLatestPosition(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "storage is not configured")
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["ticker"]))
	res, err := h.store.GetLatestResultByTicker(ticker)
	if err != nil {
		h.lookupFailed(w, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) lookupFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	log.Error().Err(err).Msg("lookup failed")
	respondError(w, http.StatusInternalServerError, "lookup failed")
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
