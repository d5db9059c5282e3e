package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/wonny/dailybrief/internal/brain"
	"github.com/wonny/dailybrief/pkg/logger"
)

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error)
}

// RunsHandler triggers pipeline runs and serves the latest result
// ⭐ SSOT: 동시에 하나의 run 만 허용
type RunsHandler struct {
	runner    Runner
	newConfig func(time.Time) brain.RunConfig
	baseCtx   context.Context
	logger    *logger.Logger

	mu     sync.Mutex
	active string
	latest *brain.RunResult
}

// NewRunsHandler creates a new runs handler. Asynchronous runs are bound to
// baseCtx, not to the triggering request.
func NewRunsHandler(baseCtx context.Context, runner Runner, newConfig func(time.Time) brain.RunConfig, log *logger.Logger) *RunsHandler {
	return &RunsHandler{
		runner:    runner,
		newConfig: newConfig,
		baseCtx:   baseCtx,
		logger:    log.WithField("module", "api.runs"),
	}
}

// RunRequest is the body of POST /api/runs; every field is optional
type RunRequest struct {
	Symbols     []string `json:"symbols"`
	FocusGroups []string `json:"focus_groups"`
	Count       int      `json:"count"`
	DryRun      bool     `json:"dry_run"`
	Wait        bool     `json:"wait"`
}

// Record stores a finished run as the latest
func (h *RunsHandler) Record(result *brain.RunResult) {
	if result == nil {
		return
	}
	h.mu.Lock()
	h.latest = result
	h.mu.Unlock()
}

// Trigger starts a run
// POST /api/runs
func (h *RunsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.Count < 0 || req.Count > 40 {
		respondError(w, http.StatusBadRequest, "count must be between 1 and 40")
		return
	}

	cfg := h.newConfig(time.Now())
	cfg.Symbols = req.Symbols
	cfg.DryRun = req.DryRun
	if req.Count > 0 {
		cfg.Discovery.Count = req.Count
	}
	if len(req.FocusGroups) > 0 {
		cfg.Discovery.FocusGroups = req.FocusGroups
	}

	h.mu.Lock()
	if h.active != "" {
		active := h.active
		h.mu.Unlock()
		respondJSON(w, http.StatusConflict, map[string]string{
			"error":  "a run is already in progress",
			"run_id": active,
		})
		return
	}
	h.active = cfg.RunID
	h.mu.Unlock()

	if !req.Wait {
		go h.execute(h.baseCtx, cfg)
		respondJSON(w, http.StatusAccepted, map[string]string{"run_id": cfg.RunID})
		return
	}

	result, err := h.execute(r.Context(), cfg)
	var runErr *brain.RunError
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, result)
	case errors.As(err, &runErr):
		respondJSON(w, http.StatusUnprocessableEntity, result)
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *RunsHandler) execute(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error) {
	defer func() {
		h.mu.Lock()
		h.active = ""
		h.mu.Unlock()
	}()

	result, err := h.runner.Run(ctx, cfg)
	h.Record(result)
	if err != nil {
		h.logger.WithError(err).WithField("run_id", cfg.RunID).Warn("Triggered run failed")
	}
	return result, err
}

// Latest returns the most recent finished run
// GET /api/runs/latest
func (h *RunsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	latest, active := h.latest, h.active
	h.mu.Unlock()

	if latest == nil {
		respondJSON(w, http.StatusNotFound, map[string]string{
			"error":  "no run has finished yet",
			"active": active,
		})
		return
	}
	respondJSON(w, http.StatusOK, latest)
}
