// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/performance"
)

// PerformanceHandler handles performance snapshot requests.
type PerformanceHandler struct {
	deps Dependencies
}

// NewPerformanceHandler creates a new performance handler.
func NewPerformanceHandler(deps Dependencies) *PerformanceHandler {
	return &PerformanceHandler{deps: deps}
}

// HandleGetPerformance handles GET /performance requests. Required query
// parameters: player_id, role. Optional: level, window_days.
func (h *PerformanceHandler) HandleGetPerformance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	playerID := strings.TrimSpace(q.Get("player_id"))
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("player_id is required"))
		return
	}
	role, ok := model.ParseRole(q.Get("role"))
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("role must be batter or pitcher"))
		return
	}

	var level *model.Level
	if s := q.Get("level"); s != "" {
		l, lok := model.ParseLevel(s)
		if !lok {
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("invalid level"))
			return
		}
		level = &l
	}

	windowDays := 0
	if s := q.Get("window_days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("invalid window_days"))
			return
		}
		windowDays = n
	}

	snap, err := h.deps.Performance(r.Context(), playerID, role, level, windowDays)
	if err != nil {
		switch {
		case errors.Is(err, performance.ErrInsufficientSample):
			writeError(w, http.StatusUnprocessableEntity, "insufficient_sample", err)
		case errors.Is(err, performance.ErrNoCohort):
			writeError(w, http.StatusUnprocessableEntity, "no_cohort", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
