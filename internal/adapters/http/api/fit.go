// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/fit"
)

// FitHandler handles fit score requests.
type FitHandler struct {
	deps Dependencies
}

// NewFitHandler creates a new fit handler.
func NewFitHandler(deps Dependencies) *FitHandler {
	return &FitHandler{deps: deps}
}

// HandleGetFit handles GET /fit requests. Required query parameters:
// prospect_id, team_id. Optional: scoring, format (presence of either
// enables the league-aware scarcity variant).
func (h *FitHandler) HandleGetFit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	prospectID := strings.TrimSpace(q.Get("prospect_id"))
	teamID := strings.TrimSpace(q.Get("team_id"))
	if prospectID == "" || teamID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("prospect_id and team_id are required"))
		return
	}

	var league *fit.LeagueSettings
	if q.Get("scoring") != "" || q.Get("format") != "" {
		league = &fit.LeagueSettings{
			ScoringSystem: q.Get("scoring"),
			RosterFormat:  q.Get("format"),
		}
	}

	score, err := h.deps.ScoreFit(r.Context(), prospectID, teamID, league)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// isNotFound translates upstream not-found errors to 404 without coupling
// to a specific provider package.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "not found")
}
