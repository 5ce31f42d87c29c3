// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/ranking"
)

// RankingsHandler handles global ranking requests.
type RankingsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps Dependencies, maxLimit int) *RankingsHandler {
	return &RankingsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetRankings handles GET /rankings requests. Supported query
// parameters: limit, position, level, organization, max_age, min_grade.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	f, err := h.parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	entries, err := h.deps.RankProspects(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *RankingsHandler) parseFilter(r *http.Request) (ranking.Filter, error) {
	var f ranking.Filter
	q := r.URL.Query()

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return f, errors.New("invalid limit")
		}
		if n > h.maxLimit {
			return f, errors.New("limit exceeds maximum")
		}
		f.Limit = n
	}
	if s := q.Get("position"); s != "" {
		pos := model.Position(s)
		if !pos.Valid() {
			return f, errors.New("invalid position")
		}
		f.Position = &pos
	}
	if s := q.Get("level"); s != "" {
		level, ok := model.ParseLevel(s)
		if !ok {
			return f, errors.New("invalid level")
		}
		f.Level = &level
	}
	f.Organization = q.Get("organization")
	if s := q.Get("max_age"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return f, errors.New("invalid max_age")
		}
		f.MaxAge = v
	}
	if s := q.Get("min_grade"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return f, errors.New("invalid min_grade")
		}
		f.MinGrade = v
	}
	return f, nil
}
