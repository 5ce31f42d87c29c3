// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/fit"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/performance"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/ranking"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	ScoreFit(ctx context.Context, prospectID, teamID string, league *fit.LeagueSettings) (fit.Score, error)
	Performance(ctx context.Context, playerID string, role model.Role, level *model.Level, windowDays int) (performance.Snapshot, error)
	RankProspects(ctx context.Context, f ranking.Filter) ([]ranking.Entry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	rankingsHandler    *RankingsHandler
	fitHandler         *FitHandler
	performanceHandler *PerformanceHandler
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxRankingLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		rankingsHandler:    NewRankingsHandler(deps, maxRankingLimit),
		fitHandler:         NewFitHandler(deps),
		performanceHandler: NewPerformanceHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/fit", MetricsMiddleware(s.fitHandler.HandleGetFit, "fit"))
	mux.HandleFunc("/performance", MetricsMiddleware(s.performanceHandler.HandleGetPerformance, "performance"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
