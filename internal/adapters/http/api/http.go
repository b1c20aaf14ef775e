// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/wapmorty/draftcoach/internal/adapters/statscache"
	"github.com/wapmorty/draftcoach/internal/domain/draft"
	"github.com/wapmorty/draftcoach/internal/domain/model"
)

// DraftStatus is the read shape served by GET /draft.
type DraftStatus struct {
	SessionID  string                  `json:"session_id"`
	FlowPhase  model.FlowPhase         `json:"flow_phase"`
	State      draft.State             `json:"state"`
	Picks      []model.RankedCandidate `json:"picks"`
	Bans       []model.BanThreat       `json:"bans"`
	Assessment *model.TeamAssessment   `json:"assessment,omitempty"`
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the monitor.
type Dependencies interface {
	// DraftStatus returns the current canonical state and the latest
	// recommendations.
	DraftStatus(ctx context.Context) DraftStatus

	// BanAdvice returns the current ban-threat ranking.
	BanAdvice(ctx context.Context) []model.BanThreat

	// CacheStats reports lookup-cache effectiveness.
	CacheStats(ctx context.Context) statscache.Stats
}

// Server wires HTTP routes for the status API.
type Server struct {
	healthHandler *HealthHandler
	draftHandler  *DraftHandler
	banHandler    *BanAdviceHandler
	cacheHandler  *CacheStatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		draftHandler:  NewDraftHandler(deps),
		banHandler:    NewBanAdviceHandler(deps),
		cacheHandler:  NewCacheStatsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/draft", MetricsMiddleware(s.draftHandler.HandleGetDraft, "draft"))
	mux.HandleFunc("/banadvice", MetricsMiddleware(s.banHandler.HandleGetBanAdvice, "banadvice"))
	mux.HandleFunc("/cache/stats", MetricsMiddleware(s.cacheHandler.HandleGetCacheStats, "cache_stats"))
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
