// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/wapmorty/draftcoach/internal/domain/model"
)

// DraftHandler serves the current draft status.
type DraftHandler struct {
	deps Dependencies
}

// NewDraftHandler creates a new draft status handler.
func NewDraftHandler(deps Dependencies) *DraftHandler {
	return &DraftHandler{deps: deps}
}

// HandleGetDraft handles GET /draft requests.
func (h *DraftHandler) HandleGetDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "bad_request", ErrBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.DraftStatus(r.Context()))
}

// BanAdviceHandler serves the current ban-threat ranking.
type BanAdviceHandler struct {
	deps Dependencies
}

// NewBanAdviceHandler creates a new ban advice handler.
func NewBanAdviceHandler(deps Dependencies) *BanAdviceHandler {
	return &BanAdviceHandler{deps: deps}
}

// HandleGetBanAdvice handles GET /banadvice requests.
func (h *BanAdviceHandler) HandleGetBanAdvice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "bad_request", ErrBadRequest)
		return
	}
	threats := h.deps.BanAdvice(r.Context())
	if threats == nil {
		threats = []model.BanThreat{}
	}
	writeJSON(w, http.StatusOK, threats)
}

// CacheStatsHandler serves lookup-cache counters.
type CacheStatsHandler struct {
	deps Dependencies
}

// NewCacheStatsHandler creates a new cache stats handler.
func NewCacheStatsHandler(deps Dependencies) *CacheStatsHandler {
	return &CacheStatsHandler{deps: deps}
}

// HandleGetCacheStats handles GET /cache/stats requests.
func (h *CacheStatsHandler) HandleGetCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "bad_request", ErrBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.CacheStats(r.Context()))
}
