package handler

import (
	"log/slog"
	"net/http"

	"github.com/avelory/steamflipper/internal/domain"
)

// OpportunityHandler serves the read-only evaluation history endpoints.
type OpportunityHandler struct {
	store  domain.OpportunityStore
	logger *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler with the given store
// and logger.
func NewOpportunityHandler(store domain.OpportunityStore, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{store: store, logger: logger}
}

// listOpportunitiesResponse wraps the list response.
type listOpportunitiesResponse struct {
	Opportunities []domain.Record `json:"opportunities"`
}

// List returns evaluation records, newest first by default.
// GET /api/opportunities?profitable=true&limit=50&order=profit&best=true
//
// order=profit sorts by ROI instead of recency; best=true collapses the
// history to the single best record per item by net profit.
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.OpportunityFilter{
		Profitable:    queryBool(r, "profitable"),
		Limit:         queryLimit(r, 50, 500),
		OrderByProfit: r.URL.Query().Get("order") == "profit",
	}
	if b := queryBool(r, "best"); b != nil && *b {
		filter.BestPerItem = true
	}

	recs, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}

	if recs == nil {
		recs = []domain.Record{}
	}

	writeJSON(w, http.StatusOK, listOpportunitiesResponse{Opportunities: recs})
}
