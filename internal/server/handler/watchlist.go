package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/avelory/steamflipper/internal/domain"
	"github.com/avelory/steamflipper/internal/platform/steam"
	"github.com/avelory/steamflipper/internal/scanner"
)

// ItemScanner scans a single watchlist item on demand, so a freshly added
// item gets evaluated without waiting for the next pass.
type ItemScanner interface {
	ScanItem(ctx context.Context, item domain.WatchItem) (*scanner.ScanResult, error)
}

// WatchlistHandler serves the watchlist endpoints.
type WatchlistHandler struct {
	store   domain.WatchlistStore
	scanner ItemScanner // optional; when nil, added items wait for the next pass
	logger  *slog.Logger
}

// NewWatchlistHandler creates a WatchlistHandler with the given store and
// logger.
func NewWatchlistHandler(store domain.WatchlistStore, logger *slog.Logger) *WatchlistHandler {
	return &WatchlistHandler{store: store, logger: logger}
}

// WithScanner enables the scan-on-add behavior for POST /api/watchlist.
func (h *WatchlistHandler) WithScanner(s ItemScanner) *WatchlistHandler {
	h.scanner = s
	return h
}

// listWatchlistResponse wraps the list response.
type listWatchlistResponse struct {
	Items []domain.WatchItem `json:"items"`
}

// List returns all watched items in insertion order.
// GET /api/watchlist
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list watchlist failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list watchlist")
		return
	}

	if items == nil {
		items = []domain.WatchItem{}
	}

	writeJSON(w, http.StatusOK, listWatchlistResponse{Items: items})
}

// addWatchlistRequest is the POST body: a market listing URL.
type addWatchlistRequest struct {
	URL string `json:"url"`
}

// addWatchlistResponse echoes the stored item plus the immediate scan result,
// when one was produced.
type addWatchlistResponse struct {
	Item   domain.WatchItem    `json:"item"`
	Result *scanner.ScanResult `json:"result,omitempty"`
}

// Add parses a market listing URL, stores the item, and scans it right away
// when a scanner is wired.
// POST /api/watchlist {"url": "https://steamcommunity.com/market/listings/730/..."}
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addWatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	appID, name, err := steam.ParseListingURL(req.URL)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidListingURL) {
			writeError(w, http.StatusBadRequest, "not a market listing URL")
			return
		}
		writeError(w, http.StatusBadRequest, "unparseable URL")
		return
	}

	item, err := h.store.Add(r.Context(), appID, name)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: add watchlist item failed",
			slog.String("item", name),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to store watchlist item")
		return
	}

	resp := addWatchlistResponse{Item: item}
	if h.scanner != nil {
		res, err := h.scanner.ScanItem(r.Context(), item)
		if err != nil {
			// The item is stored either way; surface the partial success.
			h.logger.ErrorContext(r.Context(), "handler: immediate scan failed",
				slog.String("item", name),
				slog.String("error", err.Error()),
			)
		} else {
			resp.Result = res
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}
