// internal/handlers/stock.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

// StockHandler serves ledger reads and the dashboard
type StockHandler struct {
	service ports.StockService
	logger  *slog.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(service ports.StockService, logger *slog.Logger) *StockHandler {
	return &StockHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "stock")),
	}
}

// SetEntryStatusRequest is the body of PATCH /item-locations/{id}
type SetEntryStatusRequest struct {
	Status domain.EntryStatus `json:"status"`
}

// GetItemStock handles GET /items/{id}/stock
func (h *StockHandler) GetItemStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, h.logger, err, "parse item id")
		return
	}

	stock, err := h.service.ItemStock(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "get item stock")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, stock)
}

// ListEntries handles GET /item-locations
func (h *StockHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	var (
		filter domain.EntryFilter
		err    error
	)
	if filter.ItemID, err = queryUUID(r, "item_id"); err != nil {
		handleServiceError(w, r, h.logger, err, "parse entry filter")
		return
	}
	if filter.LocationID, err = queryUUID(r, "location_id"); err != nil {
		handleServiceError(w, r, h.logger, err, "parse entry filter")
		return
	}

	entries, err := h.service.ListEntries(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "list entries")
		return
	}
	if entries == nil {
		entries = []domain.StockEntry{}
	}

	respondJSON(w, h.logger, http.StatusOK, entries)
}

// SetEntryStatus handles PATCH /item-locations/{id}
func (h *StockHandler) SetEntryStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, h.logger, err, "parse entry id")
		return
	}

	var req SetEntryStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err, "decode entry status")
		return
	}

	entry, err := h.service.SetEntryStatus(r.Context(), id, req.Status)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "set entry status")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, entry)
}

// Dashboard handles GET /dashboard
func (h *StockHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Dashboard(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err, "build dashboard")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, summary)
}
