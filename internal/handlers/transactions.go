// internal/handlers/transactions.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

// TransactionHandler handles ledger transaction requests
type TransactionHandler struct {
	service ports.TransactionService
	logger  *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(service ports.TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "transactions")),
	}
}

// CreateTransactionRequest is the body of POST /transactions
type CreateTransactionRequest struct {
	Type           domain.TransactionType `json:"type"`
	ItemID         uuid.UUID              `json:"item_id"`
	Quantity       int                    `json:"quantity"`
	FromLocationID *uuid.UUID             `json:"from_location_id,omitempty"`
	ToLocationID   *uuid.UUID             `json:"to_location_id,omitempty"`
	PerformedBy    uuid.UUID              `json:"performed_by"`
	Notes          string                 `json:"notes,omitempty"`
}

// ToDomain converts the request to a transaction
func (r *CreateTransactionRequest) ToDomain() *domain.Transaction {
	return &domain.Transaction{
		Type:           r.Type,
		ItemID:         r.ItemID,
		Quantity:       r.Quantity,
		FromLocationID: r.FromLocationID,
		ToLocationID:   r.ToLocationID,
		PerformedBy:    r.PerformedBy,
		Notes:          r.Notes,
	}
}

// CreateTransaction handles POST /transactions
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err, "decode transaction")
		return
	}

	result, err := h.service.Process(ctx, req.ToDomain())
	if err != nil {
		handleServiceError(w, r, h.logger, err, "process transaction")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, result)
}

// GetTransaction handles GET /transactions/{id}
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, h.logger, err, "parse transaction id")
		return
	}

	tx, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "get transaction")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, tx)
}

// ListTransactions handles GET /transactions
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "parse transaction filter")
		return
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "list transactions")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, page)
}

func (h *TransactionHandler) parseFilter(r *http.Request) (domain.TransactionFilter, error) {
	var (
		filter domain.TransactionFilter
		err    error
	)

	if filter.ItemID, err = queryUUID(r, "item_id"); err != nil {
		return filter, err
	}
	if filter.LocationID, err = queryUUID(r, "location_id"); err != nil {
		return filter, err
	}
	if filter.PerformedBy, err = queryUUID(r, "performed_by"); err != nil {
		return filter, err
	}
	if filter.Since, err = queryTime(r, "since"); err != nil {
		return filter, err
	}
	if filter.Until, err = queryTime(r, "until"); err != nil {
		return filter, err
	}

	if t := r.URL.Query().Get("type"); t != "" {
		filter.Type = domain.TransactionType(t)
		if !filter.Type.IsValid() {
			return filter, domain.NewValidationError("type", "is not a valid transaction type")
		}
	}

	filter.Limit, filter.Offset = pagination(r)
	return filter, nil
}
