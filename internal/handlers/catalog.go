// internal/handlers/catalog.go
package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

// CatalogHandler handles items, locations, categories and users
type CatalogHandler struct {
	service ports.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service ports.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "catalog")),
	}
}

// ItemRequest is the body of POST /items and PUT /items/{id}
type ItemRequest struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Manufacturer string          `json:"manufacturer,omitempty"`
	CategoryID   *uuid.UUID      `json:"category_id,omitempty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	MinimumStock int             `json:"minimum_stock"`
	Notes        string          `json:"notes,omitempty"`
}

// ToDomain converts the request to an item
func (r *ItemRequest) ToDomain() *domain.Item {
	return &domain.Item{
		SKU:          r.SKU,
		Name:         r.Name,
		Manufacturer: r.Manufacturer,
		CategoryID:   r.CategoryID,
		UnitCost:     r.UnitCost,
		MinimumStock: r.MinimumStock,
		Notes:        r.Notes,
	}
}

// SetDiscontinuedRequest is the body of PATCH /items/{id}/status
type SetDiscontinuedRequest struct {
	Discontinued *bool `json:"discontinued"`
}

// LocationRequest is the body of POST /locations and PUT /locations/{id}
type LocationRequest struct {
	Building string `json:"building,omitempty"`
	Room     string `json:"room,omitempty"`
	Unit     string `json:"unit"`
}

// LocationResponse adds the display name to a location
type LocationResponse struct {
	domain.Location
	DisplayName string `json:"display_name"`
}

func toLocationResponse(l domain.Location) LocationResponse {
	return LocationResponse{Location: l, DisplayName: l.DisplayName()}
}

// CreateItem handles POST /items
func (h *CatalogHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ItemRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err, "decode item")
		return
	}

	item := req.ToDomain()
	if err := h.service.CreateItem(ctx, item); err != nil {
		handleServiceError(w, r, h.logger, err, "create item")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, item)
}

// GetItem handles GET /items/{id}
func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, h.logger, err, "parse item id")
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "get item")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, item)
}

// ListItems handles GET /items
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.ItemFilter{
		Search:    strings.TrimSpace(q.Get("search")),
		SKU:       strings.TrimSpace(q.Get("sku")),
		Status:    domain.ItemStatus(q.Get("status")),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
	var err error
	if filter.CategoryID, err = queryUUID(r, "category_id"); err != nil {
		handleServiceError(w, r, h.logger, err, "parse item filter")
		return
	}
	filter.Limit, filter.Offset = pagination(r)

	page, err := h.service.ListItems(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "list items")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, page)
}

// UpdateItem handles PUT /items/{id}
func (h *CatalogHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, h.logger, err, "parse item id")
		return
	}

	var req ItemRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err, "decode item")
		return
	}

	item := req.ToDomain()
	if err := h.service.UpdateItem(r.Context(), id, item); err != nil {
		handleServiceError(w, r, h.logger, err, "update item")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, item)
}

// SetItemStatus handles PATCH /items/{id}/status
func (h *CatalogHandler) SetItemStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, h.logger, err, "parse item id")
		return
	}

	var req SetDiscontinuedRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err, "decode item status")
		return
	}
	if req.Discontinued == nil {
		respondJSON(w, h.logger, http.StatusBadRequest, ErrorResponse{Error: "discontinued is required", Field: "discontinued"})
		return
	}

	item, err := h.service.SetDiscontinued(r.Context(), id, *req.Discontinued)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "set item status")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, item)
}

// DeleteItem handles DELETE /items/{id}
func (h *CatalogHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, h.logger, err, "parse item id")
		return
	}

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		handleServiceError(w, r, h.logger, err, "delete item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateLocation handles POST /locations
func (h *CatalogHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req LocationRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err, "decode location")
		return
	}

	loc := &domain.Location{Building: req.Building, Room: req.Room, Unit: req.Unit}
	if err := h.service.CreateLocation(r.Context(), loc); err != nil {
		handleServiceError(w, r, h.logger, err, "create location")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, toLocationResponse(*loc))
}

// GetLocation handles GET /locations/{id}
func (h *CatalogHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, h.logger, err, "parse location id")
		return
	}

	loc, err := h.service.GetLocation(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "get location")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, toLocationResponse(*loc))
}

// ListLocations handles GET /locations
func (h *CatalogHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.service.ListLocations(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err, "list locations")
		return
	}

	resp := make([]LocationResponse, 0, len(locations))
	for _, l := range locations {
		resp = append(resp, toLocationResponse(l))
	}
	respondJSON(w, h.logger, http.StatusOK, resp)
}

// UpdateLocation handles PUT /locations/{id}
func (h *CatalogHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, h.logger, err, "parse location id")
		return
	}

	var req LocationRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err, "decode location")
		return
	}

	loc := &domain.Location{Building: req.Building, Room: req.Room, Unit: req.Unit}
	if err := h.service.UpdateLocation(r.Context(), id, loc); err != nil {
		handleServiceError(w, r, h.logger, err, "update location")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, toLocationResponse(*loc))
}

// DeleteLocation handles DELETE /locations/{id}
func (h *CatalogHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, h.logger, err, "parse location id")
		return
	}

	if err := h.service.DeleteLocation(r.Context(), id); err != nil {
		handleServiceError(w, r, h.logger, err, "delete location")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateCategory handles POST /categories
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var cat domain.Category
	if err := decodeJSON(r, &cat); err != nil {
		handleServiceError(w, r, h.logger, err, "decode category")
		return
	}
	cat.ID = uuid.Nil

	if err := h.service.CreateCategory(r.Context(), &cat); err != nil {
		handleServiceError(w, r, h.logger, err, "create category")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, cat)
}

// ListCategories handles GET /categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err, "list categories")
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}

	respondJSON(w, h.logger, http.StatusOK, categories)
}

// DeleteCategory handles DELETE /categories/{id}
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, h.logger, err, "parse category id")
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		handleServiceError(w, r, h.logger, err, "delete category")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateUser handles POST /users
func (h *CatalogHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := decodeJSON(r, &user); err != nil {
		handleServiceError(w, r, h.logger, err, "decode user")
		return
	}
	user.ID = uuid.Nil

	if err := h.service.CreateUser(r.Context(), &user); err != nil {
		handleServiceError(w, r, h.logger, err, "create user")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, user)
}

// ListUsers handles GET /users
func (h *CatalogHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err, "list users")
		return
	}
	if users == nil {
		users = []domain.User{}
	}

	respondJSON(w, h.logger, http.StatusOK, users)
}
