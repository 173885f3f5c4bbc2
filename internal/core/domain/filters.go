// internal/core/domain/filters.go
package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemFilter narrows item listings
type ItemFilter struct {
	Search     string
	SKU        string
	CategoryID *uuid.UUID
	Status     ItemStatus
	SortBy     string
	SortOrder  string
	Limit      int
	Offset     int
}

// EntryFilter narrows item-location listings
type EntryFilter struct {
	ItemID     *uuid.UUID
	LocationID *uuid.UUID
}

// DashboardSummary is the aggregate overview of the warehouse
type DashboardSummary struct {
	TotalItems     int                `json:"total_items"`
	ItemsByStatus  map[ItemStatus]int `json:"items_by_status"`
	TotalLocations int                `json:"total_locations"`
	TotalUnits     int                `json:"total_units"`
	StockValue     decimal.Decimal    `json:"stock_value"`
	LowStockItems  []Item             `json:"low_stock_items"`
}
