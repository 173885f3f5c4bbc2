// internal/core/services/types.go
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
)

// Paging defaults
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Cache settings
const (
	stockCacheTTL     = 5 * time.Minute
	dashboardCacheTTL = time.Minute
	dashboardCacheKey = "dash:summary"
)

// ItemStockCacheKey is the cache key of an item's stock summary
func ItemStockCacheKey(itemID uuid.UUID) string {
	return "stock:item:" + itemID.String()
}

// normalizePage clamps limit/offset into the accepted range
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
