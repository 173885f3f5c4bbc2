// internal/handlers/router.go
package handlers

import (
	"log/slog"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/ammerola/stocktrack-be/internal/core/ports"
	"github.com/ammerola/stocktrack-be/internal/handlers/middleware"
)

// RouterConfig tunes the middleware chain
type RouterConfig struct {
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
	MaxBodyBytes      int64
	SecureHeaders     bool
	EnablePprof       bool
}

// RouterDeps are the services the API exposes. Health and Publisher are optional.
type RouterDeps struct {
	Transactions   ports.TransactionService
	Stock          ports.StockService
	Catalog        ports.CatalogService
	Reconciliation ports.ReconciliationService
	Publisher      ports.EventPublisher
	Health         *HealthHandler
}

// NewRouter builds the HTTP handler for the API
func NewRouter(deps RouterDeps, cfg RouterConfig, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	if deps.Health != nil {
		mux.HandleFunc("GET /health", deps.Health.Health)
		mux.HandleFunc("GET /ready", deps.Health.Readiness)
	}

	tx := NewTransactionHandler(deps.Transactions, logger)
	mux.HandleFunc("POST /transactions", tx.CreateTransaction)
	mux.HandleFunc("GET /transactions", tx.ListTransactions)
	mux.HandleFunc("GET /transactions/{id}", tx.GetTransaction)

	stock := NewStockHandler(deps.Stock, logger)
	mux.HandleFunc("GET /items/{id}/stock", stock.GetItemStock)
	mux.HandleFunc("GET /item-locations", stock.ListEntries)
	mux.HandleFunc("PATCH /item-locations/{id}", stock.SetEntryStatus)
	mux.HandleFunc("GET /dashboard", stock.Dashboard)

	catalog := NewCatalogHandler(deps.Catalog, logger)
	mux.HandleFunc("GET /items", catalog.ListItems)
	mux.HandleFunc("POST /items", catalog.CreateItem)
	mux.HandleFunc("GET /items/{id}", catalog.GetItem)
	mux.HandleFunc("PUT /items/{id}", catalog.UpdateItem)
	mux.HandleFunc("PATCH /items/{id}/status", catalog.SetItemStatus)
	mux.HandleFunc("DELETE /items/{id}", catalog.DeleteItem)

	mux.HandleFunc("GET /locations", catalog.ListLocations)
	mux.HandleFunc("POST /locations", catalog.CreateLocation)
	mux.HandleFunc("GET /locations/{id}", catalog.GetLocation)
	mux.HandleFunc("PUT /locations/{id}", catalog.UpdateLocation)
	mux.HandleFunc("DELETE /locations/{id}", catalog.DeleteLocation)

	mux.HandleFunc("GET /categories", catalog.ListCategories)
	mux.HandleFunc("POST /categories", catalog.CreateCategory)
	mux.HandleFunc("DELETE /categories/{id}", catalog.DeleteCategory)

	mux.HandleFunc("GET /users", catalog.ListUsers)
	mux.HandleFunc("POST /users", catalog.CreateUser)

	admin := NewAdminHandler(deps.Reconciliation, deps.Publisher, logger)
	mux.HandleFunc("POST /admin/reconcile", admin.Reconcile)

	if cfg.EnablePprof {
		mux.HandleFunc("GET /debug/pprof/", pprof.Index)
		mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	}

	chain := []middleware.Middleware{
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
	}
	if cfg.RateLimitRequests > 0 {
		chain = append(chain, middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow).Middleware)
	}
	if len(cfg.AllowedOrigins) > 0 {
		chain = append(chain, middleware.CORS(cfg.AllowedOrigins))
	}
	if cfg.SecureHeaders {
		chain = append(chain, middleware.SecureHeaders)
	}
	if cfg.RequestTimeout > 0 {
		chain = append(chain, middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.MaxBodyBytes > 0 {
		chain = append(chain, middleware.MaxBodyBytes(cfg.MaxBodyBytes))
	}

	return middleware.Chain(mux, chain...)
}
