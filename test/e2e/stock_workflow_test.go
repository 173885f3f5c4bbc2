package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/stocktrack-be/internal/adapters/memory"
	redis_a "github.com/ammerola/stocktrack-be/internal/adapters/redis_adapter"
	"github.com/ammerola/stocktrack-be/internal/adapters/storage"
	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
	"github.com/ammerola/stocktrack-be/internal/core/services"
	"github.com/ammerola/stocktrack-be/internal/handlers"
	"github.com/ammerola/stocktrack-be/test/helpers"
)

// recordingPublisher stands in for the asynq publisher
type recordingPublisher struct {
	mu     sync.Mutex
	alerts []domain.StockAlert
	queued int
}

func (p *recordingPublisher) PublishStockAlert(_ context.Context, alert domain.StockAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, alert)
	return nil
}

func (p *recordingPublisher) EnqueueReconciliation(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queued++
	return fmt.Sprintf("reconcile-%d", p.queued), nil
}

func (p *recordingPublisher) Alerts() []domain.StockAlert {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.StockAlert(nil), p.alerts...)
}

type StockWorkflowSuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	store     *memory.Store
	publisher *recordingPublisher
}

func TestStockWorkflowSuite(t *testing.T) {
	suite.Run(t, new(StockWorkflowSuite))
}

func (s *StockWorkflowSuite) SetupTest() {
	t := s.T()
	log := helpers.TestLogger()

	s.store = memory.NewStore(log)
	t.Cleanup(s.store.Close)

	testRedis := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(testRedis.Client, time.Minute, log)
	s.publisher = &recordingPublisher{}

	archive := storage.NewReportArchive(storage.NewLocalStorage(t.TempDir(), log), log)

	processor := services.NewTransactionProcessor(services.ProcessorDeps{
		UnitOfWork:   s.store,
		Items:        s.store.Items(),
		Locations:    s.store.Locations(),
		Users:        s.store.Users(),
		Transactions: s.store.Transactions(),
		Publisher:    s.publisher,
		Cache:        cache,
	}, domain.OverdrawReject, log)

	router := handlers.NewRouter(handlers.RouterDeps{
		Transactions: processor,
		Stock:        services.NewStockService(s.store.Items(), s.store.Locations(), s.store.Entries(), cache, log),
		Catalog: services.NewCatalogService(services.CatalogDeps{
			Items:      s.store.Items(),
			Locations:  s.store.Locations(),
			Categories: s.store.Categories(),
			Users:      s.store.Users(),
			Entries:    s.store.Entries(),
			Cache:      cache,
		}, log),
		Reconciliation: services.NewReconciliationService(s.store, archive, log),
		Publisher:      s.publisher,
		Health: handlers.NewHealthHandler(handlers.HealthDeps{
			Database:    s.store,
			Cache:       cache,
			Version:     "e2e",
			Environment: "test",
			Store:       "memory",
		}, log),
	}, handlers.RouterConfig{
		RequestTimeout: 5 * time.Second,
		MaxBodyBytes:   1 << 16,
	}, log)

	s.server = httptest.NewServer(router)
	t.Cleanup(s.server.Close)
	s.client = &http.Client{Timeout: 10 * time.Second}
}

func (s *StockWorkflowSuite) TestReceiveMoveAndDepleteStock() {
	category := s.create("/categories", map[string]any{"name": "Networking"})
	shelf := s.create("/locations", map[string]any{"building": "HQ", "room": "Stockroom", "unit": "Shelf A1"})
	van := s.create("/locations", map[string]any{"unit": "Van 7"})
	user := s.create("/users", map[string]any{"name": "Stock Clerk", "email": "clerk@example.com"})
	item := s.create("/items", map[string]any{
		"sku":           "EL-1001",
		"name":          "Cat6 patch cable 2m",
		"category_id":   category,
		"unit_cost":     "4.50",
		"minimum_stock": 5,
	})

	// Receive 10 onto the shelf
	result := s.transact(http.StatusCreated, map[string]any{
		"type": "receive", "item_id": item, "quantity": 10, "to_location_id": shelf, "performed_by": user,
	})
	s.Equal(domain.ItemStatusInStock, result.ItemStatus)
	s.Require().Len(result.Movements, 1)
	s.Equal(10, result.Movements[0].After)

	var dashboard domain.DashboardSummary
	s.getJSON("/dashboard", http.StatusOK, &dashboard)
	s.Equal(10, dashboard.TotalUnits)
	s.True(decimal.NewFromInt(45).Equal(dashboard.StockValue), "stock value %s", dashboard.StockValue)

	// Transfer 4 to the van; the total is unchanged
	transfer := s.transact(http.StatusCreated, map[string]any{
		"type": "transfer", "item_id": item, "quantity": 4,
		"from_location_id": shelf, "to_location_id": van, "performed_by": user,
	})
	s.Require().Len(transfer.Movements, 2)

	stock := s.itemStock(item)
	s.Equal(10, stock.TotalQuantity)
	s.Len(stock.Entries, 2)
	s.Empty(s.publisher.Alerts())

	// Withdraw everything from the shelf: 4 left, below the minimum of 5
	result = s.transact(http.StatusCreated, map[string]any{
		"type": "withdraw", "item_id": item, "quantity": 6, "from_location_id": shelf, "performed_by": user,
	})
	s.Equal(domain.ItemStatusLowStock, result.ItemStatus)

	alerts := s.publisher.Alerts()
	s.Require().Len(alerts, 1)
	s.Equal(domain.ItemStatusLowStock, alerts[0].Status)
	s.Equal(domain.ItemStatusInStock, alerts[0].PreviousStatus)
	s.Equal(4, alerts[0].TotalQuantity)

	// Overdrawing the van is rejected and leaves no trace
	var insufficient map[string]any
	s.do(http.MethodPost, "/transactions", map[string]any{
		"type": "withdraw", "item_id": item, "quantity": 5, "from_location_id": van, "performed_by": user,
	}, http.StatusConflict, &insufficient)
	s.EqualValues(4, insufficient["available"])
	s.EqualValues(5, insufficient["requested"])
	s.Equal(4, s.itemStock(item).TotalQuantity)

	// Dispose of the rest
	result = s.transact(http.StatusCreated, map[string]any{
		"type": "dispose", "item_id": item, "quantity": 4, "from_location_id": van, "performed_by": user, "notes": "crushed",
	})
	s.Equal(domain.ItemStatusOutOfStock, result.ItemStatus)
	s.Len(s.publisher.Alerts(), 2)

	// The cached dashboard was invalidated by the transactions
	s.getJSON("/dashboard", http.StatusOK, &dashboard)
	s.Equal(0, dashboard.TotalUnits)
	s.Equal(1, dashboard.ItemsByStatus[domain.ItemStatusOutOfStock])

	// History: four applied transactions, newest first
	var page ports.Page[domain.Transaction]
	s.getJSON("/transactions?item_id="+item.String(), http.StatusOK, &page)
	s.EqualValues(4, page.TotalCount)
	s.Require().Len(page.Items, 4)
	s.Equal(domain.TransactionDispose, page.Items[0].Type)

	var journaled domain.Transaction
	s.getJSON("/transactions/"+transfer.Transaction.ID.String(), http.StatusOK, &journaled)
	s.Len(journaled.Movements, 2)

	// A location with history cannot be deleted
	s.do(http.MethodDelete, "/locations/"+shelf.String(), nil, http.StatusConflict, nil)

	// Ledger and journal agree
	var report domain.ReconciliationReport
	s.do(http.MethodPost, "/admin/reconcile?sync=true", nil, http.StatusOK, &report)
	s.True(report.Clean())
	s.Equal(2, report.EntriesChecked)
	s.NotEmpty(report.ArchiveKey)

	var queued map[string]string
	s.do(http.MethodPost, "/admin/reconcile", nil, http.StatusAccepted, &queued)
	s.Equal("reconcile-1", queued["task_id"])
}

func (s *StockWorkflowSuite) TestDiscontinueAndDeleteItem() {
	shelf := s.create("/locations", map[string]any{"unit": "Shelf B2"})
	user := s.create("/users", map[string]any{"name": "Lab Technician"})
	item := s.create("/items", map[string]any{"sku": "SF-4002", "name": "Safety glasses", "unit_cost": 5.25, "minimum_stock": 2})

	s.transact(http.StatusCreated, map[string]any{
		"type": "receive", "item_id": item, "quantity": 3, "to_location_id": shelf, "performed_by": user,
	})

	var got domain.Item
	s.do(http.MethodPatch, "/items/"+item.String()+"/status", map[string]any{"discontinued": true}, http.StatusOK, &got)
	s.Equal(domain.ItemStatusDiscontinued, got.Status)

	// Stock remains, so the item cannot be deleted yet
	s.do(http.MethodDelete, "/items/"+item.String(), nil, http.StatusConflict, nil)

	s.transact(http.StatusCreated, map[string]any{
		"type": "withdraw", "item_id": item, "quantity": 3, "from_location_id": shelf, "performed_by": user,
	})
	s.Equal(domain.ItemStatusDiscontinued, s.itemStock(item).Status)

	s.do(http.MethodDelete, "/items/"+item.String(), nil, http.StatusNoContent, nil)
	s.do(http.MethodGet, "/items/"+item.String(), nil, http.StatusNotFound, nil)

	// The SKU is free again
	s.create("/items", map[string]any{"sku": "SF-4002", "name": "Safety glasses, tinted", "unit_cost": 6, "minimum_stock": 2})
}

func (s *StockWorkflowSuite) TestRejectsInvalidTransactions() {
	shelf := s.create("/locations", map[string]any{"unit": "Shelf C3"})
	user := s.create("/users", map[string]any{"name": "Field Engineer"})
	item := s.create("/items", map[string]any{"sku": "CN-5001", "name": "Electrical tape", "unit_cost": "3.15", "minimum_stock": 1})

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{
			name:   "zero_quantity",
			body:   map[string]any{"type": "receive", "item_id": item, "quantity": 0, "to_location_id": shelf, "performed_by": user},
			status: http.StatusBadRequest,
		},
		{
			name:   "transfer_to_same_location",
			body:   map[string]any{"type": "transfer", "item_id": item, "quantity": 1, "from_location_id": shelf, "to_location_id": shelf, "performed_by": user},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown_item",
			body:   map[string]any{"type": "receive", "item_id": uuid.New(), "quantity": 1, "to_location_id": shelf, "performed_by": user},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown_location",
			body:   map[string]any{"type": "receive", "item_id": item, "quantity": 1, "to_location_id": uuid.New(), "performed_by": user},
			status: http.StatusBadRequest,
		},
		{
			name:   "quantity_beyond_ledger_range",
			body:   map[string]any{"type": "receive", "item_id": item, "quantity": int64(domain.MaxQuantity) + 1, "to_location_id": shelf, "performed_by": user},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown_type",
			body:   map[string]any{"type": "borrow", "item_id": item, "quantity": 1, "to_location_id": shelf, "performed_by": user},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.do(http.MethodPost, "/transactions", tt.body, tt.status, nil)
		})
	}

	var page ports.Page[domain.Transaction]
	s.getJSON("/transactions", http.StatusOK, &page)
	s.Zero(page.TotalCount)
}

func (s *StockWorkflowSuite) TestHealth() {
	var health handlers.HealthStatus
	s.getJSON("/health", http.StatusOK, &health)
	s.Equal("healthy", health.Status)

	s.do(http.MethodGet, "/ready", nil, http.StatusOK, nil)
}

// create posts body to path and returns the new resource id
func (s *StockWorkflowSuite) create(path string, body map[string]any) uuid.UUID {
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	s.do(http.MethodPost, path, body, http.StatusCreated, &created)
	s.Require().NotEqual(uuid.Nil, created.ID)
	return created.ID
}

func (s *StockWorkflowSuite) transact(status int, body map[string]any) ports.ProcessResult {
	var result ports.ProcessResult
	s.do(http.MethodPost, "/transactions", body, status, &result)
	return result
}

func (s *StockWorkflowSuite) itemStock(id uuid.UUID) domain.ItemStock {
	var stock domain.ItemStock
	s.getJSON("/items/"+id.String()+"/stock", http.StatusOK, &stock)
	return stock
}

func (s *StockWorkflowSuite) getJSON(path string, status int, out any) {
	s.do(http.MethodGet, path, nil, status, out)
}

func (s *StockWorkflowSuite) do(method, path string, body any, status int, out any) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Require().Equal(status, resp.StatusCode, "%s %s: %s", method, path, raw)

	if out != nil {
		s.Require().NoError(json.Unmarshal(raw, out), "%s %s: %s", method, path, raw)
	}
}
