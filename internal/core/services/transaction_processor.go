// internal/core/services/transaction_processor.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

// TransactionProcessor validates transactions and applies them to the ledger
type TransactionProcessor struct {
	uow          ports.UnitOfWork
	items        ports.ItemRepository
	locations    ports.LocationRepository
	users        ports.UserRepository
	transactions ports.TransactionRepository
	publisher    ports.EventPublisher
	cache        ports.CacheRepository
	policy       domain.OverdrawPolicy
	logger       *slog.Logger
	now          func() time.Time
}

// Statically assert that *TransactionProcessor implements the TransactionService interface.
var _ ports.TransactionService = (*TransactionProcessor)(nil)

// ProcessorDeps groups the collaborators of the processor
type ProcessorDeps struct {
	UnitOfWork   ports.UnitOfWork
	Items        ports.ItemRepository
	Locations    ports.LocationRepository
	Users        ports.UserRepository
	Transactions ports.TransactionRepository
	Publisher    ports.EventPublisher  // optional
	Cache        ports.CacheRepository // optional
}

// NewTransactionProcessor creates a new transaction processor
func NewTransactionProcessor(deps ProcessorDeps, policy domain.OverdrawPolicy, logger *slog.Logger) *TransactionProcessor {
	if policy == "" {
		policy = domain.OverdrawReject
	}
	return &TransactionProcessor{
		uow:          deps.UnitOfWork,
		items:        deps.Items,
		locations:    deps.Locations,
		users:        deps.Users,
		transactions: deps.Transactions,
		publisher:    deps.Publisher,
		cache:        deps.Cache,
		policy:       policy,
		logger:       logger.With(slog.String("service", "transaction_processor")),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Process validates tx, applies its ledger effect and persists it, all in one
// unit of work.
func (p *TransactionProcessor) Process(ctx context.Context, tx *domain.Transaction) (*ports.ProcessResult, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	item, err := p.resolveReferences(ctx, tx)
	if err != nil {
		return nil, err
	}

	plan, err := domain.PlanMovements(tx)
	if err != nil {
		return nil, err
	}

	tx.PrepareForStorage()

	var (
		results   []domain.LedgerResult
		postTotal int
	)

	err = p.uow.WithinTx(ctx, func(ctx context.Context, scope ports.TxScope) error {
		ledger := scope.Ledger()

		entries, err := lockEntries(ctx, ledger, plan)
		if err != nil {
			return err
		}

		results, err = p.apply(ctx, ledger, plan, entries)
		if err != nil {
			return err
		}

		tx.Movements = journal(tx.ID, results, tx.CreatedAt)
		if err := scope.Transactions().Save(ctx, tx); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}

		postTotal, err = ledger.ItemTotal(ctx, tx.ItemID)
		if err != nil {
			return fmt.Errorf("failed to total item stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	preTotal := postTotal - netDelta(results)
	prevStatus := domain.EvaluateStatus(preTotal, item.MinimumStock, item.Status)
	status := domain.EvaluateStatus(postTotal, item.MinimumStock, item.Status)

	p.afterCommit(ctx, tx, item, prevStatus, status, postTotal)

	p.logger.InfoContext(ctx, "processed transaction",
		slog.String("transaction_id", tx.ID.String()),
		slog.String("type", string(tx.Type)),
		slog.String("item_id", tx.ItemID.String()),
		slog.Int("quantity", tx.Quantity),
		slog.Int("total_quantity", postTotal),
		slog.String("item_status", string(status)))

	return &ports.ProcessResult{
		Transaction: tx,
		Movements:   results,
		ItemStatus:  status,
	}, nil
}

// resolveReferences checks that the item, locations and performer exist
func (p *TransactionProcessor) resolveReferences(ctx context.Context, tx *domain.Transaction) (*domain.Item, error) {
	item, err := p.items.FindByID(ctx, tx.ItemID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewValidationError("item_id", "does not reference an existing item")
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}

	refs := []struct {
		field string
		id    *uuid.UUID
	}{
		{"from_location_id", tx.FromLocationID},
		{"to_location_id", tx.ToLocationID},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		if _, err := p.locations.FindByID(ctx, *ref.id); err != nil {
			if isNotFound(err) {
				return nil, domain.NewValidationError(ref.field, "does not reference an existing location")
			}
			return nil, fmt.Errorf("failed to load location: %w", err)
		}
	}

	if _, err := p.users.FindByID(ctx, tx.PerformedBy); err != nil {
		if isNotFound(err) {
			return nil, domain.NewValidationError("performed_by", "does not reference an existing user")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return item, nil
}

// lockEntries reads every entry the plan touches in key order so concurrent
// transactions lock rows in the same sequence.
func lockEntries(ctx context.Context, ledger ports.LedgerStore, plan []domain.PlannedMovement) (map[domain.EntryKey]*domain.StockEntry, error) {
	keys := make([]domain.EntryKey, 0, len(plan))
	for _, m := range plan {
		keys = append(keys, m.Key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	entries := make(map[domain.EntryKey]*domain.StockEntry, len(keys))
	for _, key := range keys {
		if _, seen := entries[key]; seen {
			continue
		}
		entry, err := ledger.GetEntry(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read stock entry: %w", err)
		}
		entries[key] = entry
	}
	return entries, nil
}

// apply runs the plan against the ledger under the configured overdraw policy
func (p *TransactionProcessor) apply(ctx context.Context, ledger ports.LedgerStore, plan []domain.PlannedMovement,
	entries map[domain.EntryKey]*domain.StockEntry) ([]domain.LedgerResult, error) {

	results := make([]domain.LedgerResult, 0, len(plan))
	// carried is what the preceding decrement actually moved; a transfer credits only that
	carried := -1

	for _, m := range plan {
		switch m.Direction {
		case domain.DirectionOut:
			available := 0
			if e := entries[m.Key]; e != nil {
				available = e.Quantity
			}
			if available < m.Quantity && p.policy == domain.OverdrawReject {
				return nil, &domain.InsufficientStockError{
					ItemID:     m.Key.ItemID,
					LocationID: m.Key.LocationID,
					Available:  available,
					Requested:  m.Quantity,
				}
			}

			res, err := ledger.Decrement(ctx, m.Key, m.Quantity)
			if err != nil {
				return nil, fmt.Errorf("failed to decrement stock: %w", err)
			}
			if res.Clamped || !res.Applied {
				p.logger.WarnContext(ctx, "stock decrement clamped",
					slog.String("item_id", m.Key.ItemID.String()),
					slog.String("location_id", m.Key.LocationID.String()),
					slog.Int("requested", res.Requested),
					slog.Int("moved", res.Moved),
					slog.String("reason", res.Reason))
			}
			results = append(results, res)
			carried = res.Moved

		case domain.DirectionIn:
			delta := m.Quantity
			if carried >= 0 {
				delta = carried
			}
			if delta == 0 {
				results = append(results, skippedIncrement(m, entries[m.Key]))
				continue
			}

			res, err := ledger.Increment(ctx, m.Key, delta)
			if err != nil {
				return nil, fmt.Errorf("failed to increment stock: %w", err)
			}
			res.Requested = m.Quantity
			if delta < m.Quantity {
				res.Clamped = true
				res.Reason = domain.ReasonClamped
			}
			results = append(results, res)
		}
	}

	return results, nil
}

// skippedIncrement reports a transfer credit that had nothing to carry
func skippedIncrement(m domain.PlannedMovement, entry *domain.StockEntry) domain.LedgerResult {
	qty := 0
	if entry != nil {
		qty = entry.Quantity
	}
	return domain.LedgerResult{
		ItemID:     m.Key.ItemID,
		LocationID: m.Key.LocationID,
		Direction:  domain.DirectionIn,
		Requested:  m.Quantity,
		Before:     qty,
		After:      qty,
		Clamped:    true,
		Reason:     domain.ReasonClamped,
	}
}

func journal(txID uuid.UUID, results []domain.LedgerResult, at time.Time) []domain.StockMovement {
	movements := make([]domain.StockMovement, 0, len(results))
	for _, res := range results {
		if !res.Applied {
			continue
		}
		movements = append(movements, domain.NewStockMovement(txID, res, at))
	}
	return movements
}

func netDelta(results []domain.LedgerResult) int {
	net := 0
	for _, res := range results {
		net += res.Delta()
	}
	return net
}

// afterCommit invalidates cached views and raises a stock alert when the item
// crossed into an alerting status. Failures here never undo the transaction.
func (p *TransactionProcessor) afterCommit(ctx context.Context, tx *domain.Transaction, item *domain.Item,
	prev, next domain.ItemStatus, total int) {

	if p.cache != nil {
		if err := p.cache.Delete(ctx, ItemStockCacheKey(tx.ItemID), dashboardCacheKey); err != nil {
			p.logger.WarnContext(ctx, "failed to invalidate stock cache",
				slog.String("item_id", tx.ItemID.String()),
				slog.String("error", err.Error()))
		}
	}

	if p.publisher == nil || !domain.ShouldAlert(prev, next) {
		return
	}

	alert := domain.StockAlert{
		ItemID:         item.ID,
		SKU:            item.SKU,
		Name:           item.Name,
		Status:         next,
		PreviousStatus: prev,
		TotalQuantity:  total,
		MinimumStock:   item.MinimumStock,
		TransactionID:  tx.ID,
		RaisedAt:       p.now(),
	}
	if err := p.publisher.PublishStockAlert(ctx, alert); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish stock alert",
			slog.String("item_id", item.ID.String()),
			slog.String("status", string(next)),
			slog.String("error", err.Error()))
	}
}

// GetByID returns a transaction with its movements
func (p *TransactionProcessor) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tx, err := p.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// List returns transactions newest first
func (p *TransactionProcessor) List(ctx context.Context, filter domain.TransactionFilter) (*ports.Page[domain.Transaction], error) {
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, domain.NewValidationError("type", "is not a valid transaction type")
	}

	txs, total, err := p.transactions.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &ports.Page[domain.Transaction]{
		Items:      txs,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}
