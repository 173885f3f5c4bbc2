package domain_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
)

func locPtr(id uuid.UUID) *uuid.UUID { return &id }

func TestPlanMovements(t *testing.T) {
	item := uuid.New()
	a, b := uuid.New(), uuid.New()

	tests := []struct {
		name     string
		tx       domain.Transaction
		expected []domain.PlannedMovement
		errorMsg string
	}{
		{
			name: "receive_increments_destination",
			tx:   domain.Transaction{Type: domain.TransactionReceive, ItemID: item, Quantity: 5, ToLocationID: locPtr(a)},
			expected: []domain.PlannedMovement{
				{Key: domain.EntryKey{ItemID: item, LocationID: a}, Direction: domain.DirectionIn, Quantity: 5},
			},
		},
		{
			name:     "receive_requires_destination",
			tx:       domain.Transaction{Type: domain.TransactionReceive, ItemID: item, Quantity: 5, FromLocationID: locPtr(a)},
			errorMsg: "to_location_id is required for receive",
		},
		{
			name: "withdraw_decrements_source",
			tx:   domain.Transaction{Type: domain.TransactionWithdraw, ItemID: item, Quantity: 3, FromLocationID: locPtr(a)},
			expected: []domain.PlannedMovement{
				{Key: domain.EntryKey{ItemID: item, LocationID: a}, Direction: domain.DirectionOut, Quantity: 3},
			},
		},
		{
			name:     "withdraw_requires_source",
			tx:       domain.Transaction{Type: domain.TransactionWithdraw, ItemID: item, Quantity: 3},
			errorMsg: "from_location_id is required for withdraw",
		},
		{
			name: "transfer_decrements_then_increments",
			tx:   domain.Transaction{Type: domain.TransactionTransfer, ItemID: item, Quantity: 2, FromLocationID: locPtr(a), ToLocationID: locPtr(b)},
			expected: []domain.PlannedMovement{
				{Key: domain.EntryKey{ItemID: item, LocationID: a}, Direction: domain.DirectionOut, Quantity: 2},
				{Key: domain.EntryKey{ItemID: item, LocationID: b}, Direction: domain.DirectionIn, Quantity: 2},
			},
		},
		{
			name:     "transfer_to_same_location_is_rejected",
			tx:       domain.Transaction{Type: domain.TransactionTransfer, ItemID: item, Quantity: 2, FromLocationID: locPtr(a), ToLocationID: locPtr(a)},
			errorMsg: "to_location_id must differ from from_location_id",
		},
		{
			name:     "transfer_requires_destination",
			tx:       domain.Transaction{Type: domain.TransactionTransfer, ItemID: item, Quantity: 2, FromLocationID: locPtr(a)},
			errorMsg: "to_location_id is required for transfer",
		},
		{
			name: "dispose_decrements_source",
			tx:   domain.Transaction{Type: domain.TransactionDispose, ItemID: item, Quantity: 1, FromLocationID: locPtr(b)},
			expected: []domain.PlannedMovement{
				{Key: domain.EntryKey{ItemID: item, LocationID: b}, Direction: domain.DirectionOut, Quantity: 1},
			},
		},
		{
			name: "adjust_up_increments_destination",
			tx:   domain.Transaction{Type: domain.TransactionAdjust, ItemID: item, Quantity: 4, ToLocationID: locPtr(b)},
			expected: []domain.PlannedMovement{
				{Key: domain.EntryKey{ItemID: item, LocationID: b}, Direction: domain.DirectionIn, Quantity: 4},
			},
		},
		{
			name: "adjust_down_decrements_source",
			tx:   domain.Transaction{Type: domain.TransactionAdjust, ItemID: item, Quantity: 4, FromLocationID: locPtr(a)},
			expected: []domain.PlannedMovement{
				{Key: domain.EntryKey{ItemID: item, LocationID: a}, Direction: domain.DirectionOut, Quantity: 4},
			},
		},
		{
			name:     "adjust_with_both_locations_is_rejected",
			tx:       domain.Transaction{Type: domain.TransactionAdjust, ItemID: item, Quantity: 4, FromLocationID: locPtr(a), ToLocationID: locPtr(b)},
			errorMsg: "adjust takes exactly one of from_location_id or to_location_id",
		},
		{
			name:     "adjust_without_location_is_rejected",
			tx:       domain.Transaction{Type: domain.TransactionAdjust, ItemID: item, Quantity: 4},
			errorMsg: "adjust takes exactly one of from_location_id or to_location_id",
		},
		{
			name:     "unknown_type_is_rejected",
			tx:       domain.Transaction{Type: "borrow", ItemID: item, Quantity: 4, FromLocationID: locPtr(a)},
			errorMsg: `type unsupported transaction type "borrow"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			movements, err := domain.PlanMovements(&tt.tx)
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrValidation))
				assert.Equal(t, tt.errorMsg, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, movements)
		})
	}
}

func TestPlanMovements_EveryTypeHasAnEffect(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	for _, typ := range domain.AllTransactionTypes {
		t.Run(string(typ), func(t *testing.T) {
			tx := &domain.Transaction{Type: typ, ItemID: uuid.New(), Quantity: 1}
			switch typ {
			case domain.TransactionReceive:
				tx.ToLocationID = &b
			case domain.TransactionTransfer:
				tx.FromLocationID, tx.ToLocationID = &a, &b
			default:
				tx.FromLocationID = &a
			}

			movements, err := domain.PlanMovements(tx)
			require.NoError(t, err)
			assert.NotEmpty(t, movements)
		})
	}
}

func TestTransaction_Validate(t *testing.T) {
	loc := uuid.New()
	base := func() domain.Transaction {
		return domain.Transaction{
			Type:         domain.TransactionReceive,
			ItemID:       uuid.New(),
			Quantity:     1,
			ToLocationID: &loc,
			PerformedBy:  uuid.New(),
		}
	}

	tests := []struct {
		name     string
		mutate   func(*domain.Transaction)
		errorMsg string
	}{
		{name: "valid_receive", mutate: func(*domain.Transaction) {}},
		{name: "zero_quantity", mutate: func(tx *domain.Transaction) { tx.Quantity = 0 }, errorMsg: "quantity must be positive"},
		{name: "negative_quantity", mutate: func(tx *domain.Transaction) { tx.Quantity = -3 }, errorMsg: "quantity must be positive"},
		{name: "quantity_at_column_limit", mutate: func(tx *domain.Transaction) { tx.Quantity = domain.MaxQuantity }},
		{name: "quantity_over_column_limit", mutate: func(tx *domain.Transaction) { tx.Quantity = domain.MaxQuantity + 1 }, errorMsg: "quantity must not exceed 2147483647"},
		{name: "missing_item", mutate: func(tx *domain.Transaction) { tx.ItemID = uuid.Nil }, errorMsg: "item_id is required"},
		{name: "missing_performer", mutate: func(tx *domain.Transaction) { tx.PerformedBy = uuid.Nil }, errorMsg: "performed_by is required"},
		{name: "unknown_type", mutate: func(tx *domain.Transaction) { tx.Type = "" }, errorMsg: "type must be one of receive, withdraw, transfer, dispose, adjust"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := base()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.errorMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.errorMsg, err.Error())
		})
	}
}

func TestDecrementResult(t *testing.T) {
	key := domain.EntryKey{ItemID: uuid.New(), LocationID: uuid.New()}

	t.Run("within_available", func(t *testing.T) {
		res := domain.DecrementResult(key, 10, 4, true)
		assert.True(t, res.Applied)
		assert.False(t, res.Clamped)
		assert.Equal(t, 4, res.Moved)
		assert.Equal(t, 6, res.After)
		assert.Equal(t, -4, res.Delta())
	})

	t.Run("over_available_clamps_at_zero", func(t *testing.T) {
		res := domain.DecrementResult(key, 3, 5, true)
		assert.True(t, res.Applied)
		assert.True(t, res.Clamped)
		assert.Equal(t, domain.ReasonClamped, res.Reason)
		assert.Equal(t, 3, res.Moved)
		assert.Equal(t, 0, res.After)
	})

	t.Run("missing_entry_is_noop", func(t *testing.T) {
		res := domain.DecrementResult(key, 0, 5, false)
		assert.False(t, res.Applied)
		assert.Equal(t, domain.ReasonNoEntry, res.Reason)
		assert.Equal(t, 0, res.Moved)
		assert.Equal(t, 0, res.Delta())
	})
}

func TestIncrementResult(t *testing.T) {
	key := domain.EntryKey{ItemID: uuid.New(), LocationID: uuid.New()}
	res := domain.IncrementResult(key, 7, 3)
	assert.True(t, res.Applied)
	assert.Equal(t, 10, res.After)
	assert.Equal(t, 3, res.Delta())
}

func TestParseOverdrawPolicy(t *testing.T) {
	p, err := domain.ParseOverdrawPolicy("")
	require.NoError(t, err)
	assert.Equal(t, domain.OverdrawReject, p)

	p, err = domain.ParseOverdrawPolicy("clamp")
	require.NoError(t, err)
	assert.Equal(t, domain.OverdrawClamp, p)

	_, err = domain.ParseOverdrawPolicy("ignore")
	assert.Error(t, err)
}

func TestReconcile(t *testing.T) {
	k1 := domain.EntryKey{ItemID: uuid.New(), LocationID: uuid.New()}
	k2 := domain.EntryKey{ItemID: uuid.New(), LocationID: uuid.New()}
	k3 := domain.EntryKey{ItemID: uuid.New(), LocationID: uuid.New()}
	k4 := domain.EntryKey{ItemID: uuid.New(), LocationID: uuid.New()}

	ledger := map[domain.EntryKey]int{k1: 10, k2: 7, k3: 4}
	journal := map[domain.EntryKey]int{k1: 10, k2: 5, k4: 2}

	drifts := domain.Reconcile(ledger, journal)
	require.Len(t, drifts, 3)

	byKind := map[domain.DriftKind]domain.Drift{}
	for _, d := range drifts {
		byKind[d.Kind] = d
	}

	assert.Equal(t, 2, byKind[domain.DriftQuantity].Difference)
	assert.Equal(t, k2.ItemID, byKind[domain.DriftQuantity].ItemID)
	assert.Equal(t, 4, byKind[domain.DriftUnjournaled].Ledger)
	assert.Equal(t, -2, byKind[domain.DriftMissingEntry].Difference)
}

func TestReconcile_OrdersDriftsByEntryKey(t *testing.T) {
	ledger := map[domain.EntryKey]int{}
	journal := map[domain.EntryKey]int{}
	for i := 0; i < 20; i++ {
		ledger[domain.EntryKey{ItemID: uuid.New(), LocationID: uuid.New()}] = i + 1
		journal[domain.EntryKey{ItemID: uuid.New(), LocationID: uuid.New()}] = i + 1
	}

	first := domain.Reconcile(ledger, journal)
	require.Len(t, first, 40)
	for i := 1; i < len(first); i++ {
		assert.True(t, first[i-1].Key().Less(first[i].Key()), "drift %d out of order", i)
	}

	for run := 0; run < 5; run++ {
		assert.Equal(t, first, domain.Reconcile(ledger, journal))
	}
}
