// internal/core/domain/reconciliation.go
package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// DriftKind classifies a reconciliation mismatch
type DriftKind string

const (
	// DriftQuantity means the ledger row disagrees with its journal
	DriftQuantity DriftKind = "quantity_mismatch"
	// DriftMissingEntry means the journal nets to stock but no ledger row exists
	DriftMissingEntry DriftKind = "missing_entry"
	// DriftUnjournaled means a ledger row holds stock no movement explains
	DriftUnjournaled DriftKind = "unjournaled_entry"
)

// Drift is a single (item, location) pair where the ledger and the journal disagree
type Drift struct {
	Kind       DriftKind `json:"kind"`
	ItemID     uuid.UUID `json:"item_id"`
	LocationID uuid.UUID `json:"location_id"`
	Ledger     int       `json:"ledger_quantity"`
	Journal    int       `json:"journal_quantity"`
	Difference int       `json:"difference"`
}

// Key returns the ledger row the drift refers to
func (d Drift) Key() EntryKey {
	return EntryKey{ItemID: d.ItemID, LocationID: d.LocationID}
}

// ReconciliationReport is produced by a ledger reconciliation run
type ReconciliationReport struct {
	ID             uuid.UUID `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	EntriesChecked int       `json:"entries_checked"`
	Drifts         []Drift   `json:"drifts"`
	ArchiveKey     string    `json:"archive_key,omitempty"`
}

// Clean reports whether no drift was found
func (r *ReconciliationReport) Clean() bool {
	return len(r.Drifts) == 0
}

// Reconcile compares ledger quantities against journal sums. Drifts are
// ordered by entry key.
func Reconcile(ledger, journal map[EntryKey]int) []Drift {
	var drifts []Drift

	for key, qty := range ledger {
		net, ok := journal[key]
		switch {
		case !ok && qty != 0:
			drifts = append(drifts, Drift{Kind: DriftUnjournaled, ItemID: key.ItemID, LocationID: key.LocationID, Ledger: qty, Difference: qty})
		case ok && net != qty:
			drifts = append(drifts, Drift{Kind: DriftQuantity, ItemID: key.ItemID, LocationID: key.LocationID, Ledger: qty, Journal: net, Difference: qty - net})
		}
	}

	for key, net := range journal {
		if _, ok := ledger[key]; ok || net == 0 {
			continue
		}
		drifts = append(drifts, Drift{Kind: DriftMissingEntry, ItemID: key.ItemID, LocationID: key.LocationID, Journal: net, Difference: -net})
	}

	sort.Slice(drifts, func(i, j int) bool { return drifts[i].Key().Less(drifts[j].Key()) })
	return drifts
}
