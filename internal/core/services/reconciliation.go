// internal/core/services/reconciliation.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

// ReconciliationService detects ledger rows that drifted from their journal
type ReconciliationService struct {
	source   ports.ReconciliationSource
	archiver ports.ReportArchiver
	logger   *slog.Logger
	now      func() time.Time
}

// Statically assert that *ReconciliationService implements the ReconciliationService interface.
var _ ports.ReconciliationService = (*ReconciliationService)(nil)

// NewReconciliationService creates a new reconciliation service. archiver may be nil.
func NewReconciliationService(source ports.ReconciliationSource, archiver ports.ReportArchiver, logger *slog.Logger) *ReconciliationService {
	return &ReconciliationService{
		source:   source,
		archiver: archiver,
		logger:   logger.With(slog.String("service", "reconciliation")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run snapshots the ledger and journal, diffs them and archives the report
func (s *ReconciliationService) Run(ctx context.Context) (*domain.ReconciliationReport, error) {
	report := &domain.ReconciliationReport{
		ID:        uuid.New(),
		StartedAt: s.now(),
	}

	ledger, journal, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot ledger: %w", err)
	}

	report.EntriesChecked = len(ledger)
	report.Drifts = domain.Reconcile(ledger, journal)
	if report.Drifts == nil {
		report.Drifts = []domain.Drift{}
	}
	report.FinishedAt = s.now()

	if s.archiver != nil {
		key, err := s.archiver.Archive(ctx, report)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to archive reconciliation report",
				slog.String("report_id", report.ID.String()),
				slog.String("error", err.Error()))
		} else {
			report.ArchiveKey = key
		}
	}

	level := slog.LevelInfo
	if !report.Clean() {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "ledger reconciliation finished",
		slog.String("report_id", report.ID.String()),
		slog.Int("entries_checked", report.EntriesChecked),
		slog.Int("drifts", len(report.Drifts)),
		slog.String("archive_key", report.ArchiveKey))

	return report, nil
}
