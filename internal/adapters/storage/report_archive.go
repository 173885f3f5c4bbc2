// internal/adapters/storage/report_archive.go
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

const reportPrefix = "reconciliation"

// ReportArchive writes reconciliation reports as JSON objects
type ReportArchive struct {
	store  ObjectStore
	logger *slog.Logger
}

// Statically assert that *ReportArchive implements the ReportArchiver interface.
var _ ports.ReportArchiver = (*ReportArchive)(nil)

// NewReportArchive creates a report archive over store
func NewReportArchive(store ObjectStore, logger *slog.Logger) *ReportArchive {
	return &ReportArchive{
		store:  store,
		logger: logger.With(slog.String("component", "report_archive")),
	}
}

// ReportKey is the object key a report is archived under
func ReportKey(report *domain.ReconciliationReport) string {
	return path.Join(reportPrefix, report.StartedAt.UTC().Format("20060102T150405Z")+".json")
}

// Archive uploads report and returns its object key
func (a *ReportArchive) Archive(ctx context.Context, report *domain.ReconciliationReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	key := ReportKey(report)
	if _, err := a.store.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return "", fmt.Errorf("failed to archive report: %w", err)
	}

	a.logger.InfoContext(ctx, "archived reconciliation report",
		slog.String("report_id", report.ID.String()),
		slog.String("key", key),
		slog.Int("drifts", len(report.Drifts)))

	return key, nil
}

// Load reads an archived report back
func (a *ReportArchive) Load(ctx context.Context, key string) (*domain.ReconciliationReport, error) {
	data, err := a.store.Download(ctx, key)
	if err != nil {
		return nil, err
	}

	var report domain.ReconciliationReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}
