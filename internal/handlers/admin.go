// internal/handlers/admin.go
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

// AdminHandler triggers maintenance jobs
type AdminHandler struct {
	reconciler ports.ReconciliationService
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

// NewAdminHandler creates a new admin handler. publisher may be nil, in which
// case jobs run inline.
func NewAdminHandler(reconciler ports.ReconciliationService, publisher ports.EventPublisher, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		reconciler: reconciler,
		publisher:  publisher,
		logger:     logger.With(slog.String("handler", "admin")),
	}
}

// Reconcile handles POST /admin/reconcile. The run is queued for the worker
// unless ?sync=true is given or no queue is configured.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sync, _ := strconv.ParseBool(r.URL.Query().Get("sync"))

	if h.publisher != nil && !sync {
		taskID, err := h.publisher.EnqueueReconciliation(ctx)
		if err != nil {
			handleServiceError(w, r, h.logger, err, "enqueue reconciliation")
			return
		}

		h.logger.InfoContext(ctx, "reconciliation queued", slog.String("task_id", taskID))
		respondJSON(w, h.logger, http.StatusAccepted, map[string]string{"task_id": taskID})
		return
	}

	report, err := h.reconciler.Run(ctx)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "run reconciliation")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, report)
}
