package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/handlers"
	"github.com/ammerola/stocktrack-be/test/helpers"
	"github.com/ammerola/stocktrack-be/test/mocks"
)

func TestAdminHandler_Reconcile(t *testing.T) {
	report := &domain.ReconciliationReport{ID: uuid.New(), EntriesChecked: 4}

	tests := []struct {
		name           string
		withPublisher  bool
		query          string
		setupMocks     func(*mocks.MockReconciliationService, *mocks.MockEventPublisher)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:          "queues_when_publisher_present",
			withPublisher: true,
			setupMocks: func(r *mocks.MockReconciliationService, p *mocks.MockEventPublisher) {
				p.EXPECT().EnqueueReconciliation(gomock.Any()).Return("task-1", nil)
			},
			expectedStatus: http.StatusAccepted,
			validateBody: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{"task_id":"task-1"}`, string(body))
			},
		},
		{
			name:          "duplicate_queue_is_conflict",
			withPublisher: true,
			setupMocks: func(r *mocks.MockReconciliationService, p *mocks.MockEventPublisher) {
				p.EXPECT().EnqueueReconciliation(gomock.Any()).
					Return("", domain.NewConflictError("a ledger reconciliation is already queued"))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:          "sync_runs_inline",
			withPublisher: true,
			query:         "?sync=true",
			setupMocks: func(r *mocks.MockReconciliationService, p *mocks.MockEventPublisher) {
				r.EXPECT().Run(gomock.Any()).Return(report, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var resp domain.ReconciliationReport
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, report.ID, resp.ID)
				assert.Equal(t, 4, resp.EntriesChecked)
			},
		},
		{
			name: "no_publisher_runs_inline",
			setupMocks: func(r *mocks.MockReconciliationService, p *mocks.MockEventPublisher) {
				r.EXPECT().Run(gomock.Any()).Return(report, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "run_failure",
			setupMocks: func(r *mocks.MockReconciliationService, p *mocks.MockEventPublisher) {
				r.EXPECT().Run(gomock.Any()).Return(nil, errors.New("snapshot failed"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			reconciler := mocks.NewMockReconciliationService(ctrl)
			publisher := mocks.NewMockEventPublisher(ctrl)
			tt.setupMocks(reconciler, publisher)

			var h *handlers.AdminHandler
			if tt.withPublisher {
				h = handlers.NewAdminHandler(reconciler, publisher, helpers.TestLogger())
			} else {
				h = handlers.NewAdminHandler(reconciler, nil, helpers.TestLogger())
			}

			w := httptest.NewRecorder()
			h.Reconcile(w, httptest.NewRequest(http.MethodPost, "/admin/reconcile"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

type fakeInspector struct {
	err error
}

func (f fakeInspector) Queues() ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"critical"}, nil
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: queue, Size: 3, Pending: 2, Active: 1}, nil
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name           string
		setup          func(*mocks.MockDatabase) handlers.HealthDeps
		expectedHealth int
		expectedReady  int
		validate       func(*testing.T, map[string]any)
	}{
		{
			name: "all_healthy",
			setup: func(db *mocks.MockDatabase) handlers.HealthDeps {
				db.EXPECT().Ping(gomock.Any()).Return(nil).Times(2)
				db.EXPECT().Health(gomock.Any()).Return(map[string]interface{}{"total_conns": 4})
				return handlers.HealthDeps{
					Database: db,
					Cache:    pingFunc(func(context.Context) error { return nil }),
					Queues:   fakeInspector{},
					Version:  "1.2.3",
					Store:    "postgres",
				}
			},
			expectedHealth: http.StatusOK,
			expectedReady:  http.StatusOK,
			validate: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "healthy", body["status"])
				assert.Equal(t, "1.2.3", body["version"])
			},
		},
		{
			name: "memory_store_without_dependencies",
			setup: func(db *mocks.MockDatabase) handlers.HealthDeps {
				return handlers.HealthDeps{Store: "memory"}
			},
			expectedHealth: http.StatusOK,
			expectedReady:  http.StatusOK,
			validate: func(t *testing.T, body map[string]any) {
				services := body["services"].(map[string]any)
				assert.Equal(t, "disabled", services["database"].(map[string]any)["status"])
			},
		},
		{
			name: "redis_down_degrades_but_stays_ready",
			setup: func(db *mocks.MockDatabase) handlers.HealthDeps {
				db.EXPECT().Ping(gomock.Any()).Return(nil).Times(2)
				db.EXPECT().Health(gomock.Any()).Return(nil)
				return handlers.HealthDeps{
					Database: db,
					Cache:    pingFunc(func(context.Context) error { return down }),
				}
			},
			expectedHealth: http.StatusServiceUnavailable,
			expectedReady:  http.StatusOK,
			validate: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "degraded", body["status"])
			},
		},
		{
			name: "database_down",
			setup: func(db *mocks.MockDatabase) handlers.HealthDeps {
				db.EXPECT().Ping(gomock.Any()).Return(down).Times(2)
				return handlers.HealthDeps{Database: db, Queues: fakeInspector{err: down}}
			},
			expectedHealth: http.StatusServiceUnavailable,
			expectedReady:  http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			h := handlers.NewHealthHandler(tt.setup(mocks.NewMockDatabase(ctrl)), helpers.TestLogger())

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.expectedHealth, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.validate != nil {
				tt.validate(t, body)
			}

			w = httptest.NewRecorder()
			h.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.expectedReady, w.Code)
		})
	}
}
