package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
	"github.com/ammerola/stocktrack-be/internal/handlers"
	"github.com/ammerola/stocktrack-be/test/helpers"
	"github.com/ammerola/stocktrack-be/test/mocks"
)

func newCatalogRouter(t *testing.T) (http.Handler, *mocks.MockCatalogService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockCatalogService(ctrl)

	router := handlers.NewRouter(handlers.RouterDeps{
		Transactions:   mocks.NewMockTransactionService(ctrl),
		Stock:          mocks.NewMockStockService(ctrl),
		Catalog:        svc,
		Reconciliation: mocks.NewMockReconciliationService(ctrl),
	}, handlers.RouterConfig{}, helpers.TestLogger())
	return router, svc
}

func TestCatalogHandler_Items(t *testing.T) {
	item := helpers.CreateTestItem()
	categoryID := uuid.New()

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		setupMocks     func(*mocks.MockCatalogService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:   "create_item",
			method: http.MethodPost,
			path:   "/items",
			body:   `{"sku":"CBL-100","name":"Patch cable","unit_cost":"3.25","minimum_stock":10,"category_id":"` + categoryID.String() + `"}`,
			setupMocks: func(m *mocks.MockCatalogService) {
				m.EXPECT().CreateItem(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, i *domain.Item) error {
						assert.Equal(t, "CBL-100", i.SKU)
						assert.True(t, decimal.RequireFromString("3.25").Equal(i.UnitCost))
						require.NotNil(t, i.CategoryID)
						assert.Equal(t, categoryID, *i.CategoryID)
						i.ID = uuid.New()
						i.Status = domain.ItemStatusOutOfStock
						return nil
					})
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body []byte) {
				var resp domain.Item
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.NotEqual(t, uuid.Nil, resp.ID)
				assert.Equal(t, domain.ItemStatusOutOfStock, resp.Status)
			},
		},
		{
			name:   "create_duplicate_sku",
			method: http.MethodPost,
			path:   "/items",
			body:   `{"sku":"CBL-100","name":"Patch cable"}`,
			setupMocks: func(m *mocks.MockCatalogService) {
				m.EXPECT().CreateItem(gomock.Any(), gomock.Any()).
					Return(domain.NewConflictError("sku %q already exists", "CBL-100"))
			},
			expectedStatus: http.StatusConflict,
			validateBody: func(t *testing.T, body []byte) {
				assert.Equal(t, `sku "CBL-100" already exists`, decodeError(t, body)["error"])
			},
		},
		{
			name:   "get_item",
			method: http.MethodGet,
			path:   "/items/" + item.ID.String(),
			setupMocks: func(m *mocks.MockCatalogService) {
				m.EXPECT().GetItem(gomock.Any(), item.ID).Return(item, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "list_items_with_filters",
			method: http.MethodGet,
			path:   "/items?search=cable&status=low_stock&sort_by=sku&sort_order=desc&category_id=" + categoryID.String(),
			setupMocks: func(m *mocks.MockCatalogService) {
				m.EXPECT().ListItems(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, f domain.ItemFilter) (*ports.Page[domain.Item], error) {
						assert.Equal(t, "cable", f.Search)
						assert.Equal(t, domain.ItemStatusLowStock, f.Status)
						assert.Equal(t, "sku", f.SortBy)
						assert.Equal(t, "desc", f.SortOrder)
						require.NotNil(t, f.CategoryID)
						assert.Equal(t, 50, f.Limit)
						return &ports.Page[domain.Item]{Items: []domain.Item{*item}, TotalCount: 1, Limit: 50}, nil
					})
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var page ports.Page[domain.Item]
				require.NoError(t, json.Unmarshal(body, &page))
				assert.EqualValues(t, 1, page.TotalCount)
				require.Len(t, page.Items, 1)
			},
		},
		{
			name:   "update_item",
			method: http.MethodPut,
			path:   "/items/" + item.ID.String(),
			body:   `{"sku":"CBL-100","name":"Patch cable 2m","minimum_stock":4}`,
			setupMocks: func(m *mocks.MockCatalogService) {
				m.EXPECT().UpdateItem(gomock.Any(), item.ID, gomock.Any()).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "discontinue_item",
			method: http.MethodPatch,
			path:   "/items/" + item.ID.String() + "/status",
			body:   `{"discontinued":true}`,
			setupMocks: func(m *mocks.MockCatalogService) {
				discontinued := *item
				discontinued.Status = domain.ItemStatusDiscontinued
				m.EXPECT().SetDiscontinued(gomock.Any(), item.ID, true).Return(&discontinued, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var resp domain.Item
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, domain.ItemStatusDiscontinued, resp.Status)
			},
		},
		{
			name:           "status_requires_flag",
			method:         http.MethodPatch,
			path:           "/items/" + item.ID.String() + "/status",
			body:           `{}`,
			setupMocks:     func(m *mocks.MockCatalogService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				assert.Equal(t, "discontinued", decodeError(t, body)["field"])
			},
		},
		{
			name:   "delete_item_with_stock",
			method: http.MethodDelete,
			path:   "/items/" + item.ID.String(),
			setupMocks: func(m *mocks.MockCatalogService) {
				m.EXPECT().DeleteItem(gomock.Any(), item.ID).
					Return(domain.NewConflictError("item still holds %d units", 3))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:   "delete_item",
			method: http.MethodDelete,
			path:   "/items/" + item.ID.String(),
			setupMocks: func(m *mocks.MockCatalogService) {
				m.EXPECT().DeleteItem(gomock.Any(), item.ID).Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, svc := newCatalogRouter(t)
			tt.setupMocks(svc)

			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestCatalogHandler_Locations(t *testing.T) {
	loc := helpers.CreateTestLocation(func(l *domain.Location) {
		l.Building, l.Room, l.Unit = "Main", "B12", "Shelf 4"
	})

	t.Run("create_location_has_display_name", func(t *testing.T) {
		router, svc := newCatalogRouter(t)
		svc.EXPECT().CreateLocation(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, l *domain.Location) error {
				l.ID = uuid.New()
				return nil
			})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/locations",
			bytes.NewBufferString(`{"building":"Main","room":"B12","unit":"Shelf 4"}`)))

		require.Equal(t, http.StatusCreated, w.Code)
		var resp handlers.LocationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Main / B12 / Shelf 4", resp.DisplayName)
		assert.Equal(t, "Shelf 4", resp.Unit)
	})

	t.Run("list_locations", func(t *testing.T) {
		router, svc := newCatalogRouter(t)
		svc.EXPECT().ListLocations(gomock.Any()).Return([]domain.Location{*loc}, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/locations", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp []handlers.LocationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, loc.DisplayName(), resp[0].DisplayName)
	})

	t.Run("delete_location_in_use", func(t *testing.T) {
		router, svc := newCatalogRouter(t)
		svc.EXPECT().DeleteLocation(gomock.Any(), loc.ID).
			Return(domain.NewConflictError("location is referenced by transactions"))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/locations/"+loc.ID.String(), nil))

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("get_missing_location", func(t *testing.T) {
		router, svc := newCatalogRouter(t)
		svc.EXPECT().GetLocation(gomock.Any(), loc.ID).Return(nil, domain.NewNotFoundError("location", loc.ID))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/locations/"+loc.ID.String(), nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCatalogHandler_CategoriesAndUsers(t *testing.T) {
	t.Run("create_category_ignores_client_id", func(t *testing.T) {
		router, svc := newCatalogRouter(t)
		clientID := uuid.New()
		svc.EXPECT().CreateCategory(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c *domain.Category) error {
				assert.Equal(t, uuid.Nil, c.ID)
				assert.Equal(t, "Electrical", c.Name)
				c.ID = uuid.New()
				return nil
			})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/categories",
			bytes.NewBufferString(`{"id":"`+clientID.String()+`","name":"Electrical"}`)))

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("list_categories_empty_is_array", func(t *testing.T) {
		router, svc := newCatalogRouter(t)
		svc.EXPECT().ListCategories(gomock.Any()).Return(nil, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/categories", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("create_user_bad_email", func(t *testing.T) {
		router, svc := newCatalogRouter(t)
		svc.EXPECT().CreateUser(gomock.Any(), gomock.Any()).
			Return(domain.NewValidationError("email", "is not a valid address"))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users",
			bytes.NewBufferString(`{"name":"Sam","email":"nope"}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "email", decodeError(t, w.Body.Bytes())["field"])
	})

	t.Run("list_users", func(t *testing.T) {
		router, svc := newCatalogRouter(t)
		svc.EXPECT().ListUsers(gomock.Any()).Return([]domain.User{*helpers.CreateTestUser()}, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
