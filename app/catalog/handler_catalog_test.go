package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Romarate18/StockaDoodle-IMS/app/activity"
	"github.com/Romarate18/StockaDoodle-IMS/app/form"
	"github.com/Romarate18/StockaDoodle-IMS/models"
)

// --- Mock Repo ---

type MockProductRepo struct {
	SourceProducts []models.Product
	Categories     map[uint]string
	Err            error

	// Fields to capture call arguments
	lastCalledFilters models.ProductFilters
	lastCalledID      uint
	saved             *models.Product
	deletedID         uint
	nextID            uint
}

func (m *MockProductRepo) GetFilteredProducts(_ context.Context, filters models.ProductFilters) ([]models.Product, error) {
	m.lastCalledFilters = filters

	if m.Err != nil {
		return nil, m.Err
	}

	var filtered []models.Product
	for _, p := range m.SourceProducts {
		if filters.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filters.Search)) {
			continue
		}
		if filters.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filters.CategoryID) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, nil
}

func (m *MockProductRepo) GetProduct(_ context.Context, id uint) (*models.Product, error) {
	m.lastCalledID = id

	if m.Err != nil {
		return nil, m.Err
	}
	for _, p := range m.SourceProducts {
		if p.ID == id {
			product := p
			return &product, nil
		}
	}
	return nil, models.ErrProductNotFound
}

func (m *MockProductRepo) CreateProduct(_ context.Context, product *models.Product) error {
	if m.Err != nil {
		return m.Err
	}
	m.nextID++
	product.ID = m.nextID
	m.saved = product
	return nil
}

func (m *MockProductRepo) SaveProduct(_ context.Context, product *models.Product) error {
	if m.Err != nil {
		return m.Err
	}
	m.saved = product
	return nil
}

func (m *MockProductRepo) DeleteProduct(_ context.Context, id uint) error {
	if m.Err != nil {
		return m.Err
	}
	m.deletedID = id
	return nil
}

func (m *MockProductRepo) CategoryExists(_ context.Context, id uint) (bool, error) {
	_, ok := m.Categories[id]
	return ok, nil
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, e activity.Entry) {
	m.Called(ctx, e)
}

// --- Helpers ---

func uintPtr(v uint) *uint { return &v }

func newTestProduct(id uint, name string, categoryID *uint, price float64) models.Product {
	p := models.Product{
		ID:            id,
		Name:          name,
		Price:         decimal.NewFromFloat(price),
		CategoryID:    categoryID,
		StockLevel:    20,
		MinStockLevel: models.DefaultMinStockLevel,
	}
	if categoryID != nil {
		p.Category = &models.Category{ID: *categoryID, Name: "Dairy"}
	}
	return p
}

func newHandler(repo *MockProductRepo, rec *MockRecorder) *CatalogHandler {
	return NewCatalogHandler(repo, repo, rec, form.Options{})
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// --- Tests ---

func TestHandleGet(t *testing.T) {
	allMockProducts := []models.Product{
		newTestProduct(1, "Whole Milk", uintPtr(1), 50),
		newTestProduct(2, "Skim Milk", uintPtr(1), 45.5),
		newTestProduct(3, "Bread", nil, 30),
	}

	testCases := []struct {
		name               string
		url                string
		mockRepoSetup      func() *MockProductRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCalls     func(t *testing.T, repo *MockProductRepo)
	}{
		{
			name: "All products",
			url:  "/products",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp []Product
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Len(t, resp, 3)
				assert.Equal(t, 45.5, resp[1].Price)
				assert.Equal(t, "Dairy", resp[0].Category.Name)
				assert.Nil(t, resp[2].Category)
				assert.Nil(t, resp[2].CategoryID)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, models.ProductFilters{}, repo.lastCalledFilters)
			},
		},
		{
			name: "Search is case-insensitive",
			url:  "/products?search=MILK",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp []Product
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Len(t, resp, 2)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, "MILK", repo.lastCalledFilters.Search)
			},
		},
		{
			name: "Filter by category",
			url:  "/products?category_id=1&include_image=true",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp []Product
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Len(t, resp, 2)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, uintPtr(1), repo.lastCalledFilters.CategoryID)
				assert.True(t, repo.lastCalledFilters.IncludeImage)
			},
		},
		{
			name: "Malformed category filter matches nothing",
			url:  "/products?category_id=abc",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `[]`, rec.Body.String())
			},
		},
		{
			name: "Empty catalog is an empty array",
			url:  "/products",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `[]`, rec.Body.String())
			},
		},
		{
			name: "Repository error",
			url:  "/products",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Err: errors.New("db connection lost")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `{"errors":["failed to fetch products"]}`, rec.Body.String())
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := newHandler(mockRepo, &MockRecorder{})
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleGet(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
			if tc.checkRepoCalls != nil {
				tc.checkRepoCalls(t, mockRepo)
			}
		})
	}
}
