package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/georegions/regions/internal/fixtures"
	"github.com/georegions/regions/internal/middleware"
	"github.com/georegions/regions/internal/models"
	"github.com/georegions/regions/internal/query"
	"github.com/georegions/regions/internal/repository"
	"github.com/georegions/regions/internal/services"
	"github.com/georegions/regions/pkg/logger"
)

// MockRegionService is a mock implementation of services.RegionService.
type MockRegionService struct {
	mock.Mock
}

func (m *MockRegionService) List(ctx context.Context, params url.Values) (*models.Page, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page), args.Error(1)
}

func newFixtureHandler(t *testing.T) http.Handler {
	t.Helper()
	repo := repository.NewMemoryRegionRepository(fixtures.MustRegions())
	svc := services.NewRegionService(repo, query.NewParser(query.DefaultRules(), query.English))
	h := NewRegionHandler(svc, nil)
	return middleware.New(middleware.RequestID()).ThenFunc(h.List)
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRegionHandler_List(t *testing.T) {
	h := newFixtureHandler(t)

	tests := []struct {
		name      string
		target    string
		wantTotal int
		wantIDs   []int64
	}{
		{"default page", "/1.0/regions", 22, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
		{"second default page", "/1.0/regions?page=2", 22, []int64{16, 17, 18, 19, 20, 21, 22}},
		{"case-insensitive q", "/1.0/regions?q=%D0%BD%D0%BE%D0%B2", 3, []int64{3, 6, 8}},
		{"country filter", "/1.0/regions?country_code=cz", 3, []int64{7, 14, 19}},
		{"both filters", "/1.0/regions?q=%D0%BA%D1%80%D0%B0%D0%B9&country_code=ru", 2, []int64{12, 18}},
		{"page size", "/1.0/regions?country_code=ru&page=2&page_size=5", 10, []int64{10, 12, 15, 18, 20}},
		{"past the end", "/1.0/regions?country_code=kg&page=9&page_size=5", 4, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(h, tt.target)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var page models.Page
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
			assert.Equal(t, tt.wantTotal, page.Total)

			ids := make([]int64, 0, len(page.Items))
			for _, r := range page.Items {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestRegionHandler_List_EmptyItemsIsArray(t *testing.T) {
	rec := get(newFixtureHandler(t), "/1.0/regions?page=100")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":22,"items":[]}`, rec.Body.String())
}

func TestRegionHandler_List_ValidationErrors(t *testing.T) {
	h := newFixtureHandler(t)

	tests := []struct {
		name        string
		target      string
		wantMessage string
	}{
		{"q too short", "/1.0/regions?q=12", "q must be at least 3 characters"},
		{"q too long", "/1.0/regions?q=aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "q must be at most 30 characters"},
		{"empty q", "/1.0/regions?q=", "q must be at least 3 characters"},
		{"unknown country", "/1.0/regions?country_code=ua", "country_code must be one of: ru, kg, kz, cz"},
		{"empty country", "/1.0/regions?country_code=", "country_code must be one of: ru, kg, kz, cz"},
		{"page not integer", "/1.0/regions?page=1.1", "page must be an integer"},
		{"page zero", "/1.0/regions?page=0", "page must be greater than 0"},
		{"page size not integer", "/1.0/regions?page_size=string", "page_size must be an integer"},
		{"page size not allowed", "/1.0/regions?page_size=8", "page_size must be one of: 5, 10, 15"},
		{"q checked before page", "/1.0/regions?page=0&q=ab", "q must be at least 3 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(h, tt.target)

			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMessage, body.Error.Message)
			assert.Equal(t, rec.Header().Get(middleware.HeaderXRequestID), body.Error.ID)
		})
	}
}

func TestRegionHandler_List_InternalError(t *testing.T) {
	svc := new(MockRegionService)
	svc.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("failed to list regions: connection reset"))

	var buf bytes.Buffer
	log := logger.New(&buf, "error", logger.WithFormat(logger.FormatJSON))
	h := NewRegionHandler(svc, log)

	req := httptest.NewRequest(http.MethodGet, "/1.0/regions?page=2", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error.ID)
	assert.Equal(t, "Internal Server Error", body.Error.Message)
	assert.NotContains(t, rec.Body.String(), "connection reset")
	assert.Contains(t, buf.String(), "connection reset")
	svc.AssertExpectations(t)
}

func TestRegionHandler_List_PassesQueryValues(t *testing.T) {
	svc := new(MockRegionService)
	svc.On("List", mock.Anything, url.Values{"q": {"нов"}, "page": {"2"}}).
		Return(models.NewPage(0, nil), nil)

	h := NewRegionHandler(svc, nil)
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/1.0/regions?q=%D0%BD%D0%BE%D0%B2&page=2", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
