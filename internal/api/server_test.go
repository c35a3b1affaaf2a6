package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/UnknownOlympus/haulage/internal/api"
	"github.com/UnknownOlympus/haulage/internal/metrics"
	"github.com/UnknownOlympus/haulage/internal/models"
	"github.com/UnknownOlympus/haulage/internal/pricing"
	"github.com/UnknownOlympus/haulage/internal/repository"
	"github.com/UnknownOlympus/haulage/internal/routing"
	"github.com/UnknownOlympus/haulage/internal/service"
	"github.com/UnknownOlympus/haulage/test/mocks"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	work = models.Location{
		Address:     "Av. Paulista, 1578, São Paulo",
		Coordinates: models.Coordinates{Latitude: -23.5614, Longitude: -46.6559},
	}
	disposal = models.Location{
		Address:     "Aterro Bandeirantes, São Paulo",
		Coordinates: models.Coordinates{Latitude: -23.4201, Longitude: -46.7512},
	}
	route = models.RouteMetrics{DistanceKm: 50, DurationMinutes: 60}
)

// memoryProfiles is an in-memory profile store.
type memoryProfiles struct {
	mu       sync.Mutex
	profiles map[string]models.PricingConfig
	err      error
}

func newMemoryProfiles(names ...string) *memoryProfiles {
	store := &memoryProfiles{profiles: make(map[string]models.PricingConfig)}
	for _, name := range names {
		store.profiles[name] = pricing.DefaultConfig()
	}

	return store
}

func (m *memoryProfiles) ListPricingProfiles(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	names := make([]string, 0, len(m.profiles))
	for name := range m.profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

func (m *memoryProfiles) FetchPricingProfile(_ context.Context, name string) (*models.PricingConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, ok := m.profiles[name]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}

	return &cfg, nil
}

func (m *memoryProfiles) SavePricingProfile(_ context.Context, name string, cfg models.PricingConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.profiles[name] = cfg

	return nil
}

func newTestRouter(t *testing.T, profiles api.ProfileStore) (*gin.Engine, *mocks.Provider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := mocks.NewProvider(t)
	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	deps := service.Deps{
		Log:          slog.Default(),
		Provider:     provider,
		ProviderName: "test",
		Metrics:      appMetrics,
		Pricing:      pricing.DefaultConfig(),
		Timeout:      time.Second,
	}
	if profiles != nil {
		deps.Profiles = profiles
	}
	svc := service.NewQuoteService(deps)

	srv := api.NewServer(api.ServerDeps{
		Log:      slog.Default(),
		Resolver: svc,
		Sessions: service.NewSessions(svc, appMetrics, 0),
		Profiles: profiles,
		MaxBatch: 3,
	})

	return srv.Router(), provider
}

func doRequest(r http.Handler, method, path string, body any, session string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		_ = json.NewEncoder(&buf).Encode(v)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(api.SessionHeader, session)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))

	return v
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func quoteBody() map[string]any {
	return map[string]any{
		"work":     map[string]any{"address": "Av. Paulista, 1578"},
		"disposal": map[string]any{"address": "Aterro Bandeirantes"},
		"has_toll": true,
	}
}

func expectHappyPath(provider *mocks.Provider) {
	provider.On("Geocode", mock.Anything, "Av. Paulista, 1578").Return(&work, nil).Once()
	provider.On("Geocode", mock.Anything, "Aterro Bandeirantes").Return(&disposal, nil).Once()
	provider.On("Route", mock.Anything, work.Coordinates, disposal.Coordinates).Return(&route, nil).Once()
}

func TestCreateQuote(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, provider := newTestRouter(t, nil)
		expectHappyPath(provider)

		w := doRequest(router, http.MethodPost, "/api/v1/quotes", quoteBody(), "")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		quote := decode[models.Quote](t, w)
		assert.InDelta(t, 590.50, quote.Breakdown.TotalCost, 0.01)
		assert.Equal(t, work.Address, quote.Breakdown.WorkLocation.Address)
		assert.True(t, quote.Options.RoundTrip)
	})

	t.Run("malformed body", func(t *testing.T) {
		router, _ := newTestRouter(t, nil)

		w := doRequest(router, http.MethodPost, "/api/v1/quotes", "{", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid configuration", func(t *testing.T) {
		router, provider := newTestRouter(t, nil)
		body := quoteBody()
		body["overrides"] = map[string]any{"km_per_liter": 0}

		w := doRequest(router, http.MethodPost, "/api/v1/quotes", body, "")

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "configuration_invalid", decode[errorBody](t, w).Code)
		provider.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
	})

	t.Run("address not found", func(t *testing.T) {
		router, provider := newTestRouter(t, nil)
		provider.On("Geocode", mock.Anything, "Av. Paulista, 1578").Return(nil, routing.ErrAddressNotFound).Once()
		provider.On("Geocode", mock.Anything, "Aterro Bandeirantes").Return(&disposal, nil).Maybe()

		w := doRequest(router, http.MethodPost, "/api/v1/quotes", quoteBody(), "")

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "address_not_found", decode[errorBody](t, w).Code)
	})

	t.Run("route unavailable", func(t *testing.T) {
		router, provider := newTestRouter(t, nil)
		provider.On("Geocode", mock.Anything, "Av. Paulista, 1578").Return(&work, nil).Once()
		provider.On("Geocode", mock.Anything, "Aterro Bandeirantes").Return(&disposal, nil).Once()
		provider.On("Route", mock.Anything, mock.Anything, mock.Anything).Return(nil, routing.ErrRouteUnavailable).Once()

		w := doRequest(router, http.MethodPost, "/api/v1/quotes", quoteBody(), "")

		require.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "provider_unavailable", decode[errorBody](t, w).Code)
	})

	t.Run("unknown profile", func(t *testing.T) {
		router, _ := newTestRouter(t, nil)
		body := quoteBody()
		body["profile"] = "interior"

		w := doRequest(router, http.MethodPost, "/api/v1/quotes", body, "")

		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "profile_not_found", decode[errorBody](t, w).Code)
	})
}

func TestSessionEndpoints(t *testing.T) {
	router, provider := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/quotes/last", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/quotes/last", nil, "operator-7")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, w).Code)

	expectHappyPath(provider)
	w = doRequest(router, http.MethodPost, "/api/v1/quotes", quoteBody(), "operator-7")
	require.Equal(t, http.StatusOK, w.Code)

	provider.On("Geocode", mock.Anything, "Av. Paulista, 1578").Return(nil, routing.ErrAddressNotFound).Once()
	provider.On("Geocode", mock.Anything, "Aterro Bandeirantes").Return(&disposal, nil).Maybe()
	w = doRequest(router, http.MethodPost, "/api/v1/quotes", quoteBody(), "operator-7")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/quotes/last", nil, "operator-7")
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 590.50, decode[models.Quote](t, w).Breakdown.TotalCost, 0.01)

	w = doRequest(router, http.MethodDelete, "/api/v1/quotes/session", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/v1/quotes/session", nil, "operator-7")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/quotes/last", nil, "operator-7")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGeocode(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, provider := newTestRouter(t, nil)
		provider.On("Geocode", mock.Anything, "Av. Paulista, 1578").Return(&work, nil).Once()

		w := doRequest(router, http.MethodGet, "/api/v1/geocode?address=Av.+Paulista%2C+1578", nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, work, decode[models.Location](t, w))
	})

	t.Run("missing address", func(t *testing.T) {
		router, _ := newTestRouter(t, nil)

		w := doRequest(router, http.MethodGet, "/api/v1/geocode", nil, "")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("batch", func(t *testing.T) {
		router, provider := newTestRouter(t, nil)
		provider.On("Geocode", mock.Anything, "Av. Paulista, 1578").Return(&work, nil).Once()
		provider.On("Geocode", mock.Anything, "nowhere").Return(nil, routing.ErrAddressNotFound).Once()

		w := doRequest(router, http.MethodPost, "/api/v1/geocode/batch",
			map[string]any{"addresses": []string{"Av. Paulista, 1578", "nowhere"}}, "")

		require.Equal(t, http.StatusOK, w.Code)
		body := decode[struct {
			Results []service.BatchResult `json:"results"`
		}](t, w)
		require.Len(t, body.Results, 2)
		assert.Equal(t, work, *body.Results[0].Location)
		assert.NotEmpty(t, body.Results[1].Error)
	})

	t.Run("batch too large", func(t *testing.T) {
		router, _ := newTestRouter(t, nil)

		w := doRequest(router, http.MethodPost, "/api/v1/geocode/batch",
			map[string]any{"addresses": []string{"a", "b", "c", "d"}}, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRoute(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, provider := newTestRouter(t, nil)
		provider.On("Route", mock.Anything, work.Coordinates, disposal.Coordinates).Return(&route, nil).Once()

		w := doRequest(router, http.MethodPost, "/api/v1/routes",
			map[string]any{"origin": work.Coordinates, "destination": disposal.Coordinates}, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, route, decode[models.RouteMetrics](t, w))
	})

	t.Run("missing destination", func(t *testing.T) {
		router, _ := newTestRouter(t, nil)

		w := doRequest(router, http.MethodPost, "/api/v1/routes", map[string]any{"origin": work.Coordinates}, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("coordinates out of range", func(t *testing.T) {
		router, _ := newTestRouter(t, nil)

		w := doRequest(router, http.MethodPost, "/api/v1/routes", map[string]any{
			"origin":      map[string]float64{"lat": 100, "lng": 0},
			"destination": disposal.Coordinates,
		}, "")

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "configuration_invalid", decode[errorBody](t, w).Code)
	})
}

func TestPricingEndpoints(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		router, _ := newTestRouter(t, nil)

		w := doRequest(router, http.MethodGet, "/api/v1/pricing/defaults", nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, pricing.DefaultConfig(), decode[models.PricingConfig](t, w))
	})

	t.Run("profiles without store", func(t *testing.T) {
		router, _ := newTestRouter(t, nil)

		w := doRequest(router, http.MethodGet, "/api/v1/pricing/profiles", nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"profiles":[]}`, w.Body.String())
	})

	t.Run("profiles", func(t *testing.T) {
		router, _ := newTestRouter(t, newMemoryProfiles("interior", "capital"))

		w := doRequest(router, http.MethodGet, "/api/v1/pricing/profiles", nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"profiles":["capital","interior"]}`, w.Body.String())
	})

	t.Run("profiles store failure", func(t *testing.T) {
		store := newMemoryProfiles()
		store.err = assert.AnError
		router, _ := newTestRouter(t, store)

		w := doRequest(router, http.MethodGet, "/api/v1/pricing/profiles", nil, "")

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal error", decode[errorBody](t, w).Error)
	})
}

func TestPricingProfileEndpoints(t *testing.T) {
	t.Run("save merges with defaults and can be read back", func(t *testing.T) {
		store := newMemoryProfiles()
		router, _ := newTestRouter(t, store)

		w := doRequest(router, http.MethodPut, "/api/v1/pricing/profiles/interior",
			map[string]any{"diesel_price": 6.1, "disposal_fee": 90}, "")
		require.Equal(t, http.StatusOK, w.Code)

		want := pricing.DefaultConfig()
		want.DieselPrice = 6.1
		want.DisposalFee = 90
		assert.Equal(t, want, store.profiles["interior"])

		w = doRequest(router, http.MethodGet, "/api/v1/pricing/profiles/interior", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, decode[models.PricingConfig](t, w))

		w = doRequest(router, http.MethodGet, "/api/v1/pricing/profiles", nil, "")
		assert.JSONEq(t, `{"profiles":["interior"]}`, w.Body.String())
	})

	t.Run("invalid configuration is not stored", func(t *testing.T) {
		store := newMemoryProfiles()
		router, _ := newTestRouter(t, store)

		w := doRequest(router, http.MethodPut, "/api/v1/pricing/profiles/broken",
			map[string]any{"km_per_liter": 0}, "")

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "configuration_invalid", decode[errorBody](t, w).Code)
		assert.Empty(t, store.profiles)
	})

	t.Run("malformed body", func(t *testing.T) {
		router, _ := newTestRouter(t, newMemoryProfiles())

		w := doRequest(router, http.MethodPut, "/api/v1/pricing/profiles/x", `{"diesel_price": "cheap"}`, "")

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decode[errorBody](t, w).Code)
	})

	t.Run("unknown profile", func(t *testing.T) {
		router, _ := newTestRouter(t, newMemoryProfiles())

		w := doRequest(router, http.MethodGet, "/api/v1/pricing/profiles/nowhere", nil, "")

		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "profile_not_found", decode[errorBody](t, w).Code)
	})

	t.Run("without store", func(t *testing.T) {
		router, _ := newTestRouter(t, nil)

		w := doRequest(router, http.MethodPut, "/api/v1/pricing/profiles/interior", map[string]any{}, "")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unavailable", decode[errorBody](t, w).Code)

		w = doRequest(router, http.MethodGet, "/api/v1/pricing/profiles/interior", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("quote uses a saved profile", func(t *testing.T) {
		store := newMemoryProfiles()
		router, provider := newTestRouter(t, store)

		w := doRequest(router, http.MethodPut, "/api/v1/pricing/profiles/cheap-dump",
			map[string]any{"disposal_fee": 0}, "")
		require.Equal(t, http.StatusOK, w.Code)

		expectHappyPath(provider)
		body := quoteBody()
		body["profile"] = "cheap-dump"
		w = doRequest(router, http.MethodPost, "/api/v1/quotes", body, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.InDelta(t, 0.0, decode[models.Quote](t, w).Breakdown.DisposalCost, 0)
	})
}
