package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georegions/regions/internal/config"
	"github.com/georegions/regions/internal/fixtures"
	"github.com/georegions/regions/internal/handlers"
	"github.com/georegions/regions/internal/middleware"
	"github.com/georegions/regions/internal/models"
	"github.com/georegions/regions/internal/query"
	"github.com/georegions/regions/internal/repository"
	"github.com/georegions/regions/internal/services"
	"github.com/georegions/regions/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:      "test",
			LogLevel: "error",
		},
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0, // Let the OS assign a port
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

func TestNewServer(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, "error")
	cfg := testConfig()

	srv := New(cfg, log)

	assert.NotNil(t, srv)
	assert.NotNil(t, srv.HealthHandler())
}

func TestServer_StartAndShutdown(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, "error")
	cfg := testConfig()

	srv := New(cfg, log)

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for server to be ready
	time.Sleep(100 * time.Millisecond)

	// Server should be running
	assert.True(t, srv.IsRunning())

	// Shutdown the server
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := srv.Shutdown(ctx)
	assert.NoError(t, err)

	// Server should no longer be running
	assert.False(t, srv.IsRunning())
}

func TestServer_HealthEndpoint(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, "error")
	cfg := testConfig()

	srv := New(cfg, log)

	// Start server in background
	go func() { _ = srv.Start() }()
	defer func() { _ = srv.Shutdown(context.Background()) }()

	// Wait for server to be ready
	time.Sleep(100 * time.Millisecond)

	// Get the actual address
	addr := srv.Addr()
	require.NotEmpty(t, addr)

	// Make request to /health
	ctx := context.Background()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/health", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health handlers.HealthResponse
	err = json.NewDecoder(resp.Body).Decode(&health)
	require.NoError(t, err)

	assert.Equal(t, "healthy", health.Status)
}

func TestServer_ReadyEndpoint(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, "error")
	cfg := testConfig()

	srv := New(cfg, log)

	// Start server in background
	go func() { _ = srv.Start() }()
	defer func() { _ = srv.Shutdown(context.Background()) }()

	// Wait for server to be ready
	time.Sleep(100 * time.Millisecond)

	addr := srv.Addr()

	// Make request to /ready
	ctx := context.Background()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/ready", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var ready handlers.ReadyResponse
	err = json.NewDecoder(resp.Body).Decode(&ready)
	require.NoError(t, err)

	assert.Equal(t, "ready", ready.Status)
}

func TestServer_ReadyEndpoint_NotReady(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, "error")
	cfg := testConfig()

	srv := New(cfg, log)
	srv.HealthHandler().SetReady(false)

	// Start server in background
	go func() { _ = srv.Start() }()
	defer func() { _ = srv.Shutdown(context.Background()) }()

	// Wait for server to be ready
	time.Sleep(100 * time.Millisecond)

	addr := srv.Addr()

	// Make request to /ready
	ctx := context.Background()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/ready", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_GracefulShutdown(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, "error")
	cfg := testConfig()

	srv := New(cfg, log)

	// Start server
	go func() { _ = srv.Start() }()

	// Wait for server to be ready
	time.Sleep(100 * time.Millisecond)
	require.True(t, srv.IsRunning())

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := srv.Shutdown(ctx)
	assert.NoError(t, err)
	assert.False(t, srv.IsRunning())
}

func TestServer_ShutdownTimeout(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, "error")
	cfg := testConfig()

	srv := New(cfg, log)

	// Start server
	go func() { _ = srv.Start() }()
	time.Sleep(100 * time.Millisecond)

	// Shutdown with very short timeout (but should still work since no active connections)
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Millisecond)
	defer cancel()

	// Even with a short timeout, shutdown should succeed if there are no active connections
	err := srv.Shutdown(ctx)
	// May or may not error depending on timing, but server should be stopped
	_ = err

	// Give it a moment to fully stop
	time.Sleep(50 * time.Millisecond)
	assert.False(t, srv.IsRunning())
}

func newRegionsServer(t *testing.T) *Server {
	t.Helper()
	srv := New(testConfig(), logger.Nop())

	repo := repository.NewMemoryRegionRepository(fixtures.MustRegions())
	svc := services.NewRegionService(repo, query.NewParser(query.DefaultRules(), query.English))
	srv.SetRegionHandler(handlers.NewRegionHandler(svc, nil))
	return srv
}

func TestServer_Routes(t *testing.T) {
	srv := newRegionsServer(t)

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantType   string
	}{
		{"regions", http.MethodGet, "/1.0/regions", http.StatusOK, "application/json"},
		{"regions invalid", http.MethodGet, "/1.0/regions?page=0", http.StatusBadRequest, "application/json"},
		{"regions wrong method", http.MethodPost, "/1.0/regions", http.StatusMethodNotAllowed, ""},
		{"health", http.MethodGet, "/health", http.StatusOK, "application/json"},
		{"ready", http.MethodGet, "/ready", http.StatusOK, "application/json"},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "text/plain"},
		{"docs", http.MethodGet, "/docs", http.StatusOK, "text/html"},
		{"openapi", http.MethodGet, "/docs/openapi.yaml", http.StatusOK, "application/x-yaml"},
		{"unknown", http.MethodGet, "/2.0/regions", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(middleware.HeaderXRequestID))
			if tt.wantType != "" {
				assert.Contains(t, rec.Header().Get("Content-Type"), tt.wantType)
			}
		})
	}
}

func TestServer_RegionsEndpoint(t *testing.T) {
	srv := newRegionsServer(t)

	go func() { _ = srv.Start() }()
	defer func() { _ = srv.Shutdown(context.Background()) }()

	time.Sleep(100 * time.Millisecond)
	addr := srv.Addr()
	require.NotEmpty(t, addr)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet,
		"http://"+addr+"/1.0/regions?country_code=kz&page_size=5", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var page models.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, 5, page.Total)
	assert.Len(t, page.Items, 5)
	for _, r := range page.Items {
		assert.Equal(t, "kz", r.Country.Code)
	}
}

func TestServer_RegionsNotConfigured(t *testing.T) {
	srv := New(testConfig(), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/1.0/regions", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Nil(t, srv.RegionHandler())

	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, rec.Header().Get(middleware.HeaderXRequestID), body.Error.ID)
	assert.NotEmpty(t, body.Error.ID)
	assert.Equal(t, "Region service not configured", body.Error.Message)
}
