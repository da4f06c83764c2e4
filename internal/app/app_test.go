package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            0,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			IdleTimeout:     5 * time.Second,
			ShutdownTimeout: 2 * time.Second,
			RateLimitRPS:    100,
			RateLimitBurst:  100,
		},
		Logging: config.LoggingConfig{Level: "error", Output: "console"},
		Data: config.DataConfig{
			DefaultCSV:    "data/sales.csv",
			MaxUploadSize: 1 << 20,
			TopN:          10,
			FetchTimeout:  2 * time.Second,
		},
		Metrics: config.MetricsConfig{Enabled: false},
	}
}

func TestAppRoutes(t *testing.T) {
	ctx := context.Background()
	a, err := NewWithConfig(ctx, testConfig())
	require.NoError(t, err)

	srv := httptest.NewServer(a.server.Handler)
	defer srv.Close()

	t.Run("liveness", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("not ready before load", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/healthz/ready")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("load then dashboard", func(t *testing.T) {
		body := `{"source":"inline","text":"Producto,Cantidad,Total,Fecha\nWidget,2,100,2024-01-05\n"}`
		resp, err := http.Post(srv.URL+"/api/dataset", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp, err = http.Get(srv.URL + "/api/dashboard")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		ready, err := http.Get(srv.URL + "/healthz/ready")
		require.NoError(t, err)
		defer ready.Body.Close()
		assert.Equal(t, http.StatusOK, ready.StatusCode)
	})

	t.Run("problem details on missing resource", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAppRunShutdown(t *testing.T) {
	a, err := NewWithConfig(context.Background(), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
