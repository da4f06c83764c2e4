package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"salespulse/internal/config"
	apperrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
	"salespulse/internal/middleware"
	"salespulse/internal/services"
	transporthttp "salespulse/internal/transport/http"
	"salespulse/internal/websocket"
)

// App wires configuration, observability, services and transport into one
// runnable server.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	otel   *infrastructure.OTelProviders

	hub       *websocket.Hub
	dashboard *services.DashboardService
	health    *services.HealthService

	server *http.Server
}

// New builds the application from the environment.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig builds the application from an explicit config.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := infrastructure.NewLogger(cfg.Logging)

	var providers *infrastructure.OTelProviders
	if cfg.Metrics.Enabled {
		var err error
		providers, err = infrastructure.InitializeOTel(ctx, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize observability: %w", err)
		}
	}

	hub := websocket.NewHub(logger)

	var (
		instruments *infrastructure.PipelineInstruments
		tracer      trace.Tracer
	)
	if providers != nil {
		instruments = providers.Pipeline
		tracer = providers.Tracer
	}

	dashboard := services.NewDashboardService(cfg.Data, logger, instruments, tracer, hub)
	health := services.NewHealthService(dashboard, logger)

	a := &App{
		cfg:       cfg,
		logger:    logger,
		otel:      providers,
		hub:       hub,
		dashboard: dashboard,
		health:    health,
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

// router assembles the chi middleware chain and mounts every handler.
func (a *App) router() chi.Router {
	errorHandler := apperrors.NewErrorHandler(a.logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(a.logger))
	r.Use(middleware.Recoverer(errorHandler))
	r.Use(middleware.RateLimit(a.cfg.Server.RateLimitRPS, a.cfg.Server.RateLimitBurst))

	dashboardHandler := transporthttp.NewDashboardHandler(a.dashboard, a.logger, errorHandler, a.cfg.Data.MaxUploadSize)
	healthHandler := transporthttp.NewHealthHandler(a.health)

	r.Mount("/api", dashboardHandler.Routes())
	r.Mount("/healthz", healthHandler.Routes())

	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWS(a.hub, a.logger, w, req)
	})

	if a.otel != nil {
		r.Handle("/metrics", a.otel.PrometheusHTTP)
	}

	return r
}

// Run starts the hub and the HTTP server and blocks until ctx is cancelled
// or the server fails, then shuts everything down gracefully.
func (a *App) Run(ctx context.Context) error {
	a.hub.Start()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("server listening",
			slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		a.logger.Info("shutting down")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}

		a.hub.Stop()
		if a.otel != nil {
			if err := a.otel.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("observability shutdown failed",
					slog.String("error", err.Error()))
			}
		}
		return nil
	})

	return g.Wait()
}

// Preload loads the default dataset at startup when the configured CSV
// exists. A missing default file is not fatal; the first load request will
// populate the session instead.
func (a *App) Preload(ctx context.Context) {
	info, err := a.dashboard.LoadFromFile(ctx, "")
	if err != nil {
		a.logger.Warn("default dataset not preloaded",
			slog.String("path", a.cfg.Data.DefaultCSV),
			slog.String("error", err.Error()))
		return
	}
	a.logger.Info("default dataset preloaded",
		slog.String("dataset_id", info.ID),
		slog.Int("rows", info.Rows))
}
