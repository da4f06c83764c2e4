package services

import (
	"log/slog"
	"time"

	"salespulse/internal/infrastructure"
)

// HealthStatus is the payload returned by the health endpoints.
type HealthStatus struct {
	Status        string    `json:"status"`
	Version       string    `json:"version"`
	Uptime        string    `json:"uptime"`
	DatasetLoaded bool      `json:"dataset_loaded"`
	Timestamp     time.Time `json:"timestamp"`
}

// HealthService reports process liveness and dataset readiness.
type HealthService struct {
	dashboard *DashboardService
	logger    *slog.Logger
	startedAt time.Time
}

// NewHealthService creates a new health service
func NewHealthService(dashboard *DashboardService, logger *slog.Logger) *HealthService {
	return &HealthService{
		dashboard: dashboard,
		logger:    logger.With(slog.String("component", "health_service")),
		startedAt: time.Now(),
	}
}

// Liveness always reports healthy while the process runs.
func (s *HealthService) Liveness() HealthStatus {
	return HealthStatus{
		Status:        "healthy",
		Version:       infrastructure.ServiceVersion,
		Uptime:        time.Since(s.startedAt).Round(time.Second).String(),
		DatasetLoaded: s.dashboard.Loaded(),
		Timestamp:     time.Now(),
	}
}

// Readiness reports degraded until a dataset has been loaded. The server
// still accepts load requests in that state.
func (s *HealthService) Readiness() HealthStatus {
	status := s.Liveness()
	if !status.DatasetLoaded {
		status.Status = "degraded"
	}
	return status
}
