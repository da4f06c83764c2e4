package http

import (
	"context"
	"io"

	"salespulse/pkg/contracts/domain"
)

// DashboardServiceInterface is the service surface the handlers depend on,
// kept as an interface so tests can substitute the dataset service.
type DashboardServiceInterface interface {
	LoadCSVText(ctx context.Context, text, source string) (domain.DatasetInfo, error)
	LoadFromFile(ctx context.Context, path string) (domain.DatasetInfo, error)
	LoadFromURL(ctx context.Context, url string) (domain.DatasetInfo, error)
	LoadFromReader(ctx context.Context, r io.Reader, filename, source string) (domain.DatasetInfo, error)
	Info() (domain.DatasetInfo, error)
	Facets() (domain.Facets, error)
	View(ctx context.Context, criteria domain.FilterCriteria) (domain.DashboardView, error)
	Summary(ctx context.Context, criteria domain.FilterCriteria) (domain.DashboardView, error)
	DateBoundsFor(ctx context.Context, criteria domain.FilterCriteria) (domain.FilterCriteria, domain.DateBounds, error)
}
