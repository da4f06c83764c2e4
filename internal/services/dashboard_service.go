package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	apperrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/domain"
)

// WebSocketHub receives dataset lifecycle notifications for connected
// dashboards.
type WebSocketHub interface {
	BroadcastDatasetLoaded(datasetID, source string, rows int)
}

// dataset is the session container. It is built completely off to the side
// and swapped in under the write lock, so readers never observe a partial
// load and a failed load leaves the previous dataset untouched.
type dataset struct {
	id       string
	source   string
	rows     []domain.SaleRecord
	cols     domain.ColumnMap
	facets   domain.Facets
	bounds   domain.DateBounds
	loadedAt time.Time
}

// DashboardService owns the current dataset and computes every filtered
// view from it on demand. Nothing is cached across requests; a view is a
// pure function of (dataset, criteria).
type DashboardService struct {
	mu      sync.RWMutex
	current *dataset

	cfg         config.DataConfig
	logger      *slog.Logger
	instruments *infrastructure.PipelineInstruments
	tracer      trace.Tracer
	hub         WebSocketHub
	httpClient  *http.Client
	group       dataprocessing.FilterGroup
}

// NewDashboardService creates the service. instruments, tracer and hub may
// be nil; loading then runs without metrics, spans or notifications.
func NewDashboardService(cfg config.DataConfig, logger *slog.Logger, instruments *infrastructure.PipelineInstruments, tracer trace.Tracer, hub WebSocketHub) *DashboardService {
	return &DashboardService{
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "dashboard_service")),
		instruments: instruments,
		tracer:      tracer,
		hub:         hub,
		httpClient:  &http.Client{Timeout: cfg.FetchTimeout},
		group:       dataprocessing.NewFilterGroup(),
	}
}

// LoadCSVText tokenizes, maps and normalizes raw CSV text and replaces the
// current dataset. source is a label for logs and the dataset info.
func (s *DashboardService) LoadCSVText(ctx context.Context, text, source string) (domain.DatasetInfo, error) {
	start := time.Now()
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "dataset.load")
		defer span.End()
	}

	records, err := dataprocessing.Tokenize(text)
	if err != nil {
		return domain.DatasetInfo{}, s.loadFailed(ctx, source, err)
	}
	return s.ingest(ctx, records, source, start)
}

// LoadFromReader loads an uploaded file. XLSX workbooks are detected by
// file extension; anything else is treated as CSV text.
func (s *DashboardService) LoadFromReader(ctx context.Context, r io.Reader, filename, source string) (domain.DatasetInfo, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return s.LoadXLSX(ctx, r, source)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return domain.DatasetInfo{}, s.loadFailed(ctx, source, apperrors.NewLoadError("failed to read upload", err))
	}
	return s.LoadCSVText(ctx, string(data), source)
}

// LoadXLSX loads the first sheet of an XLSX workbook.
func (s *DashboardService) LoadXLSX(ctx context.Context, r io.Reader, source string) (domain.DatasetInfo, error) {
	start := time.Now()
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "dataset.load_xlsx")
		defer span.End()
	}

	records, err := dataprocessing.TokenizeXLSX(r)
	if err != nil {
		return domain.DatasetInfo{}, s.loadFailed(ctx, source, err)
	}
	return s.ingest(ctx, records, source, start)
}

// LoadFromFile loads a CSV or XLSX file from the local filesystem. An empty
// path falls back to the configured default CSV.
func (s *DashboardService) LoadFromFile(ctx context.Context, path string) (domain.DatasetInfo, error) {
	if path == "" {
		path = s.cfg.DefaultCSV
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.DatasetInfo{}, s.loadFailed(ctx, path, apperrors.NewLoadError(fmt.Sprintf("failed to open %s", path), err))
	}
	defer file.Close()

	return s.LoadFromReader(ctx, file, path, path)
}

// LoadFromURL fetches a remote CSV or XLSX document. Any transport failure
// or non-2xx status degrades to a LoadError; the current dataset survives.
func (s *DashboardService) LoadFromURL(ctx context.Context, url string) (domain.DatasetInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.DatasetInfo{}, s.loadFailed(ctx, url, apperrors.NewLoadError("invalid dataset url", err))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.DatasetInfo{}, s.loadFailed(ctx, url, apperrors.NewLoadError("failed to fetch dataset", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.DatasetInfo{}, s.loadFailed(ctx, url,
			apperrors.NewLoadError(fmt.Sprintf("dataset fetch returned status %d", resp.StatusCode), nil))
	}

	body := io.LimitReader(resp.Body, s.cfg.MaxUploadSize)
	return s.LoadFromReader(ctx, body, url, url)
}

// ingest runs the column mapping and normalization stages and, on success,
// atomically replaces the session dataset.
func (s *DashboardService) ingest(ctx context.Context, records []domain.RawRecord, source string, start time.Time) (domain.DatasetInfo, error) {
	cols, err := dataprocessing.MapColumns(records[0])
	if err != nil {
		return domain.DatasetInfo{}, s.loadFailed(ctx, source, err)
	}

	rows := dataprocessing.NormalizeRows(records, cols)
	facets := dataprocessing.BuildFacets(rows, cols)

	min, max := dataprocessing.DateRange(rows)
	bounds := domain.DateBounds{}
	if !min.IsZero() {
		bounds.MinISO = dataprocessing.ToISODateLocal(min)
		bounds.MaxISO = dataprocessing.ToISODateLocal(max)
	}

	ds := &dataset{
		id:       uuid.New().String(),
		source:   source,
		rows:     rows,
		cols:     cols,
		facets:   facets,
		bounds:   bounds,
		loadedAt: time.Now(),
	}

	s.mu.Lock()
	s.current = ds
	s.mu.Unlock()

	if s.instruments != nil {
		s.instruments.DatasetLoads.Add(ctx, 1)
		s.instruments.RowsIngested.Add(ctx, int64(len(rows)))
		s.instruments.LoadDuration.Record(ctx, time.Since(start).Seconds())
	}

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("dataset_id", ds.id),
		slog.String("source", source),
		slog.Int("rows", len(rows)),
		slog.Duration("duration", time.Since(start)))

	if s.hub != nil {
		s.hub.BroadcastDatasetLoaded(ds.id, source, len(rows))
	}

	return ds.info(), nil
}

func (s *DashboardService) loadFailed(ctx context.Context, source string, err error) error {
	if s.instruments != nil {
		s.instruments.LoadFailures.Add(ctx, 1)
	}
	s.logger.ErrorContext(ctx, "dataset load failed",
		slog.String("source", source),
		slog.String("error", err.Error()))
	return err
}

func (d *dataset) info() domain.DatasetInfo {
	return domain.DatasetInfo{
		ID:       d.id,
		Source:   d.source,
		Rows:     len(d.rows),
		LoadedAt: d.loadedAt,
		Columns:  d.cols,
		Range:    d.bounds,
	}
}

// snapshot returns the current dataset or a not-found error when nothing
// has been loaded yet.
func (s *DashboardService) snapshot() (*dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, apperrors.NewNotFoundError("dataset")
	}
	return s.current, nil
}

// Loaded reports whether a dataset is available.
func (s *DashboardService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// Info describes the currently loaded dataset.
func (s *DashboardService) Info() (domain.DatasetInfo, error) {
	ds, err := s.snapshot()
	if err != nil {
		return domain.DatasetInfo{}, err
	}
	return ds.info(), nil
}

// Facets returns the distinct values backing the filter controls.
func (s *DashboardService) Facets() (domain.Facets, error) {
	ds, err := s.snapshot()
	if err != nil {
		return domain.Facets{}, err
	}
	return ds.facets, nil
}

// View computes the complete dashboard payload for one set of criteria.
func (s *DashboardService) View(ctx context.Context, criteria domain.FilterCriteria) (domain.DashboardView, error) {
	ds, err := s.snapshot()
	if err != nil {
		return domain.DashboardView{}, err
	}

	if s.instruments != nil {
		s.instruments.FilterRecomputes.Add(ctx, 1)
	}

	subset := dataprocessing.FilterRows(ds.rows, criteria, ds.cols)
	kpis := dataprocessing.ComputeKpis(subset)

	byRevenue := func(r domain.SaleRecord) float64 { return r.Revenue }
	byQty := func(r domain.SaleRecord) float64 { return r.Qty }

	products := dataprocessing.GroupSum(subset, func(r domain.SaleRecord) string { return r.Product }, byRevenue)
	topProducts := products.TopN(s.cfg.TopN)

	months := dataprocessing.GroupSum(subset, func(r domain.SaleRecord) string { return r.YM }, byRevenue)
	monthKeys := sortMonths(months.Keys())

	pays := dataprocessing.GroupSum(subset, func(r domain.SaleRecord) string { return r.Pay }, byRevenue)

	charts := []domain.ChartSeries{
		rankedSeries(domain.ChartBar, "top_products_revenue", topProducts, domain.FmtCurrency),
		keyedSeries(domain.ChartLine, "revenue_by_month", monthKeys, months, domain.FmtCurrency),
		keyedSeries(domain.ChartDoughnut, "payment_methods", pays.Keys(), pays, domain.FmtCurrency),
	}

	if ds.cols.HasCategory() {
		categories := dataprocessing.GroupSum(subset, func(r domain.SaleRecord) string { return r.Category }, byQty)
		charts = append(charts,
			rankedSeries(domain.ChartBar, "top_categories_qty", categories.TopN(s.cfg.TopN), domain.FmtCount))
	}

	tables := []domain.RankedTable{
		{ID: "top_products", Entries: topProducts, ValueFmt: domain.FmtCurrency},
	}

	return domain.DashboardView{
		Criteria:     criteria,
		Kpis:         kpis,
		Charts:       charts,
		Tables:       tables,
		Bounds:       dataprocessing.DateRangeForFilters(ds.rows, criteria, ds.cols),
		MatchedRows:  len(subset),
		ShowCategory: ds.cols.HasCategory(),
	}, nil
}

// Summary is the view used by the CSV export endpoint and the report CLI.
func (s *DashboardService) Summary(ctx context.Context, criteria domain.FilterCriteria) (domain.DashboardView, error) {
	return s.View(ctx, criteria)
}

// DateBoundsFor recomputes the valid date window after a dependent facet
// changed and clears any selected date that fell outside it.
func (s *DashboardService) DateBoundsFor(ctx context.Context, criteria domain.FilterCriteria) (domain.FilterCriteria, domain.DateBounds, error) {
	ds, err := s.snapshot()
	if err != nil {
		return criteria, domain.DateBounds{}, err
	}

	if s.instruments != nil {
		s.instruments.FilterRecomputes.Add(ctx, 1)
	}

	reconciled, bounds := s.group.Reconcile(ds.rows, criteria, ds.cols)
	return reconciled, bounds, nil
}

// sortMonths orders year-month buckets ascending with the undated bucket
// last.
func sortMonths(keys []string) []string {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i] == domain.NoMonth {
			return false
		}
		if sorted[j] == domain.NoMonth {
			return true
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}

func rankedSeries(kind domain.ChartKind, title string, entries []domain.RankedEntry, f domain.ValueFmt) domain.ChartSeries {
	labels := make([]string, len(entries))
	values := make([]float64, len(entries))
	for i, e := range entries {
		labels[i] = e.Key
		values[i] = e.Value
	}
	return domain.ChartSeries{Kind: kind, Title: title, Labels: labels, Values: values, ValueFmt: f}
}

func keyedSeries(kind domain.ChartKind, title string, keys []string, grouped *dataprocessing.Grouped, f domain.ValueFmt) domain.ChartSeries {
	values := make([]float64, len(keys))
	for i, k := range keys {
		values[i] = grouped.Value(k)
	}
	return domain.ChartSeries{Kind: kind, Title: title, Labels: keys, Values: values, ValueFmt: f}
}
