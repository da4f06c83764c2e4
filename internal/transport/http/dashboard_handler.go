package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apperrors "salespulse/internal/errors"
	"salespulse/internal/exporter"
	"salespulse/pkg/contracts/domain"
)

// DashboardHandler serves the dataset lifecycle and the dashboard read
// endpoints with RFC 7807 errors.
type DashboardHandler struct {
	service       DashboardServiceInterface
	logger        *slog.Logger
	errorHandler  *apperrors.ErrorHandler
	validate      *validator.Validate
	summaryWriter *exporter.SummaryWriter
	maxUploadSize int64
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apperrors.ErrorHandler, maxUploadSize int64) *DashboardHandler {
	return &DashboardHandler{
		service:       service,
		logger:        logger.With(slog.String("component", "dashboard_handler")),
		errorHandler:  errorHandler,
		validate:      validator.New(),
		summaryWriter: exporter.NewSummaryWriter(logger),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/dataset", h.LoadDataset)
	r.Post("/dataset/upload", h.UploadDataset)
	r.Get("/dataset", h.GetDataset)
	r.Get("/facets", h.GetFacets)
	r.Get("/dashboard", h.GetDashboard)
	r.Get("/filters/date-range", h.GetDateRange)
	r.Get("/export/summary.csv", h.ExportSummary)

	return r
}

// LoadDatasetRequest selects where the next dataset comes from. Source
// "default" reads the configured CSV path, "url" fetches URL, "inline"
// tokenizes Text directly.
type LoadDatasetRequest struct {
	Source string `json:"source" validate:"required,oneof=default url inline"`
	URL    string `json:"url" validate:"omitempty,url"`
	Text   string `json:"text"`
}

// LoadDataset handles POST /api/dataset
func (h *DashboardHandler) LoadDataset(w http.ResponseWriter, r *http.Request) {
	var req LoadDatasetRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	var (
		info domain.DatasetInfo
		err  error
	)
	switch req.Source {
	case "default":
		info, err = h.service.LoadFromFile(r.Context(), "")
	case "url":
		if req.URL == "" {
			h.errorHandler.HandleError(w, r, apperrors.NewValidationError("url is required for source \"url\""))
			return
		}
		info, err = h.service.LoadFromURL(r.Context(), req.URL)
	case "inline":
		info, err = h.service.LoadCSVText(r.Context(), req.Text, "inline")
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// UploadDataset handles POST /api/dataset/upload with a multipart CSV or
// XLSX file under the "file" field.
func (h *DashboardHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError(
			fmt.Sprintf("upload exceeds %d bytes or is not multipart", h.maxUploadSize)))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError("multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	info, err := h.service.LoadFromReader(r.Context(), file, header.Filename, "upload:"+header.Filename)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// GetDataset handles GET /api/dataset
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// GetFacets handles GET /api/facets
func (h *DashboardHandler) GetFacets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.service.Facets()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   facets,
	})
}

// GetDashboard handles GET /api/dashboard with criteria query params.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	criteria, err := h.criteriaFromQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.View(r.Context(), criteria)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// GetDateRange handles GET /api/filters/date-range. It returns the valid
// date window for the non-date criteria plus the criteria with any now
// out-of-range dates cleared.
func (h *DashboardHandler) GetDateRange(w http.ResponseWriter, r *http.Request) {
	criteria, err := h.criteriaFromQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	reconciled, bounds, err := h.service.DateBoundsFor(r.Context(), criteria)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"bounds":   bounds,
			"criteria": reconciled,
		},
	})
}

// ExportSummary handles GET /api/export/summary.csv
func (h *DashboardHandler) ExportSummary(w http.ResponseWriter, r *http.Request) {
	criteria, err := h.criteriaFromQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.Summary(r.Context(), criteria)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="summary.csv"`)

	opts := exporter.WriteOptions{
		BOMPrefix: true,
		Formatted: r.URL.Query().Get("formatted") == "true",
	}
	if err := h.summaryWriter.WriteSummary(w, view, opts); err != nil {
		h.logger.ErrorContext(r.Context(), "summary export failed",
			slog.String("error", err.Error()))
	}
}

// criteriaFromQuery binds filter criteria from query parameters, defaulting
// missing facets to the pass-everything filter.
func (h *DashboardHandler) criteriaFromQuery(r *http.Request) (domain.FilterCriteria, error) {
	q := r.URL.Query()

	criteria := domain.FilterCriteria{
		Category: q.Get("category"),
		Pay:      q.Get("pay"),
		From:     q.Get("from"),
		To:       q.Get("to"),
	}
	if criteria.Category == "" {
		criteria.Category = domain.FilterAll
	}
	if criteria.Pay == "" {
		criteria.Pay = domain.FilterAll
	}

	if err := h.validate.Struct(criteria); err != nil {
		return domain.FilterCriteria{}, apperrors.NewValidationError(
			"from/to must be ISO dates (YYYY-MM-DD)")
	}
	return criteria, nil
}
