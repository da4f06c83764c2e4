package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
	apperrors "salespulse/internal/errors"
	"salespulse/internal/services"
)

const fixtureCSV = `Producto,Categoría,Cantidad,Total,Fecha,Método Pago
Widget,Electrónica,2,100,2024-01-05,Tarjeta
Gadget,Hogar,1,50,2024-02-10,Efectivo
Widget,Electrónica,3,150,2024-03-15,Tarjeta
Trinket,Hogar,5,25,,Efectivo
`

func newTestHandler(t *testing.T) (*DashboardHandler, *services.DashboardService) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.DataConfig{
		DefaultCSV:    "data/sales.csv",
		MaxUploadSize: 1 << 20,
		TopN:          10,
		FetchTimeout:  2 * time.Second,
	}
	svc := services.NewDashboardService(cfg, logger, nil, nil, nil)
	handler := NewDashboardHandler(svc, logger, apperrors.NewErrorHandler(logger), cfg.MaxUploadSize)
	return handler, svc
}

func loadFixture(t *testing.T, svc *services.DashboardService) {
	t.Helper()
	_, err := svc.LoadCSVText(context.Background(), fixtureCSV, "test")
	require.NoError(t, err)
}

func doRequest(handler *DashboardHandler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLoadDataset(t *testing.T) {
	t.Run("inline source", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		payload, _ := json.Marshal(LoadDatasetRequest{Source: "inline", Text: fixtureCSV})
		req := httptest.NewRequest(http.MethodPost, "/dataset", bytes.NewReader(payload))
		rec := doRequest(handler, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "success", body["status"])
		data := body["data"].(map[string]interface{})
		assert.Equal(t, float64(4), data["rows"])
	})

	t.Run("invalid source", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/dataset", strings.NewReader(`{"source":"ftp"}`))
		rec := doRequest(handler, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("url source requires url", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/dataset", strings.NewReader(`{"source":"url"}`))
		rec := doRequest(handler, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty input problem", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		payload, _ := json.Marshal(LoadDatasetRequest{Source: "inline", Text: "Producto,Cantidad,Fecha,Total\n"})
		req := httptest.NewRequest(http.MethodPost, "/dataset", bytes.NewReader(payload))
		rec := doRequest(handler, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "empty-input")
	})

	t.Run("schema problem carries missing slot", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		csv := "Cantidad,Fecha,Total\n2,2024-01-05,100\n"
		payload, _ := json.Marshal(LoadDatasetRequest{Source: "inline", Text: csv})
		req := httptest.NewRequest(http.MethodPost, "/dataset", bytes.NewReader(payload))
		rec := doRequest(handler, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "product", body["missing"])
	})
}

func TestUploadDataset(t *testing.T) {
	handler, _ := newTestHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "ventas.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(fixtureCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/dataset/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := doRequest(handler, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(4), data["rows"])
	assert.Equal(t, "upload:ventas.csv", data["source"])
}

func TestUploadDatasetMissingFile(t *testing.T) {
	handler, _ := newTestHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/dataset/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := doRequest(handler, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDatasetBeforeLoad(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := doRequest(handler, httptest.NewRequest(http.MethodGet, "/dataset", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetFacets(t *testing.T) {
	handler, svc := newTestHandler(t)
	loadFixture(t, svc)

	rec := doRequest(handler, httptest.NewRequest(http.MethodGet, "/facets", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Electrónica", "Hogar"}, data["categories"])
	assert.Equal(t, []interface{}{"Efectivo", "Tarjeta"}, data["pays"])
}

func TestGetDashboard(t *testing.T) {
	handler, svc := newTestHandler(t)
	loadFixture(t, svc)

	t.Run("default criteria", func(t *testing.T) {
		rec := doRequest(handler, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		data := decodeBody(t, rec)["data"].(map[string]interface{})
		kpis := data["kpis"].(map[string]interface{})
		assert.Equal(t, float64(325), kpis["revenue"])
		assert.Equal(t, float64(4), data["matched_rows"])
	})

	t.Run("category filter", func(t *testing.T) {
		rec := doRequest(handler, httptest.NewRequest(http.MethodGet, "/dashboard?category=Electrónica", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		data := decodeBody(t, rec)["data"].(map[string]interface{})
		kpis := data["kpis"].(map[string]interface{})
		assert.Equal(t, float64(250), kpis["revenue"])
	})

	t.Run("malformed date", func(t *testing.T) {
		rec := doRequest(handler, httptest.NewRequest(http.MethodGet, "/dashboard?from=01-05-2024", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetDateRange(t *testing.T) {
	handler, svc := newTestHandler(t)
	loadFixture(t, svc)

	req := httptest.NewRequest(http.MethodGet,
		"/filters/date-range?category=Hogar&from=2024-01-01&to=2024-12-31", nil)
	rec := doRequest(handler, req)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]interface{})
	bounds := data["bounds"].(map[string]interface{})
	assert.Equal(t, "2024-02-10", bounds["min"])
	assert.Equal(t, "2024-02-10", bounds["max"])

	criteria := data["criteria"].(map[string]interface{})
	assert.Equal(t, "Hogar", criteria["category"])
	_, hasFrom := criteria["from"]
	assert.False(t, hasFrom, "out-of-range from should be cleared")
}

func TestExportSummary(t *testing.T) {
	handler, svc := newTestHandler(t)
	loadFixture(t, svc)

	rec := doRequest(handler, httptest.NewRequest(http.MethodGet, "/export/summary.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, rec.Body.String(), "kpi,revenue,325.00")
	assert.Contains(t, rec.Body.String(), "top_products,Widget,250.00")
}
