package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"salespulse/pkg/contracts/domain"
)

// SummaryWriter flattens a dashboard view into a CSV report. The same
// writer backs the HTTP export endpoint and the report CLI.
type SummaryWriter struct {
	logger *slog.Logger
}

// NewSummaryWriter creates a new summary writer instance
func NewSummaryWriter(logger *slog.Logger) *SummaryWriter {
	return &SummaryWriter{logger: logger.With(slog.String("component", "exporter"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
	Formatted bool // Render values with locale formatting instead of raw floats
}

var summaryHeader = []string{"section", "key", "value"}

// WriteSummary writes the KPI block, the current filter window and every
// ranked table of the view as section/key/value rows.
func (w *SummaryWriter) WriteSummary(out io.Writer, view domain.DashboardView, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	defer writer.Flush()

	if err := writer.Write(summaryHeader); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for _, rec := range w.summaryRecords(view, options.Formatted) {
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSummaryFile writes the summary report to a file, creating parent
// directories as needed.
func (w *SummaryWriter) WriteSummaryFile(path string, view domain.DashboardView, options WriteOptions) error {
	w.logger.Info("writing summary report",
		slog.String("path", path),
		slog.Int("matched_rows", view.MatchedRows))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return w.WriteSummary(file, view, options)
}

// WriteSummaryJSON writes the view itself as indented JSON, the machine
// readable twin of the CSV report.
func (w *SummaryWriter) WriteSummaryJSON(out io.Writer, view domain.DashboardView) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(view); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}

func (w *SummaryWriter) summaryRecords(view domain.DashboardView, formatted bool) [][]string {
	currency := func(v float64) string { return formatFloat(v) }
	count := func(v float64) string { return formatFloat(v) }
	if formatted {
		currency = FormatUSD
		count = FormatCount
	}

	records := [][]string{
		{"kpi", "revenue", currency(view.Kpis.Revenue)},
		{"kpi", "units", count(view.Kpis.Units)},
		{"kpi", "transactions", formatInt(view.Kpis.Tx)},
		{"kpi", "avg_ticket", currency(view.Kpis.ATV)},
		{"filter", "category", view.Criteria.Category},
		{"filter", "pay", view.Criteria.Pay},
		{"filter", "from", view.Criteria.From},
		{"filter", "to", view.Criteria.To},
		{"filter", "matched_rows", formatInt(view.MatchedRows)},
	}

	for _, table := range view.Tables {
		format := currency
		if table.ValueFmt == domain.FmtCount {
			format = count
		}
		for _, entry := range table.Entries {
			records = append(records, []string{table.ID, entry.Key, format(entry.Value)})
		}
	}

	return records
}
