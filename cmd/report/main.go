// Command report loads one sales file, applies filters and writes the
// summary CSV that the web dashboard exports, without running a server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"salespulse/internal/config"
	"salespulse/internal/exporter"
	"salespulse/internal/infrastructure"
	"salespulse/internal/services"
	"salespulse/pkg/contracts/domain"
)

func main() {
	var (
		input     = flag.String("input", "", "CSV or XLSX file to load (defaults to the configured CSV)")
		category  = flag.String("category", domain.FilterAll, "category filter")
		pay       = flag.String("pay", domain.FilterAll, "payment method filter")
		from      = flag.String("from", "", "start date (YYYY-MM-DD)")
		to        = flag.String("to", "", "end date (YYYY-MM-DD)")
		out       = flag.String("out", "", "write the summary CSV to this path instead of stdout")
		formatted = flag.Bool("formatted", false, "render currency and counts with locale formatting")
		asJSON    = flag.Bool("json", false, "emit the summary as JSON instead of CSV")
		topN      = flag.Int("top", 10, "ranking size")
	)
	flag.Parse()

	if err := run(*input, *out, *topN, *formatted, *asJSON, domain.FilterCriteria{
		Category: *category,
		Pay:      *pay,
		From:     *from,
		To:       *to,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		os.Exit(1)
	}
}

func run(input, out string, topN int, formatted, asJSON bool, criteria domain.FilterCriteria) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Data.TopN = topN

	logger := infrastructure.NewLoggerWithWriter(cfg.Logging, os.Stderr)
	svc := services.NewDashboardService(cfg.Data, logger, nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	info, err := svc.LoadFromFile(ctx, input)
	if err != nil {
		return err
	}

	view, err := svc.Summary(ctx, criteria)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "loaded %d rows from %s (%d matched)\n",
		info.Rows, info.Source, view.MatchedRows)
	fmt.Fprintf(os.Stderr, "revenue %s, units %s, transactions %d, avg ticket %s\n",
		exporter.FormatUSD(view.Kpis.Revenue),
		exporter.FormatCount(view.Kpis.Units),
		view.Kpis.Tx,
		exporter.FormatUSD(view.Kpis.ATV))

	writer := exporter.NewSummaryWriter(logger)

	dest := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		dest = f
	}

	if asJSON {
		return writer.WriteSummaryJSON(dest, view)
	}
	return writer.WriteSummary(dest, view, exporter.WriteOptions{BOMPrefix: true, Formatted: formatted})
}
