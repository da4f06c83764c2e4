package dataprocessing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"salespulse/pkg/contracts/domain"
)

var (
	isoPrefixRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	dmyRe       = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
)

// fallbackLayouts are tried in order when a date matches neither the ISO
// prefix nor the DD/MM/YYYY form. Best effort only.
var fallbackLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02-01-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseNumber coerces a raw cell into a float64 using a Latin-grouping
// heuristic: with both comma and period present, periods are thousands
// separators and the comma is the decimal mark; a lone comma is treated as
// the decimal mark. Unparseable or missing input defaults to 0; this is a
// best-effort coercion, not a validating parser, and a thousands-grouped
// integer like "1,234" is read as 1.234.
func ParseNumber(v string) float64 {
	s := strings.TrimSpace(v)
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	if hasComma && hasDot {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else if hasComma {
		s = strings.ReplaceAll(s, ",", ".")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n
}

// ParseDateSmart coerces a raw cell into a local-midnight date. It tries an
// ISO "YYYY-MM-DD" prefix first, then "DD/MM/YYYY" with explicit day/month/
// year construction to sidestep timezone-ambiguous parsing, then an ordered
// chain of fallback layouts. The zero time marks failure.
func ParseDateSmart(v string) time.Time {
	s := strings.TrimSpace(v)
	if s == "" {
		return time.Time{}
	}

	if isoPrefixRe.MatchString(s) {
		if d, err := time.ParseInLocation("2006-01-02", s[:10], time.Local); err == nil {
			return d
		}
	}

	if m := dmyRe.FindStringSubmatch(s); m != nil {
		dd, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		yyyy, _ := strconv.Atoi(m[3])
		return time.Date(yyyy, time.Month(mm), dd, 0, 0, 0, 0, time.Local)
	}

	for _, layout := range fallbackLayouts {
		if d, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local)
		}
	}
	return time.Time{}
}

// NormalizeRows coerces every raw record into a typed sale record using the
// resolved column map. The output has the same length and order as the
// input: parse failures default instead of dropping rows, so only the column
// mapper can reject a dataset.
func NormalizeRows(records []domain.RawRecord, cols domain.ColumnMap) []domain.SaleRecord {
	rows := make([]domain.SaleRecord, 0, len(records))
	for _, rec := range records {
		d := ParseDateSmart(rec[cols.Date])
		ym := domain.NoMonth
		if !d.IsZero() {
			ym = fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month()))
		}

		qty := ParseNumber(rec[cols.Qty])

		var unit *float64
		if cols.Unit != "" {
			u := ParseNumber(rec[cols.Unit])
			unit = &u
		}

		var revenue float64
		switch {
		case cols.Revenue != "":
			revenue = ParseNumber(rec[cols.Revenue])
		case unit != nil:
			revenue = *unit * qty
		}

		row := domain.SaleRecord{
			Product: rec[cols.Product],
			Qty:     qty,
			Revenue: revenue,
			Unit:    unit,
			Date:    d,
			YM:      ym,
			Pay:     domain.UnknownPay,
		}
		if cols.Category != "" {
			row.Category = rec[cols.Category]
		}
		if cols.Pay != "" {
			row.Pay = rec[cols.Pay]
		}
		if cols.Region != "" {
			row.Region = rec[cols.Region]
		}
		if cols.Country != "" {
			row.Country = rec[cols.Country]
		}
		rows = append(rows, row)
	}
	return rows
}
