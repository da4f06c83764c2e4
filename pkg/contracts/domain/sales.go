package domain

import (
	"time"
)

// RawRecord maps a normalized header key to the raw, trimmed cell value of one
// CSV line. Records are ephemeral: the tokenizer produces them and the column
// mapper / normalizer consume them immediately.
type RawRecord map[string]string

// ColumnMap binds each semantic field slot to the normalized header key that
// carries it in the current dataset, or to the empty string when no alias
// matched. It is built once per load from the first record; the schema is
// assumed uniform across all rows.
type ColumnMap struct {
	Product  string `json:"product"`
	Qty      string `json:"qty"`
	Revenue  string `json:"revenue,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Date     string `json:"date"`
	Pay      string `json:"pay,omitempty"`
	Region   string `json:"region,omitempty"`
	Country  string `json:"country,omitempty"`
	Category string `json:"category,omitempty"`
}

// HasCategory reports whether a category column was resolved.
func (c ColumnMap) HasCategory() bool { return c.Category != "" }

// HasPay reports whether a payment method column was resolved.
func (c ColumnMap) HasPay() bool { return c.Pay != "" }

// UnknownPay is the sentinel payment method used when no payment column is
// mapped. Kept in Spanish to match the datasets this system ingests.
const UnknownPay = "Desconocido"

// NoMonth is the year-month sentinel for rows whose date could not be parsed.
const NoMonth = "N/A"

// SaleRecord is one normalized, typed sales row. Records are created once at
// load time and are immutable afterwards; the full set is replaced wholesale
// on the next load.
type SaleRecord struct {
	Product  string    `json:"product"`
	Category string    `json:"category,omitempty"`
	Qty      float64   `json:"qty"`
	Revenue  float64   `json:"revenue"`
	Unit     *float64  `json:"unit,omitempty"`
	Date     time.Time `json:"date,omitempty"`
	YM       string    `json:"ym"`
	Pay      string    `json:"pay"`
	Region   string    `json:"region,omitempty"`
	Country  string    `json:"country,omitempty"`
}

// HasDate reports whether the row carries a parseable date. A zero time is
// the null sentinel produced by the normalizer.
func (r SaleRecord) HasDate() bool { return !r.Date.IsZero() }

// Facets holds the sorted distinct values of each categorical field, used to
// populate filter controls. Only fields whose column was mapped contribute.
type Facets struct {
	Categories []string `json:"categories"`
	Pays       []string `json:"pays"`
	Regions    []string `json:"regions"`
	Countries  []string `json:"countries"`
}

// FilterAll is the criteria value meaning "no filter on this facet".
const FilterAll = "ALL"

// FilterCriteria is read fresh from the caller per request and never
// persisted. From/To are ISO dates ("YYYY-MM-DD") or empty.
type FilterCriteria struct {
	Category string `json:"category" validate:"required"`
	Pay      string `json:"pay" validate:"required"`
	From     string `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To       string `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// DefaultCriteria returns the pass-everything criteria.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{Category: FilterAll, Pay: FilterAll}
}

// DateBounds is the valid [min, max] ISO date range for a row subset. Empty
// strings mean the subset has no parseable dates.
type DateBounds struct {
	MinISO string `json:"min"`
	MaxISO string `json:"max"`
}

// DatasetInfo describes the currently loaded dataset.
type DatasetInfo struct {
	ID       string     `json:"id"`
	Source   string     `json:"source"`
	Rows     int        `json:"rows"`
	LoadedAt time.Time  `json:"loaded_at"`
	Columns  ColumnMap  `json:"columns"`
	Range    DateBounds `json:"date_range"`
}
