package dataprocessing

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"salespulse/pkg/contracts/domain"
)

// BuildFacets collects the sorted distinct non-empty values of each
// categorical field, skipping fields whose column was never mapped.
func BuildFacets(rows []domain.SaleRecord, cols domain.ColumnMap) domain.Facets {
	cats := make(map[string]struct{})
	pays := make(map[string]struct{})
	regions := make(map[string]struct{})
	countries := make(map[string]struct{})

	for _, r := range rows {
		if cols.Category != "" && r.Category != "" {
			cats[r.Category] = struct{}{}
		}
		if cols.Pay != "" && r.Pay != "" {
			pays[r.Pay] = struct{}{}
		}
		if cols.Region != "" && r.Region != "" {
			regions[r.Region] = struct{}{}
		}
		if cols.Country != "" && r.Country != "" {
			countries[r.Country] = struct{}{}
		}
	}

	return domain.Facets{
		Categories: sortedKeys(cats),
		Pays:       sortedKeys(pays),
		Regions:    sortedKeys(regions),
		Countries:  sortedKeys(countries),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var isoDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// ParseISODateLocal reads a strict "YYYY-MM-DD" string as local midnight.
// The zero time marks an empty or malformed input.
func ParseISODateLocal(s string) time.Time {
	m := isoDateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.Local)
}

// ToISODateLocal formats a date as "YYYY-MM-DD" in local time.
func ToISODateLocal(d time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), int(d.Month()), d.Day())
}

// DateRange returns the min and max parseable dates of a row set; zero times
// when none exist.
func DateRange(rows []domain.SaleRecord) (min, max time.Time) {
	for _, r := range rows {
		if !r.HasDate() {
			continue
		}
		if min.IsZero() || r.Date.Before(min) {
			min = r.Date
		}
		if max.IsZero() || r.Date.After(max) {
			max = r.Date
		}
	}
	return min, max
}

// matchesFacets applies only the category/payment criteria. A facet filter
// set on a dataset whose column is unmapped matches nothing.
func matchesFacets(r domain.SaleRecord, f domain.FilterCriteria, cols domain.ColumnMap) bool {
	if f.Category != "" && f.Category != domain.FilterAll {
		if cols.Category == "" || r.Category != f.Category {
			return false
		}
	}
	if f.Pay != "" && f.Pay != domain.FilterAll {
		if cols.Pay == "" || r.Pay != f.Pay {
			return false
		}
	}
	return true
}

// FilterRows retains the rows matching the criteria. Dates are compared at
// day-level local granularity, bounds inclusive; an inverted range is
// silently swapped rather than rejected, and rows without a parseable date
// pass any date filter.
func FilterRows(rows []domain.SaleRecord, f domain.FilterCriteria, cols domain.ColumnMap) []domain.SaleRecord {
	from := ParseISODateLocal(f.From)
	to := ParseISODateLocal(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		from, to = to, from
	}

	out := make([]domain.SaleRecord, 0, len(rows))
	for _, r := range rows {
		if !matchesFacets(r, f, cols) {
			continue
		}
		if !from.IsZero() && r.HasDate() && r.Date.Before(from) {
			continue
		}
		if !to.IsZero() && r.HasDate() && r.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// DateRangeForFilters computes the valid date bounds of the subset selected
// by the category/payment criteria alone. The date bounds themselves are
// deliberately excluded from the pre-filter so a date filter can never
// narrow its own valid range. Empty strings mean the subset has no dates.
func DateRangeForFilters(rows []domain.SaleRecord, f domain.FilterCriteria, cols domain.ColumnMap) domain.DateBounds {
	var subset []domain.SaleRecord
	for _, r := range rows {
		if matchesFacets(r, f, cols) {
			subset = append(subset, r)
		}
	}
	min, max := DateRange(subset)

	var bounds domain.DateBounds
	if !min.IsZero() {
		bounds.MinISO = ToISODateLocal(min)
	}
	if !max.IsZero() {
		bounds.MaxISO = ToISODateLocal(max)
	}
	return bounds
}

// FilterGroup declares which criteria fields the date bounds of a filter
// group depend on. Whenever a dependent field changes, the group's bounds
// must be recomputed and any entered date outside the new bounds cleared,
// so a stale bound can never silently produce an empty subset.
type FilterGroup struct {
	DependentFields []string
}

// NewFilterGroup returns the standard group: date bounds depend on the
// category and payment selections.
func NewFilterGroup() FilterGroup {
	return FilterGroup{DependentFields: []string{"category", "pay"}}
}

// DependsOn reports whether a change to the named criteria field requires a
// bounds recomputation.
func (g FilterGroup) DependsOn(field string) bool {
	for _, f := range g.DependentFields {
		if f == field {
			return true
		}
	}
	return false
}

// Reconcile recomputes the group's valid date bounds for the given criteria
// and clears any date value that falls outside them. It returns the
// adjusted criteria together with the new bounds.
func (g FilterGroup) Reconcile(rows []domain.SaleRecord, f domain.FilterCriteria, cols domain.ColumnMap) (domain.FilterCriteria, domain.DateBounds) {
	bounds := DateRangeForFilters(rows, f, cols)

	if f.From != "" && outOfBounds(f.From, bounds) {
		f.From = ""
	}
	if f.To != "" && outOfBounds(f.To, bounds) {
		f.To = ""
	}
	return f, bounds
}

func outOfBounds(iso string, bounds domain.DateBounds) bool {
	if bounds.MinISO != "" && iso < bounds.MinISO {
		return true
	}
	if bounds.MaxISO != "" && iso > bounds.MaxISO {
		return true
	}
	return false
}
