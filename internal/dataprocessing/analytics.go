package dataprocessing

import (
	"math"
	"sort"

	"salespulse/pkg/contracts/domain"
)

// Grouped is a keyed accumulation that remembers first-seen key order, so a
// later stable ranking can break value ties by insertion order.
type Grouped struct {
	keys   []string
	totals map[string]float64
}

// Keys returns the group keys in first-seen order.
func (g *Grouped) Keys() []string { return g.keys }

// Value returns the accumulated total for key.
func (g *Grouped) Value(key string) float64 { return g.totals[key] }

// Len returns the number of distinct keys.
func (g *Grouped) Len() int { return len(g.keys) }

// Total returns the sum over all groups.
func (g *Grouped) Total() float64 {
	var sum float64
	for _, v := range g.totals {
		sum += v
	}
	return sum
}

// GroupSum accumulates valueFn(row) per keyFn(row), skipping rows with an
// empty key. Non-finite values count as 0 so one bad cell cannot poison a
// whole group.
func GroupSum(rows []domain.SaleRecord, keyFn func(domain.SaleRecord) string, valueFn func(domain.SaleRecord) float64) *Grouped {
	g := &Grouped{totals: make(map[string]float64)}
	for _, r := range rows {
		k := keyFn(r)
		if k == "" {
			continue
		}
		v := valueFn(r)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		if _, seen := g.totals[k]; !seen {
			g.keys = append(g.keys, k)
		}
		g.totals[k] += v
	}
	return g
}

// TopN returns the n highest-value entries ordered by value descending.
// The sort is stable, so ties keep their first-seen relative order; there is
// no secondary tie-break on key.
func (g *Grouped) TopN(n int) []domain.RankedEntry {
	entries := make([]domain.RankedEntry, 0, len(g.keys))
	for _, k := range g.keys {
		entries = append(entries, domain.RankedEntry{Key: k, Value: g.totals[k]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value > entries[j].Value
	})
	if n >= 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// ComputeKpis computes the headline aggregates of a row subset. ATV is
// revenue per transaction, 0 when the subset is empty.
func ComputeKpis(rows []domain.SaleRecord) domain.KpiSet {
	var kpis domain.KpiSet
	for _, r := range rows {
		kpis.Revenue += r.Revenue
		kpis.Units += r.Qty
	}
	kpis.Tx = len(rows)
	if kpis.Tx > 0 {
		kpis.ATV = kpis.Revenue / float64(kpis.Tx)
	}
	return kpis
}
