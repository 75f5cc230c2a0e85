package recommend

import (
	"fmt"
	"log/slog"

	"showroom/inventory"
)

const (
	DefaultFallbackSize = 3

	// DefaultReasonFormat takes the query as its only argument.
	DefaultReasonFormat = "%s에 적합할 수 있는 차량입니다."
)

// Reconciler joins reasoning candidates to the catalog. It always produces a
// displayable list: when nothing matches it falls back to the head of the catalog.
type Reconciler struct {
	fallbackSize int
	reasonFormat string
}

type ReconcilerOpts struct {
	FallbackSize int
	ReasonFormat string
}

func NewReconciler(opts ReconcilerOpts) *Reconciler {
	if opts.FallbackSize <= 0 {
		opts.FallbackSize = DefaultFallbackSize
	}
	if opts.ReasonFormat == "" {
		opts.ReasonFormat = DefaultReasonFormat
	}
	return &Reconciler{
		fallbackSize: opts.FallbackSize,
		reasonFormat: opts.ReasonFormat,
	}
}

// Reconcile returns the matched candidates in ranking order, or the fallback list when
// none match. The result shares no memory with catalog.
func (r *Reconciler) Reconcile(query string, res Result, catalog []inventory.Record) []Enriched {
	byID := make(map[int]inventory.Record, len(catalog))
	for _, rec := range catalog {
		if _, ok := byID[rec.ID]; !ok {
			byID[rec.ID] = rec
		}
	}

	out := make([]Enriched, 0, len(res.Candidates))
	if res.OK() {
		for _, c := range res.Candidates {
			rec, ok := byID[c.ID]
			if !ok {
				slog.Debug("RECOMMEND: Dropping unknown candidate", "id", c.ID)
				continue
			}
			out = append(out, enrich(rec, c.MatchReason))
		}
	}
	if len(out) > 0 {
		return out
	}

	return r.fallback(query, catalog)
}

// IsFallback reports whether Reconcile would answer with the fallback list.
func (r *Reconciler) IsFallback(res Result, catalog []inventory.Record) bool {
	if !res.OK() {
		return true
	}
	for _, c := range res.Candidates {
		if _, ok := inventory.Find(catalog, c.ID); ok {
			return false
		}
	}
	return true
}

func (r *Reconciler) fallback(query string, catalog []inventory.Record) []Enriched {
	n := min(r.fallbackSize, len(catalog))
	reason := fmt.Sprintf(r.reasonFormat, query)

	out := make([]Enriched, 0, n)
	for _, rec := range catalog[:n] {
		out = append(out, enrich(rec, reason))
	}
	return out
}
