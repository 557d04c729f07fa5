package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"YieldGuardian/internal/model"
)

// registry holds the current yield sources keyed by origin. It has no lock
// of its own; the owning Ledger serializes all access.
type registry struct {
	byOrigin map[string][]model.YieldSource
}

func newRegistry(sources []model.YieldSource) *registry {
	r := &registry{byOrigin: make(map[string][]model.YieldSource)}
	for _, s := range sources {
		r.byOrigin[s.Origin] = append(r.byOrigin[s.Origin], s)
	}
	return r
}

// replaceOrigin swaps all sources of one origin for a new set, leaving
// other origins untouched. An empty set clears the origin.
func (r *registry) replaceOrigin(origin string, sources []model.YieldSource) {
	if len(sources) == 0 {
		delete(r.byOrigin, origin)
		return
	}
	replacement := make([]model.YieldSource, len(sources))
	copy(replacement, sources)
	r.byOrigin[origin] = replacement
}

// all returns a copy of every source, ordered by (origin, name).
func (r *registry) all() []model.YieldSource {
	var out []model.YieldSource
	for _, sources := range r.byOrigin {
		out = append(out, sources...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Origin != out[j].Origin {
			return out[i].Origin < out[j].Origin
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (r *registry) totalDailyYield() decimal.Decimal {
	total := decimal.Zero
	for _, sources := range r.byOrigin {
		for _, s := range sources {
			total = total.Add(s.DailyYield())
		}
	}
	return total
}

func (r *registry) totalHourlyYield() decimal.Decimal {
	total := decimal.Zero
	for _, sources := range r.byOrigin {
		for _, s := range sources {
			total = total.Add(s.HourlyYield())
		}
	}
	return total
}
