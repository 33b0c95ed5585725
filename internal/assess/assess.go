// Package assess aggregates overlay intersections into the reported impact
// metrics. A report is always a complete recomputation for one
// (grid, sea level, infrastructure set) triple; nothing is updated
// incrementally across sea levels, since connectivity is not monotone at
// region boundaries.
package assess

import (
	"sort"

	"github.com/mohammed-shakir/coastal-risk/internal/overlay"
)

// Report holds the aggregate flood-impact metrics.
type Report struct {
	FloodedBuildings     int                `json:"flooded_buildings"`
	FloodedRoadKm        float64            `json:"flooded_road_km"`
	FloodedCriticalSites int                `json:"flooded_critical_sites"`
	CategoryPct          map[string]float64 `json:"category_pct"`
	SkippedFeatures      int                `json:"skipped_features"`
}

// Assessor computes reports against a fixed feature universe. The
// per-category denominators are snapshotted at construction, so they cannot
// drift if the area of interest is reloaded between overlay runs.
type Assessor struct {
	byID    map[string]overlay.Feature
	totals  map[string]int
	skipped int
}

// category buckets a feature for the percentage metric: its tagged category
// when present, otherwise its kind.
func category(f overlay.Feature) string {
	if f.Category != "" {
		return f.Category
	}
	return string(f.Kind)
}

// New snapshots the feature universe. skipped is the diagnostics tally of
// degenerate features excluded at index build.
func New(features []overlay.Feature, skipped int) *Assessor {
	a := &Assessor{
		byID:    make(map[string]overlay.Feature, len(features)),
		totals:  make(map[string]int),
		skipped: skipped,
	}
	for _, f := range features {
		a.byID[f.ID] = f
		a.totals[category(f)]++
	}
	return a
}

// Assess turns a hit set into a Report. Hits referencing unknown features
// are ignored. A category with zero total features reports 0%, never NaN.
func (a *Assessor) Assess(hits []overlay.Hit) Report {
	rep := Report{
		CategoryPct:     make(map[string]float64, len(a.totals)),
		SkippedFeatures: a.skipped,
	}

	floodedByCat := make(map[string]int)
	counted := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		f, ok := a.byID[h.ID]
		if !ok {
			continue
		}
		if _, dup := counted[h.ID]; dup {
			continue
		}
		counted[h.ID] = struct{}{}

		floodedByCat[category(f)]++
		switch f.Kind {
		case overlay.KindBuilding:
			rep.FloodedBuildings++
		case overlay.KindRoad:
			rep.FloodedRoadKm += h.FloodedLen / 1000 // CRS units assumed meters
		case overlay.KindFacility:
			rep.FloodedCriticalSites++
		}
	}

	cats := make([]string, 0, len(a.totals))
	for cat := range a.totals {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		total := a.totals[cat]
		if total == 0 {
			rep.CategoryPct[cat] = 0
			continue
		}
		rep.CategoryPct[cat] = float64(floodedByCat[cat]) / float64(total) * 100
	}
	return rep
}
