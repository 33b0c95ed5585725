package overlay

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/coastal-risk/internal/geom"
)

// Hit is one feature intersecting the flood polygon. FloodedLen is the
// flooded portion length for roads, zero for other kinds.
type Hit struct {
	ID         string
	Kind       Kind
	FloodedLen float64
}

// Index is a bucket-grid spatial index over feature bounding boxes. A
// feature is registered in every bucket its bounding box overlaps, so
// candidate retrieval by bucket never misses an intersecting feature.
// Built once per infrastructure set; read-only afterwards, safe to reuse
// across sea-level analyses.
type Index struct {
	features map[string]Feature
	order    []string // insertion order of valid features, for determinism
	buckets  map[[2]int][]string
	cell     float64
	bbox     geom.BBox
	skipped  int
}

const candChunk = 256 // candidates between cancellation checks

// BuildIndex indexes the given features. Features with degenerate geometry
// are skipped with a warning and tallied, never fatal. An empty feature set
// is valid and yields an index that matches nothing.
func BuildIndex(features []Feature, log zerolog.Logger) (*Index, error) {
	ix := &Index{
		features: make(map[string]Feature, len(features)),
		buckets:  make(map[[2]int][]string),
	}

	valid := make([]Feature, 0, len(features))
	bb := geom.BBox{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, f := range features {
		if err := f.Validate(); err != nil {
			ix.skipped++
			log.Warn().Str("feature_id", f.ID).Str("kind", string(f.Kind)).
				Err(err).Msg("skipping degenerate feature")
			continue
		}
		valid = append(valid, f)
		bb = bb.Union(f.BBox())
	}
	if len(valid) == 0 {
		return ix, nil
	}
	ix.bbox = bb

	// Bucket size aims at a handful of features per bucket; clamped so a
	// degenerate extent (single point set) still produces finite keys.
	w := bb.MaxX - bb.MinX
	h := bb.MaxY - bb.MinY
	ix.cell = math.Sqrt((w*h)/float64(len(valid))) * 2
	if ix.cell <= 0 || math.IsNaN(ix.cell) {
		ix.cell = math.Max(math.Max(w, h)/16, 1)
	}

	for _, f := range valid {
		ix.features[f.ID] = f
		ix.order = append(ix.order, f.ID)
		fb := f.BBox()
		x0, y0 := ix.bucketOf(fb.MinX, fb.MinY)
		x1, y1 := ix.bucketOf(fb.MaxX, fb.MaxY)
		for bx := x0; bx <= x1; bx++ {
			for by := y0; by <= y1; by++ {
				key := [2]int{bx, by}
				ix.buckets[key] = append(ix.buckets[key], f.ID)
			}
		}
	}
	return ix, nil
}

func (ix *Index) bucketOf(x, y float64) (int, int) {
	return int(math.Floor((x - ix.bbox.MinX) / ix.cell)),
		int(math.Floor((y - ix.bbox.MinY) / ix.cell))
}

// Skipped returns the count of degenerate features dropped at build time.
func (ix *Index) Skipped() int { return ix.skipped }

// All returns the indexed (valid) features in insertion order.
func (ix *Index) All() []Feature {
	out := make([]Feature, 0, len(ix.order))
	for _, id := range ix.order {
		out = append(out, ix.features[id])
	}
	return out
}

// Query returns every feature whose exact geometry intersects the flood
// polygon. Bucket retrieval may produce false positives; the per-variant
// exact test resolves them. Results are sorted by feature ID.
func (ix *Index) Query(ctx context.Context, flood geom.MultiPolygon) ([]Hit, error) {
	if len(flood) == 0 || len(ix.features) == 0 {
		return nil, nil
	}
	qb := flood.BBox()
	if !qb.Intersects(ix.bbox) {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var candidates []string
	x0, y0 := ix.bucketOf(math.Max(qb.MinX, ix.bbox.MinX), math.Max(qb.MinY, ix.bbox.MinY))
	x1, y1 := ix.bucketOf(math.Min(qb.MaxX, ix.bbox.MaxX), math.Min(qb.MaxY, ix.bbox.MaxY))
	for bx := x0; bx <= x1; bx++ {
		for by := y0; by <= y1; by++ {
			for _, id := range ix.buckets[[2]int{bx, by}] {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				candidates = append(candidates, id)
			}
		}
	}
	sort.Strings(candidates)

	var hits []Hit
	for i, id := range candidates {
		if i%candChunk == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		f := ix.features[id]
		if !f.BBox().Intersects(qb) {
			continue
		}
		switch f.Kind {
		case KindFacility:
			if flood.Contains(f.Loc) {
				hits = append(hits, Hit{ID: f.ID, Kind: f.Kind})
			}
		case KindBuilding:
			if flood.Intersects(f.Footprint) {
				hits = append(hits, Hit{ID: f.ID, Kind: f.Kind})
			}
		case KindRoad:
			if l := f.Path.ClippedLength(flood); l > 0 {
				hits = append(hits, Hit{ID: f.ID, Kind: f.Kind, FloodedLen: l})
			}
		}
	}
	return hits, nil
}
