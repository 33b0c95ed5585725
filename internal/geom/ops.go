package geom

import (
	"math"
	"sort"
)

// orientation returns >0 when c is left of a->b, <0 when right, 0 when
// collinear.
func orientation(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, p Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// segmentsIntersect reports whether segments a1a2 and b1b2 share any point,
// including endpoint touches and collinear overlap.
func segmentsIntersect(a1, a2, b1, b2 Point) bool {
	d1 := orientation(b1, b2, a1)
	d2 := orientation(b1, b2, a2)
	d3 := orientation(a1, a2, b1)
	d4 := orientation(a1, a2, b2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(b1, b2, a1) {
		return true
	}
	if d2 == 0 && onSegment(b1, b2, a2) {
		return true
	}
	if d3 == 0 && onSegment(a1, a2, b1) {
		return true
	}
	if d4 == 0 && onSegment(a1, a2, b2) {
		return true
	}
	return false
}

// pointInRing runs an even-odd ray cast from p toward +X.
func pointInRing(p Point, r Ring) bool {
	inside := false
	n := len(r)
	for i := 0; i < n; i++ {
		a, b := r[i], r[(i+1)%n]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Contains reports whether p lies inside the polygon (inside the outer ring
// and outside every hole).
func (pg Polygon) Contains(p Point) bool {
	if !pointInRing(p, pg.Outer) {
		return false
	}
	for _, h := range pg.Holes {
		if pointInRing(p, h) {
			return false
		}
	}
	return true
}

// Contains reports whether p lies inside any member polygon.
func (mp MultiPolygon) Contains(p Point) bool {
	for _, pg := range mp {
		if pg.Contains(p) {
			return true
		}
	}
	return false
}

func (pg Polygon) rings() []Ring {
	rs := make([]Ring, 0, 1+len(pg.Holes))
	rs = append(rs, pg.Outer)
	rs = append(rs, pg.Holes...)
	return rs
}

func ringsCross(a, b Ring) bool {
	na, nb := len(a), len(b)
	for i := 0; i < na; i++ {
		for j := 0; j < nb; j++ {
			if segmentsIntersect(a[i], a[(i+1)%na], b[j], b[(j+1)%nb]) {
				return true
			}
		}
	}
	return false
}

// IntersectsPolygon reports whether the two polygon interiors or boundaries
// share any point: an edge crossing, or full containment either way.
func (pg Polygon) IntersectsPolygon(o Polygon) bool {
	if !pg.BBox().Intersects(o.BBox()) {
		return false
	}
	for _, ra := range pg.rings() {
		for _, rb := range o.rings() {
			if ringsCross(ra, rb) {
				return true
			}
		}
	}
	// no boundary crossing: one may contain the other entirely
	if len(o.Outer) > 0 && pg.Contains(o.Outer[0]) {
		return true
	}
	if len(pg.Outer) > 0 && o.Contains(pg.Outer[0]) {
		return true
	}
	return false
}

// Intersects reports whether any member polygon intersects o.
func (mp MultiPolygon) Intersects(o Polygon) bool {
	for _, pg := range mp {
		if pg.IntersectsPolygon(o) {
			return true
		}
	}
	return false
}

// ClippedLength returns the total length of the portions of the polyline
// that lie inside the multipolygon. Each segment is split at every ring
// crossing and classified by its interval midpoint, so partially flooded
// roads contribute only their flooded share.
func (l Line) ClippedLength(mp MultiPolygon) float64 {
	total := 0.0
	for i := 1; i < len(l); i++ {
		total += clipSegment(l[i-1], l[i], mp)
	}
	return total
}

func clipSegment(a, b Point, mp MultiPolygon) float64 {
	segLen := dist(a, b)
	if segLen == 0 {
		return 0
	}
	ts := []float64{0, 1}
	for _, pg := range mp {
		for _, r := range pg.rings() {
			n := len(r)
			for i := 0; i < n; i++ {
				if t, ok := segmentParam(a, b, r[i], r[(i+1)%n]); ok {
					ts = append(ts, t)
				}
			}
		}
	}
	sort.Float64s(ts)

	inside := 0.0
	for i := 1; i < len(ts); i++ {
		t0, t1 := ts[i-1], ts[i]
		if t1-t0 <= 0 {
			continue
		}
		tm := (t0 + t1) / 2
		mid := Point{X: a.X + tm*(b.X-a.X), Y: a.Y + tm*(b.Y-a.Y)}
		if mp.Contains(mid) {
			inside += (t1 - t0) * segLen
		}
	}
	return inside
}

// segmentParam returns the parameter t in [0,1] at which segment ab crosses
// segment cd, when the crossing is a single point.
func segmentParam(a, b, c, d Point) (float64, bool) {
	rX, rY := b.X-a.X, b.Y-a.Y
	sX, sY := d.X-c.X, d.Y-c.Y
	denom := rX*sY - rY*sX
	if denom == 0 {
		return 0, false // parallel or collinear; interval midpoints handle overlap
	}
	t := ((c.X-a.X)*sY - (c.Y-a.Y)*sX) / denom
	u := ((c.X-a.X)*rY - (c.Y-a.Y)*rX) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}
