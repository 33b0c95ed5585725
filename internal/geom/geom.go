// Package geom provides the planar geometry primitives used by the overlay
// analysis: rings, polygons with holes, polylines, and bounding boxes.
// All coordinates are in the grid's (projected) coordinate reference.
package geom

import (
	"errors"
	"math"
)

// ErrDegenerate marks an empty, non-finite, or self-intersecting geometry.
var ErrDegenerate = errors.New("geom: degenerate geometry")

type Point struct {
	X, Y float64
}

// Ring is a closed ring of vertices; the closing edge from the last vertex
// back to the first is implicit.
type Ring []Point

// Polygon is an outer ring with optional holes.
type Polygon struct {
	Outer Ring
	Holes []Ring
}

// MultiPolygon is zero or more disjoint polygons.
type MultiPolygon []Polygon

// Line is an open polyline.
type Line []Point

type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

func emptyBBox() BBox {
	return BBox{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
}

func (b BBox) Expand(p Point) BBox {
	return BBox{
		MinX: math.Min(b.MinX, p.X), MinY: math.Min(b.MinY, p.Y),
		MaxX: math.Max(b.MaxX, p.X), MaxY: math.Max(b.MaxY, p.Y),
	}
}

func (b BBox) Union(o BBox) BBox {
	return BBox{
		MinX: math.Min(b.MinX, o.MinX), MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX), MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

func (b BBox) Intersects(o BBox) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX &&
		b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

func (b BBox) Empty() bool { return b.MinX > b.MaxX || b.MinY > b.MaxY }

func BBoxOf(pts []Point) BBox {
	b := emptyBBox()
	for _, p := range pts {
		b = b.Expand(p)
	}
	return b
}

func (r Ring) BBox() BBox { return BBoxOf(r) }
func (l Line) BBox() BBox { return BBoxOf(l) }

func (pg Polygon) BBox() BBox { return pg.Outer.BBox() }

func (mp MultiPolygon) BBox() BBox {
	b := emptyBBox()
	for _, pg := range mp {
		b = b.Union(pg.BBox())
	}
	return b
}

// Area returns the signed shoelace area; positive for counterclockwise
// winding.
func (r Ring) Area() float64 {
	if len(r) < 3 {
		return 0
	}
	sum := 0.0
	for i, p := range r {
		q := r[(i+1)%len(r)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// Length returns the polyline length.
func (l Line) Length() float64 {
	total := 0.0
	for i := 1; i < len(l); i++ {
		total += dist(l[i-1], l[i])
	}
	return total
}

func dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// ValidateRing rejects rings with fewer than three vertices, non-finite
// coordinates, or self-intersections between non-adjacent edges.
func ValidateRing(r Ring) error {
	if len(r) < 3 {
		return ErrDegenerate
	}
	for _, p := range r {
		if !finite(p) {
			return ErrDegenerate
		}
	}
	n := len(r)
	for i := 0; i < n; i++ {
		a1, a2 := r[i], r[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// skip the two edges adjacent to edge i
			if j == i || (j+1)%n == i || j == (i+1)%n {
				continue
			}
			b1, b2 := r[j], r[(j+1)%n]
			if segmentsIntersect(a1, a2, b1, b2) {
				return ErrDegenerate
			}
		}
	}
	return nil
}

// ValidatePolygon validates the outer ring and all holes.
func ValidatePolygon(pg Polygon) error {
	if err := ValidateRing(pg.Outer); err != nil {
		return err
	}
	for _, h := range pg.Holes {
		if err := ValidateRing(h); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLine rejects polylines with fewer than two vertices or non-finite
// coordinates.
func ValidateLine(l Line) error {
	if len(l) < 2 {
		return ErrDegenerate
	}
	for _, p := range l {
		if !finite(p) {
			return ErrDegenerate
		}
	}
	return nil
}

// ValidatePoint rejects non-finite points.
func ValidatePoint(p Point) error {
	if !finite(p) {
		return ErrDegenerate
	}
	return nil
}
