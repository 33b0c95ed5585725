// Package vectorize converts a boolean flood mask into polygon geometry in
// the grid's coordinate reference, so the flood extent can be intersected
// with infrastructure features or exported for rendering.
//
// The conversion traces the directed boundary edges of the flooded region
// (flooded area kept on the left), which yields counterclockwise outer
// rings and clockwise hole rings in index space. Regions touching only
// diagonally come out as separate polygons, matching the engines'
// 4-connectivity. Rasterizing the result back at the same resolution
// reproduces the mask up to the usual boundary-cell ambiguity of
// raster-to-vector conversion.
package vectorize

import (
	"sort"

	"github.com/mohammed-shakir/coastal-risk/internal/geom"
	"github.com/mohammed-shakir/coastal-risk/internal/grid"
)

type corner struct {
	x, y int // x = column index, y = row index of the grid corner
}

type edge struct {
	from, to corner
	used     bool
}

// Vectorize converts the true region of mask into polygons. An all-false
// mask yields an empty MultiPolygon, not an error.
func Vectorize(mask *grid.Mask, g *grid.Grid) geom.MultiPolygon {
	edges := boundaryEdges(mask)
	if len(edges) == 0 {
		return geom.MultiPolygon{}
	}

	outgoing := make(map[corner][]int, len(edges))
	for i, e := range edges {
		outgoing[e.from] = append(outgoing[e.from], i)
	}

	type tracedRing struct {
		corners []corner
		area    float64
	}
	var outers, holes []tracedRing

	for start := range edges {
		if edges[start].used {
			continue
		}
		ring := walkRing(edges, outgoing, start)
		a := signedArea(ring)
		if a > 0 {
			outers = append(outers, tracedRing{corners: ring, area: a})
		} else if a < 0 {
			holes = append(holes, tracedRing{corners: ring, area: a})
		}
	}

	// Assign each hole to the outer ring that contains it. The probe point
	// sits just left of the hole's first edge, inside the flooded area, so
	// it cannot land on a shared boundary vertex.
	polys := make([]geom.Polygon, len(outers))
	outerRings := make([]geom.Ring, len(outers))
	for i, o := range outers {
		outerRings[i] = indexRing(o.corners)
		polys[i].Outer = worldRing(o.corners, g)
	}
	for _, h := range holes {
		probe := holeProbe(h.corners)
		for i := range outers {
			if indexPointInRing(probe, outerRings[i]) {
				polys[i].Holes = append(polys[i].Holes, worldRing(h.corners, g))
				break
			}
		}
	}

	sort.Slice(polys, func(i, j int) bool {
		bi, bj := polys[i].Outer.BBox(), polys[j].Outer.BBox()
		if bi.MinY != bj.MinY {
			return bi.MinY < bj.MinY
		}
		return bi.MinX < bj.MinX
	})
	return polys
}

// boundaryEdges emits one directed unit edge per exposed cell side, with the
// flooded cell on the left of the edge direction.
func boundaryEdges(mask *grid.Mask) []edge {
	rows, cols := mask.Rows(), mask.Cols()
	flooded := func(r, c int) bool {
		return r >= 0 && r < rows && c >= 0 && c < cols && mask.Get(r, c)
	}
	var edges []edge
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !mask.Get(r, c) {
				continue
			}
			if !flooded(r-1, c) {
				edges = append(edges, edge{from: corner{c, r}, to: corner{c + 1, r}})
			}
			if !flooded(r, c+1) {
				edges = append(edges, edge{from: corner{c + 1, r}, to: corner{c + 1, r + 1}})
			}
			if !flooded(r+1, c) {
				edges = append(edges, edge{from: corner{c + 1, r + 1}, to: corner{c, r + 1}})
			}
			if !flooded(r, c-1) {
				edges = append(edges, edge{from: corner{c, r + 1}, to: corner{c, r}})
			}
		}
	}
	return edges
}

// walkRing follows directed edges from start until the ring closes. Where a
// corner offers two continuations (regions touching diagonally), the
// sharper left turn is taken, which keeps each ring tight around its own
// region.
func walkRing(edges []edge, outgoing map[corner][]int, start int) []corner {
	var ring []corner
	cur := start
	for {
		edges[cur].used = true
		ring = append(ring, edges[cur].from)
		next := -1
		bestTurn := -3
		dx := edges[cur].to.x - edges[cur].from.x
		dy := edges[cur].to.y - edges[cur].from.y
		for _, cand := range outgoing[edges[cur].to] {
			if edges[cand].used && cand != start {
				continue
			}
			cdx := edges[cand].to.x - edges[cand].from.x
			cdy := edges[cand].to.y - edges[cand].from.y
			cross := dx*cdy - dy*cdx
			turn := 0 // straight
			if cross > 0 {
				turn = 1 // left
			} else if cross < 0 {
				turn = -1 // right
			}
			if turn > bestTurn {
				bestTurn = turn
				next = cand
			}
		}
		if next == -1 || next == start {
			break
		}
		cur = next
	}
	return simplify(ring)
}

// simplify drops vertices where the direction does not change, including
// across the wrap between last and first.
func simplify(ring []corner) []corner {
	n := len(ring)
	if n < 3 {
		return ring
	}
	out := make([]corner, 0, n)
	for i := 0; i < n; i++ {
		prev := ring[(i-1+n)%n]
		cur := ring[i]
		next := ring[(i+1)%n]
		cross := (cur.x-prev.x)*(next.y-cur.y) - (cur.y-prev.y)*(next.x-cur.x)
		if cross != 0 {
			out = append(out, cur)
		}
	}
	return out
}

func signedArea(ring []corner) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	sum := 0
	for i := 0; i < n; i++ {
		p, q := ring[i], ring[(i+1)%n]
		sum += p.x*q.y - q.x*p.y
	}
	return float64(sum) / 2
}

func indexRing(cs []corner) geom.Ring {
	r := make(geom.Ring, len(cs))
	for i, c := range cs {
		r[i] = geom.Point{X: float64(c.x), Y: float64(c.y)}
	}
	return r
}

func worldRing(cs []corner, g *grid.Grid) geom.Ring {
	r := make(geom.Ring, len(cs))
	for i, c := range cs {
		x, y := g.Corner(c.y, c.x)
		r[i] = geom.Point{X: x, Y: y}
	}
	return r
}

// holeProbe returns a point slightly left of the hole ring's first edge,
// which lies inside the flooded region surrounding the hole.
func holeProbe(cs []corner) geom.Point {
	a, b := cs[0], cs[1%len(cs)]
	mx := (float64(a.x) + float64(b.x)) / 2
	my := (float64(a.y) + float64(b.y)) / 2
	dx := float64(b.x - a.x)
	dy := float64(b.y - a.y)
	// left normal of (dx,dy) is (-dy,dx)
	return geom.Point{X: mx - 0.25*dy, Y: my + 0.25*dx}
}

func indexPointInRing(p geom.Point, r geom.Ring) bool {
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

// Rasterize paints the multipolygon back onto a mask at the grid's
// resolution by cell-center containment. Exported for consumers that need
// the inverse mapping and for round-trip verification.
func Rasterize(mp geom.MultiPolygon, g *grid.Grid) *grid.Mask {
	mask := grid.NewMask(g.Rows(), g.Cols())
	if len(mp) == 0 {
		return mask
	}
	bb := mp.BBox()
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			x, y := g.CellCenter(r, c)
			if x < bb.MinX || x > bb.MaxX || y < bb.MinY || y > bb.MaxY {
				continue
			}
			if mp.Contains(geom.Point{X: x, Y: y}) {
				mask.Set(r, c, true)
			}
		}
	}
	return mask
}
