// Package seawall applies a protective-wall adaptation to an elevation
// grid: cells under the wall line are raised to the wall crest height, so a
// subsequent connected-flood analysis sees the wall as a barrier.
package seawall

import (
	"errors"

	"github.com/mohammed-shakir/coastal-risk/internal/geom"
	"github.com/mohammed-shakir/coastal-risk/internal/grid"
)

// ErrWallOutsideGrid is returned when no wall vertex falls on the raster.
var ErrWallOutsideGrid = errors.New("seawall: wall line does not touch the grid")

// Apply returns a copy of g where every cell crossed by the wall polyline
// is raised to at least height. The input grid is not modified.
func Apply(g *grid.Grid, wall geom.Line, height float64) (*grid.Grid, error) {
	if err := geom.ValidateLine(wall); err != nil {
		return nil, err
	}
	cells := rasterizeLine(g, wall)
	if len(cells) == 0 {
		return nil, ErrWallOutsideGrid
	}
	return g.WithRaisedCells(cells, height), nil
}

// rasterizeLine maps the polyline onto cell indices with a Bresenham walk
// between the cells containing consecutive vertices.
func rasterizeLine(g *grid.Grid, wall geom.Line) []int {
	seen := make(map[int]struct{})
	var cells []int
	add := func(r, c int) {
		idx := g.Index(r, c)
		if _, ok := seen[idx]; ok {
			return
		}
		seen[idx] = struct{}{}
		cells = append(cells, idx)
	}

	for i := 1; i < len(wall); i++ {
		r0, c0, ok0 := g.CellAt(wall[i-1].X, wall[i-1].Y)
		r1, c1, ok1 := g.CellAt(wall[i].X, wall[i].Y)
		if !ok0 || !ok1 {
			// segments leaving the raster contribute only their in-bounds
			// endpoint cell
			if ok0 {
				add(r0, c0)
			}
			if ok1 {
				add(r1, c1)
			}
			continue
		}
		bresenham(r0, c0, r1, c1, add)
	}
	return cells
}

func bresenham(r0, c0, r1, c1 int, visit func(r, c int)) {
	dr := abs(r1 - r0)
	dc := abs(c1 - c0)
	sr, sc := 1, 1
	if r0 > r1 {
		sr = -1
	}
	if c0 > c1 {
		sc = -1
	}
	err := dc - dr
	r, c := r0, c0
	for {
		visit(r, c)
		if r == r1 && c == c1 {
			return
		}
		e2 := 2 * err
		if e2 > -dr {
			err -= dr
			c += sc
		}
		if e2 < dc {
			err += dc
			r += sr
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
