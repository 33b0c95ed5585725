package vectorize

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/coastal-risk/internal/geom"
	"github.com/mohammed-shakir/coastal-risk/internal/grid"
)

func flatGrid(t *testing.T, rows, cols int, dx, dy, ox, oy float64) *grid.Grid {
	t.Helper()
	vals := make([][]float64, rows)
	for r := range vals {
		vals[r] = make([]float64, cols)
	}
	g, err := grid.New(vals, dx, dy, ox, oy)
	require.NoError(t, err)
	return g
}

func maskFrom(t *testing.T, rows, cols int, cells ...[2]int) *grid.Mask {
	t.Helper()
	m := grid.NewMask(rows, cols)
	for _, rc := range cells {
		m.Set(rc[0], rc[1], true)
	}
	return m
}

func TestVectorize_EmptyMask(t *testing.T) {
	g := flatGrid(t, 3, 3, 1, 1, 0, 0)
	mp := Vectorize(grid.NewMask(3, 3), g)
	require.Empty(t, mp)
}

func TestVectorize_SingleCell(t *testing.T) {
	g := flatGrid(t, 3, 3, 10, 10, 100, 200)
	mp := Vectorize(maskFrom(t, 3, 3, [2]int{1, 1}), g)
	require.Len(t, mp, 1)
	require.Empty(t, mp[0].Holes)
	require.Len(t, mp[0].Outer, 4)

	// the cell (1,1) spans world coords [110,120] x [210,220]
	bb := mp[0].Outer.BBox()
	require.Equal(t, geom.BBox{MinX: 110, MinY: 210, MaxX: 120, MaxY: 220}, bb)
	require.InDelta(t, 100.0, math.Abs(mp[0].Outer.Area()), 1e-9)
}

func TestVectorize_MergesAdjacentCells(t *testing.T) {
	g := flatGrid(t, 4, 4, 1, 1, 0, 0)
	mp := Vectorize(maskFrom(t, 4, 4,
		[2]int{1, 1}, [2]int{1, 2}, [2]int{2, 1}, [2]int{2, 2}), g)
	require.Len(t, mp, 1)
	require.Len(t, mp[0].Outer, 4, "2x2 block should simplify to a square")
	require.InDelta(t, 4.0, math.Abs(mp[0].Outer.Area()), 1e-9)
}

func TestVectorize_DiagonalCellsSeparate(t *testing.T) {
	g := flatGrid(t, 3, 3, 1, 1, 0, 0)
	mp := Vectorize(maskFrom(t, 3, 3, [2]int{0, 0}, [2]int{1, 1}), g)
	require.Len(t, mp, 2, "diagonal touch must not merge 4-connected regions")
	for _, pg := range mp {
		require.InDelta(t, 1.0, math.Abs(pg.Outer.Area()), 1e-9)
	}
}

func TestVectorize_Hole(t *testing.T) {
	g := flatGrid(t, 5, 5, 1, 1, 0, 0)
	m := grid.NewMask(5, 5)
	for r := 1; r <= 3; r++ {
		for c := 1; c <= 3; c++ {
			m.Set(r, c, true)
		}
	}
	m.Set(2, 2, false) // dry island

	mp := Vectorize(m, g)
	require.Len(t, mp, 1)
	require.Len(t, mp[0].Holes, 1)
	require.InDelta(t, 9.0, math.Abs(mp[0].Outer.Area()), 1e-9)
	require.InDelta(t, 1.0, math.Abs(mp[0].Holes[0].Area()), 1e-9)

	require.False(t, mp.Contains(geom.Point{X: 2.5, Y: 2.5}),
		"island center must be outside the flood polygon")
	require.True(t, mp.Contains(geom.Point{X: 1.5, Y: 1.5}))
}

func TestVectorize_HoleAssignedToEnclosingOuter(t *testing.T) {
	// two regions: a plain cell at (0,0) and a ring with a hole further out
	g := flatGrid(t, 6, 6, 1, 1, 0, 0)
	m := maskFrom(t, 6, 6, [2]int{0, 0})
	for r := 2; r <= 4; r++ {
		for c := 2; c <= 4; c++ {
			m.Set(r, c, true)
		}
	}
	m.Set(3, 3, false)

	mp := Vectorize(m, g)
	require.Len(t, mp, 2)

	var withHole, plain int
	for i, pg := range mp {
		if len(pg.Holes) > 0 {
			withHole = i
		} else {
			plain = i
		}
	}
	require.Len(t, mp[withHole].Holes, 1)
	require.InDelta(t, 9.0, math.Abs(mp[withHole].Outer.Area()), 1e-9)
	require.InDelta(t, 1.0, math.Abs(mp[plain].Outer.Area()), 1e-9)
}

func TestVectorize_DeterministicOrder(t *testing.T) {
	g := flatGrid(t, 5, 5, 1, 1, 0, 0)
	m := maskFrom(t, 5, 5, [2]int{4, 4}, [2]int{0, 0}, [2]int{2, 2})

	mp := Vectorize(m, g)
	require.Len(t, mp, 3)
	for i := 1; i < len(mp); i++ {
		prev, cur := mp[i-1].Outer.BBox(), mp[i].Outer.BBox()
		require.True(t, prev.MinY < cur.MinY || (prev.MinY == cur.MinY && prev.MinX <= cur.MinX),
			"polygons out of order at %d", i)
	}
}

func TestVectorize_RoundTrip(t *testing.T) {
	g := flatGrid(t, 16, 16, 1, 1, 0, 0)
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 25; trial++ {
		m := grid.NewMask(16, 16)
		for idx := 0; idx < 16*16; idx++ {
			if rng.Float64() < 0.45 {
				m.SetAt(idx, true)
			}
		}

		mp := Vectorize(m, g)
		back := Rasterize(mp, g)

		for r := 0; r < 16; r++ {
			for c := 0; c < 16; c++ {
				require.Equal(t, m.Get(r, c), back.Get(r, c),
					"trial %d: cell (%d,%d) changed across vectorize/rasterize", trial, r, c)
			}
		}
	}
}

func TestVectorize_FullMask(t *testing.T) {
	g := flatGrid(t, 4, 7, 1, 1, 0, 0)
	m := grid.NewMask(4, 7)
	for idx := 0; idx < 4*7; idx++ {
		m.SetAt(idx, true)
	}
	mp := Vectorize(m, g)
	require.Len(t, mp, 1)
	require.Empty(t, mp[0].Holes)
	require.InDelta(t, 28.0, math.Abs(mp[0].Outer.Area()), 1e-9)
}
