package seawall

import (
	"context"
	"errors"
	"testing"

	"github.com/mohammed-shakir/coastal-risk/internal/flood"
	"github.com/mohammed-shakir/coastal-risk/internal/geom"
	"github.com/mohammed-shakir/coastal-risk/internal/grid"
)

// lowland is a flat 5x5 grid at elevation 0 with unit cells.
func lowland(t *testing.T) *grid.Grid {
	t.Helper()
	vals := make([][]float64, 5)
	for r := range vals {
		vals[r] = make([]float64, 5)
	}
	g, err := grid.New(vals, 1, 1, 0, 0)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	return g
}

func TestApply_RaisesWallCells(t *testing.T) {
	g := lowland(t)
	// vertical wall through column 2
	wall := geom.Line{{X: 2.5, Y: 0.5}, {X: 2.5, Y: 4.5}}

	protected, err := Apply(g, wall, 10)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for r := 0; r < 5; r++ {
		if protected.Elev(r, 2) != 10 {
			t.Fatalf("wall cell (%d,2) = %v, want 10", r, protected.Elev(r, 2))
		}
	}
	if protected.Elev(0, 0) != 0 {
		t.Fatalf("off-wall cell raised")
	}
	if g.Elev(0, 2) != 0 {
		t.Fatalf("input grid mutated")
	}
}

func TestApply_DiagonalWallIsContinuous(t *testing.T) {
	g := lowland(t)
	wall := geom.Line{{X: 0.5, Y: 0.5}, {X: 4.5, Y: 4.5}}

	protected, err := Apply(g, wall, 3)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	raised := 0
	for idx := 0; idx < 25; idx++ {
		if protected.ElevAt(idx) == 3 {
			raised++
		}
	}
	if raised < 5 {
		t.Fatalf("diagonal wall raised only %d cells", raised)
	}
	for d := 0; d < 5; d++ {
		if protected.Elev(d, d) != 3 {
			t.Fatalf("diagonal cell (%d,%d) not raised", d, d)
		}
	}
}

func TestApply_Validation(t *testing.T) {
	g := lowland(t)
	if _, err := Apply(g, geom.Line{{X: 1, Y: 1}}, 5); !errors.Is(err, geom.ErrDegenerate) {
		t.Fatalf("single vertex wall: got %v", err)
	}
	outside := geom.Line{{X: 100, Y: 100}, {X: 110, Y: 110}}
	if _, err := Apply(g, outside, 5); !errors.Is(err, ErrWallOutsideGrid) {
		t.Fatalf("off-grid wall: got %v", err)
	}
}

func TestApply_PartiallyOffGrid(t *testing.T) {
	g := lowland(t)
	// one endpoint outside: the in-bounds endpoint cell still gets raised
	wall := geom.Line{{X: 2.5, Y: 2.5}, {X: 100, Y: 2.5}}
	protected, err := Apply(g, wall, 7)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if protected.Elev(2, 2) != 7 {
		t.Fatalf("in-bounds endpoint cell not raised")
	}
}

// The wall changes the flood outcome: a shore-parallel barrier keeps the
// connected model out of the hinterland it encloses.
func TestApply_BlocksConnectedFlood(t *testing.T) {
	g := lowland(t)
	ctx := context.Background()

	before, err := flood.Connected{}.ComputeFlood(ctx, g, 1)
	if err != nil {
		t.Fatalf("flood before: %v", err)
	}
	if before.Count() != 25 {
		t.Fatalf("unprotected lowland should flood fully, got %d", before.Count())
	}

	// closed ring of wall around the center cell
	wall := geom.Line{
		{X: 1.5, Y: 1.5}, {X: 3.5, Y: 1.5}, {X: 3.5, Y: 3.5},
		{X: 1.5, Y: 3.5}, {X: 1.5, Y: 1.5},
	}
	protected, err := Apply(g, wall, 10)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	after, err := flood.Connected{}.ComputeFlood(ctx, protected, 1)
	if err != nil {
		t.Fatalf("flood after: %v", err)
	}
	if after.Get(2, 2) {
		t.Fatalf("cell behind a closed wall must stay dry")
	}
	if !after.Get(0, 0) {
		t.Fatalf("cells outside the wall should still flood")
	}
	if after.Count() >= before.Count() {
		t.Fatalf("wall did not reduce the flood extent: %d vs %d", after.Count(), before.Count())
	}
}
