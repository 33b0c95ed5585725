package flood

import (
	"context"

	"github.com/mohammed-shakir/coastal-risk/internal/grid"
)

// Bathtub classifies every cell at or below sea level as flooded,
// independent of position. Kept for comparison and legacy analyses.
type Bathtub struct{}

const rowBand = 256 // rows between cancellation checks

func (Bathtub) ComputeFlood(ctx context.Context, g *grid.Grid, seaLevel float64) (*grid.Mask, error) {
	if err := validate(g, seaLevel); err != nil {
		return nil, err
	}
	mask := grid.NewMask(g.Rows(), g.Cols())
	for r := 0; r < g.Rows(); r++ {
		if r%rowBand == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		base := r * g.Cols()
		for c := 0; c < g.Cols(); c++ {
			if eligible(g, base+c, seaLevel) {
				mask.SetAt(base+c, true)
			}
		}
	}
	return mask, nil
}
