package flood

import (
	"context"

	"github.com/mohammed-shakir/coastal-risk/internal/grid"
)

// Connected floods only cells with a hydraulic path to the coast: a cell is
// flooded iff it is at or below sea level and reachable from a seed cell
// through 4-connected neighbors that are themselves at or below sea level.
//
// Seeds are boundary cells at or below sea level, plus any cells the grid
// explicitly marks as ocean. A grid with no seeds yields an all-false mask.
//
// The traversal is an explicit queue-driven BFS over integer cell indices
// with the output mask doubling as the visited marker, so each cell is
// enqueued at most once and the total cost is O(rows*cols).
type Connected struct{}

const dequeueChunk = 4096 // dequeues between cancellation checks

func (Connected) ComputeFlood(ctx context.Context, g *grid.Grid, seaLevel float64) (*grid.Mask, error) {
	if err := validate(g, seaLevel); err != nil {
		return nil, err
	}
	rows, cols := g.Rows(), g.Cols()
	mask := grid.NewMask(rows, cols)

	queue := make([]int, 0, 2*(rows+cols))
	enqueue := func(idx int) {
		if !mask.At(idx) && eligible(g, idx, seaLevel) {
			mask.SetAt(idx, true)
			queue = append(queue, idx)
		}
	}

	// Boundary seeds.
	for c := 0; c < cols; c++ {
		enqueue(c)
		enqueue((rows-1)*cols + c)
	}
	for r := 0; r < rows; r++ {
		enqueue(r * cols)
		enqueue(r*cols + cols - 1)
	}
	// Explicit ocean seeds, wherever they sit.
	if g.HasOceanMask() {
		for idx := 0; idx < rows*cols; idx++ {
			if g.IsOceanAt(idx) {
				enqueue(idx)
			}
		}
	}

	processed := 0
	for head := 0; head < len(queue); head++ {
		if processed%dequeueChunk == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		processed++

		idx := queue[head]
		r, c := g.RowCol(idx)
		if r > 0 {
			enqueue(idx - cols)
		}
		if r < rows-1 {
			enqueue(idx + cols)
		}
		if c > 0 {
			enqueue(idx - 1)
		}
		if c < cols-1 {
			enqueue(idx + 1)
		}
	}
	return mask, nil
}
