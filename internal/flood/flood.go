// Package flood implements the flood-extent engines. Two models are
// provided: a bathtub threshold classifier and a connectivity model that
// additionally requires a path to a coastal seed cell.
package flood

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohammed-shakir/coastal-risk/internal/grid"
)

// ErrNilGrid is returned when an engine is invoked without a grid.
var ErrNilGrid = errors.New("flood: nil grid")

// Model selects a flood engine.
type Model string

const (
	// ModelBathtub floods every cell at or below sea level.
	ModelBathtub Model = "bathtub"
	// ModelConnected floods only cells reachable from a coastal seed.
	ModelConnected Model = "connected"
)

// Engine computes a flood mask for a grid at a given sea level. The returned
// mask is freshly allocated per call and never mutated afterwards.
type Engine interface {
	ComputeFlood(ctx context.Context, g *grid.Grid, seaLevel float64) (*grid.Mask, error)
}

// ForModel returns the engine for a model name.
func ForModel(m Model) (Engine, error) {
	switch m {
	case ModelBathtub:
		return Bathtub{}, nil
	case ModelConnected:
		return Connected{}, nil
	default:
		return nil, fmt.Errorf("flood: unknown model %q", m)
	}
}

func validate(g *grid.Grid, seaLevel float64) error {
	if g == nil {
		return ErrNilGrid
	}
	return grid.ValidateSeaLevel(seaLevel)
}

// eligible reports whether the cell at idx may flood at the given level:
// it must carry a valid measurement and sit at or below sea level.
// No-data cells never flood and never propagate connectivity.
func eligible(g *grid.Grid, idx int, level float64) bool {
	return !g.IsNoDataAt(idx) && g.ElevAt(idx) <= level
}
