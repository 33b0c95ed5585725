// Package grid provides the immutable elevation raster consumed by the
// flood engines. A grid is georeferenced: cell (r,c) covers the rectangle
// [OriginX+c*DX, OriginX+(c+1)*DX] x [OriginY+r*DY, OriginY+(r+1)*DY] in
// the grid's coordinate reference. DY may be negative for north-up rasters.
package grid

import (
	"errors"
	"math"
)

var (
	// ErrEmptyGrid indicates the input raster has no rows or no columns.
	ErrEmptyGrid = errors.New("grid: must have at least one row and one column")
	// ErrNonRectangular indicates rows of differing lengths.
	ErrNonRectangular = errors.New("grid: all rows must have the same length")
	// ErrZeroCellSize indicates a zero cell dimension.
	ErrZeroCellSize = errors.New("grid: cell size must be non-zero")
	// ErrSeaLevel indicates a non-finite sea level.
	ErrSeaLevel = errors.New("grid: sea level must be finite")
	// ErrOceanMaskSize indicates an ocean mask that does not match the grid.
	ErrOceanMaskSize = errors.New("grid: ocean mask size must match grid dimensions")
)

// Grid is an immutable elevation raster. Construct with New or NewFromFlat;
// the elevation data is copied so the caller cannot mutate it afterwards.
type Grid struct {
	rows, cols       int
	dx, dy           float64
	originX, originY float64
	crs              string
	nodata           float64
	elev             []float64 // row-major
	ocean            []bool    // optional, row-major, marks explicit ocean cells
}

type Option func(*Grid) error

// WithCRS sets the coordinate-reference identifier (e.g. "EPSG:32633").
func WithCRS(crs string) Option {
	return func(g *Grid) error {
		g.crs = crs
		return nil
	}
}

// WithNoData sets the no-data sentinel value. NaN cells are always treated
// as no-data regardless of this setting.
func WithNoData(v float64) Option {
	return func(g *Grid) error {
		g.nodata = v
		return nil
	}
}

// WithOceanMask marks cells as open ocean, row-major. Ocean cells act as
// flood seeds independent of their position in the raster.
func WithOceanMask(ocean []bool) Option {
	return func(g *Grid) error {
		if len(ocean) != g.rows*g.cols {
			return ErrOceanMaskSize
		}
		g.ocean = make([]bool, len(ocean))
		copy(g.ocean, ocean)
		return nil
	}
}

// New constructs a Grid from a rectangular 2D slice of elevations.
// Returns ErrEmptyGrid or ErrNonRectangular for malformed input.
func New(values [][]float64, dx, dy, originX, originY float64, opts ...Option) (*Grid, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	rows, cols := len(values), len(values[0])
	flat := make([]float64, 0, rows*cols)
	for _, row := range values {
		if len(row) != cols {
			return nil, ErrNonRectangular
		}
		flat = append(flat, row...)
	}
	return newGrid(flat, rows, cols, dx, dy, originX, originY, opts...)
}

// NewFromFlat constructs a Grid from a row-major flat slice.
func NewFromFlat(elev []float64, rows, cols int, dx, dy, originX, originY float64, opts ...Option) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrEmptyGrid
	}
	if len(elev) != rows*cols {
		return nil, ErrNonRectangular
	}
	flat := make([]float64, len(elev))
	copy(flat, elev)
	return newGrid(flat, rows, cols, dx, dy, originX, originY, opts...)
}

func newGrid(flat []float64, rows, cols int, dx, dy, originX, originY float64, opts ...Option) (*Grid, error) {
	if dx == 0 || dy == 0 {
		return nil, ErrZeroCellSize
	}
	g := &Grid{
		rows:    rows,
		cols:    cols,
		dx:      dx,
		dy:      dy,
		originX: originX,
		originY: originY,
		nodata:  math.NaN(),
		elev:    flat,
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Grid) Rows() int          { return g.rows }
func (g *Grid) Cols() int          { return g.cols }
func (g *Grid) CellCount() int     { return g.rows * g.cols }
func (g *Grid) DX() float64        { return g.dx }
func (g *Grid) DY() float64        { return g.dy }
func (g *Grid) CRS() string        { return g.crs }
func (g *Grid) NoData() float64    { return g.nodata }
func (g *Grid) Origin() (x, y float64) {
	return g.originX, g.originY
}

// Index maps (row, col) to the row-major cell index.
func (g *Grid) Index(r, c int) int { return r*g.cols + c }

// RowCol is the inverse of Index.
func (g *Grid) RowCol(idx int) (r, c int) { return idx / g.cols, idx % g.cols }

// Elev returns the elevation at (row, col). No bounds checking beyond the
// slice's own; callers iterate within Rows x Cols.
func (g *Grid) Elev(r, c int) float64 { return g.elev[r*g.cols+c] }

// ElevAt returns the elevation at a row-major index.
func (g *Grid) ElevAt(idx int) float64 { return g.elev[idx] }

// IsNoDataAt reports whether the cell at idx carries no valid measurement.
func (g *Grid) IsNoDataAt(idx int) bool {
	v := g.elev[idx]
	return math.IsNaN(v) || v == g.nodata
}

// IsOceanAt reports whether the cell at idx is explicitly marked as ocean.
func (g *Grid) IsOceanAt(idx int) bool {
	return g.ocean != nil && g.ocean[idx]
}

// HasOceanMask reports whether an explicit ocean mask was supplied.
func (g *Grid) HasOceanMask() bool { return g.ocean != nil }

// CellCenter returns the world coordinates of the center of cell (r, c).
func (g *Grid) CellCenter(r, c int) (x, y float64) {
	return g.originX + (float64(c)+0.5)*g.dx, g.originY + (float64(r)+0.5)*g.dy
}

// Corner returns the world coordinates of the grid corner at (row, col)
// corner indices, i.e. the minimum-index corner of cell (row, col).
func (g *Grid) Corner(r, c int) (x, y float64) {
	return g.originX + float64(c)*g.dx, g.originY + float64(r)*g.dy
}

// CellAt maps world coordinates to the containing cell. ok is false when the
// point falls outside the raster.
func (g *Grid) CellAt(x, y float64) (r, c int, ok bool) {
	fc := math.Floor((x - g.originX) / g.dx)
	fr := math.Floor((y - g.originY) / g.dy)
	r, c = int(fr), int(fc)
	if r < 0 || r >= g.rows || c < 0 || c >= g.cols {
		return 0, 0, false
	}
	return r, c, true
}

// WithRaisedCells returns a copy of the grid where the given cells have been
// raised to at least height. No-data cells are left untouched. The receiver
// is not modified.
func (g *Grid) WithRaisedCells(cells []int, height float64) *Grid {
	out := *g
	out.elev = make([]float64, len(g.elev))
	copy(out.elev, g.elev)
	if g.ocean != nil {
		out.ocean = make([]bool, len(g.ocean))
		copy(out.ocean, g.ocean)
	}
	for _, idx := range cells {
		if idx < 0 || idx >= len(out.elev) || g.IsNoDataAt(idx) {
			continue
		}
		if out.elev[idx] < height {
			out.elev[idx] = height
		}
	}
	return &out
}

// ValidateSeaLevel rejects NaN and infinite sea levels. The caller owns any
// further domain plausibility checks.
func ValidateSeaLevel(level float64) error {
	if math.IsNaN(level) || math.IsInf(level, 0) {
		return ErrSeaLevel
	}
	return nil
}
