package grid

// Mask is a boolean raster with the same dimensions as the grid it was
// derived from. Engines create a fresh Mask per run; once returned to the
// caller it must be treated as read-only.
type Mask struct {
	rows, cols int
	cells      []bool
}

// NewMask allocates an all-false mask.
func NewMask(rows, cols int) *Mask {
	return &Mask{rows: rows, cols: cols, cells: make([]bool, rows*cols)}
}

func (m *Mask) Rows() int { return m.rows }
func (m *Mask) Cols() int { return m.cols }

func (m *Mask) Get(r, c int) bool  { return m.cells[r*m.cols+c] }
func (m *Mask) At(idx int) bool    { return m.cells[idx] }
func (m *Mask) Set(r, c int, v bool) { m.cells[r*m.cols+c] = v }
func (m *Mask) SetAt(idx int, v bool) { m.cells[idx] = v }

// Count returns the number of true cells.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.cells {
		if v {
			n++
		}
	}
	return n
}

// ContainsAll reports whether every true cell of other is also true in m.
func (m *Mask) ContainsAll(other *Mask) bool {
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	for i, v := range other.cells {
		if v && !m.cells[i] {
			return false
		}
	}
	return true
}
