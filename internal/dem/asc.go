// Package dem loads elevation rasters for the analysis core. Only the ESRI
// ASCII grid format is supported; it covers exported SRTM tiles and keeps
// the loader free of native raster dependencies. The loader is one of the
// external collaborators around the core: it produces a grid.Grid and owns
// nothing downstream.
package dem

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/coastal-risk/internal/grid"
)

// LoadASC reads an ESRI ASCII grid (.asc) file.
func LoadASC(path string, opts ...grid.Option) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dem: open %s: %w", path, err)
	}
	defer f.Close()
	g, err := ParseASC(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("dem: parse %s: %w", path, err)
	}
	return g, nil
}

// ParseASC parses ESRI ASCII grid content. Header keys are
// case-insensitive; NODATA_value is optional. Data rows run north to south,
// so they are stored bottom-up with a positive DY and the yllcorner as the
// grid origin.
func ParseASC(r io.Reader, opts ...grid.Option) (*grid.Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	header := map[string]float64{}
	var dataLines []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 2 && !isNumeric(fields[0]) {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("header %s: %w", fields[0], err)
			}
			header[strings.ToLower(fields[0])] = v
			continue
		}
		dataLines = append(dataLines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	ncols, ok1 := header["ncols"]
	nrows, ok2 := header["nrows"]
	cellsize, ok3 := header["cellsize"]
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("missing required header (ncols/nrows/cellsize)")
	}
	xll := header["xllcorner"]
	yll := header["yllcorner"]
	rows, cols := int(nrows), int(ncols)
	if rows <= 0 || cols <= 0 {
		return nil, grid.ErrEmptyGrid
	}
	if len(dataLines) != rows {
		return nil, fmt.Errorf("expected %d data rows, got %d", rows, len(dataLines))
	}

	nodata, hasNoData := header["nodata_value"]
	if hasNoData {
		opts = append(opts, grid.WithNoData(nodata))
	}

	// First data line is the northernmost row; flip so row 0 sits at the
	// yllcorner origin and DY stays positive.
	elev := make([]float64, rows*cols)
	for i, line := range dataLines {
		fields := strings.Fields(line)
		if len(fields) != cols {
			return nil, fmt.Errorf("row %d: expected %d values, got %d", i, cols, len(fields))
		}
		gr := rows - 1 - i
		for c, fv := range fields {
			v, err := strconv.ParseFloat(fv, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", i, c, err)
			}
			elev[gr*cols+c] = v
		}
	}

	return grid.NewFromFlat(elev, rows, cols, cellsize, cellsize, xll, yll, opts...)
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
