package geom

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GeoJSON encodes the multipolygon as a GeoJSON MultiPolygon geometry.
// Rings are explicitly closed as the format requires.
func (mp MultiPolygon) GeoJSON() ([]byte, error) {
	coords := make([][][][]float64, 0, len(mp))
	for _, pg := range mp {
		poly := make([][][]float64, 0, 1+len(pg.Holes))
		poly = append(poly, closedCoords(pg.Outer))
		for _, h := range pg.Holes {
			poly = append(poly, closedCoords(h))
		}
		coords = append(coords, poly)
	}
	return json.Marshal(struct {
		Type        string          `json:"type"`
		Coordinates [][][][]float64 `json:"coordinates"`
	}{
		Type:        "MultiPolygon",
		Coordinates: coords,
	})
}

func closedCoords(r Ring) [][]float64 {
	out := make([][]float64, 0, len(r)+1)
	for _, p := range r {
		out = append(out, []float64{p.X, p.Y})
	}
	if len(r) > 0 {
		out = append(out, []float64{r[0].X, r[0].Y})
	}
	return out
}

// WKT renders the multipolygon as a MULTIPOLYGON literal for export to
// tools that do not speak GeoJSON.
func (mp MultiPolygon) WKT() string {
	if len(mp) == 0 {
		return "MULTIPOLYGON EMPTY"
	}
	parts := make([]string, 0, len(mp))
	for _, pg := range mp {
		parts = append(parts, polygonWKTBody(pg))
	}
	return fmt.Sprintf("MULTIPOLYGON(%s)", strings.Join(parts, ", "))
}

func polygonWKTBody(pg Polygon) string {
	rings := make([]string, 0, 1+len(pg.Holes))
	rings = append(rings, ringWKT(pg.Outer))
	for _, h := range pg.Holes {
		rings = append(rings, ringWKT(h))
	}
	return fmt.Sprintf("(%s)", strings.Join(rings, ", "))
}

func ringWKT(r Ring) string {
	var pts []string
	for _, p := range r {
		pts = append(pts, fmt.Sprintf("%.8f %.8f", p.X, p.Y))
	}
	if len(r) > 0 {
		pts = append(pts, fmt.Sprintf("%.8f %.8f", r[0].X, r[0].Y))
	}
	return fmt.Sprintf("(%s)", strings.Join(pts, ", "))
}
