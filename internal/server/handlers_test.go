package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/coastal-risk/internal/analysis"
	"github.com/mohammed-shakir/coastal-risk/internal/config"
	"github.com/mohammed-shakir/coastal-risk/internal/osm"
)

func testServer(t *testing.T, demDir string) *Server {
	t.Helper()
	return &Server{
		cfg: config.Config{
			MaxGridCells: 10000,
			DEMDir:       demDir,
		},
		log:    zerolog.Nop(),
		runner: analysis.NewRunner(zerolog.Nop()),
		infra:  osm.New("http://example.invalid", time.Second),
	}
}

func postAnalyze(t *testing.T, s *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.handleAnalyze(rec, req)
	return rec
}

// low western column, high eastern column, unit cells
func inlineGrid() *gridPayload {
	return &gridPayload{
		Rows: 2, Cols: 3, DX: 1,
		Elevations: []float64{0, 5, 9, 0, 5, 9},
	}
}

func TestHandleAnalyze_InlineGrid(t *testing.T) {
	s := testServer(t, "")
	rec := postAnalyze(t, s, analyzeRequest{
		SeaLevel: 1,
		Model:    "connected",
		Grid:     inlineGrid(),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp analyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.FloodedCells != 2 {
		t.Fatalf("flooded cells = %d, want 2", resp.FloodedCells)
	}
	var gj struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(resp.FloodGeoJSON, &gj); err != nil || gj.Type != "MultiPolygon" {
		t.Fatalf("flood geojson malformed: %s (%v)", resp.FloodGeoJSON, err)
	}
	if resp.ReportID != 0 {
		t.Fatalf("no store configured, report_id should be absent")
	}
}

func TestHandleAnalyze_DefaultsToConnected(t *testing.T) {
	s := testServer(t, "")
	rec := postAnalyze(t, s, analyzeRequest{SeaLevel: 1, Grid: inlineGrid()})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandleAnalyze_Wall(t *testing.T) {
	s := testServer(t, "")
	// wall on the low column blocks the connected flood entirely
	rec := postAnalyze(t, s, analyzeRequest{
		SeaLevel: 1,
		Model:    "connected",
		Grid:     inlineGrid(),
		Wall: &wallPayload{
			Points: [][2]float64{{0.5, 0.5}, {0.5, 1.5}},
			Height: 50,
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp analyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.FloodedCells != 0 {
		t.Fatalf("walled grid flooded %d cells", resp.FloodedCells)
	}
}

func TestHandleAnalyze_BadInputs(t *testing.T) {
	s := testServer(t, "")

	cases := []struct {
		name string
		req  analyzeRequest
		code int
	}{
		{"no grid source", analyzeRequest{SeaLevel: 1}, http.StatusBadRequest},
		{"malformed grid", analyzeRequest{SeaLevel: 1, Grid: &gridPayload{Rows: 2, Cols: 2, DX: 1, Elevations: []float64{0}}}, http.StatusBadRequest},
		{"unknown model", analyzeRequest{SeaLevel: 1, Model: "glacier", Grid: inlineGrid()}, http.StatusInternalServerError},
		{"degenerate wall", analyzeRequest{SeaLevel: 1, Grid: inlineGrid(), Wall: &wallPayload{Points: [][2]float64{{0.5, 0.5}}, Height: 5}}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postAnalyze(t, s, tc.req)
			if rec.Code != tc.code {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.code, rec.Body.String())
			}
		})
	}
}

func TestHandleAnalyze_BodyNotJSON(t *testing.T) {
	s := testServer(t, "")
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	s.handleAnalyze(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleAnalyze_GridTooLarge(t *testing.T) {
	s := testServer(t, "")
	s.cfg.MaxGridCells = 4
	rec := postAnalyze(t, s, analyzeRequest{SeaLevel: 1, Grid: inlineGrid()})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestHandleAnalyze_DEMPath(t *testing.T) {
	dir := t.TempDir()
	asc := "ncols 2\nnrows 1\ncellsize 1\n0 9\n"
	if err := os.WriteFile(filepath.Join(dir, "tile.asc"), []byte(asc), 0o644); err != nil {
		t.Fatalf("write dem: %v", err)
	}
	s := testServer(t, dir)

	rec := postAnalyze(t, s, analyzeRequest{SeaLevel: 1, Model: "bathtub", DEMPath: "tile.asc"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp analyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.FloodedCells != 1 {
		t.Fatalf("flooded cells = %d, want 1", resp.FloodedCells)
	}
}

func TestHandleAnalyze_DEMPathConfined(t *testing.T) {
	s := testServer(t, t.TempDir())
	for _, p := range []string{"../secrets.asc", "/etc/passwd", "a/../../b.asc"} {
		rec := postAnalyze(t, s, analyzeRequest{SeaLevel: 1, DEMPath: p})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("path %q: status = %d, want 400", p, rec.Code)
		}
	}
}

func TestHandleReports_NotConfigured(t *testing.T) {
	s := testServer(t, "")
	req := httptest.NewRequest(http.MethodGet, "/reports?region=gbg", nil)
	rec := httptest.NewRecorder()
	s.handleReports(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
