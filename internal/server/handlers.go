package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/coastal-risk/internal/analysis"
	"github.com/mohammed-shakir/coastal-risk/internal/assess"
	"github.com/mohammed-shakir/coastal-risk/internal/dem"
	"github.com/mohammed-shakir/coastal-risk/internal/flood"
	"github.com/mohammed-shakir/coastal-risk/internal/geom"
	"github.com/mohammed-shakir/coastal-risk/internal/grid"
	"github.com/mohammed-shakir/coastal-risk/internal/logger"
	"github.com/mohammed-shakir/coastal-risk/internal/osm"
	"github.com/mohammed-shakir/coastal-risk/internal/seawall"
)

type gridPayload struct {
	Rows       int       `json:"rows"`
	Cols       int       `json:"cols"`
	DX         float64   `json:"dx"`
	DY         float64   `json:"dy"`
	OriginX    float64   `json:"origin_x"`
	OriginY    float64   `json:"origin_y"`
	CRS        string    `json:"crs,omitempty"`
	NoData     *float64  `json:"nodata,omitempty"`
	Elevations []float64 `json:"elevations"`
}

type wallPayload struct {
	Points [][2]float64 `json:"points"`
	Height float64      `json:"height"`
}

type analyzeRequest struct {
	SeaLevel float64      `json:"sea_level"`
	Model    string       `json:"model"`
	DEMPath  string       `json:"dem_path,omitempty"`
	Grid     *gridPayload `json:"grid,omitempty"`
	BBox     *osm.BBox    `json:"bbox,omitempty"`
	Wall     *wallPayload `json:"wall,omitempty"`
	Region   string       `json:"region,omitempty"`
}

type analyzeResponse struct {
	Report       assess.Report   `json:"report"`
	FloodedCells int             `json:"flooded_cells"`
	FloodGeoJSON json.RawMessage `json:"flood_geojson"`
	ReportID     int64           `json:"report_id,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx, &s.log)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	model := flood.Model(req.Model)
	if model == "" {
		model = flood.ModelConnected
	}

	g, err := s.loadGrid(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if g.CellCount() > s.cfg.MaxGridCells {
		http.Error(w, fmt.Sprintf("grid exceeds %d cells", s.cfg.MaxGridCells), http.StatusRequestEntityTooLarge)
		return
	}

	if req.Wall != nil {
		wall := make(geom.Line, len(req.Wall.Points))
		for i, p := range req.Wall.Points {
			wall[i] = geom.Point{X: p[0], Y: p[1]}
		}
		g, err = seawall.Apply(g, wall, req.Wall.Height)
		if err != nil {
			http.Error(w, "invalid sea wall: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	areq := analysis.Request{Grid: g, SeaLevel: req.SeaLevel, Model: model}
	if req.BBox != nil {
		feats, err := s.infra.Infrastructure(ctx, *req.BBox)
		if err != nil {
			log.Error().Err(err).Msg("infrastructure fetch failed")
			http.Error(w, "infrastructure fetch failed", http.StatusBadGateway)
			return
		}
		areq.Features = feats
	}

	res, err := s.runner.Run(ctx, areq)
	if err != nil {
		switch {
		case errors.Is(err, grid.ErrSeaLevel),
			errors.Is(err, grid.ErrEmptyGrid),
			errors.Is(err, grid.ErrNonRectangular):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error().Err(err).Msg("analysis failed")
			http.Error(w, "analysis failed", http.StatusInternalServerError)
		}
		return
	}

	gj, err := res.Flood.GeoJSON()
	if err != nil {
		log.Error().Err(err).Msg("geojson encoding failed")
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}

	resp := analyzeResponse{
		Report:       res.Report,
		FloodedCells: res.Mask.Count(),
		FloodGeoJSON: gj,
	}
	if s.store != nil && req.Region != "" {
		id, err := s.store.Save(ctx, req.Region, string(model), req.SeaLevel, res.Mask.Count(), res.Report)
		if err != nil {
			log.Error().Err(err).Msg("report persistence failed")
		} else {
			resp.ReportID = id
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) loadGrid(req analyzeRequest) (*grid.Grid, error) {
	switch {
	case req.Grid != nil:
		p := req.Grid
		var opts []grid.Option
		if p.CRS != "" {
			opts = append(opts, grid.WithCRS(p.CRS))
		}
		if p.NoData != nil {
			opts = append(opts, grid.WithNoData(*p.NoData))
		}
		dy := p.DY
		if dy == 0 {
			dy = p.DX
		}
		return grid.NewFromFlat(p.Elevations, p.Rows, p.Cols, p.DX, dy, p.OriginX, p.OriginY, opts...)
	case req.DEMPath != "":
		// confine DEM lookups to the configured directory
		clean := filepath.Clean(req.DEMPath)
		if strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			return nil, errors.New("dem_path must be relative to the DEM directory")
		}
		return dem.LoadASC(filepath.Join(s.cfg.DEMDir, clean))
	default:
		return nil, errors.New("one of grid or dem_path is required")
	}
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "report persistence not configured", http.StatusNotFound)
		return
	}
	region := strings.TrimSpace(r.URL.Query().Get("region"))
	if region == "" {
		http.Error(w, "missing required parameter: region", http.StatusBadRequest)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	recs, err := s.store.Recent(r.Context(), region, limit)
	if err != nil {
		logger.FromContext(r.Context(), &s.log).Error().Err(err).Msg("report listing failed")
		http.Error(w, "report listing failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(recs)
}
