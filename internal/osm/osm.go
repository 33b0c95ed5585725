// Package osm fetches infrastructure features (building footprints, road
// centerlines, critical amenities) from the Overpass API for an area of
// interest, with an explicit per-tile cache collaborator so repeated
// analyses do not hammer the upstream.
//
// Tiles are H3 cells covering the area of interest; fetched features are
// bucketed by centroid cell and cached per cell, including empty tiles.
// A feature whose centroid falls just outside the covered cells of a later,
// smaller query can be missed by the cache; the tile resolution should be
// chosen coarse enough relative to typical feature size to make this
// negligible.
package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/serjvanilla/go-overpass"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/coastal-risk/internal/featurecache"
	"github.com/mohammed-shakir/coastal-risk/internal/observability"
	"github.com/mohammed-shakir/coastal-risk/internal/overlay"
)

// BBox is a geographic (EPSG:4326) area of interest.
type BBox struct {
	South, West, North, East float64
}

func (b BBox) overpass() string {
	return fmt.Sprintf("%.7f,%.7f,%.7f,%.7f", b.South, b.West, b.North, b.East)
}

// TransformFunc converts geographic coordinates into the analysis grid's
// coordinate reference. The default keeps lon/lat as x/y for grids that are
// themselves geographic.
type TransformFunc func(lon, lat float64) (x, y float64)

func identity(lon, lat float64) (x, y float64) { return lon, lat }

// criticalAmenities marks a building or facility as essential
// infrastructure.
var criticalAmenities = map[string]bool{
	"hospital":     true,
	"school":       true,
	"fire_station": true,
	"police":       true,
	"emergency":    true,
}

const amenityFilter = "hospital|school|fire_station|police|emergency"

type Option func(*Client)

func WithCache(c featurecache.Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.ttl = ttl
	}
}

func WithTileRes(res int) Option {
	return func(cl *Client) { cl.res = res }
}

// WithTransform projects fetched geometry into the grid's coordinate
// reference. Projected features bypass the tile cache, whose H3 bucketing
// needs geographic coordinates.
func WithTransform(t TransformFunc) Option {
	return func(cl *Client) {
		cl.transform = t
		cl.projected = true
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(cl *Client) { cl.log = log }
}

// Client fetches and caches infrastructure features.
type Client struct {
	cli       overpass.Client
	cache     featurecache.Cache
	ttl       time.Duration
	res       int
	transform TransformFunc
	projected bool
	log       zerolog.Logger
}

func New(endpoint string, timeout time.Duration, opts ...Option) *Client {
	httpClient := &http.Client{Timeout: timeout}
	c := &Client{
		cli:       overpass.NewWithSettings(endpoint, 2, httpClient),
		res:       8,
		transform: identity,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Filter identifies the upstream tag selection; it participates in cache
// keys so a filter change cannot serve stale tiles.
func (c *Client) Filter() string {
	return "building+highway+amenity=" + amenityFilter
}

// CoverCells returns the sorted H3 cells covering a geographic bbox at the
// client's tile resolution.
func (c *Client) CoverCells(south, west, north, east float64) ([]string, error) {
	loop := h3.GeoLoop{
		{Lat: south, Lng: west},
		{Lat: south, Lng: east},
		{Lat: north, Lng: east},
		{Lat: north, Lng: west},
	}
	cells, err := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: loop}, c.res)
	if err != nil {
		return nil, fmt.Errorf("osm: h3 polyfill: %w", err)
	}
	out := make([]string, 0, len(cells))
	seen := make(map[string]struct{}, len(cells))
	for _, cell := range cells {
		s := cell.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// Infrastructure returns the features for an area of interest, serving from
// the tile cache where possible. On any tile miss the whole bbox is fetched
// once and re-bucketed into tiles.
func (c *Client) Infrastructure(ctx context.Context, bbox BBox) ([]overlay.Feature, error) {
	if c.cache == nil || c.projected {
		return c.fetch(ctx, bbox)
	}

	cells, err := c.CoverCells(bbox.South, bbox.West, bbox.North, bbox.East)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(cells))
	for i, cell := range cells {
		keys[i] = featurecache.TileKey(cell, c.Filter())
	}

	cached, err := c.cache.MGet(ctx, keys)
	if err != nil {
		// a broken cache degrades to a direct fetch
		c.log.Warn().Err(err).Msg("tile cache read failed; fetching upstream")
		return c.fetch(ctx, bbox)
	}
	observability.ObserveTileCache("hit", len(cached))
	observability.ObserveTileCache("miss", len(keys)-len(cached))

	if len(cached) == len(keys) {
		return decodeTiles(keys, cached)
	}

	feats, err := c.fetch(ctx, bbox)
	if err != nil {
		return nil, err
	}

	byCell := make(map[string][]overlay.Feature, len(cells))
	cellSet := make(map[string]struct{}, len(cells))
	for _, cell := range cells {
		cellSet[cell] = struct{}{}
		byCell[cell] = nil // cache empty tiles too
	}
	for i, f := range feats {
		cell, ok := c.centroidCell(f)
		if !ok {
			continue
		}
		if _, in := cellSet[cell]; in {
			byCell[cell] = append(byCell[cell], feats[i])
		}
	}
	for cell, fs := range byCell {
		body, err := json.Marshal(fs)
		if err != nil {
			return nil, fmt.Errorf("osm: encode tile %s: %w", cell, err)
		}
		if err := c.cache.Set(ctx, featurecache.TileKey(cell, c.Filter()), body, c.ttl); err != nil {
			c.log.Warn().Err(err).Str("cell", cell).Msg("tile cache write failed")
		}
	}
	return feats, nil
}

func (c *Client) centroidCell(f overlay.Feature) (string, bool) {
	// Bucketing assumes feature coordinates are still geographic, i.e. the
	// identity transform. With a projection configured the cache is skipped
	// upstream of this call.
	bb := f.BBox()
	cx := (bb.MinX + bb.MaxX) / 2
	cy := (bb.MinY + bb.MaxY) / 2
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: cy, Lng: cx}, c.res)
	if err != nil {
		return "", false
	}
	return cell.String(), true
}

func decodeTiles(keys []string, tiles map[string][]byte) ([]overlay.Feature, error) {
	var out []overlay.Feature
	for _, k := range keys {
		body, ok := tiles[k]
		if !ok || len(body) == 0 {
			continue
		}
		var fs []overlay.Feature
		if err := json.Unmarshal(body, &fs); err != nil {
			return nil, fmt.Errorf("osm: decode tile %s: %w", k, err)
		}
		out = append(out, fs...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *Client) fetch(ctx context.Context, bbox BBox) ([]overlay.Feature, error) {
	bb := bbox.overpass()
	query := fmt.Sprintf(`
		[out:json];
		(
			way["building"](%s);
			way["highway"](%s);
			node["amenity"~"%s"](%s);
		);
		out body;
		>;
		out skel qt;
	`, bb, bb, amenityFilter, bb)

	done := make(chan struct{})
	var result overpass.Result
	var qerr error
	go func() {
		defer close(done)
		result, qerr = c.cli.Query(query)
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done:
	}
	if qerr != nil {
		return nil, fmt.Errorf("osm: overpass query failed: %w", qerr)
	}
	return MapResult(&result, c.transform), nil
}
