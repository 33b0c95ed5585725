package osm

import (
	"fmt"
	"sort"

	"github.com/serjvanilla/go-overpass"

	"github.com/mohammed-shakir/coastal-risk/internal/geom"
	"github.com/mohammed-shakir/coastal-risk/internal/overlay"
)

// MapResult converts an Overpass result into overlay features. Ways tagged
// building become polygon footprints, ways tagged highway become road
// centerlines, and amenity nodes become critical-facility points. Output is
// sorted by feature ID so map iteration order never leaks.
func MapResult(result *overpass.Result, transform TransformFunc) []overlay.Feature {
	if transform == nil {
		transform = identity
	}
	var feats []overlay.Feature

	for id, way := range result.Ways {
		if way == nil || len(way.Nodes) == 0 {
			continue
		}
		if v, ok := way.Tags["building"]; ok {
			f := overlay.Feature{
				ID:       fmt.Sprintf("way/%d", id),
				Kind:     overlay.KindBuilding,
				Category: buildingCategory(way.Tags, v),
				Critical: criticalAmenities[way.Tags["amenity"]],
			}
			f.Footprint.Outer = wayRing(way, transform)
			feats = append(feats, f)
			continue
		}
		if v, ok := way.Tags["highway"]; ok {
			feats = append(feats, overlay.Feature{
				ID:       fmt.Sprintf("way/%d", id),
				Kind:     overlay.KindRoad,
				Category: v,
				Path:     wayLine(way, transform),
			})
		}
	}

	for id, node := range result.Nodes {
		if node == nil {
			continue
		}
		amenity, ok := node.Tags["amenity"]
		if !ok || !criticalAmenities[amenity] {
			continue
		}
		x, y := transform(node.Lon, node.Lat)
		feats = append(feats, overlay.Feature{
			ID:       fmt.Sprintf("node/%d", id),
			Kind:     overlay.KindFacility,
			Category: amenity,
			Critical: true,
			Loc:      geom.Point{X: x, Y: y},
		})
	}

	sort.Slice(feats, func(i, j int) bool { return feats[i].ID < feats[j].ID })
	return feats
}

// buildingCategory prefers the amenity tag over the generic building=yes.
func buildingCategory(tags map[string]string, buildingTag string) string {
	if a, ok := tags["amenity"]; ok && a != "" {
		return a
	}
	if buildingTag == "" || buildingTag == "yes" {
		return "building"
	}
	return buildingTag
}

func wayRing(way *overpass.Way, transform TransformFunc) geom.Ring {
	pts := wayPoints(way, transform)
	// drop the duplicated closing vertex if present; rings close implicitly
	if len(pts) >= 2 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return geom.Ring(pts)
}

func wayLine(way *overpass.Way, transform TransformFunc) geom.Line {
	return geom.Line(wayPoints(way, transform))
}

func wayPoints(way *overpass.Way, transform TransformFunc) []geom.Point {
	pts := make([]geom.Point, 0, len(way.Nodes))
	for _, n := range way.Nodes {
		if n == nil {
			continue
		}
		x, y := transform(n.Lon, n.Lat)
		pts = append(pts, geom.Point{X: x, Y: y})
	}
	return pts
}
