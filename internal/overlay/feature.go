// Package overlay intersects infrastructure features against a flood
// polygon. Features are inserted into a bounding-box bucket index for
// sub-linear candidate retrieval; candidates then undergo exact,
// variant-specific geometric tests.
package overlay

import (
	"fmt"

	"github.com/mohammed-shakir/coastal-risk/internal/geom"
)

// Kind tags the feature variant. Dispatch is by tag, not inheritance: all
// variants share bounding-box filtering and diverge only in the exact test.
type Kind string

const (
	KindBuilding Kind = "building"
	KindRoad     Kind = "road"
	KindFacility Kind = "facility"
)

// Feature is an immutable infrastructure feature keyed by a stable ID.
// Exactly one of Footprint, Path, or Loc is meaningful per Kind.
type Feature struct {
	ID       string
	Kind     Kind
	Category string // building/amenity/highway class; used for percentages
	Critical bool   // essential-infrastructure tag on buildings

	Footprint geom.Polygon // KindBuilding
	Path      geom.Line    // KindRoad
	Loc       geom.Point   // KindFacility
}

// Validate rejects features with degenerate geometry for their kind.
func (f Feature) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("overlay: feature without ID: %w", geom.ErrDegenerate)
	}
	switch f.Kind {
	case KindBuilding:
		return geom.ValidatePolygon(f.Footprint)
	case KindRoad:
		return geom.ValidateLine(f.Path)
	case KindFacility:
		return geom.ValidatePoint(f.Loc)
	default:
		return fmt.Errorf("overlay: unknown feature kind %q", f.Kind)
	}
}

// BBox returns the feature's minimum bounding rectangle.
func (f Feature) BBox() geom.BBox {
	switch f.Kind {
	case KindBuilding:
		return f.Footprint.BBox()
	case KindRoad:
		return f.Path.BBox()
	default:
		return geom.BBox{MinX: f.Loc.X, MinY: f.Loc.Y, MaxX: f.Loc.X, MaxY: f.Loc.Y}
	}
}
