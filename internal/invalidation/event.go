// Package invalidation defines the events that purge cached infrastructure
// tiles when upstream geodata changes.
package invalidation

import (
	"fmt"
	"time"
)

// Event is one upstream change notification. Its bbox is geographic
// (EPSG:4326) and selects the tiles to purge.
type Event struct {
	Version int       `json:"version"`
	Op      string    `json:"op"`
	TS      time.Time `json:"ts"`
	Source  string    `json:"source,omitempty"`
	BBox    BBox      `json:"bbox"`
}

type BBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case "insert", "update", "delete":
	default:
		return fmt.Errorf("op must be insert|update|delete")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	if e.BBox.South > e.BBox.North {
		return fmt.Errorf("bbox south must not exceed north")
	}
	if e.BBox.South < -90 || e.BBox.North > 90 || e.BBox.West < -180 || e.BBox.East > 180 {
		return fmt.Errorf("bbox out of geographic range")
	}
	return nil
}
