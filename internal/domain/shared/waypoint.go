package shared

import (
	"fmt"
	"math"
	"strings"
)

// Waypoint is an immutable value object describing a named coordinate in a
// system. Orbital children are referenced by symbol, never by pointer, so
// graphs built from waypoints stay acyclic.
type Waypoint struct {
	Symbol       string   `json:"symbol"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	SystemSymbol string   `json:"system_symbol"`
	Type         string   `json:"type"`
	Traits       []string `json:"traits"`
	HasFuel      bool     `json:"has_fuel"`
	Orbitals     []string `json:"orbitals"`
}

// NewWaypoint creates a waypoint value with validation
func NewWaypoint(symbol string, x, y float64) (*Waypoint, error) {
	if symbol == "" {
		return nil, fmt.Errorf("waypoint symbol cannot be empty")
	}

	return &Waypoint{
		Symbol:       symbol,
		X:            x,
		Y:            y,
		SystemSymbol: ExtractSystemSymbol(symbol),
		Traits:       []string{},
		Orbitals:     []string{},
	}, nil
}

// DistanceTo returns the Euclidean distance to another waypoint
func (w *Waypoint) DistanceTo(other *Waypoint) float64 {
	if other == nil {
		return 0
	}
	dx := w.X - other.X
	dy := w.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// IsOrbitalOf reports whether this waypoint and the other waypoint are in an
// orbital relationship, in either direction. Orbital hops cost no fuel and no
// distance.
func (w *Waypoint) IsOrbitalOf(other *Waypoint) bool {
	if other == nil {
		return false
	}
	for _, symbol := range w.Orbitals {
		if symbol == other.Symbol {
			return true
		}
	}
	for _, symbol := range other.Orbitals {
		if symbol == w.Symbol {
			return true
		}
	}
	return false
}

// HasTrait reports whether the waypoint carries the named trait
func (w *Waypoint) HasTrait(trait string) bool {
	for _, t := range w.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// IsMarketplace reports whether the waypoint has a marketplace trait
func (w *Waypoint) IsMarketplace() bool {
	return w.HasTrait("MARKETPLACE")
}

// CanRefuel reports whether a ship can buy fuel here
func (w *Waypoint) CanRefuel() bool {
	return w.HasFuel
}

func (w *Waypoint) String() string {
	return fmt.Sprintf("%s (%.1f, %.1f)", w.Symbol, w.X, w.Y)
}

// FindNearestWaypoint returns the candidate closest to the origin, or nil for
// an empty candidate list
func FindNearestWaypoint(origin *Waypoint, candidates []*Waypoint) *Waypoint {
	var nearest *Waypoint
	best := math.MaxFloat64

	for _, candidate := range candidates {
		if candidate == nil || candidate.Symbol == origin.Symbol {
			continue
		}
		if d := origin.DistanceTo(candidate); d < best {
			best = d
			nearest = candidate
		}
	}

	return nearest
}

// ExtractSystemSymbol derives the system symbol from a waypoint symbol.
// Waypoint symbols have the form SECTOR-SYSTEM-WAYPOINT; the system symbol is
// everything before the last hyphen.
func ExtractSystemSymbol(waypointSymbol string) string {
	idx := strings.LastIndex(waypointSymbol, "-")
	if idx < 0 {
		return waypointSymbol
	}
	return waypointSymbol[:idx]
}
