package strategies

import (
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
)

// DefaultRefuelThreshold is the fuel fraction below which the conservative
// strategy tops off
const DefaultRefuelThreshold = 0.9

// RefuelStrategy decides when a route executor buys fuel. It is consulted
// twice per segment: before departure, to keep the leg out of emergency
// drift territory, and after arrival, for opportunistic top-offs at fuel
// stations along the way.
type RefuelStrategy interface {
	// ShouldRefuelBeforeDeparture reports whether the ship should fill up
	// at its current waypoint before flying the segment
	ShouldRefuelBeforeDeparture(ship *navigation.Ship, segment *navigation.RouteSegment) bool

	// ShouldRefuelAfterArrival reports whether the ship should top off
	// after landing the segment, beyond what the plan already requires
	ShouldRefuelAfterArrival(ship *navigation.Ship, segment *navigation.RouteSegment) bool

	// Name identifies the strategy in logs
	Name() string
}

// ConservativeRefuelStrategy keeps the tank high: it refuels before any leg
// that would cut into the safety margin and tops off at every fuel station
// passed below the threshold. This is the default.
type ConservativeRefuelStrategy struct {
	threshold float64
}

// NewConservativeRefuelStrategy creates the strategy with a custom
// threshold fraction (0 < threshold <= 1)
func NewConservativeRefuelStrategy(threshold float64) *ConservativeRefuelStrategy {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultRefuelThreshold
	}
	return &ConservativeRefuelStrategy{threshold: threshold}
}

// NewDefaultRefuelStrategy creates the conservative strategy at the default
// 90% threshold
func NewDefaultRefuelStrategy() *ConservativeRefuelStrategy {
	return NewConservativeRefuelStrategy(DefaultRefuelThreshold)
}

func (s *ConservativeRefuelStrategy) ShouldRefuelBeforeDeparture(ship *navigation.Ship, segment *navigation.RouteSegment) bool {
	return ship.ShouldPreventDriftMode(segment, s.threshold)
}

func (s *ConservativeRefuelStrategy) ShouldRefuelAfterArrival(ship *navigation.Ship, segment *navigation.RouteSegment) bool {
	if segment.RequiresRefuel {
		// The plan already forces a refuel here
		return false
	}
	return ship.ShouldRefuelOpportunistically(segment.ToWaypoint, s.threshold)
}

func (s *ConservativeRefuelStrategy) Name() string { return "conservative" }

// MinimalRefuelStrategy refuels only when the next leg cannot otherwise be
// flown. No opportunistic stops; fastest wall-clock execution.
type MinimalRefuelStrategy struct{}

// NewMinimalRefuelStrategy creates the minimal strategy
func NewMinimalRefuelStrategy() *MinimalRefuelStrategy {
	return &MinimalRefuelStrategy{}
}

func (s *MinimalRefuelStrategy) ShouldRefuelBeforeDeparture(ship *navigation.Ship, segment *navigation.RouteSegment) bool {
	return ship.ShouldPreventDriftMode(segment, 0.1)
}

func (s *MinimalRefuelStrategy) ShouldRefuelAfterArrival(ship *navigation.Ship, segment *navigation.RouteSegment) bool {
	return false
}

func (s *MinimalRefuelStrategy) Name() string { return "minimal" }

// TopOffRefuelStrategy fills the tank at every fuel-capable stop regardless
// of level. Useful for probes loitering far from fuel.
type TopOffRefuelStrategy struct{}

// NewTopOffRefuelStrategy creates the always-top-off strategy
func NewTopOffRefuelStrategy() *TopOffRefuelStrategy {
	return &TopOffRefuelStrategy{}
}

func (s *TopOffRefuelStrategy) ShouldRefuelBeforeDeparture(ship *navigation.Ship, segment *navigation.RouteSegment) bool {
	return ship.CurrentLocation().CanRefuel() && ship.Fuel().Current < ship.Fuel().Capacity
}

func (s *TopOffRefuelStrategy) ShouldRefuelAfterArrival(ship *navigation.Ship, segment *navigation.RouteSegment) bool {
	if segment.RequiresRefuel {
		return false
	}
	return segment.ToWaypoint.CanRefuel() && ship.Fuel().Current < ship.Fuel().Capacity
}

func (s *TopOffRefuelStrategy) Name() string { return "top_off" }
