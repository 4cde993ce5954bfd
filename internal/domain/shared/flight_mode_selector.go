package shared

import "sort"

// DefaultFuelSafetyMargin is the fuel reserve a leg must leave in the tank
// for the faster modes to be eligible
const DefaultFuelSafetyMargin = 4

// FlightModeStrategy decides whether one mode is usable for a leg
type FlightModeStrategy interface {
	// Mode returns the flight mode this strategy selects
	Mode() FlightMode

	// Priority orders strategies; higher priority means faster mode
	Priority() int

	// CanUse reports whether the leg can fly this mode and still leave the
	// safety margin in the tank
	CanUse(distance float64, availableFuel, safetyMargin int) bool
}

// BurnModeStrategy selects BURN when double fuel still leaves the margin
type BurnModeStrategy struct{}

func (s *BurnModeStrategy) Mode() FlightMode { return FlightModeBurn }
func (s *BurnModeStrategy) Priority() int    { return 3 }

func (s *BurnModeStrategy) CanUse(distance float64, availableFuel, safetyMargin int) bool {
	return availableFuel-FuelCost(FlightModeBurn, distance) >= safetyMargin
}

// CruiseModeStrategy selects CRUISE when fuel equal to distance leaves the margin
type CruiseModeStrategy struct{}

func (s *CruiseModeStrategy) Mode() FlightMode { return FlightModeCruise }
func (s *CruiseModeStrategy) Priority() int    { return 2 }

func (s *CruiseModeStrategy) CanUse(distance float64, availableFuel, safetyMargin int) bool {
	return availableFuel-FuelCost(FlightModeCruise, distance) >= safetyMargin
}

// DriftModeStrategy is the last resort. It ignores the safety margin: a leg
// that cannot satisfy the margin in any mode still flies as long as the flat
// drift cost is covered, so a ship is never stranded with fuel in the tank.
type DriftModeStrategy struct{}

func (s *DriftModeStrategy) Mode() FlightMode { return FlightModeDrift }
func (s *DriftModeStrategy) Priority() int    { return 1 }

func (s *DriftModeStrategy) CanUse(distance float64, availableFuel, safetyMargin int) bool {
	return availableFuel >= FuelCost(FlightModeDrift, distance)
}

// FlightModeSelector picks the fastest usable mode for a leg
type FlightModeSelector struct {
	strategies []FlightModeStrategy
}

// NewFlightModeSelector creates a selector with the standard mode strategies
func NewFlightModeSelector() *FlightModeSelector {
	strategies := []FlightModeStrategy{
		&BurnModeStrategy{},
		&CruiseModeStrategy{},
		&DriftModeStrategy{},
	}
	sort.Slice(strategies, func(i, j int) bool {
		return strategies[i].Priority() > strategies[j].Priority()
	})
	return &FlightModeSelector{strategies: strategies}
}

// SelectOptimalMode returns the fastest mode whose post-leg fuel satisfies the
// safety margin. With preferCruise set, BURN is demoted to CRUISE whenever
// CRUISE also satisfies the margin. The second return is false when not even
// DRIFT can cover the leg.
func (s *FlightModeSelector) SelectOptimalMode(distance float64, availableFuel, safetyMargin int, preferCruise bool) (FlightMode, bool) {
	for _, strategy := range s.strategies {
		if !strategy.CanUse(distance, availableFuel, safetyMargin) {
			continue
		}

		mode := strategy.Mode()
		if preferCruise && mode == FlightModeBurn {
			cruise := &CruiseModeStrategy{}
			if cruise.CanUse(distance, availableFuel, safetyMargin) {
				return FlightModeCruise, true
			}
		}
		return mode, true
	}

	return FlightModeDrift, false
}
