package shared

import (
	"fmt"
	"math"
)

// FlightMode determines the fuel/time trade-off of a travel leg
type FlightMode int

const (
	// FlightModeCruise is the standard mode: fuel equals distance
	FlightModeCruise FlightMode = iota

	// FlightModeDrift is the last-resort mode: one unit of fuel at ten
	// times the cruise duration
	FlightModeDrift

	// FlightModeBurn is the fast mode: double fuel at half the duration
	FlightModeBurn
)

// flightModeConfig holds the cost factors of one mode. FlatFuel marks modes
// whose fuel cost ignores distance.
type flightModeConfig struct {
	Name           string
	TimeMultiplier float64
	FuelMultiplier float64
	FlatFuel       bool
	FlatFuelUnits  int
}

var flightModeConfigs = map[FlightMode]flightModeConfig{
	FlightModeCruise: {
		Name:           "CRUISE",
		TimeMultiplier: 1.0,
		FuelMultiplier: 1.0,
	},
	FlightModeDrift: {
		Name:           "DRIFT",
		TimeMultiplier: 10.0,
		FlatFuel:       true,
		FlatFuelUnits:  1,
	},
	FlightModeBurn: {
		Name:           "BURN",
		TimeMultiplier: 0.5,
		FuelMultiplier: 2.0,
	},
}

// String returns the remote API's name for the mode
func (m FlightMode) String() string {
	if cfg, ok := flightModeConfigs[m]; ok {
		return cfg.Name
	}
	return "UNKNOWN"
}

// IsValid reports whether the mode is one of the defined modes
func (m FlightMode) IsValid() bool {
	_, ok := flightModeConfigs[m]
	return ok
}

// ParseFlightMode converts an API mode name into a FlightMode
func ParseFlightMode(name string) (FlightMode, error) {
	for mode, cfg := range flightModeConfigs {
		if cfg.Name == name {
			return mode, nil
		}
	}
	return FlightModeCruise, fmt.Errorf("unknown flight mode %q", name)
}

// FuelCost returns the fuel units a leg of the given distance consumes in
// this mode. Zero-distance legs (orbital hops) are free in every mode.
func FuelCost(mode FlightMode, distance float64) int {
	if distance <= 0 {
		return 0
	}

	cfg, ok := flightModeConfigs[mode]
	if !ok {
		cfg = flightModeConfigs[FlightModeCruise]
	}

	if cfg.FlatFuel {
		return cfg.FlatFuelUnits
	}
	return int(math.Ceil(distance * cfg.FuelMultiplier))
}

// TravelTime returns the whole seconds a leg takes in this mode. The base is
// distance over engine speed rounded up, the mode multiplier is applied on
// top, and every leg takes at least one second.
func TravelTime(mode FlightMode, distance float64, engineSpeed int) int {
	cfg, ok := flightModeConfigs[mode]
	if !ok {
		cfg = flightModeConfigs[FlightModeCruise]
	}

	if engineSpeed < 1 {
		engineSpeed = 1
	}

	base := math.Ceil(distance / float64(engineSpeed))
	seconds := int(math.Ceil(base * cfg.TimeMultiplier))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
