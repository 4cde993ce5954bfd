package navigation

import (
	"fmt"

	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// NavStatus is a ship's navigation state at the remote API
type NavStatus string

const (
	NavStatusDocked    NavStatus = "DOCKED"
	NavStatusInOrbit   NavStatus = "IN_ORBIT"
	NavStatusInTransit NavStatus = "IN_TRANSIT"
)

// Ship is the daemon's cached view of one ship. The authoritative copy lives
// at the remote API; adapters reconstruct this entity on demand and the
// executor mutates it to mirror the commands it issues.
//
// Nav-status transitions are the only legal ones:
//
//	DOCKED    → IN_ORBIT   depart
//	IN_ORBIT  → DOCKED     dock
//	IN_ORBIT  → IN_TRANSIT navigate
//	IN_TRANSIT → IN_ORBIT  arrive
//
// Anything else raises InvalidNavStatusError.
type Ship struct {
	symbol          string
	playerID        shared.PlayerID
	currentLocation *shared.Waypoint
	destination     *shared.Waypoint
	fuel            *shared.Fuel
	cargo           *shared.Cargo
	engineSpeed     int
	navStatus       NavStatus
	flightMode      shared.FlightMode
	role            string
	arrivalTime     *shared.ArrivalTime
}

// NewShip creates a ship entity with validation
func NewShip(
	symbol string,
	playerID shared.PlayerID,
	location *shared.Waypoint,
	fuel *shared.Fuel,
	cargo *shared.Cargo,
	engineSpeed int,
	navStatus NavStatus,
) (*Ship, error) {
	if symbol == "" {
		return nil, fmt.Errorf("ship symbol cannot be empty")
	}
	if playerID.IsZero() {
		return nil, fmt.Errorf("ship requires an owning player")
	}
	if location == nil {
		return nil, fmt.Errorf("ship requires a current location")
	}
	if fuel == nil {
		fuel = &shared.Fuel{}
	}
	if cargo == nil {
		cargo = &shared.Cargo{Inventory: []*shared.CargoItem{}}
	}
	if engineSpeed < 1 {
		engineSpeed = 1
	}

	switch navStatus {
	case NavStatusDocked, NavStatusInOrbit, NavStatusInTransit:
	default:
		return nil, fmt.Errorf("invalid nav status %q", navStatus)
	}

	return &Ship{
		symbol:          symbol,
		playerID:        playerID,
		currentLocation: location,
		fuel:            fuel,
		cargo:           cargo,
		engineSpeed:     engineSpeed,
		navStatus:       navStatus,
		flightMode:      shared.FlightModeCruise,
	}, nil
}

func (s *Ship) Symbol() string                    { return s.symbol }
func (s *Ship) PlayerID() shared.PlayerID         { return s.playerID }
func (s *Ship) CurrentLocation() *shared.Waypoint { return s.currentLocation }
func (s *Ship) Destination() *shared.Waypoint     { return s.destination }
func (s *Ship) Fuel() *shared.Fuel                { return s.fuel }
func (s *Ship) Cargo() *shared.Cargo              { return s.cargo }
func (s *Ship) EngineSpeed() int                  { return s.engineSpeed }
func (s *Ship) NavStatus() NavStatus              { return s.navStatus }
func (s *Ship) FlightMode() shared.FlightMode     { return s.flightMode }
func (s *Ship) Role() string                      { return s.role }
func (s *Ship) ArrivalTime() *shared.ArrivalTime  { return s.arrivalTime }

func (s *Ship) IsDocked() bool    { return s.navStatus == NavStatusDocked }
func (s *Ship) IsInOrbit() bool   { return s.navStatus == NavStatusInOrbit }
func (s *Ship) IsInTransit() bool { return s.navStatus == NavStatusInTransit }

// EnsureInOrbit moves a docked ship into orbit. Returns whether a transition
// happened so callers know to issue the remote command. In transit is an
// error: nothing may act on a ship until it arrives.
func (s *Ship) EnsureInOrbit() (bool, error) {
	switch s.navStatus {
	case NavStatusInOrbit:
		return false, nil
	case NavStatusDocked:
		s.navStatus = NavStatusInOrbit
		return true, nil
	default:
		return false, shared.NewInvalidNavStatusError(s.symbol, string(s.navStatus), string(NavStatusInOrbit))
	}
}

// EnsureDocked docks an orbiting ship. Same contract as EnsureInOrbit.
func (s *Ship) EnsureDocked() (bool, error) {
	switch s.navStatus {
	case NavStatusDocked:
		return false, nil
	case NavStatusInOrbit:
		s.navStatus = NavStatusDocked
		return true, nil
	default:
		return false, shared.NewInvalidNavStatusError(s.symbol, string(s.navStatus), string(NavStatusDocked))
	}
}

// StartTransit begins travel to a destination. Requires orbit and enough fuel
// for the leg in the ship's current flight mode.
func (s *Ship) StartTransit(destination *shared.Waypoint, arrival *shared.ArrivalTime) error {
	if s.navStatus != NavStatusInOrbit {
		return shared.NewInvalidNavStatusError(s.symbol, string(s.navStatus), string(NavStatusInOrbit))
	}
	if destination == nil {
		return fmt.Errorf("transit requires a destination")
	}

	required := shared.FuelCost(s.flightMode, s.currentLocation.DistanceTo(destination))
	if s.currentLocation.IsOrbitalOf(destination) {
		required = 0
	}
	if !s.fuel.CanTravel(required) {
		return shared.NewInsufficientFuelError(s.symbol, required, s.fuel.Current)
	}

	s.navStatus = NavStatusInTransit
	s.destination = destination
	s.arrivalTime = arrival
	return nil
}

// Arrive completes a transit, placing the ship in orbit at its destination
func (s *Ship) Arrive() error {
	if s.navStatus != NavStatusInTransit {
		return shared.NewInvalidNavStatusError(s.symbol, string(s.navStatus), string(NavStatusInTransit))
	}

	if s.destination != nil {
		s.currentLocation = s.destination
	}
	s.navStatus = NavStatusInOrbit
	s.destination = nil
	s.arrivalTime = nil
	return nil
}

// SetFlightMode changes the mode used for subsequent legs
func (s *Ship) SetFlightMode(mode shared.FlightMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("invalid flight mode %d", mode)
	}
	s.flightMode = mode
	return nil
}

// ConsumeFuel burns units from the tank
func (s *Ship) ConsumeFuel(units int) error {
	fuel, err := s.fuel.Consume(units)
	if err != nil {
		return shared.NewInsufficientFuelError(s.symbol, units, s.fuel.Current)
	}
	s.fuel = fuel
	return nil
}

// Refuel adds units to the tank, capped at capacity
func (s *Ship) Refuel(units int) error {
	fuel, err := s.fuel.Add(units)
	if err != nil {
		return err
	}
	s.fuel = fuel
	return nil
}

// RefuelToFull fills the tank and returns the units added
func (s *Ship) RefuelToFull() int {
	added := s.fuel.Capacity - s.fuel.Current
	s.fuel = s.fuel.Full()
	return added
}

// ShouldPreventDriftMode reports whether the ship should top off before
// departing: the current waypoint sells fuel, the tank is below the
// threshold fraction, and the upcoming segment would eat into the safety
// margin.
func (s *Ship) ShouldPreventDriftMode(segment *RouteSegment, threshold float64) bool {
	if segment == nil || !s.currentLocation.CanRefuel() {
		return false
	}
	if s.fuel.Percentage() >= threshold {
		return false
	}
	return s.fuel.Current-segment.FuelRequired < shared.DefaultFuelSafetyMargin
}

// ShouldRefuelOpportunistically reports whether a ship passing a fuel-capable
// waypoint should top off: below the threshold fraction with fuel on sale
func (s *Ship) ShouldRefuelOpportunistically(waypoint *shared.Waypoint, threshold float64) bool {
	if waypoint == nil || !waypoint.CanRefuel() {
		return false
	}
	return s.fuel.Percentage() < threshold
}

// CloneAtLocation returns a copy of the ship as if it were at the given
// location with the given fuel. Planners simulate with clones so the real
// entity only mirrors issued commands.
func (s *Ship) CloneAtLocation(location *shared.Waypoint, fuel *shared.Fuel) *Ship {
	clone := *s
	if location != nil {
		clone.currentLocation = location
	}
	if fuel != nil {
		clone.fuel = fuel
	}
	return &clone
}

// SetNavStatus overwrites the nav status from a fresh API fetch
func (s *Ship) SetNavStatus(status NavStatus) {
	s.navStatus = status
}

// SetLocation overwrites the location from a fresh API fetch
func (s *Ship) SetLocation(location *shared.Waypoint) {
	if location != nil {
		s.currentLocation = location
	}
}

// SetFuel overwrites the fuel state from a fresh API fetch
func (s *Ship) SetFuel(fuel *shared.Fuel) {
	if fuel != nil {
		s.fuel = fuel
	}
}

// SetCargo overwrites the cargo state from a fresh API fetch
func (s *Ship) SetCargo(cargo *shared.Cargo) {
	if cargo != nil {
		s.cargo = cargo
	}
}

// SetArrivalTime records the in-transit arrival timestamp from the API
func (s *Ship) SetArrivalTime(arrival *shared.ArrivalTime) {
	s.arrivalTime = arrival
}

// SetDestination records the in-transit destination from the API
func (s *Ship) SetDestination(destination *shared.Waypoint) {
	s.destination = destination
}

// SetRole records the ship's registration role from the API
func (s *Ship) SetRole(role string) {
	s.role = role
}

// ReconstructShip rebuilds a ship entity from adapter data without
// revalidating business rules. Adapters own the data's integrity.
func ReconstructShip(
	symbol string,
	playerID shared.PlayerID,
	location *shared.Waypoint,
	fuel *shared.Fuel,
	cargo *shared.Cargo,
	engineSpeed int,
	navStatus NavStatus,
	flightMode shared.FlightMode,
) *Ship {
	if fuel == nil {
		fuel = &shared.Fuel{}
	}
	if cargo == nil {
		cargo = &shared.Cargo{Inventory: []*shared.CargoItem{}}
	}
	if engineSpeed < 1 {
		engineSpeed = 1
	}

	return &Ship{
		symbol:          symbol,
		playerID:        playerID,
		currentLocation: location,
		fuel:            fuel,
		cargo:           cargo,
		engineSpeed:     engineSpeed,
		navStatus:       navStatus,
		flightMode:      flightMode,
	}
}
