package ship

import "github.com/andrescamacho/fleetd/internal/domain/navigation"

// OrbitShipCommand moves a ship into orbit at its current waypoint.
// Idempotent: an already-orbiting ship succeeds without an API call.
type OrbitShipCommand struct {
	ShipSymbol string
	PlayerID   int

	// Ship, when set, skips the fresh API fetch. Executors thread their
	// already-loaded entity through so state stays in one place.
	Ship *navigation.Ship
}

// OrbitShipResponse reports whether anything changed
type OrbitShipResponse struct {
	Status string `json:"status"`
}

// DockShipCommand docks a ship at its current waypoint, idempotently
type DockShipCommand struct {
	ShipSymbol string
	PlayerID   int
	Ship       *navigation.Ship
}

// DockShipResponse reports whether anything changed
type DockShipResponse struct {
	Status string `json:"status"`
}

// RefuelShipCommand buys fuel at the current waypoint. Units nil means fill
// the tank. The ship must be docked.
type RefuelShipCommand struct {
	ShipSymbol string
	PlayerID   int
	Units      *int
	Ship       *navigation.Ship
}

// RefuelShipResponse carries the purchase outcome
type RefuelShipResponse struct {
	FuelAdded   int `json:"fuel_added"`
	FuelCurrent int `json:"fuel_current"`
	CreditsCost int `json:"credits_cost"`
}

// SetFlightModeCommand switches the mode the next navigate flies in
type SetFlightModeCommand struct {
	ShipSymbol string
	PlayerID   int
	FlightMode string
	Ship       *navigation.Ship
}

// SetFlightModeResponse echoes the applied mode
type SetFlightModeResponse struct {
	FlightMode string `json:"flight_mode"`
}

// NavigateDirectCommand issues a single navigate call toward a destination
// waypoint in the ship's current flight mode, without route planning
type NavigateDirectCommand struct {
	ShipSymbol  string
	Destination string
	PlayerID    int
	Ship        *navigation.Ship
}

// NavigateDirectResponse carries the transit details from the API
type NavigateDirectResponse struct {
	Destination   string `json:"destination"`
	ArrivalTime   string `json:"arrival_time"`
	TravelSeconds int    `json:"travel_seconds"`
	FuelConsumed  int    `json:"fuel_consumed"`
}

// NavigateShipCommand plans a fuel-aware route to the destination and
// executes it segment by segment. This is the workhorse behind navigate
// containers.
type NavigateShipCommand struct {
	ShipSymbol   string
	Destination  string
	PlayerID     int
	PreferCruise bool
}

// NavigateShipResponse summarizes the executed route
type NavigateShipResponse struct {
	RouteID      string  `json:"route_id"`
	Status       string  `json:"status"`
	Origin       string  `json:"origin"`
	Destination  string  `json:"destination"`
	Segments     int     `json:"segments"`
	TotalFuel    int     `json:"total_fuel"`
	TotalTime    int     `json:"total_time"`
	TotalDist    float64 `json:"total_distance"`
	RefuelStops  int     `json:"refuel_stops"`
	AlreadyThere bool    `json:"already_there"`
}
