package navigation

import (
	"context"

	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// ShipRepository abstracts ship state reads and navigation commands. Reads
// come from the remote API with waypoint reconstruction; commands mutate the
// remote ship and the passed entity together.
type ShipRepository interface {
	// FindBySymbol retrieves one ship with its location resolved to a waypoint
	FindBySymbol(ctx context.Context, symbol string, playerID int) (*Ship, error)

	// FindAllByPlayer retrieves every ship the player owns
	FindAllByPlayer(ctx context.Context, playerID int) ([]*Ship, error)

	// Navigate sends the ship toward destination and returns the arrival data
	Navigate(ctx context.Context, ship *Ship, destination *shared.Waypoint, playerID int) (*NavigationResult, error)

	// Dock docks the ship at its current waypoint
	Dock(ctx context.Context, ship *Ship, playerID int) error

	// Orbit moves the ship into orbit at its current waypoint
	Orbit(ctx context.Context, ship *Ship, playerID int) error

	// Refuel buys fuel at the current waypoint. A nil units fills the tank.
	Refuel(ctx context.Context, ship *Ship, playerID int, units *int) (*RefuelResult, error)

	// SetFlightMode switches the mode used for subsequent navigate commands
	SetFlightMode(ctx context.Context, ship *Ship, playerID int, mode shared.FlightMode) error
}

// RouteRepository persists planned and executing routes. Save upserts on
// the route id so executors can checkpoint after every segment.
type RouteRepository interface {
	Save(ctx context.Context, route *Route) error
	FindByID(ctx context.Context, id string) (*Route, error)
	FindActiveByShip(ctx context.Context, shipSymbol string, playerID int) (*Route, error)
	ListByShip(ctx context.Context, shipSymbol string, playerID int, limit int) ([]*Route, error)
}

// ShipAssignmentRepository manages exclusive ship leases. Acquire is atomic:
// two containers racing for one ship sees exactly one winner. Released rows
// stay in storage as history.
type ShipAssignmentRepository interface {
	// Acquire takes the lease, failing with ShipAssignmentError when another
	// container holds it
	Acquire(ctx context.Context, shipSymbol, containerID string, playerID int, kind string) (*ShipAssignment, error)

	// Release frees the lease with a reason. Releasing a free ship is a no-op.
	Release(ctx context.Context, shipSymbol string, playerID int, reason string) error

	// ReleaseAllForContainer frees every lease the container holds
	ReleaseAllForContainer(ctx context.Context, containerID string, playerID int, reason string) error

	// ReleaseAllActive frees every live lease regardless of owner and returns
	// how many were released. Startup hygiene after an unclean daemon exit.
	ReleaseAllActive(ctx context.Context, reason string) (int, error)

	// CheckAvailable reports whether no live lease exists for the ship
	CheckAvailable(ctx context.Context, shipSymbol string, playerID int) (bool, error)

	// FindActiveByShip returns the live lease for a ship, or nil
	FindActiveByShip(ctx context.Context, shipSymbol string, playerID int) (*ShipAssignment, error)

	// FindLatestByShip returns the newest lease row for a ship regardless of
	// status, or nil when the ship was never assigned
	FindLatestByShip(ctx context.Context, shipSymbol string, playerID int) (*ShipAssignment, error)

	// FindAllActive returns every live lease for a player
	FindAllActive(ctx context.Context, playerID int) ([]*ShipAssignment, error)
}

// NavigationResult is the API's answer to a navigate command
type NavigationResult struct {
	Destination    string
	TravelSeconds  int
	ArrivalTimeStr string
	FuelConsumed   int
}

// RefuelResult is the API's answer to a refuel command
type RefuelResult struct {
	FuelAdded   int
	CreditsCost int
}
