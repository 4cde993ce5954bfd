package system

import (
	"context"

	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// WaypointRepository persists trait-bearing waypoint records. Rows expire on
// a TTL; stale reads return nothing so callers rebuild from the API.
type WaypointRepository interface {
	FindBySymbol(ctx context.Context, symbol, systemSymbol string) (*shared.Waypoint, error)
	ListBySystem(ctx context.Context, systemSymbol string) ([]*shared.Waypoint, error)
	ListBySystemWithTrait(ctx context.Context, systemSymbol, trait string) ([]*shared.Waypoint, error)
	SaveAll(ctx context.Context, playerID int, systemSymbol string, waypoints []*shared.Waypoint) error

	// IsFresh reports whether the system's cached rows are inside the TTL
	IsFresh(ctx context.Context, systemSymbol string) (bool, error)
}

// SystemGraphRepository persists structural graphs. Graphs never expire.
type SystemGraphRepository interface {
	Get(ctx context.Context, systemSymbol string) (*NavigationGraph, error)
	Save(ctx context.Context, graph *NavigationGraph) error
}

// GraphBuilder rebuilds a system's structural graph from the remote API,
// refreshing the waypoint cache as a side effect. This is the expensive
// path; GraphProvider calls it only on a full cache miss.
type GraphBuilder interface {
	BuildSystemGraph(ctx context.Context, systemSymbol string, playerID int) (*NavigationGraph, error)
}

// GraphProvider serves system graphs and waypoint dictionaries, hiding the
// memory cache, database cache and API rebuild behind one call
type GraphProvider interface {
	// GetGraph returns the structural graph, building it on a cache miss
	GetGraph(ctx context.Context, systemSymbol string, playerID int) (*NavigationGraph, error)

	// WaypointDictionary returns the trait-bearing waypoints of a system
	// keyed by symbol, refreshing expired cache rows from the API
	WaypointDictionary(ctx context.Context, systemSymbol string, playerID int) (map[string]*shared.Waypoint, error)

	// Invalidate drops the in-memory copy of a system, forcing the next
	// read through the database or API
	Invalidate(systemSymbol string)
}
