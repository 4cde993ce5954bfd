package scouting

import "context"

// ScoutTourCommand runs a market scouting tour with a single ship. The ship
// visits each market waypoint in turn, scanning prices into storage after
// every arrival. Iterations of -1 repeat the tour until cancelled.
type ScoutTourCommand struct {
	PlayerID   int
	ShipSymbol string
	Markets    []string
	Iterations int
}

// ScoutTourResponse summarizes a finished (or cancelled) tour
type ScoutTourResponse struct {
	MarketsVisited int
	TourOrder      []string
	Iterations     int
}

// ScoutMarketsCommand deploys a probe fleet over a system's markets. The
// markets are partitioned across the given ships and one scout tour
// container is launched per ship. Ships already holding an active scouting
// lease keep their container.
type ScoutMarketsCommand struct {
	PlayerID     int
	ShipSymbols  []string
	SystemSymbol string
	Markets      []string
	Iterations   int
	Reset        bool
}

// ScoutMarketsResponse reports the launched and reused containers
type ScoutMarketsResponse struct {
	ContainerIDs     []string
	Assignments      map[string][]string
	ReusedContainers []string
}

// MarketWorkerCommand drains a persisted queue of market waypoints with one
// ship. Progress lives in the owning container's config, so a restarted
// worker resumes from the waypoint it was interrupted at instead of
// rescanning the whole queue.
type MarketWorkerCommand struct {
	PlayerID    int
	ShipSymbol  string
	ContainerID string
}

// MarketWorkerResponse reports how much of the queue this run covered
type MarketWorkerResponse struct {
	MarketsProcessed int
	ResumedAt        int
	QueueLength      int
}

// ContainerLauncher is the coordinator's handle on the container runtime.
// Implemented by the daemon runtime; the coordinator only ever launches
// scout tours and stops its own containers.
type ContainerLauncher interface {
	LaunchScoutTour(ctx context.Context, containerID string, playerID int, cmd *ScoutTourCommand) error
	StopContainer(ctx context.Context, containerID string) error
}
