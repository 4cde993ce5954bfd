package scouting

import (
	"context"
	"fmt"
	"sort"

	"github.com/andrescamacho/fleetd/internal/application/logging"
	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/routing"
	"github.com/andrescamacho/fleetd/internal/domain/system"
	"github.com/andrescamacho/fleetd/pkg/utils"
)

// ScoutMarketsHandler spreads a system's markets over a probe fleet. Each
// ship without an active scouting lease gets a share of the markets and a
// scout tour container of its own; ships already scouting are left alone
// unless Reset is set.
type ScoutMarketsHandler struct {
	shipRepo       navigation.ShipRepository
	graphProvider  system.GraphProvider
	solver         routing.RoutePlanner
	launcher       ContainerLauncher
	assignmentRepo navigation.ShipAssignmentRepository
}

// NewScoutMarketsHandler creates the fleet scouting coordinator
func NewScoutMarketsHandler(
	shipRepo navigation.ShipRepository,
	graphProvider system.GraphProvider,
	solver routing.RoutePlanner,
	launcher ContainerLauncher,
	assignmentRepo navigation.ShipAssignmentRepository,
) *ScoutMarketsHandler {
	return &ScoutMarketsHandler{
		shipRepo:       shipRepo,
		graphProvider:  graphProvider,
		solver:         solver,
		launcher:       launcher,
		assignmentRepo: assignmentRepo,
	}
}

func (h *ScoutMarketsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*ScoutMarketsCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}
	if len(cmd.ShipSymbols) == 0 {
		return nil, fmt.Errorf("scout markets requires at least one ship")
	}

	if cmd.Reset {
		h.stopExistingContainers(ctx, cmd)
	}

	reused, freeShips, err := h.splitByExistingLease(ctx, cmd)
	if err != nil {
		return nil, err
	}

	response := &ScoutMarketsResponse{
		ContainerIDs:     append([]string{}, reused...),
		Assignments:      make(map[string][]string),
		ReusedContainers: reused,
	}
	if len(freeShips) == 0 || len(cmd.Markets) == 0 {
		return response, nil
	}

	assignments, err := h.partitionMarkets(ctx, cmd, freeShips)
	if err != nil {
		return nil, err
	}

	// Deterministic launch order
	ships := make([]string, 0, len(assignments))
	for shipSymbol := range assignments {
		ships = append(ships, shipSymbol)
	}
	sort.Strings(ships)

	for _, shipSymbol := range ships {
		markets := assignments[shipSymbol]
		if len(markets) == 0 {
			continue
		}

		containerID := utils.GenerateContainerID("scout-tour", shipSymbol)
		tourCmd := &ScoutTourCommand{
			PlayerID:   cmd.PlayerID,
			ShipSymbol: shipSymbol,
			Markets:    markets,
			Iterations: cmd.Iterations,
		}
		if err := h.launcher.LaunchScoutTour(ctx, containerID, cmd.PlayerID, tourCmd); err != nil {
			return nil, fmt.Errorf("launch scout container for %s: %w", shipSymbol, err)
		}

		response.ContainerIDs = append(response.ContainerIDs, containerID)
		response.Assignments[shipSymbol] = markets
	}

	return response, nil
}

// stopExistingContainers tears down live scouting leases so the fleet can be
// redeployed from scratch. Failures here are logged, not fatal.
func (h *ScoutMarketsHandler) stopExistingContainers(ctx context.Context, cmd *ScoutMarketsCommand) {
	logger := logging.LoggerFromContext(ctx)

	for _, shipSymbol := range cmd.ShipSymbols {
		lease, err := h.assignmentRepo.FindActiveByShip(ctx, shipSymbol, cmd.PlayerID)
		if err != nil || lease == nil {
			continue
		}

		if err := h.launcher.StopContainer(ctx, lease.ContainerID); err != nil {
			logger.Log("WARNING", "Scout container stop failed", map[string]interface{}{
				"ship_symbol":  shipSymbol,
				"container_id": lease.ContainerID,
				"error":        err.Error(),
			})
		}
		if err := h.assignmentRepo.Release(ctx, shipSymbol, cmd.PlayerID, "scout_fleet_reset"); err != nil {
			logger.Log("WARNING", "Ship lease release failed", map[string]interface{}{
				"ship_symbol": shipSymbol,
				"error":       err.Error(),
			})
		}
	}
}

// splitByExistingLease separates ships that already run a scout container
// from ships free to take a new assignment
func (h *ScoutMarketsHandler) splitByExistingLease(ctx context.Context, cmd *ScoutMarketsCommand) (reused []string, free []string, err error) {
	for _, shipSymbol := range cmd.ShipSymbols {
		lease, err := h.assignmentRepo.FindActiveByShip(ctx, shipSymbol, cmd.PlayerID)
		if err != nil {
			return nil, nil, fmt.Errorf("query lease for %s: %w", shipSymbol, err)
		}
		if lease != nil && lease.IsActive() {
			reused = append(reused, lease.ContainerID)
			continue
		}
		free = append(free, shipSymbol)
	}
	return reused, free, nil
}

// partitionMarkets assigns markets to ships. One ship takes everything;
// several go through the fleet solver.
func (h *ScoutMarketsHandler) partitionMarkets(ctx context.Context, cmd *ScoutMarketsCommand, ships []string) (map[string][]string, error) {
	if len(ships) == 1 {
		return map[string][]string{ships[0]: cmd.Markets}, nil
	}

	waypoints, err := h.graphProvider.WaypointDictionary(ctx, cmd.SystemSymbol, cmd.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("load waypoints for %s: %w", cmd.SystemSymbol, err)
	}

	profiles := make(map[string]*routing.ShipProfile, len(ships))
	for _, shipSymbol := range ships {
		ship, err := h.shipRepo.FindBySymbol(ctx, shipSymbol, cmd.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("load ship %s: %w", shipSymbol, err)
		}
		profiles[shipSymbol] = &routing.ShipProfile{
			Location:     ship.CurrentLocation().Symbol,
			CurrentFuel:  ship.Fuel().Current,
			FuelCapacity: ship.Fuel().Capacity,
			EngineSpeed:  ship.EngineSpeed(),
		}
	}

	plan, err := h.solver.PartitionFleet(ctx, &routing.FleetRequest{
		Waypoints: waypoints,
		Ships:     profiles,
		Stops:     cmd.Markets,
	})
	if err != nil {
		return nil, fmt.Errorf("partition fleet: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("no feasible fleet partition for %s", cmd.SystemSymbol)
	}

	assignments := make(map[string][]string, len(plan.Tours))
	for shipSymbol, tour := range plan.Tours {
		assignments[shipSymbol] = tour.VisitOrder
	}
	return assignments, nil
}
