package scouting

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/fleetd/internal/application/logging"
	"github.com/andrescamacho/fleetd/internal/application/mediator"
	appship "github.com/andrescamacho/fleetd/internal/application/ship"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/routing"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/internal/domain/system"
)

// stationaryScanInterval paces rescans when the tour has a single market
// and the ship just sits on it
const stationaryScanInterval = 5 * time.Minute

// ScoutTourHandler drives one ship around its assigned markets, scanning
// each one after arrival. Tour order comes from the route solver; the tour
// is rotated so a restarted container resumes from wherever the ship is.
type ScoutTourHandler struct {
	shipRepo      navigation.ShipRepository
	graphProvider system.GraphProvider
	solver        routing.RoutePlanner
	med           mediator.Mediator
	scanner       *appship.MarketScanner
	sleep         appship.Sleeper
}

// NewScoutTourHandler creates a scout tour handler
func NewScoutTourHandler(
	shipRepo navigation.ShipRepository,
	graphProvider system.GraphProvider,
	solver routing.RoutePlanner,
	med mediator.Mediator,
	scanner *appship.MarketScanner,
) *ScoutTourHandler {
	return &ScoutTourHandler{
		shipRepo:      shipRepo,
		graphProvider: graphProvider,
		solver:        solver,
		med:           med,
		scanner:       scanner,
		sleep:         appship.RealSleeper,
	}
}

// SetSleeper swaps the pause function, used by tests
func (h *ScoutTourHandler) SetSleeper(sleep appship.Sleeper) { h.sleep = sleep }

func (h *ScoutTourHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*ScoutTourCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}
	if len(cmd.Markets) == 0 {
		return nil, fmt.Errorf("scout tour requires at least one market")
	}

	ship, err := h.shipRepo.FindBySymbol(ctx, cmd.ShipSymbol, cmd.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("load ship %s: %w", cmd.ShipSymbol, err)
	}

	tourOrder, err := h.planTourOrder(ctx, ship, cmd)
	if err != nil {
		return nil, err
	}

	response := &ScoutTourResponse{TourOrder: tourOrder}

	if len(tourOrder) == 1 {
		err = h.runStationaryScout(ctx, cmd, ship, tourOrder[0], response)
	} else {
		err = h.runTourLoop(ctx, cmd, tourOrder, response)
	}
	return response, err
}

// planTourOrder asks the solver for a short visit sequence, then rotates it
// to start at the ship's current waypoint
func (h *ScoutTourHandler) planTourOrder(ctx context.Context, ship *navigation.Ship, cmd *ScoutTourCommand) ([]string, error) {
	if len(cmd.Markets) == 1 {
		return cmd.Markets, nil
	}

	systemSymbol := shared.ExtractSystemSymbol(ship.CurrentLocation().Symbol)
	waypoints, err := h.graphProvider.WaypointDictionary(ctx, systemSymbol, cmd.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("load waypoints for %s: %w", systemSymbol, err)
	}

	plan, err := h.solver.OptimizeTour(ctx, &routing.TourRequest{
		Waypoints:    waypoints,
		Start:        ship.CurrentLocation().Symbol,
		Stops:        cmd.Markets,
		CurrentFuel:  ship.Fuel().Current,
		FuelCapacity: ship.Fuel().Capacity,
		EngineSpeed:  ship.EngineSpeed(),
	})
	if err != nil {
		return nil, fmt.Errorf("optimize tour: %w", err)
	}
	if plan == nil || len(plan.VisitOrder) == 0 {
		// Solver could not order the stops; fall back to the given order
		return rotateToStart(cmd.Markets, ship.CurrentLocation().Symbol), nil
	}
	return rotateToStart(plan.VisitOrder, ship.CurrentLocation().Symbol), nil
}

// runStationaryScout parks the ship on a single market and rescans it on an
// interval until the iteration budget runs out
func (h *ScoutTourHandler) runStationaryScout(
	ctx context.Context,
	cmd *ScoutTourCommand,
	ship *navigation.Ship,
	marketWaypoint string,
	response *ScoutTourResponse,
) error {
	logger := logging.LoggerFromContext(ctx)

	if ship.CurrentLocation().Symbol != marketWaypoint {
		if err := h.navigateTo(ctx, cmd, marketWaypoint); err != nil {
			return err
		}
	}

	if err := h.scanMarket(ctx, cmd, marketWaypoint); err == nil {
		response.MarketsVisited++
	}
	response.Iterations++

	for iteration := 1; iteration < cmd.Iterations || cmd.Iterations == -1; iteration++ {
		if err := h.sleep(ctx, stationaryScanInterval); err != nil {
			logger.Log("INFO", "Scout tour cancelled", map[string]interface{}{
				"ship_symbol": cmd.ShipSymbol,
				"iterations":  response.Iterations,
			})
			return nil
		}

		if err := h.scanMarket(ctx, cmd, marketWaypoint); err == nil {
			response.MarketsVisited++
		}
		response.Iterations++
	}
	return nil
}

// runTourLoop flies the ordered tour, scanning after every arrival. A failed
// scan is logged and the tour moves on; a failed navigation ends the tour.
func (h *ScoutTourHandler) runTourLoop(
	ctx context.Context,
	cmd *ScoutTourCommand,
	tourOrder []string,
	response *ScoutTourResponse,
) error {
	for iteration := 0; iteration < cmd.Iterations || cmd.Iterations == -1; iteration++ {
		for _, marketWaypoint := range tourOrder {
			if ctx.Err() != nil {
				return nil
			}

			if err := h.navigateTo(ctx, cmd, marketWaypoint); err != nil {
				return err
			}
			if err := h.scanMarket(ctx, cmd, marketWaypoint); err == nil {
				response.MarketsVisited++
			}
		}
		response.Iterations++
	}
	return nil
}

func (h *ScoutTourHandler) navigateTo(ctx context.Context, cmd *ScoutTourCommand, destination string) error {
	logging.LoggerFromContext(ctx).Log("INFO", "Scouting ship navigating to market", map[string]interface{}{
		"ship_symbol": cmd.ShipSymbol,
		"destination": destination,
	})

	_, err := h.med.Send(ctx, &appship.NavigateShipCommand{
		ShipSymbol:  cmd.ShipSymbol,
		Destination: destination,
		PlayerID:    cmd.PlayerID,
	})
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", destination, err)
	}
	return nil
}

func (h *ScoutTourHandler) scanMarket(ctx context.Context, cmd *ScoutTourCommand, waypointSymbol string) error {
	logger := logging.LoggerFromContext(ctx)
	if _, err := h.scanner.Scan(ctx, waypointSymbol, cmd.PlayerID); err != nil {
		logger.Log("ERROR", "Market scan failed", map[string]interface{}{
			"ship_symbol": cmd.ShipSymbol,
			"waypoint":    waypointSymbol,
			"error":       err.Error(),
		})
		return err
	}
	return nil
}

// rotateToStart shifts the tour so it begins at the ship's current waypoint,
// keeping the command idempotent across container restarts. A position not
// on the tour leaves the order untouched.
func rotateToStart(tour []string, currentPosition string) []string {
	startIndex := -1
	for i, waypoint := range tour {
		if waypoint == currentPosition {
			startIndex = i
			break
		}
	}
	if startIndex <= 0 {
		return tour
	}

	rotated := make([]string, len(tour))
	for i := range tour {
		rotated[i] = tour[(startIndex+i)%len(tour)]
	}
	return rotated
}
