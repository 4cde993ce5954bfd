package ship

import (
	"context"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/application/logging"
	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/internal/domain/system"
)

// NavigateShipHandler plans a fuel-aware route and flies it. This is the
// top-level navigation workflow that navigate containers run.
type NavigateShipHandler struct {
	shipRepo      navigation.ShipRepository
	graphProvider system.GraphProvider
	planner       *RoutePlanner
	executor      *RouteExecutor
}

// NewNavigateShipHandler creates the navigation workflow handler
func NewNavigateShipHandler(
	shipRepo navigation.ShipRepository,
	graphProvider system.GraphProvider,
	planner *RoutePlanner,
	executor *RouteExecutor,
) *NavigateShipHandler {
	return &NavigateShipHandler{
		shipRepo:      shipRepo,
		graphProvider: graphProvider,
		planner:       planner,
		executor:      executor,
	}
}

// Handle plans and executes the route. A ship already at the destination
// completes immediately with no ship actions.
func (h *NavigateShipHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*NavigateShipCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	ship, err := h.shipRepo.FindBySymbol(ctx, cmd.ShipSymbol, cmd.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("load ship %s: %w", cmd.ShipSymbol, err)
	}

	systemSymbol := shared.ExtractSystemSymbol(cmd.Destination)
	if systemSymbol != ship.CurrentLocation().SystemSymbol {
		return nil, fmt.Errorf("destination %s is outside system %s", cmd.Destination, ship.CurrentLocation().SystemSymbol)
	}

	waypoints, err := h.graphProvider.WaypointDictionary(ctx, systemSymbol, cmd.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("load waypoints: %w", err)
	}

	route, err := h.planner.PlanRoute(ctx, ship, cmd.Destination, waypoints, cmd.PreferCruise)
	if err != nil {
		return nil, err
	}
	if route == nil {
		logging.LoggerFromContext(ctx).Log("INFO", "Ship already at destination", map[string]interface{}{
			"ship_symbol": cmd.ShipSymbol,
			"destination": cmd.Destination,
		})
		return &NavigateShipResponse{
			Status:       string(navigation.RouteStatusCompleted),
			Origin:       ship.CurrentLocation().Symbol,
			Destination:  cmd.Destination,
			AlreadyThere: true,
		}, nil
	}

	if err := h.executor.ExecuteRoute(ctx, route); err != nil {
		return nil, err
	}

	return &NavigateShipResponse{
		RouteID:     route.ID(),
		Status:      string(route.Status()),
		Origin:      route.Origin().Symbol,
		Destination: route.Destination().Symbol,
		Segments:    len(route.Segments()),
		TotalFuel:   route.TotalFuel(),
		TotalTime:   route.TotalTravelTime(),
		TotalDist:   route.TotalDistance(),
		RefuelStops: route.RefuelStops(),
	}, nil
}
