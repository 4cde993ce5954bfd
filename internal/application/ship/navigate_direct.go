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

// NavigateDirectHandler issues a single navigate call without planning.
// Route executors use it per segment; operators use it for short hops.
type NavigateDirectHandler struct {
	shipRepo      navigation.ShipRepository
	graphProvider system.GraphProvider
}

// NewNavigateDirectHandler creates a direct navigation handler
func NewNavigateDirectHandler(shipRepo navigation.ShipRepository, graphProvider system.GraphProvider) *NavigateDirectHandler {
	return &NavigateDirectHandler{shipRepo: shipRepo, graphProvider: graphProvider}
}

// Handle sends the ship toward the destination in its current flight mode.
// The ship must be in orbit; transit state is mirrored onto the entity.
func (h *NavigateDirectHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*NavigateDirectCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	ship, err := loadShip(ctx, h.shipRepo, cmd.Ship, cmd.ShipSymbol, cmd.PlayerID)
	if err != nil {
		return nil, err
	}

	destination, err := h.resolveDestination(ctx, cmd.Destination, cmd.PlayerID)
	if err != nil {
		return nil, err
	}

	if ship.CurrentLocation().Symbol == destination.Symbol {
		return &NavigateDirectResponse{Destination: destination.Symbol}, nil
	}

	result, err := h.shipRepo.Navigate(ctx, ship, destination, cmd.PlayerID)
	if err != nil {
		return nil, err
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Ship departing", map[string]interface{}{
		"ship_symbol":    ship.Symbol(),
		"destination":    destination.Symbol,
		"arrival_time":   result.ArrivalTimeStr,
		"travel_seconds": result.TravelSeconds,
		"fuel_consumed":  result.FuelConsumed,
	})

	return &NavigateDirectResponse{
		Destination:   result.Destination,
		ArrivalTime:   result.ArrivalTimeStr,
		TravelSeconds: result.TravelSeconds,
		FuelConsumed:  result.FuelConsumed,
	}, nil
}

func (h *NavigateDirectHandler) resolveDestination(ctx context.Context, symbol string, playerID int) (*shared.Waypoint, error) {
	systemSymbol := shared.ExtractSystemSymbol(symbol)
	dictionary, err := h.graphProvider.WaypointDictionary(ctx, systemSymbol, playerID)
	if err != nil {
		return nil, err
	}

	destination, ok := dictionary[symbol]
	if !ok {
		return nil, shared.NewNotFoundError("waypoint", symbol)
	}
	return destination, nil
}
