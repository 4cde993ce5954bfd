package ship

import (
	"context"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/adapters/metrics"
	"github.com/andrescamacho/fleetd/internal/application/logging"
	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
)

// RefuelShipHandler executes refuel commands. The ship must be docked at a
// waypoint that sells fuel; the handler does not dock it first.
type RefuelShipHandler struct {
	shipRepo navigation.ShipRepository
}

// NewRefuelShipHandler creates a refuel handler
func NewRefuelShipHandler(shipRepo navigation.ShipRepository) *RefuelShipHandler {
	return &RefuelShipHandler{shipRepo: shipRepo}
}

// Handle buys fuel at the current waypoint
func (h *RefuelShipHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*RefuelShipCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	ship, err := loadShip(ctx, h.shipRepo, cmd.Ship, cmd.ShipSymbol, cmd.PlayerID)
	if err != nil {
		return nil, err
	}

	if ship.Fuel().Current >= ship.Fuel().Capacity && cmd.Units == nil {
		return &RefuelShipResponse{FuelCurrent: ship.Fuel().Current}, nil
	}

	result, err := h.shipRepo.Refuel(ctx, ship, cmd.PlayerID, cmd.Units)
	if err != nil {
		return nil, err
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Ship refueled", map[string]interface{}{
		"ship_symbol":  ship.Symbol(),
		"fuel_added":   result.FuelAdded,
		"fuel_current": ship.Fuel().Current,
		"credits_cost": result.CreditsCost,
	})
	if loc := ship.CurrentLocation(); loc != nil {
		metrics.RecordFuelPurchase(loc.Symbol, result.FuelAdded)
	}

	return &RefuelShipResponse{
		FuelAdded:   result.FuelAdded,
		FuelCurrent: ship.Fuel().Current,
		CreditsCost: result.CreditsCost,
	}, nil
}
