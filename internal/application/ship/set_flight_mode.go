package ship

import (
	"context"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// SetFlightModeHandler executes flight mode switches
type SetFlightModeHandler struct {
	shipRepo navigation.ShipRepository
}

// NewSetFlightModeHandler creates a flight mode handler
func NewSetFlightModeHandler(shipRepo navigation.ShipRepository) *SetFlightModeHandler {
	return &SetFlightModeHandler{shipRepo: shipRepo}
}

// Handle applies the requested flight mode, skipping the API call when the
// ship already flies it
func (h *SetFlightModeHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*SetFlightModeCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	mode, err := shared.ParseFlightMode(cmd.FlightMode)
	if err != nil {
		return nil, err
	}

	ship, err := loadShip(ctx, h.shipRepo, cmd.Ship, cmd.ShipSymbol, cmd.PlayerID)
	if err != nil {
		return nil, err
	}

	if ship.FlightMode() == mode {
		return &SetFlightModeResponse{FlightMode: mode.String()}, nil
	}

	if err := h.shipRepo.SetFlightMode(ctx, ship, cmd.PlayerID, mode); err != nil {
		return nil, err
	}

	return &SetFlightModeResponse{FlightMode: mode.String()}, nil
}
