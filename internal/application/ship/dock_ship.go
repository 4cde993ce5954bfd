package ship

import (
	"context"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
)

// DockShipHandler executes dock commands
type DockShipHandler struct {
	shipRepo navigation.ShipRepository
}

// NewDockShipHandler creates a dock handler
func NewDockShipHandler(shipRepo navigation.ShipRepository) *DockShipHandler {
	return &DockShipHandler{shipRepo: shipRepo}
}

// Handle docks the ship, skipping the API call when it already is docked
func (h *DockShipHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*DockShipCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	ship, err := loadShip(ctx, h.shipRepo, cmd.Ship, cmd.ShipSymbol, cmd.PlayerID)
	if err != nil {
		return nil, err
	}

	if ship.IsDocked() {
		return &DockShipResponse{Status: "already_docked"}, nil
	}

	if err := h.shipRepo.Dock(ctx, ship, cmd.PlayerID); err != nil {
		return nil, err
	}

	return &DockShipResponse{Status: "docked"}, nil
}
