package ship

import (
	"context"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
)

// OrbitShipHandler executes orbit commands
type OrbitShipHandler struct {
	shipRepo navigation.ShipRepository
}

// NewOrbitShipHandler creates an orbit handler
func NewOrbitShipHandler(shipRepo navigation.ShipRepository) *OrbitShipHandler {
	return &OrbitShipHandler{shipRepo: shipRepo}
}

// Handle moves the ship into orbit, skipping the API call when it already is
func (h *OrbitShipHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*OrbitShipCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	ship, err := loadShip(ctx, h.shipRepo, cmd.Ship, cmd.ShipSymbol, cmd.PlayerID)
	if err != nil {
		return nil, err
	}

	if ship.IsInOrbit() {
		return &OrbitShipResponse{Status: "already_in_orbit"}, nil
	}

	if err := h.shipRepo.Orbit(ctx, ship, cmd.PlayerID); err != nil {
		return nil, err
	}

	return &OrbitShipResponse{Status: "in_orbit"}, nil
}

// loadShip prefers the entity already carried on the command over a fresh
// API fetch
func loadShip(ctx context.Context, repo navigation.ShipRepository, ship *navigation.Ship, symbol string, playerID int) (*navigation.Ship, error) {
	if ship != nil {
		return ship, nil
	}
	loaded, err := repo.FindBySymbol(ctx, symbol, playerID)
	if err != nil {
		return nil, fmt.Errorf("load ship %s: %w", symbol, err)
	}
	return loaded, nil
}
