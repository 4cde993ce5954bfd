package ship

import (
	"context"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/application/common"
	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
)

// GetShipQuery fetches one ship. Either PlayerID or AgentSymbol identifies
// the owner; a numeric ID wins when both are set.
type GetShipQuery struct {
	ShipSymbol  string
	PlayerID    *int
	AgentSymbol string
}

// GetShipResponse carries the ship entity
type GetShipResponse struct {
	Ship *navigation.Ship
}

// ListShipsQuery fetches a player's whole fleet
type ListShipsQuery struct {
	PlayerID    *int
	AgentSymbol string
}

// ListShipsResponse carries the fleet
type ListShipsResponse struct {
	Ships []*navigation.Ship
}

// GetShipHandler resolves the player and fetches the ship fresh
type GetShipHandler struct {
	shipRepo navigation.ShipRepository
	resolver *common.PlayerResolver
}

// NewGetShipHandler creates the get-ship query handler
func NewGetShipHandler(shipRepo navigation.ShipRepository, resolver *common.PlayerResolver) *GetShipHandler {
	return &GetShipHandler{shipRepo: shipRepo, resolver: resolver}
}

func (h *GetShipHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*GetShipQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	playerID, err := h.resolver.ResolvePlayerID(ctx, query.PlayerID, query.AgentSymbol)
	if err != nil {
		return nil, err
	}

	ship, err := h.shipRepo.FindBySymbol(ctx, query.ShipSymbol, playerID)
	if err != nil {
		return nil, err
	}

	return &GetShipResponse{Ship: ship}, nil
}

// ListShipsHandler resolves the player and lists the fleet
type ListShipsHandler struct {
	shipRepo navigation.ShipRepository
	resolver *common.PlayerResolver
}

// NewListShipsHandler creates the list-ships query handler
func NewListShipsHandler(shipRepo navigation.ShipRepository, resolver *common.PlayerResolver) *ListShipsHandler {
	return &ListShipsHandler{shipRepo: shipRepo, resolver: resolver}
}

func (h *ListShipsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*ListShipsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	playerID, err := h.resolver.ResolvePlayerID(ctx, query.PlayerID, query.AgentSymbol)
	if err != nil {
		return nil, err
	}

	ships, err := h.shipRepo.FindAllByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	return &ListShipsResponse{Ships: ships}, nil
}
