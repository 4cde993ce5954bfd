package scouting

import (
	"context"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/domain/market"
)

// GetMarketDataQuery fetches the stored snapshot for one waypoint
type GetMarketDataQuery struct {
	PlayerID       int
	WaypointSymbol string
}

// GetMarketDataResponse carries the snapshot, nil when never scouted
type GetMarketDataResponse struct {
	Market *market.Market
}

// ListScoutedMarketsQuery lists waypoints with stored snapshots in a system
type ListScoutedMarketsQuery struct {
	PlayerID     int
	SystemSymbol string
}

// ListScoutedMarketsResponse carries the scouted waypoint symbols
type ListScoutedMarketsResponse struct {
	Waypoints []string
}

// GetMarketDataHandler serves market snapshots from storage
type GetMarketDataHandler struct {
	marketRepo market.MarketRepository
}

// NewGetMarketDataHandler creates a market data query handler
func NewGetMarketDataHandler(marketRepo market.MarketRepository) *GetMarketDataHandler {
	return &GetMarketDataHandler{marketRepo: marketRepo}
}

func (h *GetMarketDataHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	q, ok := request.(*GetMarketDataQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	snapshot, err := h.marketRepo.GetMarketData(ctx, q.WaypointSymbol, q.PlayerID)
	if err != nil {
		return nil, err
	}
	return &GetMarketDataResponse{Market: snapshot}, nil
}

// ListScoutedMarketsHandler lists scouted waypoints for a system
type ListScoutedMarketsHandler struct {
	marketRepo market.MarketRepository
}

// NewListScoutedMarketsHandler creates a scouted markets query handler
func NewListScoutedMarketsHandler(marketRepo market.MarketRepository) *ListScoutedMarketsHandler {
	return &ListScoutedMarketsHandler{marketRepo: marketRepo}
}

func (h *ListScoutedMarketsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	q, ok := request.(*ListScoutedMarketsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	waypoints, err := h.marketRepo.FindAllMarketsInSystem(ctx, q.SystemSymbol, q.PlayerID)
	if err != nil {
		return nil, err
	}
	return &ListScoutedMarketsResponse{Waypoints: waypoints}, nil
}
