package ship

import (
	"context"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/application/logging"
	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/domain/market"
	"github.com/andrescamacho/fleetd/internal/domain/player"
	domainPorts "github.com/andrescamacho/fleetd/internal/domain/ports"
)

// PurchaseCargoCommand buys units of a good at the docked market.
// MarketWaypoint is optional; when set and a snapshot exists, the order is
// split into chunks the market's trade volume can absorb.
type PurchaseCargoCommand struct {
	ShipSymbol     string
	GoodSymbol     string
	Units          int
	PlayerID       int
	MarketWaypoint string
}

// PurchaseCargoResponse reports what the purchase actually cost
type PurchaseCargoResponse struct {
	UnitsPurchased int
	TotalCost      int
	Transactions   int
}

// JettisonCargoCommand dumps units of a good overboard
type JettisonCargoCommand struct {
	ShipSymbol string
	GoodSymbol string
	Units      int
	PlayerID   int
}

// JettisonCargoResponse confirms the dump
type JettisonCargoResponse struct {
	UnitsJettisoned int
}

// PurchaseCargoHandler buys cargo, splitting large orders into chunks the
// market's trade volume can absorb. Without a snapshot for the waypoint the
// whole order goes out as one transaction.
type PurchaseCargoHandler struct {
	client     domainPorts.APIClient
	playerRepo player.PlayerRepository
	marketRepo market.MarketRepository
}

// NewPurchaseCargoHandler creates a purchase handler
func NewPurchaseCargoHandler(
	client domainPorts.APIClient,
	playerRepo player.PlayerRepository,
	marketRepo market.MarketRepository,
) *PurchaseCargoHandler {
	return &PurchaseCargoHandler{
		client:     client,
		playerRepo: playerRepo,
		marketRepo: marketRepo,
	}
}

func (h *PurchaseCargoHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*PurchaseCargoCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}
	if cmd.Units <= 0 {
		return nil, fmt.Errorf("purchase units must be positive")
	}

	p, err := h.playerRepo.FindByID(ctx, cmd.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("resolve player %d: %w", cmd.PlayerID, err)
	}

	chunk := cmd.Units
	if volume := h.tradeVolumeFor(ctx, cmd); volume > 0 && volume < chunk {
		chunk = volume
	}

	response := &PurchaseCargoResponse{}
	remaining := cmd.Units
	for remaining > 0 {
		units := remaining
		if units > chunk {
			units = chunk
		}

		data, err := h.client.PurchaseCargo(ctx, cmd.ShipSymbol, cmd.GoodSymbol, units, p.Token)
		if err != nil {
			return nil, fmt.Errorf("purchase %d %s: %w", units, cmd.GoodSymbol, err)
		}

		response.UnitsPurchased += data.UnitsAdded
		response.TotalCost += data.TotalCost
		response.Transactions++
		remaining -= units
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Cargo purchased", map[string]interface{}{
		"ship_symbol":  cmd.ShipSymbol,
		"good":         cmd.GoodSymbol,
		"units":        response.UnitsPurchased,
		"total_cost":   response.TotalCost,
		"transactions": response.Transactions,
	})
	return response, nil
}

// tradeVolumeFor looks up the good's per-transaction volume from the latest
// snapshot of the purchase market. Zero means unknown.
func (h *PurchaseCargoHandler) tradeVolumeFor(ctx context.Context, cmd *PurchaseCargoCommand) int {
	if h.marketRepo == nil || cmd.MarketWaypoint == "" {
		return 0
	}
	snapshot, err := h.marketRepo.GetMarketData(ctx, cmd.MarketWaypoint, cmd.PlayerID)
	if err != nil || snapshot == nil {
		return 0
	}
	good := snapshot.FindGood(cmd.GoodSymbol)
	if good == nil {
		return 0
	}
	return good.TradeVolume()
}

// JettisonCargoHandler dumps cargo
type JettisonCargoHandler struct {
	client     domainPorts.APIClient
	playerRepo player.PlayerRepository
}

// NewJettisonCargoHandler creates a jettison handler
func NewJettisonCargoHandler(client domainPorts.APIClient, playerRepo player.PlayerRepository) *JettisonCargoHandler {
	return &JettisonCargoHandler{client: client, playerRepo: playerRepo}
}

func (h *JettisonCargoHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*JettisonCargoCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	p, err := h.playerRepo.FindByID(ctx, cmd.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("resolve player %d: %w", cmd.PlayerID, err)
	}

	if err := h.client.JettisonCargo(ctx, cmd.ShipSymbol, cmd.GoodSymbol, cmd.Units, p.Token); err != nil {
		return nil, fmt.Errorf("jettison %d %s: %w", cmd.Units, cmd.GoodSymbol, err)
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Cargo jettisoned", map[string]interface{}{
		"ship_symbol": cmd.ShipSymbol,
		"good":        cmd.GoodSymbol,
		"units":       cmd.Units,
	})
	return &JettisonCargoResponse{UnitsJettisoned: cmd.Units}, nil
}
