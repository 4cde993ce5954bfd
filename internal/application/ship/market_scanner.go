package ship

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/fleetd/internal/application/logging"
	"github.com/andrescamacho/fleetd/internal/domain/market"
	"github.com/andrescamacho/fleetd/internal/domain/player"
	domainPorts "github.com/andrescamacho/fleetd/internal/domain/ports"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// MarketScanner fetches a waypoint's market and persists the snapshot.
// Scouts call it at every stop; route executors call it opportunistically
// when a leg happens to land on a marketplace.
type MarketScanner struct {
	client     domainPorts.APIClient
	playerRepo player.PlayerRepository
	marketRepo market.MarketRepository
	clock      shared.Clock
}

// NewMarketScanner creates a market scanner
func NewMarketScanner(
	client domainPorts.APIClient,
	playerRepo player.PlayerRepository,
	marketRepo market.MarketRepository,
	clock shared.Clock,
) *MarketScanner {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &MarketScanner{
		client:     client,
		playerRepo: playerRepo,
		marketRepo: marketRepo,
		clock:      clock,
	}
}

// Scan fetches the market at a waypoint and upserts the snapshot for the
// player. The ship must be physically present for the API to reveal prices.
func (s *MarketScanner) Scan(ctx context.Context, waypointSymbol string, playerID int) (*market.Market, error) {
	p, err := s.playerRepo.FindByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("resolve player %d: %w", playerID, err)
	}

	systemSymbol := shared.ExtractSystemSymbol(waypointSymbol)
	data, err := s.client.GetMarket(ctx, systemSymbol, waypointSymbol, p.Token)
	if err != nil {
		return nil, fmt.Errorf("fetch market %s: %w", waypointSymbol, err)
	}

	snapshot, err := marketFromData(data, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.marketRepo.SaveSnapshot(ctx, playerID, snapshot); err != nil {
		return nil, fmt.Errorf("persist market %s: %w", waypointSymbol, err)
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Market scanned", map[string]interface{}{
		"waypoint": waypointSymbol,
		"goods":    len(snapshot.TradeGoods()),
	})

	return snapshot, nil
}

func marketFromData(data *market.Data, now time.Time) (*market.Market, error) {
	goods := make([]*market.TradeGood, 0, len(data.TradeGoods))
	for _, g := range data.TradeGoods {
		good, err := market.NewTradeGood(g.Symbol, g.Supply, g.Activity, g.PurchasePrice, g.SellPrice, g.TradeVolume)
		if err != nil {
			return nil, err
		}
		goods = append(goods, good)
	}
	return market.NewMarket(data.WaypointSymbol, goods, now)
}
