package contract

import (
	"context"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/domain/market"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// MarketFinder picks purchase markets from stored snapshots. Scout tours
// keep the snapshots fresh; the finder never talks to the API itself.
type MarketFinder struct {
	marketRepo market.MarketRepository
}

// NewMarketFinder creates a market finder
func NewMarketFinder(marketRepo market.MarketRepository) *MarketFinder {
	return &MarketFinder{marketRepo: marketRepo}
}

// CheapestSeller returns the scouted waypoint selling the good at the
// lowest price. NotFoundError when no scouted market sells it.
func (f *MarketFinder) CheapestSeller(ctx context.Context, systemSymbol, goodSymbol string, playerID int) (string, int, error) {
	waypoints, err := f.marketRepo.FindAllMarketsInSystem(ctx, systemSymbol, playerID)
	if err != nil {
		return "", 0, fmt.Errorf("list scouted markets in %s: %w", systemSymbol, err)
	}

	bestWaypoint := ""
	bestPrice := 0
	for _, waypointSymbol := range waypoints {
		snapshot, err := f.marketRepo.GetMarketData(ctx, waypointSymbol, playerID)
		if err != nil || snapshot == nil {
			continue
		}
		good := snapshot.FindGood(goodSymbol)
		if good == nil || good.SellPrice() <= 0 {
			continue
		}
		if bestWaypoint == "" || good.SellPrice() < bestPrice {
			bestWaypoint = waypointSymbol
			bestPrice = good.SellPrice()
		}
	}

	if bestWaypoint == "" {
		return "", 0, shared.NewNotFoundError("market selling "+goodSymbol, systemSymbol)
	}
	return bestWaypoint, bestPrice, nil
}
