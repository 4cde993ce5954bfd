package market

import (
	"context"
)

// MarketRepository persists per-player market snapshots. Saves upsert on
// (player, waypoint, good) so repeated scouting refreshes prices in place.
type MarketRepository interface {
	// SaveSnapshot replaces the waypoint's goods with the snapshot contents
	SaveSnapshot(ctx context.Context, playerID int, m *Market) error

	// GetMarketData returns the stored snapshot for a waypoint, or nil when
	// the waypoint has never been scouted
	GetMarketData(ctx context.Context, waypointSymbol string, playerID int) (*Market, error)

	// FindAllMarketsInSystem lists waypoint symbols with stored snapshots
	FindAllMarketsInSystem(ctx context.Context, systemSymbol string, playerID int) ([]string, error)
}

// Data carries market information decoded from the remote API
type Data struct {
	WaypointSymbol string
	TradeGoods     []TradeGoodData
}

// TradeGoodData is one good as the remote API reports it
type TradeGoodData struct {
	Symbol        string
	Supply        string
	Activity      string
	PurchasePrice int
	SellPrice     int
	TradeVolume   int
}
