package market

import (
	"errors"
	"fmt"
	"time"
)

// validSupply and validActivity are the tier vocabularies the remote API uses
var validSupply = map[string]bool{
	"SCARCE":   true,
	"LIMITED":  true,
	"MODERATE": true,
	"HIGH":     true,
	"ABUNDANT": true,
}

var validActivity = map[string]bool{
	"WEAK":       true,
	"GROWING":    true,
	"STRONG":     true,
	"RESTRICTED": true,
}

// TradeGood is one commodity listed at a market. Prices are the market's
// perspective: PurchasePrice is what the market pays ships, SellPrice is
// what it charges them.
type TradeGood struct {
	symbol        string
	supply        string
	activity      string
	purchasePrice int
	sellPrice     int
	tradeVolume   int
}

// NewTradeGood creates a validated trade good. Supply and activity may be
// empty; some markets omit them.
func NewTradeGood(symbol, supply, activity string, purchasePrice, sellPrice, tradeVolume int) (*TradeGood, error) {
	if symbol == "" {
		return nil, errors.New("trade good symbol cannot be empty")
	}
	if purchasePrice < 0 || sellPrice < 0 || tradeVolume < 0 {
		return nil, errors.New("trade good prices and volume must be non-negative")
	}
	if supply != "" && !validSupply[supply] {
		return nil, fmt.Errorf("invalid supply tier %q", supply)
	}
	if activity != "" && !validActivity[activity] {
		return nil, fmt.Errorf("invalid activity tier %q", activity)
	}

	return &TradeGood{
		symbol:        symbol,
		supply:        supply,
		activity:      activity,
		purchasePrice: purchasePrice,
		sellPrice:     sellPrice,
		tradeVolume:   tradeVolume,
	}, nil
}

func (t *TradeGood) Symbol() string     { return t.symbol }
func (t *TradeGood) Supply() string     { return t.supply }
func (t *TradeGood) Activity() string   { return t.activity }
func (t *TradeGood) PurchasePrice() int { return t.purchasePrice }
func (t *TradeGood) SellPrice() int     { return t.sellPrice }
func (t *TradeGood) TradeVolume() int   { return t.tradeVolume }

// Market is an immutable snapshot of one waypoint's market at a point in
// time. Freshness policy belongs to callers; the snapshot only carries its
// timestamp.
type Market struct {
	waypointSymbol string
	tradeGoods     []*TradeGood
	lastUpdated    time.Time
}

// NewMarket creates a snapshot with validation
func NewMarket(waypointSymbol string, tradeGoods []*TradeGood, lastUpdated time.Time) (*Market, error) {
	if waypointSymbol == "" {
		return nil, errors.New("waypoint symbol cannot be empty")
	}
	if lastUpdated.IsZero() {
		return nil, errors.New("snapshot timestamp cannot be zero")
	}

	goods := make([]*TradeGood, len(tradeGoods))
	copy(goods, tradeGoods)

	return &Market{
		waypointSymbol: waypointSymbol,
		tradeGoods:     goods,
		lastUpdated:    lastUpdated,
	}, nil
}

func (m *Market) WaypointSymbol() string { return m.waypointSymbol }
func (m *Market) LastUpdated() time.Time { return m.lastUpdated }

// TradeGoods returns a copy of the good list
func (m *Market) TradeGoods() []*TradeGood {
	goods := make([]*TradeGood, len(m.tradeGoods))
	copy(goods, m.tradeGoods)
	return goods
}

// FindGood returns the listed good with the given symbol, or nil
func (m *Market) FindGood(symbol string) *TradeGood {
	for _, good := range m.tradeGoods {
		if good.symbol == symbol {
			return good
		}
	}
	return nil
}

// HasGood reports whether the market lists a good
func (m *Market) HasGood(symbol string) bool {
	return m.FindGood(symbol) != nil
}

// GoodsCount returns how many goods the market lists
func (m *Market) GoodsCount() int {
	return len(m.tradeGoods)
}

// Age is how old the snapshot is relative to now
func (m *Market) Age(now time.Time) time.Duration {
	return now.Sub(m.lastUpdated)
}
