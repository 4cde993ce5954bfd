package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/fleetd/internal/domain/market"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// GormMarketRepository implements market.MarketRepository using GORM
type GormMarketRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormMarketRepository creates a new GORM market repository
func NewGormMarketRepository(db *gorm.DB, clock shared.Clock) *GormMarketRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormMarketRepository{db: db, clock: clock}
}

// SaveSnapshot replaces the waypoint's stored goods with the snapshot
// contents. Delete-then-insert inside one transaction, so goods delisted
// upstream disappear from storage too.
func (r *GormMarketRepository) SaveSnapshot(ctx context.Context, playerID int, m *market.Market) error {
	goods := m.TradeGoods()
	lastUpdated := m.LastUpdated()
	if lastUpdated.IsZero() {
		lastUpdated = r.clock.Now()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("player_id = ? AND waypoint_symbol = ?", playerID, m.WaypointSymbol()).
			Delete(&MarketDataModel{}).Error
		if err != nil {
			return fmt.Errorf("failed to clear market rows for %s: %w", m.WaypointSymbol(), err)
		}

		for _, good := range goods {
			model := &MarketDataModel{
				PlayerID:       playerID,
				WaypointSymbol: m.WaypointSymbol(),
				GoodSymbol:     good.Symbol(),
				Supply:         good.Supply(),
				Activity:       good.Activity(),
				PurchasePrice:  good.PurchasePrice(),
				SellPrice:      good.SellPrice(),
				TradeVolume:    good.TradeVolume(),
				LastUpdated:    lastUpdated,
			}
			if err := tx.Create(model).Error; err != nil {
				return fmt.Errorf("failed to insert market row %s/%s: %w",
					m.WaypointSymbol(), good.Symbol(), err)
			}
		}
		return nil
	})
}

// GetMarketData returns the stored snapshot for a waypoint, or nil when the
// waypoint has never been scouted
func (r *GormMarketRepository) GetMarketData(ctx context.Context, waypointSymbol string, playerID int) (*market.Market, error) {
	var models []MarketDataModel
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND waypoint_symbol = ?", playerID, waypointSymbol).
		Order("good_symbol").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get market data: %w", err)
	}

	if len(models) == 0 {
		return nil, nil
	}

	goods := make([]*market.TradeGood, 0, len(models))
	lastUpdated := models[0].LastUpdated
	for i := range models {
		good, err := market.NewTradeGood(
			models[i].GoodSymbol,
			models[i].Supply,
			models[i].Activity,
			models[i].PurchasePrice,
			models[i].SellPrice,
			models[i].TradeVolume,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to restore good %s at %s: %w",
				models[i].GoodSymbol, waypointSymbol, err)
		}
		goods = append(goods, good)
		if models[i].LastUpdated.After(lastUpdated) {
			lastUpdated = models[i].LastUpdated
		}
	}

	return market.NewMarket(waypointSymbol, goods, lastUpdated)
}

// FindAllMarketsInSystem lists waypoint symbols with stored snapshots.
// Waypoint symbols extend their system symbol, so a prefix match scopes the
// query without a join.
func (r *GormMarketRepository) FindAllMarketsInSystem(ctx context.Context, systemSymbol string, playerID int) ([]string, error) {
	var symbols []string
	err := r.db.WithContext(ctx).
		Model(&MarketDataModel{}).
		Distinct("waypoint_symbol").
		Where("player_id = ? AND waypoint_symbol LIKE ?", playerID, systemSymbol+"-%").
		Order("waypoint_symbol").
		Pluck("waypoint_symbol", &symbols).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list markets in system: %w", err)
	}

	return symbols, nil
}
