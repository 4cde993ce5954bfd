package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/fleetd/internal/adapters/persistence"
	"github.com/andrescamacho/fleetd/internal/domain/market"
	"github.com/andrescamacho/fleetd/test/helpers"
)

func marketSnapshot(t *testing.T, waypointSymbol string, goods ...*market.TradeGood) *market.Market {
	t.Helper()
	m, err := market.NewMarket(waypointSymbol, goods, time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	return m
}

func tradeGood(t *testing.T, symbol string, purchase, sell int) *market.TradeGood {
	t.Helper()
	good, err := market.NewTradeGood(symbol, "MODERATE", "STRONG", purchase, sell, 40)
	require.NoError(t, err)
	return good
}

func TestMarketRepository_SaveAndGet(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormMarketRepository(db, nil)
	p := newTestPlayer(t, db, "MKT-1")

	snapshot := marketSnapshot(t, "X1-MKT-A1",
		tradeGood(t, "FUEL", 70, 80),
		tradeGood(t, "IRON_ORE", 22, 31),
	)

	// Act
	err := repo.SaveSnapshot(context.Background(), p.ID, snapshot)

	// Assert
	require.NoError(t, err)

	stored, err := repo.GetMarketData(context.Background(), "X1-MKT-A1", p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 2, stored.GoodsCount())

	fuel := stored.FindGood("FUEL")
	require.NotNil(t, fuel)
	assert.Equal(t, 70, fuel.PurchasePrice())
	assert.Equal(t, 80, fuel.SellPrice())
	assert.Equal(t, "MODERATE", fuel.Supply())
	assert.Equal(t, snapshot.LastUpdated(), stored.LastUpdated())
}

func TestMarketRepository_NeverScoutedReturnsNil(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormMarketRepository(db, nil)
	p := newTestPlayer(t, db, "MKT-2")

	// Act
	stored, err := repo.GetMarketData(context.Background(), "X1-MKT-UNSEEN", p.ID)

	// Assert
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestMarketRepository_ResaveReplacesGoods(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormMarketRepository(db, nil)
	p := newTestPlayer(t, db, "MKT-3")

	first := marketSnapshot(t, "X1-MKT-A1",
		tradeGood(t, "FUEL", 70, 80),
		tradeGood(t, "IRON_ORE", 22, 31),
	)
	require.NoError(t, repo.SaveSnapshot(context.Background(), p.ID, first))

	// Act - the market delisted iron ore and repriced fuel
	second := marketSnapshot(t, "X1-MKT-A1", tradeGood(t, "FUEL", 90, 105))
	err := repo.SaveSnapshot(context.Background(), p.ID, second)

	// Assert
	require.NoError(t, err)
	stored, err := repo.GetMarketData(context.Background(), "X1-MKT-A1", p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 1, stored.GoodsCount())
	assert.False(t, stored.HasGood("IRON_ORE"))
	assert.Equal(t, 90, stored.FindGood("FUEL").PurchasePrice())
}

func TestMarketRepository_SnapshotsScopedToPlayer(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormMarketRepository(db, nil)
	p1 := newTestPlayer(t, db, "MKT-4A")
	p2 := newTestPlayer(t, db, "MKT-4B")

	snapshot := marketSnapshot(t, "X1-MKT-A1", tradeGood(t, "FUEL", 70, 80))
	require.NoError(t, repo.SaveSnapshot(context.Background(), p1.ID, snapshot))

	// Act - the other player never scouted this waypoint
	stored, err := repo.GetMarketData(context.Background(), "X1-MKT-A1", p2.ID)

	// Assert
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestMarketRepository_FindAllMarketsInSystem(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormMarketRepository(db, nil)
	p := newTestPlayer(t, db, "MKT-5")

	for _, waypoint := range []string{"X1-MKT-A1", "X1-MKT-B2"} {
		snapshot := marketSnapshot(t, waypoint, tradeGood(t, "FUEL", 70, 80))
		require.NoError(t, repo.SaveSnapshot(context.Background(), p.ID, snapshot))
	}
	other := marketSnapshot(t, "X1-ELSEWHERE-A1", tradeGood(t, "FUEL", 70, 80))
	require.NoError(t, repo.SaveSnapshot(context.Background(), p.ID, other))

	// Act
	symbols, err := repo.FindAllMarketsInSystem(context.Background(), "X1-MKT", p.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"X1-MKT-A1", "X1-MKT-B2"}, symbols)
}
