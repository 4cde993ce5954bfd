package ship_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/fleetd/internal/application/ship"
	"github.com/andrescamacho/fleetd/internal/domain/market"
	"github.com/andrescamacho/fleetd/internal/domain/player"
	"github.com/andrescamacho/fleetd/internal/domain/ports"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

type scannerPlayerRepo struct {
	player *player.Player
}

func (r *scannerPlayerRepo) FindByID(_ context.Context, playerID int) (*player.Player, error) {
	if r.player == nil || r.player.ID != playerID {
		return nil, shared.NewNotFoundError("player", fmt.Sprintf("%d", playerID))
	}
	return r.player, nil
}

func (r *scannerPlayerRepo) FindByAgentSymbol(_ context.Context, agentSymbol string) (*player.Player, error) {
	return nil, shared.NewNotFoundError("player", agentSymbol)
}

func (r *scannerPlayerRepo) ListAll(_ context.Context) ([]*player.Player, error) {
	return []*player.Player{r.player}, nil
}

func (r *scannerPlayerRepo) Add(_ context.Context, _ *player.Player) error         { return nil }
func (r *scannerPlayerRepo) UpdateCredits(_ context.Context, _ int, _ int64) error { return nil }
func (r *scannerPlayerRepo) TouchLastActive(_ context.Context, _ int) error        { return nil }

// fakeMarketAPI implements the market slice of the API client; the embedded
// interface panics on anything else
type fakeMarketAPI struct {
	ports.APIClient
	data         *market.Data
	systemSymbol string
	token        string
}

func (a *fakeMarketAPI) GetMarket(_ context.Context, systemSymbol, waypointSymbol, token string) (*market.Data, error) {
	a.systemSymbol = systemSymbol
	a.token = token
	if a.data == nil || a.data.WaypointSymbol != waypointSymbol {
		return nil, shared.NewAPIError(404, 4001, "no market here")
	}
	return a.data, nil
}

type fakeMarketStore struct {
	saves    int
	playerID int
	snapshot *market.Market
}

func (s *fakeMarketStore) SaveSnapshot(_ context.Context, playerID int, m *market.Market) error {
	s.saves++
	s.playerID = playerID
	s.snapshot = m
	return nil
}

func (s *fakeMarketStore) GetMarketData(_ context.Context, _ string, _ int) (*market.Market, error) {
	return s.snapshot, nil
}

func (s *fakeMarketStore) FindAllMarketsInSystem(_ context.Context, _ string, _ int) ([]string, error) {
	return nil, nil
}

func TestMarketScanner_PersistsSnapshot(t *testing.T) {
	// Arrange
	playerRepo := &scannerPlayerRepo{player: &player.Player{ID: 7, AgentSymbol: "SCOUT-CORP", Token: "tok-7"}}
	api := &fakeMarketAPI{data: &market.Data{
		WaypointSymbol: "X1-EX-B2",
		TradeGoods: []market.TradeGoodData{
			{Symbol: "FUEL", Supply: "ABUNDANT", Activity: "STRONG", PurchasePrice: 70, SellPrice: 60, TradeVolume: 100},
			{Symbol: "IRON_ORE", Supply: "SCARCE", Activity: "WEAK", PurchasePrice: 220, SellPrice: 200, TradeVolume: 10},
		},
	}}
	store := &fakeMarketStore{}
	clock := shared.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	scanner := ship.NewMarketScanner(api, playerRepo, store, clock)

	// Act
	snapshot, err := scanner.Scan(context.Background(), "X1-EX-B2", 7)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "X1-EX", api.systemSymbol)
	assert.Equal(t, "tok-7", api.token)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 7, store.playerID)
	assert.Equal(t, "X1-EX-B2", snapshot.WaypointSymbol())
	assert.Len(t, snapshot.TradeGoods(), 2)
	assert.True(t, snapshot.HasGood("FUEL"))
	assert.Equal(t, clock.Now(), snapshot.LastUpdated())
}

func TestMarketScanner_NoMarketAtWaypoint(t *testing.T) {
	// Arrange
	playerRepo := &scannerPlayerRepo{player: &player.Player{ID: 7, Token: "tok-7"}}
	api := &fakeMarketAPI{}
	store := &fakeMarketStore{}
	scanner := ship.NewMarketScanner(api, playerRepo, store, nil)

	// Act
	_, err := scanner.Scan(context.Background(), "X1-EX-C3", 7)

	// Assert
	require.Error(t, err)
	assert.Equal(t, 0, store.saves)
}
