package player_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appplayer "github.com/andrescamacho/fleetd/internal/application/player"
	"github.com/andrescamacho/fleetd/internal/domain/player"
	"github.com/andrescamacho/fleetd/internal/domain/ports"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

type fakePlayerRepo struct {
	players map[string]*player.Player
	nextID  int
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: map[string]*player.Player{}, nextID: 1}
}

func (r *fakePlayerRepo) FindByID(_ context.Context, playerID int) (*player.Player, error) {
	for _, p := range r.players {
		if p.ID == playerID {
			return p, nil
		}
	}
	return nil, shared.NewNotFoundError("player", fmt.Sprintf("%d", playerID))
}

func (r *fakePlayerRepo) FindByAgentSymbol(_ context.Context, agentSymbol string) (*player.Player, error) {
	p, ok := r.players[agentSymbol]
	if !ok {
		return nil, shared.NewNotFoundError("player", agentSymbol)
	}
	return p, nil
}

func (r *fakePlayerRepo) ListAll(_ context.Context) ([]*player.Player, error) {
	out := make([]*player.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePlayerRepo) Add(_ context.Context, p *player.Player) error {
	p.ID = r.nextID
	r.nextID++
	r.players[p.AgentSymbol] = p
	return nil
}

func (r *fakePlayerRepo) UpdateCredits(_ context.Context, _ int, _ int64) error { return nil }
func (r *fakePlayerRepo) TouchLastActive(_ context.Context, _ int) error        { return nil }

// fakeAgentAPI implements the agent slice of the API client; the embedded
// interface panics on anything else
type fakeAgentAPI struct {
	ports.APIClient
	registerCalls int
	tokenAgent    string
}

func (a *fakeAgentAPI) RegisterAgent(_ context.Context, symbol, faction string) (*player.AgentData, error) {
	a.registerCalls++
	return &player.AgentData{
		Symbol:          symbol,
		Token:           "issued-token",
		Credits:         175000,
		StartingFaction: faction,
		Headquarters:    "X1-EX-A",
	}, nil
}

func (a *fakeAgentAPI) GetAgent(_ context.Context, token string) (*player.AgentData, error) {
	if token == "" {
		return nil, shared.NewAPIError(401, 4100, "missing token")
	}
	return &player.AgentData{Symbol: a.tokenAgent, Credits: 200000}, nil
}

func TestRegisterPlayer_CreatesAgentWhenNoToken(t *testing.T) {
	// Arrange
	repo := newFakePlayerRepo()
	api := &fakeAgentAPI{}
	handler := appplayer.NewRegisterPlayerHandler(repo, api)

	// Act
	res, err := handler.Handle(context.Background(), &appplayer.RegisterPlayerCommand{
		AgentSymbol: "SCOUT-CORP",
		Faction:     "COSMIC",
	})

	// Assert
	require.NoError(t, err)
	response := res.(*appplayer.RegisterPlayerResponse)
	assert.Equal(t, 1, api.registerCalls)
	assert.Equal(t, "issued-token", response.Player.Token)
	assert.Equal(t, int64(175000), response.Player.Credits)
	assert.NotZero(t, response.Player.ID)
}

func TestRegisterPlayer_AdoptsProvidedToken(t *testing.T) {
	repo := newFakePlayerRepo()
	api := &fakeAgentAPI{tokenAgent: "SCOUT-CORP"}
	handler := appplayer.NewRegisterPlayerHandler(repo, api)

	res, err := handler.Handle(context.Background(), &appplayer.RegisterPlayerCommand{
		AgentSymbol: "SCOUT-CORP",
		Token:       "pre-issued",
	})

	require.NoError(t, err)
	response := res.(*appplayer.RegisterPlayerResponse)
	assert.Equal(t, 0, api.registerCalls)
	assert.Equal(t, "pre-issued", response.Player.Token)
}

func TestRegisterPlayer_RejectsTokenForOtherAgent(t *testing.T) {
	repo := newFakePlayerRepo()
	api := &fakeAgentAPI{tokenAgent: "SOMEONE-ELSE"}
	handler := appplayer.NewRegisterPlayerHandler(repo, api)

	_, err := handler.Handle(context.Background(), &appplayer.RegisterPlayerCommand{
		AgentSymbol: "SCOUT-CORP",
		Token:       "stolen",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOMEONE-ELSE")
}

func TestRegisterPlayer_RejectsDuplicateAgent(t *testing.T) {
	repo := newFakePlayerRepo()
	require.NoError(t, repo.Add(context.Background(), player.NewPlayer("SCOUT-CORP", "tok", 0)))
	handler := appplayer.NewRegisterPlayerHandler(repo, &fakeAgentAPI{})

	_, err := handler.Handle(context.Background(), &appplayer.RegisterPlayerCommand{AgentSymbol: "SCOUT-CORP"})

	require.Error(t, err)
	var dup *shared.DuplicateError
	assert.ErrorAs(t, err, &dup)
}

func TestGetPlayer_RefreshesCreditsFromAPI(t *testing.T) {
	repo := newFakePlayerRepo()
	require.NoError(t, repo.Add(context.Background(), player.NewPlayer("SCOUT-CORP", "tok", 100)))
	handler := appplayer.NewGetPlayerHandler(repo, &fakeAgentAPI{tokenAgent: "SCOUT-CORP"})

	res, err := handler.Handle(context.Background(), &appplayer.GetPlayerQuery{AgentSymbol: "SCOUT-CORP"})

	require.NoError(t, err)
	response := res.(*appplayer.GetPlayerResponse)
	assert.Equal(t, int64(200000), response.Player.Credits)
}
