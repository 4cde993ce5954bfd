package player

import (
	"context"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/domain/player"
	"github.com/andrescamacho/fleetd/internal/domain/ports"
)

// GetPlayerQuery fetches one player by ID or agent symbol. Numeric ID wins
// when both are set.
type GetPlayerQuery struct {
	PlayerID    *int
	AgentSymbol string
}

// GetPlayerResponse carries the player with credits refreshed from the API
type GetPlayerResponse struct {
	Player *player.Player
}

// ListPlayersQuery lists every registered player
type ListPlayersQuery struct{}

// ListPlayersResponse carries all registered players
type ListPlayersResponse struct {
	Players []*player.Player
}

// GetPlayerHandler resolves a player and refreshes its credits live.
// Credits in the database are only a cache of the API's figure.
type GetPlayerHandler struct {
	playerRepo player.PlayerRepository
	apiClient  ports.APIClient
}

// NewGetPlayerHandler creates a get-player handler
func NewGetPlayerHandler(playerRepo player.PlayerRepository, apiClient ports.APIClient) *GetPlayerHandler {
	return &GetPlayerHandler{playerRepo: playerRepo, apiClient: apiClient}
}

func (h *GetPlayerHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	q, ok := request.(*GetPlayerQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}
	if q.PlayerID == nil && q.AgentSymbol == "" {
		return nil, fmt.Errorf("either player_id or agent_symbol must be provided")
	}

	var (
		record *player.Player
		err    error
	)
	if q.PlayerID != nil {
		record, err = h.playerRepo.FindByID(ctx, *q.PlayerID)
	} else {
		record, err = h.playerRepo.FindByAgentSymbol(ctx, q.AgentSymbol)
	}
	if err != nil {
		return nil, err
	}

	// Best effort refresh; a stale credits figure beats a failed lookup
	if agent, apiErr := h.apiClient.GetAgent(ctx, record.Token); apiErr == nil {
		record.UpdateCredits(agent.Credits)
	}

	return &GetPlayerResponse{Player: record}, nil
}

// ListPlayersHandler lists registered players from the database
type ListPlayersHandler struct {
	playerRepo player.PlayerRepository
}

// NewListPlayersHandler creates a list handler
func NewListPlayersHandler(playerRepo player.PlayerRepository) *ListPlayersHandler {
	return &ListPlayersHandler{playerRepo: playerRepo}
}

func (h *ListPlayersHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	if _, ok := request.(*ListPlayersQuery); !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	players, err := h.playerRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return &ListPlayersResponse{Players: players}, nil
}
