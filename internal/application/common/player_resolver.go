package common

import (
	"context"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/domain/player"
)

// PlayerResolver resolves player IDs from either a numeric ID or an agent
// symbol. Several handlers and CLI commands accept both forms; this keeps
// the precedence rule (numeric ID wins) in one place.
type PlayerResolver struct {
	playerRepo player.PlayerRepository
}

// NewPlayerResolver creates a new player resolver
func NewPlayerResolver(playerRepo player.PlayerRepository) *PlayerResolver {
	return &PlayerResolver{
		playerRepo: playerRepo,
	}
}

// ResolvePlayerID resolves a player ID. At least one of playerID or
// agentSymbol must be provided; if both are, playerID takes precedence.
func (r *PlayerResolver) ResolvePlayerID(ctx context.Context, playerID *int, agentSymbol string) (int, error) {
	if playerID == nil && agentSymbol == "" {
		return 0, fmt.Errorf("either player_id or agent_symbol must be provided")
	}

	if playerID != nil {
		if *playerID <= 0 {
			return 0, fmt.Errorf("invalid player ID: %d", *playerID)
		}
		return *playerID, nil
	}

	p, err := r.playerRepo.FindByAgentSymbol(ctx, agentSymbol)
	if err != nil {
		return 0, fmt.Errorf("failed to find player by agent symbol: %w", err)
	}

	return p.ID, nil
}
