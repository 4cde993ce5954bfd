package player

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/fleetd/internal/application/logging"
	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/domain/player"
	"github.com/andrescamacho/fleetd/internal/domain/ports"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

const defaultFaction = "COSMIC"

// RegisterPlayerHandler registers an agent with the remote API (or adopts
// an already-issued token) and persists the player record
type RegisterPlayerHandler struct {
	playerRepo player.PlayerRepository
	apiClient  ports.APIClient
}

// NewRegisterPlayerHandler creates a registration handler
func NewRegisterPlayerHandler(playerRepo player.PlayerRepository, apiClient ports.APIClient) *RegisterPlayerHandler {
	return &RegisterPlayerHandler{playerRepo: playerRepo, apiClient: apiClient}
}

func (h *RegisterPlayerHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*RegisterPlayerCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	if cmd.AgentSymbol == "" {
		return nil, fmt.Errorf("agent_symbol is required")
	}

	if existing, err := h.playerRepo.FindByAgentSymbol(ctx, cmd.AgentSymbol); err == nil && existing != nil {
		return nil, shared.NewDuplicateError("player", cmd.AgentSymbol)
	}

	agent, err := h.resolveAgent(ctx, cmd)
	if err != nil {
		return nil, err
	}

	record := player.NewPlayer(cmd.AgentSymbol, agent.Token, agent.Credits)
	record.Metadata["account_id"] = agent.AccountID
	record.Metadata["headquarters"] = agent.Headquarters
	record.Metadata["starting_faction"] = agent.StartingFaction

	if err := h.playerRepo.Add(ctx, record); err != nil {
		return nil, fmt.Errorf("save player: %w", err)
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Registered player", map[string]interface{}{
		"player_id":    record.ID,
		"agent_symbol": record.AgentSymbol,
	})

	return &RegisterPlayerResponse{Player: record}, nil
}

// resolveAgent either registers a fresh agent or verifies a caller-supplied
// token against the API. The token itself stays out of logs either way.
func (h *RegisterPlayerHandler) resolveAgent(ctx context.Context, cmd *RegisterPlayerCommand) (*player.AgentData, error) {
	if cmd.Token == "" {
		faction := cmd.Faction
		if faction == "" {
			faction = defaultFaction
		}
		agent, err := h.apiClient.RegisterAgent(ctx, cmd.AgentSymbol, faction)
		if err != nil {
			return nil, fmt.Errorf("register agent %s: %w", cmd.AgentSymbol, err)
		}
		return agent, nil
	}

	agent, err := h.apiClient.GetAgent(ctx, cmd.Token)
	if err != nil {
		return nil, fmt.Errorf("verify token for %s: %w", cmd.AgentSymbol, err)
	}
	if agent.Symbol != "" && agent.Symbol != cmd.AgentSymbol {
		return nil, fmt.Errorf("token belongs to agent %s, not %s", agent.Symbol, cmd.AgentSymbol)
	}
	agent.Token = cmd.Token
	return agent, nil
}

// SyncPlayerHandler refreshes credits and metadata from the remote API
type SyncPlayerHandler struct {
	playerRepo player.PlayerRepository
	apiClient  ports.APIClient
	clock      shared.Clock
}

// NewSyncPlayerHandler creates a sync handler
func NewSyncPlayerHandler(playerRepo player.PlayerRepository, apiClient ports.APIClient, clock shared.Clock) *SyncPlayerHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &SyncPlayerHandler{playerRepo: playerRepo, apiClient: apiClient, clock: clock}
}

func (h *SyncPlayerHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*SyncPlayerCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	record, err := h.playerRepo.FindByID(ctx, cmd.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("find player %d: %w", cmd.PlayerID, err)
	}

	agent, err := h.apiClient.GetAgent(ctx, record.Token)
	if err != nil {
		return nil, fmt.Errorf("fetch agent data: %w", err)
	}

	updated := record.Credits != agent.Credits
	record.UpdateCredits(agent.Credits)
	record.Touch(h.clock.Now())
	if record.Metadata == nil {
		record.Metadata = make(map[string]interface{})
	}
	record.Metadata["headquarters"] = agent.Headquarters
	record.Metadata["last_synced"] = h.clock.Now().UTC().Format(time.RFC3339)

	if err := h.playerRepo.UpdateCredits(ctx, record.ID, record.Credits); err != nil {
		return nil, fmt.Errorf("persist credits: %w", err)
	}
	if err := h.playerRepo.TouchLastActive(ctx, record.ID); err != nil {
		return nil, fmt.Errorf("persist last active: %w", err)
	}

	return &SyncPlayerResponse{Player: record, Updated: updated}, nil
}
