package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/application/auth"
	"github.com/andrescamacho/fleetd/internal/application/logging"
	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/domain/contract"
	"github.com/andrescamacho/fleetd/internal/domain/player"
	"github.com/andrescamacho/fleetd/internal/domain/ports"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// apiCodeExistingContract is the remote API's refusal to negotiate while a
// contract is still open
const apiCodeExistingContract = 4511

// resolveToken prefers the token the auth middleware stashed in context;
// direct handler invocations fall back to a repository lookup.
func resolveToken(ctx context.Context, repo player.PlayerRepository, playerID int) (string, error) {
	if token, err := auth.PlayerTokenFromContext(ctx); err == nil {
		return token, nil
	}
	p, err := repo.FindByID(ctx, playerID)
	if err != nil {
		return "", fmt.Errorf("resolve player %d: %w", playerID, err)
	}
	return p.Token, nil
}

// NegotiateContractHandler negotiates against the ship's faction. When the
// API reports an open contract it resumes that one instead.
type NegotiateContractHandler struct {
	client     ports.APIClient
	playerRepo player.PlayerRepository
}

// NewNegotiateContractHandler creates a negotiate handler
func NewNegotiateContractHandler(client ports.APIClient, playerRepo player.PlayerRepository) *NegotiateContractHandler {
	return &NegotiateContractHandler{client: client, playerRepo: playerRepo}
}

func (h *NegotiateContractHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*NegotiateContractCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	token, err := resolveToken(ctx, h.playerRepo, cmd.PlayerID)
	if err != nil {
		return nil, err
	}

	data, err := h.client.NegotiateContract(ctx, cmd.ShipSymbol, token)
	if err == nil {
		logging.LoggerFromContext(ctx).Log("INFO", "Contract negotiated", map[string]interface{}{
			"ship_symbol": cmd.ShipSymbol,
			"contract_id": data.ID,
		})
		return &NegotiateContractResponse{Contract: contractFromData(data, cmd.PlayerID), WasNegotiated: true}, nil
	}

	var apiErr *shared.APIError
	if !errors.As(err, &apiErr) || apiErr.APICode != apiCodeExistingContract {
		return nil, fmt.Errorf("negotiate contract: %w", err)
	}

	// An open contract blocks negotiation; resume it
	existing, err := h.findOpenContract(ctx, token, cmd.PlayerID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("API reports an open contract but none was found")
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Resuming open contract", map[string]interface{}{
		"ship_symbol": cmd.ShipSymbol,
		"contract_id": existing.ContractID(),
	})
	return &NegotiateContractResponse{Contract: existing, WasNegotiated: false}, nil
}

func (h *NegotiateContractHandler) findOpenContract(ctx context.Context, token string, playerID int) (*contract.Contract, error) {
	listed, err := h.client.ListContracts(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	for _, data := range listed {
		if !data.Fulfilled {
			return contractFromData(data, playerID), nil
		}
	}
	return nil, nil
}

// AcceptContractHandler accepts a contract, banking the advance
type AcceptContractHandler struct {
	client     ports.APIClient
	playerRepo player.PlayerRepository
}

// NewAcceptContractHandler creates an accept handler
func NewAcceptContractHandler(client ports.APIClient, playerRepo player.PlayerRepository) *AcceptContractHandler {
	return &AcceptContractHandler{client: client, playerRepo: playerRepo}
}

func (h *AcceptContractHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*AcceptContractCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	token, err := resolveToken(ctx, h.playerRepo, cmd.PlayerID)
	if err != nil {
		return nil, err
	}

	data, err := h.client.AcceptContract(ctx, cmd.ContractID, token)
	if err != nil {
		return nil, fmt.Errorf("accept contract %s: %w", cmd.ContractID, err)
	}
	return &AcceptContractResponse{Contract: contractFromData(data, cmd.PlayerID)}, nil
}

// DeliverContractHandler hands cargo over at the delivery waypoint
type DeliverContractHandler struct {
	client     ports.APIClient
	playerRepo player.PlayerRepository
}

// NewDeliverContractHandler creates a deliver handler
func NewDeliverContractHandler(client ports.APIClient, playerRepo player.PlayerRepository) *DeliverContractHandler {
	return &DeliverContractHandler{client: client, playerRepo: playerRepo}
}

func (h *DeliverContractHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*DeliverContractCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	token, err := resolveToken(ctx, h.playerRepo, cmd.PlayerID)
	if err != nil {
		return nil, err
	}

	data, err := h.client.DeliverContract(ctx, cmd.ContractID, cmd.ShipSymbol, cmd.TradeSymbol, cmd.Units, token)
	if err != nil {
		return nil, fmt.Errorf("deliver %d %s: %w", cmd.Units, cmd.TradeSymbol, err)
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Contract delivery recorded", map[string]interface{}{
		"contract_id": cmd.ContractID,
		"good":        cmd.TradeSymbol,
		"units":       cmd.Units,
	})
	return &DeliverContractResponse{Contract: contractFromData(data, cmd.PlayerID)}, nil
}

// FulfillContractHandler claims the completion payout
type FulfillContractHandler struct {
	client     ports.APIClient
	playerRepo player.PlayerRepository
}

// NewFulfillContractHandler creates a fulfill handler
func NewFulfillContractHandler(client ports.APIClient, playerRepo player.PlayerRepository) *FulfillContractHandler {
	return &FulfillContractHandler{client: client, playerRepo: playerRepo}
}

func (h *FulfillContractHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*FulfillContractCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	token, err := resolveToken(ctx, h.playerRepo, cmd.PlayerID)
	if err != nil {
		return nil, err
	}

	data, err := h.client.FulfillContract(ctx, cmd.ContractID, token)
	if err != nil {
		return nil, fmt.Errorf("fulfill contract %s: %w", cmd.ContractID, err)
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Contract fulfilled", map[string]interface{}{
		"contract_id": cmd.ContractID,
	})
	return &FulfillContractResponse{Contract: contractFromData(data, cmd.PlayerID)}, nil
}
