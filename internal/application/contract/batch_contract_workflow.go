package contract

import (
	"context"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/application/logging"
	"github.com/andrescamacho/fleetd/internal/application/mediator"
	appship "github.com/andrescamacho/fleetd/internal/application/ship"
	"github.com/andrescamacho/fleetd/internal/domain/contract"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// BatchContractWorkflowHandler runs full contract cycles with one ship:
// negotiate (or resume), accept, haul every delivery in cargo-sized trips,
// fulfill. Iterations are independent; a failure is reported and the next
// iteration starts clean.
type BatchContractWorkflowHandler struct {
	med          mediator.Mediator
	shipRepo     navigation.ShipRepository
	marketFinder *MarketFinder
}

// NewBatchContractWorkflowHandler creates the batch workflow handler
func NewBatchContractWorkflowHandler(
	med mediator.Mediator,
	shipRepo navigation.ShipRepository,
	marketFinder *MarketFinder,
) *BatchContractWorkflowHandler {
	return &BatchContractWorkflowHandler{med: med, shipRepo: shipRepo, marketFinder: marketFinder}
}

func (h *BatchContractWorkflowHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*BatchContractWorkflowCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}
	if cmd.Iterations <= 0 {
		return nil, fmt.Errorf("batch workflow requires a positive iteration count")
	}

	response := &BatchContractWorkflowResponse{Report: &contract.BatchReport{}}

	for iteration := 0; iteration < cmd.Iterations; iteration++ {
		if ctx.Err() != nil {
			break
		}
		if err := h.runIteration(ctx, cmd, response); err != nil {
			response.Report.RecordFailure(iteration+1, err)
		}
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Batch contract run finished", map[string]interface{}{
		"ship_symbol": cmd.ShipSymbol,
		"summary":     response.Report.Summary(),
		"profit":      response.TotalProfit,
		"trips":       response.TotalTrips,
	})
	return response, nil
}

func (h *BatchContractWorkflowHandler) runIteration(ctx context.Context, cmd *BatchContractWorkflowCommand, response *BatchContractWorkflowResponse) error {
	report := response.Report

	negotiated, err := send[*NegotiateContractResponse](ctx, h.med, &NegotiateContractCommand{
		ShipSymbol: cmd.ShipSymbol,
		PlayerID:   cmd.PlayerID,
	})
	if err != nil {
		return fmt.Errorf("negotiate: %w", err)
	}
	current := negotiated.Contract
	if negotiated.WasNegotiated {
		report.RecordNegotiated()
	}

	if !current.IsAccepted() {
		accepted, err := send[*AcceptContractResponse](ctx, h.med, &AcceptContractCommand{
			ContractID: current.ContractID(),
			PlayerID:   cmd.PlayerID,
		})
		if err != nil {
			return fmt.Errorf("accept %s: %w", current.ContractID(), err)
		}
		current = accepted.Contract
		report.RecordAccepted()
	}

	for _, delivery := range current.Deliveries() {
		updated, err := h.haulDelivery(ctx, cmd, current, delivery, response)
		if err != nil {
			return err
		}
		current = updated
	}

	if _, err := send[*FulfillContractResponse](ctx, h.med, &FulfillContractCommand{
		ContractID: current.ContractID(),
		PlayerID:   cmd.PlayerID,
	}); err != nil {
		return fmt.Errorf("fulfill %s: %w", current.ContractID(), err)
	}

	report.RecordFulfilled()
	response.TotalProfit += current.TotalPayment()
	return nil
}

// haulDelivery moves one obligation's goods in as many cargo-sized trips as
// it takes, returning the contract with progress applied
func (h *BatchContractWorkflowHandler) haulDelivery(
	ctx context.Context,
	cmd *BatchContractWorkflowCommand,
	current *contract.Contract,
	delivery contract.Delivery,
	response *BatchContractWorkflowResponse,
) (*contract.Contract, error) {
	remaining := delivery.Remaining()
	if remaining == 0 {
		return current, nil
	}

	ship, err := h.shipRepo.FindBySymbol(ctx, cmd.ShipSymbol, cmd.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("load ship: %w", err)
	}
	capacity := ship.Cargo().Capacity
	if capacity <= 0 {
		return nil, fmt.Errorf("ship %s has no cargo capacity", cmd.ShipSymbol)
	}

	onBoard := ship.Cargo().CountOf(delivery.TradeSymbol)
	if err := h.jettisonOtherCargo(ctx, cmd, ship, delivery.TradeSymbol, remaining, onBoard); err != nil {
		return nil, err
	}

	systemSymbol := shared.ExtractSystemSymbol(delivery.DestinationSymbol)
	sellerWaypoint, sellerPrice, err := h.marketFinder.CheapestSeller(ctx, systemSymbol, delivery.TradeSymbol, cmd.PlayerID)
	if err != nil && onBoard < remaining {
		return nil, fmt.Errorf("no market for %s: %w", delivery.TradeSymbol, err)
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Hauling contract delivery", map[string]interface{}{
		"contract_id": current.ContractID(),
		"good":        delivery.TradeSymbol,
		"remaining":   remaining,
		"seller":      sellerWaypoint,
		"unit_price":  sellerPrice,
	})

	for remaining > 0 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		units := remaining
		if units > capacity {
			units = capacity
		}

		toBuy := units - onBoard
		if toBuy > 0 {
			if err := h.navigate(ctx, cmd, sellerWaypoint); err != nil {
				return nil, fmt.Errorf("reach market %s: %w", sellerWaypoint, err)
			}
			if err := h.dock(ctx, cmd); err != nil {
				return nil, err
			}
			if _, err := send[*appship.PurchaseCargoResponse](ctx, h.med, &appship.PurchaseCargoCommand{
				ShipSymbol:     cmd.ShipSymbol,
				GoodSymbol:     delivery.TradeSymbol,
				Units:          toBuy,
				PlayerID:       cmd.PlayerID,
				MarketWaypoint: sellerWaypoint,
			}); err != nil {
				return nil, fmt.Errorf("purchase %s: %w", delivery.TradeSymbol, err)
			}
		}

		if err := h.navigate(ctx, cmd, delivery.DestinationSymbol); err != nil {
			return nil, fmt.Errorf("reach delivery %s: %w", delivery.DestinationSymbol, err)
		}
		if err := h.dock(ctx, cmd); err != nil {
			return nil, err
		}

		delivered, err := send[*DeliverContractResponse](ctx, h.med, &DeliverContractCommand{
			ContractID:  current.ContractID(),
			ShipSymbol:  cmd.ShipSymbol,
			TradeSymbol: delivery.TradeSymbol,
			Units:       units,
			PlayerID:    cmd.PlayerID,
		})
		if err != nil {
			return nil, fmt.Errorf("deliver %s: %w", delivery.TradeSymbol, err)
		}

		current = delivered.Contract
		remaining -= units
		onBoard = 0
		response.TotalTrips++
	}

	return current, nil
}

// jettisonOtherCargo clears space when foreign goods would crowd out the
// contract good
func (h *BatchContractWorkflowHandler) jettisonOtherCargo(
	ctx context.Context,
	cmd *BatchContractWorkflowCommand,
	ship *navigation.Ship,
	keepSymbol string,
	remaining, onBoard int,
) error {
	cargo := ship.Cargo()
	if cargo == nil || (onBoard >= remaining && !cargo.IsFull()) {
		return nil
	}

	for _, item := range cargo.Inventory {
		if item.Symbol == keepSymbol {
			continue
		}
		if _, err := send[*appship.JettisonCargoResponse](ctx, h.med, &appship.JettisonCargoCommand{
			ShipSymbol: cmd.ShipSymbol,
			GoodSymbol: item.Symbol,
			Units:      item.Units,
			PlayerID:   cmd.PlayerID,
		}); err != nil {
			return fmt.Errorf("jettison %s: %w", item.Symbol, err)
		}
	}
	return nil
}

func (h *BatchContractWorkflowHandler) navigate(ctx context.Context, cmd *BatchContractWorkflowCommand, destination string) error {
	_, err := send[*appship.NavigateShipResponse](ctx, h.med, &appship.NavigateShipCommand{
		ShipSymbol:  cmd.ShipSymbol,
		Destination: destination,
		PlayerID:    cmd.PlayerID,
	})
	return err
}

func (h *BatchContractWorkflowHandler) dock(ctx context.Context, cmd *BatchContractWorkflowCommand) error {
	_, err := send[*appship.DockShipResponse](ctx, h.med, &appship.DockShipCommand{
		ShipSymbol: cmd.ShipSymbol,
		PlayerID:   cmd.PlayerID,
	})
	if err != nil {
		return fmt.Errorf("dock: %w", err)
	}
	return nil
}

// send dispatches through the mediator and asserts the response type
func send[T any](ctx context.Context, med mediator.Mediator, request mediator.Request) (T, error) {
	var zero T
	res, err := med.Send(ctx, request)
	if err != nil {
		return zero, err
	}
	typed, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected response type %T", res)
	}
	return typed, nil
}
