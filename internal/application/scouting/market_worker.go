package scouting

import (
	"context"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/application/logging"
	"github.com/andrescamacho/fleetd/internal/application/mediator"
	appship "github.com/andrescamacho/fleetd/internal/application/ship"
	"github.com/andrescamacho/fleetd/internal/domain/container"
)

// MarketWorkerHandler processes a market queue persisted in the container's
// config. The queue lives under the "markets" key; "next_index" tracks how
// far the worker got and is written back after every waypoint, so a daemon
// restart picks up mid-queue rather than from the top.
type MarketWorkerHandler struct {
	containerRepo container.ContainerRepository
	med           mediator.Mediator
	scanner       *appship.MarketScanner
}

// NewMarketWorkerHandler creates a market worker handler
func NewMarketWorkerHandler(
	containerRepo container.ContainerRepository,
	med mediator.Mediator,
	scanner *appship.MarketScanner,
) *MarketWorkerHandler {
	return &MarketWorkerHandler{
		containerRepo: containerRepo,
		med:           med,
		scanner:       scanner,
	}
}

func (h *MarketWorkerHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*MarketWorkerCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type %T", request)
	}

	owner, err := h.containerRepo.FindByID(ctx, cmd.ContainerID)
	if err != nil {
		return nil, fmt.Errorf("load worker container %s: %w", cmd.ContainerID, err)
	}

	queue, err := marketQueue(owner)
	if err != nil {
		return nil, err
	}
	next := queueIndex(owner)
	if next > len(queue) {
		next = len(queue)
	}

	response := &MarketWorkerResponse{
		ResumedAt:   next,
		QueueLength: len(queue),
	}
	logger := logging.LoggerFromContext(ctx)
	logger.Log("INFO", "Market worker resuming queue", map[string]interface{}{
		"ship_symbol":  cmd.ShipSymbol,
		"queue_length": len(queue),
		"next_index":   next,
	})

	for i := next; i < len(queue); i++ {
		if ctx.Err() != nil {
			return response, ctx.Err()
		}

		waypoint := queue[i]
		if _, err := h.med.Send(ctx, &appship.NavigateShipCommand{
			ShipSymbol:  cmd.ShipSymbol,
			Destination: waypoint,
			PlayerID:    cmd.PlayerID,
		}); err != nil {
			return response, fmt.Errorf("navigate to %s: %w", waypoint, err)
		}

		if _, err := h.scanner.Scan(ctx, waypoint, cmd.PlayerID); err != nil {
			logger.Log("ERROR", "Market scan failed", map[string]interface{}{
				"ship_symbol": cmd.ShipSymbol,
				"waypoint":    waypoint,
				"error":       err.Error(),
			})
		} else {
			response.MarketsProcessed++
		}

		// Persist progress before moving on so a crash never repeats
		// a waypoint already covered. UpdateConfig merges into the stored
		// row, so the supervisor persisting its own copy of the container
		// cannot roll the index back.
		owner.UpdateConfig(map[string]interface{}{"next_index": i + 1})
		if err := h.containerRepo.UpdateConfig(ctx, owner.ID(), map[string]interface{}{"next_index": i + 1}); err != nil {
			return response, fmt.Errorf("persist queue progress: %w", err)
		}
	}

	logger.Log("INFO", "Market worker drained its queue", map[string]interface{}{
		"ship_symbol":       cmd.ShipSymbol,
		"markets_processed": response.MarketsProcessed,
	})
	return response, nil
}

func marketQueue(owner *container.Container) ([]string, error) {
	raw, ok := owner.ConfigValue("markets")
	if !ok {
		return nil, fmt.Errorf("worker container %s has no market queue", owner.ID())
	}

	switch value := raw.(type) {
	case []string:
		return value, nil
	case []interface{}:
		queue := make([]string, len(value))
		for i, entry := range value {
			symbol, ok := entry.(string)
			if !ok {
				return nil, fmt.Errorf("invalid market entry at index %d", i)
			}
			queue[i] = symbol
		}
		return queue, nil
	default:
		return nil, fmt.Errorf("invalid market queue type %T", raw)
	}
}

func queueIndex(owner *container.Container) int {
	raw, ok := owner.ConfigValue("next_index")
	if !ok {
		return 0
	}
	switch n := raw.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
