package api

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/andrescamacho/fleetd/internal/domain/player"
	domainPorts "github.com/andrescamacho/fleetd/internal/domain/ports"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/internal/domain/system"
)

// waypointPageLimit is the remote API's maximum page size
const waypointPageLimit = 20

// maxWaypointPages caps pagination against a misbehaving upstream
const maxWaypointPages = 50

// GraphBuilder rebuilds system graphs from the remote waypoint listing.
// Each build refreshes the waypoint trait cache as a side effect: the graph
// itself never expires, the trait rows do.
type GraphBuilder struct {
	client       domainPorts.APIClient
	playerRepo   player.PlayerRepository
	waypointRepo system.WaypointRepository
	logger       zerolog.Logger
}

// NewGraphBuilder creates an API-backed graph builder
func NewGraphBuilder(
	client domainPorts.APIClient,
	playerRepo player.PlayerRepository,
	waypointRepo system.WaypointRepository,
	logger zerolog.Logger,
) system.GraphBuilder {
	return &GraphBuilder{
		client:       client,
		playerRepo:   playerRepo,
		waypointRepo: waypointRepo,
		logger:       logger.With().Str("component", "graph_builder").Logger(),
	}
}

// BuildSystemGraph pages through the system's waypoints with the player's
// credentials and assembles the full graph plus refreshed trait rows
func (b *GraphBuilder) BuildSystemGraph(ctx context.Context, systemSymbol string, playerID int) (*system.NavigationGraph, error) {
	p, err := b.playerRepo.FindByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("resolve player %d: %w", playerID, err)
	}

	waypoints, err := b.fetchAllWaypoints(ctx, systemSymbol, p.Token)
	if err != nil {
		return nil, err
	}
	if len(waypoints) == 0 {
		return nil, fmt.Errorf("no waypoints found for system %s", systemSymbol)
	}

	graph := system.BuildFromWaypoints(systemSymbol, waypoints)

	if err := b.waypointRepo.SaveAll(ctx, playerID, systemSymbol, waypoints); err != nil {
		// Trait cache refresh failure must not lose the graph build
		b.logger.Warn().Err(err).Str("system", systemSymbol).Msg("failed to refresh waypoint cache")
	}

	b.logger.Info().
		Str("system", systemSymbol).
		Int("waypoints", len(waypoints)).
		Msg("system graph built from API")

	return graph, nil
}

func (b *GraphBuilder) fetchAllWaypoints(ctx context.Context, systemSymbol, token string) ([]*shared.Waypoint, error) {
	var waypoints []*shared.Waypoint

	for page := 1; page <= maxWaypointPages; page++ {
		result, err := b.client.ListWaypoints(ctx, systemSymbol, token, page, waypointPageLimit)
		if err != nil {
			return nil, fmt.Errorf("fetch waypoints page %d for %s: %w", page, systemSymbol, err)
		}
		if len(result.Waypoints) == 0 {
			break
		}

		for _, wp := range result.Waypoints {
			waypoints = append(waypoints, waypointFromAPI(wp))
		}

		if page*waypointPageLimit >= result.Total || len(result.Waypoints) < waypointPageLimit {
			break
		}
	}

	return waypoints, nil
}

// waypointFromAPI converts a remote waypoint payload into the domain value.
// Fuel availability derives from traits: marketplaces and fuel stations
// sell fuel.
func waypointFromAPI(data *domainPorts.WaypointData) *shared.Waypoint {
	hasFuel := false
	for _, trait := range data.Traits {
		if trait == "MARKETPLACE" || trait == "FUEL_STATION" {
			hasFuel = true
			break
		}
	}

	return &shared.Waypoint{
		Symbol:       data.Symbol,
		X:            data.X,
		Y:            data.Y,
		SystemSymbol: data.SystemSymbol,
		Type:         data.Type,
		Traits:       data.Traits,
		HasFuel:      hasFuel,
		Orbitals:     data.Orbitals,
	}
}
