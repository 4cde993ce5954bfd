package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/player"
	domainPorts "github.com/andrescamacho/fleetd/internal/domain/ports"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/internal/domain/system"
)

// ShipRepository reads ship state from the remote API and issues navigation
// commands. Ship locations come back as bare symbols; the graph provider
// resolves them to full waypoints so domain code can measure distances.
type ShipRepository struct {
	client        domainPorts.APIClient
	playerRepo    player.PlayerRepository
	graphProvider system.GraphProvider
}

// NewShipRepository creates an API-backed ship repository
func NewShipRepository(
	client domainPorts.APIClient,
	playerRepo player.PlayerRepository,
	graphProvider system.GraphProvider,
) navigation.ShipRepository {
	return &ShipRepository{
		client:        client,
		playerRepo:    playerRepo,
		graphProvider: graphProvider,
	}
}

// FindBySymbol fetches one ship fresh from the API
func (r *ShipRepository) FindBySymbol(ctx context.Context, symbol string, playerID int) (*navigation.Ship, error) {
	p, err := r.playerRepo.FindByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("resolve player %d: %w", playerID, err)
	}

	data, err := r.client.GetShip(ctx, symbol, p.Token)
	if err != nil {
		return nil, fmt.Errorf("fetch ship %s: %w", symbol, err)
	}

	return r.toDomain(ctx, data, playerID)
}

// FindAllByPlayer fetches the player's whole fleet
func (r *ShipRepository) FindAllByPlayer(ctx context.Context, playerID int) ([]*navigation.Ship, error) {
	p, err := r.playerRepo.FindByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("resolve player %d: %w", playerID, err)
	}

	data, err := r.client.ListShips(ctx, p.Token)
	if err != nil {
		return nil, fmt.Errorf("list ships: %w", err)
	}

	ships := make([]*navigation.Ship, 0, len(data))
	for _, d := range data {
		ship, err := r.toDomain(ctx, d, playerID)
		if err != nil {
			return nil, err
		}
		ships = append(ships, ship)
	}
	return ships, nil
}

// Navigate sends the ship toward its destination and mirrors the state
// change onto the entity
func (r *ShipRepository) Navigate(ctx context.Context, ship *navigation.Ship, destination *shared.Waypoint, playerID int) (*navigation.NavigationResult, error) {
	p, err := r.playerRepo.FindByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("resolve player %d: %w", playerID, err)
	}

	nav, err := r.client.NavigateShip(ctx, ship.Symbol(), destination.Symbol, p.Token)
	if err != nil {
		return nil, fmt.Errorf("navigate %s to %s: %w", ship.Symbol(), destination.Symbol, err)
	}

	arrival, err := shared.NewArrivalTime(nav.ArrivalTime)
	if err != nil {
		return nil, fmt.Errorf("parse arrival time: %w", err)
	}

	if err := ship.StartTransit(destination, arrival); err != nil {
		return nil, err
	}
	if nav.FuelConsumed > 0 {
		if err := ship.ConsumeFuel(nav.FuelConsumed); err != nil {
			return nil, err
		}
	}

	return &navigation.NavigationResult{
		Destination:    nav.DestinationSymbol,
		TravelSeconds:  arrival.WaitSeconds(nil),
		ArrivalTimeStr: nav.ArrivalTime,
		FuelConsumed:   nav.FuelConsumed,
	}, nil
}

// Dock docks the ship. The remote call is idempotent: an already-docked
// reply is success.
func (r *ShipRepository) Dock(ctx context.Context, ship *navigation.Ship, playerID int) error {
	p, err := r.playerRepo.FindByID(ctx, playerID)
	if err != nil {
		return fmt.Errorf("resolve player %d: %w", playerID, err)
	}

	if err := r.client.DockShip(ctx, ship.Symbol(), p.Token); err != nil {
		if !isAlreadyInStateError(err, "docked") {
			return fmt.Errorf("dock %s: %w", ship.Symbol(), err)
		}
	}

	if _, err := ship.EnsureDocked(); err != nil {
		return err
	}
	return nil
}

// Orbit moves the ship into orbit, idempotently
func (r *ShipRepository) Orbit(ctx context.Context, ship *navigation.Ship, playerID int) error {
	p, err := r.playerRepo.FindByID(ctx, playerID)
	if err != nil {
		return fmt.Errorf("resolve player %d: %w", playerID, err)
	}

	if err := r.client.OrbitShip(ctx, ship.Symbol(), p.Token); err != nil {
		if !isAlreadyInStateError(err, "orbit") {
			return fmt.Errorf("orbit %s: %w", ship.Symbol(), err)
		}
	}

	if _, err := ship.EnsureInOrbit(); err != nil {
		return err
	}
	return nil
}

// Refuel buys fuel at the current waypoint. A nil units tops the tank off.
func (r *ShipRepository) Refuel(ctx context.Context, ship *navigation.Ship, playerID int, units *int) (*navigation.RefuelResult, error) {
	p, err := r.playerRepo.FindByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("resolve player %d: %w", playerID, err)
	}

	refuel, err := r.client.RefuelShip(ctx, ship.Symbol(), p.Token, units)
	if err != nil {
		return nil, fmt.Errorf("refuel %s: %w", ship.Symbol(), err)
	}

	if units != nil {
		if err := ship.Refuel(*units); err != nil {
			return nil, err
		}
	} else {
		ship.RefuelToFull()
	}

	return &navigation.RefuelResult{
		FuelAdded:   refuel.FuelAdded,
		CreditsCost: refuel.TotalPrice,
	}, nil
}

// SetFlightMode switches the mode the next navigate command flies in
func (r *ShipRepository) SetFlightMode(ctx context.Context, ship *navigation.Ship, playerID int, mode shared.FlightMode) error {
	p, err := r.playerRepo.FindByID(ctx, playerID)
	if err != nil {
		return fmt.Errorf("resolve player %d: %w", playerID, err)
	}

	if err := r.client.SetFlightMode(ctx, ship.Symbol(), mode.String(), p.Token); err != nil {
		return fmt.Errorf("set flight mode for %s: %w", ship.Symbol(), err)
	}

	return ship.SetFlightMode(mode)
}

// toDomain reconstructs the domain entity from the API payload, resolving
// the location symbol through the waypoint dictionary
func (r *ShipRepository) toDomain(ctx context.Context, data *domainPorts.ShipData, playerID int) (*navigation.Ship, error) {
	systemSymbol := data.SystemSymbol
	if systemSymbol == "" {
		systemSymbol = shared.ExtractSystemSymbol(data.WaypointSymbol)
	}

	dictionary, err := r.graphProvider.WaypointDictionary(ctx, systemSymbol, playerID)
	if err != nil {
		return nil, fmt.Errorf("resolve waypoints for %s: %w", systemSymbol, err)
	}

	location, ok := dictionary[data.WaypointSymbol]
	if !ok {
		return nil, fmt.Errorf("ship %s location %s not in system %s", data.Symbol, data.WaypointSymbol, systemSymbol)
	}

	pid, err := shared.NewPlayerID(playerID)
	if err != nil {
		return nil, err
	}

	mode := shared.FlightModeCruise
	if data.FlightMode != "" {
		if parsed, err := shared.ParseFlightMode(data.FlightMode); err == nil {
			mode = parsed
		}
	}

	cargo := &shared.Cargo{Capacity: data.CargoCapacity, Units: data.CargoUnits}
	for _, item := range data.CargoInventory {
		cargo.Inventory = append(cargo.Inventory, &shared.CargoItem{Symbol: item.Symbol, Units: item.Units})
	}

	ship := navigation.ReconstructShip(
		data.Symbol,
		pid,
		location,
		&shared.Fuel{Current: data.FuelCurrent, Capacity: data.FuelCapacity},
		cargo,
		data.EngineSpeed,
		navigation.NavStatus(data.NavStatus),
		mode,
	)

	if data.NavStatus == string(navigation.NavStatusInTransit) && data.ArrivalTime != "" {
		if arrival, err := shared.NewArrivalTime(data.ArrivalTime); err == nil {
			ship.SetArrivalTime(arrival)
		}
	}

	return ship, nil
}

// isAlreadyInStateError recognizes the upstream "already docked" and
// "already in orbit" replies, which are success for idempotent commands
func isAlreadyInStateError(err error, state string) bool {
	var apiErr *shared.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "already") && strings.Contains(msg, state)
}
