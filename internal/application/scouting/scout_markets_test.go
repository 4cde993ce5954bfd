package scouting_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/fleetd/internal/application/scouting"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/routing"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/internal/domain/system"
)

type fakeShipRepo struct {
	navigation.ShipRepository
	ships map[string]*navigation.Ship
}

func (r *fakeShipRepo) FindBySymbol(_ context.Context, symbol string, _ int) (*navigation.Ship, error) {
	s, ok := r.ships[symbol]
	if !ok {
		return nil, shared.NewNotFoundError("ship", symbol)
	}
	return s, nil
}

type fakeGraphProvider struct {
	waypoints map[string]*shared.Waypoint
}

func (p *fakeGraphProvider) GetGraph(_ context.Context, _ string, _ int) (*system.NavigationGraph, error) {
	return nil, nil
}

func (p *fakeGraphProvider) WaypointDictionary(_ context.Context, _ string, _ int) (map[string]*shared.Waypoint, error) {
	return p.waypoints, nil
}

func (p *fakeGraphProvider) Invalidate(_ string) {}

type fakeSolver struct {
	routing.RoutePlanner
	partitionCalls int
	plan           *routing.FleetPlan
}

func (s *fakeSolver) PartitionFleet(_ context.Context, _ *routing.FleetRequest) (*routing.FleetPlan, error) {
	s.partitionCalls++
	return s.plan, nil
}

type fakeLauncher struct {
	launched map[string]*scouting.ScoutTourCommand
	stopped  []string
}

func (l *fakeLauncher) LaunchScoutTour(_ context.Context, containerID string, _ int, cmd *scouting.ScoutTourCommand) error {
	if l.launched == nil {
		l.launched = map[string]*scouting.ScoutTourCommand{}
	}
	l.launched[containerID] = cmd
	return nil
}

func (l *fakeLauncher) StopContainer(_ context.Context, containerID string) error {
	l.stopped = append(l.stopped, containerID)
	return nil
}

type fakeAssignmentRepo struct {
	navigation.ShipAssignmentRepository
	active   map[string]*navigation.ShipAssignment
	released []string
}

func (r *fakeAssignmentRepo) FindActiveByShip(_ context.Context, shipSymbol string, _ int) (*navigation.ShipAssignment, error) {
	return r.active[shipSymbol], nil
}

func (r *fakeAssignmentRepo) Release(_ context.Context, shipSymbol string, _ int, _ string) error {
	r.released = append(r.released, shipSymbol)
	delete(r.active, shipSymbol)
	return nil
}

func probeShip(t *testing.T, symbol, location string, waypoints map[string]*shared.Waypoint) *navigation.Ship {
	t.Helper()
	return navigation.ReconstructShip(
		symbol,
		shared.MustNewPlayerID(1),
		waypoints[location],
		&shared.Fuel{Current: 80, Capacity: 80},
		nil,
		3,
		navigation.NavStatusInOrbit,
		shared.FlightModeCruise,
	)
}

func scoutWaypoints(t *testing.T) map[string]*shared.Waypoint {
	t.Helper()
	out := map[string]*shared.Waypoint{}
	for _, spec := range []struct {
		symbol string
		x      float64
	}{
		{"X1-SC-A", 0}, {"X1-SC-B", 10}, {"X1-SC-C", 20}, {"X1-SC-D", 30},
	} {
		wp, err := shared.NewWaypoint(spec.symbol, spec.x, 0)
		require.NoError(t, err)
		wp.HasFuel = true
		out[wp.Symbol] = wp
	}
	return out
}

func TestScoutMarkets_PartitionsFleetAndLaunchesContainers(t *testing.T) {
	// Arrange
	waypoints := scoutWaypoints(t)
	ships := &fakeShipRepo{ships: map[string]*navigation.Ship{
		"CORP-PROBE-1": probeShip(t, "CORP-PROBE-1", "X1-SC-A", waypoints),
		"CORP-PROBE-2": probeShip(t, "CORP-PROBE-2", "X1-SC-D", waypoints),
	}}
	solver := &fakeSolver{plan: &routing.FleetPlan{Tours: map[string]*routing.TourPlan{
		"CORP-PROBE-1": {VisitOrder: []string{"X1-SC-B", "X1-SC-C"}},
		"CORP-PROBE-2": {VisitOrder: []string{"X1-SC-D"}},
	}}}
	launcher := &fakeLauncher{}
	handler := scouting.NewScoutMarketsHandler(ships, &fakeGraphProvider{waypoints: waypoints}, solver,
		launcher, &fakeAssignmentRepo{active: map[string]*navigation.ShipAssignment{}})

	// Act
	res, err := handler.Handle(context.Background(), &scouting.ScoutMarketsCommand{
		PlayerID:     1,
		ShipSymbols:  []string{"CORP-PROBE-1", "CORP-PROBE-2"},
		SystemSymbol: "X1-SC",
		Markets:      []string{"X1-SC-B", "X1-SC-C", "X1-SC-D"},
		Iterations:   -1,
	})

	// Assert
	require.NoError(t, err)
	response := res.(*scouting.ScoutMarketsResponse)
	assert.Equal(t, 1, solver.partitionCalls)
	assert.Len(t, launcher.launched, 2)
	assert.Len(t, response.ContainerIDs, 2)
	assert.ElementsMatch(t, []string{"X1-SC-B", "X1-SC-C"}, response.Assignments["CORP-PROBE-1"])
	assert.ElementsMatch(t, []string{"X1-SC-D"}, response.Assignments["CORP-PROBE-2"])
	for _, cmd := range launcher.launched {
		assert.Equal(t, -1, cmd.Iterations)
	}
}

func TestScoutMarkets_SingleShipTakesAllMarkets(t *testing.T) {
	waypoints := scoutWaypoints(t)
	ships := &fakeShipRepo{ships: map[string]*navigation.Ship{
		"CORP-PROBE-1": probeShip(t, "CORP-PROBE-1", "X1-SC-A", waypoints),
	}}
	solver := &fakeSolver{}
	launcher := &fakeLauncher{}
	handler := scouting.NewScoutMarketsHandler(ships, &fakeGraphProvider{waypoints: waypoints}, solver,
		launcher, &fakeAssignmentRepo{active: map[string]*navigation.ShipAssignment{}})

	res, err := handler.Handle(context.Background(), &scouting.ScoutMarketsCommand{
		PlayerID:    1,
		ShipSymbols: []string{"CORP-PROBE-1"},
		Markets:     []string{"X1-SC-B", "X1-SC-C"},
		Iterations:  2,
	})

	require.NoError(t, err)
	response := res.(*scouting.ScoutMarketsResponse)
	assert.Equal(t, 0, solver.partitionCalls)
	assert.ElementsMatch(t, []string{"X1-SC-B", "X1-SC-C"}, response.Assignments["CORP-PROBE-1"])
}

func TestScoutMarkets_ReusesActiveLeases(t *testing.T) {
	waypoints := scoutWaypoints(t)
	ships := &fakeShipRepo{ships: map[string]*navigation.Ship{
		"CORP-PROBE-1": probeShip(t, "CORP-PROBE-1", "X1-SC-A", waypoints),
		"CORP-PROBE-2": probeShip(t, "CORP-PROBE-2", "X1-SC-D", waypoints),
	}}
	lease := navigation.NewShipAssignment("CORP-PROBE-1", "scout-tour-PROBE-1-aaaa1111", shared.MustNewPlayerID(1), "SCOUT_TOUR", time.Now())
	launcher := &fakeLauncher{}
	handler := scouting.NewScoutMarketsHandler(ships, &fakeGraphProvider{waypoints: waypoints}, &fakeSolver{},
		launcher, &fakeAssignmentRepo{active: map[string]*navigation.ShipAssignment{"CORP-PROBE-1": lease}})

	res, err := handler.Handle(context.Background(), &scouting.ScoutMarketsCommand{
		PlayerID:    1,
		ShipSymbols: []string{"CORP-PROBE-1", "CORP-PROBE-2"},
		Markets:     []string{"X1-SC-B"},
		Iterations:  1,
	})

	require.NoError(t, err)
	response := res.(*scouting.ScoutMarketsResponse)
	assert.Contains(t, response.ReusedContainers, "scout-tour-PROBE-1-aaaa1111")
	// Only the free ship gets a new container
	assert.Len(t, launcher.launched, 1)
	for _, cmd := range launcher.launched {
		assert.Equal(t, "CORP-PROBE-2", cmd.ShipSymbol)
	}
}

func TestScoutMarkets_ResetStopsExistingContainers(t *testing.T) {
	waypoints := scoutWaypoints(t)
	ships := &fakeShipRepo{ships: map[string]*navigation.Ship{
		"CORP-PROBE-1": probeShip(t, "CORP-PROBE-1", "X1-SC-A", waypoints),
	}}
	lease := navigation.NewShipAssignment("CORP-PROBE-1", "scout-tour-PROBE-1-bbbb2222", shared.MustNewPlayerID(1), "SCOUT_TOUR", time.Now())
	launcher := &fakeLauncher{}
	assignments := &fakeAssignmentRepo{active: map[string]*navigation.ShipAssignment{"CORP-PROBE-1": lease}}
	handler := scouting.NewScoutMarketsHandler(ships, &fakeGraphProvider{waypoints: waypoints}, &fakeSolver{},
		launcher, assignments)

	_, err := handler.Handle(context.Background(), &scouting.ScoutMarketsCommand{
		PlayerID:    1,
		ShipSymbols: []string{"CORP-PROBE-1"},
		Markets:     []string{"X1-SC-B"},
		Iterations:  1,
		Reset:       true,
	})

	require.NoError(t, err)
	assert.Contains(t, launcher.stopped, "scout-tour-PROBE-1-bbbb2222")
	assert.Contains(t, assignments.released, "CORP-PROBE-1")
	// After the reset the ship is free and gets a fresh container
	assert.Len(t, launcher.launched, 1)
}
