package ship_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/fleetd/internal/application/ship"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/routing"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// fakeSolver returns a canned plan regardless of the request
type fakeSolver struct {
	plan *routing.TravelPlan
	err  error
}

func (s *fakeSolver) FindOptimalPath(_ context.Context, _ *routing.PathRequest) (*routing.TravelPlan, error) {
	return s.plan, s.err
}

func (s *fakeSolver) OptimizeTour(_ context.Context, _ *routing.TourRequest) (*routing.TourPlan, error) {
	return nil, nil
}

func (s *fakeSolver) PartitionFleet(_ context.Context, _ *routing.FleetRequest) (*routing.FleetPlan, error) {
	return nil, nil
}

func plannerWaypoints(t *testing.T) map[string]*shared.Waypoint {
	t.Helper()
	dict := map[string]*shared.Waypoint{}
	for _, spec := range []struct {
		symbol string
		x      float64
		fuel   bool
	}{
		{"X1-PL-A", 0, true},
		{"X1-PL-B", 50, true},
		{"X1-PL-C", 100, false},
	} {
		wp, err := shared.NewWaypoint(spec.symbol, spec.x, 0)
		require.NoError(t, err)
		wp.HasFuel = spec.fuel
		dict[wp.Symbol] = wp
	}
	return dict
}

func plannerShip(t *testing.T, at *shared.Waypoint) *navigation.Ship {
	t.Helper()
	return navigation.ReconstructShip(
		"SHIP-1",
		shared.MustNewPlayerID(1),
		at,
		&shared.Fuel{Current: 100, Capacity: 400},
		nil,
		30,
		navigation.NavStatusInOrbit,
		shared.FlightModeCruise,
	)
}

func TestRoutePlanner_FoldsRefuelsIntoSegments(t *testing.T) {
	// Arrange: leading refuel, two legs with a refuel between them
	waypoints := plannerWaypoints(t)
	solver := &fakeSolver{plan: &routing.TravelPlan{
		Actions: []*routing.PlanAction{
			{Action: routing.ActionRefuel, Waypoint: "X1-PL-A", FuelGained: 300, TimeSeconds: 10},
			{Action: routing.ActionTravel, Waypoint: "X1-PL-B", Distance: 50, Mode: shared.FlightModeCruise, FuelCost: 50, TimeSeconds: 120},
			{Action: routing.ActionRefuel, Waypoint: "X1-PL-B", FuelGained: 50, TimeSeconds: 10},
			{Action: routing.ActionTravel, Waypoint: "X1-PL-C", Distance: 50, Mode: shared.FlightModeBurn, FuelCost: 100, TimeSeconds: 60},
		},
		TotalFuel: 150,
		TotalTime: 200,
	}}
	planner := ship.NewRoutePlanner(solver)

	// Act
	route, err := planner.PlanRoute(context.Background(), plannerShip(t, waypoints["X1-PL-A"]), "X1-PL-C", waypoints, false)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.True(t, route.RequiresInitialRefuel())

	segments := route.Segments()
	require.Len(t, segments, 2)
	assert.Equal(t, "X1-PL-A", segments[0].FromWaypoint.Symbol)
	assert.Equal(t, "X1-PL-B", segments[0].ToWaypoint.Symbol)
	assert.True(t, segments[0].RequiresRefuel, "mid-plan refuel folds into the preceding segment")
	assert.Equal(t, "X1-PL-C", segments[1].ToWaypoint.Symbol)
	assert.False(t, segments[1].RequiresRefuel)
	assert.Equal(t, shared.FlightModeBurn, segments[1].FlightMode)
}

func TestRoutePlanner_EmptyPlanMeansAlreadyThere(t *testing.T) {
	waypoints := plannerWaypoints(t)
	solver := &fakeSolver{plan: &routing.TravelPlan{Actions: []*routing.PlanAction{}}}
	planner := ship.NewRoutePlanner(solver)

	route, err := planner.PlanRoute(context.Background(), plannerShip(t, waypoints["X1-PL-A"]), "X1-PL-A", waypoints, false)

	require.NoError(t, err)
	assert.Nil(t, route)
}

func TestRoutePlanner_NoPlanIsNotFound(t *testing.T) {
	waypoints := plannerWaypoints(t)
	solver := &fakeSolver{plan: nil}
	planner := ship.NewRoutePlanner(solver)

	route, err := planner.PlanRoute(context.Background(), plannerShip(t, waypoints["X1-PL-A"]), "X1-PL-C", waypoints, false)

	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
	assert.Nil(t, route)
}
