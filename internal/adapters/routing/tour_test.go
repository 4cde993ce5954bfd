package routing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainRouting "github.com/andrescamacho/fleetd/internal/domain/routing"
)

func TestOptimizeTour_OrdersStopsByProximity(t *testing.T) {
	// Arrange: stops given in the worst order; the tour should visit them
	// down the line instead of zig-zagging
	solver := newTestSolver(t)
	waypoints := dictionary(
		wp(t, "X1-S1-HOME", 0, 0, true),
		wp(t, "X1-S1-NEAR", 20, 0, false),
		wp(t, "X1-S1-MID", 40, 0, false),
		wp(t, "X1-S1-FAR", 60, 0, false),
	)

	// Act
	tour, err := solver.OptimizeTour(context.Background(), &domainRouting.TourRequest{
		Waypoints:    waypoints,
		Start:        "X1-S1-HOME",
		Stops:        []string{"X1-S1-FAR", "X1-S1-NEAR", "X1-S1-MID"},
		CurrentFuel:  400,
		FuelCapacity: 400,
		EngineSpeed:  1,
	})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, tour)
	assert.Equal(t, []string{"X1-S1-NEAR", "X1-S1-MID", "X1-S1-FAR"}, tour.VisitOrder)
	assert.Positive(t, tour.TotalTime)
}

func TestOptimizeTour_ReturnToStartClosesTheLoop(t *testing.T) {
	solver := newTestSolver(t)
	waypoints := dictionary(
		wp(t, "X1-S1-HOME", 0, 0, true),
		wp(t, "X1-S1-A", 30, 0, false),
	)

	tour, err := solver.OptimizeTour(context.Background(), &domainRouting.TourRequest{
		Waypoints:     waypoints,
		Start:         "X1-S1-HOME",
		Stops:         []string{"X1-S1-A"},
		CurrentFuel:   400,
		FuelCapacity:  400,
		EngineSpeed:   30,
		ReturnToStart: true,
	})

	require.NoError(t, err)
	require.NotNil(t, tour)

	var travels []string
	for _, action := range tour.Actions {
		if action.Action == domainRouting.ActionTravel {
			travels = append(travels, action.Waypoint)
		}
	}
	require.NotEmpty(t, travels)
	assert.Equal(t, "X1-S1-HOME", travels[len(travels)-1])
}

func TestOptimizeTour_NoStopsYieldsEmptyTour(t *testing.T) {
	solver := newTestSolver(t)
	waypoints := dictionary(wp(t, "X1-S1-HOME", 0, 0, false))

	tour, err := solver.OptimizeTour(context.Background(), &domainRouting.TourRequest{
		Waypoints:    waypoints,
		Start:        "X1-S1-HOME",
		Stops:        []string{"X1-S1-HOME"},
		CurrentFuel:  100,
		FuelCapacity: 400,
		EngineSpeed:  30,
	})

	require.NoError(t, err)
	require.NotNil(t, tour)
	assert.Empty(t, tour.VisitOrder)
	assert.Empty(t, tour.Actions)
}

func TestOptimizeTour_InfeasibleLegYieldsNoTour(t *testing.T) {
	// A stop exists in the dictionary but no fuel state can ever reach it
	solver := newTestSolver(t)
	waypoints := dictionary(
		wp(t, "X1-S1-HOME", 0, 0, false),
		wp(t, "X1-S1-STRANDED", 1000, 0, false),
	)

	tour, err := solver.OptimizeTour(context.Background(), &domainRouting.TourRequest{
		Waypoints:    waypoints,
		Start:        "X1-S1-HOME",
		Stops:        []string{"X1-S1-STRANDED"},
		CurrentFuel:  0,
		FuelCapacity: 400,
		EngineSpeed:  30,
	})

	require.NoError(t, err)
	assert.Nil(t, tour)
}

func TestPartitionFleet_EveryStopAssignedOnce(t *testing.T) {
	// Two ships parked at opposite ends; stops cluster around each ship and
	// the partition should respect the geography
	solver := newTestSolver(t)
	waypoints := dictionary(
		wp(t, "X1-S1-WEST", 0, 0, true),
		wp(t, "X1-S1-W1", 10, 0, false),
		wp(t, "X1-S1-W2", 20, 0, false),
		wp(t, "X1-S1-EAST", 500, 0, true),
		wp(t, "X1-S1-E1", 510, 0, false),
		wp(t, "X1-S1-E2", 520, 0, false),
	)

	plan, err := solver.PartitionFleet(context.Background(), &domainRouting.FleetRequest{
		Waypoints: waypoints,
		Ships: map[string]*domainRouting.ShipProfile{
			"SHIP-WEST": {Location: "X1-S1-WEST", CurrentFuel: 400, FuelCapacity: 400, EngineSpeed: 30},
			"SHIP-EAST": {Location: "X1-S1-EAST", CurrentFuel: 400, FuelCapacity: 400, EngineSpeed: 30},
		},
		Stops: []string{"X1-S1-W1", "X1-S1-W2", "X1-S1-E1", "X1-S1-E2"},
	})

	require.NoError(t, err)
	require.NotNil(t, plan)

	assigned := map[string]int{}
	for _, tour := range plan.Tours {
		for _, stop := range tour.VisitOrder {
			assigned[stop]++
		}
	}
	for _, stop := range []string{"X1-S1-W1", "X1-S1-W2", "X1-S1-E1", "X1-S1-E2"} {
		assert.Equal(t, 1, assigned[stop], "stop %s must be assigned exactly once", stop)
	}

	assert.ElementsMatch(t, []string{"X1-S1-W1", "X1-S1-W2"}, plan.Tours["SHIP-WEST"].VisitOrder)
	assert.ElementsMatch(t, []string{"X1-S1-E1", "X1-S1-E2"}, plan.Tours["SHIP-EAST"].VisitOrder)
}

func TestPartitionFleet_IdleShipAbsentFromPlan(t *testing.T) {
	solver := newTestSolver(t)
	waypoints := dictionary(
		wp(t, "X1-S1-A", 0, 0, true),
		wp(t, "X1-S1-B", 400, 0, true),
		wp(t, "X1-S1-M", 10, 0, false),
	)

	plan, err := solver.PartitionFleet(context.Background(), &domainRouting.FleetRequest{
		Waypoints: waypoints,
		Ships: map[string]*domainRouting.ShipProfile{
			"SHIP-NEAR": {Location: "X1-S1-A", CurrentFuel: 400, FuelCapacity: 400, EngineSpeed: 30},
			"SHIP-FAR":  {Location: "X1-S1-B", CurrentFuel: 400, FuelCapacity: 400, EngineSpeed: 30},
		},
		Stops: []string{"X1-S1-M"},
	})

	require.NoError(t, err)
	require.NotNil(t, plan)
	require.Contains(t, plan.Tours, "SHIP-NEAR")
	assert.NotContains(t, plan.Tours, "SHIP-FAR")
}

func TestPartitionFleet_NoShipsYieldsNoPlan(t *testing.T) {
	solver := newTestSolver(t)

	plan, err := solver.PartitionFleet(context.Background(), &domainRouting.FleetRequest{
		Waypoints: dictionary(wp(t, "X1-S1-A", 0, 0, false)),
		Ships:     map[string]*domainRouting.ShipProfile{},
		Stops:     []string{"X1-S1-A"},
	})

	require.NoError(t, err)
	assert.Nil(t, plan)
}
