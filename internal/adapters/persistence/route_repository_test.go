package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/fleetd/internal/adapters/persistence"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/test/helpers"
)

func testWaypoint(t *testing.T, symbol string, x, y float64) *shared.Waypoint {
	t.Helper()
	wp, err := shared.NewWaypoint(symbol, x, y)
	require.NoError(t, err)
	return wp
}

func twoLegRoute(t *testing.T, playerID int) *navigation.Route {
	t.Helper()
	a := testWaypoint(t, "X1-RT-A1", 0, 0)
	b := testWaypoint(t, "X1-RT-B2", 30, 0)
	c := testWaypoint(t, "X1-RT-C3", 60, 0)

	segments := []*navigation.RouteSegment{
		{FromWaypoint: a, ToWaypoint: b, Distance: 30, FuelRequired: 30, TravelTime: 64, FlightMode: shared.FlightModeCruise, RequiresRefuel: true},
		{FromWaypoint: b, ToWaypoint: c, Distance: 30, FuelRequired: 30, TravelTime: 64, FlightMode: shared.FlightModeCruise},
	}

	route, err := navigation.NewRoute("SHIP-1", shared.MustNewPlayerID(playerID), segments, 400, true, nil)
	require.NoError(t, err)
	return route
}

func TestRouteRepository_SaveAndFind(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormRouteRepository(db, nil)
	p := newTestPlayer(t, db, "ROUTE-1")

	route := twoLegRoute(t, p.ID)

	// Act
	err := repo.Save(context.Background(), route)

	// Assert
	require.NoError(t, err)

	found, err := repo.FindByID(context.Background(), route.ID())
	require.NoError(t, err)
	assert.Equal(t, "SHIP-1", found.ShipSymbol())
	assert.Equal(t, navigation.RouteStatusPlanned, found.Status())
	assert.Equal(t, 400, found.FuelCapacity())
	assert.True(t, found.RequiresInitialRefuel())
	assert.Equal(t, 0, found.CurrentSegmentIndex())

	segments := found.Segments()
	require.Len(t, segments, 2)
	assert.Equal(t, "X1-RT-A1", segments[0].FromWaypoint.Symbol)
	assert.Equal(t, "X1-RT-C3", segments[1].ToWaypoint.Symbol)
	assert.True(t, segments[0].RequiresRefuel)
	assert.Equal(t, shared.FlightModeCruise, segments[1].FlightMode)
}

func TestRouteRepository_SaveCheckpointsProgress(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormRouteRepository(db, nil)
	p := newTestPlayer(t, db, "ROUTE-2")

	route := twoLegRoute(t, p.ID)
	require.NoError(t, repo.Save(context.Background(), route))

	// Act - execute the first segment and checkpoint
	require.NoError(t, route.StartExecution())
	require.NoError(t, route.CompleteSegment())
	err := repo.Save(context.Background(), route)

	// Assert - same row, updated envelope
	require.NoError(t, err)
	found, err := repo.FindByID(context.Background(), route.ID())
	require.NoError(t, err)
	assert.Equal(t, navigation.RouteStatusExecuting, found.Status())
	assert.Equal(t, 1, found.CurrentSegmentIndex())
}

func TestRouteRepository_FindActiveByShip(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormRouteRepository(db, nil)
	p := newTestPlayer(t, db, "ROUTE-3")

	route := twoLegRoute(t, p.ID)
	require.NoError(t, repo.Save(context.Background(), route))

	// Act - planned routes count as active
	active, err := repo.FindActiveByShip(context.Background(), "SHIP-1", p.ID)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, route.ID(), active.ID())

	// Arrange - run the route to completion
	require.NoError(t, route.StartExecution())
	require.NoError(t, route.CompleteSegment())
	require.NoError(t, route.CompleteSegment())
	require.NoError(t, repo.Save(context.Background(), route))

	// Act
	active, err = repo.FindActiveByShip(context.Background(), "SHIP-1", p.ID)

	// Assert - completed routes are not active
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestRouteRepository_FailureReasonSurvivesRoundTrip(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormRouteRepository(db, nil)
	p := newTestPlayer(t, db, "ROUTE-4")

	route := twoLegRoute(t, p.ID)
	require.NoError(t, route.StartExecution())
	require.NoError(t, route.FailRoute("navigate rejected: ship in transit"))

	// Act
	require.NoError(t, repo.Save(context.Background(), route))
	found, err := repo.FindByID(context.Background(), route.ID())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, navigation.RouteStatusFailed, found.Status())
	assert.Equal(t, "navigate rejected: ship in transit", found.FailureReason())
}

func TestRouteRepository_ListByShip(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormRouteRepository(db, nil)
	p := newTestPlayer(t, db, "ROUTE-5")

	first := twoLegRoute(t, p.ID)
	require.NoError(t, repo.Save(context.Background(), first))
	second := twoLegRoute(t, p.ID)
	require.NoError(t, repo.Save(context.Background(), second))

	// Act
	routes, err := repo.ListByShip(context.Background(), "SHIP-1", p.ID, 0)

	// Assert
	require.NoError(t, err)
	assert.Len(t, routes, 2)

	// Act - unknown ship
	routes, err = repo.ListByShip(context.Background(), "SHIP-ELSEWHERE", p.ID, 0)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestRouteRepository_FindByIDNotFound(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormRouteRepository(db, nil)

	// Act
	_, err := repo.FindByID(context.Background(), "no-such-route")

	// Assert
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}
