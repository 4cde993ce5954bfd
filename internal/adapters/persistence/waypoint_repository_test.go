package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/fleetd/internal/adapters/persistence"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/test/helpers"
)

func testSystemWaypoints(t *testing.T) []*shared.Waypoint {
	t.Helper()

	station := testWaypoint(t, "X1-WP-A1", 10, 10)
	station.Type = "ORBITAL_STATION"
	station.Traits = []string{"MARKETPLACE", "FUEL_STATION"}
	station.HasFuel = true

	planet := testWaypoint(t, "X1-WP-B2", -20, 5)
	planet.Type = "PLANET"
	planet.Traits = []string{"VOLCANIC"}
	planet.Orbitals = []string{"X1-WP-A1"}

	asteroid := testWaypoint(t, "X1-WP-C3", 42, -17)
	asteroid.Type = "ASTEROID"

	return []*shared.Waypoint{station, planet, asteroid}
}

func TestWaypointRepository_SaveAllAndList(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormWaypointRepository(db, 2*time.Hour, nil)
	p := newTestPlayer(t, db, "WP-1")

	// Act
	err := repo.SaveAll(context.Background(), p.ID, "X1-WP", testSystemWaypoints(t))

	// Assert
	require.NoError(t, err)

	waypoints, err := repo.ListBySystem(context.Background(), "X1-WP")
	require.NoError(t, err)
	assert.Len(t, waypoints, 3)

	found, err := repo.FindBySymbol(context.Background(), "X1-WP-A1", "X1-WP")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "ORBITAL_STATION", found.Type)
	assert.True(t, found.HasFuel)
	assert.Equal(t, []string{"MARKETPLACE", "FUEL_STATION"}, found.Traits)

	planet, err := repo.FindBySymbol(context.Background(), "X1-WP-B2", "X1-WP")
	require.NoError(t, err)
	require.NotNil(t, planet)
	assert.Equal(t, []string{"X1-WP-A1"}, planet.Orbitals)
}

func TestWaypointRepository_FindMissReturnsNil(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormWaypointRepository(db, 2*time.Hour, nil)

	// Act
	found, err := repo.FindBySymbol(context.Background(), "X1-NOPE-Z9", "X1-NOPE")

	// Assert
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestWaypointRepository_ListBySystemWithTrait(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormWaypointRepository(db, 2*time.Hour, nil)
	p := newTestPlayer(t, db, "WP-2")
	require.NoError(t, repo.SaveAll(context.Background(), p.ID, "X1-WP", testSystemWaypoints(t)))

	// Act
	markets, err := repo.ListBySystemWithTrait(context.Background(), "X1-WP", "MARKETPLACE")

	// Assert
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "X1-WP-A1", markets[0].Symbol)
}

func TestWaypointRepository_SaveAllReplacesSnapshot(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormWaypointRepository(db, 2*time.Hour, nil)
	p := newTestPlayer(t, db, "WP-3")
	require.NoError(t, repo.SaveAll(context.Background(), p.ID, "X1-WP", testSystemWaypoints(t)))

	// Act - second scan only sees one waypoint
	survivor := testWaypoint(t, "X1-WP-A1", 10, 10)
	err := repo.SaveAll(context.Background(), p.ID, "X1-WP", []*shared.Waypoint{survivor})

	// Assert
	require.NoError(t, err)
	waypoints, err := repo.ListBySystem(context.Background(), "X1-WP")
	require.NoError(t, err)
	require.Len(t, waypoints, 1)
	assert.Equal(t, "X1-WP-A1", waypoints[0].Symbol)
}

func TestWaypointRepository_TTLExpiry(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormWaypointRepository(db, 2*time.Hour, clock)
	p := newTestPlayer(t, db, "WP-4")
	require.NoError(t, repo.SaveAll(context.Background(), p.ID, "X1-WP", testSystemWaypoints(t)))

	fresh, err := repo.IsFresh(context.Background(), "X1-WP")
	require.NoError(t, err)
	require.True(t, fresh)

	// Act - pass the TTL
	clock.Advance(3 * time.Hour)

	// Assert - stale rows are invisible everywhere
	fresh, err = repo.IsFresh(context.Background(), "X1-WP")
	require.NoError(t, err)
	assert.False(t, fresh)

	waypoints, err := repo.ListBySystem(context.Background(), "X1-WP")
	require.NoError(t, err)
	assert.Empty(t, waypoints)

	found, err := repo.FindBySymbol(context.Background(), "X1-WP-A1", "X1-WP")
	require.NoError(t, err)
	assert.Nil(t, found)

	// Act - a rescan revives the system
	require.NoError(t, repo.SaveAll(context.Background(), p.ID, "X1-WP", testSystemWaypoints(t)))

	fresh, err = repo.IsFresh(context.Background(), "X1-WP")
	require.NoError(t, err)
	assert.True(t, fresh)
}
