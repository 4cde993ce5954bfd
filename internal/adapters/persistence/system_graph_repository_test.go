package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/fleetd/internal/adapters/persistence"
	"github.com/andrescamacho/fleetd/internal/domain/system"
	"github.com/andrescamacho/fleetd/test/helpers"
)

func TestSystemGraphRepository_SaveAndGet(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSystemGraphRepository(db)

	graph := system.BuildFromWaypoints("X1-GR", testSystemWaypoints(t))
	require.Equal(t, 3, graph.NodeCount())

	// Act
	err := repo.Save(context.Background(), graph)

	// Assert
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), "X1-GR")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, graph.NodeCount(), stored.NodeCount())
	assert.Equal(t, graph.EdgeCount(), stored.EdgeCount())

	node, err := stored.Node("X1-WP-A1")
	require.NoError(t, err)
	assert.Equal(t, "ORBITAL_STATION", node.Type)
	assert.Equal(t, 10.0, node.X)
}

func TestSystemGraphRepository_MissReturnsNil(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSystemGraphRepository(db)

	// Act
	stored, err := repo.Get(context.Background(), "X1-NEVER")

	// Assert
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSystemGraphRepository_SaveUpserts(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSystemGraphRepository(db)

	small := system.NewNavigationGraph("X1-GR")
	small.AddNode(&system.GraphNode{Symbol: "X1-GR-A1"})
	require.NoError(t, repo.Save(context.Background(), small))

	// Act - a rebuild found more waypoints
	bigger := system.BuildFromWaypoints("X1-GR", testSystemWaypoints(t))
	err := repo.Save(context.Background(), bigger)

	// Assert
	require.NoError(t, err)
	stored, err := repo.Get(context.Background(), "X1-GR")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.NodeCount())
}
