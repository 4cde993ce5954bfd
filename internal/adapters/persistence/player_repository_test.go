package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/fleetd/internal/adapters/persistence"
	"github.com/andrescamacho/fleetd/internal/domain/player"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/test/helpers"
)

func TestPlayerRepository_AddAndFind(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPlayerRepository(db, nil)

	p := player.NewPlayer("TEST-AGENT", "test-token-123", 100000)
	p.Metadata["faction"] = "COSMIC"

	// Act - Add
	err := repo.Add(context.Background(), p)

	// Assert - database allocated an id
	require.NoError(t, err)
	assert.Greater(t, p.ID, 0)

	// Act - FindByID
	found, err := repo.FindByID(context.Background(), p.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, p.AgentSymbol, found.AgentSymbol)
	assert.Equal(t, p.Token, found.Token)
	assert.Equal(t, int64(100000), found.Credits)
	assert.Equal(t, "COSMIC", found.Metadata["faction"])
	assert.False(t, found.CreatedAt.IsZero())
}

func TestPlayerRepository_FindByAgentSymbol(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPlayerRepository(db, nil)

	p := player.NewPlayer("AGENT-2", "token-456", 50000)
	err := repo.Add(context.Background(), p)
	require.NoError(t, err)

	// Act
	found, err := repo.FindByAgentSymbol(context.Background(), "AGENT-2")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)
	assert.Equal(t, "AGENT-2", found.AgentSymbol)
}

func TestPlayerRepository_NotFound(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPlayerRepository(db, nil)

	// Act
	_, err := repo.FindByID(context.Background(), 999)

	// Assert
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestPlayerRepository_UpdateCredits(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPlayerRepository(db, nil)

	p := player.NewPlayer("AGENT-3", "token-789", 1000)
	require.NoError(t, repo.Add(context.Background(), p))

	// Act
	err := repo.UpdateCredits(context.Background(), p.ID, 175000)

	// Assert
	require.NoError(t, err)
	found, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(175000), found.Credits)
}

func TestPlayerRepository_UpdateCreditsUnknownPlayer(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPlayerRepository(db, nil)

	// Act
	err := repo.UpdateCredits(context.Background(), 42, 500)

	// Assert
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestPlayerRepository_ListAll(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPlayerRepository(db, nil)

	require.NoError(t, repo.Add(context.Background(), player.NewPlayer("AGENT-A", "tok-a", 0)))
	require.NoError(t, repo.Add(context.Background(), player.NewPlayer("AGENT-B", "tok-b", 0)))

	// Act
	players, err := repo.ListAll(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "AGENT-A", players[0].AgentSymbol)
	assert.Equal(t, "AGENT-B", players[1].AgentSymbol)
}

func TestPlayerRepository_TouchLastActive(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPlayerRepository(db, nil)

	p := player.NewPlayer("AGENT-T", "tok-t", 0)
	require.NoError(t, repo.Add(context.Background(), p))

	found, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.True(t, found.LastActive.IsZero())

	// Act
	err = repo.TouchLastActive(context.Background(), p.ID)

	// Assert
	require.NoError(t, err)
	found, err = repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, found.LastActive.IsZero())
}
