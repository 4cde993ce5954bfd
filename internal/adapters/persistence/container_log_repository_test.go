package persistence_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/fleetd/internal/adapters/persistence"
	"github.com/andrescamacho/fleetd/internal/domain/container"
	"github.com/andrescamacho/fleetd/test/helpers"
)

func TestContainerLogRepository_AppendAllocatesSequence(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormContainerLogRepository(db, nil)
	p := newTestPlayer(t, db, "LOG-1")

	// Act
	for i := 1; i <= 3; i++ {
		err := repo.Append(context.Background(), "cnt-log", p.ID,
			container.LogLevelInfo, fmt.Sprintf("message %d", i), nil)
		require.NoError(t, err)
	}

	// Assert - sequences are 1..3, oldest first
	entries, err := repo.FindByContainer(context.Background(), "cnt-log", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, entry := range entries {
		assert.Equal(t, int64(i+1), entry.Sequence)
		assert.Equal(t, fmt.Sprintf("message %d", i+1), entry.Message)
	}
}

func TestContainerLogRepository_SequencesIndependentPerContainer(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormContainerLogRepository(db, nil)
	p := newTestPlayer(t, db, "LOG-2")

	// Act - interleave writes from two containers
	require.NoError(t, repo.Append(context.Background(), "cnt-a", p.ID, container.LogLevelInfo, "a1", nil))
	require.NoError(t, repo.Append(context.Background(), "cnt-b", p.ID, container.LogLevelInfo, "b1", nil))
	require.NoError(t, repo.Append(context.Background(), "cnt-a", p.ID, container.LogLevelInfo, "a2", nil))

	// Assert
	entriesA, err := repo.FindByContainer(context.Background(), "cnt-a", 0)
	require.NoError(t, err)
	require.Len(t, entriesA, 2)
	assert.Equal(t, int64(1), entriesA[0].Sequence)
	assert.Equal(t, int64(2), entriesA[1].Sequence)

	entriesB, err := repo.FindByContainer(context.Background(), "cnt-b", 0)
	require.NoError(t, err)
	require.Len(t, entriesB, 1)
	assert.Equal(t, int64(1), entriesB[0].Sequence)
}

func TestContainerLogRepository_LimitReturnsNewestOldestFirst(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormContainerLogRepository(db, nil)
	p := newTestPlayer(t, db, "LOG-3")

	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.Append(context.Background(), "cnt-tail", p.ID,
			container.LogLevelInfo, fmt.Sprintf("line %d", i), nil))
	}

	// Act - tail the last two
	entries, err := repo.FindByContainer(context.Background(), "cnt-tail", 2)

	// Assert - newest two, chronological order
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "line 4", entries[0].Message)
	assert.Equal(t, "line 5", entries[1].Message)
}

func TestContainerLogRepository_MetadataRoundTrip(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormContainerLogRepository(db, nil)
	p := newTestPlayer(t, db, "LOG-4")

	metadata := map[string]interface{}{
		"ship_symbol": "SHIP-1",
		"segment":     float64(2),
	}

	// Act
	err := repo.Append(context.Background(), "cnt-meta", p.ID,
		container.LogLevelWarning, "refuel skipped", metadata)

	// Assert
	require.NoError(t, err)
	entries, err := repo.FindByContainer(context.Background(), "cnt-meta", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, container.LogLevelWarning, entries[0].Level)
	assert.Equal(t, "SHIP-1", entries[0].Metadata["ship_symbol"])
	assert.Equal(t, float64(2), entries[0].Metadata["segment"])
}

func TestContainerLogRepository_CountAndDelete(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormContainerLogRepository(db, nil)
	p := newTestPlayer(t, db, "LOG-5")

	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Append(context.Background(), "cnt-gone", p.ID,
			container.LogLevelDebug, "noise", nil))
	}
	require.NoError(t, repo.Append(context.Background(), "cnt-stays", p.ID,
		container.LogLevelInfo, "kept", nil))

	count, err := repo.CountByContainer(context.Background(), "cnt-gone")
	require.NoError(t, err)
	require.Equal(t, int64(4), count)

	// Act
	err = repo.DeleteByContainer(context.Background(), "cnt-gone")

	// Assert - only the targeted stream is gone
	require.NoError(t, err)
	count, err = repo.CountByContainer(context.Background(), "cnt-gone")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = repo.CountByContainer(context.Background(), "cnt-stays")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
