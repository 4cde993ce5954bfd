package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/fleetd/internal/adapters/persistence"
	"github.com/andrescamacho/fleetd/internal/domain/journal"
	"github.com/andrescamacho/fleetd/test/helpers"
)

func TestCaptainLogRepository_AppendFillsID(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCaptainLogRepository(db, nil)
	p := newTestPlayer(t, db, "CAPT-1")

	entry := &journal.CaptainLogEntry{
		PlayerID:  p.ID,
		EntryType: "route_completed",
		Narrative: "SHIP-1 made port at X1-TEST-B2 after two legs.",
		EventData: map[string]interface{}{"route_id": "rt-123"},
		Tags:      []string{"navigation"},
	}

	// Act
	err := repo.Append(context.Background(), entry)

	// Assert
	require.NoError(t, err)
	assert.Greater(t, entry.ID, int64(0))
	assert.False(t, entry.Timestamp.IsZero())
}

func TestCaptainLogRepository_ListByPlayerNewestFirst(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCaptainLogRepository(db, nil)
	p := newTestPlayer(t, db, "CAPT-2")

	for _, narrative := range []string{"first entry", "second entry", "third entry"} {
		err := repo.Append(context.Background(), &journal.CaptainLogEntry{
			PlayerID:  p.ID,
			EntryType: "note",
			Narrative: narrative,
		})
		require.NoError(t, err)
	}

	// Act
	entries, err := repo.ListByPlayer(context.Background(), p.ID, 2)

	// Assert
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "third entry", entries[0].Narrative)
	assert.Equal(t, "second entry", entries[1].Narrative)
}

func TestCaptainLogRepository_ListByType(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCaptainLogRepository(db, nil)
	p := newTestPlayer(t, db, "CAPT-3")

	require.NoError(t, repo.Append(context.Background(), &journal.CaptainLogEntry{
		PlayerID: p.ID, EntryType: "route_completed", Narrative: "made port",
	}))
	require.NoError(t, repo.Append(context.Background(), &journal.CaptainLogEntry{
		PlayerID: p.ID, EntryType: "contract_fulfilled", Narrative: "delivered the goods",
		EventData: map[string]interface{}{"contract_id": "ct-9"},
	}))

	// Act
	entries, err := repo.ListByType(context.Background(), p.ID, "contract_fulfilled", 0)

	// Assert
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "delivered the goods", entries[0].Narrative)
	assert.Equal(t, "ct-9", entries[0].EventData["contract_id"])
}

func TestCaptainLogRepository_EntriesScopedToPlayer(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCaptainLogRepository(db, nil)
	p1 := newTestPlayer(t, db, "CAPT-4A")
	p2 := newTestPlayer(t, db, "CAPT-4B")

	require.NoError(t, repo.Append(context.Background(), &journal.CaptainLogEntry{
		PlayerID: p1.ID, EntryType: "note", Narrative: "p1 journal",
	}))

	// Act
	entries, err := repo.ListByPlayer(context.Background(), p2.ID, 0)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, entries)
}
