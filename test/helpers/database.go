package helpers

import (
	"testing"

	"gorm.io/gorm"

	"github.com/andrescamacho/fleetd/internal/infrastructure/database"
)

// NewTestDB creates a migrated SQLite in-memory database for one test
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewTestConnection()
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close(db)
	})

	return db
}
