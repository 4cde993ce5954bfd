package journal

import (
	"context"
	"time"
)

// CaptainLogEntry is one narrative journal record for a player's fleet.
// The daemon only stores and serves these; composing the narrative text is
// somebody else's job.
type CaptainLogEntry struct {
	ID            int64                  `json:"id"`
	PlayerID      int                    `json:"player_id"`
	Timestamp     time.Time              `json:"timestamp"`
	EntryType     string                 `json:"entry_type"`
	Narrative     string                 `json:"narrative"`
	EventData     map[string]interface{} `json:"event_data,omitempty"`
	Tags          []string               `json:"tags,omitempty"`
	FleetSnapshot map[string]interface{} `json:"fleet_snapshot,omitempty"`
}

// CaptainLogRepository persists captain log entries
type CaptainLogRepository interface {
	// Append stores one entry and fills in its allocated ID
	Append(ctx context.Context, entry *CaptainLogEntry) error

	// ListByPlayer returns the newest entries up to limit, newest first.
	// A limit of 0 returns everything.
	ListByPlayer(ctx context.Context, playerID int, limit int) ([]*CaptainLogEntry, error)

	// ListByType filters a player's entries by entry type
	ListByType(ctx context.Context, playerID int, entryType string, limit int) ([]*CaptainLogEntry, error)
}
