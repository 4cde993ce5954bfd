package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/fleetd/internal/domain/journal"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// GormCaptainLogRepository implements journal.CaptainLogRepository using GORM
type GormCaptainLogRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormCaptainLogRepository creates a new GORM captain log repository
func NewGormCaptainLogRepository(db *gorm.DB, clock shared.Clock) *GormCaptainLogRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormCaptainLogRepository{db: db, clock: clock}
}

// Append stores one entry and fills in its allocated ID
func (r *GormCaptainLogRepository) Append(ctx context.Context, entry *journal.CaptainLogEntry) error {
	model, err := r.entryToModel(entry)
	if err != nil {
		return fmt.Errorf("failed to convert captain log entry: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to append captain log entry: %w", err)
	}

	entry.ID = model.LogID
	entry.Timestamp = model.Timestamp
	return nil
}

// ListByPlayer returns the newest entries up to limit, newest first
func (r *GormCaptainLogRepository) ListByPlayer(ctx context.Context, playerID int, limit int) ([]*journal.CaptainLogEntry, error) {
	query := r.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("log_id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []CaptainLogModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list captain log: %w", err)
	}

	return r.modelsToEntries(models)
}

// ListByType filters a player's entries by entry type, newest first
func (r *GormCaptainLogRepository) ListByType(ctx context.Context, playerID int, entryType string, limit int) ([]*journal.CaptainLogEntry, error) {
	query := r.db.WithContext(ctx).
		Where("player_id = ? AND entry_type = ?", playerID, entryType).
		Order("log_id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []CaptainLogModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list captain log by type: %w", err)
	}

	return r.modelsToEntries(models)
}

func (r *GormCaptainLogRepository) modelsToEntries(models []CaptainLogModel) ([]*journal.CaptainLogEntry, error) {
	entries := make([]*journal.CaptainLogEntry, 0, len(models))
	for i := range models {
		entry, err := r.modelToEntry(&models[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *GormCaptainLogRepository) entryToModel(entry *journal.CaptainLogEntry) (*CaptainLogModel, error) {
	timestamp := entry.Timestamp
	if timestamp.IsZero() {
		timestamp = r.clock.Now()
	}

	eventData, err := marshalOptionalJSON(entry.EventData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}
	tags, err := marshalOptionalJSON(entry.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	fleetSnapshot, err := marshalOptionalJSON(entry.FleetSnapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fleet snapshot: %w", err)
	}

	return &CaptainLogModel{
		PlayerID:      entry.PlayerID,
		Timestamp:     timestamp,
		EntryType:     entry.EntryType,
		Narrative:     entry.Narrative,
		EventData:     eventData,
		Tags:          tags,
		FleetSnapshot: fleetSnapshot,
	}, nil
}

func (r *GormCaptainLogRepository) modelToEntry(model *CaptainLogModel) (*journal.CaptainLogEntry, error) {
	entry := &journal.CaptainLogEntry{
		ID:        model.LogID,
		PlayerID:  model.PlayerID,
		Timestamp: model.Timestamp,
		EntryType: model.EntryType,
		Narrative: model.Narrative,
	}

	if model.EventData != "" {
		if err := json.Unmarshal([]byte(model.EventData), &entry.EventData); err != nil {
			return nil, fmt.Errorf("failed to parse event data for entry %d: %w", model.LogID, err)
		}
	}
	if model.Tags != "" {
		if err := json.Unmarshal([]byte(model.Tags), &entry.Tags); err != nil {
			return nil, fmt.Errorf("failed to parse tags for entry %d: %w", model.LogID, err)
		}
	}
	if model.FleetSnapshot != "" {
		if err := json.Unmarshal([]byte(model.FleetSnapshot), &entry.FleetSnapshot); err != nil {
			return nil, fmt.Errorf("failed to parse fleet snapshot for entry %d: %w", model.LogID, err)
		}
	}

	return entry, nil
}

// marshalOptionalJSON serializes a value, mapping empty collections to the
// empty string so the column stays NULL-ish
func marshalOptionalJSON(v interface{}) (string, error) {
	switch value := v.(type) {
	case map[string]interface{}:
		if len(value) == 0 {
			return "", nil
		}
	case []string:
		if len(value) == 0 {
			return "", nil
		}
	case nil:
		return "", nil
	}

	bytes, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
