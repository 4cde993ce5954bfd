package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/fleetd/internal/domain/container"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// GormContainerLogRepository implements container.ContainerLogRepository
// using GORM. Sequence numbers are allocated inside a transaction; the
// single-writer-per-container model means allocation never contends, and the
// unique (container_id, sequence) index backstops it if it ever does.
type GormContainerLogRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormContainerLogRepository creates a new GORM container log repository
func NewGormContainerLogRepository(db *gorm.DB, clock shared.Clock) *GormContainerLogRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormContainerLogRepository{db: db, clock: clock}
}

// Append writes one log entry, allocating the next sequence number for the
// container
func (r *GormContainerLogRepository) Append(
	ctx context.Context,
	containerID string,
	playerID int,
	level container.LogLevel,
	message string,
	metadata map[string]interface{},
) error {
	metadataJSON := ""
	if len(metadata) > 0 {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to serialize log metadata: %w", err)
		}
		metadataJSON = string(bytes)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int64
		err := tx.Model(&ContainerLogModel{}).
			Where("container_id = ?", containerID).
			Select("COALESCE(MAX(sequence), 0)").
			Scan(&maxSeq).Error
		if err != nil {
			return fmt.Errorf("failed to allocate log sequence: %w", err)
		}

		model := &ContainerLogModel{
			ContainerID: containerID,
			Sequence:    maxSeq + 1,
			PlayerID:    playerID,
			Timestamp:   r.clock.Now(),
			Level:       string(level),
			Message:     message,
			Metadata:    metadataJSON,
		}

		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to insert log entry: %w", err)
		}
		return nil
	})
}

// FindByContainer returns the newest entries up to limit, oldest first. A
// limit of 0 returns the full stream.
func (r *GormContainerLogRepository) FindByContainer(
	ctx context.Context,
	containerID string,
	limit int,
) ([]*container.LogEntry, error) {
	query := r.db.WithContext(ctx).
		Where("container_id = ?", containerID).
		Order("sequence DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []ContainerLogModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find logs: %w", err)
	}

	// Reverse into chronological order
	entries := make([]*container.LogEntry, len(models))
	for i := range models {
		entries[len(models)-1-i] = r.modelToEntry(&models[i])
	}

	return entries, nil
}

// CountByContainer reports how many entries a container has
func (r *GormContainerLogRepository) CountByContainer(ctx context.Context, containerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ContainerLogModel{}).
		Where("container_id = ?", containerID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count logs: %w", err)
	}
	return count, nil
}

// DeleteByContainer drops a container's entire log stream
func (r *GormContainerLogRepository) DeleteByContainer(ctx context.Context, containerID string) error {
	err := r.db.WithContext(ctx).
		Where("container_id = ?", containerID).
		Delete(&ContainerLogModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete logs: %w", err)
	}
	return nil
}

func (r *GormContainerLogRepository) modelToEntry(model *ContainerLogModel) *container.LogEntry {
	var metadata map[string]interface{}
	if model.Metadata != "" {
		if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
			metadata = nil
		}
	}

	return &container.LogEntry{
		ContainerID: model.ContainerID,
		PlayerID:    model.PlayerID,
		Sequence:    model.Sequence,
		Timestamp:   model.Timestamp,
		Level:       container.LogLevel(model.Level),
		Message:     model.Message,
		Metadata:    metadata,
	}
}
