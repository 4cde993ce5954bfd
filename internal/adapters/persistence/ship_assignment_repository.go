package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

const (
	assignmentStatusActive   = "active"
	assignmentStatusReleased = "released"
)

// GormShipAssignmentRepository implements navigation.ShipAssignmentRepository
// using GORM. Rows are history; the partial unique index on
// (player_id, ship_symbol) WHERE status = 'active' makes Acquire atomic
// without table locks.
type GormShipAssignmentRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormShipAssignmentRepository creates a new GORM ship assignment repository
func NewGormShipAssignmentRepository(db *gorm.DB, clock shared.Clock) *GormShipAssignmentRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormShipAssignmentRepository{db: db, clock: clock}
}

// Acquire takes an exclusive lease on the ship. The insert targets the
// partial unique index with DO NOTHING, so of two racing containers exactly
// one sees its row land; the loser gets a ShipAssignmentError naming the
// current holder.
func (r *GormShipAssignmentRepository) Acquire(
	ctx context.Context,
	shipSymbol, containerID string,
	playerID int,
	kind string,
) (*navigation.ShipAssignment, error) {
	model := &ShipAssignmentModel{
		PlayerID:    playerID,
		ShipSymbol:  shipSymbol,
		ContainerID: containerID,
		Kind:        kind,
		Status:      assignmentStatusActive,
		AcquiredAt:  r.clock.Now(),
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "player_id"}, {Name: "ship_symbol"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: clause.Column{Name: "status"}, Value: assignmentStatusActive},
		}},
		DoNothing: true,
	}).Create(model)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to acquire ship assignment: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		holder := "another container"
		if current, err := r.FindActiveByShip(ctx, shipSymbol, playerID); err == nil && current != nil {
			holder = current.ContainerID
		}
		return nil, shared.NewShipAssignmentError(shipSymbol, containerID, holder)
	}

	return r.modelToAssignment(model), nil
}

// Release frees the ship's live lease. Releasing a free ship is a no-op.
func (r *GormShipAssignmentRepository) Release(ctx context.Context, shipSymbol string, playerID int, reason string) error {
	now := r.clock.Now()
	result := r.db.WithContext(ctx).
		Model(&ShipAssignmentModel{}).
		Where("ship_symbol = ? AND player_id = ? AND status = ?", shipSymbol, playerID, assignmentStatusActive).
		Updates(map[string]interface{}{
			"status":         assignmentStatusReleased,
			"released_at":    now,
			"release_reason": reason,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to release ship assignment: %w", result.Error)
	}
	return nil
}

// ReleaseAllForContainer frees every lease the container holds
func (r *GormShipAssignmentRepository) ReleaseAllForContainer(ctx context.Context, containerID string, playerID int, reason string) error {
	now := r.clock.Now()
	result := r.db.WithContext(ctx).
		Model(&ShipAssignmentModel{}).
		Where("container_id = ? AND player_id = ? AND status = ?", containerID, playerID, assignmentStatusActive).
		Updates(map[string]interface{}{
			"status":         assignmentStatusReleased,
			"released_at":    now,
			"release_reason": reason,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to release container assignments: %w", result.Error)
	}
	return nil
}

// ReleaseAllActive frees every live lease across all players and reports how
// many were freed. Daemon startup runs this before recovery so crashed
// containers cannot hold ships forever.
func (r *GormShipAssignmentRepository) ReleaseAllActive(ctx context.Context, reason string) (int, error) {
	now := r.clock.Now()
	result := r.db.WithContext(ctx).
		Model(&ShipAssignmentModel{}).
		Where("status = ?", assignmentStatusActive).
		Updates(map[string]interface{}{
			"status":         assignmentStatusReleased,
			"released_at":    now,
			"release_reason": reason,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to release active assignments: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

// CheckAvailable reports whether the ship has no live lease
func (r *GormShipAssignmentRepository) CheckAvailable(ctx context.Context, shipSymbol string, playerID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ShipAssignmentModel{}).
		Where("ship_symbol = ? AND player_id = ? AND status = ?", shipSymbol, playerID, assignmentStatusActive).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check ship availability: %w", err)
	}
	return count == 0, nil
}

// FindActiveByShip returns the live lease for a ship, or nil when free
func (r *GormShipAssignmentRepository) FindActiveByShip(ctx context.Context, shipSymbol string, playerID int) (*navigation.ShipAssignment, error) {
	var model ShipAssignmentModel
	result := r.db.WithContext(ctx).
		Where("ship_symbol = ? AND player_id = ? AND status = ?", shipSymbol, playerID, assignmentStatusActive).
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active assignment: %w", result.Error)
	}

	return r.modelToAssignment(&model), nil
}

// FindLatestByShip returns the newest lease row regardless of status, or nil
// when the ship was never assigned
func (r *GormShipAssignmentRepository) FindLatestByShip(ctx context.Context, shipSymbol string, playerID int) (*navigation.ShipAssignment, error) {
	var model ShipAssignmentModel
	result := r.db.WithContext(ctx).
		Where("ship_symbol = ? AND player_id = ?", shipSymbol, playerID).
		Order("id DESC").
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find latest assignment: %w", result.Error)
	}

	return r.modelToAssignment(&model), nil
}

// FindAllActive returns every live lease for a player
func (r *GormShipAssignmentRepository) FindAllActive(ctx context.Context, playerID int) ([]*navigation.ShipAssignment, error) {
	var models []ShipAssignmentModel
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND status = ?", playerID, assignmentStatusActive).
		Order("ship_symbol").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active assignments: %w", err)
	}

	assignments := make([]*navigation.ShipAssignment, 0, len(models))
	for i := range models {
		assignments = append(assignments, r.modelToAssignment(&models[i]))
	}
	return assignments, nil
}

func (r *GormShipAssignmentRepository) modelToAssignment(model *ShipAssignmentModel) *navigation.ShipAssignment {
	return &navigation.ShipAssignment{
		ShipSymbol:    model.ShipSymbol,
		ContainerID:   model.ContainerID,
		PlayerID:      shared.MustNewPlayerID(model.PlayerID),
		Kind:          model.Kind,
		AssignedAt:    model.AcquiredAt,
		ReleasedAt:    model.ReleasedAt,
		ReleaseReason: model.ReleaseReason,
	}
}
