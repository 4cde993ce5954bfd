package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// defaultWaypointTTL bounds how long trait-bearing waypoint rows are served
// before callers must rebuild from the API
const defaultWaypointTTL = 2 * time.Hour

// GormWaypointRepository implements system.WaypointRepository using GORM.
// Reads only return rows inside the TTL; SaveAll stamps a whole system at
// once, so freshness is effectively per system.
type GormWaypointRepository struct {
	db    *gorm.DB
	ttl   time.Duration
	clock shared.Clock
}

// NewGormWaypointRepository creates a new GORM waypoint repository
func NewGormWaypointRepository(db *gorm.DB, ttl time.Duration, clock shared.Clock) *GormWaypointRepository {
	if ttl <= 0 {
		ttl = defaultWaypointTTL
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormWaypointRepository{db: db, ttl: ttl, clock: clock}
}

// FindBySymbol retrieves a fresh waypoint by symbol, or nil when the cache
// has nothing usable
func (r *GormWaypointRepository) FindBySymbol(ctx context.Context, symbol, systemSymbol string) (*shared.Waypoint, error) {
	var model WaypointModel
	result := r.db.WithContext(ctx).
		Where("waypoint_symbol = ? AND system_symbol = ? AND updated_at > ?", symbol, systemSymbol, r.cutoff()).
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find waypoint: %w", result.Error)
	}

	return r.modelToWaypoint(&model)
}

// ListBySystem retrieves all fresh waypoints in a system
func (r *GormWaypointRepository) ListBySystem(ctx context.Context, systemSymbol string) ([]*shared.Waypoint, error) {
	var models []WaypointModel
	result := r.db.WithContext(ctx).
		Where("system_symbol = ? AND updated_at > ?", systemSymbol, r.cutoff()).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list waypoints: %w", result.Error)
	}

	return r.modelsToWaypoints(models)
}

// ListBySystemWithTrait retrieves fresh waypoints in a system carrying the
// given trait. Traits are stored as a JSON array; the quoted LIKE pattern
// matches the symbol wherever it sits in the array.
func (r *GormWaypointRepository) ListBySystemWithTrait(ctx context.Context, systemSymbol, trait string) ([]*shared.Waypoint, error) {
	pattern := fmt.Sprintf("%%\"%s\"%%", trait)

	var models []WaypointModel
	result := r.db.WithContext(ctx).
		Where("system_symbol = ? AND traits LIKE ? AND updated_at > ?", systemSymbol, pattern, r.cutoff()).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list waypoints by trait: %w", result.Error)
	}

	return r.modelsToWaypoints(models)
}

// SaveAll replaces a system's waypoint rows with a fresh snapshot. Replace
// rather than merge, so waypoints that vanished upstream vanish here too.
func (r *GormWaypointRepository) SaveAll(ctx context.Context, playerID int, systemSymbol string, waypoints []*shared.Waypoint) error {
	now := r.clock.Now()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("system_symbol = ?", systemSymbol).Delete(&WaypointModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear waypoints for %s: %w", systemSymbol, err)
		}

		for _, waypoint := range waypoints {
			model, err := r.waypointToModel(waypoint, playerID, now)
			if err != nil {
				return fmt.Errorf("failed to convert waypoint %s: %w", waypoint.Symbol, err)
			}
			if err := tx.Create(model).Error; err != nil {
				return fmt.Errorf("failed to insert waypoint %s: %w", waypoint.Symbol, err)
			}
		}
		return nil
	})
}

// IsFresh reports whether the system's cached rows are inside the TTL
func (r *GormWaypointRepository) IsFresh(ctx context.Context, systemSymbol string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&WaypointModel{}).
		Where("system_symbol = ? AND updated_at > ?", systemSymbol, r.cutoff()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check waypoint freshness: %w", err)
	}
	return count > 0, nil
}

func (r *GormWaypointRepository) cutoff() time.Time {
	return r.clock.Now().Add(-r.ttl)
}

func (r *GormWaypointRepository) modelsToWaypoints(models []WaypointModel) ([]*shared.Waypoint, error) {
	waypoints := make([]*shared.Waypoint, 0, len(models))
	for i := range models {
		waypoint, err := r.modelToWaypoint(&models[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert waypoint %s: %w", models[i].WaypointSymbol, err)
		}
		waypoints = append(waypoints, waypoint)
	}
	return waypoints, nil
}

func (r *GormWaypointRepository) modelToWaypoint(model *WaypointModel) (*shared.Waypoint, error) {
	waypoint, err := shared.NewWaypoint(model.WaypointSymbol, model.X, model.Y)
	if err != nil {
		return nil, err
	}

	waypoint.SystemSymbol = model.SystemSymbol
	waypoint.Type = model.Type
	waypoint.HasFuel = model.HasFuel == 1

	if model.Traits != "" {
		var traits []string
		if err := json.Unmarshal([]byte(model.Traits), &traits); err != nil {
			traits = []string{}
		}
		waypoint.Traits = traits
	}

	if model.Orbitals != "" {
		var orbitals []string
		if err := json.Unmarshal([]byte(model.Orbitals), &orbitals); err != nil {
			orbitals = []string{}
		}
		waypoint.Orbitals = orbitals
	}

	return waypoint, nil
}

func (r *GormWaypointRepository) waypointToModel(waypoint *shared.Waypoint, playerID int, now time.Time) (*WaypointModel, error) {
	hasFuel := 0
	if waypoint.HasFuel {
		hasFuel = 1
	}

	var traitsJSON string
	if len(waypoint.Traits) > 0 {
		bytes, err := json.Marshal(waypoint.Traits)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal traits: %w", err)
		}
		traitsJSON = string(bytes)
	}

	var orbitalsJSON string
	if len(waypoint.Orbitals) > 0 {
		bytes, err := json.Marshal(waypoint.Orbitals)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal orbitals: %w", err)
		}
		orbitalsJSON = string(bytes)
	}

	return &WaypointModel{
		WaypointSymbol: waypoint.Symbol,
		SystemSymbol:   waypoint.SystemSymbol,
		PlayerID:       playerID,
		Type:           waypoint.Type,
		X:              waypoint.X,
		Y:              waypoint.Y,
		Traits:         traitsJSON,
		HasFuel:        hasFuel,
		Orbitals:       orbitalsJSON,
		UpdatedAt:      now,
	}, nil
}
