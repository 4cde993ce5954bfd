package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// GormRouteRepository implements navigation.RouteRepository using GORM.
// Segments serialize as one JSON document; the envelope columns carry what
// queries filter on.
type GormRouteRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormRouteRepository creates a new GORM route repository
func NewGormRouteRepository(db *gorm.DB, clock shared.Clock) *GormRouteRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormRouteRepository{db: db, clock: clock}
}

// Save upserts the route on its id. Executors call this after every segment
// so a crashed daemon resumes where the ship actually is.
func (r *GormRouteRepository) Save(ctx context.Context, route *navigation.Route) error {
	model, err := r.routeToModel(route)
	if err != nil {
		return fmt.Errorf("failed to convert route to model: %w", err)
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "route_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"segments_json", "current_segment", "status", "failure_reason", "updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to save route: %w", err)
	}

	return nil
}

// FindByID retrieves one route by its id
func (r *GormRouteRepository) FindByID(ctx context.Context, id string) (*navigation.Route, error) {
	var model RouteModel
	result := r.db.WithContext(ctx).Where("route_id = ?", id).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("route", id)
		}
		return nil, fmt.Errorf("failed to find route: %w", result.Error)
	}

	return r.modelToRoute(&model)
}

// FindActiveByShip returns the ship's PLANNED or EXECUTING route, or nil.
// At most one route per ship is ever in flight because containers hold an
// exclusive ship lease while navigating.
func (r *GormRouteRepository) FindActiveByShip(ctx context.Context, shipSymbol string, playerID int) (*navigation.Route, error) {
	var model RouteModel
	result := r.db.WithContext(ctx).
		Where("ship_symbol = ? AND player_id = ? AND status IN ?",
			shipSymbol, playerID,
			[]string{string(navigation.RouteStatusPlanned), string(navigation.RouteStatusExecuting)}).
		Order("created_at DESC").
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active route: %w", result.Error)
	}

	return r.modelToRoute(&model)
}

// ListByShip returns the newest routes for a ship, newest first. A limit of
// 0 returns everything.
func (r *GormRouteRepository) ListByShip(ctx context.Context, shipSymbol string, playerID int, limit int) ([]*navigation.Route, error) {
	query := r.db.WithContext(ctx).
		Where("ship_symbol = ? AND player_id = ?", shipSymbol, playerID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []RouteModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}

	routes := make([]*navigation.Route, 0, len(models))
	for i := range models {
		route, err := r.modelToRoute(&models[i])
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, nil
}

func (r *GormRouteRepository) routeToModel(route *navigation.Route) (*RouteModel, error) {
	segmentsJSON, err := json.Marshal(route.Segments())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize segments: %w", err)
	}

	return &RouteModel{
		RouteID:            route.ID(),
		PlayerID:           route.PlayerID().Value(),
		ShipSymbol:         route.ShipSymbol(),
		Segments:           string(segmentsJSON),
		FuelCapacity:       route.FuelCapacity(),
		PreDepartureRefuel: route.RequiresInitialRefuel(),
		CurrentSegment:     route.CurrentSegmentIndex(),
		Status:             string(route.Status()),
		FailureReason:      route.FailureReason(),
		CreatedAt:          route.CreatedAt(),
		UpdatedAt:          r.clock.Now(),
	}, nil
}

func (r *GormRouteRepository) modelToRoute(model *RouteModel) (*navigation.Route, error) {
	var segments []*navigation.RouteSegment
	if err := json.Unmarshal([]byte(model.Segments), &segments); err != nil {
		return nil, fmt.Errorf("failed to parse segments for route %s: %w", model.RouteID, err)
	}

	return navigation.ReconstructRoute(
		model.RouteID,
		model.ShipSymbol,
		shared.MustNewPlayerID(model.PlayerID),
		segments,
		model.FuelCapacity,
		model.PreDepartureRefuel,
		model.CurrentSegment,
		navigation.RouteStatus(model.Status),
		model.FailureReason,
		model.CreatedAt,
		r.clock,
	), nil
}
