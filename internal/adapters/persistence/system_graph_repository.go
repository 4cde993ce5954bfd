package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/fleetd/internal/domain/system"
)

// GormSystemGraphRepository implements system.SystemGraphRepository using
// GORM. Graphs are structure-only and have no TTL; system layouts do not
// change, so a cached graph is good forever.
type GormSystemGraphRepository struct {
	db *gorm.DB
}

// NewGormSystemGraphRepository creates a new GORM system graph repository
func NewGormSystemGraphRepository(db *gorm.DB) *GormSystemGraphRepository {
	return &GormSystemGraphRepository{db: db}
}

// Get retrieves a system's graph, or nil on a cache miss
func (r *GormSystemGraphRepository) Get(ctx context.Context, systemSymbol string) (*system.NavigationGraph, error) {
	var model SystemGraphModel
	result := r.db.WithContext(ctx).Where("system_symbol = ?", systemSymbol).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get system graph: %w", result.Error)
	}

	var graph system.NavigationGraph
	if err := json.Unmarshal([]byte(model.GraphData), &graph); err != nil {
		return nil, fmt.Errorf("failed to parse graph for %s: %w", systemSymbol, err)
	}

	return &graph, nil
}

// Save upserts a system's graph on its symbol
func (r *GormSystemGraphRepository) Save(ctx context.Context, graph *system.NavigationGraph) error {
	graphJSON, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("failed to serialize graph: %w", err)
	}

	model := &SystemGraphModel{
		SystemSymbol: graph.SystemSymbol,
		GraphData:    string(graphJSON),
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "system_symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"graph_json", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to save system graph: %w", err)
	}

	return nil
}
