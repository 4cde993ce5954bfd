package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/fleetd/internal/domain/player"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// GormPlayerRepository implements player.PlayerRepository using GORM
type GormPlayerRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormPlayerRepository creates a new GORM player repository
func NewGormPlayerRepository(db *gorm.DB, clock shared.Clock) *GormPlayerRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormPlayerRepository{db: db, clock: clock}
}

// FindByID retrieves a player by ID
func (r *GormPlayerRepository) FindByID(ctx context.Context, playerID int) (*player.Player, error) {
	var model PlayerModel
	result := r.db.WithContext(ctx).Where("id = ?", playerID).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("player", fmt.Sprintf("%d", playerID))
		}
		return nil, fmt.Errorf("failed to find player: %w", result.Error)
	}

	return r.modelToPlayer(&model), nil
}

// FindByAgentSymbol retrieves a player by agent symbol
func (r *GormPlayerRepository) FindByAgentSymbol(ctx context.Context, agentSymbol string) (*player.Player, error) {
	var model PlayerModel
	result := r.db.WithContext(ctx).Where("agent_symbol = ?", agentSymbol).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("player", agentSymbol)
		}
		return nil, fmt.Errorf("failed to find player: %w", result.Error)
	}

	return r.modelToPlayer(&model), nil
}

// ListAll retrieves all registered players
func (r *GormPlayerRepository) ListAll(ctx context.Context) ([]*player.Player, error) {
	var models []PlayerModel
	result := r.db.WithContext(ctx).Order("id").Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list players: %w", result.Error)
	}

	players := make([]*player.Player, 0, len(models))
	for i := range models {
		players = append(players, r.modelToPlayer(&models[i]))
	}

	return players, nil
}

// Add persists a new player. The database allocates the ID and the entity
// is updated with it.
func (r *GormPlayerRepository) Add(ctx context.Context, p *player.Player) error {
	model, err := r.playerToModel(p)
	if err != nil {
		return fmt.Errorf("failed to convert player to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to add player: %w", err)
	}

	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	return nil
}

// UpdateCredits records the latest credits figure for a player
func (r *GormPlayerRepository) UpdateCredits(ctx context.Context, playerID int, credits int64) error {
	result := r.db.WithContext(ctx).
		Model(&PlayerModel{}).
		Where("id = ?", playerID).
		Update("credits", credits)
	if result.Error != nil {
		return fmt.Errorf("failed to update credits: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("player", fmt.Sprintf("%d", playerID))
	}
	return nil
}

// TouchLastActive stamps the player's last-active column
func (r *GormPlayerRepository) TouchLastActive(ctx context.Context, playerID int) error {
	now := r.clock.Now()
	result := r.db.WithContext(ctx).
		Model(&PlayerModel{}).
		Where("id = ?", playerID).
		Update("last_active", now)
	if result.Error != nil {
		return fmt.Errorf("failed to touch last active: %w", result.Error)
	}
	return nil
}

func (r *GormPlayerRepository) modelToPlayer(model *PlayerModel) *player.Player {
	var metadata map[string]interface{}
	if model.Metadata != "" {
		if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
			metadata = nil
		}
	}

	p := &player.Player{
		ID:          model.ID,
		AgentSymbol: model.AgentSymbol,
		Token:       model.Token,
		Credits:     model.Credits,
		CreatedAt:   model.CreatedAt,
		Metadata:    metadata,
	}
	if model.LastActive != nil {
		p.LastActive = *model.LastActive
	}
	return p
}

func (r *GormPlayerRepository) playerToModel(p *player.Player) (*PlayerModel, error) {
	// Empty JSON object for nil metadata keeps JSON columns happy
	metadataJSON := "{}"
	if p.Metadata != nil {
		bytes, err := json.Marshal(p.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadataJSON = string(bytes)
	}

	var lastActive *time.Time
	if !p.LastActive.IsZero() {
		la := p.LastActive
		lastActive = &la
	}

	return &PlayerModel{
		ID:          p.ID,
		AgentSymbol: p.AgentSymbol,
		Token:       p.Token,
		Credits:     p.Credits,
		LastActive:  lastActive,
		Metadata:    metadataJSON,
	}, nil
}
