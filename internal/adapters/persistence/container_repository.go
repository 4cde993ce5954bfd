package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/fleetd/internal/domain/container"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// GormContainerRepository implements container.ContainerRepository using GORM
type GormContainerRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormContainerRepository creates a new GORM container repository
func NewGormContainerRepository(db *gorm.DB, clock shared.Clock) *GormContainerRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormContainerRepository{db: db, clock: clock}
}

// Add inserts a new container record, failing with DuplicateError when the
// id is already taken
func (r *GormContainerRepository) Add(ctx context.Context, c *container.Container) error {
	model, err := r.containerToModel(c)
	if err != nil {
		return fmt.Errorf("failed to convert container to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDuplicateError("container", c.ID())
		}
		return fmt.Errorf("failed to insert container: %w", err)
	}

	return nil
}

// Update persists the container's lifecycle state. The config document is
// deliberately left alone: workers write their progress into it through
// UpdateConfig, and a supervisor holding a stale in-memory copy must not
// roll that progress back.
func (r *GormContainerRepository) Update(ctx context.Context, c *container.Container) error {
	model, err := r.containerToModel(c)
	if err != nil {
		return fmt.Errorf("failed to convert container to model: %w", err)
	}

	result := r.db.WithContext(ctx).
		Model(&ContainerModel{}).
		Where("container_id = ?", c.ID()).
		Updates(map[string]interface{}{
			"status":        model.Status,
			"iteration":     model.Iteration,
			"restart_count": model.RestartCount,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update container: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("container", c.ID())
	}

	return nil
}

// UpdateConfig merges updates into the persisted config document. The row
// is re-read inside the transaction so keys written by other holders of the
// container survive the merge.
func (r *GormContainerRepository) UpdateConfig(ctx context.Context, containerID string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model ContainerModel
		if err := tx.Where("container_id = ?", containerID).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewNotFoundError("container", containerID)
			}
			return fmt.Errorf("failed to load container config: %w", err)
		}

		config := map[string]interface{}{}
		if model.Config != "" {
			if err := json.Unmarshal([]byte(model.Config), &config); err != nil {
				return fmt.Errorf("failed to parse config for container %s: %w", containerID, err)
			}
		}
		for key, value := range updates {
			config[key] = value
		}

		encoded, err := json.Marshal(config)
		if err != nil {
			return fmt.Errorf("failed to serialize config: %w", err)
		}

		return tx.Model(&ContainerModel{}).
			Where("container_id = ?", containerID).
			Updates(map[string]interface{}{
				"config_json": string(encoded),
				"updated_at":  r.clock.Now(),
			}).Error
	})
}

// FindByID retrieves one container by id, including removed ones
func (r *GormContainerRepository) FindByID(ctx context.Context, containerID string) (*container.Container, error) {
	var model ContainerModel
	result := r.db.WithContext(ctx).Where("container_id = ?", containerID).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("container", containerID)
		}
		return nil, fmt.Errorf("failed to find container: %w", result.Error)
	}

	return r.modelToContainer(&model)
}

// List retrieves containers, optionally scoped to a player. Removed
// containers are excluded unless includeRemoved is set.
func (r *GormContainerRepository) List(ctx context.Context, playerID *int, includeRemoved bool) ([]*container.Container, error) {
	query := r.db.WithContext(ctx).Model(&ContainerModel{})

	if playerID != nil {
		query = query.Where("player_id = ?", *playerID)
	}
	if !includeRemoved {
		query = query.Where("status <> ?", string(container.ContainerStatusRemoved))
	}

	var models []ContainerModel
	if err := query.Order("created_at").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	return r.modelsToContainers(models)
}

// ListByStatuses retrieves containers in any of the given statuses. Crash
// recovery uses this to find work interrupted by a daemon restart.
func (r *GormContainerRepository) ListByStatuses(ctx context.Context, statuses []container.ContainerStatus) ([]*container.Container, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}

	var models []ContainerModel
	err := r.db.WithContext(ctx).
		Where("status IN ?", values).
		Order("created_at").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list containers by status: %w", err)
	}

	return r.modelsToContainers(models)
}

func (r *GormContainerRepository) modelsToContainers(models []ContainerModel) ([]*container.Container, error) {
	containers := make([]*container.Container, 0, len(models))
	for i := range models {
		c, err := r.modelToContainer(&models[i])
		if err != nil {
			return nil, err
		}
		containers = append(containers, c)
	}
	return containers, nil
}

func (r *GormContainerRepository) containerToModel(c *container.Container) (*ContainerModel, error) {
	// max_iterations rides inside the config document so reconstruction
	// can restore the iteration bound without a dedicated column
	config := make(map[string]interface{}, len(c.Config())+1)
	for k, v := range c.Config() {
		config[k] = v
	}
	config["max_iterations"] = c.MaxIterations()

	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}

	return &ContainerModel{
		ID:            c.ID(),
		PlayerID:      c.PlayerID(),
		Type:          string(c.Type()),
		Kind:          c.Type().Kind(),
		Status:        string(c.Status()),
		Iteration:     c.CurrentIteration(),
		RestartCount:  c.RestartCount(),
		RestartPolicy: string(c.Policy()),
		Config:        string(configJSON),
		CreatedAt:     c.CreatedAt(),
		UpdatedAt:     c.UpdatedAt(),
	}, nil
}

func (r *GormContainerRepository) modelToContainer(model *ContainerModel) (*container.Container, error) {
	var config map[string]interface{}
	if model.Config != "" {
		if err := json.Unmarshal([]byte(model.Config), &config); err != nil {
			return nil, fmt.Errorf("failed to parse config for container %s: %w", model.ID, err)
		}
	}

	policy, err := container.ParseRestartPolicy(model.RestartPolicy)
	if err != nil {
		policy = container.RestartPolicyNo
	}

	return container.ReconstructContainer(
		model.ID,
		container.ContainerType(model.Type),
		model.PlayerID,
		container.ContainerStatus(model.Status),
		model.Iteration,
		model.RestartCount,
		policy,
		config,
		model.CreatedAt,
		model.UpdatedAt,
		r.clock,
	), nil
}
