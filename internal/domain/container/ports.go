package container

import (
	"context"
)

// ContainerRepository persists container records. Every state transition is
// written through Update so a daemon restart sees the truth.
type ContainerRepository interface {
	// Add inserts a new container, failing with DuplicateError when the id
	// is taken
	Add(ctx context.Context, c *Container) error

	// Update persists the container's lifecycle state. The config document
	// is not written; progress keys go through UpdateConfig.
	Update(ctx context.Context, c *Container) error

	// UpdateConfig merges updates into the persisted config document,
	// preserving keys written by other holders of the container
	UpdateConfig(ctx context.Context, containerID string, updates map[string]interface{}) error

	// FindByID retrieves one container, including removed ones
	FindByID(ctx context.Context, containerID string) (*Container, error)

	// List retrieves containers, optionally scoped to a player. Removed
	// containers are excluded unless includeRemoved is set.
	List(ctx context.Context, playerID *int, includeRemoved bool) ([]*Container, error)

	// ListByStatuses retrieves containers in any of the given statuses,
	// used by crash recovery to find interrupted work
	ListByStatuses(ctx context.Context, statuses []ContainerStatus) ([]*Container, error)
}

// ContainerLogRepository persists per-container log streams
type ContainerLogRepository interface {
	// Append writes one entry. Sequence allocation is the repository's
	// responsibility and is monotonic per container. Metadata is optional
	// structured context stored alongside the message.
	Append(ctx context.Context, containerID string, playerID int, level LogLevel, message string, metadata map[string]interface{}) error

	// FindByContainer returns the newest entries up to limit, oldest first.
	// A limit of 0 returns everything.
	FindByContainer(ctx context.Context, containerID string, limit int) ([]*LogEntry, error)

	// CountByContainer reports how many entries a container has
	CountByContainer(ctx context.Context, containerID string) (int64, error)

	// DeleteByContainer drops a container's log stream, used by remove
	DeleteByContainer(ctx context.Context, containerID string) error
}
