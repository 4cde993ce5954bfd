package rpc

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/application/scouting"
	appship "github.com/andrescamacho/fleetd/internal/application/ship"
	"github.com/andrescamacho/fleetd/internal/domain/container"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/pkg/utils"
)

// CommandFactory rebuilds a workflow command from a container's persisted
// config. Factories are the bridge between config_json and typed commands;
// adding a container type means adding a factory, nothing else.
type CommandFactory func(config map[string]interface{}, playerID int) (mediator.Request, error)

// CreateSpec describes a container to create
type CreateSpec struct {
	ID            string
	Type          container.ContainerType
	PlayerID      int
	MaxIterations int
	RestartPolicy string
	Config        map[string]interface{}
	AutoStart     bool
}

// ContainerRuntime is the daemon's container supervisor. It owns the runner
// registry, rebuilds commands from persisted config, enforces the ship
// lease on start, and reboots interrupted containers after a daemon crash.
type ContainerRuntime struct {
	med            mediator.Mediator
	containerRepo  container.ContainerRepository
	logRepo        container.ContainerLogRepository
	assignmentRepo navigation.ShipAssignmentRepository
	daemonLog      zerolog.Logger
	clock          shared.Clock
	stopGrace      time.Duration
	sleep          appship.Sleeper

	factories map[container.ContainerType]CommandFactory

	mu      sync.RWMutex
	runners map[string]*ContainerRunner
}

// NewContainerRuntime creates the supervisor and registers the command
// factories for every container type
func NewContainerRuntime(
	med mediator.Mediator,
	containerRepo container.ContainerRepository,
	logRepo container.ContainerLogRepository,
	assignmentRepo navigation.ShipAssignmentRepository,
	daemonLog zerolog.Logger,
	clock shared.Clock,
	stopGrace time.Duration,
) *ContainerRuntime {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if stopGrace <= 0 {
		stopGrace = 5 * time.Second
	}

	rt := &ContainerRuntime{
		med:            med,
		containerRepo:  containerRepo,
		logRepo:        logRepo,
		assignmentRepo: assignmentRepo,
		daemonLog:      daemonLog,
		clock:          clock,
		stopGrace:      stopGrace,
		sleep:          appship.RealSleeper,
		runners:        make(map[string]*ContainerRunner),
	}
	rt.factories = commandFactories()
	return rt
}

// SetSleeper swaps the pause function handed to runners, used by tests
func (rt *ContainerRuntime) SetSleeper(sleep appship.Sleeper) { rt.sleep = sleep }

// Create validates the spec against its command factory, persists the
// container in PENDING, and optionally starts it.
func (rt *ContainerRuntime) Create(ctx context.Context, spec CreateSpec) (*container.Container, error) {
	factory, ok := rt.factories[spec.Type]
	if !ok {
		return nil, newParamError("unknown container type %q", spec.Type)
	}

	policy, err := container.ParseRestartPolicy(spec.RestartPolicy)
	if err != nil {
		return nil, newParamError("%s", err.Error())
	}

	config := spec.Config
	if config == nil {
		config = make(map[string]interface{})
	}

	id := spec.ID
	if id == "" {
		ship, _ := config["ship_symbol"].(string)
		if ship == "" {
			ship = "task"
		}
		id = utils.GenerateContainerID(strings.ToLower(string(spec.Type)), ship)
	}

	// Worker containers read their queue position back out of their own
	// config document, so they need to know their ID.
	if spec.Type.Kind() == "worker" {
		config["container_id"] = id
	}

	// Building the command up front surfaces config mistakes at create
	// time instead of at first start.
	if _, err := factory(config, spec.PlayerID); err != nil {
		return nil, newParamError("invalid config for %s: %s", spec.Type, err.Error())
	}

	entity, err := container.NewContainer(id, spec.Type, spec.PlayerID, spec.MaxIterations, policy, config, rt.clock)
	if err != nil {
		return nil, newParamError("%s", err.Error())
	}
	// Reconstruction reads max_iterations out of the config document.
	entity.UpdateConfig(map[string]interface{}{"max_iterations": entity.MaxIterations()})

	if err := rt.containerRepo.Add(ctx, entity); err != nil {
		return nil, err
	}

	if spec.AutoStart {
		if err := rt.startEntity(ctx, entity); err != nil {
			return entity, err
		}
	}
	return entity, nil
}

// Start boots a PENDING, STOPPED or FAILED container
func (rt *ContainerRuntime) Start(ctx context.Context, containerID string) (*container.Container, error) {
	entity, err := rt.resolve(ctx, containerID)
	if err != nil {
		return nil, err
	}
	if err := rt.startEntity(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// startEntity is the one start path: acquire the ship lease, rebuild the
// command, register a runner, and let it walk the entity through
// STARTING → RUNNING. Crash recovery comes through here too.
func (rt *ContainerRuntime) startEntity(ctx context.Context, entity *container.Container) error {
	factory, ok := rt.factories[entity.Type()]
	if !ok {
		return newParamError("unknown container type %q", entity.Type())
	}
	command, err := factory(entity.Config(), entity.PlayerID())
	if err != nil {
		return newParamError("invalid config for %s: %s", entity.Type(), err.Error())
	}

	if ship, ok := entity.Config()["ship_symbol"].(string); ok && ship != "" {
		if _, err := rt.assignmentRepo.Acquire(ctx, ship, entity.ID(), entity.PlayerID(), string(entity.Type())); err != nil {
			return err
		}
	}

	runner := NewContainerRunner(entity, command, rt.med, rt.containerRepo, rt.logRepo, rt.assignmentRepo, rt.daemonLog)
	runner.SetSleeper(rt.sleep)

	if err := runner.Start(); err != nil {
		rt.releaseLease(entity, "start_failed")
		return err
	}

	rt.mu.Lock()
	rt.runners[entity.ID()] = runner
	rt.mu.Unlock()

	rt.daemonLog.Info().
		Str("container_id", entity.ID()).
		Str("type", string(entity.Type())).
		Int("player_id", entity.PlayerID()).
		Msg("container started")
	return nil
}

// Stop gracefully stops a container. Containers that were never started in
// this process (PENDING rows, or rows left behind by a crash) are finalized
// directly.
func (rt *ContainerRuntime) Stop(ctx context.Context, containerID string) (*container.Container, error) {
	rt.mu.RLock()
	runner, ok := rt.runners[containerID]
	rt.mu.RUnlock()

	if ok {
		if err := runner.Stop(rt.stopGrace); err != nil {
			return nil, err
		}
		return runner.Container(), nil
	}

	entity, err := rt.containerRepo.FindByID(ctx, containerID)
	if err != nil {
		return nil, err
	}
	if err := entity.RequestStop(); err != nil {
		return nil, err
	}
	// RUNNING and STARTING rows without a live runner are crash leftovers;
	// there is no task to drain, so finalize immediately.
	if entity.IsStopRequested() {
		if err := entity.MarkStopped(); err != nil {
			return nil, err
		}
	}
	if err := rt.containerRepo.Update(ctx, entity); err != nil {
		return nil, err
	}
	rt.releaseLease(entity, "stopped")
	return entity, nil
}

// Remove hides a non-running container from listings and drops its log
// stream
func (rt *ContainerRuntime) Remove(ctx context.Context, containerID string) error {
	entity, err := rt.resolve(ctx, containerID)
	if err != nil {
		return err
	}
	if err := entity.MarkRemoved(); err != nil {
		return err
	}
	if err := rt.containerRepo.Update(ctx, entity); err != nil {
		return err
	}
	if err := rt.logRepo.DeleteByContainer(ctx, containerID); err != nil {
		rt.daemonLog.Warn().Str("container_id", containerID).Err(err).Msg("failed to delete container logs")
	}

	rt.mu.Lock()
	delete(rt.runners, containerID)
	rt.mu.Unlock()
	return nil
}

// List returns containers, preferring live runner state over the persisted
// row
func (rt *ContainerRuntime) List(ctx context.Context, playerID *int, includeRemoved bool) ([]*container.Container, error) {
	rows, err := rt.containerRepo.List(ctx, playerID, includeRemoved)
	if err != nil {
		return nil, err
	}

	rt.mu.RLock()
	defer rt.mu.RUnlock()
	for i, row := range rows {
		if runner, ok := rt.runners[row.ID()]; ok {
			rows[i] = runner.Container()
		}
	}
	return rows, nil
}

// Inspect returns one container plus the tail of its log stream. A limit of
// 0 skips the log lookup entirely.
func (rt *ContainerRuntime) Inspect(ctx context.Context, containerID string, logTail int) (*container.Container, []*container.LogEntry, error) {
	entity, err := rt.resolve(ctx, containerID)
	if err != nil {
		return nil, nil, err
	}

	var logs []*container.LogEntry
	if logTail != 0 {
		limit := logTail
		if limit < 0 {
			limit = 0 // negative means everything
		}
		logs, err = rt.logRepo.FindByContainer(ctx, containerID, limit)
		if err != nil {
			return nil, nil, err
		}
	}
	return entity, logs, nil
}

// Logs returns the newest limit entries of a container's log stream
func (rt *ContainerRuntime) Logs(ctx context.Context, containerID string, limit int) ([]*container.LogEntry, error) {
	if _, err := rt.resolve(ctx, containerID); err != nil {
		return nil, err
	}
	return rt.logRepo.FindByContainer(ctx, containerID, limit)
}

// Recover reboots every container persisted as RUNNING or STARTING through
// the normal start path. Recovery never counts against the restart
// counter; only in-process restarts do.
func (rt *ContainerRuntime) Recover(ctx context.Context) (int, error) {
	interrupted, err := rt.containerRepo.ListByStatuses(ctx, []container.ContainerStatus{
		container.ContainerStatusRunning,
		container.ContainerStatusStarting,
	})
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, entity := range interrupted {
		entity.PrepareRecovery()
		if err := rt.containerRepo.Update(ctx, entity); err != nil {
			rt.daemonLog.Warn().Str("container_id", entity.ID()).Err(err).Msg("failed to reset interrupted container")
			continue
		}
		if err := rt.startEntity(ctx, entity); err != nil {
			rt.daemonLog.Warn().Str("container_id", entity.ID()).Err(err).Msg("failed to recover container")
			continue
		}
		recovered++
	}

	if recovered > 0 {
		rt.daemonLog.Info().Int("count", recovered).Msg("recovered interrupted containers")
	}
	return recovered, nil
}

// ActiveCount reports how many supervised containers are currently alive
func (rt *ContainerRuntime) ActiveCount() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	count := 0
	for _, runner := range rt.runners {
		switch runner.Container().Status() {
		case container.ContainerStatusStarting, container.ContainerStatusRunning, container.ContainerStatusStopping:
			count++
		}
	}
	return count
}

// Shutdown stops every live runner concurrently, each with the configured
// grace period
func (rt *ContainerRuntime) Shutdown() {
	rt.mu.RLock()
	runners := make([]*ContainerRunner, 0, len(rt.runners))
	for _, runner := range rt.runners {
		runners = append(runners, runner)
	}
	rt.mu.RUnlock()

	var wg sync.WaitGroup
	for _, runner := range runners {
		wg.Add(1)
		go func(r *ContainerRunner) {
			defer wg.Done()
			if err := r.Stop(rt.stopGrace); err != nil {
				var invalid *shared.InvalidStateError
				if !errors.As(err, &invalid) {
					rt.daemonLog.Warn().Str("container_id", r.Container().ID()).Err(err).Msg("failed to stop container")
				}
			}
		}(runner)
	}
	wg.Wait()
}

// LaunchScoutTour satisfies scouting.ContainerLauncher: the fleet
// coordinator spawns one scout tour container per probe ship.
func (rt *ContainerRuntime) LaunchScoutTour(ctx context.Context, containerID string, playerID int, cmd *scouting.ScoutTourCommand) error {
	_, err := rt.Create(ctx, CreateSpec{
		ID:            containerID,
		Type:          container.ContainerTypeScoutTour,
		PlayerID:      playerID,
		MaxIterations: cmd.Iterations,
		RestartPolicy: string(container.RestartPolicyOnFailure),
		Config: map[string]interface{}{
			"ship_symbol": cmd.ShipSymbol,
			"markets":     toInterfaceSlice(cmd.Markets),
			"iterations":  cmd.Iterations,
		},
		AutoStart: true,
	})
	return err
}

// StopContainer satisfies scouting.ContainerLauncher
func (rt *ContainerRuntime) StopContainer(ctx context.Context, containerID string) error {
	_, err := rt.Stop(ctx, containerID)
	return err
}

// resolve prefers the live runner entity over the persisted row
func (rt *ContainerRuntime) resolve(ctx context.Context, containerID string) (*container.Container, error) {
	rt.mu.RLock()
	runner, ok := rt.runners[containerID]
	rt.mu.RUnlock()
	if ok {
		return runner.Container(), nil
	}
	return rt.containerRepo.FindByID(ctx, containerID)
}

func (rt *ContainerRuntime) releaseLease(entity *container.Container, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := rt.assignmentRepo.ReleaseAllForContainer(ctx, entity.ID(), entity.PlayerID(), reason); err != nil {
		rt.daemonLog.Warn().Str("container_id", entity.ID()).Err(err).Msg("failed to release ship lease")
	}
}

func toInterfaceSlice(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
