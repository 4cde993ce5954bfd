package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/fleetd/internal/application/mediator"
	appship "github.com/andrescamacho/fleetd/internal/application/ship"
	"github.com/andrescamacho/fleetd/internal/domain/container"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

type memoryContainerRepo struct {
	mu   sync.Mutex
	rows map[string]*container.Container
}

func newMemoryContainerRepo() *memoryContainerRepo {
	return &memoryContainerRepo{rows: make(map[string]*container.Container)}
}

func (r *memoryContainerRepo) Add(ctx context.Context, c *container.Container) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[c.ID()]; exists {
		return shared.NewDuplicateError("container", c.ID())
	}
	r.rows[c.ID()] = c
	return nil
}

func (r *memoryContainerRepo) Update(ctx context.Context, c *container.Container) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[c.ID()] = c
	return nil
}

func (r *memoryContainerRepo) UpdateConfig(ctx context.Context, id string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return shared.NewNotFoundError("container", id)
	}
	c.UpdateConfig(updates)
	return nil
}

func (r *memoryContainerRepo) FindByID(ctx context.Context, id string) (*container.Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return nil, shared.NewNotFoundError("container", id)
	}
	return c, nil
}

func (r *memoryContainerRepo) List(ctx context.Context, playerID *int, includeRemoved bool) ([]*container.Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*container.Container
	for _, c := range r.rows {
		if playerID != nil && c.PlayerID() != *playerID {
			continue
		}
		if c.IsRemoved() && !includeRemoved {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryContainerRepo) ListByStatuses(ctx context.Context, statuses []container.ContainerStatus) ([]*container.Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*container.Container
	for _, c := range r.rows {
		for _, status := range statuses {
			if c.Status() == status {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

type memoryLogRepo struct {
	mu      sync.Mutex
	entries map[string][]*container.LogEntry
	deleted []string
}

func newMemoryLogRepo() *memoryLogRepo {
	return &memoryLogRepo{entries: make(map[string][]*container.LogEntry)}
}

func (r *memoryLogRepo) Append(ctx context.Context, containerID string, playerID int, level container.LogLevel, message string, metadata map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[containerID] = append(r.entries[containerID], &container.LogEntry{
		ContainerID: containerID,
		PlayerID:    playerID,
		Sequence:    int64(len(r.entries[containerID]) + 1),
		Timestamp:   time.Now(),
		Level:       level,
		Message:     message,
		Metadata:    metadata,
	})
	return nil
}

func (r *memoryLogRepo) FindByContainer(ctx context.Context, containerID string, limit int) ([]*container.LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.entries[containerID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func (r *memoryLogRepo) CountByContainer(ctx context.Context, containerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.entries[containerID])), nil
}

func (r *memoryLogRepo) DeleteByContainer(ctx context.Context, containerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, containerID)
	r.deleted = append(r.deleted, containerID)
	return nil
}

type memoryAssignmentRepo struct {
	navigation.ShipAssignmentRepository

	mu       sync.Mutex
	active   map[string]*navigation.ShipAssignment // keyed by ship symbol
	released []string
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{active: make(map[string]*navigation.ShipAssignment)}
}

func (r *memoryAssignmentRepo) Acquire(ctx context.Context, shipSymbol, containerID string, playerID int, kind string) (*navigation.ShipAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if holder, ok := r.active[shipSymbol]; ok {
		return nil, shared.NewShipAssignmentError(shipSymbol, containerID, holder.ContainerID)
	}
	lease := navigation.NewShipAssignment(shipSymbol, containerID, shared.MustNewPlayerID(playerID), kind, time.Now())
	r.active[shipSymbol] = lease
	return lease, nil
}

func (r *memoryAssignmentRepo) ReleaseAllForContainer(ctx context.Context, containerID string, playerID int, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ship, lease := range r.active {
		if lease.ContainerID == containerID {
			delete(r.active, ship)
			r.released = append(r.released, reason)
		}
	}
	return nil
}

func (r *memoryAssignmentRepo) holds(shipSymbol string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[shipSymbol]
	return ok
}

type stubHandler struct {
	fn func(ctx context.Context, request mediator.Request) (mediator.Response, error)
}

func (h *stubHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	return h.fn(ctx, request)
}

type runtimeFixture struct {
	runtime        *ContainerRuntime
	med            mediator.Mediator
	containerRepo  *memoryContainerRepo
	logRepo        *memoryLogRepo
	assignmentRepo *memoryAssignmentRepo
}

func newRuntimeFixture(t *testing.T) *runtimeFixture {
	t.Helper()

	f := &runtimeFixture{
		med:            mediator.NewMediator(),
		containerRepo:  newMemoryContainerRepo(),
		logRepo:        newMemoryLogRepo(),
		assignmentRepo: newMemoryAssignmentRepo(),
	}
	f.runtime = NewContainerRuntime(
		f.med, f.containerRepo, f.logRepo, f.assignmentRepo,
		zerolog.Nop(), shared.NewRealClock(), 200*time.Millisecond,
	)
	f.runtime.SetSleeper(func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	})
	return f
}

func (f *runtimeFixture) stubDock(t *testing.T, fn func(ctx context.Context, request mediator.Request) (mediator.Response, error)) {
	t.Helper()
	err := mediator.RegisterHandler[*appship.DockShipCommand](f.med, &stubHandler{fn: fn})
	require.NoError(t, err)
}

func waitForStatus(t *testing.T, f *runtimeFixture, containerID string, want container.ContainerStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		c, err := f.containerRepo.FindByID(context.Background(), containerID)
		if err != nil {
			return false
		}
		return c.Status() == want
	}, 3*time.Second, 10*time.Millisecond, "container %s never reached %s", containerID, want)
}

func TestContainerRuntime_RunsBoundedContainerToCompletion(t *testing.T) {
	// Arrange
	f := newRuntimeFixture(t)
	var iterations int
	var mu sync.Mutex
	f.stubDock(t, func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		mu.Lock()
		iterations++
		mu.Unlock()
		return &appship.DockShipResponse{Status: "docked"}, nil
	})

	// Act
	created, err := f.runtime.Create(context.Background(), CreateSpec{
		Type:          container.ContainerTypeDock,
		PlayerID:      1,
		MaxIterations: 3,
		Config:        map[string]interface{}{"ship_symbol": "AGENT-PROBE-1"},
		AutoStart:     true,
	})

	// Assert
	require.NoError(t, err)
	waitForStatus(t, f, created.ID(), container.ContainerStatusStopped)

	mu.Lock()
	assert.Equal(t, 3, iterations)
	mu.Unlock()
	assert.Equal(t, 3, created.CurrentIteration())
	assert.False(t, f.assignmentRepo.holds("AGENT-PROBE-1"), "lease should be released on completion")
}

func TestContainerRuntime_DuplicateIDRejected(t *testing.T) {
	// Arrange
	f := newRuntimeFixture(t)
	spec := CreateSpec{
		ID:       "dock-PROBE-1-aaaa1111",
		Type:     container.ContainerTypeDock,
		PlayerID: 1,
		Config:   map[string]interface{}{"ship_symbol": "AGENT-PROBE-1"},
	}
	_, err := f.runtime.Create(context.Background(), spec)
	require.NoError(t, err)

	// Act
	_, err = f.runtime.Create(context.Background(), spec)

	// Assert
	var dup *shared.DuplicateError
	require.ErrorAs(t, err, &dup)
}

func TestContainerRuntime_StopDrainsRunningContainer(t *testing.T) {
	// Arrange
	f := newRuntimeFixture(t)
	f.stubDock(t, func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	created, err := f.runtime.Create(context.Background(), CreateSpec{
		Type:      container.ContainerTypeDock,
		PlayerID:  1,
		Config:    map[string]interface{}{"ship_symbol": "AGENT-PROBE-1"},
		AutoStart: true,
	})
	require.NoError(t, err)
	waitForStatus(t, f, created.ID(), container.ContainerStatusRunning)

	// Act
	stopped, err := f.runtime.Stop(context.Background(), created.ID())

	// Assert
	require.NoError(t, err)
	waitForStatus(t, f, created.ID(), container.ContainerStatusStopped)
	assert.Equal(t, container.ContainerStatusStopped, stopped.Status())
	assert.False(t, f.assignmentRepo.holds("AGENT-PROBE-1"))
}

func TestContainerRuntime_OperatorStopBeatsRestartPolicy(t *testing.T) {
	// Arrange
	f := newRuntimeFixture(t)
	started := make(chan struct{}, 16)
	f.stubDock(t, func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		started <- struct{}{}
		<-ctx.Done()
		return nil, errors.New("task blew up on cancel")
	})

	created, err := f.runtime.Create(context.Background(), CreateSpec{
		Type:          container.ContainerTypeDock,
		PlayerID:      1,
		RestartPolicy: "always",
		Config:        map[string]interface{}{"ship_symbol": "AGENT-PROBE-1"},
		AutoStart:     true,
	})
	require.NoError(t, err)
	<-started

	// Act
	_, err = f.runtime.Stop(context.Background(), created.ID())

	// Assert: despite policy "always" and a task error, the operator stop
	// leaves the container STOPPED and never restarted.
	require.NoError(t, err)
	waitForStatus(t, f, created.ID(), container.ContainerStatusStopped)
	assert.Equal(t, 0, created.RestartCount())
}

func TestContainerRuntime_AlwaysPolicyRestartsCleanExit(t *testing.T) {
	// Arrange: a bounded task that completes its single iteration cleanly
	f := newRuntimeFixture(t)
	runs := make(chan struct{}, 16)
	f.stubDock(t, func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		select {
		case runs <- struct{}{}:
		default:
		}
		return &appship.DockShipResponse{Status: "docked"}, nil
	})

	created, err := f.runtime.Create(context.Background(), CreateSpec{
		Type:          container.ContainerTypeDock,
		PlayerID:      1,
		MaxIterations: 1,
		RestartPolicy: "always",
		Config:        map[string]interface{}{"ship_symbol": "AGENT-PROBE-1"},
		AutoStart:     true,
	})
	require.NoError(t, err)

	// Act: wait for a second task run, which only happens if the clean
	// exit went back through the restart path
	<-runs
	select {
	case <-runs:
	case <-time.After(3 * time.Second):
		t.Fatal("always policy never restarted the cleanly exiting task")
	}
	_, err = f.runtime.Stop(context.Background(), created.ID())
	require.NoError(t, err)

	// Assert
	waitForStatus(t, f, created.ID(), container.ContainerStatusStopped)
	assert.GreaterOrEqual(t, created.RestartCount(), 1)
}

func TestContainerRuntime_OnFailureRestartsUntilSuccess(t *testing.T) {
	// Arrange
	f := newRuntimeFixture(t)
	var mu sync.Mutex
	calls := 0
	f.stubDock(t, func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n <= 2 {
			return nil, errors.New("transient dock failure")
		}
		return &appship.DockShipResponse{Status: "docked"}, nil
	})

	// Act
	created, err := f.runtime.Create(context.Background(), CreateSpec{
		Type:          container.ContainerTypeDock,
		PlayerID:      1,
		RestartPolicy: "on-failure",
		Config:        map[string]interface{}{"ship_symbol": "AGENT-PROBE-1"},
		AutoStart:     true,
	})

	// Assert
	require.NoError(t, err)
	waitForStatus(t, f, created.ID(), container.ContainerStatusStopped)
	assert.Equal(t, 2, created.RestartCount())

	mu.Lock()
	assert.Equal(t, 3, calls)
	mu.Unlock()
}

func TestContainerRuntime_NoRestartPolicyLeavesFailed(t *testing.T) {
	// Arrange
	f := newRuntimeFixture(t)
	f.stubDock(t, func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		return nil, errors.New("dock rejected")
	})

	// Act
	created, err := f.runtime.Create(context.Background(), CreateSpec{
		Type:      container.ContainerTypeDock,
		PlayerID:  1,
		Config:    map[string]interface{}{"ship_symbol": "AGENT-PROBE-1"},
		AutoStart: true,
	})

	// Assert
	require.NoError(t, err)
	waitForStatus(t, f, created.ID(), container.ContainerStatusFailed)
	assert.Equal(t, 0, created.RestartCount())
	assert.False(t, f.assignmentRepo.holds("AGENT-PROBE-1"))
}

func TestContainerRuntime_ShipLeaseHasOneWinner(t *testing.T) {
	// Arrange
	f := newRuntimeFixture(t)
	f.stubDock(t, func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	first, err := f.runtime.Create(context.Background(), CreateSpec{
		Type:      container.ContainerTypeDock,
		PlayerID:  1,
		Config:    map[string]interface{}{"ship_symbol": "AGENT-PROBE-1"},
		AutoStart: true,
	})
	require.NoError(t, err)
	waitForStatus(t, f, first.ID(), container.ContainerStatusRunning)

	// Act: a second container for the same ship must lose the lease race
	_, err = f.runtime.Create(context.Background(), CreateSpec{
		Type:      container.ContainerTypeDock,
		PlayerID:  1,
		Config:    map[string]interface{}{"ship_symbol": "AGENT-PROBE-1"},
		AutoStart: true,
	})

	// Assert
	var conflict *shared.ShipAssignmentError
	require.ErrorAs(t, err, &conflict)
}

func TestContainerRuntime_RecoveryRebootsWithoutCountingRestart(t *testing.T) {
	// Arrange: a row persisted as RUNNING with prior restarts, as left
	// behind by a crashed daemon
	f := newRuntimeFixture(t)
	f.stubDock(t, func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		return &appship.DockShipResponse{Status: "docked"}, nil
	})

	now := time.Now()
	orphan := container.ReconstructContainer(
		"dock-PROBE-1-bbbb2222", container.ContainerTypeDock, 1,
		container.ContainerStatusRunning, 5, 2, container.RestartPolicyOnFailure,
		map[string]interface{}{"ship_symbol": "AGENT-PROBE-1", "max_iterations": 1},
		now.Add(-time.Hour), now.Add(-time.Minute), nil,
	)
	require.NoError(t, f.containerRepo.Add(context.Background(), orphan))

	// Act
	recovered, err := f.runtime.Recover(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)
	waitForStatus(t, f, orphan.ID(), container.ContainerStatusStopped)
	assert.Equal(t, 2, orphan.RestartCount(), "recovery must not count as a restart")
	assert.Equal(t, 1, orphan.CurrentIteration(), "iteration counter resets for the rebooted run")
}

func TestContainerRuntime_RemoveRunningContainerRejected(t *testing.T) {
	// Arrange
	f := newRuntimeFixture(t)
	f.stubDock(t, func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	created, err := f.runtime.Create(context.Background(), CreateSpec{
		Type:      container.ContainerTypeDock,
		PlayerID:  1,
		Config:    map[string]interface{}{"ship_symbol": "AGENT-PROBE-1"},
		AutoStart: true,
	})
	require.NoError(t, err)
	waitForStatus(t, f, created.ID(), container.ContainerStatusRunning)

	// Act
	err = f.runtime.Remove(context.Background(), created.ID())

	// Assert
	var invalid *shared.InvalidStateError
	require.ErrorAs(t, err, &invalid)
}

func TestContainerRuntime_RemoveDeletesLogs(t *testing.T) {
	// Arrange
	f := newRuntimeFixture(t)
	created, err := f.runtime.Create(context.Background(), CreateSpec{
		Type:     container.ContainerTypeDock,
		PlayerID: 1,
		Config:   map[string]interface{}{"ship_symbol": "AGENT-PROBE-1"},
	})
	require.NoError(t, err)
	require.NoError(t, f.logRepo.Append(context.Background(), created.ID(), 1, container.LogLevelInfo, "hello", nil))
	_, err = f.runtime.Stop(context.Background(), created.ID())
	require.NoError(t, err)

	// Act
	err = f.runtime.Remove(context.Background(), created.ID())

	// Assert
	require.NoError(t, err)
	assert.Contains(t, f.logRepo.deleted, created.ID())
	assert.Equal(t, container.ContainerStatusRemoved, created.Status())

	rows, err := f.runtime.List(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestContainerRuntime_CreateValidatesConfigUpFront(t *testing.T) {
	// Arrange
	f := newRuntimeFixture(t)

	// Act: navigate without a destination never reaches the repository
	_, err := f.runtime.Create(context.Background(), CreateSpec{
		Type:     container.ContainerTypeNavigate,
		PlayerID: 1,
		Config:   map[string]interface{}{"ship_symbol": "AGENT-PROBE-1"},
	})

	// Assert
	var pErr *paramError
	require.ErrorAs(t, err, &pErr)
	assert.Contains(t, pErr.Error(), "destination")
}

func TestContainerLogWriter_AppendsInEmissionOrder(t *testing.T) {
	// Arrange
	logRepo := newMemoryLogRepo()
	writer := &containerLogWriter{
		containerID: "cnt-log-order",
		playerID:    1,
		logRepo:     logRepo,
		daemonLog:   zerolog.Nop(),
	}

	// Act: burst of lines faster than the store can drain
	const lines = 50
	for i := 0; i < lines; i++ {
		writer.Log("INFO", fmt.Sprintf("line %03d", i), nil)
	}

	// Assert: everything lands, in the order it was emitted
	require.Eventually(t, func() bool {
		count, err := logRepo.CountByContainer(context.Background(), "cnt-log-order")
		return err == nil && count == lines
	}, 3*time.Second, 10*time.Millisecond)

	entries, err := logRepo.FindByContainer(context.Background(), "cnt-log-order", 0)
	require.NoError(t, err)
	require.Len(t, entries, lines)
	for i, entry := range entries {
		assert.Equal(t, fmt.Sprintf("line %03d", i), entry.Message)
		assert.Equal(t, int64(i+1), entry.Sequence)
	}
}
