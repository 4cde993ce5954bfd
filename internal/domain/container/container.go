package container

import (
	"fmt"
	"time"

	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// ContainerStatus is the lifecycle state of a container
type ContainerStatus string

const (
	// ContainerStatusPending indicates the container is created but not started
	ContainerStatusPending ContainerStatus = "PENDING"

	// ContainerStatusStarting indicates the container task is being scheduled
	ContainerStatusStarting ContainerStatus = "STARTING"

	// ContainerStatusRunning indicates the container task is executing
	ContainerStatusRunning ContainerStatus = "RUNNING"

	// ContainerStatusStopping indicates a stop was requested and the task is
	// draining toward its next suspension point
	ContainerStatusStopping ContainerStatus = "STOPPING"

	// ContainerStatusStopped indicates the task exited cleanly or was stopped
	ContainerStatusStopped ContainerStatus = "STOPPED"

	// ContainerStatusFailed indicates the task exited with an error
	ContainerStatusFailed ContainerStatus = "FAILED"

	// ContainerStatusRemoved hides the container from default listings. Only
	// reachable from a non-running status.
	ContainerStatusRemoved ContainerStatus = "REMOVED"
)

// ContainerType categorizes the workflow a container runs
type ContainerType string

const (
	ContainerTypeNavigate         ContainerType = "NAVIGATE"
	ContainerTypeDock             ContainerType = "DOCK"
	ContainerTypeOrbit            ContainerType = "ORBIT"
	ContainerTypeRefuel           ContainerType = "REFUEL"
	ContainerTypeScoutTour        ContainerType = "SCOUT_TOUR"
	ContainerTypeScoutMarkets     ContainerType = "SCOUT_MARKETS"
	ContainerTypeMarketWorker     ContainerType = "MARKET_WORKER"
	ContainerTypeContractWorkflow ContainerType = "CONTRACT_WORKFLOW"
)

// Kind reports the scheduling category. Worker containers drain a
// persistent work queue; command containers run a named workflow for a
// bounded number of iterations.
func (t ContainerType) Kind() string {
	if t == ContainerTypeMarketWorker {
		return "worker"
	}
	return "command"
}

// RestartPolicy controls what the supervisor does when a container task exits
type RestartPolicy string

const (
	// RestartPolicyNo leaves the terminal status as the exit dictates
	RestartPolicyNo RestartPolicy = "no"

	// RestartPolicyOnFailure restarts only when the task exited with an error
	RestartPolicyOnFailure RestartPolicy = "on-failure"

	// RestartPolicyAlways restarts on any exit that was not operator-requested
	RestartPolicyAlways RestartPolicy = "always"
)

// ParseRestartPolicy validates a policy string, defaulting empty to "no"
func ParseRestartPolicy(s string) (RestartPolicy, error) {
	switch RestartPolicy(s) {
	case RestartPolicyNo, RestartPolicyOnFailure, RestartPolicyAlways:
		return RestartPolicy(s), nil
	case "":
		return RestartPolicyNo, nil
	default:
		return "", fmt.Errorf("invalid restart policy %q", s)
	}
}

// ShouldRestart reports whether the policy restarts a task that exited with
// the given error. Operator stops never restart regardless of policy.
func (p RestartPolicy) ShouldRestart(exitErr error) bool {
	switch p {
	case RestartPolicyAlways:
		return true
	case RestartPolicyOnFailure:
		return exitErr != nil
	default:
		return false
	}
}

// Container is a supervised background workflow with lifecycle state. Each
// container runs in its own goroutine; the runtime starts, stops, monitors
// and restarts them independently.
//
// Core state lives in a LifecycleStateMachine; the starting, stopping and
// removed flags layer the container-specific statuses on top.
type Container struct {
	id            string
	containerType ContainerType
	playerID      int

	lifecycle *shared.LifecycleStateMachine

	starting bool
	stopping bool
	removed  bool

	currentIteration int
	maxIterations    int // -1 for unbounded

	restartCount  int
	restartPolicy RestartPolicy

	// Workflow parameters, JSON-serializable. Persisted so recovery can
	// rebuild the command after a daemon restart.
	config map[string]interface{}

	clock shared.Clock
}

// NewContainer creates a container in PENDING state
func NewContainer(
	id string,
	containerType ContainerType,
	playerID int,
	maxIterations int,
	restartPolicy RestartPolicy,
	config map[string]interface{},
	clock shared.Clock,
) (*Container, error) {
	if id == "" {
		return nil, fmt.Errorf("container id cannot be empty")
	}
	if playerID <= 0 {
		return nil, fmt.Errorf("container requires a positive player id")
	}
	if restartPolicy == "" {
		restartPolicy = RestartPolicyNo
	}
	if maxIterations == 0 {
		maxIterations = 1
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}

	return &Container{
		id:            id,
		containerType: containerType,
		playerID:      playerID,
		lifecycle:     shared.NewLifecycleStateMachine(clock),
		maxIterations: maxIterations,
		restartPolicy: restartPolicy,
		config:        config,
		clock:         clock,
	}, nil
}

func (c *Container) ID() string                     { return c.id }
func (c *Container) Type() ContainerType            { return c.containerType }
func (c *Container) PlayerID() int                  { return c.playerID }
func (c *Container) CurrentIteration() int          { return c.currentIteration }
func (c *Container) MaxIterations() int             { return c.maxIterations }
func (c *Container) RestartCount() int              { return c.restartCount }
func (c *Container) Policy() RestartPolicy          { return c.restartPolicy }
func (c *Container) Config() map[string]interface{} { return c.config }

func (c *Container) CreatedAt() time.Time  { return c.lifecycle.CreatedAt() }
func (c *Container) UpdatedAt() time.Time  { return c.lifecycle.UpdatedAt() }
func (c *Container) StartedAt() *time.Time { return c.lifecycle.StartedAt() }
func (c *Container) StoppedAt() *time.Time { return c.lifecycle.StoppedAt() }
func (c *Container) LastError() error      { return c.lifecycle.LastError() }

// Status reports the container status, layering the starting, stopping and
// removed flags over the lifecycle machine. A cleanly completed task reads
// as STOPPED; containers have no COMPLETED vocabulary.
func (c *Container) Status() ContainerStatus {
	if c.removed {
		return ContainerStatusRemoved
	}
	if c.stopping {
		return ContainerStatusStopping
	}
	if c.starting {
		return ContainerStatusStarting
	}

	switch c.lifecycle.Status() {
	case shared.LifecycleStatusPending:
		return ContainerStatusPending
	case shared.LifecycleStatusRunning:
		return ContainerStatusRunning
	case shared.LifecycleStatusCompleted, shared.LifecycleStatusStopped:
		return ContainerStatusStopped
	case shared.LifecycleStatusFailed:
		return ContainerStatusFailed
	default:
		return ContainerStatusPending
	}
}

// MarkStarting begins the start transition. Valid from PENDING, STOPPED and
// FAILED; a finished lifecycle is reset first so the machine can run again.
func (c *Container) MarkStarting() error {
	switch c.Status() {
	case ContainerStatusPending, ContainerStatusStopped, ContainerStatusFailed:
	default:
		return shared.NewInvalidStateError("container "+c.id, string(c.Status()), "start")
	}

	if c.lifecycle.IsFinished() {
		c.lifecycle.ResetForRestart()
	}
	c.starting = true
	c.stopping = false
	c.lifecycle.UpdateTimestamp()
	return nil
}

// MarkRunning completes the start transition
func (c *Container) MarkRunning() error {
	if !c.starting {
		return shared.NewInvalidStateError("container "+c.id, string(c.Status()), "run")
	}

	c.starting = false
	return c.lifecycle.Start()
}

// RequestStop begins a graceful shutdown. RUNNING and STARTING move to
// STOPPING; PENDING goes straight to STOPPED. Stopping a finished container
// is an error.
func (c *Container) RequestStop() error {
	switch c.Status() {
	case ContainerStatusRunning, ContainerStatusStarting:
		c.starting = false
		c.stopping = true
		c.lifecycle.UpdateTimestamp()
		return nil
	case ContainerStatusPending:
		return c.lifecycle.Stop()
	default:
		return shared.NewInvalidStateError("container "+c.id, string(c.Status()), "stop")
	}
}

// MarkStopped finalizes a stop, either after a requested drain or when the
// task exits cleanly on its own
func (c *Container) MarkStopped() error {
	if c.stopping {
		c.stopping = false
		return c.lifecycle.Stop()
	}
	if c.lifecycle.IsRunning() {
		return c.lifecycle.Stop()
	}
	return shared.NewInvalidStateError("container "+c.id, string(c.Status()), "finalize stop")
}

// Fail records the task error and moves to FAILED
func (c *Container) Fail(err error) error {
	status := c.Status()
	if status == ContainerStatusStopped || status == ContainerStatusFailed || status == ContainerStatusRemoved {
		return shared.NewInvalidStateError("container "+c.id, string(status), "fail")
	}

	c.starting = false
	c.stopping = false
	return c.lifecycle.Fail(err)
}

// MarkRemoved hides the container from default listings. Running, starting
// and stopping containers cannot be removed.
func (c *Container) MarkRemoved() error {
	switch c.Status() {
	case ContainerStatusPending, ContainerStatusStopped, ContainerStatusFailed:
		c.removed = true
		c.lifecycle.UpdateTimestamp()
		return nil
	case ContainerStatusRemoved:
		return nil
	default:
		return shared.NewInvalidStateError("container "+c.id, string(c.Status()), "remove")
	}
}

// IsStopRequested reports whether an operator stop is in flight. The
// supervisor consults this on task exit so stops beat restart policies.
func (c *Container) IsStopRequested() bool {
	return c.stopping
}

func (c *Container) IsRunning() bool { return c.Status() == ContainerStatusRunning }
func (c *Container) IsRemoved() bool { return c.removed }

// IsFinished reports whether the container is in a terminal status
func (c *Container) IsFinished() bool {
	switch c.Status() {
	case ContainerStatusStopped, ContainerStatusFailed, ContainerStatusRemoved:
		return true
	default:
		return false
	}
}

// IncrementIteration advances the iteration counter of a running task
func (c *Container) IncrementIteration() error {
	if c.Status() != ContainerStatusRunning {
		return shared.NewInvalidStateError("container "+c.id, string(c.Status()), "iterate")
	}

	c.currentIteration++
	c.lifecycle.UpdateTimestamp()
	return nil
}

// ShouldContinue reports whether the task has iterations remaining
func (c *Container) ShouldContinue() bool {
	if c.maxIterations == -1 {
		return true
	}
	return c.currentIteration < c.maxIterations
}

// PrepareRestart readies a finished container for a policy-driven restart,
// counting the attempt. The supervisor then walks the normal start path.
func (c *Container) PrepareRestart() error {
	status := c.Status()
	if status != ContainerStatusFailed && status != ContainerStatusStopped {
		return shared.NewInvalidStateError("container "+c.id, string(status), "restart")
	}

	c.lifecycle.ResetForRestart()
	c.currentIteration = 0
	c.restartCount++
	return nil
}

// PrepareRecovery readies a recovered container for rebooting after a daemon
// restart. Unlike PrepareRestart it does not count against the restart
// counter; only in-process restarts do.
func (c *Container) PrepareRecovery() {
	c.starting = false
	c.stopping = false
	c.currentIteration = 0
	c.lifecycle.ResetForRestart()
}

// UpdateConfig merges new values into the workflow parameters
func (c *Container) UpdateConfig(updates map[string]interface{}) {
	if c.config == nil {
		c.config = make(map[string]interface{})
	}
	for key, value := range updates {
		c.config[key] = value
	}
	c.lifecycle.UpdateTimestamp()
}

// ConfigValue retrieves one workflow parameter
func (c *Container) ConfigValue(key string) (interface{}, bool) {
	if c.config == nil {
		return nil, false
	}
	value, exists := c.config[key]
	return value, exists
}

// RuntimeDuration is how long the container has been, or was, running
func (c *Container) RuntimeDuration() time.Duration {
	return c.lifecycle.RuntimeDuration()
}

func (c *Container) String() string {
	return fmt.Sprintf("Container[%s, type=%s, status=%s, iteration=%d/%d, restarts=%d]",
		c.id, c.containerType, c.Status(), c.currentIteration, c.maxIterations, c.restartCount)
}

// ReconstructContainer rebuilds a container from persistence. The persisted
// status is restored verbatim; recovery decides separately what to do with
// RUNNING and STARTING rows.
func ReconstructContainer(
	id string,
	containerType ContainerType,
	playerID int,
	status ContainerStatus,
	currentIteration int,
	restartCount int,
	restartPolicy RestartPolicy,
	config map[string]interface{},
	createdAt, updatedAt time.Time,
	clock shared.Clock,
) *Container {
	if clock == nil {
		clock = shared.NewRealClock()
	}

	c := &Container{
		id:               id,
		containerType:    containerType,
		playerID:         playerID,
		lifecycle:        shared.NewLifecycleStateMachine(clock),
		currentIteration: currentIteration,
		maxIterations:    -1,
		restartCount:     restartCount,
		restartPolicy:    restartPolicy,
		config:           config,
		clock:            clock,
	}

	var lifecycleStatus shared.LifecycleStatus
	switch status {
	case ContainerStatusPending:
		lifecycleStatus = shared.LifecycleStatusPending
	case ContainerStatusStarting:
		lifecycleStatus = shared.LifecycleStatusPending
		c.starting = true
	case ContainerStatusRunning:
		lifecycleStatus = shared.LifecycleStatusRunning
	case ContainerStatusStopping:
		lifecycleStatus = shared.LifecycleStatusRunning
		c.stopping = true
	case ContainerStatusStopped:
		lifecycleStatus = shared.LifecycleStatusStopped
	case ContainerStatusFailed:
		lifecycleStatus = shared.LifecycleStatusFailed
	case ContainerStatusRemoved:
		lifecycleStatus = shared.LifecycleStatusStopped
		c.removed = true
	default:
		lifecycleStatus = shared.LifecycleStatusPending
	}

	var startedAt *time.Time
	if lifecycleStatus == shared.LifecycleStatusRunning {
		startedAt = &updatedAt
	}
	var stoppedAt *time.Time
	if lifecycleStatus == shared.LifecycleStatusStopped || lifecycleStatus == shared.LifecycleStatusFailed {
		stoppedAt = &updatedAt
	}
	c.lifecycle.RecoverFromPersistence(lifecycleStatus, createdAt, updatedAt, startedAt, stoppedAt, nil)

	if maxIter, ok := config["max_iterations"]; ok {
		if n, ok := toInt(maxIter); ok {
			c.maxIterations = n
		}
	}
	return c
}

// toInt coerces JSON-decoded numerics, which arrive as float64
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
