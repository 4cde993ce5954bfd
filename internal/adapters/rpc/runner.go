package rpc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/andrescamacho/fleetd/internal/adapters/metrics"
	"github.com/andrescamacho/fleetd/internal/application/logging"
	"github.com/andrescamacho/fleetd/internal/application/mediator"
	appship "github.com/andrescamacho/fleetd/internal/application/ship"
	"github.com/andrescamacho/fleetd/internal/domain/container"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/infrastructure/database"
)

const (
	// persistTimeout bounds background status and log writes so a wedged
	// database cannot hang a stopping runner
	persistTimeout = 5 * time.Second

	// initialRestartBackoff is the wait before the first policy-driven
	// restart; each subsequent restart doubles it up to maxRestartBackoff
	initialRestartBackoff = time.Second
	maxRestartBackoff     = time.Minute
)

// ContainerRunner supervises one container task in its own goroutine. It
// owns the entity's lifecycle transitions while the task runs, persists
// every edge, streams workflow output into the container log, and applies
// the restart policy when the task exits.
type ContainerRunner struct {
	mu     sync.RWMutex
	entity *container.Container

	command        mediator.Request
	med            mediator.Mediator
	containerRepo  container.ContainerRepository
	logRepo        container.ContainerLogRepository
	assignmentRepo navigation.ShipAssignmentRepository
	daemonLog      zerolog.Logger
	sleep          appship.Sleeper

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewContainerRunner wires a runner around an already-persisted container
func NewContainerRunner(
	entity *container.Container,
	command mediator.Request,
	med mediator.Mediator,
	containerRepo container.ContainerRepository,
	logRepo container.ContainerLogRepository,
	assignmentRepo navigation.ShipAssignmentRepository,
	daemonLog zerolog.Logger,
) *ContainerRunner {
	return &ContainerRunner{
		entity:         entity,
		command:        command,
		med:            med,
		containerRepo:  containerRepo,
		logRepo:        logRepo,
		assignmentRepo: assignmentRepo,
		daemonLog:      daemonLog,
		sleep:          appship.RealSleeper,
	}
}

// SetSleeper swaps the pause function, used by tests
func (r *ContainerRunner) SetSleeper(sleep appship.Sleeper) { r.sleep = sleep }

// Container returns the supervised entity
func (r *ContainerRunner) Container() *container.Container {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entity
}

// Done is closed when the task goroutine has fully exited
func (r *ContainerRunner) Done() <-chan struct{} { return r.done }

// Start moves the container to STARTING and launches the task goroutine
func (r *ContainerRunner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done != nil {
		select {
		case <-r.done:
		default:
			return nil // already running
		}
	}

	if err := r.entity.MarkStarting(); err != nil {
		return err
	}
	if err := r.containerRepo.Update(context.Background(), r.entity); err != nil {
		return err
	}

	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.done = make(chan struct{})
	go r.execute()
	return nil
}

// Stop requests a graceful shutdown and waits up to grace for the task to
// drain. A task that outlives the grace period is marked FAILED; its
// goroutine keeps winding down in the background but the container is no
// longer considered alive.
func (r *ContainerRunner) Stop(grace time.Duration) error {
	r.mu.Lock()
	if err := r.entity.RequestStop(); err != nil {
		r.mu.Unlock()
		return err
	}
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	r.persist()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-time.After(grace):
		r.daemonLog.Warn().
			Str("container_id", r.entity.ID()).
			Dur("grace", grace).
			Msg("container task did not stop within grace period")
		r.transition(func() error {
			return r.entity.Fail(errors.New("task did not stop within grace period"))
		})
		return nil
	}
}

// execute is the task goroutine: run iterations, persist the exit, and
// apply the restart policy.
func (r *ContainerRunner) execute() {
	defer close(r.done)

	logger := &containerLogWriter{
		containerID: r.entity.ID(),
		playerID:    r.entity.PlayerID(),
		logRepo:     r.logRepo,
		daemonLog:   r.daemonLog,
	}
	ctx := logging.WithLogger(r.ctx, logger)

	if !r.transition(r.entity.MarkRunning) {
		return
	}
	logger.Log("INFO", "Container started", map[string]interface{}{
		"type":   string(r.entity.Type()),
		"config": r.entity.Config(),
	})

	for {
		err := r.runIterations(ctx)

		if r.stopRequested() {
			// Operator stop wins over the restart policy no matter
			// how the task exited.
			r.finish(logger, r.entity.MarkStopped, "Container stopped", "stopped")
			return
		}

		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			// Cancelled without an explicit stop request: the daemon
			// itself is going down. Leave a clean status behind.
			r.finish(logger, r.entity.MarkStopped, "Container interrupted by shutdown", "daemon_shutdown")
			return
		case database.IsClosedErr(err):
			// Storage is gone; nothing to persist, nothing to log.
			return
		}

		// The policy sees every other exit, clean ones included: "always"
		// restarts a task that ran out of iterations.
		if !r.entity.Policy().ShouldRestart(err) {
			if err == nil {
				r.finish(logger, r.entity.MarkStopped, "Container completed", "completed")
				return
			}
			failErr := err
			r.finish(logger, func() error { return r.entity.Fail(failErr) }, "Container failed", "failed")
			return
		}

		if !r.restart(ctx, logger, err) {
			return
		}
	}
}

// runIterations drives the workflow command until iterations are exhausted,
// the context is cancelled, or the command errors.
func (r *ContainerRunner) runIterations(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if r.stopRequested() {
			return nil
		}

		if _, err := r.med.Send(ctx, r.command); err != nil {
			return err
		}

		if !r.transition(r.entity.IncrementIteration) {
			return nil
		}
		metrics.RecordContainerIteration(r.entity.Type())
		if !r.entity.ShouldContinue() {
			return nil
		}

		if interval := r.iterationInterval(); interval > 0 {
			if err := r.sleep(ctx, interval); err != nil {
				return err
			}
		}
	}
}

// restart records the exit, backs off, and walks the entity back through
// the normal start transitions. A nil cause is a clean exit being restarted
// under the "always" policy. Returns false when the runner should exit
// instead of looping again.
func (r *ContainerRunner) restart(ctx context.Context, logger *containerLogWriter, cause error) bool {
	backoff := restartBackoff(r.entity.RestartCount())

	if cause != nil {
		r.transition(func() error { return r.entity.Fail(cause) })
		logger.Log("WARNING", "Container task failed, restarting", map[string]interface{}{
			"error":           cause.Error(),
			"restart_count":   r.entity.RestartCount(),
			"backoff_seconds": backoff.Seconds(),
		})
	} else {
		r.transition(r.entity.MarkStopped)
		logger.Log("INFO", "Container completed, restarting", map[string]interface{}{
			"restart_count":   r.entity.RestartCount(),
			"backoff_seconds": backoff.Seconds(),
		})
	}

	if err := r.sleep(ctx, backoff); err != nil {
		r.releaseAssignments("cancelled_during_backoff")
		return false
	}
	if r.stopRequested() {
		r.finish(logger, r.entity.MarkStopped, "Container stopped", "stopped")
		return false
	}

	ok := r.transition(func() error {
		if err := r.entity.PrepareRestart(); err != nil {
			return err
		}
		if err := r.entity.MarkStarting(); err != nil {
			return err
		}
		return r.entity.MarkRunning()
	})
	if !ok {
		return false
	}
	metrics.RecordContainerRestart(r.entity.Type())
	logger.Log("INFO", "Container restarted", map[string]interface{}{
		"restart_count": r.entity.RestartCount(),
	})
	return true
}

// finish applies a terminal transition, persists it, and frees the
// container's ship leases
func (r *ContainerRunner) finish(logger *containerLogWriter, edge func() error, message, reason string) {
	if r.transition(edge) {
		logger.Log("INFO", message, map[string]interface{}{
			"iterations": r.entity.CurrentIteration(),
		})
	}
	metrics.RecordContainerCompletion(r.entity.Type(), r.entity.Status(), r.entity.RuntimeDuration().Seconds())
	r.releaseAssignments(reason)
}

// transition applies an entity edge under the lock and persists the result.
// A database that has been closed underneath us ends the runner quietly.
func (r *ContainerRunner) transition(edge func() error) bool {
	r.mu.Lock()
	err := edge()
	r.mu.Unlock()

	if err != nil {
		r.daemonLog.Warn().
			Str("container_id", r.entity.ID()).
			Err(err).
			Msg("container transition rejected")
		return false
	}
	return r.persist()
}

func (r *ContainerRunner) persist() bool {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	r.mu.RLock()
	err := r.containerRepo.Update(ctx, r.entity)
	r.mu.RUnlock()

	if err != nil {
		if database.IsClosedErr(err) {
			return false
		}
		r.daemonLog.Warn().
			Str("container_id", r.entity.ID()).
			Err(err).
			Msg("failed to persist container state")
	}
	return true
}

func (r *ContainerRunner) releaseAssignments(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	err := r.assignmentRepo.ReleaseAllForContainer(ctx, r.entity.ID(), r.entity.PlayerID(), reason)
	if err != nil && !database.IsClosedErr(err) {
		r.daemonLog.Warn().
			Str("container_id", r.entity.ID()).
			Err(err).
			Msg("failed to release ship assignments")
	}
}

func (r *ContainerRunner) stopRequested() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entity.IsStopRequested()
}

// iterationInterval reads the optional pause between iterations from the
// container config
func (r *ContainerRunner) iterationInterval() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	raw, ok := r.entity.ConfigValue("interval_seconds")
	if !ok {
		return 0
	}
	switch n := raw.(type) {
	case int:
		return time.Duration(n) * time.Second
	case int64:
		return time.Duration(n) * time.Second
	case float64:
		return time.Duration(n * float64(time.Second))
	default:
		return 0
	}
}

// restartBackoff doubles the wait per prior restart, capped
func restartBackoff(restartCount int) time.Duration {
	backoff := initialRestartBackoff
	for i := 0; i < restartCount; i++ {
		backoff *= 2
		if backoff >= maxRestartBackoff {
			return maxRestartBackoff
		}
	}
	return backoff
}

// containerLogWriter persists workflow log lines into the container's log
// stream. Writes are asynchronous so a slow database cannot stall the task,
// but at most one append per container is in flight at a time: the
// repository allocates sequences as MAX+1, so concurrent appends would
// collide, and entries must commit in emission order.
type containerLogWriter struct {
	containerID string
	playerID    int
	logRepo     container.ContainerLogRepository
	daemonLog   zerolog.Logger

	mu       sync.Mutex
	queue    []logRecord
	draining bool
}

type logRecord struct {
	level    string
	message  string
	metadata map[string]interface{}
}

func (w *containerLogWriter) Log(level, message string, metadata map[string]interface{}) {
	w.daemonLog.Debug().
		Str("container_id", w.containerID).
		Str("level", level).
		Fields(metadata).
		Msg(message)

	w.mu.Lock()
	w.queue = append(w.queue, logRecord{level: level, message: message, metadata: metadata})
	if w.draining {
		w.mu.Unlock()
		return
	}
	w.draining = true
	w.mu.Unlock()

	go w.drain()
}

// drain writes queued records one at a time, in order, and exits once the
// queue is empty. Log restarts it on the next record.
func (w *containerLogWriter) drain() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.draining = false
			w.mu.Unlock()
			return
		}
		record := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err := w.logRepo.Append(ctx, w.containerID, w.playerID, container.LogLevel(record.level), record.message, record.metadata)
		cancel()
		if err != nil && !database.IsClosedErr(err) {
			w.daemonLog.Warn().
				Str("container_id", w.containerID).
				Err(err).
				Msg("failed to persist container log entry")
		}
	}
}
