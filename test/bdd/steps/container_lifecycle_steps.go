package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/fleetd/internal/domain/container"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

type containerLifecycleContext struct {
	clock     *shared.MockClock
	entity    *container.Container
	policy    container.RestartPolicy
	lastError error
}

func (c *containerLifecycleContext) reset() {
	c.clock = shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c.entity = nil
	c.policy = container.RestartPolicyNo
	c.lastError = nil
}

func (c *containerLifecycleContext) aContainerWithPolicyAndIterations(policy string, iterations int) error {
	parsed, err := container.ParseRestartPolicy(policy)
	if err != nil {
		return err
	}
	c.entity, err = container.NewContainer("bdd-test-1234abcd", container.ContainerTypeNavigate, 1, iterations, parsed, map[string]interface{}{
		"ship_symbol": "AGENT-1",
		"destination": "X1-AA-B2",
	}, c.clock)
	return err
}

func (c *containerLifecycleContext) aRunningContainer() error {
	if err := c.aContainerWithPolicyAndIterations("no", 3); err != nil {
		return err
	}
	if err := c.entity.MarkStarting(); err != nil {
		return err
	}
	return c.entity.MarkRunning()
}

func (c *containerLifecycleContext) markStarting() error { return c.entity.MarkStarting() }
func (c *containerLifecycleContext) markRunning() error  { return c.entity.MarkRunning() }
func (c *containerLifecycleContext) requestStop() error  { return c.entity.RequestStop() }
func (c *containerLifecycleContext) markStopped() error  { return c.entity.MarkStopped() }

func (c *containerLifecycleContext) tryRemove() error {
	c.lastError = c.entity.MarkRemoved()
	return nil
}

func (c *containerLifecycleContext) failsWith(message string) error {
	return c.entity.Fail(errors.New(message))
}

func (c *containerLifecycleContext) preparedForRestart() error {
	return c.entity.PrepareRestart()
}

func (c *containerLifecycleContext) preparedForRecovery() error {
	c.entity.PrepareRecovery()
	return nil
}

func (c *containerLifecycleContext) statusShouldBe(want string) error {
	got := string(c.entity.Status())
	if got != want {
		return fmt.Errorf("expected status %s, got %s", want, got)
	}
	return nil
}

func (c *containerLifecycleContext) stopRequestFlagShouldBeSet() error {
	if !c.entity.IsStopRequested() {
		return fmt.Errorf("expected the stop request flag to be set")
	}
	return nil
}

func (c *containerLifecycleContext) operationShouldBeRejected() error {
	if c.lastError == nil {
		return fmt.Errorf("expected the operation to be rejected")
	}
	return nil
}

func (c *containerLifecycleContext) restartCountShouldBe(want int) error {
	if got := c.entity.RestartCount(); got != want {
		return fmt.Errorf("expected restart count %d, got %d", want, got)
	}
	return nil
}

func (c *containerLifecycleContext) theRestartPolicy(policy string) error {
	parsed, err := container.ParseRestartPolicy(policy)
	if err != nil {
		return err
	}
	c.policy = parsed
	return nil
}

func (c *containerLifecycleContext) failedExitShouldRestart() error {
	if !c.policy.ShouldRestart(errors.New("task error")) {
		return fmt.Errorf("expected policy %s to restart a failed exit", c.policy)
	}
	return nil
}

func (c *containerLifecycleContext) failedExitShouldNotRestart() error {
	if c.policy.ShouldRestart(errors.New("task error")) {
		return fmt.Errorf("expected policy %s to leave a failed exit alone", c.policy)
	}
	return nil
}

func (c *containerLifecycleContext) cleanExitShouldRestart() error {
	if !c.policy.ShouldRestart(nil) {
		return fmt.Errorf("expected policy %s to restart a clean exit", c.policy)
	}
	return nil
}

func (c *containerLifecycleContext) cleanExitShouldNotRestart() error {
	if c.policy.ShouldRestart(nil) {
		return fmt.Errorf("expected policy %s to leave a clean exit alone", c.policy)
	}
	return nil
}

// InitializeContainerLifecycleScenario registers the container lifecycle steps
func InitializeContainerLifecycleScenario(sc *godog.ScenarioContext) {
	c := &containerLifecycleContext{}
	sc.Before(func(ctx context.Context, scenario *godog.Scenario) (context.Context, error) {
		c.reset()
		return ctx, nil
	})

	sc.Step(`^a container with restart policy "([^"]*)" and (\d+) iterations$`, c.aContainerWithPolicyAndIterations)
	sc.Step(`^a running container$`, c.aRunningContainer)
	sc.Step(`^I mark the container starting$`, c.markStarting)
	sc.Step(`^I mark the container running$`, c.markRunning)
	sc.Step(`^I request the container to stop$`, c.requestStop)
	sc.Step(`^I mark the container stopped$`, c.markStopped)
	sc.Step(`^I try to remove the container$`, c.tryRemove)
	sc.Step(`^the container fails with "([^"]*)"$`, c.failsWith)
	sc.Step(`^the container is prepared for restart$`, c.preparedForRestart)
	sc.Step(`^the container is prepared for recovery$`, c.preparedForRecovery)
	sc.Step(`^the container status should be "([^"]*)"$`, c.statusShouldBe)
	sc.Step(`^the stop request flag should be set$`, c.stopRequestFlagShouldBeSet)
	sc.Step(`^the operation should be rejected$`, c.operationShouldBeRejected)
	sc.Step(`^the restart count should be (\d+)$`, c.restartCountShouldBe)
	sc.Step(`^the restart policy "([^"]*)"$`, c.theRestartPolicy)
	sc.Step(`^a failed exit should restart$`, c.failedExitShouldRestart)
	sc.Step(`^a failed exit should not restart$`, c.failedExitShouldNotRestart)
	sc.Step(`^a clean exit should restart$`, c.cleanExitShouldRestart)
	sc.Step(`^a clean exit should not restart$`, c.cleanExitShouldNotRestart)
}
