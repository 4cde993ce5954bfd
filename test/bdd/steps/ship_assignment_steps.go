package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/cucumber/godog"
	"gorm.io/gorm"

	"github.com/andrescamacho/fleetd/internal/adapters/persistence"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/internal/infrastructure/database"
)

type shipAssignmentContext struct {
	db            *gorm.DB
	repo          *persistence.GormShipAssignmentRepository
	acquireErr    error
	releasedCount int
}

func (s *shipAssignmentContext) reset() error {
	if s.db != nil {
		database.Close(s.db)
	}

	db, err := database.NewTestConnection()
	if err != nil {
		return err
	}
	s.db = db
	s.repo = persistence.NewGormShipAssignmentRepository(db, shared.NewRealClock())
	s.acquireErr = nil
	s.releasedCount = 0
	return nil
}

func (s *shipAssignmentContext) noAssignmentFor(playerID int, ship string) error {
	available, err := s.repo.CheckAvailable(context.Background(), ship, playerID)
	if err != nil {
		return err
	}
	if !available {
		return fmt.Errorf("expected ship %s to start out free for player %d", ship, playerID)
	}
	return nil
}

func (s *shipAssignmentContext) containerHoldsShip(containerID, ship string, playerID int) error {
	_, err := s.repo.Acquire(context.Background(), ship, containerID, playerID, "COMMAND")
	return err
}

func (s *shipAssignmentContext) containerAcquiresShip(containerID, ship string, playerID int) error {
	_, s.acquireErr = s.repo.Acquire(context.Background(), ship, containerID, playerID, "COMMAND")
	return nil
}

func (s *shipAssignmentContext) acquisitionShouldSucceed() error {
	if s.acquireErr != nil {
		return fmt.Errorf("expected acquisition to succeed, got %v", s.acquireErr)
	}
	return nil
}

func (s *shipAssignmentContext) acquisitionShouldConflict() error {
	var conflict *shared.ShipAssignmentError
	if !errors.As(s.acquireErr, &conflict) {
		return fmt.Errorf("expected a ship assignment conflict, got %v", s.acquireErr)
	}
	return nil
}

func (s *shipAssignmentContext) shipIsReleased(ship string, playerID int, reason string) error {
	return s.repo.Release(context.Background(), ship, playerID, reason)
}

func (s *shipAssignmentContext) allActiveReleased(reason string) error {
	count, err := s.repo.ReleaseAllActive(context.Background(), reason)
	if err != nil {
		return err
	}
	s.releasedCount = count
	return nil
}

func (s *shipAssignmentContext) releasedCountShouldBe(want int) error {
	if s.releasedCount != want {
		return fmt.Errorf("expected %d released assignments, got %d", want, s.releasedCount)
	}
	return nil
}

func (s *shipAssignmentContext) shipAvailability(ship string, availability string, playerID int) error {
	available, err := s.repo.CheckAvailable(context.Background(), ship, playerID)
	if err != nil {
		return err
	}
	wantAvailable := availability == "available"
	if available != wantAvailable {
		return fmt.Errorf("expected ship %s to be %s for player %d", ship, availability, playerID)
	}
	return nil
}

// InitializeShipAssignmentScenario registers the assignment lock steps
func InitializeShipAssignmentScenario(sc *godog.ScenarioContext) {
	s := &shipAssignmentContext{}
	sc.Before(func(ctx context.Context, scenario *godog.Scenario) (context.Context, error) {
		return ctx, s.reset()
	})

	sc.Step(`^player (\d+) has no assignment for ship "([^"]*)"$`, s.noAssignmentFor)
	sc.Step(`^container "([^"]*)" holds ship "([^"]*)" for player (\d+)$`, s.containerHoldsShip)
	sc.Step(`^container "([^"]*)" acquires ship "([^"]*)" for player (\d+)$`, s.containerAcquiresShip)
	sc.Step(`^the acquisition should succeed$`, s.acquisitionShouldSucceed)
	sc.Step(`^the acquisition should fail with a ship assignment conflict$`, s.acquisitionShouldConflict)
	sc.Step(`^ship "([^"]*)" is released for player (\d+) with reason "([^"]*)"$`, s.shipIsReleased)
	sc.Step(`^all active assignments are released with reason "([^"]*)"$`, s.allActiveReleased)
	sc.Step(`^(\d+) assignments should have been released$`, s.releasedCountShouldBe)
	sc.Step(`^ship "([^"]*)" should be (available|unavailable) for player (\d+)$`, s.shipAvailability)
}
