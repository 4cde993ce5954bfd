package ship_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/application/ship"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/internal/domain/system"
)

// fakeShipRepo keeps one ship in memory and mirrors commands onto it the
// way the API-backed repository would
type fakeShipRepo struct {
	ship  *navigation.Ship
	clock shared.Clock

	navigateCalls    int
	refuelCalls      int
	navigateFailures []error
}

func (r *fakeShipRepo) FindBySymbol(_ context.Context, _ string, _ int) (*navigation.Ship, error) {
	return r.ship, nil
}

func (r *fakeShipRepo) FindAllByPlayer(_ context.Context, _ int) ([]*navigation.Ship, error) {
	return []*navigation.Ship{r.ship}, nil
}

func (r *fakeShipRepo) Navigate(_ context.Context, s *navigation.Ship, destination *shared.Waypoint, _ int) (*navigation.NavigationResult, error) {
	r.navigateCalls++
	if len(r.navigateFailures) > 0 {
		err := r.navigateFailures[0]
		r.navigateFailures = r.navigateFailures[1:]
		if err != nil {
			return nil, err
		}
	}

	arrivalStamp := r.clock.Now().Add(time.Second).Format(time.RFC3339)
	arrival, _ := shared.NewArrivalTime(arrivalStamp)
	if err := s.StartTransit(destination, arrival); err != nil {
		return nil, err
	}

	fuelCost := shared.FuelCost(s.FlightMode(), s.CurrentLocation().DistanceTo(destination))
	if err := s.ConsumeFuel(fuelCost); err != nil {
		return nil, err
	}

	return &navigation.NavigationResult{
		Destination:    destination.Symbol,
		TravelSeconds:  1,
		ArrivalTimeStr: arrivalStamp,
		FuelConsumed:   fuelCost,
	}, nil
}

func (r *fakeShipRepo) Dock(_ context.Context, s *navigation.Ship, _ int) error {
	_, err := s.EnsureDocked()
	return err
}

func (r *fakeShipRepo) Orbit(_ context.Context, s *navigation.Ship, _ int) error {
	_, err := s.EnsureInOrbit()
	return err
}

func (r *fakeShipRepo) Refuel(_ context.Context, s *navigation.Ship, _ int, units *int) (*navigation.RefuelResult, error) {
	r.refuelCalls++
	added := s.RefuelToFull()
	return &navigation.RefuelResult{FuelAdded: added, CreditsCost: added * 2}, nil
}

func (r *fakeShipRepo) SetFlightMode(_ context.Context, s *navigation.Ship, _ int, mode shared.FlightMode) error {
	return s.SetFlightMode(mode)
}

// fakeRouteRepo records checkpoints
type fakeRouteRepo struct {
	saves int
	last  *navigation.Route
}

func (r *fakeRouteRepo) Save(_ context.Context, route *navigation.Route) error {
	r.saves++
	r.last = route
	return nil
}

func (r *fakeRouteRepo) FindByID(_ context.Context, _ string) (*navigation.Route, error) {
	return r.last, nil
}

func (r *fakeRouteRepo) FindActiveByShip(_ context.Context, _ string, _ int) (*navigation.Route, error) {
	return nil, nil
}

func (r *fakeRouteRepo) ListByShip(_ context.Context, _ string, _ int, _ int) ([]*navigation.Route, error) {
	return nil, nil
}

type executorFixture struct {
	repo      *fakeShipRepo
	routeRepo *fakeRouteRepo
	executor  *ship.RouteExecutor
	waypoints map[string]*shared.Waypoint
	clock     *shared.MockClock
}

func instantSleeper(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

type staticGraphProvider struct {
	waypoints map[string]*shared.Waypoint
}

func (p *staticGraphProvider) GetGraph(_ context.Context, _ string, _ int) (*system.NavigationGraph, error) {
	return nil, fmt.Errorf("not used")
}

func (p *staticGraphProvider) WaypointDictionary(_ context.Context, _ string, _ int) (map[string]*shared.Waypoint, error) {
	return p.waypoints, nil
}

func (p *staticGraphProvider) Invalidate(_ string) {}

func newExecutorFixture(t *testing.T, startStatus navigation.NavStatus, fuel int) *executorFixture {
	t.Helper()

	waypoints := map[string]*shared.Waypoint{}
	for _, spec := range []struct {
		symbol string
		x      float64
		hf     bool
	}{
		{"X1-EX-A", 0, true},
		{"X1-EX-B", 50, true},
		{"X1-EX-C", 100, false},
	} {
		wp, err := shared.NewWaypoint(spec.symbol, spec.x, 0)
		require.NoError(t, err)
		wp.HasFuel = spec.hf
		waypoints[wp.Symbol] = wp
	}

	clock := shared.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s := navigation.ReconstructShip(
		"SHIP-1",
		shared.MustNewPlayerID(1),
		waypoints["X1-EX-A"],
		&shared.Fuel{Current: fuel, Capacity: 400},
		nil,
		30,
		startStatus,
		shared.FlightModeCruise,
	)

	repo := &fakeShipRepo{ship: s, clock: clock}
	routeRepo := &fakeRouteRepo{}

	med := mediator.NewMediator()
	require.NoError(t, mediator.RegisterHandler[*ship.OrbitShipCommand](med, ship.NewOrbitShipHandler(repo)))
	require.NoError(t, mediator.RegisterHandler[*ship.DockShipCommand](med, ship.NewDockShipHandler(repo)))
	require.NoError(t, mediator.RegisterHandler[*ship.RefuelShipCommand](med, ship.NewRefuelShipHandler(repo)))
	require.NoError(t, mediator.RegisterHandler[*ship.SetFlightModeCommand](med, ship.NewSetFlightModeHandler(repo)))
	require.NoError(t, mediator.RegisterHandler[*ship.NavigateDirectCommand](med, ship.NewNavigateDirectHandler(repo, &staticGraphProvider{waypoints: waypoints})))

	executor := ship.NewRouteExecutor(med, repo, routeRepo, nil,
		ship.WithClock(clock),
		ship.WithSleeper(instantSleeper),
	)

	return &executorFixture{repo: repo, routeRepo: routeRepo, executor: executor, waypoints: waypoints, clock: clock}
}

func twoSegmentRoute(t *testing.T, f *executorFixture) *navigation.Route {
	t.Helper()
	segments := []*navigation.RouteSegment{
		{
			FromWaypoint: f.waypoints["X1-EX-A"], ToWaypoint: f.waypoints["X1-EX-B"],
			Distance: 50, FuelRequired: 50, TravelTime: 120,
			FlightMode: shared.FlightModeCruise, RequiresRefuel: true,
		},
		{
			FromWaypoint: f.waypoints["X1-EX-B"], ToWaypoint: f.waypoints["X1-EX-C"],
			Distance: 50, FuelRequired: 50, TravelTime: 120,
			FlightMode: shared.FlightModeCruise,
		},
	}
	route, err := navigation.NewRoute("SHIP-1", shared.MustNewPlayerID(1), segments, 400, false, f.clock)
	require.NoError(t, err)
	return route
}

func TestRouteExecutor_CompletesTwoSegmentRoute(t *testing.T) {
	// Arrange
	f := newExecutorFixture(t, navigation.NavStatusInOrbit, 400)
	route := twoSegmentRoute(t, f)

	// Act
	err := f.executor.ExecuteRoute(context.Background(), route)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, navigation.RouteStatusCompleted, route.Status())
	assert.Equal(t, "X1-EX-C", f.repo.ship.CurrentLocation().Symbol)
	assert.Equal(t, 2, f.repo.navigateCalls)
	// Planned refuel at the first segment's arrival
	assert.GreaterOrEqual(t, f.repo.refuelCalls, 1)
	// Checkpoint after start and after each segment
	assert.GreaterOrEqual(t, f.routeRepo.saves, 3)
}

func TestRouteExecutor_CancellationAbortsRoute(t *testing.T) {
	f := newExecutorFixture(t, navigation.NavStatusInOrbit, 400)
	route := twoSegmentRoute(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.executor.ExecuteRoute(ctx, route)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, navigation.RouteStatusAborted, route.Status())
	assert.Equal(t, 0, f.repo.navigateCalls)
}

func TestRouteExecutor_TransientFailureRetriesOnce(t *testing.T) {
	f := newExecutorFixture(t, navigation.NavStatusInOrbit, 400)
	f.repo.navigateFailures = []error{shared.NewTransientError(502, "bad gateway")}
	route := twoSegmentRoute(t, f)

	err := f.executor.ExecuteRoute(context.Background(), route)

	require.NoError(t, err)
	assert.Equal(t, navigation.RouteStatusCompleted, route.Status())
	// First segment took two attempts, second took one
	assert.Equal(t, 3, f.repo.navigateCalls)
}

func TestRouteExecutor_PersistentTransientFailureFailsRoute(t *testing.T) {
	f := newExecutorFixture(t, navigation.NavStatusInOrbit, 400)
	f.repo.navigateFailures = []error{
		shared.NewTransientError(502, "bad gateway"),
		shared.NewTransientError(502, "bad gateway"),
	}
	route := twoSegmentRoute(t, f)

	err := f.executor.ExecuteRoute(context.Background(), route)

	require.Error(t, err)
	assert.Equal(t, navigation.RouteStatusFailed, route.Status())
	assert.NotEmpty(t, route.FailureReason())
	// Exactly one retry, then the route fails
	assert.Equal(t, 2, f.repo.navigateCalls)
}

func TestRouteExecutor_WaitsOutExistingTransit(t *testing.T) {
	// Ship begins mid-flight; the executor must not issue commands until
	// the transit settles
	f := newExecutorFixture(t, navigation.NavStatusInTransit, 400)
	arrival, err := shared.NewArrivalTime(f.clock.Now().Add(30 * time.Second).Format(time.RFC3339))
	require.NoError(t, err)
	f.repo.ship.SetArrivalTime(arrival)
	route := twoSegmentRoute(t, f)

	execErr := f.executor.ExecuteRoute(context.Background(), route)

	require.NoError(t, execErr)
	assert.Equal(t, navigation.RouteStatusCompleted, route.Status())
	assert.Equal(t, "X1-EX-C", f.repo.ship.CurrentLocation().Symbol)
}

func TestRouteExecutor_PreDepartureRefuelWhenRouteDemandsIt(t *testing.T) {
	f := newExecutorFixture(t, navigation.NavStatusDocked, 100)
	segments := []*navigation.RouteSegment{
		{
			FromWaypoint: f.waypoints["X1-EX-A"], ToWaypoint: f.waypoints["X1-EX-B"],
			Distance: 50, FuelRequired: 50, TravelTime: 120,
			FlightMode: shared.FlightModeCruise,
		},
	}
	route, err := navigation.NewRoute("SHIP-1", shared.MustNewPlayerID(1), segments, 400, true, f.clock)
	require.NoError(t, err)

	execErr := f.executor.ExecuteRoute(context.Background(), route)

	require.NoError(t, execErr)
	assert.Equal(t, navigation.RouteStatusCompleted, route.Status())
	assert.GreaterOrEqual(t, f.repo.refuelCalls, 1)
}
