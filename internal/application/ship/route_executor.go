package ship

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andrescamacho/fleetd/internal/adapters/metrics"
	"github.com/andrescamacho/fleetd/internal/application/logging"
	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/application/ship/strategies"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

const (
	// arrivalBufferSeconds pads the scheduled travel time before the first
	// arrival check; the API clock and ours drift a little
	arrivalBufferSeconds = 3

	// arrivalPollAttempts and arrivalPollSeconds bound the post-wait polling
	// before arrival is forced on the local entity
	arrivalPollAttempts = 5
	arrivalPollSeconds  = 2

	// transientRetryDelay is the single-retry backoff for upstream 5xx
	transientRetryDelay = 2 * time.Second
)

// Sleeper suspends execution, waking early on context cancellation. The
// default sleeps in real time; tests substitute an instant one.
type Sleeper func(ctx context.Context, d time.Duration) error

// RealSleeper sleeps in real time
func RealSleeper(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RouteExecutor flies a planned route segment by segment. Each segment is a
// small state machine: settle any in-progress transit, refuel if the leg
// demands it, orbit, set mode, navigate, wait out the transit, refuel on
// arrival when planned or opportune, then checkpoint the route.
//
// Upstream rate limits and 5xx replies get exactly one retry per ship
// action; a second failure fails the route. Cancellation at any suspension
// point aborts the route at its current segment.
type RouteExecutor struct {
	med            mediator.Mediator
	shipRepo       navigation.ShipRepository
	routeRepo      navigation.RouteRepository
	refuelStrategy strategies.RefuelStrategy
	scanner        *MarketScanner
	clock          shared.Clock
	sleep          Sleeper
}

// RouteExecutorOption customizes executor construction
type RouteExecutorOption func(*RouteExecutor)

// WithClock substitutes the wall clock
func WithClock(clock shared.Clock) RouteExecutorOption {
	return func(e *RouteExecutor) { e.clock = clock }
}

// WithSleeper substitutes the suspension primitive
func WithSleeper(sleep Sleeper) RouteExecutorOption {
	return func(e *RouteExecutor) { e.sleep = sleep }
}

// WithMarketScanner enables opportunistic market scans on marketplace
// arrivals
func WithMarketScanner(scanner *MarketScanner) RouteExecutorOption {
	return func(e *RouteExecutor) { e.scanner = scanner }
}

// NewRouteExecutor creates a route executor
func NewRouteExecutor(
	med mediator.Mediator,
	shipRepo navigation.ShipRepository,
	routeRepo navigation.RouteRepository,
	refuelStrategy strategies.RefuelStrategy,
	opts ...RouteExecutorOption,
) *RouteExecutor {
	e := &RouteExecutor{
		med:            med,
		shipRepo:       shipRepo,
		routeRepo:      routeRepo,
		refuelStrategy: refuelStrategy,
		clock:          shared.NewRealClock(),
		sleep:          RealSleeper,
	}
	if e.refuelStrategy == nil {
		e.refuelStrategy = strategies.NewDefaultRefuelStrategy()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteRoute flies the route to completion. The returned error carries
// the failure; the route's own status records how it ended.
func (e *RouteExecutor) ExecuteRoute(ctx context.Context, route *navigation.Route) error {
	logger := logging.LoggerFromContext(ctx)

	start := e.clock.Now()
	defer func() {
		metrics.RecordRouteCompletion(route.Status(), e.clock.Now().Sub(start).Seconds(), len(route.Segments()), route.TotalFuel())
	}()

	if err := route.StartExecution(); err != nil {
		return err
	}
	if err := e.checkpoint(ctx, route); err != nil {
		return err
	}

	ship, err := e.shipRepo.FindBySymbol(ctx, route.ShipSymbol(), route.PlayerID().Value())
	if err != nil {
		return e.fail(ctx, route, fmt.Errorf("load ship: %w", err))
	}

	// A ship already mid-flight cannot take commands; wait that transit out
	if ship.IsInTransit() {
		if err := e.waitForCurrentTransit(ctx, ship, route); err != nil {
			return err
		}
	}

	if route.RequiresInitialRefuel() {
		if err := e.refuelHere(ctx, ship, route.PlayerID().Value()); err != nil {
			return e.fail(ctx, route, fmt.Errorf("pre-departure refuel: %w", err))
		}
	}

	for !route.IsFinished() {
		segment := route.CurrentSegment()
		if segment == nil {
			break
		}

		if err := e.checkCancelled(ctx, route); err != nil {
			return err
		}

		logger.Log("INFO", "Executing route segment", map[string]interface{}{
			"ship_symbol": ship.Symbol(),
			"route_id":    route.ID(),
			"segment":     route.CurrentSegmentIndex(),
			"from":        segment.FromWaypoint.Symbol,
			"to":          segment.ToWaypoint.Symbol,
			"flight_mode": segment.FlightMode.String(),
		})

		if err := e.executeSegment(ctx, ship, route, segment); err != nil {
			return err
		}

		if err := route.CompleteSegment(); err != nil {
			return e.fail(ctx, route, err)
		}
		if err := e.checkpoint(ctx, route); err != nil {
			return err
		}
	}

	logger.Log("INFO", "Route completed", map[string]interface{}{
		"ship_symbol": ship.Symbol(),
		"route_id":    route.ID(),
		"destination": route.Destination().Symbol,
	})
	return nil
}

// executeSegment runs one leg end to end
func (e *RouteExecutor) executeSegment(ctx context.Context, ship *navigation.Ship, route *navigation.Route, segment *navigation.RouteSegment) error {
	playerID := route.PlayerID().Value()

	// Refuel before departing when the strategy says the leg would bite
	// into the reserve
	if e.refuelStrategy.ShouldRefuelBeforeDeparture(ship, segment) {
		if err := e.refuelHere(ctx, ship, playerID); err != nil {
			return e.fail(ctx, route, fmt.Errorf("refuel before departure: %w", err))
		}
	}

	if err := e.runShipCommand(ctx, ship, playerID, func() (mediator.Request, error) {
		return &OrbitShipCommand{ShipSymbol: ship.Symbol(), PlayerID: playerID, Ship: ship}, nil
	}); err != nil {
		return e.failOrAbort(ctx, route, fmt.Errorf("orbit: %w", err))
	}

	if ship.FlightMode() != segment.FlightMode {
		if err := e.runShipCommand(ctx, ship, playerID, func() (mediator.Request, error) {
			return &SetFlightModeCommand{
				ShipSymbol: ship.Symbol(),
				PlayerID:   playerID,
				FlightMode: segment.FlightMode.String(),
				Ship:       ship,
			}, nil
		}); err != nil {
			return e.failOrAbort(ctx, route, fmt.Errorf("set flight mode: %w", err))
		}
	}

	var travelSeconds int
	err := e.withSingleRetry(ctx, func() error {
		resp, err := e.med.Send(ctx, &NavigateDirectCommand{
			ShipSymbol:  ship.Symbol(),
			Destination: segment.ToWaypoint.Symbol,
			PlayerID:    playerID,
			Ship:        ship,
		})
		if err != nil {
			return err
		}
		if nav, ok := resp.(*NavigateDirectResponse); ok {
			travelSeconds = nav.TravelSeconds
		}
		return nil
	})
	if err != nil {
		return e.failOrAbort(ctx, route, fmt.Errorf("navigate to %s: %w", segment.ToWaypoint.Symbol, err))
	}
	if travelSeconds == 0 {
		travelSeconds = segment.TravelTime
	}

	if err := e.waitForArrival(ctx, ship, route, travelSeconds); err != nil {
		return err
	}

	// Post-arrival refuel: planned stop or opportunistic top-off
	if segment.RequiresRefuel || e.refuelStrategy.ShouldRefuelAfterArrival(ship, segment) {
		if err := e.refuelHere(ctx, ship, playerID); err != nil {
			return e.fail(ctx, route, fmt.Errorf("refuel at %s: %w", segment.ToWaypoint.Symbol, err))
		}
	}

	// Best-effort market scan when the leg lands on a marketplace
	if e.scanner != nil && segment.ToWaypoint.IsMarketplace() {
		if _, err := e.scanner.Scan(ctx, segment.ToWaypoint.Symbol, playerID); err != nil {
			logging.LoggerFromContext(ctx).Log("WARNING", "Market scan failed", map[string]interface{}{
				"ship_symbol": ship.Symbol(),
				"waypoint":    segment.ToWaypoint.Symbol,
				"error":       err.Error(),
			})
		}
	}

	return nil
}

// waitForCurrentTransit sleeps out a transit that was already in progress
// when execution started, then forces local arrival
func (e *RouteExecutor) waitForCurrentTransit(ctx context.Context, ship *navigation.Ship, route *navigation.Route) error {
	wait := 0
	if ship.ArrivalTime() != nil {
		wait = ship.ArrivalTime().WaitSeconds(e.clock)
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Ship in transit, waiting for arrival", map[string]interface{}{
		"ship_symbol":  ship.Symbol(),
		"wait_seconds": wait,
	})

	if err := e.sleep(ctx, time.Duration(wait+arrivalBufferSeconds)*time.Second); err != nil {
		return e.abort(ctx, route, "cancelled while waiting out transit")
	}

	return e.settleArrival(ctx, ship, route)
}

// waitForArrival sleeps out a transit this executor started
func (e *RouteExecutor) waitForArrival(ctx context.Context, ship *navigation.Ship, route *navigation.Route, travelSeconds int) error {
	wait := travelSeconds
	if ship.ArrivalTime() != nil {
		wait = ship.ArrivalTime().WaitSeconds(e.clock)
	}

	if err := e.sleep(ctx, time.Duration(wait+arrivalBufferSeconds)*time.Second); err != nil {
		return e.abort(ctx, route, "cancelled in transit")
	}

	return e.settleArrival(ctx, ship, route)
}

// settleArrival polls the API until the ship reports it is out of transit,
// then forces arrival on the local entity if the API is still lagging
func (e *RouteExecutor) settleArrival(ctx context.Context, ship *navigation.Ship, route *navigation.Route) error {
	playerID := route.PlayerID().Value()

	for attempt := 0; attempt < arrivalPollAttempts; attempt++ {
		fresh, err := e.shipRepo.FindBySymbol(ctx, ship.Symbol(), playerID)
		if err == nil && !fresh.IsInTransit() {
			ship.SetNavStatus(fresh.NavStatus())
			ship.SetLocation(fresh.CurrentLocation())
			ship.SetFuel(fresh.Fuel())
			ship.SetArrivalTime(nil)
			return nil
		}

		if err := e.sleep(ctx, arrivalPollSeconds*time.Second); err != nil {
			return e.abort(ctx, route, "cancelled while settling arrival")
		}
	}

	// The API still says in transit past the scheduled time; trust the
	// schedule and move on
	if ship.IsInTransit() {
		if err := ship.Arrive(); err != nil {
			return e.fail(ctx, route, fmt.Errorf("force arrival: %w", err))
		}
	}
	return nil
}

// refuelHere docks, fills the tank and returns to orbit
func (e *RouteExecutor) refuelHere(ctx context.Context, ship *navigation.Ship, playerID int) error {
	if !ship.CurrentLocation().CanRefuel() {
		return shared.NewInsufficientFuelError(ship.Symbol(), 0, ship.Fuel().Current)
	}

	if err := e.runShipCommand(ctx, ship, playerID, func() (mediator.Request, error) {
		return &DockShipCommand{ShipSymbol: ship.Symbol(), PlayerID: playerID, Ship: ship}, nil
	}); err != nil {
		return err
	}

	if err := e.withSingleRetry(ctx, func() error {
		_, err := e.med.Send(ctx, &RefuelShipCommand{ShipSymbol: ship.Symbol(), PlayerID: playerID, Ship: ship})
		return err
	}); err != nil {
		return err
	}

	return e.runShipCommand(ctx, ship, playerID, func() (mediator.Request, error) {
		return &OrbitShipCommand{ShipSymbol: ship.Symbol(), PlayerID: playerID, Ship: ship}, nil
	})
}

// runShipCommand sends a dock/orbit style command with two recovery rules:
// InvalidNavStatus triggers one fresh state read and retry, transient
// upstream failures get the standard single retry
func (e *RouteExecutor) runShipCommand(ctx context.Context, ship *navigation.Ship, playerID int, build func() (mediator.Request, error)) error {
	attempt := func() error {
		request, err := build()
		if err != nil {
			return err
		}
		return e.withSingleRetry(ctx, func() error {
			_, err := e.med.Send(ctx, request)
			return err
		})
	}

	err := attempt()
	if err == nil {
		return nil
	}
	if !shared.IsInvalidNavStatus(err) {
		return err
	}

	// The local picture of the nav state went stale; re-read and try once
	fresh, loadErr := e.shipRepo.FindBySymbol(ctx, ship.Symbol(), playerID)
	if loadErr != nil {
		return err
	}
	ship.SetNavStatus(fresh.NavStatus())
	ship.SetLocation(fresh.CurrentLocation())
	ship.SetFuel(fresh.Fuel())

	return attempt()
}

// withSingleRetry runs fn, retrying exactly once on a rate limit (after the
// advertised delay) or a transient upstream failure (after a short backoff)
func (e *RouteExecutor) withSingleRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}

	var delay time.Duration
	switch {
	case shared.IsRateLimit(err):
		delay = retryAfterDelay(err)
	case shared.IsTransient(err):
		delay = transientRetryDelay
	default:
		return err
	}

	if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
		return sleepErr
	}
	return fn()
}

func retryAfterDelay(err error) time.Duration {
	var rateErr *shared.RateLimitError
	if errors.As(err, &rateErr) && rateErr.RetryAfterSeconds > 0 {
		return time.Duration(rateErr.RetryAfterSeconds * float64(time.Second))
	}
	return time.Second
}

// checkCancelled aborts the route when the context died between segments
func (e *RouteExecutor) checkCancelled(ctx context.Context, route *navigation.Route) error {
	if ctx.Err() != nil {
		return e.abort(ctx, route, "cancelled between segments")
	}
	return nil
}

// abort marks the route aborted at its current segment and checkpoints it.
// The returned error is the cancellation.
func (e *RouteExecutor) abort(ctx context.Context, route *navigation.Route, reason string) error {
	route.Abort(reason)
	e.persistBestEffort(route)
	if err := ctx.Err(); err != nil {
		return err
	}
	return context.Canceled
}

// fail marks the route failed and checkpoints it, passing the cause through
func (e *RouteExecutor) fail(ctx context.Context, route *navigation.Route, cause error) error {
	_ = route.FailRoute(cause.Error())
	e.persistBestEffort(route)
	return cause
}

// failOrAbort distinguishes a cancellation surfacing as a command error
// from a genuine failure
func (e *RouteExecutor) failOrAbort(ctx context.Context, route *navigation.Route, cause error) error {
	if ctx.Err() != nil {
		return e.abort(ctx, route, cause.Error())
	}
	return e.fail(ctx, route, cause)
}

func (e *RouteExecutor) checkpoint(ctx context.Context, route *navigation.Route) error {
	if e.routeRepo == nil {
		return nil
	}
	if err := e.routeRepo.Save(ctx, route); err != nil {
		return fmt.Errorf("checkpoint route %s: %w", route.ID(), err)
	}
	return nil
}

// persistBestEffort saves terminal route state without letting a storage
// error mask the original failure
func (e *RouteExecutor) persistBestEffort(route *navigation.Route) {
	if e.routeRepo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = e.routeRepo.Save(ctx, route)
}
