package navigation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// RouteStatus is a route's lifecycle state
type RouteStatus string

const (
	RouteStatusPlanned   RouteStatus = "PLANNED"
	RouteStatusExecuting RouteStatus = "EXECUTING"
	RouteStatusCompleted RouteStatus = "COMPLETED"
	RouteStatusFailed    RouteStatus = "FAILED"
	RouteStatusAborted   RouteStatus = "ABORTED"
)

// RouteSegment is one leg of a planned route. FuelRequired is the cost of
// traversing the leg in FlightMode; RequiresRefuel means the ship must fill
// its tank at ToWaypoint after arriving, before the next leg departs.
type RouteSegment struct {
	FromWaypoint   *shared.Waypoint  `json:"from_waypoint"`
	ToWaypoint     *shared.Waypoint  `json:"to_waypoint"`
	Distance       float64           `json:"distance"`
	FuelRequired   int               `json:"fuel_required"`
	TravelTime     int               `json:"travel_time"`
	FlightMode     shared.FlightMode `json:"flight_mode"`
	RequiresRefuel bool              `json:"requires_refuel"`
}

// IsOrbitalHop reports whether the segment covers zero distance, which the
// game treats as an instantaneous orbital transfer
func (seg *RouteSegment) IsOrbitalHop() bool {
	return seg.Distance == 0
}

// Route is a planned multi-segment path for one ship. Segments form an
// unbroken chain and every leg's fuel cost fits the ship's tank capacity;
// violations are rejected at construction so executors never see them.
type Route struct {
	id                 string
	shipSymbol         string
	playerID           shared.PlayerID
	origin             *shared.Waypoint
	destination        *shared.Waypoint
	segments           []*RouteSegment
	fuelCapacity       int
	preDepartureRefuel bool
	currentSegment     int
	lifecycle          *shared.LifecycleStateMachine
	aborted            bool
	failureReason      string
	createdAt          time.Time
}

// NewRoute builds a validated route from planner output. A leading refuel
// step in the plan has no segment of its own; it arrives here as
// preDepartureRefuel.
func NewRoute(
	shipSymbol string,
	playerID shared.PlayerID,
	segments []*RouteSegment,
	fuelCapacity int,
	preDepartureRefuel bool,
	clock shared.Clock,
) (*Route, error) {
	if shipSymbol == "" {
		return nil, fmt.Errorf("route requires a ship symbol")
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("route requires at least one segment")
	}

	for i, seg := range segments {
		if seg.FromWaypoint == nil || seg.ToWaypoint == nil {
			return nil, fmt.Errorf("segment %d has a nil endpoint", i)
		}
		if i > 0 && segments[i-1].ToWaypoint.Symbol != seg.FromWaypoint.Symbol {
			return nil, fmt.Errorf("segment chain broken at %d: %s does not follow %s",
				i, seg.FromWaypoint.Symbol, segments[i-1].ToWaypoint.Symbol)
		}
		if fuelCapacity > 0 && seg.FuelRequired > fuelCapacity {
			return nil, fmt.Errorf("segment %d needs %d fuel but tank capacity is %d",
				i, seg.FuelRequired, fuelCapacity)
		}
	}

	if clock == nil {
		clock = shared.NewRealClock()
	}

	return &Route{
		id:                 uuid.New().String(),
		shipSymbol:         shipSymbol,
		playerID:           playerID,
		origin:             segments[0].FromWaypoint,
		destination:        segments[len(segments)-1].ToWaypoint,
		segments:           segments,
		fuelCapacity:       fuelCapacity,
		preDepartureRefuel: preDepartureRefuel,
		lifecycle:          shared.NewLifecycleStateMachine(clock),
		createdAt:          clock.Now(),
	}, nil
}

func (r *Route) ID() string                    { return r.id }
func (r *Route) ShipSymbol() string            { return r.shipSymbol }
func (r *Route) PlayerID() shared.PlayerID     { return r.playerID }
func (r *Route) Origin() *shared.Waypoint      { return r.origin }
func (r *Route) Destination() *shared.Waypoint { return r.destination }
func (r *Route) Segments() []*RouteSegment     { return r.segments }
func (r *Route) FuelCapacity() int             { return r.fuelCapacity }
func (r *Route) CurrentSegmentIndex() int      { return r.currentSegment }
func (r *Route) FailureReason() string         { return r.failureReason }
func (r *Route) CreatedAt() time.Time          { return r.createdAt }

// RequiresInitialRefuel reports whether the ship must top off before the
// first leg departs
func (r *Route) RequiresInitialRefuel() bool {
	return r.preDepartureRefuel
}

// Status maps the lifecycle machine onto route statuses
func (r *Route) Status() RouteStatus {
	if r.aborted {
		return RouteStatusAborted
	}
	switch r.lifecycle.Status() {
	case shared.LifecycleStatusPending:
		return RouteStatusPlanned
	case shared.LifecycleStatusRunning:
		return RouteStatusExecuting
	case shared.LifecycleStatusCompleted:
		return RouteStatusCompleted
	case shared.LifecycleStatusFailed:
		return RouteStatusFailed
	default:
		return RouteStatusPlanned
	}
}

// StartExecution transitions the route to EXECUTING
func (r *Route) StartExecution() error {
	if r.aborted {
		return shared.NewInvalidStateError("route", string(RouteStatusAborted), string(RouteStatusExecuting))
	}
	return r.lifecycle.Start()
}

// CurrentSegment returns the segment being executed, or nil past the end
func (r *Route) CurrentSegment() *RouteSegment {
	if r.currentSegment >= len(r.segments) {
		return nil
	}
	return r.segments[r.currentSegment]
}

// CompleteSegment advances to the next segment, completing the route after
// the last one
func (r *Route) CompleteSegment() error {
	if !r.lifecycle.IsRunning() {
		return shared.NewInvalidStateError("route", string(r.Status()), string(RouteStatusExecuting))
	}
	r.currentSegment++
	if r.currentSegment >= len(r.segments) {
		return r.lifecycle.Complete()
	}
	return nil
}

// FailRoute marks the route FAILED with a reason. The ship stays wherever
// the last completed segment left it.
func (r *Route) FailRoute(reason string) error {
	r.failureReason = reason
	return r.lifecycle.Fail(errors.New(reason))
}

// Abort marks the route ABORTED. Callers abort on shutdown or when the
// container driving the route is stopped mid-flight.
func (r *Route) Abort(reason string) {
	r.aborted = true
	r.failureReason = reason
}

// IsFinished reports whether no further execution can happen
func (r *Route) IsFinished() bool {
	return r.aborted || r.lifecycle.IsFinished()
}

// TotalDistance sums segment distances
func (r *Route) TotalDistance() float64 {
	var total float64
	for _, seg := range r.segments {
		total += seg.Distance
	}
	return total
}

// TotalFuel sums segment fuel costs, ignoring refuel top-offs
func (r *Route) TotalFuel() int {
	var total int
	for _, seg := range r.segments {
		total += seg.FuelRequired
	}
	return total
}

// TotalTravelTime sums segment travel times in seconds
func (r *Route) TotalTravelTime() int {
	var total int
	for _, seg := range r.segments {
		total += seg.TravelTime
	}
	return total
}

// RefuelStops counts planned refuels, the pre-departure one included
func (r *Route) RefuelStops() int {
	var count int
	if r.preDepartureRefuel {
		count++
	}
	for _, seg := range r.segments {
		if seg.RequiresRefuel {
			count++
		}
	}
	return count
}

// ReconstructRoute rebuilds a route from persistence without revalidating.
// Recovered EXECUTING routes resume at currentSegment.
func ReconstructRoute(
	id string,
	shipSymbol string,
	playerID shared.PlayerID,
	segments []*RouteSegment,
	fuelCapacity int,
	preDepartureRefuel bool,
	currentSegment int,
	status RouteStatus,
	failureReason string,
	createdAt time.Time,
	clock shared.Clock,
) *Route {
	if clock == nil {
		clock = shared.NewRealClock()
	}

	route := &Route{
		id:                 id,
		shipSymbol:         shipSymbol,
		playerID:           playerID,
		segments:           segments,
		fuelCapacity:       fuelCapacity,
		preDepartureRefuel: preDepartureRefuel,
		currentSegment:     currentSegment,
		lifecycle:          shared.NewLifecycleStateMachine(clock),
		failureReason:      failureReason,
		createdAt:          createdAt,
	}
	if len(segments) > 0 {
		route.origin = segments[0].FromWaypoint
		route.destination = segments[len(segments)-1].ToWaypoint
	}

	var lastErr error
	if failureReason != "" {
		lastErr = errors.New(failureReason)
	}
	now := clock.Now()
	switch status {
	case RouteStatusExecuting:
		route.lifecycle.RecoverFromPersistence(shared.LifecycleStatusRunning, createdAt, now, &createdAt, nil, nil)
	case RouteStatusCompleted:
		route.lifecycle.RecoverFromPersistence(shared.LifecycleStatusCompleted, createdAt, now, &createdAt, &now, nil)
	case RouteStatusFailed:
		route.lifecycle.RecoverFromPersistence(shared.LifecycleStatusFailed, createdAt, now, &createdAt, &now, lastErr)
	case RouteStatusAborted:
		route.aborted = true
	}
	return route
}
