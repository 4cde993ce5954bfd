package ship

import (
	"context"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/application/logging"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/routing"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// RoutePlanner turns solver plans into Route aggregates. The solver speaks
// in flat action lists; the aggregate wants segments, with refuel actions
// folded into the segment they follow and a leading refuel promoted to the
// route's pre-departure flag.
type RoutePlanner struct {
	solver routing.RoutePlanner
}

// NewRoutePlanner creates the planning service
func NewRoutePlanner(solver routing.RoutePlanner) *RoutePlanner {
	return &RoutePlanner{solver: solver}
}

// PlanRoute plans from the ship's current position to the destination. A nil
// route with nil error means the ship is already there.
func (p *RoutePlanner) PlanRoute(
	ctx context.Context,
	ship *navigation.Ship,
	destination string,
	waypoints map[string]*shared.Waypoint,
	preferCruise bool,
) (*navigation.Route, error) {
	plan, err := p.solver.FindOptimalPath(ctx, &routing.PathRequest{
		Waypoints:    waypoints,
		Start:        ship.CurrentLocation().Symbol,
		Goal:         destination,
		CurrentFuel:  ship.Fuel().Current,
		FuelCapacity: ship.Fuel().Capacity,
		EngineSpeed:  ship.EngineSpeed(),
		PreferCruise: preferCruise,
	})
	if err != nil {
		return nil, fmt.Errorf("route solver: %w", err)
	}
	if plan == nil {
		return nil, shared.NewNotFoundError("route", fmt.Sprintf("%s -> %s", ship.CurrentLocation().Symbol, destination))
	}
	if plan.IsEmpty() {
		return nil, nil
	}

	p.logPlan(ctx, ship, destination, plan)

	return p.buildRoute(ship, plan, waypoints)
}

// buildRoute converts plan actions into chained segments
func (p *RoutePlanner) buildRoute(
	ship *navigation.Ship,
	plan *routing.TravelPlan,
	waypoints map[string]*shared.Waypoint,
) (*navigation.Route, error) {
	preDepartureRefuel := plan.Actions[0].Action == routing.ActionRefuel

	var segments []*navigation.RouteSegment
	for _, action := range plan.Actions {
		switch action.Action {
		case routing.ActionTravel:
			from := ship.CurrentLocation()
			if len(segments) > 0 {
				from = segments[len(segments)-1].ToWaypoint
			}

			to, ok := waypoints[action.Waypoint]
			if !ok {
				return nil, fmt.Errorf("plan references unknown waypoint %s", action.Waypoint)
			}

			segments = append(segments, &navigation.RouteSegment{
				FromWaypoint: from,
				ToWaypoint:   to,
				Distance:     action.Distance,
				FuelRequired: action.FuelCost,
				TravelTime:   action.TimeSeconds,
				FlightMode:   action.Mode,
			})

		case routing.ActionRefuel:
			// A refuel after a travel leg belongs to that leg's arrival;
			// a leading refuel became the pre-departure flag above
			if len(segments) > 0 {
				segments[len(segments)-1].RequiresRefuel = true
			}
		}
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("plan has no travel actions")
	}

	return navigation.NewRoute(
		ship.Symbol(),
		ship.PlayerID(),
		segments,
		ship.Fuel().Capacity,
		preDepartureRefuel,
		nil,
	)
}

func (p *RoutePlanner) logPlan(ctx context.Context, ship *navigation.Ship, destination string, plan *routing.TravelPlan) {
	logger := logging.LoggerFromContext(ctx)
	logger.Log("INFO", "Route planned", map[string]interface{}{
		"ship_symbol":    ship.Symbol(),
		"origin":         ship.CurrentLocation().Symbol,
		"destination":    destination,
		"actions":        len(plan.Actions),
		"total_fuel":     plan.TotalFuel,
		"total_time":     plan.TotalTime,
		"total_distance": plan.TotalDistance,
	})
	for i, action := range plan.Actions {
		logger.Log("DEBUG", "Route plan step", map[string]interface{}{
			"ship_symbol":  ship.Symbol(),
			"step":         i,
			"action":       action.Action.String(),
			"waypoint":     action.Waypoint,
			"flight_mode":  action.Mode.String(),
			"fuel_cost":    action.FuelCost,
			"time_seconds": action.TimeSeconds,
		})
	}
}
