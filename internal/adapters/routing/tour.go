package routing

import (
	"context"
	"time"

	domainRouting "github.com/andrescamacho/fleetd/internal/domain/routing"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// OptimizeTour orders the requested stops with nearest-neighbour construction
// followed by 2-opt improvement, then stitches the per-leg plans together with
// the running fuel state. A nil plan means some leg is infeasible.
func (s *Solver) OptimizeTour(ctx context.Context, req *domainRouting.TourRequest) (*domainRouting.TourPlan, error) {
	if _, ok := req.Waypoints[req.Start]; !ok {
		return nil, nil
	}

	stops := dedupeStops(req.Start, req.Stops)
	for _, stop := range stops {
		if _, ok := req.Waypoints[stop]; !ok {
			return nil, nil
		}
	}

	if len(stops) == 0 {
		return &domainRouting.TourPlan{VisitOrder: []string{}, Actions: []*domainRouting.PlanAction{}}, nil
	}

	deadline := time.Now().Add(s.tourTimeout)

	order := s.nearestNeighbourOrder(req.Start, stops, req)
	order = s.twoOptImprove(req.Start, order, req, deadline, req.ReturnToStart)

	return s.stitchTour(ctx, req, order)
}

// legEstimate approximates one leg's travel time assuming a full tank, which
// is what the ordering heuristics compare on. Exact fuel accounting happens
// when the ordered tour is stitched.
func (s *Solver) legEstimate(from, to string, req *domainRouting.TourRequest) int {
	a := req.Waypoints[from]
	b := req.Waypoints[to]

	distance := a.DistanceTo(b)
	if a.IsOrbitalOf(b) {
		distance = 0
	}

	mode := shared.FlightModeCruise
	if distance > 0 {
		selected, usable := s.selector.SelectOptimalMode(distance, req.FuelCapacity, s.safetyMargin, req.PreferCruise)
		if usable {
			mode = selected
		} else {
			mode = shared.FlightModeDrift
		}
	}
	return shared.TravelTime(mode, distance, req.EngineSpeed)
}

func (s *Solver) nearestNeighbourOrder(start string, stops []string, req *domainRouting.TourRequest) []string {
	remaining := make(map[string]bool, len(stops))
	for _, stop := range stops {
		remaining[stop] = true
	}

	order := make([]string, 0, len(stops))
	current := start
	for len(remaining) > 0 {
		best := ""
		bestTime := 0
		for stop := range remaining {
			t := s.legEstimate(current, stop, req)
			if best == "" || t < bestTime {
				best = stop
				bestTime = t
			}
		}
		order = append(order, best)
		delete(remaining, best)
		current = best
	}
	return order
}

// twoOptImprove reverses order segments while that shortens the estimated
// tour, stopping at the deadline and returning the best order found so far
func (s *Solver) twoOptImprove(start string, order []string, req *domainRouting.TourRequest, deadline time.Time, closed bool) []string {
	if len(order) < 3 {
		return order
	}

	tourTime := func(o []string) int {
		total := 0
		current := start
		for _, stop := range o {
			total += s.legEstimate(current, stop, req)
			current = stop
		}
		if closed {
			total += s.legEstimate(current, start, req)
		}
		return total
	}

	best := tourTime(order)
	improved := true
	for improved {
		improved = false
		for i := 0; i < len(order)-1; i++ {
			for j := i + 1; j < len(order); j++ {
				if time.Now().After(deadline) {
					return order
				}

				reverse(order, i, j)
				if t := tourTime(order); t < best {
					best = t
					improved = true
				} else {
					reverse(order, i, j)
				}
			}
		}
	}
	return order
}

// stitchTour plans each leg of the ordered tour with the real fuel state
// carried forward from the previous legs
func (s *Solver) stitchTour(ctx context.Context, req *domainRouting.TourRequest, order []string) (*domainRouting.TourPlan, error) {
	tour := &domainRouting.TourPlan{
		VisitOrder: order,
		Actions:    []*domainRouting.PlanAction{},
	}

	targets := order
	if req.ReturnToStart {
		targets = append(append([]string{}, order...), req.Start)
	}

	current := req.Start
	fuel := req.CurrentFuel
	for _, target := range targets {
		plan, err := s.FindOptimalPath(ctx, &domainRouting.PathRequest{
			Waypoints:    req.Waypoints,
			Start:        current,
			Goal:         target,
			CurrentFuel:  fuel,
			FuelCapacity: req.FuelCapacity,
			EngineSpeed:  req.EngineSpeed,
			PreferCruise: req.PreferCruise,
		})
		if err != nil {
			return nil, err
		}
		if plan == nil {
			return nil, nil
		}

		tour.Actions = append(tour.Actions, plan.Actions...)
		tour.TotalFuel += plan.TotalFuel
		tour.TotalTime += plan.TotalTime
		tour.TotalDistance += plan.TotalDistance

		for _, action := range plan.Actions {
			if action.Action == domainRouting.ActionRefuel {
				fuel = req.FuelCapacity
			} else {
				fuel -= action.FuelCost
			}
		}
		current = target
	}

	return tour, nil
}

// dedupeStops drops duplicate stops and the start itself while keeping order
func dedupeStops(start string, stops []string) []string {
	seen := map[string]bool{start: true}
	var out []string
	for _, stop := range stops {
		if seen[stop] {
			continue
		}
		seen[stop] = true
		out = append(out, stop)
	}
	return out
}

func reverse(order []string, i, j int) {
	for i < j {
		order[i], order[j] = order[j], order[i]
		i, j = i+1, j-1
	}
}
