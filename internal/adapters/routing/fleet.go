package routing

import (
	"context"
	"sort"
	"time"

	domainRouting "github.com/andrescamacho/fleetd/internal/domain/routing"
)

// PartitionFleet splits the requested stops across the fleet with greedy
// best-insertion, improves each ship's sequence with 2-opt, and stitches
// every assignment into a concrete tour. Ships left without stops are absent
// from the result. A nil plan means some assigned leg is infeasible.
func (s *Solver) PartitionFleet(ctx context.Context, req *domainRouting.FleetRequest) (*domainRouting.FleetPlan, error) {
	if len(req.Ships) == 0 {
		return nil, nil
	}

	for symbol, ship := range req.Ships {
		if _, ok := req.Waypoints[ship.Location]; !ok {
			s.logger.Warn().Str("ship", symbol).Str("location", ship.Location).
				Msg("fleet partition skipped: ship location missing from waypoint dictionary")
			return nil, nil
		}
	}

	stops := map[string]bool{}
	var unique []string
	for _, stop := range req.Stops {
		if _, ok := req.Waypoints[stop]; !ok {
			return nil, nil
		}
		if !stops[stop] {
			stops[stop] = true
			unique = append(unique, stop)
		}
	}

	deadline := time.Now().Add(s.fleetTimeout)

	assignments := s.assignByInsertion(unique, req, deadline)

	// Per-ship 2-opt on whatever deadline budget remains
	for symbol, order := range assignments {
		ship := req.Ships[symbol]
		tourReq := s.tourRequestFor(ship, req)
		assignments[symbol] = s.twoOptImprove(ship.Location, order, tourReq, deadline, false)
	}

	plan := &domainRouting.FleetPlan{Tours: map[string]*domainRouting.TourPlan{}}
	for symbol, order := range assignments {
		if len(order) == 0 {
			continue
		}
		ship := req.Ships[symbol]
		tour, err := s.stitchTour(ctx, s.tourRequestFor(ship, req), order)
		if err != nil {
			return nil, err
		}
		if tour == nil {
			return nil, nil
		}
		plan.Tours[symbol] = tour
	}

	return plan, nil
}

func (s *Solver) tourRequestFor(ship *domainRouting.ShipProfile, req *domainRouting.FleetRequest) *domainRouting.TourRequest {
	return &domainRouting.TourRequest{
		Waypoints:    req.Waypoints,
		Start:        ship.Location,
		CurrentFuel:  ship.CurrentFuel,
		FuelCapacity: ship.FuelCapacity,
		EngineSpeed:  ship.EngineSpeed,
	}
}

// assignByInsertion places every stop at the cheapest (ship, position) by
// estimated incremental tour time. Every stop lands on exactly one ship.
func (s *Solver) assignByInsertion(stops []string, req *domainRouting.FleetRequest, deadline time.Time) map[string][]string {
	assignments := map[string][]string{}
	symbols := make([]string, 0, len(req.Ships))
	for symbol := range req.Ships {
		assignments[symbol] = nil
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, stop := range stops {
		bestShip := ""
		bestPos := 0
		bestDelta := 0

		for _, symbol := range symbols {
			ship := req.Ships[symbol]
			tourReq := s.tourRequestFor(ship, req)
			order := assignments[symbol]

			for pos := 0; pos <= len(order); pos++ {
				delta := s.insertionDelta(ship.Location, order, stop, pos, tourReq)
				if bestShip == "" || delta < bestDelta {
					bestShip = symbol
					bestPos = pos
					bestDelta = delta
				}
			}

			if time.Now().After(deadline) {
				break
			}
		}

		order := assignments[bestShip]
		order = append(order, "")
		copy(order[bestPos+1:], order[bestPos:])
		order[bestPos] = stop
		assignments[bestShip] = order
	}

	return assignments
}

// insertionDelta estimates the tour time increase of inserting stop at pos
func (s *Solver) insertionDelta(start string, order []string, stop string, pos int, req *domainRouting.TourRequest) int {
	prev := start
	if pos > 0 {
		prev = order[pos-1]
	}

	if pos == len(order) {
		return s.legEstimate(prev, stop, req)
	}

	next := order[pos]
	return s.legEstimate(prev, stop, req) + s.legEstimate(stop, next, req) - s.legEstimate(prev, next, req)
}
