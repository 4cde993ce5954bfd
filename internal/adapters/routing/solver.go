package routing

import (
	"container/heap"
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	domainRouting "github.com/andrescamacho/fleetd/internal/domain/routing"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/internal/infrastructure/config"
)

// refuelSeconds is the flat time charged for a refuel stop
const refuelSeconds = 10

// deadlineCheckInterval is how many search expansions happen between
// deadline checks
const deadlineCheckInterval = 256

// Solver is the in-process route solver. It searches the (waypoint, fuel)
// state space with Dijkstra, orders multi-stop tours with nearest-neighbour
// plus 2-opt, and partitions fleets with greedy best-insertion.
type Solver struct {
	selector        *shared.FlightModeSelector
	logger          zerolog.Logger
	pathTimeout     time.Duration
	tourTimeout     time.Duration
	fleetTimeout    time.Duration
	safetyMargin    int
	refuelThreshold float64
}

// NewSolver creates a solver from routing configuration
func NewSolver(cfg config.RoutingConfig, logger zerolog.Logger) *Solver {
	return &Solver{
		selector:        shared.NewFlightModeSelector(),
		logger:          logger.With().Str("component", "route_solver").Logger(),
		pathTimeout:     cfg.Timeout.Pathfinding,
		tourTimeout:     cfg.Timeout.TSP,
		fleetTimeout:    cfg.Timeout.VRP,
		safetyMargin:    shared.DefaultFuelSafetyMargin,
		refuelThreshold: cfg.RefuelThreshold,
	}
}

// fuelState is one node of the search space
type fuelState struct {
	waypoint string
	fuel     int
}

// searchCost orders states: primary total time, tie-break fuel spent
type searchCost struct {
	timeSeconds int
	fuelSpent   int
}

func (c searchCost) less(other searchCost) bool {
	if c.timeSeconds != other.timeSeconds {
		return c.timeSeconds < other.timeSeconds
	}
	return c.fuelSpent < other.fuelSpent
}

// searchEdge records how a state was reached, for plan reconstruction
type searchEdge struct {
	from   fuelState
	action *domainRouting.PlanAction
}

type queueItem struct {
	state fuelState
	cost  searchCost
	index int
}

type stateQueue []*queueItem

func (q stateQueue) Len() int           { return len(q) }
func (q stateQueue) Less(i, j int) bool { return q[i].cost.less(q[j].cost) }
func (q stateQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *stateQueue) Push(x interface{}) {
	item := x.(*queueItem)
	item.index = len(*q)
	*q = append(*q, item)
}
func (q *stateQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// FindOptimalPath searches for the fastest fuel-feasible plan from start to
// goal. It returns a nil plan when the goal cannot be reached with the given
// fuel state and the refuel stops available in the system.
func (s *Solver) FindOptimalPath(ctx context.Context, req *domainRouting.PathRequest) (*domainRouting.TravelPlan, error) {
	start, ok := req.Waypoints[req.Start]
	if !ok {
		return nil, nil
	}
	goal, ok := req.Waypoints[req.Goal]
	if !ok {
		return nil, nil
	}

	if start.Symbol == goal.Symbol {
		return &domainRouting.TravelPlan{Actions: []*domainRouting.PlanAction{}}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.pathTimeout)
	defer cancel()

	plan, err := s.search(ctx, req, start, goal)
	if err != nil || plan == nil {
		return plan, err
	}

	s.addOpportunisticRefuels(plan, req)
	return plan, nil
}

// search runs Dijkstra over (waypoint, fuel) states. Transitions are a travel
// leg in the best eligible mode to every other waypoint, a free hop between
// orbital pairs, and a refuel where fuel is sold.
func (s *Solver) search(
	ctx context.Context,
	req *domainRouting.PathRequest,
	start, goal *shared.Waypoint,
) (*domainRouting.TravelPlan, error) {
	origin := fuelState{waypoint: start.Symbol, fuel: req.CurrentFuel}

	costs := map[fuelState]searchCost{origin: {}}
	edges := map[fuelState]searchEdge{}
	settled := map[fuelState]bool{}

	queue := &stateQueue{}
	heap.Init(queue)
	heap.Push(queue, &queueItem{state: origin})

	expansions := 0
	for queue.Len() > 0 {
		expansions++
		if expansions%deadlineCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		item := heap.Pop(queue).(*queueItem)
		current := item.state
		if settled[current] {
			continue
		}
		settled[current] = true

		// First settled goal state is the overall optimum regardless of
		// remaining fuel
		if current.waypoint == goal.Symbol {
			return s.reconstruct(req, edges, origin, current, item.cost), nil
		}

		here := req.Waypoints[current.waypoint]

		// Refuel transition
		if here.CanRefuel() && current.fuel < req.FuelCapacity {
			next := fuelState{waypoint: current.waypoint, fuel: req.FuelCapacity}
			cost := searchCost{
				timeSeconds: item.cost.timeSeconds + refuelSeconds,
				fuelSpent:   item.cost.fuelSpent,
			}
			s.relax(queue, costs, edges, next, cost, searchEdge{
				from: current,
				action: &domainRouting.PlanAction{
					Action:      domainRouting.ActionRefuel,
					Waypoint:    current.waypoint,
					FuelGained:  req.FuelCapacity - current.fuel,
					TimeSeconds: refuelSeconds,
				},
			})
		}

		// Travel transitions
		for symbol, there := range req.Waypoints {
			if symbol == current.waypoint {
				continue
			}

			distance := here.DistanceTo(there)
			if here.IsOrbitalOf(there) {
				distance = 0
			}

			mode := shared.FlightModeCruise
			fuelCost := 0
			if distance > 0 {
				selected, usable := s.selector.SelectOptimalMode(distance, current.fuel, s.safetyMargin, req.PreferCruise)
				if !usable {
					continue
				}
				mode = selected
				fuelCost = shared.FuelCost(mode, distance)
			}

			travelTime := shared.TravelTime(mode, distance, req.EngineSpeed)
			next := fuelState{waypoint: symbol, fuel: current.fuel - fuelCost}
			cost := searchCost{
				timeSeconds: item.cost.timeSeconds + travelTime,
				fuelSpent:   item.cost.fuelSpent + fuelCost,
			}
			s.relax(queue, costs, edges, next, cost, searchEdge{
				from: current,
				action: &domainRouting.PlanAction{
					Action:      domainRouting.ActionTravel,
					Waypoint:    symbol,
					Distance:    distance,
					Mode:        mode,
					FuelCost:    fuelCost,
					TimeSeconds: travelTime,
				},
			})
		}
	}

	// Search space exhausted without reaching the goal
	return nil, nil
}

func (s *Solver) relax(
	queue *stateQueue,
	costs map[fuelState]searchCost,
	edges map[fuelState]searchEdge,
	next fuelState,
	cost searchCost,
	edge searchEdge,
) {
	known, seen := costs[next]
	if seen && !cost.less(known) {
		return
	}
	costs[next] = cost
	edges[next] = edge
	heap.Push(queue, &queueItem{state: next, cost: cost})
}

func (s *Solver) reconstruct(
	req *domainRouting.PathRequest,
	edges map[fuelState]searchEdge,
	origin, goal fuelState,
	cost searchCost,
) *domainRouting.TravelPlan {
	var actions []*domainRouting.PlanAction
	for state := goal; state != origin; {
		edge := edges[state]
		actions = append(actions, edge.action)
		state = edge.from
	}

	// Reverse into travel order
	for i, j := 0, len(actions)-1; i < j; i, j = i+1, j-1 {
		actions[i], actions[j] = actions[j], actions[i]
	}

	plan := &domainRouting.TravelPlan{
		Actions:   actions,
		TotalFuel: cost.fuelSpent,
		TotalTime: cost.timeSeconds,
	}
	for _, a := range actions {
		plan.TotalDistance += a.Distance
	}
	return plan
}

// addOpportunisticRefuels inserts a top-off after every arrival at a
// fuel-selling waypoint that leaves the tank below the refuel threshold,
// the final arrival included. Refuels the search already placed are kept.
func (s *Solver) addOpportunisticRefuels(plan *domainRouting.TravelPlan, req *domainRouting.PathRequest) {
	if len(plan.Actions) == 0 {
		return
	}

	threshold := int(math.Floor(s.refuelThreshold * float64(req.FuelCapacity)))

	fuel := req.CurrentFuel
	var out []*domainRouting.PlanAction
	for i, action := range plan.Actions {
		out = append(out, action)

		switch action.Action {
		case domainRouting.ActionRefuel:
			fuel = req.FuelCapacity
			continue
		case domainRouting.ActionTravel:
			fuel -= action.FuelCost
		}

		wp, ok := req.Waypoints[action.Waypoint]
		if !ok || !wp.CanRefuel() || fuel >= threshold {
			continue
		}

		// Skip when the search already refuels here next
		if i+1 < len(plan.Actions) && plan.Actions[i+1].Action == domainRouting.ActionRefuel {
			continue
		}

		out = append(out, &domainRouting.PlanAction{
			Action:      domainRouting.ActionRefuel,
			Waypoint:    action.Waypoint,
			FuelGained:  req.FuelCapacity - fuel,
			TimeSeconds: refuelSeconds,
		})
		plan.TotalTime += refuelSeconds
		fuel = req.FuelCapacity
	}

	plan.Actions = out
}
