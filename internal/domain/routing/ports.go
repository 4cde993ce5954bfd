package routing

import (
	"context"

	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// RoutePlanner is the pure pathfinding and tour optimization surface. The
// planner never touches the network or the database; callers hand it a
// complete waypoint dictionary.
type RoutePlanner interface {
	// FindOptimalPath returns the best fuel-aware plan from start to goal,
	// or nil when no feasible plan exists
	FindOptimalPath(ctx context.Context, req *PathRequest) (*TravelPlan, error)

	// OptimizeTour orders a set of stops into a short visit sequence and
	// stitches the per-leg plans together
	OptimizeTour(ctx context.Context, req *TourRequest) (*TourPlan, error)

	// PartitionFleet splits a set of stops across several ships and builds
	// a tour for each
	PartitionFleet(ctx context.Context, req *FleetRequest) (*FleetPlan, error)
}

// ActionType discriminates plan actions
type ActionType int

const (
	ActionTravel ActionType = iota
	ActionRefuel
)

func (a ActionType) String() string {
	if a == ActionRefuel {
		return "REFUEL"
	}
	return "TRAVEL"
}

// PlanAction is one step of a travel plan. TRAVEL moves to Waypoint burning
// FuelCost over TimeSeconds; REFUEL fills the tank at Waypoint, gaining
// FuelGained units.
type PlanAction struct {
	Action      ActionType        `json:"action"`
	Waypoint    string            `json:"waypoint"`
	Distance    float64           `json:"distance"`
	Mode        shared.FlightMode `json:"mode"`
	FuelCost    int               `json:"fuel_cost"`
	FuelGained  int               `json:"fuel_gained"`
	TimeSeconds int               `json:"time_seconds"`
}

// PathRequest asks for a plan between two waypoints
type PathRequest struct {
	// Waypoints is the complete dictionary for the system, keyed by symbol
	Waypoints map[string]*shared.Waypoint

	Start        string
	Goal         string
	CurrentFuel  int
	FuelCapacity int
	EngineSpeed  int

	// PreferCruise demotes BURN legs to CRUISE when CRUISE still clears the
	// safety margin
	PreferCruise bool
}

// TravelPlan is an ordered action list with totals. An empty Actions slice
// means start and goal coincide and nothing needs to happen.
type TravelPlan struct {
	Actions       []*PlanAction `json:"actions"`
	TotalFuel     int           `json:"total_fuel"`
	TotalTime     int           `json:"total_time"`
	TotalDistance float64       `json:"total_distance"`
}

// TravelActions returns only the TRAVEL steps of the plan
func (p *TravelPlan) TravelActions() []*PlanAction {
	var travels []*PlanAction
	for _, a := range p.Actions {
		if a.Action == ActionTravel {
			travels = append(travels, a)
		}
	}
	return travels
}

// IsEmpty reports whether the plan contains no actions at all
func (p *TravelPlan) IsEmpty() bool {
	return len(p.Actions) == 0
}

// TourRequest asks for an optimized multi-stop visit order
type TourRequest struct {
	Waypoints    map[string]*shared.Waypoint
	Start        string
	Stops        []string
	CurrentFuel  int
	FuelCapacity int
	EngineSpeed  int
	PreferCruise bool

	// ReturnToStart closes the tour back at the starting waypoint
	ReturnToStart bool
}

// TourPlan is the optimized visit order with the stitched travel plan
type TourPlan struct {
	VisitOrder    []string      `json:"visit_order"`
	Actions       []*PlanAction `json:"actions"`
	TotalFuel     int           `json:"total_fuel"`
	TotalTime     int           `json:"total_time"`
	TotalDistance float64       `json:"total_distance"`
}

// ShipProfile is one vehicle's parameters for fleet partitioning
type ShipProfile struct {
	Location     string
	CurrentFuel  int
	FuelCapacity int
	EngineSpeed  int
}

// FleetRequest asks for a split of stops across several ships
type FleetRequest struct {
	Waypoints map[string]*shared.Waypoint
	Ships     map[string]*ShipProfile
	Stops     []string
}

// FleetPlan maps each ship to its assigned tour. Ships with no assigned
// stops are absent from the map.
type FleetPlan struct {
	Tours map[string]*TourPlan `json:"tours"`
}
