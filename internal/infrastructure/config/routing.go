package config

import "time"

// RoutingConfig holds route solver configuration
type RoutingConfig struct {
	// Timeout settings for different solver operations
	Timeout RoutingTimeoutConfig `mapstructure:"timeout"`

	// Fuel fraction below which a ship refuels when parked at a waypoint
	// that sells fuel (0 < threshold <= 1)
	RefuelThreshold float64 `mapstructure:"refuel_threshold" validate:"gt=0,lte=1"`
}

// RoutingTimeoutConfig holds timeout configuration for solver operations
type RoutingTimeoutConfig struct {
	// Single-pair pathfinding timeout
	Pathfinding time.Duration `mapstructure:"pathfinding" validate:"required"`

	// TSP (Traveling Salesman Problem) timeout
	TSP time.Duration `mapstructure:"tsp" validate:"required"`

	// VRP (Vehicle Routing Problem) timeout
	VRP time.Duration `mapstructure:"vrp" validate:"required"`
}
