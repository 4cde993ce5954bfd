package config

import "time"

// CacheConfig holds caching configuration for universe data
type CacheConfig struct {
	// How long cached waypoint data (traits included) stays fresh.
	// Navigation graphs never expire; only trait-bearing waypoint rows do.
	WaypointTTL time.Duration `mapstructure:"waypoint_ttl" validate:"required"`
}
