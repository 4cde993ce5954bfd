package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/fleetd/internal/domain/navigation"
)

// NavigationMetricsCollector tracks route execution outcomes and fuel flow
type NavigationMetricsCollector struct {
	routesTotal   *prometheus.CounterVec
	routeDuration *prometheus.HistogramVec
	routeSegments prometheus.Histogram
	fuelConsumed  prometheus.Counter
	fuelPurchased *prometheus.CounterVec
}

// NewNavigationMetricsCollector creates the navigation metrics collector
func NewNavigationMetricsCollector() *NavigationMetricsCollector {
	return &NavigationMetricsCollector{
		routesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "routes_total",
				Help:      "Executed routes by terminal status",
			},
			[]string{"status"},
		),
		routeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "route_duration_seconds",
				Help:      "Wall-clock route execution time",
				Buckets:   []float64{10, 30, 60, 120, 300, 600, 1800, 3600},
			},
			[]string{"status"},
		),
		routeSegments: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "route_segments",
				Help:      "Segments per executed route",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),
		fuelConsumed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "fuel_consumed_units_total",
				Help:      "Fuel units consumed by executed routes",
			},
		),
		fuelPurchased: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "fuel_purchased_units_total",
				Help:      "Fuel units purchased by waypoint",
			},
			[]string{"waypoint"},
		),
	}
}

// Register adds the collector's metrics to the registry
func (c *NavigationMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}
	collectors := []prometheus.Collector{
		c.routesTotal,
		c.routeDuration,
		c.routeSegments,
		c.fuelConsumed,
		c.fuelPurchased,
	}
	for _, metric := range collectors {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

// RecordRouteCompletion implements NavigationRecorder
func (c *NavigationMetricsCollector) RecordRouteCompletion(status navigation.RouteStatus, durationSeconds float64, segments int, fuelConsumed int) {
	c.routesTotal.WithLabelValues(string(status)).Inc()
	c.routeDuration.WithLabelValues(string(status)).Observe(durationSeconds)
	c.routeSegments.Observe(float64(segments))
	c.fuelConsumed.Add(float64(fuelConsumed))
}

// RecordFuelPurchase implements NavigationRecorder
func (c *NavigationMetricsCollector) RecordFuelPurchase(waypoint string, units int) {
	c.fuelPurchased.WithLabelValues(waypoint).Add(float64(units))
}
