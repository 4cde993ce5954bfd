package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/fleetd/internal/domain/container"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
)

const (
	namespace = "fleetd"
	subsystem = "daemon"
)

// Registry is the process-wide Prometheus registry. It stays nil when
// metrics are disabled; all package-level record functions tolerate that.
var Registry *prometheus.Registry

var (
	globalContainerRecorder  ContainerRecorder
	globalNavigationRecorder NavigationRecorder
)

// ContainerRecorder receives container lifecycle events from the runtime
type ContainerRecorder interface {
	RecordContainerCompletion(containerType container.ContainerType, status container.ContainerStatus, runtimeSeconds float64)
	RecordContainerRestart(containerType container.ContainerType)
	RecordContainerIteration(containerType container.ContainerType)
}

// NavigationRecorder receives route execution events from the navigation
// executor
type NavigationRecorder interface {
	RecordRouteCompletion(status navigation.RouteStatus, durationSeconds float64, segments int, fuelConsumed int)
	RecordFuelPurchase(waypoint string, units int)
}

// InitRegistry creates the registry; call once at startup when
// metrics.enabled is set
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// IsEnabled reports whether metrics collection is active
func IsEnabled() bool {
	return Registry != nil
}

// SetContainerRecorder installs the container event recorder
func SetContainerRecorder(recorder ContainerRecorder) {
	globalContainerRecorder = recorder
}

// SetNavigationRecorder installs the navigation event recorder
func SetNavigationRecorder(recorder NavigationRecorder) {
	globalNavigationRecorder = recorder
}

// RecordContainerCompletion forwards a container exit to the recorder, if any
func RecordContainerCompletion(containerType container.ContainerType, status container.ContainerStatus, runtimeSeconds float64) {
	if globalContainerRecorder != nil {
		globalContainerRecorder.RecordContainerCompletion(containerType, status, runtimeSeconds)
	}
}

// RecordContainerRestart forwards a policy-driven restart to the recorder
func RecordContainerRestart(containerType container.ContainerType) {
	if globalContainerRecorder != nil {
		globalContainerRecorder.RecordContainerRestart(containerType)
	}
}

// RecordContainerIteration forwards one completed iteration to the recorder
func RecordContainerIteration(containerType container.ContainerType) {
	if globalContainerRecorder != nil {
		globalContainerRecorder.RecordContainerIteration(containerType)
	}
}

// RecordRouteCompletion forwards a finished route to the recorder
func RecordRouteCompletion(status navigation.RouteStatus, durationSeconds float64, segments int, fuelConsumed int) {
	if globalNavigationRecorder != nil {
		globalNavigationRecorder.RecordRouteCompletion(status, durationSeconds, segments, fuelConsumed)
	}
}

// RecordFuelPurchase forwards a refuel transaction to the recorder
func RecordFuelPurchase(waypoint string, units int) {
	if globalNavigationRecorder != nil {
		globalNavigationRecorder.RecordFuelPurchase(waypoint, units)
	}
}
