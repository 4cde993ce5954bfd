package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/fleetd/internal/domain/container"
)

// ContainerMetricsCollector tracks container lifecycle events plus a polled
// gauge of containers by status. The poll loop runs until its context is
// cancelled; Stop waits for it to finish.
type ContainerMetricsCollector struct {
	listContainers func(ctx context.Context) ([]*container.Container, error)
	pollInterval   time.Duration

	containersByStatus *prometheus.GaugeVec
	completionsTotal   *prometheus.CounterVec
	restartsTotal      *prometheus.CounterVec
	iterationsTotal    *prometheus.CounterVec
	runtimeSeconds     *prometheus.HistogramVec

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewContainerMetricsCollector creates the collector. listContainers is
// polled for the by-status gauge; the runtime's List with removed rows
// excluded is the natural source.
func NewContainerMetricsCollector(
	listContainers func(ctx context.Context) ([]*container.Container, error),
	pollInterval time.Duration,
) *ContainerMetricsCollector {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}

	return &ContainerMetricsCollector{
		listContainers: listContainers,
		pollInterval:   pollInterval,
		containersByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "containers",
				Help:      "Containers currently known to the daemon by type and status",
			},
			[]string{"type", "status"},
		),
		completionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "container_completions_total",
				Help:      "Container task exits by type and terminal status",
			},
			[]string{"type", "status"},
		),
		restartsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "container_restarts_total",
				Help:      "Policy-driven container restarts by type",
			},
			[]string{"type"},
		),
		iterationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "container_iterations_total",
				Help:      "Completed workflow iterations by container type",
			},
			[]string{"type"},
		),
		runtimeSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "container_runtime_seconds",
				Help:      "How long container tasks ran before exiting",
				Buckets:   []float64{1, 10, 60, 300, 900, 3600, 14400, 86400},
			},
			[]string{"type"},
		),
	}
}

// Register adds the collector's metrics to the registry
func (c *ContainerMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}
	collectors := []prometheus.Collector{
		c.containersByStatus,
		c.completionsTotal,
		c.restartsTotal,
		c.iterationsTotal,
		c.runtimeSeconds,
	}
	for _, metric := range collectors {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

// Start launches the status poll loop
func (c *ContainerMetricsCollector) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.updateStatusGauge(ctx)
			}
		}
	}()
}

// Stop cancels the poll loop and waits for it
func (c *ContainerMetricsCollector) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *ContainerMetricsCollector) updateStatusGauge(ctx context.Context) {
	rows, err := c.listContainers(ctx)
	if err != nil {
		return
	}

	counts := make(map[[2]string]int)
	for _, row := range rows {
		counts[[2]string{string(row.Type()), string(row.Status())}]++
	}

	c.containersByStatus.Reset()
	for key, count := range counts {
		c.containersByStatus.WithLabelValues(key[0], key[1]).Set(float64(count))
	}
}

// RecordContainerCompletion implements ContainerRecorder
func (c *ContainerMetricsCollector) RecordContainerCompletion(containerType container.ContainerType, status container.ContainerStatus, runtimeSeconds float64) {
	c.completionsTotal.WithLabelValues(string(containerType), string(status)).Inc()
	c.runtimeSeconds.WithLabelValues(string(containerType)).Observe(runtimeSeconds)
}

// RecordContainerRestart implements ContainerRecorder
func (c *ContainerMetricsCollector) RecordContainerRestart(containerType container.ContainerType) {
	c.restartsTotal.WithLabelValues(string(containerType)).Inc()
}

// RecordContainerIteration implements ContainerRecorder
func (c *ContainerMetricsCollector) RecordContainerIteration(containerType container.ContainerType) {
	c.iterationsTotal.WithLabelValues(string(containerType)).Inc()
}
