package config

import "time"

// DaemonConfig holds daemon service configuration
type DaemonConfig struct {
	// Unix socket path for the control protocol
	SocketPath string `mapstructure:"socket_path"`

	// PID file location
	PIDFile string `mapstructure:"pid_file"`

	// Maximum number of concurrent containers
	MaxContainers int `mapstructure:"max_containers" validate:"min=1"`

	// How long a stopping container may run before it is abandoned
	StopGracePeriod time.Duration `mapstructure:"stop_grace_period" validate:"required"`

	// Graceful shutdown timeout for the whole daemon
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`

	// Container restart backoff
	Restart RestartBackoffConfig `mapstructure:"restart"`
}

// RestartBackoffConfig holds the restart delay schedule for containers
// whose restart policy applies. Delay doubles per consecutive restart
// up to MaxDelay.
type RestartBackoffConfig struct {
	// Delay before the first restart
	InitialDelay time.Duration `mapstructure:"initial_delay"`

	// Upper bound on the delay between restarts
	MaxDelay time.Duration `mapstructure:"max_delay"`

	// Backoff multiplier applied per consecutive restart
	BackoffMultiplier float64 `mapstructure:"backoff_multiplier" validate:"min=1"`
}

// DelayFor returns the backoff delay before the given restart attempt
// (1-based). Attempt 1 waits InitialDelay.
func (c *RestartBackoffConfig) DelayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := c.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * c.BackoffMultiplier)
		if delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}
