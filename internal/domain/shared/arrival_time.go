package shared

import (
	"fmt"
	"strings"
	"time"
)

// ArrivalTime wraps the remote API's ISO8601 arrival timestamp and computes
// how long a ship must wait before it is out of transit
type ArrivalTime struct {
	timestamp string
}

// NewArrivalTime validates and wraps an ISO8601 timestamp. Both the Z suffix
// and an explicit +00:00 offset are accepted.
func NewArrivalTime(timestamp string) (*ArrivalTime, error) {
	if timestamp == "" {
		return nil, fmt.Errorf("arrival time timestamp cannot be empty")
	}

	if _, err := time.Parse(time.RFC3339, normalizeTimestamp(timestamp)); err != nil {
		return nil, fmt.Errorf("invalid arrival time format: %w", err)
	}

	return &ArrivalTime{timestamp: timestamp}, nil
}

// WaitSeconds returns the whole seconds until arrival relative to the given
// clock, never negative
func (a *ArrivalTime) WaitSeconds(clock Clock) int {
	arrival, err := time.Parse(time.RFC3339, normalizeTimestamp(a.timestamp))
	if err != nil {
		return 0
	}

	if clock == nil {
		clock = NewRealClock()
	}

	wait := arrival.Sub(clock.Now()).Seconds()
	if wait < 0 {
		return 0
	}
	return int(wait)
}

// HasArrived reports whether the arrival time already passed
func (a *ArrivalTime) HasArrived(clock Clock) bool {
	return a.WaitSeconds(clock) == 0
}

// Timestamp returns the raw timestamp string as received
func (a *ArrivalTime) Timestamp() string {
	return a.timestamp
}

func (a *ArrivalTime) String() string {
	return fmt.Sprintf("ArrivalTime(%s)", a.timestamp)
}

func normalizeTimestamp(ts string) string {
	return strings.Replace(ts, "Z", "+00:00", 1)
}
