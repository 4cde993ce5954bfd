package shared

import "time"

// Clock abstracts time for entities and services so tests can run instantly
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// RealClock is the production clock; Now is always UTC
type RealClock struct{}

// NewRealClock creates the production clock
func NewRealClock() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now().UTC()
}

func (c *RealClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// MockClock is a controllable clock for tests. Sleep returns immediately and
// advances the current time instead of blocking.
type MockClock struct {
	CurrentTime time.Time
}

// NewMockClock creates a mock clock starting at the given time
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{CurrentTime: start}
}

func (c *MockClock) Now() time.Time {
	return c.CurrentTime
}

func (c *MockClock) Sleep(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}

// Advance moves the mock clock forward without sleeping
func (c *MockClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}
