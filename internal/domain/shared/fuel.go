package shared

import "fmt"

// Fuel is an immutable value object for a ship's fuel state. Mutating
// operations return a new value; callers replace their copy.
type Fuel struct {
	Current  int `json:"current"`
	Capacity int `json:"capacity"`
}

// NewFuel creates a fuel value with validation
func NewFuel(current, capacity int) (*Fuel, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("fuel capacity cannot be negative")
	}
	if current < 0 {
		return nil, fmt.Errorf("fuel current cannot be negative")
	}
	if current > capacity {
		return nil, fmt.Errorf("fuel current %d exceeds capacity %d", current, capacity)
	}

	return &Fuel{Current: current, Capacity: capacity}, nil
}

// Consume returns a new fuel value reduced by units
func (f *Fuel) Consume(units int) (*Fuel, error) {
	if units < 0 {
		return nil, fmt.Errorf("cannot consume negative fuel")
	}
	if units > f.Current {
		return nil, fmt.Errorf("cannot consume %d fuel, only %d available", units, f.Current)
	}

	return &Fuel{Current: f.Current - units, Capacity: f.Capacity}, nil
}

// Add returns a new fuel value increased by units, capped at capacity
func (f *Fuel) Add(units int) (*Fuel, error) {
	if units < 0 {
		return nil, fmt.Errorf("cannot add negative fuel")
	}

	current := f.Current + units
	if current > f.Capacity {
		current = f.Capacity
	}

	return &Fuel{Current: current, Capacity: f.Capacity}, nil
}

// Full returns a new fuel value at capacity
func (f *Fuel) Full() *Fuel {
	return &Fuel{Current: f.Capacity, Capacity: f.Capacity}
}

// Percentage returns current fuel as a fraction of capacity in [0, 1].
// A zero-capacity tank reports 1 so probes without tanks never trigger
// refuel logic.
func (f *Fuel) Percentage() float64 {
	if f.Capacity == 0 {
		return 1.0
	}
	return float64(f.Current) / float64(f.Capacity)
}

// CanTravel reports whether the tank holds at least the required units
func (f *Fuel) CanTravel(required int) bool {
	return f.Current >= required
}

// IsFull reports whether the tank is at capacity
func (f *Fuel) IsFull() bool {
	return f.Current >= f.Capacity
}

func (f *Fuel) String() string {
	return fmt.Sprintf("%d/%d", f.Current, f.Capacity)
}
