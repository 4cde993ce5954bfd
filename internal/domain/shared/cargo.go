package shared

import "fmt"

// CargoItem is one good held in a ship's cargo bay
type CargoItem struct {
	Symbol string `json:"symbol"`
	Units  int    `json:"units"`
}

// Cargo is an immutable snapshot of a ship's cargo bay
type Cargo struct {
	Capacity  int          `json:"capacity"`
	Units     int          `json:"units"`
	Inventory []*CargoItem `json:"inventory"`
}

// NewCargo creates a cargo snapshot with validation
func NewCargo(capacity, units int, inventory []*CargoItem) (*Cargo, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("cargo capacity cannot be negative")
	}
	if units < 0 {
		return nil, fmt.Errorf("cargo units cannot be negative")
	}
	if units > capacity {
		return nil, fmt.Errorf("cargo units %d exceed capacity %d", units, capacity)
	}
	if inventory == nil {
		inventory = []*CargoItem{}
	}

	return &Cargo{Capacity: capacity, Units: units, Inventory: inventory}, nil
}

// SpaceRemaining returns how many more units fit in the bay
func (c *Cargo) SpaceRemaining() int {
	return c.Capacity - c.Units
}

// IsFull reports whether the bay has no free space
func (c *Cargo) IsFull() bool {
	return c.Units >= c.Capacity
}

// IsEmpty reports whether the bay holds nothing
func (c *Cargo) IsEmpty() bool {
	return c.Units == 0
}

// CountOf returns the units held of one good, zero when absent
func (c *Cargo) CountOf(symbol string) int {
	for _, item := range c.Inventory {
		if item.Symbol == symbol {
			return item.Units
		}
	}
	return 0
}

// HasItem reports whether at least the given units of a good are held
func (c *Cargo) HasItem(symbol string, units int) bool {
	return c.CountOf(symbol) >= units
}

func (c *Cargo) String() string {
	return fmt.Sprintf("%d/%d units", c.Units, c.Capacity)
}
