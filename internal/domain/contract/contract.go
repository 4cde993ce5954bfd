package contract

import (
	"fmt"
	"time"

	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// Payment is a contract's two-stage payout
type Payment struct {
	OnAccepted  int
	OnFulfilled int
}

// Delivery is one obligation of a contract: haul units of a good to a
// destination waypoint
type Delivery struct {
	TradeSymbol       string
	DestinationSymbol string
	UnitsRequired     int
	UnitsFulfilled    int
}

// Remaining is how many units the delivery still needs
func (d *Delivery) Remaining() int {
	remaining := d.UnitsRequired - d.UnitsFulfilled
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Contract is one procurement agreement with a faction
type Contract struct {
	contractID    string
	playerID      shared.PlayerID
	factionSymbol string
	contractType  string
	payment       Payment
	deliveries    []Delivery
	deadline      time.Time
	accepted      bool
	fulfilled     bool
}

// NewContract creates a contract with validation
func NewContract(
	contractID string,
	playerID shared.PlayerID,
	factionSymbol, contractType string,
	payment Payment,
	deliveries []Delivery,
	deadline time.Time,
) (*Contract, error) {
	if contractID == "" {
		return nil, fmt.Errorf("contract id cannot be empty")
	}
	if playerID.IsZero() {
		return nil, fmt.Errorf("contract requires an owning player")
	}
	if len(deliveries) == 0 {
		return nil, fmt.Errorf("contract must have at least one delivery")
	}

	return &Contract{
		contractID:    contractID,
		playerID:      playerID,
		factionSymbol: factionSymbol,
		contractType:  contractType,
		payment:       payment,
		deliveries:    deliveries,
		deadline:      deadline,
	}, nil
}

func (c *Contract) ContractID() string        { return c.contractID }
func (c *Contract) PlayerID() shared.PlayerID { return c.playerID }
func (c *Contract) FactionSymbol() string     { return c.factionSymbol }
func (c *Contract) Type() string              { return c.contractType }
func (c *Contract) Payment() Payment          { return c.payment }
func (c *Contract) Deliveries() []Delivery    { return c.deliveries }
func (c *Contract) Deadline() time.Time       { return c.deadline }
func (c *Contract) IsAccepted() bool          { return c.accepted }
func (c *Contract) IsFulfilled() bool         { return c.fulfilled }

// Accept marks the contract accepted
func (c *Contract) Accept() error {
	if c.fulfilled {
		return fmt.Errorf("contract %s already fulfilled", c.contractID)
	}
	if c.accepted {
		return fmt.Errorf("contract %s already accepted", c.contractID)
	}
	c.accepted = true
	return nil
}

// RecordDelivery applies delivered units to the matching obligation
func (c *Contract) RecordDelivery(tradeSymbol string, units int) error {
	if !c.accepted {
		return fmt.Errorf("contract %s not accepted", c.contractID)
	}

	for i := range c.deliveries {
		if c.deliveries[i].TradeSymbol != tradeSymbol {
			continue
		}
		if c.deliveries[i].UnitsFulfilled+units > c.deliveries[i].UnitsRequired {
			return fmt.Errorf("delivery of %d %s exceeds remaining requirement %d",
				units, tradeSymbol, c.deliveries[i].Remaining())
		}
		c.deliveries[i].UnitsFulfilled += units
		return nil
	}
	return fmt.Errorf("contract %s has no delivery for %s", c.contractID, tradeSymbol)
}

// CanFulfill reports whether every delivery is complete
func (c *Contract) CanFulfill() bool {
	if !c.accepted {
		return false
	}
	for _, d := range c.deliveries {
		if d.UnitsFulfilled < d.UnitsRequired {
			return false
		}
	}
	return true
}

// Fulfill marks the contract fulfilled
func (c *Contract) Fulfill() error {
	if !c.CanFulfill() {
		return fmt.Errorf("contract %s has unmet deliveries", c.contractID)
	}
	c.fulfilled = true
	return nil
}

// IsExpired reports whether the deadline has passed
func (c *Contract) IsExpired(now time.Time) bool {
	return !c.deadline.IsZero() && now.After(c.deadline)
}

// TotalPayment is the full payout for accepting and fulfilling
func (c *Contract) TotalPayment() int {
	return c.payment.OnAccepted + c.payment.OnFulfilled
}

// ReconstructContract rebuilds a contract from an API payload without
// revalidating acceptance rules
func ReconstructContract(
	contractID string,
	playerID shared.PlayerID,
	factionSymbol, contractType string,
	payment Payment,
	deliveries []Delivery,
	deadline time.Time,
	accepted, fulfilled bool,
) *Contract {
	return &Contract{
		contractID:    contractID,
		playerID:      playerID,
		factionSymbol: factionSymbol,
		contractType:  contractType,
		payment:       payment,
		deliveries:    deliveries,
		deadline:      deadline,
		accepted:      accepted,
		fulfilled:     fulfilled,
	}
}
