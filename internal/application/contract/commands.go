package contract

import "github.com/andrescamacho/fleetd/internal/domain/contract"

// NegotiateContractCommand negotiates a new contract with the ship's
// faction, or resumes the active one when the API refuses a second
type NegotiateContractCommand struct {
	ShipSymbol string
	PlayerID   int
}

// NegotiateContractResponse carries the negotiated or resumed contract
type NegotiateContractResponse struct {
	Contract      *contract.Contract
	WasNegotiated bool
}

// AcceptContractCommand accepts a negotiated contract
type AcceptContractCommand struct {
	ContractID string
	PlayerID   int
}

// AcceptContractResponse carries the accepted contract
type AcceptContractResponse struct {
	Contract *contract.Contract
}

// DeliverContractCommand hands cargo over toward a delivery obligation.
// The ship must be docked at the delivery waypoint.
type DeliverContractCommand struct {
	ContractID  string
	ShipSymbol  string
	TradeSymbol string
	Units       int
	PlayerID    int
}

// DeliverContractResponse carries the contract with updated progress
type DeliverContractResponse struct {
	Contract *contract.Contract
}

// FulfillContractCommand claims the payout of a completed contract
type FulfillContractCommand struct {
	ContractID string
	PlayerID   int
}

// FulfillContractResponse carries the fulfilled contract
type FulfillContractResponse struct {
	Contract *contract.Contract
}

// BatchContractWorkflowCommand runs the negotiate, accept, haul, fulfill
// loop for a number of iterations. A failed iteration is recorded in the
// report and the next one starts fresh.
type BatchContractWorkflowCommand struct {
	ShipSymbol string
	PlayerID   int
	Iterations int
}

// BatchContractWorkflowResponse wraps the aggregate report plus totals the
// report does not track
type BatchContractWorkflowResponse struct {
	Report      *contract.BatchReport
	TotalProfit int
	TotalTrips  int
}
