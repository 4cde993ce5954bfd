package ports

import (
	"context"

	"github.com/andrescamacho/fleetd/internal/domain/market"
	"github.com/andrescamacho/fleetd/internal/domain/player"
)

// APIClient is the domain's interface to the remote game API. One
// implementation lives in the adapters layer; everything above it depends
// on this interface so tests can substitute fakes.
//
// Calls return typed errors: APIError for 4xx replies, RateLimitError for
// 429, TransientError for 5xx and network failures. The client itself never
// retries; retry policy belongs to callers.
type APIClient interface {
	// Agent operations
	RegisterAgent(ctx context.Context, symbol, faction string) (*player.AgentData, error)
	GetAgent(ctx context.Context, token string) (*player.AgentData, error)

	// Ship operations
	GetShip(ctx context.Context, symbol, token string) (*ShipData, error)
	ListShips(ctx context.Context, token string) ([]*ShipData, error)
	NavigateShip(ctx context.Context, symbol, destination, token string) (*NavigationData, error)
	OrbitShip(ctx context.Context, symbol, token string) error
	DockShip(ctx context.Context, symbol, token string) error
	RefuelShip(ctx context.Context, symbol, token string, units *int) (*RefuelData, error)
	SetFlightMode(ctx context.Context, symbol, flightMode, token string) error

	// Waypoint operations
	ListWaypoints(ctx context.Context, systemSymbol, token string, page, limit int) (*WaypointPage, error)

	// Market operations
	GetMarket(ctx context.Context, systemSymbol, waypointSymbol, token string) (*market.Data, error)

	// Contract operations
	NegotiateContract(ctx context.Context, shipSymbol, token string) (*ContractData, error)
	ListContracts(ctx context.Context, token string) ([]*ContractData, error)
	AcceptContract(ctx context.Context, contractID, token string) (*ContractData, error)
	DeliverContract(ctx context.Context, contractID, shipSymbol, goodSymbol string, units int, token string) (*ContractData, error)
	FulfillContract(ctx context.Context, contractID, token string) (*ContractData, error)

	// Cargo operations
	PurchaseCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, token string) (*PurchaseData, error)
	SellCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, token string) (*SellData, error)
	JettisonCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, token string) error

	// Shipyard operations
	GetShipyard(ctx context.Context, systemSymbol, waypointSymbol, token string) (*ShipyardData, error)
	PurchaseShip(ctx context.Context, shipType, waypointSymbol, token string) (*ShipPurchaseData, error)
}

// ShipData is the remote API's view of one ship, flattened to the fields
// the daemon uses
type ShipData struct {
	Symbol            string
	Role              string
	NavStatus         string
	WaypointSymbol    string
	SystemSymbol      string
	FlightMode        string
	DestinationSymbol string
	ArrivalTime       string
	FuelCurrent       int
	FuelCapacity      int
	CargoCapacity     int
	CargoUnits        int
	CargoInventory    []CargoItemData
	EngineSpeed       int
}

// CargoItemData is one inventory row in a ship payload
type CargoItemData struct {
	Symbol string
	Units  int
}

// NavigationData is the reply to a navigate command
type NavigationData struct {
	DestinationSymbol string
	ArrivalTime       string
	FuelConsumed      int
}

// RefuelData is the reply to a refuel command
type RefuelData struct {
	FuelCurrent  int
	FuelCapacity int
	FuelAdded    int
	TotalPrice   int
}

// WaypointData is one waypoint as the remote API reports it
type WaypointData struct {
	Symbol       string
	SystemSymbol string
	Type         string
	X            float64
	Y            float64
	Traits       []string
	Orbitals     []string
}

// WaypointPage is one page of a system's waypoint listing
type WaypointPage struct {
	Waypoints []*WaypointData
	Total     int
	Page      int
	Limit     int
}

// ContractData is a contract as the remote API reports it
type ContractData struct {
	ID                 string
	FactionSymbol      string
	Type               string
	Accepted           bool
	Fulfilled          bool
	Deadline           string
	PaymentOnAccepted  int
	PaymentOnFulfilled int
	Deliveries         []DeliveryData
}

// DeliveryData is one delivery obligation of a contract
type DeliveryData struct {
	TradeSymbol       string
	DestinationSymbol string
	UnitsRequired     int
	UnitsFulfilled    int
}

// PurchaseData is the reply to a cargo purchase
type PurchaseData struct {
	TotalCost  int
	UnitsAdded int
}

// SellData is the reply to a cargo sale
type SellData struct {
	TotalRevenue int
	UnitsSold    int
}

// ShipyardData is a shipyard listing
type ShipyardData struct {
	Symbol          string
	ShipTypes       []string
	Listings        []ShipListingData
	ModificationFee int
}

// ShipListingData is one purchasable ship at a shipyard
type ShipListingData struct {
	Type          string
	Name          string
	PurchasePrice int
}

// ShipPurchaseData is the reply to a ship purchase
type ShipPurchaseData struct {
	Ship         *ShipData
	AgentCredits int64
	Price        int
}
