package contract_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcontract "github.com/andrescamacho/fleetd/internal/application/contract"
	"github.com/andrescamacho/fleetd/internal/application/mediator"
	appship "github.com/andrescamacho/fleetd/internal/application/ship"
	"github.com/andrescamacho/fleetd/internal/domain/market"
	"github.com/andrescamacho/fleetd/internal/domain/navigation"
	"github.com/andrescamacho/fleetd/internal/domain/player"
	"github.com/andrescamacho/fleetd/internal/domain/ports"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// fakeContractAPI drives the contract slice of the remote API in memory
type fakeContractAPI struct {
	ports.APIClient
	contract       *ports.ContractData
	negotiateCalls int
	purchases      []int
}

func (a *fakeContractAPI) NegotiateContract(_ context.Context, _ string, _ string) (*ports.ContractData, error) {
	a.negotiateCalls++
	if a.contract != nil && !a.contract.Fulfilled {
		return nil, shared.NewAPIError(400, 4511, "an existing contract must be fulfilled first")
	}
	a.contract = &ports.ContractData{
		ID:                 "cnt-1",
		FactionSymbol:      "COSMIC",
		Type:               "PROCUREMENT",
		Deadline:           time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		PaymentOnAccepted:  1000,
		PaymentOnFulfilled: 5000,
		Deliveries: []ports.DeliveryData{{
			TradeSymbol:       "FAB_MATS",
			DestinationSymbol: "X1-CT-D",
			UnitsRequired:     10,
		}},
	}
	return a.contract, nil
}

func (a *fakeContractAPI) ListContracts(_ context.Context, _ string) ([]*ports.ContractData, error) {
	if a.contract == nil {
		return nil, nil
	}
	return []*ports.ContractData{a.contract}, nil
}

func (a *fakeContractAPI) AcceptContract(_ context.Context, contractID, _ string) (*ports.ContractData, error) {
	a.contract.Accepted = true
	return a.contract, nil
}

func (a *fakeContractAPI) DeliverContract(_ context.Context, _, _, goodSymbol string, units int, _ string) (*ports.ContractData, error) {
	a.contract.Deliveries[0].UnitsFulfilled += units
	return a.contract, nil
}

func (a *fakeContractAPI) FulfillContract(_ context.Context, contractID, _ string) (*ports.ContractData, error) {
	if a.contract.Deliveries[0].UnitsFulfilled < a.contract.Deliveries[0].UnitsRequired {
		return nil, shared.NewAPIError(400, 4509, "contract terms not met")
	}
	a.contract.Fulfilled = true
	return a.contract, nil
}

func (a *fakeContractAPI) PurchaseCargo(_ context.Context, _, _ string, units int, _ string) (*ports.PurchaseData, error) {
	a.purchases = append(a.purchases, units)
	return &ports.PurchaseData{TotalCost: units * 50, UnitsAdded: units}, nil
}

func (a *fakeContractAPI) JettisonCargo(_ context.Context, _, _ string, _ int, _ string) error {
	return nil
}

type fakePlayerRepo struct {
	player.PlayerRepository
}

func (r *fakePlayerRepo) FindByID(_ context.Context, playerID int) (*player.Player, error) {
	return &player.Player{ID: playerID, AgentSymbol: "HAULER", Token: "tok"}, nil
}

type fakeShipRepo struct {
	navigation.ShipRepository
	ship *navigation.Ship
}

func (r *fakeShipRepo) FindBySymbol(_ context.Context, _ string, _ int) (*navigation.Ship, error) {
	return r.ship, nil
}

type fakeMarketRepo struct {
	market.MarketRepository
	snapshot *market.Market
}

func (r *fakeMarketRepo) FindAllMarketsInSystem(_ context.Context, _ string, _ int) ([]string, error) {
	return []string{r.snapshot.WaypointSymbol()}, nil
}

func (r *fakeMarketRepo) GetMarketData(_ context.Context, waypointSymbol string, _ int) (*market.Market, error) {
	if waypointSymbol != r.snapshot.WaypointSymbol() {
		return nil, nil
	}
	return r.snapshot, nil
}

// stubHandler satisfies the mediator with a canned function
type stubHandler struct {
	fn func(ctx context.Context, request mediator.Request) (mediator.Response, error)
}

func (h *stubHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	return h.fn(ctx, request)
}

func TestBatchContractWorkflow_FulfillsContractInTrips(t *testing.T) {
	// Arrange
	api := &fakeContractAPI{}
	players := &fakePlayerRepo{}

	wp, err := shared.NewWaypoint("X1-CT-A", 0, 0)
	require.NoError(t, err)
	haulShip := navigation.ReconstructShip("HAULER-1", shared.MustNewPlayerID(1), wp,
		&shared.Fuel{Current: 400, Capacity: 400},
		&shared.Cargo{Capacity: 5, Inventory: []*shared.CargoItem{}},
		10, navigation.NavStatusDocked, shared.FlightModeCruise)
	ships := &fakeShipRepo{ship: haulShip}

	good, err := market.NewTradeGood("FAB_MATS", "ABUNDANT", "STRONG", 40, 50, 20)
	require.NoError(t, err)
	snapshot, err := market.NewMarket("X1-CT-M", []*market.TradeGood{good}, time.Now())
	require.NoError(t, err)
	markets := &fakeMarketRepo{snapshot: snapshot}

	var navigated []string
	med := mediator.NewMediator()
	require.NoError(t, mediator.RegisterHandler[*appcontract.NegotiateContractCommand](med, appcontract.NewNegotiateContractHandler(api, players)))
	require.NoError(t, mediator.RegisterHandler[*appcontract.AcceptContractCommand](med, appcontract.NewAcceptContractHandler(api, players)))
	require.NoError(t, mediator.RegisterHandler[*appcontract.DeliverContractCommand](med, appcontract.NewDeliverContractHandler(api, players)))
	require.NoError(t, mediator.RegisterHandler[*appcontract.FulfillContractCommand](med, appcontract.NewFulfillContractHandler(api, players)))
	require.NoError(t, mediator.RegisterHandler[*appship.PurchaseCargoCommand](med, appship.NewPurchaseCargoHandler(api, players, markets)))
	require.NoError(t, mediator.RegisterHandler[*appship.JettisonCargoCommand](med, appship.NewJettisonCargoHandler(api, players)))
	require.NoError(t, mediator.RegisterHandler[*appship.NavigateShipCommand](med, &stubHandler{fn: func(_ context.Context, request mediator.Request) (mediator.Response, error) {
		navigated = append(navigated, request.(*appship.NavigateShipCommand).Destination)
		return &appship.NavigateShipResponse{Status: "COMPLETED"}, nil
	}}))
	require.NoError(t, mediator.RegisterHandler[*appship.DockShipCommand](med, &stubHandler{fn: func(_ context.Context, _ mediator.Request) (mediator.Response, error) {
		return &appship.DockShipResponse{Status: "docked"}, nil
	}}))

	handler := appcontract.NewBatchContractWorkflowHandler(med, ships, appcontract.NewMarketFinder(markets))

	// Act
	res, err := handler.Handle(context.Background(), &appcontract.BatchContractWorkflowCommand{
		ShipSymbol: "HAULER-1",
		PlayerID:   1,
		Iterations: 1,
	})

	// Assert
	require.NoError(t, err)
	response := res.(*appcontract.BatchContractWorkflowResponse)
	assert.Equal(t, 1, response.Report.Negotiated)
	assert.Equal(t, 1, response.Report.Accepted)
	assert.Equal(t, 1, response.Report.Fulfilled)
	assert.Equal(t, 0, response.Report.Failed)
	assert.Equal(t, 6000, response.TotalProfit)
	// 10 units at capacity 5 means two round trips
	assert.Equal(t, 2, response.TotalTrips)
	assert.Equal(t, []int{5, 5}, api.purchases)
	assert.Contains(t, navigated, "X1-CT-M")
	assert.Contains(t, navigated, "X1-CT-D")
	assert.True(t, api.contract.Fulfilled)
}

func TestBatchContractWorkflow_ResumesOpenContract(t *testing.T) {
	api := &fakeContractAPI{contract: &ports.ContractData{
		ID:            "cnt-0",
		FactionSymbol: "COSMIC",
		Type:          "PROCUREMENT",
		Accepted:      true,
		Deadline:      time.Now().Add(time.Hour).Format(time.RFC3339),
		Deliveries: []ports.DeliveryData{{
			TradeSymbol:       "FAB_MATS",
			DestinationSymbol: "X1-CT-D",
			UnitsRequired:     4,
			UnitsFulfilled:    4,
		}},
	}}
	players := &fakePlayerRepo{}
	handler := appcontract.NewNegotiateContractHandler(api, players)

	res, err := handler.Handle(context.Background(), &appcontract.NegotiateContractCommand{ShipSymbol: "HAULER-1", PlayerID: 1})

	require.NoError(t, err)
	response := res.(*appcontract.NegotiateContractResponse)
	assert.False(t, response.WasNegotiated)
	assert.Equal(t, "cnt-0", response.Contract.ContractID())
}

func TestBatchContractWorkflow_FailedIterationIsReported(t *testing.T) {
	// No market snapshot anywhere: the haul cannot source the good
	api := &fakeContractAPI{}
	players := &fakePlayerRepo{}

	wp, err := shared.NewWaypoint("X1-CT-A", 0, 0)
	require.NoError(t, err)
	haulShip := navigation.ReconstructShip("HAULER-1", shared.MustNewPlayerID(1), wp,
		&shared.Fuel{Current: 400, Capacity: 400},
		&shared.Cargo{Capacity: 5, Inventory: []*shared.CargoItem{}},
		10, navigation.NavStatusDocked, shared.FlightModeCruise)

	med := mediator.NewMediator()
	require.NoError(t, mediator.RegisterHandler[*appcontract.NegotiateContractCommand](med, appcontract.NewNegotiateContractHandler(api, players)))
	require.NoError(t, mediator.RegisterHandler[*appcontract.AcceptContractCommand](med, appcontract.NewAcceptContractHandler(api, players)))

	handler := appcontract.NewBatchContractWorkflowHandler(med, &fakeShipRepo{ship: haulShip},
		appcontract.NewMarketFinder(&emptyMarketRepo{}))

	res, err := handler.Handle(context.Background(), &appcontract.BatchContractWorkflowCommand{
		ShipSymbol: "HAULER-1",
		PlayerID:   1,
		Iterations: 1,
	})

	require.NoError(t, err)
	response := res.(*appcontract.BatchContractWorkflowResponse)
	assert.Equal(t, 1, response.Report.Failed)
	require.Len(t, response.Report.Errors, 1)
	assert.Contains(t, response.Report.Errors[0], "FAB_MATS")
}

type emptyMarketRepo struct {
	market.MarketRepository
}

func (r *emptyMarketRepo) FindAllMarketsInSystem(_ context.Context, _ string, _ int) ([]string, error) {
	return nil, nil
}
