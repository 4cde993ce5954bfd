package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/andrescamacho/fleetd/internal/domain/market"
	"github.com/andrescamacho/fleetd/internal/domain/player"
	"github.com/andrescamacho/fleetd/internal/domain/ports"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/internal/infrastructure/config"
)

const (
	defaultBaseURL = "https://api.spacetraders.io/v2"
	defaultTimeout = 30 * time.Second
)

// Client implements ports.APIClient against the remote HTTP API. A token
// bucket paces all outgoing calls; errors come back typed (APIError for 4xx,
// RateLimitError for 429, TransientError for 5xx and network failures) and
// the client never retries on its own. Tokens ride only in the
// Authorization header, never in URLs or error text.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	breaker    *CircuitBreaker
}

// NewClient creates an API client from configuration
func NewClient(cfg *config.APIConfig) *Client {
	baseURL := defaultBaseURL
	timeout := defaultTimeout
	requests := rate.Limit(2)
	burst := 10
	var breaker *CircuitBreaker

	if cfg != nil {
		if cfg.BaseURL != "" {
			baseURL = cfg.BaseURL
		}
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
		if cfg.RateLimit.Requests > 0 {
			requests = rate.Limit(cfg.RateLimit.Requests)
		}
		if cfg.RateLimit.Burst > 0 {
			burst = cfg.RateLimit.Burst
		}
		if cfg.CircuitBreaker.Enabled {
			threshold := cfg.CircuitBreaker.FailureThreshold
			if threshold <= 0 {
				threshold = 5
			}
			resetTimeout := cfg.CircuitBreaker.ResetTimeout
			if resetTimeout <= 0 {
				resetTimeout = 30 * time.Second
			}
			breaker = NewCircuitBreaker(threshold, resetTimeout, nil)
		}
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(requests, burst),
		baseURL:    baseURL,
		breaker:    breaker,
	}
}

// RegisterAgent registers a new agent with the given faction. Registration
// is the one unauthenticated call; the reply carries the agent's permanent
// token.
func (c *Client) RegisterAgent(ctx context.Context, symbol, faction string) (*player.AgentData, error) {
	body := map[string]string{
		"symbol":  symbol,
		"faction": faction,
	}

	var response struct {
		Data struct {
			Token string       `json:"token"`
			Agent agentPayload `json:"agent"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodPost, "/register", "", body, &response); err != nil {
		return nil, fmt.Errorf("failed to register agent: %w", err)
	}

	data := response.Data.Agent.toData()
	data.Token = response.Data.Token
	return data, nil
}

// GetAgent retrieves the authenticated agent
func (c *Client) GetAgent(ctx context.Context, token string) (*player.AgentData, error) {
	var response struct {
		Data agentPayload `json:"data"`
	}

	if err := c.do(ctx, http.MethodGet, "/my/agent", token, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	return response.Data.toData(), nil
}

// GetShip retrieves one ship
func (c *Client) GetShip(ctx context.Context, symbol, token string) (*ports.ShipData, error) {
	path := fmt.Sprintf("/my/ships/%s", symbol)

	var response struct {
		Data shipPayload `json:"data"`
	}

	if err := c.do(ctx, http.MethodGet, path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to get ship: %w", err)
	}

	return response.Data.toData(), nil
}

// ListShips retrieves every ship the agent owns, walking pagination
func (c *Client) ListShips(ctx context.Context, token string) ([]*ports.ShipData, error) {
	var ships []*ports.ShipData
	page := 1
	limit := 20

	for {
		path := fmt.Sprintf("/my/ships?page=%d&limit=%d", page, limit)

		var response struct {
			Data []shipPayload  `json:"data"`
			Meta paginationMeta `json:"meta"`
		}

		if err := c.do(ctx, http.MethodGet, path, token, nil, &response); err != nil {
			return nil, fmt.Errorf("failed to list ships (page %d): %w", page, err)
		}

		for i := range response.Data {
			ships = append(ships, response.Data[i].toData())
		}

		if len(ships) >= response.Meta.Total || len(response.Data) == 0 {
			break
		}
		page++
	}

	return ships, nil
}

// NavigateShip sends a ship toward a destination waypoint
func (c *Client) NavigateShip(ctx context.Context, symbol, destination, token string) (*ports.NavigationData, error) {
	path := fmt.Sprintf("/my/ships/%s/navigate", symbol)
	body := map[string]string{"waypointSymbol": destination}

	var response struct {
		Data struct {
			Fuel struct {
				Consumed struct {
					Amount int `json:"amount"`
				} `json:"consumed"`
			} `json:"fuel"`
			Nav struct {
				WaypointSymbol string `json:"waypointSymbol"`
				Route          struct {
					Arrival string `json:"arrival"`
				} `json:"route"`
			} `json:"nav"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodPost, path, token, body, &response); err != nil {
		return nil, fmt.Errorf("failed to navigate ship: %w", err)
	}

	return &ports.NavigationData{
		DestinationSymbol: response.Data.Nav.WaypointSymbol,
		ArrivalTime:       response.Data.Nav.Route.Arrival,
		FuelConsumed:      response.Data.Fuel.Consumed.Amount,
	}, nil
}

// OrbitShip puts a ship into orbit at its current waypoint
func (c *Client) OrbitShip(ctx context.Context, symbol, token string) error {
	path := fmt.Sprintf("/my/ships/%s/orbit", symbol)

	// The API rejects a nil body on this endpoint
	if err := c.do(ctx, http.MethodPost, path, token, map[string]interface{}{}, nil); err != nil {
		return fmt.Errorf("failed to orbit ship: %w", err)
	}
	return nil
}

// DockShip docks a ship at its current waypoint
func (c *Client) DockShip(ctx context.Context, symbol, token string) error {
	path := fmt.Sprintf("/my/ships/%s/dock", symbol)

	if err := c.do(ctx, http.MethodPost, path, token, map[string]interface{}{}, nil); err != nil {
		return fmt.Errorf("failed to dock ship: %w", err)
	}
	return nil
}

// RefuelShip buys fuel at the current waypoint. A nil units fills the tank.
func (c *Client) RefuelShip(ctx context.Context, symbol, token string, units *int) (*ports.RefuelData, error) {
	path := fmt.Sprintf("/my/ships/%s/refuel", symbol)

	body := map[string]interface{}{}
	if units != nil {
		body["units"] = *units
	}

	var response struct {
		Data struct {
			Fuel struct {
				Current  int `json:"current"`
				Capacity int `json:"capacity"`
			} `json:"fuel"`
			Transaction struct {
				Units      int `json:"units"`
				TotalPrice int `json:"totalPrice"`
			} `json:"transaction"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodPost, path, token, body, &response); err != nil {
		return nil, fmt.Errorf("failed to refuel ship: %w", err)
	}

	return &ports.RefuelData{
		FuelCurrent:  response.Data.Fuel.Current,
		FuelCapacity: response.Data.Fuel.Capacity,
		FuelAdded:    response.Data.Transaction.Units,
		TotalPrice:   response.Data.Transaction.TotalPrice,
	}, nil
}

// SetFlightMode switches the mode used for subsequent navigate commands
func (c *Client) SetFlightMode(ctx context.Context, symbol, flightMode, token string) error {
	path := fmt.Sprintf("/my/ships/%s/nav", symbol)
	body := map[string]string{"flightMode": flightMode}

	if err := c.do(ctx, http.MethodPatch, path, token, body, nil); err != nil {
		return fmt.Errorf("failed to set flight mode: %w", err)
	}
	return nil
}

// ListWaypoints retrieves one page of a system's waypoint listing
func (c *Client) ListWaypoints(ctx context.Context, systemSymbol, token string, page, limit int) (*ports.WaypointPage, error) {
	path := fmt.Sprintf("/systems/%s/waypoints?page=%d&limit=%d", systemSymbol, page, limit)

	var response struct {
		Data []struct {
			Symbol       string  `json:"symbol"`
			SystemSymbol string  `json:"systemSymbol"`
			Type         string  `json:"type"`
			X            float64 `json:"x"`
			Y            float64 `json:"y"`
			Traits       []struct {
				Symbol string `json:"symbol"`
			} `json:"traits"`
			Orbitals []struct {
				Symbol string `json:"symbol"`
			} `json:"orbitals"`
		} `json:"data"`
		Meta paginationMeta `json:"meta"`
	}

	if err := c.do(ctx, http.MethodGet, path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to list waypoints: %w", err)
	}

	waypoints := make([]*ports.WaypointData, 0, len(response.Data))
	for _, wp := range response.Data {
		traits := make([]string, 0, len(wp.Traits))
		for _, trait := range wp.Traits {
			traits = append(traits, trait.Symbol)
		}
		orbitals := make([]string, 0, len(wp.Orbitals))
		for _, orbital := range wp.Orbitals {
			orbitals = append(orbitals, orbital.Symbol)
		}

		waypoints = append(waypoints, &ports.WaypointData{
			Symbol:       wp.Symbol,
			SystemSymbol: wp.SystemSymbol,
			Type:         wp.Type,
			X:            wp.X,
			Y:            wp.Y,
			Traits:       traits,
			Orbitals:     orbitals,
		})
	}

	return &ports.WaypointPage{
		Waypoints: waypoints,
		Total:     response.Meta.Total,
		Page:      response.Meta.Page,
		Limit:     response.Meta.Limit,
	}, nil
}

// GetMarket retrieves a waypoint's market. Trade goods with prices only
// appear when the player has a ship at the waypoint.
func (c *Client) GetMarket(ctx context.Context, systemSymbol, waypointSymbol, token string) (*market.Data, error) {
	path := fmt.Sprintf("/systems/%s/waypoints/%s/market", systemSymbol, waypointSymbol)

	var response struct {
		Data struct {
			Symbol     string `json:"symbol"`
			TradeGoods []struct {
				Symbol        string `json:"symbol"`
				Supply        string `json:"supply"`
				Activity      string `json:"activity"`
				PurchasePrice int    `json:"purchasePrice"`
				SellPrice     int    `json:"sellPrice"`
				TradeVolume   int    `json:"tradeVolume"`
			} `json:"tradeGoods"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodGet, path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}

	goods := make([]market.TradeGoodData, len(response.Data.TradeGoods))
	for i, good := range response.Data.TradeGoods {
		goods[i] = market.TradeGoodData{
			Symbol:        good.Symbol,
			Supply:        good.Supply,
			Activity:      good.Activity,
			PurchasePrice: good.PurchasePrice,
			SellPrice:     good.SellPrice,
			TradeVolume:   good.TradeVolume,
		}
	}

	return &market.Data{
		WaypointSymbol: response.Data.Symbol,
		TradeGoods:     goods,
	}, nil
}

// NegotiateContract negotiates a new contract using a docked ship
func (c *Client) NegotiateContract(ctx context.Context, shipSymbol, token string) (*ports.ContractData, error) {
	path := fmt.Sprintf("/my/ships/%s/negotiate/contract", shipSymbol)

	var response struct {
		Data struct {
			Contract contractPayload `json:"contract"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodPost, path, token, map[string]interface{}{}, &response); err != nil {
		return nil, fmt.Errorf("failed to negotiate contract: %w", err)
	}

	return response.Data.Contract.toData(), nil
}

// ListContracts retrieves all of the agent's contracts
func (c *Client) ListContracts(ctx context.Context, token string) ([]*ports.ContractData, error) {
	var contracts []*ports.ContractData
	page := 1
	limit := 20

	for {
		path := fmt.Sprintf("/my/contracts?page=%d&limit=%d", page, limit)

		var response struct {
			Data []contractPayload `json:"data"`
			Meta paginationMeta    `json:"meta"`
		}

		if err := c.do(ctx, http.MethodGet, path, token, nil, &response); err != nil {
			return nil, fmt.Errorf("failed to list contracts (page %d): %w", page, err)
		}

		for i := range response.Data {
			contracts = append(contracts, response.Data[i].toData())
		}

		if len(contracts) >= response.Meta.Total || len(response.Data) == 0 {
			break
		}
		page++
	}

	return contracts, nil
}

// AcceptContract accepts a negotiated contract
func (c *Client) AcceptContract(ctx context.Context, contractID, token string) (*ports.ContractData, error) {
	path := fmt.Sprintf("/my/contracts/%s/accept", contractID)

	var response struct {
		Data struct {
			Contract contractPayload `json:"contract"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodPost, path, token, map[string]interface{}{}, &response); err != nil {
		return nil, fmt.Errorf("failed to accept contract: %w", err)
	}

	return response.Data.Contract.toData(), nil
}

// DeliverContract delivers cargo against a contract obligation
func (c *Client) DeliverContract(ctx context.Context, contractID, shipSymbol, goodSymbol string, units int, token string) (*ports.ContractData, error) {
	path := fmt.Sprintf("/my/contracts/%s/deliver", contractID)
	body := map[string]interface{}{
		"shipSymbol":  shipSymbol,
		"tradeSymbol": goodSymbol,
		"units":       units,
	}

	var response struct {
		Data struct {
			Contract contractPayload `json:"contract"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodPost, path, token, body, &response); err != nil {
		return nil, fmt.Errorf("failed to deliver contract cargo: %w", err)
	}

	return response.Data.Contract.toData(), nil
}

// FulfillContract fulfills a contract whose deliveries are complete
func (c *Client) FulfillContract(ctx context.Context, contractID, token string) (*ports.ContractData, error) {
	path := fmt.Sprintf("/my/contracts/%s/fulfill", contractID)

	var response struct {
		Data struct {
			Contract contractPayload `json:"contract"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodPost, path, token, map[string]interface{}{}, &response); err != nil {
		return nil, fmt.Errorf("failed to fulfill contract: %w", err)
	}

	return response.Data.Contract.toData(), nil
}

// PurchaseCargo buys goods at the current waypoint's market
func (c *Client) PurchaseCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, token string) (*ports.PurchaseData, error) {
	path := fmt.Sprintf("/my/ships/%s/purchase", shipSymbol)
	body := map[string]interface{}{
		"symbol": goodSymbol,
		"units":  units,
	}

	var response struct {
		Data struct {
			Transaction struct {
				Units      int `json:"units"`
				TotalPrice int `json:"totalPrice"`
			} `json:"transaction"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodPost, path, token, body, &response); err != nil {
		return nil, fmt.Errorf("failed to purchase cargo: %w", err)
	}

	return &ports.PurchaseData{
		TotalCost:  response.Data.Transaction.TotalPrice,
		UnitsAdded: response.Data.Transaction.Units,
	}, nil
}

// SellCargo sells goods at the current waypoint's market
func (c *Client) SellCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, token string) (*ports.SellData, error) {
	path := fmt.Sprintf("/my/ships/%s/sell", shipSymbol)
	body := map[string]interface{}{
		"symbol": goodSymbol,
		"units":  units,
	}

	var response struct {
		Data struct {
			Transaction struct {
				Units      int `json:"units"`
				TotalPrice int `json:"totalPrice"`
			} `json:"transaction"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodPost, path, token, body, &response); err != nil {
		return nil, fmt.Errorf("failed to sell cargo: %w", err)
	}

	return &ports.SellData{
		TotalRevenue: response.Data.Transaction.TotalPrice,
		UnitsSold:    response.Data.Transaction.Units,
	}, nil
}

// JettisonCargo dumps goods overboard
func (c *Client) JettisonCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, token string) error {
	path := fmt.Sprintf("/my/ships/%s/jettison", shipSymbol)
	body := map[string]interface{}{
		"symbol": goodSymbol,
		"units":  units,
	}

	if err := c.do(ctx, http.MethodPost, path, token, body, nil); err != nil {
		return fmt.Errorf("failed to jettison cargo: %w", err)
	}
	return nil
}

// GetShipyard retrieves a waypoint's shipyard listing
func (c *Client) GetShipyard(ctx context.Context, systemSymbol, waypointSymbol, token string) (*ports.ShipyardData, error) {
	path := fmt.Sprintf("/systems/%s/waypoints/%s/shipyard", systemSymbol, waypointSymbol)

	var response struct {
		Data struct {
			Symbol    string `json:"symbol"`
			ShipTypes []struct {
				Type string `json:"type"`
			} `json:"shipTypes"`
			Ships []struct {
				Type          string `json:"type"`
				Name          string `json:"name"`
				PurchasePrice int    `json:"purchasePrice"`
			} `json:"ships"`
			ModificationFee int `json:"modificationsFee"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodGet, path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to get shipyard: %w", err)
	}

	shipTypes := make([]string, 0, len(response.Data.ShipTypes))
	for _, st := range response.Data.ShipTypes {
		shipTypes = append(shipTypes, st.Type)
	}

	listings := make([]ports.ShipListingData, 0, len(response.Data.Ships))
	for _, ship := range response.Data.Ships {
		listings = append(listings, ports.ShipListingData{
			Type:          ship.Type,
			Name:          ship.Name,
			PurchasePrice: ship.PurchasePrice,
		})
	}

	return &ports.ShipyardData{
		Symbol:          response.Data.Symbol,
		ShipTypes:       shipTypes,
		Listings:        listings,
		ModificationFee: response.Data.ModificationFee,
	}, nil
}

// PurchaseShip buys a ship of the given type at a shipyard waypoint
func (c *Client) PurchaseShip(ctx context.Context, shipType, waypointSymbol, token string) (*ports.ShipPurchaseData, error) {
	body := map[string]interface{}{
		"shipType":       shipType,
		"waypointSymbol": waypointSymbol,
	}

	var response struct {
		Data struct {
			Agent       agentPayload `json:"agent"`
			Ship        shipPayload  `json:"ship"`
			Transaction struct {
				Price int `json:"price"`
			} `json:"transaction"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodPost, "/my/ships", token, body, &response); err != nil {
		return nil, fmt.Errorf("failed to purchase ship: %w", err)
	}

	return &ports.ShipPurchaseData{
		Ship:         response.Data.Ship.toData(),
		AgentCredits: response.Data.Agent.Credits,
		Price:        response.Data.Transaction.Price,
	}, nil
}

// do executes one HTTP call: wait for the token bucket, send, classify the
// reply. Exactly one attempt; callers decide whether an error is worth a
// second try.
func (c *Client) do(ctx context.Context, method, path, token string, body, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	if c.breaker == nil {
		return c.roundTrip(ctx, method, path, token, body, result)
	}
	return c.breaker.Call(func() error {
		return c.roundTrip(ctx, method, path, token, body, result)
	})
}

// roundTrip sends the request and maps the reply onto the typed error
// taxonomy
func (c *Client) roundTrip(ctx context.Context, method, path, token string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return shared.NewTransientError(0, fmt.Sprintf("network error calling %s %s", method, path))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return shared.NewTransientError(resp.StatusCode, "failed to read response body")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return shared.NewRateLimitError(parseRetryAfter(resp), "rate limited by upstream")

	case resp.StatusCode >= 500:
		return shared.NewTransientError(resp.StatusCode, fmt.Sprintf("server error (%d)", resp.StatusCode))

	case resp.StatusCode >= 400:
		apiCode, message := parseAPIError(respBody)
		if message == "" {
			message = fmt.Sprintf("request rejected (%d)", resp.StatusCode)
		}
		return shared.NewAPIError(resp.StatusCode, apiCode, message)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// parseRetryAfter reads the Retry-After header in seconds, zero when absent
func parseRetryAfter(resp *http.Response) float64 {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(header, 64)
	if err != nil {
		return 0
	}
	return seconds
}

// parseAPIError extracts the remote error envelope from a 4xx body
func parseAPIError(body []byte) (int, string) {
	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0, ""
	}
	return envelope.Error.Code, envelope.Error.Message
}

// paginationMeta is the shared list-endpoint cursor block
type paginationMeta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// agentPayload is the agent object as the API reports it
type agentPayload struct {
	AccountID       string `json:"accountId"`
	Symbol          string `json:"symbol"`
	Headquarters    string `json:"headquarters"`
	Credits         int64  `json:"credits"`
	StartingFaction string `json:"startingFaction"`
}

func (p *agentPayload) toData() *player.AgentData {
	return &player.AgentData{
		AccountID:       p.AccountID,
		Symbol:          p.Symbol,
		Headquarters:    p.Headquarters,
		Credits:         p.Credits,
		StartingFaction: p.StartingFaction,
	}
}

// shipPayload is the ship object as the API reports it, shared by the get,
// list and purchase replies
type shipPayload struct {
	Symbol       string `json:"symbol"`
	Registration struct {
		Role string `json:"role"`
	} `json:"registration"`
	Nav struct {
		SystemSymbol   string `json:"systemSymbol"`
		WaypointSymbol string `json:"waypointSymbol"`
		Status         string `json:"status"`
		FlightMode     string `json:"flightMode"`
		Route          struct {
			Arrival     string `json:"arrival"`
			Destination struct {
				Symbol string `json:"symbol"`
			} `json:"destination"`
		} `json:"route"`
	} `json:"nav"`
	Fuel struct {
		Current  int `json:"current"`
		Capacity int `json:"capacity"`
	} `json:"fuel"`
	Cargo struct {
		Capacity  int `json:"capacity"`
		Units     int `json:"units"`
		Inventory []struct {
			Symbol string `json:"symbol"`
			Units  int    `json:"units"`
		} `json:"inventory"`
	} `json:"cargo"`
	Engine struct {
		Speed int `json:"speed"`
	} `json:"engine"`
}

func (p *shipPayload) toData() *ports.ShipData {
	inventory := make([]ports.CargoItemData, len(p.Cargo.Inventory))
	for i, item := range p.Cargo.Inventory {
		inventory[i] = ports.CargoItemData{
			Symbol: item.Symbol,
			Units:  item.Units,
		}
	}

	// Destination and arrival only mean anything while IN_TRANSIT
	destination := ""
	arrival := ""
	if p.Nav.Status == "IN_TRANSIT" {
		destination = p.Nav.Route.Destination.Symbol
		arrival = p.Nav.Route.Arrival
	}

	return &ports.ShipData{
		Symbol:            p.Symbol,
		Role:              p.Registration.Role,
		NavStatus:         p.Nav.Status,
		WaypointSymbol:    p.Nav.WaypointSymbol,
		SystemSymbol:      p.Nav.SystemSymbol,
		FlightMode:        p.Nav.FlightMode,
		DestinationSymbol: destination,
		ArrivalTime:       arrival,
		FuelCurrent:       p.Fuel.Current,
		FuelCapacity:      p.Fuel.Capacity,
		CargoCapacity:     p.Cargo.Capacity,
		CargoUnits:        p.Cargo.Units,
		CargoInventory:    inventory,
		EngineSpeed:       p.Engine.Speed,
	}
}

// contractPayload is the contract object as the API reports it
type contractPayload struct {
	ID            string `json:"id"`
	FactionSymbol string `json:"factionSymbol"`
	Type          string `json:"type"`
	Accepted      bool   `json:"accepted"`
	Fulfilled     bool   `json:"fulfilled"`
	Terms         struct {
		Deadline string `json:"deadline"`
		Payment  struct {
			OnAccepted  int `json:"onAccepted"`
			OnFulfilled int `json:"onFulfilled"`
		} `json:"payment"`
		Deliver []struct {
			TradeSymbol       string `json:"tradeSymbol"`
			DestinationSymbol string `json:"destinationSymbol"`
			UnitsRequired     int    `json:"unitsRequired"`
			UnitsFulfilled    int    `json:"unitsFulfilled"`
		} `json:"deliver"`
	} `json:"terms"`
}

func (p *contractPayload) toData() *ports.ContractData {
	deliveries := make([]ports.DeliveryData, len(p.Terms.Deliver))
	for i, d := range p.Terms.Deliver {
		deliveries[i] = ports.DeliveryData{
			TradeSymbol:       d.TradeSymbol,
			DestinationSymbol: d.DestinationSymbol,
			UnitsRequired:     d.UnitsRequired,
			UnitsFulfilled:    d.UnitsFulfilled,
		}
	}

	return &ports.ContractData{
		ID:                 p.ID,
		FactionSymbol:      p.FactionSymbol,
		Type:               p.Type,
		Accepted:           p.Accepted,
		Fulfilled:          p.Fulfilled,
		Deadline:           p.Terms.Deadline,
		PaymentOnAccepted:  p.Terms.Payment.OnAccepted,
		PaymentOnFulfilled: p.Terms.Payment.OnFulfilled,
		Deliveries:         deliveries,
	}
}
