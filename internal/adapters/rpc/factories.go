package rpc

import (
	"fmt"

	"github.com/andrescamacho/fleetd/internal/application/contract"
	"github.com/andrescamacho/fleetd/internal/application/mediator"
	"github.com/andrescamacho/fleetd/internal/application/scouting"
	appship "github.com/andrescamacho/fleetd/internal/application/ship"
	"github.com/andrescamacho/fleetd/internal/domain/container"
)

// commandFactories maps each container type to the factory that rebuilds
// its workflow command from persisted config. Config documents come back
// from JSON, so numerics arrive as float64 and lists as []interface{}.
func commandFactories() map[container.ContainerType]CommandFactory {
	return map[container.ContainerType]CommandFactory{
		container.ContainerTypeNavigate: func(config map[string]interface{}, playerID int) (mediator.Request, error) {
			ship, err := configString(config, "ship_symbol")
			if err != nil {
				return nil, err
			}
			destination, err := configString(config, "destination")
			if err != nil {
				return nil, err
			}
			return &appship.NavigateShipCommand{
				ShipSymbol:   ship,
				Destination:  destination,
				PlayerID:     playerID,
				PreferCruise: configBool(config, "prefer_cruise"),
			}, nil
		},

		container.ContainerTypeDock: func(config map[string]interface{}, playerID int) (mediator.Request, error) {
			ship, err := configString(config, "ship_symbol")
			if err != nil {
				return nil, err
			}
			return &appship.DockShipCommand{ShipSymbol: ship, PlayerID: playerID}, nil
		},

		container.ContainerTypeOrbit: func(config map[string]interface{}, playerID int) (mediator.Request, error) {
			ship, err := configString(config, "ship_symbol")
			if err != nil {
				return nil, err
			}
			return &appship.OrbitShipCommand{ShipSymbol: ship, PlayerID: playerID}, nil
		},

		container.ContainerTypeRefuel: func(config map[string]interface{}, playerID int) (mediator.Request, error) {
			ship, err := configString(config, "ship_symbol")
			if err != nil {
				return nil, err
			}
			cmd := &appship.RefuelShipCommand{ShipSymbol: ship, PlayerID: playerID}
			if units, ok := configInt(config, "units"); ok {
				cmd.Units = &units
			}
			return cmd, nil
		},

		container.ContainerTypeScoutTour: func(config map[string]interface{}, playerID int) (mediator.Request, error) {
			ship, err := configString(config, "ship_symbol")
			if err != nil {
				return nil, err
			}
			markets, err := configStringSlice(config, "markets")
			if err != nil {
				return nil, err
			}
			iterations, ok := configInt(config, "iterations")
			if !ok {
				iterations = 1
			}
			return &scouting.ScoutTourCommand{
				PlayerID:   playerID,
				ShipSymbol: ship,
				Markets:    markets,
				Iterations: iterations,
			}, nil
		},

		container.ContainerTypeScoutMarkets: func(config map[string]interface{}, playerID int) (mediator.Request, error) {
			ships, err := configStringSlice(config, "ship_symbols")
			if err != nil {
				return nil, err
			}
			system, err := configString(config, "system_symbol")
			if err != nil {
				return nil, err
			}
			var markets []string
			if _, present := config["markets"]; present {
				if markets, err = configStringSlice(config, "markets"); err != nil {
					return nil, err
				}
			}
			iterations, ok := configInt(config, "iterations")
			if !ok {
				iterations = -1
			}
			return &scouting.ScoutMarketsCommand{
				PlayerID:     playerID,
				ShipSymbols:  ships,
				SystemSymbol: system,
				Markets:      markets,
				Iterations:   iterations,
				Reset:        configBool(config, "reset"),
			}, nil
		},

		container.ContainerTypeMarketWorker: func(config map[string]interface{}, playerID int) (mediator.Request, error) {
			ship, err := configString(config, "ship_symbol")
			if err != nil {
				return nil, err
			}
			containerID, err := configString(config, "container_id")
			if err != nil {
				return nil, err
			}
			if _, err := configStringSlice(config, "markets"); err != nil {
				return nil, err
			}
			return &scouting.MarketWorkerCommand{
				PlayerID:    playerID,
				ShipSymbol:  ship,
				ContainerID: containerID,
			}, nil
		},

		container.ContainerTypeContractWorkflow: func(config map[string]interface{}, playerID int) (mediator.Request, error) {
			ship, err := configString(config, "ship_symbol")
			if err != nil {
				return nil, err
			}
			iterations, ok := configInt(config, "iterations")
			if !ok {
				iterations = 1
			}
			return &contract.BatchContractWorkflowCommand{
				ShipSymbol: ship,
				PlayerID:   playerID,
				Iterations: iterations,
			}, nil
		},
	}
}

func configString(config map[string]interface{}, key string) (string, error) {
	value, ok := config[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("missing or invalid %s", key)
	}
	return value, nil
}

func configStringSlice(config map[string]interface{}, key string) ([]string, error) {
	switch raw := config[key].(type) {
	case []string:
		if len(raw) == 0 {
			return nil, fmt.Errorf("missing or invalid %s", key)
		}
		return raw, nil
	case []interface{}:
		if len(raw) == 0 {
			return nil, fmt.Errorf("missing or invalid %s", key)
		}
		values := make([]string, len(raw))
		for i, entry := range raw {
			s, ok := entry.(string)
			if !ok {
				return nil, fmt.Errorf("invalid %s entry at index %d", key, i)
			}
			values[i] = s
		}
		return values, nil
	default:
		return nil, fmt.Errorf("missing or invalid %s", key)
	}
}

func configInt(config map[string]interface{}, key string) (int, bool) {
	switch n := config[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func configBool(config map[string]interface{}, key string) bool {
	value, _ := config[key].(bool)
	return value
}
