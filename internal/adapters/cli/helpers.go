package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/fleetd/internal/adapters/api"
	"github.com/andrescamacho/fleetd/internal/adapters/persistence"
	"github.com/andrescamacho/fleetd/internal/adapters/rpc"
	"github.com/andrescamacho/fleetd/internal/domain/player"
	domainPorts "github.com/andrescamacho/fleetd/internal/domain/ports"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/internal/infrastructure/config"
	"github.com/andrescamacho/fleetd/internal/infrastructure/database"
)

const callTimeout = 30 * time.Second

func daemonClient() *rpc.Client {
	return rpc.NewClient(socketPath)
}

func callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), callTimeout)
}

// localEnv gives commands that bypass the daemon (player management, ship
// reads) direct access to storage and the API
type localEnv struct {
	cfg        *config.Config
	db         *gorm.DB
	client     domainPorts.APIClient
	playerRepo player.PlayerRepository
}

func openLocal() (*localEnv, error) {
	cfg := config.LoadConfigOrDefault(configPath)

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &localEnv{
		cfg:        cfg,
		db:         db,
		client:     api.NewClient(&cfg.API),
		playerRepo: persistence.NewGormPlayerRepository(db, shared.NewRealClock()),
	}, nil
}

func (e *localEnv) Close() {
	database.Close(e.db)
}

// resolvePlayerID turns the --player-id/--agent flags into a concrete
// player ID, looking the agent up in storage when needed
func resolvePlayerID(ctx context.Context) (int, error) {
	applyUserDefaults()
	if playerID > 0 {
		return playerID, nil
	}
	if agentSymbol == "" {
		return 0, fmt.Errorf("either --player-id or --agent is required")
	}

	env, err := openLocal()
	if err != nil {
		return 0, err
	}
	defer env.Close()

	p, err := env.playerRepo.FindByAgentSymbol(ctx, agentSymbol)
	if err != nil {
		return 0, fmt.Errorf("resolve agent %s: %w", agentSymbol, err)
	}
	return p.ID, nil
}

// applyUserDefaults fills missing --player-id/--agent flags from the
// preferences file in ~/.fleetd. Flags always win over stored defaults.
func applyUserDefaults() {
	if playerID > 0 || agentSymbol != "" {
		return
	}
	handler, err := config.NewUserConfigHandler()
	if err != nil {
		return
	}
	prefs, err := handler.Load()
	if err != nil {
		return
	}
	if prefs.DefaultPlayerID != nil {
		playerID = *prefs.DefaultPlayerID
	} else if prefs.DefaultAgent != "" {
		agentSymbol = prefs.DefaultAgent
	}
}

// lookupPlayer resolves the --player-id/--agent flags against an already
// open environment, returning the full record including the API token
func lookupPlayer(ctx context.Context, env *localEnv) (*player.Player, error) {
	applyUserDefaults()
	if playerID > 0 {
		return env.playerRepo.FindByID(ctx, playerID)
	}
	if agentSymbol == "" {
		return nil, fmt.Errorf("either --player-id or --agent is required")
	}
	return env.playerRepo.FindByAgentSymbol(ctx, agentSymbol)
}

// launchContainer asks the daemon to create and start a workflow container
// and prints the container ID the user can follow with `container logs`
func launchContainer(ctx context.Context, containerType string, iterations int, restartPolicy string, config map[string]interface{}) error {
	pid, err := resolvePlayerID(ctx)
	if err != nil {
		return err
	}

	var view rpc.ContainerView
	err = daemonClient().Call(ctx, "container.create", map[string]interface{}{
		"type":           containerType,
		"player_id":      pid,
		"max_iterations": iterations,
		"restart_policy": restartPolicy,
		"config":         config,
		"autostart":      true,
	}, &view)
	if err != nil {
		return err
	}

	if verbose {
		return printJSON(view)
	}
	fmt.Printf("%s  %s\n", view.ID, view.Status)
	return nil
}

func printJSON(value interface{}) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}
