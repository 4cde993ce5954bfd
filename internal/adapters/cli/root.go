package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	socketPath  string
	playerID    int
	agentSymbol string
	configPath  string
	verbose     bool
)

// NewRootCommand creates the fleetctl root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fleetctl",
		Short: "fleetctl - control the fleetd daemon",
		Long: `fleetctl talks to the fleetd daemon over its unix socket and manages
players, ships, scouting, workflows and the containers that run them.

Examples:
  fleetctl player register MYAGENT --faction COSMIC
  fleetctl ship navigate MYAGENT-1 --to X1-GZ7-B1 --player-id 1
  fleetctl scout markets --system X1-GZ7 --ships MYAGENT-2,MYAGENT-3 --player-id 1
  fleetctl workflow batch-contract MYAGENT-1 --iterations 5 --player-id 1
  fleetctl container list
  fleetctl container logs <container-id>
  fleetctl daemon health`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", defaultSocketPath(),
		"Path to the daemon unix socket")
	rootCmd.PersistentFlags().IntVar(&playerID, "player-id", 0,
		"Player ID owning the operation")
	rootCmd.PersistentFlags().StringVar(&agentSymbol, "agent", "",
		"Agent symbol (alternative to --player-id)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewPlayerCommand())
	rootCmd.AddCommand(NewShipCommand())
	rootCmd.AddCommand(NewScoutCommand())
	rootCmd.AddCommand(NewWorkflowCommand())
	rootCmd.AddCommand(NewContainerCommand())
	rootCmd.AddCommand(NewDaemonCommand())

	return rootCmd
}

func defaultSocketPath() string {
	if path := os.Getenv("SPACETRADERS_DAEMON_SOCKET"); path != "" {
		return path
	}
	return "var/daemon.sock"
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
