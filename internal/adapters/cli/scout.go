package cli

import (
	"github.com/spf13/cobra"
)

// NewScoutCommand builds the scout command group. Both verbs run as daemon
// containers so scans survive the CLI process.
func NewScoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scout",
		Short: "Collect market data with scout ships",
	}

	cmd.AddCommand(
		newScoutTourCommand(),
		newScoutMarketsCommand(),
	)
	return cmd
}

func newScoutTourCommand() *cobra.Command {
	var (
		markets    []string
		iterations int
		restart    string
	)

	cmd := &cobra.Command{
		Use:   "tour <ship-symbol>",
		Short: "Send one ship on a repeating tour of markets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			return launchContainer(ctx, "SCOUT_TOUR", iterations, restart, map[string]interface{}{
				"ship_symbol": args[0],
				"markets":     markets,
				"iterations":  iterations,
			})
		},
	}

	cmd.Flags().StringSliceVarP(&markets, "markets", "m", nil, "market waypoints to visit in order")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 1, "full tours to complete, -1 for unbounded")
	cmd.Flags().StringVar(&restart, "restart", "on-failure", "restart policy: no, on-failure, always")
	cmd.MarkFlagRequired("markets")
	return cmd
}

func newScoutMarketsCommand() *cobra.Command {
	var (
		ships      []string
		system     string
		markets    []string
		iterations int
		reset      bool
		restart    string
	)

	cmd := &cobra.Command{
		Use:   "markets",
		Short: "Partition a system's markets across a scout fleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			config := map[string]interface{}{
				"ship_symbols":  ships,
				"system_symbol": system,
				"iterations":    iterations,
				"reset":         reset,
			}
			if len(markets) > 0 {
				config["markets"] = markets
			}
			return launchContainer(ctx, "SCOUT_MARKETS", iterations, restart, config)
		},
	}

	cmd.Flags().StringSliceVarP(&ships, "ships", "s", nil, "scout ship symbols")
	cmd.Flags().StringVar(&system, "system", "", "system whose markets to cover")
	cmd.Flags().StringSliceVarP(&markets, "markets", "m", nil, "explicit market list, default discovers the system's markets")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", -1, "coverage rounds, -1 for unbounded")
	cmd.Flags().BoolVar(&reset, "reset", false, "discard persisted worker progress and start over")
	cmd.Flags().StringVar(&restart, "restart", "always", "restart policy: no, on-failure, always")
	cmd.MarkFlagRequired("ships")
	cmd.MarkFlagRequired("system")
	return cmd
}
