package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewShipCommand builds the ship command group. Movement verbs launch
// containers through the daemon; list and get read the API directly.
func NewShipCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ship",
		Short: "Operate and inspect ships",
	}

	cmd.AddCommand(
		newShipNavigateCommand(),
		newShipDockCommand(),
		newShipOrbitCommand(),
		newShipRefuelCommand(),
		newShipListCommand(),
		newShipGetCommand(),
	)
	return cmd
}

func newShipNavigateCommand() *cobra.Command {
	var (
		destination  string
		preferCruise bool
		restart      string
	)

	cmd := &cobra.Command{
		Use:   "navigate <ship-symbol>",
		Short: "Route a ship to a waypoint, refueling along the way",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			return launchContainer(ctx, "NAVIGATE", 1, restart, map[string]interface{}{
				"ship_symbol":   args[0],
				"destination":   destination,
				"prefer_cruise": preferCruise,
			})
		},
	}

	cmd.Flags().StringVarP(&destination, "to", "w", "", "destination waypoint symbol")
	cmd.Flags().BoolVar(&preferCruise, "cruise", false, "prefer CRUISE over fuel-optimal flight modes")
	cmd.Flags().StringVar(&restart, "restart", "no", "restart policy: no, on-failure, always")
	cmd.MarkFlagRequired("to")
	return cmd
}

func newShipDockCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dock <ship-symbol>",
		Short: "Dock a ship at its current waypoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			return launchContainer(ctx, "DOCK", 1, "no", map[string]interface{}{
				"ship_symbol": args[0],
			})
		},
	}
}

func newShipOrbitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "orbit <ship-symbol>",
		Short: "Move a ship into orbit at its current waypoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			return launchContainer(ctx, "ORBIT", 1, "no", map[string]interface{}{
				"ship_symbol": args[0],
			})
		},
	}
}

func newShipRefuelCommand() *cobra.Command {
	var units int

	cmd := &cobra.Command{
		Use:   "refuel <ship-symbol>",
		Short: "Refuel a ship at its current market",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			config := map[string]interface{}{"ship_symbol": args[0]}
			if units > 0 {
				config["units"] = units
			}
			return launchContainer(ctx, "REFUEL", 1, "no", config)
		},
	}

	cmd.Flags().IntVarP(&units, "units", "u", 0, "fuel units to buy, 0 fills the tank")
	return cmd
}

func newShipListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the player's ships",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			env, err := openLocal()
			if err != nil {
				return err
			}
			defer env.Close()

			record, err := lookupPlayer(ctx, env)
			if err != nil {
				return err
			}

			ships, err := env.client.ListShips(ctx, record.Token)
			if err != nil {
				return fmt.Errorf("list ships: %w", err)
			}

			w := newTabWriter()
			fmt.Fprintln(w, "SYMBOL\tROLE\tSTATUS\tWAYPOINT\tFUEL\tCARGO")
			for _, ship := range ships {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%d/%d\n",
					ship.Symbol, ship.Role, ship.NavStatus, ship.WaypointSymbol,
					ship.FuelCurrent, ship.FuelCapacity,
					ship.CargoUnits, ship.CargoCapacity)
			}
			return w.Flush()
		},
	}
}

func newShipGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <ship-symbol>",
		Short: "Show one ship's full state as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			env, err := openLocal()
			if err != nil {
				return err
			}
			defer env.Close()

			record, err := lookupPlayer(ctx, env)
			if err != nil {
				return err
			}

			ship, err := env.client.GetShip(ctx, args[0], record.Token)
			if err != nil {
				return fmt.Errorf("get ship %s: %w", args[0], err)
			}
			return printJSON(ship)
		},
	}
}
