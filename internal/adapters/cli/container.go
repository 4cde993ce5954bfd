package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/fleetd/internal/adapters/rpc"
)

// NewContainerCommand builds the container command group. Every verb here
// talks to the daemon over the control socket.
func NewContainerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "container",
		Short: "Manage daemon containers",
	}

	cmd.AddCommand(
		newContainerCreateCommand(),
		newContainerStartCommand(),
		newContainerStopCommand(),
		newContainerRemoveCommand(),
		newContainerListCommand(),
		newContainerInspectCommand(),
		newContainerLogsCommand(),
	)
	return cmd
}

func newContainerCreateCommand() *cobra.Command {
	var (
		containerType string
		maxIterations int
		restartPolicy string
		configJSON    string
		autostart     bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a container",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			pid, err := resolvePlayerID(ctx)
			if err != nil {
				return err
			}

			config := map[string]interface{}{}
			if configJSON != "" {
				if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
					return fmt.Errorf("parse --data: %w", err)
				}
			}

			var view rpc.ContainerView
			err = daemonClient().Call(ctx, "container.create", map[string]interface{}{
				"type":           containerType,
				"player_id":      pid,
				"max_iterations": maxIterations,
				"restart_policy": restartPolicy,
				"config":         config,
				"autostart":      autostart,
			}, &view)
			if err != nil {
				return err
			}

			fmt.Printf("%s  %s\n", view.ID, view.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&containerType, "type", "t", "", "container type (NAVIGATE, SCOUT_TOUR, ...)")
	cmd.Flags().IntVarP(&maxIterations, "iterations", "n", 1, "iteration bound, -1 for unbounded")
	cmd.Flags().StringVar(&restartPolicy, "restart", "no", "restart policy: no, on-failure, always")
	cmd.Flags().StringVarP(&configJSON, "data", "d", "", "container config as a JSON object")
	cmd.Flags().BoolVar(&autostart, "start", true, "start the container immediately")
	cmd.MarkFlagRequired("type")
	return cmd
}

func newContainerStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start <container-id>",
		Short: "Start a pending or stopped container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			var view rpc.ContainerView
			if err := daemonClient().Call(ctx, "container.start", map[string]interface{}{"id": args[0]}, &view); err != nil {
				return err
			}
			fmt.Printf("%s  %s\n", view.ID, view.Status)
			return nil
		},
	}
}

func newContainerStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <container-id>",
		Short: "Stop a running container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			var view rpc.ContainerView
			if err := daemonClient().Call(ctx, "container.stop", map[string]interface{}{"id": args[0]}, &view); err != nil {
				return err
			}
			fmt.Printf("%s  %s\n", view.ID, view.Status)
			return nil
		},
	}
}

func newContainerRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <container-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a stopped container and its logs",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			var result struct {
				ID      string `json:"id"`
				Removed bool   `json:"removed"`
			}
			if err := daemonClient().Call(ctx, "container.remove", map[string]interface{}{"id": args[0]}, &result); err != nil {
				return err
			}
			fmt.Println(result.ID)
			return nil
		},
	}
}

func newContainerListCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			params := map[string]interface{}{"all": all}
			if playerID > 0 {
				params["player_id"] = playerID
			}

			var result struct {
				Containers []*rpc.ContainerView `json:"containers"`
			}
			if err := daemonClient().Call(ctx, "container.list", params, &result); err != nil {
				return err
			}

			w := newTabWriter()
			fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tITER\tRESTARTS\tPLAYER")
			for _, c := range result.Containers {
				bound := fmt.Sprintf("%d/%d", c.Iteration, c.MaxIterations)
				if c.MaxIterations < 0 {
					bound = fmt.Sprintf("%d", c.Iteration)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
					c.ID, c.Type, c.Status, bound, c.RestartCount, c.PlayerID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include removed containers")
	return cmd
}

func newContainerInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <container-id>",
		Short: "Show a container's full record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			var result struct {
				Container *rpc.ContainerView `json:"container"`
			}
			err := daemonClient().Call(ctx, "container.inspect", map[string]interface{}{"id": args[0]}, &result)
			if err != nil {
				return err
			}
			return printJSON(result.Container)
		},
	}
}

func newContainerLogsCommand() *cobra.Command {
	var tail int

	cmd := &cobra.Command{
		Use:   "logs <container-id>",
		Short: "Show a container's captured logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			var result struct {
				Logs []*rpc.LogEntryView `json:"logs"`
			}
			err := daemonClient().Call(ctx, "container.inspect", map[string]interface{}{
				"id":       args[0],
				"log_tail": tail,
			}, &result)
			if err != nil {
				return err
			}

			for _, entry := range result.Logs {
				fmt.Printf("%s  %-7s %s", entry.Timestamp.Format(time.RFC3339), entry.Level, entry.Message)
				if len(entry.Metadata) > 0 {
					if encoded, err := json.Marshal(entry.Metadata); err == nil {
						fmt.Printf("  %s", encoded)
					}
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&tail, "tail", "n", -1, "number of trailing lines, -1 for everything")
	return cmd
}
