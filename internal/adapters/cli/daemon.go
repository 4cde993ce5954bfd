package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDaemonCommand builds the daemon command group
func NewDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Inspect the running daemon",
	}

	cmd.AddCommand(newDaemonHealthCommand())
	return cmd
}

func newDaemonHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the daemon over its control socket",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			var result struct {
				Status           string `json:"status"`
				Version          string `json:"version"`
				ActiveContainers int    `json:"active_containers"`
			}
			if err := daemonClient().Call(ctx, "daemon.health", nil, &result); err != nil {
				return err
			}

			fmt.Printf("%s  version=%s  active_containers=%d\n", result.Status, result.Version, result.ActiveContainers)
			return nil
		},
	}
}
