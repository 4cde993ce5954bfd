package cli

import (
	"github.com/spf13/cobra"
)

// NewWorkflowCommand builds the workflow command group
func NewWorkflowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Run multi-step ship workflows",
	}

	cmd.AddCommand(newWorkflowBatchContractCommand())
	return cmd
}

func newWorkflowBatchContractCommand() *cobra.Command {
	var (
		iterations int
		restart    string
	)

	cmd := &cobra.Command{
		Use:   "batch-contract <ship-symbol>",
		Short: "Negotiate, haul, and fulfill contracts back to back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext()
			defer cancel()

			return launchContainer(ctx, "CONTRACT_WORKFLOW", iterations, restart, map[string]interface{}{
				"ship_symbol": args[0],
				"iterations":  iterations,
			})
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 1, "contracts to run, -1 for unbounded")
	cmd.Flags().StringVar(&restart, "restart", "on-failure", "restart policy: no, on-failure, always")
	return cmd
}
