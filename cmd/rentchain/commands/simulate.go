package commands

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func simulateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Simulate the initialize instruction without committing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := e.program()
			if err != nil {
				return err
			}
			payer, err := e.payer()
			if err != nil {
				return err
			}

			txn, err := e.initializeTransaction(payer, program)
			if err != nil {
				return err
			}

			result, err := e.client.SimulateTransaction(txn)
			if err != nil {
				return errors.Wrap(err, "failed to simulate transaction")
			}

			out := cmd.OutOrStdout()
			if err := printLogs(out, result.Logs, program); err != nil {
				return err
			}
			if result.Err != nil {
				return errors.Wrap(result.Err, "simulation failed")
			}

			fmt.Fprintln(out, "Simulation succeeded")
			return nil
		},
	}
}
