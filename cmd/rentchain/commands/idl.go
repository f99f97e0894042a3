package commands

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rentchain/rentchain-go/rentchain"
)

func idlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "idl",
		Short: "Print the Anchor IDL of the program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := rentchain.ParseIDL(); err != nil {
				return errors.Wrap(err, "invalid idl")
			}

			fmt.Fprintln(cmd.OutOrStdout(), rentchain.IDL)
			return nil
		},
	}
}
