package commands

import (
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rentchain/rentchain-go/solana"
)

const keySeedPrefix = "key:"

func addressCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "address <seed>...",
		Short: "Derive a program address and its bump seed",
		Long: "Derive a program address of the program from the provided seeds.\n\n" +
			"Seeds prefixed with 'key:' are decoded as base58 public keys, all\n" +
			"other seeds are used as UTF-8 bytes.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := e.program()
			if err != nil {
				return err
			}

			seeds := make([][]byte, len(args))
			for i, arg := range args {
				if seeds[i], err = parseSeed(arg); err != nil {
					return err
				}
			}

			address, bump, err := solana.FindProgramAddressAndBump(program, seeds...)
			if err != nil {
				return errors.Wrap(err, "failed to derive address")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", base58.Encode(address), bump)
			return nil
		},
	}
}

func parseSeed(s string) ([]byte, error) {
	if !strings.HasPrefix(s, keySeedPrefix) {
		return []byte(s), nil
	}

	b, err := base58.Decode(strings.TrimPrefix(s, keySeedPrefix))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid key seed %s", s)
	}
	return b, nil
}
