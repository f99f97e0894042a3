package commands

import (
	"crypto/ed25519"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rentchain/rentchain-go/solana"
)

func keygenCmd() *cobra.Command {
	var (
		outfile string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a keypair in the solana-keygen format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := ed25519.GenerateKey(nil)
			if err != nil {
				return errors.Wrap(err, "failed to generate key")
			}

			b, err := solana.MarshalKeypair(priv)
			if err != nil {
				return err
			}

			if outfile == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				fmt.Fprintf(cmd.ErrOrStderr(), "Public key: %s\n", base58.Encode(pub))
				return nil
			}

			if _, err := os.Stat(outfile); err == nil && !force {
				return errors.Errorf("%s already exists, use --force to overwrite", outfile)
			}
			if err := ioutil.WriteFile(outfile, b, 0600); err != nil {
				return errors.Wrap(err, "failed to write keypair")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote keypair to %s\nPublic key: %s\n", outfile, base58.Encode(pub))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outfile, "outfile", "o", "", "path of the keypair file, stdout if unset")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing outfile")
	return cmd
}
