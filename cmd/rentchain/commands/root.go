// Package commands implements the rentchain CLI.
package commands

import (
	"crypto/ed25519"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rentchain/rentchain-go/app"
	"github.com/rentchain/rentchain-go/rentchain"
	"github.com/rentchain/rentchain-go/solana"
)

const defaultURL = "http://localhost:8899"

// env holds the state shared by every command.
type env struct {
	url       string
	keypair   string
	programID string

	client solana.Client
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:          "rentchain",
		Short:        "Client for the RentChain program",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if e.keypair == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				e.keypair = filepath.Join(dir, ".config", "solana", "id.json")
			}

			e.client = solana.New(e.url)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&e.url, "url", "u", defaultURL, "JSON-RPC endpoint of the validator")
	root.PersistentFlags().StringVarP(&e.keypair, "keypair", "k", "", "fee payer keypair (default ~/.config/solana/id.json)")
	root.PersistentFlags().StringVar(&e.programID, "program-id", rentchain.ProgramAddress, "address of the RentChain program")

	root.AddCommand(
		initializeCmd(e),
		simulateCmd(e),
		addressCmd(e),
		idlCmd(),
		keygenCmd(),
	)

	return root
}

func (e *env) program() (ed25519.PublicKey, error) {
	b, err := base58.Decode(e.programID)
	if err != nil || len(b) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid program id: %s", e.programID)
	}

	return b, nil
}

func (e *env) payer() (ed25519.PrivateKey, error) {
	b, err := app.LoadFile(e.keypair)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load keypair")
	}

	return solana.ParseKeypair(b)
}

// initializeTransaction returns a transaction invoking initialize on
// program, signed by payer.
func (e *env) initializeTransaction(payer ed25519.PrivateKey, program ed25519.PublicKey) (solana.Transaction, error) {
	blockhash, err := e.client.GetRecentBlockhash()
	if err != nil {
		return solana.Transaction{}, errors.Wrap(err, "failed to get recent blockhash")
	}

	txn := solana.NewTransaction(payer.Public().(ed25519.PublicKey), rentchain.Initialize(program))
	txn.SetBlockhash(blockhash)
	if err := txn.Sign(payer); err != nil {
		return solana.Transaction{}, errors.Wrap(err, "failed to sign transaction")
	}

	return txn, nil
}

// printLogs writes the execution log, followed by the messages logged by
// program.
func printLogs(w io.Writer, logs []string, program ed25519.PublicKey) error {
	fmt.Fprintln(w, "Logs:")
	for _, l := range logs {
		fmt.Fprintf(w, "  %s\n", l)
	}

	invocations, err := solana.ParseProgramLogs(logs)
	if err != nil {
		return errors.Wrap(err, "failed to parse program logs")
	}

	msgs := solana.MessagesFor(invocations, program)
	if len(msgs) > 0 {
		fmt.Fprintf(w, "Program %s:\n", base58.Encode(program))
		for _, m := range msgs {
			fmt.Fprintf(w, "  %s\n", m)
		}
	}

	return nil
}
