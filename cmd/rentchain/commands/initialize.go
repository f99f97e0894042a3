package commands

import (
	"crypto/ed25519"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rentchain/rentchain-go/solana"
)

func initializeCmd(e *env) *cobra.Command {
	var airdrop uint64

	cmd := &cobra.Command{
		Use:   "initialize",
		Short: "Invoke the initialize instruction of the program",
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

			if err := e.fund(payer.Public().(ed25519.PublicKey), airdrop); err != nil {
				return err
			}

			txn, err := e.initializeTransaction(payer, program)
			if err != nil {
				return err
			}

			sig, status, err := e.client.SubmitTransaction(txn, solana.CommitmentConfirmed)
			if err != nil {
				return errors.Wrap(err, "failed to submit transaction")
			}
			if status != nil && status.ErrorResult != nil {
				return errors.Wrapf(status.ErrorResult, "transaction %s failed", sig)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Signature: %s\n", sig)

			confirmed, err := e.client.GetTransaction(sig)
			if err != nil {
				return errors.Wrap(err, "failed to get transaction")
			}

			return printLogs(out, confirmed.Logs, program)
		},
	}

	cmd.Flags().Uint64Var(&airdrop, "airdrop", 1000000000, "lamports requested when the payer cannot cover the fee, 0 disables airdrops")
	return cmd
}

// fund requests an airdrop of lamports to account if it cannot pay the fee
// of a single signature transaction.
func (e *env) fund(account ed25519.PublicKey, lamports uint64) error {
	if lamports == 0 {
		return nil
	}

	fee, err := e.client.GetLamportsPerSignature()
	if err != nil {
		return errors.Wrap(err, "failed to get fee")
	}
	balance, err := e.client.GetBalance(account)
	if err != nil {
		return errors.Wrap(err, "failed to get balance")
	}
	if balance >= fee {
		return nil
	}

	sig, err := e.client.RequestAirdrop(account, lamports, solana.CommitmentConfirmed)
	if err != nil {
		return errors.Wrap(err, "failed to request airdrop")
	}

	status, err := e.client.GetSignatureStatus(sig, solana.CommitmentConfirmed)
	if err != nil {
		return errors.Wrap(err, "failed to confirm airdrop")
	}
	if status.ErrorResult != nil {
		return errors.Wrap(status.ErrorResult, "airdrop failed")
	}

	return nil
}
