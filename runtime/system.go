package runtime

import (
	"bytes"

	"github.com/rentchain/rentchain-go/solana"
	"github.com/rentchain/rentchain-go/solana/system"
)

// systemProgram is the builtin implementation of the system program.
//
// Reference: https://github.com/solana-labs/solana/blob/v1.9.5/runtime/src/system_instruction_processor.rs
var systemProgram = ProgramFunc(func(ctx InvokeContext, data []byte) error {
	command, err := system.ParseCommand(data)
	if err != nil {
		return solana.InstructionErrorInvalidInstructionData
	}

	accts := ctx.Accounts()

	switch command {
	case system.CommandCreateAccount:
		params, err := system.DecodeCreateAccount(data)
		if err != nil {
			return solana.InstructionErrorInvalidInstructionData
		}
		if len(accts) < 2 {
			return solana.InstructionErrorNotEnoughAccountKeys
		}

		return createAccount(accts[0], accts[1], params)
	case system.CommandTransfer:
		lamports, err := system.DecodeTransfer(data)
		if err != nil {
			return solana.InstructionErrorInvalidInstructionData
		}
		if len(accts) < 2 {
			return solana.InstructionErrorNotEnoughAccountKeys
		}

		return transfer(accts[0], accts[1], lamports)
	default:
		return solana.InstructionErrorInvalidInstructionData
	}
})

func createAccount(funder, to *AccountInfo, params *system.CreateAccountParams) error {
	if !funder.IsSigner || !to.IsSigner {
		return solana.InstructionErrorMissingRequiredSignature
	}

	if to.Account.Lamports > 0 || len(to.Account.Data) > 0 || !bytes.Equal(to.Account.Owner, system.ProgramKey) {
		return system.ErrorAccountAlreadyInUse
	}
	if params.Size > system.MaxPermittedDataLength {
		return system.ErrorInvalidAccountDataLength
	}
	if len(funder.Account.Data) > 0 {
		return solana.InstructionErrorInvalidArgument
	}
	if funder.Account.Lamports < params.Lamports {
		return system.ErrorResultWithNegativeLamports
	}

	funder.Account.Lamports -= params.Lamports
	to.Account.Lamports = params.Lamports
	to.Account.Data = make([]byte, params.Size)
	to.Account.Owner = params.Owner

	return nil
}

func transfer(from, to *AccountInfo, lamports uint64) error {
	if !from.IsSigner {
		return solana.InstructionErrorMissingRequiredSignature
	}
	if len(from.Account.Data) > 0 {
		return solana.InstructionErrorInvalidArgument
	}
	if from.Account.Lamports < lamports {
		return system.ErrorResultWithNegativeLamports
	}

	from.Account.Lamports -= lamports
	to.Account.Lamports += lamports

	return nil
}
