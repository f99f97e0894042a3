// Package rentchain implements the RentChain program.
package rentchain

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/rentchain/rentchain-go/anchor"
	"github.com/rentchain/rentchain-go/runtime"
)

const (
	// ProgramAddress is the declared address of the program.
	ProgramAddress = "BaGvznHhNmC5LxVyCjWYmPZoCViqCXyUXvtJc7quy6eW"

	// ProgramName is the name of the program in its IDL.
	ProgramName = "rentchain_anchor"

	// Version is the IDL version of the program.
	Version = "0.1.0"
)

// ProgramKey is the public key of ProgramAddress.
var ProgramKey ed25519.PublicKey

func init() {
	b, err := base58.Decode(ProgramAddress)
	if err != nil {
		panic(err)
	}
	ProgramKey = b
}

// InitializeAccounts is the accounts context of the initialize instruction.
// It requires no accounts; any passed accounts are left as remaining.
type InitializeAccounts struct{}

// Load implements anchor.Accounts.Load.
func (a *InitializeAccounts) Load(_ ed25519.PublicKey, infos []*runtime.AccountInfo) ([]*runtime.AccountInfo, error) {
	return infos, nil
}

// NewProcessor returns the program, declared at id. Use ProgramKey unless
// the program is deployed under another address.
func NewProcessor(id ed25519.PublicKey) *anchor.Program {
	return anchor.NewProgram(
		ProgramName,
		id,
		anchor.Instruction{
			Name:     InstructionInitialize,
			Accounts: func() anchor.Accounts { return &InitializeAccounts{} },
			Handler:  HandleInitialize,
		},
	)
}

// HandleInitialize logs the id of the invoked program.
func HandleInitialize(ctx *anchor.Context, _ []byte) error {
	ctx.Log("Greetings from: %s", base58.Encode(ctx.ProgramID()))
	return nil
}
