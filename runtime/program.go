package runtime

import (
	"crypto/ed25519"
	"fmt"

	"github.com/rentchain/rentchain-go/runtime/accounts"
	"github.com/rentchain/rentchain-go/solana"
)

// Program is an executable registered with the Runtime.
//
// Process returns nil on success. Any error fails the instruction, and with
// it the transaction. solana.CustomError and solana.InstructionErrorKey values
// are reported as is; other errors are reported as a GenericError.
type Program interface {
	Process(ctx InvokeContext, data []byte) error
}

// ProgramFunc adapts a function to a Program.
type ProgramFunc func(ctx InvokeContext, data []byte) error

// Process implements Program.Process.
func (f ProgramFunc) Process(ctx InvokeContext, data []byte) error {
	return f(ctx, data)
}

// InvokeContext is the environment of a single instruction invocation.
type InvokeContext interface {
	// ProgramID returns the address of the invoked program.
	ProgramID() ed25519.PublicKey

	// Accounts returns the accounts referenced by the instruction, in
	// instruction order. Changes to writable accounts are committed if the
	// transaction succeeds.
	Accounts() []*AccountInfo

	// Log appends a program message to the transaction's execution log.
	Log(format string, args ...interface{})
}

// AccountInfo is an account referenced by an instruction.
type AccountInfo struct {
	Key        ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
	Account    *accounts.Account
}

type invokeContext struct {
	program  ed25519.PublicKey
	accounts []*AccountInfo
	logs     *logCollector
}

func (c *invokeContext) ProgramID() ed25519.PublicKey {
	return c.program
}

func (c *invokeContext) Accounts() []*AccountInfo {
	return c.accounts
}

func (c *invokeContext) Log(format string, args ...interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	c.logs.add(solana.ProgramLog(msg))
}
