package solana

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta represents an account reference of an instruction.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool

	isPayer   bool
	isProgram bool
}

// NewAccountMeta returns a writable AccountMeta.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta returns a read-only AccountMeta.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: false,
	}
}

// less orders accounts as required by the message header: payer first,
// then writable signers, readonly signers, writable and readonly non-signers.
// Program accounts sort after all other readonly non-signers.
func (a AccountMeta) less(other AccountMeta) bool {
	if a.isPayer != other.isPayer {
		return a.isPayer
	}
	if a.isProgram != other.isProgram {
		return !a.isProgram
	}
	if a.IsSigner != other.IsSigner {
		return a.IsSigner
	}
	if a.IsWritable != other.IsWritable {
		return a.IsWritable
	}

	return false
}

// Instruction is an uncompiled instruction targeting a program.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewInstruction returns a new Instruction.
func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Accounts: accounts,
		Data:     data,
	}
}

// CompiledInstruction is an instruction whose program and accounts are
// indexes into the owning Message's account list.
type CompiledInstruction struct {
	ProgramIndex byte
	Accounts     []byte
	Data         []byte
}
