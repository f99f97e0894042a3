package system

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/rentchain/rentchain-go/solana"
)

// ProgramKey is the address of the system program: 11111111111111111111111111111111
var ProgramKey = make(ed25519.PublicKey, ed25519.PublicKeySize)

// Command is the leading u32 of every system program instruction.
type Command uint32

const (
	CommandCreateAccount Command = iota
	CommandAssign
	CommandTransfer
)

const (
	createAccountSize = 4 + 2*8 + ed25519.PublicKeySize
	transferSize      = 4 + 8
)

const (
	ErrorAccountAlreadyInUse solana.CustomError = iota
	ErrorResultWithNegativeLamports
	ErrorInvalidProgramID
	ErrorInvalidAccountDataLength
)

// MaxPermittedDataLength is the largest account the system program allocates.
const MaxPermittedDataLength = 10 * 1024 * 1024

// ParseCommand returns the command of a system instruction's data.
func ParseCommand(data []byte) (Command, error) {
	if len(data) < 4 {
		return 0, errors.Errorf("invalid instruction data size: %d", len(data))
	}

	return Command(binary.LittleEndian.Uint32(data)), nil
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	//
	// CreateAccount {
	//   lamports: u64,
	//   space: u64,
	//   owner: Pubkey,
	// }
	data := make([]byte, createAccountSize)
	binary.LittleEndian.PutUint32(data, uint32(CommandCreateAccount))
	binary.LittleEndian.PutUint64(data[4:], lamports)
	binary.LittleEndian.PutUint64(data[4+8:], size)
	copy(data[4+2*8:], owner)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

type CreateAccountParams struct {
	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

// DecodeCreateAccount decodes the data of a CreateAccount instruction.
func DecodeCreateAccount(data []byte) (*CreateAccountParams, error) {
	if len(data) != createAccountSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(data))
	}
	if Command(binary.LittleEndian.Uint32(data)) != CommandCreateAccount {
		return nil, solana.ErrIncorrectInstruction
	}

	p := &CreateAccountParams{
		Lamports: binary.LittleEndian.Uint64(data[4:]),
		Size:     binary.LittleEndian.Uint64(data[4+8:]),
		Owner:    make(ed25519.PublicKey, ed25519.PublicKeySize),
	}
	copy(p.Owner, data[4+2*8:])

	return p, nil
}

type DecompiledCreateAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

func DecompileCreateAccount(m solana.Message, index int) (*DecompiledCreateAccount, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	p, err := DecodeCreateAccount(i.Data)
	if err != nil {
		return nil, err
	}

	return &DecompiledCreateAccount{
		Funder:   m.Accounts[i.Accounts[0]],
		Address:  m.Accounts[i.Accounts[1]],
		Lamports: p.Lamports,
		Size:     p.Size,
		Owner:    p.Owner,
	}, nil
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L81-L85
func Transfer(from, to ed25519.PublicKey, lamports uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	data := make([]byte, transferSize)
	binary.LittleEndian.PutUint32(data, uint32(CommandTransfer))
	binary.LittleEndian.PutUint64(data[4:], lamports)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

// DecodeTransfer decodes the lamports of a Transfer instruction.
func DecodeTransfer(data []byte) (uint64, error) {
	if len(data) != transferSize {
		return 0, errors.Errorf("invalid instruction data size: %d", len(data))
	}
	if Command(binary.LittleEndian.Uint32(data)) != CommandTransfer {
		return 0, solana.ErrIncorrectInstruction
	}

	return binary.LittleEndian.Uint64(data[4:]), nil
}

type DecompiledTransfer struct {
	From     ed25519.PublicKey
	To       ed25519.PublicKey
	Lamports uint64
}

func DecompileTransfer(m solana.Message, index int) (*DecompiledTransfer, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	lamports, err := DecodeTransfer(i.Data)
	if err != nil {
		return nil, err
	}

	return &DecompiledTransfer{
		From:     m.Accounts[i.Accounts[0]],
		To:       m.Accounts[i.Accounts[1]],
		Lamports: lamports,
	}, nil
}
