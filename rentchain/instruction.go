package rentchain

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/rentchain/rentchain-go/anchor"
	"github.com/rentchain/rentchain-go/solana"
)

// InstructionInitialize is the name of the initialize instruction.
const InstructionInitialize = "initialize"

// Initialize returns an initialize instruction for the program at program.
// The instruction takes no arguments; remaining accounts are passed through
// unused.
//
//   Accounts expected by this instruction:
//     none
func Initialize(program ed25519.PublicKey, remaining ...solana.AccountMeta) solana.Instruction {
	d := anchor.InstructionDiscriminator(InstructionInitialize)

	return solana.NewInstruction(
		program,
		d[:],
		remaining...,
	)
}

type DecompiledInitialize struct {
	Remaining []ed25519.PublicKey
}

// DecompileInitialize decompiles the initialize instruction at index of m.
func DecompileInitialize(m solana.Message, index int, program ed25519.PublicKey) (*DecompiledInitialize, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], program) {
		return nil, solana.ErrIncorrectProgram
	}

	d := anchor.InstructionDiscriminator(InstructionInitialize)
	if len(i.Data) < anchor.DiscriminatorSize || !bytes.Equal(i.Data[:anchor.DiscriminatorSize], d[:]) {
		return nil, solana.ErrIncorrectInstruction
	}

	decompiled := &DecompiledInitialize{}
	for _, index := range i.Accounts {
		decompiled.Remaining = append(decompiled.Remaining, m.Accounts[index])
	}

	return decompiled, nil
}
