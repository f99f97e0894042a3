// Package anchor dispatches instructions the way Anchor programs do: by an
// 8 byte discriminator prefix, with Anchor compatible errors and logs.
package anchor

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rentchain/rentchain-go/runtime"
)

// Accounts binds and validates the accounts of an instruction.
type Accounts interface {
	// Load binds the accounts it requires from the front of infos, and
	// returns the unbound remainder.
	Load(program ed25519.PublicKey, infos []*runtime.AccountInfo) (remaining []*runtime.AccountInfo, err error)
}

// NoAccounts is the Accounts of an instruction that requires none.
type NoAccounts struct{}

// Load implements Accounts.Load.
func (NoAccounts) Load(_ ed25519.PublicKey, infos []*runtime.AccountInfo) ([]*runtime.AccountInfo, error) {
	return infos, nil
}

// Context is passed to instruction handlers.
type Context struct {
	runtime.InvokeContext

	// Bound is the instruction's loaded Accounts.
	Bound Accounts
	// Remaining are the accounts passed beyond those bound.
	Remaining []*runtime.AccountInfo
}

// Handler processes an instruction. args holds the instruction data that
// follows the discriminator.
type Handler func(ctx *Context, args []byte) error

// Instruction is a callable operation of a Program.
type Instruction struct {
	// Name is the snake_case name of the instruction.
	Name string
	// Accounts returns a new, unloaded Accounts for each invocation. If nil,
	// NoAccounts is used.
	Accounts func() Accounts
	Handler  Handler
}

// Program is a runtime.Program dispatching to its instructions.
type Program struct {
	log          *logrus.Entry
	name         string
	id           ed25519.PublicKey
	instructions map[[DiscriminatorSize]byte]Instruction
	order        []Instruction
}

// NewProgram returns a Program declared at id.
func NewProgram(name string, id ed25519.PublicKey, instructions ...Instruction) *Program {
	p := &Program{
		log:          logrus.StandardLogger().WithField("type", "anchor/"+name),
		name:         name,
		id:           id,
		instructions: make(map[[DiscriminatorSize]byte]Instruction),
	}

	for _, instr := range instructions {
		d := InstructionDiscriminator(instr.Name)
		if _, exists := p.instructions[d]; exists {
			panic("duplicate instruction: " + instr.Name)
		}

		p.instructions[d] = instr
		p.order = append(p.order, instr)
	}

	return p
}

// ID returns the declared program id.
func (p *Program) ID() ed25519.PublicKey {
	return p.id
}

// Name returns the name of the program.
func (p *Program) Name() string {
	return p.name
}

// Process implements runtime.Program.Process.
func (p *Program) Process(ctx runtime.InvokeContext, data []byte) error {
	if err := p.dispatch(ctx, data); err != nil {
		var ae *Error
		if errors.As(err, &ae) {
			ctx.Log("%s", ae.Log())
			return ae.Code
		}

		p.log.WithError(err).Debug("Instruction failed")
		return err
	}

	return nil
}

func (p *Program) dispatch(ctx runtime.InvokeContext, data []byte) error {
	if !bytes.Equal(ctx.ProgramID(), p.id) {
		p.log.WithField("program", base58.Encode(ctx.ProgramID())).Warn("Invoked under undeclared program id")
		return ErrDeclaredProgramIDMismatch
	}

	if len(data) < DiscriminatorSize {
		return ErrInstructionMissing
	}

	var d [DiscriminatorSize]byte
	copy(d[:], data)

	instr, ok := p.instructions[d]
	if !ok {
		return ErrInstructionFallbackNotFound
	}

	ctx.Log("Instruction: %s", PascalCase(instr.Name))

	var accounts Accounts = NoAccounts{}
	if instr.Accounts != nil {
		accounts = instr.Accounts()
	}

	remaining, err := accounts.Load(p.id, ctx.Accounts())
	if err != nil {
		return err
	}

	return instr.Handler(&Context{
		InvokeContext: ctx,
		Bound:         accounts,
		Remaining:     remaining,
	}, data[DiscriminatorSize:])
}
