package anchor

import (
	"encoding/json"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// IDL describes the interface of a Program, in the Anchor IDL format.
type IDL struct {
	Address      string           `json:"address"`
	Metadata     IDLMetadata      `json:"metadata"`
	Instructions []IDLInstruction `json:"instructions"`
	Accounts     []IDLAccount     `json:"accounts,omitempty"`
	Errors       []IDLError       `json:"errors,omitempty"`
}

type IDLMetadata struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Spec        string `json:"spec"`
	Description string `json:"description,omitempty"`
}

type IDLInstruction struct {
	Name          string                  `json:"name"`
	Discriminator [DiscriminatorSize]byte `json:"discriminator"`
	Accounts      []IDLInstructionAccount `json:"accounts"`
	Args          []IDLField              `json:"args"`
}

type IDLInstructionAccount struct {
	Name     string `json:"name"`
	Writable bool   `json:"writable,omitempty"`
	Signer   bool   `json:"signer,omitempty"`
}

type IDLField struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

type IDLAccount struct {
	Name          string                  `json:"name"`
	Discriminator [DiscriminatorSize]byte `json:"discriminator"`
}

type IDLError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg,omitempty"`
}

// IDLSpec is the IDL format version produced by IDL.
const IDLSpec = "0.1.0"

// ParseIDL decodes and validates an IDL document.
func ParseIDL(b []byte) (*IDL, error) {
	var idl IDL
	if err := json.Unmarshal(b, &idl); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal idl")
	}

	if err := idl.Validate(); err != nil {
		return nil, err
	}

	return &idl, nil
}

// Validate checks that the discriminators of the IDL match its names.
func (idl *IDL) Validate() error {
	if idl.Metadata.Name == "" {
		return errors.New("missing program name")
	}

	for _, instr := range idl.Instructions {
		if instr.Discriminator != InstructionDiscriminator(instr.Name) {
			return errors.Errorf("invalid discriminator for instruction %s", instr.Name)
		}
	}
	for _, a := range idl.Accounts {
		if a.Discriminator != AccountDiscriminator(a.Name) {
			return errors.Errorf("invalid discriminator for account %s", a.Name)
		}
	}

	return nil
}

// Instruction returns the instruction with the provided name.
func (idl *IDL) Instruction(name string) (IDLInstruction, bool) {
	for _, instr := range idl.Instructions {
		if instr.Name == name {
			return instr, true
		}
	}

	return IDLInstruction{}, false
}

// IDL returns the IDL of the program's instructions. Instruction accounts and
// args are not described by Instruction, so callers fill them in as needed.
func (p *Program) IDL(version string) *IDL {
	idl := &IDL{
		Address: base58.Encode(p.id),
		Metadata: IDLMetadata{
			Name:    p.name,
			Version: version,
			Spec:    IDLSpec,
		},
		Instructions: make([]IDLInstruction, 0, len(p.order)),
	}

	for _, instr := range p.order {
		idl.Instructions = append(idl.Instructions, IDLInstruction{
			Name:          instr.Name,
			Discriminator: InstructionDiscriminator(instr.Name),
			Accounts:      []IDLInstructionAccount{},
			Args:          []IDLField{},
		})
	}

	return idl
}
