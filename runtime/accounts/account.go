// Package accounts provides storage for the accounts of the runtime's ledger.
package accounts

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"
)

var (
	ErrAccountNotFound = errors.New("account not found")
)

// Account is the state of a single ledger account.
type Account struct {
	Lamports   uint64
	Owner      ed25519.PublicKey
	Data       []byte
	Executable bool
}

// Update is a pending write of an account.
type Update struct {
	Address ed25519.PublicKey
	Account *Account
}

// Store stores accounts by address.
type Store interface {
	// Get returns the account at the address, or ErrAccountNotFound.
	Get(ctx context.Context, address ed25519.PublicKey) (*Account, error)

	// Put writes a single account.
	Put(ctx context.Context, address ed25519.PublicKey, account *Account) error

	// Commit atomically writes a batch of accounts. Accounts with zero
	// lamports are removed.
	Commit(ctx context.Context, updates []Update) error
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	c := &Account{
		Lamports:   a.Lamports,
		Executable: a.Executable,
	}

	if a.Owner != nil {
		c.Owner = make(ed25519.PublicKey, len(a.Owner))
		copy(c.Owner, a.Owner)
	}
	if a.Data != nil {
		c.Data = make([]byte, len(a.Data))
		copy(c.Data, a.Data)
	}

	return c
}

// Equal reports whether both accounts hold identical state.
func (a *Account) Equal(other *Account) bool {
	return a.Lamports == other.Lamports &&
		a.Executable == other.Executable &&
		bytes.Equal(a.Owner, other.Owner) &&
		bytes.Equal(a.Data, other.Data)
}

// Marshal encodes the account.
//
// Layout:
//   (8)  u64: lamports
//   (32) pubkey: owner
//   (1)  bool: executable
//   (..) data
func (a *Account) Marshal() []byte {
	b := make([]byte, 8+ed25519.PublicKeySize+1+len(a.Data))
	binary.LittleEndian.PutUint64(b, a.Lamports)
	copy(b[8:], a.Owner)
	if a.Executable {
		b[8+ed25519.PublicKeySize] = 1
	}
	copy(b[8+ed25519.PublicKeySize+1:], a.Data)

	return b
}

// Unmarshal decodes an account encoded with Marshal.
func (a *Account) Unmarshal(b []byte) error {
	if len(b) < 8+ed25519.PublicKeySize+1 {
		return errors.Errorf("invalid account size: %d", len(b))
	}

	a.Lamports = binary.LittleEndian.Uint64(b)
	a.Owner = make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(a.Owner, b[8:])

	switch b[8+ed25519.PublicKeySize] {
	case 0:
		a.Executable = false
	case 1:
		a.Executable = true
	default:
		return errors.Errorf("invalid executable flag: %d", b[8+ed25519.PublicKeySize])
	}

	a.Data = make([]byte, len(b)-(8+ed25519.PublicKeySize+1))
	copy(a.Data, b[8+ed25519.PublicKeySize+1:])

	return nil
}
