package memory

import (
	"context"
	"crypto/ed25519"
	"sync"

	"github.com/mr-tron/base58"

	"github.com/rentchain/rentchain-go/runtime/accounts"
)

type store struct {
	sync.RWMutex
	accounts map[string]*accounts.Account
}

// New returns an in-memory accounts.Store.
func New() accounts.Store {
	return &store{
		accounts: make(map[string]*accounts.Account),
	}
}

// Get implements accounts.Store.Get.
func (s *store) Get(_ context.Context, address ed25519.PublicKey) (*accounts.Account, error) {
	s.RLock()
	defer s.RUnlock()

	a, ok := s.accounts[base58.Encode(address)]
	if !ok {
		return nil, accounts.ErrAccountNotFound
	}

	return a.Clone(), nil
}

// Put implements accounts.Store.Put.
func (s *store) Put(_ context.Context, address ed25519.PublicKey, account *accounts.Account) error {
	s.Lock()
	defer s.Unlock()

	s.write(address, account)
	return nil
}

// Commit implements accounts.Store.Commit.
func (s *store) Commit(_ context.Context, updates []accounts.Update) error {
	s.Lock()
	defer s.Unlock()

	for _, u := range updates {
		s.write(u.Address, u.Account)
	}

	return nil
}

func (s *store) write(address ed25519.PublicKey, account *accounts.Account) {
	key := base58.Encode(address)
	if account.Lamports == 0 {
		delete(s.accounts, key)
		return
	}

	s.accounts[key] = account.Clone()
}

func (s *store) reset() {
	s.Lock()
	s.accounts = make(map[string]*accounts.Account)
	s.Unlock()
}
