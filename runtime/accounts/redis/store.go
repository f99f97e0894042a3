// Package redis provides a Redis backed accounts.Store.
package redis

import (
	"context"
	"crypto/ed25519"

	"github.com/go-redis/redis/v7"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/rentchain/rentchain-go/runtime/accounts"
)

type store struct {
	client *redis.Client
	prefix string
}

// New returns a Store that keeps each account under "<prefix>:account:<address>".
func New(client *redis.Client, prefix string) accounts.Store {
	return &store{
		client: client,
		prefix: prefix,
	}
}

// Get implements accounts.Store.Get.
func (s *store) Get(ctx context.Context, address ed25519.PublicKey) (*accounts.Account, error) {
	b, err := s.client.WithContext(ctx).Get(s.key(address)).Bytes()
	if err == redis.Nil {
		return nil, accounts.ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}

	a := &accounts.Account{}
	if err := a.Unmarshal(b); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal account")
	}

	return a, nil
}

// Put implements accounts.Store.Put.
func (s *store) Put(ctx context.Context, address ed25519.PublicKey, account *accounts.Account) error {
	return s.Commit(ctx, []accounts.Update{{Address: address, Account: account}})
}

// Commit implements accounts.Store.Commit.
func (s *store) Commit(ctx context.Context, updates []accounts.Update) error {
	if len(updates) == 0 {
		return nil
	}

	_, err := s.client.WithContext(ctx).TxPipelined(func(p redis.Pipeliner) error {
		for _, u := range updates {
			if u.Account.Lamports == 0 {
				p.Del(s.key(u.Address))
				continue
			}

			p.Set(s.key(u.Address), u.Account.Marshal(), 0)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to commit accounts")
	}

	return nil
}

func (s *store) key(address ed25519.PublicKey) string {
	return s.prefix + ":account:" + base58.Encode(address)
}
