// Package tests contains conformance tests for accounts.Store implementations.
package tests

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentchain/rentchain-go/runtime/accounts"
)

func RunStoreTests(t *testing.T, s accounts.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s accounts.Store){
		testRoundTrip,
		testCommit,
		testZeroLamportsRemoved,
		testIsolation,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s accounts.Store) {
	t.Run("TestRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		addr := generateKey(t)
		owner := generateKey(t)

		_, err := s.Get(ctx, addr)
		assert.Equal(t, accounts.ErrAccountNotFound, err)

		expected := &accounts.Account{
			Lamports:   10,
			Owner:      owner,
			Data:       []byte("data"),
			Executable: true,
		}
		require.NoError(t, s.Put(ctx, addr, expected))

		actual, err := s.Get(ctx, addr)
		require.NoError(t, err)
		assert.True(t, expected.Equal(actual))

		expected.Data = nil
		expected.Executable = false
		require.NoError(t, s.Put(ctx, addr, expected))

		actual, err = s.Get(ctx, addr)
		require.NoError(t, err)
		assert.True(t, expected.Equal(actual))
		assert.Empty(t, actual.Data)
	})
}

func testCommit(t *testing.T, s accounts.Store) {
	t.Run("TestCommit", func(t *testing.T) {
		ctx := context.Background()
		owner := generateKey(t)

		var updates []accounts.Update
		for i := 0; i < 5; i++ {
			updates = append(updates, accounts.Update{
				Address: generateKey(t),
				Account: &accounts.Account{
					Lamports: uint64(i + 1),
					Owner:    owner,
					Data:     []byte{byte(i)},
				},
			})
		}
		require.NoError(t, s.Commit(ctx, updates))

		for _, u := range updates {
			actual, err := s.Get(ctx, u.Address)
			require.NoError(t, err)
			assert.True(t, u.Account.Equal(actual))
		}

		require.NoError(t, s.Commit(ctx, nil))
	})
}

func testZeroLamportsRemoved(t *testing.T, s accounts.Store) {
	t.Run("TestZeroLamportsRemoved", func(t *testing.T) {
		ctx := context.Background()
		addr := generateKey(t)

		require.NoError(t, s.Put(ctx, addr, &accounts.Account{Lamports: 1, Owner: generateKey(t)}))

		require.NoError(t, s.Commit(ctx, []accounts.Update{
			{Address: addr, Account: &accounts.Account{Lamports: 0, Owner: generateKey(t)}},
		}))

		_, err := s.Get(ctx, addr)
		assert.Equal(t, accounts.ErrAccountNotFound, err)
	})
}

func testIsolation(t *testing.T, s accounts.Store) {
	t.Run("TestIsolation", func(t *testing.T) {
		ctx := context.Background()
		addr := generateKey(t)

		original := &accounts.Account{Lamports: 5, Owner: generateKey(t), Data: []byte{1, 2, 3}}
		require.NoError(t, s.Put(ctx, addr, original))

		// Mutating a returned account must not affect the stored one.
		actual, err := s.Get(ctx, addr)
		require.NoError(t, err)
		actual.Data[0] = 9
		actual.Lamports = 100

		again, err := s.Get(ctx, addr)
		require.NoError(t, err)
		assert.True(t, original.Equal(again))
	})
}

func generateKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub
}
