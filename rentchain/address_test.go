package rentchain

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentchain/rentchain-go/solana"
)

func TestAddresses(t *testing.T) {
	wallet := generateKey(t)

	user, err := UserAddress(ProgramKey, wallet)
	require.NoError(t, err)
	expected, err := solana.FindProgramAddress(ProgramKey, []byte("user"), wallet)
	require.NoError(t, err)
	assert.Equal(t, expected, user)

	property, err := PropertyAddress(ProgramKey, "prop-1", wallet)
	require.NoError(t, err)
	contract, err := ContractAddress(ProgramKey, "contract-1")
	require.NoError(t, err)
	payment, err := TransactionAddress(ProgramKey, "tx-1")
	require.NoError(t, err)
	autopay, err := AutoPaymentAddress(ProgramKey, "auto-1", "contract-1")
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, k := range []ed25519.PublicKey{user, property, contract, payment, autopay} {
		assert.Len(t, k, ed25519.PublicKeySize)
		seen[string(k)] = struct{}{}
	}
	assert.Len(t, seen, 5)

	again, err := ContractAddress(ProgramKey, "contract-1")
	require.NoError(t, err)
	assert.Equal(t, contract, again)

	other, err := ContractAddress(generateKey(t), "contract-1")
	require.NoError(t, err)
	assert.NotEqual(t, contract, other)

	_, err = ContractAddress(ProgramKey, string(make([]byte, 33)))
	assert.Equal(t, solana.ErrMaxSeedLengthExceeded, err)
}
