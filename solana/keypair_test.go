package solana

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeypair(t *testing.T) {
	_, priv := generateKey(t)

	b, err := MarshalKeypair(priv)
	require.NoError(t, err)

	parsed, err := ParseKeypair(b)
	require.NoError(t, err)
	assert.Equal(t, priv, parsed)

	for _, invalid := range []string{
		`not json`,
		`[1, 2, 3]`,
		`{"key": 1}`,
	} {
		_, err := ParseKeypair([]byte(invalid))
		assert.Error(t, err)
	}

	// Mismatched public half.
	corrupted := make(ed25519.PrivateKey, len(priv))
	copy(corrupted, priv)
	corrupted[ed25519.PrivateKeySize-1] ^= 0xff
	b, err = MarshalKeypair(corrupted)
	require.NoError(t, err)
	_, err = ParseKeypair(b)
	assert.Error(t, err)
}
