package solana

import (
	"crypto/ed25519"
	"encoding/json"

	"github.com/pkg/errors"
)

// ParseKeypair parses a keypair in the JSON byte array format written by
// solana-keygen.
func ParseKeypair(b []byte) (ed25519.PrivateKey, error) {
	var raw []int
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, errors.Wrap(err, "invalid keypair encoding")
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid keypair size: %d", len(raw))
	}

	key := make([]byte, ed25519.PrivateKeySize)
	for i, v := range raw {
		if v < 0 || v > 255 {
			return nil, errors.Errorf("invalid keypair byte at %d: %d", i, v)
		}
		key[i] = byte(v)
	}

	priv := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	if !priv.Public().(ed25519.PublicKey).Equal(ed25519.PublicKey(key[ed25519.SeedSize:])) {
		return nil, errors.New("keypair public key does not match private key")
	}

	return priv, nil
}

// MarshalKeypair encodes key in the solana-keygen JSON format.
func MarshalKeypair(key ed25519.PrivateKey) ([]byte, error) {
	raw := make([]int, len(key))
	for i, b := range key {
		raw[i] = int(b)
	}

	return json.Marshal(raw)
}
