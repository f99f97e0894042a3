package solana

import (
	"crypto/ed25519"
	"crypto/sha256"

	"github.com/agl/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrInvalidPublicKey      = errors.New("invalid public key")
	ErrNoValidBump           = errors.New("unable to find a valid program address")
)

// CreateProgramAddress mirrors the CreateProgramAddress function in the
// Solana SDK.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := sha256.New()
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}

		_, _ = h.Write(s)
	}
	_, _ = h.Write(program)
	_, _ = h.Write([]byte("ProgramDerivedAddress"))
	digest := h.Sum(nil)

	if isOnCurve(digest) {
		return nil, ErrInvalidPublicKey
	}

	return digest, nil
}

// FindProgramAddress mirrors the FindProgramAddress function in the Solana
// SDK, discarding the bump seed.
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	addr, _, err := FindProgramAddressAndBump(program, seeds...)
	return addr, err
}

// FindProgramAddressAndBump searches for the first off-curve address derived
// from the seeds, starting from bump 255 and counting down.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, byte, error) {
	bumpSeed := []byte{255}
	withBump := append(append([][]byte{}, seeds...), bumpSeed)

	for i := 255; i > 0; i-- {
		bumpSeed[0] = byte(i)

		addr, err := CreateProgramAddress(program, withBump...)
		if err == ErrInvalidPublicKey {
			continue
		} else if err != nil {
			return nil, 0, err
		}

		return addr, byte(i), nil
	}

	return nil, 0, ErrNoValidBump
}

func isOnCurve(b []byte) bool {
	var key [32]byte
	copy(key[:], b)

	var point edwards25519.ExtendedGroupElement
	return point.FromBytes(&key)
}
