package system

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

var (
	// RentSysVar points to the system variable "Rent"
	//
	// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/rent.rs#L11
	RentSysVar = mustDecode("SysvarRent111111111111111111111111111111111")

	// ClockSysVar points to the system variable "Clock"
	ClockSysVar = mustDecode("SysvarC1ock11111111111111111111111111111111")

	// SysVarOwnerKey owns every sysvar account.
	SysVarOwnerKey = mustDecode("Sysvar1111111111111111111111111111111111111")

	// NativeLoaderKey owns the builtin programs, including this one.
	NativeLoaderKey = mustDecode("NativeLoader1111111111111111111111111111111")

	// BPFLoaderKey owns deployed (non-builtin) programs.
	BPFLoaderKey = mustDecode("BPFLoader2111111111111111111111111111111111")
)

func mustDecode(s string) ed25519.PublicKey {
	b, err := base58.Decode(s)
	if err != nil {
		panic(err)
	}
	if len(b) != ed25519.PublicKeySize {
		panic("invalid key size: " + s)
	}
	return b
}
