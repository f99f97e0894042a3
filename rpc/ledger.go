package rpc

import (
	"context"
	"crypto/ed25519"

	"github.com/rentchain/rentchain-go/runtime"
	"github.com/rentchain/rentchain-go/runtime/accounts"
	"github.com/rentchain/rentchain-go/solana"
)

// Ledger is the ledger served over RPC. It is implemented by
// *runtime.Runtime.
type Ledger interface {
	Slot() uint64
	RecentBlockhash() solana.Blockhash
	LamportsPerSignature() uint64
	MinimumBalanceForRentExemption(size uint64) uint64

	GetAccount(ctx context.Context, address ed25519.PublicKey) (*accounts.Account, error)
	GetBalance(ctx context.Context, address ed25519.PublicKey) (uint64, error)
	GetTransaction(sig solana.Signature) (*runtime.TransactionRecord, error)
	GetSignatureStatuses(sigs []solana.Signature) []*runtime.TransactionRecord

	Airdrop(ctx context.Context, address ed25519.PublicKey, lamports uint64) (solana.Signature, error)
	Simulate(ctx context.Context, txn solana.Transaction) (*runtime.Result, error)
	Process(ctx context.Context, txn solana.Transaction) (*runtime.Result, error)

	AddListener(l runtime.Listener)
}

var _ Ledger = (*runtime.Runtime)(nil)
