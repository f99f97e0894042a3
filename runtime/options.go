package runtime

import (
	"crypto/ed25519"

	"github.com/rentchain/rentchain-go/metrics"
)

const (
	// DefaultLamportsPerSignature is the fee charged per transaction signature.
	DefaultLamportsPerSignature = 5000

	// DefaultFaucetLamports is the genesis balance of the faucet.
	DefaultFaucetLamports = 500000000 * 1000000000

	defaultSignatureCacheSize = 100000
)

type opts struct {
	metrics              metrics.Client
	faucet               ed25519.PrivateKey
	faucetLamports       uint64
	lamportsPerSignature uint64
	logBytesLimit        int
	signatureCacheSize   int
	skipSigVerify        bool
}

// Option configures a Runtime.
type Option func(o *opts)

// WithMetricsClient configures the client used to report runtime metrics.
func WithMetricsClient(c metrics.Client) Option {
	return func(o *opts) {
		o.metrics = c
	}
}

// WithFaucet configures the key of the faucet account used by Airdrop. If
// unset, a random key is generated.
func WithFaucet(key ed25519.PrivateKey, lamports uint64) Option {
	return func(o *opts) {
		o.faucet = key
		o.faucetLamports = lamports
	}
}

// WithLamportsPerSignature configures the fee charged per signature.
func WithLamportsPerSignature(lamports uint64) Option {
	return func(o *opts) {
		o.lamportsPerSignature = lamports
	}
}

// WithLogBytesLimit configures the per transaction log limit. Zero disables
// the limit.
func WithLogBytesLimit(limit int) Option {
	return func(o *opts) {
		o.logBytesLimit = limit
	}
}

// WithSignatureCacheSize configures how many transaction records are kept
// for status and transaction lookups.
func WithSignatureCacheSize(size int) Option {
	return func(o *opts) {
		o.signatureCacheSize = size
	}
}

// WithSkipSignatureVerification disables signature verification when
// processing transactions.
func WithSkipSignatureVerification(skip bool) Option {
	return func(o *opts) {
		o.skipSigVerify = skip
	}
}
