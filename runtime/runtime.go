// Package runtime provides an in-process ledger runtime that executes
// transactions against registered programs.
package runtime

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"sync"

	"github.com/goburrow/cache"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/rentchain/rentchain-go/metrics"
	"github.com/rentchain/rentchain-go/runtime/accounts"
	"github.com/rentchain/rentchain-go/solana"
	"github.com/rentchain/rentchain-go/solana/system"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrProgramRegistered   = errors.New("program already registered")
)

var (
	transactionCounterVec = metrics.RegisterCounterVec(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rentchain",
		Subsystem: "runtime",
		Name:      "transactions",
		Help:      "Number of processed transactions",
	}, []string{"result"}))

	instructionCounterVec = metrics.RegisterCounterVec(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rentchain",
		Subsystem: "runtime",
		Name:      "instructions",
		Help:      "Number of executed instructions",
	}, []string{"program", "result"}))
)

// TransactionRecord is a transaction that was committed to the ledger,
// successfully or not.
type TransactionRecord struct {
	Signature   solana.Signature
	Slot        uint64
	Transaction solana.Transaction
	Err         *solana.TransactionError
	Fee         uint64
	Logs        []string
}

// Result is the outcome of processing or simulating a transaction.
type Result struct {
	Signature solana.Signature
	Slot      uint64
	// Err is set if the transaction failed.
	Err  *solana.TransactionError
	Logs []string
	// Fee is the fee charged to the fee payer, if any.
	Fee uint64
	// Committed reports whether the transaction was recorded in the ledger.
	Committed bool
}

// Listener is notified of every committed transaction.
//
// OnTransaction is called synchronously after the commit, in slot order,
// while the runtime is locked. It must not block or call back into the
// runtime.
type Listener interface {
	OnTransaction(record *TransactionRecord)
}

// Runtime executes transactions against an account store.
//
// Transactions are processed one at a time, in submission order.
type Runtime struct {
	log   *logrus.Entry
	store accounts.Store
	opts  opts

	mu          sync.Mutex
	slot        uint64
	blockhashes *blockhashQueue
	programs    map[string]Program
	listeners   []Listener
	records     cache.Cache

	faucet       ed25519.PrivateKey
	timer        *metrics.Timer
	airdropMeter *metrics.Meter
	slotGauge    *metrics.Gauge
}

// New returns a Runtime over the provided store. The system program, the
// rent sysvar and the faucet are written to the store if missing.
func New(ctx context.Context, store accounts.Store, options ...Option) (*Runtime, error) {
	o := opts{
		metrics:              metrics.NopClient,
		faucetLamports:       DefaultFaucetLamports,
		lamportsPerSignature: DefaultLamportsPerSignature,
		logBytesLimit:        DefaultLogBytesLimit,
		signatureCacheSize:   defaultSignatureCacheSize,
	}
	for _, opt := range options {
		opt(&o)
	}

	if o.faucet == nil {
		_, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate faucet key")
		}
		o.faucet = priv
	}

	timer, err := metrics.NewTimer(o.metrics, "transaction_processing", metrics.WithTypeTag("runtime"))
	if err != nil {
		return nil, err
	}
	airdropMeter, err := metrics.NewMeter(o.metrics, "airdrop_lamports", metrics.WithTypeTag("runtime"))
	if err != nil {
		return nil, err
	}

	faucetPub := o.faucet.Public().(ed25519.PublicKey)

	r := &Runtime{
		log:         logrus.StandardLogger().WithField("type", "runtime"),
		store:       store,
		opts:        o,
		blockhashes: newBlockhashQueue(sha256.Sum256(faucetPub)),
		programs:    make(map[string]Program),
		records: cache.New(
			cache.WithMaximumSize(o.signatureCacheSize),
			cache.WithStatsCounter(metrics.NewMangoStatsCounter(o.metrics, metrics.WithTypeTag("transaction_records"))),
		),
		faucet:       o.faucet,
		timer:        timer,
		airdropMeter: airdropMeter,
	}

	if err := r.genesis(ctx); err != nil {
		return nil, err
	}

	r.slotGauge, err = metrics.NewGauge(o.metrics, "slot", func() float64 {
		return float64(r.Slot())
	}, 0, metrics.WithTypeTag("runtime"))
	if err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Runtime) genesis(ctx context.Context) error {
	builtins := []struct {
		address ed25519.PublicKey
		account *accounts.Account
	}{
		{
			address: system.ProgramKey,
			account: &accounts.Account{
				Lamports:   1,
				Owner:      system.NativeLoaderKey,
				Data:       []byte("system_program"),
				Executable: true,
			},
		},
		{
			address: system.RentSysVar,
			account: &accounts.Account{
				Lamports: MinimumBalanceForRentExemption(uint64(len(rentSysVarData()))),
				Owner:    system.SysVarOwnerKey,
				Data:     rentSysVarData(),
			},
		},
		{
			address: r.faucet.Public().(ed25519.PublicKey),
			account: &accounts.Account{
				Lamports: r.opts.faucetLamports,
				Owner:    system.ProgramKey,
			},
		},
	}

	for _, b := range builtins {
		if err := r.putIfMissing(ctx, b.address, b.account); err != nil {
			return errors.Wrapf(err, "failed to create genesis account %s", base58.Encode(b.address))
		}
	}

	r.programs[string(system.ProgramKey)] = systemProgram

	r.log.WithFields(logrus.Fields{
		"faucet":    base58.Encode(r.faucet.Public().(ed25519.PublicKey)),
		"blockhash": r.blockhashes.latest().String(),
	}).Info("Genesis complete")

	return nil
}

func (r *Runtime) putIfMissing(ctx context.Context, address ed25519.PublicKey, account *accounts.Account) error {
	_, err := r.store.Get(ctx, address)
	if err == nil {
		return nil
	} else if err != accounts.ErrAccountNotFound {
		return err
	}

	return r.store.Put(ctx, address, account)
}

// RegisterProgram registers p as the executable of the program at id.
func (r *Runtime) RegisterProgram(ctx context.Context, id ed25519.PublicKey, p Program) error {
	if len(id) != ed25519.PublicKeySize {
		return errors.Errorf("invalid program id size: %d", len(id))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.programs[string(id)]; exists {
		return ErrProgramRegistered
	}

	err := r.putIfMissing(ctx, id, &accounts.Account{
		Lamports:   MinimumBalanceForRentExemption(0),
		Owner:      system.BPFLoaderKey,
		Executable: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create program account")
	}

	r.programs[string(id)] = p
	r.log.WithField("program", base58.Encode(id)).Info("Registered program")

	return nil
}

// AddListener registers l to be notified of committed transactions.
func (r *Runtime) AddListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Slot returns the current slot.
func (r *Runtime) Slot() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slot
}

// RecentBlockhash returns the latest blockhash.
func (r *Runtime) RecentBlockhash() solana.Blockhash {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockhashes.latest()
}

// Faucet returns the address of the account funding airdrops.
func (r *Runtime) Faucet() ed25519.PublicKey {
	return r.faucet.Public().(ed25519.PublicKey)
}

// LamportsPerSignature returns the fee charged per signature.
func (r *Runtime) LamportsPerSignature() uint64 {
	return r.opts.lamportsPerSignature
}

// MinimumBalanceForRentExemption returns the lamports an account of size
// bytes needs to be rent exempt.
func (r *Runtime) MinimumBalanceForRentExemption(size uint64) uint64 {
	return MinimumBalanceForRentExemption(size)
}

// GetAccount returns the account at address, or accounts.ErrAccountNotFound.
func (r *Runtime) GetAccount(ctx context.Context, address ed25519.PublicKey) (*accounts.Account, error) {
	return r.store.Get(ctx, address)
}

// GetBalance returns the lamports of the account at address, or zero if it
// does not exist.
func (r *Runtime) GetBalance(ctx context.Context, address ed25519.PublicKey) (uint64, error) {
	a, err := r.store.Get(ctx, address)
	if err == accounts.ErrAccountNotFound {
		return 0, nil
	} else if err != nil {
		return 0, err
	}

	return a.Lamports, nil
}

// GetTransaction returns the record of a committed transaction, or
// ErrTransactionNotFound.
func (r *Runtime) GetTransaction(sig solana.Signature) (*TransactionRecord, error) {
	v, ok := r.records.GetIfPresent(sig)
	if !ok {
		return nil, ErrTransactionNotFound
	}

	return v.(*TransactionRecord), nil
}

// GetSignatureStatuses returns the records of the provided signatures, with
// nil entries for unknown signatures.
func (r *Runtime) GetSignatureStatuses(sigs []solana.Signature) []*TransactionRecord {
	records := make([]*TransactionRecord, len(sigs))
	for i, sig := range sigs {
		if v, ok := r.records.GetIfPresent(sig); ok {
			records[i] = v.(*TransactionRecord)
		}
	}

	return records
}

// Airdrop transfers lamports from the faucet to address.
func (r *Runtime) Airdrop(ctx context.Context, address ed25519.PublicKey, lamports uint64) (solana.Signature, error) {
	faucet := r.faucet.Public().(ed25519.PublicKey)

	txn := solana.NewTransaction(faucet, system.Transfer(faucet, address, lamports))
	txn.SetBlockhash(r.RecentBlockhash())
	if err := txn.Sign(r.faucet); err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to sign airdrop")
	}

	result, err := r.Process(ctx, txn)
	if err != nil {
		return solana.Signature{}, err
	}
	if result.Err != nil {
		return result.Signature, errors.Wrap(result.Err, "airdrop failed")
	}

	r.airdropMeter.Count(int64(lamports))

	return result.Signature, nil
}

// Close releases the resources of the runtime.
func (r *Runtime) Close() {
	r.slotGauge.Stop()
}
