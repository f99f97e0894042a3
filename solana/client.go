package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"
	"mfycheng.dev/retry"
	"mfycheng.dev/retry/backoff"

	"github.com/rentchain/rentchain-go/metrics"
)

const (
	ticksPerSec  = 160
	ticksPerSlot = 64
	slotsPerSec  = ticksPerSec / ticksPerSlot

	// PollRate is the rate at which signature statuses are polled at.
	PollRate = (time.Second / slotsPerSec) / 2

	// Reference: https://github.com/solana-labs/solana/blob/14d793b22c1571fb092d5822189d5b64f32605e6/client/src/rpc_custom_error.rs#L10
	preflightFailureCode = -32002
)

var (
	rpcCounterVec = metrics.RegisterCounterVec(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rentchain",
		Subsystem: "solana_client",
		Name:      "requests",
		Help:      "Number of Solana RPCs made",
	}, []string{"rpc_method"}))

	rpcErrorCounterVec = metrics.RegisterCounterVec(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rentchain",
		Subsystem: "solana_client",
		Name:      "errors",
		Help:      "Number of Solana RPC errors",
	}, []string{"rpc_method", "error_code"}))
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

var (
	CommitmentProcessed = Commitment{Commitment: "processed"}
	CommitmentConfirmed = Commitment{Commitment: "confirmed"}
	CommitmentFinalized = Commitment{Commitment: "finalized"}
)

var (
	ErrNoAccountInfo     = errors.New("no account info")
	ErrSignatureNotFound = errors.New("transaction not found")
)

// AccountInfo contains the Solana account information.
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

type SignatureStatus struct {
	Slot        uint64
	ErrorResult *TransactionError

	// Confirmations will be nil if the transaction has been rooted.
	Confirmations *int
}

// SimulationResult is the outcome of a simulated transaction.
type SimulationResult struct {
	Err  *TransactionError
	Logs []string
}

type ConfirmedTransaction struct {
	Slot        uint64
	Transaction Transaction
	Err         *TransactionError
	Fee         uint64
	Logs        []string
}

// Client provides an interaction with the Solana JSON RPC API.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetMinimumBalanceForRentExemption(size uint64) (lamports uint64, err error)
	GetSlot(Commitment) (uint64, error)
	GetRecentBlockhash() (Blockhash, error)
	GetLamportsPerSignature() (uint64, error)
	GetBalance(ed25519.PublicKey) (uint64, error)
	GetAccountInfo(ed25519.PublicKey, Commitment) (AccountInfo, error)
	RequestAirdrop(ed25519.PublicKey, uint64, Commitment) (Signature, error)
	SimulateTransaction(Transaction) (*SimulationResult, error)
	SubmitTransaction(Transaction, Commitment) (Signature, *SignatureStatus, error)
	GetTransaction(Signature) (ConfirmedTransaction, error)
	GetSignatureStatus(Signature, Commitment) (*SignatureStatus, error)
	GetSignatureStatuses([]Signature) ([]*SignatureStatus, error)
}

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

type rpcResponse struct {
	Context struct {
		Slot int64 `json:"slot"`
	} `json:"context"`
	Value interface{} `json:"value"`
}

type client struct {
	log     *logrus.Entry
	client  jsonrpc.RPCClient
	retrier retry.Retrier
}

// New returns a client using the specified endpoint.
func New(endpoint string) Client {
	return NewWithRPCOptions(endpoint, nil)
}

// NewWithRPCOptions returns a client configured with the specified RPC options.
func NewWithRPCOptions(endpoint string, opts *jsonrpc.RPCClientOpts) Client {
	return &client{
		log:    logrus.StandardLogger().WithField("type", "solana/client"),
		client: jsonrpc.NewClientWithOpts(endpoint, opts),
		retrier: retry.NewRetrier(
			retry.RetriableErrors(errRateLimited, errServiceError),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
	}
}

func (c *client) call(out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(func() error {
		rpcCounterVec.WithLabelValues(method).Inc()

		err := c.client.CallFor(out, method, params...)
		if err == nil {
			return nil
		}

		rpcErr, ok := err.(*jsonrpc.RPCError)
		if !ok {
			rpcErrorCounterVec.WithLabelValues(method, "").Inc()
			return err
		}
		rpcErrorCounterVec.WithLabelValues(method, strconv.Itoa(rpcErr.Code)).Inc()
		if rpcErr.Code == 429 {
			return errRateLimited
		}
		if rpcErr.Code >= 500 {
			return errServiceError
		}

		return err
	})
	return err
}

func (c *client) GetMinimumBalanceForRentExemption(dataSize uint64) (lamports uint64, err error) {
	if err := c.call(&lamports, "getMinimumBalanceForRentExemption", dataSize); err != nil {
		return 0, errors.Wrapf(err, "failed to send request")
	}

	return lamports, nil
}

func (c *client) GetSlot(commitment Commitment) (slot uint64, err error) {
	// note: a single struct parameter would be sent as a by-name params
	//       object, so it is wrapped to keep the params positional.
	if err := c.call(&slot, "getSlot", []interface{}{commitment}); err != nil {
		return 0, errors.Wrapf(err, "failed to send request")
	}

	return slot, nil
}

type recentBlockhashResponse struct {
	Value struct {
		Blockhash     string `json:"blockhash"`
		FeeCalculator struct {
			LamportsPerSignature uint64 `json:"lamportsPerSignature"`
		} `json:"feeCalculator"`
	} `json:"value"`
}

func (c *client) GetRecentBlockhash() (hash Blockhash, err error) {
	var resp recentBlockhashResponse
	if err := c.call(&resp, "getRecentBlockhash"); err != nil {
		return hash, errors.Wrapf(err, "failed to send request")
	}

	hashBytes, err := base58.Decode(resp.Value.Blockhash)
	if err != nil {
		return hash, errors.Wrap(err, "invalid base58 encoded hash in response")
	}
	if len(hashBytes) != HashSize {
		return hash, errors.Errorf("invalid blockhash size: %d", len(hashBytes))
	}

	copy(hash[:], hashBytes)
	return hash, nil
}

// GetLamportsPerSignature returns the fee per signature of the recent
// blockhash's fee calculator.
func (c *client) GetLamportsPerSignature() (uint64, error) {
	var resp recentBlockhashResponse
	if err := c.call(&resp, "getRecentBlockhash"); err != nil {
		return 0, errors.Wrapf(err, "failed to send request")
	}

	return resp.Value.FeeCalculator.LamportsPerSignature, nil
}

func (c *client) GetBalance(account ed25519.PublicKey) (uint64, error) {
	var resp rpcResponse
	if err := c.call(&resp, "getBalance", base58.Encode(account[:]), CommitmentProcessed); err != nil {
		return 0, errors.Wrapf(err, "failed to send request")
	}

	if balance, ok := resp.Value.(float64); ok {
		return uint64(balance), nil
	}

	return 0, errors.Errorf("invalid value in response")
}

func (c *client) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (accountInfo AccountInfo, err error) {
	type rpcResponse struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	}

	rpcConfig := struct {
		Commitment string `json:"commitment"`
		Encoding   string `json:"encoding"`
	}{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account[:]), rpcConfig); err != nil {
		return accountInfo, errors.Wrap(err, "failed to send request")
	}

	if resp.Value == nil {
		return accountInfo, ErrNoAccountInfo
	}

	accountInfo.Owner, err = base58.Decode(resp.Value.Owner)
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base58 encoded owner")
	}

	if len(resp.Value.Data) == 0 {
		return accountInfo, errors.New("missing account data")
	}
	accountInfo.Data, err = base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base64 encoded data")
	}

	accountInfo.Lamports = resp.Value.Lamports
	accountInfo.Executable = resp.Value.Executable

	return accountInfo, nil
}

func (c *client) RequestAirdrop(account ed25519.PublicKey, lamports uint64, commitment Commitment) (Signature, error) {
	var sigStr string
	if err := c.call(&sigStr, "requestAirdrop", base58.Encode(account[:]), lamports, commitment); err != nil {
		return Signature{}, errors.Wrapf(err, "failed to send request")
	}

	sig, err := decodeSignature(sigStr)
	if err != nil {
		return Signature{}, errors.Wrap(err, "invalid signature in response")
	}

	if sig == (Signature{}) {
		return Signature{}, errors.New("empty signature returned")
	}

	return sig, nil
}

func (c *client) SimulateTransaction(txn Transaction) (*SimulationResult, error) {
	type rpcResponse struct {
		Value struct {
			Err  interface{} `json:"err"`
			Logs []string    `json:"logs"`
		} `json:"value"`
	}

	config := struct {
		Encoding   string `json:"encoding"`
		Commitment string `json:"commitment"`
	}{
		Encoding:   "base64",
		Commitment: CommitmentProcessed.Commitment,
	}

	var resp rpcResponse
	if err := c.call(&resp, "simulateTransaction", base64.StdEncoding.EncodeToString(txn.Marshal()), config); err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}

	txErr, err := ParseTransactionError(resp.Value.Err)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse simulation error")
	}

	return &SimulationResult{
		Err:  txErr,
		Logs: resp.Value.Logs,
	}, nil
}

func (c *client) SubmitTransaction(txn Transaction, commitment Commitment) (Signature, *SignatureStatus, error) {
	sig := txn.Signature()
	txnBytes := txn.Marshal()

	config := struct {
		Encoding            string `json:"encoding"`
		SkipPreflight       bool   `json:"skipPreflight"`
		PreflightCommitment string `json:"preflightCommitment"`
	}{
		Encoding:            "base64",
		SkipPreflight:       false,
		PreflightCommitment: commitment.Commitment,
	}

	var sigStr string
	err := c.call(&sigStr, "sendTransaction", base64.StdEncoding.EncodeToString(txnBytes), config)
	if err != nil {
		jsonRPCErr, ok := errors.Cause(err).(*jsonrpc.RPCError)
		if !ok || jsonRPCErr.Code != preflightFailureCode {
			return sig, nil, errors.Wrapf(err, "failed to send request")
		}

		txResult, parseErr := ParseRPCError(jsonRPCErr)
		if parseErr != nil || txResult == nil {
			return sig, nil, err
		}

		c.log.WithFields(logrus.Fields{
			"signature": sig.String(),
			"error":     txResult.Error(),
		}).Debug("transaction failed preflight")

		return sig, &SignatureStatus{ErrorResult: txResult}, nil
	}

	status, err := c.GetSignatureStatus(sig, commitment)
	return sig, status, err
}

func (c *client) GetTransaction(sig Signature) (ConfirmedTransaction, error) {
	type rpcResponse struct {
		Slot        uint64   `json:"slot"`
		Transaction []string `json:"transaction"` // [val, encoding]
		Meta        *struct {
			Err         interface{} `json:"err"`
			Fee         uint64      `json:"fee"`
			LogMessages []string    `json:"logMessages"`
		} `json:"meta"`
	}

	var resp *rpcResponse
	if err := c.call(&resp, "getTransaction", base58.Encode(sig[:]), "base64"); err != nil {
		return ConfirmedTransaction{}, err
	}

	if resp == nil {
		return ConfirmedTransaction{}, ErrSignatureNotFound
	}
	if len(resp.Transaction) == 0 {
		return ConfirmedTransaction{}, errors.New("missing transaction in response")
	}

	txn := ConfirmedTransaction{
		Slot: resp.Slot,
	}

	rawTxn, err := base64.StdEncoding.DecodeString(resp.Transaction[0])
	if err != nil {
		return txn, errors.Wrap(err, "failed to decode transaction")
	}
	if err := txn.Transaction.Unmarshal(rawTxn); err != nil {
		return txn, errors.Wrap(err, "failed to unmarshal transaction")
	}

	if resp.Meta != nil {
		txn.Fee = resp.Meta.Fee
		txn.Logs = resp.Meta.LogMessages
		txn.Err, err = ParseTransactionError(resp.Meta.Err)
		if err != nil {
			return txn, errors.Wrap(err, "failed to parse transaction result")
		}
	}

	return txn, nil
}

func (c *client) GetSignatureStatus(sig Signature, commitment Commitment) (*SignatureStatus, error) {
	// Poll rate is ~2x the slot rate, and we want to wait ~32 slots
	limit := uint(2 * 32)

	var s *SignatureStatus
	errConfirmationsNotReached := errors.New("confirmations not reached")
	_, err := retry.Retry(
		func() error {
			statuses, err := c.GetSignatureStatuses([]Signature{sig})
			if err != nil {
				return err
			}

			s = statuses[0]
			if s == nil {
				return ErrSignatureNotFound
			}

			if s.ErrorResult != nil {
				return nil
			}

			switch commitment {
			case CommitmentProcessed:
				return nil
			case CommitmentConfirmed:
				if s.Confirmations == nil || *s.Confirmations >= 1 {
					return nil
				}
			case CommitmentFinalized:
				if s.Confirmations == nil {
					return nil
				}
			}

			return errConfirmationsNotReached
		},
		retry.RetriableErrors(ErrSignatureNotFound, errConfirmationsNotReached),
		retry.Limit(limit),
		retry.Backoff(backoff.Constant(PollRate), PollRate),
	)

	return s, err
}

func (c *client) GetSignatureStatuses(sigs []Signature) ([]*SignatureStatus, error) {
	b58Sigs := make([]string, len(sigs))
	for i := range sigs {
		b58Sigs[i] = base58.Encode(sigs[i][:])
	}

	req := struct {
		SearchTransactionHistory bool `json:"searchTransactionHistory"`
	}{
		SearchTransactionHistory: false,
	}

	type signatureStatus struct {
		Slot          uint64          `json:"slot"`
		Confirmations *int            `json:"confirmations"`
		Err           json.RawMessage `json:"err"`
	}

	type rpcResp struct {
		Context struct {
			Slot int `json:"slot"`
		} `json:"context"`
		Value []*signatureStatus `json:"value"`
	}

	var resp rpcResp
	if err := c.call(&resp, "getSignatureStatuses", b58Sigs, req); err != nil {
		return nil, err
	}
	if len(resp.Value) != len(sigs) {
		return nil, errors.Errorf("expected %d statuses, got %d", len(sigs), len(resp.Value))
	}

	statuses := make([]*SignatureStatus, len(sigs))
	for i, v := range resp.Value {
		if v == nil {
			continue
		}

		statuses[i] = &SignatureStatus{}
		statuses[i].Confirmations = v.Confirmations
		statuses[i].Slot = v.Slot

		if len(v.Err) > 0 {
			var txError interface{}
			err := json.NewDecoder(bytes.NewBuffer(v.Err)).Decode(&txError)
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}

			statuses[i].ErrorResult, err = ParseTransactionError(txError)
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}
		}
	}

	return statuses, nil
}

func decodeSignature(s string) (sig Signature, err error) {
	b, err := base58.Decode(s)
	if err != nil {
		return sig, err
	}
	if len(b) != SignatureSize {
		return sig, errors.Errorf("invalid signature size: %d", len(b))
	}

	copy(sig[:], b)
	return sig, nil
}
