package rpc

import (
	"context"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/rentchain/rentchain-go/runtime"
	"github.com/rentchain/rentchain-go/runtime/accounts"
	"github.com/rentchain/rentchain-go/solana"
)

// coreVersion is the Solana RPC API version the server is compatible with.
const coreVersion = "1.9.5"

// handler serves a single JSON-RPC method. Returned *Error values are sent
// to the caller as is; any other error is reported as an internal error.
type handler func(ctx context.Context, p params) (interface{}, error)

type rpcContext struct {
	Slot uint64 `json:"slot"`
}

type contextValue struct {
	Context rpcContext  `json:"context"`
	Value   interface{} `json:"value"`
}

type commitmentConfig struct {
	Commitment string `json:"commitment"`
}

type encodingConfig struct {
	Commitment string `json:"commitment"`
	Encoding   string `json:"encoding"`
}

func (s *Server) methods() map[string]handler {
	return map[string]handler{
		"getHealth":                         s.getHealth,
		"getVersion":                        s.getVersion,
		"getSlot":                           s.getSlot,
		"getBlockHeight":                    s.getSlot,
		"getRecentBlockhash":                s.getRecentBlockhash,
		"getLatestBlockhash":                s.getLatestBlockhash,
		"getBalance":                        s.getBalance,
		"getAccountInfo":                    s.getAccountInfo,
		"getMinimumBalanceForRentExemption": s.getMinimumBalanceForRentExemption,
		"requestAirdrop":                    s.requestAirdrop,
		"simulateTransaction":               s.simulateTransaction,
		"sendTransaction":                   s.sendTransaction,
		"getTransaction":                    s.getTransaction,
		"getConfirmedTransaction":           s.getTransaction,
		"getSignatureStatuses":              s.getSignatureStatuses,
	}
}

func (s *Server) withContext(v interface{}) contextValue {
	return contextValue{
		Context: rpcContext{Slot: s.ledger.Slot()},
		Value:   v,
	}
}

func (s *Server) getHealth(_ context.Context, _ params) (interface{}, error) {
	return "ok", nil
}

func (s *Server) getVersion(_ context.Context, _ params) (interface{}, error) {
	return map[string]interface{}{
		"solana-core": coreVersion,
		"feature-set": 0,
	}, nil
}

func (s *Server) getSlot(_ context.Context, p params) (interface{}, error) {
	var config commitmentConfig
	if err := p.config(0, &config); err != nil {
		return nil, err
	}

	return s.ledger.Slot(), nil
}

func (s *Server) getRecentBlockhash(_ context.Context, _ params) (interface{}, error) {
	return s.withContext(map[string]interface{}{
		"blockhash": s.ledger.RecentBlockhash().String(),
		"feeCalculator": map[string]interface{}{
			"lamportsPerSignature": s.ledger.LamportsPerSignature(),
		},
	}), nil
}

func (s *Server) getLatestBlockhash(_ context.Context, _ params) (interface{}, error) {
	slot := s.ledger.Slot()
	return contextValue{
		Context: rpcContext{Slot: slot},
		Value: map[string]interface{}{
			"blockhash":            s.ledger.RecentBlockhash().String(),
			"lastValidBlockHeight": slot + runtime.MaxRecentBlockhashes,
		},
	}, nil
}

func (s *Server) getBalance(ctx context.Context, p params) (interface{}, error) {
	var address string
	if err := p.require(0, &address); err != nil {
		return nil, err
	}
	key, err := decodePublicKey(address)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.GetBalance(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}

	return s.withContext(balance), nil
}

func (s *Server) getAccountInfo(ctx context.Context, p params) (interface{}, error) {
	var address string
	var config encodingConfig
	if err := p.require(0, &address); err != nil {
		return nil, err
	}
	if err := p.config(1, &config); err != nil {
		return nil, err
	}
	key, err := decodePublicKey(address)
	if err != nil {
		return nil, err
	}

	account, err := s.ledger.GetAccount(ctx, key)
	if err == accounts.ErrAccountNotFound {
		return s.withContext(nil), nil
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}

	data, err := encodeData(account.Data, config.Encoding)
	if err != nil {
		return nil, err
	}

	return s.withContext(map[string]interface{}{
		"lamports":   account.Lamports,
		"owner":      base58.Encode(account.Owner),
		"data":       data,
		"executable": account.Executable,
		"rentEpoch":  0,
	}), nil
}

func (s *Server) getMinimumBalanceForRentExemption(_ context.Context, p params) (interface{}, error) {
	var size uint64
	if err := p.require(0, &size); err != nil {
		return nil, err
	}

	return s.ledger.MinimumBalanceForRentExemption(size), nil
}

func (s *Server) requestAirdrop(ctx context.Context, p params) (interface{}, error) {
	var address string
	var lamports uint64
	if err := p.require(0, &address); err != nil {
		return nil, err
	}
	if err := p.require(1, &lamports); err != nil {
		return nil, err
	}
	key, err := decodePublicKey(address)
	if err != nil {
		return nil, err
	}
	if lamports == 0 {
		return nil, invalidParams("Invalid params: lamports must be greater than zero")
	}

	sig, err := s.ledger.Airdrop(ctx, key, lamports)
	if err != nil {
		if _, ok := errors.Cause(err).(*solana.TransactionError); ok {
			return nil, &Error{Code: CodeInternalError, Message: err.Error()}
		}
		return nil, errors.Wrap(err, "failed to airdrop")
	}

	return sig.String(), nil
}

type simulateConfig struct {
	Commitment string `json:"commitment"`
	Encoding   string `json:"encoding"`
	SigVerify  bool   `json:"sigVerify"`
}

func (s *Server) simulateTransaction(ctx context.Context, p params) (interface{}, error) {
	var encoded string
	var config simulateConfig
	if err := p.require(0, &encoded); err != nil {
		return nil, err
	}
	if err := p.config(1, &config); err != nil {
		return nil, err
	}

	txn, err := decodeTransaction(encoded, config.Encoding)
	if err != nil {
		return nil, err
	}
	if config.SigVerify && !txn.VerifySignatures() {
		return nil, &Error{Code: CodeTransactionSignatureVerify, Message: "Transaction signature verification failure"}
	}

	result, err := s.ledger.Simulate(ctx, txn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to simulate transaction")
	}

	return s.withContext(simulationValue(result)), nil
}

func simulationValue(result *runtime.Result) map[string]interface{} {
	return map[string]interface{}{
		"err":           errorValue(result.Err),
		"logs":          nonNilLogs(result.Logs),
		"accounts":      nil,
		"unitsConsumed": 0,
	}
}

type sendConfig struct {
	Encoding            string `json:"encoding"`
	SkipPreflight       bool   `json:"skipPreflight"`
	PreflightCommitment string `json:"preflightCommitment"`
}

func (s *Server) sendTransaction(ctx context.Context, p params) (interface{}, error) {
	var encoded string
	var config sendConfig
	if err := p.require(0, &encoded); err != nil {
		return nil, err
	}
	if err := p.config(1, &config); err != nil {
		return nil, err
	}

	txn, err := decodeTransaction(encoded, config.Encoding)
	if err != nil {
		return nil, err
	}

	if !config.SkipPreflight {
		result, err := s.ledger.Simulate(ctx, txn)
		if err != nil {
			return nil, errors.Wrap(err, "failed to simulate transaction")
		}
		if result.Err != nil {
			return nil, preflightFailure(result)
		}
	}

	result, err := s.ledger.Process(ctx, txn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to process transaction")
	}
	if result.Err != nil && !result.Committed {
		return nil, preflightFailure(result)
	}

	return result.Signature.String(), nil
}

func preflightFailure(result *runtime.Result) *Error {
	return &Error{
		Code:    CodeSendTransactionPreflightFailure,
		Message: fmt.Sprintf("Transaction simulation failed: %s", result.Err.Error()),
		Data:    simulationValue(result),
	}
}

func (s *Server) getTransaction(_ context.Context, p params) (interface{}, error) {
	var encoded string
	if err := p.require(0, &encoded); err != nil {
		return nil, err
	}
	encoding, err := p.encoding(1)
	if err != nil {
		return nil, err
	}

	sig, err := decodeSignature(encoded)
	if err != nil {
		return nil, err
	}

	record, err := s.ledger.GetTransaction(sig)
	if err == runtime.ErrTransactionNotFound {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	txn, err := encodeTransaction(record.Transaction, encoding)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"slot":        record.Slot,
		"blockTime":   nil,
		"transaction": txn,
		"meta": map[string]interface{}{
			"err":         errorValue(record.Err),
			"status":      statusValue(record.Err),
			"fee":         record.Fee,
			"logMessages": nonNilLogs(record.Logs),
		},
	}, nil
}

type signatureStatusesConfig struct {
	SearchTransactionHistory bool `json:"searchTransactionHistory"`
}

func (s *Server) getSignatureStatuses(_ context.Context, p params) (interface{}, error) {
	var encoded []string
	var config signatureStatusesConfig
	if err := p.require(0, &encoded); err != nil {
		return nil, err
	}
	if err := p.config(1, &config); err != nil {
		return nil, err
	}
	if len(encoded) > maxSignatureStatuses {
		return nil, invalidParams("Too many inputs provided; max %d", maxSignatureStatuses)
	}

	sigs := make([]solana.Signature, len(encoded))
	for i, e := range encoded {
		sig, err := decodeSignature(e)
		if err != nil {
			return nil, err
		}
		sigs[i] = sig
	}

	records := s.ledger.GetSignatureStatuses(sigs)
	statuses := make([]interface{}, len(records))
	for i, r := range records {
		if r == nil {
			continue
		}

		statuses[i] = map[string]interface{}{
			"slot":               r.Slot,
			"confirmations":      nil,
			"err":                errorValue(r.Err),
			"status":             statusValue(r.Err),
			"confirmationStatus": "finalized",
		}
	}

	return s.withContext(statuses), nil
}
