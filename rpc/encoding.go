package rpc

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/mr-tron/base58"

	"github.com/rentchain/rentchain-go/runtime"
	"github.com/rentchain/rentchain-go/solana"
)

const (
	encodingBase58     = "base58"
	encodingBase64     = "base64"
	encodingBinary     = "binary"
	encodingJSONParsed = "jsonParsed"

	// Solana refuses base58 transactions beyond this length.
	//
	// Reference: https://github.com/solana-labs/solana/blob/v1.9.5/rpc/src/rpc.rs#L4090
	maxBase58TransactionSize = 1683
	maxBase64TransactionSize = 1644

	maxSignatureStatuses = 256
)

func decodePublicKey(s string) (ed25519.PublicKey, error) {
	b, err := base58.Decode(s)
	if err != nil || len(b) != ed25519.PublicKeySize {
		return nil, invalidParams("Invalid param: Invalid")
	}

	return b, nil
}

func decodeSignature(s string) (sig solana.Signature, err error) {
	b, err := base58.Decode(s)
	if err != nil || len(b) != solana.SignatureSize {
		return sig, invalidParams("Invalid param: Invalid")
	}

	copy(sig[:], b)
	return sig, nil
}

// decodeTransaction decodes a wire transaction in the provided encoding,
// which defaults to base58.
func decodeTransaction(s, encoding string) (txn solana.Transaction, err error) {
	var raw []byte

	switch encoding {
	case "", encodingBase58:
		if len(s) > maxBase58TransactionSize {
			return txn, invalidParams("encoded solana_sdk::transaction::Transaction too large: %d bytes (max: encoded/raw %d/%d)", len(s), maxBase58TransactionSize, solana.MaxTransactionSize)
		}
		raw, err = base58.Decode(s)
	case encodingBase64:
		if len(s) > maxBase64TransactionSize {
			return txn, invalidParams("encoded solana_sdk::transaction::Transaction too large: %d bytes (max: encoded/raw %d/%d)", len(s), maxBase64TransactionSize, solana.MaxTransactionSize)
		}
		raw, err = base64.StdEncoding.DecodeString(s)
	default:
		return txn, invalidParams("unsupported encoding: %s. Supported encodings: base58, base64", encoding)
	}
	if err != nil {
		return txn, invalidParams("invalid %s encoding: %v", encodingOrDefault(encoding), err)
	}

	if len(raw) > solana.MaxTransactionSize {
		return txn, invalidParams("decoded solana_sdk::transaction::Transaction too large: %d bytes (max: %d bytes)", len(raw), solana.MaxTransactionSize)
	}
	if err := txn.Unmarshal(raw); err != nil {
		return txn, invalidParams("failed to deserialize solana_sdk::transaction::Transaction: %v", err)
	}

	return txn, nil
}

func encodingOrDefault(encoding string) string {
	if encoding == "" {
		return encodingBase58
	}
	return encoding
}

// encodeData encodes account data the way getAccountInfo returns it.
func encodeData(data []byte, encoding string) (interface{}, error) {
	switch encoding {
	case "", encodingBinary:
		return base58.Encode(data), nil
	case encodingBase58:
		return []string{base58.Encode(data), encodingBase58}, nil
	case encodingBase64, encodingJSONParsed:
		return []string{base64.StdEncoding.EncodeToString(data), encodingBase64}, nil
	default:
		return nil, invalidParams("Invalid params: unsupported encoding: %s", encoding)
	}
}

// encodeTransaction encodes a committed transaction in the provided encoding,
// which defaults to base64.
func encodeTransaction(txn solana.Transaction, encoding string) (interface{}, error) {
	switch encoding {
	case "", encodingBase64:
		return []string{base64.StdEncoding.EncodeToString(txn.Marshal()), encodingBase64}, nil
	case encodingBase58:
		return []string{base58.Encode(txn.Marshal()), encodingBase58}, nil
	default:
		return nil, invalidParams("Invalid params: unsupported encoding: %s", encoding)
	}
}

// errorValue returns the RPC representation of a transaction error, which is
// null on success.
func errorValue(err *solana.TransactionError) interface{} {
	if err == nil {
		return nil
	}
	return err.Raw()
}

// statusValue returns the legacy Result-shaped status of a transaction.
func statusValue(err *solana.TransactionError) interface{} {
	if err == nil {
		return map[string]interface{}{"Ok": nil}
	}
	return map[string]interface{}{"Err": err.Raw()}
}

func nonNilLogs(logs []string) []string {
	if logs == nil {
		return []string{}
	}
	return logs
}

func mentions(record *runtime.TransactionRecord, key ed25519.PublicKey) bool {
	for _, k := range record.Transaction.Message.Accounts {
		if k.Equal(key) {
			return true
		}
	}
	return false
}
