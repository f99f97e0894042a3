package main

import (
	"crypto/ed25519"

	"github.com/mitchellh/mapstructure"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/rentchain/rentchain-go/app"
	"github.com/rentchain/rentchain-go/rentchain"
	"github.com/rentchain/rentchain-go/rpc"
	"github.com/rentchain/rentchain-go/runtime"
	"github.com/rentchain/rentchain-go/solana"
)

const (
	storeMemory   = "memory"
	storeRedis    = "redis"
	storeDynamoDB = "dynamodb"
)

type config struct {
	// ProgramID overrides the declared RentChain program id.
	ProgramID string `mapstructure:"program_id"`

	AccountsStore string `mapstructure:"accounts_store"`
	RedisAddress  string `mapstructure:"redis_address"`
	RedisPrefix   string `mapstructure:"redis_prefix"`

	// DynamoDBEndpoint overrides the resolved DynamoDB endpoint, for
	// example to use dynamodb-local.
	DynamoDBEndpoint string `mapstructure:"dynamodb_endpoint"`
	DynamoDBTable    string `mapstructure:"dynamodb_table"`
	DynamoDBCapacity int64  `mapstructure:"dynamodb_capacity"`

	// IdentityKeypair is a URL to a solana-keygen keypair used as the
	// faucet. See app.LoadFile for the supported schemes. It is optional
	// only for the memory store.
	IdentityKeypair      string `mapstructure:"identity_keypair"`
	FaucetLamports       uint64 `mapstructure:"faucet_lamports"`
	LamportsPerSignature uint64 `mapstructure:"lamports_per_signature"`
	SkipSigVerify        bool   `mapstructure:"skip_sig_verify"`

	MetricsClient string `mapstructure:"metrics_client"`
	StatsdAddress string `mapstructure:"statsd_address"`

	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AccessLogging  bool     `mapstructure:"access_logging"`
}

var defaultConfig = config{
	ProgramID:            rentchain.ProgramAddress,
	AccountsStore:        storeMemory,
	RedisPrefix:          "rentchain",
	DynamoDBTable:        "rentchain-accounts",
	DynamoDBCapacity:     10,
	FaucetLamports:       runtime.DefaultFaucetLamports,
	LamportsPerSignature: runtime.DefaultLamportsPerSignature,
	MaxBodyBytes:         rpc.DefaultMaxBodyBytes,
}

func parseConfig(c app.Config) (config, error) {
	conf := defaultConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &conf,
	})
	if err != nil {
		return conf, errors.Wrap(err, "failed to create config decoder")
	}
	if err := decoder.Decode(map[string]interface{}(c)); err != nil {
		return conf, errors.Wrap(err, "failed to decode config")
	}

	switch conf.AccountsStore {
	case storeMemory:
	case storeRedis:
		if conf.RedisAddress == "" {
			return conf, errors.New("redis_address must be set for the redis accounts store")
		}
	case storeDynamoDB:
		if conf.DynamoDBTable == "" {
			return conf, errors.New("dynamodb_table must be set for the dynamodb accounts store")
		}
	default:
		return conf, errors.Errorf("unknown accounts store: %s", conf.AccountsStore)
	}

	// A generated faucet would mint new lamports into a persistent ledger on
	// every restart.
	if conf.AccountsStore != storeMemory && conf.IdentityKeypair == "" {
		return conf, errors.Errorf("identity_keypair must be set for the %s accounts store", conf.AccountsStore)
	}

	return conf, nil
}

func (c config) programID() (ed25519.PublicKey, error) {
	b, err := base58.Decode(c.ProgramID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid program id")
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid program id length: %d", len(b))
	}

	return b, nil
}

func (c config) identity() (ed25519.PrivateKey, error) {
	if c.IdentityKeypair == "" {
		return nil, nil
	}

	b, err := app.LoadFile(c.IdentityKeypair)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load identity keypair")
	}

	return solana.ParseKeypair(b)
}
