package main

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/external"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-redis/redis/v7"
	"github.com/gorilla/mux"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rentchain/rentchain-go/app"
	"github.com/rentchain/rentchain-go/metrics"
	"github.com/rentchain/rentchain-go/rentchain"
	"github.com/rentchain/rentchain-go/rpc"
	"github.com/rentchain/rentchain-go/runtime"
	"github.com/rentchain/rentchain-go/runtime/accounts"
	dynamostore "github.com/rentchain/rentchain-go/runtime/accounts/dynamodb"
	memorystore "github.com/rentchain/rentchain-go/runtime/accounts/memory"
	redisstore "github.com/rentchain/rentchain-go/runtime/accounts/redis"

	// Registers the metrics clients selectable through metrics_client.
	_ "github.com/rentchain/rentchain-go/metrics/memory"
	_ "github.com/rentchain/rentchain-go/metrics/statsd"
)

const initTimeout = 30 * time.Second

// validator hosts a runtime with the RentChain program registered, and
// serves it over JSON-RPC.
type validator struct {
	log *logrus.Entry

	redis   *redis.Client
	metrics metrics.Client
	runtime *runtime.Runtime
	server  *rpc.Server

	shutdownCh chan struct{}
	stopOnce   sync.Once
}

func newValidator() *validator {
	return &validator{
		log:        logrus.StandardLogger().WithField("type", "rentchain-validator"),
		shutdownCh: make(chan struct{}),
	}
}

// Init implements app.App.Init.
func (v *validator) Init(c app.Config) (err error) {
	conf, err := parseConfig(c)
	if err != nil {
		return err
	}

	programID, err := conf.programID()
	if err != nil {
		return err
	}
	identity, err := conf.identity()
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			v.Stop()
		}
	}()

	var metricsOpts []metrics.ClientOption
	if conf.StatsdAddress != "" {
		metricsOpts = append(metricsOpts, metrics.WithAddress(conf.StatsdAddress))
	}
	v.metrics, err = metrics.CreateClient(conf.MetricsClient, append(metricsOpts, metrics.WithNamespace("rentchain"))...)
	if err != nil {
		return errors.Wrap(err, "failed to create metrics client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	var store accounts.Store
	switch conf.AccountsStore {
	case storeRedis:
		v.redis = redis.NewClient(&redis.Options{
			Addr: conf.RedisAddress,
		})
		if err := v.redis.Ping().Err(); err != nil {
			return errors.Wrap(err, "failed to connect to redis")
		}
		store = redisstore.New(v.redis, conf.RedisPrefix)
	case storeDynamoDB:
		if store, err = newDynamoDBStore(ctx, conf); err != nil {
			return err
		}
	default:
		store = memorystore.New()
	}

	opts := []runtime.Option{
		runtime.WithMetricsClient(v.metrics),
		runtime.WithLamportsPerSignature(conf.LamportsPerSignature),
		runtime.WithSkipSignatureVerification(conf.SkipSigVerify),
	}
	if identity != nil {
		opts = append(opts, runtime.WithFaucet(identity, conf.FaucetLamports))
	}

	v.runtime, err = runtime.New(ctx, store, opts...)
	if err != nil {
		return errors.Wrap(err, "failed to create runtime")
	}

	// The program declares the configured id, so an override is served
	// under its own address.
	if err := v.runtime.RegisterProgram(ctx, programID, rentchain.NewProcessor(programID)); err != nil {
		return errors.Wrap(err, "failed to register program")
	}

	v.server = rpc.New(
		v.runtime,
		rpc.WithMaxBodyBytes(conf.MaxBodyBytes),
		rpc.WithAllowedOrigins(conf.AllowedOrigins...),
		rpc.WithAccessLogging(conf.AccessLogging),
	)

	v.log.WithFields(logrus.Fields{
		"program":        base58.Encode(programID),
		"accounts_store": conf.AccountsStore,
		"slot":           v.runtime.Slot(),
	}).Info("validator initialized")

	return nil
}

// RegisterWithHTTP implements app.App.RegisterWithHTTP.
func (v *validator) RegisterWithHTTP(r *mux.Router) {
	r.PathPrefix("/").Handler(v.server.Handler())
}

// ShutdownChan implements app.App.ShutdownChan.
func (v *validator) ShutdownChan() <-chan struct{} {
	return v.shutdownCh
}

// Stop implements app.App.Stop.
func (v *validator) Stop() {
	v.stopOnce.Do(func() {
		if v.server != nil {
			v.server.Close()
		}
		if v.runtime != nil {
			v.runtime.Close()
		}
		if v.redis != nil {
			if err := v.redis.Close(); err != nil {
				v.log.WithError(err).Warn("failed to close redis client")
			}
		}
		if v.metrics != nil {
			if err := v.metrics.Close(); err != nil {
				v.log.WithError(err).Warn("failed to close metrics client")
			}
		}

		close(v.shutdownCh)
	})
}

func newDynamoDBStore(ctx context.Context, conf config) (accounts.Store, error) {
	cfg, err := external.LoadDefaultAWSConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load aws config")
	}
	if conf.DynamoDBEndpoint != "" {
		cfg.EndpointResolver = aws.ResolveWithEndpointURL(conf.DynamoDBEndpoint)
	}

	client := awsdynamodb.New(cfg)
	if err := dynamostore.CreateTable(ctx, client, conf.DynamoDBTable, conf.DynamoDBCapacity); err != nil {
		return nil, err
	}

	return dynamostore.New(client, conf.DynamoDBTable), nil
}
