// Package test provides a dockerized Redis for integration tests.
package test

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/ory/dockertest"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"mfycheng.dev/retry"
	"mfycheng.dev/retry/backoff"
)

const (
	containerName    = "redis"
	containerVersion = "6"
)

var (
	log = logrus.StandardLogger().WithField("type", "redis/test")
)

// StartRedis starts a Redis container and blocks until it accepts
// connections, or ctx is done.
func StartRedis(ctx context.Context, pool *dockertest.Pool) (connString string, closeFunc func(), err error) {
	resource, err := pool.Run(containerName, containerVersion, nil)
	if err != nil {
		return "", func() {}, errors.Wrap(err, "failed to start resource")
	}

	closeFunc = func() {
		if err := pool.Purge(resource); err != nil {
			log.WithError(err).Warn("Failed to clean up Redis resource")
		}
	}

	connString = fmt.Sprintf("localhost:%s", resource.GetPort("6379/tcp"))

	_, err = retry.Retry(
		func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := ping(connString); err != nil {
				log.WithError(err).Trace("Redis health check failed")
				return err
			}
			return nil
		},
		retry.Limit(60),
		retry.Backoff(backoff.Constant(500*time.Millisecond), 500*time.Millisecond),
	)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		closeFunc()
		return "", func() {}, errors.Wrap(err, "redis didn't come up in time")
	}

	return connString, closeFunc, nil
}

func ping(connString string) error {
	client := redis.NewClient(&redis.Options{
		Addr: connString,
	})
	defer client.Close()

	return client.Ping().Err()
}
