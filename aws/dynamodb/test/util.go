// Package test provides a dockerized DynamoDB for integration tests.
package test

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/dynamodbiface"
	"github.com/ory/dockertest"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"mfycheng.dev/retry"
	"mfycheng.dev/retry/backoff"
)

const (
	containerName    = "amazon/dynamodb-local"
	containerVersion = "1.11.477"
)

var (
	log = logrus.StandardLogger().WithField("type", "aws/dynamodb/test")
)

// StartDynamoDB starts a Docker container using the dynamodb-local image and
// returns a DynamoDB client once the container accepts requests.
func StartDynamoDB(ctx context.Context, pool *dockertest.Pool) (db dynamodbiface.ClientAPI, closeFunc func(), err error) {
	closeFunc = func() {}

	resource, err := pool.Run(containerName, containerVersion, nil)
	if err != nil {
		return nil, closeFunc, errors.Wrapf(err, "failed to start resource")
	}

	closeFunc = func() {
		if err := pool.Purge(resource); err != nil {
			log.WithError(err).Warn("Failed to cleanup dynamodb resource")
		}
	}

	address := resource.GetHostPort("8000/tcp")

	cfg, err := external.LoadDefaultAWSConfig()
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrapf(err, "failed to load default aws config")
	}

	// Ensure that clients never reach out to a real system
	cfg.Region = "test-region-1"

	cfg.Credentials = aws.NewStaticCredentialsProvider("test", "test", "test")
	cfg.EndpointResolver = aws.ResolveWithEndpointURL(fmt.Sprintf("http://%s", address))

	db = dynamodb.New(cfg)

	_, err = retry.Retry(
		func() error {
			if ctx.Err() != nil {
				return nil
			}
			_, err := db.ListTablesRequest(&dynamodb.ListTablesInput{}).Send(ctx)
			if err != nil {
				log.WithError(err).Trace("DynamoDB health check failed")
			}
			return err
		},
		retry.Limit(60),
		retry.Backoff(backoff.Constant(500*time.Millisecond), 500*time.Millisecond),
	)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrap(err, "timed out waiting for dynamodb container to become available")
	}

	return db, closeFunc, nil
}
