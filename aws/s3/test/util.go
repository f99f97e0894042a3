// Package test provides a dockerized S3 mock for integration tests.
package test

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/s3iface"
	"github.com/ory/dockertest"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"mfycheng.dev/retry"
	"mfycheng.dev/retry/backoff"
)

const (
	repository = "adobe/s3mock"
	tag        = "2.1.29"
)

var (
	log = logrus.StandardLogger().WithField("type", "aws/s3/test")
)

// StartS3 starts a dockerized S3 mock, returning a client configured to
// reach it and a function that removes the container.
func StartS3(ctx context.Context, pool *dockertest.Pool) (client s3iface.ClientAPI, closeFunc func(), err error) {
	resource, err := pool.Run(repository, tag, nil)
	if err != nil {
		return nil, func() {}, errors.Wrapf(err, "failed to start resource")
	}

	closeFunc = func() {
		if err := pool.Purge(resource); err != nil {
			log.WithError(err).Warn("Failed to cleanup s3 resource")
		}
	}

	cfg, err := external.LoadDefaultAWSConfig()
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrapf(err, "failed to load default aws config")
	}

	// Ensure that clients never reach out to a real system
	cfg.Region = "test-region-1"
	cfg.Credentials = aws.NewStaticCredentialsProvider("test", "test", "test")
	cfg.EndpointResolver = aws.ResolveWithEndpointURL(fmt.Sprintf("http://%s", resource.GetHostPort("9090/tcp")))

	s3Client := s3.New(cfg)
	s3Client.ForcePathStyle = true

	_, err = retry.Retry(
		func() error {
			if ctx.Err() != nil {
				return nil
			}
			_, err := s3Client.ListBucketsRequest(&s3.ListBucketsInput{}).Send(ctx)
			if err != nil {
				log.WithError(err).Trace("S3 health check failed")
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
		return nil, func() {}, errors.Wrap(err, "timed out waiting for s3 container to become available")
	}

	return s3Client, closeFunc, nil
}

// PutFile writes contents to bucket/key, creating the bucket if needed.
func PutFile(ctx context.Context, client s3iface.ClientAPI, bucket, key string, contents []byte) error {
	_, err := client.HeadBucketRequest(&s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	}).Send(ctx)
	if err != nil {
		if _, err := client.CreateBucketRequest(&s3.CreateBucketInput{
			Bucket: aws.String(bucket),
		}).Send(ctx); err != nil {
			return errors.Wrapf(err, "failed to create bucket %s", bucket)
		}
	}

	_, err = client.PutObjectRequest(&s3.PutObjectInput{
		ACL:           s3.ObjectCannedACLPrivate,
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(contents),
		ContentLength: aws.Int64(int64(len(contents))),
	}).Send(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to put %s/%s", bucket, key)
	}

	return nil
}
