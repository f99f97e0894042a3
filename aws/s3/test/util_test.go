package test

import (
	"context"
	"io/ioutil"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ory/dockertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartS3(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping docker based test in short mode")
	}

	bucket := "keys"
	key := "validator/identity.json"
	contents := []byte("[1,2,3]")

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, cleanupFunc, err := StartS3(ctx, pool)
	require.NoError(t, err)
	defer cleanupFunc()

	require.NoError(t, PutFile(ctx, client, bucket, key, contents))

	// The bucket already exists on the second write.
	require.NoError(t, PutFile(ctx, client, bucket, "validator/other.json", contents))

	listObjectsResp, err := client.ListObjectsRequest(&s3.ListObjectsInput{
		Bucket: aws.String(bucket),
	}).Send(ctx)
	require.NoError(t, err)
	require.Len(t, listObjectsResp.Contents, 2)

	getResp, err := client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}).Send(ctx)
	require.NoError(t, err)
	defer getResp.Body.Close()

	actual, err := ioutil.ReadAll(getResp.Body)
	require.NoError(t, err)
	assert.Equal(t, contents, actual)
}
