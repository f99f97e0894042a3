package dynamodb

import (
	"context"
	"crypto/ed25519"
	"flag"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/dynamodbiface"
	"github.com/ory/dockertest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dynamotest "github.com/rentchain/rentchain-go/aws/dynamodb/test"
	"github.com/rentchain/rentchain-go/runtime/accounts"
	"github.com/rentchain/rentchain-go/runtime/accounts/tests"
)

const testTable = "accounts"

var testClient dynamodbiface.ClientAPI

func TestMain(m *testing.M) {
	log := logrus.StandardLogger()

	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.WithError(err).Error("Error creating docker pool")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	client, closeFunc, err := dynamotest.StartDynamoDB(ctx, pool)
	cancel()
	if err != nil {
		log.WithError(err).Error("Error starting dynamodb")
		os.Exit(1)
	}
	testClient = client

	code := m.Run()
	closeFunc()
	os.Exit(code)
}

func TestStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping dynamodb integration test")
	}

	ctx := context.Background()
	require.NoError(t, CreateTable(ctx, testClient, testTable, 10))

	// Creating an existing table is a no-op.
	require.NoError(t, CreateTable(ctx, testClient, testTable, 10))

	s := New(testClient, testTable)
	teardown := func() {
		_, err := testClient.DeleteTableRequest(&dynamodb.DeleteTableInput{
			TableName: aws.String(testTable),
		}).Send(ctx)
		require.NoError(t, err)
		require.NoError(t, CreateTable(ctx, testClient, testTable, 10))
	}
	tests.RunStoreTests(t, s, teardown)
}

func TestStore_CommitTooLarge(t *testing.T) {
	// The size check happens before any request is made.
	s := New(nil, testTable)

	updates := make([]accounts.Update, MaxCommitSize+1)
	for i := range updates {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		updates[i] = accounts.Update{Address: pub, Account: &accounts.Account{Lamports: 1}}
	}

	assert.Equal(t, ErrCommitTooLarge, s.Commit(context.Background(), updates))
}
