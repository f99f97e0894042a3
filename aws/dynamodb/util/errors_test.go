package util

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws/awserr"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrors_NoMatch(t *testing.T) {
	assert.False(t, IsResourceInUse(nil))
	assert.False(t, IsResourceInUse(errors.New("blah")))
	assert.False(t, IsTransactionCanceled(nil))
	assert.False(t, IsTransactionCanceled(awserr.New(dynamodb.ErrCodeResourceInUseException, "in use", nil)))
}

func TestErrors_Match(t *testing.T) {
	inUse := awserr.New(dynamodb.ErrCodeResourceInUseException, "table exists", nil)
	assert.True(t, IsResourceInUse(inUse))
	assert.True(t, IsResourceInUse(pkgerrors.Wrap(inUse, "failed to create table")))

	cancelled := awserr.New(dynamodb.ErrCodeTransactionCanceledException, "conflict", nil)
	assert.True(t, IsTransactionCanceled(cancelled))
	assert.True(t, IsErrorCode(cancelled, dynamodb.ErrCodeTransactionCanceledException))
}
