// Package util contains helpers for working with DynamoDB errors.
package util

import (
	"github.com/aws/aws-sdk-go-v2/aws/awserr"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/pkg/errors"
)

// IsErrorCode returns whether or not err, or its cause, is an AWS error
// with the provided code.
func IsErrorCode(err error, code string) bool {
	if aErr, ok := errors.Cause(err).(awserr.Error); ok {
		return aErr.Code() == code
	}

	return false
}

// IsTransactionCanceled returns whether or not the error indicates that a
// transactional write was cancelled, for example due to a conflict.
func IsTransactionCanceled(err error) bool {
	return IsErrorCode(err, dynamodb.ErrCodeTransactionCanceledException)
}

// IsResourceInUse returns whether or not the error indicates that the
// table being created already exists.
func IsResourceInUse(err error) bool {
	return IsErrorCode(err, dynamodb.ErrCodeResourceInUseException)
}
