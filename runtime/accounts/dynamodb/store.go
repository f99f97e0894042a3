// Package dynamodb provides a DynamoDB backed accounts.Store.
package dynamodb

import (
	"context"
	"crypto/ed25519"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/dynamodbiface"
	"github.com/pkg/errors"

	dynamoutil "github.com/rentchain/rentchain-go/aws/dynamodb/util"
	"github.com/rentchain/rentchain-go/runtime/accounts"
)

const (
	addressKey = "address"
	accountKey = "account"

	// MaxCommitSize is the largest number of accounts a single Commit can
	// write, bounded by the items allowed in a DynamoDB transaction.
	MaxCommitSize = 25
)

var ErrCommitTooLarge = errors.New("too many accounts in commit")

type store struct {
	client dynamodbiface.ClientAPI
	table  string
}

// New returns a Store that keeps each account as an item of table, keyed
// by the binary address.
func New(client dynamodbiface.ClientAPI, table string) accounts.Store {
	return &store{
		client: client,
		table:  table,
	}
}

// CreateTable creates the accounts table, if it does not already exist.
func CreateTable(ctx context.Context, client dynamodbiface.ClientAPI, table string, capacity int64) error {
	_, err := client.CreateTableRequest(&dynamodb.CreateTableInput{
		TableName: aws.String(table),
		KeySchema: []dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String(addressKey),
				KeyType:       dynamodb.KeyTypeHash,
			},
		},
		AttributeDefinitions: []dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String(addressKey),
				AttributeType: dynamodb.ScalarAttributeTypeB,
			},
		},
		ProvisionedThroughput: &dynamodb.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(capacity),
			WriteCapacityUnits: aws.Int64(capacity),
		},
	}).Send(ctx)
	if err != nil && !dynamoutil.IsResourceInUse(err) {
		return errors.Wrap(err, "failed to create accounts table")
	}

	return nil
}

// Get implements accounts.Store.Get.
func (s *store) Get(ctx context.Context, address ed25519.PublicKey) (*accounts.Account, error) {
	resp, err := s.client.GetItemRequest(&dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(address),
		ConsistentRead: aws.Bool(true),
	}).Send(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}

	attr, ok := resp.Item[accountKey]
	if !ok {
		return nil, accounts.ErrAccountNotFound
	}

	a := &accounts.Account{}
	if err := a.Unmarshal(attr.B); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal account")
	}

	return a, nil
}

// Put implements accounts.Store.Put.
func (s *store) Put(ctx context.Context, address ed25519.PublicKey, account *accounts.Account) error {
	return s.Commit(ctx, []accounts.Update{{Address: address, Account: account}})
}

// Commit implements accounts.Store.Commit.
//
// Commits of more than MaxCommitSize accounts are rejected with
// ErrCommitTooLarge.
func (s *store) Commit(ctx context.Context, updates []accounts.Update) error {
	if len(updates) == 0 {
		return nil
	}
	if len(updates) > MaxCommitSize {
		return ErrCommitTooLarge
	}

	items := make([]dynamodb.TransactWriteItem, len(updates))
	for i, u := range updates {
		if u.Account.Lamports == 0 {
			items[i].Delete = &dynamodb.Delete{
				TableName: aws.String(s.table),
				Key:       s.key(u.Address),
			}
			continue
		}

		item := s.key(u.Address)
		item[accountKey] = dynamodb.AttributeValue{B: u.Account.Marshal()}
		items[i].Put = &dynamodb.Put{
			TableName: aws.String(s.table),
			Item:      item,
		}
	}

	_, err := s.client.TransactWriteItemsRequest(&dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	}).Send(ctx)
	if dynamoutil.IsTransactionCanceled(err) {
		return errors.Wrap(err, "accounts commit cancelled")
	} else if err != nil {
		return errors.Wrap(err, "failed to commit accounts")
	}

	return nil
}

func (s *store) key(address ed25519.PublicKey) map[string]dynamodb.AttributeValue {
	return map[string]dynamodb.AttributeValue{
		addressKey: {B: address},
	}
}
