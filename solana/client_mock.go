package solana

import (
	"crypto/ed25519"

	"github.com/stretchr/testify/mock"
)

var _ Client = (*MockClient)(nil)

// MockClient is a testify backed Client.
//
// Lamport and slot return values may be configured as any integer type.
type MockClient struct {
	mock.Mock
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func uint64Arg(args mock.Arguments, index int) uint64 {
	switch t := args.Get(index).(type) {
	case int:
		return uint64(t)
	case int64:
		return uint64(t)
	case uint64:
		return t
	default:
		panic("invalid uint64 return value")
	}
}

func statusArg(args mock.Arguments, index int) *SignatureStatus {
	if s, ok := args.Get(index).(*SignatureStatus); ok {
		return s
	}
	return nil
}

func (m *MockClient) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	args := m.Called(size)
	return uint64Arg(args, 0), args.Error(1)
}

func (m *MockClient) GetSlot(commitment Commitment) (uint64, error) {
	args := m.Called(commitment)
	return uint64Arg(args, 0), args.Error(1)
}

func (m *MockClient) GetRecentBlockhash() (Blockhash, error) {
	args := m.Called()
	return args.Get(0).(Blockhash), args.Error(1)
}

func (m *MockClient) GetLamportsPerSignature() (uint64, error) {
	args := m.Called()
	return uint64Arg(args, 0), args.Error(1)
}

func (m *MockClient) GetBalance(account ed25519.PublicKey) (uint64, error) {
	args := m.Called(account)
	return uint64Arg(args, 0), args.Error(1)
}

func (m *MockClient) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (AccountInfo, error) {
	args := m.Called(account, commitment)
	return args.Get(0).(AccountInfo), args.Error(1)
}

func (m *MockClient) RequestAirdrop(account ed25519.PublicKey, lamports uint64, commitment Commitment) (Signature, error) {
	args := m.Called(account, lamports, commitment)
	return args.Get(0).(Signature), args.Error(1)
}

func (m *MockClient) SimulateTransaction(txn Transaction) (*SimulationResult, error) {
	args := m.Called(txn)
	result, _ := args.Get(0).(*SimulationResult)
	return result, args.Error(1)
}

func (m *MockClient) SubmitTransaction(txn Transaction, commitment Commitment) (Signature, *SignatureStatus, error) {
	args := m.Called(txn, commitment)
	return args.Get(0).(Signature), statusArg(args, 1), args.Error(2)
}

func (m *MockClient) GetTransaction(sig Signature) (ConfirmedTransaction, error) {
	args := m.Called(sig)
	return args.Get(0).(ConfirmedTransaction), args.Error(1)
}

func (m *MockClient) GetSignatureStatus(sig Signature, commitment Commitment) (*SignatureStatus, error) {
	args := m.Called(sig, commitment)
	return statusArg(args, 0), args.Error(1)
}

func (m *MockClient) GetSignatureStatuses(sigs []Signature) ([]*SignatureStatus, error) {
	args := m.Called(sigs)
	statuses, _ := args.Get(0).([]*SignatureStatus)
	return statuses, args.Error(1)
}
