package commands

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rentchain/rentchain-go/rentchain"
	"github.com/rentchain/rentchain-go/solana"
)

func TestFund(t *testing.T) {
	account, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	client := solana.NewMockClient()
	e := &env{client: client}

	// Airdrops can be disabled.
	require.NoError(t, e.fund(account, 0))
	client.AssertNotCalled(t, "GetBalance", mock.Anything)

	// The fee is read from the validator rather than assumed.
	client.On("GetLamportsPerSignature").Return(20000, nil)

	// Accounts that can pay the fee are left alone.
	client.On("GetBalance", account).Return(20000, nil).Once()
	require.NoError(t, e.fund(account, 10))
	client.AssertNotCalled(t, "RequestAirdrop", mock.Anything, mock.Anything, mock.Anything)

	sig := solana.Signature{1}
	client.On("GetBalance", account).Return(19999, nil)
	client.On("RequestAirdrop", account, uint64(10), solana.CommitmentConfirmed).Return(sig, nil)
	client.On("GetSignatureStatus", sig, solana.CommitmentConfirmed).Return(&solana.SignatureStatus{Slot: 2}, nil).Once()
	require.NoError(t, e.fund(account, 10))

	client.On("GetSignatureStatus", sig, solana.CommitmentConfirmed).Return(&solana.SignatureStatus{
		ErrorResult: solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee),
	}, nil).Once()
	assert.Error(t, e.fund(account, 10))

	client.On("GetSignatureStatus", sig, solana.CommitmentConfirmed).Return(nil, errors.New("timeout")).Once()
	assert.Error(t, e.fund(account, 10))

	client.AssertExpectations(t)
}

func TestFund_FeeUnavailable(t *testing.T) {
	account, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	client := solana.NewMockClient()
	client.On("GetLamportsPerSignature").Return(0, errors.New("unavailable"))

	e := &env{client: client}
	assert.Error(t, e.fund(account, 10))
	client.AssertNotCalled(t, "RequestAirdrop", mock.Anything, mock.Anything, mock.Anything)
}

func TestPrintLogs(t *testing.T) {
	logs := []string{
		solana.InvokeLog(rentchain.ProgramKey, 1),
		solana.ProgramLog("Instruction: Initialize"),
		solana.ProgramLog("Greetings from: " + rentchain.ProgramAddress),
		solana.SuccessLog(rentchain.ProgramKey),
	}

	var b bytes.Buffer
	require.NoError(t, printLogs(&b, logs, rentchain.ProgramKey))

	expected := "Logs:\n"
	for _, l := range logs {
		expected += "  " + l + "\n"
	}
	expected += "Program " + rentchain.ProgramAddress + ":\n" +
		"  Instruction: Initialize\n" +
		"  Greetings from: " + rentchain.ProgramAddress + "\n"
	assert.Equal(t, expected, b.String())

	// Logs emitted outside of an invocation cannot be attributed.
	b.Reset()
	assert.Error(t, printLogs(&b, []string{solana.ProgramLog("orphan")}, rentchain.ProgramKey))
}
