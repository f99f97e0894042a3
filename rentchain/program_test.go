package rentchain

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentchain/rentchain-go/anchor"
	"github.com/rentchain/rentchain-go/runtime"
	"github.com/rentchain/rentchain-go/runtime/accounts"
	"github.com/rentchain/rentchain-go/runtime/accounts/memory"
	"github.com/rentchain/rentchain-go/solana"
)

type testEnv struct {
	rt    *runtime.Runtime
	store accounts.Store
	payer ed25519.PrivateKey
}

func setup(t *testing.T, programID ed25519.PublicKey, processor runtime.Program) (env testEnv, teardown func()) {
	ctx := context.Background()

	env.store = memory.New()

	rt, err := runtime.New(ctx, env.store)
	require.NoError(t, err)
	env.rt = rt

	require.NoError(t, rt.RegisterProgram(ctx, programID, processor))

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	env.payer = priv

	_, err = rt.Airdrop(ctx, pub, 1000000000)
	require.NoError(t, err)

	return env, rt.Close
}

func (e testEnv) initialize(t *testing.T, program ed25519.PublicKey, remaining ...solana.AccountMeta) solana.Transaction {
	txn := solana.NewTransaction(e.payer.Public().(ed25519.PublicKey), Initialize(program, remaining...))
	txn.SetBlockhash(e.rt.RecentBlockhash())
	require.NoError(t, txn.Sign(e.payer))
	return txn
}

func expectedLogs(program ed25519.PublicKey) []string {
	return []string{
		"Program " + base58.Encode(program) + " invoke [1]",
		"Program log: Instruction: Initialize",
		"Program log: Greetings from: " + base58.Encode(program),
		"Program " + base58.Encode(program) + " success",
	}
}

func TestProgramKey(t *testing.T) {
	assert.Equal(t, ProgramAddress, base58.Encode(ProgramKey))
	assert.Len(t, ProgramKey, ed25519.PublicKeySize)
}

func TestInitialize(t *testing.T) {
	env, teardown := setup(t, ProgramKey, NewProcessor(ProgramKey))
	defer teardown()

	result, err := env.rt.Process(context.Background(), env.initialize(t, ProgramKey))
	require.NoError(t, err)
	require.Nil(t, result.Err)
	assert.True(t, result.Committed)
	assert.Equal(t, expectedLogs(ProgramKey), result.Logs)

	invocations, err := solana.ParseProgramLogs(result.Logs)
	require.NoError(t, err)
	require.Len(t, invocations, 1)
	assert.True(t, invocations[0].Success)
	assert.Equal(t, []string{
		"Instruction: Initialize",
		"Greetings from: BaGvznHhNmC5LxVyCjWYmPZoCViqCXyUXvtJc7quy6eW",
	}, solana.MessagesFor(invocations, ProgramKey))
}

func TestInitialize_Idempotent(t *testing.T) {
	env, teardown := setup(t, ProgramKey, NewProcessor(ProgramKey))
	defer teardown()

	for i := 0; i < 5; i++ {
		result, err := env.rt.Process(context.Background(), env.initialize(t, ProgramKey))
		require.NoError(t, err)
		require.Nil(t, result.Err)
		assert.Equal(t, expectedLogs(ProgramKey), result.Logs)
	}
}

func TestInitialize_AccountsUntouched(t *testing.T) {
	ctx := context.Background()
	env, teardown := setup(t, ProgramKey, NewProcessor(ProgramKey))
	defer teardown()

	owner := generateKey(t)
	existing := generateKey(t)
	require.NoError(t, env.store.Put(ctx, existing, &accounts.Account{
		Lamports: 10,
		Owner:    owner,
		Data:     []byte("state"),
	}))
	missing := generateKey(t)

	watched := []ed25519.PublicKey{existing, missing, ProgramKey}
	before := snapshot(t, env.store, watched)

	result, err := env.rt.Process(ctx, env.initialize(t, ProgramKey,
		solana.NewAccountMeta(existing, false),
		solana.NewReadonlyAccountMeta(missing, false),
	))
	require.NoError(t, err)
	require.Nil(t, result.Err)
	assert.Equal(t, expectedLogs(ProgramKey), result.Logs)

	assert.Equal(t, before, snapshot(t, env.store, watched))

	// Only the fee is deducted from the payer.
	balance, err := env.rt.GetBalance(ctx, env.payer.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	assert.EqualValues(t, 1000000000-result.Fee, balance)
}

func TestInitialize_Simulate(t *testing.T) {
	env, teardown := setup(t, ProgramKey, NewProcessor(ProgramKey))
	defer teardown()

	slot := env.rt.Slot()
	result, err := env.rt.Simulate(context.Background(), env.initialize(t, ProgramKey))
	require.NoError(t, err)
	require.Nil(t, result.Err)
	assert.False(t, result.Committed)
	assert.Equal(t, expectedLogs(ProgramKey), result.Logs)
	assert.Equal(t, slot, env.rt.Slot())
}

func TestInitialize_RedeclaredProgram(t *testing.T) {
	id := generateKey(t)
	env, teardown := setup(t, id, NewProcessor(id))
	defer teardown()

	result, err := env.rt.Process(context.Background(), env.initialize(t, id))
	require.NoError(t, err)
	require.Nil(t, result.Err)
	assert.Equal(t, expectedLogs(id), result.Logs)
}

func TestInitialize_UndeclaredProgram(t *testing.T) {
	id := generateKey(t)
	env, teardown := setup(t, id, NewProcessor(ProgramKey))
	defer teardown()

	result, err := env.rt.Process(context.Background(), env.initialize(t, id))
	require.NoError(t, err)
	require.NotNil(t, result.Err)

	ie := result.Err.InstructionError()
	require.NotNil(t, ie)
	assert.Equal(t, 0, ie.Index)
	require.NotNil(t, ie.CustomError())
	assert.Equal(t, anchor.ErrDeclaredProgramIDMismatch.Code, *ie.CustomError())
	assert.Contains(t, result.Logs, "Program log: "+anchor.ErrDeclaredProgramIDMismatch.Log())
}

func TestDecompileInitialize(t *testing.T) {
	payer := generateKey(t)
	extra := generateKey(t)

	txn := solana.NewTransaction(payer, Initialize(ProgramKey, solana.NewReadonlyAccountMeta(extra, false)))

	decompiled, err := DecompileInitialize(txn.Message, 0, ProgramKey)
	require.NoError(t, err)
	assert.Equal(t, []ed25519.PublicKey{extra}, decompiled.Remaining)

	_, err = DecompileInitialize(txn.Message, 1, ProgramKey)
	assert.Error(t, err)

	_, err = DecompileInitialize(txn.Message, 0, generateKey(t))
	assert.Equal(t, solana.ErrIncorrectProgram, err)

	instr := Initialize(ProgramKey)
	instr.Data = []byte{1, 2, 3}
	_, err = DecompileInitialize(solana.NewTransaction(payer, instr).Message, 0, ProgramKey)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
}

func TestIDL(t *testing.T) {
	idl, err := ParseIDL()
	require.NoError(t, err)

	assert.Equal(t, ProgramAddress, idl.Address)
	assert.Equal(t, ProgramName, idl.Metadata.Name)

	generated := NewProcessor(ProgramKey).IDL(Version)
	generated.Metadata.Description = idl.Metadata.Description
	assert.Equal(t, generated, idl)

	instr, ok := idl.Instruction(InstructionInitialize)
	require.True(t, ok)
	assert.Empty(t, instr.Accounts)
	assert.Empty(t, instr.Args)
	assert.Equal(t, Initialize(ProgramKey).Data, instr.Discriminator[:])
}

func snapshot(t *testing.T, store accounts.Store, keys []ed25519.PublicKey) [][]byte {
	var state [][]byte
	for _, k := range keys {
		a, err := store.Get(context.Background(), k)
		if err == accounts.ErrAccountNotFound {
			state = append(state, nil)
			continue
		}
		require.NoError(t, err)
		state = append(state, a.Marshal())
	}
	return state
}

func generateKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub
}
