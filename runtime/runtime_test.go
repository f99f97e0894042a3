package runtime

import (
	"context"
	"crypto/ed25519"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metricsmemory "github.com/rentchain/rentchain-go/metrics/memory"
	"github.com/rentchain/rentchain-go/runtime/accounts"
	"github.com/rentchain/rentchain-go/runtime/accounts/memory"
	"github.com/rentchain/rentchain-go/solana"
	"github.com/rentchain/rentchain-go/solana/system"
)

const funded = 1000000000

type testEnv struct {
	rt      *Runtime
	store   accounts.Store
	metrics *metricsmemory.Client
	payer   ed25519.PrivateKey
}

func setup(t *testing.T, opts ...Option) (env testEnv, teardown func()) {
	ctx := context.Background()

	env.store = memory.New()
	env.metrics = metricsmemory.New()

	rt, err := New(ctx, env.store, append([]Option{WithMetricsClient(env.metrics)}, opts...)...)
	require.NoError(t, err)
	env.rt = rt

	env.payer = generatePrivateKey(t)
	_, err = rt.Airdrop(ctx, publicKey(env.payer), funded)
	require.NoError(t, err)

	return env, rt.Close
}

func (e testEnv) txn(t *testing.T, instructions ...solana.Instruction) solana.Transaction {
	txn := solana.NewTransaction(publicKey(e.payer), instructions...)
	txn.SetBlockhash(e.rt.RecentBlockhash())
	require.NoError(t, txn.Sign(e.payer))
	return txn
}

func (e testEnv) balance(t *testing.T, key ed25519.PublicKey) uint64 {
	b, err := e.rt.GetBalance(context.Background(), key)
	require.NoError(t, err)
	return b
}

func (e testEnv) register(t *testing.T, p Program) ed25519.PublicKey {
	id := generateKey(t)
	require.NoError(t, e.rt.RegisterProgram(context.Background(), id, p))
	return id
}

func TestGenesis(t *testing.T) {
	ctx := context.Background()
	faucet := generatePrivateKey(t)
	store := memory.New()

	rt, err := New(ctx, store, WithFaucet(faucet, 1234))
	require.NoError(t, err)
	defer rt.Close()

	program, err := rt.GetAccount(ctx, system.ProgramKey)
	require.NoError(t, err)
	assert.True(t, program.Executable)
	assert.Equal(t, system.NativeLoaderKey, program.Owner)

	rent, err := rt.GetAccount(ctx, system.RentSysVar)
	require.NoError(t, err)
	assert.Equal(t, system.SysVarOwnerKey, rent.Owner)
	assert.Equal(t, rentSysVarData(), rent.Data)

	balance, err := rt.GetBalance(ctx, publicKey(faucet))
	require.NoError(t, err)
	assert.EqualValues(t, 1234, balance)

	balance, err = rt.GetBalance(ctx, generateKey(t))
	require.NoError(t, err)
	assert.Zero(t, balance)

	// Existing accounts are left as is.
	require.NoError(t, store.Put(ctx, publicKey(faucet), &accounts.Account{Lamports: 1, Owner: system.ProgramKey}))
	rt2, err := New(ctx, store, WithFaucet(faucet, 1234))
	require.NoError(t, err)
	defer rt2.Close()

	balance, err = rt2.GetBalance(ctx, publicKey(faucet))
	require.NoError(t, err)
	assert.EqualValues(t, 1, balance)
}

func TestRent(t *testing.T) {
	assert.EqualValues(t, 890880, MinimumBalanceForRentExemption(0))
	assert.EqualValues(t, (128+165)*3480*2, MinimumBalanceForRentExemption(165))
	assert.Len(t, rentSysVarData(), 17)
}

func TestAirdrop(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()

	assert.EqualValues(t, funded, env.balance(t, publicKey(env.payer)))
	assert.EqualValues(t, 1, env.rt.Slot())

	to := generateKey(t)
	sig, err := env.rt.Airdrop(context.Background(), to, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 10, env.balance(t, to))
	assert.EqualValues(t, 2, env.rt.Slot())

	record, err := env.rt.GetTransaction(sig)
	require.NoError(t, err)
	assert.Nil(t, record.Err)
	assert.EqualValues(t, 1, record.Slot)
	assert.EqualValues(t, DefaultLamportsPerSignature, record.Fee)
	assert.Equal(t, []string{
		"Program 11111111111111111111111111111111 invoke [1]",
		"Program 11111111111111111111111111111111 success",
	}, record.Logs)

	var counted int64
	for _, c := range env.metrics.Counts() {
		if c.Name == "airdrop_lamports" {
			counted += int64(c.Value)
		}
	}
	assert.EqualValues(t, funded+10, counted)

	_, err = env.rt.Airdrop(context.Background(), to, DefaultFaucetLamports)
	assert.Error(t, err)
}

func TestProcess_Transfer(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()

	to := generateKey(t)
	blockhash := env.rt.RecentBlockhash()

	result, err := env.rt.Process(context.Background(), env.txn(t, system.Transfer(publicKey(env.payer), to, 100)))
	require.NoError(t, err)
	require.Nil(t, result.Err)
	assert.True(t, result.Committed)

	assert.EqualValues(t, 100, env.balance(t, to))
	assert.EqualValues(t, funded-100-DefaultLamportsPerSignature, env.balance(t, publicKey(env.payer)))
	assert.NotEqual(t, blockhash, env.rt.RecentBlockhash())

	statuses := env.rt.GetSignatureStatuses([]solana.Signature{result.Signature, {}})
	require.Len(t, statuses, 2)
	require.NotNil(t, statuses[0])
	assert.Nil(t, statuses[0].Err)
	assert.Nil(t, statuses[1])

	_, err = env.rt.GetTransaction(solana.Signature{})
	assert.Equal(t, ErrTransactionNotFound, err)

	assert.NotEmpty(t, env.metrics.Timings())
}

func TestProcess_CreateAccount(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()

	owner := generateKey(t)
	account := generatePrivateKey(t)
	lamports := env.rt.MinimumBalanceForRentExemption(10)

	txn := solana.NewTransaction(publicKey(env.payer), system.CreateAccount(publicKey(env.payer), publicKey(account), owner, lamports, 10))
	txn.SetBlockhash(env.rt.RecentBlockhash())
	require.NoError(t, txn.Sign(env.payer, account))

	result, err := env.rt.Process(context.Background(), txn)
	require.NoError(t, err)
	require.Nil(t, result.Err)

	created, err := env.rt.GetAccount(context.Background(), publicKey(account))
	require.NoError(t, err)
	assert.Equal(t, lamports, created.Lamports)
	assert.Equal(t, owner, created.Owner)
	assert.Equal(t, make([]byte, 10), created.Data)

	// Creating it again fails, charging only the fee.
	txn.SetBlockhash(env.rt.RecentBlockhash())
	require.NoError(t, txn.Sign(env.payer, account))
	before := env.balance(t, publicKey(env.payer))

	result, err = env.rt.Process(context.Background(), txn)
	require.NoError(t, err)
	require.NotNil(t, result.Err)
	require.NotNil(t, result.Err.InstructionError())
	assert.Equal(t, system.ErrorAccountAlreadyInUse, *result.Err.InstructionError().CustomError())
	assert.Equal(t, before-2*DefaultLamportsPerSignature, env.balance(t, publicKey(env.payer)))
}

func TestProcess_TransactionErrors(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()
	ctx := context.Background()

	assertFailure := func(txn solana.Transaction, key solana.TransactionErrorKey) {
		slot := env.rt.Slot()
		result, err := env.rt.Process(ctx, txn)
		require.NoError(t, err)
		require.NotNil(t, result.Err)
		assert.Equal(t, key, result.Err.ErrorKey())
		assert.False(t, result.Committed)
		assert.Equal(t, slot, env.rt.Slot())
	}

	to := generateKey(t)
	transfer := system.Transfer(publicKey(env.payer), to, 1)

	// Unsigned
	unsigned := solana.NewTransaction(publicKey(env.payer), transfer)
	unsigned.SetBlockhash(env.rt.RecentBlockhash())
	assertFailure(unsigned, solana.TransactionErrorSignatureFailure)

	// Missing signature slots
	noSigs := env.txn(t, transfer)
	noSigs.Signatures = nil
	assertFailure(noSigs, solana.TransactionErrorSanitizeFailure)

	// Unknown blockhash
	stale := solana.NewTransaction(publicKey(env.payer), transfer)
	stale.SetBlockhash(solana.Blockhash{1})
	require.NoError(t, stale.Sign(env.payer))
	assertFailure(stale, solana.TransactionErrorBlockhashNotFound)

	// Replay
	txn := env.txn(t, transfer)
	result, err := env.rt.Process(ctx, txn)
	require.NoError(t, err)
	require.Nil(t, result.Err)
	assertFailure(txn, solana.TransactionErrorAlreadyProcessed)

	// Unknown fee payer
	unfunded := generatePrivateKey(t)
	txn = solana.NewTransaction(publicKey(unfunded), system.Transfer(publicKey(unfunded), to, 1))
	txn.SetBlockhash(env.rt.RecentBlockhash())
	require.NoError(t, txn.Sign(unfunded))
	assertFailure(txn, solana.TransactionErrorAccountNotFound)

	// Fee payer without enough funds
	_, err = env.rt.Airdrop(ctx, publicKey(unfunded), DefaultLamportsPerSignature-1)
	require.NoError(t, err)
	txn.SetBlockhash(env.rt.RecentBlockhash())
	require.NoError(t, txn.Sign(unfunded))
	assertFailure(txn, solana.TransactionErrorInsufficientFundsForFee)

	// Fee payer not owned by the system program
	require.NoError(t, env.store.Put(ctx, publicKey(unfunded), &accounts.Account{Lamports: funded, Owner: generateKey(t)}))
	assertFailure(txn, solana.TransactionErrorInvalidAccountForFee)

	// Unknown program
	assertFailure(env.txn(t, solana.NewInstruction(generateKey(t), nil)), solana.TransactionErrorProgramAccountNotFound)

	// Non-executable program
	assertFailure(env.txn(t, solana.NewInstruction(to, nil)), solana.TransactionErrorInvalidProgramForExecution)
}

func TestProcess_InstructionFailureIsAtomic(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()

	failing := env.register(t, ProgramFunc(func(ctx InvokeContext, _ []byte) error {
		ctx.Log("about to fail")
		return solana.CustomError(7)
	}))

	to := generateKey(t)
	result, err := env.rt.Process(context.Background(), env.txn(t,
		system.Transfer(publicKey(env.payer), to, 100),
		solana.NewInstruction(failing, nil),
	))
	require.NoError(t, err)
	require.NotNil(t, result.Err)
	assert.True(t, result.Committed)

	ie := result.Err.InstructionError()
	require.NotNil(t, ie)
	assert.Equal(t, 1, ie.Index)
	assert.Equal(t, solana.CustomError(7), *ie.CustomError())

	assert.Zero(t, env.balance(t, to))
	assert.EqualValues(t, funded-DefaultLamportsPerSignature, env.balance(t, publicKey(env.payer)))

	invocations, err := solana.ParseProgramLogs(result.Logs)
	require.NoError(t, err)
	require.Len(t, invocations, 2)
	assert.True(t, invocations[0].Success)
	assert.Equal(t, []string{"about to fail"}, invocations[1].Messages)
	assert.Equal(t, "custom program error: 0x7", invocations[1].Failure)

	record, err := env.rt.GetTransaction(result.Signature)
	require.NoError(t, err)
	assert.Equal(t, result.Err, record.Err)
}

func TestProcess_AccountVerification(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()
	ctx := context.Background()

	foreign := generateKey(t)
	require.NoError(t, env.store.Put(ctx, foreign, &accounts.Account{Lamports: 10, Owner: generateKey(t), Data: []byte{1}}))

	for _, tc := range []struct {
		name     string
		writable bool
		mutate   func(a *accounts.Account)
		expected solana.InstructionErrorKey
	}{
		{"data", true, func(a *accounts.Account) { a.Data[0] = 2 }, solana.InstructionErrorExternalAccountDataModified},
		{"readonly data", false, func(a *accounts.Account) { a.Data[0] = 2 }, solana.InstructionErrorReadonlyDataModified},
		{"spend", true, func(a *accounts.Account) { a.Lamports-- }, solana.InstructionErrorExternalAccountLamportSpend},
		{"readonly credit", false, func(a *accounts.Account) { a.Lamports++ }, solana.InstructionErrorReadonlyLamportChange},
		{"unbalanced", true, func(a *accounts.Account) { a.Lamports++ }, solana.InstructionErrorUnbalancedInstruction},
		{"owner", true, func(a *accounts.Account) { a.Owner = generateKey(t) }, solana.InstructionErrorModifiedProgramID},
		{"executable", true, func(a *accounts.Account) { a.Executable = true }, solana.InstructionErrorExecutableModified},
		{"size", true, func(a *accounts.Account) { a.Data = append(a.Data, 0) }, solana.InstructionErrorAccountDataSizeChanged},
	} {
		mutate := tc.mutate
		program := env.register(t, ProgramFunc(func(ctx InvokeContext, _ []byte) error {
			mutate(ctx.Accounts()[0].Account)
			return nil
		}))

		meta := solana.NewReadonlyAccountMeta(foreign, false)
		if tc.writable {
			meta = solana.NewAccountMeta(foreign, false)
		}

		result, err := env.rt.Process(ctx, env.txn(t, solana.NewInstruction(program, nil, meta)))
		require.NoError(t, err, tc.name)
		require.NotNil(t, result.Err, tc.name)
		assert.Equal(t, tc.expected, result.Err.InstructionError().ErrorKey(), tc.name)

		after, err := env.rt.GetAccount(ctx, foreign)
		require.NoError(t, err)
		assert.True(t, after.Equal(&accounts.Account{Lamports: 10, Owner: after.Owner, Data: []byte{1}}), tc.name)
	}
}

func TestProcess_OwnedAccountMutation(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()
	ctx := context.Background()

	program := env.register(t, ProgramFunc(func(ctx InvokeContext, data []byte) error {
		a := ctx.Accounts()[0].Account
		a.Data = append(a.Data, data...)
		return nil
	}))

	owned := generateKey(t)
	require.NoError(t, env.store.Put(ctx, owned, &accounts.Account{Lamports: 10, Owner: program}))

	result, err := env.rt.Process(ctx, env.txn(t, solana.NewInstruction(program, []byte("state"), solana.NewAccountMeta(owned, false))))
	require.NoError(t, err)
	require.Nil(t, result.Err)

	after, err := env.rt.GetAccount(ctx, owned)
	require.NoError(t, err)
	assert.Equal(t, []byte("state"), after.Data)
}

func TestProcess_ProgramErrors(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()

	for _, tc := range []struct {
		p        ProgramFunc
		expected solana.InstructionErrorKey
	}{
		{func(InvokeContext, []byte) error { panic("boom") }, solana.InstructionErrorProgramFailedToComplete},
		{func(InvokeContext, []byte) error { return assert.AnError }, solana.InstructionErrorGenericError},
		{func(InvokeContext, []byte) error { return solana.InstructionErrorInvalidArgument }, solana.InstructionErrorInvalidArgument},
	} {
		program := env.register(t, tc.p)

		result, err := env.rt.Process(context.Background(), env.txn(t, solana.NewInstruction(program, nil)))
		require.NoError(t, err)
		require.NotNil(t, result.Err)
		assert.Equal(t, tc.expected, result.Err.InstructionError().ErrorKey())
	}
}

func TestProcess_LogTruncation(t *testing.T) {
	env, teardown := setup(t, WithLogBytesLimit(100))
	defer teardown()

	program := env.register(t, ProgramFunc(func(ctx InvokeContext, _ []byte) error {
		for i := 0; i < 10; i++ {
			ctx.Log("%s", strings.Repeat("x", 20))
		}
		return nil
	}))

	result, err := env.rt.Process(context.Background(), env.txn(t, solana.NewInstruction(program, nil)))
	require.NoError(t, err)
	require.Nil(t, result.Err)
	assert.Equal(t, solana.LogTruncated, result.Logs[len(result.Logs)-1])

	size := 0
	for _, l := range result.Logs[:len(result.Logs)-1] {
		size += len(l)
	}
	assert.True(t, size <= 100)
}

func TestProcess_SkipSignatureVerification(t *testing.T) {
	env, teardown := setup(t, WithSkipSignatureVerification(true))
	defer teardown()

	txn := solana.NewTransaction(publicKey(env.payer), system.Transfer(publicKey(env.payer), generateKey(t), 1))
	txn.SetBlockhash(env.rt.RecentBlockhash())
	txn.Signatures[0][0] = 1

	result, err := env.rt.Process(context.Background(), txn)
	require.NoError(t, err)
	assert.Nil(t, result.Err)
}

func TestSimulate(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()

	to := generateKey(t)
	txn := solana.NewTransaction(publicKey(env.payer), system.Transfer(publicKey(env.payer), to, 100))
	txn.SetBlockhash(env.rt.RecentBlockhash())

	slot := env.rt.Slot()
	result, err := env.rt.Simulate(context.Background(), txn)
	require.NoError(t, err)
	assert.Nil(t, result.Err)
	assert.False(t, result.Committed)
	assert.Len(t, result.Logs, 2)

	assert.Zero(t, env.balance(t, to))
	assert.Equal(t, slot, env.rt.Slot())
	_, err = env.rt.GetTransaction(result.Signature)
	assert.Equal(t, ErrTransactionNotFound, err)
}

type recordingListener struct {
	sync.Mutex
	records []*TransactionRecord
}

func (l *recordingListener) OnTransaction(r *TransactionRecord) {
	l.Lock()
	defer l.Unlock()
	l.records = append(l.records, r)
}

func TestListener(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()

	l := &recordingListener{}
	env.rt.AddListener(l)

	result, err := env.rt.Process(context.Background(), env.txn(t, system.Transfer(publicKey(env.payer), generateKey(t), 1)))
	require.NoError(t, err)

	_, err = env.rt.Simulate(context.Background(), env.txn(t, system.Transfer(publicKey(env.payer), generateKey(t), 1)))
	require.NoError(t, err)

	require.Len(t, l.records, 1)
	assert.Equal(t, result.Signature, l.records[0].Signature)
}

func TestListener_CommitOrder(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()

	l := &recordingListener{}
	env.rt.AddListener(l)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		to := generateKey(t)

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.rt.Airdrop(context.Background(), to, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	l.Lock()
	defer l.Unlock()
	require.Len(t, l.records, 20)
	for i := 1; i < len(l.records); i++ {
		assert.Greater(t, l.records[i].Slot, l.records[i-1].Slot)
	}
}

func TestRegisterProgram(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()
	ctx := context.Background()

	p := ProgramFunc(func(InvokeContext, []byte) error { return nil })

	id := env.register(t, p)
	assert.Equal(t, ErrProgramRegistered, env.rt.RegisterProgram(ctx, id, p))
	assert.Equal(t, ErrProgramRegistered, env.rt.RegisterProgram(ctx, system.ProgramKey, p))
	assert.Error(t, env.rt.RegisterProgram(ctx, []byte{1}, p))

	account, err := env.rt.GetAccount(ctx, id)
	require.NoError(t, err)
	assert.True(t, account.Executable)
	assert.Equal(t, system.BPFLoaderKey, account.Owner)
}

func TestBlockhashQueue(t *testing.T) {
	genesis := solana.Blockhash{1}
	q := newBlockhashQueue(genesis)
	assert.Equal(t, genesis, q.latest())

	var hashes []solana.Blockhash
	for i := 0; i < MaxRecentBlockhashes; i++ {
		hashes = append(hashes, q.advance(solana.Signature{byte(i)}))
	}

	assert.False(t, q.contains(genesis))
	for _, h := range hashes {
		assert.True(t, q.contains(h))
	}
	assert.Equal(t, hashes[len(hashes)-1], q.latest())
	assert.Len(t, q.hashes, MaxRecentBlockhashes)
}

func TestLogCollector(t *testing.T) {
	c := newLogCollector(10)
	c.add("12345")
	c.add("12345")
	c.add("1")
	c.add("ignored")
	assert.Equal(t, []string{"12345", "12345", solana.LogTruncated}, c.get())

	c = newLogCollector(0)
	c.add(strings.Repeat("x", 100000))
	assert.Len(t, c.get(), 1)
}

func generatePrivateKey(t *testing.T) ed25519.PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return priv
}

func generateKey(t *testing.T) ed25519.PublicKey {
	return publicKey(generatePrivateKey(t))
}

func publicKey(k ed25519.PrivateKey) ed25519.PublicKey {
	return k.Public().(ed25519.PublicKey)
}
