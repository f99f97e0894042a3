package commands

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentchain/rentchain-go/rentchain"
	"github.com/rentchain/rentchain-go/rpc"
	"github.com/rentchain/rentchain-go/runtime"
	"github.com/rentchain/rentchain-go/runtime/accounts/memory"
	"github.com/rentchain/rentchain-go/solana"
	"github.com/rentchain/rentchain-go/testutil"
)

type testEnv struct {
	rt      *runtime.Runtime
	url     string
	dir     string
	keypair string
	payer   ed25519.PrivateKey
}

func setup(t *testing.T, opts ...runtime.Option) (env testEnv, teardown func()) {
	ctx := context.Background()

	rt, err := runtime.New(ctx, memory.New(), opts...)
	require.NoError(t, err)
	require.NoError(t, rt.RegisterProgram(ctx, rentchain.ProgramKey, rentchain.NewProcessor(rentchain.ProgramKey)))
	env.rt = rt

	server := rpc.New(rt)
	url, serv, err := testutil.NewServer()
	require.NoError(t, err)
	serv.RegisterHandlers(server.Register)
	stopFunc, err := serv.Serve()
	require.NoError(t, err)
	env.url = url

	env.dir, err = ioutil.TempDir("", "rentchain-cli")
	require.NoError(t, err)

	_, env.payer, err = ed25519.GenerateKey(nil)
	require.NoError(t, err)
	b, err := solana.MarshalKeypair(env.payer)
	require.NoError(t, err)
	env.keypair = filepath.Join(env.dir, "id.json")
	require.NoError(t, ioutil.WriteFile(env.keypair, b, 0600))

	return env, func() {
		stopFunc()
		server.Close()
		rt.Close()
		os.RemoveAll(env.dir)
	}
}

func (e testEnv) run(args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--url", e.url, "--keypair", e.keypair}, args...))

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestInitialize(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()

	payer := env.payer.Public().(ed25519.PublicKey)

	for i := 0; i < 2; i++ {
		out, _, err := env.run("initialize")
		require.NoError(t, err)

		assert.Contains(t, out, "Signature: ")
		assert.Contains(t, out, "Program "+rentchain.ProgramAddress+":\n  Instruction: Initialize\n  Greetings from: "+rentchain.ProgramAddress+"\n")
	}

	// Funded once, then charged one fee per transaction.
	balance, err := env.rt.GetBalance(context.Background(), payer)
	require.NoError(t, err)
	assert.EqualValues(t, 1000000000-2*runtime.DefaultLamportsPerSignature, balance)
}

func TestInitialize_ValidatorFee(t *testing.T) {
	env, teardown := setup(t, runtime.WithLamportsPerSignature(10000))
	defer teardown()

	// Enough for a default fee, but not for this validator's.
	payer := env.payer.Public().(ed25519.PublicKey)
	_, err := env.rt.Airdrop(context.Background(), payer, 7000)
	require.NoError(t, err)

	out, _, err := env.run("initialize")
	require.NoError(t, err)
	assert.Contains(t, out, "Greetings from: "+rentchain.ProgramAddress)

	balance, err := env.rt.GetBalance(context.Background(), payer)
	require.NoError(t, err)
	assert.EqualValues(t, 7000+1000000000-10000, balance)
}

func TestInitialize_NoAirdrop(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()

	_, _, err := env.run("initialize", "--airdrop", "0")
	require.Error(t, err)
}

func TestInitialize_WrongProgram(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()

	_, err := env.rt.Airdrop(context.Background(), env.payer.Public().(ed25519.PublicKey), 1000000000)
	require.NoError(t, err)

	_, _, err = env.run("initialize", "--program-id", base58.Encode(make([]byte, 32)))
	require.Error(t, err)

	_, _, err = env.run("initialize", "--program-id", "invalid")
	require.Error(t, err)
}

func TestSimulate(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()

	payer := env.payer.Public().(ed25519.PublicKey)
	_, err := env.rt.Airdrop(context.Background(), payer, 1000000000)
	require.NoError(t, err)

	out, _, err := env.run("simulate")
	require.NoError(t, err)
	assert.Contains(t, out, "Program log: Greetings from: "+rentchain.ProgramAddress)
	assert.Contains(t, out, "Simulation succeeded")

	balance, err := env.rt.GetBalance(context.Background(), payer)
	require.NoError(t, err)
	assert.EqualValues(t, 1000000000, balance)
}

func TestAddress(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()

	wallet := env.payer.Public().(ed25519.PublicKey)

	out, _, err := env.run("address", rentchain.UserSeed, "key:"+base58.Encode(wallet))
	require.NoError(t, err)

	expected, bump, err := solana.FindProgramAddressAndBump(rentchain.ProgramKey, []byte(rentchain.UserSeed), wallet)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%s %d\n", base58.Encode(expected), bump), out)

	user, err := rentchain.UserAddress(rentchain.ProgramKey, wallet)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, base58.Encode(user)))

	_, _, err = env.run("address")
	assert.Error(t, err)

	_, _, err = env.run("address", "key:0OIl")
	assert.Error(t, err)
}

func TestIDL(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()

	out, _, err := env.run("idl")
	require.NoError(t, err)
	assert.Equal(t, rentchain.IDL+"\n", out)
}

func TestKeygen(t *testing.T) {
	env, teardown := setup(t)
	defer teardown()

	out, stderr, err := env.run("keygen")
	require.NoError(t, err)

	key, err := solana.ParseKeypair([]byte(strings.TrimSpace(out)))
	require.NoError(t, err)
	assert.Contains(t, stderr, base58.Encode(key.Public().(ed25519.PublicKey)))

	path := filepath.Join(env.dir, "new.json")
	out, _, err = env.run("keygen", "--outfile", path)
	require.NoError(t, err)

	b, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	key, err = solana.ParseKeypair(b)
	require.NoError(t, err)
	assert.Contains(t, out, base58.Encode(key.Public().(ed25519.PublicKey)))

	_, _, err = env.run("keygen", "--outfile", path)
	assert.Error(t, err)

	_, _, err = env.run("keygen", "--outfile", path, "--force")
	assert.NoError(t, err)
}
