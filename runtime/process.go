package runtime

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rentchain/rentchain-go/metrics"
	"github.com/rentchain/rentchain-go/runtime/accounts"
	"github.com/rentchain/rentchain-go/solana"
	"github.com/rentchain/rentchain-go/solana/system"
)

// Process executes txn and commits its effects.
//
// Transaction level failures that occur before the fee is charged leave the
// ledger untouched. Once the fee is charged the transaction is committed: if
// an instruction fails, only the fee is deducted from the fee payer.
//
// The returned error is only set if the runtime itself failed, such as when
// the account store is unavailable.
func (r *Runtime) Process(ctx context.Context, txn solana.Transaction) (*Result, error) {
	tc := r.timer.Time()

	r.mu.Lock()
	result, record, err := r.execute(ctx, txn, false)
	if record != nil {
		// Notified under the lock so listeners observe commit order.
		for _, l := range r.listeners {
			l.OnTransaction(record)
		}
	}
	r.mu.Unlock()

	if err != nil {
		tc.Stop(metrics.WithResultTag("error"))
		return nil, err
	}

	if result.Err != nil {
		transactionCounterVec.WithLabelValues("failure").Inc()
		tc.Stop(metrics.WithResultTag("failure"))
	} else {
		transactionCounterVec.WithLabelValues("success").Inc()
		tc.Stop(metrics.WithResultTag("success"))
	}

	return result, nil
}

// Simulate executes txn without verifying signatures and without committing
// any effects.
func (r *Runtime) Simulate(ctx context.Context, txn solana.Transaction) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, _, err := r.execute(ctx, txn, true)
	return result, err
}

// execute runs the transaction pipeline. r.mu must be held.
func (r *Runtime) execute(ctx context.Context, txn solana.Transaction, simulate bool) (*Result, *TransactionRecord, error) {
	result := &Result{
		Signature: txn.Signature(),
		Slot:      r.slot,
	}
	fail := func(key solana.TransactionErrorKey) (*Result, *TransactionRecord, error) {
		result.Err = solana.NewTransactionError(key)
		return result, nil, nil
	}

	m := txn.Message

	if err := sanitize(txn); err != nil {
		r.log.WithError(err).Debug("Transaction failed sanitization")
		return fail(solana.TransactionErrorSanitizeFailure)
	}
	if !r.blockhashes.contains(m.RecentBlockhash) {
		return fail(solana.TransactionErrorBlockhashNotFound)
	}
	if !simulate {
		if !r.opts.skipSigVerify && !txn.VerifySignatures() {
			return fail(solana.TransactionErrorSignatureFailure)
		}
		if _, ok := r.records.GetIfPresent(result.Signature); ok {
			return fail(solana.TransactionErrorAlreadyProcessed)
		}
	}

	loaded := make([]*accounts.Account, len(m.Accounts))
	for i, key := range m.Accounts {
		a, err := r.store.Get(ctx, key)
		if err == accounts.ErrAccountNotFound {
			if i == 0 {
				return fail(solana.TransactionErrorAccountNotFound)
			}
			a = &accounts.Account{Owner: system.ProgramKey}
		} else if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to load account %s", base58.Encode(key))
		}

		loaded[i] = a
	}

	for _, instr := range m.Instructions {
		program := loaded[instr.ProgramIndex]
		if program.Lamports == 0 {
			return fail(solana.TransactionErrorProgramAccountNotFound)
		}
		if !program.Executable {
			return fail(solana.TransactionErrorInvalidProgramForExecution)
		}
	}

	fee := r.opts.lamportsPerSignature * uint64(m.Header.NumSignatures)
	payer := loaded[0]
	if !bytes.Equal(payer.Owner, system.ProgramKey) || len(payer.Data) > 0 {
		return fail(solana.TransactionErrorInvalidAccountForFee)
	}
	if payer.Lamports < fee {
		return fail(solana.TransactionErrorInsufficientFundsForFee)
	}

	feePayer := payer.Clone()
	feePayer.Lamports -= fee
	loaded[0].Lamports -= fee
	result.Fee = fee

	logs := newLogCollector(r.opts.logBytesLimit)
	for i, instr := range m.Instructions {
		if err := r.executeInstruction(m, instr, loaded, logs); err != nil {
			result.Err = solana.NewInstructionTransactionError(i, err)
			break
		}
	}
	result.Logs = logs.get()

	if simulate {
		return result, nil, nil
	}

	updates := []accounts.Update{{Address: m.Accounts[0], Account: feePayer}}
	if result.Err == nil {
		updates = updates[:0]
		for i := range m.Accounts {
			if m.IsWritable(i) {
				updates = append(updates, accounts.Update{Address: m.Accounts[i], Account: loaded[i]})
			}
		}
	}

	if err := r.store.Commit(ctx, updates); err != nil {
		return nil, nil, errors.Wrap(err, "failed to commit transaction")
	}

	record := &TransactionRecord{
		Signature:   result.Signature,
		Slot:        r.slot,
		Transaction: txn,
		Err:         result.Err,
		Fee:         fee,
		Logs:        result.Logs,
	}
	r.records.Put(result.Signature, record)
	result.Committed = true

	r.slot++
	r.blockhashes.advance(result.Signature)

	r.log.WithFields(logrus.Fields{
		"signature": result.Signature.String(),
		"slot":      record.Slot,
		"failed":    result.Err != nil,
	}).Debug("Processed transaction")

	return result, record, nil
}

// executeInstruction invokes a single instruction against the working set of
// accounts. The working set is only modified if the instruction succeeds.
func (r *Runtime) executeInstruction(m solana.Message, instr solana.CompiledInstruction, loaded []*accounts.Account, logs *logCollector) (err error) {
	programID := m.Accounts[instr.ProgramIndex]
	programLabel := base58.Encode(programID)

	logs.add(solana.InvokeLog(programID, 1))
	defer func() {
		if err != nil {
			logs.add(solana.FailedLog(programID, err))
			instructionCounterVec.WithLabelValues(programLabel, "failure").Inc()
		} else {
			logs.add(solana.SuccessLog(programID))
			instructionCounterVec.WithLabelValues(programLabel, "success").Inc()
		}
	}()

	program, ok := r.programs[string(programID)]
	if !ok {
		return solana.InstructionErrorUnsupportedProgramID
	}

	// Each referenced account gets a single working copy, shared between
	// duplicate references.
	pre := make(map[byte]*accounts.Account)
	working := make(map[byte]*accounts.Account)
	infos := make([]*AccountInfo, len(instr.Accounts))
	for i, index := range instr.Accounts {
		if _, ok := working[index]; !ok {
			pre[index] = loaded[index]
			working[index] = loaded[index].Clone()
		}

		infos[i] = &AccountInfo{
			Key:        m.Accounts[index],
			IsSigner:   m.IsSigner(int(index)),
			IsWritable: m.IsWritable(int(index)),
			Account:    working[index],
		}
	}

	ctx := &invokeContext{
		program:  programID,
		accounts: infos,
		logs:     logs,
	}

	if err := invoke(program, ctx, instr.Data); err != nil {
		return normalizeError(err)
	}

	if err := verify(programID, m, pre, working); err != nil {
		return err
	}

	for index, a := range working {
		loaded[index] = a
	}

	return nil
}

func invoke(p Program, ctx InvokeContext, data []byte) (err error) {
	defer func() {
		if v := recover(); v != nil {
			logrus.StandardLogger().WithFields(logrus.Fields{
				"type":    "runtime",
				"program": base58.Encode(ctx.ProgramID()),
				"panic":   fmt.Sprint(v),
			}).Warn("Program panicked")
			err = solana.InstructionErrorProgramFailedToComplete
		}
	}()

	return p.Process(ctx, data)
}

func normalizeError(err error) error {
	switch e := errors.Cause(err).(type) {
	case solana.CustomError:
		return e
	case solana.InstructionErrorKey:
		return e
	default:
		return solana.InstructionErrorGenericError
	}
}

// verify checks the changes an instruction made to its accounts.
//
// Reference: https://github.com/solana-labs/solana/blob/v1.9.5/program-runtime/src/pre_account.rs
func verify(program ed25519.PublicKey, m solana.Message, pre, post map[byte]*accounts.Account) error {
	var preTotal, postTotal uint64

	for index, before := range pre {
		after := post[index]
		writable := m.IsWritable(int(index))
		owned := bytes.Equal(before.Owner, program)

		if !bytes.Equal(before.Owner, after.Owner) {
			if !writable || !owned || before.Executable {
				return solana.InstructionErrorModifiedProgramID
			}
		}

		if after.Lamports < before.Lamports && !owned {
			return solana.InstructionErrorExternalAccountLamportSpend
		}
		if after.Lamports != before.Lamports && !writable {
			return solana.InstructionErrorReadonlyLamportChange
		}

		if len(after.Data) != len(before.Data) && !(writable && owned) {
			return solana.InstructionErrorAccountDataSizeChanged
		}
		if !bytes.Equal(after.Data, before.Data) {
			if !writable {
				return solana.InstructionErrorReadonlyDataModified
			}
			if !owned || before.Executable {
				return solana.InstructionErrorExternalAccountDataModified
			}
		}

		if after.Executable != before.Executable {
			return solana.InstructionErrorExecutableModified
		}

		preTotal += before.Lamports
		postTotal += after.Lamports
	}

	if preTotal != postTotal {
		return solana.InstructionErrorUnbalancedInstruction
	}

	return nil
}

// sanitize checks the structural validity of a transaction.
func sanitize(txn solana.Transaction) error {
	m := txn.Message
	h := m.Header

	if h.NumSignatures == 0 {
		return errors.New("no signatures required")
	}
	if len(txn.Signatures) != int(h.NumSignatures) {
		return errors.Errorf("signature count mismatch: %d != %d", len(txn.Signatures), h.NumSignatures)
	}
	if h.NumReadonlySigned >= h.NumSignatures {
		return errors.New("fee payer must be writable")
	}
	if int(h.NumSignatures)+int(h.NumReadonly) > len(m.Accounts) {
		return errors.New("header exceeds account count")
	}

	seen := make(map[string]struct{}, len(m.Accounts))
	for _, k := range m.Accounts {
		if len(k) != ed25519.PublicKeySize {
			return errors.Errorf("invalid account key size: %d", len(k))
		}
		if _, ok := seen[string(k)]; ok {
			return errors.Errorf("duplicate account key: %s", base58.Encode(k))
		}
		seen[string(k)] = struct{}{}
	}

	for i, instr := range m.Instructions {
		if instr.ProgramIndex == 0 || int(instr.ProgramIndex) >= len(m.Accounts) {
			return errors.Errorf("invalid program index in instruction %d", i)
		}
		for _, index := range instr.Accounts {
			if int(index) >= len(m.Accounts) {
				return errors.Errorf("invalid account index in instruction %d", i)
			}
		}
	}

	return nil
}
