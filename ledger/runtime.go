// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"fmt"

	"github.com/hivefi/counterchain/chain"
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/program"
	"github.com/hivefi/counterchain/state"
	"github.com/hivefi/counterchain/storage"
)

// invocation is a transaction resolved against the runtime: the decoded
// program instruction and the accounts it names.
type invocation struct {
	tx      *chain.Transaction
	ix      program.Instruction
	counter codec.Address
	payer   codec.Address
}

// resolve performs the checks the runtime owns before the program sees the
// instruction: the target program, the account list, and the signer and
// writability flags.
func (l *Ledger) resolve(tx *chain.Transaction) (*invocation, error) {
	cix := tx.Instruction
	if cix.ProgramID != l.cfg.ProgramID {
		return nil, fmt.Errorf("%w: %s", chain.ErrUnknownProgram, cix.ProgramID)
	}
	ix, err := program.ParseInstruction(cix.Data)
	if err != nil {
		return nil, err
	}
	counter, ok := cix.Account(program.CounterAccountIndex)
	if !ok {
		return nil, fmt.Errorf("%w: counter", chain.ErrMissingAccount)
	}
	if !counter.IsWritable {
		return nil, fmt.Errorf("%w: counter", chain.ErrReadonlyAccount)
	}
	inv := &invocation{tx: tx, ix: ix, counter: counter.Address}

	// A new record must sign so nobody can initialize an address they do
	// not hold the key for.
	if _, ok := ix.(program.Initialize); ok && !counter.IsSigner {
		return nil, fmt.Errorf("%w: counter", chain.ErrMissingSignature)
	}
	if ix.RequiresPayer() {
		payer, ok := cix.Account(program.PayerAccountIndex)
		if !ok {
			return nil, fmt.Errorf("%w: payer", chain.ErrMissingAccount)
		}
		if !payer.IsSigner {
			return nil, fmt.Errorf("%w: payer", chain.ErrMissingSignature)
		}
		if !payer.IsWritable {
			return nil, fmt.Errorf("%w: payer", chain.ErrReadonlyAccount)
		}
		if payer.Address == counter.Address {
			return nil, fmt.Errorf("%w: payer and counter must differ", chain.ErrAccountInUse)
		}
		inv.payer = payer.Address
	}
	return inv, nil
}

// stateKeys lists every key [inv] may touch. It doubles as the conflict
// set handed to the executor and the lock set taken before execution.
func (l *Ledger) stateKeys(inv *invocation) state.Keys {
	keys := state.Keys{}
	keys.Add(string(storage.AccountKey(inv.counter)), state.All)
	if inv.payer != codec.EmptyAddress {
		keys.Add(string(storage.AccountKey(inv.payer)), state.All)
	}
	switch inv.ix.(type) {
	case program.Initialize, program.Close:
		keys.Add(string(storage.ProgramIndexKey(l.cfg.ProgramID)), state.All)
	}
	return keys
}

// execute runs [inv] against [mu]. Nothing is written to [mu] unless the
// whole instruction succeeds.
func (l *Ledger) execute(ctx context.Context, mu state.Mutable, inv *invocation, keys state.Keys) error {
	overlay := state.NewOverlay(mu, keys)

	acct, exists, err := storage.GetAccount(ctx, overlay, inv.counter)
	if err != nil {
		return err
	}
	before, err := l.lamports(ctx, overlay, inv)
	if err != nil {
		return err
	}

	created := false
	if _, ok := inv.ix.(program.Initialize); ok {
		switch {
		case !exists:
			acct, err = l.allocate(ctx, overlay, inv)
			if err != nil {
				return err
			}
			created = true
		case acct.Owner != l.cfg.ProgramID:
			return fmt.Errorf("%w: %s", chain.ErrAccountInUse, inv.counter)
		}
	}

	pctx := program.Context{ProgramID: l.cfg.ProgramID, Payer: inv.payer}
	res, err := program.Process(pctx, acct, inv.ix)
	if err != nil {
		return err
	}

	if res.Account == nil {
		if err := storage.DeleteAccount(ctx, overlay, inv.counter); err != nil {
			return err
		}
		if err := storage.RemoveProgramAccount(ctx, overlay, l.cfg.ProgramID, inv.counter); err != nil {
			return err
		}
		if _, err := storage.AddBalance(ctx, overlay, inv.payer, res.Reclaimed); err != nil {
			return err
		}
	} else {
		if err := storage.SetAccount(ctx, overlay, res.Account); err != nil {
			return err
		}
		if created {
			if err := storage.AddProgramAccount(ctx, overlay, l.cfg.ProgramID, inv.counter); err != nil {
				return err
			}
		}
	}

	after, err := l.lamports(ctx, overlay, inv)
	if err != nil {
		return err
	}
	if before != after {
		return fmt.Errorf("%w: %d before and %d after", chain.ErrUnbalancedLamports, before, after)
	}
	return overlay.Commit(ctx, mu)
}

// allocate is the system create-account step of initialize: it moves the
// rent-exempt minimum from the payer into a zeroed buffer owned by the
// program.
func (l *Ledger) allocate(ctx context.Context, mu state.Mutable, inv *invocation) (*program.AccountView, error) {
	rent := l.cfg.RentExemptMinimum(program.CounterAccountSize)
	bal, err := storage.GetBalance(ctx, mu, inv.payer)
	if err != nil {
		return nil, err
	}
	if bal < rent {
		return nil, fmt.Errorf("%w: need %d lamports but payer holds %d", chain.ErrInsufficientFunds, rent, bal)
	}
	if _, err := storage.SubBalance(ctx, mu, inv.payer, rent); err != nil {
		return nil, err
	}
	acct := &program.AccountView{
		Address:  inv.counter,
		Owner:    l.cfg.ProgramID,
		Payer:    inv.payer,
		Lamports: rent,
		Data:     make([]byte, program.CounterAccountSize),
	}
	return acct, storage.SetAccount(ctx, mu, acct)
}

// lamports sums the balances of every account [inv] touches.
func (l *Ledger) lamports(ctx context.Context, im state.Immutable, inv *invocation) (uint64, error) {
	total, err := storage.GetBalance(ctx, im, inv.counter)
	if err != nil {
		return 0, err
	}
	if inv.payer == codec.EmptyAddress {
		return total, nil
	}
	bal, err := storage.GetBalance(ctx, im, inv.payer)
	if err != nil {
		return 0, err
	}
	return total + bal, nil
}
