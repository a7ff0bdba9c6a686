// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"bytes"
	"fmt"

	"github.com/near/borsh-go"

	"github.com/hivefi/counterchain/codec"
)

// CounterAccount is the decoded form of a counter buffer together with the
// ledger identity it was read from.
type CounterAccount struct {
	Address codec.Address `json:"address"`
	Owner   codec.Address `json:"owner"`
	Count   uint64        `json:"count"`
}

// counterBody is the borsh payload that follows the discriminator.
type counterBody struct {
	Count uint64
}

// Encode returns the fixed-size buffer for [c].
func (c *CounterAccount) Encode() []byte {
	return EncodeCounter(c.Count)
}

// EncodeCounter lays out a counter buffer holding [count].
func EncodeCounter(count uint64) []byte {
	body, err := borsh.Serialize(counterBody{Count: count})
	if err != nil {
		// A struct holding one u64 always serializes.
		panic(err)
	}
	buf := make([]byte, 0, CounterAccountSize)
	buf = append(buf, CounterDiscriminator[:]...)
	return append(buf, body...)
}

// Decode parses a counter buffer. Only the count is populated; callers that
// know where the buffer lives should use [FromView].
func Decode(buf []byte) (*CounterAccount, error) {
	if len(buf) < CounterAccountSize {
		return nil, fmt.Errorf("%w: expected %d bytes but got %d", ErrMalformedAccount, CounterAccountSize, len(buf))
	}
	if !bytes.Equal(buf[:DiscriminatorLen], CounterDiscriminator[:]) {
		return nil, fmt.Errorf("%w: discriminator mismatch", ErrMalformedAccount)
	}
	var body counterBody
	if err := borsh.Deserialize(&body, buf[DiscriminatorLen:CounterAccountSize]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedAccount, err)
	}
	return &CounterAccount{Count: body.Count}, nil
}

// FromView decodes the counter stored in [view].
func FromView(view *AccountView) (*CounterAccount, error) {
	acct, err := Decode(view.Data)
	if err != nil {
		return nil, err
	}
	acct.Address = view.Address
	acct.Owner = view.Owner
	return acct, nil
}

// State is the lifecycle position of a counter address.
type State uint8

const (
	Closed State = iota
	Uninitialized
	Active
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	default:
		return "closed"
	}
}

// AccountView is what the runtime hands the program: the buffer plus the
// metadata the ledger keeps beside it.
type AccountView struct {
	Address  codec.Address `json:"address"`
	Owner    codec.Address `json:"owner"`
	Payer    codec.Address `json:"payer"`
	Lamports uint64        `json:"lamports"`
	Data     []byte        `json:"data"`
}

// Clone returns a deep copy so the program never aliases runtime memory.
func (a *AccountView) Clone() *AccountView {
	if a == nil {
		return nil
	}
	c := *a
	c.Data = bytes.Clone(a.Data)
	return &c
}

// State derives the lifecycle state from the buffer alone. A nil view is an
// address that holds no record.
func (a *AccountView) State() State {
	if a == nil || len(a.Data) == 0 {
		return Closed
	}
	var zero Discriminator
	if bytes.Equal(a.Data[:min(len(a.Data), DiscriminatorLen)], zero[:min(len(a.Data), DiscriminatorLen)]) {
		return Uninitialized
	}
	return Active
}
