// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/set"

	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/consts"
	"github.com/hivefi/counterchain/crypto/ed25519"
)

const (
	MaxSigners = 8

	baseSize      = consts.IDLen + consts.Int64Len + consts.Uint64Len + codec.AddressLen
	signatureSize = codec.AddressLen + ed25519.SignatureLen
)

// Base is the metadata every transaction carries regardless of its
// instruction.
type Base struct {
	// ChainID protects against replay on another network.
	ChainID ids.ID `json:"chainId"`

	// Expiry is the unix millisecond timestamp after which the transaction
	// can no longer be included.
	Expiry int64 `json:"expiry"`

	// Nonce distinguishes otherwise identical transactions so that a
	// resubmitted intent gets a fresh ID.
	Nonce uint64 `json:"nonce"`

	// FeePayer always signs. Fees are not charged but the signature
	// authorizes the transaction.
	FeePayer codec.Address `json:"feePayer"`
}

func (b *Base) Marshal(p *codec.Packer) {
	p.PackID(b.ChainID)
	p.PackInt64(b.Expiry)
	p.PackUint64(b.Nonce)
	p.PackAddress(b.FeePayer)
}

func UnmarshalBase(p *codec.Packer) (*Base, error) {
	var base Base
	p.UnpackID(true, &base.ChainID)
	base.Expiry = p.UnpackInt64(true)
	base.Nonce = p.UnpackUint64(false)
	p.UnpackAddress(true, &base.FeePayer)
	return &base, p.Err()
}

type Signature struct {
	Signer codec.Address     `json:"signer"`
	Value  ed25519.Signature `json:"value"`
}

// Transaction carries exactly one instruction.
type Transaction struct {
	Base        *Base        `json:"base"`
	Instruction *Instruction `json:"instruction"`
	Signatures  []Signature  `json:"signatures"`

	digest []byte
	bytes  []byte
	size   int
	id     ids.ID
}

func NewTx(base *Base, ix *Instruction) *Transaction {
	return &Transaction{
		Base:        base,
		Instruction: ix,
	}
}

// Signers returns every address that must sign: the fee payer first, then
// each signer account of the instruction in order, without duplicates.
func (t *Transaction) Signers() []codec.Address {
	seen := set.NewSet[codec.Address](1 + len(t.Instruction.Accounts))
	signers := []codec.Address{t.Base.FeePayer}
	seen.Add(t.Base.FeePayer)
	for _, meta := range t.Instruction.Accounts {
		if !meta.IsSigner || seen.Contains(meta.Address) {
			continue
		}
		seen.Add(meta.Address)
		signers = append(signers, meta.Address)
	}
	return signers
}

// Digest is the message every signer signs.
func (t *Transaction) Digest() ([]byte, error) {
	if len(t.digest) > 0 {
		return t.digest, nil
	}
	p := codec.NewWriter(baseSize+t.Instruction.Size(), consts.NetworkSizeLimit)
	t.Base.Marshal(p)
	t.Instruction.Marshal(p)
	return p.Bytes(), p.Err()
}

// Sign attaches one signature per required signer using [keys] and returns
// the transaction reloaded from its canonical bytes.
func (t *Transaction) Sign(keys ...ed25519.PrivateKey) (*Transaction, error) {
	msg, err := t.Digest()
	if err != nil {
		return nil, err
	}
	byAddr := make(map[codec.Address]ed25519.PrivateKey, len(keys))
	for _, k := range keys {
		byAddr[k.Address()] = k
	}
	signers := t.Signers()
	if len(signers) > MaxSigners {
		return nil, ErrTooManySigners
	}
	t.Signatures = make([]Signature, len(signers))
	for i, signer := range signers {
		k, ok := byAddr[signer]
		if !ok {
			return nil, ErrMissingSigner
		}
		t.Signatures[i] = Signature{
			Signer: signer,
			Value:  ed25519.Sign(msg, k),
		}
	}

	// Ensure transaction is fully initialized and correct by reloading it from
	// bytes
	p := codec.NewWriter(len(msg)+consts.ByteLen+len(signers)*signatureSize, consts.NetworkSizeLimit)
	if err := t.Marshal(p); err != nil {
		return nil, err
	}
	return UnmarshalTx(codec.NewReader(p.Bytes(), consts.NetworkSizeLimit))
}

// Verify checks that every required signer produced a valid signature over
// the digest, and that no extra signatures are attached.
func (t *Transaction) Verify() error {
	if len(t.Signatures) == 0 {
		return ErrNotSigned
	}
	signers := t.Signers()
	if len(signers) != len(t.Signatures) {
		return ErrInvalidSignature
	}
	msg, err := t.Digest()
	if err != nil {
		return err
	}
	if len(signers) >= ed25519.MinBatchSize {
		batch := ed25519.NewBatch(len(signers))
		for i, signer := range signers {
			if t.Signatures[i].Signer != signer {
				return ErrInvalidSignature
			}
			batch.Add(msg, ed25519.PublicKey(signer), t.Signatures[i].Value)
		}
		if !batch.Verify() {
			return ErrInvalidSignature
		}
		return nil
	}
	for i, signer := range signers {
		sig := t.Signatures[i]
		if sig.Signer != signer || !ed25519.Verify(msg, ed25519.PublicKey(signer), sig.Value) {
			return ErrInvalidSignature
		}
	}
	return nil
}

// IsSigner reports whether [addr] signed the transaction.
func (t *Transaction) IsSigner(addr codec.Address) bool {
	for _, sig := range t.Signatures {
		if sig.Signer == addr {
			return true
		}
	}
	return false
}

func (t *Transaction) Bytes() []byte { return t.bytes }

func (t *Transaction) Size() int { return t.size }

func (t *Transaction) ID() ids.ID { return t.id }

func (t *Transaction) Expiry() int64 { return t.Base.Expiry }

func (t *Transaction) Marshal(p *codec.Packer) error {
	if len(t.bytes) > 0 {
		p.PackFixedBytes(t.bytes)
		return p.Err()
	}
	t.Base.Marshal(p)
	t.Instruction.Marshal(p)
	p.PackByte(byte(len(t.Signatures)))
	for _, sig := range t.Signatures {
		p.PackAddress(sig.Signer)
		p.PackFixedBytes(sig.Value[:])
	}
	return p.Err()
}

func UnmarshalTx(p *codec.Packer) (*Transaction, error) {
	start := p.Offset()
	base, err := UnmarshalBase(p)
	if err != nil {
		return nil, err
	}
	ix, err := UnmarshalInstruction(p)
	if err != nil {
		return nil, err
	}
	digest := p.Offset()
	n := int(p.UnpackByte())
	if n > MaxSigners {
		return nil, ErrTooManySigners
	}
	sigs := make([]Signature, n)
	for i := range sigs {
		p.UnpackAddress(true, &sigs[i].Signer)
		b := make([]byte, ed25519.SignatureLen)
		p.UnpackFixedBytes(ed25519.SignatureLen, &b)
		copy(sigs[i].Value[:], b)
	}
	if err := p.Err(); err != nil {
		return nil, err
	}

	tx := NewTx(base, ix)
	tx.Signatures = sigs
	codecBytes := p.Bytes()
	tx.digest = codecBytes[start:digest]
	tx.bytes = codecBytes[start:p.Offset()]
	tx.size = len(tx.bytes)
	tx.id = hashing.ComputeHash256Array(tx.bytes)
	return tx, nil
}

// ParseTx decodes a standalone transaction and rejects trailing bytes.
func ParseTx(b []byte) (*Transaction, error) {
	p := codec.NewReader(b, consts.NetworkSizeLimit)
	tx, err := UnmarshalTx(p)
	if err != nil {
		return nil, err
	}
	if !p.Empty() {
		return nil, ErrUnexpectedBytes
	}
	return tx, nil
}
