/*
   Copyright 2024 Erigon contributors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package types

import (
	"github.com/holiman/uint256"

	"github.com/ledgerwatch/blockfile/common"
	"github.com/ledgerwatch/blockfile/rlp"
)

// TxLegacy is the legacy transaction payload.
type TxLegacy struct {
	AccountNonce uint64
	GasPrice     uint256.Int // up to 128 bits on the wire
	GasLimit     uint64
	To           *common.Address // nil means contract creation
	Value        uint256.Int
	Input        []byte
	V, R, S      uint256.Int
}

// TxMeta is the derived metadata the file format stores next to each
// transaction payload.
type TxMeta struct {
	BlockNumber   uint256.Int
	Timestamp     uint64
	MessageSender common.Address
	Rest          []byte // residual trailing bytes, kept opaque
}

// Transaction is one transaction record of a block body: the legacy payload,
// its metadata, and the precomputed hash/size/sender the writer cached.
type Transaction struct {
	Data TxLegacy
	Meta TxMeta
	Hash common.Hash
	Size uint32
	From common.Address
}

var txLegacySchema = &rlp.Schema[TxLegacy]{
	Name: "TxLegacy",
	Fields: []rlp.Field[TxLegacy]{
		rlp.Uint64("account_nonce", 64, func(t *TxLegacy, v uint64) { t.AccountNonce = v }),
		rlp.Uint("gas_price", 128, func(t *TxLegacy, x *uint256.Int) { t.GasPrice = *x }),
		rlp.Uint64("gas_limit", 64, func(t *TxLegacy, v uint64) { t.GasLimit = v }),
		rlp.Bytes("to", func(t *TxLegacy, b []byte) error {
			// empty marks contract creation, anything else must be an address
			switch len(b) {
			case 0:
				t.To = nil
			case 20:
				a := common.BytesToAddress(b)
				t.To = &a
			default:
				return &rlp.FixedSizeError{Field: "to", Expected: 20, Got: len(b)}
			}
			return nil
		}),
		rlp.Uint("value", 256, func(t *TxLegacy, x *uint256.Int) { t.Value = *x }),
		rlp.Bytes("input", func(t *TxLegacy, b []byte) error { t.Input = common.CopyBytes(b); return nil }),
		rlp.Uint("v", 256, func(t *TxLegacy, x *uint256.Int) { t.V = *x }),
		rlp.Uint("r", 256, func(t *TxLegacy, x *uint256.Int) { t.R = *x }),
		rlp.Uint("s", 256, func(t *TxLegacy, x *uint256.Int) { t.S = *x }),
	},
}

var txMetaSchema = &rlp.Schema[TxMeta]{
	Name: "TxMeta",
	Fields: []rlp.Field[TxMeta]{
		rlp.Uint("block_number", 256, func(m *TxMeta, x *uint256.Int) { m.BlockNumber = *x }),
		rlp.Uint64("timestamp", 64, func(m *TxMeta, v uint64) { m.Timestamp = v }),
		rlp.FixedBytes("message_sender", 20, func(m *TxMeta, b []byte) { copy(m.MessageSender[:], b) }),
		rlp.Bytes("rest", func(m *TxMeta, b []byte) error { m.Rest = common.CopyBytes(b); return nil }),
	},
}

var txSchema = &rlp.Schema[Transaction]{
	Name: "Transaction",
	Fields: []rlp.Field[Transaction]{
		rlp.Nested("data", txLegacySchema, func(t *Transaction, d *TxLegacy) { t.Data = *d }),
		rlp.Nested("meta", txMetaSchema, func(t *Transaction, m *TxMeta) { t.Meta = *m }),
		rlp.FixedBytes("hash", 32, func(t *Transaction, b []byte) { copy(t.Hash[:], b) }),
		rlp.Uint64("size", 32, func(t *Transaction, v uint64) { t.Size = uint32(v) }),
		rlp.FixedBytes("from", 20, func(t *Transaction, b []byte) { copy(t.From[:], b) }),
	},
}

// DecodeTransaction maps a decoded RLP item onto a Transaction.
func DecodeTransaction(it rlp.Item, policy rlp.TrailingPolicy) (*Transaction, error) {
	txn := new(Transaction)
	if err := rlp.Map(txSchema, it, policy, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// IsContractCreation reports whether the transaction has no recipient.
func (t *TxLegacy) IsContractCreation() bool { return t.To == nil }

func (t *TxLegacy) payloadSize() int {
	size := rlp.U64Len(t.AccountNonce)
	size += rlp.U256Len(&t.GasPrice)
	size += rlp.U64Len(t.GasLimit)
	if t.To != nil {
		size += 21
	} else {
		size++
	}
	size += rlp.U256Len(&t.Value)
	size += rlp.StringLen(t.Input)
	size += rlp.U256Len(&t.V)
	size += rlp.U256Len(&t.R)
	size += rlp.U256Len(&t.S)
	return size
}

func (t *TxLegacy) encodeTo(to []byte) int {
	pos := rlp.EncodeListPrefix(t.payloadSize(), to)
	pos += rlp.EncodeU64(t.AccountNonce, to[pos:])
	pos += rlp.EncodeU256(&t.GasPrice, to[pos:])
	pos += rlp.EncodeU64(t.GasLimit, to[pos:])
	if t.To != nil {
		pos += rlp.EncodeString(t.To[:], to[pos:])
	} else {
		pos += rlp.EncodeString(nil, to[pos:])
	}
	pos += rlp.EncodeU256(&t.Value, to[pos:])
	pos += rlp.EncodeString(t.Input, to[pos:])
	pos += rlp.EncodeU256(&t.V, to[pos:])
	pos += rlp.EncodeU256(&t.R, to[pos:])
	pos += rlp.EncodeU256(&t.S, to[pos:])
	return pos
}

func (m *TxMeta) payloadSize() int {
	return rlp.U256Len(&m.BlockNumber) + rlp.U64Len(m.Timestamp) + 21 + rlp.StringLen(m.Rest)
}

func (m *TxMeta) encodeTo(to []byte) int {
	pos := rlp.EncodeListPrefix(m.payloadSize(), to)
	pos += rlp.EncodeU256(&m.BlockNumber, to[pos:])
	pos += rlp.EncodeU64(m.Timestamp, to[pos:])
	pos += rlp.EncodeString(m.MessageSender[:], to[pos:])
	pos += rlp.EncodeString(m.Rest, to[pos:])
	return pos
}

func (t *Transaction) payloadSize() int {
	dataSize := t.Data.payloadSize()
	metaSize := t.Meta.payloadSize()
	size := rlp.ListPrefixLen(dataSize) + dataSize
	size += rlp.ListPrefixLen(metaSize) + metaSize
	size += 33
	size += rlp.U64Len(uint64(t.Size))
	size += 21
	return size
}

func (t *Transaction) encodeTo(to []byte) int {
	pos := rlp.EncodeListPrefix(t.payloadSize(), to)
	pos += t.Data.encodeTo(to[pos:])
	pos += t.Meta.encodeTo(to[pos:])
	pos += rlp.EncodeString(t.Hash[:], to[pos:])
	pos += rlp.EncodeU64(uint64(t.Size), to[pos:])
	pos += rlp.EncodeString(t.From[:], to[pos:])
	return pos
}

// EncodeTransaction returns the canonical RLP encoding of t.
func EncodeTransaction(t *Transaction) []byte {
	size := t.payloadSize()
	to := make([]byte, rlp.ListPrefixLen(size)+size)
	t.encodeTo(to)
	return to
}
