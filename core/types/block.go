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
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ledgerwatch/blockfile/common"
	"github.com/ledgerwatch/blockfile/rlp"
)

// Transactions is a Transaction slice type for counting and iteration.
type Transactions []*Transaction

// Block represents one block of the chain as laid out in a block file:
// header, transaction list, uncle list and, in newer revisions, a withdrawal
// list. A block exclusively owns its parts; blocks relate to each other only
// by parent hash, never by in-memory pointer.
type Block struct {
	header       *Header
	transactions Transactions
	uncles       []*Header
	withdrawals  []*Withdrawal // nil when the encoding predates withdrawals
}

var blockSchema = &rlp.Schema[Block]{
	Name: "Block",
	Fields: []rlp.Field[Block]{
		rlp.Nested("header", headerSchema, func(b *Block, h *Header) { b.header = h }),
		rlp.NestedList("transactions", txSchema, func(b *Block, txs []*Transaction) { b.transactions = txs }),
		rlp.NestedList("uncles", headerSchema, func(b *Block, u []*Header) { b.uncles = u }),
	},
	Trailing: []rlp.Field[Block]{
		rlp.NestedList("withdrawals", withdrawalSchema, func(b *Block, w []*Withdrawal) { b.withdrawals = w }),
	},
}

// DecodeBlock maps one decoded top-level RLP item onto a Block.
func DecodeBlock(it rlp.Item, policy rlp.TrailingPolicy) (*Block, error) {
	b := new(Block)
	if err := rlp.Map(blockSchema, it, policy, b); err != nil {
		return nil, err
	}
	return b, nil
}

// NewBlock assembles a block from its parts. The parts are owned by the block
// afterwards; callers must not mutate them.
func NewBlock(header *Header, txs []*Transaction, uncles []*Header, withdrawals []*Withdrawal) *Block {
	return &Block{header: header, transactions: txs, uncles: uncles, withdrawals: withdrawals}
}

// Header returns a deep copy of the block header.
func (b *Block) Header() *Header { return CopyHeader(b.header) }

func (b *Block) Transactions() Transactions { return b.transactions }
func (b *Block) Uncles() []*Header          { return b.uncles }
func (b *Block) Withdrawals() []*Withdrawal { return b.withdrawals }
func (b *Block) Number() *uint256.Int       { return new(uint256.Int).Set(&b.header.Number) }
func (b *Block) NumberU64() uint64          { return b.header.Number.Uint64() }
func (b *Block) ParentHash() common.Hash    { return b.header.ParentHash }
func (b *Block) UncleHash() common.Hash     { return b.header.UncleHash }
func (b *Block) Coinbase() common.Address   { return b.header.Coinbase }
func (b *Block) Root() common.Hash          { return b.header.Root }
func (b *Block) TxHash() common.Hash        { return b.header.TxHash }
func (b *Block) ReceiptHash() common.Hash   { return b.header.ReceiptHash }
func (b *Block) Bloom() Bloom               { return b.header.Bloom }
func (b *Block) Difficulty() *uint256.Int   { return new(uint256.Int).Set(&b.header.Difficulty) }
func (b *Block) GasLimit() uint64           { return b.header.GasLimit }
func (b *Block) GasUsed() uint64            { return b.header.GasUsed }
func (b *Block) Time() uint64               { return b.header.Time }
func (b *Block) Extra() []byte              { return common.CopyBytes(b.header.Extra) }
func (b *Block) MixDigest() common.Hash     { return b.header.MixDigest }
func (b *Block) Nonce() uint64              { return b.header.Nonce.Uint64() }

func (b *Block) BaseFee() *uint256.Int {
	if b.header.BaseFee == nil {
		return nil
	}
	return new(uint256.Int).Set(b.header.BaseFee)
}

// SanityCheck checks a few basic things. These bounds are way beyond what any
// sane block holds and exist to keep junk input from wasting the downstream
// pipeline.
func (b *Block) SanityCheck() error {
	if !b.header.Number.IsUint64() {
		return fmt.Errorf("too large block number: bitlen %d", b.header.Number.BitLen())
	}
	return nil
}

func (b *Block) payloadSize() int {
	headerSize := b.header.payloadSize()
	size := rlp.ListPrefixLen(headerSize) + headerSize

	txsSize := 0
	for _, txn := range b.transactions {
		s := txn.payloadSize()
		txsSize += rlp.ListPrefixLen(s) + s
	}
	size += rlp.ListPrefixLen(txsSize) + txsSize

	unclesSize := 0
	for _, uncle := range b.uncles {
		s := uncle.payloadSize()
		unclesSize += rlp.ListPrefixLen(s) + s
	}
	size += rlp.ListPrefixLen(unclesSize) + unclesSize

	if b.withdrawals != nil {
		withdrawalsSize := 0
		for _, w := range b.withdrawals {
			s := w.payloadSize()
			withdrawalsSize += rlp.ListPrefixLen(s) + s
		}
		size += rlp.ListPrefixLen(withdrawalsSize) + withdrawalsSize
	}
	return size
}

func (b *Block) encodeTo(to []byte) int {
	pos := rlp.EncodeListPrefix(b.payloadSize(), to)
	pos += b.header.encodeTo(to[pos:])

	txsSize := 0
	for _, txn := range b.transactions {
		s := txn.payloadSize()
		txsSize += rlp.ListPrefixLen(s) + s
	}
	pos += rlp.EncodeListPrefix(txsSize, to[pos:])
	for _, txn := range b.transactions {
		pos += txn.encodeTo(to[pos:])
	}

	unclesSize := 0
	for _, uncle := range b.uncles {
		s := uncle.payloadSize()
		unclesSize += rlp.ListPrefixLen(s) + s
	}
	pos += rlp.EncodeListPrefix(unclesSize, to[pos:])
	for _, uncle := range b.uncles {
		pos += uncle.encodeTo(to[pos:])
	}

	if b.withdrawals != nil {
		withdrawalsSize := 0
		for _, w := range b.withdrawals {
			s := w.payloadSize()
			withdrawalsSize += rlp.ListPrefixLen(s) + s
		}
		pos += rlp.EncodeListPrefix(withdrawalsSize, to[pos:])
		for _, w := range b.withdrawals {
			pos += w.encodeTo(to[pos:])
		}
	}
	return pos
}

// EncodeBlock returns the canonical RLP encoding of b: one complete top-level
// item, suitable for concatenation into a block file.
func EncodeBlock(b *Block) []byte {
	size := b.payloadSize()
	to := make([]byte, rlp.ListPrefixLen(size)+size)
	b.encodeTo(to)
	return to
}
