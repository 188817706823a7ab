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

// Package types contains the block data types decoded from RLP block files.
package types

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ledgerwatch/blockfile/common"
	"github.com/ledgerwatch/blockfile/rlp"
)

// BloomByteLength represents the number of bytes used in a header log bloom.
const BloomByteLength = 256

// Bloom represents a 2048 bit bloom filter. This core treats it as an opaque
// fixed-width wire field; querying it is a downstream concern.
type Bloom [BloomByteLength]byte

// Bytes returns the backing byte slice of the bloom.
func (b Bloom) Bytes() []byte { return b[:] }

// A BlockNonce is a 64-bit value which, combined with the mix digest, proves
// that a sufficient amount of computation has been carried out on a block.
type BlockNonce [8]byte

// EncodeNonce converts the given integer to a block nonce.
func EncodeNonce(i uint64) BlockNonce {
	var n BlockNonce
	binary.BigEndian.PutUint64(n[:], i)
	return n
}

// Uint64 returns the integer value of a block nonce.
func (n BlockNonce) Uint64() uint64 {
	return binary.BigEndian.Uint64(n[:])
}

// MaxExtraDataBytes is the domain bound on the header extra data field.
const MaxExtraDataBytes = 32

// Header represents a block header. Field order is part of the wire contract;
// reordering breaks decode.
type Header struct {
	ParentHash  common.Hash
	UncleHash   common.Hash
	Coinbase    common.Address
	Root        common.Hash
	TxHash      common.Hash
	ReceiptHash common.Hash
	Bloom       Bloom
	Difficulty  uint256.Int
	Number      uint256.Int
	GasLimit    uint64
	GasUsed     uint64
	Time        uint64
	Extra       []byte
	MixDigest   common.Hash
	Nonce       BlockNonce
	BaseFee     *uint256.Int // post-London revisions append this; nil when absent
}

// headerSchema is the wire description of a Header: 15 mandatory fields, one
// well-known trailing extension.
var headerSchema = &rlp.Schema[Header]{
	Name: "Header",
	Fields: []rlp.Field[Header]{
		rlp.FixedBytes("parent_hash", 32, func(h *Header, b []byte) { copy(h.ParentHash[:], b) }),
		rlp.FixedBytes("uncle_hash", 32, func(h *Header, b []byte) { copy(h.UncleHash[:], b) }),
		rlp.FixedBytes("coinbase", 20, func(h *Header, b []byte) { copy(h.Coinbase[:], b) }),
		rlp.FixedBytes("root", 32, func(h *Header, b []byte) { copy(h.Root[:], b) }),
		rlp.FixedBytes("tx_hash", 32, func(h *Header, b []byte) { copy(h.TxHash[:], b) }),
		rlp.FixedBytes("receipt_hash", 32, func(h *Header, b []byte) { copy(h.ReceiptHash[:], b) }),
		rlp.FixedBytes("bloom", BloomByteLength, func(h *Header, b []byte) { copy(h.Bloom[:], b) }),
		rlp.Uint("difficulty", 256, func(h *Header, x *uint256.Int) { h.Difficulty = *x }),
		rlp.Uint("number", 256, func(h *Header, x *uint256.Int) { h.Number = *x }),
		rlp.Uint64("gas_limit", 64, func(h *Header, v uint64) { h.GasLimit = v }),
		rlp.Uint64("gas_used", 64, func(h *Header, v uint64) { h.GasUsed = v }),
		rlp.Uint64("time", 64, func(h *Header, v uint64) { h.Time = v }),
		rlp.Bytes("extra_data", func(h *Header, b []byte) error { h.Extra = common.CopyBytes(b); return nil }),
		rlp.FixedBytes("mix_digest", 32, func(h *Header, b []byte) { copy(h.MixDigest[:], b) }),
		rlp.FixedBytes("nonce", 8, func(h *Header, b []byte) { copy(h.Nonce[:], b) }),
	},
	Trailing: []rlp.Field[Header]{
		rlp.Uint("base_fee", 256, func(h *Header, x *uint256.Int) { h.BaseFee = x }),
	},
	Check: (*Header).Validate,
}

// DecodeHeader maps a decoded RLP item onto a Header.
func DecodeHeader(it rlp.Item, policy rlp.TrailingPolicy) (*Header, error) {
	h := new(Header)
	if err := rlp.Map(headerSchema, it, policy, h); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate enforces the domain bounds a structurally valid header must still
// satisfy. Violations surface as *ValidationError, distinct from decode errors.
func (h *Header) Validate() error {
	if len(h.Extra) > MaxExtraDataBytes {
		return &ValidationError{Field: "extra_data", Reason: fmt.Sprintf("length %d exceeds %d bytes", len(h.Extra), MaxExtraDataBytes)}
	}
	return nil
}

// CopyHeader creates a deep copy of a block header to prevent side effects from
// modifying a header variable.
func CopyHeader(h *Header) *Header {
	cpy := *h
	if h.BaseFee != nil {
		cpy.BaseFee = new(uint256.Int).Set(h.BaseFee)
	}
	if len(h.Extra) > 0 {
		cpy.Extra = make([]byte, len(h.Extra))
		copy(cpy.Extra, h.Extra)
	}
	return &cpy
}

// NumberU64 returns the block number narrowed to uint64.
func (h *Header) NumberU64() uint64 { return h.Number.Uint64() }

func (h *Header) payloadSize() int {
	size := 6*33 + 21 + rlp.StringLen(h.Bloom[:]) + 9 // fixed-width fields with their prefixes
	size += rlp.U256Len(&h.Difficulty)
	size += rlp.U256Len(&h.Number)
	size += rlp.U64Len(h.GasLimit)
	size += rlp.U64Len(h.GasUsed)
	size += rlp.U64Len(h.Time)
	size += rlp.StringLen(h.Extra)
	if h.BaseFee != nil {
		size += rlp.U256Len(h.BaseFee)
	}
	return size
}

func (h *Header) encodeTo(to []byte) int {
	pos := rlp.EncodeListPrefix(h.payloadSize(), to)
	pos += rlp.EncodeString(h.ParentHash[:], to[pos:])
	pos += rlp.EncodeString(h.UncleHash[:], to[pos:])
	pos += rlp.EncodeString(h.Coinbase[:], to[pos:])
	pos += rlp.EncodeString(h.Root[:], to[pos:])
	pos += rlp.EncodeString(h.TxHash[:], to[pos:])
	pos += rlp.EncodeString(h.ReceiptHash[:], to[pos:])
	pos += rlp.EncodeString(h.Bloom[:], to[pos:])
	pos += rlp.EncodeU256(&h.Difficulty, to[pos:])
	pos += rlp.EncodeU256(&h.Number, to[pos:])
	pos += rlp.EncodeU64(h.GasLimit, to[pos:])
	pos += rlp.EncodeU64(h.GasUsed, to[pos:])
	pos += rlp.EncodeU64(h.Time, to[pos:])
	pos += rlp.EncodeString(h.Extra, to[pos:])
	pos += rlp.EncodeString(h.MixDigest[:], to[pos:])
	pos += rlp.EncodeString(h.Nonce[:], to[pos:])
	if h.BaseFee != nil {
		pos += rlp.EncodeU256(h.BaseFee, to[pos:])
	}
	return pos
}

// EncodeHeader returns the canonical RLP encoding of h.
func EncodeHeader(h *Header) []byte {
	size := h.payloadSize()
	to := make([]byte, rlp.ListPrefixLen(size)+size)
	h.encodeTo(to)
	return to
}
