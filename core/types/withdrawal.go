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
	"github.com/ledgerwatch/blockfile/rlp"

	"github.com/ledgerwatch/blockfile/common"
)

// Withdrawal represents a validator withdrawal from the consensus layer.
// Newer format revisions append a withdrawal list to each block.
type Withdrawal struct {
	Index     uint64
	Validator uint64
	Address   common.Address
	Amount    uint64 // in Gwei
}

var withdrawalSchema = &rlp.Schema[Withdrawal]{
	Name: "Withdrawal",
	Fields: []rlp.Field[Withdrawal]{
		rlp.Uint64("index", 64, func(w *Withdrawal, v uint64) { w.Index = v }),
		rlp.Uint64("validator_index", 64, func(w *Withdrawal, v uint64) { w.Validator = v }),
		rlp.FixedBytes("address", 20, func(w *Withdrawal, b []byte) { copy(w.Address[:], b) }),
		rlp.Uint64("amount", 64, func(w *Withdrawal, v uint64) { w.Amount = v }),
	},
}

func (w *Withdrawal) payloadSize() int {
	return rlp.U64Len(w.Index) + rlp.U64Len(w.Validator) + 21 + rlp.U64Len(w.Amount)
}

func (w *Withdrawal) encodeTo(to []byte) int {
	pos := rlp.EncodeListPrefix(w.payloadSize(), to)
	pos += rlp.EncodeU64(w.Index, to[pos:])
	pos += rlp.EncodeU64(w.Validator, to[pos:])
	pos += rlp.EncodeString(w.Address[:], to[pos:])
	pos += rlp.EncodeU64(w.Amount, to[pos:])
	return pos
}
