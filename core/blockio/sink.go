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

package blockio

import (
	"context"

	"github.com/ledgerwatch/blockfile/common"
	"github.com/ledgerwatch/blockfile/core/types"
)

// CountingSink is the stand-in consumer used when no real import pipeline is
// attached: it tallies what went through and remembers where the chain ended.
type CountingSink struct {
	Blocks      uint64
	Txs         uint64
	Uncles      uint64
	Withdrawals uint64
	GasUsed     uint64

	FirstNumber uint64
	LastNumber  uint64
	LastParent  common.Hash
}

func (s *CountingSink) WriteBlock(_ context.Context, b *types.Block) error {
	if s.Blocks == 0 {
		s.FirstNumber = b.NumberU64()
	}
	s.Blocks++
	s.Txs += uint64(len(b.Transactions()))
	s.Uncles += uint64(len(b.Uncles()))
	s.Withdrawals += uint64(len(b.Withdrawals()))
	s.GasUsed += b.GasUsed()
	s.LastNumber = b.NumberU64()
	s.LastParent = b.ParentHash()
	return nil
}
