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

// Package blockio reads block files: raw concatenations of whole top-level
// RLP-encoded blocks with no enclosing list and no item count. Decoding is
// incremental by construction - each item's length comes from its own prefix,
// and the cursor resumes exactly where the previous item ended. A whole-buffer
// decode attempt is invalid input framing and is never performed.
package blockio

import (
	"fmt"
	"io"

	"github.com/ledgerwatch/blockfile/core/types"
	"github.com/ledgerwatch/blockfile/rlp"
)

// BlockSource yields consecutive blocks. Next returns io.EOF after the last
// block. The interface deliberately says nothing about buffering, so a source
// fed incrementally (e.g. from a network connection) can implement it by
// suspending until enough bytes are available for the next item.
type BlockSource interface {
	Next() (*types.Block, error)
}

// StreamError is a decode failure at a known position of the input stream.
// Blocks yielded before the failure remain valid and are not retracted.
type StreamError struct {
	Offset int    // byte offset of the item that failed to decode
	Block  uint64 // how many blocks were yielded before the failure
	Err    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("block %d at offset %d: %v", e.Block, e.Offset, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// BlockReader is a single-pass BlockSource over one fully buffered block file.
// It owns the buffer for the duration of iteration. Once Next returns an
// error, the reader is terminal and keeps returning the same error.
type BlockReader struct {
	payload []byte
	pos     int
	policy  rlp.TrailingPolicy
	blocks  uint64
	done    error
}

// NewBlockReader returns a reader positioned at the start of payload.
func NewBlockReader(payload []byte, policy rlp.TrailingPolicy) *BlockReader {
	return &BlockReader{payload: payload, policy: policy}
}

// Next decodes the next top-level block and advances the cursor past it.
// Running out of input exactly at an item boundary is success: io.EOF.
// Anything else mid-item fails with a *StreamError carrying the starting
// offset of the bad item; the error does not invalidate earlier blocks.
func (r *BlockReader) Next() (*types.Block, error) {
	if r.done != nil {
		return nil, r.done
	}
	if r.pos == len(r.payload) {
		r.done = io.EOF
		return nil, r.done
	}
	start := r.pos
	it, next, err := rlp.Parse(r.payload, r.pos)
	if err != nil {
		r.done = &StreamError{Offset: start, Block: r.blocks, Err: err}
		return nil, r.done
	}
	b, err := types.DecodeBlock(it, r.policy)
	if err != nil {
		r.done = &StreamError{Offset: start, Block: r.blocks, Err: err}
		return nil, r.done
	}
	r.pos = next
	r.blocks++
	return b, nil
}

// Offset returns the current cursor position. After a clean io.EOF it equals
// the buffer length.
func (r *BlockReader) Offset() int { return r.pos }

// BlocksRead returns the number of blocks yielded so far.
func (r *BlockReader) BlocksRead() uint64 { return r.blocks }
