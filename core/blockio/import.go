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
	"errors"
	"io"

	"github.com/ledgerwatch/log/v3"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerwatch/blockfile/core/types"
)

// BlockSink is the downstream import pipeline boundary. Implementations do
// whatever persistence, sender recovery or execution they want; this package
// only guarantees they observe blocks in exactly the input order, one at a
// time, with no duplication.
type BlockSink interface {
	WriteBlock(ctx context.Context, b *types.Block) error
}

// Settings configures an import run.
type Settings struct {
	Logger        log.Logger
	ProgressEvery uint64 // log a progress line every that many blocks, 0 disables
	ChannelSize   int    // producer/consumer channel capacity
}

// Pump reads blocks from src and sends them to out in input order, closing out
// when the source is exhausted. There is at most one in-flight decode at a
// time; a source error stops the pump and is returned as is.
func Pump(ctx context.Context, src BlockSource, out chan<- *types.Block) error {
	defer close(out)
	for {
		b, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		select {
		case out <- b:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunImport drives src into sink until the source is exhausted or either side
// fails. It returns the number of blocks the sink accepted. Ordering is
// preserved end to end: the sink observes blocks exactly as they appear in the
// input.
func RunImport(ctx context.Context, settings *Settings, src BlockSource, sink BlockSink) (uint64, error) {
	size := settings.ChannelSize
	if size <= 0 {
		size = 1024
	}
	ch := make(chan *types.Block, size)

	var written uint64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return Pump(gctx, src, ch)
	})
	g.Go(func() error {
		for b := range ch {
			if err := sink.WriteBlock(gctx, b); err != nil {
				return err
			}
			written++
			if settings.ProgressEvery > 0 && written%settings.ProgressEvery == 0 {
				settings.Logger.Info("imported", "blocks", written, "number", b.NumberU64())
			}
		}
		return nil
	})
	err := g.Wait()
	return written, err
}
