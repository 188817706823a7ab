package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/c2h5oh/datasize"
	"github.com/davecgh/go-spew/spew"
	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/ledgerwatch/blockfile/core/blockio"
	"github.com/ledgerwatch/blockfile/core/types"
	"github.com/ledgerwatch/blockfile/internal/logging"
	"github.com/ledgerwatch/blockfile/rlp"
)

var (
	tolerantFlag = cli.BoolFlag{
		Name:  "rlp.tolerant",
		Usage: "Ignore unknown trailing fields in block records instead of rejecting them",
	}
	dumpFlag = cli.BoolFlag{
		Name:  "dump",
		Usage: "Dump every decoded block to stdout",
	}
	progressFlag = cli.Uint64Flag{
		Name:  "progress",
		Usage: "Log a progress line every that many blocks (0 disables)",
		Value: 1000,
	}
)

func main() {
	app := &cli.App{
		Name:      "blockfile",
		Usage:     "decode RLP block files and feed them to an import pipeline",
		ArgsUsage: "<file>",
		Flags: append([]cli.Flag{
			&tolerantFlag,
			&dumpFlag,
			&progressFlag,
		}, logging.Flags...),
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Error("import failed", "err", err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	logger := logging.SetupLoggerCtx("blockfile", cliCtx)

	if cliCtx.NArg() != 1 {
		return fmt.Errorf("exactly one block file path expected, got %d arguments", cliCtx.NArg())
	}
	filePath := cliCtx.Args().First()

	payload, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read block file: %w", err)
	}
	logger.Info("importing block file", "path", filePath, "size", datasize.ByteSize(len(payload)).HumanReadable())

	policy := rlp.TrailingStrict
	if cliCtx.Bool(tolerantFlag.Name) {
		policy = rlp.TrailingTolerant
	}

	ctx, cancel := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reader := blockio.NewBlockReader(payload, policy)
	counter := &blockio.CountingSink{}
	var sink blockio.BlockSink = counter
	if cliCtx.Bool(dumpFlag.Name) {
		sink = &dumpSink{next: counter}
	}

	settings := &blockio.Settings{
		Logger:        logger,
		ProgressEvery: cliCtx.Uint64(progressFlag.Name),
	}
	written, err := blockio.RunImport(ctx, settings, reader, sink)
	if err != nil {
		var streamErr *blockio.StreamError
		if errors.As(err, &streamErr) {
			logger.Error("block file is malformed",
				"offset", streamErr.Offset, "blocksDecoded", streamErr.Block, "err", streamErr.Err)
		}
		return err
	}

	logger.Info("import complete",
		"blocks", written,
		"txs", counter.Txs,
		"uncles", counter.Uncles,
		"withdrawals", counter.Withdrawals,
		"gasUsed", counter.GasUsed,
		"firstBlock", counter.FirstNumber,
		"lastBlock", counter.LastNumber,
	)
	return nil
}

// dumpSink prints each block before passing it on.
type dumpSink struct {
	next blockio.BlockSink
}

func (s *dumpSink) WriteBlock(ctx context.Context, b *types.Block) error {
	spew.Dump(b)
	return s.next.WriteBlock(ctx, b)
}
