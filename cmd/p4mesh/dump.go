package main

/**
 * SPDX-License-Identifier: Apache-2.0
 */

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vorteil/p4mesh/pkg/comm"
	"github.com/vorteil/p4mesh/pkg/forest"
	"github.com/vorteil/p4mesh/pkg/generate"
	"github.com/vorteil/p4mesh/pkg/meshfile"
	"github.com/vorteil/p4mesh/pkg/vio"
)

var (
	flagDumpOut   string
	flagDumpRanks int
)

func init() {
	f := dumpCmd.Flags()
	f.StringVar(&flagDumpOut, "out", "", "write the field block's raw payload to this file")
	f.IntVar(&flagDumpRanks, "ranks", 1, "number of ranks to repartition the field block across while reading it back")
}

var dumpCmd = &cobra.Command{
	Use:   "dump <path>",
	Short: "Reconstruct the forest stored in a mesh file and print a per-rank summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDump(args[0])
	},
}

func runDump(path string) error {
	world, err := comm.New(flagDumpRanks)
	if err != nil {
		return err
	}

	ctx, err := meshfile.OpenReadUnbound(world, path, log)
	if err != nil {
		return fmt.Errorf("failed to open '%s': %w", path, err)
	}
	defer ctx.Close()

	headerPayload, _, err := ctx.ReadHeader()
	if err != nil {
		return fmt.Errorf("failed to read header block: %w", err)
	}
	if len(headerPayload) < 4 {
		return fmt.Errorf("header block is too short to carry a byte order marker")
	}

	order, err := meshfile.DetectByteOrder(headerPayload[:4])
	if err != nil {
		return fmt.Errorf("failed to detect byte order: %w", err)
	}
	pertree, err := decodePertree(headerPayload[4:], order)
	if err != nil {
		return fmt.Errorf("failed to decode pertree counts: %w", err)
	}

	dim := forest.Dim(ctx.Dim)
	elemSize := generate.ElemSize(dim)
	bufs, _, err := ctx.ReadField(elemSize)
	if err != nil {
		return fmt.Errorf("failed to read field block: %w", err)
	}

	gfq := comm.UniformPartition(ctx.GlobalNumCells, world.Size())

	if flagDumpOut != "" {
		if err := writeRawPayload(flagDumpOut, gfq, elemSize, bufs); err != nil {
			return fmt.Errorf("failed to write raw payload: %w", err)
		}
	}

	recordsPerRank, err := generate.DecodeEach(dim, order, bufs)
	if err != nil {
		return fmt.Errorf("failed to decode field payload: %w", err)
	}

	conn := forest.GridConnectivity(len(pertree) - 1)
	forests, err := forest.InflateAll(world, conn, gfq, pertree, recordsPerRank, nil, forest.InflateOptions{Dim: dim}, forest.NoopPublisher{})
	if err != nil {
		return fmt.Errorf("failed to inflate forest: %w", err)
	}

	var rows [][]string
	for _, f := range forests {
		rows = append(rows, []string{
			fmt.Sprintf("%d", f.Rank),
			fmt.Sprintf("%d", f.FirstLocalTree),
			fmt.Sprintf("%d", f.LastLocalTree),
			fmt.Sprintf("%d", f.LocalNumCells()),
		})
	}
	PlainTable([]string{"rank", "first local tree", "last local tree", "local cells"}, rows)

	return nil
}

func decodePertree(buf []byte, order binary.ByteOrder) ([]int64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("pertree region is %d bytes, not a multiple of 8", len(buf))
	}
	out := make([]int64, len(buf)/8)
	for i := range out {
		out[i] = int64(order.Uint64(buf[i*8 : i*8+8]))
	}
	return out, nil
}

// writeRawPayload writes every rank's raw field bytes to path at its
// absolute offset in the unpartitioned payload, via a vio.WriteSeeker, the
// seekable-writer wrapper for destinations whose own Seek support cannot
// be assumed. Seeking to each rank's offset rather than simply appending
// keeps the output correct if perRank is ever reordered or sparse.
func writeRawPayload(path string, gfq []int64, elemSize int64, perRank [][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ws, err := vio.WriteSeeker(f)
	if err != nil {
		return err
	}
	for rank, b := range perRank {
		if _, err := ws.Seek(comm.FieldOffset(gfq, rank, elemSize), io.SeekStart); err != nil {
			return err
		}
		if _, err := ws.Write(b); err != nil {
			return err
		}
	}
	return nil
}
