package main

/**
 * SPDX-License-Identifier: Apache-2.0
 */

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/vorteil/p4mesh/pkg/comm"
	"github.com/vorteil/p4mesh/pkg/forest"
	"github.com/vorteil/p4mesh/pkg/generate"
	"github.com/vorteil/p4mesh/pkg/meshfile"
)

var (
	flagCreateConfig     string
	flagCreateOut        string
	flagCreateDim        int
	flagCreateTrees      int
	flagCreateCells      int
	flagCreateRanks      int
	flagCreateUserString string
)

func init() {
	f := createCmd.Flags()
	f.StringVar(&flagCreateConfig, "config", "", "YAML generator config (overrides the other generation flags)")
	f.StringVar(&flagCreateOut, "out", "", "output file path (default: a scratch directory under the user's home)")
	f.IntVar(&flagCreateDim, "dim", 2, "forest dimension, 2 or 3")
	f.IntVar(&flagCreateTrees, "trees", 4, "number of trees")
	f.IntVar(&flagCreateCells, "cells-per-tree", 3, "cells generated per tree")
	f.IntVar(&flagCreateRanks, "ranks", 2, "number of simulated ranks to partition the forest across")
	f.StringVar(&flagCreateUserString, "user-string", "", "file header user string")
}

func defaultScratchPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".p4mesh", "scratch")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "mesh.p4data"), nil
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a synthetic forest and write it to a mesh file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := generate.Config{
			Dim:          flagCreateDim,
			Trees:        flagCreateTrees,
			CellsPerTree: flagCreateCells,
			Ranks:        flagCreateRanks,
		}
		if flagCreateConfig != "" {
			loaded, err := generate.LoadConfig(flagCreateConfig)
			if err != nil {
				return fmt.Errorf("failed to load generator config '%s': %w", flagCreateConfig, err)
			}
			cfg = loaded
		}

		out := flagCreateOut
		if out == "" {
			var err error
			out, err = defaultScratchPath()
			if err != nil {
				return err
			}
		}

		return runCreate(cfg, out, flagCreateUserString)
	},
}

func runCreate(cfg generate.Config, out, userString string) error {
	f, pertree, err := generate.Build(cfg)
	if err != nil {
		return err
	}

	records, _, err := forest.Deflate(f, false)
	if err != nil {
		return fmt.Errorf("failed to deflate generated forest: %w", err)
	}

	globalNumCells := f.GlobalNumCells()
	gfq := comm.UniformPartition(globalNumCells, cfg.Ranks)
	perRank := generate.Partition(f.Dim, binary.LittleEndian, gfq, records)

	world, err := comm.New(cfg.Ranks)
	if err != nil {
		return err
	}

	ctx, err := meshfile.Create(world, out, meshfile.Dimension(f.Dim), userString, globalNumCells, gfq, log)
	if err != nil {
		return fmt.Errorf("failed to create mesh file: %w", err)
	}

	headerPayload := marshalPertree(pertree)
	if err := ctx.WriteHeader(headerPayload, "pertree"); err != nil {
		return fmt.Errorf("failed to write header block: %w", err)
	}

	if err := ctx.WriteField(generate.ElemSize(f.Dim), "cells", perRank); err != nil {
		return fmt.Errorf("failed to write field block: %w", err)
	}

	if err := ctx.Close(); err != nil {
		return fmt.Errorf("failed to close mesh file: %w", err)
	}

	if log != nil {
		log.Printf("wrote %d cells across %d trees and %d ranks to %s", globalNumCells, cfg.Trees, cfg.Ranks, out)
	}
	return nil
}

// marshalPertree encodes a byte-order marker followed by pertree's int64
// entries, little-endian, so dump can recover the per-tree cumulative
// counts that generate.Build produced alongside the field payload.
func marshalPertree(pertree []int64) []byte {
	buf := append([]byte(nil), meshfile.MarshalByteOrderMarker(binary.LittleEndian)...)
	for _, v := range pertree {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, uint64(v))
		buf = append(buf, b...)
	}
	return buf
}
