package main

/**
 * SPDX-License-Identifier: Apache-2.0
 */

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vorteil/p4mesh/pkg/comm"
	"github.com/vorteil/p4mesh/pkg/meshfile"
)

var infoCmd = &cobra.Command{
	Use:   "info <path>",
	Short: "List the blocks in a mesh file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(args[0])
	},
}

func runInfo(path string) error {
	world, err := comm.New(1)
	if err != nil {
		return err
	}

	ctx, err := meshfile.OpenReadUnbound(world, path, log)
	if err != nil {
		return fmt.Errorf("failed to open '%s': %w", path, err)
	}
	defer ctx.Close()

	fmt.Printf("dimension: %d\nglobal cells: %d\n\n", ctx.Dim, ctx.GlobalNumCells)

	blocks := ctx.Info()
	if len(blocks) == 0 {
		fmt.Println("(no blocks)")
		return nil
	}

	var rows [][]string
	for i, b := range blocks {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			string(rune(b.Type)),
			fmt.Sprintf("%d", b.Size),
			fmt.Sprintf("%d", b.PayloadLen),
			fmt.Sprintf("%d", b.PadLen),
			b.UserString,
		})
	}
	PlainTable([]string{"#", "type", "size", "payload", "pad", "user string"}, rows)

	return nil
}
