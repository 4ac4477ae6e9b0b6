package main

/**
 * SPDX-License-Identifier: Apache-2.0
 */

import (
	"os"

	"github.com/sisatech/tablewriter"
)

// PlainTable renders rows under header as a borderless, left-aligned grid --
// the layout info and dump use for their block/rank summaries.
func PlainTable(header []string, rows [][]string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetHeader(header)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}
