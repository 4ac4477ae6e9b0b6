package generate

/**
 * SPDX-License-Identifier: Apache-2.0
 */

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/vorteil/p4mesh/pkg/comm"
	"github.com/vorteil/p4mesh/pkg/forest"
)

// ElemSize is the on-disk width of one cell's record field: dim+1 int64
// components (coordinates followed by level), stored per MarshalByteOrderMarker's
// convention.
func ElemSize(dim forest.Dim) int64 {
	return int64(dim+1) * 8
}

// Partition splits records, a flat array of dim+1 int64 components per
// global cell in tree-then-cell order, into one byte slice per rank
// according to gfq.
func Partition(dim forest.Dim, order binary.ByteOrder, gfq []int64, records []int64) [][]byte {
	width := int(dim) + 1
	out := make([][]byte, len(gfq)-1)
	for r := range out {
		count := comm.LocalCount(gfq, r)
		buf := make([]byte, count*int64(width)*8)
		base := gfq[r] * int64(width)
		for i := int64(0); i < count*int64(width); i++ {
			order.PutUint64(buf[i*8:i*8+8], uint64(records[base+i]))
		}
		out[r] = buf
	}
	return out
}

// DecodeEach decodes each rank's byte payload independently into its own
// int64 record slice, the shape forest.InflateAll expects for
// recordsPerRank.
func DecodeEach(dim forest.Dim, order binary.ByteOrder, perRank [][]byte) ([][]int64, error) {
	width := int(dim) + 1
	out := make([][]int64, len(perRank))
	for r, b := range perRank {
		if len(b)%(width*8) != 0 {
			return nil, errors.Errorf("generate: rank %d payload of %d bytes is not a multiple of %d", r, len(b), width*8)
		}
		records := make([]int64, len(b)/8)
		for i := range records {
			records[i] = int64(order.Uint64(b[i*8 : i*8+8]))
		}
		out[r] = records
	}
	return out, nil
}

// Join concatenates per-rank byte payloads and decodes them back into a
// flat int64 record array, the inverse of Partition.
func Join(dim forest.Dim, order binary.ByteOrder, perRank [][]byte) ([]int64, error) {
	width := int(dim) + 1
	var total int
	for _, b := range perRank {
		if len(b)%(width*8) != 0 {
			return nil, errors.Errorf("generate: rank payload of %d bytes is not a multiple of %d", len(b), width*8)
		}
		total += len(b) / 8
	}

	out := make([]int64, 0, total)
	for _, b := range perRank {
		for i := 0; i+8 <= len(b); i += 8 {
			out = append(out, int64(order.Uint64(b[i:i+8])))
		}
	}
	return out, nil
}
