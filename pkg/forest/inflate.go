package forest

/**
 * SPDX-License-Identifier: Apache-2.0
 */

import "github.com/pkg/errors"

// InflateOptions carries the parts of inflate that spec.md §4.C leaves to
// external collaborators: the dimension (fixing record width), the
// uniform user-data size (0 for none), and the descendant computation.
type InflateOptions struct {
	Dim       Dim
	DataSize  int
	Descendant DescendantFunc
}

func (o InflateOptions) descendant() DescendantFunc {
	if o.Descendant != nil {
		return o.Descendant
	}
	return IdentityDescendant
}

// bisectLastLE returns the largest index t such that pertree[t] <= val.
// The tie-break is strict-less-than on the upper bound (spec.md §4.C
// "Tie-breaks"): a tree whose lower boundary equals val is considered to
// begin at that rank.
func bisectLastLE(pertree []int64, val int64) int {
	lo, hi := 0, len(pertree)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if pertree[mid] <= val {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// InflateLocal implements spec.md §4.C's inflate algorithm for a single
// rank: it reconstructs that rank's view of the forest from a record
// array, an optional user-data array, and the global gfq/pertree
// metadata. It performs steps 1-3 of the algorithm; step 4 (publishing
// first-cell positions across every rank) is collective and lives in
// InflateAll.
func InflateLocal(rank, size int, conn Connectivity, gfq, pertree []int64, records []int64, data []byte, opts InflateOptions) (*Forest, error) {
	if !opts.Dim.valid() {
		return nil, errors.Errorf("forest: unsupported dimension %d", opts.Dim)
	}
	if rank < 0 || rank >= size {
		return nil, errors.Errorf("forest: rank %d out of range [0,%d)", rank, size)
	}
	if err := validateGfq(gfq, size); err != nil {
		return nil, err
	}
	numTrees := conn.NumTrees()
	if err := validatePertree(pertree, numTrees, gfq[size]); err != nil {
		return nil, err
	}

	width := opts.Dim.recordWidth()
	localNumCells := gfq[rank+1] - gfq[rank]

	if int64(len(records)) != int64(width)*localNumCells {
		return nil, errors.Errorf("forest: record array is %d entries, want %d", len(records), int64(width)*localNumCells)
	}
	if opts.DataSize > 0 && data != nil && int64(len(data)) != localNumCells*int64(opts.DataSize) {
		return nil, errors.Errorf("forest: data array is %d bytes, want %d", len(data), localNumCells*int64(opts.DataSize))
	}

	f := &Forest{
		Dim:          opts.Dim,
		Connectivity: conn,
		Rank:         rank,
		Size:         size,
		Gfq:          append([]int64(nil), gfq...),
		DataSize:     opts.DataSize,
	}

	firstLocalTree, lastLocalTree := -1, -2
	gtreeskip := int64(0)

	if localNumCells > 0 {
		firstLocalTree = bisectLastLE(pertree, gfq[rank])
		lastLocalTree = bisectLastLE(pertree, gfq[rank+1]-1)
		gtreeskip = gfq[rank] - pertree[firstLocalTree]
	}

	f.FirstLocalTree = firstLocalTree
	f.LastLocalTree = lastLocalTree
	f.Trees = make([]*Tree, numTrees)

	desc := opts.descendant()
	recordIdx := 0
	dataIdx := 0
	remaining := localNumCells
	var accounted int64

	for t := 0; t < numTrees; t++ {
		tree := &Tree{}
		f.Trees[t] = tree

		if t < firstLocalTree || t > lastLocalTree {
			continue
		}

		treeGlobalCount := pertree[t+1] - pertree[t] - gtreeskip
		count := treeGlobalCount
		if count > remaining {
			count = remaining
		}
		if count < 0 {
			count = 0
		}

		tree.Cells = make([]Cell, count)
		for i := int64(0); i < count; i++ {
			c := Cell{}
			for d := 0; d < int(opts.Dim); d++ {
				c.Coords[d] = int32(records[recordIdx])
				recordIdx++
			}
			level := records[recordIdx]
			recordIdx++
			if level < 0 || level > MaxLevel {
				return nil, errors.Errorf("forest: cell level %d out of range [0,%d]", level, MaxLevel)
			}
			c.Level = uint8(level)

			if opts.DataSize > 0 && data != nil {
				c.Data = append([]byte(nil), data[dataIdx:dataIdx+opts.DataSize]...)
				dataIdx += opts.DataSize
			}

			tree.Cells[i] = c
			tree.LevelCounts[c.Level]++
			if c.Level > tree.MaxLevel {
				tree.MaxLevel = c.Level
			}
		}

		if count > 0 {
			tree.FirstDesc = desc(tree.Cells[0])
			tree.LastDesc = desc(tree.Cells[len(tree.Cells)-1])
		}

		accounted += count
		remaining -= count
		gtreeskip = 0
	}

	if accounted != localNumCells || remaining != 0 {
		return nil, errors.Errorf("forest: accounted for %d of %d local cells", accounted, localNumCells)
	}

	return f, nil
}

// InflateAll runs InflateLocal for every rank in [0,size) and then invokes
// pub.Publish once, collectively, with every rank's first-descendant
// quadrant -- spec.md §4.C step 4's "invoke the external global-partition
// helper to publish first-cell positions for all ranks".
//
// recordsPerRank and dataPerRank must each have size entries (dataPerRank
// entries may be nil when no user data was carried).
func InflateAll(world Sized, conn Connectivity, gfq, pertree []int64, recordsPerRank [][]int64, dataPerRank [][]byte, opts InflateOptions, pub PartitionPublisher) ([]*Forest, error) {
	size := world.Size()
	if len(recordsPerRank) != size {
		return nil, errors.Errorf("forest: recordsPerRank has %d entries, want %d", len(recordsPerRank), size)
	}
	if dataPerRank != nil && len(dataPerRank) != size {
		return nil, errors.Errorf("forest: dataPerRank has %d entries, want %d", len(dataPerRank), size)
	}

	forests := make([]*Forest, size)
	for r := 0; r < size; r++ {
		var data []byte
		if dataPerRank != nil {
			data = dataPerRank[r]
		}
		f, err := InflateLocal(r, size, conn, gfq, pertree, recordsPerRank[r], data, opts)
		if err != nil {
			return nil, err
		}
		forests[r] = f
	}

	if pub == nil {
		pub = NoopPublisher{}
	}

	firstDescs := make([]Quadrant, size)
	for r, f := range forests {
		if f.FirstLocalTree >= 0 {
			firstDescs[r] = f.Trees[f.FirstLocalTree].FirstDesc
		}
	}
	if err := pub.Publish(world, firstDescs); err != nil {
		return nil, err
	}

	return forests, nil
}
