// Package forest implements the deflate/inflate engine from spec.md §4.C:
// flattening a partitioned forest of quadtrees or octrees to a per-cell
// record array, and reconstructing an equivalent forest from such an array
// plus global partition metadata.
//
// The forest connectivity graph, the real spatial coordinate/level bit
// layout, and the mesh refinement/balance algorithms are all out of scope
// (spec.md §1) and are represented here by small interfaces so the engine
// itself never needs to know how a real mesh library packs a coordinate.
package forest

/**
 * SPDX-License-Identifier: Apache-2.0
 */

import "github.com/pkg/errors"

// MaxLevel is this module's QMAXLEVEL (spec.md glossary): the highest
// legal refinement level a cell may carry.
const MaxLevel = 30

// Dim selects quadtree (2D) or octree (3D) forests.
type Dim int

const (
	Dim2 Dim = 2
	Dim3 Dim = 3
)

func (d Dim) recordWidth() int {
	return int(d) + 1
}

func (d Dim) valid() bool {
	return d == Dim2 || d == Dim3
}

// Connectivity is the opaque "out of scope" connectivity graph of trees
// spec.md §1 treats as an external collaborator. This core never looks
// past the number of trees it describes.
type Connectivity interface {
	NumTrees() int
}

// GridConnectivity is a trivial Connectivity of n disconnected trees,
// enough to exercise every deflate/inflate operation without a real mesh
// connectivity graph.
type GridConnectivity int

func (g GridConnectivity) NumTrees() int {
	return int(g)
}

// Quadrant is the first/last-descendant-at-maximum-level value spec.md
// §4.C step 3 asks the forest to track per tree. The actual coordinate and
// level bit layout is out of scope (spec.md §1); this is deliberately a
// bare coordinate+level pair.
type Quadrant struct {
	Coords [3]int32
	Level  uint8
}

// Cell is a leaf of a tree: a spatial position, a refinement level, and an
// optional fixed-size user-data payload.
type Cell struct {
	Coords [3]int32
	Level  uint8
	Data   []byte
}

// Tree is one locally-known member of the forest's connectivity graph.
type Tree struct {
	Cells       []Cell
	FirstDesc   Quadrant
	LastDesc    Quadrant
	LevelCounts [MaxLevel + 1]int64
	MaxLevel    uint8
}

// DescendantFunc computes the first (or last) descendant of a cell at
// MaxLevel. It is a pluggable external collaborator (spec.md §6(f))
// because the real computation depends on the coordinate/level bit layout
// this core treats as out of scope.
type DescendantFunc func(c Cell) Quadrant

// IdentityDescendant is the default DescendantFunc: it reports the cell's
// own coordinates at MaxLevel. This is not a geometrically meaningful
// descendant computation -- that logic belongs to the real mesh library --
// it only needs to be a deterministic stand-in that exercises every code
// path that consumes a Quadrant.
func IdentityDescendant(c Cell) Quadrant {
	return Quadrant{Coords: c.Coords, Level: MaxLevel}
}

// Sized is the minimal view of a communicator this package needs: how
// many ranks are participating. pkg/comm.World satisfies it.
type Sized interface {
	Size() int
}

// PartitionPublisher is spec.md §6(e)'s "global-partition-publish helper":
// after inflate, it replicates each rank's first-cell position to every
// other rank. InflateAll calls Publish once for the whole world, passing
// every rank's first descendant indexed by rank.
type PartitionPublisher interface {
	Publish(world Sized, firstDescByRank []Quadrant) error
}

// NoopPublisher is a PartitionPublisher that does nothing, useful for
// tests and for forests that never need the published positions.
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ Sized, _ []Quadrant) error {
	return nil
}

// Forest is the reconstructed or deflatable in-memory structure from
// spec.md §3.
type Forest struct {
	Dim          Dim
	Connectivity Connectivity
	Rank, Size   int
	Gfq          []int64

	// FirstLocalTree/LastLocalTree follow the empty-local convention from
	// spec.md §4.C: -1/-2 when this rank owns no cells.
	FirstLocalTree int
	LastLocalTree  int
	Trees          []*Tree

	DataSize int
	Revision uint64
}

// LocalNumCells returns the number of cells this forest's rank owns,
// derived from Gfq.
func (f *Forest) LocalNumCells() int64 {
	if f.Gfq == nil {
		return 0
	}
	return f.Gfq[f.Rank+1] - f.Gfq[f.Rank]
}

// GlobalNumCells returns the forest-wide cell count.
func (f *Forest) GlobalNumCells() int64 {
	if f.Gfq == nil {
		return 0
	}
	return f.Gfq[len(f.Gfq)-1]
}

func validateGfq(gfq []int64, size int) error {
	if len(gfq) != size+1 {
		return errors.Errorf("forest: gfq has %d entries, want %d", len(gfq), size+1)
	}
	if gfq[0] != 0 {
		return errors.New("forest: gfq must start at 0")
	}
	for i := 1; i < len(gfq); i++ {
		if gfq[i] < gfq[i-1] {
			return errors.New("forest: gfq must be monotonic non-decreasing")
		}
	}
	return nil
}

func validatePertree(pertree []int64, numTrees int, globalNumCells int64) error {
	if len(pertree) != numTrees+1 {
		return errors.Errorf("forest: pertree has %d entries, want %d", len(pertree), numTrees+1)
	}
	if pertree[0] != 0 {
		return errors.New("forest: pertree must start at 0")
	}
	for i := 1; i < len(pertree); i++ {
		if pertree[i] < pertree[i-1] {
			return errors.New("forest: pertree must be monotonic non-decreasing")
		}
	}
	if pertree[numTrees] != globalNumCells {
		return errors.Errorf("forest: pertree totals %d cells, gfq totals %d", pertree[numTrees], globalNumCells)
	}
	return nil
}
