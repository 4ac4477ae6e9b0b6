package forest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildSimpleForest(t *testing.T) *Forest {
	t.Helper()

	// Two trees, three cells total: tree 0 has two cells, tree 1 has one.
	f := &Forest{
		Dim:            Dim2,
		Connectivity:   GridConnectivity(2),
		Rank:           0,
		Size:           1,
		Gfq:            []int64{0, 3},
		FirstLocalTree: 0,
		LastLocalTree:  1,
		Trees: []*Tree{
			{Cells: []Cell{
				{Coords: [3]int32{0, 0}, Level: 1},
				{Coords: [3]int32{1, 0}, Level: 2},
			}},
			{Cells: []Cell{
				{Coords: [3]int32{4, 4}, Level: 0},
			}},
		},
	}
	return f
}

func TestDeflateOrdersTreesThenCells(t *testing.T) {
	f := buildSimpleForest(t)
	records, data, err := Deflate(f, false)
	require.NoError(t, err)
	require.Nil(t, data)
	require.Equal(t, []int64{0, 0, 1, 1, 0, 2, 4, 4, 0}, records)
}

func TestDeflateWithUserData(t *testing.T) {
	f := buildSimpleForest(t)
	f.DataSize = 2
	f.Trees[0].Cells[0].Data = []byte{1, 2}
	f.Trees[0].Cells[1].Data = []byte{3, 4}
	f.Trees[1].Cells[0].Data = []byte{5, 6}

	_, data, err := Deflate(f, true)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, data)
}

func TestInflateLocalRoundTripsDeflate(t *testing.T) {
	f := buildSimpleForest(t)
	records, _, err := Deflate(f, false)
	require.NoError(t, err)

	pertree := []int64{0, 2, 3}
	got, err := InflateLocal(0, 1, GridConnectivity(2), f.Gfq, pertree, records, nil, InflateOptions{Dim: Dim2})
	require.NoError(t, err)

	require.Equal(t, 0, got.FirstLocalTree)
	require.Equal(t, 1, got.LastLocalTree)
	require.Len(t, got.Trees, 2)
	require.Equal(t, f.Trees[0].Cells, got.Trees[0].Cells)
	require.Equal(t, f.Trees[1].Cells, got.Trees[1].Cells)
}

func TestInflateLocalEmptyRankAllocatesEmptyTrees(t *testing.T) {
	gfq := []int64{0, 0, 3}
	pertree := []int64{0, 2, 3}
	got, err := InflateLocal(0, 2, GridConnectivity(2), gfq, pertree, nil, nil, InflateOptions{Dim: Dim2})
	require.NoError(t, err)
	require.Equal(t, -1, got.FirstLocalTree)
	require.Equal(t, -2, got.LastLocalTree)
	require.Len(t, got.Trees, 2)
	require.Empty(t, got.Trees[0].Cells)
	require.Empty(t, got.Trees[1].Cells)
}

func TestInflateLocalSplitsAcrossRepartition(t *testing.T) {
	f := buildSimpleForest(t)
	records, _, err := Deflate(f, false)
	require.NoError(t, err)
	pertree := []int64{0, 2, 3}

	// Repartition the same three records across two ranks: rank 0 gets
	// cells [0,2), rank 1 gets cell [2,3).
	gfq := []int64{0, 2, 3}
	rank0, err := InflateLocal(0, 2, GridConnectivity(2), gfq, pertree, records[:6], nil, InflateOptions{Dim: Dim2})
	require.NoError(t, err)
	rank1, err := InflateLocal(1, 2, GridConnectivity(2), gfq, pertree, records[6:], nil, InflateOptions{Dim: Dim2})
	require.NoError(t, err)

	require.Equal(t, 0, rank0.FirstLocalTree)
	require.Equal(t, 0, rank0.LastLocalTree)
	require.Len(t, rank0.Trees[0].Cells, 2)

	require.Equal(t, 1, rank1.FirstLocalTree)
	require.Equal(t, 1, rank1.LastLocalTree)
	require.Len(t, rank1.Trees[1].Cells, 1)
	require.Equal(t, f.Trees[1].Cells[0], rank1.Trees[1].Cells[0])
}

func TestInflateLocalRejectsMismatchedRecordCount(t *testing.T) {
	gfq := []int64{0, 3}
	pertree := []int64{0, 3}
	_, err := InflateLocal(0, 1, GridConnectivity(1), gfq, pertree, make([]int64, 5), nil, InflateOptions{Dim: Dim2})
	require.Error(t, err)
}

func TestInflateAllPublishesFirstDescendants(t *testing.T) {
	f := buildSimpleForest(t)
	records, _, err := Deflate(f, false)
	require.NoError(t, err)
	pertree := []int64{0, 2, 3}

	var published []Quadrant
	pub := publisherFunc(func(_ Sized, firstDescByRank []Quadrant) error {
		published = firstDescByRank
		return nil
	})

	forests, err := InflateAll(sizedN(1), GridConnectivity(2), f.Gfq, pertree, [][]int64{records}, nil, InflateOptions{Dim: Dim2}, pub)
	require.NoError(t, err)
	require.Len(t, forests, 1)
	require.Len(t, published, 1)
	require.Equal(t, forests[0].Trees[0].FirstDesc, published[0])
}

type publisherFunc func(world Sized, firstDescByRank []Quadrant) error

func (f publisherFunc) Publish(world Sized, firstDescByRank []Quadrant) error {
	return f(world, firstDescByRank)
}

type sizedN int

func (s sizedN) Size() int { return int(s) }
