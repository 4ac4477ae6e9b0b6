package meshfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vorteil/p4mesh/pkg/comm"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "mesh.p4data")
}

func TestCreateThenCloseProducesEmptyFile(t *testing.T) {
	path := tempPath(t)
	world, err := comm.New(1)
	require.NoError(t, err)

	ctx, err := Create(world, path, Dim2, "hello", 0, []int64{0, 0}, nil)
	require.NoError(t, err)
	require.NoError(t, ctx.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, 112, info.Size())
}

func TestWriteHeaderThenReadHeaderRoundTrip(t *testing.T) {
	path := tempPath(t)
	world, err := comm.New(1)
	require.NoError(t, err)

	ctx, err := Create(world, path, Dim2, "", 0, []int64{0, 0}, nil)
	require.NoError(t, err)

	payload := []byte("0123456789")
	require.NoError(t, ctx.WriteHeader(payload, ""))
	require.EqualValues(t, 1, ctx.NumCalls)
	require.NoError(t, ctx.Close())

	ctx2, err := OpenReadUnbound(world, path, nil)
	require.NoError(t, err)
	data, user, err := ctx2.ReadHeader()
	require.NoError(t, err)
	require.Equal(t, payload, data)
	require.Equal(t, "", user)
	require.NoError(t, ctx2.Close())
}

func TestWriteFieldTwoRanksScenario3(t *testing.T) {
	path := tempPath(t)
	world, err := comm.New(2)
	require.NoError(t, err)

	gfq := []int64{0, 3, 6}
	ctx, err := Create(world, path, Dim2, "", 6, gfq, nil)
	require.NoError(t, err)

	rank0 := []byte{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0}
	rank1 := []byte{2, 0, 0, 0, 2, 0, 0, 0, 2, 0, 0, 0}
	require.NoError(t, ctx.WriteField(4, "", [][]byte{rank0, rank1}))
	require.EqualValues(t, 64+24+8, ctx.AccessedBytes)
	require.NoError(t, ctx.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	want := append(append([]byte(nil), rank0...), rank1...)
	require.Equal(t, want, raw[112+64:112+64+24])
}

func TestReadFieldOnDifferentPartitionScenario4(t *testing.T) {
	path := tempPath(t)
	writeWorld, err := comm.New(2)
	require.NoError(t, err)
	ctx, err := Create(writeWorld, path, Dim2, "", 6, []int64{0, 3, 6}, nil)
	require.NoError(t, err)
	require.NoError(t, ctx.WriteField(4, "", [][]byte{
		{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0},
		{2, 0, 0, 0, 2, 0, 0, 0, 2, 0, 0, 0},
	}))
	require.NoError(t, ctx.Close())

	readWorld, err := comm.New(3)
	require.NoError(t, err)
	ctx2, err := OpenReadUnbound(readWorld, path, nil)
	require.NoError(t, err)

	bufs, _, err := ctx2.ReadField(4)
	require.NoError(t, err)
	require.Len(t, bufs, 3)
	require.Equal(t, []byte{1, 0, 0, 0, 1, 0, 0, 0}, bufs[0])
	require.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, bufs[1])
	require.Equal(t, []byte{2, 0, 0, 0, 2, 0, 0, 0}, bufs[2])
	require.NoError(t, ctx2.Close())
}

func TestOpenReadGlobalCountMismatchScenario5(t *testing.T) {
	path := tempPath(t)
	world, err := comm.New(1)
	require.NoError(t, err)
	ctx, err := Create(world, path, Dim2, "", 6, []int64{0, 6}, nil)
	require.NoError(t, err)
	require.NoError(t, ctx.Close())

	ctx2, err := OpenRead(world, path, 7, []int64{0, 7}, nil)
	require.Error(t, err)
	require.Nil(t, ctx2)
	merr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, ClassIO, merr.Class)
}

func TestInfoStopsAtTruncationScenario6(t *testing.T) {
	path := tempPath(t)
	world, err := comm.New(2)
	require.NoError(t, err)
	ctx, err := Create(world, path, Dim2, "", 6, []int64{0, 3, 6}, nil)
	require.NoError(t, err)
	require.NoError(t, ctx.WriteHeader([]byte("0123456789"), ""))
	require.NoError(t, ctx.WriteField(4, "", [][]byte{
		{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0},
		{2, 0, 0, 0, 2, 0, 0, 0, 2, 0, 0, 0},
	}))
	require.NoError(t, ctx.Close())

	require.NoError(t, os.Truncate(path, 200))

	ctx2, err := OpenReadUnbound(world, path, nil)
	require.NoError(t, err)
	blocks := ctx2.Info()
	require.Len(t, blocks, 1)
	require.Equal(t, BlockTypeHeader, blocks[0].Type)
	require.NoError(t, ctx2.Close())
}

func TestSkipHeaderAdvancesCursorWithoutPayload(t *testing.T) {
	path := tempPath(t)
	world, err := comm.New(1)
	require.NoError(t, err)
	ctx, err := Create(world, path, Dim2, "", 0, []int64{0, 0}, nil)
	require.NoError(t, err)
	require.NoError(t, ctx.WriteHeader([]byte("abcdefg"), "u"))
	require.NoError(t, ctx.Close())

	ctx2, err := OpenReadUnbound(world, path, nil)
	require.NoError(t, err)
	require.NoError(t, ctx2.SkipHeader())
	require.Equal(t, ctx.AccessedBytes, ctx2.AccessedBytes)
	require.NoError(t, ctx2.Close())
}
