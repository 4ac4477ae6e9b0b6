package comm

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsNonPositiveSize(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)
	_, err = New(-1)
	require.Error(t, err)
}

func TestBroadcastErrorReplicatesToEveryRank(t *testing.T) {
	w, err := New(4)
	require.NoError(t, err)

	errs := w.BroadcastError(nil)
	ok, _ := AnyError(errs)
	require.False(t, ok)

	boom := errFoo("boom")
	errs = w.BroadcastError(boom)
	require.Len(t, errs, 4)
	for _, e := range errs {
		require.Equal(t, boom, e)
	}
	ok, got := AnyError(errs)
	require.True(t, ok)
	require.Equal(t, boom, got)
}

func TestCollectiveAllRunsEveryRankDespiteFailures(t *testing.T) {
	w, err := New(5)
	require.NoError(t, err)

	var calls int32
	errs := w.CollectiveAll(func(rank int) error {
		atomic.AddInt32(&calls, 1)
		if rank == 2 {
			return errFoo("rank 2 failed")
		}
		return nil
	})

	require.EqualValues(t, 5, calls)
	require.Len(t, errs, 5)
	for r, e := range errs {
		if r == 2 {
			require.Error(t, e)
		} else {
			require.NoError(t, e)
		}
	}
}

func TestCollectiveReturnsRankError(t *testing.T) {
	w, err := New(3)
	require.NoError(t, err)

	err = w.Collective(func(rank int) error {
		if rank == 1 {
			return errFoo("rank 1 failed")
		}
		return nil
	})
	require.Error(t, err)
}

func TestBroadcastCopiesBuffer(t *testing.T) {
	w, err := New(3)
	require.NoError(t, err)

	src := []byte("hello")
	copies := w.Broadcast(src)
	require.Len(t, copies, 3)
	for _, c := range copies {
		require.Equal(t, src, c)
	}

	src[0] = 'H'
	require.Equal(t, byte('h'), copies[0][0])
}

type errFoo string

func (e errFoo) Error() string { return string(e) }
