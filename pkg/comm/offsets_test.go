package comm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePartitionAcceptsWellFormedVector(t *testing.T) {
	require.NoError(t, ValidatePartition([]int64{0, 3, 7, 10}, 3, 10))
}

func TestValidatePartitionRejectsWrongLength(t *testing.T) {
	require.Error(t, ValidatePartition([]int64{0, 3, 10}, 3, 10))
}

func TestValidatePartitionRejectsNonZeroStart(t *testing.T) {
	require.Error(t, ValidatePartition([]int64{1, 3, 10}, 2, 10))
}

func TestValidatePartitionRejectsNonMonotonic(t *testing.T) {
	require.Error(t, ValidatePartition([]int64{0, 5, 3}, 2, 3))
}

func TestValidatePartitionRejectsWrongTotal(t *testing.T) {
	require.Error(t, ValidatePartition([]int64{0, 3, 7}, 2, 10))
}

func TestLocalCountAndFieldOffset(t *testing.T) {
	gfq := []int64{0, 3, 7, 10}
	require.EqualValues(t, 3, LocalCount(gfq, 0))
	require.EqualValues(t, 4, LocalCount(gfq, 1))
	require.EqualValues(t, 3, LocalCount(gfq, 2))

	require.EqualValues(t, 0, FieldOffset(gfq, 0, 8))
	require.EqualValues(t, 24, FieldOffset(gfq, 1, 8))
	require.EqualValues(t, 56, FieldOffset(gfq, 2, 8))
}

func TestUniformPartitionDistributesRemainderToLowRanks(t *testing.T) {
	require.Equal(t, []int64{0, 3, 6, 9, 11, 13}, UniformPartition(13, 5))
	require.Equal(t, []int64{0, 0, 0}, UniformPartition(0, 2))
	require.Equal(t, []int64{0, 5}, UniformPartition(5, 1))
}
