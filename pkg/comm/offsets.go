package comm

import "github.com/pkg/errors"

// ValidatePartition checks the gfq invariants from spec.md §3: gfq[0] == 0,
// monotonic non-decreasing, and gfq[len(gfq)-1] == globalCount.
func ValidatePartition(gfq []int64, size int, globalCount int64) error {
	if len(gfq) != size+1 {
		return errors.Errorf("comm: partition vector has %d entries, want %d", len(gfq), size+1)
	}
	if gfq[0] != 0 {
		return errors.New("comm: partition vector must start at 0")
	}
	for i := 1; i < len(gfq); i++ {
		if gfq[i] < gfq[i-1] {
			return errors.New("comm: partition vector must be monotonic non-decreasing")
		}
	}
	if gfq[size] != globalCount {
		return errors.Errorf("comm: partition vector totals %d cells, want %d", gfq[size], globalCount)
	}
	return nil
}

// LocalCount returns the number of cells owned by rank under gfq.
func LocalCount(gfq []int64, rank int) int64 {
	return gfq[rank+1] - gfq[rank]
}

// FieldOffset returns the byte offset of rank's stripe within a field
// block's payload region, per spec.md §4.D's rank_offset = gfq[rank] *
// elem_size.
func FieldOffset(gfq []int64, rank int, elemSize int64) int64 {
	return gfq[rank] * elemSize
}

// UniformPartition computes the partition vector spec.md §4.D calls "the
// external convention" for unbound field reads: global cells divided as
// evenly as possible across size ranks, lower ranks absorbing the
// remainder one cell at a time.
func UniformPartition(globalCount int64, size int) []int64 {
	gfq := make([]int64, size+1)
	quotient := globalCount / int64(size)
	remainder := globalCount % int64(size)
	var acc int64
	for r := 0; r < size; r++ {
		acc += quotient
		if int64(r) < remainder {
			acc++
		}
		gfq[r+1] = acc
	}
	return gfq
}
