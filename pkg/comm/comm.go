// Package comm models the SPMD communicator that the rest of this module
// treats as an external collaborator (spec.md §6(a)-(c)): a fixed-size group
// of ranks, rank-0 mediation with uniform error broadcast, and collective
// all-ranks operations whose individual failures must be OR-reduced before
// any rank aborts.
//
// There is no cgo MPI binding in this tree. A World simulates the same
// group of ranks as goroutines inside one process, which keeps every
// collective-consistency invariant (identical cursor, identical error
// class on every rank) true without a platform-specific dependency.
package comm

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// World is a fixed-size group of simulated ranks.
type World struct {
	size int
}

// New returns a World of the given size. size must be at least 1.
func New(size int) (*World, error) {
	if size < 1 {
		return nil, errors.New("comm: world size must be at least 1")
	}
	return &World{size: size}, nil
}

// Size returns the number of ranks in the world.
func (w *World) Size() int {
	return w.size
}

// Rank0 runs fn as the computation that, per spec.md §4.E, only rank 0 may
// perform (metadata and padding I/O). The caller is responsible for
// broadcasting the resulting error with BroadcastError so every simulated
// rank observes the same outcome before continuing.
func (w *World) Rank0(fn func() error) error {
	return fn()
}

// BroadcastError replicates err (which may be nil) to a per-rank slice,
// implementing the "broadcast the rank-0 error class, every rank tests it"
// idiom from spec.md §4.E so callers never special-case rank 0 when
// deciding whether to abort.
func (w *World) BroadcastError(err error) []error {
	out := make([]error, w.size)
	for i := range out {
		out[i] = err
	}
	return out
}

// Broadcast replicates buf (computed on rank 0) to every rank.
func (w *World) Broadcast(buf []byte) [][]byte {
	out := make([][]byte, w.size)
	for i := range out {
		cp := make([]byte, len(buf))
		copy(cp, buf)
		out[i] = cp
	}
	return out
}

// Collective runs fn once per rank concurrently, waits for every rank, and
// returns the first non-nil error reported; the other ranks are not
// cancelled and their errors are dropped. Use this for operations where any
// single rank's failure means the whole step is meaningless (e.g. opening
// the same file on every rank).
func (w *World) Collective(fn func(rank int) error) error {
	g := new(errgroup.Group)
	for r := 0; r < w.size; r++ {
		r := r
		g.Go(func() error {
			return fn(r)
		})
	}
	return g.Wait()
}

// CollectiveAll runs fn once per rank concurrently and waits for every rank
// regardless of failure, returning the full per-rank result slice. This is
// the shape spec.md §4.E's "Count errors" rule needs: a partial read/write
// on one rank must not be masked by a fast-failing sibling, because the
// caller has to classify and OR-reduce every rank's outcome before
// choosing the uniform abort error class.
func (w *World) CollectiveAll(fn func(rank int) error) []error {
	out := make([]error, w.size)
	var wg sync.WaitGroup
	wg.Add(w.size)
	for r := 0; r < w.size; r++ {
		r := r
		go func() {
			defer wg.Done()
			out[r] = fn(r)
		}()
	}
	wg.Wait()
	return out
}

// AnyError reports whether any entry of errs is non-nil and returns the
// first one found, implementing the logical-OR all-reduce over rank error
// flags described in spec.md §4.E.
func AnyError(errs []error) (bool, error) {
	for _, e := range errs {
		if e != nil {
			return true, e
		}
	}
	return false, nil
}
