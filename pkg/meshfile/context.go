package meshfile

/**
 * SPDX-License-Identifier: Apache-2.0
 */

import (
	"github.com/google/uuid"

	"github.com/vorteil/p4mesh/pkg/comm"
	"github.com/vorteil/p4mesh/pkg/elog"
)

// Partition is the file context's partition vector together with its
// ownership flag (spec.md §5 "Shared resources"): owned copies are freed
// when the context closes, borrowed ones belong to the caller's forest and
// must outlive the context.
type Partition struct {
	Vec   []int64
	Owned bool
}

// Context is the per-process handle spec.md §3 calls the "file context":
// the communicator, cell counts, partition vector, open file, logical
// cursor, and call counter, all identical across every rank at every call
// boundary (spec.md §3 invariants).
type Context struct {
	ID uuid.UUID

	World *comm.World
	File  comm.RandomAccessFile

	Dim            Dimension
	GlobalNumCells int64

	partition Partition

	AccessedBytes int64
	NumCalls      int64

	Log elog.View

	closed bool
}

func (c *Context) String() string {
	return "meshfile.Context<" + c.ID.String() + ">"
}

// Partition returns the context's partition vector. It is nil until the
// context has one bound, borrowed, or computed (spec.md §4.D's three open
// variants).
func (c *Context) Partition() []int64 {
	return c.partition.Vec
}

// headerOffset returns the absolute offset of the next block header.
func (c *Context) headerOffset() int64 {
	return int64(FileHeaderSize) + 16 + c.AccessedBytes
}

// advance implements the cursor discipline from spec.md §4.D: every
// successful block call adds payloadLen+BlockHeaderSize+padLen to
// AccessedBytes and increments NumCalls. Every rank must call this with
// the same arguments so AccessedBytes stays identical everywhere
// (spec.md §3 "All ranks observe identical accessed_bytes at every call
// boundary").
func (c *Context) advance(payloadLen, padLen int) {
	c.AccessedBytes += int64(BlockHeaderSize) + int64(payloadLen) + int64(padLen)
	c.NumCalls++
}

// Close releases the context: the file handle is closed, and the
// partition vector is released only if this context owns it (spec.md §5
// "Shared resources"). Exactly one Close call is permitted per
// successfully-created context; a failed open already releases everything
// on the caller's behalf, per spec.md §5 "Resource acquisition".
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.partition.Owned {
		c.partition.Vec = nil
	}
	if c.File == nil {
		return nil
	}
	if err := c.File.Close(); err != nil {
		return Wrap(err)
	}
	return nil
}

// cleanup is the uniform failure path described in spec.md §7
// "Propagation policy": close the file handle, release the context, and
// let the caller see class via the returned error. Every rank takes this
// path identically because the caller broadcasts the triggering error
// before calling it.
func (c *Context) cleanup() {
	_ = c.Close()
}
