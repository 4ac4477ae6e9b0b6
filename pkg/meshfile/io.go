package meshfile

/**
 * SPDX-License-Identifier: Apache-2.0
 */

import (
	"io"

	"github.com/google/uuid"

	"github.com/vorteil/p4mesh/pkg/comm"
	"github.com/vorteil/p4mesh/pkg/elog"
)

// Create implements spec.md §4.D's create-for-write: open the file for
// write-create, have rank 0 emit the file header and its 16-byte
// alignment pad, and initialize every rank's cursor to zero. gfq is
// copied and owned by the returned context.
func Create(world *comm.World, path string, dim Dimension, userString string, globalNumCells int64, gfq []int64, log elog.View) (*Context, error) {
	if err := comm.ValidatePartition(gfq, world.Size(), globalNumCells); err != nil {
		return nil, IOErrorf("%s", err)
	}

	var f comm.RandomAccessFile
	openErr := world.Rank0(func() error {
		var err error
		f, err = comm.CreateFile(path)
		return err
	})
	if ok, e := comm.AnyError(world.BroadcastError(openErr)); ok {
		logFailure(log, e)
		return nil, Wrap(e)
	}

	hdr := &FileHeader{Dim: dim, UserString: userString, GlobalNumCells: globalNumCells}
	writeErr := world.Rank0(func() error {
		buf, err := hdr.MarshalBinary()
		if err != nil {
			return err
		}
		if _, err := f.WriteAt(buf, 0); err != nil {
			return err
		}
		_, pad := PadFor16(0)
		_, err = f.WriteAt(pad, int64(len(buf)))
		return err
	})
	if ok, e := comm.AnyError(world.BroadcastError(writeErr)); ok {
		_ = f.Close()
		logFailure(log, e)
		return nil, Wrap(e)
	}

	cp := make([]int64, len(gfq))
	copy(cp, gfq)

	return &Context{
		ID:             uuid.New(),
		World:          world,
		File:           f,
		Dim:            dim,
		GlobalNumCells: globalNumCells,
		partition:      Partition{Vec: cp, Owned: true},
		Log:            log,
	}, nil
}

// OpenRead implements spec.md §4.D's bound open-for-read: validate the
// file header against the caller's expected global cell count and borrow
// the forest's gfq rather than copying it.
func OpenRead(world *comm.World, path string, expectGlobalNumCells int64, borrowedGfq []int64, log elog.View) (*Context, error) {
	hdr, f, err := openAndReadHeader(world, path, log)
	if err != nil {
		return nil, err
	}

	if hdr.GlobalNumCells != expectGlobalNumCells {
		closeErr := world.Rank0(func() error { return f.Close() })
		_, _ = comm.AnyError(world.BroadcastError(closeErr))
		logFailure(log, IOErrorf("file records %d global cells, forest expects %d", hdr.GlobalNumCells, expectGlobalNumCells))
		return nil, IOErrorf("file records %d global cells, forest expects %d", hdr.GlobalNumCells, expectGlobalNumCells)
	}

	return &Context{
		ID:             uuid.New(),
		World:          world,
		File:           f,
		Dim:            hdr.Dim,
		GlobalNumCells: hdr.GlobalNumCells,
		partition:      Partition{Vec: borrowedGfq, Owned: false},
		Log:            log,
	}, nil
}

// OpenReadUnbound implements spec.md §4.D's unbound open-for-read: no gfq
// is captured. A later field read without a caller-supplied gfq computes
// and uses a uniform partition for that single call only.
func OpenReadUnbound(world *comm.World, path string, log elog.View) (*Context, error) {
	hdr, f, err := openAndReadHeader(world, path, log)
	if err != nil {
		return nil, err
	}

	return &Context{
		ID:             uuid.New(),
		World:          world,
		File:           f,
		Dim:            hdr.Dim,
		GlobalNumCells: hdr.GlobalNumCells,
		Log:            log,
	}, nil
}

func openAndReadHeader(world *comm.World, path string, log elog.View) (*FileHeader, comm.RandomAccessFile, error) {
	var f comm.RandomAccessFile
	var hdr FileHeader

	err := world.Rank0(func() error {
		var err error
		f, err = comm.OpenFileReadOnly(path)
		if err != nil {
			return err
		}
		buf := make([]byte, FileHeaderSize)
		n, err := f.ReadAt(buf, 0)
		if err != nil && err != io.EOF {
			return err
		}
		if n != FileHeaderSize {
			return CountError(FileHeaderSize, n)
		}
		return hdr.UnmarshalBinary(buf)
	})
	if ok, e := comm.AnyError(world.BroadcastError(err)); ok {
		if f != nil {
			_ = f.Close()
		}
		logFailure(log, e)
		return nil, nil, Wrap(e)
	}

	return &hdr, f, nil
}

func logFailure(log elog.View, err error) {
	if log != nil && err != nil {
		log.Errorf("meshfile: %s", err)
	}
}

func (c *Context) resolveGfq(override []int64) ([]int64, error) {
	if override != nil {
		return override, nil
	}
	if c.partition.Vec != nil {
		return c.partition.Vec, nil
	}
	return comm.UniformPartition(c.GlobalNumCells, c.World.Size()), nil
}

// WriteHeader implements spec.md §4.D's "Write header block": rank 0
// alone writes the block header, payload, and pad.
func (c *Context) WriteHeader(data []byte, userString string) error {
	if c.closed {
		return IOErrorf("context is closed")
	}

	off := c.headerOffset()
	padLen, pad := PadFor16(len(data))

	err := c.World.Rank0(func() error {
		bh := &BlockHeader{Type: BlockTypeHeader, Size: uint64(len(data)), UserString: userString}
		hb, err := bh.MarshalBinary()
		if err != nil {
			return err
		}
		if _, err := c.File.WriteAt(hb, off); err != nil {
			return err
		}
		if len(data) > 0 {
			if _, err := c.File.WriteAt(data, off+int64(BlockHeaderSize)); err != nil {
				return err
			}
		}
		_, err = c.File.WriteAt(pad, off+int64(BlockHeaderSize)+int64(len(data)))
		return err
	})
	if ok, e := comm.AnyError(c.World.BroadcastError(err)); ok {
		c.cleanup()
		return Wrap(e)
	}

	c.advance(len(data), padLen)
	return nil
}

// SkipHeader implements spec.md §4.D's "null payload" skip protocol for H
// blocks: validate the block type, advance the cursor, and return,
// without reading the payload at all.
func (c *Context) SkipHeader() error {
	bh, err := c.readBlockHeaderOnly()
	if err != nil {
		return err
	}
	if bh.Type != BlockTypeHeader {
		e := IOErrorf("expected H block, found %q", byte(bh.Type))
		c.cleanup()
		return e
	}
	padLen, _ := PadFor16(int(bh.Size))
	c.advance(int(bh.Size), padLen)
	return nil
}

// ReadHeader implements spec.md §4.D's "Read header block": rank 0 reads
// header, payload, and pad, validates them, and the payload is broadcast
// to every rank (trivial in this in-process model, since every rank
// shares the same Context).
func (c *Context) ReadHeader() ([]byte, string, error) {
	off := c.headerOffset()
	var data []byte
	var userString string

	err := c.World.Rank0(func() error {
		bh, rerr := c.readBlockHeaderAt(off)
		if rerr != nil {
			return rerr
		}
		if bh.Type != BlockTypeHeader {
			return IOErrorf("expected H block, found %q", byte(bh.Type))
		}

		data = make([]byte, bh.Size)
		if bh.Size > 0 {
			n, rerr := c.File.ReadAt(data, off+int64(BlockHeaderSize))
			if rerr != nil && rerr != io.EOF {
				return rerr
			}
			if uint64(n) != bh.Size {
				return CountError(int(bh.Size), n)
			}
		}

		if rerr := c.readAndValidatePad(off+int64(BlockHeaderSize)+int64(bh.Size), int(bh.Size)); rerr != nil {
			return rerr
		}

		userString = bh.UserString
		return nil
	})
	if ok, e := comm.AnyError(c.World.BroadcastError(err)); ok {
		c.cleanup()
		return nil, "", Wrap(e)
	}

	padLen, _ := PadFor16(len(data))
	c.advance(len(data), padLen)
	return data, userString, nil
}

// WriteField implements spec.md §4.D's "Write field block": rank 0 writes
// the block header, then every rank writes its own stripe collectively,
// then rank 0 writes the pad. perRank must have exactly World.Size()
// entries, each sized LocalCount(rank)*elemSize.
func (c *Context) WriteField(elemSize int64, userString string, perRank [][]byte) error {
	if c.closed {
		return IOErrorf("context is closed")
	}
	if len(perRank) != c.World.Size() {
		return newError(ClassArg, -1, IOErrorf("perRank has %d entries, want %d", len(perRank), c.World.Size()))
	}

	gfq, err := c.resolveGfq(nil)
	if err != nil {
		return err
	}
	if err := comm.ValidatePartition(gfq, c.World.Size(), c.GlobalNumCells); err != nil {
		return IOErrorf("%s", err)
	}
	for r, d := range perRank {
		want := comm.LocalCount(gfq, r) * elemSize
		if int64(len(d)) != want {
			return IOErrorf("rank %d field payload is %d bytes, want %d", r, len(d), want)
		}
	}

	off := c.headerOffset()
	headerErr := c.World.Rank0(func() error {
		bh := &BlockHeader{Type: BlockTypeField, Size: uint64(elemSize), UserString: userString}
		hb, err := bh.MarshalBinary()
		if err != nil {
			return err
		}
		_, err = c.File.WriteAt(hb, off)
		return err
	})
	if ok, e := comm.AnyError(c.World.BroadcastError(headerErr)); ok {
		c.cleanup()
		return Wrap(e)
	}

	payloadLen := int(c.GlobalNumCells * elemSize)
	var progress elog.Progress
	if c.Log != nil {
		progress = c.Log.NewProgress(userString, "KiB", int64(payloadLen))
	}

	payloadOff := off + int64(BlockHeaderSize)
	rankErrs := c.World.CollectiveAll(func(rank int) error {
		roff := payloadOff + comm.FieldOffset(gfq, rank, elemSize)
		n, err := c.File.WriteAt(perRank[rank], roff)
		if err != nil {
			return err
		}
		if n != len(perRank[rank]) {
			return CountError(len(perRank[rank]), n)
		}
		return nil
	})
	if ok, e := comm.AnyError(rankErrs); ok {
		if progress != nil {
			progress.Finish(false)
		}
		c.cleanup()
		return Wrap(e)
	}
	if progress != nil {
		progress.Increment(int64(payloadLen))
		progress.Finish(true)
	}

	padLen, pad := PadFor16(payloadLen)
	padErr := c.World.Rank0(func() error {
		_, err := c.File.WriteAt(pad, payloadOff+int64(payloadLen))
		return err
	})
	if ok, e := comm.AnyError(c.World.BroadcastError(padErr)); ok {
		c.cleanup()
		return Wrap(e)
	}

	c.advance(payloadLen, padLen)
	return nil
}

// SkipField implements the null-payload skip protocol for F blocks.
func (c *Context) SkipField() error {
	bh, err := c.readBlockHeaderOnly()
	if err != nil {
		return err
	}
	if bh.Type != BlockTypeField {
		e := IOErrorf("expected F block, found %q", byte(bh.Type))
		c.cleanup()
		return e
	}
	payloadLen := int(c.GlobalNumCells * int64(bh.Size))
	padLen, _ := PadFor16(payloadLen)
	c.advance(payloadLen, padLen)
	return nil
}

// ReadField implements spec.md §4.D's "Read field block" using the
// context's bound or borrowed partition vector (or a freshly computed
// uniform partition if neither is present).
func (c *Context) ReadField(elemSize int64) ([][]byte, string, error) {
	return c.ReadFieldExt(elemSize, nil)
}

// ReadFieldExt is ReadField with an explicit partition vector override,
// implementing spec.md §6's read_field_ext.
func (c *Context) ReadFieldExt(elemSize int64, gfqOverride []int64) ([][]byte, string, error) {
	gfq, err := c.resolveGfq(gfqOverride)
	if err != nil {
		return nil, "", err
	}
	if err := comm.ValidatePartition(gfq, c.World.Size(), c.GlobalNumCells); err != nil {
		return nil, "", IOErrorf("%s", err)
	}

	off := c.headerOffset()
	var bh *BlockHeader
	headerErr := c.World.Rank0(func() error {
		var rerr error
		bh, rerr = c.readBlockHeaderAt(off)
		if rerr != nil {
			return rerr
		}
		if bh.Type != BlockTypeField {
			return IOErrorf("expected F block, found %q", byte(bh.Type))
		}
		if int64(bh.Size) != elemSize {
			return IOErrorf("field element size %d does not match expected %d", bh.Size, elemSize)
		}
		return nil
	})
	if ok, e := comm.AnyError(c.World.BroadcastError(headerErr)); ok {
		c.cleanup()
		return nil, "", Wrap(e)
	}

	payloadLen := int(c.GlobalNumCells * elemSize)
	var progress elog.Progress
	if c.Log != nil {
		progress = c.Log.NewProgress(bh.UserString, "KiB", int64(payloadLen))
	}

	payloadOff := off + int64(BlockHeaderSize)
	buffers := make([][]byte, c.World.Size())
	rankErrs := c.World.CollectiveAll(func(rank int) error {
		n := comm.LocalCount(gfq, rank)
		buf := make([]byte, n*elemSize)
		roff := payloadOff + comm.FieldOffset(gfq, rank, elemSize)
		got, err := c.File.ReadAt(buf, roff)
		if err != nil && err != io.EOF {
			return err
		}
		if int64(got) != int64(len(buf)) {
			return CountError(len(buf), got)
		}
		buffers[rank] = buf
		return nil
	})
	if ok, e := comm.AnyError(rankErrs); ok {
		if progress != nil {
			progress.Finish(false)
		}
		c.cleanup()
		return nil, "", Wrap(e)
	}
	if progress != nil {
		progress.Increment(int64(payloadLen))
		progress.Finish(true)
	}

	padErr := c.World.Rank0(func() error {
		return c.readAndValidatePad(payloadOff+int64(payloadLen), payloadLen)
	})
	if ok, e := comm.AnyError(c.World.BroadcastError(padErr)); ok {
		c.cleanup()
		return nil, "", Wrap(e)
	}

	padLen, _ := PadFor16(payloadLen)
	c.advance(payloadLen, padLen)
	return buffers, bh.UserString, nil
}

func (c *Context) readBlockHeaderOnly() (*BlockHeader, error) {
	off := c.headerOffset()
	var bh *BlockHeader
	err := c.World.Rank0(func() error {
		var rerr error
		bh, rerr = c.readBlockHeaderAt(off)
		return rerr
	})
	if ok, e := comm.AnyError(c.World.BroadcastError(err)); ok {
		c.cleanup()
		return nil, Wrap(e)
	}
	return bh, nil
}

func (c *Context) readBlockHeaderAt(off int64) (*BlockHeader, error) {
	buf := make([]byte, BlockHeaderSize)
	n, err := c.File.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if n != BlockHeaderSize {
		return nil, CountError(BlockHeaderSize, n)
	}
	bh := new(BlockHeader)
	if err := bh.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	return bh, nil
}

func (c *Context) readAndValidatePad(off int64, payloadLen int) error {
	padLen, _ := PadFor16(payloadLen)
	pad := make([]byte, padLen)
	n, err := c.File.ReadAt(pad, off)
	if err != nil && err != io.EOF {
		return err
	}
	if n != padLen {
		return CountError(padLen, n)
	}
	if !ValidPad(pad) {
		return IOErrorf("malformed pad region at offset %d", off)
	}
	return nil
}

// BlockInfo describes one on-disk block for the "info" introspection
// operation (spec.md §6).
type BlockInfo struct {
	Type       BlockType
	Size       uint64
	UserString string
	PayloadLen int64
	PadLen     int
}

// Info walks every block from the current logical position forward,
// stopping (without error) at the first block whose header, payload, or
// pad cannot be fully read -- spec.md scenario 6's "reports the preceding
// blocks but stops at the truncation boundary without reporting the
// incomplete one".
func (c *Context) Info() []BlockInfo {
	var out []BlockInfo
	off := c.headerOffset()

	for {
		buf := make([]byte, BlockHeaderSize)
		n, err := c.File.ReadAt(buf, off)
		if err != nil || n != BlockHeaderSize {
			break
		}
		bh := new(BlockHeader)
		if err := bh.UnmarshalBinary(buf); err != nil {
			break
		}

		var payloadLen int64
		switch bh.Type {
		case BlockTypeHeader:
			payloadLen = int64(bh.Size)
		case BlockTypeField:
			payloadLen = c.GlobalNumCells * int64(bh.Size)
		}

		padLen, _ := PadFor16(int(payloadLen))
		total := int64(BlockHeaderSize) + payloadLen + int64(padLen)
		check := make([]byte, total-int64(BlockHeaderSize))
		n, err = c.File.ReadAt(check, off+int64(BlockHeaderSize))
		if err != nil || int64(n) != int64(len(check)) {
			break
		}
		if !ValidPad(check[len(check)-padLen:]) {
			break
		}

		out = append(out, BlockInfo{
			Type:       bh.Type,
			Size:       bh.Size,
			UserString: bh.UserString,
			PayloadLen: payloadLen,
			PadLen:     padLen,
		})
		off += total
	}

	return out
}
