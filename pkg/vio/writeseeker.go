package vio

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"errors"
	"io"
)

// zeroFill is an io.Reader that never errors and fills any buffer handed to
// it with zero bytes -- used to emulate a forward seek over a writer that
// can't seek for itself.
type zeroFill struct{}

func (zeroFill) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	p[0] = 0
	for n := 1; n < len(p); n *= 2 {
		copy(p[n:], p[:n])
	}
	return len(p), nil
}

// writeSeeker adapts an io.Writer to io.WriteSeeker. When w is itself an
// io.Seeker the real Seek is used, with io.SeekStart offsets taken relative
// to the position recorded at construction time; otherwise forward seeks
// are emulated by writing zero bytes and backward seeks return an error.
// cmd/p4mesh's dump command uses this to place each rank's field stripe at
// its offset in the raw payload it writes out.
type writeSeeker struct {
	w      io.Writer
	native io.Seeker
	pos    int64
}

func (ws *writeSeeker) Write(p []byte) (int, error) {
	n, err := ws.w.Write(p)
	if ws.native == nil {
		ws.pos += int64(n)
	}
	return n, err
}

func (ws *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekCurrent:
		if ws.native != nil {
			return ws.native.Seek(offset, whence)
		}
		if offset < 0 {
			return 0, errors.New("vio: write seeker cannot seek backwards on a non-seekable writer")
		}
		n, err := io.CopyN(ws.w, zeroFill{}, offset)
		ws.pos += n
		return ws.pos, err
	case io.SeekStart:
		if ws.native != nil {
			n, err := ws.native.Seek(offset+ws.pos, whence)
			return n - ws.pos, err
		}
		return ws.Seek(offset-ws.pos, io.SeekCurrent)
	case io.SeekEnd:
		return 0, errors.New("vio: write seeker does not support io.SeekEnd")
	default:
		return 0, errors.New("vio: invalid whence")
	}
}

// WriteSeeker wraps w so its Seek calls work whether or not w natively
// supports seeking.
func WriteSeeker(w io.Writer) (io.WriteSeeker, error) {
	ws := &writeSeeker{w: w}
	if s, ok := w.(io.Seeker); ok {
		pos, err := s.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		ws.native = s
		ws.pos = pos
	}
	return ws, nil
}
