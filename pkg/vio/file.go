package vio

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"errors"
	"io"
	"os"
)

type lazyReadCloser struct {
	closed    bool
	r         io.Reader
	openFunc  func() (io.Reader, error)
	closeFunc func() error
}

func (rc *lazyReadCloser) Read(p []byte) (n int, err error) {
	if rc.closed {
		return 0, errors.New("lazy readcloser is closed")
	}

	if rc.r == nil {
		rc.r, err = rc.openFunc()
		if err != nil {
			return 0, err
		}
	}

	return rc.r.Read(p)
}

func (rc *lazyReadCloser) Close() error {
	if rc.closed {
		return errors.New("lazy readcloser already closed")
	}
	rc.closed = true
	return rc.closeFunc()
}

// LazyOpen stats path up front so a missing file fails immediately, but
// defers the actual os.Open -- and the file descriptor it holds -- until
// the first attempted read.
func LazyOpen(path string) (io.ReadCloser, error) {
	if _, err := os.Lstat(path); err != nil {
		return nil, err
	}

	var f *os.File
	rc := &lazyReadCloser{
		openFunc: func() (io.Reader, error) {
			var err error
			f, err = os.Open(path)
			return f, err
		},
		closeFunc: func() error {
			if f != nil {
				return f.Close()
			}
			return nil
		},
	}

	return rc, nil
}
