package meshfile

/**
 * SPDX-License-Identifier: Apache-2.0
 */

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// byteOrderMarker is the sentinel MarshalByteOrderMarker embeds so a reader
// can recover which byte order produced a file's numeric field payloads.
const byteOrderMarker uint32 = 0x01020304

// ErrWrongByteOrder is returned by DetectByteOrder when a four-byte region
// matches the sentinel under neither byte order: it is not a marker this
// package wrote at all.
var ErrWrongByteOrder = errors.New("meshfile: byte order marker is neither little nor big endian")

// MarshalByteOrderMarker returns the four-byte region a writer embeds ahead
// of any numeric field payload whose byte order a reader could not
// otherwise recover. The file format itself carries no endianness bit
// (spec.md §8); this is the writer-side half of a convention a header
// block's payload can opt into.
func MarshalByteOrderMarker(order binary.ByteOrder) []byte {
	buf := make([]byte, 4)
	order.PutUint32(buf, byteOrderMarker)
	return buf
}

// DetectByteOrder reports which byte order produced a four-byte marker
// written by MarshalByteOrderMarker.
func DetectByteOrder(marker []byte) (binary.ByteOrder, error) {
	if len(marker) != 4 {
		return nil, errors.Errorf("meshfile: byte order marker must be 4 bytes, got %d", len(marker))
	}
	if binary.LittleEndian.Uint32(marker) == byteOrderMarker {
		return binary.LittleEndian, nil
	}
	if binary.BigEndian.Uint32(marker) == byteOrderMarker {
		return binary.BigEndian, nil
	}
	return nil, ErrWrongByteOrder
}
