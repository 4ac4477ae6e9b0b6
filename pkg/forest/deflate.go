package forest

/**
 * SPDX-License-Identifier: Apache-2.0
 */

import "github.com/pkg/errors"

// Deflate implements spec.md §4.C's deflate operation: it flattens f's
// locally-present trees into a record array of (Dim+1) integers per cell
// -- coordinates followed by level, trees visited in ascending order,
// cells within a tree in their stored order -- and, if withData is true,
// a parallel byte array of each cell's user data.
//
// Neither returned array carries tree boundaries; the caller is
// responsible for carrying Gfq and a pertree array alongside them.
func Deflate(f *Forest, withData bool) ([]int64, []byte, error) {
	if !f.Dim.valid() {
		return nil, nil, errors.Errorf("forest: unsupported dimension %d", f.Dim)
	}
	if withData && f.DataSize <= 0 {
		return nil, nil, errors.New("forest: user data requested but forest has no DataSize")
	}

	width := f.Dim.recordWidth()
	local := f.LocalNumCells()

	records := make([]int64, 0, int64(width)*local)
	var data []byte
	if withData {
		data = make([]byte, 0, local*int64(f.DataSize))
	}

	for t := f.FirstLocalTree; t <= f.LastLocalTree; t++ {
		tree := f.Trees[t]
		for _, c := range tree.Cells {
			for d := 0; d < int(f.Dim); d++ {
				records = append(records, int64(c.Coords[d]))
			}
			records = append(records, int64(c.Level))

			if withData {
				if len(c.Data) != f.DataSize {
					return nil, nil, errors.Errorf("forest: cell user data is %d bytes, want %d", len(c.Data), f.DataSize)
				}
				data = append(data, c.Data...)
			}
		}
	}

	if int64(len(records)) != int64(width)*local {
		return nil, nil, errors.Errorf("forest: deflated %d records, want %d", len(records), int64(width)*local)
	}

	return records, data, nil
}
