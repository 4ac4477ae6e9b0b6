package meshfile

/**
 * SPDX-License-Identifier: Apache-2.0
 */

// PadFor16 is PadFor with the file format's fixed 16-byte alignment.
func PadFor16(length int) (int, []byte) {
	return PadFor(length, 16)
}

// PadFor computes the padding that follows a payload of the given length so
// that payload+pad lands on a divisor-byte boundary (spec.md §4.A). The
// result is never 0 or 1 byte: when the arithmetic remainder would produce
// one of those, a full extra block of padding is added so there is always
// room for the two bracketing newlines.
//
// The pad bytes are "\n" + (padLen-2) spaces + "\n" -- readable as blank
// lines when the file is opened in a text editor, and checkable by readers
// that only look at the first and last byte of the region.
func PadFor(length, divisor int) (int, []byte) {
	padLen := (divisor - length%divisor) % divisor
	if padLen == 0 || padLen == 1 {
		padLen += divisor
	}

	pad := make([]byte, padLen)
	pad[0] = '\n'
	for i := 1; i < padLen-1; i++ {
		pad[i] = ' '
	}
	pad[padLen-1] = '\n'

	return padLen, pad
}

// ValidPad reports whether pad has the shape PadFor produces: at least 2
// bytes, newline-bracketed, space-filled interior. It does not recompute
// the expected length from a payload size -- callers that know the payload
// length should also check padLen against PadFor's result.
func ValidPad(pad []byte) bool {
	if len(pad) < 2 {
		return false
	}
	if pad[0] != '\n' || pad[len(pad)-1] != '\n' {
		return false
	}
	for _, b := range pad[1 : len(pad)-1] {
		if b != ' ' {
			return false
		}
	}
	return true
}
