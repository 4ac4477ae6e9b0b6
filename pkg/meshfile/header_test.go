package meshfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileHeaderRoundTrip(t *testing.T) {
	h := &FileHeader{
		Dim:            Dim2,
		Version:        "v0.1.0",
		UserString:     "hello",
		GlobalNumCells: 6,
	}

	buf, err := h.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, buf, FileHeaderSize)
	require.Equal(t, "p4data0\n", string(buf[:8]))
	require.Equal(t, byte('\n'), buf[len(buf)-17])
	require.Equal(t, "0000000000000006", string(buf[len(buf)-16:]))

	var got FileHeader
	require.NoError(t, got.UnmarshalBinary(buf))
	require.Equal(t, h.Dim, got.Dim)
	require.Equal(t, h.Version, got.Version)
	require.Equal(t, h.UserString, got.UserString)
	require.Equal(t, h.GlobalNumCells, got.GlobalNumCells)
}

func TestFileHeaderScenario1EmptyFile(t *testing.T) {
	h := &FileHeader{Dim: Dim2, Version: "", UserString: "hello", GlobalNumCells: 0}
	buf, err := h.MarshalBinary()
	require.NoError(t, err)

	_, pad := PadFor16(0)
	full := append(append([]byte(nil), buf...), pad...)

	require.Len(t, full, 112)
	require.Equal(t, "p4data0", string(full[:7]))
	require.Equal(t, byte('\n'), full[7])
	require.Equal(t, "0000000000000000", string(full[80:96]))
	require.Equal(t, byte('\n'), full[96])
	require.Equal(t, byte('\n'), full[111])
	for _, b := range full[97:111] {
		require.Equal(t, byte(' '), b)
	}
}

func TestFileHeaderRejectsWrongMagic(t *testing.T) {
	h := &FileHeader{Dim: Dim2, GlobalNumCells: 0}
	buf, err := h.MarshalBinary()
	require.NoError(t, err)

	buf[0] = 'x'
	var got FileHeader
	err = got.UnmarshalBinary(buf)
	require.Error(t, err)
	require.Equal(t, ClassIO, err.(*Error).Class)
}

func TestFileHeaderRejectsMissingNewlines(t *testing.T) {
	h := &FileHeader{Dim: Dim3, GlobalNumCells: 0}
	buf, err := h.MarshalBinary()
	require.NoError(t, err)

	for _, off := range []int{magicLen, magicLen + 1 + versionLen, magicLen + 1 + versionLen + 1 + userStringLen} {
		tampered := append([]byte(nil), buf...)
		tampered[off] = 'x'
		var got FileHeader
		require.Error(t, got.UnmarshalBinary(tampered))
	}
}

func TestBlockHeaderRoundTripScenario2(t *testing.T) {
	bh := &BlockHeader{Type: BlockTypeHeader, Size: 10, UserString: ""}
	buf, err := bh.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, buf, 64)
	require.Equal(t, "H ", string(buf[:2]))
	require.Equal(t, "0000000000010", string(buf[2:15]))
	require.Equal(t, byte('\n'), buf[15])
	require.Equal(t, byte('\n'), buf[63])

	var got BlockHeader
	require.NoError(t, got.UnmarshalBinary(buf))
	require.Equal(t, *bh, got)

	payloadLen := 10
	padLen, _ := PadFor16(payloadLen)
	require.GreaterOrEqual(t, padLen, 2)
	require.LessOrEqual(t, padLen, 17)
	require.Zero(t, (payloadLen+padLen)%16)
}

func TestBlockHeaderRejectsBadType(t *testing.T) {
	bh := &BlockHeader{Type: 'Z', Size: 1}
	_, err := bh.MarshalBinary()
	require.Error(t, err)
}

func TestBlockHeaderRejectsCorruptSizeField(t *testing.T) {
	bh := &BlockHeader{Type: BlockTypeField, Size: 4, UserString: "u"}
	buf, err := bh.MarshalBinary()
	require.NoError(t, err)

	buf[5] = 'x'
	var got BlockHeader
	require.Error(t, got.UnmarshalBinary(buf))
}
