package ioutil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockReaderAt struct {
	data []byte
	err  error
}

func (m *mockReaderAt) ReadAt(p []byte, off int64) (n int, err error) {
	if m.err != nil {
		return 0, m.err
	}
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func TestReadUint64(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00}
	r := &mockReaderAt{data: data}

	val, err := ReadUint64(r, 0, binary.BigEndian)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1000), val)
}

func TestReadUint64Errors(t *testing.T) {
	_, err := ReadUint64(&mockReaderAt{data: []byte{}, err: errors.New("boom")}, 0, binary.BigEndian)
	require.Error(t, err)

	_, err = ReadUint64(&mockReaderAt{data: []byte{1, 2, 3}}, 0, binary.BigEndian)
	require.Error(t, err)
}

func TestReadUint64WithBytesReader(t *testing.T) {
	data := []byte{0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0}
	val, err := ReadUint64(bytes.NewReader(data), 0, binary.BigEndian)
	require.NoError(t, err)
	require.Equal(t, binary.BigEndian.Uint64(data), val)
}

func TestGetPutB16(t *testing.T) {
	buf := make([]byte, 2)
	PutB16(buf, 0xCAFE)
	require.Equal(t, []byte{0xCA, 0xFE}, buf)
	require.Equal(t, uint16(0xCAFE), GetB16(buf))
}

func TestGetPutB32(t *testing.T) {
	buf := make([]byte, 4)
	PutB32(buf, 0xDEADBEEF)
	require.Equal(t, uint32(0xDEADBEEF), GetB32(buf))
}

func TestGetPutB64(t *testing.T) {
	buf := make([]byte, 8)
	PutB64(buf, 0x0102030405060708)
	require.Equal(t, uint64(0x0102030405060708), GetB64(buf))
}

func TestBitFieldPackUnpack(t *testing.T) {
	// symbol_type:6 at shift 26, scope:4 at shift 22 within a 32-bit flags word.
	symbolType := BitField{Shift: 26, Mask: 0x3F}
	scope := BitField{Shift: 22, Mask: 0xF}

	var word uint32
	word = symbolType.Pack(word, 0x15)
	word = scope.Pack(word, 0x3)

	require.Equal(t, uint32(0x15), symbolType.Unpack(word))
	require.Equal(t, uint32(0x3), scope.Unpack(word))
}

func TestBitFieldPackMasksOversizedValue(t *testing.T) {
	f := BitField{Shift: 0, Mask: 0x7}
	word := f.Pack(0, 0xFF)
	require.Equal(t, uint32(0x7), f.Unpack(word))
}

func TestBitFieldPackClearsPreviousValue(t *testing.T) {
	f := BitField{Shift: 4, Mask: 0xF}
	word := f.Pack(0xFFFFFFFF, 0x0)
	require.Equal(t, uint32(0), f.Unpack(word))
	require.Equal(t, uint32(0xFFFFFF0F), word)
}

func TestBoolPackUnpack(t *testing.T) {
	b := Bool{Shift: 5}
	word := b.Pack(0, true)
	require.True(t, b.Unpack(word))
	require.Equal(t, uint32(1<<5), word)

	word = b.Pack(word, false)
	require.False(t, b.Unpack(word))
	require.Equal(t, uint32(0), word)
}
