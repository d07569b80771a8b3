package writer

import (
	"path/filepath"
	"testing"

	"github.com/scigolib/som/internal/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T) *FileWriter {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.o")
	fw, err := NewFileWriter(path, ModeTruncate, container.HeaderSize)
	require.NoError(t, err)
	t.Cleanup(func() { fw.Close() })
	return fw
}

func readBack(t *testing.T, fw *FileWriter, addr, size uint64) []byte {
	t.Helper()
	buf := make([]byte, size)
	_, err := fw.ReadAt(buf, int64(addr))
	require.NoError(t, err)
	return buf
}

func TestBeginFinishWritingRelocRoundTrip(t *testing.T) {
	fw := newTestWriter(t)

	in := &Input{
		Header: container.Header{
			SystemID: container.CPUPARisc20,
			Magic:    container.MagicReloc,
		},
		Spaces: []container.Space{{SpaceNumber: 0, IsLoadable: true}},
		Subspaces: []container.Subspace{
			{SpaceIndex: 0, SubspaceStart: 0x1000, Alignment: 4, IsLoadable: true, AccessControlBits: 3 << 4},
		},
		Contents:     [][]byte{{0xDE, 0xAD, 0xBE, 0xEF}},
		SpaceStrings: []byte("$TEXT$\x00"),
		Symbols: []container.SymbolRecord{
			{SymbolType: container.SymTypeCode, SymbolScope: container.SymScopeUniversal, Name: 0, Value: 0x1000},
		},
		SymbolStrings: []byte("foo\x00"),
		FixupStream:   []byte{0x20},
	}

	layout, err := BeginWriting(fw, in)
	require.NoError(t, err)

	h, err := FinishWriting(fw, layout, in)
	require.NoError(t, err)

	require.Equal(t, uint32(4), in.Subspaces[0].SubspaceLength)
	assert.NotZero(t, in.Subspaces[0].FileLocInit)

	hdrBuf := readBack(t, fw, 0, container.HeaderSize)
	assert.True(t, container.ValidateChecksum(hdrBuf))

	decoded, err := container.DecodeHeader(hdrBuf)
	require.NoError(t, err)
	assert.Equal(t, h.Symbol, decoded.Symbol)
	assert.Equal(t, h.SymbolStrings, decoded.SymbolStrings)
	assert.Equal(t, h.FixupRequest, decoded.FixupRequest)

	symBuf := readBack(t, fw, uint64(decoded.Symbol.Location), uint64(decoded.Symbol.Size))
	sym, err := container.DecodeSymbolRecord(symBuf)
	require.NoError(t, err)
	assert.Equal(t, uint8(container.SymTypeCode), sym.SymbolType)

	ssBuf := readBack(t, fw, uint64(decoded.Subspace.Location), uint64(decoded.Subspace.Size))
	ss, err := container.DecodeSubspace(ssBuf)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), ss.SubspaceLength)
	assert.Equal(t, in.Subspaces[0].FileLocInit, ss.FileLocInit)
}

func TestBeginWritingPageAlignsFirstLoadableSubspace(t *testing.T) {
	fw := newTestWriter(t)

	in := &Input{
		Header: container.Header{SystemID: container.CPUPARisc20, Magic: container.MagicReloc},
		Spaces: []container.Space{{SpaceNumber: 0, IsLoadable: true}},
		Subspaces: []container.Subspace{
			{SpaceIndex: 0, Alignment: 4, IsLoadable: true, AccessControlBits: 3 << 4},
			{SpaceIndex: 0, Alignment: 4, IsLoadable: true, AccessControlBits: 3 << 4},
		},
		Contents: [][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}},
	}

	_, err := BeginWriting(fw, in)
	require.NoError(t, err)

	assert.Equal(t, uint32(0), in.Subspaces[0].FileLocInit%PageSize)
	assert.Equal(t, in.Subspaces[0].FileLocInit+4, in.Subspaces[1].FileLocInit)
}

func TestFinishWritingRejectsTextRegionPastEOF(t *testing.T) {
	fw := newTestWriter(t)

	in := &Input{
		Header: container.Header{SystemID: container.CPUPARisc20, Magic: container.MagicExec},
		ExecAux: &container.ExecAuxHeader{
			ID:       container.AuxID{Type: container.AuxTypeExec, Length: container.ExecAuxHeaderBodySize},
			TextSize: 1 << 30, // deliberately larger than the file could ever be
		},
	}

	layout, err := BeginWriting(fw, in)
	require.NoError(t, err)

	_, err = FinishWriting(fw, layout, in)
	assert.Error(t, err)
}

func TestAdjustDataSizeRoundsUpAndShrinksBss(t *testing.T) {
	exec := &container.ExecAuxHeader{DataSize: PageSize + 10, BssSize: 5000}
	adjustDataSize(exec)
	assert.Equal(t, uint32(2*PageSize), exec.DataSize)
	assert.Equal(t, uint32(5000-(2*PageSize-(PageSize+10))), exec.BssSize)
}

func TestAdjustDataSizeClampsBssAtZero(t *testing.T) {
	exec := &container.ExecAuxHeader{DataSize: PageSize + 10, BssSize: 1}
	adjustDataSize(exec)
	assert.Equal(t, uint32(0), exec.BssSize)
}

func TestAdjustDataSizeNoOpWhenAlreadyAligned(t *testing.T) {
	exec := &container.ExecAuxHeader{DataSize: PageSize, BssSize: 50}
	adjustDataSize(exec)
	assert.Equal(t, uint32(PageSize), exec.DataSize)
	assert.Equal(t, uint32(50), exec.BssSize)
}
