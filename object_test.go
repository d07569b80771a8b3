package som

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/scigolib/som/internal/container"
	"github.com/scigolib/som/internal/reloc"
	"github.com/scigolib/som/internal/symtab"
	"github.com/scigolib/som/internal/writer"
	"github.com/stretchr/testify/require"
)

func TestAddSubspaceRejectsNonSpaceParent(t *testing.T) {
	obj := NewObject(container.CPUPARisc20, container.MagicReloc)
	space := obj.AddSpace("$TEXT$")
	sub, err := obj.AddSubspace(space, "$CODE$", []byte{1, 2, 3, 4}, nil)
	require.NoError(t, err)

	_, err = obj.AddSubspace(sub, "$NESTED$", nil, nil)
	require.ErrorIs(t, err, errNotASpace)
}

func TestWriteToProducesReadableObject(t *testing.T) {
	obj := NewObject(container.CPUPARisc20, container.MagicReloc)
	space := obj.AddSpace("$TEXT$")
	sub, err := obj.AddSubspace(space, "$CODE$", []byte{0xDE, 0xAD, 0xBE, 0xEF}, nil)
	require.NoError(t, err)
	require.False(t, sub.IsSpace())

	path := filepath.Join(t.TempDir(), "out.o")
	h, err := obj.WriteTo(path, writer.ModeTruncate)
	require.NoError(t, err)
	require.Equal(t, container.CPUPARisc20, int(h.SystemID))
	require.False(t, h.Subspace.Empty())

	reopened, err := OpenFile(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	secs := reopened.Sections()
	require.Len(t, secs, 2)
}

func TestWriteToEmitsSymbolsOrderedByRelocationWeight(t *testing.T) {
	obj := NewObject(container.CPUPARisc20, container.MagicReloc)
	space := obj.AddSpace("$TEXT$")
	sub, err := obj.AddSubspace(space, "$CODE$", bytes.Repeat([]byte{0}, 8),
		[]reloc.Relocation{{Offset: 0, Type: reloc.TypeDataOneSymbol, Symbol: 1, HasSymbol: true}})
	require.NoError(t, err)

	// cold_sym is attached first (pre-sort index 0, no relocations
	// reference it); hot_sym is attached second (pre-sort index 1, named
	// by the relocation above) and must sort to output position 0.
	cold := NewSymbol("cold_sym", symtab.TypeData, symtab.ScopeExported)
	hot := NewSymbol("hot_sym", symtab.TypeData, symtab.ScopeExported)
	obj.AttachSymbol(cold)
	obj.AttachSymbol(hot)

	records, strings := obj.buildSymbolTable()
	require.Len(t, records, 2)
	require.Equal(t, "hot_sym", cString(strings, records[0].Name))
	require.Equal(t, "cold_sym", cString(strings, records[1].Name))

	stream := obj.fixupStream[sub.rawSubspace.FixupReqIndex : sub.rawSubspace.FixupReqIndex+sub.rawSubspace.FixupReqQty]
	relocs, err := reloc.NewDecoder(stream, uint32(len(records))).Decode()
	require.NoError(t, err)
	require.Len(t, relocs, 1)
	require.EqualValues(t, 0, relocs[0].Symbol, "relocation must be remapped to hot_sym's new output index 0")
}

func TestRelocationsRejectsOutOfRangeIndex(t *testing.T) {
	h := validHeader()
	data := h.Encode()
	obj, err := Open(bytes.NewReader(data), nil)
	require.NoError(t, err)
	defer obj.Close()

	_, err = obj.Relocations(0)
	require.Error(t, err)
}

func TestSymbolsReturnsNilForEmptyTable(t *testing.T) {
	h := validHeader()
	data := h.Encode()
	obj, err := Open(bytes.NewReader(data), nil)
	require.NoError(t, err)
	defer obj.Close()

	syms, err := obj.Symbols()
	require.NoError(t, err)
	require.Nil(t, syms)
}
