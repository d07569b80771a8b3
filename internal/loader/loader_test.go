package loader

import (
	"bytes"
	"testing"

	"github.com/scigolib/som/internal/container"
	"github.com/scigolib/som/internal/host"
	"github.com/stretchr/testify/require"
)

// layout lays out a header followed by an optional exec aux header, a
// space dictionary, and a subspace dictionary, patching the header's
// location/size fields to match, and returns the encoded bytes.
func layout(t *testing.T, h container.Header, exec *container.ExecAuxHeader, spaces []container.Space, subspaces []container.Subspace) []byte {
	t.Helper()

	off := uint32(container.HeaderSize)
	var buf []byte

	if exec != nil {
		h.AuxHeader = container.LocSize{Location: off, Size: uint32(container.AuxIDSize + container.ExecAuxHeaderBodySize)}
		buf = append(buf, exec.Encode()...)
		off += h.AuxHeader.Size
	}

	if len(spaces) > 0 {
		h.Space = container.LocSize{Location: off, Size: uint32(len(spaces)) * container.SpaceSize}
		for _, sp := range spaces {
			buf = append(buf, sp.Encode()...)
		}
		off += h.Space.Size
	}

	if len(subspaces) > 0 {
		h.Subspace = container.LocSize{Location: off, Size: uint32(len(subspaces)) * container.SubspaceSize}
		for _, ss := range subspaces {
			buf = append(buf, ss.Encode()...)
		}
		off += h.Subspace.Size
	}

	full := append(h.Encode(), buf...)
	return full
}

func validHeader(magic uint32) container.Header {
	return container.Header{
		SystemID: container.CPUPARisc20,
		Magic:    magic,
	}
}

func TestOpenRejectsBadSystemID(t *testing.T) {
	h := validHeader(container.MagicReloc)
	h.SystemID = 0
	data := layout(t, h, nil, nil, nil)

	_, err := Open(bytes.NewReader(data), nil)
	require.Error(t, err)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	h := validHeader(0xDEAD)
	data := layout(t, h, nil, nil, nil)

	_, err := Open(bytes.NewReader(data), nil)
	require.Error(t, err)
}

func TestOpenRejectsExeclibWithoutResolver(t *testing.T) {
	h := validHeader(container.MagicExeclib)
	data := layout(t, h, nil, nil, nil)

	_, err := Open(bytes.NewReader(data), nil)
	require.Error(t, err)
}

func TestOpenSynthesizesSubspaceSections(t *testing.T) {
	h := validHeader(container.MagicReloc)
	spaces := []container.Space{{SpaceNumber: 0, IsLoadable: true}}
	subspaces := []container.Subspace{
		{SpaceIndex: 0, SubspaceStart: 0x1000, SubspaceLength: 0x100, Alignment: 4, IsLoadable: true, AccessControlBits: 3 << 4},
		{SpaceIndex: 0, SubspaceStart: 0x1100, SubspaceLength: 0x50, Alignment: 8, IsLoadable: true, AccessControlBits: 0},
	}
	data := layout(t, h, nil, spaces, subspaces)

	obj, err := Open(bytes.NewReader(data), nil)
	require.NoError(t, err)
	require.Len(t, obj.Subspaces, 2)

	first := obj.Subspaces[0]
	require.Equal(t, uint64(0x1000), first.VMA)
	require.Equal(t, uint64(0x100), first.Size)
	require.Equal(t, uint32(2), first.Alignment) // log2(4)
	require.True(t, first.Flags.Has(host.FlagCode))
	require.True(t, first.Flags.Has(host.FlagAlloc|host.FlagLoad))

	second := obj.Subspaces[1]
	require.True(t, second.Flags.Has(host.FlagReadonly | host.FlagData))
}

func TestOpenRejectsNonPowerOfTwoAlignment(t *testing.T) {
	h := validHeader(container.MagicReloc)
	spaces := []container.Space{{SpaceNumber: 0}}
	subspaces := []container.Subspace{
		{SpaceIndex: 0, SubspaceStart: 0x1000, SubspaceLength: 0x10, Alignment: 3},
	}
	data := layout(t, h, nil, spaces, subspaces)

	_, err := Open(bytes.NewReader(data), nil)
	require.Error(t, err)
}

func TestSpaceSizePolicyRelocSumsSubspaceLengths(t *testing.T) {
	h := validHeader(container.MagicReloc)
	spaces := []container.Space{{SpaceNumber: 0}}
	subspaces := []container.Subspace{
		{SpaceIndex: 0, SubspaceStart: 0x1000, SubspaceLength: 0x100, Alignment: 4, FileLocInit: 10},
		{SpaceIndex: 0, SubspaceStart: 0x2000, SubspaceLength: 0x200, Alignment: 4, FileLocInit: 20},
	}
	data := layout(t, h, nil, spaces, subspaces)

	obj, err := Open(bytes.NewReader(data), nil)
	require.NoError(t, err)
	require.Len(t, obj.Spaces, 1)
	require.Equal(t, uint64(0x1000), obj.Spaces[0].VMA)
	require.Equal(t, uint64(0x300), obj.Spaces[0].Size)
}

func TestSpaceSizePolicyNonRelocUsesLastByFileLoc(t *testing.T) {
	h := validHeader(container.MagicExec)
	spaces := []container.Space{{SpaceNumber: 0}}
	subspaces := []container.Subspace{
		{SpaceIndex: 0, SubspaceStart: 0x1000, SubspaceLength: 0x100, Alignment: 4, FileLocInit: 20},
		{SpaceIndex: 0, SubspaceStart: 0x1200, SubspaceLength: 0x50, Alignment: 4, FileLocInit: 10},
	}
	data := layout(t, h, nil, spaces, subspaces)

	obj, err := Open(bytes.NewReader(data), nil)
	require.NoError(t, err)
	// last by FileLocInit is the first subspace (FileLocInit 20): size =
	// (0x1000 - 0x1000) + 0x100 = 0x100
	require.Equal(t, uint64(0x100), obj.Spaces[0].Size)
}

func TestSubspaceSectionsSortedByFileOrder(t *testing.T) {
	h := validHeader(container.MagicReloc)
	spaces := []container.Space{{SpaceNumber: 0}}
	subspaces := []container.Subspace{
		{SpaceIndex: 0, SubspaceStart: 0x2000, SubspaceLength: 0x10, Alignment: 4, FileLocInit: 200},
		{SpaceIndex: 0, SubspaceStart: 0x1000, SubspaceLength: 0x10, Alignment: 4, FileLocInit: 100},
	}
	data := layout(t, h, nil, spaces, subspaces)

	obj, err := Open(bytes.NewReader(data), nil)
	require.NoError(t, err)
	// obj.Subspaces preserves dictionary order; TargetIndex reflects the
	// sort by FileLocInit.
	require.Equal(t, 1, obj.Subspaces[0].TargetIndex) // FileLocInit 200, second in file order
	require.Equal(t, 0, obj.Subspaces[1].TargetIndex) // FileLocInit 100, first in file order
}

func TestResolveEntryPointUsesExecEntryWhenValid(t *testing.T) {
	h := validHeader(container.MagicExec)
	exec := &container.ExecAuxHeader{EntryAddr: 0x1004, Flags: 0x9999}
	spaces := []container.Space{{SpaceNumber: 0}}
	subspaces := []container.Subspace{
		{SpaceIndex: 0, SubspaceStart: 0x1000, SubspaceLength: 0x100, Alignment: 4, AccessControlBits: 3 << 4},
	}
	data := layout(t, h, exec, spaces, subspaces)

	obj, err := Open(bytes.NewReader(data), nil)
	require.NoError(t, err)
	require.False(t, obj.Entry.Swapped)
	require.Equal(t, uint64(0x1004), obj.Entry.Address)
}

func TestResolveEntryPointSwapsWhenEntryHasNoContainingCodeSection(t *testing.T) {
	h := validHeader(container.MagicExec)
	exec := &container.ExecAuxHeader{EntryAddr: 0x9000, Flags: 0x1004}
	spaces := []container.Space{{SpaceNumber: 0}}
	subspaces := []container.Subspace{
		{SpaceIndex: 0, SubspaceStart: 0x1000, SubspaceLength: 0x100, Alignment: 4, AccessControlBits: 3 << 4},
	}
	data := layout(t, h, exec, spaces, subspaces)

	obj, err := Open(bytes.NewReader(data), nil)
	require.NoError(t, err)
	require.True(t, obj.Entry.Swapped)
	require.Equal(t, uint64(0x1004), obj.Entry.Address)
	require.Equal(t, uint32(0x9000), obj.Entry.PrivateExecFlags)
}

func TestResolveEntryPointSwapsOnMisalignedEntry(t *testing.T) {
	h := validHeader(container.MagicExec)
	exec := &container.ExecAuxHeader{EntryAddr: 0x1001, Flags: 0x1004}
	spaces := []container.Space{{SpaceNumber: 0}}
	subspaces := []container.Subspace{
		{SpaceIndex: 0, SubspaceStart: 0x1000, SubspaceLength: 0x100, Alignment: 4, AccessControlBits: 3 << 4},
	}
	data := layout(t, h, exec, spaces, subspaces)

	obj, err := Open(bytes.NewReader(data), nil)
	require.NoError(t, err)
	require.True(t, obj.Entry.Swapped)
}
