package container

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleSubspace() Subspace {
	return Subspace{
		SpaceIndex:        1,
		FileLocInit:       0x1000,
		InitLength:        0x200,
		SubspaceStart:     0x4000,
		SubspaceLength:    0x200,
		Alignment:         8,
		Name:              48,
		FixupReqIndex:     3,
		FixupReqQty:       7,
		AccessControlBits: 0x5A,
		MemoryResident:    true,
		DupCommon:         false,
		IsCommon:          true,
		IsLoadable:        true,
		Quadrant:          2,
		InitiallyFrozen:   false,
		IsFirst:           true,
		CodeOnly:          true,
		SortKey:           0x7F,
		ReplicateInit:     false,
		Continuation:      true,
		IsTSpecific:       false,
		IsComdat:          true,
	}
}

func TestSubspaceEncodeDecodeBijection(t *testing.T) {
	s := sampleSubspace()
	buf := s.Encode()
	require.Len(t, buf, SubspaceSize)

	got, err := DecodeSubspace(buf)
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestSubspaceFixupReqQtyRoundTrips(t *testing.T) {
	s := sampleSubspace()
	s.FixupReqQty = 0xABCD
	buf := s.Encode()

	got, err := DecodeSubspace(buf)
	require.NoError(t, err)
	require.Equal(t, uint32(0xABCD), got.FixupReqQty)
}

func TestSubspaceDecodeTooShort(t *testing.T) {
	_, err := DecodeSubspace(make([]byte, SubspaceSize-1))
	require.Error(t, err)
}

func TestSubspaceFlagsRoundTripIndividually(t *testing.T) {
	cases := []Subspace{
		{},
		{MemoryResident: true},
		{DupCommon: true},
		{IsCommon: true},
		{IsLoadable: true},
		{InitiallyFrozen: true},
		{IsFirst: true},
		{CodeOnly: true},
		{ReplicateInit: true},
		{Continuation: true},
		{IsTSpecific: true},
		{IsComdat: true},
		{AccessControlBits: 0x7F},
		{Quadrant: 0x3},
		{SortKey: 0xFF},
	}
	for _, c := range cases {
		w := c.flagsWord()
		var got Subspace
		decodeSubspaceFlags(&got, w)
		require.Equal(t, c.AccessControlBits, got.AccessControlBits)
		require.Equal(t, c.MemoryResident, got.MemoryResident)
		require.Equal(t, c.DupCommon, got.DupCommon)
		require.Equal(t, c.IsCommon, got.IsCommon)
		require.Equal(t, c.IsLoadable, got.IsLoadable)
		require.Equal(t, c.Quadrant, got.Quadrant)
		require.Equal(t, c.InitiallyFrozen, got.InitiallyFrozen)
		require.Equal(t, c.IsFirst, got.IsFirst)
		require.Equal(t, c.CodeOnly, got.CodeOnly)
		require.Equal(t, c.SortKey, got.SortKey)
		require.Equal(t, c.ReplicateInit, got.ReplicateInit)
		require.Equal(t, c.Continuation, got.Continuation)
		require.Equal(t, c.IsTSpecific, got.IsTSpecific)
		require.Equal(t, c.IsComdat, got.IsComdat)
	}
}

func TestSubspaceIsAlignmentValid(t *testing.T) {
	require.True(t, Subspace{Alignment: 1}.IsAlignmentValid())
	require.True(t, Subspace{Alignment: 2}.IsAlignmentValid())
	require.True(t, Subspace{Alignment: 4096}.IsAlignmentValid())
	require.False(t, Subspace{Alignment: 0}.IsAlignmentValid())
	require.False(t, Subspace{Alignment: 3}.IsAlignmentValid())
	require.False(t, Subspace{Alignment: 6}.IsAlignmentValid())
}
