package reloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRelocs() []Relocation {
	return []Relocation{
		{Offset: 0, Type: TypeDPRelative, Symbol: 5, HasSymbol: true, Addend: 0},
		{Offset: 4, Type: TypeDataOneSymbol, Symbol: 7, HasSymbol: true, Addend: 42},
		{Offset: 8, Type: TypeCodeOneSymbol, Symbol: 300, HasSymbol: true, Addend: 0},
		{Offset: 12, Type: TypeEntry, Addend: 0x1040},
		{Offset: 16, Type: TypeExit, Addend: 7},
		{Offset: 20, Type: TypePCRelCall, Symbol: 9, HasSymbol: true, ArgReloc: 0x123, HasArgReloc: true},
	}
}

func TestFixupStreamRoundTrip(t *testing.T) {
	relocs := sampleRelocs()

	enc := NewEncoder()
	stream, err := enc.Encode(relocs)
	require.NoError(t, err)

	dec := NewDecoder(stream, 400)
	got, err := dec.Decode()
	require.NoError(t, err)

	require.Len(t, got, len(relocs))
	for i, want := range relocs {
		require.Equal(t, want.Offset, got[i].Offset, "reloc %d offset", i)
		require.Equal(t, want.Type, got[i].Type, "reloc %d type", i)
		require.Equal(t, want.HasSymbol, got[i].HasSymbol, "reloc %d has-symbol", i)
		if want.HasSymbol {
			require.Equal(t, want.Symbol, got[i].Symbol, "reloc %d symbol", i)
		}
		require.Equal(t, want.Addend, got[i].Addend, "reloc %d addend", i)
		require.Equal(t, want.HasArgReloc, got[i].HasArgReloc, "reloc %d has-arg-reloc", i)
		if want.HasArgReloc {
			require.Equal(t, want.ArgReloc, got[i].ArgReloc, "reloc %d arg-reloc", i)
		}
	}
}

func TestFixupStreamDeterministic(t *testing.T) {
	relocs := sampleRelocs()

	s1, err := NewEncoder().Encode(relocs)
	require.NoError(t, err)
	s2, err := NewEncoder().Encode(relocs)
	require.NoError(t, err)

	require.Equal(t, s1, s2)
}

func TestDecodeCountMatchesDecode(t *testing.T) {
	relocs := sampleRelocs()
	stream, err := NewEncoder().Encode(relocs)
	require.NoError(t, err)

	got, err := NewDecoder(stream, 400).Decode()
	require.NoError(t, err)

	count, err := NewDecoder(stream, 400).DecodeCount()
	require.NoError(t, err)

	require.Equal(t, len(got), count)
}

func TestQueueReuseEncodesAsPrevFixup(t *testing.T) {
	relocs := []Relocation{
		{Offset: 0, Type: TypeDPRelative, Symbol: 5, HasSymbol: true},
		{Offset: 8, Type: TypeDPRelative, Symbol: 5, HasSymbol: true},
	}
	enc := NewEncoder()
	stream, err := enc.Encode(relocs)
	require.NoError(t, err)

	// First DP_RELATIVE: opcode + 1-byte symbol index = 2 bytes, multi-byte
	// so it is queued at slot 0. The second, identical span, must collapse
	// to a single R_PREV_FIXUP+0 byte instead of repeating the 2 bytes.
	pair := symOpcodes[TypeDPRelative]
	firstSpan := []byte{pair[0], 5}
	idx := indexOfSubslice(stream, firstSpan)
	require.GreaterOrEqual(t, idx, 0)

	afterFirst := stream[idx+len(firstSpan):]
	// the gap opcode for offset 8-4(after first reloc's auto-advance)=4
	// precedes the prev-fixup byte; find the prev-fixup byte at the tail.
	require.Equal(t, byte(opPrevFixup0), afterFirst[len(afterFirst)-1])

	dec := NewDecoder(stream, 10)
	got, err := dec.Decode()
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, uint32(5), got[0].Symbol)
	require.Equal(t, uint32(5), got[1].Symbol)
	require.Equal(t, uint32(8), got[1].Offset)
}

func indexOfSubslice(haystack, needle []byte) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func TestDecodeRejectsDanglingPrevFixup(t *testing.T) {
	stream := []byte{opPrevFixup0}
	_, err := NewDecoder(stream, 10).Decode()
	require.Error(t, err)
}

func TestDecodeRejectsTruncatedStream(t *testing.T) {
	pair := symOpcodes[TypeDPRelative]
	stream := []byte{pair[1]} // dS= expects 4 more bytes, none present
	_, err := NewDecoder(stream, 10).Decode()
	require.Error(t, err)
}

func TestDecodeRejectsUnknownOpcode(t *testing.T) {
	stream := []byte{0xFF}
	_, err := NewDecoder(stream, 10).Decode()
	require.Error(t, err)
}

func TestDecodeRejectsSymbolOutOfRange(t *testing.T) {
	pair := symOpcodes[TypeDPRelative]
	stream := []byte{pair[0], 5}
	_, err := NewDecoder(stream, 3).Decode()
	require.Error(t, err)
}

func TestEncodeEmitsDataOverrideAheadOfSymbolBearingAddend(t *testing.T) {
	relocs := []Relocation{
		{Offset: 0, Type: TypeDataOneSymbol, Symbol: 7, HasSymbol: true, Addend: 42},
	}
	stream, err := NewEncoder().Encode(relocs)
	require.NoError(t, err)

	pair := symOpcodes[TypeDataOneSymbol]
	require.Equal(t, byte(opDataOverride1), stream[0], "shortest 1-byte override variant for addend 42")
	require.Equal(t, byte(42), stream[1])
	require.Equal(t, pair[0], stream[2], "relocation opcode follows the override")
}

func TestDataOneSymbolFallsBackToSectionContentsWhenVIsZero(t *testing.T) {
	relocs := []Relocation{
		{Offset: 4, Type: TypeDataOneSymbol, Symbol: 1, HasSymbol: true, Addend: 0},
	}
	stream, err := NewEncoder().Encode(relocs)
	require.NoError(t, err)

	contents := []byte{0, 0, 0, 0, 0xDE, 0xAD, 0xBE, 0xEF}
	got, err := NewDecoder(stream, 10, WithSectionContents(contents)).Decode()
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.EqualValues(t, 0xDEADBEEF, got[0].Addend)
}
