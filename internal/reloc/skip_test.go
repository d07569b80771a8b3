package reloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSkipCompressionFourByteGap(t *testing.T) {
	span, err := encodeSkipSpan(4)
	require.NoError(t, err)
	require.Equal(t, []byte{byte(opNoRelocShortBase + 3)}, span)
}

func TestSkipCompressionThreeConsecutiveGaps(t *testing.T) {
	// Three relocations at offsets 0, 4, 8 in a 12-byte subspace: each
	// 4-byte gap between them compresses to one single-byte opcode.
	for i := 0; i < 3; i++ {
		span, err := encodeSkipSpan(4)
		require.NoError(t, err)
		require.Len(t, span, 1)
		require.Equal(t, byte(opNoRelocShortBase+3), span[0])
	}
}

func TestSkipEncodeShortRangeBoundaries(t *testing.T) {
	span, err := encodeSkipSpan(1)
	require.NoError(t, err)
	require.Equal(t, []byte{byte(opNoRelocShortBase)}, span)

	span, err = encodeSkipSpan(24)
	require.NoError(t, err)
	require.Equal(t, []byte{byte(opNoRelocShortEnd)}, span)
}

func TestSkipEncodeMultipleOfFour(t *testing.T) {
	span, err := encodeSkipSpan(100)
	require.NoError(t, err)
	require.Equal(t, byte(opNoRelocMul4Base), span[0])
	require.Equal(t, []byte{24}, span[1:]) // (100/4 - 1) = 24, fits in 1 byte
}

func TestSkipEncodeExactNonMultipleOfFour(t *testing.T) {
	span, err := encodeSkipSpan(101)
	require.NoError(t, err)
	require.Equal(t, byte(opNoRelocExactBase), span[0])
	require.Equal(t, []byte{100}, span[1:]) // 101-1 = 100
}

func TestOversizedSkipUsesRepeatedMaxSkip(t *testing.T) {
	e := NewEncoder()
	require.NoError(t, e.emitGap(0x1800000))

	require.Equal(t, []byte{opNoRelocMax, 0xFF, 0xFF, 0xFF}, e.out[0:4])
	require.Equal(t, uint32(0x1800000), e.pos)

	// Remainder 0x800000 is a multiple of 4: (0x800000/4 - 1) = 0x1FFFFF,
	// fits in 3 bytes.
	rest := e.out[4:]
	require.Equal(t, byte(opNoRelocMul4Base+2), rest[0])
	require.Equal(t, []byte{0x1F, 0xFF, 0xFF}, rest[1:4])
}
