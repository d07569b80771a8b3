package archive

import (
	"testing"

	"github.com/scigolib/som/internal/ioutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLSTHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := LSTHeader{
		SystemID:     0x20c,
		Magic:        0x0319,
		VersionID:    1,
		FileTimeSec:  100,
		FileTimeNsec: 0,
		HashLoc:      LSTHeaderSize,
		HashSize:     31,
		ModuleLoc:    LSTHeaderSize + 31*4,
		ModuleCount:  2,
		StringLoc:    0,
		StringSize:   0,
	}
	buf := h.Encode()
	require.Len(t, buf, LSTHeaderSize)

	got, err := DecodeLSTHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h.SystemID, got.SystemID)
	assert.Equal(t, h.Magic, got.Magic)
	assert.Equal(t, h.HashLoc, got.HashLoc)
	assert.Equal(t, h.ModuleCount, got.ModuleCount)
	assert.True(t, ValidateLSTChecksum(buf))
}

func TestLSTHeaderChecksumDetectsCorruption(t *testing.T) {
	h := LSTHeader{Magic: 0x0319, HashSize: 31, ModuleCount: 1}
	buf := h.Encode()
	require.True(t, ValidateLSTChecksum(buf))

	buf[0] ^= 0xff
	assert.False(t, ValidateLSTChecksum(buf))
}

func TestModuleEntryEncodeDecodeRoundTrip(t *testing.T) {
	m := ModuleEntry{Location: 0xdeadbeef}
	buf := m.Encode()
	got, err := DecodeModuleEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestSymbolRecordEncodeDecodeRoundTrip(t *testing.T) {
	rec := SymbolRecord{
		NameOffset:  4,
		SymbolType:  7,
		SymbolScope: 3,
		SOMIndex:    1,
		SymbolInfo:  0x1234,
		SymbolValue: 0x5678,
		NextEntry:   72,
	}
	buf := rec.Encode()
	require.Len(t, buf, SymbolRecordSize)

	got, err := DecodeSymbolRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestHashOneCharName(t *testing.T) {
	got := Hash("x")
	c := uint32('x')
	assert.Equal(t, 0x01000100|(c<<16)|c, got)
}

func TestHashMultiCharName(t *testing.T) {
	name := "printf"
	got := Hash(name)
	n := len(name)
	want := (uint32(n)&0x7f)<<24 | uint32(name[1])<<16 | uint32(name[n-2])<<8 | uint32(name[n-1])
	assert.Equal(t, want, got)
}

func TestHashEmptyNameIsZero(t *testing.T) {
	assert.Equal(t, uint32(0), Hash(""))
}

func TestLSTHeaderEncodePutsChecksumLast(t *testing.T) {
	h := LSTHeader{Magic: 0x0319}
	buf := h.Encode()
	assert.NotEqual(t, uint32(0), ioutil.GetB32(buf[LSTHeaderSize-4:]))
}
