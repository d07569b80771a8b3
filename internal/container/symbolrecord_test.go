package container

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleSymbolRecord() SymbolRecord {
	return SymbolRecord{
		Name:         128,
		SymbolType:   SymTypeEntry,
		SymbolScope:  SymScopeUniversal,
		ArgReloc:     0x3AA,
		Xleast:       2,
		SecondaryDef: true,
		IsCommon:     false,
		DupCommon:    true,
		SymbolInfo:   0x00ABCDEF,
		IsComdat:     true,
		Value:        0xDEADBEEF,
	}
}

func TestSymbolRecordEncodeDecodeBijection(t *testing.T) {
	s := sampleSymbolRecord()
	buf := s.Encode()
	require.Len(t, buf, SymbolRecordSize)

	got, err := DecodeSymbolRecord(buf)
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestSymbolRecordDecodeTooShort(t *testing.T) {
	_, err := DecodeSymbolRecord(make([]byte, SymbolRecordSize-1))
	require.Error(t, err)
}

func TestSymbolRecordFlagFieldsDoNotOverlap(t *testing.T) {
	base := SymbolRecord{SymbolType: 0x3F}
	w := base.flagsWord()
	var got SymbolRecord
	got.decodeFlagsWord(w)
	require.Equal(t, uint8(0x3F), got.SymbolType)
	require.Equal(t, uint8(0), got.SymbolScope)
	require.Equal(t, uint16(0), got.ArgReloc)

	base = SymbolRecord{ArgReloc: 0x3FF}
	w = base.flagsWord()
	got = SymbolRecord{}
	got.decodeFlagsWord(w)
	require.Equal(t, uint16(0x3FF), got.ArgReloc)
	require.Equal(t, uint8(0), got.SymbolType)
}

func TestIsFunctionType(t *testing.T) {
	require.True(t, IsFunctionType(SymTypeCode))
	require.True(t, IsFunctionType(SymTypeEntry))
	require.True(t, IsFunctionType(SymTypeMillicode))
	require.True(t, IsFunctionType(SymTypePlabel))
	require.False(t, IsFunctionType(SymTypeData))
	require.False(t, IsFunctionType(SymTypeAbsolute))
	require.False(t, IsFunctionType(SymTypeNull))
}
