package symtab

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAbstractTypeRoundTrip(t *testing.T) {
	for _, ty := range []Type{
		TypeAbsolute, TypeCode, TypeData, TypeEntry, TypeMillicode,
		TypePlabel, TypePriProg, TypeSecProg, TypeStorage, TypeStub,
		TypeNull, TypeSymExt, TypeArgExt,
	} {
		som := SOMType(ty)
		require.Equal(t, ty, AbstractType(som), "type %v", ty)
	}
}

func TestAbstractTypeUnknownForUnmappedValue(t *testing.T) {
	require.Equal(t, TypeUnknown, AbstractType(255))
	require.Equal(t, TypeUnknown, AbstractType(9)) // ST_MODULE
}

func TestSOMTypePanicsOnUnknown(t *testing.T) {
	require.Panics(t, func() { SOMType(TypeUnknown) })
}

func TestAbstractScopeMapping(t *testing.T) {
	require.Equal(t, ScopeExported, AbstractScope(3 /* universal */, false))
	require.Equal(t, ScopeLocal, AbstractScope(2 /* local */, false))
	require.Equal(t, ScopeUndefined, AbstractScope(0 /* unsat */, false))
	require.Equal(t, ScopeCommon, AbstractScope(1 /* external */, true))
	require.Equal(t, ScopeUndefined, AbstractScope(1 /* external */, false))
}

func TestSOMScopeRoundTripsForRealScopes(t *testing.T) {
	require.Equal(t, uint8(3), SOMScope(ScopeExported))
	require.Equal(t, uint8(2), SOMScope(ScopeLocal))
}

func TestSplitAndMergePrivilege(t *testing.T) {
	priv, addr := SplitPrivilege(0x1003)
	require.Equal(t, uint8(3), priv)
	require.Equal(t, uint32(0x1000), addr)

	require.Equal(t, uint32(0x1003), MergePrivilege(0x1000, 3))
}

func TestIsLocalLabelName(t *testing.T) {
	require.True(t, IsLocalLabelName("L$0012"))
	require.True(t, IsLocalLabelName("L$"))
	require.False(t, IsLocalLabelName("L"))
	require.False(t, IsLocalLabelName("main"))
}
