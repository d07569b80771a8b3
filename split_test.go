package som

import (
	"testing"

	"github.com/scigolib/som/internal/container"
	"github.com/stretchr/testify/require"
)

func TestLinkSplitSectionUsesDefaultThreshold(t *testing.T) {
	obj := NewObject(1, 1)
	space := obj.AddSpace("$TEXT$")

	small, err := obj.AddSubspace(space, "$CODE1$", make([]byte, 100), nil)
	require.NoError(t, err)
	require.False(t, obj.LinkSplitSection(small))

	big, err := obj.AddSubspace(space, "$CODE2$", make([]byte, container.DefaultSplitThreshold+1), nil)
	require.NoError(t, err)
	require.True(t, obj.LinkSplitSection(big))
}

func TestLinkSplitSectionHonorsOverride(t *testing.T) {
	obj := NewObject(1, 1)
	obj.splitThreshold = 50
	space := obj.AddSpace("$TEXT$")

	sub, err := obj.AddSubspace(space, "$CODE$", make([]byte, 100), nil)
	require.NoError(t, err)
	require.True(t, obj.LinkSplitSection(sub))
}
