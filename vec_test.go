package som

import (
	"bytes"
	"testing"

	"github.com/scigolib/som/internal/writer"
	"github.com/stretchr/testify/require"
)

func TestHppaSomVecCheckFormatDelegatesToOpen(t *testing.T) {
	h := validHeader()
	data := h.Encode()

	obj, err := HppaSomVec.CheckFormat(bytes.NewReader(data))
	require.NoError(t, err)
	defer obj.Close()
	require.Equal(t, h.SystemID, obj.Header().SystemID)
}

func TestHppaSomVecWriteContentsDelegatesToWriteTo(t *testing.T) {
	obj := NewObject(1, 1)
	space := obj.AddSpace("$TEXT$")
	_, err := obj.AddSubspace(space, "$CODE$", []byte{1, 2, 3, 4}, nil)
	require.NoError(t, err)

	path := t.TempDir() + "/a.o"
	_, err = HppaSomVec.WriteContents(obj, path, writer.ModeTruncate)
	require.NoError(t, err)
}
