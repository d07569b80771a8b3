package archive

import (
	"io"

	"github.com/scigolib/som/internal/ioutil"
	"github.com/scigolib/som/internal/loader"
)

// Resolver implements loader.ExeclibResolver over one archive's LST:
// an EXECLIB shell names no directory index of its own in any field
// this module's header carries (spec.md is silent on exactly where
// "dir_loc" lives, and original_source/ is empty — see DESIGN.md), so
// this resolver follows the LST's module directory at a fixed entry —
// DirIndex, supplied by the caller, who knows which module in the
// archive the EXECLIB shell stands in for.
type Resolver struct {
	LST      *LST
	DirIndex uint32
}

var _ loader.ExeclibResolver = (*Resolver)(nil)

// ResolveExeclib follows the module directory entry at r.DirIndex to
// the file offset of the nested SOM header it names (spec §4.5, §4.7).
// headerOffset (the EXECLIB shell's own offset) is unused: the target
// is wholly determined by the directory entry, not by where the shell
// itself sits.
func (r *Resolver) ResolveExeclib(_ io.ReaderAt, _ uint64) (uint64, error) {
	if r.LST == nil || int(r.DirIndex) >= len(r.LST.Modules) {
		return 0, ioutil.WrapKind("archive: resolve execlib", ioutil.KindMalformedArchive, errNoResolverModule)
	}
	return r.LST.SOMHeaderOffset(r.DirIndex)
}
