package som

import (
	"fmt"

	"github.com/scigolib/som/internal/container"
)

// AttachAuxHeader implements bfd_som_attach_aux_hdr (spec §6): it
// records a string-valued auxiliary header a host wants written
// alongside the exec aux header. Only the version and copyright string
// aux types are supported, matching what the writer's BeginWriting
// emits; any other kind is rejected rather than silently dropped.
func (o *Object) AttachAuxHeader(kind int, s string) error {
	switch kind {
	case container.AuxTypeVersion:
		o.versionString = s
	case container.AuxTypeCopyright:
		o.copyrightString = s
	default:
		return fmt.Errorf("som: attach aux header: unsupported aux type %d", kind)
	}
	return nil
}

// AttachCompilationUnit implements bfd_som_attach_compilation_unit
// (spec §6), appending one entry to the object's compilers table. The
// four strings are interned into the same string table AddSpace and
// AddSubspace names share.
func (o *Object) AttachCompilationUnit(name, language, productID, versionID string) {
	o.compUnits = append(o.compUnits, container.CompUnit{
		Name:      o.internString(name),
		Language:  o.internString(language),
		ProductID: o.internString(productID),
		VersionID: o.internString(versionID),
	})
}
