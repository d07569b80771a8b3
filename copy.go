package som

// CopyPrivateBFDData implements copy_private_bfd_data (spec §4.8, §6):
// it transfers the private, SOM-specific fields a generic host's copy
// has no slot for — the exec aux header and the version/copyright
// strings and compilation units attached via AttachAuxHeader and
// AttachCompilationUnit.
func CopyPrivateBFDData(src, dst *Object) error {
	if src.execAux != nil {
		auxCopy := *src.execAux
		dst.execAux = &auxCopy
	}
	dst.versionString = src.versionString
	dst.copyrightString = src.copyrightString
	dst.compUnits = append(dst.compUnits[:0], src.compUnits...)
	return nil
}

// CopySectionData implements copy_private_bfd_data_section (spec §4.8,
// §6): it transfers a space/subspace's private attribute fields (the
// ones SetAttributes/SetSubsectionAttributes set) between two Sections
// of the same kind.
func CopySectionData(src, dst *Section) error {
	if src.isSpace != dst.isSpace {
		return errNotASpace
	}
	if src.isSpace {
		dst.rawSpace = src.rawSpace
	} else {
		dst.rawSubspace = src.rawSubspace
	}
	return nil
}

// CopySymbolData implements copy_private_bfd_data_symbol (spec §4.8,
// §6): it copies every field of src's symbol onto dst — type, scope,
// comdat/common bits, arg-reloc value, and also the value and section
// placement — leaving only dst's name untouched.
func CopySymbolData(src, dst *Symbol) error {
	name := dst.inner.Name
	dst.inner = src.inner
	dst.inner.Name = name
	return nil
}
