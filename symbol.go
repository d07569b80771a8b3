package som

import "github.com/scigolib/som/internal/symtab"

// Symbol is the host-facing view of one SOM symbol (spec §4.4), whether
// read from an existing object's symbol table or attached to a
// write-side Object via AttachSymbol.
type Symbol struct {
	inner symtab.Symbol
}

// NewSymbol starts a fresh, write-side symbol named name with the given
// abstract type and scope. Further fields (value, arg-reloc bits,
// comdat/common flags) are set directly through the accessors below
// before the owning Object is attached via AttachSymbol.
func NewSymbol(name string, t symtab.Type, scope symtab.Scope) *Symbol {
	return &Symbol{inner: symtab.Symbol{Name: name, Type: t, Scope: scope, SubspaceIndex: -1}}
}

// Name returns the symbol's name.
func (s *Symbol) Name() string { return s.inner.Name }

// Type returns the symbol's abstract type.
func (s *Symbol) Type() symtab.Type { return s.inner.Type }

// SetType implements bfd_som_set_symbol_type (spec §6): it reclassifies
// a symbol's abstract type after construction, the way a host attaches
// SOM-specific type information BFD's generic symbol model has no slot
// for.
func (s *Symbol) SetType(t symtab.Type) { s.inner.Type = t }

// Scope returns the symbol's abstract visibility.
func (s *Symbol) Scope() symtab.Scope { return s.inner.Scope }

// SetScope changes the symbol's abstract visibility.
func (s *Symbol) SetScope(scope symtab.Scope) { s.inner.Scope = scope }

// Value returns the symbol's address, with any function-type privilege
// bits already masked off (spec §4.4).
func (s *Symbol) Value() uint32 { return s.inner.Value }

// SetValue sets the symbol's address.
func (s *Symbol) SetValue(v uint32) { s.inner.Value = v }

// Privilege returns the function-like symbol's privilege level (the low
// 2 bits SplitPrivilege recovered); meaningless for data symbols.
func (s *Symbol) Privilege() uint8 { return s.inner.Privilege }

// SetPrivilege sets the function-like symbol's privilege level.
func (s *Symbol) SetPrivilege(p uint8) { s.inner.Privilege = p }

// SubspaceIndex returns the subspace this symbol was placed in, or -1
// if unresolved (spec §4.4's section-placement rule).
func (s *Symbol) SubspaceIndex() int { return s.inner.SubspaceIndex }

// SetSubspaceIndex overrides the subspace a write-side symbol is placed
// in, bypassing the read-path placement heuristic.
func (s *Symbol) SetSubspaceIndex(idx int) { s.inner.SubspaceIndex = idx }

// IsCommon, IsComdat, and DupCommon mirror the corresponding
// SymbolRecord bits (spec §4.4); ArgReloc carries the packed argument
// relocation bits BFD keeps opaque.
func (s *Symbol) IsCommon() bool   { return s.inner.IsCommon }
func (s *Symbol) IsComdat() bool   { return s.inner.IsComdat }
func (s *Symbol) DupCommon() bool  { return s.inner.DupCommon }
func (s *Symbol) ArgReloc() uint16 { return s.inner.ArgReloc }

// SetFlags sets the common/comdat/dup-common bits and the packed
// argument-relocation value together.
func (s *Symbol) SetFlags(isCommon, isComdat, dupCommon bool, argReloc uint16) {
	s.inner.IsCommon = isCommon
	s.inner.IsComdat = isComdat
	s.inner.DupCommon = dupCommon
	s.inner.ArgReloc = argReloc
}

// IsLocalLabel reports whether the symbol's name follows the PA-RISC
// assembler's local-label convention (som_bfd_is_local_label_name); such
// symbols are compiler scratch labels a linker strips before emitting a
// final symbol table.
func (s *Symbol) IsLocalLabel() bool { return symtab.IsLocalLabelName(s.inner.Name) }
