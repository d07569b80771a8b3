// Package symtab implements the bidirectional mapping between the
// host's abstract symbol view and the SOM symbol record's packed
// type/scope/arg-reloc/privilege encoding (spec §4.4).
package symtab

import "github.com/scigolib/som/internal/container"

// Type is the closed set of abstract symbol types a SOM symbol record
// classifies to and from (spec §3).
type Type int

const (
	TypeUnknown Type = iota
	TypeAbsolute
	TypeCode
	TypeData
	TypeEntry
	TypeMillicode
	TypePlabel
	TypePriProg
	TypeSecProg
	TypeStorage
	TypeStub
	TypeNull
	TypeSymExt
	TypeArgExt
)

// Scope is the closed set of abstract symbol visibilities.
type Scope int

const (
	ScopeLocal Scope = iota
	ScopeUndefined
	ScopeCommon
	ScopeExported
)

// somToAbstract maps every SOM-side symbol_type value to its abstract
// counterpart; values with no abstract counterpart (MODULE, OCT_DIS,
// MILLI_EXT, TSTORAGE, COMDAT) fold to TypeUnknown.
var somToAbstract = map[uint8]Type{
	container.SymTypeNull:      TypeNull,
	container.SymTypeAbsolute:  TypeAbsolute,
	container.SymTypeData:      TypeData,
	container.SymTypeCode:      TypeCode,
	container.SymTypePriProg:   TypePriProg,
	container.SymTypeSecProg:   TypeSecProg,
	container.SymTypeEntry:     TypeEntry,
	container.SymTypeStorage:   TypeStorage,
	container.SymTypeStub:      TypeStub,
	container.SymTypeSymExt:    TypeSymExt,
	container.SymTypeArgExt:    TypeArgExt,
	container.SymTypeMillicode: TypeMillicode,
	container.SymTypePlabel:    TypePlabel,
}

// abstractToSOM is the write-path inverse of somToAbstract.
var abstractToSOM = map[Type]uint8{
	TypeNull:      container.SymTypeNull,
	TypeAbsolute:  container.SymTypeAbsolute,
	TypeData:      container.SymTypeData,
	TypeCode:      container.SymTypeCode,
	TypePriProg:   container.SymTypePriProg,
	TypeSecProg:   container.SymTypeSecProg,
	TypeEntry:     container.SymTypeEntry,
	TypeStorage:   container.SymTypeStorage,
	TypeStub:      container.SymTypeStub,
	TypeSymExt:    container.SymTypeSymExt,
	TypeArgExt:    container.SymTypeArgExt,
	TypeMillicode: container.SymTypeMillicode,
	TypePlabel:    container.SymTypePlabel,
}

// AbstractType maps a SOM-side symbol_type value to its abstract Type.
func AbstractType(somType uint8) Type {
	if t, ok := somToAbstract[somType]; ok {
		return t
	}
	return TypeUnknown
}

// SOMType maps an abstract Type to its SOM-side symbol_type value. It
// panics on TypeUnknown, which the write path must never be asked to
// encode (a symbol must be classified before it reaches the writer).
func SOMType(t Type) uint8 {
	v, ok := abstractToSOM[t]
	if !ok {
		panic("symtab: SOMType called with an unclassifiable type")
	}
	return v
}

// AbstractScope maps a SOM-side symbol_scope value to the abstract
// visibility the host understands (spec §4.4: "EXTERNAL or UNSAT ->
// undefined/common; UNIVERSAL -> exported global; LOCAL -> local").
func AbstractScope(somScope uint8, isCommon bool) Scope {
	switch somScope {
	case container.SymScopeUniversal:
		return ScopeExported
	case container.SymScopeLocal:
		return ScopeLocal
	default: // SymScopeExternal, SymScopeUnsat
		if isCommon {
			return ScopeCommon
		}
		return ScopeUndefined
	}
}

// SOMScope is the write-path inverse of AbstractScope.
func SOMScope(s Scope) uint8 {
	switch s {
	case ScopeExported:
		return container.SymScopeUniversal
	case ScopeLocal:
		return container.SymScopeLocal
	case ScopeCommon, ScopeUndefined:
		return container.SymScopeExternal
	default:
		return container.SymScopeUnsat
	}
}

// privilegeMask is the low 2 bits of Value that carry a function-like
// symbol's privilege level (spec §4.4: "mask them off to recover the
// address").
const privilegeMask = 0x3

// SplitPrivilege separates a function-like symbol's Value into its
// privilege level and its real address, masking off the low 2 bits.
// Callers must check container.IsFunctionType(somType) first; the
// privilege level is meaningless for data symbols.
func SplitPrivilege(value uint32) (privilege uint8, address uint32) {
	return uint8(value & privilegeMask), value &^ privilegeMask
}

// MergePrivilege is the write-path inverse of SplitPrivilege.
func MergePrivilege(address uint32, privilege uint8) uint32 {
	return (address &^ privilegeMask) | uint32(privilege&privilegeMask)
}

// localLabelPrefix is the convention som_bfd_is_local_label_name uses
// to recognize compiler-generated labels that should never appear in a
// linked symbol table (spec §9, open question (b)).
const localLabelPrefix = "L$"

// IsLocalLabelName reports whether name follows the PA-RISC assembler's
// local-label convention. Unverified against a real HP assembler; kept
// exactly as specified.
func IsLocalLabelName(name string) bool {
	return len(name) >= len(localLabelPrefix) && name[:len(localLabelPrefix)] == localLabelPrefix
}
