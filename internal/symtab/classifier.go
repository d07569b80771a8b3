package symtab

import (
	"github.com/scigolib/som/internal/container"
	"github.com/scigolib/som/internal/reloc"
)

// Symbol is the host-facing view of one SOM symbol: a SymbolRecord's
// packed fields unpacked into the abstract vocabulary the classifier
// translates to and from (spec §4.4).
type Symbol struct {
	Name string

	Type  Type
	Scope Scope

	ArgReloc     uint16
	SecondaryDef bool
	IsCommon     bool
	DupCommon    bool
	IsComdat     bool

	Privilege uint8  // low 2 bits of Value for function-like types, else 0
	Value     uint32 // address, with privilege bits masked off

	// SubspaceIndex names the subspace this symbol is placed in, resolved
	// per spec §4.4's section-placement rule. -1 if unresolved (e.g. an
	// absolute or undefined symbol).
	SubspaceIndex int
}

// skipRecord reports whether rec is a continuation record consumed by a
// neighboring record rather than an independent symbol (spec §4.4:
// "skip records with type SYM_EXT or ARG_EXT").
func skipRecord(rec container.SymbolRecord) bool {
	return rec.SymbolType == container.SymTypeSymExt || rec.SymbolType == container.SymTypeArgExt
}

// sectionFinder abstracts the subspace list a Classify call resolves
// section placement against, keeping this package decoupled from the
// loader's host-section representation.
type sectionFinder struct {
	subspaces []container.Subspace
}

// bySymbolInfo resolves a subspace by the target index SymbolInfo names.
func (f sectionFinder) bySymbolInfo(target uint32) (int, bool) {
	if int(target) < 0 || int(target) >= len(f.subspaces) {
		return -1, false
	}
	return int(target), true
}

// byValueScan linearly scans subspaces for one whose VMA range contains
// value (spec §4.4: "linear-scan subspaces containing value in
// [vma, vma+size]"), used for function-like symbols in executable or
// dynamic objects.
func (f sectionFinder) byValueScan(value uint32) (int, bool) {
	for i, ss := range f.subspaces {
		lo := ss.SubspaceStart
		hi := lo + ss.SubspaceLength
		if value >= lo && value <= hi {
			return i, true
		}
	}
	return -1, false
}

// ReadSymbol classifies one on-disk SymbolRecord into its abstract form.
// subspaces is the object's subspace dictionary, used for section
// placement; execLike selects the value-scan placement rule the
// executable/dynamic magics use for code-entry-like types (spec §4.4).
// ReadSymbol reports ok=false for a continuation record the caller
// should silently skip.
func ReadSymbol(rec container.SymbolRecord, name string, subspaces []container.Subspace, execLike bool) (sym Symbol, ok bool) {
	if skipRecord(rec) {
		return Symbol{}, false
	}

	sym.Name = name
	sym.Type = AbstractType(rec.SymbolType)
	sym.Scope = AbstractScope(rec.SymbolScope, rec.IsCommon)
	sym.ArgReloc = rec.ArgReloc
	sym.SecondaryDef = rec.SecondaryDef
	sym.IsCommon = rec.IsCommon
	sym.DupCommon = rec.DupCommon
	sym.IsComdat = rec.IsComdat

	value := rec.Value
	if container.IsFunctionType(rec.SymbolType) {
		sym.Privilege, value = SplitPrivilege(value)
	}
	sym.Value = value

	finder := sectionFinder{subspaces: subspaces}
	sym.SubspaceIndex = -1
	if execLike && isEntryLike(rec.SymbolType) {
		if idx, found := finder.byValueScan(value); found {
			sym.SubspaceIndex = idx
		}
	} else if idx, found := finder.bySymbolInfo(rec.SymbolInfo); found {
		sym.SubspaceIndex = idx
	}

	return sym, true
}

// isEntryLike reports whether t is one of the function-entry types that
// resolve section placement by address scan rather than by recorded
// subspace index (spec §4.4).
func isEntryLike(t uint8) bool {
	switch t {
	case container.SymTypeEntry, container.SymTypePriProg,
		container.SymTypeSecProg, container.SymTypeMillicode:
		return true
	default:
		return false
	}
}

// WriteSymbol derives the on-disk SymbolRecord fields for sym. name is
// the symbol's offset into the (already-built) symbol string table.
func WriteSymbol(sym Symbol, name uint32) container.SymbolRecord {
	somType := SOMType(sym.Type)

	value := sym.Value
	if container.IsFunctionType(somType) {
		value = MergePrivilege(value, sym.Privilege)
	}

	return container.SymbolRecord{
		Name:         name,
		SymbolType:   somType,
		SymbolScope:  SOMScope(sym.Scope),
		ArgReloc:     sym.ArgReloc,
		Xleast:       3, // constant per spec §4.4's write-path derivation
		SecondaryDef: sym.SecondaryDef,
		IsCommon:     sym.IsCommon,
		DupCommon:    sym.DupCommon,
		SymbolInfo:   uint32(sym.SubspaceIndex),
		IsComdat:     sym.IsComdat,
		Value:        value,
	}
}

// relocationWeight counts how many index slots a relocation referencing
// a symbol costs against that symbol's hotness score. R_DP_RELATIVE and
// R_CODE_ONE_SYMBOL count twice; every other symbol-bearing class counts
// once (spec §4.4: "computed by a scan of all relocations, counting
// R_DP_RELATIVE/R_CODE_ONE_SYMBOL twice").
func relocationWeight(t reloc.Type) int {
	switch t {
	case reloc.TypeDPRelative, reloc.TypeCodeOneSymbol:
		return 2
	default:
		return 1
	}
}

// CountRelocationWeight tallies, per symbol index, the hotness weight
// every relocation referencing it contributes.
func CountRelocationWeight(relocs []reloc.Relocation) map[uint32]int {
	counts := make(map[uint32]int)
	for _, r := range relocs {
		if !r.HasSymbol {
			continue
		}
		counts[r.Symbol] += relocationWeight(r.Type)
	}
	return counts
}

// SortByRelocationCount returns the permutation of indices into symbols
// ordered by descending relocation weight (spec §4.4: "sorted by
// descending relocation-count... before emission, so that low symbol
// indices are used by hot symbols and the fixup stream shortens").
// Ties preserve the original relative order (a stable sort).
func SortByRelocationCount(symbols []Symbol, weights map[uint32]int) []int {
	order := make([]int, len(symbols))
	for i := range order {
		order[i] = i
	}
	stableSortDescending(order, func(i int) int { return weights[uint32(i)] })
	return order
}

// stableSortDescending is a small insertion sort; symbol tables in a
// single object are small enough that O(n^2) is not a concern, and
// insertion sort is trivially stable without extra bookkeeping.
func stableSortDescending(order []int, weight func(int) int) {
	for i := 1; i < len(order); i++ {
		key := order[i]
		kw := weight(key)
		j := i - 1
		for j >= 0 && weight(order[j]) < kw {
			order[j+1] = order[j]
			j--
		}
		order[j+1] = key
	}
}
