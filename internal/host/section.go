// Package host stands in for the generic BFD-host collaborators spec §6
// declares external to this back-end: a generic section abstraction, an
// object-scoped allocation arena, and archive membership iteration. A
// real host supplies richer versions of these; this package gives the
// rest of the module something concrete to be built and tested against.
package host

// Flag is one bit of a Section's flag set (spec §4.5's derivation rule:
// access-control bits select READONLY/CODE/DATA, loadability selects
// ALLOC|LOAD vs DEBUGGING, comdat/common selects LINK_ONCE, fixup
// quantity selects RELOC).
type Flag uint32

const (
	FlagAlloc Flag = 1 << iota
	FlagLoad
	FlagReadonly
	FlagCode
	FlagData
	FlagDebugging
	FlagLinkOnce
	FlagReloc
)

// Has reports whether f includes every bit in want.
func (f Flag) Has(want Flag) bool { return f&want == want }

// Section is the host-facing view of one loaded region: either a space
// (a logical address region) or a subspace (a concrete byte range
// within one), both synthesized into the same shape by the loader
// (spec §4.5).
type Section struct {
	Name        string
	VMA         uint64
	Size        uint64
	Alignment   uint32
	Flags       Flag
	TargetIndex int // file order, renumbered after sort (spec §4.5)

	// SpaceIndex/SubspaceIndex name the originating container records,
	// -1 if not applicable (a space-level Section has no SubspaceIndex).
	SpaceIndex    int
	SubspaceIndex int
}
