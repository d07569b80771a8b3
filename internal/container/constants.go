// Package container implements swap_in/swap_out for every on-file SOM
// record (spec §4.2): the file header, space and subspace dictionaries,
// the symbol record, the aux-header family, and the compilation unit.
// Each pair is a bijection on the in-range value set modulo reserved
// bits, which are forced to zero on encode and ignored on decode.
package container

// Magic values for the system id field — a CPU id passing the PA-RISC
// acceptance test (spec §6).
const (
	CPUPARisc10    = 0x20B
	CPUPARisc11    = 0x210
	CPUPARisc20    = 0x214
	CPUPARiscMaxID = 0x2FF
)

// IsPARiscSystemID reports whether id falls in the accepted PA-RISC range.
func IsPARiscSystemID(id uint32) bool {
	return id >= CPUPARisc10 && id <= CPUPARiscMaxID
}

// File magics accepted by the loader (spec §6). These select the header's
// Magic field and, combined with the exec aux header's presence, decide
// whether an object is relocatable, executable, shared, or a library
// shell pointing at a nested member.
const (
	MagicReloc   = 0x0106
	MagicExec    = 0x0107
	MagicShare   = 0x0108
	MagicDemand  = 0x010B
	MagicDL      = 0x010D
	MagicSHL     = 0x010E
	MagicExeclib = 0x0119
)

// acceptedMagics is the closed set §6 names.
var acceptedMagics = map[uint32]bool{
	MagicReloc:   true,
	MagicExec:    true,
	MagicShare:   true,
	MagicDemand:  true,
	MagicDL:      true,
	MagicSHL:     true,
	MagicExeclib: true,
}

// IsAcceptedMagic reports whether magic is one of the closed set of file
// magics this back-end recognizes.
func IsAcceptedMagic(magic uint32) bool {
	return acceptedMagics[magic]
}

// IsExecutableMagic reports whether magic implies a loadable/executable
// image (as opposed to a plain relocatable object), used by the symbol
// classifier's section-resolution rule (spec §4.4) and the loader's
// entry-point heuristic (spec §4.5).
func IsExecutableMagic(magic uint32) bool {
	switch magic {
	case MagicExec, MagicShare, MagicDemand, MagicDL, MagicSHL:
		return true
	default:
		return false
	}
}

// IsDynamicMagic reports whether magic is one of the dynamically loaded
// forms (spec §4.5's "not dynamic" check).
func IsDynamicMagic(magic uint32) bool {
	return magic == MagicDL || magic == MagicSHL
}

// Version ids (spec §3: "one of two constants").
const (
	VersionIDOld = 85082112
	VersionIDNew = 89753743
)

// Aux header types (spec §4.2).
const (
	AuxTypeVersion   = 6
	AuxTypeCopyright = 9
	AuxTypeExec      = 4
	AuxTypeCompiler  = 5 // not an aux_id record; see CompUnit
)

// LST archive constants (spec §6 and §4.7).
const (
	LSTMagic     = 0x0319   // LIBMAGIC
	LSTHashSize  = 31       // SOM_LST_HASH_SIZE
	LSTModuleMax = 1024     // archive symbol index module limit
	LSTMemberArName = "/              " // 16-byte padded archive member name
)

// DefaultSplitThreshold is the branch-range heuristic link_split_section
// uses (spec §4.8, Design Note (c)): subspaces larger than this are split
// at link time. It is a magic number in the original tool; this back-end
// exposes it as a configurable constant rather than hard-coding it only
// here (see the top-level package's SplitThreshold object option).
const DefaultSplitThreshold = 240000
