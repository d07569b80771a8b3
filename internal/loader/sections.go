package loader

import (
	"sort"

	"github.com/scigolib/som/internal/container"
	"github.com/scigolib/som/internal/host"
	"github.com/scigolib/som/internal/ioutil"
)

// subspaceFlags derives a host.Flag set from one subspace's packed bits
// (spec §4.5): access_control_bits>>4 selects readonly-data / data /
// readonly-code / code; loadability selects ALLOC|LOAD vs DEBUGGING;
// comdat/common/dup-common selects LINK_ONCE; a nonzero fixup quantity
// selects RELOC.
func subspaceFlags(ss container.Subspace) host.Flag {
	var f host.Flag

	switch ss.AccessControlBits >> 4 {
	case 0:
		f |= host.FlagReadonly | host.FlagData
	case 1:
		f |= host.FlagData
	case 3:
		f |= host.FlagCode
	default: // 2, 4, 5, 6, 7
		f |= host.FlagReadonly | host.FlagCode
	}

	if ss.IsLoadable {
		f |= host.FlagAlloc | host.FlagLoad
	} else {
		f |= host.FlagDebugging
	}
	if ss.IsComdat || ss.IsCommon || ss.DupCommon {
		f |= host.FlagLinkOnce
	}
	if ss.FixupReqQty > 0 {
		f |= host.FlagReloc
	}

	return f
}

// exactLog2 returns the power-of-two exponent of v, or false if v isn't
// an exact power of two (spec §4.5: "any non-power-of-two is a
// malformed-object error").
func exactLog2(v uint32) (uint32, bool) {
	if v == 0 || v&(v-1) != 0 {
		return 0, false
	}
	var log uint32
	for v > 1 {
		v >>= 1
		log++
	}
	return log, true
}

// buildSections synthesizes host sections from spaces and subspaces,
// filling obj.Spaces and obj.Subspaces in dictionary order; each
// subspace's TargetIndex records its rank in file order (spec §4.5).
func buildSections(obj *Object, h container.Header, spaces []container.Space, subspaces []container.Subspace, isReloc bool) error {
	obj.Subspaces = make([]*host.Section, len(subspaces))
	for i, ss := range subspaces {
		align, ok := exactLog2(ss.Alignment)
		if !ok {
			return ioutil.WrapKind("loader: build sections", ioutil.KindBadValue, errBadAlignment)
		}
		obj.Subspaces[i] = &host.Section{
			VMA:           uint64(ss.SubspaceStart),
			Size:          uint64(ss.SubspaceLength),
			Alignment:     align,
			Flags:         subspaceFlags(ss),
			SpaceIndex:    int(ss.SpaceIndex),
			SubspaceIndex: i,
			TargetIndex:   i,
		}
	}

	sortedByFileOrder := append([]*host.Section(nil), obj.Subspaces...)
	sort.SliceStable(sortedByFileOrder, func(i, j int) bool {
		return subspaces[sortedByFileOrder[i].SubspaceIndex].FileLocInit < subspaces[sortedByFileOrder[j].SubspaceIndex].FileLocInit
	})
	for newIndex, sec := range sortedByFileOrder {
		sec.TargetIndex = newIndex
	}

	obj.Spaces = make([]*host.Section, len(spaces))
	for i, sp := range spaces {
		own := subspacesOf(subspaces, i)
		size, vma := spaceSizePolicy(subspaces, own, isReloc)
		obj.Spaces[i] = &host.Section{
			VMA:        vma,
			Size:       size,
			SpaceIndex: i,
			Flags:      spaceFlags(sp),
		}
	}

	return nil
}

func spaceFlags(sp container.Space) host.Flag {
	var f host.Flag
	if sp.IsLoadable {
		f |= host.FlagAlloc | host.FlagLoad
	} else {
		f |= host.FlagDebugging
	}
	return f
}

// subspacesOf returns the indices into subspaces belonging to space
// spaceIndex.
func subspacesOf(subspaces []container.Subspace, spaceIndex int) []int {
	var idx []int
	for i, ss := range subspaces {
		if int(ss.SpaceIndex) == spaceIndex {
			idx = append(idx, i)
		}
	}
	return idx
}

// spaceSizePolicy computes a space's VMA and size from its subspaces
// (spec §4.5): for non-RELOC magics, size is
// (last_subspace.start - space.vma) + last_subspace.length, where "last"
// is the subspace with the greatest file_loc_init_value, and space.vma
// is taken as the lowest subspace start address in the space (the
// field §3 doesn't otherwise give a source for — see DESIGN.md). For
// RELOC, size is the sum of subspace lengths and vma is likewise the
// lowest start.
func spaceSizePolicy(subspaces []container.Subspace, own []int, isReloc bool) (size uint64, vma uint64) {
	if len(own) == 0 {
		return 0, 0
	}

	vma = uint64(subspaces[own[0]].SubspaceStart)
	for _, i := range own {
		if start := uint64(subspaces[i].SubspaceStart); start < vma {
			vma = start
		}
	}

	if isReloc {
		for _, i := range own {
			size += uint64(subspaces[i].SubspaceLength)
		}
		return size, vma
	}

	last := own[0]
	for _, i := range own {
		if subspaces[i].FileLocInit > subspaces[last].FileLocInit {
			last = i
		}
	}
	lastStart := uint64(subspaces[last].SubspaceStart)
	lastLen := uint64(subspaces[last].SubspaceLength)
	size = (lastStart - vma) + lastLen
	return size, vma
}

// containingCodeSection reports whether any subspace section with
// FlagCode set contains addr.
func containingCodeSection(subspaces []*host.Section, addr uint64) bool {
	for _, sec := range subspaces {
		if !sec.Flags.Has(host.FlagCode) {
			continue
		}
		if addr >= sec.VMA && addr < sec.VMA+sec.Size {
			return true
		}
	}
	return false
}

// resolveEntryPoint applies the known SOM entry-point quirk (spec
// §4.5): if exec_entry is zero (non-dynamic), misaligned, or names no
// containing code section, exec_flags is actually the start address
// and exec_entry belongs in the private exec flags instead.
func resolveEntryPoint(h container.Header, exec *container.ExecAuxHeader, subspaces []*host.Section) EntryPoint {
	if exec == nil {
		return EntryPoint{Address: uint64(h.EntryOffset)}
	}

	entry := exec.EntryAddr
	isDynamic := container.IsDynamicMagic(h.Magic)

	swapped := (!isDynamic && entry == 0) || entry&3 != 0 || !containingCodeSection(subspaces, uint64(entry))
	if !swapped {
		return EntryPoint{Address: uint64(entry)}
	}

	return EntryPoint{
		Address:          uint64(exec.Flags),
		Swapped:          true,
		PrivateExecFlags: entry,
	}
}
