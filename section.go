package som

import (
	"errors"

	"github.com/scigolib/som/internal/container"
	"github.com/scigolib/som/internal/host"
)

var errNotASpace = errors.New("som: operation valid only on a space-level section")
var errNotASubspace = errors.New("som: operation valid only on a subspace-level section")

// Section is the host-facing view of one space or subspace (spec §4.5):
// either synthesized by Open from an existing object's dictionaries, or
// created fresh by Object.AddSpace/AddSubspace for a write-side Object.
type Section struct {
	host *host.Section

	isSpace     bool
	rawSpace    container.Space
	rawSubspace container.Subspace
}

// Name returns the name AddSpace/AddSubspace gave the section. Sections
// synthesized by Open have an empty name: the loader does not resolve
// names against the space string table.
func (s *Section) Name() string { return s.host.Name }

// VMA returns the section's virtual start address.
func (s *Section) VMA() uint64 { return s.host.VMA }

// Size returns the section's byte size.
func (s *Section) Size() uint64 { return s.host.Size }

// Flags returns the section's derived host.Flag bitmask.
func (s *Section) Flags() host.Flag { return s.host.Flags }

// IsSpace reports whether this Section represents a space (as opposed
// to a subspace within one).
func (s *Section) IsSpace() bool { return s.isSpace }

// TargetIndex returns the section's file-order position (spec §4.5:
// subspaces are sorted by on-file order and renumbered).
func (s *Section) TargetIndex() int { return s.host.TargetIndex }

// SetAttributes implements bfd_som_set_section_attributes (spec §6): it
// records the space-level is_defined/is_private/sort_key/space_number
// fields a host attaches before writing. Valid only on a space-level
// Section.
func (s *Section) SetAttributes(defined, private bool, sortKey uint8, spaceNumber uint32) error {
	if !s.isSpace {
		return errNotASpace
	}
	s.rawSpace.IsDefined = defined
	s.rawSpace.IsPrivate = private
	s.rawSpace.SortKey = sortKey
	s.rawSpace.SpaceNumber = spaceNumber
	return nil
}

// SetSubsectionAttributes implements bfd_som_set_subsection_attributes
// (spec §6): the subspace-level access-control, sort key, quadrant, and
// comdat/common/dup-common bits. containingSpaceIndex names the space
// this subspace belongs to. Valid only on a subspace-level Section.
func (s *Section) SetSubsectionAttributes(containingSpaceIndex uint32, accessControl, sortKey, quadrant uint8, comdat, common, dupCommon bool) error {
	if s.isSpace {
		return errNotASubspace
	}
	s.rawSubspace.SpaceIndex = containingSpaceIndex
	s.rawSubspace.AccessControlBits = accessControl
	s.rawSubspace.SortKey = sortKey
	s.rawSubspace.Quadrant = quadrant
	s.rawSubspace.IsComdat = comdat
	s.rawSubspace.IsCommon = common
	s.rawSubspace.DupCommon = dupCommon
	return nil
}

// Space returns the decoded Space record backing this Section. Only
// meaningful when IsSpace reports true.
func (s *Section) Space() container.Space { return s.rawSpace }

// Subspace returns the decoded Subspace record backing this Section.
// Only meaningful when IsSpace reports false.
func (s *Section) Subspace() container.Subspace { return s.rawSubspace }
