package writer

import (
	"fmt"

	"github.com/scigolib/som/internal/container"
)

// PageSize is the alignment boundary the loadable/unloadable subspace
// groups are padded to (spec §4.6: "page-aligned on exec/dynamic").
const PageSize = 4096

// Input is everything begin_writing/finish_writing need to lay out one
// object file. The caller fills in every field the header's
// corresponding region should carry; fields left nil/empty are written
// as the header's (0,0) absent-region sentinel.
type Input struct {
	Header container.Header // SystemID, Magic, VersionID, FileTime*, Entry* pre-filled by the caller

	ExecAux         *container.ExecAuxHeader
	VersionString   string // optional AuxTypeVersion string aux header
	CopyrightString string // optional AuxTypeCopyright string aux header

	Spaces    []container.Space
	Subspaces []container.Subspace
	// Contents holds the on-disk bytes for each subspace, index-aligned
	// with Subspaces. A nil entry means the subspace carries no bytes
	// (e.g. BSS-like space reserved but not initialized).
	Contents [][]byte

	SpaceStrings []byte
	CompUnits    []container.CompUnit

	Symbols       []container.SymbolRecord
	SymbolStrings []byte
	FixupStream   []byte
}

// Layout accumulates the header fields begin_writing resolves, so
// finish_writing can fill in the remainder and write the header once,
// last (spec §4.2: "written last").
type Layout struct {
	header container.Header

	firstLoadableCode bool
	firstLoadableData bool
}

// BeginWriting lays out the header-adjacent regions, the string tables,
// the compilation units, and the subspace contents in two page-aligned
// groups (loadable then unloadable), then pads the file to its final
// length with a single trailing zero byte (spec §4.6). fw must have been
// created with initialOffset == container.HeaderSize: the header itself
// is written in place by FinishWriting, not allocated here.
func BeginWriting(fw *FileWriter, in *Input) (*Layout, error) {
	h := in.Header

	if err := writeAuxHeaders(fw, in, &h); err != nil {
		return nil, err
	}

	if len(in.Spaces) > 0 {
		addr, err := writeRecords(fw, in.Spaces, container.Space.Encode, container.SpaceSize)
		if err != nil {
			return nil, fmt.Errorf("writer: space dict: %w", err)
		}
		h.Space = container.LocSize{Location: uint32(addr), Size: uint32(len(in.Spaces)) * container.SpaceSize}
	}

	if len(in.Subspaces) > 0 {
		addr, err := writeRecordsAligned(fw, in.Subspaces, container.Subspace.Encode, container.SubspaceSize, 4)
		if err != nil {
			return nil, fmt.Errorf("writer: subspace dict: %w", err)
		}
		h.Subspace = container.LocSize{Location: uint32(addr), Size: uint32(len(in.Subspaces)) * container.SubspaceSize}
	}

	if len(in.SpaceStrings) > 0 {
		addr, err := fw.WriteAtWithAllocation(in.SpaceStrings)
		if err != nil {
			return nil, fmt.Errorf("writer: space strings: %w", err)
		}
		h.SpaceStrings = container.LocSize{Location: uint32(addr), Size: uint32(len(in.SpaceStrings))}
	}

	if len(in.CompUnits) > 0 {
		addr, err := writeRecords(fw, in.CompUnits, container.CompUnit.Encode, container.CompUnitSize)
		if err != nil {
			return nil, fmt.Errorf("writer: compilation units: %w", err)
		}
		h.Compiler = container.LocSize{Location: uint32(addr), Size: uint32(len(in.CompUnits)) * container.CompUnitSize}
	}

	layout := &Layout{}
	if err := writeSubspaceContents(fw, in, &h, layout); err != nil {
		return nil, err
	}

	// Tail zero byte, extending the file to its final pre-symbol-table
	// length (spec §4.6); finish_writing's regions are allocated after
	// this point and overwrite nothing laid out so far.
	if _, err := fw.WriteAtWithAllocation([]byte{0}); err != nil {
		return nil, fmt.Errorf("writer: tail byte: %w", err)
	}

	layout.header = h
	return layout, nil
}

func writeAuxHeaders(fw *FileWriter, in *Input, h *container.Header) error {
	var chain []byte

	if in.ExecAux != nil {
		chain = append(chain, in.ExecAux.Encode()...)
	}
	if in.VersionString != "" {
		chain = append(chain, container.StringAuxHeader{
			ID:     container.AuxID{Type: container.AuxTypeVersion},
			String: in.VersionString,
		}.Encode()...)
	}
	if in.CopyrightString != "" {
		chain = append(chain, container.StringAuxHeader{
			ID:     container.AuxID{Type: container.AuxTypeCopyright},
			String: in.CopyrightString,
		}.Encode()...)
	}
	if len(chain) == 0 {
		return nil
	}

	addr, err := fw.WriteAtWithAllocation(chain)
	if err != nil {
		return fmt.Errorf("writer: aux headers: %w", err)
	}
	h.AuxHeader = container.LocSize{Location: uint32(addr), Size: uint32(len(chain))}
	return nil
}

// writeSubspaceContents lays out subspace bytes in two page-aligned
// groups, loadable first (spec §4.6). The first code-like and first
// data-like loadable subspace drive the exec aux header's mem/file
// address pairs when in.ExecAux is non-nil; real a.out-style tools
// derive exec_tmem/tfile and exec_dmem/dfile from those positions.
func writeSubspaceContents(fw *FileWriter, in *Input, h *container.Header, layout *Layout) error {
	var loadable, unloadable []int
	for i, ss := range in.Subspaces {
		if ss.IsLoadable {
			loadable = append(loadable, i)
		} else {
			unloadable = append(unloadable, i)
		}
	}

	if len(loadable) > 0 {
		if err := writeGroup(fw, in, loadable, layout, true); err != nil {
			return err
		}
	}
	if len(unloadable) > 0 {
		if err := writeGroup(fw, in, unloadable, layout, false); err != nil {
			return err
		}
	}
	return nil
}

func writeGroup(fw *FileWriter, in *Input, indices []int, layout *Layout, isLoadableGroup bool) error {
	first := true

	for _, i := range indices {
		data := in.Contents[i]
		if len(data) == 0 {
			continue
		}

		var addr uint64
		var err error
		if first {
			// Only the group's first allocation lands on a page
			// boundary; the rest are contiguous, matching the teacher's
			// write-then-advance allocator (no gaps between members of
			// the same group).
			addr, err = fw.AllocateAligned(uint64(len(data)), PageSize)
			first = false
		} else {
			addr, err = fw.Allocate(uint64(len(data)))
		}
		if err != nil {
			return fmt.Errorf("writer: subspace %d contents: %w", i, err)
		}
		if err := fw.WriteAtAddress(data, addr); err != nil {
			return fmt.Errorf("writer: subspace %d contents: %w", i, err)
		}
		in.Subspaces[i].FileLocInit = uint32(addr)
		in.Subspaces[i].SubspaceLength = uint32(len(data))

		if isLoadableGroup && in.ExecAux != nil {
			recordExecRegion(in, i, addr, layout)
		}
	}
	return nil
}

func recordExecRegion(in *Input, i int, addr uint64, layout *Layout) {
	ss := in.Subspaces[i]
	isCode := ss.AccessControlBits>>4 == 3
	if isCode && !layout.firstLoadableCode {
		layout.firstLoadableCode = true
		in.ExecAux.TextFileAddr = uint32(addr)
		in.ExecAux.TextMemAddr = ss.SubspaceStart
	} else if !isCode && !layout.firstLoadableData {
		layout.firstLoadableData = true
		in.ExecAux.DataFileAddr = uint32(addr)
		in.ExecAux.DataMemAddr = ss.SubspaceStart
	}
}

func writeRecords[T any](fw *FileWriter, recs []T, encode func(T) []byte, recSize uint32) (uint64, error) {
	buf := make([]byte, 0, uint32(len(recs))*recSize)
	for _, r := range recs {
		buf = append(buf, encode(r)...)
	}
	return fw.WriteAtWithAllocation(buf)
}

func writeRecordsAligned[T any](fw *FileWriter, recs []T, encode func(T) []byte, recSize uint32, align uint64) (uint64, error) {
	buf := make([]byte, 0, uint32(len(recs))*recSize)
	for _, r := range recs {
		buf = append(buf, encode(r)...)
	}
	addr, err := fw.AllocateAligned(uint64(len(buf)), align)
	if err != nil {
		return 0, err
	}
	if err := fw.WriteAtAddress(buf, addr); err != nil {
		return 0, err
	}
	return addr, nil
}
