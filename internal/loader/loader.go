// Package loader implements the object loader (spec §4.5): header
// validation, EXECLIB indirection, and section synthesis from the
// space/subspace dictionaries.
package loader

import (
	"io"

	"github.com/scigolib/som/internal/container"
	"github.com/scigolib/som/internal/host"
	"github.com/scigolib/som/internal/ioutil"
)

const maxExeclibDepth = 4

// ExeclibResolver follows an EXECLIB shell at headerOffset to the file
// offset of the nested SOM member it names (spec §4.5: "load LST
// header, follow dir_loc to a SOM entry, follow its location to a
// nested SOM header"). internal/archive supplies the concrete
// implementation over the LST format (§4.7); the loader only needs the
// offset it resolves to, not the LST's internal fields.
type ExeclibResolver interface {
	ResolveExeclib(r io.ReaderAt, headerOffset uint64) (offset uint64, err error)
}

// EntryPoint is the resolved start address plus the private bookkeeping
// the known SOM quirk (spec §4.5's entry-point policy) requires.
type EntryPoint struct {
	Address uint64

	// Swapped records that exec_entry and exec_flags were found swapped
	// (some tools are known to emit them that way) and PrivateExecFlags
	// holds the original exec_entry value the policy displaced.
	Swapped          bool
	PrivateExecFlags uint32
}

// Object is everything the loader produces from one SOM file: the
// validated header, an exec aux header if present, and the synthesized
// space/subspace sections in dictionary order (each subspace's
// TargetIndex gives its file-order rank).
type Object struct {
	Header       container.Header
	ExecAux      *container.ExecAuxHeader
	Spaces       []*host.Section
	Subspaces    []*host.Section
	Entry        EntryPoint
	HeaderOffset uint64 // file offset the validated header was read from

	// RawSpaces/RawSubspaces are the decoded dictionary records the host
	// Sections above were synthesized from, in dictionary (not file)
	// order. Kept alongside the host view because several fields a
	// caller needs for symbol classification and fixup-stream slicing
	// (FixupReqIndex/Qty, SymbolInfo target indices, string-table
	// offsets) have no host.Section counterpart.
	RawSpaces    []container.Space
	RawSubspaces []container.Subspace
}

// Open reads and validates a SOM header at r, following EXECLIB
// indirection via resolver (nil if the caller never expects an EXECLIB
// shell), then synthesizes host sections from the space and subspace
// dictionaries (spec §4.5).
func Open(r io.ReaderAt, resolver ExeclibResolver) (*Object, error) {
	var base uint64
	var h container.Header

	for depth := 0; ; depth++ {
		if depth > maxExeclibDepth {
			return nil, ioutil.WrapKind("loader: open", ioutil.KindMalformedArchive, errTooManyIndirections)
		}

		buf := make([]byte, container.HeaderSize)
		if _, err := r.ReadAt(buf, int64(base)); err != nil {
			return nil, ioutil.WrapKind("loader: read header", ioutil.KindSystemCall, err)
		}
		decoded, err := container.DecodeHeader(buf)
		if err != nil {
			return nil, ioutil.WrapKind("loader: decode header", ioutil.KindWrongFormat, err)
		}
		h = decoded

		if !container.IsPARiscSystemID(h.SystemID) {
			return nil, ioutil.WrapKind("loader: open", ioutil.KindWrongFormat, errBadSystemID)
		}
		if !container.IsAcceptedMagic(h.Magic) {
			return nil, ioutil.WrapKind("loader: open", ioutil.KindWrongFormat, errBadMagic)
		}

		if h.Magic != container.MagicExeclib {
			break
		}
		if resolver == nil {
			return nil, ioutil.WrapKind("loader: open", ioutil.KindWrongFormat, errNoExeclibResolver)
		}
		next, err := resolver.ResolveExeclib(r, base)
		if err != nil {
			return nil, err
		}
		base = next
	}

	obj := &Object{Header: h, HeaderOffset: base}

	if !h.AuxHeader.Empty() {
		exec, err := readExecAux(r, base, h.AuxHeader)
		if err != nil {
			return nil, err
		}
		obj.ExecAux = exec
	}

	spaces, subspaces, err := readDicts(r, base, h)
	if err != nil {
		return nil, err
	}
	obj.RawSpaces = spaces
	obj.RawSubspaces = subspaces

	isReloc := h.Magic == container.MagicReloc
	if err := buildSections(obj, h, spaces, subspaces, isReloc); err != nil {
		return nil, err
	}

	obj.Entry = resolveEntryPoint(h, obj.ExecAux, obj.Subspaces)

	return obj, nil
}

func readExecAux(r io.ReaderAt, base uint64, loc container.LocSize) (*container.ExecAuxHeader, error) {
	buf := make([]byte, loc.Size)
	if _, err := r.ReadAt(buf, int64(base+uint64(loc.Location))); err != nil {
		return nil, ioutil.WrapKind("loader: read exec aux", ioutil.KindSystemCall, err)
	}
	exec, err := container.DecodeExecAuxHeader(buf)
	if err != nil {
		return nil, ioutil.WrapKind("loader: decode exec aux", ioutil.KindMalformedArchive, err)
	}
	return &exec, nil
}

func readDicts(r io.ReaderAt, base uint64, h container.Header) ([]container.Space, []container.Subspace, error) {
	spaces, err := readArray(r, base, h.Space, container.SpaceSize, func(b []byte) (container.Space, error) {
		return container.DecodeSpace(b)
	})
	if err != nil {
		return nil, nil, ioutil.WrapKind("loader: read spaces", ioutil.KindMalformedArchive, err)
	}
	subspaces, err := readArray(r, base, h.Subspace, container.SubspaceSize, func(b []byte) (container.Subspace, error) {
		return container.DecodeSubspace(b)
	})
	if err != nil {
		return nil, nil, ioutil.WrapKind("loader: read subspaces", ioutil.KindMalformedArchive, err)
	}
	return spaces, subspaces, nil
}

func readArray[T any](r io.ReaderAt, base uint64, loc container.LocSize, recSize uint32, decode func([]byte) (T, error)) ([]T, error) {
	if loc.Empty() {
		return nil, nil
	}
	buf := make([]byte, loc.Size)
	if _, err := r.ReadAt(buf, int64(base+uint64(loc.Location))); err != nil {
		return nil, err
	}
	count := loc.Size / recSize
	out := make([]T, 0, count)
	for i := uint32(0); i < count; i++ {
		rec, err := decode(buf[i*recSize : (i+1)*recSize])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
