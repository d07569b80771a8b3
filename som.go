// Package som implements a BFD-style back-end for HP PA-RISC's SOM
// object format: container records, the fixup engine, the symbol
// classifier, the object loader and writer, and the archive LST — all
// exposed here behind the small set of attachment entry points and
// accessors a BFD-style host actually calls (spec §6).
package som

import (
	"io"
	"os"

	"github.com/scigolib/som/internal/container"
	"github.com/scigolib/som/internal/host"
	"github.com/scigolib/som/internal/ioutil"
	"github.com/scigolib/som/internal/loader"
)

// Object is one opened or under-construction SOM file: the validated
// header, its sections, and (once queried) its symbols and relocations.
// Ownership of everything reachable from a loaded Object is the arena's
// (spec §3 "Ownership"); Close releases it.
type Object struct {
	loaded *loader.Object
	arena  *host.Arena
	source io.ReaderAt
	closer io.Closer

	sections []*Section

	header          container.Header
	execAux         *container.ExecAuxHeader
	versionString   string
	copyrightString string
	compUnits       []container.CompUnit

	splitThreshold uint32

	// Write-side accumulators, populated by AddSpace/AddSubspace/
	// AttachSymbol on an Object built via NewObject and consumed by
	// WriteTo (spec §4.6). Unused on a loaded (read-side) Object.
	writeSpaces      []*Section
	writeSubspaces   []*Section
	subspaceContents [][]byte
	spaceStrings     []byte
	fixupStream      []byte
	writeSymbols     []*Symbol
}

// ObjectOption configures an Object at construction, following the
// functional-options convention the rest of this ecosystem uses for
// optional, rarely-changed settings.
type ObjectOption func(*Object)

// WithSplitThreshold overrides the byte threshold LinkSplitSection
// compares a subspace's size against (spec §4.8, Design Note (c)); the
// default is container.DefaultSplitThreshold.
func WithSplitThreshold(n uint32) ObjectOption {
	return func(o *Object) { o.splitThreshold = n }
}

// Open validates r's header, follows any EXECLIB indirection through
// resolver (nil if r is never expected to be an EXECLIB shell), and
// synthesizes sections from the space/subspace dictionaries (spec
// §4.5). Symbols and relocations are read lazily on first query, not
// here, per spec §3's stated lifecycle.
func Open(r io.ReaderAt, resolver loader.ExeclibResolver, opts ...ObjectOption) (*Object, error) {
	loaded, err := loader.Open(r, resolver)
	if err != nil {
		return nil, err
	}

	o := &Object{
		loaded:         loaded,
		arena:          host.NewArena(),
		source:         r,
		header:         loaded.Header,
		execAux:        loaded.ExecAux,
		splitThreshold: container.DefaultSplitThreshold,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.sections = wrapSections(loaded)
	return o, nil
}

// OpenFile opens filename and calls Open on it, arranging for the file
// to be closed when the returned Object is.
func OpenFile(filename string, resolver loader.ExeclibResolver, opts ...ObjectOption) (*Object, error) {
	f, err := os.Open(filename) //nolint:gosec // caller-supplied object filename is the whole point of this API
	if err != nil {
		return nil, ioutil.WrapKind("som: open file", ioutil.KindSystemCall, err)
	}
	o, err := Open(f, resolver, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	o.closer = f
	return o, nil
}

// NewObject starts a fresh object for writing, carrying systemID and
// magic in its header (spec §3). Sections, symbols, and aux data must
// be attached via the public attachment operations before WriteTo is
// called (spec §3: "private data must already be attached... before
// write_object_contents is invoked").
func NewObject(systemID, magic uint32) *Object {
	return &Object{
		arena: host.NewArena(),
		header: container.Header{
			SystemID:  systemID,
			Magic:     magic,
			VersionID: container.VersionIDNew,
		},
		splitThreshold: container.DefaultSplitThreshold,
	}
}

// Close releases the arena and, if this Object owns an underlying file
// (opened via OpenFile), closes it. Safe to call once; like the
// teacher's *File.Close, it is not safe to call twice on the same
// Object if the caller also holds the underlying source directly.
func (o *Object) Close() error {
	err := o.arena.Close()
	if o.closer != nil {
		if cerr := o.closer.Close(); err == nil {
			err = cerr
		}
		o.closer = nil
	}
	return err
}

// Header returns the object's decoded file header.
func (o *Object) Header() container.Header { return o.header }

// ExecAux returns the object's exec aux header, or nil if it has none
// (a plain relocatable object, for instance).
func (o *Object) ExecAux() *container.ExecAuxHeader { return o.execAux }

// SplitThreshold returns the byte threshold LinkSplitSection uses.
func (o *Object) SplitThreshold() uint32 { return o.splitThreshold }

// Sections returns every section this object carries. For an opened
// object that is spaces first then subspaces, in dictionary order; for
// one built with NewObject it is the order AddSpace/AddSubspace created
// them in.
func (o *Object) Sections() []*Section { return o.sections }

func wrapSections(loaded *loader.Object) []*Section {
	out := make([]*Section, 0, len(loaded.Spaces)+len(loaded.Subspaces))
	for i, sp := range loaded.Spaces {
		out = append(out, &Section{host: sp, isSpace: true, rawSpace: loaded.RawSpaces[i]})
	}
	for i, ss := range loaded.Subspaces {
		out = append(out, &Section{host: ss, rawSubspace: loaded.RawSubspaces[i]})
	}
	return out
}
