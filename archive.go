package som

import (
	"errors"
	"io"

	"github.com/scigolib/som/internal/archive"
	"github.com/scigolib/som/internal/loader"
)

var errNoSymbolTable = errors.New("som: archive has no library symbol table")

// Archive is the host-facing view of an opened `ar` archive of SOM
// objects (spec §4.7): its member list and, if present, its library
// symbol table.
type Archive struct {
	inner *archive.Archive
	r     io.ReaderAt
}

// OpenArchive parses r's member list and its library symbol table, if
// it carries one (an archive with no LST member is not an error — not
// every archive of SOM objects has been indexed).
func OpenArchive(r io.ReaderAt) (*Archive, error) {
	inner, err := archive.Open(r)
	if err != nil {
		return nil, err
	}
	return &Archive{inner: inner, r: r}, nil
}

// HasSymbolTable reports whether the archive carries an LST member.
func (a *Archive) HasSymbolTable() bool { return a.inner.LST != nil }

// Members returns every archive member in file order, including the
// LST member itself if present.
func (a *Archive) Members() []archive.Member { return a.inner.Members }

// LookupSymbol returns every LST symbol record chained under name's
// hash bucket (spec §8 scenario 6: both the record and the module it
// names must be retrievable via the published archive-symbol lookup).
func (a *Archive) LookupSymbol(name string) ([]archive.SymbolRecord, error) {
	if a.inner.LST == nil {
		return nil, errNoSymbolTable
	}
	return a.inner.LST.Chain(a.r, name)
}

// OpenModule opens the SOM object named by a module directory entry —
// somIndex comes from a SymbolRecord.SOMIndex LookupSymbol returned.
// The member is opened directly, with no EXECLIB indirection: a module
// directory entry always names the member's own header, not a shell
// pointing at one.
func (a *Archive) OpenModule(somIndex uint32, opts ...ObjectOption) (*Object, error) {
	if a.inner.LST == nil {
		return nil, errNoSymbolTable
	}
	off, err := a.inner.LST.SOMHeaderOffset(somIndex)
	if err != nil {
		return nil, err
	}
	section := io.NewSectionReader(a.r, int64(off), 1<<40)
	return Open(section, nil, opts...)
}

// Resolver returns a loader.ExeclibResolver bound to this archive's LST
// and dirIndex, the module directory entry an EXECLIB shell stands in
// for (spec §4.5, §4.7). Pass it to Open when opening an EXECLIB shell
// member directly rather than through OpenModule.
func (a *Archive) Resolver(dirIndex uint32) (loader.ExeclibResolver, error) {
	if a.inner.LST == nil {
		return nil, errNoSymbolTable
	}
	return &archive.Resolver{LST: a.inner.LST, DirIndex: dirIndex}, nil
}
