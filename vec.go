package som

import (
	"io"

	"github.com/scigolib/som/internal/archive"
	"github.com/scigolib/som/internal/container"
	"github.com/scigolib/som/internal/reloc"
	"github.com/scigolib/som/internal/writer"
)

// BackEnd is the polymorphic capability the external symbol
// hppa_som_vec names (spec §6, Design Notes: "model as a trait/
// interface implemented by a zero-size type; do not subclass a generic
// back-end"). A generic host looks the capability up by format name and
// dispatches every format-specific operation through it, rather than
// holding a concrete *Object type of its own.
type BackEnd interface {
	CheckFormat(r io.ReaderAt) (*Object, error)
	ReadSymbols(obj *Object) ([]*Symbol, error)
	ReadRelocs(obj *Object, subspaceIndex int) ([]reloc.Relocation, error)
	WriteContents(obj *Object, filename string, mode writer.CreateMode) (container.Header, error)
	ArchiveSymbols(a *Archive, name string) ([]archive.SymbolRecord, error)
	CopyPrivateBFDData(src, dst *Object) error
}

// hppaSomVec is the zero-size type implementing BackEnd.
type hppaSomVec struct{}

func (hppaSomVec) CheckFormat(r io.ReaderAt) (*Object, error) {
	return Open(r, nil)
}

func (hppaSomVec) ReadSymbols(obj *Object) ([]*Symbol, error) {
	return obj.Symbols()
}

func (hppaSomVec) ReadRelocs(obj *Object, subspaceIndex int) ([]reloc.Relocation, error) {
	return obj.Relocations(subspaceIndex)
}

func (hppaSomVec) WriteContents(obj *Object, filename string, mode writer.CreateMode) (container.Header, error) {
	return obj.WriteTo(filename, mode)
}

func (hppaSomVec) ArchiveSymbols(a *Archive, name string) ([]archive.SymbolRecord, error) {
	return a.LookupSymbol(name)
}

func (hppaSomVec) CopyPrivateBFDData(src, dst *Object) error {
	return CopyPrivateBFDData(src, dst)
}

// HppaSomVec is this package's single instance of the hppa_som_vec
// back-end capability.
var HppaSomVec BackEnd = hppaSomVec{}
