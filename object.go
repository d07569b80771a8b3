package som

import (
	"fmt"

	"github.com/scigolib/som/internal/container"
	"github.com/scigolib/som/internal/host"
	"github.com/scigolib/som/internal/ioutil"
	"github.com/scigolib/som/internal/reloc"
	"github.com/scigolib/som/internal/symtab"
	"github.com/scigolib/som/internal/writer"
)

// Symbols reads and classifies every non-continuation symbol record in
// this object's symbol table (spec §4.4), skipping SYM_EXT/ARG_EXT
// records the classifier folds into their owner. Results are not
// cached: callers that need the table repeatedly should keep the
// returned slice themselves.
func (o *Object) Symbols() ([]*Symbol, error) {
	if o.header.Symbol.Empty() {
		return nil, nil
	}

	buf := make([]byte, o.header.Symbol.Size)
	if _, err := o.source.ReadAt(buf, int64(o.loaded.HeaderOffset+uint64(o.header.Symbol.Location))); err != nil {
		return nil, ioutil.WrapKind("som: read symbols", ioutil.KindSystemCall, err)
	}

	strs := make([]byte, o.header.SymbolStrings.Size)
	if !o.header.SymbolStrings.Empty() {
		if _, err := o.source.ReadAt(strs, int64(o.loaded.HeaderOffset+uint64(o.header.SymbolStrings.Location))); err != nil {
			return nil, ioutil.WrapKind("som: read symbol strings", ioutil.KindSystemCall, err)
		}
	}

	execLike := container.IsExecutableMagic(o.header.Magic) || container.IsDynamicMagic(o.header.Magic)

	count := o.header.Symbol.Size / container.SymbolRecordSize
	out := make([]*Symbol, 0, count)
	for i := uint32(0); i < count; i++ {
		rec, err := container.DecodeSymbolRecord(buf[i*container.SymbolRecordSize : (i+1)*container.SymbolRecordSize])
		if err != nil {
			return nil, ioutil.WrapKind("som: decode symbol", ioutil.KindMalformedArchive, err)
		}
		name := cString(strs, rec.Name)
		sym, ok := symtab.ReadSymbol(rec, name, o.loaded.RawSubspaces, execLike)
		if !ok {
			continue
		}
		out = append(out, &Symbol{inner: sym})
	}
	return out, nil
}

// cString reads a NUL-terminated string out of a string table buffer
// starting at off.
func cString(buf []byte, off uint32) string {
	if off >= uint32(len(buf)) {
		return ""
	}
	end := off
	for end < uint32(len(buf)) && buf[end] != 0 {
		end++
	}
	return string(buf[off:end])
}

// Relocations decodes the fixup stream belonging to the subspace at
// subspaceIndex. Subspace.FixupReqIndex/FixupReqQty name a byte offset
// and length within the header's single, shared FixupRequest region —
// every subspace's stream is a disjoint slice of that one region, not
// an independent stream of its own (spec §4.3: "per subspace; size
// recorded in its subspace dict").
func (o *Object) Relocations(subspaceIndex int) ([]reloc.Relocation, error) {
	if subspaceIndex < 0 || subspaceIndex >= len(o.loaded.RawSubspaces) {
		return nil, fmt.Errorf("som: relocations: subspace index %d out of range", subspaceIndex)
	}
	ss := o.loaded.RawSubspaces[subspaceIndex]
	if ss.FixupReqQty == 0 {
		return nil, nil
	}

	region := make([]byte, o.header.FixupRequest.Size)
	if _, err := o.source.ReadAt(region, int64(o.loaded.HeaderOffset+uint64(o.header.FixupRequest.Location))); err != nil {
		return nil, ioutil.WrapKind("som: read fixup stream", ioutil.KindSystemCall, err)
	}
	if uint64(ss.FixupReqIndex)+uint64(ss.FixupReqQty) > uint64(len(region)) {
		return nil, ioutil.WrapKind("som: relocations", ioutil.KindMalformedFixupStream,
			fmt.Errorf("subspace %d fixup slice [%d,+%d) exceeds fixup region of %d bytes",
				subspaceIndex, ss.FixupReqIndex, ss.FixupReqQty, len(region)))
	}
	slice := region[ss.FixupReqIndex : ss.FixupReqIndex+ss.FixupReqQty]

	numSymbols := o.header.Symbol.Size / container.SymbolRecordSize
	opts := o.sectionContentsOption(ss)
	return reloc.NewDecoder(slice, numSymbols, opts...).Decode()
}

// sectionContentsOption reads a loaded subspace's initialized bytes and,
// if present, returns a DecoderOption exposing them — needed only for
// R_DATA_ONE_SYMBOL's section-contents addend fallback (spec §4.3.2). A
// subspace with no initialized bytes (InitLength == 0, e.g. bss) yields
// no option; the decoder's fallback then stays zero, matching an
// all-zero section.
func (o *Object) sectionContentsOption(ss container.Subspace) []reloc.DecoderOption {
	if ss.InitLength == 0 {
		return nil
	}
	buf := make([]byte, ss.InitLength)
	if _, err := o.source.ReadAt(buf, int64(o.loaded.HeaderOffset+uint64(ss.FileLocInit))); err != nil {
		return nil
	}
	return []reloc.DecoderOption{reloc.WithSectionContents(buf)}
}

// AddSpace appends a new, empty space to a write-side Object (built via
// NewObject) and returns its Section. name is interned into the
// object's space string table immediately.
func (o *Object) AddSpace(name string) *Section {
	nameOff := o.internString(name)
	idx := len(o.writeSpaces)

	sec := &Section{
		host:     &host.Section{Name: name, SpaceIndex: idx, TargetIndex: idx},
		isSpace:  true,
		rawSpace: container.Space{Name: nameOff, SpaceNumber: uint32(idx)},
	}
	o.writeSpaces = append(o.writeSpaces, sec)
	o.sections = append(o.sections, sec)
	return sec
}

// AddSubspace appends a new subspace under parent (which must be a
// Section returned by AddSpace) to a write-side Object, attaching its
// contents and, if any, its relocations. Alignment is set to 1 (no
// constraint); SetSubsectionAttributes does not change it, and
// Subspace() returns a copy of the record.
func (o *Object) AddSubspace(parent *Section, name string, data []byte, relocs []reloc.Relocation) (*Section, error) {
	if !parent.isSpace {
		return nil, errNotASpace
	}

	nameOff := o.internString(name)
	idx := len(o.writeSubspaces)

	sec := &Section{
		host: &host.Section{
			Name:          name,
			SpaceIndex:    parent.host.SpaceIndex,
			SubspaceIndex: idx,
			TargetIndex:   idx,
			Size:          uint64(len(data)),
		},
		rawSubspace: container.Subspace{
			SpaceIndex:     uint32(parent.host.SpaceIndex),
			Name:           nameOff,
			SubspaceLength: uint32(len(data)),
			Alignment:      1,
			IsLoadable:     true,
		},
	}

	if len(relocs) > 0 {
		stream, err := reloc.NewEncoder().Encode(relocs)
		if err != nil {
			return nil, fmt.Errorf("som: add subspace %q: %w", name, err)
		}
		sec.rawSubspace.FixupReqIndex = uint32(len(o.fixupStream))
		sec.rawSubspace.FixupReqQty = uint32(len(stream))
		o.fixupStream = append(o.fixupStream, stream...)
	}

	o.writeSubspaces = append(o.writeSubspaces, sec)
	o.subspaceContents = append(o.subspaceContents, data)
	o.sections = append(o.sections, sec)
	return sec, nil
}

// internString appends name, NUL-terminated, to the object's
// accumulating space/subspace string table and returns its offset.
func (o *Object) internString(name string) uint32 {
	off := uint32(len(o.spaceStrings))
	o.spaceStrings = append(o.spaceStrings, name...)
	o.spaceStrings = append(o.spaceStrings, 0)
	return off
}

// AttachSymbol adds sym to the object's outgoing symbol table (to be
// sorted by relocation count and emitted by WriteTo).
func (o *Object) AttachSymbol(sym *Symbol) {
	o.writeSymbols = append(o.writeSymbols, sym)
}

// WriteTo lays out and writes the object to filename via the two-pass
// writer (spec §4.6), returning the final, checksummed header.
func (o *Object) WriteTo(filename string, mode writer.CreateMode) (container.Header, error) {
	fw, err := writer.NewFileWriter(filename, mode, container.HeaderSize)
	if err != nil {
		return container.Header{}, ioutil.WrapKind("som: write object", ioutil.KindSystemCall, err)
	}
	defer fw.Close()

	in := o.buildWriterInput()

	layout, err := writer.BeginWriting(fw, in)
	if err != nil {
		return container.Header{}, err
	}
	return writer.FinishWriting(fw, layout, in)
}

func (o *Object) buildWriterInput() *writer.Input {
	in := &writer.Input{
		Header:          o.header,
		ExecAux:         o.execAux,
		VersionString:   o.versionString,
		CopyrightString: o.copyrightString,
		SpaceStrings:    o.spaceStrings,
		CompUnits:       o.compUnits,
		Contents:        o.subspaceContents,
	}

	// buildSymbolTable must run before Subspaces/FixupStream are
	// snapshotted below: sorting symbols by relocation weight remaps and
	// re-encodes every subspace's fixup stream in place (o.fixupStream,
	// sec.rawSubspace.FixupReqIndex/Qty), and that must be reflected in
	// what's captured into in.Subspaces/in.FixupStream.
	if len(o.writeSymbols) > 0 {
		in.Symbols, in.SymbolStrings = o.buildSymbolTable()
	}
	in.FixupStream = o.fixupStream

	in.Spaces = make([]container.Space, len(o.writeSpaces))
	for i, sec := range o.writeSpaces {
		in.Spaces[i] = sec.rawSpace
	}
	in.Subspaces = make([]container.Subspace, len(o.writeSubspaces))
	for i, sec := range o.writeSubspaces {
		in.Subspaces[i] = sec.rawSubspace
	}

	return in
}

// buildSymbolTable sorts the attached symbols by descending relocation
// weight (spec §4.4) and encodes them alongside a freshly interned
// symbol string table. Since sorting moves symbols to new output
// positions, it also rewrites every subspace's already-encoded fixup
// stream so each relocation's symbol index keeps naming the symbol it
// always named, at that symbol's new position (spec §4.4/§8: "the index
// stored in each outgoing relocation matches the symbol's position").
func (o *Object) buildSymbolTable() ([]container.SymbolRecord, []byte) {
	relocs := o.allRelocations()
	weights := symtab.CountRelocationWeight(relocs)

	abstract := make([]symtab.Symbol, len(o.writeSymbols))
	for i, sym := range o.writeSymbols {
		abstract[i] = sym.inner
	}
	order := symtab.SortByRelocationCount(abstract, weights)

	oldToNew := make(map[uint32]uint32, len(order))
	for newIdx, oldIdx := range order {
		oldToNew[uint32(oldIdx)] = uint32(newIdx)
	}
	o.remapFixupStreams(oldToNew)

	records := make([]container.SymbolRecord, len(order))
	var strings []byte
	for outIdx, srcIdx := range order {
		nameOff := uint32(len(strings))
		strings = append(strings, abstract[srcIdx].Name...)
		strings = append(strings, 0)
		records[outIdx] = symtab.WriteSymbol(abstract[srcIdx], nameOff)
	}
	return records, strings
}

// remapFixupStreams rewrites every write-side subspace's fixup stream in
// place, translating each relocation's symbol index through oldToNew
// (pre-sort attachment index -> post-sort output index) and re-encoding.
// Re-encoding can change a stream's byte length (a remapped index can
// cross the 1-byte/4-byte opcode-width boundary), so the whole shared
// fixup region is rebuilt rather than patched, and every subspace's
// FixupReqIndex/FixupReqQty is updated to match. A subspace whose stream
// fails to decode or re-encode (never expected, since these streams were
// produced by this object's own encoder) keeps its original bytes
// unchanged rather than losing its relocations.
func (o *Object) remapFixupStreams(oldToNew map[uint32]uint32) {
	numOldSymbols := uint32(len(o.writeSymbols))
	var rebuilt []byte
	for _, sec := range o.writeSubspaces {
		if sec.rawSubspace.FixupReqQty == 0 {
			continue
		}
		old := o.fixupStream[sec.rawSubspace.FixupReqIndex : sec.rawSubspace.FixupReqIndex+sec.rawSubspace.FixupReqQty]
		encoded := old
		if relocs, err := reloc.NewDecoder(old, numOldSymbols).Decode(); err == nil {
			for i := range relocs {
				if relocs[i].HasSymbol {
					relocs[i].Symbol = oldToNew[relocs[i].Symbol]
				}
			}
			if reenc, err := reloc.NewEncoder().Encode(relocs); err == nil {
				encoded = reenc
			}
		}
		sec.rawSubspace.FixupReqIndex = uint32(len(rebuilt))
		sec.rawSubspace.FixupReqQty = uint32(len(encoded))
		rebuilt = append(rebuilt, encoded...)
	}
	o.fixupStream = rebuilt
}

// allRelocations flattens every relocation this object's subspaces have
// accumulated through AddSubspace, for the purposes of the symbol
// relocation-weight scan (spec §4.4).
func (o *Object) allRelocations() []reloc.Relocation {
	var all []reloc.Relocation
	for _, sec := range o.writeSubspaces {
		if sec.rawSubspace.FixupReqQty == 0 {
			continue
		}
		stream := o.fixupStream[sec.rawSubspace.FixupReqIndex : sec.rawSubspace.FixupReqIndex+sec.rawSubspace.FixupReqQty]
		relocs, err := reloc.NewDecoder(stream, uint32(len(o.writeSymbols))).Decode()
		if err != nil {
			continue // malformed-on-reencode is unexpected; skip rather than fail a best-effort weight scan
		}
		all = append(all, relocs...)
	}
	return all
}
