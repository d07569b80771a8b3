package archive

import (
	"io"

	"github.com/scigolib/som/internal/container"
	"github.com/scigolib/som/internal/ioutil"
)

// LST is a parsed library symbol table: its header, hash directory,
// and module directory, plus the base offset (within the containing
// file) its header locations, hash-table entries and chain offsets are
// relative to — the same header-relative addressing convention
// container.LocSize uses for the main SOM header (spec §4.7). Module
// directory Locations are absolute file offsets, not Base-relative.
type LST struct {
	Base      uint64
	Header    LSTHeader
	HashTable []uint32 // LSTHashSize buckets; 0 means empty
	Modules   []ModuleEntry
}

// ReadLST locates and parses the archive's LST member (the first member
// named the fixed 16-character name, spec §4.7), validating its magic,
// checksum, and the strictly-forward-linked chain invariant on every
// nonzero hash bucket.
func ReadLST(r io.ReaderAt) (*LST, error) {
	members, err := ReadMembers(r)
	if err != nil {
		return nil, ioutil.WrapKind("archive: read lst", ioutil.KindMalformedArchive, err)
	}
	member, ok := Find(members, container.LSTMemberArName)
	if !ok {
		return nil, ioutil.WrapKind("archive: read lst", ioutil.KindMalformedArchive, errNoLSTMember)
	}

	base := member.Offset
	hdrBuf := make([]byte, LSTHeaderSize)
	if _, err := r.ReadAt(hdrBuf, int64(base)); err != nil {
		return nil, ioutil.WrapKind("archive: read lst header", ioutil.KindSystemCall, err)
	}
	header, err := DecodeLSTHeader(hdrBuf)
	if err != nil {
		return nil, ioutil.WrapKind("archive: decode lst header", ioutil.KindMalformedArchive, err)
	}
	if header.Magic != container.LSTMagic {
		return nil, ioutil.WrapKind("archive: read lst header", ioutil.KindWrongFormat, errBadLSTMagic)
	}
	if !ValidateLSTChecksum(hdrBuf) {
		return nil, ioutil.WrapKind("archive: read lst header", ioutil.KindMalformedArchive, errBadLSTChecksum)
	}
	if header.ModuleCount > container.LSTModuleMax {
		return nil, ioutil.WrapKind("archive: read lst header", ioutil.KindBadValue, errTooManyModules)
	}

	hashTable, err := readHashTable(r, base, header)
	if err != nil {
		return nil, err
	}
	modules, err := readModules(r, base, header)
	if err != nil {
		return nil, err
	}

	lst := &LST{Base: base, Header: header, HashTable: hashTable, Modules: modules}
	if err := validateChains(r, lst); err != nil {
		return nil, err
	}
	return lst, nil
}

func readHashTable(r io.ReaderAt, base uint64, h LSTHeader) ([]uint32, error) {
	buf := make([]byte, h.HashSize*4)
	if _, err := r.ReadAt(buf, int64(base+uint64(h.HashLoc))); err != nil {
		return nil, ioutil.WrapKind("archive: read hash table", ioutil.KindSystemCall, err)
	}
	table := make([]uint32, h.HashSize)
	for i := range table {
		table[i] = ioutil.GetB32(buf[i*4:])
	}
	return table, nil
}

func readModules(r io.ReaderAt, base uint64, h LSTHeader) ([]ModuleEntry, error) {
	if h.ModuleCount == 0 {
		return nil, nil
	}
	buf := make([]byte, h.ModuleCount*ModuleEntrySize)
	if _, err := r.ReadAt(buf, int64(base+uint64(h.ModuleLoc))); err != nil {
		return nil, ioutil.WrapKind("archive: read module directory", ioutil.KindSystemCall, err)
	}
	modules := make([]ModuleEntry, h.ModuleCount)
	for i := range modules {
		m, err := DecodeModuleEntry(buf[i*ModuleEntrySize:])
		if err != nil {
			return nil, ioutil.WrapKind("archive: decode module entry", ioutil.KindMalformedArchive, err)
		}
		modules[i] = m
	}
	return modules, nil
}

// validateChains walks every nonzero hash bucket, checking that each
// next_entry offset is strictly greater than the previous record's
// offset plus one record's size (spec §4.7) and that every referenced
// module index is in range.
func validateChains(r io.ReaderAt, lst *LST) error {
	for _, start := range lst.HashTable {
		if start == 0 {
			continue
		}
		prev := uint32(0)
		offset := start
		for offset != 0 {
			if prev != 0 && offset <= prev+SymbolRecordSize {
				return ioutil.WrapKind("archive: validate lst chain", ioutil.KindMalformedArchive, errNonIncreasingChain)
			}
			buf := make([]byte, SymbolRecordSize)
			if _, err := r.ReadAt(buf, int64(lst.Base+uint64(offset))); err != nil {
				return ioutil.WrapKind("archive: read lst symbol record", ioutil.KindSystemCall, err)
			}
			rec, err := DecodeSymbolRecord(buf)
			if err != nil {
				return ioutil.WrapKind("archive: decode lst symbol record", ioutil.KindMalformedArchive, err)
			}
			if rec.SOMIndex >= uint32(len(lst.Modules)) {
				return ioutil.WrapKind("archive: validate lst chain", ioutil.KindBadValue, errModuleIndexOutOfRange)
			}
			prev = offset
			offset = rec.NextEntry
		}
	}
	return nil
}

// Chain returns every symbol record reachable from the hash bucket name
// hashes into, in chain order.
func (lst *LST) Chain(r io.ReaderAt, name string) ([]SymbolRecord, error) {
	bucket := Hash(name) % uint32(len(lst.HashTable))
	var out []SymbolRecord
	offset := lst.HashTable[bucket]
	for offset != 0 {
		buf := make([]byte, SymbolRecordSize)
		if _, err := r.ReadAt(buf, int64(lst.Base+uint64(offset))); err != nil {
			return nil, ioutil.WrapKind("archive: read lst symbol record", ioutil.KindSystemCall, err)
		}
		rec, err := DecodeSymbolRecord(buf)
		if err != nil {
			return nil, ioutil.WrapKind("archive: decode lst symbol record", ioutil.KindMalformedArchive, err)
		}
		out = append(out, rec)
		offset = rec.NextEntry
	}
	return out, nil
}

// SOMHeaderOffset returns the absolute file offset of module index
// idx's nested SOM header — the directory entry's Location field (spec
// §4.7: "its som_index selects a module entry whose location is the
// nested header's offset; location − sizeof(ar_hdr) is the member's own
// file offset," which this package never needs separately since every
// other reader already addresses members by their post-ar_hdr data
// offset, the same convention ReadMembers uses).
func (lst *LST) SOMHeaderOffset(idx uint32) (uint64, error) {
	if idx >= uint32(len(lst.Modules)) {
		return 0, ioutil.WrapKind("archive: som header offset", ioutil.KindBadValue, errModuleIndexOutOfRange)
	}
	return uint64(lst.Modules[idx].Location), nil
}
