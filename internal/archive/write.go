package archive

import "github.com/scigolib/som/internal/ioutil"

// SymbolEntry is one candidate for the LST's hash directory: a symbol
// drawn from a member's symbol table during the archive write path
// (spec §4.7: "for each member that is a SOM object, iterate its symbol
// table and emit an LST symbol record for every symbol of scope
// UNIVERSAL or type STORAGE, skipping NULL/SYM_EXT/ARG_EXT and
// undefined").
type SymbolEntry struct {
	Name        string
	SOMIndex    uint32
	SymbolType  uint8
	SymbolScope uint8
	SymbolInfo  uint32
	SymbolValue uint32
}

// Built is the write-side product: an LST header plus the hash table,
// the symbol records in emission order, and the length-prefixed,
// 4-byte-padded string area their NameOffset fields index into.
type Built struct {
	Header    LSTHeader
	HashTable []uint32
	Records   []SymbolRecord
	Strings   []byte
}

// BuildLST hashes entries into hashSize buckets (31, LSTHashSize, when
// hashSize is 0), linking each new record onto the tail of its bucket's
// chain (spec §4.7), and lays out a length-prefixed string area for
// their names. Record offsets assume the records sit immediately after
// the hash table. Built.Header is left zero: the caller decides where
// each region finally lives and fills in the header itself.
func BuildLST(entries []SymbolEntry, hashSize uint32) Built {
	tableSize := hashSize
	if tableSize == 0 {
		tableSize = 31
	}
	table := make([]uint32, tableSize)
	tails := make(map[uint32]int) // bucket -> index into records of its current tail

	var records []SymbolRecord
	var strings []byte

	// recordOffset mirrors where each record will land once the caller
	// places this region at some base: immediately after the hash
	// table, at a fixed record size stride.
	recordOffset := func(i int) uint32 {
		return tableSize*4 + uint32(i)*SymbolRecordSize
	}

	for _, e := range entries {
		nameOff, newStrings := appendLengthPrefixedName(strings, e.Name)
		strings = newStrings

		rec := SymbolRecord{
			NameOffset:  nameOff,
			SymbolType:  e.SymbolType,
			SymbolScope: e.SymbolScope,
			SOMIndex:    e.SOMIndex,
			SymbolInfo:  e.SymbolInfo,
			SymbolValue: e.SymbolValue,
		}
		records = append(records, rec)
		newIdx := len(records) - 1
		newOffset := recordOffset(newIdx)

		bucket := Hash(e.Name) % tableSize
		if tailIdx, ok := tails[bucket]; ok {
			records[tailIdx].NextEntry = newOffset
		} else {
			table[bucket] = newOffset
		}
		tails[bucket] = newIdx
	}

	return Built{HashTable: table, Records: records, Strings: strings}
}

// appendLengthPrefixedName appends name to strings as a 4-byte length
// prefix followed by the name bytes padded to a 4-byte boundary (spec
// §4.7), returning the offset of the name bytes themselves (the pointer
// convention SymbolRecord.NameOffset uses — "minus 4 for a length
// prefix" to recover the length).
func appendLengthPrefixedName(strings []byte, name string) (uint32, []byte) {
	base := uint32(len(strings))
	strings = append(strings, 0, 0, 0, 0)
	ioutil.PutB32(strings[base:], uint32(len(name)))
	nameOffset := base + 4
	strings = append(strings, name...)
	for len(strings)%4 != 0 {
		strings = append(strings, 0)
	}
	return nameOffset, strings
}
