package archive

import (
	"fmt"

	"github.com/scigolib/som/internal/ioutil"
)

// LSTHeaderSize is the fixed on-disk size of the library symbol table
// header (spec §4.7).
const LSTHeaderSize = 48

// LSTHeader is the decoded form of the LST member's header. Checksummed
// with the same XOR-of-words, checksum-field-zeroed discipline as the
// main file header (spec §4.2, §4.7).
type LSTHeader struct {
	SystemID     uint32
	Magic        uint32
	VersionID    uint32
	FileTimeSec  uint32
	FileTimeNsec uint32

	HashLoc  uint32
	HashSize uint32

	ModuleLoc   uint32 // directory of module entries ("dir_loc")
	ModuleCount uint32

	StringLoc  uint32
	StringSize uint32

	Checksum uint32
}

// Encode serializes h into its 48-byte big-endian on-disk form, with the
// checksum written last.
func (h LSTHeader) Encode() []byte {
	buf := make([]byte, LSTHeaderSize)
	h.encodeFields(buf)
	ioutil.PutB32(buf[LSTHeaderSize-4:], computeLSTChecksum(buf))
	return buf
}

func (h LSTHeader) encodeFields(buf []byte) {
	ioutil.PutB32(buf[0:], h.SystemID)
	ioutil.PutB32(buf[4:], h.Magic)
	ioutil.PutB32(buf[8:], h.VersionID)
	ioutil.PutB32(buf[12:], h.FileTimeSec)
	ioutil.PutB32(buf[16:], h.FileTimeNsec)
	ioutil.PutB32(buf[20:], h.HashLoc)
	ioutil.PutB32(buf[24:], h.HashSize)
	ioutil.PutB32(buf[28:], h.ModuleLoc)
	ioutil.PutB32(buf[32:], h.ModuleCount)
	ioutil.PutB32(buf[36:], h.StringLoc)
	ioutil.PutB32(buf[40:], h.StringSize)
}

// DecodeLSTHeader parses a 48-byte buffer into an LSTHeader.
func DecodeLSTHeader(buf []byte) (LSTHeader, error) {
	if len(buf) < LSTHeaderSize {
		return LSTHeader{}, fmt.Errorf("LST header buffer too short: %d < %d", len(buf), LSTHeaderSize)
	}
	var h LSTHeader
	h.SystemID = ioutil.GetB32(buf[0:])
	h.Magic = ioutil.GetB32(buf[4:])
	h.VersionID = ioutil.GetB32(buf[8:])
	h.FileTimeSec = ioutil.GetB32(buf[12:])
	h.FileTimeNsec = ioutil.GetB32(buf[16:])
	h.HashLoc = ioutil.GetB32(buf[20:])
	h.HashSize = ioutil.GetB32(buf[24:])
	h.ModuleLoc = ioutil.GetB32(buf[28:])
	h.ModuleCount = ioutil.GetB32(buf[32:])
	h.StringLoc = ioutil.GetB32(buf[36:])
	h.StringSize = ioutil.GetB32(buf[40:])
	h.Checksum = ioutil.GetB32(buf[44:])
	return h, nil
}

func computeLSTChecksum(buf []byte) uint32 {
	var sum uint32
	for off := 0; off < LSTHeaderSize-4; off += 4 {
		sum ^= ioutil.GetB32(buf[off:])
	}
	return sum
}

// ValidateLSTChecksum reports whether buf's trailing checksum word
// matches the XOR of the rest of the header.
func ValidateLSTChecksum(buf []byte) bool {
	if len(buf) < LSTHeaderSize {
		return false
	}
	return ioutil.GetB32(buf[LSTHeaderSize-4:]) == computeLSTChecksum(buf)
}

// ModuleEntrySize is the fixed size of one module directory entry.
const ModuleEntrySize = 4

// ModuleEntry is one entry in the LST's module directory: the absolute
// file offset of a member's nested SOM header (spec §4.7). Unlike the
// hash table and chain offsets, which are relative to the LST's own
// base, a module can sit anywhere in the archive, so this field must be
// an absolute file position.
type ModuleEntry struct {
	Location uint32
}

func (m ModuleEntry) Encode() []byte {
	buf := make([]byte, ModuleEntrySize)
	ioutil.PutB32(buf, m.Location)
	return buf
}

func DecodeModuleEntry(buf []byte) (ModuleEntry, error) {
	if len(buf) < ModuleEntrySize {
		return ModuleEntry{}, fmt.Errorf("module entry buffer too short: %d < %d", len(buf), ModuleEntrySize)
	}
	return ModuleEntry{Location: ioutil.GetB32(buf)}, nil
}

// SymbolRecordSize is the fixed size of one lst_symbol_record.
const SymbolRecordSize = 24

// SymbolRecord is one entry in a hash bucket's chain: a symbol name
// (string-table pointer), the module it belongs to, its classification,
// and the offset of the next record in the chain (0 terminates it).
type SymbolRecord struct {
	NameOffset uint32 // points at the string bytes; length prefix is 4 bytes earlier

	SymbolType  uint8
	SymbolScope uint8

	SOMIndex    uint32
	SymbolInfo  uint32
	SymbolValue uint32
	NextEntry   uint32
}

func (s SymbolRecord) Encode() []byte {
	buf := make([]byte, SymbolRecordSize)
	ioutil.PutB32(buf[0:], s.NameOffset)
	ioutil.PutB32(buf[4:], uint32(s.SymbolType)<<24|uint32(s.SymbolScope)<<16)
	ioutil.PutB32(buf[8:], s.SOMIndex)
	ioutil.PutB32(buf[12:], s.SymbolInfo)
	ioutil.PutB32(buf[16:], s.SymbolValue)
	ioutil.PutB32(buf[20:], s.NextEntry)
	return buf
}

func DecodeSymbolRecord(buf []byte) (SymbolRecord, error) {
	if len(buf) < SymbolRecordSize {
		return SymbolRecord{}, fmt.Errorf("LST symbol record buffer too short: %d < %d", len(buf), SymbolRecordSize)
	}
	flags := ioutil.GetB32(buf[4:])
	return SymbolRecord{
		NameOffset:  ioutil.GetB32(buf[0:]),
		SymbolType:  uint8(flags >> 24),
		SymbolScope: uint8(flags >> 16),
		SOMIndex:    ioutil.GetB32(buf[8:]),
		SymbolInfo:  ioutil.GetB32(buf[12:]),
		SymbolValue: ioutil.GetB32(buf[16:]),
		NextEntry:   ioutil.GetB32(buf[20:]),
	}, nil
}

// Hash computes som_bfd_ar_symbol_hash(name) (spec §4.7): a 1-character
// name hashes by replicating its byte into two 16-bit halves; a longer
// name folds its length and its second and last two characters.
func Hash(name string) uint32 {
	switch len(name) {
	case 0:
		return 0
	case 1:
		c := uint32(name[0])
		return 0x01000100 | (c << 16) | c
	default:
		n := len(name)
		return (uint32(n)&0x7f)<<24 | uint32(name[1])<<16 | uint32(name[n-2])<<8 | uint32(name[n-1])
	}
}
