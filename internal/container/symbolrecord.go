package container

import (
	"fmt"

	"github.com/scigolib/som/internal/ioutil"
)

// SymbolRecordSize is the fixed on-disk size of one symbol dictionary entry.
const SymbolRecordSize = 16

// Symbol type values, the 6-bit SOM-side encoding the classifier (§4.4)
// maps to and from the abstract type set. Order and values match the
// on-disk enumeration; not every SOM-side value has an abstract
// counterpart (MODULE, OCT_DIS, MILLI_EXT, TSTORAGE, COMDAT fold to
// UNKNOWN on read, and are never produced on write).
const (
	SymTypeNull      = 0
	SymTypeAbsolute  = 1
	SymTypeData      = 2
	SymTypeCode      = 3
	SymTypePriProg   = 4
	SymTypeSecProg   = 5
	SymTypeEntry     = 6
	SymTypeStorage   = 7
	SymTypeStub      = 8
	SymTypeModule    = 9
	SymTypeSymExt    = 10
	SymTypeArgExt    = 11
	SymTypeMillicode = 12
	SymTypePlabel    = 13
	SymTypeOctDis    = 14
	SymTypeMilliExt  = 15
	SymTypeTStorage  = 16
	SymTypeComdat    = 17

	SymScopeUnsat     = 0
	SymScopeExternal  = 1
	SymScopeLocal     = 2
	SymScopeUniversal = 3
)

// SymbolRecord is the decoded form of one entry in the symbol dictionary
// (spec §4.2, §4.4): a 16-byte record carrying classification flags plus
// a name offset and a value (address, or arg-reloc bits for a PLABEL).
type SymbolRecord struct {
	Name uint32 // offset into the symbol string table

	SymbolType   uint8 // 6 bits
	SymbolScope  uint8 // 4 bits
	ArgReloc     uint16 // 10 bits
	Xleast       uint8  // 2 bits
	SecondaryDef bool
	IsCommon     bool
	DupCommon    bool

	SymbolInfo uint32 // 24 bits: subspace/space index the symbol belongs to
	IsComdat   bool

	Value uint32
}

var (
	symFlagType         = ioutil.BitField{Shift: 26, Mask: 0x3F}
	symFlagScope        = ioutil.BitField{Shift: 22, Mask: 0xF}
	symFlagArgReloc     = ioutil.BitField{Shift: 12, Mask: 0x3FF}
	symFlagXleast       = ioutil.BitField{Shift: 10, Mask: 0x3}
	symFlagSecondaryDef = ioutil.Bool{Shift: 9}
	symFlagIsCommon     = ioutil.Bool{Shift: 8}
	symFlagDupCommon    = ioutil.Bool{Shift: 7}

	symInfoValue    = ioutil.BitField{Shift: 8, Mask: 0xFFFFFF}
	symInfoIsComdat = ioutil.Bool{Shift: 7}
)

func (s SymbolRecord) flagsWord() uint32 {
	var w uint32
	w = symFlagType.Pack(w, uint32(s.SymbolType))
	w = symFlagScope.Pack(w, uint32(s.SymbolScope))
	w = symFlagArgReloc.Pack(w, uint32(s.ArgReloc))
	w = symFlagXleast.Pack(w, uint32(s.Xleast))
	w = symFlagSecondaryDef.Pack(w, s.SecondaryDef)
	w = symFlagIsCommon.Pack(w, s.IsCommon)
	w = symFlagDupCommon.Pack(w, s.DupCommon)
	return w
}

func (s *SymbolRecord) decodeFlagsWord(w uint32) {
	s.SymbolType = uint8(symFlagType.Unpack(w))
	s.SymbolScope = uint8(symFlagScope.Unpack(w))
	s.ArgReloc = uint16(symFlagArgReloc.Unpack(w))
	s.Xleast = uint8(symFlagXleast.Unpack(w))
	s.SecondaryDef = symFlagSecondaryDef.Unpack(w)
	s.IsCommon = symFlagIsCommon.Unpack(w)
	s.DupCommon = symFlagDupCommon.Unpack(w)
}

func (s SymbolRecord) infoWord() uint32 {
	var w uint32
	w = symInfoValue.Pack(w, s.SymbolInfo)
	w = symInfoIsComdat.Pack(w, s.IsComdat)
	return w
}

func (s *SymbolRecord) decodeInfoWord(w uint32) {
	s.SymbolInfo = symInfoValue.Unpack(w)
	s.IsComdat = symInfoIsComdat.Unpack(w)
}

// Encode serializes s into its 16-byte big-endian on-disk form.
func (s SymbolRecord) Encode() []byte {
	buf := make([]byte, SymbolRecordSize)
	ioutil.PutB32(buf[0:], s.flagsWord())
	ioutil.PutB32(buf[4:], s.infoWord())
	ioutil.PutB32(buf[8:], s.Name)
	ioutil.PutB32(buf[12:], s.Value)
	return buf
}

// DecodeSymbolRecord parses a 16-byte buffer into a SymbolRecord.
func DecodeSymbolRecord(buf []byte) (SymbolRecord, error) {
	if len(buf) < SymbolRecordSize {
		return SymbolRecord{}, fmt.Errorf("symbol record buffer too short: %d < %d", len(buf), SymbolRecordSize)
	}
	var s SymbolRecord
	s.decodeFlagsWord(ioutil.GetB32(buf[0:]))
	s.decodeInfoWord(ioutil.GetB32(buf[4:]))
	s.Name = ioutil.GetB32(buf[8:])
	s.Value = ioutil.GetB32(buf[12:])
	return s, nil
}

// IsFunctionType reports whether t denotes a function-like symbol: one
// whose Value carries a privilege level in its low 2 bits that must be
// masked off to recover the real address (spec §4.4).
func IsFunctionType(t uint8) bool {
	switch t {
	case SymTypeCode, SymTypeEntry, SymTypePriProg, SymTypeSecProg, SymTypeMillicode, SymTypePlabel:
		return true
	default:
		return false
	}
}
