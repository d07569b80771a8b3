package container

import (
	"fmt"

	"github.com/scigolib/som/internal/ioutil"
)

// SubspaceSize is the fixed on-disk size of one subspace dictionary entry.
const SubspaceSize = 40

// Subspace is the decoded form of a concrete byte range within a space.
// Alignment is stored as a byte count; it must be an exact power of two
// (the loader rejects any that isn't).
type Subspace struct {
	SpaceIndex     uint32
	FileLocInit    uint32 // file offset of initialized bytes
	InitLength     uint32
	SubspaceStart  uint32 // virtual start (VMA)
	SubspaceLength uint32
	Alignment      uint32
	Name           uint32
	FixupReqIndex  uint32
	FixupReqQty    uint32

	AccessControlBits uint8 // 7 bits
	MemoryResident    bool
	DupCommon         bool
	IsCommon          bool
	IsLoadable        bool
	Quadrant          uint8 // 2 bits
	InitiallyFrozen   bool
	IsFirst           bool
	CodeOnly          bool
	SortKey           uint8 // 8 bits
	ReplicateInit     bool
	Continuation      bool
	IsTSpecific       bool
	IsComdat          bool
}

var (
	ssFlagAccessControl  = ioutil.BitField{Shift: 25, Mask: 0x7F}
	ssFlagMemoryResident = ioutil.Bool{Shift: 24}
	ssFlagDupCommon      = ioutil.Bool{Shift: 23}
	ssFlagIsCommon       = ioutil.Bool{Shift: 22}
	ssFlagIsLoadable     = ioutil.Bool{Shift: 21}
	ssFlagQuadrant       = ioutil.BitField{Shift: 19, Mask: 0x3}
	ssFlagFrozen         = ioutil.Bool{Shift: 18}
	ssFlagIsFirst        = ioutil.Bool{Shift: 17}
	ssFlagCodeOnly       = ioutil.Bool{Shift: 16}
	ssFlagSortKey        = ioutil.BitField{Shift: 8, Mask: 0xFF}
	ssFlagReplicateInit  = ioutil.Bool{Shift: 7}
	ssFlagContinuation   = ioutil.Bool{Shift: 6}
	ssFlagTSpecific      = ioutil.Bool{Shift: 5}
	ssFlagComdat         = ioutil.Bool{Shift: 4}
)

func (s Subspace) flagsWord() uint32 {
	var w uint32
	w = ssFlagAccessControl.Pack(w, uint32(s.AccessControlBits))
	w = ssFlagMemoryResident.Pack(w, s.MemoryResident)
	w = ssFlagDupCommon.Pack(w, s.DupCommon)
	w = ssFlagIsCommon.Pack(w, s.IsCommon)
	w = ssFlagIsLoadable.Pack(w, s.IsLoadable)
	w = ssFlagQuadrant.Pack(w, uint32(s.Quadrant))
	w = ssFlagFrozen.Pack(w, s.InitiallyFrozen)
	w = ssFlagIsFirst.Pack(w, s.IsFirst)
	w = ssFlagCodeOnly.Pack(w, s.CodeOnly)
	w = ssFlagSortKey.Pack(w, uint32(s.SortKey))
	w = ssFlagReplicateInit.Pack(w, s.ReplicateInit)
	w = ssFlagContinuation.Pack(w, s.Continuation)
	w = ssFlagTSpecific.Pack(w, s.IsTSpecific)
	w = ssFlagComdat.Pack(w, s.IsComdat)
	return w
}

func decodeSubspaceFlags(s *Subspace, w uint32) {
	s.AccessControlBits = uint8(ssFlagAccessControl.Unpack(w))
	s.MemoryResident = ssFlagMemoryResident.Unpack(w)
	s.DupCommon = ssFlagDupCommon.Unpack(w)
	s.IsCommon = ssFlagIsCommon.Unpack(w)
	s.IsLoadable = ssFlagIsLoadable.Unpack(w)
	s.Quadrant = uint8(ssFlagQuadrant.Unpack(w))
	s.InitiallyFrozen = ssFlagFrozen.Unpack(w)
	s.IsFirst = ssFlagIsFirst.Unpack(w)
	s.CodeOnly = ssFlagCodeOnly.Unpack(w)
	s.SortKey = uint8(ssFlagSortKey.Unpack(w))
	s.ReplicateInit = ssFlagReplicateInit.Unpack(w)
	s.Continuation = ssFlagContinuation.Unpack(w)
	s.IsTSpecific = ssFlagTSpecific.Unpack(w)
	s.IsComdat = ssFlagComdat.Unpack(w)
}

// Encode serializes s into its 40-byte big-endian on-disk form.
func (s Subspace) Encode() []byte {
	buf := make([]byte, SubspaceSize)
	ioutil.PutB32(buf[0:], s.SpaceIndex)
	ioutil.PutB32(buf[4:], s.FileLocInit)
	ioutil.PutB32(buf[8:], s.InitLength)
	ioutil.PutB32(buf[12:], s.SubspaceStart)
	ioutil.PutB32(buf[16:], s.SubspaceLength)
	ioutil.PutB32(buf[20:], s.Alignment)
	ioutil.PutB32(buf[24:], s.Name)
	ioutil.PutB32(buf[28:], s.FixupReqIndex)
	ioutil.PutB32(buf[32:], s.FixupReqQty)
	ioutil.PutB32(buf[36:], s.flagsWord())
	return buf
}

// DecodeSubspace parses a 40-byte buffer into a Subspace.
func DecodeSubspace(buf []byte) (Subspace, error) {
	if len(buf) < SubspaceSize {
		return Subspace{}, fmt.Errorf("subspace buffer too short: %d < %d", len(buf), SubspaceSize)
	}
	var s Subspace
	s.SpaceIndex = ioutil.GetB32(buf[0:])
	s.FileLocInit = ioutil.GetB32(buf[4:])
	s.InitLength = ioutil.GetB32(buf[8:])
	s.SubspaceStart = ioutil.GetB32(buf[12:])
	s.SubspaceLength = ioutil.GetB32(buf[16:])
	s.Alignment = ioutil.GetB32(buf[20:])
	s.Name = ioutil.GetB32(buf[24:])
	s.FixupReqIndex = ioutil.GetB32(buf[28:])
	s.FixupReqQty = ioutil.GetB32(buf[32:])
	decodeSubspaceFlags(&s, ioutil.GetB32(buf[36:]))
	return s, nil
}

// IsAlignmentValid reports whether Alignment is an exact power of two,
// the invariant the loader must reject otherwise (spec §3, §4.5).
func (s Subspace) IsAlignmentValid() bool {
	return s.Alignment != 0 && s.Alignment&(s.Alignment-1) == 0
}
