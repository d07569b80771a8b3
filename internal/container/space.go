package container

import (
	"fmt"

	"github.com/scigolib/som/internal/ioutil"
)

// SpaceSize is the fixed on-disk size of one space dictionary entry.
const SpaceSize = 36

// Space is the decoded form of a logical address region entry (spec §3).
type Space struct {
	Name              uint32 // offset into the space-string table
	SpaceNumber       uint32
	SubspaceIndex     uint32
	SubspaceQuantity  uint32
	LoaderFixIndex    uint32
	LoaderFixQuantity uint32
	InitPointerIndex  uint32
	InitPtrQuantity   uint32

	IsLoadable          bool
	IsDefined           bool
	IsPrivate           bool
	HasIntermediateCode bool
	IsTSpecific         bool
	SortKey             uint8
}

var (
	spaceFlagLoadable  = ioutil.Bool{Shift: 31}
	spaceFlagDefined   = ioutil.Bool{Shift: 30}
	spaceFlagPrivate   = ioutil.Bool{Shift: 29}
	spaceFlagIntermed  = ioutil.Bool{Shift: 28}
	spaceFlagTSpecific = ioutil.Bool{Shift: 27}
	spaceFlagSortKey   = ioutil.BitField{Shift: 19, Mask: 0xFF}
)

func (s Space) flagsWord() uint32 {
	var w uint32
	w = spaceFlagLoadable.Pack(w, s.IsLoadable)
	w = spaceFlagDefined.Pack(w, s.IsDefined)
	w = spaceFlagPrivate.Pack(w, s.IsPrivate)
	w = spaceFlagIntermed.Pack(w, s.HasIntermediateCode)
	w = spaceFlagTSpecific.Pack(w, s.IsTSpecific)
	w = spaceFlagSortKey.Pack(w, uint32(s.SortKey))
	return w
}

func decodeSpaceFlags(w uint32) (loadable, defined, private, intermed, tspecific bool, sortKey uint8) {
	return spaceFlagLoadable.Unpack(w), spaceFlagDefined.Unpack(w), spaceFlagPrivate.Unpack(w),
		spaceFlagIntermed.Unpack(w), spaceFlagTSpecific.Unpack(w), uint8(spaceFlagSortKey.Unpack(w))
}

// Encode serializes s into its 36-byte big-endian on-disk form.
func (s Space) Encode() []byte {
	buf := make([]byte, SpaceSize)
	ioutil.PutB32(buf[0:], s.Name)
	ioutil.PutB32(buf[4:], s.SpaceNumber)
	ioutil.PutB32(buf[8:], s.SubspaceIndex)
	ioutil.PutB32(buf[12:], s.SubspaceQuantity)
	ioutil.PutB32(buf[16:], s.LoaderFixIndex)
	ioutil.PutB32(buf[20:], s.LoaderFixQuantity)
	ioutil.PutB32(buf[24:], s.InitPointerIndex)
	ioutil.PutB32(buf[28:], s.InitPtrQuantity)
	ioutil.PutB32(buf[32:], s.flagsWord())
	return buf
}

// DecodeSpace parses a 36-byte buffer into a Space. Reserved flag bits
// are ignored (they are forced to zero on Encode).
func DecodeSpace(buf []byte) (Space, error) {
	if len(buf) < SpaceSize {
		return Space{}, fmt.Errorf("space buffer too short: %d < %d", len(buf), SpaceSize)
	}
	var s Space
	s.Name = ioutil.GetB32(buf[0:])
	s.SpaceNumber = ioutil.GetB32(buf[4:])
	s.SubspaceIndex = ioutil.GetB32(buf[8:])
	s.SubspaceQuantity = ioutil.GetB32(buf[12:])
	s.LoaderFixIndex = ioutil.GetB32(buf[16:])
	s.LoaderFixQuantity = ioutil.GetB32(buf[20:])
	s.InitPointerIndex = ioutil.GetB32(buf[24:])
	s.InitPtrQuantity = ioutil.GetB32(buf[28:])
	s.IsLoadable, s.IsDefined, s.IsPrivate, s.HasIntermediateCode, s.IsTSpecific, s.SortKey = decodeSpaceFlags(ioutil.GetB32(buf[32:]))
	return s, nil
}
