package container

import (
	"fmt"

	"github.com/scigolib/som/internal/ioutil"
)

// HeaderSize is the fixed on-disk size of a SOM file header.
const HeaderSize = 124

// LocSize is one of the header's eleven location/size pairs (spec §3):
// either (0,0), meaning the region is absent, or a byte range inside the
// file respecting the alignment the owning field calls for.
type LocSize struct {
	Location uint32
	Size     uint32
}

// Empty reports whether the pair is the absent-region sentinel (0,0).
func (l LocSize) Empty() bool { return l.Location == 0 && l.Size == 0 }

// InFile reports whether the pair is empty or lies within [0, fileSize).
func (l LocSize) InFile(fileSize uint64) bool {
	return ioutil.InRange(uint64(l.Location), uint64(l.Size), fileSize)
}

// Header is the decoded form of the fixed-size SOM file header (spec §3).
type Header struct {
	SystemID  uint32
	Magic     uint32
	VersionID uint32

	FileTimeSec  uint32
	FileTimeNsec uint32

	EntrySpace    uint32
	EntrySubspace uint32
	EntryOffset   uint32

	AuxHeader     LocSize
	Space         LocSize
	Subspace      LocSize
	LoaderFixup   LocSize
	SpaceStrings  LocSize
	InitArray     LocSize
	Compiler      LocSize
	Symbol        LocSize
	FixupRequest  LocSize
	SymbolStrings LocSize
	Unloadable    LocSize

	Checksum uint32
}

// Encode serializes h into its 124-byte big-endian on-disk form, with the
// checksum written last (spec §4.2: "on write it is written last").
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	h.encodeFields(buf)
	ioutil.PutB32(buf[HeaderSize-4:], ComputeChecksum(buf))
	return buf
}

// encodeFields writes every field except the checksum (used by both
// Encode and ComputeChecksum's "checksum field treated as zero" rule,
// since encodeFields never touches the last word).
func (h Header) encodeFields(buf []byte) {
	ioutil.PutB32(buf[0:], h.SystemID)
	ioutil.PutB32(buf[4:], h.Magic)
	ioutil.PutB32(buf[8:], h.VersionID)
	ioutil.PutB32(buf[12:], h.FileTimeSec)
	ioutil.PutB32(buf[16:], h.FileTimeNsec)
	ioutil.PutB32(buf[20:], h.EntrySpace)
	ioutil.PutB32(buf[24:], h.EntrySubspace)
	ioutil.PutB32(buf[28:], h.EntryOffset)

	pairs := []LocSize{
		h.AuxHeader, h.Space, h.Subspace, h.LoaderFixup, h.SpaceStrings,
		h.InitArray, h.Compiler, h.Symbol, h.FixupRequest, h.SymbolStrings,
		h.Unloadable,
	}
	off := 32
	for _, p := range pairs {
		ioutil.PutB32(buf[off:], p.Location)
		ioutil.PutB32(buf[off+4:], p.Size)
		off += 8
	}
	// buf[off:off+4] is the checksum field; left as whatever the caller
	// put there (zero for ComputeChecksum, overwritten by Encode).
}

// DecodeHeader parses a 124-byte buffer into a Header. It does not
// validate system id or magic; callers apply those checks (spec §4.5)
// because a rejection there is WrongFormat, not a decode failure.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("header buffer too short: %d < %d", len(buf), HeaderSize)
	}

	var h Header
	h.SystemID = ioutil.GetB32(buf[0:])
	h.Magic = ioutil.GetB32(buf[4:])
	h.VersionID = ioutil.GetB32(buf[8:])
	h.FileTimeSec = ioutil.GetB32(buf[12:])
	h.FileTimeNsec = ioutil.GetB32(buf[16:])
	h.EntrySpace = ioutil.GetB32(buf[20:])
	h.EntrySubspace = ioutil.GetB32(buf[24:])
	h.EntryOffset = ioutil.GetB32(buf[28:])

	pairs := make([]*LocSize, 11)
	pairs[0], pairs[1], pairs[2], pairs[3], pairs[4] = &h.AuxHeader, &h.Space, &h.Subspace, &h.LoaderFixup, &h.SpaceStrings
	pairs[5], pairs[6], pairs[7], pairs[8], pairs[9], pairs[10] = &h.InitArray, &h.Compiler, &h.Symbol, &h.FixupRequest, &h.SymbolStrings, &h.Unloadable

	off := 32
	for _, p := range pairs {
		p.Location = ioutil.GetB32(buf[off:])
		p.Size = ioutil.GetB32(buf[off+4:])
		off += 8
	}
	h.Checksum = ioutil.GetB32(buf[off:])

	return h, nil
}

// ComputeChecksum computes the header checksum: XOR of all 32-bit words
// of the serialized header with the checksum field treated as zero
// (spec §3, §4.2). buf must be HeaderSize bytes; the word at
// buf[HeaderSize-4:] is skipped regardless of its contents.
func ComputeChecksum(buf []byte) uint32 {
	var sum uint32
	for off := 0; off < HeaderSize-4; off += 4 {
		sum ^= ioutil.GetB32(buf[off:])
	}
	return sum
}

// ValidateChecksum reports whether buf's trailing checksum word matches
// ComputeChecksum of the rest of the header.
func ValidateChecksum(buf []byte) bool {
	if len(buf) < HeaderSize {
		return false
	}
	return ioutil.GetB32(buf[HeaderSize-4:]) == ComputeChecksum(buf)
}
