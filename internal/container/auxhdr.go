package container

import (
	"fmt"

	"github.com/scigolib/som/internal/ioutil"
)

// AuxIDSize is the fixed size of the common aux-header prefix every
// aux_id record starts with (spec §4.2).
const AuxIDSize = 8

// AuxID is the common prefix shared by every aux-header record: a few
// one-bit flags, a 28-bit type tag, and the byte length of whatever
// type-specific payload follows it.
type AuxID struct {
	Mandatory bool
	Copy      bool
	Append    bool
	Ignore    bool
	Type      uint32 // 28 bits
	Length    uint32
}

var (
	auxFlagMandatory = ioutil.Bool{Shift: 31}
	auxFlagCopy      = ioutil.Bool{Shift: 30}
	auxFlagAppend    = ioutil.Bool{Shift: 29}
	auxFlagIgnore    = ioutil.Bool{Shift: 28}
	auxFlagType      = ioutil.BitField{Shift: 0, Mask: 0xFFFFFFF}
)

// Encode serializes the 8-byte aux_id prefix.
func (a AuxID) Encode() []byte {
	buf := make([]byte, AuxIDSize)
	var w uint32
	w = auxFlagMandatory.Pack(w, a.Mandatory)
	w = auxFlagCopy.Pack(w, a.Copy)
	w = auxFlagAppend.Pack(w, a.Append)
	w = auxFlagIgnore.Pack(w, a.Ignore)
	w = auxFlagType.Pack(w, a.Type)
	ioutil.PutB32(buf[0:], w)
	ioutil.PutB32(buf[4:], a.Length)
	return buf
}

// DecodeAuxID parses an 8-byte buffer into an AuxID.
func DecodeAuxID(buf []byte) (AuxID, error) {
	if len(buf) < AuxIDSize {
		return AuxID{}, fmt.Errorf("aux_id buffer too short: %d < %d", len(buf), AuxIDSize)
	}
	w := ioutil.GetB32(buf[0:])
	return AuxID{
		Mandatory: auxFlagMandatory.Unpack(w),
		Copy:      auxFlagCopy.Unpack(w),
		Append:    auxFlagAppend.Unpack(w),
		Ignore:    auxFlagIgnore.Unpack(w),
		Type:      auxFlagType.Unpack(w),
		Length:    ioutil.GetB32(buf[4:]),
	}, nil
}

// ExecAuxHeaderBodySize is the size of the exec aux header's
// type-specific payload, not counting the AuxID prefix.
const ExecAuxHeaderBodySize = 40

// ExecAuxHeader describes the executable's address-space layout
// (spec §4.2, AuxTypeExec): the standard ten-field a.out-style record.
type ExecAuxHeader struct {
	ID AuxID

	TextSize       uint32
	TextMemAddr    uint32
	TextFileAddr   uint32
	DataSize       uint32
	DataMemAddr    uint32
	DataFileAddr   uint32
	BssSize        uint32
	EntryAddr      uint32
	Flags          uint32
	CodeFileAddr   uint32
}

// Encode serializes the full exec aux header, prefix included.
func (e ExecAuxHeader) Encode() []byte {
	buf := make([]byte, AuxIDSize+ExecAuxHeaderBodySize)
	copy(buf, e.ID.Encode())
	off := AuxIDSize
	for _, v := range []uint32{
		e.TextSize, e.TextMemAddr, e.TextFileAddr,
		e.DataSize, e.DataMemAddr, e.DataFileAddr,
		e.BssSize, e.EntryAddr, e.Flags, e.CodeFileAddr,
	} {
		ioutil.PutB32(buf[off:], v)
		off += 4
	}
	return buf
}

// DecodeExecAuxHeader parses a buffer into an ExecAuxHeader.
func DecodeExecAuxHeader(buf []byte) (ExecAuxHeader, error) {
	if len(buf) < AuxIDSize+ExecAuxHeaderBodySize {
		return ExecAuxHeader{}, fmt.Errorf("exec aux header buffer too short: %d < %d", len(buf), AuxIDSize+ExecAuxHeaderBodySize)
	}
	id, err := DecodeAuxID(buf[:AuxIDSize])
	if err != nil {
		return ExecAuxHeader{}, err
	}
	fields := make([]uint32, 10)
	off := AuxIDSize
	for i := range fields {
		fields[i] = ioutil.GetB32(buf[off:])
		off += 4
	}
	return ExecAuxHeader{
		ID: id,
		TextSize: fields[0], TextMemAddr: fields[1], TextFileAddr: fields[2],
		DataSize: fields[3], DataMemAddr: fields[4], DataFileAddr: fields[5],
		BssSize: fields[6], EntryAddr: fields[7], Flags: fields[8], CodeFileAddr: fields[9],
	}, nil
}

// StringAuxHeader carries a length-prefixed, NUL-padded string payload
// (used for the version and copyright aux headers, spec §4.2).
type StringAuxHeader struct {
	ID     AuxID
	String string
}

// Encode serializes the string aux header. The string is padded with
// NUL bytes up to the next 4-byte boundary, matching the container's
// general word-alignment convention.
func (s StringAuxHeader) Encode() []byte {
	strLen := uint32(len(s.String))
	padded := (len(s.String) + 3) &^ 3
	body := make([]byte, 4+padded)
	ioutil.PutB32(body[0:], strLen)
	copy(body[4:], s.String)

	id := s.ID
	id.Length = uint32(len(body))
	buf := make([]byte, 0, AuxIDSize+len(body))
	buf = append(buf, id.Encode()...)
	buf = append(buf, body...)
	return buf
}

// DecodeStringAuxHeader parses a buffer into a StringAuxHeader. buf must
// contain at least the AuxID prefix plus the AuxID's declared Length.
func DecodeStringAuxHeader(buf []byte) (StringAuxHeader, error) {
	id, err := DecodeAuxID(buf)
	if err != nil {
		return StringAuxHeader{}, err
	}
	if uint32(len(buf)) < uint32(AuxIDSize)+id.Length || id.Length < 4 {
		return StringAuxHeader{}, fmt.Errorf("string aux header buffer too short for declared length %d", id.Length)
	}
	body := buf[AuxIDSize : uint32(AuxIDSize)+id.Length]
	strLen := ioutil.GetB32(body[0:])
	if uint32(len(body)-4) < strLen {
		return StringAuxHeader{}, fmt.Errorf("string aux header declared string length %d exceeds body", strLen)
	}
	return StringAuxHeader{ID: id, String: string(body[4 : 4+strLen])}, nil
}
