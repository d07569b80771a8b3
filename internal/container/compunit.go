package container

import (
	"fmt"

	"github.com/scigolib/som/internal/ioutil"
)

// CompUnitSize is the fixed on-disk size of one compilation unit record.
const CompUnitSize = 24

// CompUnit records which compiler produced a space (spec §4.2's
// "compilers" table). Every field is a string-table offset except
// Reserved, which the real format carries for alignment and this
// back-end forces to zero on encode.
type CompUnit struct {
	Name      uint32
	Language  uint32
	ProductID uint32
	VersionID uint32
	Reserved  [2]uint32
}

// Encode serializes c into its 24-byte big-endian on-disk form.
func (c CompUnit) Encode() []byte {
	buf := make([]byte, CompUnitSize)
	ioutil.PutB32(buf[0:], c.Name)
	ioutil.PutB32(buf[4:], c.Language)
	ioutil.PutB32(buf[8:], c.ProductID)
	ioutil.PutB32(buf[12:], c.VersionID)
	ioutil.PutB32(buf[16:], 0)
	ioutil.PutB32(buf[20:], 0)
	return buf
}

// DecodeCompUnit parses a 24-byte buffer into a CompUnit.
func DecodeCompUnit(buf []byte) (CompUnit, error) {
	if len(buf) < CompUnitSize {
		return CompUnit{}, fmt.Errorf("compilation unit buffer too short: %d < %d", len(buf), CompUnitSize)
	}
	var c CompUnit
	c.Name = ioutil.GetB32(buf[0:])
	c.Language = ioutil.GetB32(buf[4:])
	c.ProductID = ioutil.GetB32(buf[8:])
	c.VersionID = ioutil.GetB32(buf[12:])
	return c, nil
}
