package ioutil

import "encoding/binary"

// ReaderAt is a simplified interface for io.ReaderAt.
type ReaderAt interface {
	ReadAt(p []byte, off int64) (n int, err error)
}

// ReadUint64 reads a 64-bit value at the specified offset.
func ReadUint64(r ReaderAt, offset int64, order binary.ByteOrder) (uint64, error) {
	buf := GetBuffer(8)
	defer ReleaseBuffer(buf)

	if _, err := r.ReadAt(buf, offset); err != nil {
		return 0, err
	}
	return order.Uint64(buf), nil
}

// GetB16 reads a big-endian 16-bit value from b[0:2]. SOM is big-endian
// only (spec §1 Non-goals); there is no little-endian counterpart.
func GetB16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }

// GetB32 reads a big-endian 32-bit value from b[0:4].
func GetB32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// GetB64 reads a big-endian 64-bit value from b[0:8].
func GetB64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

// PutB16 writes v big-endian into b[0:2].
func PutB16(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }

// PutB32 writes v big-endian into b[0:4].
func PutB32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }

// PutB64 writes v big-endian into b[0:8].
func PutB64(b []byte, v uint64) { binary.BigEndian.PutUint64(b, v) }

// BitField describes one field packed into a flags word: Shift counts
// bits up from the LSB, Mask is the field's own width mask (e.g. 0x7 for
// a 3-bit field, unshifted).
type BitField struct {
	Shift uint
	Mask  uint32
}

// Pack returns word with field f replaced by value. value is masked to
// f's width; callers validate ranges before packing (spec §4.1 — packing
// failures are not modeled, only arithmetic).
func (f BitField) Pack(word, value uint32) uint32 {
	word &^= f.Mask << f.Shift
	word |= (value & f.Mask) << f.Shift
	return word
}

// Unpack extracts field f from word.
func (f BitField) Unpack(word uint32) uint32 {
	return (word >> f.Shift) & f.Mask
}

// Bool is a single-bit BitField read and written as a bool.
type Bool struct{ Shift uint }

// Pack sets or clears the bit.
func (b Bool) Pack(word uint32, value bool) uint32 {
	bf := BitField{Shift: b.Shift, Mask: 1}
	if value {
		return bf.Pack(word, 1)
	}
	return bf.Pack(word, 0)
}

// Unpack reads the bit as a bool.
func (b Bool) Unpack(word uint32) bool {
	return (BitField{Shift: b.Shift, Mask: 1}).Unpack(word) != 0
}
