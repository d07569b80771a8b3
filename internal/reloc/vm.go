package reloc

import (
	"github.com/scigolib/som/internal/ioutil"
)

// machine is the postfix interpreter's persistent state across one
// subspace's fixup stream (spec §4.3.2, §9): 26 integer registers and a
// transient value stack, rebuilt fresh for each opcode.
type machine struct {
	regs  [26]int64
	stack []int64

	offset      uint32
	unwindCarry uint32
	rounding    Type // last of N_MODE/S_MODE/D_MODE/R_MODE seen
	selector    Type // last of FSEL/LSEL/RSEL/N0SEL/N1SEL seen

	assigned [26]bool // which registers this opcode actually bound

	pendingOverride    int64
	hasPendingOverride bool
}

func newMachine() *machine {
	return &machine{rounding: TypeNMode}
}

const maxStackDepth = 20

func (m *machine) push(v int64) error {
	if len(m.stack) >= maxStackDepth {
		return ioutil.WrapKind("reloc: push", ioutil.KindMalformedFixupStream, errStackOverflow)
	}
	m.stack = append(m.stack, v)
	return nil
}

func (m *machine) pop() (int64, error) {
	if len(m.stack) == 0 {
		return 0, ioutil.WrapKind("reloc: pop", ioutil.KindMalformedFixupStream, errStackUnderflow)
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

// byteReader abstracts reading big-endian operand bytes from either the
// live fixup stream (decode) or a replayed queue slot (R_PREV_FIXUP).
type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) readBE(n int) (int64, error) {
	if r.pos+n > len(r.buf) {
		return 0, ioutil.WrapKind("reloc: read operand", ioutil.KindMalformedFixupStream, errTruncatedStream)
	}
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(r.buf[r.pos+i])
	}
	r.pos += n
	return int64(v), nil
}

// runFormat executes format against br, using and mutating m. Registers
// bound during this call are flagged in m.assigned.
func (m *machine) runFormat(format string, br *byteReader) error {
	m.stack = m.stack[:0]
	for i := 0; i < 26; i++ {
		m.assigned[i] = false
	}

	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c >= '0' && c <= '9':
			if err := m.push(int64(c - '0')); err != nil {
				return err
			}
		case c == '+' || c == '*' || c == '<':
			b, err := m.pop()
			if err != nil {
				return err
			}
			a, err := m.pop()
			if err != nil {
				return err
			}
			var r int64
			switch c {
			case '+':
				r = a + b
			case '*':
				r = a * b
			case '<':
				r = a << uint(b)
			}
			if err := m.push(r); err != nil {
				return err
			}
		case c >= 'a' && c <= 'd':
			k := int(c - 'a')
			v, err := br.readBE(k + 1)
			if err != nil {
				return err
			}
			if err := m.push(v); err != nil {
				return err
			}
		case c >= 'A' && c <= 'Z':
			idx := int(c - 'A')
			if i+1 < len(runes) && runes[i+1] == '=' {
				v, err := m.pop()
				if err != nil {
					return err
				}
				if c == 'V' {
					v = int64(int32(v))
				}
				m.regs[idx] = v
				m.assigned[idx] = true
				if err := m.bindSideEffect(c, v); err != nil {
					return err
				}
				i++
			} else {
				if err := m.push(m.regs[idx]); err != nil {
					return err
				}
			}
		default:
			return ioutil.WrapKind("reloc: run format", ioutil.KindMalformedFixupStream, errBadFormatToken)
		}
	}
	return nil
}

// bindSideEffect applies the per-letter side effects spec §4.3.2 names.
func (m *machine) bindSideEffect(letter rune, v int64) error {
	switch letter {
	case 'L':
		if v < 0 {
			return ioutil.WrapKind("reloc: bind L", ioutil.KindMalformedFixupStream, errNegativeSkip)
		}
		m.offset += uint32(v)
	case 'U':
		m.unwindCarry = uint32(v)
	case 'O':
		// sub-opcode selection; the resolved index is carried on the
		// committed Relocation's SubOpcode field for the caller to
		// dispatch against the appropriate comp1/2/3 table.
	case 'S':
		// symbol resolution is range-checked by the caller, which knows
		// the symbol array length; the machine only records the binding.
	}
	return nil
}

func (m *machine) symbolReg() (uint32, bool) {
	return uint32(m.regs['S'-'A']), m.assigned['S'-'A']
}

func (m *machine) argRelocReg() (uint16, bool) {
	return uint16(m.regs['R'-'A']), m.assigned['R'-'A']
}
