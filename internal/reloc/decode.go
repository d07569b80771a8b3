package reloc

import (
	"github.com/scigolib/som/internal/ioutil"
)

// Decoder runs the postfix interpreter over one subspace's fixup stream
// (spec §4.3.2). A Decoder is single-use: construct one per parse.
type Decoder struct {
	stream     []byte
	numSymbols uint32
	contents   []byte

	m      *machine
	queue  *Queue
	pos    int
	replay bool
}

// Queue exposes the decoder's fixup queue, primarily for tests asserting
// queue semantics independent of the relocations produced.
func (d *Decoder) Queue() *Queue { return d.queue }

// DecoderOption configures optional Decoder behavior.
type DecoderOption func(*Decoder)

// WithSectionContents supplies the subspace's own byte contents, needed
// only for R_DATA_ONE_SYMBOL's addend fallback (spec §4.3.2: "else a
// 32-bit word read from the section's current offset in its contents").
// Callers that never decode that class (or don't have the contents
// handy) can omit it; the fallback then yields zero.
func WithSectionContents(contents []byte) DecoderOption {
	return func(d *Decoder) { d.contents = contents }
}

// NewDecoder returns a Decoder over stream. numSymbols bounds the symbol
// indices the stream is allowed to reference.
func NewDecoder(stream []byte, numSymbols uint32, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		stream:     stream,
		numSymbols: numSymbols,
		m:          newMachine(),
		queue:      NewQueue(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode parses the entire stream and returns every committed relocation
// in stream order.
func (d *Decoder) Decode() ([]Relocation, error) {
	return d.run(false)
}

// DecodeCount parses the entire stream executing every state transition
// but without materializing relocations, returning only their count
// (spec §4.3.2: "the returned count must equal the committed count of a
// non-count pass").
func (d *Decoder) DecodeCount() (int, error) {
	relocs, err := d.run(true)
	return len(relocs), err
}

func (d *Decoder) run(countOnly bool) ([]Relocation, error) {
	var out []Relocation
	for d.pos < len(d.stream) {
		r, committed, err := d.step()
		if err != nil {
			return nil, err
		}
		if !committed {
			continue
		}
		if countOnly {
			r = Relocation{}
		}
		out = append(out, r)
	}
	return out, nil
}

// step decodes exactly one opcode (following and replaying a
// R_PREV_FIXUP transparently) and reports whether it committed a
// relocation.
func (d *Decoder) step() (Relocation, bool, error) {
	if d.pos >= len(d.stream) {
		return Relocation{}, false, ioutil.WrapKind("reloc: decode", ioutil.KindMalformedFixupStream, errTruncatedStream)
	}
	opcode := d.stream[d.pos]
	entry := table[opcode]
	if entry.format == "" && entry.typ == TypeInvalid {
		return Relocation{}, false, ioutil.WrapKind("reloc: decode", ioutil.KindMalformedFixupStream, errUnknownOpcode)
	}

	startPos := d.pos
	d.pos++

	if entry.typ == TypePrevFixup {
		slot := int(entry.embedded)
		span := d.queue.Slot(slot)
		if span == nil {
			return Relocation{}, false, ioutil.WrapKind("reloc: decode", ioutil.KindMalformedFixupStream, errDanglingPrevFixup)
		}
		r, committed, err := d.replaySpan(span)
		if err != nil {
			return Relocation{}, false, err
		}
		d.queue.Rotate(slot)
		return r, committed, nil
	}

	d.m.regs['Z'-'A'] = entry.embedded
	br := &byteReader{buf: d.stream, pos: d.pos}
	if err := d.m.runFormat(entry.format, br); err != nil {
		return Relocation{}, false, err
	}
	d.pos = br.pos

	span := d.stream[startPos:d.pos]
	if len(span) > 1 && !d.replay {
		d.queue.Insert(span)
	}

	return d.finishOpcode(entry)
}

// replaySpan re-runs a queued fixup's bytes against the current machine
// state, as R_PREV_FIXUP requires (spec §4.3.2: "the rewound cursor
// replays that fixup against the current state before resuming").
func (d *Decoder) replaySpan(span []byte) (Relocation, bool, error) {
	opcode := span[0]
	entry := table[opcode]
	d.m.regs['Z'-'A'] = entry.embedded
	br := &byteReader{buf: span, pos: 1}

	prevReplay := d.replay
	d.replay = true
	err := d.m.runFormat(entry.format, br)
	d.replay = prevReplay
	if err != nil {
		return Relocation{}, false, err
	}
	return d.finishOpcode(entry)
}

func (d *Decoder) finishOpcode(entry opcodeEntry) (Relocation, bool, error) {
	if isModeSwitch(entry.typ) {
		if entry.typ == TypeNMode || entry.typ == TypeSMode || entry.typ == TypeDMode || entry.typ == TypeRMode {
			d.m.rounding = entry.typ
		} else {
			d.m.selector = entry.typ
		}
	}

	if entry.typ == TypeDataOverride {
		v, _ := d.m.regs['V'-'A'], true
		d.m.pendingOverride = v
		d.m.hasPendingOverride = true
		return Relocation{}, false, nil
	}

	offset := d.m.offset
	if entry.autoAdvance > 0 && !d.m.assigned['L'-'A'] {
		d.m.offset += entry.autoAdvance
	}

	if noCommit(entry.typ) {
		return Relocation{}, false, nil
	}

	r := Relocation{Offset: offset, Type: entry.typ}

	if sym, ok := d.m.symbolReg(); ok {
		if sym >= d.numSymbols {
			return Relocation{}, false, ioutil.WrapKind("reloc: decode", ioutil.KindMalformedFixupStream, errSymbolOutOfRange)
		}
		r.Symbol = sym
		r.HasSymbol = true
	}
	if ar, ok := d.m.argRelocReg(); ok {
		r.ArgReloc = ar
		r.HasArgReloc = true
	}
	if entry.typ == TypeComp1 || entry.typ == TypeComp2 || entry.typ == TypeComp3 {
		r.SubOpcode = d.m.regs['O'-'A']
	}

	switch entry.typ {
	case TypeEntry:
		r.Addend = d.m.regs['T'-'A']
	case TypeExit:
		r.Addend = int64(d.m.unwindCarry)
	case TypeDataOneSymbol:
		if d.m.hasPendingOverride {
			r.Addend = d.m.pendingOverride
			d.m.hasPendingOverride = false
		} else if v := d.m.regs['V'-'A']; v != 0 {
			r.Addend = v
		} else if off := int(offset); off >= 0 && off+4 <= len(d.contents) {
			r.Addend = int64(ioutil.GetB32(d.contents[off : off+4]))
		}
	default:
		if d.m.hasPendingOverride {
			r.Addend = d.m.pendingOverride
			d.m.hasPendingOverride = false
		} else {
			r.Addend = d.m.regs['V'-'A']
		}
	}

	// Operand registers do not carry over to the next relocation; the
	// offset, modes, unwind carry and a staged override do.
	for i := range d.m.regs {
		d.m.regs[i] = 0
	}

	return r, true, nil
}
