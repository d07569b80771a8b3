package reloc

import (
	"github.com/scigolib/som/internal/ioutil"
)

// maxSkip is the largest gap a single R_NO_RELOCATION opcode can encode;
// larger gaps are emitted as repeated max-skip opcodes (spec §4.3.3).
const maxSkip = 0x1000000

// Encoder emits relocations as a fixup stream, maintaining the queue-based
// dedup and the skip/override compression spec §4.3.3 describes. An
// Encoder is single-use: construct one per subspace emission.
type Encoder struct {
	queue *Queue
	pos   uint32 // current position within the subspace
	out   []byte
}

// NewEncoder returns an Encoder starting at subspace offset 0.
func NewEncoder() *Encoder {
	return &Encoder{queue: NewQueue()}
}

// Queue exposes the encoder's fixup queue for tests.
func (e *Encoder) Queue() *Queue { return e.queue }

// Encode emits relocs, which must be sorted by ascending Offset, and
// returns the resulting fixup stream.
func (e *Encoder) Encode(relocs []Relocation) ([]byte, error) {
	for i, r := range relocs {
		if i > 0 && r.Offset < relocs[i-1].Offset {
			return nil, ioutil.WrapKind("reloc: encode", ioutil.KindBadValue, errUnencodableOrder)
		}
		if err := e.emitGap(r.Offset); err != nil {
			return nil, err
		}
		if err := e.emitReloc(r); err != nil {
			return nil, err
		}
	}
	return e.out, nil
}

// emitGap encodes R_NO_RELOCATION opcodes covering the byte gap between
// the encoder's current position and target (spec §4.3.3 step 1).
func (e *Encoder) emitGap(target uint32) error {
	if target < e.pos {
		return ioutil.WrapKind("reloc: encode", ioutil.KindBadValue, errUnencodableOrder)
	}
	gap := target - e.pos
	for gap >= maxSkip {
		e.appendSpan([]byte{opNoRelocMax, 0xFF, 0xFF, 0xFF})
		gap -= maxSkip
		e.pos += maxSkip
	}
	if gap == 0 {
		return nil
	}
	span, err := encodeSkipSpan(gap)
	if err != nil {
		return err
	}
	e.appendSpan(span)
	e.pos += gap
	return nil
}

// encodeSkipSpan picks the smallest R_NO_RELOCATION variant that encodes
// exactly gap bytes (spec §4.3.3: "using the smallest variant that fits").
func encodeSkipSpan(gap uint32) ([]byte, error) {
	if gap == 0 {
		return nil, nil
	}
	if gap <= 24 {
		return []byte{byte(opNoRelocShortBase + gap - 1)}, nil
	}
	if gap%4 == 0 {
		v := gap/4 - 1
		if k, ok := widthFor(v, 3); ok {
			return append([]byte{byte(opNoRelocMul4Base + k)}, encodeBE(v, k+1)...), nil
		}
	}
	v := gap - 1
	if k, ok := widthFor(v, 2); ok {
		return append([]byte{byte(opNoRelocExactBase + k)}, encodeBE(v, k+1)...), nil
	}
	return nil, ioutil.WrapKind("reloc: encode", ioutil.KindBadValue, errSkipTooLarge)
}

// widthFor returns the smallest byte count k+1 (k in [0,maxK]) that can
// hold v, or false if v needs more than maxK+1 bytes.
func widthFor(v uint32, maxK int) (int, bool) {
	for k := 0; k <= maxK; k++ {
		if uint64(v) < (uint64(1) << uint((k+1)*8)) {
			return k, true
		}
	}
	return 0, false
}

func encodeBE(v uint32, n int) []byte {
	b := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

// emitReloc emits the relocation opcode itself (spec §4.3.3 step 3),
// after first emitting R_DATA_OVERRIDE for any nonzero addend on a class
// whose own format carries no register for it (step 2) — the
// symbol-bearing classes (aS=/dS=) and a handful of singletons all fall
// in that bucket; TypeEntry/TypeExit bind T/U directly and never need
// it, same as the classes that bind V.
func (e *Encoder) emitReloc(r Relocation) error {
	if err := e.emitOverrideIfNeeded(r); err != nil {
		return err
	}
	span, err := e.buildRelocSpan(r)
	if err != nil {
		return err
	}
	if len(span) > 1 {
		if k, ok := e.queue.Find(span); ok {
			e.appendSpan([]byte{byte(opPrevFixup0 + k)})
			e.queue.Rotate(k)
			e.pos += relocAdvance(r.Type)
			return nil
		}
	}
	e.appendSpan(span)
	e.pos += relocAdvance(r.Type)
	return nil
}

// addendBoundDirectly reports whether t's own opcode format carries its
// addend in a register (V, or T/U for TypeEntry/TypeExit), meaning it
// never needs a preceding R_DATA_OVERRIDE.
func addendBoundDirectly(t Type) bool {
	switch t {
	case TypeEntry, TypeExit:
		return true // bind T/U directly via their own "dT="/"dU=" format
	}
	if _, ok := symOpcodes[t]; ok {
		return false // aS=/dS= formats bind the symbol register, not V
	}
	entry, ok := singletonOpcodes[t]
	if !ok {
		return false
	}
	return table[entry].format == "dV=" || table[entry].format == "aV="
}

// emitOverrideIfNeeded emits the shortest-fitting R_DATA_OVERRIDE variant
// ahead of r's own opcode when r carries a nonzero addend that its
// format has no register to carry (spec §4.3.3 step 2).
func (e *Encoder) emitOverrideIfNeeded(r Relocation) error {
	if r.Addend == 0 || addendBoundDirectly(r.Type) {
		return nil
	}
	if r.Addend < -0x80000000 || r.Addend > 0xFFFFFFFF {
		return ioutil.WrapKind("reloc: encode", ioutil.KindBadValue, errAddendTooLarge)
	}
	v := uint32(r.Addend)
	n := 1
	for n < 4 && uint64(v) >= (uint64(1)<<uint(n*8)) {
		n++
	}
	op := opDataOverride1 + (n - 1)
	e.appendSpan(append([]byte{byte(op)}, encodeBE(v, n)...))
	return nil
}

// relocAdvance is how many bytes committing a relocation of t advances
// the subspace cursor; it mirrors the decoder's entry.autoAdvance for
// every type this encoder knows how to emit.
func relocAdvance(t Type) uint32 {
	if pair, ok := symOpcodes[t]; ok {
		return table[pair[0]].autoAdvance
	}
	if op, ok := singletonOpcodes[t]; ok {
		return table[op].autoAdvance
	}
	return 0
}

func (e *Encoder) appendSpan(span []byte) {
	if len(span) > 1 {
		e.queue.Insert(span)
	}
	e.out = append(e.out, span...)
}

func (e *Encoder) buildRelocSpan(r Relocation) ([]byte, error) {
	if pair, ok := symOpcodes[r.Type]; ok {
		return buildSymSpan(pair, r)
	}
	op, ok := singletonOpcodes[r.Type]
	if !ok {
		return nil, ioutil.WrapKind("reloc: encode", ioutil.KindBadValue, errUnknownOpcode)
	}
	return buildSingletonSpan(op, r)
}

func buildSymSpan(pair [2]byte, r Relocation) ([]byte, error) {
	var op byte
	var symBytes []byte
	if r.Symbol < 0x100 {
		op = pair[0]
		symBytes = encodeBE(r.Symbol, 1)
	} else if r.Symbol < 0x10000000 {
		op = pair[1]
		symBytes = encodeBE(r.Symbol, 4)
	} else {
		return nil, ioutil.WrapKind("reloc: encode", ioutil.KindBadValue, errSymbolOutOfRange)
	}
	span := append([]byte{op}, symBytes...)
	if r.HasArgReloc {
		span = append(span, byte(r.ArgReloc))
	}
	return span, nil
}

func buildSingletonSpan(op byte, r Relocation) ([]byte, error) {
	entry := table[op]
	if entry.format == "" {
		return []byte{op}, nil
	}
	if entry.format == "aO=" {
		return []byte{op, byte(r.SubOpcode)}, nil
	}
	addend := r.Addend
	if addend < -0x80000000 || addend > 0xFFFFFFFF {
		return nil, ioutil.WrapKind("reloc: encode", ioutil.KindBadValue, errAddendTooLarge)
	}
	return append([]byte{op}, encodeBE(uint32(addend), 4)...), nil
}
