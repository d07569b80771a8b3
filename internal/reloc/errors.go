package reloc

import "errors"

var (
	errTruncatedStream   = errors.New("reloc: truncated fixup stream")
	errBadFormatToken    = errors.New("reloc: unrecognized format token")
	errStackOverflow     = errors.New("reloc: value stack overflow")
	errStackUnderflow    = errors.New("reloc: value stack underflow")
	errNegativeSkip      = errors.New("reloc: negative skip length")
	errUnknownOpcode     = errors.New("reloc: unknown opcode")
	errDanglingPrevFixup = errors.New("reloc: R_PREV_FIXUP references an empty queue slot")
	errSymbolOutOfRange  = errors.New("reloc: symbol index out of range")

	errSkipTooLarge     = errors.New("reloc: skip exceeds encodable range")
	errAddendTooLarge   = errors.New("reloc: addend exceeds encodable range")
	errUnencodableOrder = errors.New("reloc: relocations must be sorted by ascending offset")
)
