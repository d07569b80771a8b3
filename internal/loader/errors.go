package loader

import "errors"

var (
	errBadSystemID         = errors.New("loader: system id outside the PA-RISC acceptance range")
	errBadMagic            = errors.New("loader: magic not in the accepted set")
	errNoExeclibResolver   = errors.New("loader: EXECLIB header with no resolver configured")
	errTooManyIndirections = errors.New("loader: too many nested EXECLIB indirections")
	errBadAlignment        = errors.New("loader: subspace alignment is not an exact power of two")
)
