package archive

import "errors"

var (
	errNoLSTMember           = errors.New("archive: no member named the fixed LST name")
	errBadLSTMagic           = errors.New("archive: LST header magic is not LIBMAGIC")
	errBadLSTChecksum        = errors.New("archive: LST header checksum mismatch")
	errTooManyModules        = errors.New("archive: LST module count exceeds the module limit")
	errNonIncreasingChain    = errors.New("archive: LST hash chain is not strictly increasing")
	errModuleIndexOutOfRange = errors.New("archive: LST symbol record names a module index out of range")
	errNoResolverModule      = errors.New("archive: EXECLIB resolver has no module directory entry to follow")
)
