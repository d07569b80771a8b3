package som

import "github.com/scigolib/som/internal/ioutil"

// Kind classifies a failure the way spec §7 groups them, so a host can
// decide whether to keep the partially-read object or discard it. The
// original interface reports this by setting a global "last error"
// value a caller checks after a bool-returning call fails; every
// operation in this package instead returns an explicit error, the
// idiomatic Go equivalent — Kind and KindOf below exist so a caller
// that wants the same classification still has it available on the
// returned error, without reviving the global-state convention.
type Kind = ioutil.Kind

// The closed set of failure kinds spec §7 names.
const (
	KindWrongFormat          = ioutil.KindWrongFormat
	KindMalformedArchive     = ioutil.KindMalformedArchive
	KindMalformedFixupStream = ioutil.KindMalformedFixupStream
	KindBadValue             = ioutil.KindBadValue
	KindNoMemory             = ioutil.KindNoMemory
	KindFileTooBig           = ioutil.KindFileTooBig
	KindSystemCall           = ioutil.KindSystemCall
)

// KindOf extracts the reported Kind from an error this package
// returned, walking its Unwrap chain. Returns the zero Kind if err
// carries no classification.
func KindOf(err error) Kind {
	return ioutil.KindOf(err)
}
