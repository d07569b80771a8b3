package host

import "github.com/scigolib/som/internal/container"

// Attachment is the per-section side data this back-end hangs off a host
// Section (spec §3 "Ownership": "this back-end attaches side data
// (space/subspace/copy/compilation-unit records, reloc stream buffer,
// string table) via a per-section handle").
type Attachment struct {
	Space       *container.Space
	Subspace    *container.Subspace
	CompUnit    *container.CompUnit
	FixupStream []byte
	StringTable []byte
}

// Arena owns every structure the loader deserializes for one object
// (spec §3 "Ownership": "the loader arena owns every deserialized
// structure reachable from the object... on teardown the arena releases
// everything"). Go's garbage collector reclaims the structures
// themselves; what the arena actually owns and must run down explicitly
// is non-memory state — open file handles, anything registered via
// Defer. Explicit Close calls (via Defer) stand in for the spec's
// "explicit frees... for temporary malloc'd buffers not placed into the
// arena."
type Arena struct {
	attachments map[*Section]*Attachment
	closers     []func() error
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{attachments: make(map[*Section]*Attachment)}
}

// Attach records a's side data against sec, overwriting any previous
// attachment.
func (a *Arena) Attach(sec *Section, att Attachment) {
	a.attachments[sec] = &att
}

// Lookup returns sec's attached side data, if any.
func (a *Arena) Lookup(sec *Section) (Attachment, bool) {
	att, ok := a.attachments[sec]
	if !ok {
		return Attachment{}, false
	}
	return *att, true
}

// Defer registers a teardown function Close runs, in reverse
// registration order (last-registered, first-closed — mirrors deferred
// resource acquisition order).
func (a *Arena) Defer(closer func() error) {
	a.closers = append(a.closers, closer)
}

// Close runs every registered closer, releasing the arena. It keeps
// going after a failing closer so a teardown error in one resource never
// leaks the rest; it returns the first error encountered, if any.
func (a *Arena) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	a.attachments = make(map[*Section]*Attachment)
	return first
}
