package som

// LinkSplitSection implements link_split_section (spec §4.8, Design
// Note (c)): it reports whether sec's size exceeds obj's split
// threshold and so should be split into multiple subspaces at link
// time to stay within PA-RISC's branch-displacement range. The
// threshold defaults to container.DefaultSplitThreshold but is
// configurable per Object via WithSplitThreshold, rather than the
// fixed constant the original heuristic hard-codes.
func (o *Object) LinkSplitSection(sec *Section) bool {
	return sec.Size() > uint64(o.splitThreshold)
}
