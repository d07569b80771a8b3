// Package writer implements the object writer (spec §4.6): two-pass file
// layout, an end-of-file space allocator, and the staged fixup-stream
// buffer the emitter flushes into.
package writer

import (
	"fmt"
	"sort"
)

// AllocatedBlock tracks an allocated region of the output file.
type AllocatedBlock struct {
	Offset uint64
	Size   uint64
}

// Allocator hands out file offsets for begin_writing's two-pass layout
// (spec §4.6). It uses end-of-file allocation only: every call extends
// the file, nothing is freed or reused, which matches the layout order
// the writer itself already enforces (header, aux headers, dictionaries,
// strings, then subspace contents in loadable/unloadable groups).
//
// Not safe for concurrent use; the writer is single-threaded (spec §5).
type Allocator struct {
	blocks     []AllocatedBlock
	nextOffset uint64
}

// NewAllocator creates an allocator starting allocations at initialOffset
// (typically the fixed header size, since the header itself is rewritten
// in place by finish_writing rather than allocated).
func NewAllocator(initialOffset uint64) *Allocator {
	return &Allocator{
		blocks:     make([]AllocatedBlock, 0, 16),
		nextOffset: initialOffset,
	}
}

// Allocate reserves size bytes at the current end of file and returns the
// address. Size must be nonzero.
func (a *Allocator) Allocate(size uint64) (uint64, error) {
	if size == 0 {
		return 0, fmt.Errorf("cannot allocate zero bytes")
	}

	addr := a.nextOffset
	a.blocks = append(a.blocks, AllocatedBlock{Offset: addr, Size: size})
	a.nextOffset = addr + size
	return addr, nil
}

// AllocateAligned reserves size bytes at the next multiple of align (a
// power of two), padding the gap as an untracked hole. Used for the
// page-aligned subspace groups and the 4-byte-aligned subspace dictionary
// (spec §4.6).
func (a *Allocator) AllocateAligned(size, align uint64) (uint64, error) {
	if align == 0 || align&(align-1) != 0 {
		return 0, fmt.Errorf("alignment %d is not a power of two", align)
	}
	if rem := a.nextOffset % align; rem != 0 {
		a.nextOffset += align - rem
	}
	return a.Allocate(size)
}

// IsAllocated reports whether [offset, offset+size) overlaps any
// previously allocated block.
func (a *Allocator) IsAllocated(offset, size uint64) bool {
	if size == 0 {
		return false
	}
	rangeEnd := offset + size
	for _, block := range a.blocks {
		blockEnd := block.Offset + block.Size
		if offset < blockEnd && block.Offset < rangeEnd {
			return true
		}
	}
	return false
}

// EndOfFile returns the current end-of-file address — the address the
// next allocation would receive, and the final file length once layout
// is complete.
func (a *Allocator) EndOfFile() uint64 {
	return a.nextOffset
}

// Blocks returns a copy of all allocated blocks, sorted by offset.
func (a *Allocator) Blocks() []AllocatedBlock {
	blocks := make([]AllocatedBlock, len(a.blocks))
	copy(blocks, a.blocks)
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Offset < blocks[j].Offset
	})
	return blocks
}

// ValidateNoOverlaps checks allocator invariants; a non-nil result
// indicates a layout bug in the writer, not a malformed input file.
func (a *Allocator) ValidateNoOverlaps() error {
	blocks := a.Blocks()
	for i := 0; i < len(blocks)-1; i++ {
		current, next := blocks[i], blocks[i+1]
		if current.Offset+current.Size > next.Offset {
			return fmt.Errorf("overlap detected: block at %d (size %d) overlaps block at %d",
				current.Offset, current.Size, next.Offset)
		}
	}
	return nil
}
