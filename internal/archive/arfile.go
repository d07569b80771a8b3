// Package archive implements the archive LST (library symbol table,
// spec §4.7): the host's `ar` member iteration to reach the LST member
// and the remaining SOM module members, the LST hash directory read and
// write paths, and the concrete EXECLIB resolver internal/loader needs.
//
// No archive-format library appears anywhere in the retrieval pack, so
// the common-`ar` layer is a small, direct implementation against
// io.ReaderAt rather than adopted from a third-party module — see
// DESIGN.md.
package archive

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// GlobalMagic is the fixed 8-byte signature at the start of a Unix ar
// archive.
const GlobalMagic = "!<arch>\n"

// HeaderSize is the fixed size of one ar member header.
const HeaderSize = 60

// Member is one archive member: its raw fixed-width name field and the
// file range of its data (ar_hdr is not otherwise retained).
type Member struct {
	Name   string // raw 16-byte, space-padded ar_hdr name field
	Offset uint64 // file offset of the member's data, immediately after its ar_hdr
	Size   uint64
}

// TrimmedName strips Name's trailing space padding, for display or for
// matching an ordinary (non-sentinel) member by its plain filename.
func (m Member) TrimmedName() string {
	return strings.TrimRight(m.Name, " ")
}

// ReadMembers walks the archive's member chain starting at the global
// magic, returning every member in file order. Names are HP-SOM style
// fixed 16-character fields (no GNU extended-name-table member) kept in
// their raw padded form, since the LST sentinel name is itself defined
// as a specific padding of spaces (spec §4.7) and must compare equal to
// it exactly.
func ReadMembers(r io.ReaderAt) ([]Member, error) {
	magic := make([]byte, len(GlobalMagic))
	if _, err := r.ReadAt(magic, 0); err != nil {
		return nil, fmt.Errorf("archive: read global magic: %w", err)
	}
	if string(magic) != GlobalMagic {
		return nil, fmt.Errorf("archive: bad global magic %q", magic)
	}

	var members []Member
	offset := uint64(len(GlobalMagic))

	for {
		hdr := make([]byte, HeaderSize)
		n, err := r.ReadAt(hdr, int64(offset))
		if n == 0 && err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("archive: read member header at %d: %w", offset, err)
		}

		name := string(hdr[0:16])
		sizeField := strings.TrimSpace(string(hdr[48:58]))
		size, err := strconv.ParseUint(sizeField, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("archive: member %q has malformed size field %q: %w", name, sizeField, err)
		}
		if string(hdr[58:60]) != "`\n" {
			return nil, fmt.Errorf("archive: member %q missing end-of-header magic", name)
		}

		dataOffset := offset + HeaderSize
		members = append(members, Member{Name: name, Offset: dataOffset, Size: size})

		offset = dataOffset + size
		if size%2 == 1 {
			offset++ // members are padded to a 2-byte boundary
		}
	}

	return members, nil
}

// Find returns the first member whose raw name field equals name exactly.
func Find(members []Member, name string) (Member, bool) {
	for _, m := range members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}
