package archive

import (
	"io"

	"github.com/scigolib/som/internal/container"
)

// Archive is an opened `ar` file plus its parsed LST, if it has one.
type Archive struct {
	Members []Member
	LST     *LST // nil if the archive carries no LST member
}

// Open reads an archive's member list and, if present, its LST (spec
// §4.7). An archive with no LST member is not an error — not every `ar`
// file of SOM objects has been indexed by `ranlib`-equivalent tooling.
func Open(r io.ReaderAt) (*Archive, error) {
	members, err := ReadMembers(r)
	if err != nil {
		return nil, err
	}
	if _, ok := Find(members, container.LSTMemberArName); !ok {
		return &Archive{Members: members}, nil
	}
	lst, err := ReadLST(r)
	if err != nil {
		return nil, err
	}
	return &Archive{Members: members, LST: lst}, nil
}

// CollectLSTEntries selects the symbols one member contributes to the
// LST (spec §4.7): scope UNIVERSAL or type STORAGE, skipping
// NULL/SYM_EXT/ARG_EXT and undefined (scope UNSAT) symbols.
func CollectLSTEntries(records []container.SymbolRecord, nameOf func(container.SymbolRecord) string, somIndex uint32) []SymbolEntry {
	var out []SymbolEntry
	for _, rec := range records {
		switch rec.SymbolType {
		case container.SymTypeNull, container.SymTypeSymExt, container.SymTypeArgExt:
			continue
		}
		if rec.SymbolScope == container.SymScopeUnsat {
			continue
		}
		if rec.SymbolScope != container.SymScopeUniversal && rec.SymbolType != container.SymTypeStorage {
			continue
		}
		out = append(out, SymbolEntry{
			Name:        nameOf(rec),
			SOMIndex:    somIndex,
			SymbolType:  rec.SymbolType,
			SymbolScope: rec.SymbolScope,
			SymbolInfo:  rec.SymbolInfo,
			SymbolValue: rec.Value,
		})
	}
	return out
}
