package writer

import (
	"fmt"

	"github.com/scigolib/som/internal/container"
)

// roundUpPage rounds v up to the next multiple of PageSize.
func roundUpPage(v uint32) uint32 {
	rem := v % PageSize
	if rem == 0 {
		return v
	}
	return v + (PageSize - rem)
}

// FinishWriting emits the symbol table, symbol string table, and fixup
// stream; rewrites the subspace dictionary now that file offsets are
// known; applies the data-size page-rounding adjustment; validates the
// text/data regions fit within the final file length; and writes the
// header, checksummed, last (spec §4.6). Returns the final header as
// written, for callers that want to inspect the resolved offsets.
func FinishWriting(fw *FileWriter, layout *Layout, in *Input) (container.Header, error) {
	h := layout.header

	if len(in.Symbols) > 0 {
		addr, err := writeRecords(fw, in.Symbols, container.SymbolRecord.Encode, container.SymbolRecordSize)
		if err != nil {
			return container.Header{}, fmt.Errorf("writer: symbol table: %w", err)
		}
		h.Symbol = container.LocSize{Location: uint32(addr), Size: uint32(len(in.Symbols)) * container.SymbolRecordSize}
	}

	if len(in.SymbolStrings) > 0 {
		addr, err := fw.WriteAtWithAllocation(in.SymbolStrings)
		if err != nil {
			return container.Header{}, fmt.Errorf("writer: symbol strings: %w", err)
		}
		h.SymbolStrings = container.LocSize{Location: uint32(addr), Size: uint32(len(in.SymbolStrings))}
	}

	if len(in.FixupStream) > 0 {
		addr, err := fw.WriteAtWithAllocation(in.FixupStream)
		if err != nil {
			return container.Header{}, fmt.Errorf("writer: fixup stream: %w", err)
		}
		h.FixupRequest = container.LocSize{Location: uint32(addr), Size: uint32(len(in.FixupStream))}
	}

	if !h.Subspace.Empty() {
		if err := rewriteSubspaceDict(fw, h.Subspace, in.Subspaces); err != nil {
			return container.Header{}, err
		}
	}

	if in.ExecAux != nil {
		adjustDataSize(in.ExecAux)
		if err := validateExecRegions(fw, in.ExecAux); err != nil {
			return container.Header{}, err
		}
		if err := rewriteExecAux(fw, h.AuxHeader, *in.ExecAux); err != nil {
			return container.Header{}, err
		}
	}

	buf := h.Encode()
	if err := fw.WriteAtAddress(buf, 0); err != nil {
		return container.Header{}, fmt.Errorf("writer: header: %w", err)
	}
	h.Checksum = container.ComputeChecksum(buf)
	return h, nil
}

// adjustDataSize rounds exec_dsize up to the page boundary and shrinks
// exec_bsize by the same amount, down to zero (spec §4.6).
func adjustDataSize(exec *container.ExecAuxHeader) {
	rounded := roundUpPage(exec.DataSize)
	delta := rounded - exec.DataSize
	exec.DataSize = rounded
	if delta > exec.BssSize {
		exec.BssSize = 0
	} else {
		exec.BssSize -= delta
	}
}

// validateExecRegions fails if the text or data region, as finally
// sized, would run past the end of the file (spec §4.6).
func validateExecRegions(fw *FileWriter, exec *container.ExecAuxHeader) error {
	somLength := fw.EndOfFile()
	if uint64(exec.TextFileAddr)+uint64(exec.TextSize) > somLength {
		return fmt.Errorf("writer: text region [%d,+%d) exceeds file length %d",
			exec.TextFileAddr, exec.TextSize, somLength)
	}
	if uint64(exec.DataFileAddr)+uint64(exec.DataSize) > somLength {
		return fmt.Errorf("writer: data region [%d,+%d) exceeds file length %d",
			exec.DataFileAddr, exec.DataSize, somLength)
	}
	return nil
}

func rewriteExecAux(fw *FileWriter, loc container.LocSize, exec container.ExecAuxHeader) error {
	buf := exec.Encode()
	if uint32(len(buf)) > loc.Size {
		return fmt.Errorf("writer: exec aux header grew from %d to %d bytes", loc.Size, len(buf))
	}
	return fw.WriteAtAddress(buf, uint64(loc.Location))
}

func rewriteSubspaceDict(fw *FileWriter, loc container.LocSize, subspaces []container.Subspace) error {
	buf := make([]byte, 0, len(subspaces)*container.SubspaceSize)
	for _, ss := range subspaces {
		buf = append(buf, ss.Encode()...)
	}
	if uint32(len(buf)) != loc.Size {
		return fmt.Errorf("writer: subspace dict size changed: wrote %d, dictionary is %d", len(buf), loc.Size)
	}
	return fw.WriteAtAddress(buf, uint64(loc.Location))
}
