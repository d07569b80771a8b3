package som

import (
	"fmt"
	"io"
)

// PrintPrivateData implements print_private_bfd_data (spec §4.8,
// §6): a stable, human-readable dump of the object's exec aux header,
// the fields a generic `objdump`-style host has no vocabulary for.
// Reports nothing (and returns nil) for an object with no exec aux
// header.
func PrintPrivateData(w io.Writer, obj *Object) error {
	exec := obj.ExecAux()
	if exec == nil {
		return nil
	}

	rows := []struct {
		label string
		value uint32
	}{
		{"text size", exec.TextSize},
		{"text mem addr", exec.TextMemAddr},
		{"text file addr", exec.TextFileAddr},
		{"data size", exec.DataSize},
		{"data mem addr", exec.DataMemAddr},
		{"data file addr", exec.DataFileAddr},
		{"bss size", exec.BssSize},
		{"entry addr", exec.EntryAddr},
		{"flags", exec.Flags},
		{"code file addr", exec.CodeFileAddr},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "  %-16s 0x%08x\n", row.label, row.value); err != nil {
			return err
		}
	}
	return nil
}
