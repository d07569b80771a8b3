// Command somdump is a debugging utility that dumps a SOM object file's
// header, sections, symbols, and private exec data to stdout.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/scigolib/som"
)

func main() {
	symbols := flag.Bool("symbols", false, "also dump the symbol table")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Println("Usage: somdump [flags] <object.o>")
		fmt.Println("Flags:")
		flag.PrintDefaults()
		return
	}

	file := args[0]
	obj, err := som.OpenFile(file, nil)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", file, err)
	}
	defer func() {
		if err := obj.Close(); err != nil {
			log.Printf("Failed to close %s: %v", file, err)
		}
	}()

	h := obj.Header()
	fmt.Printf("%s: system id 0x%x, magic 0x%x, version id %d\n", file, h.SystemID, h.Magic, h.VersionID)

	fmt.Println("Sections:")
	for _, sec := range obj.Sections() {
		kind := "subspace"
		if sec.IsSpace() {
			kind = "space"
		}
		fmt.Printf("  [%3d] %-8s %-24s vma=0x%08x size=0x%x flags=%v\n",
			sec.TargetIndex(), kind, sec.Name(), sec.VMA(), sec.Size(), sec.Flags())
	}

	if err := som.PrintPrivateData(os.Stdout, obj); err != nil {
		log.Fatalf("Failed to print private data: %v", err)
	}

	if *symbols {
		syms, err := obj.Symbols()
		if err != nil {
			log.Fatalf("Failed to read symbols: %v", err)
		}
		fmt.Println("Symbols:")
		for _, sym := range syms {
			fmt.Printf("  %-32s type=%v scope=%v value=0x%08x\n", sym.Name(), sym.Type(), sym.Scope(), sym.Value())
		}
	}
}
