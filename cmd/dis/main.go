// Command dis disassembles a packed MinimISA binary file back to mnemonic
// text. Mirrors cmd/dis68/main.go's argument shape one-for-one: a single
// positional input file, an optional output file, exit 1 with a stderr
// message on any I/O or decode failure.
package main

import (
	"fmt"
	"os"

	"github.com/Urethramancer/minimisa/disassembler"
	"github.com/Urethramancer/minimisa/internal/atomicfile"
	"github.com/Urethramancer/minimisa/isa"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <inputfile.bin> [outputfile]\n", os.Args[0])
		os.Exit(1)
	}

	inputFile := os.Args[1]
	var outputFile string
	if len(os.Args) == 3 {
		outputFile = os.Args[2]
	}

	code, err := os.ReadFile(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
		os.Exit(1)
	}

	disasm, err := disassembler.DisassembleObject(code, isa.DefaultOpcodes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Disassembly error: %v\n", err)
		os.Exit(1)
	}

	if outputFile == "" {
		fmt.Print(disasm)
	} else {
		if err := atomicfile.Write(outputFile, []byte(disasm), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Disassembly written to %s\n", outputFile)
	}
}
