// Command asm assembles a MinimISA source file, writing both the
// cleartext bitstream (<base>.obj) and the packed binary (<base>.bin)
// alongside it. Mirrors cmd/asm68/main.go's argument shape one-for-one:
// a single positional source file, a plain read-assemble-write sequence,
// exit 1 with a message on stderr for any I/O or assembly failure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Urethramancer/minimisa/assemble"
	"github.com/Urethramancer/minimisa/encoder"
	"github.com/Urethramancer/minimisa/internal/atomicfile"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <sourcefile.s>\n", os.Args[0])
		os.Exit(1)
	}

	inputFile := os.Args[1]
	if ext := strings.ToLower(filepath.Ext(inputFile)); ext != ".s" {
		fmt.Fprintf(os.Stderr, "Error: source file must have extension .s, got %q\n", ext)
		os.Exit(1)
	}

	src, err := os.ReadFile(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading source file: %v\n", err)
		os.Exit(1)
	}

	ctx := assemble.New()
	result, err := ctx.Assemble(string(src), filepath.Dir(inputFile), filepath.Base(inputFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Assembly error: %v\n", err)
		os.Exit(1)
	}

	base := strings.TrimSuffix(inputFile, filepath.Ext(inputFile))
	objFile := base + ".obj"
	binFile := base + ".bin"

	if err := atomicfile.Write(objFile, []byte(strings.Join(result.Cleartext, "\n")+"\n"), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", objFile, err)
		os.Exit(1)
	}
	object := encoder.EncodeObject(result.BitLength, result.Binary)
	if err := atomicfile.Write(binFile, object, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", binFile, err)
		os.Exit(1)
	}

	fmt.Printf("Assembled %s -> %s, %s (%d instructions, %d bytes)\n",
		inputFile, objFile, binFile, len(result.Cleartext), len(result.Binary))
}
