package vm

import (
	"fmt"

	"github.com/Urethramancer/minimisa/memory"
	"github.com/sirupsen/logrus"
)

// VM is the thin wrapper cmd/run drives: a CPU over a Memory, with the
// load/dump/run surface the teacher's cmd/run68 expects of its own vm
// package (which, in the copied repo, has no source at all — only that
// call site to ground against). LoadCode/DumpRegisters/Run here replace
// the teacher's byte-addressed D/A-register version with MinimISA's
// bit-addressed r0..r7 model.
type VM struct {
	CPU *CPU
	Mem *memory.Memory
}

// New allocates a VM with the default segment geometry and the given
// opcode table (isa.DefaultOpcodes, or a generated Huffman table).
func New(opcodes map[string]string, log logrus.FieldLogger) *VM {
	mem := memory.New(memory.DefaultSegments())
	return &VM{
		CPU: NewCPU(mem, opcodes, log),
		Mem: mem,
	}
}

// LoadCode copies packed binary instructions into the text segment
// starting at addr and points pc at it, mirroring cmd/run68/main.go's
// v.LoadCode(startAddress, code) call. MinimISA has no relocatable ORG
// address of its own (the assembler always emits from position 0), so addr
// is honored as an additional offset from the text segment's start.
func (v *VM) LoadCode(addr uint64, code []byte) error {
	text := v.Mem.Segments().Text
	if addr+uint64(len(code))*8 > text {
		return &memory.ErrProgramTooLarge{Bits: int(addr) + len(code)*8, Text: text}
	}
	if err := v.Mem.SetCounter("pc", addr); err != nil {
		return err
	}
	for _, b := range code {
		if err := v.Mem.WriteBits("pc", uint64(b), 8); err != nil {
			return err
		}
	}
	return v.Mem.SetCounter("pc", addr)
}

// DumpRegisters logs the register file, counters and flags as a single
// structured entry, mirroring the teacher's v.DumpRegisters() debug dump.
func (v *VM) DumpRegisters() {
	pc, _ := v.Mem.Counter("pc")
	sp, _ := v.Mem.Counter("sp")
	fields := logrus.Fields{
		"pc": pc, "sp": sp,
		"Z": v.CPU.Z, "N": v.CPU.N, "C": v.CPU.C, "V": v.CPU.V,
		"halted": v.CPU.Halted,
	}
	for i, r := range v.CPU.R {
		fields[fmt.Sprintf("r%d", i)] = fmt.Sprintf("%08x", r)
	}
	v.CPU.Log.WithFields(fields).Info("registers")
}

// Run drives Step in a loop for up to maxCycles instructions, mirroring
// cmd/run68/main.go's execution loop, and returns the number executed.
func (v *VM) Run(maxCycles int) (int, error) {
	v.CPU.Running = true
	executed := 0
	for ; executed < maxCycles; executed++ {
		if !v.CPU.Running || v.CPU.Halted {
			break
		}
		if err := v.CPU.Step(); err != nil {
			return executed, err
		}
	}
	return executed, nil
}
