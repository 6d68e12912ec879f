package vm

import (
	"fmt"

	"github.com/Urethramancer/minimisa/decoder"
)

// pcSource adapts memory.Memory's "pc" counter to decoder.BitSource, so the
// same Decoder used for disassembly can fetch directly from live memory.
type pcSource struct {
	mem interface {
		ReadBits(counter string, n int) (uint64, error)
	}
}

func (s pcSource) ReadBits(n int) (string, error) {
	v, err := s.mem.ReadBits("pc", n)
	if err != nil {
		return "", &ErrSegmentationFault{Err: err}
	}
	bits := make([]byte, n)
	for i := 0; i < n; i++ {
		if v&(1<<uint(n-1-i)) != 0 {
			bits[i] = '1'
		} else {
			bits[i] = '0'
		}
	}
	return string(bits), nil
}

// handlers dispatches a decoded variant to its execution function. Built at
// package init from the per-file handler tables in arithmetic.go, flow.go,
// memops.go and misc.go, mirroring the teacher's Handler-func-per-
// DecodedInstruction pattern but keyed by variant name instead of carried on
// the instruction itself, since decoder.Instruction has no handler field of
// its own.
var handlers = map[string]func(*CPU, *decoder.Instruction) error{}

func register(variant string, fn func(*CPU, *decoder.Instruction) error) {
	handlers[variant] = fn
}

// Step performs one Von Neumann step: fetch the next instruction from
// C[pc], dispatch it to a handler, update flags, and detect a 1-instruction
// infinite loop (pc back at the instruction's own address once it has
// executed, as after a jump to itself) as a halt condition per spec.md
// §4.6 step 5.
func (c *CPU) Step() error {
	if c.Halted || !c.Running {
		return nil
	}
	if c.Sleep > 0 {
		c.Sleep--
		return nil
	}

	pcBefore, err := c.Mem.Counter("pc")
	if err != nil {
		return err
	}

	inst, err := c.Dec.Decode(pcSource{mem: c.Mem})
	if err != nil {
		return fmt.Errorf("vm: decode at pc=%d: %w", pcBefore, err)
	}

	fn, ok := handlers[inst.Variant]
	if !ok {
		return &ErrUnknownOpcode{Variant: inst.Variant}
	}

	if err := fn(c, inst); err != nil {
		return fmt.Errorf("vm: executing %q at pc=%d: %w", inst.Variant, pcBefore, err)
	}

	pcAfter, err := c.Mem.Counter("pc")
	if err != nil {
		return err
	}
	if pcAfter == pcBefore {
		c.Halted = true
		c.Log.WithField("pc", pcBefore).Debug("halting: program counter did not advance")
	}
	return nil
}

func regOperand(inst *decoder.Instruction, i int) int {
	return int(inst.Args[i].UInt)
}
