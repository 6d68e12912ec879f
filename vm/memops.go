package vm

import (
	"github.com/Urethramancer/minimisa/decoder"
)

func init() {
	register("readze", execReadze)
	register("readse", execReadse)
	register("write", execWrite)
	register("setctr", execSetctr)
	register("getctr", execGetctr)
	register("push", execPush)
	register("pop", execPop)
}

// execReadze reads size bits at C[ctr], advancing it, and zero-extends the
// result into reg. size never exceeds 64, so no truncation beyond what
// ReadBits itself already enforces is needed.
func execReadze(c *CPU, inst *decoder.Instruction) error {
	ctr := inst.Args[0].Str
	size := int(inst.Args[1].UInt)
	reg := regOperand(inst, 2)

	v, err := c.Mem.ReadBits(ctr, size)
	if err != nil {
		return &ErrSegmentationFault{Err: err}
	}
	c.R[reg] = uint32(v)
	return nil
}

// execReadse is readze's sign-extending counterpart: the high bit of the
// size-bit field, once read, is replicated up through bit 31 of the
// destination register.
func execReadse(c *CPU, inst *decoder.Instruction) error {
	ctr := inst.Args[0].Str
	size := int(inst.Args[1].UInt)
	reg := regOperand(inst, 2)

	v, err := c.Mem.ReadBits(ctr, size)
	if err != nil {
		return &ErrSegmentationFault{Err: err}
	}
	if size < 64 && v&(1<<uint(size-1)) != 0 {
		v |= ^uint64(0) << uint(size)
	}
	c.R[reg] = uint32(v)
	return nil
}

// execWrite writes the low size bits of reg at C[ctr], advancing it.
func execWrite(c *CPU, inst *decoder.Instruction) error {
	ctr := inst.Args[0].Str
	size := int(inst.Args[1].UInt)
	reg := regOperand(inst, 2)

	if err := c.Mem.WriteBits(ctr, uint64(c.R[reg]), size); err != nil {
		return &ErrSegmentationFault{Err: err}
	}
	return nil
}

func execSetctr(c *CPU, inst *decoder.Instruction) error {
	ctr := inst.Args[0].Str
	reg := regOperand(inst, 1)
	return c.Mem.SetCounter(ctr, uint64(c.R[reg]))
}

func execGetctr(c *CPU, inst *decoder.Instruction) error {
	ctr := inst.Args[0].Str
	reg := regOperand(inst, 1)
	v, err := c.Mem.Counter(ctr)
	if err != nil {
		return err
	}
	c.R[reg] = uint32(v)
	return nil
}

// execPush and execPop move size bits between a register and the stack
// counter. isa doesn't name a dedicated "stack pointer direction" — the
// counter used is always sp, matching spec.md §4.6's "push/pop <size>
// <reg>: counter sp write/read of size bits" (no counter operand in
// isa.Signatures for either variant).
func execPush(c *CPU, inst *decoder.Instruction) error {
	size := int(inst.Args[0].UInt)
	reg := regOperand(inst, 1)
	if err := c.Mem.WriteBits("sp", uint64(c.R[reg]), size); err != nil {
		return &ErrStackOverflow{Counter: "sp"}
	}
	return nil
}

func execPop(c *CPU, inst *decoder.Instruction) error {
	size := int(inst.Args[0].UInt)
	reg := regOperand(inst, 1)
	v, err := c.Mem.ReadBits("sp", size)
	if err != nil {
		return &ErrStackUnderflow{Counter: "sp"}
	}
	c.R[reg] = uint32(v)
	return nil
}
