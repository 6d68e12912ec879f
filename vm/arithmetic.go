package vm

import "github.com/Urethramancer/minimisa/decoder"

// addFlags and subFlags compute (result, carry, overflow) for the two ops
// that track them, kept distinct because their carry/overflow tests are not
// interchangeable: add's carry is "the wide sum left bit 32 set"; sub's
// carry follows the borrow convention evalCondition's lt/ge read (a < b
// unsigned), which is the opposite sense of add's carry-out. Overflow for
// both is the standard two's-complement test: add overflows when the
// operands share a sign and the result doesn't; sub overflows when the
// operands differ in sign and the result doesn't match the minuend's.
func addFlags(a, b uint32) (ur uint32, carry, overflow bool) {
	ur = a + b
	carry = uint64(a)+uint64(b) >= (uint64(1) << WordSize)
	overflow = (int32(a) < 0) == (int32(b) < 0) && (int32(a) < 0) != (int32(ur) < 0)
	return
}

func subFlags(a, b uint32) (ur uint32, carry, overflow bool) {
	ur = a - b
	carry = a < b
	overflow = (int32(a) < 0) != (int32(b) < 0) && (int32(a) < 0) != (int32(ur) < 0)
	return
}

func andOp(a, b uint32) uint32 { return a & b }
func orOp(a, b uint32) uint32  { return a | b }
func xorOp(a, b uint32) uint32 { return a ^ b }

func init() {
	register("add2", exec2(addFlags))
	register("add2i", exec2i(addFlags))
	register("add3", exec3(addFlags))
	register("add3i", exec3i(addFlags))

	register("sub2", exec2(subFlags))
	register("sub2i", exec2i(subFlags))
	register("sub3", exec3(subFlags))
	register("sub3i", exec3i(subFlags))

	register("and2", exec2NoFlags(andOp))
	register("and2i", exec2iNoFlags(andOp))
	register("and3", exec3NoFlags(andOp))
	register("and3i", exec3iNoFlags(andOp))

	register("or2", exec2NoFlags(orOp))
	register("or2i", exec2iNoFlags(orOp))
	register("or3", exec3NoFlags(orOp))
	register("or3i", exec3iNoFlags(orOp))

	register("xor3", exec3NoFlags(xorOp))
	register("xor3i", exec3iNoFlags(xorOp))

	register("cmp", execCmp)
	register("cmpi", execCmpi)

	register("let", execLet)
	register("leti", execLeti)

	register("shift", execShift)
	register("asr3", execAsr3)
}

type flagsOp func(a, b uint32) (ur uint32, carry, overflow bool)

func (c *CPU) applyFlags(ur uint32, carry, overflow bool) {
	c.Z = ur == 0
	c.N = int32(ur) < 0
	c.C = carry
	c.V = overflow
}

func exec2(op flagsOp) func(*CPU, *decoder.Instruction) error {
	return func(c *CPU, inst *decoder.Instruction) error {
		r1, r2 := regOperand(inst, 0), regOperand(inst, 1)
		ur, carry, overflow := op(c.R[r1], c.R[r2])
		c.R[r1] = ur
		c.applyFlags(ur, carry, overflow)
		return nil
	}
}

func exec2i(op flagsOp) func(*CPU, *decoder.Instruction) error {
	return func(c *CPU, inst *decoder.Instruction) error {
		r1 := regOperand(inst, 0)
		ur, carry, overflow := op(c.R[r1], uint32(inst.Args[1].UInt))
		c.R[r1] = ur
		c.applyFlags(ur, carry, overflow)
		return nil
	}
}

func exec3(op flagsOp) func(*CPU, *decoder.Instruction) error {
	return func(c *CPU, inst *decoder.Instruction) error {
		dst, r1, r2 := regOperand(inst, 0), regOperand(inst, 1), regOperand(inst, 2)
		ur, carry, overflow := op(c.R[r1], c.R[r2])
		c.R[dst] = ur
		c.applyFlags(ur, carry, overflow)
		return nil
	}
}

func exec3i(op flagsOp) func(*CPU, *decoder.Instruction) error {
	return func(c *CPU, inst *decoder.Instruction) error {
		dst, r1 := regOperand(inst, 0), regOperand(inst, 1)
		ur, carry, overflow := op(c.R[r1], uint32(inst.Args[2].UInt))
		c.R[dst] = ur
		c.applyFlags(ur, carry, overflow)
		return nil
	}
}

// exec2NoFlags et al. back the bitwise ops, which spec.md §4.6 doesn't list
// among the carry/overflow-tracking arithmetic group; only Z/N follow.
func exec2NoFlags(op func(a, b uint32) uint32) func(*CPU, *decoder.Instruction) error {
	return func(c *CPU, inst *decoder.Instruction) error {
		r1, r2 := regOperand(inst, 0), regOperand(inst, 1)
		ur := op(c.R[r1], c.R[r2])
		c.R[r1] = ur
		c.applyFlags(ur, false, false)
		return nil
	}
}

func exec2iNoFlags(op func(a, b uint32) uint32) func(*CPU, *decoder.Instruction) error {
	return func(c *CPU, inst *decoder.Instruction) error {
		r1 := regOperand(inst, 0)
		ur := op(c.R[r1], uint32(inst.Args[1].UInt))
		c.R[r1] = ur
		c.applyFlags(ur, false, false)
		return nil
	}
}

func exec3NoFlags(op func(a, b uint32) uint32) func(*CPU, *decoder.Instruction) error {
	return func(c *CPU, inst *decoder.Instruction) error {
		dst, r1, r2 := regOperand(inst, 0), regOperand(inst, 1), regOperand(inst, 2)
		ur := op(c.R[r1], c.R[r2])
		c.R[dst] = ur
		c.applyFlags(ur, false, false)
		return nil
	}
}

func exec3iNoFlags(op func(a, b uint32) uint32) func(*CPU, *decoder.Instruction) error {
	return func(c *CPU, inst *decoder.Instruction) error {
		dst, r1 := regOperand(inst, 0), regOperand(inst, 1)
		ur := op(c.R[r1], uint32(inst.Args[2].UInt))
		c.R[dst] = ur
		c.applyFlags(ur, false, false)
		return nil
	}
}

func execCmp(c *CPU, inst *decoder.Instruction) error {
	a, b := c.R[regOperand(inst, 0)], c.R[regOperand(inst, 1)]
	_, carry, overflow := subFlags(a, b)
	c.applyFlags(a-b, carry, overflow)
	return nil
}

func execCmpi(c *CPU, inst *decoder.Instruction) error {
	a := c.R[regOperand(inst, 0)]
	b := uint32(inst.Args[1].Int)
	_, carry, overflow := subFlags(a, b)
	c.applyFlags(a-b, carry, overflow)
	return nil
}

func execLet(c *CPU, inst *decoder.Instruction) error {
	c.R[regOperand(inst, 0)] = c.R[regOperand(inst, 1)]
	return nil
}

func execLeti(c *CPU, inst *decoder.Instruction) error {
	c.R[regOperand(inst, 0)] = uint32(inst.Args[1].Int)
	return nil
}

// execShift implements spec.md §4.6's shift: logical left/right with the
// bit shifted out captured as C before it's gone, Z from the result. Unlike
// the arithmetic ops it leaves N and V untouched, matching
// _examples/original_source/subject/simu.src/processor.rs's shift case
// (manage_flags stays false; only cflag and zflag are set there).
func execShift(c *CPU, inst *decoder.Instruction) error {
	right := inst.Args[0].Str == "right"
	reg := regOperand(inst, 1)
	n := inst.Args[2].UInt
	v := c.R[reg]

	var ur uint32
	if n == 0 {
		ur = v
	} else if right {
		c.C = (v>>(n-1))&1 == 1
		ur = v >> n
	} else {
		c.C = (v<<(n-1))&(1<<(WordSize-1)) != 0
		ur = v << n
	}
	c.R[reg] = ur
	c.Z = ur == 0
	return nil
}

// execAsr3 is an arithmetic (sign-preserving) right shift, distinct from
// shift's logical-only pair of directions: asr3 reg,reg,shiftval keeps the
// sign bit rather than filling with zero.
func execAsr3(c *CPU, inst *decoder.Instruction) error {
	dst, src := regOperand(inst, 0), regOperand(inst, 1)
	n := inst.Args[2].UInt
	v := int32(c.R[src])

	var ur int32
	if n == 0 {
		ur = v
	} else {
		c.C = (uint32(v)>>(n-1))&1 == 1
		ur = v >> n
	}
	c.R[dst] = uint32(ur)
	c.Z = ur == 0
	c.N = ur < 0
	return nil
}
