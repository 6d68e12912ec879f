// Package disassembler is the inverse of package assemble's cleartext/
// binary rendering: given a packed bitstream and the opcode table it was
// built against, it recovers one mnemonic text line per instruction.
//
// Grounded on the teacher's disassembler package (disassemble.go's
// decode-then-format loop over a byte slice) generalized from fixed
// 16-bit M68k opcode words and the teacher's own per-opcode-family
// decode functions (decodeMoveGeneral, decodeBranch, decodeAdd, and so
// on) to MinimISA's variable-width, table-driven decoder.Decoder, which
// already decodes every variant uniformly — there is no per-family
// special case left to keep once the opcode table itself carries the
// bit patterns.
package disassembler

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/minimisa/decoder"
	"github.com/Urethramancer/minimisa/encoder"
	"github.com/Urethramancer/minimisa/isa"
)

// Disassemble decodes the first bitLength bits of a packed binary
// instruction stream against opcodes, rendering each instruction as one
// "mnemonic arg arg…" line, register operands shown as "rN" the same way
// encoder.Mnemonic renders them. Label-bearing variants (jumpl, jumpifl,
// calll) never appear in an encoded stream — assembly always resolves
// them to their concrete jump/jumpif/call form before encoding — so every
// decoded variant here is already the one the CPU itself would execute.
//
// bitLength is spec.md's object file header value: the number of
// significant bits before encoder.BinaryPacker.Finish's zero-padding.
// Without it there is no way to tell a real trailing zero bit from
// padding — DisassembleObject reads it from an object file's header;
// callers with packed bytes and no header (tests, in-memory pipelines)
// pass uint64(len(code))*8 to disassemble every bit in code as-is.
func Disassemble(code []byte, bitLength uint64, opcodes map[string]string) (string, error) {
	if bitLength == 0 {
		return "", nil
	}

	bits := bytesToBits(code)
	if uint64(len(bits)) < bitLength {
		return "", fmt.Errorf("disassembler: declared bit length %d exceeds %d available bits", bitLength, len(bits))
	}
	bits = bits[:bitLength]

	dec := decoder.New(opcodes)
	src := &byteSource{bits: bits}

	var out strings.Builder
	for src.Remaining() > 0 {
		inst, err := dec.Decode(src)
		if err != nil {
			return "", fmt.Errorf("disassembler: at bit %d: %w", len(bits)-src.Remaining(), err)
		}
		out.WriteString(formatInstruction(inst))
		out.WriteByte('\n')
	}
	return out.String(), nil
}

// DisassembleObject decodes a full object file: spec.md's 8-byte
// big-endian bit-length header followed by the packed instruction bytes.
func DisassembleObject(data []byte, opcodes map[string]string) (string, error) {
	bitLength, packed, err := encoder.DecodeObject(data)
	if err != nil {
		return "", err
	}
	return Disassemble(packed, bitLength, opcodes)
}

func formatInstruction(inst *decoder.Instruction) string {
	parts := make([]string, len(inst.Args))
	for i, a := range inst.Args {
		parts[i] = formatOperand(a)
	}
	return fmt.Sprintf("    %-7s %s", inst.Variant, strings.Join(parts, " "))
}

func formatOperand(a decoder.Operand) string {
	switch a.Type {
	case isa.Register:
		return fmt.Sprintf("r%d", a.UInt)
	case isa.UConstant, isa.ShiftVal, isa.Size:
		return fmt.Sprintf("%d", a.UInt)
	case isa.SConstant, isa.RAddress:
		return fmt.Sprintf("%d", a.Int)
	case isa.Direction, isa.Condition, isa.MemCounter:
		return a.Str
	default:
		return a.Str
	}
}

// byteSource adapts a packed byte slice to decoder.BitSource, reading bits
// MSB-first within each byte to match encoder.BinaryPacker's packByte.
type byteSource struct {
	bits string
	pos  int
}

func bytesToBits(code []byte) string {
	var b strings.Builder
	b.Grow(len(code) * 8)
	for _, by := range code {
		for i := 7; i >= 0; i-- {
			if by&(1<<uint(i)) != 0 {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
	}
	return b.String()
}

func (s *byteSource) Remaining() int { return len(s.bits) - s.pos }

func (s *byteSource) ReadBits(n int) (string, error) {
	if s.pos+n > len(s.bits) {
		return "", fmt.Errorf("disassembler: unexpected end of stream reading %d bits", n)
	}
	out := s.bits[s.pos : s.pos+n]
	s.pos += n
	return out, nil
}
