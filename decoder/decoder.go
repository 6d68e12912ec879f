// Package decoder is the inverse of package encoder: it reads a prefix-free
// opcode followed by its operand fields from a bit source and reconstructs
// the instruction the encoder produced, against the same opcode table.
//
// Grounded on the teacher's disassembler package (disassembler/disasm.go's
// decode-then-dispatch shape, disassembler/utility.go's per-field readers
// advancing an explicit cursor) generalized from fixed 16-bit M68k opcode
// words to MinimISA's variable-width prefix-free opcodes, and on
// _examples/original_source/emu/include/disasm.rs / _examples/
// original_source/subject/simu.src/processor.rs's von_neumann_step for the
// field-read order per opcode (register, then constant/address, in that
// source order).
package decoder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Urethramancer/minimisa/bitio"
	"github.com/Urethramancer/minimisa/isa"
)

// Operand is a single decoded instruction operand. Only the field matching
// Type is meaningful; the others are zero.
type Operand struct {
	Type isa.OperandType
	UInt uint64
	Int  int64
	Str  string
}

// Instruction is a fully decoded instruction: its variant name (already
// resolved — jumpl/jumpifl/calll never appear in an encoded stream, only
// their concrete jump/jumpif/call forms) and its operands in signature
// order.
type Instruction struct {
	Variant string
	Args    []Operand
}

// Decoder decodes against a fixed opcode table (the default table or a
// generated Huffman table — same contract as encoder.Encoder).
type Decoder struct {
	byBits     map[string]string
	lengths    []int
	extendable map[string]bool
}

var conditionByCode = invert(isa.Conditions)
var counterByCode = invert(isa.MemCounters)

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// New builds a Decoder from an opcode table (variant -> bit string). Tables
// built by package huffman are always prefix-free, but isa.DefaultOpcodes is
// not: "readze" (10010) is a strict prefix of "pop" (1001001), per spec.md
// §9's open question. New precomputes, for every code, whether some longer
// code in the table extends it — readOpcode uses this to know when a match
// must not be committed to immediately.
func New(opcodes map[string]string) *Decoder {
	byBits := make(map[string]string, len(opcodes))
	lengthSet := make(map[int]bool)
	for variant, bits := range opcodes {
		byBits[bits] = variant
		lengthSet[len(bits)] = true
	}
	lengths := make([]int, 0, len(lengthSet))
	for l := range lengthSet {
		lengths = append(lengths, l)
	}
	sort.Ints(lengths)

	extendable := make(map[string]bool, len(byBits))
	for code := range byBits {
		for other := range byBits {
			if len(other) > len(code) && strings.HasPrefix(other, code) {
				extendable[code] = true
				break
			}
		}
	}
	return &Decoder{byBits: byBits, lengths: lengths, extendable: extendable}
}

// BitSource is the minimal bit-reading contract a Decoder needs. Both
// bitio.Reader (decoding a cleartext or unpacked-binary stream) and a
// thin adapter over memory.Memory (decoding live during CPU execution)
// satisfy it.
type BitSource interface {
	ReadBits(n int) (string, error)
}

// ErrUnknownOpcode reports a bit sequence that matches no entry in the
// opcode table even at the table's longest code length.
type ErrUnknownOpcode struct{ Bits string }

func (e *ErrUnknownOpcode) Error() string {
	return fmt.Sprintf("decoder: no opcode matches bits %q", e.Bits)
}

// ErrUnsupportedOperand reports an operand type a Decoder has no field
// reader for. AAddress and Binary appear in isa's type tables but no
// current variant signature uses them as a decoded field.
type ErrUnsupportedOperand struct{ Type isa.OperandType }

func (e *ErrUnsupportedOperand) Error() string {
	return fmt.Sprintf("decoder: unsupported operand type %v", e.Type)
}

// ErrUnknownSizeCode reports a 3-bit size field that matches none of the
// fixed memory-operand widths.
type ErrUnknownSizeCode struct{ Bits string }

func (e *ErrUnknownSizeCode) Error() string {
	return fmt.Sprintf("decoder: invalid size code %q", e.Bits)
}

// Decode reads one instruction: the opcode, resolved to a variant name via
// the prefix-free table, followed by its operands in isa.Signatures order.
// The source is wrapped in a pushbackSource so that readOpcode's
// disambiguating lookahead bits (see below) flow back into operand decoding
// instead of being discarded.
func (d *Decoder) Decode(src BitSource) (*Instruction, error) {
	ps := &pushbackSource{src: src}

	variant, err := d.readOpcode(ps)
	if err != nil {
		return nil, err
	}

	sig, ok := isa.Signatures[variant]
	if !ok {
		return nil, fmt.Errorf("decoder: opcode table names unknown variant %q", variant)
	}

	args := make([]Operand, len(sig))
	for i, t := range sig {
		arg, err := d.readOperand(ps, t)
		if err != nil {
			return nil, fmt.Errorf("decoder: variant %q operand %d: %w", variant, i, err)
		}
		args[i] = arg
	}
	return &Instruction{Variant: variant, Args: args}, nil
}

// pushbackSource wraps a BitSource with a small read-ahead buffer. readOpcode
// uses it to peek past a complete-but-extendable opcode match; bits read but
// ultimately not consumed as part of the opcode are returned to buf so the
// next ReadBits (the first operand field) sees them.
type pushbackSource struct {
	src BitSource
	buf string
}

func (p *pushbackSource) ReadBits(n int) (string, error) {
	for len(p.buf) < n {
		more, err := p.src.ReadBits(1)
		if err != nil {
			return "", err
		}
		p.buf += more
	}
	out := p.buf[:n]
	p.buf = p.buf[n:]
	return out, nil
}

func (p *pushbackSource) unread(bits string) {
	p.buf = bits + p.buf
}

// readOpcode consumes one bit at a time, checking the accumulated prefix
// against the table after each bit. For a prefix-free table (Huffman-built,
// or any code length class with no collisions) the first match is always
// final. isa.DefaultOpcodes is not fully prefix-free — "readze" is a strict
// prefix of "pop" — so a match that is itself a strict prefix of some other
// table entry cannot be committed to yet: keep reading until either a
// longer, non-extendable match is found (return it), or the table's longest
// code length is exhausted, in which case the last complete match seen is
// correct and any bits read past it are pushed back for operand decoding.
func (d *Decoder) readOpcode(src *pushbackSource) (string, error) {
	var acc strings.Builder
	maxLen := 0
	if len(d.lengths) > 0 {
		maxLen = d.lengths[len(d.lengths)-1]
	}

	var fallback string
	fallbackLen := 0

	for i := 0; i < maxLen; i++ {
		bit, err := src.ReadBits(1)
		if err != nil {
			return "", err
		}
		acc.WriteString(bit)
		if variant, ok := d.byBits[acc.String()]; ok {
			if !d.extendable[acc.String()] {
				return variant, nil
			}
			fallback = variant
			fallbackLen = acc.Len()
		}
	}

	if fallback != "" {
		src.unread(acc.String()[fallbackLen:])
		return fallback, nil
	}
	return "", &ErrUnknownOpcode{Bits: acc.String()}
}

func (d *Decoder) readOperand(src BitSource, t isa.OperandType) (Operand, error) {
	switch t {
	case isa.Register:
		bits, err := src.ReadBits(bitio.NbBitReg)
		if err != nil {
			return Operand{}, err
		}
		return Operand{Type: t, UInt: parseUnsigned(bits)}, nil

	case isa.UConstant:
		v, err := readUConstant(src)
		if err != nil {
			return Operand{}, err
		}
		return Operand{Type: t, UInt: v}, nil

	case isa.SConstant:
		bits, err := src.ReadBits(64)
		if err != nil {
			return Operand{}, err
		}
		return Operand{Type: t, Int: parseSigned(bits)}, nil

	case isa.RAddress:
		v, err := readSignedAddr(src)
		if err != nil {
			return Operand{}, err
		}
		return Operand{Type: t, Int: v}, nil

	case isa.ShiftVal:
		v, err := readShiftVal(src)
		if err != nil {
			return Operand{}, err
		}
		return Operand{Type: t, UInt: v}, nil

	case isa.Size:
		v, err := readSize(src)
		if err != nil {
			return Operand{}, err
		}
		return Operand{Type: t, UInt: v}, nil

	case isa.Direction:
		bit, err := src.ReadBits(1)
		if err != nil {
			return Operand{}, err
		}
		dir := "left"
		if bit == "1" {
			dir = "right"
		}
		return Operand{Type: t, Str: dir}, nil

	case isa.Condition:
		bits, err := src.ReadBits(isa.NbBitCondition)
		if err != nil {
			return Operand{}, err
		}
		name, ok := conditionByCode[bits]
		if !ok {
			return Operand{}, fmt.Errorf("decoder: unknown condition code %q", bits)
		}
		return Operand{Type: t, Str: name}, nil

	case isa.MemCounter:
		bits, err := src.ReadBits(2)
		if err != nil {
			return Operand{}, err
		}
		name, ok := counterByCode[bits]
		if !ok {
			return Operand{}, fmt.Errorf("decoder: unknown counter code %q", bits)
		}
		return Operand{Type: t, Str: name}, nil

	default:
		return Operand{}, &ErrUnsupportedOperand{Type: t}
	}
}
