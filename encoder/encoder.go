// Package encoder implements the three instruction-stream back-ends:
// mnemonic text, human-readable cleartext bits, and packed binary. Binary
// mode is a refinement that composes over cleartext mode rather than
// re-deriving bit patterns, per spec.md §4.4.
//
// Grounded on _examples/original_source/compiler/back_end.rs's
// MemonicBackEnd/CleartextBitcodeBackEnd/BinaryBitcodeBackEnd hierarchy and
// _examples/original_source/compiler/myasm.rs's asm_line/asm_doc helpers,
// restructured as plain functions over an explicit opcode table instead of
// the original's trait-object inheritance chain (spec.md §9's
// back-end-as-pipeline-of-functions redesign).
package encoder

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/minimisa/bitio"
	"github.com/Urethramancer/minimisa/isa"
	"github.com/Urethramancer/minimisa/parser"
)

// Encoder renders parsed instruction lines using a fixed opcode table
// (either isa.DefaultOpcodes or a Huffman-built one from package huffman).
type Encoder struct {
	Opcodes map[string]string
}

// New wraps an opcode table for encoding.
func New(opcodes map[string]string) *Encoder {
	return &Encoder{Opcodes: opcodes}
}

// Mnemonic renders one instruction as human-readable assembly text. Label
// definitions render as "name:" on their own line; every other variant
// renders as "    <mnemonic> <arg> <arg>…" with registers shown as "rN" and
// its label-bearing "l" suffix stripped (jumpl -> jump, and so on).
func (e *Encoder) Mnemonic(line parser.Line) (string, error) {
	if line.Variant == "label" {
		return line.Args[0].Raw + ":", nil
	}

	name := line.Variant
	if isa.LabelBearing[name] {
		name = isa.Resolved[name]
	}

	parts := make([]string, len(line.Args))
	for i, a := range line.Args {
		if a.Type == isa.Register {
			parts[i] = "r" + a.Raw
		} else {
			parts[i] = a.Raw
		}
	}

	return fmt.Sprintf("    %-7s %s", name, strings.Join(parts, " ")), nil
}

// Cleartext renders one instruction as its opcode followed by each operand
// encoded per the bit grammar in package bitio, space-separated. Label
// definitions and label-bearing variants have no opcode table entry and
// are rejected — callers that need to handle them (package labels) must
// intercept those variants before calling Cleartext.
func (e *Encoder) Cleartext(line parser.Line) (string, error) {
	if line.Variant == "const" {
		return encodeConst(line)
	}

	opcode, ok := e.Opcodes[line.Variant]
	if !ok {
		return "", fmt.Errorf("encoder: no opcode for %q", line.Variant)
	}

	parts := make([]string, 0, len(line.Args)+1)
	parts = append(parts, opcode)

	for _, a := range line.Args {
		bits, err := encodeOperand(a)
		if err != nil {
			return "", fmt.Errorf("encoder: %q: %w", line.Variant, err)
		}
		parts = append(parts, bits)
	}

	return strings.Join(parts, " "), nil
}

func encodeOperand(a parser.Value) (string, error) {
	switch a.Type {
	case isa.Register:
		return parseAndEncode(a.Raw, func(v uint64) (string, error) { return bitio.EncodeRegister(v) })
	case isa.UConstant:
		return parseAndEncode(a.Raw, bitio.EncodeUConstant)
	case isa.SConstant:
		return parseSignedAndEncode(a.Raw, func(v int64) (string, error) {
			return bitio.BinaryRepr(v, 64, true)
		})
	case isa.RAddress:
		return parseSignedAndEncode(a.Raw, func(v int64) (string, error) {
			s, _, err := bitio.EncodeSignedAddr(v)
			return s, err
		})
	case isa.ShiftVal:
		return parseAndEncode(a.Raw, bitio.EncodeShiftVal)
	case isa.Size:
		return parseAndEncode(a.Raw, bitio.EncodeSize)
	case isa.Direction:
		return bitio.EncodeDirection(a.Raw)
	case isa.Condition:
		code, ok := isa.Conditions[a.Raw]
		if !ok {
			return "", fmt.Errorf("unknown condition %q", a.Raw)
		}
		return code, nil
	case isa.MemCounter:
		code, ok := isa.MemCounters[a.Raw]
		if !ok {
			return "", fmt.Errorf("unknown counter %q", a.Raw)
		}
		return code, nil
	case isa.Binary:
		return a.Raw, nil
	default:
		return "", fmt.Errorf("operand type %v has no cleartext encoding", a.Type)
	}
}

// encodeConst renders a ".const <size> <binary>" directive: size bits of
// raw data, no opcode prefix, the literal binary operand left-zero-padded
// up to size. const has no entry in any opcode table (it names no
// instruction the CPU ever decodes) — per
// _examples/original_source/compiler/compileuh.rs's ASR_SPECS, its two
// operands are the declared width and the literal pattern to splice in.
func encodeConst(line parser.Line) (string, error) {
	size, err := parseUint(line.Args[0].Raw)
	if err != nil {
		return "", fmt.Errorf("encoder: const size: %w", err)
	}
	bits := line.Args[1].Raw
	if uint64(len(bits)) > size {
		return "", fmt.Errorf("encoder: const: %d literal bits exceed declared size %d", len(bits), size)
	}
	return strings.Repeat("0", int(size)-len(bits)) + bits, nil
}

func parseAndEncode(raw string, enc func(uint64) (string, error)) (string, error) {
	v, err := parseUint(raw)
	if err != nil {
		return "", err
	}
	return enc(v)
}

func parseSignedAndEncode(raw string, enc func(int64) (string, error)) (string, error) {
	v, err := parseInt(raw)
	if err != nil {
		return "", err
	}
	return enc(v)
}
