// Package labels resolves label-bearing instructions (jumpl, jumpifl,
// calll) into concrete jump/jumpif/call instructions with a signed
// relative or absolute address, using iterative address-width widening: a
// jump's encoded width depends on the distance to its target, but that
// distance depends on the widths of all intervening jumps, so the widths
// are widened to a fixpoint before the final address is known.
//
// Grounded on _examples/original_source/compiler/labels.rs's
// LabelsClearTextBackEnd (get_fullcode/get_label_pos/count_bytes/packets),
// re-keyed by parsed-line index rather than the original's flat
// alternating-chunk list — that restructuring follows spec.md §4.5's
// "instruction index" framing, which is simpler and, unlike the retrieved
// get_label_pos, actually correlates the index used during widening with
// the line it names (see DESIGN.md for the discrepancy this corrects).
package labels

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/minimisa/bitio"
	"github.com/Urethramancer/minimisa/encoder"
	"github.com/Urethramancer/minimisa/isa"
	"github.com/Urethramancer/minimisa/parser"
)

// ErrUndefinedLabel reports a jump/call to a name with no label definition.
type ErrUndefinedLabel struct{ Name string }

func (e *ErrUndefinedLabel) Error() string { return fmt.Sprintf("labels: undefined label %q", e.Name) }

// ErrJumpTooFar reports a label-bearing instruction whose distance to its
// target does not fit even a 64-bit signed address field.
type ErrJumpTooFar struct{ Name string }

func (e *ErrJumpTooFar) Error() string { return fmt.Sprintf("labels: jump too far to %q", e.Name) }

type addrSlot struct {
	width  int
	offset int64
}

// Resolver resolves a parsed instruction stream against a fixed opcode
// table, via the Encoder that produced it.
type Resolver struct {
	enc *encoder.Encoder
}

// New builds a Resolver that defers non-label-bearing encoding to enc.
func New(enc *encoder.Encoder) *Resolver {
	return &Resolver{enc: enc}
}

// Resolve walks lines once to size every instruction and record label
// positions, widens label-bearing address widths to a fixpoint, then emits
// the final cleartext packet for every instruction except label
// definitions (which contribute no code). Packets are returned in source
// order.
func (r *Resolver) Resolve(lines []parser.Line) ([]string, error) {
	n := len(lines)
	fixedSpan := make([]int, n)
	fixedBits := make([]string, n)
	slots := make(map[int]*addrSlot)
	labelPos := make(map[string]int)

	for i, line := range lines {
		switch {
		case line.Variant == "label":
			labelPos[line.Args[0].Raw] = i

		case isa.LabelBearing[line.Variant]:
			resolved := isa.Resolved[line.Variant]
			opcode, ok := r.enc.Opcodes[resolved]
			if !ok {
				return nil, fmt.Errorf("labels: no opcode for %q", resolved)
			}
			header := len(opcode)
			if line.Variant == "jumpifl" {
				header += isa.NbBitCondition
			}
			fixedSpan[i] = header
			slots[i] = &addrSlot{width: 8}

		default:
			bits, err := r.enc.Cleartext(line)
			if err != nil {
				return nil, err
			}
			fixedBits[i] = bits
			fixedSpan[i] = len(strings.ReplaceAll(bits, " ", ""))
		}
	}

	if err := r.widen(lines, fixedSpan, slots, labelPos); err != nil {
		return nil, err
	}

	return r.emit(lines, fixedBits, slots), nil
}

func (r *Resolver) widen(lines []parser.Line, fixedSpan []int, slots map[int]*addrSlot, labelPos map[string]int) error {
	for {
		changed := false
		for j, line := range lines {
			var labelName string
			switch line.Variant {
			case "jumpl":
				labelName = line.Args[0].Raw
			case "jumpifl":
				labelName = line.Args[1].Raw
			case "calll":
				labelName = line.Args[0].Raw
			default:
				continue
			}

			i, ok := labelPos[labelName]
			if !ok {
				return &ErrUndefinedLabel{Name: labelName}
			}

			from := j
			if line.Variant == "calll" {
				// calll addresses are absolute from program start, not
				// relative to the call site: anchor the forward-exclusive
				// sum at the virtual index before instruction 0, so the
				// first instruction's span is included rather than
				// treated as an excluded endpoint.
				from = -1
			}
			s := countBits(fixedSpan, slots, i, from)

			sl := slots[j]
			if !inRange(s, sl.width) {
				if sl.width == 64 {
					return &ErrJumpTooFar{Name: labelName}
				}
				sl.width *= 2
				changed = true
				break
			}
			sl.offset = s
		}
		if !changed {
			break
		}
	}
	return nil
}

// countBits computes the direction-signed bit distance between index i
// (the target) and index j (the reference point), per labels.rs's
// count_bytes: a forward reference (i > j) sums the spans strictly between
// them (the jump has already been passed, the target not yet reached); a
// backward or absolute reference (i <= j) sums inclusively from i through
// j and negates, since reaching i means stepping back over j itself too.
func countBits(fixedSpan []int, slots map[int]*addrSlot, i, j int) int64 {
	var s int64
	if j < i {
		for k := j + 1; k < i; k++ {
			s += int64(fixedSpan[k])
			if sl, ok := slots[k]; ok {
				s += int64(bitio.BitCost(sl.width))
			}
		}
		return s
	}
	for k := i; k <= j; k++ {
		s += int64(fixedSpan[k])
		if sl, ok := slots[k]; ok {
			s += int64(bitio.BitCost(sl.width))
		}
	}
	return -s
}

func inRange(s int64, width int) bool {
	if width >= 64 {
		return true
	}
	lo :=-(int64(1) << uint(width-1))
	hi := int64(1) << uint(width-1)
	return s >= lo && s < hi
}

func (r *Resolver) emit(lines []parser.Line, fixedBits []string, slots map[int]*addrSlot) []string {
	var out []string
	for i, line := range lines {
		switch {
		case line.Variant == "label":
			continue

		case isa.LabelBearing[line.Variant]:
			resolved := isa.Resolved[line.Variant]
			opcode := r.enc.Opcodes[resolved]
			parts := []string{opcode}

			if line.Variant == "jumpifl" {
				parts = append(parts, isa.Conditions[line.Args[0].Raw])
			}

			sl := slots[i]
			prefix, _ := bitio.AddrPrefix(sl.width)
			payload, _ := bitio.BinaryRepr(sl.offset, sl.width, true)
			parts = append(parts, prefix+payload)

			out = append(out, strings.Join(parts, " "))

		default:
			out = append(out, fixedBits[i])
		}
	}
	return out
}
