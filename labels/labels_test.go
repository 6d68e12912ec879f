package labels

import (
	"strconv"
	"testing"

	"github.com/Urethramancer/minimisa/encoder"
	"github.com/Urethramancer/minimisa/isa"
	"github.com/Urethramancer/minimisa/parser"
	"github.com/stretchr/testify/require"
)

func reg(n uint64) parser.Value {
	return parser.Value{Type: isa.Register, Raw: strconv.FormatUint(n, 10)}
}

func labelDef(name string) parser.Line {
	return parser.Line{Variant: "label", Args: []parser.Value{{Type: isa.Label, Raw: name}}}
}

func add2(a, b uint64) parser.Line {
	return parser.Line{Variant: "add2", Args: []parser.Value{reg(a), reg(b)}}
}

func jumplTo(name string) parser.Line {
	return parser.Line{Variant: "jumpl", Args: []parser.Value{{Type: isa.Label, Raw: name}}}
}

func calllTo(name string) parser.Line {
	return parser.Line{Variant: "calll", Args: []parser.Value{{Type: isa.Label, Raw: name}}}
}

func newResolver() *Resolver {
	return New(encoder.New(isa.DefaultOpcodes))
}

func TestResolveForwardJumpStaysAtWidth8(t *testing.T) {
	lines := []parser.Line{
		jumplTo("end"),
		add2(0, 0),
		labelDef("end"),
	}
	out, err := newResolver().Resolve(lines)
	require.NoError(t, err)
	require.Equal(t, []string{
		"1010 000001010",
		"0000 000 000",
	}, out)
}

func TestResolveBackwardJump(t *testing.T) {
	lines := []parser.Line{
		labelDef("start"),
		add2(0, 0),
		jumplTo("start"),
	}
	out, err := newResolver().Resolve(lines)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "0000 000 000", out[0])
	require.Equal(t, "1010 011101001", out[1]) // opcode 1010 + prefix 0 + binary_repr(-23, 8, signed)
}

func TestResolveUndefinedLabelErrors(t *testing.T) {
	lines := []parser.Line{jumplTo("nowhere")}
	_, err := newResolver().Resolve(lines)
	require.Error(t, err)
	require.IsType(t, &ErrUndefinedLabel{}, err)
}

func TestResolveCallIsAbsoluteFromStart(t *testing.T) {
	lines := []parser.Line{
		add2(0, 0),
		labelDef("target"),
		calllTo("target"),
	}
	out, err := newResolver().Resolve(lines)
	require.NoError(t, err)
	require.Len(t, out, 2)
	// absolute distance from position 0 to "target" is just add2's 10 bits.
	require.Equal(t, "110101 000001010", out[1]) // call opcode + prefix0 + binary_repr(10,8,true)
}

func TestResolveWidensPastEightBits(t *testing.T) {
	lines := []parser.Line{jumplTo("end")}
	for i := 0; i < 13; i++ {
		lines = append(lines, add2(0, 0))
	}
	lines = append(lines, labelDef("end"))

	out, err := newResolver().Resolve(lines)
	require.NoError(t, err)
	require.Len(t, out, 14) // jump + 13 fillers, label dropped
	require.Equal(t, "1010 10"+"0000000010000010", out[0])
}

func TestResolveJumpTooFarFails(t *testing.T) {
	lines := []parser.Line{jumplTo("end")}
	// enough filler to exceed even a 64-bit signed address field.
	for i := 0; i < 2_000_000_000/10+1; i++ {
		lines = append(lines, add2(0, 0))
	}
	lines = append(lines, labelDef("end"))

	_, err := newResolver().Resolve(lines)
	require.Error(t, err)
}
