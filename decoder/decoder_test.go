package decoder

import (
	"strings"
	"testing"

	"github.com/Urethramancer/minimisa/bitio"
	"github.com/Urethramancer/minimisa/encoder"
	"github.com/Urethramancer/minimisa/isa"
	"github.com/Urethramancer/minimisa/parser"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func reg(n uint64) parser.Value {
	return parser.Value{Type: isa.Register, Raw: itoa(n)}
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

// encode renders a line via the default-table Encoder and strips the
// space-separated Cleartext formatting, since a Decoder reads a contiguous
// bitstream with no field delimiters.
func encode(t *testing.T, line parser.Line) string {
	t.Helper()
	enc := encoder.New(isa.DefaultOpcodes)
	s, err := enc.Cleartext(line)
	require.NoError(t, err)
	return strings.ReplaceAll(s, " ", "")
}

func TestDecodeRoundTripsSimpleRegisterVariant(t *testing.T) {
	line := parser.Line{Variant: "add2", Args: []parser.Value{reg(3), reg(5)}}
	bits := encode(t, line)

	d := New(isa.DefaultOpcodes)
	inst, err := d.Decode(bitio.NewReader(bits))
	require.NoError(t, err)
	require.Equal(t, "add2", inst.Variant)
	require.Len(t, inst.Args, 2)
	require.EqualValues(t, 3, inst.Args[0].UInt)
	require.EqualValues(t, 5, inst.Args[1].UInt)
}

func TestDecodeRoundTripsUConstantWidths(t *testing.T) {
	cases := []uint64{0, 1, 200, 70000, 1 << 40}
	for _, v := range cases {
		line := parser.Line{Variant: "add2i", Args: []parser.Value{reg(2), {Type: isa.UConstant, Raw: itoa(v)}}}
		bits := encode(t, line)

		d := New(isa.DefaultOpcodes)
		inst, err := d.Decode(bitio.NewReader(bits))
		require.NoError(t, err)
		require.Equal(t, "add2i", inst.Variant)
		require.EqualValues(t, v, inst.Args[1].UInt)
	}
}

func TestDecodeRoundTripsSignedAddressWidths(t *testing.T) {
	cases := []int64{0, -1, 100, -100, 40000, -40000}
	for _, v := range cases {
		raw := itoa(uint64(v))
		if v < 0 {
			raw = "-" + itoa(uint64(-v))
		}
		line := parser.Line{Variant: "jump", Args: []parser.Value{{Type: isa.RAddress, Raw: raw}}}
		bits := encode(t, line)

		d := New(isa.DefaultOpcodes)
		inst, err := d.Decode(bitio.NewReader(bits))
		require.NoError(t, err)
		require.Equal(t, "jump", inst.Variant)
		require.EqualValues(t, v, inst.Args[0].Int)
	}
}

func TestDecodeRoundTripsShiftAndSizeAndDirection(t *testing.T) {
	line := parser.Line{Variant: "shift", Args: []parser.Value{
		{Type: isa.Direction, Raw: "right"},
		reg(4),
		{Type: isa.ShiftVal, Raw: "1"},
	}}
	bits := encode(t, line)

	d := New(isa.DefaultOpcodes)
	inst, err := d.Decode(bitio.NewReader(bits))
	require.NoError(t, err)
	require.Equal(t, "shift", inst.Variant)
	require.Equal(t, "right", inst.Args[0].Str)
	require.EqualValues(t, 4, inst.Args[1].UInt)
	require.EqualValues(t, 1, inst.Args[2].UInt)
}

func TestDecodeRoundTripsSizeFieldAcrossAllWidths(t *testing.T) {
	for _, sz := range []uint64{1, 4, 8, 16, 32, 64} {
		line := parser.Line{Variant: "push", Args: []parser.Value{
			{Type: isa.Size, Raw: itoa(sz)},
			reg(1),
		}}
		bits := encode(t, line)

		d := New(isa.DefaultOpcodes)
		inst, err := d.Decode(bitio.NewReader(bits))
		require.NoError(t, err)
		require.Equal(t, "push", inst.Variant)
		require.EqualValues(t, sz, inst.Args[0].UInt)
	}
}

func TestDecodeRoundTripsConditionAndMemCounter(t *testing.T) {
	line := parser.Line{Variant: "jumpif", Args: []parser.Value{
		{Type: isa.Condition, Raw: "slt"},
		{Type: isa.RAddress, Raw: "12"},
	}}
	bits := encode(t, line)

	d := New(isa.DefaultOpcodes)
	inst, err := d.Decode(bitio.NewReader(bits))
	require.NoError(t, err)
	require.Equal(t, "slt", inst.Args[0].Str)
	require.EqualValues(t, 12, inst.Args[1].Int)

	line2 := parser.Line{Variant: "setctr", Args: []parser.Value{
		{Type: isa.MemCounter, Raw: "a1"},
		reg(0),
	}}
	bits2 := encode(t, line2)
	inst2, err := d.Decode(bitio.NewReader(bits2))
	require.NoError(t, err)
	require.Equal(t, "a1", inst2.Args[0].Str)
}

// TestDecodeRoundTripMatchesEncodedLineStructurally decodes a multi-operand
// instruction and compares the whole *Instruction tree against what was fed
// to the encoder in one shot via cmp.Diff, instead of asserting field by
// field — catches a stray or mistyped operand anywhere in the struct, not
// just the fields a hand-picked list of require calls happens to check.
func TestDecodeRoundTripMatchesEncodedLineStructurally(t *testing.T) {
	line := parser.Line{Variant: "shift", Args: []parser.Value{
		{Type: isa.Direction, Raw: "right"},
		{Type: isa.Register, Raw: "4"},
		{Type: isa.ShiftVal, Raw: "1"},
	}}
	bits := encode(t, line)

	d := New(isa.DefaultOpcodes)
	inst, err := d.Decode(bitio.NewReader(bits))
	require.NoError(t, err)

	want := &Instruction{
		Variant: "shift",
		Args: []Operand{
			{Type: isa.Direction, Str: "right"},
			{Type: isa.Register, UInt: 4},
			{Type: isa.ShiftVal, UInt: 1},
		},
	}
	if diff := cmp.Diff(want, inst); diff != "" {
		t.Errorf("decoded instruction mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeUnknownOpcodeErrors(t *testing.T) {
	// Every 7-bit pattern matches some isa.DefaultOpcodes entry ("1111111"
	// is reserved3), so a smaller table leaves a pattern unmatched.
	d := New(map[string]string{"add2": "00", "sub2": "01"})
	_, err := d.Decode(bitio.NewReader("11"))
	require.Error(t, err)
	require.IsType(t, &ErrUnknownOpcode{}, err)
}

func TestDecodeDisambiguatesReadzePopPrefixCollision(t *testing.T) {
	d := New(isa.DefaultOpcodes)

	// "pc"'s code ("00") keeps the 6th/7th stream bits from ever spelling
	// pop's remaining "01", so this exercises the genuinely-disambiguable
	// case: readOpcode must look past readze's 5-bit match, find no longer
	// code, and fall back to readze with those 2 bits pushed back for the
	// MemCounter field.
	readzeLine := parser.Line{Variant: "readze", Args: []parser.Value{
		{Type: isa.MemCounter, Raw: "pc"},
		{Type: isa.Size, Raw: "4"},
		reg(2),
	}}
	bits := encode(t, readzeLine)
	inst, err := d.Decode(bitio.NewReader(bits))
	require.NoError(t, err)
	require.Equal(t, "readze", inst.Variant)
	require.Equal(t, "pc", inst.Args[0].Str)
	require.EqualValues(t, 4, inst.Args[1].UInt)
	require.EqualValues(t, 2, inst.Args[2].UInt)

	popLine := parser.Line{Variant: "pop", Args: []parser.Value{
		{Type: isa.Size, Raw: "8"},
		reg(6),
	}}
	popBits := encode(t, popLine)
	popInst, err := d.Decode(bitio.NewReader(popBits))
	require.NoError(t, err)
	require.Equal(t, "pop", popInst.Variant)
	require.EqualValues(t, 8, popInst.Args[0].UInt)
	require.EqualValues(t, 6, popInst.Args[1].UInt)
}

func TestReadSizeHandlesTwoAndThreeBitCodes(t *testing.T) {
	// "00"/"01" resolve directly at 2 bits; "10"/"11" need a 3rd bit to
	// disambiguate {8,16} and {32,64}. The 8-leaf code book is exhaustive
	// (2 two-bit codes + 4 three-bit codes cover all 8 depth-3 patterns),
	// so ErrUnknownSizeCode is unreachable for any well-formed stream.
	two, err := readSize(bitio.NewReader("00"))
	require.NoError(t, err)
	require.EqualValues(t, 1, two)

	three, err := readSize(bitio.NewReader("100"))
	require.NoError(t, err)
	require.EqualValues(t, 8, three)
}
