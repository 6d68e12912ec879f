package parser

import (
	"testing"

	"github.com/Urethramancer/minimisa/isa"
	"github.com/Urethramancer/minimisa/lexer"
	"github.com/stretchr/testify/require"
)

func TestParseAdd2(t *testing.T) {
	toks, err := lexer.New(".").Lex("add r0 r1\n", "t.asm")
	require.NoError(t, err)

	lines, err := New().Parse(toks)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, "add2", lines[0].Variant)
	require.Equal(t, []Value{
		{Type: isa.Register, Raw: "0"},
		{Type: isa.Register, Raw: "1"},
	}, lines[0].Args)
}

func TestParseAdd2iSelectsImmediateVariant(t *testing.T) {
	toks, err := lexer.New(".").Lex("add r0 5\n", "t.asm")
	require.NoError(t, err)

	lines, err := New().Parse(toks)
	require.NoError(t, err)
	require.Equal(t, "add2i", lines[0].Variant)
	require.Equal(t, isa.UConstant, lines[0].Args[1].Type)
}

func TestParseBareLabelDefinition(t *testing.T) {
	toks, err := lexer.New(".").Lex("loop:\n", "t.asm")
	require.NoError(t, err)

	lines, err := New().Parse(toks)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, "label", lines[0].Variant)
	require.Equal(t, []Value{{Type: isa.Label, Raw: "loop"}}, lines[0].Args)
}

func TestParseJumpToLabel(t *testing.T) {
	toks, err := lexer.New(".").Lex("jump loop\n", "t.asm")
	require.NoError(t, err)

	lines, err := New().Parse(toks)
	require.NoError(t, err)
	require.Equal(t, "jumpl", lines[0].Variant)
	require.Equal(t, []Value{{Type: isa.Label, Raw: "loop"}}, lines[0].Args)
}

func TestParseJumpifWithCondition(t *testing.T) {
	toks, err := lexer.New(".").Lex("jump eq loop\n", "t.asm")
	require.NoError(t, err)

	lines, err := New().Parse(toks)
	require.NoError(t, err)
	require.Equal(t, "jumpifl", lines[0].Variant)
	require.Equal(t, []Value{
		{Type: isa.Condition, Raw: "eq"},
		{Type: isa.Label, Raw: "loop"},
	}, lines[0].Args)
}

func TestParseRegisterOutOfRange(t *testing.T) {
	toks, err := lexer.New(".").Lex("rand r9\n", "t.asm")
	require.NoError(t, err)
	_, err = New().Parse(toks)
	require.Error(t, err)
}

func TestParseUnknownVariantSignature(t *testing.T) {
	toks, err := lexer.New(".").Lex("return r0\n", "t.asm")
	require.NoError(t, err)
	_, err = New().Parse(toks)
	require.Error(t, err)
}

func TestParseBlankLinesAreSkipped(t *testing.T) {
	toks, err := lexer.New(".").Lex("add r0 r1\n\nadd r2 r3\n", "t.asm")
	require.NoError(t, err)
	lines, err := New().Parse(toks)
	require.NoError(t, err)
	require.Len(t, lines, 2)
}
