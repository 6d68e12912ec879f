package lexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Urethramancer/minimisa/isa"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []isa.TokenKind {
	out := make([]isa.TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexSimpleInstruction(t *testing.T) {
	l := New(".")
	toks, err := l.Lex("add r0 r1 r2\n", "test.asm")
	require.NoError(t, err)
	require.Equal(t, []isa.TokenKind{
		isa.KindOperation, isa.KindRegister, isa.KindRegister, isa.KindRegister, isa.KindNewline,
	}, kinds(toks))
	require.Equal(t, "add", toks[0].Value)
	require.Equal(t, "0", toks[1].Value)
	require.Equal(t, "1", toks[2].Value)
	require.Equal(t, "2", toks[3].Value)
}

func TestLexHexNumber(t *testing.T) {
	l := New(".")
	toks, err := l.Lex("add2i r0 0x1F\n", "test.asm")
	require.NoError(t, err)
	require.Equal(t, "31", toks[2].Value)
}

func TestLexConditionAlias(t *testing.T) {
	l := New(".")
	toks, err := l.Lex("jumpif z 0\n", "test.asm")
	require.NoError(t, err)
	require.Equal(t, isa.KindCondition, toks[1].Kind)
	require.Equal(t, "eq", toks[1].Value)
}

func TestLexLabelTrimsColon(t *testing.T) {
	l := New(".")
	toks, err := l.Lex("loop:\n", "test.asm")
	require.NoError(t, err)
	require.Equal(t, isa.KindLabel, toks[0].Kind)
	require.Equal(t, "loop", toks[0].Value)
}

func TestLexConstDirectiveBecomesOperation(t *testing.T) {
	l := New(".")
	toks, err := l.Lex(".const 4 #1010\n", "test.asm")
	require.NoError(t, err)
	require.Equal(t, isa.KindOperation, toks[0].Kind)
	require.Equal(t, "const", toks[0].Value)
	require.Equal(t, isa.KindBinary, toks[2].Kind)
	require.Equal(t, "#1010", toks[2].Value)
}

func TestLexMismatchReportsError(t *testing.T) {
	l := New(".")
	_, err := l.Lex("add @@@\n", "test.asm")
	require.Error(t, err)
}

func TestLexCommentIsSkipped(t *testing.T) {
	l := New(".")
	toks, err := l.Lex("add r0 r1 r2 ; comment here\n", "test.asm")
	require.NoError(t, err)
	require.Equal(t, []isa.TokenKind{
		isa.KindOperation, isa.KindRegister, isa.KindRegister, isa.KindRegister, isa.KindComment, isa.KindNewline,
	}, kinds(toks))
}

func TestLexCircularIncludeFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.asm"), []byte(".include b.asm\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.asm"), []byte(".include a.asm\n"), 0o644))

	l := New(dir)
	src, err := os.ReadFile(filepath.Join(dir, "a.asm"))
	require.NoError(t, err)
	_, err = l.Lex(string(src), filepath.Join(dir, "a.asm"))
	require.Error(t, err)
	var circ *CircularInclude
	require.ErrorAs(t, err, &circ)
}

func TestLexDiamondIncludeIsIdempotentNotCircular(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leaf.asm"), []byte("add r0 r1 r2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "left.asm"), []byte(".include leaf.asm\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "right.asm"), []byte(".include leaf.asm\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.asm"), []byte(".include left.asm\n.include right.asm\n"), 0o644))

	l := New(dir)
	src, err := os.ReadFile(filepath.Join(dir, "top.asm"))
	require.NoError(t, err)
	toks, err := l.Lex(string(src), filepath.Join(dir, "top.asm"))
	require.NoError(t, err)

	ops := 0
	for _, tok := range toks {
		if tok.Kind == isa.KindOperation {
			ops++
		}
	}
	require.Equal(t, 1, ops)
}
