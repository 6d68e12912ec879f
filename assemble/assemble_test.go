package assemble

import (
	"testing"

	"github.com/Urethramancer/minimisa/isa"
	"github.com/Urethramancer/minimisa/parser"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVariantsRewritesConcreteSpellingsToFamilyKeyword(t *testing.T) {
	out := normalizeVariants("    add3i r0 r1 5\n    jumpifl eq loop\n")
	require.Equal(t, "    add r0 r1 5\n    jump eq loop\n", out)
}

func TestNormalizeVariantsPrefersLongestMatchOverShorterPrefix(t *testing.T) {
	// "add2i" shares the prefix "add2" with the shorter family member
	// "add2"; a shortest-first substitution would match "add2" first and
	// leave a dangling "i" that can't re-lex.
	out := normalizeVariants("add2i r0 3")
	require.Equal(t, "add r0 3", out)
}

func TestNormalizeVariantsIsIdempotentOnFamilyKeywords(t *testing.T) {
	src := "    add r0 r1\n    jump 4\n"
	require.Equal(t, src, normalizeVariants(src))
}

func TestCountVariantsFoldsLabelBearingIntoResolvedName(t *testing.T) {
	lines := []parser.Line{
		{Variant: "label", Args: []parser.Value{{Raw: "loop"}}},
		{Variant: "jumpl", Args: []parser.Value{{Raw: "loop"}}},
		{Variant: "jumpif", Args: []parser.Value{{Type: isa.Condition, Raw: "eq"}}},
		{Variant: "const", Args: []parser.Value{{Raw: "8"}, {Raw: "0"}}},
	}

	counts := countVariants(lines)
	require.EqualValues(t, 1, counts["jump"])
	require.EqualValues(t, 1, counts["jumpif"])
	_, hasLabel := counts["label"]
	require.False(t, hasLabel)
	_, hasConst := counts["const"]
	require.False(t, hasConst)
	for variant := range isa.DefaultOpcodes {
		_, reserved := counts[variant]
		if len(variant) >= 8 && variant[:8] == "reserved" {
			require.False(t, reserved, "reserved opcode %q should not appear in the frequency table", variant)
		}
	}
}

func TestAssembleRendersAllThreeOutputModes(t *testing.T) {
	c := New()
	result, err := c.Assemble("    add2 r0 r1\n", t.TempDir(), "prog.asm")
	require.NoError(t, err)
	require.Len(t, result.Mnemonic, 1)
	require.Len(t, result.Cleartext, 1)
	require.NotEmpty(t, result.Binary)
	require.Equal(t, isa.DefaultOpcodes["add2"], result.Cleartext[0][:len(isa.DefaultOpcodes["add2"])])
}

func TestAssembleAcceptsConcreteVariantSpellingViaNormalization(t *testing.T) {
	c := New()
	result, err := c.Assemble("    add2i r0 5\n", t.TempDir(), "prog.asm")
	require.NoError(t, err)
	require.Contains(t, result.Mnemonic[0], "add2i")
	require.Contains(t, result.Mnemonic[0], "r0")
	require.Contains(t, result.Mnemonic[0], "5")
	require.Equal(t, isa.DefaultOpcodes["add2i"], result.Cleartext[0][:len(isa.DefaultOpcodes["add2i"])])
}

func TestAssembleResolvesLabelReferencedByLabelBearingJump(t *testing.T) {
	c := New()
	src := "loop:\n    jumpl loop\n"
	result, err := c.Assemble(src, t.TempDir(), "prog.asm")
	require.NoError(t, err)
	require.Len(t, result.Cleartext, 1)
	require.NotEmpty(t, result.Binary)
}

func TestAssembleWithHuffmanUsesGeneratedOpcodeTable(t *testing.T) {
	c := New(WithHuffman())
	result, err := c.Assemble("    add2 r0 r1\n    add2 r1 r0\n", t.TempDir(), "prog.asm")
	require.NoError(t, err)
	require.NotEqual(t, isa.DefaultOpcodes["add2"], result.Opcodes["add2"])
	require.Equal(t, result.Opcodes["add2"], result.Cleartext[0][:len(result.Opcodes["add2"])])
}

func TestAssembleRejectsUndefinedLabel(t *testing.T) {
	c := New()
	_, err := c.Assemble("    jumpl nowhere\n", t.TempDir(), "prog.asm")
	require.Error(t, err)
}
