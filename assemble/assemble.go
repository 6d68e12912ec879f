// Package assemble orchestrates the source-to-output pipeline: normalize
// variant mnemonics back to the family keywords the lexer recognizes, lex,
// parse, optionally build a Huffman opcode table, resolve labels, and
// render mnemonic, cleartext and packed-binary output.
//
// Grounded on the teacher's assembler.Assembler (assembler/assembler.go's
// New/Assemble entry point, with symbols/labels state held on the struct
// rather than as package globals) and on
// _examples/original_source/compiler/compileuh.rs's compile_asm, which
// this package generalizes from a single hard-coded compile function
// closing over lazy_static tables into an explicit Context threaded
// through one run over package isa's fixed tables.
package assemble

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Urethramancer/minimisa/encoder"
	"github.com/Urethramancer/minimisa/huffman"
	"github.com/Urethramancer/minimisa/isa"
	"github.com/Urethramancer/minimisa/labels"
	"github.com/Urethramancer/minimisa/lexer"
	"github.com/Urethramancer/minimisa/parser"
	"github.com/sirupsen/logrus"
)

// Context holds one assembly run's configuration.
type Context struct {
	// UseHuffman requests a frequency-weighted Huffman opcode table sized
	// to the source being assembled, in place of isa.DefaultOpcodes.
	UseHuffman bool
	Log        logrus.FieldLogger
}

// Option configures a Context built by New.
type Option func(*Context)

// WithHuffman requests a Huffman-built opcode table instead of
// isa.DefaultOpcodes.
func WithHuffman() Option {
	return func(c *Context) { c.UseHuffman = true }
}

// WithLogger attaches a structured logger for pipeline stage messages.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Context) { c.Log = log }
}

// New builds an assembly Context, defaulting to isa.DefaultOpcodes and a
// standard logrus logger.
func New(opts ...Option) *Context {
	c := &Context{Log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is one assembly run's output in every rendering mode, plus the
// opcode table actually used — a Huffman run's table must travel with its
// cleartext/binary output, since neither a disassembler nor a VM can
// reconstruct it from the bitstream alone.
type Result struct {
	Opcodes   map[string]string
	Mnemonic  []string
	Cleartext []string
	Binary    []byte

	// BitLength is the number of significant bits in Binary before
	// encoder.BinaryPacker.Finish's zero-padding — spec.md's object file
	// layout header value, which a loader needs to tell a real trailing
	// zero bit from padding.
	BitLength uint64
}

// Assemble runs the full pipeline over src. dir is where the lexer
// resolves .include directives from; file names the source for
// diagnostics only.
func (c *Context) Assemble(src, dir, file string) (*Result, error) {
	log := c.logger()

	log.WithField("file", file).Debug("assemble: normalizing mnemonics")
	normalized := normalizeVariants(src)

	log.WithField("file", file).Debug("assemble: lexing")
	tokens, err := lexer.New(dir).Lex(normalized, file)
	if err != nil {
		return nil, fmt.Errorf("assemble: lex: %w", err)
	}

	log.WithField("file", file).Debug("assemble: parsing")
	lines, err := parser.New().Parse(tokens)
	if err != nil {
		return nil, fmt.Errorf("assemble: parse: %w", err)
	}

	opcodes := isa.DefaultOpcodes
	if c.UseHuffman {
		log.Debug("assemble: building huffman opcode table")
		opcodes = huffman.Build(countVariants(lines))
	}

	enc := encoder.New(opcodes)

	mnemonic := make([]string, 0, len(lines))
	for _, line := range lines {
		m, err := enc.Mnemonic(line)
		if err != nil {
			return nil, fmt.Errorf("assemble: mnemonic: %w", err)
		}
		mnemonic = append(mnemonic, m)
	}

	log.WithField("file", file).Debug("assemble: resolving labels")
	cleartext, err := labels.New(enc).Resolve(lines)
	if err != nil {
		return nil, fmt.Errorf("assemble: resolve labels: %w", err)
	}

	var packer encoder.BinaryPacker
	var bin []byte
	var bitLength uint64
	for _, packet := range cleartext {
		bin = append(bin, packer.Push(packet)...)
		bitLength += uint64(len(strings.ReplaceAll(packet, " ", "")))
	}
	if rest := packer.Finish(); rest != nil {
		bin = append(bin, rest...)
	}

	return &Result{
		Opcodes:   opcodes,
		Mnemonic:  mnemonic,
		Cleartext: cleartext,
		Binary:    bin,
		BitLength: bitLength,
	}, nil
}

func (c *Context) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// countVariants builds the frequency table a Huffman opcode table is built
// from. Every non-reserved opcode key starts at a zero floor, so a variant
// this particular program never uses still gets a valid (if long) code;
// reserved* keys are excluded since they name no instruction a program can
// ever actually emit. Label definitions and const directives are skipped —
// neither has an opcode table entry — and label-bearing variants
// (jumpl, jumpifl, calll) are folded to their resolved concrete variant via
// isa.Resolved before counting, since the pseudo-variant name itself never
// reaches the opcode table; only its resolved form does.
//
// Grounded on compileuh.rs's count_operations, which seeds the same
// zero floor but tallies the pre-resolution line.funcname directly — a
// label-bearing name that the opcode table (DEFAULT_OPCODE) has no entry
// for either way, since label resolution there happens downstream of
// counting. Counting the resolved name instead keeps every key in the
// frequency map one this package's own opcode tables actually define.
func countVariants(lines []parser.Line) map[string]int {
	counts := make(map[string]int, len(isa.DefaultOpcodes))
	for variant := range isa.DefaultOpcodes {
		if strings.HasPrefix(variant, "reserved") {
			continue
		}
		counts[variant] = 0
	}

	for _, line := range lines {
		name := line.Variant
		if name == "label" || name == "const" {
			continue
		}
		if resolved, ok := isa.Resolved[name]; ok {
			name = resolved
		}
		counts[name]++
	}

	return counts
}

type familySub struct {
	re     *regexp.Regexp
	family string
}

var familySubs = buildFamilySubs()

// buildFamilySubs precomputes one substitution regex per mnemonic family,
// each family's candidate variant spellings ordered longest first.
//
// _examples/original_source/compiler/compileuh.rs's compile_asm builds the
// equivalent pattern with variants sorted shortest first
// (sorted_by_key(|s| s.len())). Both Rust's regex crate and Go's regexp
// package pick the first alternative that matches at a position rather than
// the longest one, so shortest-first risks a short variant name matching
// inside a longer one that shares its prefix ("add2" inside "add2i"),
// consuming only part of the word and leaving the rest (a stray "i")
// stitched onto the replacement text, which then fails to lex. Sorting
// longest first avoids that: whichever variant actually appears, the
// alternation tries the longest candidates first and matches the whole
// word.
func buildFamilySubs() []familySub {
	families := make([]string, 0, len(isa.Families))
	for family := range isa.Families {
		families = append(families, family)
	}
	sort.Strings(families)

	subs := make([]familySub, 0, len(families))
	for _, family := range families {
		variants := append([]string(nil), isa.Families[family]...)
		sort.Slice(variants, func(i, j int) bool { return len(variants[i]) > len(variants[j]) })
		pattern := `\b(?:` + strings.Join(variants, "|") + `)\b`
		subs = append(subs, familySub{re: regexp.MustCompile(pattern), family: family})
	}
	return subs
}

// normalizeVariants rewrites every concrete variant mnemonic in src to its
// family keyword. The lexer's OPERATION pattern only recognizes family
// names (package lexer never lists "jumpif" or "calll", only "jump" and
// "call"), so source written against a concrete variant would otherwise
// mis-tokenize as a label reference. The parser re-derives the true
// variant afterward from the operand types that follow the mnemonic, so
// this rewrite changes only what the lexer sees, never what gets
// assembled.
func normalizeVariants(src string) string {
	for _, s := range familySubs {
		src = s.re.ReplaceAllString(src, s.family)
	}
	return src
}
