// Package isa holds the fixed instruction-set tables shared by the parser,
// encoder, label resolver and decoder: mnemonic families, variant operand
// signatures, the default (non-Huffman) opcode table, and the lexer-kind to
// operand-type mapping. These are ported verbatim from
// _examples/original_source/compiler/compileuh.rs (POSSIBLE_TRANSITION,
// ASR_SPECS, DEFAULT_OPCODE, TYPE_SPECS) and spec.md §6.
package isa

// OperandType is the semantic type of an instruction operand (spec.md §3).
type OperandType int

const (
	Register OperandType = iota
	UConstant
	SConstant
	RAddress
	AAddress
	ShiftVal
	Size
	Direction
	Condition
	MemCounter
	Label
	Binary
)

// TokenKind mirrors lexer.Kind without importing package lexer, to avoid a
// cycle (lexer depends on isa for keyword tables, not the other way round).
type TokenKind int

const (
	KindOperation TokenKind = iota
	KindRegister
	KindDirection
	KindCondition
	KindMemCounter
	KindNumber
	KindLabel
	KindBinary
	KindInclude
	KindConst
	KindComment
	KindNewline
	KindEndFile
	KindSkip
	KindMismatch
)

// Families maps a mnemonic family to its concrete variants, in the fixed
// order given by spec.md §6.
var Families = map[string][]string{
	"add":    {"add2", "add2i", "add3", "add3i"},
	"and":    {"and2", "and2i", "and3", "and3i"},
	"sub":    {"sub2", "sub2i", "sub3", "sub3i"},
	"or":     {"or2", "or2i", "or3", "or3i"},
	"xor":    {"xor3", "xor3i"},
	"cmp":    {"cmp", "cmpi"},
	"let":    {"let", "leti"},
	"shift":  {"shift"},
	"readze": {"readze"},
	"readse": {"readse"},
	"jump":   {"jump", "jumpif", "jumpl", "jumpifl"},
	"write":  {"write"},
	"call":   {"call", "calll"},
	"setctr": {"setctr"},
	"getctr": {"getctr"},
	"push":   {"push"},
	"pop":    {"pop"},
	"return": {"return"},
	"asr":    {"asr3"},
	"label":  {"label"},
	"const":  {"const"},
	"sleep":  {"sleep"},
	"rand":   {"rand"},
}

// Signatures maps each concrete variant to its ordered operand types.
var Signatures = map[string][]OperandType{
	"add2":  {Register, Register},
	"add2i": {Register, UConstant},
	"add3":  {Register, Register, Register},
	"add3i": {Register, Register, UConstant},

	"sub2":  {Register, Register},
	"sub2i": {Register, UConstant},
	"sub3":  {Register, Register, Register},
	"sub3i": {Register, Register, UConstant},

	"cmp":  {Register, Register},
	"cmpi": {Register, SConstant},

	"let":  {Register, Register},
	"leti": {Register, SConstant},

	"shift": {Direction, Register, ShiftVal},

	"readze": {MemCounter, Size, Register},
	"readse": {MemCounter, Size, Register},

	"jump":    {RAddress},
	"jumpif":  {Condition, RAddress},
	"jumpl":   {Label},
	"jumpifl": {Condition, Label},

	"or2":  {Register, Register},
	"or2i": {Register, UConstant},
	"or3":  {Register, Register, Register},
	"or3i": {Register, Register, UConstant},

	"and2":  {Register, Register},
	"and2i": {Register, UConstant},
	"and3":  {Register, Register, Register},
	"and3i": {Register, Register, UConstant},

	"write": {MemCounter, Size, Register},
	"call":  {RAddress},
	"calll": {Label},

	"setctr": {MemCounter, Register},
	"getctr": {MemCounter, Register},

	"push":   {Size, Register},
	"pop":    {Size, Register},
	"return": {},

	"xor3":  {Register, Register, Register},
	"xor3i": {Register, Register, UConstant},

	"asr3": {Register, Register, ShiftVal},

	"label": {Label},
	"const": {UConstant, Binary},
	"sleep": {UConstant},
	"rand":  {Register},
}

// DefaultOpcodes is the fixed default opcode table from spec.md §6, used
// whenever Huffman tree generation is not requested. It is prefix-free
// except for one pair: "readze" (10010) is a prefix of "pop" (1001001).
var DefaultOpcodes = map[string]string{
	"add2":      "0000",
	"add2i":     "0001",
	"sub2":      "0010",
	"sub2i":     "0011",
	"cmp":       "0100",
	"cmpi":      "0101",
	"let":       "0110",
	"leti":      "0111",
	"shift":     "1000",
	"readze":    "10010",
	"pop":       "1001001",
	"readse":    "10011",
	"jump":      "1010",
	"jumpif":    "1011",
	"or2":       "110000",
	"or2i":      "110001",
	"and2":      "110010",
	"and2i":     "110011",
	"write":     "110100",
	"call":      "110101",
	"setctr":    "110110",
	"getctr":    "110111",
	"push":      "1110000",
	"return":    "1110001",
	"add3":      "1110010",
	"add3i":     "1110011",
	"sub3":      "1110100",
	"sub3i":     "1110101",
	"and3":      "1110110",
	"and3i":     "1110111",
	"or3":       "1111000",
	"or3i":      "1111001",
	"xor3":      "1111010",
	"xor3i":     "1111011",
	"asr3":      "1111100",
	"sleep":     "1111101",
	"rand":      "1111110",
	"reserved3": "1111111",
}

// TypeSpecs maps a lexer token kind to the operand types it may satisfy
// (spec.md §6, TYPE_SPECS). KindOperation/KindComment/etc. never appear as
// operand tokens so they are absent.
var TypeSpecs = map[TokenKind][]OperandType{
	KindNumber:     {UConstant, SConstant, RAddress, AAddress, ShiftVal, Size},
	KindDirection:  {Direction},
	KindCondition:  {Condition},
	KindMemCounter: {MemCounter},
	KindRegister:   {Register},
	KindLabel:      {Label},
	KindBinary:     {Binary},
}

// KindOf is the inverse of TypeSpecs: which lexer kind would a token of the
// given operand type have come from. Built at init from TypeSpecs so the
// two tables can never drift apart.
var KindOf = func() map[OperandType]TokenKind {
	inv := make(map[OperandType]TokenKind)
	for kind, types := range TypeSpecs {
		for _, t := range types {
			inv[t] = kind
		}
	}
	return inv
}()

// NbBitCondition is the fixed encoded width of a Condition operand.
const NbBitCondition = 3

// Conditions maps condition mnemonics (post-alias) to their 3-bit code,
// per spec.md §4.6. Aliases are resolved by the lexer before this table is
// consulted.
var Conditions = map[string]string{
	"eq":  "000",
	"neq": "001",
	"sgt": "010",
	"slt": "011",
	"gt":  "100",
	"ge":  "101",
	"lt":  "110",
	"v":   "111",
}

// ConditionAliases collapses source spellings to their canonical condition
// name at lex time (spec.md §4.2). "le" aliasing to "v" (overflow) is
// unusual but preserved exactly per spec.md §9's open question.
var ConditionAliases = map[string]string{
	"z":  "eq",
	"nz": "neq",
	"nc": "ge",
	"c":  "lt",
	"le": "v",
}

// MemCounters maps counter names to their 2-bit code.
var MemCounters = map[string]string{
	"pc": "00",
	"sp": "01",
	"a0": "10",
	"a1": "11",
}

// MemCounterIndex maps counter names to the index used by memory.Memory's
// counter array (spec.md §3).
var MemCounterIndex = map[string]int{
	"pc": 0,
	"sp": 1,
	"a0": 2,
	"a1": 3,
}

// LabelBearing is the set of pre-resolution pseudo-variants that the base
// Encoder defers to the label resolver (spec.md §4.4).
var LabelBearing = map[string]bool{
	"jumpl":   true,
	"jumpifl": true,
	"calll":   true,
}

// Resolved maps a label-bearing variant to the concrete variant the
// resolver rewrites it to.
var Resolved = map[string]string{
	"jumpl":   "jump",
	"jumpifl": "jumpif",
	"calll":   "call",
}
