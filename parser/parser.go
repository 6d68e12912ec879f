// Package parser turns a token stream into a stream of typed instruction
// lines: it groups tokens between newlines, matches the leading operation
// against the mnemonic family table, selects the concrete variant whose
// operand-type signature matches the trailing tokens' kinds, and validates
// each operand's range for its inferred semantic type.
//
// Grounded on _examples/original_source/compiler/parser.rs's stack/queue
// Parser, generalized to carry its working state in an explicit value
// (Parser) rather than a lifetime-borrowed lexer iterator, per the
// AssembleContext redesign.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Urethramancer/minimisa/bitio"
	"github.com/Urethramancer/minimisa/isa"
	"github.com/Urethramancer/minimisa/lexer"
)

// Value is one parsed, range-checked operand.
type Value struct {
	Type isa.OperandType
	Raw  string // canonical string form; numeric operands parse back via strconv
}

// Line is one fully parsed instruction: the concrete variant name (already
// resolved from its family) plus its typed, ordered operands.
type Line struct {
	Variant string
	Args    []Value
	LineNum int
	File    string
}

// Error reports a parse-time failure tied to a specific source position.
type Error struct {
	File    string
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: line %d: %s", e.File, e.Line, e.Message)
}

type variant struct {
	name     string
	argTypes []isa.OperandType
}

// Parser matches family invocations to a concrete variant by the ordered
// kind-signature of their operand tokens.
type Parser struct {
	functions map[string]map[string]variant
	stack     []lexer.Token
}

// New builds a Parser from the fixed family/variant/signature tables in
// package isa.
func New() *Parser {
	p := &Parser{functions: map[string]map[string]variant{}}
	for family, variants := range isa.Families {
		sigMap := map[string]variant{}
		for _, v := range variants {
			argTypes := isa.Signatures[v]
			kinds := make([]isa.TokenKind, len(argTypes))
			for i, t := range argTypes {
				kinds[i] = isa.KindOf[t]
			}
			sigMap[signatureKey(kinds)] = variant{name: v, argTypes: argTypes}
		}
		p.functions[family] = sigMap
	}
	return p
}

func signatureKey(kinds []isa.TokenKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = strconv.Itoa(int(k))
	}
	return strings.Join(parts, ",")
}

// Parse consumes a full token stream and returns the parsed instruction
// lines in source order. Comment, Include and EndFile tokens are dropped
// (an Include token only marks where the included file's tokens were
// spliced in); every other non-Newline token accumulates on a per-line stack that is resolved
// into a Line each time a Newline token is seen. A bare label-definition
// line consisting of exactly one Label token (e.g. "loop:") is rewritten
// to an implicit "label" operation before dispatch — the token grammar
// alone cannot distinguish a label definition from a label reference once
// the lexer has already stripped the trailing colon from the token value,
// so this rewrite is the one place that distinction is made explicit.
func (p *Parser) Parse(tokens []lexer.Token) ([]Line, error) {
	var lines []Line
	for _, tok := range tokens {
		switch tok.Kind {
		case isa.KindComment, isa.KindInclude, isa.KindEndFile:
			continue
		case isa.KindNewline:
			if len(p.stack) == 0 {
				continue
			}
			line, err := p.handleOne()
			if err != nil {
				return nil, err
			}
			lines = append(lines, *line)
		default:
			p.stack = append(p.stack, tok)
		}
	}
	return lines, nil
}

// handleOne resolves the tokens accumulated for one source line into a
// single typed Line, then clears the stack.
func (p *Parser) handleOne() (*Line, error) {
	toks := p.stack
	p.stack = nil

	if len(toks) == 1 && toks[0].Kind == isa.KindLabel {
		toks = []lexer.Token{
			{Kind: isa.KindOperation, Value: "label", File: toks[0].File, Line: toks[0].Line, Column: toks[0].Column},
			toks[0],
		}
	}

	head := toks[0]
	if head.Kind != isa.KindOperation {
		return nil, &Error{File: head.File, Line: head.Line, Message: "line does not start with an operation"}
	}

	funcMap, ok := p.functions[head.Value]
	if !ok {
		return nil, &Error{File: head.File, Line: head.Line, Message: fmt.Sprintf("unknown operation %q", head.Value)}
	}

	args := toks[1:]
	kinds := make([]isa.TokenKind, len(args))
	for i, a := range args {
		kinds[i] = a.Kind
	}

	v, ok := funcMap[signatureKey(kinds)]
	if !ok {
		return nil, &Error{File: head.File, Line: head.Line, Message: fmt.Sprintf("no variant of %q matches the given operand types", head.Value)}
	}

	if len(args) != len(v.argTypes) {
		return nil, &Error{File: head.File, Line: head.Line, Message: fmt.Sprintf("incorrect number of arguments for %q", v.name)}
	}

	typedArgs := make([]Value, len(args))
	for i, a := range args {
		val, err := readValue(v.argTypes[i], a.Value)
		if err != nil {
			return nil, &Error{File: head.File, Line: head.Line, Message: err.Error()}
		}
		typedArgs[i] = val
	}

	return &Line{Variant: v.name, Args: typedArgs, LineNum: head.Line, File: head.File}, nil
}

// readValue range-checks value against goalType and returns its typed
// form, mirroring parser.rs's read_value match arm by arm.
func readValue(goalType isa.OperandType, value string) (Value, error) {
	switch goalType {
	case isa.MemCounter, isa.Direction, isa.Condition, isa.Label:
		return Value{Type: goalType, Raw: value}, nil

	case isa.UConstant:
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("couldn't parse unsigned constant %q", value)
		}
		return Value{Type: goalType, Raw: strconv.FormatUint(v, 10)}, nil

	case isa.SConstant, isa.RAddress:
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("couldn't parse signed constant %q", value)
		}
		return Value{Type: goalType, Raw: strconv.FormatInt(v, 10)}, nil

	case isa.ShiftVal:
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("couldn't parse shift value %q", value)
		}
		if v >= 64 {
			return Value{}, fmt.Errorf("shift value %d out of range", v)
		}
		return Value{Type: goalType, Raw: strconv.FormatUint(v, 10)}, nil

	case isa.Size:
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("couldn't parse size value %q", value)
		}
		switch v {
		case 1, 4, 8, 16, 32, 64:
			return Value{Type: goalType, Raw: strconv.FormatUint(v, 10)}, nil
		default:
			return Value{}, fmt.Errorf("size value %d out of range", v)
		}

	case isa.Register:
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("couldn't parse register value %q", value)
		}
		if v >= bitio.NbReg {
			return Value{}, fmt.Errorf("register %d out of range", v)
		}
		return Value{Type: goalType, Raw: strconv.FormatUint(v, 10)}, nil

	case isa.Binary:
		return Value{Type: goalType, Raw: strings.TrimPrefix(value, "#")}, nil

	default:
		return Value{}, fmt.Errorf("unhandled operand type %v", goalType)
	}
}
