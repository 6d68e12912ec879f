package lexer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/Urethramancer/minimisa/isa"
)

// Each kind gets its own named capture group so the combined alternation
// regex can report which one matched. Order matters: Go's regexp, like the
// Rust regex crate, resolves an alternation by trying branches left to
// right and taking the first that matches at the current position, so more
// specific patterns (OPERATION, INCLUDE, CONST) must precede the catch-all
// LABEL and MISMATCH branches.
var patterns = []struct {
	kind isa.TokenKind
	name string
	expr string
}{
	{isa.KindOperation, "OPERATION", `\b(?:add|sub|cmp|let|shift|readze|readse|jump|or|and|write|call|setctr|getctr|push|return|xor|asr|pop|sleep|rand)\b`},
	{isa.KindComment, "COMMENT", `;(?:.|[ \t])*`},
	{isa.KindRegister, "REGISTER", `\b(?:r|R)[0-9]+\b`},
	{isa.KindDirection, "DIRECTION", `\b(?:left|right)\b`},
	{isa.KindNumber, "NUMBER", `[+-]?(?:0x[0-9A-Fa-f]+|[0-9]+)\b`},
	{isa.KindCondition, "CONDITION", `\b(?:eq|z|neq|nz|sgt|slt|gt|ge|nc|lt|c|v|le)\b`},
	{isa.KindMemCounter, "MEMCOUNTER", `\b(?:pc|sp|a0|a1)\b`},
	{isa.KindInclude, "INCLUDE", `\.include\s+[a-zA-Z_][a-zA-Z_0-9.]*\b`},
	{isa.KindConst, "CONST", `\.const`},
	{isa.KindLabel, "LABEL", `\b[a-zA-Z_][a-zA-Z_0-9]*:?`},
	{isa.KindBinary, "BINARY", `#[01]+`},
	{isa.KindNewline, "NEWLINE", `\n`},
	{isa.KindSkip, "SKIP", `[ \t]+`},
	{isa.KindMismatch, "MISMATCH", `.+`},
}

var tokenRegexp *regexp.Regexp
var groupKind map[string]isa.TokenKind

func init() {
	parts := make([]string, len(patterns))
	groupKind = make(map[string]isa.TokenKind, len(patterns))
	for i, p := range patterns {
		parts[i] = fmt.Sprintf("(?P<%s>%s)", p.name, p.expr)
		groupKind[p.name] = p.kind
	}
	tokenRegexp = regexp.MustCompile(strings.Join(parts, "|"))
}

// CircularInclude reports a .include cycle: file appears twice along the
// current include stack.
type CircularInclude struct {
	File  string
	Stack []string
}

func (e *CircularInclude) Error() string {
	return fmt.Sprintf("circular include: %q already in progress (stack: %s)", e.File, strings.Join(e.Stack, " -> "))
}

// Lexer tokenizes one translation unit, following .include directives. The
// original Rust lexer tracked a single includes set conflating "currently
// being lexed" with "already fully lexed", so a genuine cycle was silently
// skipped rather than reported; we do not — inProgress (the current include
// stack) and done (fully processed files) are kept separate, so a cycle
// hits inProgress and fails with CircularInclude while a diamond include
// (the same leaf reached twice via different paths, not a cycle) hits done
// and is skipped idempotently.
type Lexer struct {
	inProgress map[string]bool
	done       map[string]bool
	stack      []string
	dir        string
}

// New returns a Lexer rooted at dir for resolving .include paths.
func New(dir string) *Lexer {
	return &Lexer{inProgress: map[string]bool{}, done: map[string]bool{}, dir: dir}
}

// Lex tokenizes code (whose source name is file, for diagnostics), inlining
// any .include directive by recursively lexing the included file's tokens
// into the stream at that point. A file already fully processed is skipped,
// producing no tokens for that occurrence (idempotent); a file still being
// processed higher up the include stack is a cycle and fails with
// CircularInclude.
func (l *Lexer) Lex(code, file string) ([]Token, error) {
	if l.done[file] {
		return nil, nil
	}
	if l.inProgress[file] {
		return nil, &CircularInclude{File: file, Stack: append(append([]string{}, l.stack...), file)}
	}
	l.inProgress[file] = true
	l.stack = append(l.stack, file)
	defer func() {
		l.stack = l.stack[:len(l.stack)-1]
		delete(l.inProgress, file)
		l.done[file] = true
	}()

	var out []Token
	lineNum := 1
	lineStart := 0

	matches := tokenRegexp.FindAllStringSubmatchIndex(code, -1)
	names := tokenRegexp.SubexpNames()

	for _, m := range matches {
		start, end := m[0], m[1]
		raw := code[start:end]

		var kindName string
		for gi := 1; gi < len(names); gi++ {
			if names[gi] == "" {
				continue
			}
			if m[2*gi] != -1 {
				kindName = names[gi]
				break
			}
		}

		kind, ok := groupKind[kindName]
		if !ok {
			kind = isa.KindMismatch
		}
		column := start - lineStart
		value := l.alias(kind, raw)
		value = normalize(kind, value)

		switch kind {
		case isa.KindNewline:
			lineStart = end
			lineNum++
			out = append(out, Token{Kind: isa.KindNewline, File: file, Line: lineNum - 1, Column: column})
		case isa.KindSkip:
			// dropped: whitespace carries no information downstream
		case isa.KindMismatch:
			return nil, &Error{File: file, Line: lineNum, Column: column, Message: fmt.Sprintf("invalid syntax: %q", value)}
		case isa.KindLabel:
			out = append(out, Token{Kind: isa.KindLabel, Value: value, File: file, Line: lineNum, Column: column})
		case isa.KindConst:
			out = append(out, Token{Kind: isa.KindOperation, Value: "const", File: file, Line: lineNum, Column: column})
		case isa.KindInclude:
			incName := strings.TrimSpace(value[len(".include"):])
			incPath := filepath.Join(l.dir, incName)
			contents, err := os.ReadFile(incPath)
			if err != nil {
				return nil, &Error{File: file, Line: lineNum, Column: column, Message: fmt.Sprintf("include %q: %v", incPath, err)}
			}
			incTokens, err := l.Lex(string(contents), incPath)
			if err != nil {
				return nil, err
			}
			out = append(out, incTokens...)
			out = append(out, Token{Kind: isa.KindInclude, Value: value, File: file, Line: lineNum, Column: column})
		default:
			out = append(out, Token{Kind: kind, Value: value, File: file, Line: lineNum, Column: column})
		}
	}

	return out, nil
}

func (l *Lexer) alias(kind isa.TokenKind, value string) string {
	if kind != isa.KindCondition {
		return value
	}
	if alias, ok := isa.ConditionAliases[value]; ok {
		return alias
	}
	return value
}

// normalize applies the per-kind post-processing the original lexer does:
// hex numbers are folded to decimal text, register tokens lose their r/R
// prefix, and labels lose a trailing colon.
func normalize(kind isa.TokenKind, value string) string {
	switch kind {
	case isa.KindNumber:
		lower := strings.ToLower(value)
		if strings.HasPrefix(lower, "0x") {
			n, err := strconv.ParseInt(value[2:], 16, 64)
			if err == nil {
				return strconv.FormatInt(n, 10)
			}
		}
		return value
	case isa.KindRegister:
		return value[1:]
	case isa.KindLabel:
		return strings.TrimSuffix(value, ":")
	default:
		return value
	}
}
