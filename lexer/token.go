// Package lexer tokenizes assembly source text into a stream of typed
// tokens, grounded on _examples/original_source/compiler/lexer.rs's single
// alternation-regex Lexer and styled after the teacher's package-level
// regexp.MustCompile tables in assembler/parse.go.
package lexer

import (
	"strconv"

	"github.com/Urethramancer/minimisa/isa"
)

// Token is one lexed unit of source text.
type Token struct {
	Kind   isa.TokenKind
	Value  string // normalized value; empty for Skip/Newline
	File   string
	Line   int
	Column int
}

// Error reports a lex-time failure: an unrecognized character sequence, or
// an I/O failure while following a .include directive.
type Error struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	return e.File + ": line " + strconv.Itoa(e.Line) + ": " + e.Message
}
