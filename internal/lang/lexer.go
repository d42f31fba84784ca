package lang

import (
	"fmt"
	"strings"
)

// SyntaxError reports malformed formula text. Pos is a zero-based
// byte offset into the source.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

type tokenKind int

const (
	tokLParen tokenKind = iota
	tokRParen
	tokString
	tokKeyword // #:name marker, Text holds the name without the prefix
	tokAtom    // number, boolean, nil, symbol or operator name
)

type token struct {
	Kind tokenKind
	Text string
	Pos  int
}

// keywordMarker is the lexical prefix introducing a keyword argument.
// It is recognized only on bare tokens: a quoted "#:x" is a string.
const keywordMarker = "#:"

func isDelimiter(r byte) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '(', ')', '"':
		return true
	}
	return false
}

// lex splits formula text into tokens. Strings run to the next
// double quote with no escape sequences; every other token runs to
// the next delimiter.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == '"':
			end := strings.IndexByte(src[i+1:], '"')
			if end < 0 {
				return nil, &SyntaxError{Pos: i, Msg: "unterminated string"}
			}
			toks = append(toks, token{tokString, src[i+1 : i+1+end], i})
			i += end + 2
		default:
			start := i
			for i < len(src) && !isDelimiter(src[i]) {
				i++
			}
			text := src[start:i]
			if strings.HasPrefix(text, keywordMarker) {
				name := text[len(keywordMarker):]
				if name == "" {
					return nil, &SyntaxError{Pos: start, Msg: "empty keyword name"}
				}
				toks = append(toks, token{tokKeyword, name, start})
			} else {
				toks = append(toks, token{tokAtom, text, start})
			}
		}
	}
	return toks, nil
}
