package lang

import (
	"fmt"
	"strconv"
)

// Parse turns formula text into an expression tree.
// It returns a *SyntaxError on malformed input: unbalanced
// parentheses, an empty operator position, a keyword marker outside
// a call tail, a keyword without a value, or a duplicate keyword
// name within one call.
func Parse(src string) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}
	p := &parser{toks: toks}
	expr, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		t := p.toks[p.pos]
		return nil, &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("unexpected trailing token %q", t.Text)}
	}
	return expr, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) expr() (Expr, error) {
	t := p.toks[p.pos]
	switch t.Kind {
	case tokLParen:
		return p.call()
	case tokRParen:
		return nil, &SyntaxError{Pos: t.Pos, Msg: "unexpected closing parenthesis"}
	case tokString:
		p.pos++
		return String(t.Text), nil
	case tokKeyword:
		return nil, &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("keyword #:%s outside a call tail", t.Text)}
	case tokAtom:
		p.pos++
		return atom(t)
	}
	return nil, &SyntaxError{Pos: t.Pos, Msg: "unrecognized token"}
}

// call parses from an opening parenthesis to its matching close.
// Positional arguments end at the first keyword marker; everything
// after is strictly keyword/value pairs.
func (p *parser) call() (Expr, error) {
	open := p.toks[p.pos]
	p.pos++ // consume (

	if p.pos >= len(p.toks) {
		return nil, &SyntaxError{Pos: open.Pos, Msg: "unbalanced parenthesis"}
	}
	opTok := p.toks[p.pos]
	if opTok.Kind == tokRParen {
		return nil, &SyntaxError{Pos: opTok.Pos, Msg: "empty operator position"}
	}
	if opTok.Kind != tokAtom {
		return nil, &SyntaxError{Pos: opTok.Pos, Msg: "operator position must be a name"}
	}
	p.pos++

	call := &Call{Op: opTok.Text}
	seen := map[string]bool{}
	inKwargs := false

	for {
		if p.pos >= len(p.toks) {
			return nil, &SyntaxError{Pos: open.Pos, Msg: "unbalanced parenthesis"}
		}
		t := p.toks[p.pos]
		if t.Kind == tokRParen {
			p.pos++
			return call, nil
		}
		if t.Kind == tokKeyword {
			if seen[t.Text] {
				return nil, &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("duplicate keyword #:%s", t.Text)}
			}
			seen[t.Text] = true
			inKwargs = true
			p.pos++
			if p.pos >= len(p.toks) || p.toks[p.pos].Kind == tokRParen {
				return nil, &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("keyword #:%s has no value", t.Text)}
			}
			val, err := p.expr()
			if err != nil {
				return nil, err
			}
			call.Kwargs = append(call.Kwargs, Kwarg{Name: t.Text, Value: val})
			continue
		}
		if inKwargs {
			return nil, &SyntaxError{Pos: t.Pos, Msg: "positional argument after keyword section"}
		}
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
	}
}

// atom classifies a bare token: integer, float, boolean, nil, else
// symbol. Numbers follow Go literal syntax minus underscores.
func atom(t token) (Expr, error) {
	switch t.Text {
	case "#t":
		return Bool(true), nil
	case "#f":
		return Bool(false), nil
	case "nil":
		return Nil{}, nil
	}
	if looksNumeric(t.Text) {
		if n, err := strconv.ParseInt(t.Text, 10, 64); err == nil {
			return Number(n), nil
		}
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("malformed number %q", t.Text)}
		}
		return Float(f), nil
	}
	return Symbol(t.Text), nil
}

// looksNumeric reports whether a token starts like a number literal.
// Names such as *, /, row-mean or by.name must stay symbols, so a
// lone sign or dot does not qualify.
func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		if len(s) == 1 {
			return false
		}
		i = 1
	}
	if s[i] >= '0' && s[i] <= '9' {
		return true
	}
	return s[i] == '.' && len(s) > i+1 && s[i+1] >= '0' && s[i+1] <= '9'
}
