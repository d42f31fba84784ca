package lang

import (
	"errors"
	"testing"
)

func TestParse_SimpleCall(t *testing.T) {
	expr, err := Parse(`(series "gas-spot")`)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	call, ok := expr.(*Call)
	if !ok {
		t.Fatalf("expected *Call, got %T", expr)
	}
	if call.Op != "series" {
		t.Errorf("op = %q, want series", call.Op)
	}
	if len(call.Args) != 1 || call.Args[0] != String("gas-spot") {
		t.Errorf("args = %#v", call.Args)
	}
}

func TestParse_Literals(t *testing.T) {
	cases := []struct {
		src  string
		want Expr
	}{
		{"42", Number(42)},
		{"-7", Number(-7)},
		{"3.25", Float(3.25)},
		{"-0.5", Float(-0.5)},
		{"1e3", Float(1000)},
		{"#t", Bool(true)},
		{"#f", Bool(false)},
		{"nil", Nil{}},
		{`"hello world"`, String("hello world")},
		{`""`, String("")},
	}
	for _, tc := range cases {
		got, err := Parse(tc.src)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tc.src, err)
		}
		if !Equal(got, tc.want) {
			t.Errorf("Parse(%q) = %#v, want %#v", tc.src, got, tc.want)
		}
	}
}

func TestParse_PunctuationNames(t *testing.T) {
	// operator and keyword names allow arbitrary punctuation
	expr, err := Parse(`(* 2 (series "a"))`)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	call := expr.(*Call)
	if call.Op != "*" {
		t.Errorf("op = %q, want *", call.Op)
	}
	expr, err = Parse(`(row-mean (series "a") (series "b"))`)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if expr.(*Call).Op != "row-mean" {
		t.Errorf("op = %q, want row-mean", expr.(*Call).Op)
	}
}

func TestParse_KeywordSection(t *testing.T) {
	expr, err := Parse(`(clip (series "a") #:min 2 #:max 4)`)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	call := expr.(*Call)
	if len(call.Args) != 1 {
		t.Fatalf("positional args = %d, want 1", len(call.Args))
	}
	if got := call.Kwarg("min"); !Equal(got, Number(2)) {
		t.Errorf("min = %#v", got)
	}
	if got := call.Kwarg("max"); !Equal(got, Number(4)) {
		t.Errorf("max = %#v", got)
	}
	if got := call.Kwarg("absent"); got != nil {
		t.Errorf("absent = %#v, want nil", got)
	}
}

func TestParse_KeywordValueMayBeCall(t *testing.T) {
	expr, err := Parse(`(slice (series "a") #:fromdate (date "2019-1-2"))`)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	from := expr.(*Call).Kwarg("fromdate")
	call, ok := from.(*Call)
	if !ok || call.Op != "date" {
		t.Fatalf("fromdate = %#v, want (date ...)", from)
	}
}

func TestParse_QuotedMarkerIsString(t *testing.T) {
	// the keyword marker is lexical, never applied inside strings
	expr, err := Parse(`(series "#:fill")`)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if got := expr.(*Call).Args[0]; got != String("#:fill") {
		t.Errorf("arg = %#v", got)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"unbalanced open", `(add (series "a")`},
		{"unbalanced close", `(add))`},
		{"stray close", `)`},
		{"empty operator", `()`},
		{"operator not a name", `("series" "a")`},
		{"keyword outside call", `#:fill`},
		{"keyword without value", `(series "a" #:fill)`},
		{"duplicate keyword", `(series "a" #:fill 1 #:fill 2)`},
		{"positional after keyword", `(add (series "a") #:fill 0 (series "b"))`},
		{"empty keyword name", `(series "a" #: 1)`},
		{"unterminated string", `(series "a`},
		{"trailing tokens", `(series "a") (series "b")`},
		{"malformed number", `(clip (series "a") #:min 3x)`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.src)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tc.src)
			}
			var serr *SyntaxError
			if !errors.As(err, &serr) {
				t.Errorf("error type = %T, want *SyntaxError", err)
			}
		})
	}
}

func TestParse_Deterministic(t *testing.T) {
	src := `(priority (series "a" #:fill "ffill") (add (series "b") (series "c" #:fill 0)))`
	first, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	second, err := Parse(src)
	if err != nil {
		t.Fatalf("second Parse() failed: %v", err)
	}
	if !Equal(first, second) {
		t.Error("identical text produced different trees")
	}
}

func TestWalk_VisitsNestedCalls(t *testing.T) {
	expr, err := Parse(`(add (series "a") (slice (series "b") #:fromdate (date "2020-1-1")))`)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	var ops []string
	Walk(expr, func(e Expr) {
		if c, ok := e.(*Call); ok {
			ops = append(ops, c.Op)
		}
	})
	want := []string{"add", "series", "slice", "series", "date"}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("ops[%d] = %q, want %q", i, ops[i], want[i])
		}
	}
}
