package lang

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

func TestRender_RoundTrip(t *testing.T) {
	sources := []string{
		`(series "gas-spot")`,
		`(series "gas-spot" #:fill "ffill")`,
		`(* 2 (series "a"))`,
		`(+ 1.5 (series "a"))`,
		`(/ (series "div-me") (/ 3 2))`,
		`(add (series "x" #:fill "ffill") (series "y" #:fill "bfill") (series "z" #:fill 0))`,
		`(priority (series "c") (series "b") (series "a"))`,
		`(clip (series "a") #:min -2 #:max 4)`,
		`(slice (series "s") #:fromdate (date "2019-1-2") #:todate (date "2019-3-1"))`,
		`(resample (naive (series "hourly-utc") "US" "EST") "D" "sum")`,
		`(std (series "s0") (series "s1") #:skipna #f)`,
		`(row-mean (series "a" #:weight 2.0) (series "b"))`,
		`(slice (series "s") #:fromdate nil)`,
	}
	for _, src := range sources {
		first, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", src, err)
		}
		text := Render(first)
		second, err := Parse(text)
		if err != nil {
			t.Fatalf("Parse(Render) failed for %q: %v", text, err)
		}
		if !Equal(first, second) {
			t.Errorf("round trip broke %q -> %q", src, text)
		}
	}
}

func TestRender_Normalizes(t *testing.T) {
	// irregular whitespace renders to the one canonical form
	expr, err := Parse("(add\n  (series \"a\")\t(series  \"b\" #:fill   0))")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	want := `(add (series "a") (series "b" #:fill 0))`
	if got := Render(expr); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRender_FloatKeepsPoint(t *testing.T) {
	if got := Render(Float(2)); got != "2.0" {
		t.Errorf("Render(Float(2)) = %q, want 2.0", got)
	}
	again, err := Parse(Render(Float(2)))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if _, ok := again.(Float); !ok {
		t.Errorf("re-parsed as %T, want Float", again)
	}
}

func TestRender_Golden(t *testing.T) {
	sources := []string{
		"(add\n  (series \"gas-spot\" #:fill \"ffill\")\n  (* 2.0 (series \"gas-fwd\")))",
		`(priority (series "real") (series "nom") (series "fcst"))`,
		`(clip (resample (series "hourly") "D" "mean") #:min 0)`,
	}
	var lines []string
	for _, src := range sources {
		expr, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", src, err)
		}
		lines = append(lines, Render(expr))
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "render_canonical", []byte(strings.Join(lines, "\n")+"\n"))
}
