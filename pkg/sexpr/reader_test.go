package sexpr_test

import (
	"testing"

	"github.com/gitrdm/abductio/pkg/sexpr"
)

func TestReadAllParsesNestedForms(t *testing.T) {
	src := `
; a comment line
(O (^ (flies Tweety) (bird Tweety))
   (req (alive Tweety))
   (name "tweety-obs"))
`
	forms, err := sexpr.ReadAll([]byte(src), "test")
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 1 {
		t.Fatalf("expected 1 top-level form, got %d", len(forms))
	}
	root := forms[0]
	if root.Head() != "O" {
		t.Fatalf("expected head %q, got %q", "O", root.Head())
	}
	if len(root.Args()) != 3 {
		t.Fatalf("expected 3 args, got %d", len(root.Args()))
	}
}

func TestReadAllHandlesQuotedStringsWithEscapes(t *testing.T) {
	src := `(B (name "a \"quoted\" label"))`
	forms, err := sexpr.ReadAll([]byte(src), "test")
	if err != nil {
		t.Fatal(err)
	}
	nameForm := forms[0].Args()[0]
	str := nameForm.Args()[0]
	if str.Kind != sexpr.KindString {
		t.Fatalf("expected a string node, got kind %v", str.Kind)
	}
	if str.Text != `a "quoted" label` {
		t.Fatalf("unexpected unescaped text: %q", str.Text)
	}
}

func TestReadAllRejectsUnbalancedParens(t *testing.T) {
	_, err := sexpr.ReadAll([]byte(`(O (^ (flies Tweety))`), "test")
	if err == nil {
		t.Fatal("expected a syntax error for an unclosed list")
	}
}

func TestReadAllRejectsStrayClosingParen(t *testing.T) {
	_, err := sexpr.ReadAll([]byte(`(O) )`), "test")
	if err == nil {
		t.Fatal("expected a syntax error for a stray closing paren")
	}
}

func TestNodeStringRoundTrips(t *testing.T) {
	forms, err := sexpr.ReadAll([]byte(`(pred X Y)`), "test")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := forms[0].String(), "(pred X Y)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
