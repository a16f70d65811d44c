package sexpr_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gitrdm/abductio/pkg/sexpr"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadFileTreeResolvesIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rules.lisp", `(B (=> (bird X) (flies X)))`)
	main := writeFile(t, dir, "main.lisp", `(include "rules.lisp")
(O (^ (flies Tweety)))`)

	forms, err := sexpr.ReadFileTree(main)
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 2 {
		t.Fatalf("expected 2 forms after include resolution, got %d", len(forms))
	}
	if forms[0].Head() != "B" || forms[1].Head() != "O" {
		t.Fatalf("unexpected form order: %q, %q", forms[0].Head(), forms[1].Head())
	}
}

func TestReadFileTreeDetectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.lisp", `(include "b.lisp")`)
	writeFile(t, dir, "b.lisp", `(include "a.lisp")`)

	_, err := sexpr.ReadFileTree(filepath.Join(dir, "a.lisp"))
	if err == nil {
		t.Fatal("expected an include-cycle error")
	}
}
