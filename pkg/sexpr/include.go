package sexpr

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReadFileTree parses path and recursively resolves every (include "sub
// path") form it contains, returning the concatenated top-level forms of
// the whole tree in file order (processor_t::include, which recurses
// into process() for each included file). Include paths are resolved
// relative to the including file's directory. A file that (directly or
// transitively) includes itself is a syntax error: the original has no
// such guard, since its recursion is bounded only by the OS stack; this
// loader adds an explicit visited-path check instead of risking a stack
// overflow on a malformed KB.
func ReadFileTree(path string) ([]*Node, error) {
	visited := make(map[string]bool)
	return readFileTree(path, visited)
}

func readFileTree(path string, visited map[string]bool) ([]*Node, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if visited[abs] {
		return nil, fmt.Errorf("sexpr: include cycle at %s", path)
	}
	visited[abs] = true
	defer delete(visited, abs)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	forms, err := ReadAll(data, path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	var out []*Node
	for _, f := range forms {
		if f.IsFunctor("include") {
			args := f.Args()
			if len(args) != 1 || args[0].Kind != KindString {
				return nil, &SyntaxError{Name: path, Line: f.Line, Msg: "include: argument must be a string"}
			}
			incPath := args[0].Text
			if !filepath.IsAbs(incPath) {
				incPath = filepath.Join(dir, incPath)
			}
			sub, err := readFileTree(incPath, visited)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		out = append(out, f)
	}
	return out, nil
}
