package arch_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
)

const internalImportPrefix = "github.com/papapumpkin/sextant/internal/"

// internalDir returns the absolute path of internal/, which is the parent
// of this package's directory.
func internalDir(t *testing.T) string {
	t.Helper()
	_, here, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	return filepath.Dir(filepath.Dir(here))
}

// packages returns the names of the internal packages that hold Go source,
// sorted, without arch_test.
func packages(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(internalDir(t))
	if err != nil {
		t.Fatal(err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != "arch_test" && len(sourceFiles(t, e.Name(), false)) > 0 {
			out = append(out, e.Name())
		}
	}
	return out
}

// sourceFiles lists the .go files of pkg, sorted. Test files are included
// only when withTests is set.
func sourceFiles(t *testing.T, pkg string, withTests bool) []string {
	t.Helper()
	dir := filepath.Join(internalDir(t), pkg)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") {
			continue
		}
		if !withTests && strings.HasSuffix(name, "_test.go") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	slices.Sort(out)
	return out
}

// parsePackage parses the non-test files of pkg.
func parsePackage(t *testing.T, pkg string, mode parser.Mode) (*token.FileSet, []*ast.File) {
	t.Helper()
	fset := token.NewFileSet()
	var files []*ast.File
	for _, path := range sourceFiles(t, pkg, false) {
		f, err := parser.ParseFile(fset, path, nil, mode)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		files = append(files, f)
	}
	return fset, files
}

// internalImports returns the internal packages imported by pkg.
func internalImports(t *testing.T, pkg string) []string {
	t.Helper()
	_, files := parsePackage(t, pkg, parser.ImportsOnly)
	var out []string
	for _, f := range files {
		for _, imp := range f.Imports {
			rel, ok := strings.CutPrefix(strings.Trim(imp.Path.Value, `"`), internalImportPrefix)
			if !ok {
				continue
			}
			rel, _, _ = strings.Cut(rel, "/")
			if !slices.Contains(out, rel) {
				out = append(out, rel)
			}
		}
	}
	slices.Sort(out)
	return out
}

func isGenerated(src []byte) bool {
	head := src[:min(len(src), 200)]
	return strings.Contains(string(head), "Code generated")
}
