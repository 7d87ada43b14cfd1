package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const modulePath = "github.com/leapstack-labs/tdiff/"

// importsOf returns the non-test imports of the package in dir.
func importsOf(t *testing.T, dir string) map[string][]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}

	fset := token.NewFileSet()
	imports := make(map[string][]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		for _, imp := range f.Imports {
			path := strings.Trim(imp.Path.Value, `"`)
			imports[path] = append(imports[path], name)
		}
	}
	return imports
}

// isStdlib reports whether path has no dot in its first element.
func isStdlib(path string) bool {
	return !strings.Contains(strings.Split(path, "/")[0], ".")
}

// TestImportBoundaries keeps query synthesis free of drivers and I/O.
// pkg/core and pkg/naming import only the standard library. The planning
// packages may use core, naming, dialect and each other, but never a
// database driver, an adapter, the catalog loaders or internal code.
func TestImportBoundaries(t *testing.T) {
	planning := []string{"core", "naming", "dialect", "resolve", "classify"}

	tests := []struct {
		pkg       string
		allowed   []string
		forbidden []string
	}{
		{pkg: "core"},
		{pkg: "naming"},
		{pkg: "dialect", allowed: []string{"core"}},
		{pkg: "resolve", allowed: planning, forbidden: []string{"database/sql"}},
		{pkg: "classify", allowed: planning, forbidden: []string{"database/sql"}},
		{pkg: "synth", allowed: planning, forbidden: []string{"database/sql"}},
	}

	for _, tt := range tests {
		t.Run(tt.pkg, func(t *testing.T) {
			for path, files := range importsOf(t, filepath.Join("..", tt.pkg)) {
				for _, bad := range tt.forbidden {
					if path == bad {
						t.Errorf("%v import forbidden package %s", files, path)
					}
				}
				if isStdlib(path) {
					continue
				}
				if !allowedInternal(path, tt.allowed) {
					t.Errorf("%v import forbidden package %s", files, path)
				}
			}
		})
	}
}

func allowedInternal(path string, allowed []string) bool {
	for _, a := range allowed {
		if path == modulePath+"pkg/"+a {
			return true
		}
	}
	return false
}
