// Package main generates the markdown reference for the tdiff command line
// and its configuration file.
//
// Usage:
//
//	go run ./scripts/gendocs -gen=cli -outdir=docs/cli
//	go run ./scripts/gendocs -gen=config -outdir=docs
//	go run ./scripts/gendocs -gen=all
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// generator writes one documentation set into outDir.
type generator struct {
	name   string
	subdir string // default output directory below the project root
	run    func(outDir string) error
}

var generators = []generator{
	{name: "cli", subdir: filepath.Join("docs", "cli"), run: generateCLIDocs},
	{name: "config", subdir: "docs", run: generateConfigDocs},
}

func main() {
	gen := flag.String("gen", "all", "what to generate: cli, config, all")
	outDir := flag.String("outdir", "", "output directory (defaults based on gen type)")
	flag.Parse()

	root, err := findProjectRoot()
	if err != nil {
		log.Fatalf("failed to find project root: %v", err)
	}
	if err := generate(*gen, root, *outDir); err != nil {
		log.Fatal(err)
	}
	log.Println("Done!")
}

// generate runs the generator named by which, or all of them. An explicit
// outDir replaces each generator's default directory.
func generate(which, root, outDir string) error {
	ran := false
	for _, g := range generators {
		if which != "all" && which != g.name {
			continue
		}
		dir := outDir
		if dir == "" {
			dir = filepath.Join(root, g.subdir)
		}
		if err := g.run(dir); err != nil {
			return fmt.Errorf("failed to generate %s docs: %w", g.name, err)
		}
		ran = true
	}
	if !ran {
		return fmt.Errorf("unknown -gen value: %s (use: cli, config, all)", which)
	}
	return nil
}

// findProjectRoot walks up from the working directory to the go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
