// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pdiddy/wikidump/internal/languages"
)

// corePackages hold the extraction engine; Stats reports their share of
// production lines.
var corePackages = []string{"internal/extract", "internal/guard"}

// lineCount is the number of non-blank Go lines in one package.
type lineCount struct {
	Prod int
	Test int
}

// Stats prints non-blank Go lines per package, the extraction core's share,
// and the languages the built-in magic-word table covers.
func Stats() error {
	counts, err := countPackageLines(".")
	if err != nil {
		return err
	}

	pkgs := make([]string, 0, len(counts))
	for pkg := range counts {
		pkgs = append(pkgs, pkg)
	}
	slices.Sort(pkgs)

	var total, core lineCount
	fmt.Printf("%-24s  %6s  %6s\n", "Package", "Prod", "Test")
	for _, pkg := range pkgs {
		c := counts[pkg]
		fmt.Printf("%-24s  %6d  %6d\n", pkg, c.Prod, c.Test)
		total.Prod += c.Prod
		total.Test += c.Test
		if slices.Contains(corePackages, pkg) {
			core.Prod += c.Prod
		}
	}
	fmt.Printf("%-24s  %6d  %6d\n", "total", total.Prod, total.Test)
	if total.Prod > 0 {
		fmt.Printf("\nExtraction core: %d lines (%.0f%% of production)\n",
			core.Prod, 100*float64(core.Prod)/float64(total.Prod))
	}

	langs := languages.Default().Supported()
	fmt.Printf("Redirect languages: %d (%s)\n", len(langs), strings.Join(langs, " "))
	return nil
}

// countPackageLines counts non-blank lines of the Go files under root,
// keyed by package directory relative to root. Directories starting with
// "_" or "." are skipped, as the go tool does.
func countPackageLines(root string) (map[string]lineCount, error) {
	counts := make(map[string]lineCount)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}

		n, err := nonBlankLines(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		pkg := filepath.ToSlash(rel)
		c := counts[pkg]
		if strings.HasSuffix(path, "_test.go") {
			c.Test += n
		} else {
			c.Prod += n
		}
		counts[pkg] = c
		return nil
	})
	return counts, err
}

func nonBlankLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return n, nil
}
