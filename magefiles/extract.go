// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Extract groups smoke targets that run one processor over a dump.
type Extract mg.Namespace

// Wikilinks runs extract-wikilinks over dump into output/extract-wikilinks/.
func (Extract) Wikilinks(dump string) error {
	return runStage("extract-wikilinks", dump)
}

// Redirects runs extract-redirects over dump.
func (Extract) Redirects(dump string) error {
	return runStage("extract-redirects", dump)
}

// RevisionList runs extract-revisionlist with byte changes over dump.
func (Extract) RevisionList(dump string) error {
	return runStage("extract-revisionlist", dump, "--change-bytes")
}

// Sections runs count-sections over dump.
func (Extract) Sections(dump string) error {
	return runStage("count-sections", dump)
}

// All runs every processor over dump.
func (e Extract) All(dump string) error {
	for _, stage := range []func(string) error{e.Wikilinks, e.Redirects, e.RevisionList, e.Sections} {
		if err := stage(dump); err != nil {
			return err
		}
	}
	return nil
}

// stageDir is where a subcommand's files go. Every processor names its
// files after the input dump, so stages need separate directories.
func stageDir(subcommand string) string {
	return filepath.Join("output", subcommand)
}

// runStage builds the binary once and runs a subcommand against dump.
func runStage(subcommand, dump string, flags ...string) error {
	mg.Deps(Build)
	fmt.Printf("[%s] %s\n", subcommand, dump)
	args := append([]string{subcommand, "--output-dir", stageDir(subcommand)}, flags...)
	args = append(args, dump)
	return run(filepath.Join(binDir, binName), args...)
}
