// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Index ingests the extract:wikilinks features files into the link index.
func Index() error {
	mg.Deps(Build)
	features, err := filepath.Glob(filepath.Join(stageDir("extract-wikilinks"), "*.features.csv*"))
	if err != nil {
		return err
	}
	if len(features) == 0 {
		fmt.Println("[index] No wikilinks features files. Run extract:wikilinks first.")
		return nil
	}
	args := append([]string{"index", "ingest", "--store-dir", "store"}, features...)
	return run(filepath.Join(binDir, binName), args...)
}
