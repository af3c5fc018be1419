// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 1000000

// ExportPath returns where an export in format ("yaml" or "json") is written.
func (s *Store) ExportPath(format string) string {
	return filepath.Join(s.dir, indexDir, "export."+format)
}

// ExportYAML writes the index, or the subset matching opts, to
// index/export.yaml.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	links, err := s.exportLinks(ctx, opts)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(links)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(s.ExportPath("yaml"), data, 0o644)
}

// ExportJSON writes the index, or the subset matching opts, to
// index/export.json.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	links, err := s.exportLinks(ctx, opts)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(links, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(s.ExportPath("json"), data, 0o644)
}

func (s *Store) exportLinks(ctx context.Context, opts QueryOptions) ([]Link, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = exportLimit
	}
	links, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if links == nil {
		links = []Link{}
	}
	return links, nil
}
