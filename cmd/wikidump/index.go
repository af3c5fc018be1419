// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wikidump/internal/extract"
	"github.com/pdiddy/wikidump/internal/store"
	"github.com/pdiddy/wikidump/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the wikilink index (ingest, query, export)",
	Long: `Index manages a local SQLite index built from extract-wikilinks
features files. Use subcommands to ingest files, query them, or export.`,
}

// --- ingest subcommand ---

var indexIngestCmd = &cobra.Command{
	Use:   "ingest [features.csv...]",
	Short: "Load extract-wikilinks features files into the index",
	Long: `Ingest reads wikilink features files (plain, .gz, or .xz) into a SQLite
database with FTS5 indexing over anchor text, and writes an export file.
Files whose content has not changed since the last run are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndexIngest,
}

func runIndexIngest(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.Ingest(context.Background(), args, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var indexQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the index with full-text search and filters",
	Long: `Query searches link anchors and targets using FTS5 full-text search,
structured filters (link, page, section), or a combination of both.`,
	RunE: runIndexQuery,
}

func runIndexQuery(cmd *cobra.Command, args []string) error {
	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search text, --link, --page, or --section")
	}

	s, err := store.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(cmd.OutOrStdout(), results, jsonOutput)
}

func formatQueryOutput(w io.Writer, results []store.Link, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-25s  %-25s  %-30s  %s\n",
		"Rank", "Page", "Link", "Anchor", "Section")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, r := range results {
		link := r.Link
		if r.ToSection != "" {
			link += "#" + r.ToSection
		}
		section := r.SectionName
		if section == extract.IncipitName {
			section = "(incipit)"
		}
		fmt.Fprintf(w, "%-4d  %-25s  %-25s  %-30s  %s\n",
			i+1, truncate(r.PageTitle, 25), truncate(link, 25), truncate(r.Anchor, 30), section)
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// --- export subcommand ---

var indexExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the index to YAML or JSON",
	Long: `Export writes the full index (or a filtered subset) to
index/export.yaml or index/export.json under the store directory. Supports
the same filter flags as query for partial exports.`,
	RunE: runIndexExport,
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	s, err := store.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, args)
	ctx := context.Background()

	switch format {
	case "yaml", "":
		err = s.ExportYAML(ctx, opts)
		format = "yaml"
	case "json":
		err = s.ExportJSON(ctx, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", s.ExportPath(format))
	return nil
}

// --- shared helpers ---

func storeConfig() types.StoreConfig {
	return types.StoreConfig{
		Dir:        viper.GetString("store.dir"),
		MaxResults: viper.GetInt("store.max_results"),
	}
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	link, _ := cmd.Flags().GetString("link")
	page, _ := cmd.Flags().GetString("page")
	section, _ := cmd.Flags().GetString("section")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Query:      queryText,
		Link:       link,
		PageTitle:  page,
		Section:    section,
		MaxResults: limit,
	}
}

func addFilterFlags(cmd *cobra.Command, purpose string) {
	cmd.Flags().String("query", "", "full-text search over anchors and links"+purpose)
	cmd.Flags().String("link", "", "filter by link target"+purpose)
	cmd.Flags().String("page", "", "filter by the page containing the link"+purpose)
	cmd.Flags().String("section", "", "filter by section name"+purpose)
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	indexCmd.PersistentFlags().String("store-dir", "store", "base directory for the index (contains index/)")
	indexCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")
	bindFlags(indexCmd, map[string]string{
		"store-dir":   "store.dir",
		"max-results": "store.max_results",
	})

	addFilterFlags(indexQueryCmd, "")
	indexQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	indexQueryCmd.Flags().Bool("json", false, "output results as JSON")

	indexExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	addFilterFlags(indexExportCmd, " for partial export")
	indexExportCmd.Flags().Int("limit", 0, "maximum links to export (0 = all)")

	indexCmd.AddCommand(indexIngestCmd)
	indexCmd.AddCommand(indexQueryCmd)
	indexCmd.AddCommand(indexExportCmd)

	rootCmd.AddCommand(indexCmd)
}
