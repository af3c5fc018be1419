// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wikidump/internal/extract"
	"github.com/pdiddy/wikidump/internal/languages"
	"github.com/pdiddy/wikidump/internal/processor"
	"github.com/pdiddy/wikidump/pkg/types"
)

var extractWikilinksCmd = &cobra.Command{
	Use:   "extract-wikilinks [dumps...]",
	Short: "Extract wikilinks with their sections from every revision",
	Long: `Extract-wikilinks writes one row per wikilink per revision of each
article: the link target, the section it points to, its anchor text, and
the section of the page that contains it.

Each link is resolved under a time budget (--regex-timeout). After a
timeout, --on-timeout decides whether the rest of the revision is skipped
or only the offending document.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := newLogger(cfg.Logging)
		return runProcessor(cmd, cfg, processor.NewWikilinks(cfg.Extract, logger), logger, args)
	},
}

var extractRedirectsCmd = &cobra.Command{
	Use:   "extract-redirects [dumps...]",
	Short: "Extract redirect targets from every revision",
	Long: `Extract-redirects reports the redirect target of each revision in
timestamp order, with a #NOREDIRECT row when a page stops being a redirect.
Redirect magic words depend on the wiki language (--language); use
--languages-file to add or override languages.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := newLogger(cfg.Logging)

		var grammars *extract.Grammars
		if cfg.Extract.LanguagesFile != "" {
			reg, err := languages.Load(cfg.Extract.LanguagesFile)
			if err != nil {
				return err
			}
			if grammars, err = extract.CompileGrammars(reg); err != nil {
				return err
			}
		}

		p, err := processor.NewRedirects(grammars, cfg.Extract.Language, logger)
		if err != nil {
			return err
		}
		return runProcessor(cmd, cfg, p, logger, args)
	},
}

var extractRevisionListCmd = &cobra.Command{
	Use:   "extract-revisionlist [dumps...]",
	Short: "List revisions with their contributors and sizes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := newLogger(cfg.Logging)
		return runProcessor(cmd, cfg, processor.NewRevisionList(cfg.Extract, logger), logger, args)
	},
}

var countSectionsCmd = &cobra.Command{
	Use:   "count-sections [dumps...]",
	Short: "Count sections per heading level in every revision",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := newLogger(cfg.Logging)
		return runProcessor(cmd, cfg, processor.NewSectionCounter(cfg.Extract, logger), logger, args)
	},
}

// runProcessor runs p over every dump. Interrupts cancel the batch after
// the current dump's files are closed.
func runProcessor(cmd *cobra.Command, cfg types.PipelineConfig, p processor.Processor, logger *slog.Logger, dumps []string) error {
	switch cfg.Extract.OnTimeout {
	case "", types.SkipDocument, types.SkipRest:
	default:
		return fmt.Errorf("unknown --on-timeout %q: use %s or %s", cfg.Extract.OnTimeout, types.SkipDocument, types.SkipRest)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := processor.NewRunner(cfg.Output, logger, cmd.OutOrStdout())
	result := runner.RunBatch(ctx, p, dumps)

	fmt.Fprintf(cmd.OutOrStdout(), "\nprocessed: %d, failed: %d\n", result.Processed, result.Failed)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}
	if result.HasFailures() {
		return fmt.Errorf("%d dump(s) failed %s", result.Failed, p.Name())
	}
	return nil
}

func init() {
	extractRevisionListCmd.Flags().BoolP("ensure-sorted", "s", false, "sort each page's revisions by timestamp")
	extractRevisionListCmd.Flags().BoolP("change-bytes", "c", false, "add the byte change from the previous revision (implies --ensure-sorted)")
	bindFlags(extractRevisionListCmd, map[string]string{
		"ensure-sorted": "extract.ensure_sorted",
		"change-bytes":  "extract.change_bytes",
	})

	rootCmd.AddCommand(extractWikilinksCmd)
	rootCmd.AddCommand(extractRedirectsCmd)
	rootCmd.AddCommand(extractRevisionListCmd)
	rootCmd.AddCommand(countSectionsCmd)
}
