// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the wikidump CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wikidump/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the wikidump CLI.
var rootCmd = &cobra.Command{
	Use:   "wikidump",
	Short: "Extract structure from MediaWiki XML dumps",
	Long: `wikidump streams MediaWiki XML dumps and extracts structural features
from every revision: wikilinks attributed to their sections, redirects,
revision lists, and section counts. Each processor writes a CSV features
file and an XML stats file per input dump.

Extracted wikilinks can be loaded into a local SQLite index for full-text
search and export.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./wikidump.yaml or ~/.config/wikidump/wikidump.yaml)")
	pf.String("output-dir", "output", "directory for features and stats files")
	pf.String("output-compression", "", "compress output files: gzip or xz")
	pf.BoolP("dry-run", "n", false, "process input but discard all output")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")

	pf.StringP("language", "l", "en", "wiki language code for redirect and see-also grammars")
	pf.String("languages-file", "", "YAML file overlaying the built-in magic-word table")
	pf.Duration("regex-timeout", 5*time.Second, "time budget for resolving one link candidate")
	pf.String("on-timeout", string(types.SkipRest), "after a timeout: skip-document or skip-rest")
	pf.Bool("only-last-revision", false, "process only the last revision of each page")

	bindFlags(rootCmd, map[string]string{
		"output-dir":         "output.dir",
		"output-compression": "output.compression",
		"dry-run":            "output.dry_run",
		"log-level":          "logging.level",
		"log-format":         "logging.format",
		"language":           "extract.language",
		"languages-file":     "extract.languages_file",
		"regex-timeout":      "extract.regex_timeout",
		"on-timeout":         "extract.on_timeout",
		"only-last-revision": "extract.only_last_revision",
	})
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("wikidump")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "wikidump"))
		}
	}

	viper.SetEnvPrefix("WIKIDUMP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindFlags ties flags to viper keys so config files and WIKIDUMP_*
// variables can supply their values. Each key is bound once.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for name, key := range keys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(name)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			panic(fmt.Sprintf("binding --%s: %v", name, err))
		}
	}
}

// loadConfig assembles the configuration from flags, the config file, and
// WIKIDUMP_* variables, in viper's precedence order.
func loadConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Output:  outputConfig(),
		Extract: extractConfig(),
		Store:   storeConfig(),
		Logging: types.LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
	}
}

func outputConfig() types.OutputConfig {
	return types.OutputConfig{
		Dir:         viper.GetString("output.dir"),
		Compression: types.Compression(viper.GetString("output.compression")),
		DryRun:      viper.GetBool("output.dry_run"),
	}
}

func extractConfig() types.ExtractConfig {
	return types.ExtractConfig{
		Language:         viper.GetString("extract.language"),
		LanguagesFile:    viper.GetString("extract.languages_file"),
		RegexTimeout:     viper.GetDuration("extract.regex_timeout"),
		OnTimeout:        types.TimeoutPolicy(viper.GetString("extract.on_timeout")),
		OnlyLastRevision: viper.GetBool("extract.only_last_revision"),
		EnsureSorted:     viper.GetBool("extract.ensure_sorted"),
		ChangeBytes:      viper.GetBool("extract.change_bytes"),
	}
}

// newLogger builds the structured logger on stderr. Progress lines go to
// stdout, so the two streams can be separated.
func newLogger(cfg types.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
