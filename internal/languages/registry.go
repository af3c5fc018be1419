// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package languages holds the per-language keyword tables used by redirect
// and "see also" detection. Tables are loaded once into an immutable
// Registry; the built-in table is embedded from languages.yaml.
package languages

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed languages.yaml
var builtinTable []byte

// ErrUnsupportedLanguage matches every UnsupportedLanguageError.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// UnsupportedLanguageError reports a language with no configured table.
type UnsupportedLanguageError struct {
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("language %q has no configured keyword table", e.Language)
}

// Unwrap lets errors.Is(err, ErrUnsupportedLanguage) match.
func (e *UnsupportedLanguageError) Unwrap() error { return ErrUnsupportedLanguage }

// Table is the YAML form of the keyword tables.
type Table struct {
	// Redirect maps a language code to its redirect magic words, in order.
	Redirect map[string][]string `yaml:"redirect"`

	// SeeAlso maps a language code to its "see also" template names.
	SeeAlso map[string][]string `yaml:"seealso"`
}

// Registry is an immutable set of keyword tables. Lookups return copies.
type Registry struct {
	redirect map[string][]string
	seeAlso  map[string][]string
}

// Parse builds a Registry from YAML table data.
func Parse(data []byte) (*Registry, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing language table: %w", err)
	}
	return FromTable(t)
}

// FromTable builds a Registry from t. Every language needs at least one
// redirect word; "see also" lists may be empty.
func FromTable(t Table) (*Registry, error) {
	r := &Registry{
		redirect: make(map[string][]string, len(t.Redirect)),
		seeAlso:  make(map[string][]string, len(t.SeeAlso)),
	}
	for lang, words := range t.Redirect {
		if len(words) == 0 {
			return nil, fmt.Errorf("language %q: empty redirect word list", lang)
		}
		r.redirect[lang] = slices.Clone(words)
	}
	for lang, names := range t.SeeAlso {
		r.seeAlso[lang] = slices.Clone(names)
	}
	return r, nil
}

// Load reads a YAML table from path and overlays it on the built-in table:
// languages present in the file replace the built-in entries.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading language table %s: %w", path, err)
	}

	var base, override Table
	if err := yaml.Unmarshal(builtinTable, &base); err != nil {
		return nil, fmt.Errorf("parsing built-in language table: %w", err)
	}
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parsing language table %s: %w", path, err)
	}
	for lang, words := range override.Redirect {
		base.Redirect[lang] = words
	}
	for lang, names := range override.SeeAlso {
		if base.SeeAlso == nil {
			base.SeeAlso = make(map[string][]string)
		}
		base.SeeAlso[lang] = names
	}
	return FromTable(base)
}

// Default returns the registry built from the embedded table.
var Default = sync.OnceValue(func() *Registry {
	r, err := Parse(builtinTable)
	if err != nil {
		panic(fmt.Sprintf("languages: built-in table: %v", err))
	}
	return r
})

// Supported returns the language codes with a redirect table, sorted.
func (r *Registry) Supported() []string {
	langs := make([]string, 0, len(r.redirect))
	for lang := range r.redirect {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// RedirectWords returns the redirect magic words for lang.
func (r *Registry) RedirectWords(lang string) ([]string, error) {
	words, ok := r.redirect[lang]
	if !ok {
		return nil, &UnsupportedLanguageError{Language: lang}
	}
	return slices.Clone(words), nil
}

// SeeAlsoTemplates returns the "see also" template names for lang. A
// language with a redirect table but no "see also" entry has none.
func (r *Registry) SeeAlsoTemplates(lang string) ([]string, error) {
	if _, ok := r.redirect[lang]; !ok {
		if _, ok := r.seeAlso[lang]; !ok {
			return nil, &UnsupportedLanguageError{Language: lang}
		}
	}
	return slices.Clone(r.seeAlso[lang]), nil
}
