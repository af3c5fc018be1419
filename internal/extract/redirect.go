// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"iter"
	"regexp"
	"strings"
	"sync"

	"github.com/pdiddy/wikidump/internal/languages"
)

// Redirect is the page (and optional section) a redirect points to.
type Redirect struct {
	Target    string `json:"target" yaml:"target"`
	ToSection string `json:"tosection" yaml:"tosection"`
}

// SeeAlso is one page named by a "see also" template.
type SeeAlso struct {
	Target    string `json:"target" yaml:"target"`
	ToSection string `json:"tosection" yaml:"tosection"`
}

// redirectPattern matches a redirect at the very start of the document.
// %s is replaced by the alternation of the language's magic words.
const redirectPattern = `(?i)\A\s*#(?:%s)\s*\[\[` +
	`(?P<link>[^\n|\[\]<>{}]{0,256})` +
	`(?:\|(?P<anchor>[^\[]*?))?` +
	`\]\]`

// seeAlsoPattern matches a "see also" template; %s is the alternation of the
// template names. Arguments cannot contain braces.
const seeAlsoPattern = `\{\{\s*(?:%s)\s*\|(?P<args>[^{}]*)\}\}`

// Grammars holds the per-language redirect and "see also" patterns compiled
// from a language registry. It is immutable once built.
type Grammars struct {
	registry *languages.Registry
	redirect map[string]*regexp.Regexp
	seeAlso  map[string]*regexp.Regexp
}

// CompileGrammars compiles the patterns for every language in reg.
func CompileGrammars(reg *languages.Registry) (*Grammars, error) {
	g := &Grammars{
		registry: reg,
		redirect: make(map[string]*regexp.Regexp),
		seeAlso:  make(map[string]*regexp.Regexp),
	}
	for _, lang := range reg.Supported() {
		words, err := reg.RedirectWords(lang)
		if err != nil {
			return nil, err
		}
		re, err := regexp.Compile(fmt.Sprintf(redirectPattern, alternation(words)))
		if err != nil {
			return nil, fmt.Errorf("compiling redirect pattern for %q: %w", lang, err)
		}
		g.redirect[lang] = re

		names, err := reg.SeeAlsoTemplates(lang)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			continue
		}
		re, err = regexp.Compile(fmt.Sprintf(seeAlsoPattern, alternation(names)))
		if err != nil {
			return nil, fmt.Errorf("compiling see-also pattern for %q: %w", lang, err)
		}
		g.seeAlso[lang] = re
	}
	return g, nil
}

// DefaultGrammars returns the grammars for the built-in language table.
var DefaultGrammars = sync.OnceValue(func() *Grammars {
	g, err := CompileGrammars(languages.Default())
	if err != nil {
		panic(fmt.Sprintf("extract: compiling built-in grammars: %v", err))
	}
	return g
})

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

// Redirects returns the redirects at the start of source for lang. It fails
// before scanning when lang has no configured magic words.
func (g *Grammars) Redirects(source, lang string) (iter.Seq[Capture[Redirect]], error) {
	re, ok := g.redirect[lang]
	if !ok {
		return nil, &languages.UnsupportedLanguageError{Language: lang}
	}
	linkIdx := re.SubexpIndex("link")
	anchorIdx := re.SubexpIndex("anchor")

	// The pattern is anchored at the start of the document, so there is at
	// most one redirect.
	return func(yield func(Capture[Redirect]) bool) {
		if m := re.FindStringSubmatchIndex(source); m != nil {
			target := strings.TrimSpace(group(source, m, linkIdx))
			anchor := group(source, m, anchorIdx)
			if anchor == "" {
				anchor = target
			}
			anchor = strings.TrimSpace(strings.ReplaceAll(anchor, "\n", " "))

			var tosection string
			if page, section, found := strings.Cut(target, "#"); found {
				target, tosection = page, section
			}
			if target == "" && anchor != "" {
				target = anchor
			}

			yield(newCapture(Redirect{Target: target, ToSection: tosection}, m[0], m[1]))
		}
	}, nil
}

// SeeAlsos returns one capture per page named by a "see also" template in
// source. Named arguments (label=...) are skipped. Every target of a
// template shares the template's span.
func (g *Grammars) SeeAlsos(source, lang string) (iter.Seq[Capture[SeeAlso]], error) {
	if _, err := g.registry.SeeAlsoTemplates(lang); err != nil {
		return nil, err
	}
	re, ok := g.seeAlso[lang]
	if !ok {
		return func(func(Capture[SeeAlso]) bool) {}, nil
	}
	argsIdx := re.SubexpIndex("args")

	return func(yield func(Capture[SeeAlso]) bool) {
		for m := range submatches(re, source) {
			for _, arg := range strings.Split(group(source, m, argsIdx), "|") {
				arg = strings.TrimSpace(arg)
				if arg == "" || strings.Contains(arg, "=") {
					continue
				}
				sa := SeeAlso{Target: arg}
				if page, section, found := strings.Cut(arg, "#"); found {
					sa.Target, sa.ToSection = strings.TrimSpace(page), section
				}
				if !yield(newCapture(sa, m[0], m[1])) {
					return
				}
			}
		}
	}, nil
}

// Redirects detects redirects with the built-in language table.
func Redirects(source, lang string) (iter.Seq[Capture[Redirect]], error) {
	return DefaultGrammars().Redirects(source, lang)
}

// SeeAlsos detects "see also" templates with the built-in language table.
func SeeAlsos(source, lang string) (iter.Seq[Capture[SeeAlso]], error) {
	return DefaultGrammars().SeeAlsos(source, lang)
}
