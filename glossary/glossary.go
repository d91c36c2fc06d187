// Package glossary holds forced term mappings ("translation rules") and
// selects the ones that apply to a language pair.
package glossary

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/minios-linux/langsurface/langcode"
)

// AnyLanguage matches every source or target language.
const AnyLanguage = "all"

// Rule forces From to be rendered as To when translating from SourceLang
// to TargetLang.
type Rule struct {
	SourceLang string `json:"sourceLang" yaml:"source_lang"`
	TargetLang string `json:"targetLang" yaml:"target_lang"`
	From       string `json:"from" yaml:"from"`
	To         string `json:"to" yaml:"to"`
}

func side(lang string) string {
	lang = langcode.Normalize(lang)
	if lang == "" {
		return AnyLanguage
	}
	return lang
}

// Normalized returns r with both languages normalized; empty becomes "all".
func (r Rule) Normalized() Rule {
	r.SourceLang = side(r.SourceLang)
	r.TargetLang = side(r.TargetLang)
	return r
}

// AppliesTo reports whether r is selected for the src→tgt pair.
func (r Rule) AppliesTo(src, tgt string) bool {
	n := r.Normalized()
	return (n.SourceLang == AnyLanguage || n.SourceLang == langcode.Normalize(src)) &&
		(n.TargetLang == AnyLanguage || n.TargetLang == langcode.Normalize(tgt))
}

// Pattern compiles From into a case-insensitive regular expression in which
// every '*' stands for exactly one character.
func (r Rule) Pattern() *regexp.Regexp {
	parts := strings.Split(r.From, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile("(?is)" + strings.Join(parts, "."))
}

// Match reports whether text contains r.From. An empty From never matches.
func (r Rule) Match(text string) bool {
	if r.From == "" {
		return false
	}
	return r.Pattern().MatchString(text)
}

// ForPair returns the rules that apply to the src→tgt pair, in order.
func ForPair(rules []Rule, src, tgt string) []Rule {
	var out []Rule
	for _, r := range rules {
		if r.AppliesTo(src, tgt) {
			out = append(out, r)
		}
	}
	return out
}

// Relevant narrows ForPair to the rules whose From occurs in text.
func Relevant(rules []Rule, src, tgt, text string) []Rule {
	var out []Rule
	for _, r := range ForPair(rules, src, tgt) {
		if r.Match(text) {
			out = append(out, r)
		}
	}
	return out
}

type instructionItem struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Instruction serializes rules into the JSON payload embedded in a
// translation prompt. It returns "" for no rules.
func Instruction(rules []Rule) string {
	if len(rules) == 0 {
		return ""
	}
	items := make([]instructionItem, len(rules))
	for i, r := range rules {
		items[i] = instructionItem{From: r.From, To: r.To}
	}
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return ""
	}
	return strings.TrimSpace(b.String())
}
