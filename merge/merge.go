// Package merge folds imported entries into projects.
//
// An import only ever touches the languages it carries:
//   - New keys are added, with "" for every project language.
//   - Existing keys keep their values for languages the import lacks.
//   - New languages are appended after the project's existing ones.
//   - An empty incoming value never blanks a non-empty translation unless
//     Options.AllowClear is set.
package merge

import (
	"slices"
	"sort"

	"github.com/minios-linux/langsurface/importer"
	"github.com/minios-linux/langsurface/langcode"
	"github.com/minios-linux/langsurface/project"
)

// Summary reports what Into changed.
type Summary struct {
	AddedKeys      []string
	UpdatedKeys    []string
	AddedLanguages []string
}

// Changed reports whether the merge modified the project.
func (s Summary) Changed() bool {
	return len(s.AddedKeys)+len(s.UpdatedKeys)+len(s.AddedLanguages) > 0
}

// Entries copies from into into, language by language. Languages missing
// from a key in from are left untouched in into.
func Entries(into, from map[string]map[string]string) {
	for key, src := range from {
		dst, ok := into[key]
		if !ok {
			dst = make(map[string]string, len(src))
			into[key] = dst
		}
		for lang, v := range src {
			dst[lang] = v
		}
	}
}

// Options controls IntoWith.
type Options struct {
	// AllowClear lets an explicit empty value replace a translation for a
	// language the import carries.
	AllowClear bool
}

// Into merges an import result into p with the default options.
func Into(p *project.Project, res *importer.Result) Summary {
	return IntoWith(p, res, Options{})
}

// IntoWith merges an import result into p.
func IntoWith(p *project.Project, res *importer.Result, opts Options) Summary {
	var sum Summary

	langs := mergeLanguages(p.Languages, res.Languages)
	for _, lang := range langs[len(p.Languages):] {
		if _, err := p.AddLanguage(lang); err == nil {
			sum.AddedLanguages = append(sum.AddedLanguages, lang)
		}
	}

	keys := make([]string, 0, len(res.Entries))
	for k := range res.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, raw := range keys {
		values := res.Entries[raw]
		key := project.NormalizeKey(raw)
		if key == "" {
			continue
		}
		if !p.HasKey(key) {
			if _, err := p.AddKey(key); err != nil {
				continue
			}
			sum.AddedKeys = append(sum.AddedKeys, key)
		}

		changed := false
		for lang, v := range values {
			lang = langcode.Normalize(lang)
			if !p.HasLanguage(lang) {
				continue
			}
			old := p.Translation(key, lang)
			if old == v || (v == "" && !opts.AllowClear) {
				continue
			}
			if err := p.SetTranslation(key, lang, v); err == nil {
				changed = true
			}
		}
		if changed && !slices.Contains(sum.AddedKeys, key) {
			sum.UpdatedKeys = append(sum.UpdatedKeys, key)
		}
	}
	return sum
}

// NewProject creates a project from an import result.
func NewProject(name string, res *importer.Result) *project.Project {
	return project.New(name, res.Languages, res.Entries)
}

// mergeLanguages keeps the existing order and appends unseen known
// languages from incoming.
func mergeLanguages(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, l := range existing {
		seen[l] = true
		out = append(out, l)
	}
	for _, l := range incoming {
		l = langcode.Normalize(l)
		if !langcode.IsLanguage(l) || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
